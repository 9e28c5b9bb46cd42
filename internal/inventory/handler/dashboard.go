package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/service"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// DashboardHandler serves the stock summary and recent activity.
type DashboardHandler struct {
	service *service.ProductService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *service.ProductService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: log}
}

// Routes mounts the dashboard routes on a chi router.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", h.Stats)
	r.Get("/movements", h.RecentMovements)
	return r
}

// Stats returns the current stock position.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// RecentMovements returns the latest stock movements.
func (h *DashboardHandler) RecentMovements(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	movements, err := h.service.RecentMovements(r.Context(), limit)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}
