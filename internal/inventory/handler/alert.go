package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/service"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// AlertHandler handles alert endpoints.
type AlertHandler struct {
	service *service.AlertService
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(svc *service.AlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{service: svc, logger: log}
}

// Routes mounts the alert routes on a chi router.
func (h *AlertHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/count", h.Count)
	r.Post("/{id}/acknowledge", h.Acknowledge)
	r.Post("/{id}/resolve", h.Resolve)
	return r
}

// List lists active alerts.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListActive(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}

// Count returns the number of unresolved alerts.
func (h *AlertHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountOpen(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"count": count})
}

// Acknowledge marks an alert as seen.
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Acknowledge(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// Resolve manually resolves an alert.
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Resolve(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
