// Package handler exposes the master-data HTTP endpoints: CRUD per
// reference collection plus the combobox-flavored search, inline-create
// and guarded-delete routes backed by the reference-data resolver.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/service"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/refdata"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// ReferenceHandler handles the endpoints of one reference collection.
type ReferenceHandler struct {
	service *service.ReferenceService
	store   refdata.Store
	logger  *logger.Logger
}

// NewReferenceHandler creates a handler over a reference service.
func NewReferenceHandler(svc *service.ReferenceService, log *logger.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		service: svc,
		store:   service.NewStore(svc),
		logger:  log,
	}
}

// Routes mounts the collection's routes on a chi router.
func (h *ReferenceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/usage", h.Usage)
	return r
}

type createReferenceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// List lists all entries.
func (h *ReferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetAll(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// Search runs each request through a fresh resolver so the response
// carries the combobox-shaped {success, options} payload.
func (h *ReferenceHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	resolver := refdata.NewResolver(h.store, h.logger)
	result := resolver.Search(r.Context(), query)

	httputil.JSON(w, http.StatusOK, result)
}

// Get gets an entry by ID.
func (h *ReferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Create creates an entry inline.
func (h *ReferenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReferenceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	entry, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, entry)
}

// Delete removes an entry; deletion is refused while products still
// reference it.
func (h *ReferenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// Usage reports whether the entry is referenced by any product.
func (h *ReferenceHandler) Usage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	used, err := h.service.CheckUsage(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"is_used": used})
}
