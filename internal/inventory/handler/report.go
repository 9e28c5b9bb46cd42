package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/service"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// groupByFields maps query values to product row fields.
var groupByFields = map[string]string{
	"group":    "GroupName",
	"category": "CategoryName",
	"subgroup": "SubgroupName",
	"donor":    "DonorName",
	"supplier": "SupplierName",
}

// ReportHandler serves report downloads.
type ReportHandler struct {
	service *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{service: svc, logger: log}
}

// Routes mounts the report routes on a chi router.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{kind}", h.Export)
	return r
}

// Export generates and serves a report. The format query selects pdf
// (default) or xlsx; group_by partitions rows by a reference name.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	format := r.URL.Query().Get("format")

	groupBy := ""
	if value := r.URL.Query().Get("group_by"); value != "" {
		field, ok := groupByFields[value]
		if !ok {
			httputil.ErrorLocalized(w, r, errors.BadRequest("unknown group_by value: "+value))
			return
		}
		groupBy = field
	}

	doc, err := h.service.Build(r.Context(), kind, groupBy)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	data, contentType, filename, err := h.service.Render(r.Context(), doc, format)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", kind).Str("format", format).Msg("failed to render report")
		httputil.ErrorLocalized(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}
