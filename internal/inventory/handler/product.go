// Package handler exposes the inventory HTTP endpoints: product batch
// CRUD, stock movements, the dashboard summary, alerts, and report
// exports.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/expiry"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/service"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/i18n"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// ProductHandler handles product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc *service.ProductService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: log}
}

// Routes mounts the product routes on a chi router.
func (h *ProductHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/movements", h.ListMovements)
	r.Post("/{id}/intake", h.RegisterIntake)
	r.Post("/{id}/outflow", h.RegisterOutflow)
	return r
}

type productRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"required,oneof=KG G L UN"`
	ValidityDate string  `json:"validity_date" validate:"required"`
	ReceiptDate  string  `json:"receipt_date" validate:"required"`
	ReceiptType  string  `json:"receipt_type" validate:"required,oneof=DONATION PURCHASE"`
	CategoryID   *string `json:"category_id,omitempty"`
	GroupID      *string `json:"group_id,omitempty"`
	SubgroupID   *string `json:"subgroup_id,omitempty"`
	DonorID      *string `json:"donor_id,omitempty"`
	SupplierID   *string `json:"supplier_id,omitempty"`
}

// productResponse adds the localized expiry status label to a product
// view, following the request's Accept-Language locale.
type productResponse struct {
	*service.ProductView
	StatusLabel string `json:"status_label"`
}

func present(ctx context.Context, view *service.ProductView) productResponse {
	return productResponse{
		ProductView: view,
		StatusLabel: i18n.TFromContext(ctx, view.Expiry.Status.MessageKey()),
	}
}

func presentAll(ctx context.Context, views []*service.ProductView) []productResponse {
	out := make([]productResponse, 0, len(views))
	for _, view := range views {
		out = append(out, present(ctx, view))
	}
	return out
}

type movementRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason,omitempty" validate:"max=500"`
}

func (req *productRequest) toProduct() (*repository.Product, error) {
	validity, err := expiry.ParseDate(req.ValidityDate)
	if err != nil {
		return nil, err
	}
	receipt, err := expiry.ParseDate(req.ReceiptDate)
	if err != nil {
		return nil, err
	}

	return &repository.Product{
		Name:         req.Name,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		ValidityDate: validity,
		ReceiptDate:  receipt,
		ReceiptType:  req.ReceiptType,
		CategoryID:   req.CategoryID,
		GroupID:      req.GroupID,
		SubgroupID:   req.SubgroupID,
		DonorID:      req.DonorID,
		SupplierID:   req.SupplierID,
	}, nil
}

// List lists products with expiry classification.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		Search:      r.URL.Query().Get("search"),
		ReceiptType: r.URL.Query().Get("receipt_type"),
		GroupID:     r.URL.Query().Get("group_id"),
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, presentAll(r.Context(), products))
}

// Get gets a product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, present(r.Context(), product))
}

// Create registers a new product batch.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	product, err := req.toProduct()
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	view, err := h.service.CreateProduct(r.Context(), product)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, present(r.Context(), view))
}

// Update updates a product batch.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	product, err := req.toProduct()
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	product.ID = chi.URLParam(r, "id")

	view, err := h.service.UpdateProduct(r.Context(), product)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, present(r.Context(), view))
}

// Delete soft-deletes a product batch.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// ListMovements lists movements for a product.
func (h *ProductHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.ListMovements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}

// RegisterIntake adds stock to a product batch.
func (h *ProductHandler) RegisterIntake(w http.ResponseWriter, r *http.Request) {
	h.registerMovement(w, r, h.service.RegisterIntake)
}

// RegisterOutflow removes stock from a product batch.
func (h *ProductHandler) RegisterOutflow(w http.ResponseWriter, r *http.Request) {
	h.registerMovement(w, r, h.service.RegisterOutflow)
}

func (h *ProductHandler) registerMovement(
	w http.ResponseWriter,
	r *http.Request,
	register func(ctx context.Context, productID string, quantity float64, reason string) (*repository.StockMovement, error),
) {
	var req movementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	movement, err := register(r.Context(), chi.URLParam(r, "id"), req.Quantity, req.Reason)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, movement)
}
