// Package service implements inventory business logic: product batch
// lifecycle, stock movements, expiry classification, alerts, and
// report generation.
package service

import (
	"context"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/expiry"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/report"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/actor"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// EventPublisher publishes domain events. Satisfied by
// messaging.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ProductService handles product and stock movement business logic.
type ProductService struct {
	db            *database.DB
	productRepo   *repository.ProductRepository
	movementRepo  *repository.MovementRepository
	alertRepo     *repository.AlertRepository
	publisher     EventPublisher
	thresholdDays int
	logger        *logger.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	db *database.DB,
	productRepo *repository.ProductRepository,
	movementRepo *repository.MovementRepository,
	alertRepo *repository.AlertRepository,
	publisher EventPublisher,
	thresholdDays int,
	log *logger.Logger,
) *ProductService {
	if thresholdDays <= 0 {
		thresholdDays = expiry.DefaultThresholdDays
	}
	return &ProductService{
		db:            db,
		productRepo:   productRepo,
		movementRepo:  movementRepo,
		alertRepo:     alertRepo,
		publisher:     publisher,
		thresholdDays: thresholdDays,
		logger:        log.WithComponent("inventory.product"),
	}
}

// ProductView is a product row enriched with its expiry
// classification.
type ProductView struct {
	*repository.ProductRow
	Expiry expiry.Result `json:"expiry"`
}

// DashboardStats summarizes the current stock position.
type DashboardStats struct {
	TotalProducts int           `json:"total_products"`
	UnitTotals    report.Totals `json:"unit_totals"`
	StockSummary  string        `json:"stock_summary"`
	ExpiringCount int           `json:"expiring_count"`
	ExpiredCount  int           `json:"expired_count"`
	OpenAlerts    int64         `json:"open_alerts"`
}

// CreateProduct validates and registers a new product batch.
func (s *ProductService) CreateProduct(ctx context.Context, product *repository.Product) (*ProductView, error) {
	if err := s.validateProduct(product); err != nil {
		return nil, err
	}

	product.ValidityDate = expiry.ToUTCMidnight(product.ValidityDate)
	product.ReceiptDate = expiry.ToUTCMidnight(product.ReceiptDate)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventProductCreated, messaging.ProductCreatedEvent{
		ProductID:    product.ID,
		Name:         product.Name,
		Quantity:     product.Quantity,
		Unit:         product.Unit,
		ValidityDate: product.ValidityDate,
		ReceiptType:  product.ReceiptType,
		CreatedBy:    actorID(ctx),
	})

	return s.GetProduct(ctx, product.ID)
}

// GetProduct gets a product with reference names and expiry status.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	row, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(row), nil
}

// ListProducts lists products with expiry classification applied to
// each batch.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*ProductView, error) {
	rows, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*ProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.enrich(row))
	}
	return views, nil
}

// UpdateProduct updates a product batch.
func (s *ProductService) UpdateProduct(ctx context.Context, product *repository.Product) (*ProductView, error) {
	if err := s.validateProduct(product); err != nil {
		return nil, err
	}

	product.ValidityDate = expiry.ToUTCMidnight(product.ValidityDate)
	product.ReceiptDate = expiry.ToUTCMidnight(product.ReceiptDate)

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventProductUpdated, messaging.ProductUpdatedEvent{
		ProductID: product.ID,
		Fields: map[string]any{
			"name":          product.Name,
			"quantity":      product.Quantity,
			"unit":          product.Unit,
			"validity_date": product.ValidityDate,
		},
		UpdatedBy: actorID(ctx),
	})

	return s.GetProduct(ctx, product.ID)
}

// DeleteProduct soft-deletes a product batch.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	row, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, messaging.EventProductDeleted, messaging.ProductDeletedEvent{
		ProductID: id,
		Name:      row.Name,
		DeletedBy: actorID(ctx),
	})

	return nil
}

// RegisterIntake adds stock to a product batch and records the
// movement atomically.
func (s *ProductService) RegisterIntake(ctx context.Context, productID string, quantity float64, reason string) (*repository.StockMovement, error) {
	return s.registerMovement(ctx, productID, repository.MovementIntake, quantity, reason)
}

// RegisterOutflow removes stock from a product batch and records the
// movement atomically. Outflows that exceed the available quantity are
// rejected.
func (s *ProductService) RegisterOutflow(ctx context.Context, productID string, quantity float64, reason string) (*repository.StockMovement, error) {
	return s.registerMovement(ctx, productID, repository.MovementOutflow, quantity, reason)
}

func (s *ProductService) registerMovement(ctx context.Context, productID, movementType string, quantity float64, reason string) (*repository.StockMovement, error) {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, errors.InvalidQuantity("movement quantity must be a positive finite number")
	}

	delta := quantity
	if movementType == repository.MovementOutflow {
		delta = -quantity
	}

	movement := &repository.StockMovement{
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
	}
	if reason != "" {
		movement.Reason = &reason
	}
	if id := actorID(ctx); id != "" {
		movement.PerformedBy = &id
	}

	var newQuantity float64
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		newQuantity, err = s.productRepo.AdjustQuantity(ctx, tx, productID, delta)
		if err != nil {
			return err
		}
		return s.movementRepo.CreateTx(ctx, tx, movement)
	})
	if err != nil {
		return nil, err
	}

	row, getErr := s.productRepo.GetByID(ctx, productID)
	unit := ""
	if getErr == nil {
		unit = row.Unit
	}

	s.publish(ctx, messaging.EventMovementRegistered, messaging.MovementRegisteredEvent{
		MovementID:   movement.ID,
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		Unit:         unit,
		NewQuantity:  newQuantity,
		PerformedBy:  actorID(ctx),
		Reason:       reason,
	})

	s.logger.Info().
		Str("product_id", productID).
		Str("movement_type", movementType).
		Float64("quantity", quantity).
		Float64("new_quantity", newQuantity).
		Msg("stock movement registered")

	return movement, nil
}

// ListMovements lists movements for one product, newest first.
func (s *ProductService) ListMovements(ctx context.Context, productID string) ([]*repository.StockMovement, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.movementRepo.ListByProduct(ctx, productID)
}

// RecentMovements lists the latest movements across all products.
func (s *ProductService) RecentMovements(ctx context.Context, limit int) ([]*repository.MovementRow, error) {
	return s.movementRepo.ListRecent(ctx, limit)
}

// GetDashboardStats computes dashboard statistics.
func (s *ProductService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	total, err := s.productRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	unitTotals, err := s.productRepo.UnitTotals(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]report.LineItem, 0, len(unitTotals))
	for _, ut := range unitTotals {
		items = append(items, report.LineItem{Quantity: ut.Total, Unit: report.Unit(ut.Unit)})
	}
	totals, err := report.Aggregate(items)
	if err != nil {
		return nil, err
	}

	expiring, err := s.productRepo.ExpiringWithin(ctx, s.thresholdDays)
	if err != nil {
		return nil, err
	}

	expired, err := s.productRepo.Expired(ctx)
	if err != nil {
		return nil, err
	}

	openAlerts, err := s.alertRepo.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalProducts: total,
		UnitTotals:    totals,
		StockSummary:  report.Summarize(totals),
		ExpiringCount: len(expiring),
		ExpiredCount:  len(expired),
		OpenAlerts:    openAlerts,
	}, nil
}

func (s *ProductService) enrich(row *repository.ProductRow) *ProductView {
	result := expiry.Classify(row.ValidityDate, expiry.Options{
		ThresholdDays: s.thresholdDays,
		DateOnly:      true,
	})
	return &ProductView{ProductRow: row, Expiry: result}
}

func (s *ProductService) validateProduct(product *repository.Product) error {
	details := map[string]string{}

	if strings.TrimSpace(product.Name) == "" {
		details["name"] = "name is required"
	}
	if !report.Unit(product.Unit).Valid() {
		details["unit"] = "unit must be one of: KG, G, L, UN"
	}
	if product.ReceiptType != repository.ReceiptDonation && product.ReceiptType != repository.ReceiptPurchase {
		details["receipt_type"] = "receipt type must be DONATION or PURCHASE"
	}
	if product.ValidityDate.IsZero() {
		details["validity_date"] = "validity date is required"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}

	if product.Quantity < 0 || math.IsNaN(product.Quantity) || math.IsInf(product.Quantity, 0) {
		return errors.InvalidQuantity("quantity must be a non-negative finite number")
	}
	return nil
}

func (s *ProductService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}
