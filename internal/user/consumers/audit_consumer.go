// Package consumers records audit trail entries from domain events so
// every inventory change is attributable, including ones made by
// background jobs.
package consumers

import (
	"context"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/domain"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// AuditEventConsumer consumes inventory events and writes audit log entries
type AuditEventConsumer struct {
	consumer  *messaging.Consumer
	auditRepo *repository.AuditRepository
	logger    *logger.Logger
}

// NewAuditEventConsumer creates a new audit event consumer
func NewAuditEventConsumer(rmq *messaging.RabbitMQ, auditRepo *repository.AuditRepository, log *logger.Logger) (*AuditEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "smartstock-api.audit-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, "inventory.#"); err != nil {
		return nil, err
	}

	c := &AuditEventConsumer{
		consumer:  consumer,
		auditRepo: auditRepo,
		logger:    log.WithComponent("audit_consumer"),
	}

	consumer.RegisterHandler(messaging.EventProductCreated, c.handleProductCreated)
	consumer.RegisterHandler(messaging.EventProductUpdated, c.handleProductUpdated)
	consumer.RegisterHandler(messaging.EventProductDeleted, c.handleProductDeleted)
	consumer.RegisterHandler(messaging.EventMovementRegistered, c.handleMovementRegistered)

	return c, nil
}

// Start starts consuming messages
func (c *AuditEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *AuditEventConsumer) handleProductCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	return c.record(ctx, "product.created", data.ProductID, data.CreatedBy, domain.ChangeSet{
		"name":     data.Name,
		"quantity": data.Quantity,
		"unit":     data.Unit,
	})
}

func (c *AuditEventConsumer) handleProductUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	return c.record(ctx, "product.updated", data.ProductID, data.UpdatedBy, domain.ChangeSet(data.Fields))
}

func (c *AuditEventConsumer) handleProductDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	return c.record(ctx, "product.deleted", data.ProductID, data.DeletedBy, domain.ChangeSet{
		"name": data.Name,
	})
}

func (c *AuditEventConsumer) handleMovementRegistered(ctx context.Context, event *messaging.Event) error {
	var data messaging.MovementRegisteredEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	return c.record(ctx, "movement.registered", data.ProductID, data.PerformedBy, domain.ChangeSet{
		"movement_type": data.MovementType,
		"quantity":      data.Quantity,
		"unit":          data.Unit,
		"new_quantity":  data.NewQuantity,
	})
}

func (c *AuditEventConsumer) record(ctx context.Context, action, resourceID, performedBy string, changes domain.ChangeSet) error {
	entry := &domain.AuditLog{
		Action:     action,
		Resource:   "product",
		ResourceID: &resourceID,
		Changes:    changes,
	}
	if performedBy != "" {
		entry.UserID = &performedBy
	}

	if err := c.auditRepo.Create(ctx, entry); err != nil {
		c.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
		return err
	}

	c.logger.Debug().
		Str("action", action).
		Str("resource_id", resourceID).
		Msg("audit entry recorded")
	return nil
}
