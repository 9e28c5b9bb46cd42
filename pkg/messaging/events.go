package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Product events
	EventProductCreated = "inventory.product.created"
	EventProductUpdated = "inventory.product.updated"
	EventProductDeleted = "inventory.product.deleted"

	// Stock movement events
	EventMovementRegistered = "inventory.movement.registered"

	// Expiry events
	EventProductExpiring = "inventory.product.expiring"
	EventProductExpired  = "inventory.product.expired"
	EventAlertGenerated  = "inventory.alert.generated"

	// Reference data events
	EventReferenceCreated = "masterdata.reference.created"
	EventReferenceDeleted = "masterdata.reference.deleted"

	// Report events
	EventReportGenerated = "report.generated"

	// User events
	EventUserCreated     = "user.created"
	EventUserUpdated     = "user.updated"
	EventUserDeleted     = "user.deleted"
	EventUserRoleChanged = "user.role.changed"

	// Audit events
	EventAuditLogCreated = "audit.log.created"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
	ExchangeReportEvents    = "report.events"
	ExchangeUserEvents      = "user.events"
	ExchangeAuditEvents     = "audit.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Product Events

// ProductCreatedEvent is published when a product is registered
type ProductCreatedEvent struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	ValidityDate time.Time `json:"validity_date"`
	ReceiptType  string    `json:"receipt_type"`
	CreatedBy    string    `json:"created_by"`
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	ProductID string         `json:"product_id"`
	Fields    map[string]any `json:"fields"` // Changed fields
	UpdatedBy string         `json:"updated_by"`
}

// ProductDeletedEvent is published when a product is deleted
type ProductDeletedEvent struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	DeletedBy string `json:"deleted_by"`
}

// Stock Movement Events

// MovementRegisteredEvent is published when stock moves in or out
type MovementRegisteredEvent struct {
	MovementID   string  `json:"movement_id"`
	ProductID    string  `json:"product_id"`
	MovementType string  `json:"movement_type"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	NewQuantity  float64 `json:"new_quantity"`
	PerformedBy  string  `json:"performed_by"`
	Reason       string  `json:"reason,omitempty"`
}

// Expiry Events

// ProductExpiringEvent is published when a product is nearing its validity date
type ProductExpiringEvent struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	ValidityDate time.Time `json:"validity_date"`
	DaysUntil    int       `json:"days_until"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
}

// ProductExpiredEvent is published when a product's validity date has passed
type ProductExpiredEvent struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	ValidityDate time.Time `json:"validity_date"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
}

// AlertGeneratedEvent is published when an expiry alert is generated
type AlertGeneratedEvent struct {
	AlertID   string `json:"alert_id"`
	AlertType string `json:"alert_type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
}

// Reference Data Events

// ReferenceCreatedEvent is published when a reference entry is created
type ReferenceCreatedEvent struct {
	ReferenceID string `json:"reference_id"`
	Collection  string `json:"collection"`
	Name        string `json:"name"`
	CreatedBy   string `json:"created_by"`
}

// ReferenceDeletedEvent is published when a reference entry is deleted
type ReferenceDeletedEvent struct {
	ReferenceID string `json:"reference_id"`
	Collection  string `json:"collection"`
	Name        string `json:"name"`
	DeletedBy   string `json:"deleted_by"`
}

// Report Events

// ReportGeneratedEvent is published when a report export completes
type ReportGeneratedEvent struct {
	ReportType  string `json:"report_type"`
	Format      string `json:"format"`
	RowCount    int    `json:"row_count"`
	RequestedBy string `json:"requested_by"`
}

// User Events

// UserCreatedEvent is published when a user is created
type UserCreatedEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	RoleName string `json:"role_name"`
}

// UserUpdatedEvent is published when a user is updated
type UserUpdatedEvent struct {
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"` // Changed fields
}

// UserDeletedEvent is published when a user is deleted
type UserDeletedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// UserRoleChangedEvent is published when a user's role changes
type UserRoleChangedEvent struct {
	UserID      string `json:"user_id"`
	OldRoleName string `json:"old_role_name"`
	NewRoleName string `json:"new_role_name"`
}

// Audit Events

// AuditLogCreatedEvent is published when an audit log entry is created
type AuditLogCreatedEvent struct {
	LogID      string         `json:"log_id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
