package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers record lifecycle changes that must be retained
	// (customer created, updated, deleted).
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers bulk or administrative actions useful for
	// operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Subject identifies the affected record, e.g. a customer id.
	Subject   string
	Email     string
	RequestID string
	ClientIP  string
}

type AuditEvent string

const (
	EventCustomerCreated  AuditEvent = "customer_created"
	EventCustomerUpdated  AuditEvent = "customer_updated"
	EventCustomerDeleted  AuditEvent = "customer_deleted"
	EventCustomersCleared AuditEvent = "customers_cleared"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCustomerCreated:  CategoryCompliance,
	EventCustomerUpdated:  CategoryCompliance,
	EventCustomerDeleted:  CategoryCompliance,
	EventCustomersCleared: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

func (e AuditEvent) String() string {
	return string(e)
}

// Store persists audit events. Implementations must honour an ambient SQL
// transaction in ctx when they have one.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is a serialized event waiting to be relayed to a sink.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Payload is the JSON document relayed to sinks for each event.
type Payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Subject   string `json:"subject,omitempty"`
	Email     string `json:"email,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
}

// NewPayload builds the wire document for event under eventID.
func NewPayload(eventID uuid.UUID, event Event) Payload {
	category := event.Category
	if category == "" {
		category = AuditEvent(event.Action).Category()
	}
	return Payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    event.Action,
		Subject:   event.Subject,
		Email:     event.Email,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
	}
}
