package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and sinks.
type EventCategory string

const (
	// CategoryCompliance covers events that bind the service to a treaty
	// position or a license: scrolls signed, licenses issued.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected signatures and tokens.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine verification traffic.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventScrollSigned     AuditEvent = "scroll_signed"
	EventScrollValidated  AuditEvent = "scroll_validated"
	EventLicenseIssued    AuditEvent = "license_issued"
	EventLicenseValidated AuditEvent = "license_validated"
	EventTokenRejected    AuditEvent = "token_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventScrollSigned:     CategoryCompliance,
	EventLicenseIssued:    CategoryCompliance,
	EventTokenRejected:    CategorySecurity,
	EventScrollValidated:  CategoryOperations,
	EventLicenseValidated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory     `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Subject   string            `json:"subject"` // scroll_id or license_id
	Decision  string            `json:"decision,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewEvent builds an event for action with its category filled in.
func NewEvent(action AuditEvent, subject string) Event {
	return Event{
		Category: action.Category(),
		Action:   string(action),
		Subject:  subject,
	}
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every event after it is stored.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
