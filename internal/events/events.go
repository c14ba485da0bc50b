package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published to the marketplace topic
const (
	TypeOrderPlaced    = "order.placed"
	TypeOrderStatus    = "order.status_changed"
	TypeReviewAdded    = "review.added"
	TypeCreditDrawn    = "credit.drawn"
	TypeCreditRepaid   = "credit.repaid"
	TypeAccountBlocked = "credit.blocked"
)

// Event is the envelope for every marketplace event
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	VendorID   uuid.UUID `json:"vendor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New builds an event keyed by the vendor it concerns
func New(eventType string, vendorID uuid.UUID, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		VendorID:   vendorID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events after the state change they describe has been committed
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

func (nopPublisher) Close() error { return nil }
