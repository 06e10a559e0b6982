package transfer

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
)

type EventType string

const (
	EventRequested EventType = "transfer.requested"
	EventAccepted  EventType = "transfer.accepted"
	EventDeclined  EventType = "transfer.declined"
	EventExpired   EventType = "transfer.expired"
)

// Event tells a recipient that a transfer changed. Exactly one of
// RecipientAccountID and RecipientEmail identifies who should hear about it.
type Event struct {
	Type               EventType `json:"type"`
	OrderID            int64     `json:"order_id"`
	RecipientAccountID *int64    `json:"recipient_account_id,omitempty"`
	RecipientEmail     string    `json:"recipient_email,omitempty"`
	Total              string    `json:"total"`
	Instructions       string    `json:"instructions,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=transfer
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }

// requestedEvent addresses the destination of a new transfer.
func requestedEvent(o *order.Order, dest Destination, instructions string, at time.Time) Event {
	e := Event{
		Type:         EventRequested,
		OrderID:      o.ID,
		Total:        o.Total.StringFixed(2),
		Instructions: instructions,
		OccurredAt:   at,
	}

	switch d := dest.(type) {
	case ResolvedAccount:
		e.RecipientAccountID = new(d.AccountID)
	case UnresolvedEmail:
		e.RecipientEmail = d.Email
	}

	return e
}

// outcomeEvent addresses the source of a finished transfer. Guest orders
// have nobody to tell.
func outcomeEvent(typ EventType, o *order.Order, rec Record, at time.Time) (Event, bool) {
	if rec.SourceAccountID == nil {
		return Event{}, false
	}

	return Event{
		Type:               typ,
		OrderID:            o.ID,
		RecipientAccountID: new(*rec.SourceAccountID),
		Total:              o.Total.StringFixed(2),
		OccurredAt:         at,
	}, true
}
