package transfer

import (
	"time"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
)

// Status is the transfer-level state of an order. It explains why an order
// is on hold and what happened to it afterwards.
type Status string

const (
	StatusAwaitingTransfer Status = "awaiting_transfer"
	StatusAccepted         Status = "accepted"
	StatusDeclined         Status = "declined"
	StatusExpired          Status = "expired"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusDeclined, StatusExpired:
		return true
	default:
		return false
	}
}

// Destination is either a ResolvedAccount or an UnresolvedEmail.
type Destination interface {
	// Address is the email supplied at checkout.
	Address() string
	isDestination()
}

// ResolvedAccount is a destination matched to a registered account.
type ResolvedAccount struct {
	AccountID int64
	Email     string
}

func (d ResolvedAccount) Address() string { return d.Email }
func (ResolvedAccount) isDestination()    {}

// UnresolvedEmail is a destination with no matching account yet.
type UnresolvedEmail struct {
	Email string
}

func (d UnresolvedEmail) Address() string { return d.Email }
func (UnresolvedEmail) isDestination()    {}

// Record is the transfer state stored on an order's metadata.
type Record struct {
	OrderID         int64
	SourceAccountID *int64
	Destination     Destination // nil once declined or expired
	Status          Status
	CreatedAt       time.Time
}

// RecordFromOrder reads the transfer record of o. It reports false when o was
// never placed through the transfer gateway.
func RecordFromOrder(o *order.Order) (Record, bool) {
	_, hasStatus := o.Meta[order.MetaTransferStatus]
	_, hasLegacy := o.Meta[order.MetaTransferAccepted]

	if !hasStatus && !hasLegacy {
		return Record{}, false
	}

	rec := Record{
		OrderID:     o.ID,
		Destination: destinationFromMeta(o),
		CreatedAt:   o.CreatedAt,
	}

	if id, ok := order.ParseID(o.MetaValue(order.MetaSourceUserID)); ok {
		rec.SourceAccountID = new(id)
	}

	rec.Status = Status(o.MetaValue(order.MetaTransferStatus))
	if !hasStatus {
		rec.Status = inferStatus(o, rec.Destination)
	}

	return rec, true
}

func destinationFromMeta(o *order.Order) Destination {
	email := o.MetaValue(order.MetaDestAccountEmail)

	if id, ok := order.ParseID(o.MetaValue(order.MetaDestUserID)); ok {
		return ResolvedAccount{AccountID: id, Email: email}
	}

	if email != "" {
		return UnresolvedEmail{Email: email}
	}

	return nil
}

// inferStatus derives the status of records written before the explicit
// status key existed.
func inferStatus(o *order.Order, dest Destination) Status {
	if o.Status == order.StatusOnHold && dest != nil {
		return StatusAwaitingTransfer
	}

	switch o.MetaValue(order.MetaTransferAccepted) {
	case "yes", "1", "true":
		return StatusAccepted
	}

	return StatusDeclined
}

// recordMeta is the metadata written when an order enters AwaitingTransfer.
func recordMeta(source *int64, dest Destination) map[string]string {
	meta := map[string]string{
		order.MetaSourceUserID:     "",
		order.MetaDestAccountEmail: dest.Address(),
		order.MetaTransferAccepted: "no",
		order.MetaTransferStatus:   string(StatusAwaitingTransfer),
	}

	if source != nil {
		meta[order.MetaSourceUserID] = order.FormatID(*source)
	}

	if d, ok := dest.(ResolvedAccount); ok {
		meta[order.MetaDestUserID] = order.FormatID(d.AccountID)
	}

	return meta
}
