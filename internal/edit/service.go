// Package edit re-opens a previous order as a cart and, once the replacement
// is placed, links the two orders and cancels the old one.
package edit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

var (
	ErrForbidden   = errors.New("order belongs to another account")
	ErrNotEditable = errors.New("order cannot be edited")
)

type Service struct {
	orders order.Repository
}

func NewService(orders order.Repository) *Service {
	return &Service{orders: orders}
}

// BeginEdit replaces the session cart with the lines of the order and
// remembers which order is being edited.
func (s *Service) BeginEdit(ctx context.Context, sess *session.Session, orderID, accountID int64) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if err := checkOwner(o, accountID); err != nil {
		return err
	}

	if err := s.checkEditable(ctx, o, 0); err != nil {
		return err
	}

	sess.Cart.Empty()

	for _, li := range o.Items {
		item := session.CartItem{
			ProductID:  li.ProductID,
			Name:       li.Name,
			Quantity:   li.Quantity,
			Attributes: li.Attributes,
			UnitPrice:  li.UnitPrice(),
		}

		if li.VariationID != nil {
			item.VariationID = new(*li.VariationID)
		}

		sess.Cart.AddItem(item)
	}

	sess.EditOrderID = new(o.ID)

	slog.Info("order edit started", "order_id", o.ID, "session_id", sess.ID)

	return nil
}

// checkEditable rejects orders that may not be replaced. An order already
// linked from a replacement other than except counts as replaced.
func (s *Service) checkEditable(ctx context.Context, o *order.Order, except int64) error {
	switch o.Status {
	case order.StatusRefunded, order.StatusCancelled:
		return ErrNotEditable
	}

	if rec, ok := transfer.RecordFromOrder(o); ok && rec.Status == transfer.StatusAwaitingTransfer {
		return ErrNotEditable
	}

	replacements, err := s.orders.List(ctx, order.ListFilter{
		Meta: map[string]string{order.MetaEditOrder: order.FormatID(o.ID)},
	})
	if err != nil {
		return fmt.Errorf("checking order replacements: %w", err)
	}

	for _, r := range replacements {
		if r.ID != except {
			return ErrNotEditable
		}
	}

	return nil
}

func checkOwner(o *order.Order, accountID int64) error {
	if accountID == 0 || o.CustomerID == nil || *o.CustomerID != accountID {
		return ErrForbidden
	}

	return nil
}

// ApplyCredit keeps the edit credit fee in line with the session: a negative
// fee worth the edited order's total, or no fee outside an edit. The edited
// order is checked again for accountID; when it can no longer be replaced the
// edit is abandoned and the error returned.
func (s *Service) ApplyCredit(ctx context.Context, sess *session.Session, accountID int64) error {
	if sess.EditOrderID == nil {
		sess.Cart.RemoveFee(session.EditCreditFeeKey)
		return nil
	}

	old, err := s.orders.Get(ctx, *sess.EditOrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			s.Abandon(sess)
			return ErrNotEditable
		}

		return fmt.Errorf("loading edited order: %w", err)
	}

	if err := checkOwner(old, accountID); err != nil {
		s.Abandon(sess)
		return err
	}

	if err := s.checkEditable(ctx, old, 0); err != nil {
		if errors.Is(err, ErrNotEditable) {
			s.Abandon(sess)
		}

		return err
	}

	sess.Cart.SetFee(session.Fee{
		Key:    session.EditCreditFeeKey,
		Name:   fmt.Sprintf("Credit from order #%d", old.ID),
		Amount: old.Total.Neg(),
	})

	return nil
}

// Abandon drops the edit reference and its credit from the session.
func (s *Service) Abandon(sess *session.Session) {
	sess.EditOrderID = nil
	sess.Cart.RemoveFee(session.EditCreditFeeKey)
}

// ReplaceHook returns the checkout hook that replaces the edited order within
// the checkout transaction, or nil outside an edit.
func (s *Service) ReplaceHook(sess *session.Session) transfer.TxHook {
	if sess.EditOrderID == nil {
		return nil
	}

	oldID := *sess.EditOrderID

	return func(ctx context.Context, tx order.Tx, placed *order.Order) error {
		return s.replace(ctx, tx, placed, oldID)
	}
}

// FinalizeEdit links the newly placed order to the edited one and cancels the
// edited order. Running it again for the same orders changes nothing. When the
// edited order was already replaced by another order the edit is abandoned.
func (s *Service) FinalizeEdit(ctx context.Context, newOrderID int64, sess *session.Session) error {
	if sess.EditOrderID == nil {
		return nil
	}

	oldID := *sess.EditOrderID

	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return fmt.Errorf("finalizing edit: %w", err)
	}
	defer tx.Rollback()

	placed, err := tx.GetForUpdate(ctx, newOrderID)
	if err != nil {
		return fmt.Errorf("loading new order: %w", err)
	}

	if err := s.replace(ctx, tx, placed, oldID); err != nil {
		if errors.Is(err, ErrNotEditable) || errors.Is(err, ErrForbidden) {
			s.Abandon(sess)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing edit: %w", err)
	}

	sess.EditOrderID = nil

	slog.Info("order edit finalized", "order_id", placed.ID, "replaced_order_id", oldID)

	return nil
}

// replace locks the edited order, then links placed to it and cancels it.
// A placed order already linked to oldID is a replay and only completes the
// cancellation.
func (s *Service) replace(ctx context.Context, tx order.Tx, placed *order.Order, oldID int64) error {
	old, err := tx.GetForUpdate(ctx, oldID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return ErrNotEditable
		}

		return fmt.Errorf("loading edited order: %w", err)
	}

	switch placed.MetaValue(order.MetaEditOrder) {
	case order.FormatID(oldID):
	case "":
		var owner int64
		if placed.CustomerID != nil {
			owner = *placed.CustomerID
		}

		if err := checkOwner(old, owner); err != nil {
			return err
		}

		if err := s.checkEditable(ctx, old, placed.ID); err != nil {
			return err
		}

		if err := tx.SetMeta(ctx, placed.ID, order.MetaEditOrder, order.FormatID(oldID)); err != nil {
			return fmt.Errorf("linking edited order: %w", err)
		}

		placed.SetMeta(order.MetaEditOrder, order.FormatID(oldID))

		if err := tx.AddNote(ctx, placed.ID, fmt.Sprintf("Edited from order #%d", oldID)); err != nil {
			return fmt.Errorf("adding order note: %w", err)
		}
	default:
		return ErrNotEditable
	}

	if old.Status == order.StatusCancelled {
		return nil
	}

	old.Status = order.StatusCancelled

	if err := tx.Update(ctx, old); err != nil {
		return fmt.Errorf("cancelling edited order: %w", err)
	}

	if err := tx.AddNote(ctx, old.ID, fmt.Sprintf("Replaced by order #%d", placed.ID)); err != nil {
		return fmt.Errorf("adding order note: %w", err)
	}

	return nil
}
