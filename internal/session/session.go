package session

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EditCreditFeeKey identifies the negative fee that credits an edited order.
const EditCreditFeeKey = "edit_credit"

// CartItem is a product line in the cart.
type CartItem struct {
	ProductID   int64             `json:"product_id"`
	VariationID *int64            `json:"variation_id,omitempty"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
}

// LineTotal is the unit price times the quantity.
func (ci CartItem) LineTotal() decimal.Decimal {
	return ci.UnitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Fee is a named adjustment of the cart total. Negative amounts are credits.
type Fee struct {
	Key    string          `json:"key"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type Cart struct {
	Items []CartItem `json:"items"`
	Fees  []Fee      `json:"fees,omitempty"`
}

func (c *Cart) AddItem(item CartItem) {
	c.Items = append(c.Items, item)
}

// SetFee adds the fee or replaces the one with the same key.
func (c *Cart) SetFee(fee Fee) {
	for i := range c.Fees {
		if c.Fees[i].Key == fee.Key {
			c.Fees[i] = fee
			return
		}
	}

	c.Fees = append(c.Fees, fee)
}

func (c *Cart) RemoveFee(key string) {
	c.Fees = slices.DeleteFunc(c.Fees, func(f Fee) bool { return f.Key == key })
}

func (c *Cart) Fee(key string) (Fee, bool) {
	for _, f := range c.Fees {
		if f.Key == key {
			return f, true
		}
	}

	return Fee{}, false
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}

	return total
}

// Total is the subtotal plus fees, never below zero.
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal()
	for _, f := range c.Fees {
		total = total.Add(f.Amount)
	}

	if total.IsNegative() {
		return decimal.Zero
	}

	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Empty drops items and fees.
func (c *Cart) Empty() {
	c.Items = nil
	c.Fees = nil
}

// Session is the per-visitor state carried between requests.
type Session struct {
	ID          uuid.UUID `json:"id"`
	EditOrderID *int64    `json:"edit_order_id,omitempty"`
	Cart        Cart      `json:"cart"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func New() *Session {
	return &Session{ID: uuid.New()}
}

//go:generate mockgen -source=session.go -destination=store_mock.go -package=session
type Store interface {
	// Load returns the session with the given id, or a fresh one when none exists.
	Load(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
}
