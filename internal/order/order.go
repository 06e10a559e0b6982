package order

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

// Status is the visible lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusFailed     Status = "failed"
)

// Metadata keys. The names are persisted and must stay stable.
const (
	MetaSourceUserID     = "_src_user_id"
	MetaDestUserID       = "_dest_user_id"
	MetaDestAccountEmail = "_dest_account_email"
	MetaTransferAccepted = "_transfer_accepted"
	MetaTransferStatus   = "_transfer_status"
	MetaEditOrder        = "_edit_order"
)

// LineItem is a product line of an order.
type LineItem struct {
	ProductID   int64
	VariationID *int64
	Name        string
	Quantity    int
	Attributes  map[string]string
	Total       decimal.Decimal
}

// UnitPrice is the line total divided by the quantity.
func (li LineItem) UnitPrice() decimal.Decimal {
	if li.Quantity <= 0 {
		return decimal.Zero
	}

	return li.Total.Div(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is the order-management entity the transfer workflow operates on.
type Order struct {
	ID            int64
	Status        Status
	PaymentMethod string
	CustomerID    *int64 // nil for guest orders
	Meta          map[string]string
	Total         decimal.Decimal
	Items         []LineItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Note is an entry of an order's audit log.
type Note struct {
	ID        int64
	OrderID   int64
	Content   string
	CreatedAt time.Time
}

// ItemCount is the total quantity across line items.
func (o *Order) ItemCount() int {
	n := 0
	for _, li := range o.Items {
		n += li.Quantity
	}

	return n
}

func (o *Order) MetaValue(key string) string {
	if o.Meta == nil {
		return ""
	}

	return o.Meta[key]
}

func (o *Order) SetMeta(key, value string) {
	if o.Meta == nil {
		o.Meta = make(map[string]string)
	}

	o.Meta[key] = value
}

func (o *Order) DeleteMeta(keys ...string) {
	for _, k := range keys {
		delete(o.Meta, k)
	}
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	c := *o
	c.Meta = maps.Clone(o.Meta)
	c.Items = slices.Clone(o.Items)

	for i := range c.Items {
		c.Items[i].Attributes = maps.Clone(c.Items[i].Attributes)

		if v := c.Items[i].VariationID; v != nil {
			c.Items[i].VariationID = new(*v)
		}
	}

	if o.CustomerID != nil {
		c.CustomerID = new(*o.CustomerID)
	}

	return &c
}

// FormatID renders an id the way it is stored in metadata.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses an id stored in metadata. Empty or zero values yield false.
func ParseID(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
