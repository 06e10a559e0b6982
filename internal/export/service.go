package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

// Item is one transfer order in an export.
type Item struct {
	Order  *order.Order
	Record transfer.Record
}

type Orders interface {
	List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error)
}

// Service exports the transfer history of a source account.
type Service struct {
	orders Orders
}

func NewService(orders Orders) *Service {
	return &Service{orders: orders}
}

// Filter narrows an export. A nil Status keeps every transfer state.
type Filter struct {
	Status *transfer.Status
}

// Sent returns the transfer orders placed by accountID, oldest first.
func (s *Service) Sent(ctx context.Context, accountID int64, filter Filter) ([]Item, error) {
	orders, err := s.orders.List(ctx, order.ListFilter{
		Meta: map[string]string{order.MetaSourceUserID: strconv.FormatInt(accountID, 10)},
	})
	if err != nil {
		return nil, fmt.Errorf("listing sent transfers: %w", err)
	}

	items := make([]Item, 0, len(orders))

	for _, o := range orders {
		rec, ok := transfer.RecordFromOrder(o)
		if !ok {
			continue
		}

		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}

		items = append(items, Item{Order: o, Record: rec})
	}

	return items, nil
}

var csvHeader = []string{"order", "date", "order_status", "transfer_status", "destination", "items", "total"}

// WriteCSV writes items as CSV with a header row.
func (s *Service) WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, item := range items {
		if err := cw.Write([]string{
			strconv.FormatInt(item.Order.ID, 10),
			item.Order.CreatedAt.Format("2006-01-02"),
			string(item.Order.Status),
			string(item.Record.Status),
			destinationAddress(item.Record),
			strconv.Itoa(item.Order.ItemCount()),
			item.Order.Total.StringFixed(2),
		}); err != nil {
			return fmt.Errorf("writing csv row for order %d: %w", item.Order.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// GenerateSummary renders one line per item, suitable for an email body.
func (s *Service) GenerateSummary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		dest := destinationAddress(item.Record)
		if dest == "" {
			dest = "-"
		}

		fmt.Fprintf(&sb, "* %s | #%d | %s | %s | %s\n",
			item.Order.CreatedAt.Format("2006-01-02"),
			item.Order.ID,
			item.Order.Total.StringFixed(2),
			item.Record.Status,
			dest,
		)
	}

	return sb.String()
}

// Declined and expired transfers no longer carry a destination.
func destinationAddress(rec transfer.Record) string {
	if rec.Destination == nil {
		return ""
	}

	return rec.Destination.Address()
}
