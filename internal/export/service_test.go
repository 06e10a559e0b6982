package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/memstore"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

var created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func seedOrders(t *testing.T) *memstore.Orders {
	t.Helper()

	orders := memstore.NewOrders(clock.NewFixed(created))

	// Awaiting, sent by account 1 to bob.
	orders.Seed(&order.Order{
		ID:            10,
		Status:        order.StatusOnHold,
		PaymentMethod: transfer.GatewayID,
		CustomerID:    new(int64(1)),
		Total:         decimal.RequireFromString("45.00"),
		Items:         []order.LineItem{{ProductID: 7, Name: "Mug", Quantity: 3, Total: decimal.RequireFromString("45.00")}},
		CreatedAt:     created,
		Meta: map[string]string{
			order.MetaSourceUserID:     "1",
			order.MetaDestUserID:       "2",
			order.MetaDestAccountEmail: "bob@example.com",
			order.MetaTransferAccepted: "no",
			order.MetaTransferStatus:   string(transfer.StatusAwaitingTransfer),
		},
	})

	// Declined, destination already cleared.
	orders.Seed(&order.Order{
		ID:         11,
		Status:     order.StatusPending,
		CustomerID: new(int64(1)),
		Total:      decimal.RequireFromString("12.50"),
		CreatedAt:  created.Add(time.Hour),
		Meta: map[string]string{
			order.MetaSourceUserID:     "1",
			order.MetaTransferAccepted: "no",
			order.MetaTransferStatus:   string(transfer.StatusDeclined),
		},
	})

	// Sent by someone else.
	orders.Seed(&order.Order{
		ID:        12,
		Status:    order.StatusOnHold,
		CreatedAt: created,
		Meta: map[string]string{
			order.MetaSourceUserID:     "3",
			order.MetaDestAccountEmail: "carol@example.com",
			order.MetaTransferStatus:   string(transfer.StatusAwaitingTransfer),
		},
	})

	return orders
}

func TestService_Sent(t *testing.T) {
	type testCase struct {
		name   string
		filter Filter
		want   []int64
	}

	tests := []testCase{
		{name: "AllStates", filter: Filter{}, want: []int64{10, 11}},
		{name: "DeclinedOnly", filter: Filter{Status: new(transfer.StatusDeclined)}, want: []int64{11}},
		{name: "NoneAccepted", filter: Filter{Status: new(transfer.StatusAccepted)}, want: []int64{}},
	}

	svc := NewService(seedOrders(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.Sent(context.Background(), 1, tt.filter)
			require.NoError(t, err)

			ids := make([]int64, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.Order.ID)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestService_Sent_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := order.NewMockRepository(ctrl)

	repo.EXPECT().
		List(gomock.Any(), order.ListFilter{Meta: map[string]string{order.MetaSourceUserID: "1"}}).
		Return(nil, errors.New("connection reset"))

	_, err := NewService(repo).Sent(context.Background(), 1, Filter{})
	assert.ErrorContains(t, err, "listing sent transfers")
}

func TestService_WriteCSV(t *testing.T) {
	svc := NewService(seedOrders(t))

	items, err := svc.Sent(context.Background(), 1, Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(&buf, items))

	want := "order,date,order_status,transfer_status,destination,items,total\n" +
		"10,2026-03-01,on-hold,awaiting_transfer,bob@example.com,3,45.00\n" +
		"11,2026-03-01,pending,declined,,0,12.50\n"
	assert.Equal(t, want, buf.String())
}

func TestService_GenerateSummary(t *testing.T) {
	svc := NewService(seedOrders(t))

	items, err := svc.Sent(context.Background(), 1, Filter{})
	require.NoError(t, err)

	want := "* 2026-03-01 | #10 | 45.00 | awaiting_transfer | bob@example.com\n" +
		"* 2026-03-01 | #11 | 12.50 | declined | -\n"
	assert.Equal(t, want, svc.GenerateSummary(items))
}
