package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/memstore"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestOrders_SeedWaitsForOpenTx(t *testing.T) {
	ctx := context.Background()
	orders := memstore.NewOrders(clock.NewFixed(now))

	tx, err := orders.Begin(ctx)
	require.NoError(t, err)

	seeded := make(chan struct{})
	go func() {
		orders.Seed(&order.Order{ID: 50, Status: order.StatusCompleted})
		orders.SetStock(7, 3)
		close(seeded)
	}()

	select {
	case <-seeded:
		t.Fatal("seed ran while a transaction was open")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, tx.Create(ctx, &order.Order{Status: order.StatusPending}))
	require.NoError(t, tx.Commit())

	select {
	case <-seeded:
	case <-time.After(time.Second):
		t.Fatal("seed did not run after commit")
	}

	_, err = orders.Get(ctx, 50)
	require.NoError(t, err)

	_, err = orders.Get(ctx, 1)
	require.NoError(t, err)

	qty, ok := orders.Stock(7)
	require.True(t, ok)
	assert.Equal(t, 3, qty)
}

func TestOrders_List(t *testing.T) {
	type testCase struct {
		name   string
		filter order.ListFilter
		want   []int64
	}

	orders := memstore.NewOrders(clock.NewFixed(now))
	orders.Seed(&order.Order{ID: 1, Status: order.StatusOnHold, Meta: map[string]string{order.MetaDestAccountEmail: "Bob@Example.com"}})
	orders.Seed(&order.Order{ID: 2, Status: order.StatusOnHold, Meta: map[string]string{order.MetaDestAccountEmail: "bob@example.com"}})
	orders.Seed(&order.Order{ID: 3, Status: order.StatusPending, Meta: map[string]string{order.MetaDestAccountEmail: "carol@example.com"}})

	tests := []testCase{
		{
			name:   "Exact meta",
			filter: order.ListFilter{Meta: map[string]string{order.MetaDestAccountEmail: "bob@example.com"}},
			want:   []int64{2},
		},
		{
			name:   "Meta ignoring case",
			filter: order.ListFilter{MetaFold: map[string]string{order.MetaDestAccountEmail: "BOB@example.com"}},
			want:   []int64{1, 2},
		},
		{
			name:   "Status",
			filter: order.ListFilter{Status: new(order.StatusPending)},
			want:   []int64{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := orders.List(context.Background(), tt.filter)
			require.NoError(t, err)

			ids := make([]int64, 0, len(got))
			for _, o := range got {
				ids = append(ids, o.ID)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}
