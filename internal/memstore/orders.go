// Package memstore holds in-memory implementations of the order, account and
// session stores. They back the memory store driver and the service tests.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
)

type orderState struct {
	orders     map[int64]*order.Order
	notes      map[int64][]order.Note
	stock      map[int64]int
	nextID     int64
	nextNoteID int64
}

func (s *orderState) clone() *orderState {
	c := &orderState{
		orders:     make(map[int64]*order.Order, len(s.orders)),
		notes:      make(map[int64][]order.Note, len(s.notes)),
		stock:      maps.Clone(s.stock),
		nextID:     s.nextID,
		nextNoteID: s.nextNoteID,
	}

	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}

	for id, n := range s.notes {
		c.notes[id] = slices.Clone(n)
	}

	return c
}

// Orders is an order.Repository kept in memory. Transactions are serialized:
// Begin waits until the previous transaction has committed or rolled back,
// mutations are staged on a copy and become visible on Commit.
type Orders struct {
	clock clock.Clock

	mu    sync.RWMutex
	state *orderState

	sem chan struct{}
}

func NewOrders(clk clock.Clock) *Orders {
	return &Orders{
		clock: clk,
		state: &orderState{
			orders: make(map[int64]*order.Order),
			notes:  make(map[int64][]order.Note),
			stock:  make(map[int64]int),
		},
		sem: make(chan struct{}, 1),
	}
}

// Seed stores o as is, keeping its CreatedAt when set. A zero ID is assigned.
// It waits for an open transaction to finish so the commit cannot drop it.
func (r *Orders) Seed(o *order.Order) {
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ID == 0 {
		r.state.nextID++
		o.ID = r.state.nextID
	} else if o.ID > r.state.nextID {
		r.state.nextID = o.ID
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.clock.Now()
	}

	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}

	if o.Meta == nil {
		o.Meta = make(map[string]string)
	}

	r.state.orders[o.ID] = o.Clone()
}

// SetStock puts a product under stock management.
func (r *Orders) SetStock(productID int64, qty int) {
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.stock[productID] = qty
}

// Stock reports the managed stock of a product.
func (r *Orders) Stock(productID int64) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	qty, ok := r.state.stock[productID]

	return qty, ok
}

func (r *Orders) Get(_ context.Context, id int64) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.state.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}

	return o.Clone(), nil
}

func (r *Orders) List(_ context.Context, filter order.ListFilter) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order

	for _, o := range r.state.orders {
		if matches(o, filter) {
			out = append(out, o.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *order.Order) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return out, nil
}

func matches(o *order.Order, f order.ListFilter) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}

	if f.PaymentMethod != nil && o.PaymentMethod != *f.PaymentMethod {
		return false
	}

	if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
		return false
	}

	if f.CreatedBefore != nil && !o.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}

	for k, v := range f.Meta {
		got, ok := o.Meta[k]
		if !ok || got != v {
			return false
		}
	}

	for k, v := range f.MetaFold {
		got, ok := o.Meta[k]
		if !ok || !strings.EqualFold(got, v) {
			return false
		}
	}

	return true
}

func (r *Orders) Notes(_ context.Context, id int64) ([]order.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.state.notes[id]), nil
}

func (r *Orders) Begin(ctx context.Context) (order.Tx, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("beginning order tx: %w", ctx.Err())
	}

	r.mu.RLock()
	staged := r.state.clone()
	r.mu.RUnlock()

	return &ordersTx{repo: r, state: staged}, nil
}

type ordersTx struct {
	repo  *Orders
	state *orderState
	done  bool
}

var errTxDone = errors.New("order tx already finished")

func (t *ordersTx) Commit() error {
	if t.done {
		return errTxDone
	}

	t.done = true

	t.repo.mu.Lock()
	t.repo.state = t.state
	t.repo.mu.Unlock()

	<-t.repo.sem

	return nil
}

func (t *ordersTx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	<-t.repo.sem

	return nil
}

func (t *ordersTx) get(id int64) (*order.Order, error) {
	if t.done {
		return nil, errTxDone
	}

	o, ok := t.state.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}

	return o, nil
}

func (t *ordersTx) GetForUpdate(_ context.Context, id int64) (*order.Order, error) {
	o, err := t.get(id)
	if err != nil {
		return nil, err
	}

	return o.Clone(), nil
}

func (t *ordersTx) Create(_ context.Context, o *order.Order) error {
	if t.done {
		return errTxDone
	}

	now := t.repo.clock.Now()

	t.state.nextID++
	o.ID = t.state.nextID
	o.CreatedAt = now
	o.UpdatedAt = now

	if o.Meta == nil {
		o.Meta = make(map[string]string)
	}

	t.state.orders[o.ID] = o.Clone()

	return nil
}

func (t *ordersTx) Update(_ context.Context, o *order.Order) error {
	stored, err := t.get(o.ID)
	if err != nil {
		return err
	}

	o.UpdatedAt = t.repo.clock.Now()

	stored.Status = o.Status
	stored.PaymentMethod = o.PaymentMethod
	stored.Total = o.Total
	stored.UpdatedAt = o.UpdatedAt
	stored.CustomerID = nil

	if o.CustomerID != nil {
		stored.CustomerID = new(*o.CustomerID)
	}

	return nil
}

func (t *ordersTx) SetMeta(_ context.Context, id int64, key, value string) error {
	stored, err := t.get(id)
	if err != nil {
		return err
	}

	stored.SetMeta(key, value)

	return nil
}

func (t *ordersTx) DeleteMeta(_ context.Context, id int64, keys ...string) error {
	stored, err := t.get(id)
	if err != nil {
		return err
	}

	stored.DeleteMeta(keys...)

	return nil
}

func (t *ordersTx) AddNote(_ context.Context, id int64, content string) error {
	if _, err := t.get(id); err != nil {
		return err
	}

	t.state.nextNoteID++
	t.state.notes[id] = append(t.state.notes[id], order.Note{
		ID:        t.state.nextNoteID,
		OrderID:   id,
		Content:   content,
		CreatedAt: t.repo.clock.Now(),
	})

	return nil
}

func (t *ordersTx) ReduceStock(_ context.Context, items []order.LineItem) error {
	if t.done {
		return errTxDone
	}

	for _, li := range items {
		productID := li.ProductID
		if li.VariationID != nil {
			productID = *li.VariationID
		}

		if qty, ok := t.state.stock[productID]; ok {
			t.state.stock[productID] = qty - li.Quantity
		}
	}

	return nil
}
