package order

import (
	"context"
	"time"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=order
type Repository interface {
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	Notes(ctx context.Context, id int64) ([]Note, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work over orders. Everything written through a Tx becomes
// visible together on Commit, or not at all.
type Tx interface {
	Create(ctx context.Context, o *Order) error
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, o *Order) error
	SetMeta(ctx context.Context, id int64, key, value string) error
	DeleteMeta(ctx context.Context, id int64, keys ...string) error
	AddNote(ctx context.Context, id int64, content string) error
	ReduceStock(ctx context.Context, items []LineItem) error
	Commit() error
	Rollback() error
}

// ListFilter narrows List results. Meta entries must all match exactly;
// MetaFold entries match without regard to letter case.
type ListFilter struct {
	Status        *Status
	PaymentMethod *string
	CustomerID    *int64
	CreatedBefore *time.Time
	Meta          map[string]string
	MetaFold      map[string]string
}
