package account

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("account not found")

// Account is a registered customer account.
type Account struct {
	ID          int64
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

type Repository interface {
	Get(ctx context.Context, id int64) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, a *Account) error
}
