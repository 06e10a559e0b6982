package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
)

type Accounts struct {
	clock clock.Clock

	mu      sync.RWMutex
	byID    map[int64]*account.Account
	byEmail map[string]int64
	nextID  int64
}

func NewAccounts(clk clock.Clock) *Accounts {
	return &Accounts{
		clock:   clk,
		byID:    make(map[int64]*account.Account),
		byEmail: make(map[string]int64),
	}
}

func (r *Accounts) Get(_ context.Context, id int64) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}

	c := *a

	return &c, nil
}

// FindByEmail looks an account up by exact email match.
func (r *Accounts) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, account.ErrNotFound
	}

	c := *r.byID[id]

	return &c, nil
}

func (r *Accounts) Create(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return fmt.Errorf("creating account: email %q already registered", a.Email)
	}

	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = r.clock.Now()

	c := *a
	r.byID[a.ID] = &c
	r.byEmail[a.Email] = a.ID

	return nil
}
