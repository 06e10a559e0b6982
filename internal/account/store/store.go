package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT id, email, display_name, created_at FROM accounts WHERE id = $1`

	var a account.Account

	err := s.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Email, &a.DisplayName, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return &a, nil
}

// FindByEmail looks an account up by exact email match.
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `SELECT id, email, display_name, created_at FROM accounts WHERE email = $1`

	var a account.Account

	err := s.db.QueryRowContext(ctx, query, email).Scan(&a.ID, &a.Email, &a.DisplayName, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("finding account by email: %w", err)
	}

	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (email, display_name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`

	if err := s.db.QueryRowContext(ctx, query, a.Email, a.DisplayName).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}
