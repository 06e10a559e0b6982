package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
)

//go:generate mockgen -source=resolver.go -destination=directory_mock.go -package=transfer
type AccountDirectory interface {
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
}

// Resolver turns the email typed at checkout into a Destination.
type Resolver struct {
	accounts AccountDirectory
	validate *validator.Validate
}

func NewResolver(accounts AccountDirectory) *Resolver {
	return &Resolver{
		accounts: accounts,
		validate: validator.New(),
	}
}

// Resolve validates rawEmail and looks it up in the account directory.
// source is nil for guest checkouts, which skips the self-transfer rule.
func (r *Resolver) Resolve(ctx context.Context, rawEmail string, source *account.Account) (Destination, error) {
	email := strings.TrimSpace(rawEmail)

	if email == "" {
		return nil, ErrMissingEmail
	}

	if err := r.validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	if source != nil && source.Email == email {
		return nil, ErrSelfTransfer
	}

	acc, err := r.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return UnresolvedEmail{Email: email}, nil
		}

		return nil, fmt.Errorf("looking up destination account: %w", err)
	}

	return ResolvedAccount{AccountID: acc.ID, Email: email}, nil
}
