// Package backend opens the order, account and session stores selected by
// the STORE_DRIVER setting.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	accountStore "github.com/MrJamesThe3rd/ordertransfer/internal/account/store"
	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/config"
	"github.com/MrJamesThe3rd/ordertransfer/internal/database"
	"github.com/MrJamesThe3rd/ordertransfer/internal/memstore"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	orderStore "github.com/MrJamesThe3rd/ordertransfer/internal/order/store"
	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
	sessionStore "github.com/MrJamesThe3rd/ordertransfer/internal/session/store"
)

type Backend struct {
	Orders   order.Repository
	Accounts account.Repository
	Sessions session.Store

	close func() error
}

// Open connects the configured driver. Postgres is migrated before use.
func Open(ctx context.Context, cfg *config.Config, clk clock.Clock) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		slog.Warn("using in-memory store, data is lost on exit")

		return &Backend{
			Orders:   memstore.NewOrders(clk),
			Accounts: memstore.NewAccounts(clk),
			Sessions: memstore.NewSessions(clk),
			close:    func() error { return nil },
		}, nil
	case config.StoreDriverPostgres:
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return nil, err
		}

		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}

		return &Backend{
			Orders:   orderStore.New(db),
			Accounts: accountStore.New(db),
			Sessions: sessionStore.New(db),
			close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (b *Backend) Close() error {
	return b.close()
}
