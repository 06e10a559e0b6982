package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ordertransfer/internal/backend"
	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/config"
	"github.com/MrJamesThe3rd/ordertransfer/internal/edit"
	"github.com/MrJamesThe3rd/ordertransfer/internal/expiry"
	"github.com/MrJamesThe3rd/ordertransfer/internal/export"
	apiHttp "github.com/MrJamesThe3rd/ordertransfer/internal/http"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/auth"
	checkoutHandler "github.com/MrJamesThe3rd/ordertransfer/internal/http/checkout"
	exportHandler "github.com/MrJamesThe3rd/ordertransfer/internal/http/export"
	transferHandler "github.com/MrJamesThe3rd/ordertransfer/internal/http/transfer"
	"github.com/MrJamesThe3rd/ordertransfer/internal/notify"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	clk := clock.NewSystem()

	be, err := backend.Open(ctx, cfg, clk)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer be.Close()

	var notifier transfer.Notifier = notify.LogNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kn.Close()

		notifier = kn
	}

	var (
		transferService = transfer.NewService(be.Orders, be.Accounts, clk,
			transfer.WithSettings(transfer.Settings{
				Enabled:      cfg.Transfer.Enabled,
				Title:        cfg.Transfer.Title,
				Description:  cfg.Transfer.Description,
				Instructions: cfg.Transfer.Instructions,
			}),
			transfer.WithNotifier(notifier),
		)
		editService   = edit.NewService(be.Orders)
		exportService = export.NewService(be.Orders)
		sweeper       = expiry.NewSweeper(transferService, clk, cfg.Transfer.ExpiryThreshold)
		scheduler     = expiry.NewScheduler(sweeper, cfg.Transfer.SweepInterval)
	)

	var (
		authenticator = auth.NewAuthenticator(cfg.Auth.JWTSecret)
		checkoutH     = checkoutHandler.NewHandler(transferService, editService, be.Sessions, be.Accounts)
		transferH     = transferHandler.NewHandler(transferService)
		exportH       = exportHandler.NewHandler(exportService)
	)

	router := apiHttp.New(cfg.CORS.AllowedOrigins, authenticator, checkoutH, transferH, exportH)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "port", srv.Addr, "store", cfg.Store.Driver)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		slog.Info("shutting down server")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
