package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/metrics"
)

const DefaultThreshold = 24 * time.Hour

//go:generate mockgen -source=sweeper.go -destination=transfers_mock.go -package=expiry
type Transfers interface {
	FindOverdue(ctx context.Context, cutoff time.Time) ([]int64, error)
	Expire(ctx context.Context, orderID int64) (bool, error)
}

// Result summarizes one sweep. Orders another actor settled first are
// counted as checked but not expired.
type Result struct {
	Checked int
	Expired int
	Failed  int
}

type Sweeper struct {
	transfers Transfers
	clock     clock.Clock
	threshold time.Duration
}

func NewSweeper(transfers Transfers, clk clock.Clock, threshold time.Duration) *Sweeper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Sweeper{transfers: transfers, clock: clk, threshold: threshold}
}

// CheckExpiredOrderTransfers expires every transfer that has been awaiting
// for longer than the threshold. Each order is handled on its own; a failing
// order is logged and skipped.
func (s *Sweeper) CheckExpiredOrderTransfers(ctx context.Context) (Result, error) {
	metrics.SweepsTotal.Inc()

	cutoff := s.clock.Now().Add(-s.threshold)

	ids, err := s.transfers.FindOverdue(ctx, cutoff)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("find_overdue").Inc()
		return Result{}, fmt.Errorf("finding overdue transfers: %w", err)
	}

	var res Result

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Checked++

		expired, err := s.expireOne(ctx, id)
		if err != nil {
			res.Failed++
			metrics.SweepFailuresTotal.Inc()
			slog.Error("failed to expire order transfer", "error", err, "order_id", id)

			continue
		}

		if expired {
			res.Expired++
		}
	}

	slog.Info("expiry sweep finished", "checked", res.Checked, "expired", res.Expired, "failed", res.Failed)

	return res, nil
}

func (s *Sweeper) expireOne(ctx context.Context, id int64) (expired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic expiring order %d: %v", id, r)
		}
	}()

	return s.transfers.Expire(ctx, id)
}
