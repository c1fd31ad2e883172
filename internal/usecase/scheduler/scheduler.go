package scheduler

import (
	"context"
	"time"

	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
)

// Sweeper is the slice of the engine the scheduler drives.
type Sweeper interface {
	ListOrderBooks(ctx context.Context) ([]*orderbookv1.OrderBook, error)
	SweepExpired(ctx context.Context, bookID orderbookv1.OrderBookID, max int) (int, error)
}

// ExpirationScheduler periodically sweeps expired orders off every book.
// Each sweep is bounded per book so one pass can never monopolize a book's
// lock; leftovers are picked up by the next tick.
type ExpirationScheduler struct {
	sweeper            Sweeper
	interval           time.Duration
	maxExpiredPerSweep int
	logger             logger.Interface
}

// NewExpirationScheduler creates the scheduler.
func NewExpirationScheduler(sweeper Sweeper, interval time.Duration, maxExpiredPerSweep int, log logger.Interface) *ExpirationScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &ExpirationScheduler{
		sweeper:            sweeper,
		interval:           interval,
		maxExpiredPerSweep: maxExpiredPerSweep,
		logger:             log,
	}
}

// Run ticks until the context is cancelled.
func (s *ExpirationScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one bounded pass over every book. Errors are logged and do
// not stop the pass; a failing book is retried next tick.
func (s *ExpirationScheduler) Sweep(ctx context.Context) {
	books, err := s.sweeper.ListOrderBooks(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "list order books"))
		return
	}

	for _, book := range books {
		expired, err := s.sweeper.SweepExpired(ctx, book.ID, s.maxExpiredPerSweep)
		if err != nil {
			s.logger.ErrorContext(ctx, err, logger.NewField("book", book.ID.String()))
			continue
		}
		if expired > 0 {
			s.logger.InfoContext(ctx, "expired orders swept",
				logger.NewField("book", book.ID.String()),
				logger.NewField("count", expired),
			)
		}
	}
}
