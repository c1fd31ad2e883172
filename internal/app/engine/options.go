package engine

import (
	"time"

	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	depthsnapshot "github.com/sora-xor/sora2-network-sub000/internal/usecase/depth-snapshot"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/orderbook"
)

// Option configures the engine.
type Option func(*Engine)

// WithLimits overrides the per-book capacity bounds.
func WithLimits(limits orderbook.Limits) Option {
	return func(e *Engine) {
		e.matcher = orderbook.NewUsecase(limits, e.logger)
	}
}

// WithEventSink routes apply events to the given sink.
func WithEventSink(sink orderbookv1.EventSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithDepthStore enables read-side depth snapshots after every commit.
func WithDepthStore(store *depthsnapshot.Store) Option {
	return func(e *Engine) {
		e.depth = store
	}
}

// WithClock overrides the time source, used by expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}
