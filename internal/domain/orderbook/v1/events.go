package orderbookv1

import (
	"context"

	"github.com/shopspring/decimal"
)

// EventKind discriminates the events emitted by the apply step.
type EventKind string

const (
	// EventOrderPlaced is emitted for every newly resting limit order.
	EventOrderPlaced EventKind = "order_placed"
	// EventOrderPartiallyExecuted is emitted when a resting order is
	// partially filled.
	EventOrderPartiallyExecuted EventKind = "order_partially_executed"
	// EventOrderExecuted is emitted when a resting order is fully filled
	// and removed.
	EventOrderExecuted EventKind = "order_executed"
	// EventOrderCanceled is emitted on cancellation, with the reason.
	EventOrderCanceled EventKind = "order_canceled"
	// EventOrderAmountAligned is emitted when alignment rewrites an amount.
	EventOrderAmountAligned EventKind = "order_amount_aligned"
	// EventMarketOrderExecuted summarizes one taker execution.
	EventMarketOrderExecuted EventKind = "market_order_executed"
	// EventBookStatusChanged is emitted on governance status transitions.
	EventBookStatusChanged EventKind = "book_status_changed"
)

// Event is one observable outcome of applying a market change.
type Event struct {
	Kind    EventKind       `json:"kind"`
	BookID  OrderBookID     `json:"bookId"`
	OrderID OrderID         `json:"orderId,omitempty"`
	Owner   AccountID       `json:"owner,omitempty"`
	Side    Side            `json:"side,omitempty"`
	Price   decimal.Decimal `json:"price,omitempty"`
	Amount  decimal.Decimal `json:"amount,omitempty"`
	Reason  CancelReason    `json:"reason,omitempty"`
	Status  OrderBookStatus `json:"status,omitempty"`
}

// EventSink consumes events produced by the apply step.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// NopSink drops every event. Useful for maintenance passes and tests that
// do not assert on emission.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(_ context.Context, _ Event) error { return nil }
