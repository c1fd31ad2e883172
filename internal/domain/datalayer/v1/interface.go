package datalayerv1

import (
	"context"

	"github.com/shopspring/decimal"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// DataLayer is the storage contract the matching algorithms run against.
// Two interchangeable implementations exist: a direct layer whose every
// mutation hits the ledger immediately, and a cache layer that buffers
// mutations in an overlay committed once by Flush. They are behaviorally
// identical and differ only in flush timing.
//
// Each mutator updates the order record, its price-level queue, the
// aggregated volume at that price, and the owner's index in one step so
// those structures can never diverge.
type DataLayer interface {
	// GetLimitOrder returns the order record by id, or
	// orderbookv1.ErrUnknownLimitOrder when it does not exist.
	GetLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) (*orderbookv1.LimitOrder, error)

	// GetBids returns the bid queue at price, oldest order first. A missing
	// level yields an empty queue.
	GetBids(bookID orderbookv1.OrderBookID, price decimal.Decimal) ([]orderbookv1.OrderID, error)

	// GetAsks returns the ask queue at price, oldest order first.
	GetAsks(bookID orderbookv1.OrderBookID, price decimal.Decimal) ([]orderbookv1.OrderID, error)

	// GetAggregatedBids returns the bid-side aggregated volume map.
	GetAggregatedBids(bookID orderbookv1.OrderBookID) (orderbookv1.AggregatedSide, error)

	// GetAggregatedAsks returns the ask-side aggregated volume map.
	GetAggregatedAsks(bookID orderbookv1.OrderBookID) (orderbookv1.AggregatedSide, error)

	// GetUserLimitOrders returns the owner's open order ids in this book.
	GetUserLimitOrders(owner orderbookv1.AccountID, bookID orderbookv1.OrderBookID) ([]orderbookv1.OrderID, error)

	// GetAllLimitOrders returns every resting order of the book.
	GetAllLimitOrders(bookID orderbookv1.OrderBookID) ([]*orderbookv1.LimitOrder, error)

	// InsertLimitOrder stores a new order, appends it to its price-level
	// queue (preserving time priority), adds its amount to the aggregate
	// and registers it in the owner's index.
	InsertLimitOrder(bookID orderbookv1.OrderBookID, order *orderbookv1.LimitOrder) error

	// UpdateLimitOrderAmount rewrites the remaining amount of an order and
	// adjusts the aggregate by the difference.
	UpdateLimitOrderAmount(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID, amount orderbookv1.OrderVolume) error

	// DeleteLimitOrder removes the order from its queue, subtracts its
	// remaining amount from the aggregate (dropping zeroed entries),
	// removes it from the owner's index and deletes the record.
	DeleteLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) error

	// Flush commits buffered mutations. It is a no-op for the direct layer
	// and a single atomic batch write for the cache layer.
	Flush() error
}

// Locker is the external balance-locking collaborator. Both operations are
// all-or-nothing; a failure during apply propagates as a hard error and the
// enclosing transaction boundary discards the un-flushed overlay.
type Locker interface {
	Lock(ctx context.Context, asset orderbookv1.AssetID, account orderbookv1.AccountID, amount decimal.Decimal) error
	Unlock(ctx context.Context, asset orderbookv1.AssetID, account orderbookv1.AccountID, amount decimal.Decimal) error
}
