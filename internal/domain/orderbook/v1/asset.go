package orderbookv1

import "fmt"

// AssetID identifies a fungible (or indivisible) asset on the ledger.
type AssetID string

// AccountID identifies an account that can own orders and balances.
type AccountID string

// OrderID is the book-local identifier of a limit order. Ids are issued by
// the book's monotonic counter and are never reused.
type OrderID uint64

// Side represents the side of an order.
type Side string

const (
	// SideBuy represents a buy (bid) order.
	SideBuy Side = "Buy"
	// SideSell represents a sell (ask) order.
	SideSell Side = "Sell"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderBookID is the composite key of one order book. It is immutable once
// the book has been created.
type OrderBookID struct {
	MarketID uint32  `json:"marketId"`
	Base     AssetID `json:"base"`
	Quote    AssetID `json:"quote"`
}

// String renders the id in the canonical `market/base/quote` form used in
// storage keys and log fields.
func (id OrderBookID) String() string {
	return fmt.Sprintf("%d/%s/%s", id.MarketID, id.Base, id.Quote)
}
