package orderbookv1

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitOrder is a resting order awaiting a counterparty. It is created on
// placement, its Amount is decremented on partial execution, and it is
// removed on full execution, cancellation or expiry.
type LimitOrder struct {
	ID             OrderID         `json:"id"`
	Owner          AccountID       `json:"owner"`
	Side           Side            `json:"side"`
	Price          decimal.Decimal `json:"price"`
	Amount         OrderVolume     `json:"amount"`
	OriginalAmount OrderVolume     `json:"originalAmount"`
	Lifespan       time.Duration   `json:"lifespan"`
	ExpiresAt      int64           `json:"expiresAt"`
	PlacedAt       uint64          `json:"placedAt"`
}

// NewLimitOrder creates a limit order expiring lifespan after now. A
// non-positive lifespan means the order never expires and rests until
// cancelled.
func NewLimitOrder(id OrderID, owner AccountID, side Side, price decimal.Decimal, amount OrderVolume, lifespan time.Duration, now time.Time, blockNumber uint64) *LimitOrder {
	expiresAt := int64(0)
	if lifespan > 0 {
		expiresAt = now.Add(lifespan).UnixMilli()
	}
	return &LimitOrder{
		ID:             id,
		Owner:          owner,
		Side:           side,
		Price:          price,
		Amount:         amount,
		OriginalAmount: amount,
		Lifespan:       lifespan,
		ExpiresAt:      expiresAt,
		PlacedAt:       blockNumber,
	}
}

// IsExpired reports whether the order's absolute expiry has passed.
func (o *LimitOrder) IsExpired(now time.Time) bool {
	return o.ExpiresAt > 0 && o.ExpiresAt <= now.UnixMilli()
}

// LockedAsset returns the asset the owner's balance is locked in: the
// quote asset for buys, the base asset for sells.
func (o *LimitOrder) LockedAsset(book OrderBookID) AssetID {
	if o.Side == SideBuy {
		return book.Quote
	}
	return book.Base
}

// LockedAmountFor returns the balance locked for the given base amount of
// this order: price * amount in quote for buys, the amount itself for sells.
func (o *LimitOrder) LockedAmountFor(amount OrderVolume) decimal.Decimal {
	if o.Side == SideBuy {
		return o.Price.Mul(amount.Amount)
	}
	return amount.Amount
}

// LockedRemaining returns the balance still locked for the unfilled part.
func (o *LimitOrder) LockedRemaining() decimal.Decimal {
	return o.LockedAmountFor(o.Amount)
}

// ReceivedAsset returns the asset the owner receives when the order is
// matched: the base asset for buys, the quote asset for sells.
func (o *LimitOrder) ReceivedAsset(book OrderBookID) AssetID {
	if o.Side == SideBuy {
		return book.Base
	}
	return book.Quote
}

// ReceivedAmountFor returns what the owner receives for a fill of the
// given base amount at this order's price.
func (o *LimitOrder) ReceivedAmountFor(amount OrderVolume) decimal.Decimal {
	if o.Side == SideBuy {
		return amount.Amount
	}
	return o.Price.Mul(amount.Amount)
}

// Copy returns a detached copy, used when a calculator mutates amounts
// inside a pending diff without touching the data-layer snapshot.
func (o *LimitOrder) Copy() *LimitOrder {
	clone := *o
	return &clone
}

// MarketOrder is an ephemeral taker order. It is never persisted and
// exists only for the duration of one execution call.
type MarketOrder struct {
	Owner    AccountID   `json:"owner"`
	Side     Side        `json:"side"`
	BookID   OrderBookID `json:"bookId"`
	Amount   OrderVolume `json:"amount"`
	Receiver AccountID   `json:"receiver,omitempty"`
}

// NewMarketOrder creates a market order paying out to owner unless a
// separate receiver is given.
func NewMarketOrder(owner AccountID, side Side, bookID OrderBookID, amount OrderVolume) *MarketOrder {
	return &MarketOrder{
		Owner:  owner,
		Side:   side,
		BookID: bookID,
		Amount: amount,
	}
}

// PayoutAccount returns the account that receives the taker's proceeds.
func (o *MarketOrder) PayoutAccount() AccountID {
	if o.Receiver != "" {
		return o.Receiver
	}
	return o.Owner
}
