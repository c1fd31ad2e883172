package orderbookv1

import (
	"github.com/shopspring/decimal"
)

// CancelReason records why an order left the book without executing.
type CancelReason string

const (
	// CancelReasonManual marks a cancellation requested by the owner or an admin.
	CancelReasonManual CancelReason = "Manual"
	// CancelReasonExpired marks a cancellation by the expiration sweep.
	CancelReasonExpired CancelReason = "Expired"
	// CancelReasonAligned marks a cancellation caused by a lot-size change.
	CancelReasonAligned CancelReason = "Aligned"
)

// PartialExecution pairs an order with the base amount filled against it.
type PartialExecution struct {
	Order        *LimitOrder
	FilledAmount OrderVolume
}

// CanceledOrder pairs an order with its cancellation reason.
type CanceledOrder struct {
	Order  *LimitOrder
	Reason CancelReason
}

// Payment lists the balance instructions a market change requires: which
// amounts must be locked from which account and unlocked to which account,
// per asset. The taker's payment goes to ToLock; matched makers' releases
// and the taker's proceeds go to ToUnlock.
type Payment struct {
	ToLock   map[AssetID]map[AccountID]decimal.Decimal
	ToUnlock map[AssetID]map[AccountID]decimal.Decimal
}

// NewPayment returns an empty payment set.
func NewPayment() Payment {
	return Payment{
		ToLock:   make(map[AssetID]map[AccountID]decimal.Decimal),
		ToUnlock: make(map[AssetID]map[AccountID]decimal.Decimal),
	}
}

func accumulate(m map[AssetID]map[AccountID]decimal.Decimal, asset AssetID, account AccountID, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	accounts, ok := m[asset]
	if !ok {
		accounts = make(map[AccountID]decimal.Decimal)
		m[asset] = accounts
	}
	accounts[account] = accounts[account].Add(amount)
}

// Lock accumulates an amount to be locked from account.
func (p *Payment) Lock(asset AssetID, account AccountID, amount decimal.Decimal) {
	accumulate(p.ToLock, asset, account, amount)
}

// Unlock accumulates an amount to be unlocked to account.
func (p *Payment) Unlock(asset AssetID, account AccountID, amount decimal.Decimal) {
	accumulate(p.ToUnlock, asset, account, amount)
}

// Merge folds another payment set into this one.
func (p *Payment) Merge(other Payment) {
	for asset, accounts := range other.ToLock {
		for account, amount := range accounts {
			p.Lock(asset, account, amount)
		}
	}
	for asset, accounts := range other.ToUnlock {
		for account, amount := range accounts {
			p.Unlock(asset, account, amount)
		}
	}
}

// IsEmpty reports whether the payment carries no instructions.
func (p *Payment) IsEmpty() bool {
	return len(p.ToLock) == 0 && len(p.ToUnlock) == 0
}

// MarketChange is the pure diff computed by the matching algorithms. It
// describes every pending mutation of one book without touching the data
// layer; only the apply step turns it into observable state.
type MarketChange struct {
	BookID        OrderBookID
	ToPlace       map[OrderID]*LimitOrder
	ToPartExecute map[OrderID]PartialExecution
	ToFullExecute map[OrderID]*LimitOrder
	ToCancel      map[OrderID]CanceledOrder
	ToForceUpdate map[OrderID]OrderVolume
	Payment       Payment
}

// NewMarketChange returns an empty diff for the given book.
func NewMarketChange(bookID OrderBookID) *MarketChange {
	return &MarketChange{
		BookID:        bookID,
		ToPlace:       make(map[OrderID]*LimitOrder),
		ToPartExecute: make(map[OrderID]PartialExecution),
		ToFullExecute: make(map[OrderID]*LimitOrder),
		ToCancel:      make(map[OrderID]CanceledOrder),
		ToForceUpdate: make(map[OrderID]OrderVolume),
		Payment:       NewPayment(),
	}
}

// IsEmpty reports whether the diff describes no mutation at all.
func (c *MarketChange) IsEmpty() bool {
	return len(c.ToPlace) == 0 &&
		len(c.ToPartExecute) == 0 &&
		len(c.ToFullExecute) == 0 &&
		len(c.ToCancel) == 0 &&
		len(c.ToForceUpdate) == 0 &&
		c.Payment.IsEmpty()
}

// Merge folds another diff for the same book into this one.
func (c *MarketChange) Merge(other *MarketChange) {
	for id, order := range other.ToPlace {
		c.ToPlace[id] = order
	}
	for id, part := range other.ToPartExecute {
		c.ToPartExecute[id] = part
	}
	for id, order := range other.ToFullExecute {
		c.ToFullExecute[id] = order
	}
	for id, canceled := range other.ToCancel {
		c.ToCancel[id] = canceled
	}
	for id, amount := range other.ToForceUpdate {
		c.ToForceUpdate[id] = amount
	}
	c.Payment.Merge(other.Payment)
}

// TouchedLevels counts the distinct opposite-side price levels this diff
// consumed liquidity from. Placement of a non-crossing order touches none.
func (c *MarketChange) TouchedLevels() int {
	prices := make(map[string]struct{})
	for _, order := range c.ToFullExecute {
		prices[order.Price.String()] = struct{}{}
	}
	for _, part := range c.ToPartExecute {
		prices[part.Order.Price.String()] = struct{}{}
	}
	return len(prices)
}
