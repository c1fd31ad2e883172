package orderbookv1

import (
	"github.com/shopspring/decimal"
)

// OrderBookStatus is the administrative state machine of one book.
// Transitions are driven by governance, never by the book itself.
type OrderBookStatus string

const (
	// StatusTrade allows placement, matching and cancellation.
	StatusTrade OrderBookStatus = "Trade"
	// StatusPlaceAndCancel allows placement and cancellation, but no
	// automatic crossing.
	StatusPlaceAndCancel OrderBookStatus = "PlaceAndCancel"
	// StatusOnlyCancel allows cancellation only.
	StatusOnlyCancel OrderBookStatus = "OnlyCancel"
	// StatusStop allows nothing.
	StatusStop OrderBookStatus = "Stop"
)

// TechStatus is the maintenance lifecycle flag, separate from the
// administrative status.
type TechStatus string

const (
	// TechStatusReady marks a book in normal operation.
	TechStatusReady TechStatus = "Ready"
	// TechStatusUpdating marks a book mid-maintenance (lot-size alignment).
	TechStatusUpdating TechStatus = "Updating"
)

// OrderBook holds the per-market configuration and the order id counter.
// One record exists per OrderBookID and is persisted in the ledger.
type OrderBook struct {
	ID          OrderBookID     `json:"id"`
	TickSize    decimal.Decimal `json:"tickSize"`
	StepLotSize OrderVolume     `json:"stepLotSize"`
	MinLotSize  OrderVolume     `json:"minLotSize"`
	MaxLotSize  OrderVolume     `json:"maxLotSize"`
	LastOrderID OrderID         `json:"lastOrderId"`
	Status      OrderBookStatus `json:"status"`
	TechStatus  TechStatus      `json:"techStatus"`
}

// NewOrderBook creates a book in Trade status with the given quantization
// parameters. LastOrderID starts at zero; the first issued id is 1.
func NewOrderBook(id OrderBookID, tickSize decimal.Decimal, stepLotSize, minLotSize, maxLotSize OrderVolume) *OrderBook {
	return &OrderBook{
		ID:          id,
		TickSize:    tickSize,
		StepLotSize: stepLotSize,
		MinLotSize:  minLotSize,
		MaxLotSize:  maxLotSize,
		Status:      StatusTrade,
		TechStatus:  TechStatusReady,
	}
}

// NextOrderID increments and returns the order id counter. The counter
// never decreases and ids are never reused, even across cancellations.
func (b *OrderBook) NextOrderID() OrderID {
	b.LastOrderID++
	return b.LastOrderID
}

// AllowsPlacement reports whether limit orders may currently be placed.
func (b *OrderBook) AllowsPlacement() bool {
	return b.Status == StatusTrade || b.Status == StatusPlaceAndCancel
}

// AllowsCancellation reports whether limit orders may currently be
// cancelled. Every status but Stop permits it.
func (b *OrderBook) AllowsCancellation() bool {
	return b.Status != StatusStop
}

// AllowsTrading reports whether market orders and automatic crossing are
// currently permitted.
func (b *OrderBook) AllowsTrading() bool {
	return b.Status == StatusTrade
}

// ValidatePrice checks a limit order price against the tick size.
func (b *OrderBook) ValidatePrice(price decimal.Decimal) error {
	if price.Sign() <= 0 || !IsPriceAligned(price, b.TickSize) {
		return ErrInvalidLimitOrderPrice
	}
	return nil
}

// ValidateAmount checks an order amount against the lot bounds and step.
func (b *OrderBook) ValidateAmount(amount OrderVolume) error {
	if amount.LessThan(b.MinLotSize) || b.MaxLotSize.LessThan(amount) {
		return ErrInvalidOrderAmount
	}
	if !amount.IsMultipleOf(b.StepLotSize) {
		return ErrInvalidOrderAmount
	}
	return nil
}

// DustLimit is the smallest remainder worth resting after a cross-spread
// execution. A remainder below the minimum placeable lot can never rest,
// so it is dropped without being charged.
func (b *OrderBook) DustLimit() OrderVolume {
	return b.MinLotSize
}
