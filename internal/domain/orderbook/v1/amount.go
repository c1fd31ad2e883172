package orderbookv1

import (
	"sort"

	"github.com/shopspring/decimal"
)

// QuotePrecision is the number of decimal places tracked when accumulating
// quote-asset amounts during market walks. Sub-step remainders of quote
// amounts are kept at this precision and are not re-aligned to the lot step.
const QuotePrecision = 5

// OrderVolume is a quantized order amount. Divisible markets quantize the
// amount as a fixed-point decimal; indivisible (NFT) markets quantize it as
// an integer. The divisibility tag travels with the value so arithmetic and
// alignment know which rule applies.
type OrderVolume struct {
	Amount    decimal.Decimal `json:"amount"`
	Divisible bool            `json:"divisible"`
}

// NewVolume returns a divisible OrderVolume.
func NewVolume(amount decimal.Decimal) OrderVolume {
	return OrderVolume{Amount: amount, Divisible: true}
}

// NewIndivisibleVolume returns an indivisible OrderVolume truncated to a
// whole number of units.
func NewIndivisibleVolume(amount decimal.Decimal) OrderVolume {
	return OrderVolume{Amount: amount.Truncate(0), Divisible: false}
}

// VolumeFromFloat is a convenience constructor used heavily in tests.
func VolumeFromFloat(amount float64) OrderVolume {
	return NewVolume(decimal.NewFromFloat(amount))
}

// Add returns v + other. The divisibility of the receiver wins.
func (v OrderVolume) Add(other OrderVolume) OrderVolume {
	return OrderVolume{Amount: v.Amount.Add(other.Amount), Divisible: v.Divisible}
}

// Sub returns v - other. The divisibility of the receiver wins.
func (v OrderVolume) Sub(other OrderVolume) OrderVolume {
	return OrderVolume{Amount: v.Amount.Sub(other.Amount), Divisible: v.Divisible}
}

// Cmp compares the numeric values, ignoring divisibility.
func (v OrderVolume) Cmp(other OrderVolume) int {
	return v.Amount.Cmp(other.Amount)
}

// IsZero reports whether the amount is exactly zero.
func (v OrderVolume) IsZero() bool {
	return v.Amount.IsZero()
}

// LessThan reports whether v < other.
func (v OrderVolume) LessThan(other OrderVolume) bool {
	return v.Amount.LessThan(other.Amount)
}

// Min returns the smaller of v and other, keeping the receiver's
// divisibility.
func (v OrderVolume) Min(other OrderVolume) OrderVolume {
	if v.Amount.LessThanOrEqual(other.Amount) {
		return v
	}
	return OrderVolume{Amount: other.Amount, Divisible: v.Divisible}
}

// WithAmount returns a copy of v carrying the given numeric value.
func (v OrderVolume) WithAmount(amount decimal.Decimal) OrderVolume {
	return OrderVolume{Amount: amount, Divisible: v.Divisible}
}

// IsMultipleOf reports whether the amount is an exact multiple of step.
// Indivisible volumes additionally require whole-number amounts.
func (v OrderVolume) IsMultipleOf(step OrderVolume) bool {
	if step.Amount.IsZero() {
		return false
	}
	if !v.Divisible && !v.Amount.Equal(v.Amount.Truncate(0)) {
		return false
	}
	return v.Amount.Mod(step.Amount).IsZero()
}

// AlignDown truncates the amount toward zero to the nearest exact multiple
// of step. A zero step leaves the value untouched.
func (v OrderVolume) AlignDown(step OrderVolume) OrderVolume {
	if step.Amount.IsZero() {
		return v
	}
	aligned := v.Amount.Div(step.Amount).Truncate(0).Mul(step.Amount)
	return OrderVolume{Amount: aligned, Divisible: v.Divisible}
}

// IsPriceAligned reports whether price is an exact multiple of the tick size.
func IsPriceAligned(price, tickSize decimal.Decimal) bool {
	if tickSize.IsZero() {
		return false
	}
	return price.Mod(tickSize).IsZero()
}

// PriceVolume is one rendered entry of the aggregated depth: the total
// remaining amount pooled across all orders at one price.
type PriceVolume struct {
	Price  decimal.Decimal `json:"price"`
	Volume OrderVolume     `json:"volume"`
}

// AggregatedSide is the aggregated volume map of one side of the book,
// keyed by the canonical decimal string of the price. An entry with zero
// volume must not exist in the map.
type AggregatedSide map[string]OrderVolume

// Add accumulates volume at price.
func (a AggregatedSide) Add(price decimal.Decimal, volume OrderVolume) {
	key := price.String()
	if existing, ok := a[key]; ok {
		a[key] = existing.Add(volume)
		return
	}
	a[key] = volume
}

// Sub removes volume at price, deleting the entry when it reaches zero.
func (a AggregatedSide) Sub(price decimal.Decimal, volume OrderVolume) {
	key := price.String()
	existing, ok := a[key]
	if !ok {
		return
	}
	remaining := existing.Sub(volume)
	if remaining.Amount.Sign() <= 0 {
		delete(a, key)
		return
	}
	a[key] = remaining
}

// Volume returns the aggregated volume at price, zero when absent.
func (a AggregatedSide) Volume(price decimal.Decimal) OrderVolume {
	return a[price.String()]
}

// Ordered renders the side as a price-ordered sequence, best price first:
// descending for bids, ascending for asks.
func (a AggregatedSide) Ordered(side Side) []PriceVolume {
	levels := make([]PriceVolume, 0, len(a))
	for key, volume := range a {
		price, err := decimal.NewFromString(key)
		if err != nil {
			continue
		}
		levels = append(levels, PriceVolume{Price: price, Volume: volume})
	}
	sort.Slice(levels, func(i, j int) bool {
		if side == SideBuy {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
	return levels
}

// BestPrice returns the best price of the side (highest bid, lowest ask)
// and false when the side is empty.
func (a AggregatedSide) BestPrice(side Side) (decimal.Decimal, bool) {
	levels := a.Ordered(side)
	if len(levels) == 0 {
		return decimal.Zero, false
	}
	return levels[0].Price, true
}
