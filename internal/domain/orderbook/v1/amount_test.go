package orderbookv1

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestOrderVolume_AlignDown(t *testing.T) {
	step := NewVolume(dec("0.1"))

	assert.True(t, dec("1.2").Equal(NewVolume(dec("1.23")).AlignDown(step).Amount))
	assert.True(t, dec("1.2").Equal(NewVolume(dec("1.2")).AlignDown(step).Amount))
	assert.True(t, dec("0").Equal(NewVolume(dec("0.09")).AlignDown(step).Amount))

	// zero step leaves the value untouched
	assert.True(t, dec("1.23").Equal(NewVolume(dec("1.23")).AlignDown(NewVolume(decimal.Zero)).Amount))
}

func TestOrderVolume_IsMultipleOf(t *testing.T) {
	step := NewVolume(dec("0.01"))

	assert.True(t, NewVolume(dec("1.23")).IsMultipleOf(step))
	assert.False(t, NewVolume(dec("1.234")).IsMultipleOf(step))
	assert.False(t, NewVolume(dec("1")).IsMultipleOf(NewVolume(decimal.Zero)))

	// indivisible volumes must be whole numbers
	whole := NewIndivisibleVolume(dec("3"))
	assert.True(t, whole.IsMultipleOf(NewVolume(dec("1"))))
}

func TestOrderVolume_Arithmetic(t *testing.T) {
	a := NewVolume(dec("1.5"))
	b := NewVolume(dec("0.5"))

	assert.True(t, dec("2").Equal(a.Add(b).Amount))
	assert.True(t, dec("1").Equal(a.Sub(b).Amount))
	assert.Equal(t, b, a.Min(b))
	assert.True(t, b.LessThan(a))
	assert.False(t, a.IsZero())
	assert.True(t, NewVolume(decimal.Zero).IsZero())
}

func TestIsPriceAligned(t *testing.T) {
	tick := dec("0.01")

	assert.True(t, IsPriceAligned(dec("10.05"), tick))
	assert.False(t, IsPriceAligned(dec("10.055"), tick))
	assert.False(t, IsPriceAligned(dec("10"), decimal.Zero))
}

func TestAggregatedSide_AddSub(t *testing.T) {
	side := AggregatedSide{}

	side.Add(dec("10"), NewVolume(dec("5")))
	side.Add(dec("10"), NewVolume(dec("3")))
	assert.True(t, dec("8").Equal(side.Volume(dec("10")).Amount))

	side.Sub(dec("10"), NewVolume(dec("8")))
	_, exists := side[dec("10").String()]
	assert.False(t, exists, "zeroed level must be deleted")

	// subtracting from a missing level is a no-op
	side.Sub(dec("11"), NewVolume(dec("1")))
	assert.Empty(t, side)
}

func TestAggregatedSide_Ordered(t *testing.T) {
	side := AggregatedSide{}
	side.Add(dec("10"), NewVolume(dec("1")))
	side.Add(dec("12"), NewVolume(dec("2")))
	side.Add(dec("11"), NewVolume(dec("3")))

	bids := side.Ordered(SideBuy)
	require.Len(t, bids, 3)
	assert.True(t, dec("12").Equal(bids[0].Price))
	assert.True(t, dec("10").Equal(bids[2].Price))

	asks := side.Ordered(SideSell)
	assert.True(t, dec("10").Equal(asks[0].Price))
	assert.True(t, dec("12").Equal(asks[2].Price))

	best, ok := side.BestPrice(SideBuy)
	require.True(t, ok)
	assert.True(t, dec("12").Equal(best))

	_, ok = AggregatedSide{}.BestPrice(SideSell)
	assert.False(t, ok)
}
