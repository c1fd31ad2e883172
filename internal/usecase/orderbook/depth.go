package orderbook

import (
	"github.com/shopspring/decimal"
	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// MarketDepth renders one side of the book as aggregated price levels,
// best price first. A nil limit returns the whole side; otherwise levels
// are appended until the cumulative volume reaches the cap, including the
// level that crosses it.
func (u *Usecase) MarketDepth(book *orderbookv1.OrderBook, side orderbookv1.Side, limit *orderbookv1.MarketAmount, dl datalayerv1.DataLayer) ([]orderbookv1.PriceVolume, error) {
	aggregated, err := u.aggregatedSide(book, side, dl)
	if err != nil {
		return nil, err
	}
	levels := aggregated.Ordered(side)
	if limit == nil {
		return levels, nil
	}

	out := make([]orderbookv1.PriceVolume, 0, len(levels))
	cumulative := decimal.Zero
	for _, level := range levels {
		out = append(out, level)
		if limit.IsBase {
			cumulative = cumulative.Add(level.Volume.Amount)
		} else {
			cumulative = cumulative.Add(level.Price.Mul(level.Volume.Amount))
		}
		if cumulative.GreaterThanOrEqual(limit.Amount) {
			break
		}
	}
	return out, nil
}
