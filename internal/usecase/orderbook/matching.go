package orderbook

import (
	"github.com/shopspring/decimal"
	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// minQuoteAmount is the smallest quote amount a deal quote will accept.
// Anything below it is indistinguishable from rounding noise at the
// tracked quote precision.
var minQuoteAmount = decimal.New(1, -orderbookv1.QuotePrecision)

// SumMarket walks the given price levels best-first and accounts how much
// base and quote volume a market execution would move. The walk stops at
// the cap when one is given, consuming the crossing level partially. The
// accumulated base volume is aligned down to the book's lot step; quote
// volume keeps sub-step remainders at QuotePrecision and is never
// re-aligned. With filledTarget set the walk fails unless the cap is
// reached exactly.
func (u *Usecase) SumMarket(book *orderbookv1.OrderBook, levels []orderbookv1.PriceVolume, limit *orderbookv1.MarketAmount, filledTarget bool) (orderbookv1.OrderVolume, decimal.Decimal, error) {
	base := decimal.Zero
	quote := decimal.Zero
	reached := limit == nil

	for _, level := range levels {
		if limit != nil && reached {
			break
		}

		take := level.Volume.Amount
		levelQuote := level.Price.Mul(level.Volume.Amount)

		if limit != nil {
			if limit.IsBase {
				remaining := limit.Amount.Sub(base)
				if take.GreaterThanOrEqual(remaining) {
					take = remaining
					reached = true
				}
				quote = quote.Add(level.Price.Mul(take).Round(orderbookv1.QuotePrecision))
				base = base.Add(take)
				continue
			}

			remainingQuote := limit.Amount.Sub(quote)
			if levelQuote.GreaterThanOrEqual(remainingQuote) {
				take = remainingQuote.Div(level.Price)
				quote = quote.Add(remainingQuote)
				base = base.Add(take)
				reached = true
				continue
			}
		}

		base = base.Add(take)
		quote = quote.Add(levelQuote.Round(orderbookv1.QuotePrecision))
	}

	if filledTarget && limit != nil && !reached {
		return orderbookv1.OrderVolume{}, decimal.Zero, orderbookv1.ErrNotEnoughLiquidityInOrderBook
	}

	aligned := book.StepLotSize.WithAmount(base).AlignDown(book.StepLotSize)
	return aligned, quote, nil
}

// CalculateDeal simulates a hypothetical market order between the book's
// two assets and returns the quote. Nothing is mutated; the result holds
// the exact input consumed, the output produced and the derived average
// price.
func (u *Usecase) CalculateDeal(book *orderbookv1.OrderBook, inputAsset, outputAsset orderbookv1.AssetID, amount orderbookv1.SwapAmount, dl datalayerv1.DataLayer) (*orderbookv1.DealInfo, error) {
	var side orderbookv1.Side
	switch {
	case inputAsset == book.ID.Base && outputAsset == book.ID.Quote:
		side = orderbookv1.SideSell
	case inputAsset == book.ID.Quote && outputAsset == book.ID.Base:
		side = orderbookv1.SideBuy
	default:
		return nil, orderbookv1.ErrInvalidOrderBookID
	}

	if amount.Amount.Sign() <= 0 {
		return nil, orderbookv1.ErrInvalidOrderAmount
	}

	// map the swap intent onto a base or quote cap for the walk
	var walkCap orderbookv1.MarketAmount
	baseCapped := (side == orderbookv1.SideSell) == amount.DesiredInput
	if baseCapped {
		if amount.Amount.LessThan(book.StepLotSize.Amount) {
			return nil, orderbookv1.ErrInvalidOrderAmount
		}
		walkCap = orderbookv1.BaseAmount(amount.Amount)
	} else {
		if amount.Amount.LessThan(minQuoteAmount) {
			return nil, orderbookv1.ErrInvalidOrderAmount
		}
		walkCap = orderbookv1.QuoteAmount(amount.Amount)
	}

	opposite, err := u.aggregatedSide(book, side.Opposite(), dl)
	if err != nil {
		return nil, err
	}
	levels := opposite.Ordered(side.Opposite())

	base, quote, err := u.SumMarket(book, levels, &walkCap, true)
	if err != nil {
		return nil, err
	}
	if base.IsZero() || quote.IsZero() {
		return nil, orderbookv1.ErrNotEnoughLiquidityInOrderBook
	}

	deal := &orderbookv1.DealInfo{
		InputAsset:   inputAsset,
		OutputAsset:  outputAsset,
		AveragePrice: quote.Div(base.Amount),
		Side:         side,
	}
	if side == orderbookv1.SideSell {
		deal.InputAmount = base.Amount
		deal.OutputAmount = quote
	} else {
		deal.InputAmount = quote
		deal.OutputAmount = base.Amount
	}
	return deal, nil
}

// CalculateMarketOrderImpact computes the diff of executing a market
// order. Market orders fully fill or fully fail; a book without enough
// opposite liquidity rejects the order outright.
func (u *Usecase) CalculateMarketOrderImpact(book *orderbookv1.OrderBook, order *orderbookv1.MarketOrder, dl datalayerv1.DataLayer) (*orderbookv1.MarketChange, error) {
	if order.BookID != book.ID {
		return nil, orderbookv1.ErrInvalidOrderBookID
	}
	if book.TechStatus != orderbookv1.TechStatusReady {
		return nil, orderbookv1.ErrBookIsUpdating
	}
	if !book.AllowsTrading() {
		return nil, orderbookv1.ErrTradingIsForbidden
	}
	if err := book.ValidateAmount(order.Amount); err != nil {
		return nil, err
	}

	change, remaining, err := u.matchAgainstBook(book, order.Side, order.Amount, nil, order.Owner, order.PayoutAccount(), dl)
	if err != nil {
		return nil, err
	}
	if !remaining.IsZero() {
		return nil, orderbookv1.ErrNotEnoughLiquidityInOrderBook
	}
	return change, nil
}

// CrossSpread executes the crossing portion of a limit order against the
// opposite side, bounded by the order's own price, and rests whatever
// remains. A remainder below the dust limit is dropped without being
// charged, so Payment reflects only the matched and the rested amounts.
func (u *Usecase) CrossSpread(book *orderbookv1.OrderBook, order *orderbookv1.LimitOrder, dl datalayerv1.DataLayer) (*orderbookv1.MarketChange, error) {
	change, remaining, err := u.matchAgainstBook(book, order.Side, order.Amount, &order.Price, order.Owner, order.Owner, dl)
	if err != nil {
		return nil, err
	}

	if !remaining.IsZero() && !remaining.LessThan(book.DustLimit()) {
		rest := order.Copy()
		rest.Amount = remaining
		rest.OriginalAmount = remaining
		change.ToPlace[rest.ID] = rest
		change.Payment.Lock(rest.LockedAsset(book.ID), rest.Owner, rest.LockedRemaining())
	}
	return change, nil
}

// matchAgainstBook is the shared FIFO walk behind market orders and
// cross-spread execution. It consumes the opposite side best price first
// and, within one price, oldest order first. priceLimit bounds how deep a
// crossing limit order may reach; a nil limit consumes any price. The
// returned remainder is the unmatched part of amount.
func (u *Usecase) matchAgainstBook(
	book *orderbookv1.OrderBook,
	takerSide orderbookv1.Side,
	amount orderbookv1.OrderVolume,
	priceLimit *decimal.Decimal,
	taker orderbookv1.AccountID,
	payout orderbookv1.AccountID,
	dl datalayerv1.DataLayer,
) (*orderbookv1.MarketChange, orderbookv1.OrderVolume, error) {
	change := orderbookv1.NewMarketChange(book.ID)
	remaining := amount

	makerSide := takerSide.Opposite()
	aggregated, err := u.aggregatedSide(book, makerSide, dl)
	if err != nil {
		return nil, orderbookv1.OrderVolume{}, err
	}

	var takerInput, takerOutput orderbookv1.AssetID
	if takerSide == orderbookv1.SideBuy {
		takerInput, takerOutput = book.ID.Quote, book.ID.Base
	} else {
		takerInput, takerOutput = book.ID.Base, book.ID.Quote
	}

	spent := decimal.Zero

	for _, level := range aggregated.Ordered(makerSide) {
		if remaining.IsZero() {
			break
		}
		if priceLimit != nil && !priceReachable(takerSide, level.Price, *priceLimit) {
			break
		}

		queue, err := u.sideQueue(book, makerSide, level.Price, dl)
		if err != nil {
			return nil, orderbookv1.OrderVolume{}, err
		}

		for _, makerID := range queue {
			if remaining.IsZero() {
				break
			}

			maker, err := dl.GetLimitOrder(book.ID, makerID)
			if err != nil {
				return nil, orderbookv1.OrderVolume{}, err
			}

			fill := maker.Amount.Min(remaining)
			if maker.Amount.Cmp(remaining) <= 0 {
				change.ToFullExecute[makerID] = maker
			} else {
				change.ToPartExecute[makerID] = orderbookv1.PartialExecution{Order: maker, FilledAmount: fill}
			}

			// the maker's locked funds split between the maker's proceeds
			// release and the taker's payout
			change.Payment.Unlock(maker.ReceivedAsset(book.ID), maker.Owner, maker.ReceivedAmountFor(fill))
			if takerSide == orderbookv1.SideBuy {
				change.Payment.Unlock(takerOutput, payout, fill.Amount)
				spent = spent.Add(maker.Price.Mul(fill.Amount))
			} else {
				change.Payment.Unlock(takerOutput, payout, maker.Price.Mul(fill.Amount))
				spent = spent.Add(fill.Amount)
			}

			remaining = remaining.Sub(fill)
		}
	}

	if spent.Sign() > 0 {
		change.Payment.Lock(takerInput, taker, spent)
	}
	return change, remaining, nil
}

// priceReachable reports whether a taker bounded by limit may trade at
// the given maker price.
func priceReachable(takerSide orderbookv1.Side, makerPrice, limit decimal.Decimal) bool {
	if takerSide == orderbookv1.SideBuy {
		return makerPrice.LessThanOrEqual(limit)
	}
	return makerPrice.GreaterThanOrEqual(limit)
}
