package orderbook

import (
	"errors"

	"github.com/shopspring/decimal"
	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
)

// Limits holds the capacity bounds enforced on every book.
type Limits struct {
	MaxOrdersPerUser  int
	MaxOrdersPerPrice int
	MaxPricesPerSide  int
}

// DefaultLimits returns the capacity bounds used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxOrdersPerUser:  1024,
		MaxOrdersPerPrice: 1024,
		MaxPricesPerSide:  1024,
	}
}

// Usecase implements the order book state machine. Every operation
// computes a MarketChange against a snapshot of the data layer; only
// ApplyMarketChange mutates state.
type Usecase struct {
	limits Limits
	logger logger.Interface
}

// NewUsecase creates the order book usecase.
func NewUsecase(limits Limits, log logger.Interface) *Usecase {
	return &Usecase{
		limits: limits,
		logger: log,
	}
}

// CalculateLimitOrderPlacementImpact validates a limit order against the
// book and returns the placement diff. The precondition chain is checked
// in a fixed order and the first failure wins. A crossing price in Trade
// status routes to cross-spread execution instead of resting; in
// PlaceAndCancel status a crossing price is rejected.
func (u *Usecase) CalculateLimitOrderPlacementImpact(book *orderbookv1.OrderBook, order *orderbookv1.LimitOrder, dl datalayerv1.DataLayer) (*orderbookv1.MarketChange, error) {
	if book.TechStatus != orderbookv1.TechStatusReady {
		return nil, orderbookv1.ErrBookIsUpdating
	}
	if !book.AllowsPlacement() {
		return nil, orderbookv1.ErrPlacementOfLimitOrdersIsForbidden
	}
	if err := book.ValidatePrice(order.Price); err != nil {
		return nil, err
	}
	if err := book.ValidateAmount(order.Amount); err != nil {
		return nil, err
	}

	userOrders, err := dl.GetUserLimitOrders(order.Owner, book.ID)
	if err != nil {
		return nil, err
	}
	if len(userOrders) >= u.limits.MaxOrdersPerUser {
		return nil, orderbookv1.ErrUserHasMaxCountOfOpenedOrders
	}

	ownSide, err := u.aggregatedSide(book, order.Side, dl)
	if err != nil {
		return nil, err
	}
	if ownSide.Volume(order.Price).IsZero() && len(ownSide) >= u.limits.MaxPricesPerSide {
		return nil, orderbookv1.ErrOrderBookReachedMaxCountOfPricesForSide
	}

	queue, err := u.sideQueue(book, order.Side, order.Price, dl)
	if err != nil {
		return nil, err
	}
	if len(queue) >= u.limits.MaxOrdersPerPrice {
		return nil, orderbookv1.ErrPriceReachedMaxCountOfLimitOrders
	}

	crosses, err := u.crossesSpread(book, order, dl)
	if err != nil {
		return nil, err
	}
	if crosses {
		if !book.AllowsTrading() {
			// crossing is only permitted in full Trade mode
			return nil, orderbookv1.ErrInvalidLimitOrderPrice
		}
		return u.CrossSpread(book, order, dl)
	}

	change := orderbookv1.NewMarketChange(book.ID)
	change.ToPlace[order.ID] = order
	change.Payment.Lock(order.LockedAsset(book.ID), order.Owner, order.LockedRemaining())
	return change, nil
}

// crossesSpread reports whether the order's price reaches the opposite
// side's best price.
func (u *Usecase) crossesSpread(book *orderbookv1.OrderBook, order *orderbookv1.LimitOrder, dl datalayerv1.DataLayer) (bool, error) {
	opposite, err := u.aggregatedSide(book, order.Side.Opposite(), dl)
	if err != nil {
		return false, err
	}
	best, ok := opposite.BestPrice(order.Side.Opposite())
	if !ok {
		return false, nil
	}
	if order.Side == orderbookv1.SideBuy {
		return order.Price.GreaterThanOrEqual(best), nil
	}
	return order.Price.LessThanOrEqual(best), nil
}

// CalculateCancellationLimitOrderImpact builds the diff for cancelling a
// single resting order, unlocking the remaining locked amount.
func (u *Usecase) CalculateCancellationLimitOrderImpact(book *orderbookv1.OrderBook, order *orderbookv1.LimitOrder, reason orderbookv1.CancelReason) *orderbookv1.MarketChange {
	change := orderbookv1.NewMarketChange(book.ID)
	change.ToCancel[order.ID] = orderbookv1.CanceledOrder{Order: order, Reason: reason}
	change.Payment.Unlock(order.LockedAsset(book.ID), order.Owner, order.LockedRemaining())
	return change
}

// CalculateCancellationOfAllLimitOrdersImpact builds one batched diff
// cancelling every resting order of the book.
func (u *Usecase) CalculateCancellationOfAllLimitOrdersImpact(book *orderbookv1.OrderBook, reason orderbookv1.CancelReason, dl datalayerv1.DataLayer) (*orderbookv1.MarketChange, error) {
	orders, err := dl.GetAllLimitOrders(book.ID)
	if err != nil {
		return nil, err
	}

	change := orderbookv1.NewMarketChange(book.ID)
	for _, order := range orders {
		change.ToCancel[order.ID] = orderbookv1.CanceledOrder{Order: order, Reason: reason}
		change.Payment.Unlock(order.LockedAsset(book.ID), order.Owner, order.LockedRemaining())
	}
	return change, nil
}

// CalculateAlignmentImpact builds the re-quantization diff after a
// StepLotSize change. Orders whose amount is still an exact multiple of
// the new step are left untouched. Non-compliant orders are truncated to
// the nearest valid multiple with the released remainder unlocked, or
// cancelled outright when the truncated amount would fall under the
// minimum lot.
func (u *Usecase) CalculateAlignmentImpact(book *orderbookv1.OrderBook, orders []*orderbookv1.LimitOrder) *orderbookv1.MarketChange {
	change := orderbookv1.NewMarketChange(book.ID)
	for _, order := range orders {
		if order.Amount.IsMultipleOf(book.StepLotSize) {
			continue
		}

		aligned := order.Amount.AlignDown(book.StepLotSize)
		if aligned.LessThan(book.MinLotSize) {
			change.ToCancel[order.ID] = orderbookv1.CanceledOrder{Order: order, Reason: orderbookv1.CancelReasonAligned}
			change.Payment.Unlock(order.LockedAsset(book.ID), order.Owner, order.LockedRemaining())
			continue
		}

		change.ToForceUpdate[order.ID] = aligned
		released := order.Amount.Sub(aligned)
		change.Payment.Unlock(order.LockedAsset(book.ID), order.Owner, order.LockedAmountFor(released))
	}
	return change
}

// GetLimitOrderForCancellation resolves an order for cancellation,
// honoring the status machine.
func (u *Usecase) GetLimitOrderForCancellation(book *orderbookv1.OrderBook, orderID orderbookv1.OrderID, dl datalayerv1.DataLayer) (*orderbookv1.LimitOrder, error) {
	if !book.AllowsCancellation() {
		return nil, orderbookv1.ErrCancellationOfLimitOrdersIsForbidden
	}
	order, err := dl.GetLimitOrder(book.ID, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// aggregatedSide loads one side's aggregated volume map.
func (u *Usecase) aggregatedSide(book *orderbookv1.OrderBook, side orderbookv1.Side, dl datalayerv1.DataLayer) (orderbookv1.AggregatedSide, error) {
	if side == orderbookv1.SideBuy {
		return dl.GetAggregatedBids(book.ID)
	}
	return dl.GetAggregatedAsks(book.ID)
}

// sideQueue loads the order queue at one price of one side.
func (u *Usecase) sideQueue(book *orderbookv1.OrderBook, side orderbookv1.Side, price decimal.Decimal, dl datalayerv1.DataLayer) ([]orderbookv1.OrderID, error) {
	if side == orderbookv1.SideBuy {
		return dl.GetBids(book.ID, price)
	}
	return dl.GetAsks(book.ID, price)
}

// IsNotFound reports whether err signals a missing order or book.
func IsNotFound(err error) bool {
	return errors.Is(err, orderbookv1.ErrUnknownLimitOrder) || errors.Is(err, orderbookv1.ErrUnknownOrderBook)
}
