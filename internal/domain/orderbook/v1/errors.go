package orderbookv1

import "errors"

var (
	// ErrTradingIsForbidden is returned when a market order or automatic
	// crossing is attempted outside Trade status.
	ErrTradingIsForbidden = errors.New("trading is forbidden")

	// ErrPlacementOfLimitOrdersIsForbidden is returned when placement is
	// attempted in OnlyCancel or Stop status.
	ErrPlacementOfLimitOrdersIsForbidden = errors.New("placement of limit orders is forbidden")

	// ErrCancellationOfLimitOrdersIsForbidden is returned when cancellation
	// is attempted in Stop status.
	ErrCancellationOfLimitOrdersIsForbidden = errors.New("cancellation of limit orders is forbidden")

	// ErrInvalidLimitOrderPrice is returned when a price violates the tick
	// size, or when a crossing price is submitted in PlaceAndCancel status.
	ErrInvalidLimitOrderPrice = errors.New("invalid limit order price")

	// ErrInvalidOrderAmount is returned when an amount is out of the lot
	// bounds, off the lot step, or below the dust threshold of a quote.
	ErrInvalidOrderAmount = errors.New("invalid order amount")

	// ErrUserHasMaxCountOfOpenedOrders is returned when the per-user open
	// order cap for this book is reached.
	ErrUserHasMaxCountOfOpenedOrders = errors.New("user has max count of opened orders")

	// ErrOrderBookReachedMaxCountOfPricesForSide is returned when a new
	// price level would exceed the per-side level cap.
	ErrOrderBookReachedMaxCountOfPricesForSide = errors.New("order book reached max count of prices for side")

	// ErrPriceReachedMaxCountOfLimitOrders is returned when a price level
	// already holds the maximum count of orders.
	ErrPriceReachedMaxCountOfLimitOrders = errors.New("price reached max count of limit orders")

	// ErrNotEnoughLiquidityInOrderBook is returned when a market order or a
	// filled-target quote cannot be fully satisfied by resting liquidity.
	ErrNotEnoughLiquidityInOrderBook = errors.New("not enough liquidity in order book")

	// ErrUnknownLimitOrder is returned when an order id does not exist in
	// the book.
	ErrUnknownLimitOrder = errors.New("unknown limit order")

	// ErrUnknownOrderBook is returned when no book exists for an id.
	ErrUnknownOrderBook = errors.New("unknown order book")

	// ErrInvalidOrderBookID is returned when an operation's book id does not
	// match the book it is dispatched to, or when the asset pair of a quote
	// matches neither direction of the book.
	ErrInvalidOrderBookID = errors.New("invalid order book id")

	// ErrOrderBookAlreadyExists is returned when creating a book for an id
	// that is already registered.
	ErrOrderBookAlreadyExists = errors.New("order book already exists")

	// ErrInvalidLotSizes is returned when lot bounds are zero, inverted, or
	// not multiples of the step.
	ErrInvalidLotSizes = errors.New("invalid lot size bounds")

	// ErrBookIsUpdating is returned when an operation hits a book whose tech
	// status is mid-maintenance.
	ErrBookIsUpdating = errors.New("order book is updating")
)
