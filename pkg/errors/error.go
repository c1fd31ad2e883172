package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"
	// GeneralStorageError represents a generic storage layer error.
	GeneralStorageError ErrorCode = "general_storage_error"

	// ErrTradingForbidden represents an operation attempted while the book does not allow trading.
	ErrTradingForbidden ErrorCode = "trading_is_forbidden"
	// ErrPlacementForbidden represents a limit order placement attempted while placement is not allowed.
	ErrPlacementForbidden ErrorCode = "placement_of_limit_orders_is_forbidden"
	// ErrCancellationForbidden represents a cancellation attempted while cancellation is not allowed.
	ErrCancellationForbidden ErrorCode = "cancellation_of_limit_orders_is_forbidden"
	// ErrInvalidOrderPrice represents a limit order price that violates the book's tick size.
	ErrInvalidOrderPrice ErrorCode = "invalid_limit_order_price"
	// ErrInvalidAmount represents an order amount outside the book's lot bounds or step.
	ErrInvalidAmount ErrorCode = "invalid_order_amount"
	// ErrUserOrderCap represents a user that already holds the maximum count of open orders.
	ErrUserOrderCap ErrorCode = "user_has_max_count_of_opened_orders"
	// ErrSidePriceCap represents a side that already holds the maximum count of price levels.
	ErrSidePriceCap ErrorCode = "order_book_reached_max_count_of_prices_for_side"
	// ErrPriceOrderCap represents a price level that already holds the maximum count of orders.
	ErrPriceOrderCap ErrorCode = "price_reached_max_count_of_limit_orders"
	// ErrInsufficientLiquidity represents a market order that cannot be fully matched.
	ErrInsufficientLiquidity ErrorCode = "not_enough_liquidity_in_order_book"
	// ErrOrderNotFound represents a limit order id that does not exist in the book.
	ErrOrderNotFound ErrorCode = "unknown_limit_order"
	// ErrBookNotFound represents an order book id that does not exist.
	ErrBookNotFound ErrorCode = "unknown_order_book"
	// ErrBalanceLock represents a failed balance lock or unlock instruction.
	ErrBalanceLock ErrorCode = "balance_lock_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
)
