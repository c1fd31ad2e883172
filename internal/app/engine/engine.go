package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/balance"
	depthsnapshot "github.com/sora-xor/sora2-network-sub000/internal/usecase/depth-snapshot"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/orderbook"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/storage"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
)

// Engine serializes all mutations of one book behind a per-book mutex and
// drives the compute-then-apply cycle: load the book, compute a diff
// against a cache layer, apply it, flush the overlay as one batch, then
// persist the book record. Reads never take the book lock.
type Engine struct {
	ledger   storage.Ledger
	registry *storage.BookRegistry
	matcher  *orderbook.Usecase
	sink     orderbookv1.EventSink
	depth    *depthsnapshot.Store
	logger   logger.Interface
	clock    func() time.Time

	mu        sync.Mutex
	bookLocks map[orderbookv1.OrderBookID]*sync.Mutex
	sequence  uint64

	// commitMu serializes apply+flush across books: balance escrow pools
	// are keyed per asset, not per book, so two books' payments must not
	// interleave between the pool read and the batch write.
	commitMu sync.Mutex
}

// New creates an engine over the ledger.
func New(ledger storage.Ledger, log logger.Interface, opts ...Option) *Engine {
	e := &Engine{
		ledger:    ledger,
		registry:  storage.NewBookRegistry(ledger),
		matcher:   orderbook.NewUsecase(orderbook.DefaultLimits(), log),
		sink:      orderbookv1.NopSink{},
		logger:    log,
		clock:     time.Now,
		bookLocks: make(map[orderbookv1.OrderBookID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lockBook returns the mutex serializing one book's mutations.
func (e *Engine) lockBook(id orderbookv1.OrderBookID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.bookLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.bookLocks[id] = lock
	}
	return lock
}

func (e *Engine) nextSequence() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sequence++
	return e.sequence
}

// CreateOrderBook registers a new book. The id must name two distinct
// assets and the quantization parameters must be coherent; the book starts
// in Trade status with an empty ledger footprint.
func (e *Engine) CreateOrderBook(
	ctx context.Context,
	id orderbookv1.OrderBookID,
	tickSize decimal.Decimal,
	stepLotSize, minLotSize, maxLotSize orderbookv1.OrderVolume,
) (*orderbookv1.OrderBook, error) {
	if id.Base == "" || id.Quote == "" || id.Base == id.Quote {
		return nil, orderbookv1.ErrInvalidOrderBookID
	}
	if err := validateLotSizes(tickSize, stepLotSize, minLotSize, maxLotSize); err != nil {
		return nil, err
	}

	lock := e.lockBook(id)
	lock.Lock()
	defer lock.Unlock()

	exists, err := e.registry.Exists(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, orderbookv1.ErrOrderBookAlreadyExists
	}

	book := orderbookv1.NewOrderBook(id, tickSize, stepLotSize, minLotSize, maxLotSize)
	if err := e.registry.Put(book); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "order book created", logger.NewField("book", id.String()))
	return book, nil
}

// validateLotSizes checks the quantization parameters of a book.
func validateLotSizes(tickSize decimal.Decimal, step, min, max orderbookv1.OrderVolume) error {
	if tickSize.Sign() <= 0 {
		return orderbookv1.ErrInvalidLotSizes
	}
	if step.Amount.Sign() <= 0 || min.LessThan(step) || max.LessThan(min) {
		return orderbookv1.ErrInvalidLotSizes
	}
	if !min.IsMultipleOf(step) || !max.IsMultipleOf(step) {
		return orderbookv1.ErrInvalidLotSizes
	}
	return nil
}

// PlaceLimitOrder issues a new order id, computes the placement impact and
// applies it. It returns the issued id and how many opposite price levels
// the order consumed liquidity from (zero for a pure insert).
func (e *Engine) PlaceLimitOrder(
	ctx context.Context,
	bookID orderbookv1.OrderBookID,
	owner orderbookv1.AccountID,
	side orderbookv1.Side,
	price decimal.Decimal,
	amount orderbookv1.OrderVolume,
	lifespan time.Duration,
) (orderbookv1.OrderID, int, error) {
	lock := e.lockBook(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(bookID)
	if err != nil {
		return 0, 0, err
	}

	order := orderbookv1.NewLimitOrder(book.NextOrderID(), owner, side, price, amount, lifespan, e.clock(), e.nextSequence())

	cache := storage.NewCacheLayer(e.ledger)
	change, err := e.matcher.CalculateLimitOrderPlacementImpact(book, order, cache)
	if err != nil {
		return 0, 0, err
	}

	if err := e.commit(ctx, book, change, cache); err != nil {
		return 0, 0, err
	}
	return order.ID, change.TouchedLevels(), nil
}

// CancelLimitOrder cancels one resting order. When requestedBy is set, it
// must match the order's owner; an admin pass uses the empty account.
func (e *Engine) CancelLimitOrder(
	ctx context.Context,
	bookID orderbookv1.OrderBookID,
	orderID orderbookv1.OrderID,
	requestedBy orderbookv1.AccountID,
) error {
	lock := e.lockBook(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(bookID)
	if err != nil {
		return err
	}

	cache := storage.NewCacheLayer(e.ledger)
	order, err := e.matcher.GetLimitOrderForCancellation(book, orderID, cache)
	if err != nil {
		return err
	}
	if requestedBy != "" && order.Owner != requestedBy {
		return orderbookv1.ErrUnknownLimitOrder
	}

	change := e.matcher.CalculateCancellationLimitOrderImpact(book, order, orderbookv1.CancelReasonManual)
	return e.commit(ctx, book, change, cache)
}

// CancelAllLimitOrders removes every resting order of the book in one
// batched change, unlocking all remaining balances. Used by governance
// before retiring a market.
func (e *Engine) CancelAllLimitOrders(ctx context.Context, bookID orderbookv1.OrderBookID) (int, error) {
	lock := e.lockBook(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(bookID)
	if err != nil {
		return 0, err
	}
	if !book.AllowsCancellation() {
		return 0, orderbookv1.ErrCancellationOfLimitOrdersIsForbidden
	}

	cache := storage.NewCacheLayer(e.ledger)
	change, err := e.matcher.CalculateCancellationOfAllLimitOrdersImpact(book, orderbookv1.CancelReasonManual, cache)
	if err != nil {
		return 0, err
	}

	canceled := len(change.ToCancel)
	if err := e.commit(ctx, book, change, cache); err != nil {
		return 0, err
	}
	return canceled, nil
}

// ExecuteMarketOrder matches a taker order against the book. The returned
// deal reports the exact input consumed and output produced; market orders
// fully fill or fully fail.
func (e *Engine) ExecuteMarketOrder(
	ctx context.Context,
	order *orderbookv1.MarketOrder,
) (*orderbookv1.DealInfo, error) {
	lock := e.lockBook(order.BookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(order.BookID)
	if err != nil {
		return nil, err
	}

	cache := storage.NewCacheLayer(e.ledger)
	change, err := e.matcher.CalculateMarketOrderImpact(book, order, cache)
	if err != nil {
		return nil, err
	}

	deal := dealFromChange(book, order, change)
	if err := e.commit(ctx, book, change, cache); err != nil {
		return nil, err
	}

	if err := e.sink.Publish(ctx, orderbookv1.Event{
		Kind:   orderbookv1.EventMarketOrderExecuted,
		BookID: order.BookID,
		Owner:  order.Owner,
		Side:   order.Side,
		Price:  deal.AveragePrice,
		Amount: order.Amount.Amount,
	}); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			logger.NewField("kind", string(orderbookv1.EventMarketOrderExecuted)),
			logger.NewField("book", order.BookID.String()),
			logger.NewField("error", err.Error()),
		)
	}
	return deal, nil
}

// dealFromChange derives the executed deal from the payment instructions:
// the taker's lock is the input, the payout unlock is the output.
func dealFromChange(book *orderbookv1.OrderBook, order *orderbookv1.MarketOrder, change *orderbookv1.MarketChange) *orderbookv1.DealInfo {
	var inputAsset, outputAsset orderbookv1.AssetID
	if order.Side == orderbookv1.SideBuy {
		inputAsset, outputAsset = book.ID.Quote, book.ID.Base
	} else {
		inputAsset, outputAsset = book.ID.Base, book.ID.Quote
	}

	input := change.Payment.ToLock[inputAsset][order.Owner]
	output := change.Payment.ToUnlock[outputAsset][order.PayoutAccount()]

	deal := &orderbookv1.DealInfo{
		InputAsset:   inputAsset,
		InputAmount:  input,
		OutputAsset:  outputAsset,
		OutputAmount: output,
		Side:         order.Side,
	}
	if order.Side == orderbookv1.SideBuy {
		if output.Sign() > 0 {
			deal.AveragePrice = input.Div(output)
		}
	} else if input.Sign() > 0 {
		deal.AveragePrice = output.Div(input)
	}
	return deal
}

// QuoteDeal simulates a market execution without mutating anything.
func (e *Engine) QuoteDeal(
	ctx context.Context,
	bookID orderbookv1.OrderBookID,
	inputAsset, outputAsset orderbookv1.AssetID,
	amount orderbookv1.SwapAmount,
) (*orderbookv1.DealInfo, error) {
	book, err := e.registry.Get(bookID)
	if err != nil {
		return nil, err
	}
	return e.matcher.CalculateDeal(book, inputAsset, outputAsset, amount, storage.NewDirectLayer(e.ledger))
}

// MarketDepth renders one side of the book, optionally truncated by a
// cumulative volume cap.
func (e *Engine) MarketDepth(
	ctx context.Context,
	bookID orderbookv1.OrderBookID,
	side orderbookv1.Side,
	limit *orderbookv1.MarketAmount,
) ([]orderbookv1.PriceVolume, error) {
	book, err := e.registry.Get(bookID)
	if err != nil {
		return nil, err
	}
	return e.matcher.MarketDepth(book, side, limit, storage.NewDirectLayer(e.ledger))
}

// GetOrderBook returns the book record.
func (e *Engine) GetOrderBook(ctx context.Context, bookID orderbookv1.OrderBookID) (*orderbookv1.OrderBook, error) {
	return e.registry.Get(bookID)
}

// ListOrderBooks returns every registered book.
func (e *Engine) ListOrderBooks(ctx context.Context) ([]*orderbookv1.OrderBook, error) {
	return e.registry.List()
}

// SetStatus transitions the book's administrative status.
func (e *Engine) SetStatus(ctx context.Context, bookID orderbookv1.OrderBookID, status orderbookv1.OrderBookStatus) error {
	lock := e.lockBook(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(bookID)
	if err != nil {
		return err
	}
	if book.Status == status {
		return nil
	}

	book.Status = status
	if err := e.registry.Put(book); err != nil {
		return err
	}

	if err := e.sink.Publish(ctx, orderbookv1.Event{
		Kind:   orderbookv1.EventBookStatusChanged,
		BookID: bookID,
		Status: status,
	}); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			logger.NewField("kind", string(orderbookv1.EventBookStatusChanged)),
			logger.NewField("book", bookID.String()),
			logger.NewField("error", err.Error()),
		)
	}
	return nil
}

// UpdateLotSizes changes the quantization parameters of a live book. The
// book is flagged Updating for the duration of the alignment pass so no
// order can slip in against stale parameters; resting orders that no
// longer satisfy the new step are truncated or cancelled.
func (e *Engine) UpdateLotSizes(
	ctx context.Context,
	bookID orderbookv1.OrderBookID,
	stepLotSize, minLotSize, maxLotSize orderbookv1.OrderVolume,
) error {
	lock := e.lockBook(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(bookID)
	if err != nil {
		return err
	}
	if err := validateLotSizes(book.TickSize, stepLotSize, minLotSize, maxLotSize); err != nil {
		return err
	}

	book.TechStatus = orderbookv1.TechStatusUpdating
	if err := e.registry.Put(book); err != nil {
		return err
	}

	book.StepLotSize = stepLotSize
	book.MinLotSize = minLotSize
	book.MaxLotSize = maxLotSize

	cache := storage.NewCacheLayer(e.ledger)
	orders, err := cache.GetAllLimitOrders(bookID)
	if err != nil {
		return err
	}
	change := e.matcher.CalculateAlignmentImpact(book, orders)

	book.TechStatus = orderbookv1.TechStatusReady
	return e.commit(ctx, book, change, cache)
}

// SweepExpired cancels up to max expired orders of one book, oldest expiry
// first. It returns how many were cancelled; callers loop until zero.
func (e *Engine) SweepExpired(ctx context.Context, bookID orderbookv1.OrderBookID, max int) (int, error) {
	lock := e.lockBook(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := e.registry.Get(bookID)
	if err != nil {
		return 0, err
	}

	cache := storage.NewCacheLayer(e.ledger)
	orders, err := cache.GetAllLimitOrders(bookID)
	if err != nil {
		return 0, err
	}

	now := e.clock()
	expired := make([]*orderbookv1.LimitOrder, 0)
	for _, order := range orders {
		if order.IsExpired(now) {
			expired = append(expired, order)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].ExpiresAt != expired[j].ExpiresAt {
			return expired[i].ExpiresAt < expired[j].ExpiresAt
		}
		return expired[i].ID < expired[j].ID
	})
	if max > 0 && len(expired) > max {
		expired = expired[:max]
	}

	change := orderbookv1.NewMarketChange(bookID)
	for _, order := range expired {
		change.Merge(e.matcher.CalculateCancellationLimitOrderImpact(book, order, orderbookv1.CancelReasonExpired))
	}

	if change.IsEmpty() {
		return 0, nil
	}

	swept := len(change.ToCancel)
	if err := e.commit(ctx, book, change, cache); err != nil {
		return 0, err
	}
	return swept, nil
}

// commit applies the diff, flushes the overlay as one batch, persists the
// book record and refreshes the depth snapshot. The balance locker is
// bound to the same overlay, so a failed apply discards the payment's
// partial balance writes along with the order mutations.
func (e *Engine) commit(ctx context.Context, book *orderbookv1.OrderBook, change *orderbookv1.MarketChange, cache *storage.CacheLayer) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	locker := balance.NewLocker(cache.KV())
	if err := e.matcher.ApplyMarketChange(ctx, change, cache, locker, e.sink); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Flush(); err != nil {
		return err
	}
	if err := e.registry.Put(book); err != nil {
		return err
	}

	e.publishDepth(ctx, book)
	return nil
}

// publishDepth refreshes the read-side depth snapshot. Best effort only.
func (e *Engine) publishDepth(ctx context.Context, book *orderbookv1.OrderBook) {
	if e.depth == nil {
		return
	}

	dl := storage.NewDirectLayer(e.ledger)
	bids, err := e.matcher.MarketDepth(book, orderbookv1.SideBuy, nil, dl)
	if err != nil {
		e.logger.WarnContext(ctx, "depth render failed", logger.NewField("book", book.ID.String()), logger.NewField("error", err.Error()))
		return
	}
	asks, err := e.matcher.MarketDepth(book, orderbookv1.SideSell, nil, dl)
	if err != nil {
		e.logger.WarnContext(ctx, "depth render failed", logger.NewField("book", book.ID.String()), logger.NewField("error", err.Error()))
		return
	}

	if err := e.depth.Store(ctx, depthsnapshot.NewSnapshot(book.ID, bids, asks)); err != nil {
		e.logger.WarnContext(ctx, "depth snapshot failed", logger.NewField("book", book.ID.String()), logger.NewField("error", err.Error()))
	}
}
