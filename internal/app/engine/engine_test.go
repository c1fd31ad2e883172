package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/balance"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/scheduler"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/storage"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
)

var testBookID = orderbookv1.OrderBookID{MarketID: 1, Base: "XOR", Quote: "DAI"}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func vol(s string) orderbookv1.OrderVolume {
	return orderbookv1.NewVolume(dec(s))
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *testClock) {
	t.Helper()
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	ledger := storage.NewMemLedger()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(ledger, log, opts...), clock
}

func createTestBook(t *testing.T, e *Engine) *orderbookv1.OrderBook {
	t.Helper()
	book, err := e.CreateOrderBook(context.Background(), testBookID, dec("0.001"), vol("0.1"), vol("1"), vol("10000"))
	require.NoError(t, err)
	return book
}

func TestEngine_CreateOrderBook(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	book := createTestBook(t, e)
	assert.Equal(t, orderbookv1.StatusTrade, book.Status)
	assert.Equal(t, orderbookv1.TechStatusReady, book.TechStatus)

	_, err := e.CreateOrderBook(ctx, testBookID, dec("0.001"), vol("0.1"), vol("1"), vol("10000"))
	assert.ErrorIs(t, err, orderbookv1.ErrOrderBookAlreadyExists)

	_, err = e.CreateOrderBook(ctx, orderbookv1.OrderBookID{MarketID: 2, Base: "XOR", Quote: "XOR"}, dec("0.001"), vol("0.1"), vol("1"), vol("10000"))
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidOrderBookID)

	_, err = e.CreateOrderBook(ctx, orderbookv1.OrderBookID{MarketID: 2, Base: "ETH", Quote: "DAI"}, dec("0.001"), vol("0.1"), vol("0.05"), vol("10000"))
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidLotSizes)
}

func TestEngine_PlaceLimitOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	id, touched, err := e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10"), vol("100"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, orderbookv1.OrderID(1), id)
	assert.Equal(t, 0, touched)

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("100").Equal(levels[0].Volume.Amount))

	// ids are monotonic and survive a book reload
	id2, _, err := e.PlaceLimitOrder(ctx, testBookID, "bob", orderbookv1.SideBuy, dec("9"), vol("1"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, orderbookv1.OrderID(2), id2)

	// a rejected placement must not consume state
	_, _, err = e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10.0005"), vol("1"), time.Hour)
	require.ErrorIs(t, err, orderbookv1.ErrInvalidLimitOrderPrice)

	levels, err = e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	assert.Len(t, levels, 2)
}

func TestEngine_CancelLimitOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	id, _, err := e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10"), vol("5"), time.Hour)
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		err := e.CancelLimitOrder(ctx, testBookID, 999, "alice")
		assert.ErrorIs(t, err, orderbookv1.ErrUnknownLimitOrder)
	})

	t.Run("wrong owner", func(t *testing.T) {
		err := e.CancelLimitOrder(ctx, testBookID, id, "mallory")
		assert.ErrorIs(t, err, orderbookv1.ErrUnknownLimitOrder)
	})

	t.Run("owner cancels", func(t *testing.T) {
		require.NoError(t, e.CancelLimitOrder(ctx, testBookID, id, "alice"))

		levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
		require.NoError(t, err)
		assert.Empty(t, levels)
	})
}

func TestEngine_ExecuteMarketOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideBuy, dec("10"), vol("68.5"), time.Hour)
	require.NoError(t, err)
	_, _, err = e.PlaceLimitOrder(ctx, testBookID, "b", orderbookv1.SideBuy, dec("10"), vol("100"), time.Hour)
	require.NoError(t, err)

	deal, err := e.ExecuteMarketOrder(ctx, orderbookv1.NewMarketOrder("dave", orderbookv1.SideSell, testBookID, vol("100")))
	require.NoError(t, err)

	assert.Equal(t, orderbookv1.AssetID("XOR"), deal.InputAsset)
	assert.True(t, dec("100").Equal(deal.InputAmount))
	assert.True(t, dec("1000").Equal(deal.OutputAmount))
	assert.True(t, dec("10").Equal(deal.AveragePrice))

	// 168.5 - 100 = 68.5 remains on the level
	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("68.5").Equal(levels[0].Volume.Amount))

	t.Run("fully fills or fully fails", func(t *testing.T) {
		_, err := e.ExecuteMarketOrder(ctx, orderbookv1.NewMarketOrder("dave", orderbookv1.SideSell, testBookID, vol("100")))
		require.ErrorIs(t, err, orderbookv1.ErrNotEnoughLiquidityInOrderBook)

		levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
		require.NoError(t, err)
		require.Len(t, levels, 1)
		assert.True(t, dec("68.5").Equal(levels[0].Volume.Amount), "a failed market order must not change the book")
	})
}

func TestEngine_QuoteDealDoesNotMutate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideBuy, dec("10"), vol("5"), time.Hour)
	require.NoError(t, err)

	deal, err := e.QuoteDeal(ctx, testBookID, "XOR", "DAI", orderbookv1.DesiredInput(dec("5")))
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(deal.OutputAmount))

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("5").Equal(levels[0].Volume.Amount))
}

func TestEngine_CancelAllLimitOrders(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	for _, owner := range []orderbookv1.AccountID{"a", "b", "c"} {
		_, _, err := e.PlaceLimitOrder(ctx, testBookID, owner, orderbookv1.SideBuy, dec("10"), vol("1"), time.Hour)
		require.NoError(t, err)
	}

	canceled, err := e.CancelAllLimitOrders(ctx, testBookID)
	require.NoError(t, err)
	assert.Equal(t, 3, canceled)

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestEngine_SetStatus(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	require.NoError(t, e.SetStatus(ctx, testBookID, orderbookv1.StatusStop))

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10"), vol("1"), time.Hour)
	assert.ErrorIs(t, err, orderbookv1.ErrPlacementOfLimitOrdersIsForbidden)

	err = e.CancelLimitOrder(ctx, testBookID, 1, "alice")
	assert.ErrorIs(t, err, orderbookv1.ErrCancellationOfLimitOrdersIsForbidden)

	require.NoError(t, e.SetStatus(ctx, testBookID, orderbookv1.StatusTrade))
	_, _, err = e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10"), vol("1"), time.Hour)
	assert.NoError(t, err)
}

func TestEngine_UpdateLotSizes(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideSell, dec("10"), vol("5.5"), time.Hour)
	require.NoError(t, err)
	_, _, err = e.PlaceLimitOrder(ctx, testBookID, "b", orderbookv1.SideSell, dec("10"), vol("1.5"), time.Hour)
	require.NoError(t, err)

	require.NoError(t, e.UpdateLotSizes(ctx, testBookID, vol("2"), vol("2"), vol("10000")))

	book, err := e.GetOrderBook(ctx, testBookID)
	require.NoError(t, err)
	assert.Equal(t, orderbookv1.TechStatusReady, book.TechStatus)
	assert.True(t, dec("2").Equal(book.StepLotSize.Amount))

	// 5.5 truncated to 4, 1.5 cancelled as dust
	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideSell, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("4").Equal(levels[0].Volume.Amount))
}

func TestEngine_PlaceCancelReleasesEscrow(t *testing.T) {
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)
	ledger := storage.NewMemLedger()
	e := New(ledger, log)
	ctx := context.Background()
	createTestBook(t, e)

	id, _, err := e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10"), vol("5"), time.Hour)
	require.NoError(t, err)

	// the placement lock was flushed with the placement itself
	escrow := balance.NewLocker(ledger)
	pool, err := escrow.Escrowed("DAI")
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(pool))

	require.NoError(t, e.CancelLimitOrder(ctx, testBookID, id, "alice"))

	pool, err = escrow.Escrowed("DAI")
	require.NoError(t, err)
	assert.True(t, pool.IsZero(), "cancellation must release the full escrow")
}

func TestEngine_SweepExpired(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideBuy, dec("10"), vol("1"), time.Minute)
	require.NoError(t, err)
	_, _, err = e.PlaceLimitOrder(ctx, testBookID, "b", orderbookv1.SideBuy, dec("9"), vol("1"), time.Hour)
	require.NoError(t, err)

	// nothing expired yet
	expired, err := e.SweepExpired(ctx, testBookID, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	clock.now = clock.now.Add(2 * time.Minute)

	expired, err = e.SweepExpired(ctx, testBookID, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("9").Equal(levels[0].Price))
}

func TestEngine_SweepExpiredBounded(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	for i := 0; i < 5; i++ {
		price := dec("10").Add(decimal.NewFromInt(int64(i)))
		_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideBuy, price, vol("1"), time.Minute)
		require.NoError(t, err)
	}

	clock.now = clock.now.Add(time.Hour)

	expired, err := e.SweepExpired(ctx, testBookID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	// leftovers are picked up by subsequent sweeps
	expired, err = e.SweepExpired(ctx, testBookID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	expired, err = e.SweepExpired(ctx, testBookID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestEngine_SweepExpiredOldestFirst(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	// the later-placed order expires earlier
	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideBuy, dec("10"), vol("1"), 3*time.Hour)
	require.NoError(t, err)
	_, _, err = e.PlaceLimitOrder(ctx, testBookID, "b", orderbookv1.SideBuy, dec("9"), vol("1"), time.Hour)
	require.NoError(t, err)

	clock.now = clock.now.Add(4 * time.Hour)

	expired, err := e.SweepExpired(ctx, testBookID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("10").Equal(levels[0].Price), "the earlier expiry must be swept first")
}

func TestEngine_ZeroLifespanNeverExpires(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "alice", orderbookv1.SideBuy, dec("10"), vol("1"), 0)
	require.NoError(t, err)

	clock.now = clock.now.Add(1000 * time.Hour)

	expired, err := e.SweepExpired(ctx, testBookID, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	assert.Len(t, levels, 1)
}

func TestEngine_IndivisibleBook(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	nftBookID := orderbookv1.OrderBookID{MarketID: 2, Base: "ART", Quote: "DAI"}
	one := orderbookv1.NewIndivisibleVolume(decimal.NewFromInt(1))
	hundred := orderbookv1.NewIndivisibleVolume(decimal.NewFromInt(100))
	_, err := e.CreateOrderBook(ctx, nftBookID, dec("0.1"), one, one, hundred)
	require.NoError(t, err)

	five := orderbookv1.NewIndivisibleVolume(decimal.NewFromInt(5))
	_, _, err = e.PlaceLimitOrder(ctx, nftBookID, "alice", orderbookv1.SideBuy, dec("10"), five, time.Hour)
	require.NoError(t, err)

	// fractional amounts have no meaning in an indivisible market
	_, _, err = e.PlaceLimitOrder(ctx, nftBookID, "bob", orderbookv1.SideBuy, dec("10"), vol("2.5"), time.Hour)
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidOrderAmount)

	two := orderbookv1.NewIndivisibleVolume(decimal.NewFromInt(2))
	deal, err := e.ExecuteMarketOrder(ctx, orderbookv1.NewMarketOrder("carol", orderbookv1.SideSell, nftBookID, two))
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(deal.InputAmount))
	assert.True(t, dec("20").Equal(deal.OutputAmount))

	levels, err := e.MarketDepth(ctx, nftBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, dec("3").Equal(levels[0].Volume.Amount))
	assert.False(t, levels[0].Volume.Divisible)
}

func TestExpirationScheduler_Sweep(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	createTestBook(t, e)

	_, _, err := e.PlaceLimitOrder(ctx, testBookID, "a", orderbookv1.SideBuy, dec("10"), vol("1"), time.Minute)
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour)

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	sweeper := scheduler.NewExpirationScheduler(e, time.Second, 100, log)
	sweeper.Sweep(ctx)

	levels, err := e.MarketDepth(ctx, testBookID, orderbookv1.SideBuy, nil)
	require.NoError(t, err)
	assert.Empty(t, levels)
}
