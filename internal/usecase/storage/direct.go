package storage

import (
	"github.com/shopspring/decimal"
	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// DirectLayer is the immediately-consistent data layer: every read and
// write is an individual ledger operation. Flush is a no-op. Because its
// own writes are visible to subsequent reads within the same computation,
// callers that need snapshot semantics must use the cache layer instead.
type DirectLayer struct {
	core layerCore
}

var _ datalayerv1.DataLayer = (*DirectLayer)(nil)

// NewDirectLayer creates a direct data layer over the ledger.
func NewDirectLayer(ledger Ledger) *DirectLayer {
	return &DirectLayer{core: layerCore{view: directView{ledger: ledger}}}
}

type directView struct {
	ledger Ledger
}

func (v directView) get(key []byte) ([]byte, bool, error) { return v.ledger.Get(key) }
func (v directView) put(key, value []byte) error          { return v.ledger.Set(key, value) }
func (v directView) del(key []byte) error                 { return v.ledger.Delete(key) }
func (v directView) scan(prefix []byte, fn func(key, value []byte) error) error {
	return v.ledger.Scan(prefix, fn)
}

// GetLimitOrder implements datalayerv1.DataLayer.
func (l *DirectLayer) GetLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) (*orderbookv1.LimitOrder, error) {
	return l.core.getLimitOrder(bookID, orderID)
}

// GetBids implements datalayerv1.DataLayer.
func (l *DirectLayer) GetBids(bookID orderbookv1.OrderBookID, price decimal.Decimal) ([]orderbookv1.OrderID, error) {
	return l.core.getQueue(bookID, orderbookv1.SideBuy, price)
}

// GetAsks implements datalayerv1.DataLayer.
func (l *DirectLayer) GetAsks(bookID orderbookv1.OrderBookID, price decimal.Decimal) ([]orderbookv1.OrderID, error) {
	return l.core.getQueue(bookID, orderbookv1.SideSell, price)
}

// GetAggregatedBids implements datalayerv1.DataLayer.
func (l *DirectLayer) GetAggregatedBids(bookID orderbookv1.OrderBookID) (orderbookv1.AggregatedSide, error) {
	return l.core.getAggregated(bookID, orderbookv1.SideBuy)
}

// GetAggregatedAsks implements datalayerv1.DataLayer.
func (l *DirectLayer) GetAggregatedAsks(bookID orderbookv1.OrderBookID) (orderbookv1.AggregatedSide, error) {
	return l.core.getAggregated(bookID, orderbookv1.SideSell)
}

// GetUserLimitOrders implements datalayerv1.DataLayer.
func (l *DirectLayer) GetUserLimitOrders(owner orderbookv1.AccountID, bookID orderbookv1.OrderBookID) ([]orderbookv1.OrderID, error) {
	return l.core.getUserOrders(owner, bookID)
}

// GetAllLimitOrders implements datalayerv1.DataLayer.
func (l *DirectLayer) GetAllLimitOrders(bookID orderbookv1.OrderBookID) ([]*orderbookv1.LimitOrder, error) {
	return l.core.getAllLimitOrders(bookID)
}

// InsertLimitOrder implements datalayerv1.DataLayer.
func (l *DirectLayer) InsertLimitOrder(bookID orderbookv1.OrderBookID, order *orderbookv1.LimitOrder) error {
	return l.core.insertLimitOrder(bookID, order)
}

// UpdateLimitOrderAmount implements datalayerv1.DataLayer.
func (l *DirectLayer) UpdateLimitOrderAmount(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID, amount orderbookv1.OrderVolume) error {
	return l.core.updateLimitOrderAmount(bookID, orderID, amount)
}

// DeleteLimitOrder implements datalayerv1.DataLayer.
func (l *DirectLayer) DeleteLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) error {
	return l.core.deleteLimitOrder(bookID, orderID)
}

// Flush implements datalayerv1.DataLayer. Direct writes are already
// committed, so there is nothing to do.
func (l *DirectLayer) Flush() error {
	return nil
}
