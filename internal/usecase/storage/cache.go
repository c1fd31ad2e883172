package storage

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// CacheLayer buffers every mutation in an in-memory overlay. Reads check
// the overlay first and fall back to the ledger; writes go only to the
// overlay. Flush commits the overlay to the ledger exactly once, as one
// atomic batch. Discarding the layer without flushing discards the whole
// pending change, which is what gives apply its transaction boundary.
type CacheLayer struct {
	core    layerCore
	overlay *overlayView
}

var _ datalayerv1.DataLayer = (*CacheLayer)(nil)

// NewCacheLayer creates a cache data layer over the ledger.
func NewCacheLayer(ledger Ledger) *CacheLayer {
	overlay := &overlayView{
		ledger:  ledger,
		entries: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
	return &CacheLayer{
		core:    layerCore{view: overlay},
		overlay: overlay,
	}
}

type overlayView struct {
	ledger  Ledger
	entries map[string][]byte
	deleted map[string]struct{}
}

func (v *overlayView) get(key []byte) ([]byte, bool, error) {
	if _, gone := v.deleted[string(key)]; gone {
		return nil, false, nil
	}
	if value, ok := v.entries[string(key)]; ok {
		out := make([]byte, len(value))
		copy(out, value)
		return out, true, nil
	}
	return v.ledger.Get(key)
}

func (v *overlayView) put(key, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	v.entries[string(key)] = stored
	delete(v.deleted, string(key))
	return nil
}

func (v *overlayView) del(key []byte) error {
	delete(v.entries, string(key))
	v.deleted[string(key)] = struct{}{}
	return nil
}

func (v *overlayView) scan(prefix []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	err := v.ledger.Scan(prefix, func(key, value []byte) error {
		merged[string(key)] = value
		return nil
	})
	if err != nil {
		return err
	}

	for key, value := range v.entries {
		if strings.HasPrefix(key, string(prefix)) {
			merged[key] = value
		}
	}
	for key := range v.deleted {
		delete(merged, key)
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := fn([]byte(key), merged[key]); err != nil {
			return err
		}
	}
	return nil
}

func (v *overlayView) mutations() []Mutation {
	mutations := make([]Mutation, 0, len(v.entries)+len(v.deleted))
	for key, value := range v.entries {
		mutations = append(mutations, Mutation{Key: []byte(key), Value: value})
	}
	for key := range v.deleted {
		mutations = append(mutations, Mutation{Key: []byte(key), Delete: true})
	}
	return mutations
}

func (v *overlayView) reset() {
	v.entries = make(map[string][]byte)
	v.deleted = make(map[string]struct{})
}

// GetLimitOrder implements datalayerv1.DataLayer.
func (l *CacheLayer) GetLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) (*orderbookv1.LimitOrder, error) {
	return l.core.getLimitOrder(bookID, orderID)
}

// GetBids implements datalayerv1.DataLayer.
func (l *CacheLayer) GetBids(bookID orderbookv1.OrderBookID, price decimal.Decimal) ([]orderbookv1.OrderID, error) {
	return l.core.getQueue(bookID, orderbookv1.SideBuy, price)
}

// GetAsks implements datalayerv1.DataLayer.
func (l *CacheLayer) GetAsks(bookID orderbookv1.OrderBookID, price decimal.Decimal) ([]orderbookv1.OrderID, error) {
	return l.core.getQueue(bookID, orderbookv1.SideSell, price)
}

// GetAggregatedBids implements datalayerv1.DataLayer.
func (l *CacheLayer) GetAggregatedBids(bookID orderbookv1.OrderBookID) (orderbookv1.AggregatedSide, error) {
	return l.core.getAggregated(bookID, orderbookv1.SideBuy)
}

// GetAggregatedAsks implements datalayerv1.DataLayer.
func (l *CacheLayer) GetAggregatedAsks(bookID orderbookv1.OrderBookID) (orderbookv1.AggregatedSide, error) {
	return l.core.getAggregated(bookID, orderbookv1.SideSell)
}

// GetUserLimitOrders implements datalayerv1.DataLayer.
func (l *CacheLayer) GetUserLimitOrders(owner orderbookv1.AccountID, bookID orderbookv1.OrderBookID) ([]orderbookv1.OrderID, error) {
	return l.core.getUserOrders(owner, bookID)
}

// GetAllLimitOrders implements datalayerv1.DataLayer.
func (l *CacheLayer) GetAllLimitOrders(bookID orderbookv1.OrderBookID) ([]*orderbookv1.LimitOrder, error) {
	return l.core.getAllLimitOrders(bookID)
}

// InsertLimitOrder implements datalayerv1.DataLayer.
func (l *CacheLayer) InsertLimitOrder(bookID orderbookv1.OrderBookID, order *orderbookv1.LimitOrder) error {
	return l.core.insertLimitOrder(bookID, order)
}

// UpdateLimitOrderAmount implements datalayerv1.DataLayer.
func (l *CacheLayer) UpdateLimitOrderAmount(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID, amount orderbookv1.OrderVolume) error {
	return l.core.updateLimitOrderAmount(bookID, orderID, amount)
}

// DeleteLimitOrder implements datalayerv1.DataLayer.
func (l *CacheLayer) DeleteLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) error {
	return l.core.deleteLimitOrder(bookID, orderID)
}

// Flush implements datalayerv1.DataLayer: the overlay is committed as one
// atomic batch, then cleared so the layer can be reused.
func (l *CacheLayer) Flush() error {
	if err := l.overlay.ledger.Apply(l.overlay.mutations()); err != nil {
		return err
	}
	l.overlay.reset()
	return nil
}

// Discard drops the pending overlay without committing it.
func (l *CacheLayer) Discard() {
	l.overlay.reset()
}

// KV exposes the overlay as a raw key-value view. Writes through it are
// buffered with the rest of the pending change, committed by Flush and
// dropped by Discard.
func (l *CacheLayer) KV() KV {
	return overlayKV{view: l.overlay}
}

type overlayKV struct {
	view *overlayView
}

func (k overlayKV) Get(key []byte) ([]byte, bool, error) { return k.view.get(key) }
func (k overlayKV) Set(key, value []byte) error          { return k.view.put(key, value) }
func (k overlayKV) Delete(key []byte) error              { return k.view.del(key) }
