package balance

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/storage"
	errorsPkg "github.com/sora-xor/sora2-network-sub000/pkg/errors"
)

// Locker is the escrow behind limit order placement. Lock moves funds
// from an account into the asset's pooled escrow; Unlock pays out of the
// pool to a recipient, who need not be the original locker (a matched
// taker receives the maker's escrowed funds). The pool per asset can
// never go negative: that is the safety net against a payment double
// release. Per-account net positions are kept alongside for audit.
//
// The locker writes through the KV seam it is bound to. Binding it to a
// cache layer's KV stages the balance mutations in the same overlay as
// the order mutations, so a discarded apply drops both together.
type Locker struct {
	mu sync.Mutex
	kv storage.KV
}

var _ datalayerv1.Locker = (*Locker)(nil)

// poolAccount is the reserved account the per-asset escrow total is
// stored under.
const poolAccount orderbookv1.AccountID = "_pool"

// NewLocker creates a balance locker over the given key-value view.
func NewLocker(kv storage.KV) *Locker {
	return &Locker{kv: kv}
}

// Lock implements datalayerv1.Locker.
func (l *Locker) Lock(_ context.Context, asset orderbookv1.AssetID, account orderbookv1.AccountID, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errorsPkg.NewErrorDetails("lock amount must be positive", string(errorsPkg.ErrBalanceLock), "amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pool, err := l.balance(asset, poolAccount)
	if err != nil {
		return err
	}
	if err := l.store(asset, poolAccount, pool.Add(amount)); err != nil {
		return err
	}

	net, err := l.balance(asset, account)
	if err != nil {
		return err
	}
	return l.store(asset, account, net.Add(amount))
}

// Unlock implements datalayerv1.Locker.
func (l *Locker) Unlock(_ context.Context, asset orderbookv1.AssetID, account orderbookv1.AccountID, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errorsPkg.NewErrorDetails("unlock amount must be positive", string(errorsPkg.ErrBalanceLock), "amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pool, err := l.balance(asset, poolAccount)
	if err != nil {
		return err
	}
	if pool.LessThan(amount) {
		return errorsPkg.NewErrorDetails("unlock exceeds escrowed balance", string(errorsPkg.ErrBalanceLock), "amount")
	}
	if err := l.store(asset, poolAccount, pool.Sub(amount)); err != nil {
		return err
	}

	net, err := l.balance(asset, account)
	if err != nil {
		return err
	}
	return l.store(asset, account, net.Sub(amount))
}

// Escrowed returns the pooled escrow total of an asset.
func (l *Locker) Escrowed(asset orderbookv1.AssetID) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(asset, poolAccount)
}

// Net returns an account's net escrow position: positive while its funds
// sit in the pool, negative once it has received more than it locked.
func (l *Locker) Net(asset orderbookv1.AssetID, account orderbookv1.AccountID) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(asset, account)
}

func (l *Locker) balance(asset orderbookv1.AssetID, account orderbookv1.AccountID) (decimal.Decimal, error) {
	raw, ok, err := l.kv.Get(storage.BalanceKey(asset, account))
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(raw))
}

func (l *Locker) store(asset orderbookv1.AssetID, account orderbookv1.AccountID, value decimal.Decimal) error {
	key := storage.BalanceKey(asset, account)
	if value.IsZero() {
		return l.kv.Delete(key)
	}
	return l.kv.Set(key, []byte(value.String()))
}
