package balance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/storage"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLocker_LockUnlock(t *testing.T) {
	locker := NewLocker(storage.NewMemLedger())
	ctx := context.Background()

	require.NoError(t, locker.Lock(ctx, "DAI", "alice", dec("50")))
	require.NoError(t, locker.Lock(ctx, "DAI", "bob", dec("30")))

	pool, err := locker.Escrowed("DAI")
	require.NoError(t, err)
	assert.True(t, dec("80").Equal(pool))

	net, err := locker.Net("DAI", "alice")
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(net))

	// a recipient who never locked can be paid out of the pool
	require.NoError(t, locker.Unlock(ctx, "DAI", "carol", dec("20")))

	pool, err = locker.Escrowed("DAI")
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(pool))

	net, err = locker.Net("DAI", "carol")
	require.NoError(t, err)
	assert.True(t, dec("-20").Equal(net))
}

func TestLocker_PoolUnderflowRejected(t *testing.T) {
	locker := NewLocker(storage.NewMemLedger())
	ctx := context.Background()

	require.NoError(t, locker.Lock(ctx, "DAI", "alice", dec("10")))

	err := locker.Unlock(ctx, "DAI", "alice", dec("11"))
	require.Error(t, err)

	// the failed unlock must not have touched anything
	pool, err := locker.Escrowed("DAI")
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(pool))
}

func TestLocker_RejectsNonPositiveAmounts(t *testing.T) {
	locker := NewLocker(storage.NewMemLedger())
	ctx := context.Background()

	assert.Error(t, locker.Lock(ctx, "DAI", "alice", decimal.Zero))
	assert.Error(t, locker.Lock(ctx, "DAI", "alice", dec("-1")))
	assert.Error(t, locker.Unlock(ctx, "DAI", "alice", decimal.Zero))
}

func TestLocker_AssetsAreIndependent(t *testing.T) {
	locker := NewLocker(storage.NewMemLedger())
	ctx := context.Background()

	require.NoError(t, locker.Lock(ctx, "DAI", "alice", dec("10")))

	err := locker.Unlock(ctx, "XOR", "alice", dec("1"))
	require.Error(t, err, "one asset's escrow must not cover another's")
}
