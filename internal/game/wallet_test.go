package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"monopoly/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, rates WalletRates) (*Wallet, *profile.Store, *FakeClock) {
	t.Helper()
	store := profile.NewStore(profile.NewMemoryKV(), nil)
	clock := NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	return NewWallet(store, clock, rates, nil), store, clock
}

func TestWalletAccrueThenFlushScenario(t *testing.T) {
	ctx := context.Background()
	w, store, clock := newTestWallet(t, WalletRates{BaseCentsPerSec: 3, MaxCentsPerSec: 25, FlushEvery: 10 * time.Second})

	clock.Advance(2500 * time.Millisecond)
	added, err := w.Accrue(ctx, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(8), added)
	assert.Equal(t, int64(8), w.Buffered())

	ledger, err := store.ReadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.PointsCents)

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, int64(0), w.Buffered())
	ledger, err = store.ReadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), ledger.PointsCents)
}

func TestWalletClampsLargeJumps(t *testing.T) {
	w, _, clock := newTestWallet(t, WalletRates{BaseCentsPerSec: 2, FlushEvery: time.Hour})

	clock.Advance(10 * time.Minute)
	added, err := w.Accrue(context.Background(), 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(6), added)
}

func TestWalletRate(t *testing.T) {
	w, _, _ := newTestWallet(t, DefaultWalletRates())
	assert.Equal(t, int64(1), w.Rate(0, 50))
	assert.Equal(t, int64(4), w.Rate(3, 50))
	assert.Equal(t, int64(6), w.Rate(3, 80))
	assert.Equal(t, int64(25), w.Rate(100, 90))
}

func TestWalletCommitsAfterInterval(t *testing.T) {
	ctx := context.Background()
	w, store, clock := newTestWallet(t, WalletRates{BaseCentsPerSec: 1, FlushEvery: 5 * time.Second})

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		_, err := w.Accrue(ctx, 0, 50)
		require.NoError(t, err)
	}
	ledger, err := store.ReadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.PointsCents)

	clock.Advance(time.Second)
	_, err = w.Accrue(ctx, 0, 50)
	require.NoError(t, err)
	ledger, err = store.ReadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), ledger.PointsCents)
	assert.Equal(t, int64(0), w.Buffered())
}

func TestWalletCommitMergesExternalChanges(t *testing.T) {
	ctx := context.Background()
	w, store, clock := newTestWallet(t, WalletRates{BaseCentsPerSec: 2, FlushEvery: time.Hour})

	clock.Advance(2 * time.Second)
	_, err := w.Accrue(ctx, 0, 50)
	require.NoError(t, err)

	require.NoError(t, store.WriteLedger(ctx, profile.Ledger{PointsCents: 100, Purchases: map[int]bool{1: true}}))
	require.NoError(t, w.Flush(ctx))

	ledger, err := store.ReadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(104), ledger.PointsCents)
	assert.Equal(t, map[int]bool{1: true}, ledger.Purchases)

	balance, err := w.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(104), balance)
}

type failingLedger struct{ profile.Ledger }

func (f *failingLedger) ReadLedger(context.Context) (profile.Ledger, error) { return f.Ledger, nil }
func (f *failingLedger) UpdateLedger(context.Context, func(*profile.Ledger) error) (profile.Ledger, error) {
	return profile.Ledger{}, errors.New("disk full")
}

func TestWalletKeepsBufferWhenCommitFails(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	w := NewWallet(&failingLedger{}, clock, WalletRates{BaseCentsPerSec: 3, FlushEvery: time.Hour}, nil)

	clock.Advance(time.Second)
	_, err := w.Accrue(context.Background(), 0, 50)
	require.NoError(t, err)

	assert.Error(t, w.Flush(context.Background()))
	assert.Equal(t, int64(3), w.Buffered())
}
