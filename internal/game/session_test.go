package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"monopoly/internal/profile"
	"monopoly/internal/supply"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAdvisor string

func (f fixedAdvisor) Line(context.Context) string { return string(f) }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestSession(t *testing.T, names NameSupply) (*Session, *profile.Store, *FakeClock) {
	t.Helper()
	store := profile.NewStore(profile.NewMemoryKV(), nil)
	clock := NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s := NewSession(Options{
		ID:        "s-1",
		Character: profile.Character{ID: 25, Name: "pikachu", Stats: profile.Stats{HP: 35, Attack: 55, Defense: 40, Speed: 90}},
		Wallet:    NewWallet(store, clock, DefaultWalletRates(), nil),
		Catalog:   NewCatalog(names, nil),
		Advisor:   fixedAdvisor("Buy low."),
		Rand:      &seqRand{vals: []float64{0.99}},
	})
	return s, store, clock
}

func TestSessionTickPublishes(t *testing.T) {
	s, _, clock := newTestSession(t, stubNames{name: "potion"})
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.add)

	clock.Advance(2 * time.Second)
	report, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sold)
	assert.Equal(t, -1, report.ReputationDelta)

	view := s.View()
	assert.Equal(t, int64(1), view.Tick)
	assert.Equal(t, 49, view.Market.Reputation)
	assert.Equal(t, int64(2), view.Wallet.BufferedCents)
	assert.Equal(t, []string{EventTick}, rec.kinds())

	unsubscribe()
	_, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.kinds(), 1)
}

func TestSessionActions(t *testing.T) {
	s, _, _ := newTestSession(t, stubNames{name: "potion"})

	view, err := s.Act(ActionMake)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Market.Inventory)
	assert.Equal(t, 9, view.Market.RawMaterials)

	view, err = s.Act(ActionPriceUp)
	require.NoError(t, err)
	assert.Equal(t, int64(125*MicrosPerDollar/100), view.Market.PriceMicros)

	_, err = s.Act(ActionBuyFactory)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "Earn more before buying a factory.", s.View().Message)

	_, err = s.Act("sell-everything")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSessionMakeWithoutRawMaterials(t *testing.T) {
	s, _, _ := newTestSession(t, stubNames{name: "potion"})
	for i := 0; i < RawMaterialLot; i++ {
		_, err := s.MakeOne()
		require.NoError(t, err)
	}
	view, err := s.MakeOne()
	assert.ErrorIs(t, err, ErrNoRawMaterials)
	assert.Equal(t, "You need raw materials first.", view.Message)
	assert.Equal(t, RawMaterialLot, view.Market.Inventory)
}

func TestSessionRefreshProductRecomputesDemand(t *testing.T) {
	s, _, _ := newTestSession(t, stubNames{name: "master ball"})
	before := s.View().Market.Demand

	res, err := s.RefreshProduct(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Fallback)

	view := s.View()
	assert.Equal(t, "master ball", view.Product.Name)
	assert.NotEqual(t, before, view.Market.Demand)
	assert.Equal(t, "Now featuring: master ball", view.Message)
}

func TestSessionRefreshFallback(t *testing.T) {
	s, _, _ := newTestSession(t, stubNames{err: assert.AnError})
	res, err := s.RefreshProduct(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackProductName, s.View().Product.Name)
}

func TestSessionAdvice(t *testing.T) {
	s, _, _ := newTestSession(t, stubNames{name: "potion"})
	assert.Equal(t, "Buy low.", s.Advice(context.Background()))
	assert.Equal(t, "Buy low.", s.View().Message)
}

func TestSessionWithoutCollaborators(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Options{ID: "bare", Character: profile.Character{Name: "ditto"}, Rand: &seqRand{}})

	_, err := s.Tick(ctx)
	require.NoError(t, err)

	res, err := s.RefreshProduct(ctx)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackProductName, res.Product.Name)

	assert.Equal(t, supply.FallbackAdvice, s.Advice(ctx))
	_, err = s.BuyRawMaterials()
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))
}

func TestSessionCloseFlushesWallet(t *testing.T) {
	ctx := context.Background()
	s, store, clock := newTestSession(t, stubNames{name: "potion"})
	rec := &recorder{}
	s.Subscribe(rec.add)

	clock.Advance(3 * time.Second)
	_, err := s.Tick(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))
	ledger, err := store.ReadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), ledger.PointsCents)

	_, err = s.Tick(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Act(ActionMake)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.RefreshProduct(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.NoError(t, s.Close(ctx))
	assert.Equal(t, []string{EventTick, EventClosed}, rec.kinds())
}

func TestSessionRunLoop(t *testing.T) {
	store := profile.NewStore(profile.NewMemoryKV(), nil)
	s := NewSession(Options{
		ID:           "loop",
		Character:    profile.Character{Name: "eevee", Stats: profile.Stats{HP: 55, Attack: 55, Defense: 50, Speed: 55}},
		Wallet:       NewWallet(store, nil, DefaultWalletRates(), nil),
		Catalog:      NewCatalog(stubNames{name: "ultra ball"}, nil),
		Advisor:      fixedAdvisor("Patience."),
		Rand:         &seqRand{vals: []float64{0.99}},
		TickEvery:    5 * time.Millisecond,
		ProductEvery: 20 * time.Millisecond,
	})

	s.Start(context.Background())
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		v := s.View()
		return v.Tick >= 3 && v.Product.Name == "ultra ball"
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close(context.Background()))
	ticks := s.View().Tick
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ticks, s.View().Tick)
}
