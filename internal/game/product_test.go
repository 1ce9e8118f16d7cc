package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectsFromName(t *testing.T) {
	tests := []struct {
		name            string
		boost           float64
		raw, factoryOff int
	}{
		{name: "potion", boost: 1.05},
		{name: "antidote", boost: 1.15},
		{name: "great ball", boost: 1.15},
		{name: "master ball", boost: 1.25, raw: 1, factoryOff: 5},
		{name: "super potion", boost: 1.25, raw: 1, factoryOff: 5},
		{name: "", boost: 1.05},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := EffectsFromName(tc.name)
			assert.Equal(t, tc.name, p.Name)
			assert.Equal(t, tc.boost, p.DemandBoost)
			assert.Equal(t, tc.raw, p.RawDiscount)
			assert.Equal(t, tc.factoryOff, p.FactoryDiscount)
		})
	}
}

type stubNames struct {
	name string
	err  error
}

func (s stubNames) ProductName(context.Context) (string, error) { return s.name, s.err }

func TestCatalogRefresh(t *testing.T) {
	res, err := NewCatalog(stubNames{name: "ultra ball"}, nil).Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "ultra ball", res.Product.Name)
	assert.Equal(t, 1.25, res.Product.DemandBoost)
}

func TestCatalogFallsBack(t *testing.T) {
	for _, names := range []NameSupply{stubNames{err: errors.New("503")}, stubNames{name: "   "}} {
		res, err := NewCatalog(names, nil).Refresh(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, FallbackProduct(), res.Product)
		assert.Equal(t, 1.0, res.Product.DemandBoost)
	}
}

type blockingNames struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingNames) ProductName(context.Context) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return "potion", nil
}

func TestCatalogRejectsOverlappingRefresh(t *testing.T) {
	names := &blockingNames{entered: make(chan struct{}), release: make(chan struct{})}
	catalog := NewCatalog(names, nil)

	done := make(chan RefreshResult)
	go func() {
		res, _ := catalog.Refresh(context.Background())
		done <- res
	}()
	<-names.entered

	_, err := catalog.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInFlight)

	close(names.release)
	res := <-done
	assert.Equal(t, "potion", res.Product.Name)

	names.mu.Lock()
	assert.Equal(t, 1, names.calls)
	names.mu.Unlock()

	go func() { <-names.entered }()
	_, err = catalog.Refresh(context.Background())
	assert.NoError(t, err)
}

func TestProductZeroValueIsNeutral(t *testing.T) {
	m := NewMarket()
	assert.Equal(t, ComputeDemand(m, Attributes{}, Product{}), ComputeDemand(m, Attributes{}, FallbackProduct()))
}
