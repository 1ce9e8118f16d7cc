package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

const FallbackProductName = "House Brand Widget"

var errEmptyProductName = errors.New("empty product name")

// Product is the featured item. The zero value means no product is active.
type Product struct {
	Name            string  `json:"name"`
	DemandBoost     float64 `json:"demand_boost"`
	RawDiscount     int     `json:"raw_discount"`
	FactoryDiscount int     `json:"factory_discount"`
}

func (p Product) boost() float64 {
	if p.DemandBoost <= 0 {
		return 1
	}
	return p.DemandBoost
}

// EffectsFromName derives a product from the length of its name, spaces excluded.
func EffectsFromName(name string) Product {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(strings.ReplaceAll(name, " ", ""))
	p := Product{Name: name}
	switch {
	case n >= 10:
		p.DemandBoost = 1.25
		p.RawDiscount = 1
		p.FactoryDiscount = 5
	case n >= 7:
		p.DemandBoost = 1.15
	default:
		p.DemandBoost = 1.05
	}
	return p
}

func FallbackProduct() Product {
	return Product{Name: FallbackProductName, DemandBoost: 1.0}
}

// NameSupply hands out product names. Implementations live in internal/supply, including the
// absent variant.
type NameSupply interface {
	ProductName(ctx context.Context) (string, error)
}

type RefreshResult struct {
	Product  Product `json:"product"`
	Fallback bool    `json:"fallback"`
}

// Catalog swaps the active product. Only one refresh may be in flight at a time.
type Catalog struct {
	names    NameSupply
	log      *slog.Logger
	inFlight atomic.Bool
}

func NewCatalog(names NameSupply, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{names: names, log: logger}
}

func (c *Catalog) Refresh(ctx context.Context) (RefreshResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return RefreshResult{}, ErrRefreshInFlight
	}
	defer c.inFlight.Store(false)

	name, err := c.names.ProductName(ctx)
	if err == nil && strings.TrimSpace(name) == "" {
		err = errEmptyProductName
	}
	if err != nil {
		c.log.Warn("product name unavailable, using fallback", "err", err)
		return RefreshResult{Product: FallbackProduct(), Fallback: true}, nil
	}
	return RefreshResult{Product: EffectsFromName(name)}, nil
}
