// Package shop spends the wallet's points on cosmetic items. Purchases are one-off and are
// recorded on the persisted ledger.
package shop

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"monopoly/internal/profile"

	"gopkg.in/yaml.v3"
)

const maxStars = 5

var (
	ErrUnknownItem        = errors.New("unknown item")
	ErrAlreadyPurchased   = errors.New("item already purchased")
	ErrInsufficientPoints = errors.New("not enough points")
)

//go:embed items.yaml
var defaultItems []byte

type Rating struct {
	Rate  float64 `yaml:"rate" json:"rate"`
	Count int     `yaml:"count" json:"count"`
}

type Item struct {
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description" json:"description"`
	Image       string  `yaml:"image" json:"image"`
	Price       float64 `yaml:"price" json:"price"`
	Rating      Rating  `yaml:"rating" json:"rating"`
}

func (i Item) PriceCents() int64 {
	return int64(math.Round(i.Price * 100))
}

type Listing struct {
	Index      int    `json:"index"`
	Item       Item   `json:"item"`
	PriceCents int64  `json:"price_cents"`
	Stars      string `json:"stars"`
	Purchased  bool   `json:"purchased"`
}

// LoadItems parses a YAML item list.
func LoadItems(data []byte) ([]Item, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse shop items: %w", err)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			return nil, fmt.Errorf("shop item %d: title required", i)
		}
		if it.Price < 0 || math.IsNaN(it.Price) {
			return nil, fmt.Errorf("shop item %d: invalid price %v", i, it.Price)
		}
	}
	return items, nil
}

func DefaultItems() []Item {
	items, err := LoadItems(defaultItems)
	if err != nil {
		panic(err)
	}
	return items
}

type LedgerStore interface {
	ReadLedger(ctx context.Context) (profile.Ledger, error)
	UpdateLedger(ctx context.Context, fn func(*profile.Ledger) error) (profile.Ledger, error)
}

type Shop struct {
	store LedgerStore
	items []Item
	log   *slog.Logger
}

// New builds a shop over items; a nil slice means the built-in catalog.
func New(store LedgerStore, items []Item, logger *slog.Logger) *Shop {
	if items == nil {
		items = DefaultItems()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Shop{store: store, items: items, log: logger}
}

func (s *Shop) Items() []Item {
	return append([]Item(nil), s.items...)
}

// List returns every item with its purchase state, plus the current points balance in cents.
func (s *Shop) List(ctx context.Context) ([]Listing, int64, error) {
	ledger, err := s.store.ReadLedger(ctx)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Listing, 0, len(s.items))
	for i, it := range s.items {
		out = append(out, Listing{
			Index:      i,
			Item:       it,
			PriceCents: it.PriceCents(),
			Stars:      Stars(it.Rating),
			Purchased:  ledger.Purchases[i],
		})
	}
	return out, ledger.PointsCents, nil
}

// Buy deducts the item's price from the ledger and marks it purchased in one ledger update.
func (s *Shop) Buy(ctx context.Context, index int) (profile.Ledger, error) {
	if index < 0 || index >= len(s.items) {
		return profile.Ledger{}, fmt.Errorf("%w: %d", ErrUnknownItem, index)
	}
	item := s.items[index]
	price := item.PriceCents()

	ledger, err := s.store.UpdateLedger(ctx, func(l *profile.Ledger) error {
		if l.Purchases[index] {
			return ErrAlreadyPurchased
		}
		if l.PointsCents < price {
			return fmt.Errorf("%w: need %d cents, have %d", ErrInsufficientPoints, price, l.PointsCents)
		}
		l.PointsCents -= price
		l.Purchases[index] = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyPurchased) || errors.Is(err, ErrInsufficientPoints) {
			return ledger, err
		}
		return profile.Ledger{}, fmt.Errorf("save purchase: %w", err)
	}
	s.log.Info("shop purchase", "index", index, "title", item.Title, "price_cents", price, "balance_cents", ledger.PointsCents)
	return ledger, nil
}

// Stars renders a rating as five filled or empty stars followed by the review count.
func Stars(r Rating) string {
	filled := int(math.Round(r.Rate))
	var b strings.Builder
	for i := 0; i < maxStars; i++ {
		if i < filled {
			b.WriteString("★")
		} else {
			b.WriteString("☆")
		}
	}
	fmt.Fprintf(&b, " (%d)", r.Count)
	return b.String()
}
