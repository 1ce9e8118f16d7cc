package config

import (
	"fmt"
	"os"

	"monopoly/internal/game"
	"monopoly/internal/shop"

	"gopkg.in/yaml.v3"
)

// Balance holds the tunables that live in the optional MONOPOLY_BALANCE_FILE. Fields missing from
// the file keep their defaults.
type Balance struct {
	Wallet game.WalletRates `yaml:"wallet"`
	Shop   []shop.Item      `yaml:"shop"`
}

func DefaultBalance() Balance {
	return Balance{Wallet: game.DefaultWalletRates()}
}

func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("parse balance file: %w", err)
	}
	if b.Wallet.BaseCentsPerSec < 0 || b.Wallet.PerFactoryCentsPerSec < 0 || b.Wallet.HighReputationCentsPerSec < 0 {
		return b, fmt.Errorf("balance file: wallet rates must not be negative")
	}
	if b.Wallet.FlushEvery <= 0 {
		return b, fmt.Errorf("balance file: wallet.flush_every must be positive")
	}
	for i, it := range b.Shop {
		if it.Title == "" || it.Price < 0 {
			return b, fmt.Errorf("balance file: shop item %d needs a title and a non-negative price", i)
		}
	}
	return b, nil
}
