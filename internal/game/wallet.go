package game

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"monopoly/internal/profile"
)

const maxAccrualStep = 3 * time.Second

// LedgerStore is the persisted side of the wallet. *profile.Store satisfies it.
type LedgerStore interface {
	ReadLedger(ctx context.Context) (profile.Ledger, error)
	UpdateLedger(ctx context.Context, fn func(*profile.Ledger) error) (profile.Ledger, error)
}

// WalletRates are passive income rates in cents per second.
type WalletRates struct {
	BaseCentsPerSec           int64         `yaml:"base_cents_per_sec" json:"base_cents_per_sec"`
	PerFactoryCentsPerSec     int64         `yaml:"per_factory_cents_per_sec" json:"per_factory_cents_per_sec"`
	HighReputationCentsPerSec int64         `yaml:"high_reputation_cents_per_sec" json:"high_reputation_cents_per_sec"`
	MaxCentsPerSec            int64         `yaml:"max_cents_per_sec" json:"max_cents_per_sec"`
	FlushEvery                time.Duration `yaml:"flush_every" json:"flush_every"`
}

func DefaultWalletRates() WalletRates {
	return WalletRates{
		BaseCentsPerSec:           1,
		PerFactoryCentsPerSec:     1,
		HighReputationCentsPerSec: 2,
		MaxCentsPerSec:            25,
		FlushEvery:                10 * time.Second,
	}
}

// Wallet buffers passive income in memory and commits it to the persisted ledger every
// FlushEvery, or on Flush. Cents still buffered when the process dies are lost.
type Wallet struct {
	store LedgerStore
	clock Clock
	rates WalletRates
	log   *slog.Logger

	mu          sync.Mutex
	bufferCents int64
	lastAccrual time.Time
	lastCommit  time.Time
}

func NewWallet(store LedgerStore, clock Clock, rates WalletRates, logger *slog.Logger) *Wallet {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := clock.Now()
	return &Wallet{
		store:       store,
		clock:       clock,
		rates:       rates,
		log:         logger,
		lastAccrual: now,
		lastCommit:  now,
	}
}

func (w *Wallet) Rate(factories, reputation int) int64 {
	rate := w.rates.BaseCentsPerSec + int64(factories)*w.rates.PerFactoryCentsPerSec
	if reputation >= highReputation {
		rate += w.rates.HighReputationCentsPerSec
	}
	if w.rates.MaxCentsPerSec > 0 && rate > w.rates.MaxCentsPerSec {
		rate = w.rates.MaxCentsPerSec
	}
	return max(0, rate)
}

// Accrue adds income for the time since the previous call and commits when the flush interval
// has passed. It returns the cents added to the buffer.
func (w *Wallet) Accrue(ctx context.Context, factories, reputation int) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	elapsed := now.Sub(w.lastAccrual)
	w.lastAccrual = now
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > maxAccrualStep {
		elapsed = maxAccrualStep
	}

	added := int64(math.Round(float64(w.Rate(factories, reputation)) * elapsed.Seconds()))
	w.bufferCents += added

	if now.Sub(w.lastCommit) > w.rates.FlushEvery {
		if err := w.commitLocked(ctx, now); err != nil {
			return added, err
		}
	}
	return added, nil
}

func (w *Wallet) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commitLocked(ctx, w.clock.Now())
}

func (w *Wallet) Buffered() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bufferCents
}

// Balance is the persisted balance plus whatever is still buffered.
func (w *Wallet) Balance(ctx context.Context) (int64, error) {
	ledger, err := w.store.ReadLedger(ctx)
	if err != nil {
		return 0, err
	}
	return ledger.PointsCents + w.Buffered(), nil
}

// commitLocked adds the buffer to the ledger as it is at commit time, so points spent or earned
// elsewhere since the last commit are kept. On failure the buffer is left intact for the next
// attempt.
func (w *Wallet) commitLocked(ctx context.Context, now time.Time) error {
	w.lastCommit = now
	if w.bufferCents == 0 {
		return nil
	}
	buffered := w.bufferCents
	ledger, err := w.store.UpdateLedger(ctx, func(l *profile.Ledger) error {
		l.PointsCents += buffered
		return nil
	})
	if err != nil {
		return fmt.Errorf("wallet commit: %w", err)
	}
	w.log.Debug("wallet committed", "cents", w.bufferCents, "balance_cents", ledger.PointsCents)
	w.bufferCents = 0
	return nil
}
