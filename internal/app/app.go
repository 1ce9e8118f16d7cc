// Package app wires the profile store, collaborators and observers every binary shares.
package app

import (
	"context"
	"log/slog"
	"time"

	"monopoly/internal/config"
	"monopoly/internal/game"
	"monopoly/internal/journal"
	"monopoly/internal/notify"
	"monopoly/internal/profile"
	"monopoly/internal/shop"
	"monopoly/internal/supply"
)

type App struct {
	Store      *profile.Store
	Characters supply.CharacterSupply
	Names      game.NameSupply
	Advisor    game.Advisor
	Shop       *shop.Shop
	Rates      game.WalletRates
	Clock      game.Clock
	Journal    *journal.Journal
	Notify     notify.Sink

	TickEvery    time.Duration
	ProductEvery time.Duration

	Log     *slog.Logger
	closers []func()
}

// Open builds the shared dependencies from configuration. Offline mode swaps every HTTP
// collaborator for its absent variant.
func Open(ctx context.Context, storeOpts profile.OpenOptions, cfg config.GameConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	balance, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := profile.Open(ctx, storeOpts, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Store:        store,
		Rates:        balance.Wallet,
		Clock:        game.RealClock{},
		TickEvery:    cfg.TickEvery,
		ProductEvery: cfg.ProductEvery,
		Log:          logger,
		closers:      []func(){closeStore},
	}
	a.Shop = shop.New(store, balance.Shop, logger)

	if cfg.Offline {
		a.Characters = supply.NoCharacters{}
		a.Names = supply.NoNames{}
		a.Advisor = supply.NewAdvisor(supply.NoAdvice{}, logger)
	} else {
		poke := supply.NewPokeAPI(cfg.PokeAPIBaseURL)
		a.Characters = poke
		a.Names = poke
		a.Advisor = supply.NewAdvisor(supply.NewAdviceSlip(cfg.AdviceURL), logger)
	}

	if cfg.JournalDir != "" {
		a.Journal = journal.New(cfg.JournalDir, logger)
		a.closers = append(a.closers, func() {
			if err := a.Journal.Close(); err != nil {
				logger.Warn("journal close failed", "err", err)
			}
		})
	}

	sinks := notify.Multi{notify.LogSink{Log: logger}}
	if cfg.DiscordToken != "" {
		d, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, d)
	}
	a.Notify = sinks
	return a, nil
}

// NewSession builds a session for character and attaches the journal and milestone notifier.
// The caller starts and closes it.
func (a *App) NewSession(id string, character profile.Character) *game.Session {
	s := game.NewSession(game.Options{
		ID:           id,
		Character:    character,
		Wallet:       game.NewWallet(a.Store, a.Clock, a.Rates, a.Log),
		Catalog:      game.NewCatalog(a.Names, a.Log),
		Advisor:      a.Advisor,
		TickEvery:    a.TickEvery,
		ProductEvery: a.ProductEvery,
		Logger:       a.Log,
	})
	if a.Journal != nil {
		s.Subscribe(a.Journal.Observe)
	}
	if a.Notify != nil {
		s.Subscribe(notify.Milestones{Sink: a.Notify, Player: character.Name, Log: a.Log}.Observe)
	}
	return s
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
