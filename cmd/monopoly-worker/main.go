package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"monopoly/internal/app"
	"monopoly/internal/config"
	"monopoly/internal/game"

	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	a, err := app.Open(ctx, cfg.Store, cfg.Game, logger)
	if err != nil {
		logger.Error("app init failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	character, ok, err := a.Store.ReadCharacter(ctx)
	if err != nil {
		logger.Error("read character failed", "err", err)
		os.Exit(1)
	}
	if !ok {
		logger.Error("no character selected; run `mono pick <name>` first")
		os.Exit(1)
	}

	sess := a.NewSession(uuid.NewString(), character)
	code := run(ctx, logger, sess, cfg)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sess.Close(closeCtx); err != nil {
		logger.Error("wallet flush failed", "err", err)
		code = 1
	}
	balance, err := a.Store.ReadLedger(closeCtx)
	if err == nil {
		logger.Info("worker shutdown", "points_cents", balance.PointsCents, "ticks", sess.View().Tick)
	}
	if code != 0 {
		a.Close()
		os.Exit(code)
	}
}

func run(ctx context.Context, logger *slog.Logger, sess *game.Session, cfg config.WorkerConfig) int {
	ticks := cfg.Ticks
	if cfg.RunOnce {
		ticks = 1
	}

	if ticks == 0 {
		logger.Info("worker started", "tick_every", cfg.Game.TickEvery.String(), "product_every", cfg.Game.ProductEvery.String())
		if err := sess.Run(ctx); err != nil {
			logger.Error("session loop failed", "err", err)
			return 1
		}
		return 0
	}

	if _, err := sess.RefreshProduct(ctx); err != nil {
		logger.Warn("initial product refresh failed", "err", err)
	}
	ticker := time.NewTicker(cfg.Game.TickEvery)
	defer ticker.Stop()
	for i := 0; i < ticks; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return 0
			case <-ticker.C:
			}
		}
		report, err := sess.Tick(ctx)
		if err != nil {
			logger.Error("tick failed", "err", err)
			return 1
		}
		logger.Info("tick complete", "tick", i+1, "made", report.Made, "sold", report.Sold, "revenue_micros", report.RevenueMicros)
	}
	logger.Info("worker run completed", "ticks", ticks)
	return 0
}
