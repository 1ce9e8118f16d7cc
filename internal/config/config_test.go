package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"monopoly/internal/game"
	"monopoly/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MONOPOLY_API_ADDR", "")
	t.Setenv("MONOPOLY_DATA_DIR", "/tmp/mono-test")
	t.Setenv("MONOPOLY_PROFILE_BACKEND", "")
	t.Setenv("MONOPOLY_TICK_EVERY", "")
	t.Setenv("MONOPOLY_SQLITE_PATH", "")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, profile.BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join("/tmp/mono-test", "profile.db"), cfg.Store.SQLitePath)
	assert.Equal(t, game.DefaultTickEvery, cfg.Game.TickEvery)
	assert.Equal(t, game.DefaultProductEvery, cfg.Game.ProductEvery)
}

func TestLoadAPIFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONOPOLY_DATA_DIR", t.TempDir())
	t.Setenv("MONOPOLY_PROFILE_BACKEND", "SQLite")
	t.Setenv("MONOPOLY_TICK_EVERY", "500ms")
	t.Setenv("MONOPOLY_PRODUCT_EVERY", "not-a-duration")
	t.Setenv("MONOPOLY_OFFLINE", "true")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, profile.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.TickEvery)
	assert.Equal(t, game.DefaultProductEvery, cfg.Game.ProductEvery)
	assert.True(t, cfg.Game.Offline)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("MONOPOLY_DATA_DIR", t.TempDir())

	t.Setenv("MONOPOLY_PROFILE_BACKEND", "redis")
	_, err := LoadAPIFromEnv()
	assert.Error(t, err)

	t.Setenv("MONOPOLY_PROFILE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = LoadWorkerFromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("MONOPOLY_PROFILE_BACKEND", "memory")
	t.Setenv("MONOPOLY_DISCORD_TOKEN", "abc")
	t.Setenv("MONOPOLY_DISCORD_CHANNEL", "")
	_, err = LoadAPIFromEnv()
	assert.ErrorContains(t, err, "DISCORD")

	t.Setenv("MONOPOLY_DISCORD_TOKEN", "")
	t.Setenv("MONOPOLY_WORKER_TICKS", "-3")
	_, err = LoadWorkerFromEnv()
	assert.Error(t, err)
}

func TestLoadWorkerFromEnv(t *testing.T) {
	t.Setenv("MONOPOLY_DATA_DIR", t.TempDir())
	t.Setenv("MONOPOLY_PROFILE_BACKEND", "memory")
	t.Setenv("MONOPOLY_WORKER_RUN_ONCE", "1")
	t.Setenv("MONOPOLY_WORKER_TICKS", "40")

	cfg, err := LoadWorkerFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, 40, cfg.Ticks)
}

func TestLoadBalance(t *testing.T) {
	b, err := LoadBalance("")
	require.NoError(t, err)
	assert.Equal(t, game.DefaultWalletRates(), b.Wallet)
	assert.Nil(t, b.Shop)

	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wallet:
  base_cents_per_sec: 3
  flush_every: 30s
shop:
  - title: Lucky Coin
    price: 0.5
    rating: {rate: 5, count: 1}
`), 0o600))

	b, err = LoadBalance(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.Wallet.BaseCentsPerSec)
	assert.Equal(t, int64(1), b.Wallet.PerFactoryCentsPerSec)
	assert.Equal(t, 30*time.Second, b.Wallet.FlushEvery)
	require.Len(t, b.Shop, 1)
	assert.Equal(t, int64(50), b.Shop[0].PriceCents())
}

func TestLoadBalanceRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wallet:\n  flush_every: 0s\n"), 0o600))
	_, err := LoadBalance(path)
	assert.Error(t, err)

	_, err = LoadBalance(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
