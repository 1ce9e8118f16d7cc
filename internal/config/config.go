package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"monopoly/internal/game"
	"monopoly/internal/profile"
)

// GameConfig is shared by every binary that runs a session.
type GameConfig struct {
	TickEvery      time.Duration
	ProductEvery   time.Duration
	Offline        bool
	PokeAPIBaseURL string
	AdviceURL      string
	BalanceFile    string
	JournalDir     string
	DiscordToken   string
	DiscordChannel string
}

type APIConfig struct {
	Addr  string
	Store profile.OpenOptions
	Game  GameConfig
}

type WorkerConfig struct {
	Store   profile.OpenOptions
	Game    GameConfig
	RunOnce bool
	Ticks   int
}

type CLIConfig struct {
	APIBaseURL string
	Store      profile.OpenOptions
	Game       GameConfig
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("MONOPOLY_API_ADDR", ":8080")
	}

	store, err := loadStore()
	if err != nil {
		return APIConfig{}, err
	}
	cfg := APIConfig{
		Addr:  addr,
		Store: store,
		Game:  loadGame(),
	}
	return cfg, cfg.Game.validate()
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	store, err := loadStore()
	if err != nil {
		return WorkerConfig{}, err
	}
	cfg := WorkerConfig{
		Store:   store,
		Game:    loadGame(),
		RunOnce: envBoolDefault("MONOPOLY_WORKER_RUN_ONCE", false),
		Ticks:   envIntDefault("MONOPOLY_WORKER_TICKS", 0),
	}
	if cfg.Ticks < 0 {
		return cfg, fmt.Errorf("MONOPOLY_WORKER_TICKS must not be negative")
	}
	return cfg, cfg.Game.validate()
}

func LoadCLIFromEnv() (CLIConfig, error) {
	store, err := loadStore()
	if err != nil {
		return CLIConfig{}, err
	}
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("MONO_API_BASE_URL", "http://localhost:8080"), "/"),
		Store:      store,
		Game:       loadGame(),
	}, nil
}

func loadGame() GameConfig {
	return GameConfig{
		TickEvery:      envDurationDefault("MONOPOLY_TICK_EVERY", game.DefaultTickEvery),
		ProductEvery:   envDurationDefault("MONOPOLY_PRODUCT_EVERY", game.DefaultProductEvery),
		Offline:        envBoolDefault("MONOPOLY_OFFLINE", false),
		PokeAPIBaseURL: envDefault("MONOPOLY_POKEAPI_URL", "https://pokeapi.co/api/v2"),
		AdviceURL:      envDefault("MONOPOLY_ADVICE_URL", "https://api.adviceslip.com/advice"),
		BalanceFile:    strings.TrimSpace(os.Getenv("MONOPOLY_BALANCE_FILE")),
		JournalDir:     strings.TrimSpace(os.Getenv("MONOPOLY_JOURNAL_DIR")),
		DiscordToken:   strings.TrimSpace(os.Getenv("MONOPOLY_DISCORD_TOKEN")),
		DiscordChannel: strings.TrimSpace(os.Getenv("MONOPOLY_DISCORD_CHANNEL")),
	}
}

func (g GameConfig) validate() error {
	if g.TickEvery <= 0 {
		return fmt.Errorf("MONOPOLY_TICK_EVERY must be positive")
	}
	if g.ProductEvery <= 0 {
		return fmt.Errorf("MONOPOLY_PRODUCT_EVERY must be positive")
	}
	if (g.DiscordToken == "") != (g.DiscordChannel == "") {
		return fmt.Errorf("MONOPOLY_DISCORD_TOKEN and MONOPOLY_DISCORD_CHANNEL must be set together")
	}
	return nil
}

func loadStore() (profile.OpenOptions, error) {
	dir := strings.TrimSpace(os.Getenv("MONOPOLY_DATA_DIR"))
	if dir == "" {
		d, err := profile.DefaultDir()
		if err != nil {
			return profile.OpenOptions{}, fmt.Errorf("resolve data dir: %w", err)
		}
		dir = d
	}
	opts := profile.OpenOptions{
		Backend:     strings.ToLower(envDefault("MONOPOLY_PROFILE_BACKEND", profile.BackendFile)),
		Dir:         dir,
		SQLitePath:  envDefault("MONOPOLY_SQLITE_PATH", filepath.Join(dir, "profile.db")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
	switch opts.Backend {
	case profile.BackendFile, profile.BackendMemory, profile.BackendSQLite:
	case profile.BackendPostgres:
		if opts.DatabaseURL == "" {
			return opts, fmt.Errorf("DATABASE_URL is required")
		}
	default:
		return opts, fmt.Errorf("MONOPOLY_PROFILE_BACKEND must be file, sqlite, postgres or memory")
	}
	return opts, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
