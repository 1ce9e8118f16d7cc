package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"monopoly/internal/app"
	cl "monopoly/internal/cli"
	"monopoly/internal/config"
	"monopoly/internal/duel"
	"monopoly/internal/game"
	"monopoly/internal/roster"
	"monopoly/internal/supply"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "mono",
		Short:        "Absolute Monopoly, from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&cfg.Game.Offline, "offline", cfg.Game.Offline, "skip the character, product and advice services")

	root.AddCommand(
		newCharactersCmd(&cfg),
		newPickCmd(&cfg),
		newWhoamiCmd(&cfg),
		newResetCmd(&cfg),
		newWalletCmd(&cfg),
		newShopCmd(&cfg),
		newPlayCmd(&cfg),
		newDuelCmd(),
		newRemoteCmd(&apiBase, cfg.Store.Dir),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openApp logs to a discarded handler: the terminal belongs to the game.
func openApp(ctx context.Context, cfg *config.CLIConfig) (*app.App, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if os.Getenv("MONO_DEBUG") != "" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return app.Open(ctx, cfg.Store, cfg.Game, logger)
}

func newCharactersCmd(cfg *config.CLIConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "characters",
		Short: "List characters, strongest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			chars, err := a.Characters.Characters(ctx, supply.ClampLimit(limit))
			if err != nil {
				if errors.Is(err, supply.ErrUnavailable) {
					return fmt.Errorf("character list is unavailable offline")
				}
				return fmt.Errorf("could not load characters: %w", err)
			}
			renderCharacters(roster.SortByStrength(chars))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", supply.DefaultCharacterLimit, "how many characters to load (1-30)")
	return cmd
}

func newPickCmd(cfg *config.CLIConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pick <name>",
		Short: "Choose the character you play as",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			chars, err := a.Characters.Characters(ctx, supply.ClampLimit(limit))
			if err != nil {
				return fmt.Errorf("could not load characters: %w", err)
			}
			chosen, ok := roster.FindByName(chars, strings.Join(args, " "))
			if !ok {
				return fmt.Errorf("no character named %q in the first %d", strings.Join(args, " "), supply.ClampLimit(limit))
			}
			renderCharacter(*chosen)
			typed, err := promptRequired("Type the name to confirm")
			if err != nil {
				return err
			}
			picked, err := roster.ConfirmSelection(chosen, typed)
			if err != nil {
				return err
			}
			if err := a.Store.WriteCharacter(cmd.Context(), picked); err != nil {
				return err
			}
			printSuccess("You are now playing as " + picked.Name + ".")
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", supply.MaxCharacterLimit, "how many characters to search")
	return cmd
}

func newWhoamiCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the selected character",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			c, ok, err := a.Store.ReadCharacter(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				printWarn("No character selected. Run `mono characters` then `mono pick <name>`.")
				return nil
			}
			renderCharacter(c)
			return nil
		},
	}
}

func newResetCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the selected character",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Store.ClearCharacter(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Character cleared. Your wallet and purchases are kept.")
			return nil
		},
	}
}

func newWalletCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show points earned across sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			ledger, err := a.Store.ReadLedger(cmd.Context())
			if err != nil {
				return err
			}
			owned := 0
			for _, v := range ledger.Purchases {
				if v {
					owned++
				}
			}
			accent.Println("\n== WALLET ==")
			fmt.Printf("Points:     %s\n", formatCents(ledger.PointsCents))
			fmt.Printf("Purchases:  %d\n\n", owned)
			return nil
		},
	}
}

func newShopCmd(cfg *config.CLIConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Spend wallet points",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List shop items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			items, points, err := a.Shop.List(cmd.Context())
			if err != nil {
				return err
			}
			renderShop(items, points)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "buy <index>",
		Short: "Buy an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid item index %q", args[0])
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			ledger, err := a.Shop.Buy(cmd.Context(), index)
			if err != nil {
				return err
			}
			printSuccess("Purchased! Points left: " + formatCents(ledger.PointsCents))
			return nil
		},
	})
	return cmd
}

func newDuelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duel",
		Short: "Two-player bake-off on one keyboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := duel.New()
			player := 1
			for {
				renderDuel(g)
				if g.Over {
					again, err := promptChoice("Play again?", []string{"y", "n"}, "n")
					if err != nil {
						return err
					}
					if again != "y" {
						return nil
					}
					g.Reset()
					player = 1
					continue
				}
				move, err := promptChoice(fmt.Sprintf("P%d move", player), []string{"bake", "smack", "consume", "quit"}, "bake")
				if err != nil {
					return err
				}
				if move == "quit" {
					return nil
				}
				if err := g.Play(player, duel.Move(move)); err != nil {
					printError(err.Error())
					continue
				}
				player = 3 - player
			}
		},
	}
}

func newRemoteCmd(apiBase *string, dataDir string) *cobra.Command {
	store := cl.RemoteStore{Dir: dataDir}
	client := func() *cl.Client {
		return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
	}
	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), 30*time.Second)
	}

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Play against a monopoly-api server",
	}
	cmd.PersistentFlags().StringVar(apiBase, "api", *apiBase, "API base URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "characters",
		Short: "List characters known to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			chars, err := client().Characters(ctx, supply.DefaultCharacterLimit)
			if err != nil {
				return err
			}
			renderCharacters(chars)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pick <name>",
		Short: "Select a character on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			typed, err := promptRequired("Type the name to confirm")
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			c, err := client().PickCharacter(ctx, name, typed)
			if err != nil {
				return err
			}
			printSuccess("Server profile now plays as " + c.Name + ".")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "profile",
		Short: "Show the server-side profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			p, err := client().Profile(ctx)
			if err != nil {
				return err
			}
			if p.Character != nil {
				renderCharacter(*p.Character)
			}
			fmt.Printf("Points: %s\n", formatCents(p.PointsCents))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "shop",
		Short: "List the server shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			list, err := client().Shop(ctx)
			if err != nil {
				return err
			}
			renderShop(list.Items, list.PointsCents)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "buy <index>",
		Short: "Buy from the server shop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid item index %q", args[0])
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			points, err := client().Buy(ctx, index)
			if err != nil {
				return err
			}
			printSuccess("Purchased! Points left: " + formatCents(points))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a server session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			view, err := client().StartSession(ctx)
			if err != nil {
				return err
			}
			if err := store.Save(cl.Remote{BaseURL: *apiBase, SessionID: view.SessionID}); err != nil {
				return err
			}
			printSuccess("Session " + view.SessionID + " started.")
			renderView(view)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Show the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := store.Load()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			view, err := client().SessionState(ctx, r.SessionID)
			if err != nil {
				return err
			}
			renderView(view)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "act <action>",
		Short:     "Send an action: price-up, price-down, make, buy-raw, buy-factory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{game.ActionPriceUp, game.ActionPriceDown, game.ActionMake, game.ActionBuyRaw, game.ActionBuyFactory},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := store.Load()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			view, err := client().Act(ctx, r.SessionID, args[0])
			var apiErr *cl.APIError
			if errors.As(err, &apiErr) && apiErr.View != nil {
				printWarn(apiErr.Message)
				renderView(*apiErr.View)
				return nil
			}
			if err != nil {
				return err
			}
			renderView(view)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "End the session and bank the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := store.Load()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			points, err := client().CloseSession(ctx, r.SessionID)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			printSuccess("Session closed. Points: " + formatCents(points))
			return nil
		},
	})
	return cmd
}
