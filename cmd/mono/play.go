package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"monopoly/internal/config"
	"monopoly/internal/game"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type playKeys struct {
	PriceUp    key.Binding
	PriceDown  key.Binding
	Make       key.Binding
	BuyRaw     key.Binding
	BuyFactory key.Binding
	Product    key.Binding
	Advice     key.Binding
	Quit       key.Binding
}

func (k playKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.PriceUp, k.PriceDown, k.Make, k.BuyRaw, k.BuyFactory, k.Product, k.Advice, k.Quit}
}

func (k playKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultPlayKeys = playKeys{
	PriceUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "raise price")),
	PriceDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "lower price")),
	Make:       key.NewBinding(key.WithKeys("m", " "), key.WithHelp("m", "make one")),
	BuyRaw:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "buy raw")),
	BuyFactory: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "buy factory")),
	Product:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new product")),
	Advice:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ask advisor")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "bank & quit")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C542"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5F87AF")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	messageStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#D7AFFF"))
)

type eventMsg game.Event

type adviceMsg string

type productMsg struct {
	res game.RefreshResult
	err error
}

type playModel struct {
	sess   *game.Session
	events <-chan game.Event
	view   game.View
	last   *game.TickReport
	keys   playKeys
	help   help.Model
	width  int
}

func waitForEvent(ch <-chan game.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

func (m playModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case eventMsg:
		m.view = msg.View
		if msg.Report != nil {
			m.last = msg.Report
		}
		return m, waitForEvent(m.events)
	case adviceMsg:
		m.view = m.sess.View()
		return m, nil
	case productMsg:
		if errors.Is(msg.err, game.ErrRefreshInFlight) {
			m.view.Message = "A new product is already on its way."
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.PriceUp):
			m.view, _ = m.sess.RaisePrice()
		case key.Matches(msg, m.keys.PriceDown):
			m.view, _ = m.sess.LowerPrice()
		case key.Matches(msg, m.keys.Make):
			m.view, _ = m.sess.MakeOne()
		case key.Matches(msg, m.keys.BuyRaw):
			m.view, _ = m.sess.BuyRawMaterials()
		case key.Matches(msg, m.keys.BuyFactory):
			m.view, _ = m.sess.BuyFactory()
		case key.Matches(msg, m.keys.Product):
			sess := m.sess
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				res, err := sess.RefreshProduct(ctx)
				return productMsg{res: res, err: err}
			}
		case key.Matches(msg, m.keys.Advice):
			sess := m.sess
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return adviceMsg(sess.Advice(ctx))
			}
		}
	}
	return m, nil
}

func (m playModel) View() string {
	v := m.view
	mk := v.Market

	rep := fmt.Sprintf("%d", mk.Reputation)
	switch {
	case mk.Reputation >= 80:
		rep = goodStyle.Render(rep)
	case mk.Reputation <= 20:
		rep = badStyle.Render(rep)
	}

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-12s", label)) + value
	}
	lines := []string{
		row("Funds", formatMicros(mk.FundsMicros)),
		row("Price", fmt.Sprintf("%s  (x%.2f)", formatMicros(mk.PriceMicros), mk.PriceMultiplier)),
		row("Inventory", fmt.Sprintf("%d", mk.Inventory)),
		row("Demand", fmt.Sprintf("%.2f", mk.Demand)),
		row("Raw", fmt.Sprintf("%d  (lot %s)", mk.RawMaterials, formatMicros(mk.RawCostMicros))),
		row("Factories", fmt.Sprintf("%d  (next %s)", mk.Factories, formatMicros(mk.FactoryCostMicros))),
		row("Reputation", rep),
		row("Wallet", fmt.Sprintf("+%s buffered, %d¢/s", formatCents(v.Wallet.BufferedCents), v.Wallet.RateCentsSec)),
	}
	if v.Product.Name != "" {
		lines = append(lines, row("Featuring", fmt.Sprintf("%s  (x%.2f demand)", v.Product.Name, v.Product.DemandBoost)))
	}
	if m.last != nil {
		lines = append(lines, row("Last tick", fmt.Sprintf("made %d, sold %d, +%s", m.last.Made, m.last.Sold, formatMicros(m.last.RevenueMicros))))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("ABSOLUTE MONOPOLY  ·  %s  ·  tick %d", v.Player.Name, v.Tick)))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	if v.Message != "" {
		b.WriteString(messageStyle.Render(v.Message))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func newPlayCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run the factory in your terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("play needs an interactive terminal")
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			character, ok, err := a.Store.ReadCharacter(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				printWarn("No character selected. Run `mono characters` then `mono pick <name>`.")
				return nil
			}

			sess := a.NewSession(uuid.NewString(), character)
			events := make(chan game.Event, 64)
			unsubscribe := sess.Subscribe(func(ev game.Event) {
				select {
				case events <- ev:
				default:
				}
			})
			defer unsubscribe()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sess.Start(ctx)

			model := playModel{
				sess:   sess,
				events: events,
				view:   sess.View(),
				keys:   defaultPlayKeys,
				help:   help.New(),
			}
			_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			if err := sess.Close(closeCtx); err != nil {
				printError("Could not bank your wallet: " + err.Error())
			}
			if runErr != nil {
				return runErr
			}
			final := sess.View()
			ledger, err := a.Store.ReadLedger(closeCtx)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Closed after %d ticks with %s in funds.", final.Tick, formatMicros(final.Market.FundsMicros)))
			printInfo("Wallet: " + formatCents(ledger.PointsCents))
			return nil
		},
	}
}
