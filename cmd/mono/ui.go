package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"monopoly/internal/duel"
	"monopoly/internal/game"
	"monopoly/internal/profile"
	"monopoly/internal/shop"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderCharacters(chars []profile.Character) {
	accent.Println("\n== CHARACTERS ==")
	if len(chars) == 0 {
		printInfo("No characters found.")
		return
	}
	fmt.Printf("%-4s %-20s %5s %5s %5s %5s %8s\n", "#", "NAME", "HP", "ATK", "DEF", "SPD", "STRENGTH")
	for i, c := range chars {
		fmt.Printf("%-4d %-20s %5d %5d %5d %5d %8d\n",
			i+1,
			truncate(c.Name, 20),
			c.Stats.HP, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed,
			c.Stats.Strength(),
		)
	}
	fmt.Println()
}

func renderCharacter(c profile.Character) {
	attrs := game.AttributesFromStats(c.Stats)
	accent.Printf("\n== %s ==\n", strings.ToUpper(c.Name))
	fmt.Printf("Stats:       hp %d  atk %d  def %d  spd %d\n", c.Stats.HP, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed)
	fmt.Printf("Production:  +%.0f%% bonus unit chance\n", attrs.ProductionBonus*100)
	fmt.Printf("Demand:      +%.2f\n", attrs.DemandBonus)
	fmt.Printf("Rep shield:  %.0f%%\n", attrs.ReputationShield*100)
	fmt.Printf("Event guard: %.0f%%\n", attrs.EventShield*100)
	if c.Avatar != "" {
		fmt.Printf("Avatar:      %s\n", c.Avatar)
	}
	fmt.Println()
}

func renderShop(items []shop.Listing, pointsCents int64) {
	accent.Println("\n== THE SHOP ==")
	fmt.Printf("Points: %s\n\n", formatCents(pointsCents))
	if len(items) == 0 {
		printInfo("The shelves are empty.")
		return
	}
	fmt.Printf("%-4s %-28s %10s %-18s %s\n", "#", "ITEM", "PRICE", "RATING", "")
	for _, l := range items {
		state := ""
		if l.Purchased {
			state = success.Sprint("owned")
		}
		fmt.Printf("%-4d %-28s %10s %-18s %s\n", l.Index, truncate(l.Item.Title, 28), formatCents(l.PriceCents), l.Stars, state)
	}
	fmt.Println()
}

func renderView(v game.View) {
	m := v.Market
	accent.Printf("\n== %s  tick %d ==\n", strings.ToUpper(v.Player.Name), v.Tick)
	fmt.Printf("Funds %s  Price %s  Inventory %d  Demand %.2f\n", formatMicros(m.FundsMicros), formatMicros(m.PriceMicros), m.Inventory, m.Demand)
	fmt.Printf("Raw %d  Factories %d  Reputation %s\n", m.RawMaterials, m.Factories, colorizeReputation(m.Reputation))
	if v.Product.Name != "" {
		fmt.Printf("Featuring %s (x%.2f demand)\n", v.Product.Name, v.Product.DemandBoost)
	}
	if v.Message != "" {
		printInfo(v.Message)
	}
	fmt.Println()
}

func renderDuel(g *duel.Game) {
	for _, p := range g.Players {
		fmt.Printf("%-3s score %4d  hp %3d  [%s]\n", p.Name, p.Score, p.Health, p.Sprite)
	}
	if g.Over {
		accent.Println("Game Over: " + g.Result)
	}
}

func colorizeReputation(rep int) string {
	s := strconv.Itoa(rep)
	switch {
	case rep >= 80:
		return success.Sprint(s)
	case rep <= 20:
		return danger.Sprint(s)
	default:
		return s
	}
}

func formatMicros(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / game.MicrosPerDollar
	frac := (v % game.MicrosPerDollar) / 10_000
	return fmt.Sprintf("%s$%s.%02d", sign, comma(whole), frac)
}

func formatCents(v int64) string {
	return formatMicros(v * (game.MicrosPerDollar / 100))
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
