// Package duel is the two-player bake-off: players bake for score, smack each other for damage and
// eat their own cookies to heal at the cost of score.
package duel

import (
	"errors"
	"fmt"
)

const (
	BakePoints     = 10
	SmackDamage    = 10
	ConsumeHeal    = 10
	MaxHealth      = 100
	dominationRate = 3
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUnknownMove   = errors.New("unknown move")
)

type Move string

const (
	Bake    Move = "bake"
	Smack   Move = "smack"
	Consume Move = "consume"
)

func ParseMove(s string) (Move, error) {
	switch m := Move(s); m {
	case Bake, Smack, Consume:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMove, s)
}

type Sprite string

const (
	SpriteIdle   Sprite = "idle"
	SpriteBake   Sprite = "bake"
	SpriteAttack Sprite = "attack"
	SpriteHurt   Sprite = "hurt"
	SpriteHeal   Sprite = "heal"
	SpriteWin    Sprite = "win"
	SpriteLose   Sprite = "lose"
)

type Player struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Health int    `json:"health"`
	Sprite Sprite `json:"sprite"`
}

func newPlayer(name string) Player {
	return Player{Name: name, Health: MaxHealth, Sprite: SpriteIdle}
}

func (p *Player) loseHealth(n int) { p.Health = max(0, p.Health-n) }
func (p *Player) gainHealth(n int) { p.Health = min(MaxHealth, p.Health+n) }

// Game is not safe for concurrent use; callers serialize moves.
type Game struct {
	Players [2]Player `json:"players"`
	Over    bool      `json:"over"`
	// Winner is 1 or 2, or 0 for a draw or a game still in progress.
	Winner int    `json:"winner"`
	Result string `json:"result,omitempty"`
}

func New() *Game {
	g := &Game{}
	g.Reset()
	return g
}

func (g *Game) Reset() {
	*g = Game{Players: [2]Player{newPlayer("P1"), newPlayer("P2")}}
}

// Play applies move for player (1 or 2) and settles the game if it ended.
func (g *Game) Play(player int, move Move) error {
	if g.Over {
		return ErrGameOver
	}
	if player != 1 && player != 2 {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, player)
	}
	if _, err := ParseMove(string(move)); err != nil {
		return err
	}
	me, other := &g.Players[player-1], &g.Players[2-player]
	me.Sprite, other.Sprite = SpriteIdle, SpriteIdle

	switch move {
	case Bake:
		me.Score += BakePoints
		me.Sprite = SpriteBake
	case Smack:
		me.Sprite = SpriteAttack
		other.Sprite = SpriteHurt
		other.loseHealth(SmackDamage)
	case Consume:
		me.Sprite = SpriteHeal
		me.gainHealth(ConsumeHeal)
		me.Score -= ConsumeHeal
	}
	g.settle()
	return nil
}

func (g *Game) settle() {
	p1, p2 := &g.Players[0], &g.Players[1]
	switch {
	case p1.Health <= 0 && p2.Health <= 0:
		g.finish(0, "Both players reached 0 health.")
	case p1.Health <= 0:
		g.finish(2, "Player 2 wins (Player 1 HP reached 0).")
	case p2.Health <= 0:
		g.finish(1, "Player 1 wins (Player 2 HP reached 0).")
	case p2.Score > 0 && p1.Score >= p2.Score*dominationRate:
		g.finish(1, "Player 1 wins (>3x score).")
	case p1.Score > 0 && p2.Score >= p1.Score*dominationRate:
		g.finish(2, "Player 2 wins (>3x score).")
	}
}

func (g *Game) finish(winner int, result string) {
	g.Over = true
	g.Winner = winner
	g.Result = result
	if winner == 0 {
		return
	}
	g.Players[winner-1].Sprite = SpriteWin
	g.Players[2-winner].Sprite = SpriteLose
}
