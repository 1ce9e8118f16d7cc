package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Fixed logical keys shared by every game that touches the profile.
const (
	LedgerKey    = "am_profile"
	CharacterKey = "am_selectedCharacter"
)

// KV is the durable key-value backend under a Store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Ledger is the cross-session wallet: minor-unit points and shop purchases by catalog index.
type Ledger struct {
	PointsCents int64        `json:"pointsCents"`
	Purchases   map[int]bool `json:"purchases"`
}

type Stats struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Strength is the ranking score used by the character screens.
func (s Stats) Strength() int {
	return s.HP + s.Attack + s.Defense + s.Speed
}

type Character struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Stats  Stats  `json:"stats"`
}

// Store reads and writes the profile records. Ledger writes through one Store are serialized;
// read-modify-write callers must use UpdateLedger.
type Store struct {
	kv  KV
	log *slog.Logger

	ledgerMu sync.Mutex
}

func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, log: logger}
}

func (s *Store) ReadLedger(ctx context.Context) (Ledger, error) {
	raw, ok, err := s.kv.Get(ctx, LedgerKey)
	if err != nil {
		return Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	if !ok || len(raw) == 0 {
		return emptyLedger(), nil
	}
	ledger, clean := decodeLedger(raw)
	if !clean {
		s.log.Warn("corrupt profile ledger, using defaults where needed", "key", LedgerKey)
	}
	return ledger, nil
}

func (s *Store) WriteLedger(ctx context.Context, ledger Ledger) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	return s.writeLedger(ctx, ledger)
}

// UpdateLedger applies fn to the current ledger and persists the result as one step. If fn
// returns an error nothing is written; the ledger as read is returned alongside the error.
func (s *Store) UpdateLedger(ctx context.Context, fn func(*Ledger) error) (Ledger, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	current, err := s.ReadLedger(ctx)
	if err != nil {
		return Ledger{}, err
	}
	next := Ledger{PointsCents: current.PointsCents, Purchases: make(map[int]bool, len(current.Purchases))}
	for idx, bought := range current.Purchases {
		next.Purchases[idx] = bought
	}
	if err := fn(&next); err != nil {
		return current, err
	}
	if err := s.writeLedger(ctx, next); err != nil {
		return Ledger{}, err
	}
	return next, nil
}

func (s *Store) writeLedger(ctx context.Context, ledger Ledger) error {
	safe := Ledger{PointsCents: ledger.PointsCents, Purchases: map[int]bool{}}
	if safe.PointsCents < 0 {
		safe.PointsCents = 0
	}
	for idx, bought := range ledger.Purchases {
		if idx >= 0 {
			safe.Purchases[idx] = bought
		}
	}
	raw, err := json.Marshal(safe)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, LedgerKey, raw); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// ReadCharacter returns the selected character. A corrupt or nameless record is removed and
// reported as absent.
func (s *Store) ReadCharacter(ctx context.Context) (Character, bool, error) {
	raw, ok, err := s.kv.Get(ctx, CharacterKey)
	if err != nil {
		return Character{}, false, fmt.Errorf("read character: %w", err)
	}
	if !ok || len(raw) == 0 {
		return Character{}, false, nil
	}
	var c Character
	if err := json.Unmarshal(raw, &c); err != nil || strings.TrimSpace(c.Name) == "" {
		s.log.Warn("bad selected character in storage, clearing", "key", CharacterKey, "err", err)
		if err := s.kv.Delete(ctx, CharacterKey); err != nil {
			return Character{}, false, fmt.Errorf("clear character: %w", err)
		}
		return Character{}, false, nil
	}
	return c, true, nil
}

func (s *Store) WriteCharacter(ctx context.Context, c Character) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("character name is required")
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, CharacterKey, raw); err != nil {
		return fmt.Errorf("write character: %w", err)
	}
	return nil
}

func (s *Store) ClearCharacter(ctx context.Context) error {
	return s.kv.Delete(ctx, CharacterKey)
}

func emptyLedger() Ledger {
	return Ledger{Purchases: map[int]bool{}}
}

// decodeLedger salvages whatever fields parse. clean is false when anything was discarded.
func decodeLedger(raw []byte) (Ledger, bool) {
	out := emptyLedger()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, false
	}
	clean := true

	if v, ok := fields["pointsCents"]; ok {
		points, ok := numberish(v)
		if !ok || points < 0 {
			clean = false
		} else {
			out.PointsCents = int64(math.Round(points))
		}
	}

	if v, ok := fields["purchases"]; ok {
		var purchases map[string]bool
		if err := json.Unmarshal(v, &purchases); err != nil {
			clean = false
		}
		for key, bought := range purchases {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 {
				clean = false
				continue
			}
			out.Purchases[idx] = bought
		}
	}
	return out, clean
}

func numberish(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
