// Package journal records session events as zstd-compressed JSON lines, one file per hour.
// Each entry is flushed as its own zstd block, so a file cut short by a crash still decodes up
// to the last entry written; only a closed or rotated file ends with a complete frame.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"monopoly/internal/game"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const hourLayout = "2006-01-02-15"

type Writer struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir, prefix string) *Writer {
	return &Writer{baseDir: baseDir, prefix: prefix, now: time.Now}
}

func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) PathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

// closeLocked finishes the zstd frame so a rotated file decodes on its own.
func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

type Entry struct {
	Time      time.Time        `json:"time"`
	RunID     string           `json:"run_id"`
	SessionID string           `json:"session_id"`
	Kind      string           `json:"kind"`
	Tick      int64            `json:"tick"`
	Message   string           `json:"message,omitempty"`
	Report    *game.TickReport `json:"report,omitempty"`
	Market    game.MarketView  `json:"market"`
}

// Journal turns session events into entries. Its Observe method is meant for Session.Subscribe.
type Journal struct {
	w     *Writer
	runID string
	log   *slog.Logger
}

func New(dir string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{w: NewWriter(dir, "session"), runID: uuid.NewString(), log: logger}
}

func (j *Journal) RunID() string { return j.runID }

func (j *Journal) Observe(ev game.Event) {
	entry := Entry{
		Time:      j.w.now().UTC(),
		RunID:     j.runID,
		SessionID: ev.View.SessionID,
		Kind:      ev.Kind,
		Tick:      ev.View.Tick,
		Message:   ev.Message,
		Report:    ev.Report,
		Market:    ev.View.Market,
	}
	if err := j.w.Write(entry); err != nil {
		j.log.Warn("journal write failed", "err", err, "kind", ev.Kind)
	}
}

func (j *Journal) Close() error { return j.w.Close() }
