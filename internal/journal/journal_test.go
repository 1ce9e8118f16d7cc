package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"monopoly/internal/game"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestJournalRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, nil)
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	j.w.now = func() time.Time { return now }

	report := game.TickReport{Sold: 3}
	j.Observe(game.Event{Kind: game.EventTick, Report: &report, View: game.View{SessionID: "s", Tick: 1}})
	j.Observe(game.Event{Kind: game.EventAction, Message: game.ActionMake, View: game.View{SessionID: "s", Tick: 1}})
	now = now.Add(2 * time.Minute)
	j.Observe(game.Event{Kind: game.EventTick, View: game.View{SessionID: "s", Tick: 2}})
	require.NoError(t, j.Close())

	first := readEntries(t, j.w.PathForHour("2026-03-01-10"))
	require.Len(t, first, 2)
	assert.Equal(t, game.EventTick, first[0].Kind)
	require.NotNil(t, first[0].Report)
	assert.Equal(t, 3, first[0].Report.Sold)
	assert.Equal(t, j.RunID(), first[0].RunID)
	assert.Equal(t, game.ActionMake, first[1].Message)

	second := readEntries(t, j.w.PathForHour("2026-03-01-11"))
	require.Len(t, second, 1)
	assert.Equal(t, int64(2), second[0].Tick)
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewWriter(dir, "session")
		w.now = func() time.Time { return now }
		require.NoError(t, w.Write(Entry{Kind: "tick", Tick: int64(i)}))
		require.NoError(t, w.Close())
	}
	entries := readEntries(t, NewWriter(dir, "session").PathForHour("2026-03-01-10"))
	assert.Len(t, entries, 2)
}

func TestWriterEntriesDecodableBeforeClose(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "session")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Write(Entry{Kind: "tick", Tick: 1}))
	require.NoError(t, w.Write(Entry{Kind: "tick", Tick: 2}))

	// The frame is still open, as after a crash: decode what is on disk so far.
	raw, err := os.ReadFile(w.PathForHour("2026-03-01-10"))
	require.NoError(t, err)
	dec, err := zstd.NewReader(bytes.NewReader(raw), zstd.WithDecoderConcurrency(1))
	require.NoError(t, err)
	defer dec.Close()

	var ticks []int64
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		ticks = append(ticks, e.Tick)
	}
	assert.Equal(t, []int64{1, 2}, ticks)
}
