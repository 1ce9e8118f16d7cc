package supply

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPokeServer(t *testing.T, failDetail string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch {
		case r.URL.Path == "/pokemon":
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			fmt.Fprintf(w, `{"results":[{"name":"mr-mime","url":"%[1]s/pokemon/122/"},{"name":"ditto","url":"%[1]s/pokemon/132/"}]}`, srv.URL)
		case r.URL.Path == "/pokemon/122/":
			if failDetail == "122" {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"id":122,"name":"mr-mime","sprites":{"front_default":"front.png","other":{"official-artwork":{"front_default":"art.png"}}},
				"stats":[{"base_stat":40,"stat":{"name":"hp"}},{"base_stat":45,"stat":{"name":"attack"}},{"base_stat":65,"stat":{"name":"defense"}},{"base_stat":90,"stat":{"name":"speed"}}]}`)
		case r.URL.Path == "/pokemon/132/":
			fmt.Fprint(w, `{"id":132,"name":"ditto","sprites":{"front_default":"ditto.png"},"stats":[{"base_stat":48,"stat":{"name":"hp"}}]}`)
		case strings.HasPrefix(r.URL.Path, "/item/"):
			fmt.Fprint(w, `{"name":"super-potion"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCharacters(t *testing.T) {
	srv, calls := newPokeServer(t, "")
	api := NewPokeAPI(srv.URL)

	chars, err := api.Characters(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, chars, 2)

	assert.Equal(t, "mr mime", chars[0].Name)
	assert.Equal(t, "art.png", chars[0].Avatar)
	assert.Equal(t, 90, chars[0].Stats.Speed)

	assert.Equal(t, "ditto", chars[1].Name)
	assert.Equal(t, "ditto.png", chars[1].Avatar)
	assert.Equal(t, 48, chars[1].Stats.HP)
	assert.Equal(t, 1, chars[1].Stats.Attack)

	before := calls.Load()
	_, err = api.Characters(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, before, calls.Load())
}

func TestCharactersFailsWhole(t *testing.T) {
	srv, _ := newPokeServer(t, "122")
	chars, err := NewPokeAPI(srv.URL).Characters(context.Background(), 2)
	assert.Error(t, err)
	assert.Nil(t, chars)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 12, ClampLimit(0))
	assert.Equal(t, 12, ClampLimit(-4))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 30, ClampLimit(500))
}

func TestProductName(t *testing.T) {
	srv, _ := newPokeServer(t, "")
	api := NewPokeAPI(srv.URL)
	api.Intn = func(int) int { return 3 }

	name, err := api.ProductName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "super potion", name)
}

func TestAdviceSlip(t *testing.T) {
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query().Get("t")
		fmt.Fprint(w, `{"slip":{"id":1,"advice":"Don't spend what you haven't earned."}}`)
	}))
	defer srv.Close()

	slip := NewAdviceSlip(srv.URL)
	slip.Now = func() time.Time { return time.UnixMilli(1700000000123) }
	line, err := slip.AdviceLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Don't spend what you haven't earned.", line)
	assert.Equal(t, "1700000000123", <-queries)
}

func TestAdviceSlipBadShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"type":"notice"}}`)
	}))
	defer srv.Close()
	_, err := NewAdviceSlip(srv.URL).AdviceLine(context.Background())
	assert.Error(t, err)
}

type countingAdvice struct {
	calls int
	lines []string
	err   error
}

func (c *countingAdvice) AdviceLine(context.Context) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.lines[(c.calls-1)%len(c.lines)], nil
}

func TestAdvisorRateLimit(t *testing.T) {
	src := &countingAdvice{lines: []string{"first", "second"}}
	a := NewAdvisor(src, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Equal(t, "first", a.Line(ctx))
	now = now.Add(time.Second)
	assert.Equal(t, "first", a.Line(ctx))
	now = now.Add(time.Second)
	assert.Equal(t, "first", a.Line(ctx))
	assert.Equal(t, 1, src.calls)

	now = now.Add(600 * time.Millisecond)
	assert.Equal(t, "second", a.Line(ctx))
	assert.Equal(t, 2, src.calls)
}

func TestAdvisorFallback(t *testing.T) {
	src := &countingAdvice{err: errors.New("timeout")}
	a := NewAdvisor(src, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	assert.Equal(t, FallbackAdvice, a.Line(context.Background()))
	assert.Equal(t, FallbackAdvice, a.Line(context.Background()))
	assert.Equal(t, 1, src.calls)

	assert.Equal(t, FallbackAdvice, NewAdvisor(nil, nil).Line(context.Background()))
}

func TestAbsentVariants(t *testing.T) {
	_, err := NoNames{}.ProductName(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = NoAdvice{}.AdviceLine(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = NoCharacters{}.Characters(context.Background(), 3)
	assert.ErrorIs(t, err, ErrUnavailable)
}
