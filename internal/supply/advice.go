package supply

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultAdviceURL = "https://api.adviceslip.com/advice"
	AdviceInterval   = 2500 * time.Millisecond
	FallbackAdvice   = "The market is quiet today. Keep building."
)

// AdviceSlip fetches one advice line per call. The endpoint caches responses for a couple of
// seconds, so every request carries a cache-busting query parameter.
type AdviceSlip struct {
	URL  string
	HTTP *http.Client
	Now  func() time.Time
}

func NewAdviceSlip(url string) *AdviceSlip {
	if url == "" {
		url = DefaultAdviceURL
	}
	return &AdviceSlip{URL: url, HTTP: defaultHTTPClient(), Now: time.Now}
}

func (a *AdviceSlip) AdviceLine(ctx context.Context) (string, error) {
	sep := "?"
	if strings.Contains(a.URL, "?") {
		sep = "&"
	}
	u := a.URL + sep + "t=" + strconv.FormatInt(a.Now().UnixMilli(), 10)

	var body struct {
		Slip struct {
			Advice string `json:"advice"`
		} `json:"slip"`
	}
	if err := getJSON(ctx, a.HTTP, u, &body); err != nil {
		return "", err
	}
	if strings.TrimSpace(body.Slip.Advice) == "" {
		return "", fmt.Errorf("advice: unexpected response shape")
	}
	return body.Slip.Advice, nil
}

// Advisor rate-limits an AdviceSupply to one upstream call per interval. Calls inside the window
// get the previous line back; failures become FallbackAdvice.
type Advisor struct {
	supply   AdviceSupply
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
	lastLine string
}

func NewAdvisor(supply AdviceSupply, logger *slog.Logger) *Advisor {
	if supply == nil {
		supply = NoAdvice{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{supply: supply, interval: AdviceInterval, now: time.Now, log: logger}
}

func (a *Advisor) Line(ctx context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if !a.lastCall.IsZero() && now.Sub(a.lastCall) < a.interval {
		if a.lastLine == "" {
			return FallbackAdvice
		}
		return a.lastLine
	}
	a.lastCall = now

	line, err := a.supply.AdviceLine(ctx)
	if err != nil {
		a.log.Warn("advice unavailable, using fallback", "err", err)
		line = FallbackAdvice
	}
	a.lastLine = line
	return line
}
