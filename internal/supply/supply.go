// Package supply holds the HTTP collaborators the game depends on: the character roster, product
// names and NPC advice lines. Every collaborator has an absent variant for offline play.
package supply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"monopoly/internal/profile"
)

// ErrUnavailable is returned by the absent collaborators.
var ErrUnavailable = errors.New("collaborator unavailable")

type CharacterSupply interface {
	Characters(ctx context.Context, limit int) ([]profile.Character, error)
}

type AdviceSupply interface {
	AdviceLine(ctx context.Context) (string, error)
}

type NoNames struct{}

func (NoNames) ProductName(context.Context) (string, error) { return "", ErrUnavailable }

type NoAdvice struct{}

func (NoAdvice) AdviceLine(context.Context) (string, error) { return "", ErrUnavailable }

type NoCharacters struct{}

func (NoCharacters) Characters(context.Context, int) ([]profile.Character, error) {
	return nil, ErrUnavailable
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", rawURL, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", rawURL, err)
	}
	return nil
}
