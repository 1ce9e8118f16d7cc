package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"monopoly/internal/game"
	"monopoly/internal/profile"
	"monopoly/internal/shop"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response. View is set when the server rejected a session action.
type APIError struct {
	Status  int
	Message string
	View    *game.View
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) Characters(ctx context.Context, limit int) ([]profile.Character, error) {
	var out struct {
		Characters []profile.Character `json:"characters"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/characters?limit=%d", limit), nil, &out)
	return out.Characters, err
}

func (c *Client) PickCharacter(ctx context.Context, name, confirm string) (profile.Character, error) {
	var out profile.Character
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/character", map[string]any{
		"name":    name,
		"confirm": confirm,
	}, &out)
	return out, err
}

type Profile struct {
	PointsCents int64              `json:"points_cents"`
	Purchases   map[int]bool       `json:"purchases"`
	Character   *profile.Character `json:"character"`
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/profile", nil, &out)
	return out, err
}

type ShopList struct {
	Items       []shop.Listing `json:"items"`
	PointsCents int64          `json:"points_cents"`
}

func (c *Client) Shop(ctx context.Context) (ShopList, error) {
	var out ShopList
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/shop", nil, &out)
	return out, err
}

func (c *Client) Buy(ctx context.Context, index int) (int64, error) {
	var out struct {
		PointsCents int64 `json:"points_cents"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/shop/%d/buy", index), nil, &out)
	return out.PointsCents, err
}

func (c *Client) StartSession(ctx context.Context) (game.View, error) {
	var out game.View
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions", nil, &out)
	return out, err
}

func (c *Client) SessionState(ctx context.Context, id string) (game.View, error) {
	var out game.View
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Act(ctx context.Context, id, action string) (game.View, error) {
	var out game.View
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/actions/"+url.PathEscape(action), nil, &out)
	return out, err
}

func (c *Client) CloseSession(ctx context.Context, id string) (int64, error) {
	var out struct {
		PointsCents int64 `json:"points_cents"`
	}
	err := c.jsonRequest(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(id), nil, &out)
	return out.PointsCents, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error string     `json:"error"`
			View  *game.View `json:"view"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.View = payload.View
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
