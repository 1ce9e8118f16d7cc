package supply

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"monopoly/internal/profile"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPokeAPIBaseURL = "https://pokeapi.co/api/v2"
	DefaultCharacterLimit = 12
	MaxCharacterLimit     = 30
	maxDetailFetches      = 8
)

// ItemIDs are the shop items product names are drawn from.
var ItemIDs = []int{17, 18, 19, 20, 21, 22, 23, 24, 25, 26}

// PokeAPI serves characters and product names. Character lists are cached per limit and each
// character detail per URL for the life of the client.
type PokeAPI struct {
	BaseURL string
	HTTP    *http.Client
	Intn    func(n int) int

	mu      sync.Mutex
	byLimit map[int][]profile.Character
	byURL   map[string]profile.Character
}

func NewPokeAPI(baseURL string) *PokeAPI {
	if baseURL == "" {
		baseURL = DefaultPokeAPIBaseURL
	}
	return &PokeAPI{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    defaultHTTPClient(),
		Intn:    rand.Intn,
		byLimit: make(map[int][]profile.Character),
		byURL:   make(map[string]profile.Character),
	}
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultCharacterLimit
	}
	return min(limit, MaxCharacterLimit)
}

type pokemonList struct {
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

type pokemonDetail struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
}

// Characters lists the first limit characters. Any failed detail fetch fails the whole call.
func (p *PokeAPI) Characters(ctx context.Context, limit int) ([]profile.Character, error) {
	n := ClampLimit(limit)

	p.mu.Lock()
	if cached, ok := p.byLimit[n]; ok {
		p.mu.Unlock()
		return append([]profile.Character(nil), cached...), nil
	}
	p.mu.Unlock()

	var list pokemonList
	if err := getJSON(ctx, p.HTTP, fmt.Sprintf("%s/pokemon?limit=%d", p.BaseURL, n), &list); err != nil {
		return nil, fmt.Errorf("character list: %w", err)
	}

	out := make([]profile.Character, len(list.Results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDetailFetches)
	for i, entry := range list.Results {
		if entry.URL == "" {
			continue
		}
		g.Go(func() error {
			ch, err := p.character(gctx, entry.URL)
			if err != nil {
				return err
			}
			out[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("character details: %w", err)
	}

	chars := out[:0]
	for _, ch := range out {
		if ch.Name != "" {
			chars = append(chars, ch)
		}
	}

	p.mu.Lock()
	p.byLimit[n] = chars
	p.mu.Unlock()
	return append([]profile.Character(nil), chars...), nil
}

func (p *PokeAPI) character(ctx context.Context, url string) (profile.Character, error) {
	p.mu.Lock()
	if ch, ok := p.byURL[url]; ok {
		p.mu.Unlock()
		return ch, nil
	}
	p.mu.Unlock()

	var d pokemonDetail
	if err := getJSON(ctx, p.HTTP, url, &d); err != nil {
		return profile.Character{}, err
	}
	ch := characterFromDetail(d)

	p.mu.Lock()
	p.byURL[url] = ch
	p.mu.Unlock()
	return ch, nil
}

func characterFromDetail(d pokemonDetail) profile.Character {
	stat := func(name string) int {
		for _, s := range d.Stats {
			if s.Stat.Name == name && s.BaseStat > 0 {
				return s.BaseStat
			}
		}
		return 1
	}
	name := d.Name
	if name == "" {
		name = "unknown"
	}
	avatar := d.Sprites.Other.OfficialArtwork.FrontDefault
	if avatar == "" {
		avatar = d.Sprites.FrontDefault
	}
	return profile.Character{
		ID:     d.ID,
		Name:   strings.ReplaceAll(name, "-", " "),
		Avatar: avatar,
		Stats: profile.Stats{
			HP:      stat("hp"),
			Attack:  stat("attack"),
			Defense: stat("defense"),
			Speed:   stat("speed"),
		},
	}
}

// ProductName picks one of ItemIDs at random and returns its display name.
func (p *PokeAPI) ProductName(ctx context.Context) (string, error) {
	id := ItemIDs[p.Intn(len(ItemIDs))]
	var item struct {
		Name string `json:"name"`
	}
	if err := getJSON(ctx, p.HTTP, fmt.Sprintf("%s/item/%d", p.BaseURL, id), &item); err != nil {
		return "", fmt.Errorf("item %d: %w", id, err)
	}
	if strings.TrimSpace(item.Name) == "" {
		return "", fmt.Errorf("item %d: missing name", id)
	}
	return strings.ReplaceAll(item.Name, "-", " "), nil
}
