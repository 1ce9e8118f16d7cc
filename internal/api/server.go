package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"monopoly/internal/app"
	"monopoly/internal/duel"
	"monopoly/internal/game"
	"monopoly/internal/roster"
	"monopoly/internal/shop"
	"monopoly/internal/supply"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	app      *app.App
	log      *slog.Logger
	mux      *chi.Mux
	upgrader websocket.Upgrader

	streamReadWait  time.Duration
	streamPingEvery time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*game.Session
	duels    map[string]*duelEntry
}

type duelEntry struct {
	mu   sync.Mutex
	game *duel.Game
}

type Option func(*Server)

// WithStreamTiming overrides how long a stream waits for client traffic and how often it pings.
func WithStreamTiming(readWait, pingEvery time.Duration) Option {
	return func(s *Server) {
		if readWait > 0 {
			s.streamReadWait = readWait
		}
		if pingEvery > 0 {
			s.streamPingEvery = pingEvery
		}
	}
}

func New(a *app.App, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app: a,
		log: logger,
		mux: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		streamReadWait:  streamReadWait,
		streamPingEvery: streamPingEvery,
		baseCtx:         ctx,
		cancel:          cancel,
		sessions:        make(map[string]*game.Session),
		duels:           make(map[string]*duelEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Long-lived; kept out of the request timeout.
	r.Get("/v1/sessions/{id}/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Get("/v1/characters", s.handleCharacters)
		r.Get("/v1/character", s.handleCharacterGet)
		r.Post("/v1/character", s.handleCharacterPick)
		r.Delete("/v1/character", s.handleCharacterClear)
		r.Get("/v1/profile", s.handleProfile)

		r.Get("/v1/shop", s.handleShopList)
		r.Post("/v1/shop/{index}/buy", s.handleShopBuy)

		r.Post("/v1/sessions", s.handleSessionCreate)
		r.Get("/v1/sessions/{id}", s.handleSessionState)
		r.Delete("/v1/sessions/{id}", s.handleSessionClose)
		r.Post("/v1/sessions/{id}/actions/{action}", s.handleSessionAction)
		r.Post("/v1/sessions/{id}/product", s.handleSessionProduct)
		r.Get("/v1/sessions/{id}/advice", s.handleSessionAdvice)

		r.Post("/v1/duels", s.handleDuelCreate)
		r.Get("/v1/duels/{id}", s.handleDuelState)
		r.Post("/v1/duels/{id}/reset", s.handleDuelReset)
		r.Post("/v1/duels/{id}/{player}/{move}", s.handleDuelMove)
	})
}

// Shutdown closes every live session so buffered wallet income is committed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.mu.Lock()
	sessions := make([]*game.Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	var errs []error
	for _, sess := range sessions {
		if err := sess.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	limit := supply.DefaultCharacterLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	chars, err := s.app.Characters.Characters(r.Context(), supply.ClampLimit(limit))
	if err != nil {
		s.log.Warn("character fetch failed", "err", err)
		writeError(w, http.StatusBadGateway, "could not load characters")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": roster.SortByStrength(chars)})
}

func (s *Server) handleCharacterGet(w http.ResponseWriter, r *http.Request) {
	c, ok, err := s.app.Store.ReadCharacter(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeDomainError(w, roster.ErrNoSelection)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCharacterPick(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name    string `json:"name"`
		Confirm string `json:"confirm"`
		Limit   int    `json:"limit"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chars, err := s.app.Characters.Characters(r.Context(), supply.ClampLimit(in.Limit))
	if err != nil {
		s.log.Warn("character fetch failed", "err", err)
		writeError(w, http.StatusBadGateway, "could not load characters")
		return
	}
	chosen, _ := roster.FindByName(chars, in.Name)
	picked, err := roster.ConfirmSelection(chosen, in.Confirm)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.app.Store.WriteCharacter(r.Context(), picked); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, picked)
}

func (s *Server) handleCharacterClear(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Store.ClearCharacter(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.app.Store.ReadLedger(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := map[string]any{
		"points_cents": ledger.PointsCents,
		"purchases":    ledger.Purchases,
		"character":    nil,
	}
	c, ok, err := s.app.Store.ReadCharacter(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ok {
		out["character"] = c
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleShopList(w http.ResponseWriter, r *http.Request) {
	items, points, err := s.app.Shop.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "points_cents": points})
}

func (s *Server) handleShopBuy(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item index")
		return
	}
	ledger, err := s.app.Shop.Buy(r.Context(), index)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Purchased!", "points_cents": ledger.PointsCents, "purchases": ledger.Purchases})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	c, ok, err := s.app.Store.ReadCharacter(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeDomainError(w, roster.ErrNoSelection)
		return
	}
	id := uuid.NewString()
	sess := s.app.NewSession(id, c)
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	sess.Start(s.baseCtx)

	s.log.Info("session started", "session_id", id, "character", c.Name)
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()

	if err := sess.Close(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	ledger, err := s.app.Store.ReadLedger(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"view": sess.View(), "points_cents": ledger.PointsCents})
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := sess.Act(chi.URLParam(r, "action"))
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "view": view})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSessionProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res, err := sess.RefreshProduct(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": res.Product, "fallback": res.Fallback, "view": sess.View()})
}

func (s *Server) handleSessionAdvice(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"line": sess.Advice(r.Context())})
}

func (s *Server) handleDuelCreate(w http.ResponseWriter, _ *http.Request) {
	id := uuid.NewString()
	e := &duelEntry{game: duel.New()}
	s.mu.Lock()
	s.duels[id] = e
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "game": e.game})
}

func (s *Server) duel(w http.ResponseWriter, r *http.Request) (*duelEntry, bool) {
	s.mu.Lock()
	e, ok := s.duels[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "duel not found")
	}
	return e, ok
}

func (s *Server) handleDuelState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.duel(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, e.game)
}

func (s *Server) handleDuelReset(w http.ResponseWriter, r *http.Request) {
	e, ok := s.duel(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.game.Reset()
	writeJSON(w, http.StatusOK, e.game)
}

func (s *Server) handleDuelMove(w http.ResponseWriter, r *http.Request) {
	e, ok := s.duel(w, r)
	if !ok {
		return
	}
	player, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(chi.URLParam(r, "player")), "p"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player")
		return
	}
	move, err := duel.ParseMove(chi.URLParam(r, "move"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.game.Play(player, move); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.game)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrNoRawMaterials),
		errors.Is(err, game.ErrUnknownAction), errors.Is(err, shop.ErrInsufficientPoints),
		errors.Is(err, roster.ErrNameMismatch), errors.Is(err, duel.ErrUnknownMove),
		errors.Is(err, duel.ErrUnknownPlayer):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrUnknownItem), errors.Is(err, roster.ErrNoSelection):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrAlreadyPurchased), errors.Is(err, game.ErrRefreshInFlight),
		errors.Is(err, game.ErrSessionClosed), errors.Is(err, duel.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, supply.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
