package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"monopoly/internal/profile"
	"monopoly/internal/supply"
)

const (
	DefaultTickEvery    = 2 * time.Second
	DefaultProductEvery = 30 * time.Second
)

// Advisor produces an NPC line. It never fails; failures are replaced by a fallback line.
type Advisor interface {
	Line(ctx context.Context) string
}

// Options configures a Session. A nil Wallet accrues into an in-memory ledger that is lost
// with the process; a nil Catalog always stocks the fallback product; a nil Advisor always
// gives the fallback advice.
type Options struct {
	ID           string
	Character    profile.Character
	Wallet       *Wallet
	Catalog      *Catalog
	Advisor      Advisor
	Rand         Rand
	TickEvery    time.Duration
	ProductEvery time.Duration
	Logger       *slog.Logger
}

// Session owns one play-through: the market, the player's attributes, the active product and
// the wallet. Every operation runs to completion under mu, so timer callbacks and user actions
// never interleave.
type Session struct {
	id           string
	character    profile.Character
	attrs        Attributes
	wallet       *Wallet
	catalog      *Catalog
	advisor      Advisor
	log          *slog.Logger
	tickEvery    time.Duration
	productEvery time.Duration

	mu         sync.Mutex
	market     Market
	product    Product
	rng        Rand
	tick       int64
	message    string
	milestones MilestoneTracker
	closed     bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	bg     sync.WaitGroup
}

func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	}
	tickEvery := opts.TickEvery
	if tickEvery <= 0 {
		tickEvery = DefaultTickEvery
	}
	productEvery := opts.ProductEvery
	if productEvery <= 0 {
		productEvery = DefaultProductEvery
	}
	wallet := opts.Wallet
	if wallet == nil {
		wallet = NewWallet(profile.NewStore(profile.NewMemoryKV(), logger), RealClock{}, DefaultWalletRates(), logger)
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = NewCatalog(supply.NoNames{}, logger)
	}
	advisor := opts.Advisor
	if advisor == nil {
		advisor = supply.NewAdvisor(supply.NoAdvice{}, logger)
	}
	return &Session{
		id:           opts.ID,
		character:    opts.Character,
		attrs:        AttributesFromStats(opts.Character.Stats),
		wallet:       wallet,
		catalog:      catalog,
		advisor:      advisor,
		log:          logger.With("session_id", opts.ID),
		tickEvery:    tickEvery,
		productEvery: productEvery,
		market:       NewMarket(),
		rng:          rng,
		subs:         make(map[int]func(Event)),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe registers fn for every event published after this call. The returned func removes it.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) Tick(ctx context.Context) (TickReport, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return TickReport{}, ErrSessionClosed
	}
	if _, err := s.wallet.Accrue(ctx, s.market.Factories, s.market.Reputation); err != nil {
		s.log.Warn("wallet accrual failed", "err", err)
	}
	report := s.market.Tick(s.rng, s.attrs, s.product)
	s.tick++
	fired := s.milestones.Observe(s.market)
	if len(fired) > 0 {
		s.message = fired[len(fired)-1]
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: EventTick, Report: &report, View: view})
	s.publishMilestones(fired, view)
	return report, nil
}

func (s *Session) RaisePrice() (View, error) {
	return s.act(ActionPriceUp, func() (string, error) {
		s.market.RaisePrice(s.attrs, s.product)
		return "", nil
	})
}

func (s *Session) LowerPrice() (View, error) {
	return s.act(ActionPriceDown, func() (string, error) {
		s.market.LowerPrice(s.attrs, s.product)
		return "", nil
	})
}

func (s *Session) MakeOne() (View, error) {
	return s.act(ActionMake, func() (string, error) {
		if err := s.market.MakeOne(s.attrs); err != nil {
			return "You need raw materials first.", err
		}
		return "", nil
	})
}

func (s *Session) BuyRawMaterials() (View, error) {
	return s.act(ActionBuyRaw, func() (string, error) {
		if _, err := s.market.BuyRawMaterials(s.attrs, s.product); err != nil {
			return "Not enough funds.", err
		}
		return "", nil
	})
}

func (s *Session) BuyFactory() (View, error) {
	return s.act(ActionBuyFactory, func() (string, error) {
		if _, err := s.market.BuyFactory(s.attrs, s.product); err != nil {
			return "Earn more before buying a factory.", err
		}
		return "", nil
	})
}

// Act dispatches a user action by name.
func (s *Session) Act(action string) (View, error) {
	switch action {
	case ActionPriceUp:
		return s.RaisePrice()
	case ActionPriceDown:
		return s.LowerPrice()
	case ActionMake:
		return s.MakeOne()
	case ActionBuyRaw:
		return s.BuyRawMaterials()
	case ActionBuyFactory:
		return s.BuyFactory()
	default:
		return s.View(), fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (s *Session) act(name string, fn func() (string, error)) (View, error) {
	s.mu.Lock()
	if s.closed {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, ErrSessionClosed
	}
	msg, err := fn()
	if msg != "" {
		s.message = msg
	}
	fired := s.milestones.Observe(s.market)
	if len(fired) > 0 {
		s.message = fired[len(fired)-1]
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: EventAction, Message: name, View: view})
	s.publishMilestones(fired, view)
	return view, err
}

// RefreshProduct swaps the featured product. The supplier is called without holding the
// session lock; demand is recomputed whether or not the fallback was used.
func (s *Session) RefreshProduct(ctx context.Context) (RefreshResult, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return RefreshResult{}, ErrSessionClosed
	}

	res, err := s.catalog.Refresh(ctx)
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return res, ErrSessionClosed
	}
	s.product = res.Product
	s.market.RecomputeDemand(s.attrs, s.product)
	if res.Fallback {
		s.message = "Supplier catalog is down, stocking " + res.Product.Name + " for now."
	} else {
		s.message = "Now featuring: " + res.Product.Name
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: EventProduct, Message: res.Product.Name, View: view})
	return res, nil
}

func (s *Session) Advice(ctx context.Context) string {
	line := s.advisor.Line(ctx)
	s.mu.Lock()
	s.message = line
	s.mu.Unlock()
	return line
}

// Run drives the market tick and the product refresh until ctx is done or the session closes.
func (s *Session) Run(ctx context.Context) error {
	tickTicker := time.NewTicker(s.tickEvery)
	defer tickTicker.Stop()
	productTicker := time.NewTicker(s.productEvery)
	defer productTicker.Stop()

	s.log.Info("session loop started", "tick_every", s.tickEvery.String(), "product_every", s.productEvery.String())
	s.refreshInBackground(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session loop stopped")
			return nil
		case <-tickTicker.C:
			if _, err := s.Tick(ctx); err != nil {
				if errors.Is(err, ErrSessionClosed) {
					return nil
				}
				s.log.Error("tick failed", "err", err)
			}
		case <-productTicker.C:
			s.refreshInBackground(ctx)
		}
	}
}

func (s *Session) refreshInBackground(ctx context.Context) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.RefreshProduct(ctx); err != nil {
			if errors.Is(err, ErrRefreshInFlight) {
				s.log.Debug("product refresh skipped, previous still in flight")
				return
			}
			if !errors.Is(err, ErrSessionClosed) {
				s.log.Warn("product refresh failed", "err", err)
			}
		}
	}()
}

// Start runs the loop in the background. Calling it twice is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := s.Run(ctx); err != nil {
			s.log.Error("session loop exited", "err", err)
		}
	}()
}

// Close stops the timers, discards the market and commits the wallet buffer.
func (s *Session) Close(ctx context.Context) error {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.runMu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	s.bg.Wait()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	view := s.viewLocked()
	s.mu.Unlock()

	err := s.wallet.Flush(ctx)
	if err != nil {
		s.log.Error("wallet flush on close failed", "err", err)
	}
	s.publish(Event{Kind: EventClosed, View: view})
	return err
}

func (s *Session) viewLocked() View {
	return View{
		SessionID: s.id,
		Tick:      s.tick,
		Market:    viewMarket(s.market, s.product),
		Product:   s.product,
		Player: PlayerView{
			Name:       s.character.Name,
			Avatar:     s.character.Avatar,
			Stats:      s.character.Stats,
			Attributes: s.attrs,
		},
		Wallet: WalletView{
			BufferedCents: s.wallet.Buffered(),
			RateCentsSec:  s.wallet.Rate(s.market.Factories, s.market.Reputation),
		},
		Message: s.message,
	}
}

func (s *Session) publishMilestones(fired []string, view View) {
	for _, msg := range fired {
		s.publish(Event{Kind: EventMilestone, Message: msg, View: view})
	}
}

func (s *Session) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
