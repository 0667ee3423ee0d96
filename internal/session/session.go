package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bankceo/internal/game"
	"bankceo/internal/notify"
	"bankceo/internal/store"
)

const (
	AutosaveKey = "autosave"

	lossStreak = 3
)

type Deps struct {
	Store    store.Store
	Resolver *game.Resolver
	Notifier notify.Notifier
	Logger   *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Noop{}
	}
	return d
}

// Session owns one running game and persists it after every change.
type Session struct {
	mu   sync.Mutex
	key  string
	snap store.Snapshot
	deps Deps
}

// Create founds a new bank under key, replacing whatever was stored there.
func Create(ctx context.Context, deps Deps, key string, opts game.SetupOptions) (*Session, error) {
	deps = deps.withDefaults()
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}
	state, err := game.NewGame(opts, deps.Resolver.Tables())
	if err != nil {
		return nil, err
	}
	s := &Session{
		key: key,
		snap: store.Snapshot{
			GameState: state,
			History:   []game.HistoryEntry{},
			News:      game.PrependNews(nil, []game.News{game.WelcomeNews(state)}),
		},
		deps: deps,
	}
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	deps.Logger.Info("game created", "key", key, "bank", state.Settings.Branding.BankName, "bank_type", state.BankType, "difficulty", state.Difficulty)
	return s, nil
}

// Open restores the game stored under key. It never writes: a missing
// snapshot is store.ErrNotFound and an unreadable one store.ErrCorrupt, with
// the stored bytes left in place.
func Open(ctx context.Context, deps Deps, key string) (*Session, error) {
	deps = deps.withDefaults()
	snap, err := deps.Store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Session{key: key, snap: snap, deps: deps}, nil
}

// Resume opens the local autosave, replacing an unreadable one with a fresh
// default game.
func Resume(ctx context.Context, deps Deps) (*Session, error) {
	deps = deps.withDefaults()
	sess, err := Open(ctx, deps, AutosaveKey)
	if errors.Is(err, store.ErrCorrupt) {
		deps.Logger.Warn("saved game unreadable, starting fresh", "key", AutosaveKey, "err", err)
		return Create(ctx, deps, AutosaveKey, game.SetupOptions{})
	}
	return sess, err
}

// Restore wraps an already-loaded snapshot without touching the store.
func Restore(deps Deps, key string, snap store.Snapshot) *Session {
	return &Session{key: key, snap: snap, deps: deps.withDefaults()}
}

// Reload re-reads the stored snapshot, picking up turns resolved elsewhere.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.deps.Store.Load(ctx, s.key)
	if err != nil {
		return err
	}
	s.snap = snap
	return nil
}

func (s *Session) Key() string {
	return s.key
}

func (s *Session) State() game.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.GameState.Clone()
}

func (s *Session) Snapshot() store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySnapshot()
}

func (s *Session) copySnapshot() store.Snapshot {
	return store.Snapshot{
		GameState:  s.snap.GameState.Clone(),
		History:    append([]game.HistoryEntry(nil), s.snap.History...),
		News:       append([]game.News(nil), s.snap.News...),
		AccessHash: s.snap.AccessHash,
	}
}

func (s *Session) AccessHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.AccessHash
}

func (s *Session) SetAccessHash(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.AccessHash = hash
	return s.save(ctx)
}

// NextTurn resolves one week and persists the outcome.
func (s *Session) NextTurn(ctx context.Context, d game.Decisions) (game.TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.deps.Resolver.ResolveTurn(s.snap.GameState, d)
	if err != nil {
		return res, err
	}
	news := res.News
	s.snap.GameState = res.State
	if res.History != nil {
		s.snap.History = append(s.snap.History, *res.History)
		if warn, ok := s.lossWarning(); ok {
			news = append(news, warn)
		}
	}
	s.snap.News = game.PrependNews(s.snap.News, news)
	res.News = latest(s.snap.News, len(news))

	if err := s.save(ctx); err != nil {
		return res, err
	}
	s.alert(ctx, news)
	return res, nil
}

func (s *Session) lossWarning() (game.News, bool) {
	h := s.snap.History
	if !s.snap.GameState.Settings.Notifications.SystemAlerts || len(h) < lossStreak {
		return game.News{}, false
	}
	for _, e := range h[len(h)-lossStreak:] {
		if e.NetOutcome >= 0 {
			return game.News{}, false
		}
	}
	return game.News{
		Message: fmt.Sprintf("Warning: %s has posted a loss for %d consecutive weeks.", s.snap.GameState.Settings.Branding.BankName, lossStreak),
		Type:    game.NewsWarning,
	}, true
}

func (s *Session) SetRates(ctx context.Context, loanRate, depositRate *float64) (game.ActionResult, error) {
	loan, deposit := game.MinLoanRate, game.MinDepositRate
	if loanRate != nil {
		loan = *loanRate
	}
	if depositRate != nil {
		deposit = *depositRate
	}
	if err := game.ValidateRates(loan, deposit); err != nil {
		return game.ActionResult{}, err
	}
	return s.apply(ctx, func(st game.GameState) game.ActionResult {
		r := s.deps.Resolver
		out := game.ActionResult{State: st}
		merge := func(res game.ActionResult) {
			out.State = res.State
			out.News = append(out.News, res.News...)
			out.Applied = out.Applied || res.Applied
		}
		if loanRate != nil {
			merge(r.SetLoanRate(out.State, *loanRate))
		}
		if depositRate != nil {
			merge(r.SetDepositRate(out.State, *depositRate))
		}
		return out
	})
}

func (s *Session) SetStrategy(ctx context.Context, strategy game.Strategy) (game.ActionResult, error) {
	return s.apply(ctx, func(st game.GameState) game.ActionResult {
		return s.deps.Resolver.SetStrategy(st, strategy)
	})
}

func (s *Session) LaunchCampaign(ctx context.Context, typ game.CampaignType, budget float64, weeks int) (game.ActionResult, error) {
	return s.apply(ctx, func(st game.GameState) game.ActionResult {
		return s.deps.Resolver.LaunchCampaign(st, typ, budget, weeks)
	})
}

func (s *Session) StopCampaign(ctx context.Context) (game.ActionResult, error) {
	return s.apply(ctx, func(st game.GameState) game.ActionResult {
		return s.deps.Resolver.StopCampaign(st)
	})
}

func (s *Session) StartTechUpgrade(ctx context.Context, typ game.TechUpgradeType) (game.ActionResult, error) {
	return s.apply(ctx, func(st game.GameState) game.ActionResult {
		return s.deps.Resolver.StartTechUpgrade(st, typ)
	})
}

func (s *Session) UpdateSettings(ctx context.Context, settings game.Settings) (game.ActionResult, error) {
	return s.apply(ctx, func(st game.GameState) game.ActionResult {
		return s.deps.Resolver.UpdateSettings(st, settings)
	})
}

func (s *Session) apply(ctx context.Context, fn func(game.GameState) game.ActionResult) (game.ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := fn(s.snap.GameState)
	if len(res.News) == 0 && !res.Applied {
		return res, nil
	}
	s.snap.GameState = res.State
	s.snap.News = game.PrependNews(s.snap.News, res.News)
	res.News = latest(s.snap.News, len(res.News))
	return res, s.save(ctx)
}

// latest returns the n newest feed items, oldest first, as they were posted.
func latest(feed []game.News, n int) []game.News {
	n = min(n, len(feed))
	out := make([]game.News, n)
	for i := range n {
		out[i] = feed[n-1-i]
	}
	return out
}

func (s *Session) Recommend() game.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return game.RecommendRates(s.snap.GameState, s.snap.History)
}

func (s *Session) History() []game.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]game.HistoryEntry(nil), s.snap.History...)
}

func (s *Session) News() []game.News {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]game.News(nil), s.snap.News...)
}

// post adds session-level news and persists it.
func (s *Session) post(ctx context.Context, message string, typ game.NewsType) error {
	s.snap.News = game.PrependNews(s.snap.News, []game.News{{Message: message, Type: typ}})
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	if err := s.deps.Store.Save(ctx, s.key, s.snap); err != nil {
		return fmt.Errorf("save game %s: %w", s.key, err)
	}
	return nil
}

func (s *Session) alert(ctx context.Context, news []game.News) {
	items := notify.Filter(s.snap.GameState.Settings.Notifications, news)
	if len(items) == 0 {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, s.snap.GameState.Settings.Branding.BankName, items); err != nil {
		s.deps.Logger.Warn("alert delivery failed", "key", s.key, "err", err)
	}
}
