package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bankceo/internal/config"
	"bankceo/internal/game"
	"bankceo/internal/session"
	"bankceo/internal/store"
)

type contextKey string

const sessionContextKey contextKey = "session"

var errUnauthorized = errors.New("unauthorized")

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	deps session.Deps
	mux  *chi.Mux
	hub  *hub
	idem *replayCache

	mu    sync.Mutex
	games map[string]*session.Session
}

func New(cfg config.APIConfig, logger *slog.Logger, deps session.Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		cfg:   cfg,
		log:   logger,
		deps:  deps,
		mux:   chi.NewRouter(),
		hub:   newHub(logger),
		idem:  newReplayCache(256),
		games: make(map[string]*session.Session),
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

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1/games", func(r chi.Router) {
		r.With(middleware.Timeout(s.cfg.RequestTimeout)).Post("/", s.handleCreateGame)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.gameMiddleware)
			r.Get("/stream", s.handleStream)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(s.cfg.RequestTimeout))
				r.Get("/", s.handleGetGame)
				r.Delete("/", s.handleDeleteGame)
				r.Post("/turns", s.handleTurn)
				r.Post("/rates", s.handleRates)
				r.Post("/strategy", s.handleStrategy)
				r.Post("/campaign", s.handleLaunchCampaign)
				r.Delete("/campaign", s.handleStopCampaign)
				r.Post("/tech", s.handleTech)
				r.Put("/settings", s.handleSettings)
				r.Get("/recommendation", s.handleRecommendation)
			})
		})
	})
}

// gameMiddleware resolves {id} to a live session and checks its access token.
func (s *Server) gameMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			token = strings.TrimSpace(r.URL.Query().Get("token"))
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		hash := sess.AccessHash()
		if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
			writeDomainError(w, fmt.Errorf("%w: invalid game token", errUnauthorized))
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (*session.Session, error) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok || sess == nil {
		return nil, errors.New("missing game context")
	}
	return sess, nil
}

// lookup returns the registered session for id, refreshed from the store so
// turns resolved by the worker are visible.
func (s *Server) lookup(ctx context.Context, id string) (*session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	s.mu.Lock()
	sess, ok := s.games[id]
	s.mu.Unlock()
	if ok {
		if err := sess.Reload(ctx); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.forget(id)
			}
			return nil, err
		}
		return sess, nil
	}

	sess, err := session.Open(ctx, s.deps, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.games[id]; ok {
		return existing, nil
	}
	s.games[id] = sess
	return sess, nil
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	delete(s.games, id)
	s.mu.Unlock()
}

type gameView struct {
	ID        string              `json:"id"`
	GameState game.GameState      `json:"gameState"`
	History   []game.HistoryEntry `json:"history"`
	News      []game.News         `json:"news"`
}

func viewOf(sess *session.Session) gameView {
	snap := sess.Snapshot()
	return gameView{ID: sess.Key(), GameState: snap.GameState, History: snap.History, News: snap.News}
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in game.SetupOptions
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := uuid.NewString()
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess, err := session.Create(r.Context(), s.deps, id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := sess.SetAccessHash(r.Context(), string(hash)); err != nil {
		writeDomainError(w, err)
		return
	}
	s.mu.Lock()
	s.games[id] = sess
	s.mu.Unlock()

	s.log.Info("game created over api", "id", id, "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       id,
		"token":    token,
		"snapshot": viewOf(sess),
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := sess.Delete(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	s.forget(sess.Key())
	s.hub.closeGame(sess.Key())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	idem := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	var raw []byte
	if idem != "" {
		cached, owner, err := s.idem.begin(r.Context(), sess.Key(), idem)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if !owner {
			w.Header().Set("Idempotent-Replay", "true")
			writeRaw(w, http.StatusOK, cached)
			return
		}
		defer func() { s.idem.finish(sess.Key(), idem, raw) }()
	}

	var in game.Decisions
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err = in.Normalize(sess.State())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := sess.NextTurn(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	raw = body
	s.hub.broadcast(sess.Key(), streamEvent{Type: "turn", Turn: &result})
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LoanRate    *float64 `json:"loanRate"`
		DepositRate *float64 `json:"depositRate"`
	}
	s.action(w, r, &in, func(ctx context.Context, sess *session.Session) (game.ActionResult, error) {
		if in.LoanRate == nil && in.DepositRate == nil {
			return game.ActionResult{}, fmt.Errorf("%w: loanRate or depositRate is required", game.ErrInvalidInput)
		}
		return sess.SetRates(ctx, in.LoanRate, in.DepositRate)
	})
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Strategy string `json:"strategy"`
	}
	s.action(w, r, &in, func(ctx context.Context, sess *session.Session) (game.ActionResult, error) {
		strategy, err := game.ParseStrategy(in.Strategy)
		if err != nil {
			return game.ActionResult{}, err
		}
		return sess.SetStrategy(ctx, strategy)
	})
}

func (s *Server) handleLaunchCampaign(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type     string  `json:"type"`
		Budget   float64 `json:"budget"`
		Duration int     `json:"duration"`
	}
	s.action(w, r, &in, func(ctx context.Context, sess *session.Session) (game.ActionResult, error) {
		typ, err := game.ParseCampaign(in.Type)
		if err != nil {
			return game.ActionResult{}, err
		}
		return sess.LaunchCampaign(ctx, typ, in.Budget, in.Duration)
	})
}

func (s *Server) handleStopCampaign(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, nil, func(ctx context.Context, sess *session.Session) (game.ActionResult, error) {
		return sess.StopCampaign(ctx)
	})
}

func (s *Server) handleTech(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Upgrade string `json:"upgrade"`
	}
	s.action(w, r, &in, func(ctx context.Context, sess *session.Session) (game.ActionResult, error) {
		typ, err := game.ParseTechUpgrade(in.Upgrade)
		if err != nil {
			return game.ActionResult{}, err
		}
		return sess.StartTechUpgrade(ctx, typ)
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var in game.Settings
	s.action(w, r, &in, func(ctx context.Context, sess *session.Session) (game.ActionResult, error) {
		return sess.UpdateSettings(ctx, in)
	})
}

// action decodes the optional body into in and runs one player action.
func (s *Server) action(w http.ResponseWriter, r *http.Request, in any, run func(context.Context, *session.Session) (game.ActionResult, error)) {
	sess, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if in != nil {
		if err := decodeJSON(r, in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	result, err := run(r.Context(), sess)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.Applied {
		s.hub.broadcast(sess.Key(), streamEvent{Type: "action", Action: &result})
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Recommend())
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameOver):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidInput), errors.Is(err, store.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, errUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrCorrupt):
		writeError(w, http.StatusInternalServerError, "saved game is unreadable")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
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

func writeRaw(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
