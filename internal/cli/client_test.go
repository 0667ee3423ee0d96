package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bankceo/internal/game"
)

func TestClientTurn(t *testing.T) {
	var gotAuth, gotIdem string
	var gotBody game.Decisions
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/games/g1/turns" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(game.TurnResult{State: game.GameState{Turn: 4}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	res, err := c.Turn(context.Background(), "g1", "tok", game.Decisions{Strategy: game.StrategyBalanced}, "idem-1")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.State.Turn != 4 {
		t.Fatalf("unexpected turn %d", res.State.Turn)
	}
	if gotAuth != "Bearer tok" || gotIdem != "idem-1" || gotBody.Strategy != game.StrategyBalanced {
		t.Fatalf("unexpected request: auth=%q idem=%q body=%+v", gotAuth, gotIdem, gotBody)
	}
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/games/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"game not found"}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("down for maintenance"))
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL)

	_, err := c.Game(context.Background(), "missing", "tok")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message != "game not found" {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsTransient(err) {
		t.Fatal("404 is not transient")
	}

	_, err = c.Game(context.Background(), "other", "tok")
	if !IsTransient(err) {
		t.Fatalf("503 should be transient: %v", err)
	}

	srv.Close()
	_, err = c.Game(context.Background(), "other", "tok")
	if !IsTransient(err) {
		t.Fatalf("connection failure should be transient: %v", err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadProfile(dir); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
	want := Profile{BaseURL: "http://localhost:8080", GameID: "g1", Token: "secret"}
	if err := SaveProfile(dir, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadProfile(dir)
	if err != nil || got != want {
		t.Fatalf("load: %+v %v", got, err)
	}
	if err := ClearProfile(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ClearProfile(dir); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestGamePath(t *testing.T) {
	if got := GamePath("a b", "turns"); got != "/v1/games/a%20b/turns" {
		t.Fatalf("unexpected path %q", got)
	}
}
