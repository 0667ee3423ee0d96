package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bankceo/internal/game"
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

// APIError is a non-2xx answer from the game server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsTransient reports whether a failed request is worth queueing for a
// later retry: the server was unreachable or failed on its side.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

type GameView struct {
	ID        string              `json:"id"`
	GameState game.GameState      `json:"gameState"`
	History   []game.HistoryEntry `json:"history"`
	News      []game.News         `json:"news"`
}

type CreatedGame struct {
	ID       string   `json:"id"`
	Token    string   `json:"token"`
	Snapshot GameView `json:"snapshot"`
}

func GamePath(id string, parts ...string) string {
	p := "/v1/games/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) CreateGame(ctx context.Context, opts game.SetupOptions) (CreatedGame, error) {
	var out CreatedGame
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games", "", opts, &out, "")
	return out, err
}

func (c *Client) Game(ctx context.Context, id, token string) (GameView, error) {
	var out GameView
	err := c.jsonRequest(ctx, http.MethodGet, GamePath(id), token, nil, &out, "")
	return out, err
}

func (c *Client) Turn(ctx context.Context, id, token string, d game.Decisions, idem string) (game.TurnResult, error) {
	var out game.TurnResult
	err := c.jsonRequest(ctx, http.MethodPost, GamePath(id, "turns"), token, d, &out, idem)
	return out, err
}

func (c *Client) Recommendation(ctx context.Context, id, token string) (game.Recommendation, error) {
	var out game.Recommendation
	err := c.jsonRequest(ctx, http.MethodGet, GamePath(id, "recommendation"), token, nil, &out, "")
	return out, err
}

func (c *Client) DeleteGame(ctx context.Context, id, token string) error {
	return c.jsonRequest(ctx, http.MethodDelete, GamePath(id), token, nil, nil, "")
}

// Do sends a raw JSON body; used to replay queued commands.
func (c *Client) Do(ctx context.Context, method, path, token string, body json.RawMessage, idem string) error {
	var in any
	if len(body) > 0 {
		in = body
	}
	return c.jsonRequest(ctx, method, path, token, in, nil, idem)
}

func (c *Client) jsonRequest(ctx context.Context, method, path, accessToken string, in any, out any, idem string) error {
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
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
