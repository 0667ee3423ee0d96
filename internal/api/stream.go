package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bankceo/internal/game"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type streamEvent struct {
	Type     string             `json:"type"`
	Snapshot *gameView          `json:"snapshot,omitempty"`
	Turn     *game.TurnResult   `json:"turn,omitempty"`
	Action   *game.ActionResult `json:"action,omitempty"`
}

type streamClient struct {
	conn   *websocket.Conn
	gameID string
	send   chan []byte
}

// hub fans turn events out to every socket watching a game.
type hub struct {
	mu      sync.RWMutex
	clients map[string]map[*streamClient]bool
	log     *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{clients: make(map[string]map[*streamClient]bool), log: logger}
}

func (h *hub) register(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.gameID]; !ok {
		h.clients[c.gameID] = make(map[*streamClient]bool)
	}
	h.clients[c.gameID][c] = true
	h.log.Debug("stream client registered", "game", c.gameID)
}

func (h *hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[c.gameID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.gameID)
	}
	h.log.Debug("stream client unregistered", "game", c.gameID)
}

// closeGame drops every watcher of a deleted game.
func (h *hub) closeGame(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[gameID] {
		close(c.send)
	}
	delete(h.clients, gameID)
}

func (h *hub) count(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}

// broadcast drops the event for clients whose buffer is full.
func (h *hub) broadcast(gameID string, ev streamEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal stream event", "game", gameID, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[gameID] {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("stream client lagging, event dropped", "game", gameID)
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream upgrade failed", "game", sess.Key(), "err", err)
		return
	}

	view := viewOf(sess)
	first, err := json.Marshal(streamEvent{Type: "snapshot", Snapshot: &view})
	if err != nil {
		conn.Close()
		return
	}
	c := &streamClient{conn: conn, gameID: sess.Key(), send: make(chan []byte, streamSendBuffer)}
	c.send <- first
	s.hub.register(c)

	go c.writePump()
	c.readPump(s.hub)
}

// readPump discards client frames and unregisters on disconnect.
func (c *streamClient) readPump(h *hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
