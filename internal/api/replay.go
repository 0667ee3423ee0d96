package api

import (
	"context"
	"sync"
)

// replayCache remembers the response body of recent idempotent turn
// requests so a retried or queued command is not resolved twice. A key is
// reserved before the turn runs; concurrent requests with the same key wait
// for the owner and replay its body.
type replayCache struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]*replayEntry
}

type replayEntry struct {
	done chan struct{}
	raw  []byte
}

func newReplayCache(limit int) *replayCache {
	return &replayCache{limit: limit, items: make(map[string]*replayEntry, limit)}
}

func replayKey(gameID, key string) string {
	return gameID + "\x00" + key
}

// begin reserves key for gameID. The first caller becomes the owner and must
// call finish. Later callers block until the owner finishes and get its body;
// if the owner gave up they retry the reservation.
func (c *replayCache) begin(ctx context.Context, gameID, key string) ([]byte, bool, error) {
	k := replayKey(gameID, key)
	for {
		c.mu.Lock()
		e, ok := c.items[k]
		if !ok {
			c.items[k] = &replayEntry{done: make(chan struct{})}
			c.mu.Unlock()
			return nil, true, nil
		}
		c.mu.Unlock()

		select {
		case <-e.done:
			if e.raw != nil {
				return e.raw, false, nil
			}
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// finish completes a reservation. A nil body releases the key so a later
// request may retry the turn.
func (c *replayCache) finish(gameID, key string, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := replayKey(gameID, key)
	e, ok := c.items[k]
	if !ok {
		return
	}
	if raw == nil {
		delete(c.items, k)
		close(e.done)
		return
	}
	e.raw = raw
	close(e.done)
	c.order = append(c.order, k)
	for len(c.order) > c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
}
