package syncq

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// Command is a remote write that could not be delivered and waits for `remote sync`.
type Command struct {
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	Body           json.RawMessage `json:"body,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func queuePath(dir string) string {
	return filepath.Join(dir, "queue.json")
}

func Load(dir string) ([]Command, error) {
	raw, err := os.ReadFile(queuePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(dir string, commands []Command) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(queuePath(dir), raw, 0o600)
}

func Push(dir string, cmd Command) error {
	commands, err := Load(dir)
	if err != nil {
		return err
	}
	commands = append(commands, cmd)
	return Save(dir, commands)
}

type DrainResult struct {
	Sent      int
	Dropped   int
	Remaining int
}

// SendFunc delivers one command. retry=true keeps it (and everything after
// it) queued; a non-retryable error drops it.
type SendFunc func(ctx context.Context, cmd Command) (retry bool, err error)

// Drain replays queued commands in order and rewrites the queue with what is left.
func Drain(ctx context.Context, dir string, send SendFunc) (DrainResult, error) {
	commands, err := Load(dir)
	if err != nil {
		return DrainResult{}, err
	}
	var res DrainResult
	i := 0
	for ; i < len(commands); i++ {
		if ctx.Err() != nil {
			break
		}
		retry, err := send(ctx, commands[i])
		if err == nil {
			res.Sent++
			continue
		}
		if retry {
			break
		}
		res.Dropped++
	}
	rest := commands[i:]
	res.Remaining = len(rest)
	if err := Save(dir, rest); err != nil {
		return res, err
	}
	return res, ctx.Err()
}
