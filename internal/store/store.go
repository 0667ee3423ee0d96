package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bankceo/internal/game"
)

var (
	ErrNotFound   = errors.New("snapshot not found")
	ErrCorrupt    = errors.New("snapshot is corrupt")
	ErrInvalidKey = errors.New("invalid snapshot key")
)

var keyRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Snapshot is the persisted unit: the live state plus the history and news
// that are kept beside it. AccessHash is only set for games created over the API.
type Snapshot struct {
	GameState  game.GameState      `json:"gameState"`
	History    []game.HistoryEntry `json:"history"`
	News       []game.News         `json:"news"`
	AccessHash string              `json:"accessHash,omitempty"`
}

type Entry struct {
	Key       string    `json:"key"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store interface {
	Load(ctx context.Context, key string) (Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

func ValidateKey(key string) error {
	if !keyRE.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func encode(snap Snapshot) ([]byte, error) {
	if snap.History == nil {
		snap.History = []game.HistoryEntry{}
	}
	if snap.News == nil {
		snap.News = []game.News{}
	}
	return json.Marshal(snap)
}

func decode(raw []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	st := snap.GameState
	if st.Week < 1 || st.Week > game.WeeksPerMonth || st.Month < 1 || st.Month > 12 || st.Turn < 0 {
		return Snapshot{}, fmt.Errorf("%w: calendar out of range", ErrCorrupt)
	}
	if st.ChannelUsage == nil {
		return Snapshot{}, fmt.Errorf("%w: missing channel usage", ErrCorrupt)
	}
	return snap, nil
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver      string
	Dir         string
	SQLitePath  string
	DatabaseURL string
}

// Open picks a backend by driver name.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverFile
	}
	var (
		st  Store
		err error
	)
	switch driver {
	case DriverFile:
		st, err = NewFileStore(opts.Dir)
	case DriverSQLite:
		st, err = NewSQLiteStore(ctx, opts.SQLitePath)
	case DriverPostgres:
		st, err = NewPostgresStore(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("snapshot store ready", "driver", driver)
	return st, nil
}
