package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bankceo/internal/game"
	"bankceo/internal/store"
)

type APIConfig struct {
	Addr             string
	Store            store.Options
	TablesPath       string
	Seed             int64
	RequestTimeout   time.Duration
	DiscordToken     string
	DiscordChannelID string
}

type WorkerConfig struct {
	Store            store.Options
	TablesPath       string
	Seed             int64
	Schedule         string
	RunOnce          bool
	DiscordToken     string
	DiscordChannelID string
}

type CLIConfig struct {
	DataDir    string
	APIBaseURL string
	Store      store.Options
	TablesPath string
	Seed       int64
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("BANKCEO_API_ADDR", ":8080")
	}

	storeOpts, err := loadStoreOptions()
	if err != nil {
		return APIConfig{}, err
	}
	cfg := APIConfig{
		Addr:             addr,
		Store:            storeOpts,
		TablesPath:       strings.TrimSpace(os.Getenv("BANKCEO_TABLES")),
		Seed:             envInt64Default("BANKCEO_SEED", 0),
		RequestTimeout:   envDurationDefault("BANKCEO_REQUEST_TIMEOUT", 60*time.Second),
		DiscordToken:     strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		DiscordChannelID: strings.TrimSpace(os.Getenv("DISCORD_CHANNEL_ID")),
	}
	if err := validateStore(cfg.Store); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	storeOpts, err := loadStoreOptions()
	if err != nil {
		return WorkerConfig{}, err
	}
	cfg := WorkerConfig{
		Store:            storeOpts,
		TablesPath:       strings.TrimSpace(os.Getenv("BANKCEO_TABLES")),
		Seed:             envInt64Default("BANKCEO_SEED", 0),
		Schedule:         envDefault("BANKCEO_WORKER_SCHEDULE", "@every 1m"),
		RunOnce:          envBoolDefault("BANKCEO_WORKER_RUN_ONCE", false),
		DiscordToken:     strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		DiscordChannelID: strings.TrimSpace(os.Getenv("DISCORD_CHANNEL_ID")),
	}
	if err := validateStore(cfg.Store); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	dataDir, err := DataDir()
	if err != nil {
		return CLIConfig{}, err
	}
	storeOpts, err := loadStoreOptions()
	if err != nil {
		return CLIConfig{}, err
	}
	return CLIConfig{
		DataDir:    dataDir,
		APIBaseURL: strings.TrimRight(envDefault("BANKCEO_API_BASE_URL", "http://localhost:8080"), "/"),
		Store:      storeOpts,
		TablesPath: strings.TrimSpace(os.Getenv("BANKCEO_TABLES")),
		Seed:       envInt64Default("BANKCEO_SEED", 0),
	}, nil
}

// DataDir is BANKCEO_HOME or ~/.bankceo, created on first use.
func DataDir() (string, error) {
	dir := strings.TrimSpace(os.Getenv("BANKCEO_HOME"))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".bankceo")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func loadStoreOptions() (store.Options, error) {
	dataDir, err := DataDir()
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{
		Driver:      strings.ToLower(envDefault("BANKCEO_STORE", store.DriverFile)),
		Dir:         envDefault("BANKCEO_SAVE_DIR", filepath.Join(dataDir, "saves")),
		SQLitePath:  envDefault("BANKCEO_SQLITE_PATH", filepath.Join(dataDir, "bankceo.db")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}, nil
}

func validateStore(opts store.Options) error {
	switch opts.Driver {
	case store.DriverFile, store.DriverSQLite:
		return nil
	case store.DriverPostgres:
		if opts.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		return nil
	default:
		return fmt.Errorf("BANKCEO_STORE must be file, sqlite or postgres, got %q", opts.Driver)
	}
}

// LoadTables returns the built-in modifier tables with the entries of an
// optional YAML file laid over them. Entries named in the file replace the
// built-in entry whole.
func LoadTables(path string) (game.Tables, error) {
	tables := game.DefaultTables()
	if strings.TrimSpace(path) == "" {
		return tables, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("read tables: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&tables); err != nil && !errors.Is(err, io.EOF) {
		return tables, fmt.Errorf("parse tables %s: %w", path, err)
	}
	if err := tables.Validate(); err != nil {
		return tables, fmt.Errorf("tables %s: %w", path, err)
	}
	return tables, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
