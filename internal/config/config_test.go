package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bankceo/internal/game"
	"bankceo/internal/store"
)

func TestLoadAPIFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BANKCEO_HOME", home)
	t.Setenv("PORT", "9090")
	t.Setenv("BANKCEO_STORE", "SQLite")
	t.Setenv("BANKCEO_REQUEST_TIMEOUT", "bogus")
	t.Setenv("BANKCEO_SEED", "17")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Addr)
	}
	if cfg.Store.Driver != store.DriverSQLite || cfg.Store.SQLitePath != filepath.Join(home, "bankceo.db") {
		t.Fatalf("unexpected store options: %+v", cfg.Store)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("bad duration should fall back, got %s", cfg.RequestTimeout)
	}
	if cfg.Seed != 17 {
		t.Fatalf("expected seed 17, got %d", cfg.Seed)
	}
}

func TestPostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("BANKCEO_HOME", t.TempDir())
	t.Setenv("BANKCEO_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadWorkerFromEnv(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
	t.Setenv("BANKCEO_STORE", "redis")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("BANKCEO_HOME", t.TempDir())
	t.Setenv("BANKCEO_STORE", "")
	t.Setenv("BANKCEO_WORKER_SCHEDULE", "")
	t.Setenv("BANKCEO_WORKER_RUN_ONCE", "true")
	cfg, err := LoadWorkerFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Schedule != "@every 1m" || !cfg.RunOnce || cfg.Store.Driver != store.DriverFile {
		t.Fatalf("unexpected worker config: %+v", cfg)
	}
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables("")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if tables.Difficulties[game.DifficultyNormal].CashModifier != 1 {
		t.Fatalf("unexpected default difficulty: %+v", tables.Difficulties[game.DifficultyNormal])
	}

	dir := t.TempDir()
	overlay := filepath.Join(dir, "tables.yaml")
	body := `
difficulties:
  SANDBOX:
    cashModifier: 10
    riskModifier: 0.5
    satisfactionModifier: 1.5
channelPreferences:
  Mobile App: 0.5
  Web Portal: 0.2
  ATM Network: 0.2
  In-Branch: 0.1
`
	if err := os.WriteFile(overlay, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tables, err = LoadTables(overlay)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if tables.Difficulties[game.DifficultySandbox].CashModifier != 10 {
		t.Fatalf("overlay not applied: %+v", tables.Difficulties[game.DifficultySandbox])
	}
	if tables.Difficulties[game.DifficultyHardcore].CashModifier != game.DefaultTables().Difficulties[game.DifficultyHardcore].CashModifier {
		t.Fatal("untouched entries should keep defaults")
	}
	if tables.ChannelPreferences[game.ChannelMobileApp] != 0.5 {
		t.Fatalf("channel overlay not applied: %+v", tables.ChannelPreferences)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("difficulties:\n  NORMAL:\n    riskModifier: 1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTables(bad); !errors.Is(err, game.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}

	typo := filepath.Join(dir, "typo.yaml")
	if err := os.WriteFile(typo, []byte("strategys: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTables(typo); err == nil {
		t.Fatal("expected unknown field error")
	}
}
