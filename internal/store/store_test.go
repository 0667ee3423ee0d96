package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bankceo/internal/game"
)

func testSnapshot(t *testing.T) Snapshot {
	t.Helper()
	state, err := game.NewGame(game.SetupOptions{BankName: "Harbor Trust"}, game.DefaultTables())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return Snapshot{
		GameState: state,
		History:   []game.HistoryEntry{{Turn: 0, Cash: state.Cash, NetOutcome: -120}},
		News:      []game.News{{ID: 1, Message: "hello", Type: game.NewsInfo}},
	}
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := st.Load(ctx, "autosave"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	snap := testSnapshot(t)
	if err := st.Save(ctx, "autosave", snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.GameState.Turn = 7
	if err := st.Save(ctx, "slot-1", snap); err != nil {
		t.Fatalf("save slot: %v", err)
	}

	got, err := st.Load(ctx, "autosave")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.GameState.Settings.Branding.BankName != "Harbor Trust" || got.GameState.Turn != 0 {
		t.Fatalf("unexpected state: %+v", got.GameState)
	}
	if len(got.History) != 1 || got.History[0].NetOutcome != -120 {
		t.Fatalf("unexpected history: %+v", got.History)
	}
	if len(got.News) != 1 || got.News[0].Message != "hello" {
		t.Fatalf("unexpected news: %+v", got.News)
	}

	snap.GameState.Turn = 9
	if err := st.Save(ctx, "slot-1", snap); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = st.Load(ctx, "slot-1")
	if err != nil || got.GameState.Turn != 9 {
		t.Fatalf("expected overwritten turn 9, got %d (%v)", got.GameState.Turn, err)
	}

	entries, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "autosave" || entries[1].Key != "slot-1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if err := st.Delete(ctx, "slot-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Delete(ctx, "slot-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := st.Save(ctx, "../escape", snap); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)
}

func TestSQLiteStore(t *testing.T) {
	st, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	cases := map[string]string{
		"garbage":  "{not json",
		"calendar": `{"gameState":{"week":9,"month":1,"channelUsage":{}},"history":[],"news":[]}`,
		"channels": `{"gameState":{"week":1,"month":1},"history":[],"news":[]}`,
	}
	for key, body := range cases {
		if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", key, err)
		}
		if _, err := st.Load(context.Background(), key); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", key, err)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Options{Driver: "", Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	if _, ok := st.(*FileStore); !ok {
		t.Fatalf("expected file store, got %T", st)
	}

	st, err = Open(ctx, Options{Driver: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "x.db")}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", st)
	}

	if _, err := Open(ctx, Options{Driver: "mongo"}, nil); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := Open(ctx, Options{Driver: "postgres"}, nil); err == nil {
		t.Fatal("expected missing DATABASE_URL error")
	}
}

func TestValidateKey(t *testing.T) {
	for _, k := range []string{"autosave", "slot-3", "0b6f1f5e-3c0a-4e7a-9d51-2d8c0f6a1b22"} {
		if err := ValidateKey(k); err != nil {
			t.Fatalf("%q should be valid: %v", k, err)
		}
	}
	for _, k := range []string{"", "-lead", "a/b", "..", "with space"} {
		if err := ValidateKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%q should be invalid", k)
		}
	}
}
