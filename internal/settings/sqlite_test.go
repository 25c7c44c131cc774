package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreGetSetClear(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := OpenSQLite(Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, ok, err := store.Get(ctx, KeyAPIKey); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, KeyAPIKey, "sk-first"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, KeyAPIKey, "sk-second"); err != nil {
		t.Fatal(err)
	}
	value, ok, err := store.Get(ctx, KeyAPIKey)
	if err != nil || !ok {
		t.Fatalf("expected present key, got ok=%v err=%v", ok, err)
	}
	if value != "sk-second" {
		t.Errorf("value=%q, want last write %q", value, "sk-second")
	}

	if err := store.Clear(ctx, KeyAPIKey); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx, KeyAPIKey); err != nil {
		t.Fatalf("clearing an absent key should not fail: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyAPIKey); ok {
		t.Fatal("expected key to be cleared")
	}
}

func TestSQLiteStoreDurableAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "custom", "settings.db")
	ctx := context.Background()

	store, err := OpenSQLite(Config{Path: dbPath})
	if err != nil {
		t.Fatalf("failed to open sqlite store with custom path: %v", err)
	}
	if err := Save(ctx, store, Settings{APIKey: "sk-durable", Mode: ModeLocal}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file at %q: %v", dbPath, err)
	}

	reopened, err := OpenSQLite(Config{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := Load(ctx, reopened)
	if err != nil {
		t.Fatal(err)
	}
	if got.APIKey != "sk-durable" || got.Mode != ModeLocal {
		t.Fatalf("reloaded settings = %+v", got)
	}
}
