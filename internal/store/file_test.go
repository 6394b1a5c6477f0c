package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	s, err := OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "quiz_prefs_v1", `{"keyword":"λ"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh handle over the same file sees the write, proving it hit
	// disk before Set returned.
	reopened, err := OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "quiz_prefs_v1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != `{"keyword":"λ"}` {
		t.Fatalf("Get = %q", got)
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s, err := OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore with corrupt file: %v", err)
	}
	if _, err := s.Get(context.Background(), "anything"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt store Get = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = (%q, %v), want (v, nil)", got, err)
	}
}
