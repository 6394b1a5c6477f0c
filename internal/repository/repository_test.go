package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/model"
	"github.com/quizdrill/quizdrill-backend/internal/store"
)

func TestProgressRoundTrip(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewProgressRepository(kv, zerolog.Nop())
	ctx := context.Background()

	want := map[string]int{"S__C1__all__seq__": 3, "S__C1__wrong__rand__λ": 0}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := repo.Load(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("Load = %v, want %v", got, want)
	}
}

func TestProgressDefaults(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewProgressRepository(kv, zerolog.Nop())
	ctx := context.Background()

	if got := repo.Load(ctx); len(got) != 0 {
		t.Fatalf("missing key Load = %v, want empty", got)
	}

	if err := kv.Set(ctx, config.StorageKey.Progress(), "不是 JSON"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := repo.Load(ctx); len(got) != 0 {
		t.Fatalf("malformed Load = %v, want empty", got)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewRecordRepository(kv, zerolog.Nop())
	ctx := context.Background()

	answeredAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	want := map[string]model.AnswerRecord{
		"S/C1/page-1": {Selected: "A", Correct: false, AnsweredAt: answeredAt},
		"S/C1/page-2": {Selected: "B", Correct: true, AnsweredAt: answeredAt},
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := repo.Load(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("Load = %v, want %v", got, want)
	}
}

func TestRecordMalformedDiscarded(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewRecordRepository(kv, zerolog.Nop())
	ctx := context.Background()

	if err := kv.Set(ctx, config.StorageKey.Records(), `[1,2,3]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := repo.Load(ctx); len(got) != 0 {
		t.Fatalf("malformed Load = %v, want empty", got)
	}
}

func TestWrongbookRoundTrip(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewWrongbookRepository(kv, zerolog.Nop())
	ctx := context.Background()

	want := []string{"S/C1/page-2", "S/C1/page-1"}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := repo.Load(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("Load = %v, want %v (order preserved)", got, want)
	}
}

func TestWrongbookSaveNil(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewWrongbookRepository(kv, zerolog.Nop())
	ctx := context.Background()

	if err := repo.Save(ctx, nil); err != nil {
		t.Fatalf("Save nil: %v", err)
	}
	raw, err := kv.Get(ctx, config.StorageKey.Wrongbook())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("nil wrongbook stored as %q, want []", raw)
	}
}

func TestPrefRoundTrip(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewPrefRepository(kv, zerolog.Nop())
	ctx := context.Background()

	want := model.Prefs{
		RandomOrder:     true,
		OnlyWrong:       true,
		SelectedSubject: "高数",
		SelectedChapter: "第3章",
		Keyword:         " λ ",
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := repo.Load(ctx); got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestPrefDefaults(t *testing.T) {
	kv := store.NewMemoryStore()
	repo := NewPrefRepository(kv, zerolog.Nop())
	ctx := context.Background()

	if got := repo.Load(ctx); got != (model.Prefs{}) {
		t.Fatalf("missing key Load = %+v, want zero prefs", got)
	}
}
