package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/bank"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/model"
	"github.com/quizdrill/quizdrill-backend/internal/repository"
	"github.com/quizdrill/quizdrill-backend/internal/store"
)

// failingKV wraps a real store and can be switched into a mode where
// every Set fails, to exercise rollback paths.
type failingKV struct {
	inner   store.KV
	failSet bool
}

func (f *failingKV) Get(ctx context.Context, key string) (string, error) {
	return f.inner.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("store unavailable")
	}
	return f.inner.Set(ctx, key, value)
}

func testBank() *bank.Bank {
	return bank.New(testQuestions(), []model.SubjectEntry{
		{Name: "S", Chapters: []model.ChapterEntry{
			{Name: "C1", Count: 2},
			{Name: "C2", Count: 1},
		}},
	})
}

func newTestEngine(t *testing.T, b *bank.Bank, kv store.KV) *SessionService {
	t.Helper()

	log := zerolog.Nop()
	engine := NewSessionService(
		b,
		repository.NewProgressRepository(kv, log),
		repository.NewRecordRepository(kv, log),
		repository.NewWrongbookRepository(kv, log),
		repository.NewPrefRepository(kv, log),
		log,
	)
	if err := engine.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return engine
}

func TestRestoreDefaults(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())

	state := engine.State()
	if state.Subject != "S" || state.Chapter != "C1" {
		t.Fatalf("restored filters = %s/%s, want S/C1", state.Subject, state.Chapter)
	}
	if want := []string{"S/C1/page-1", "S/C1/page-2"}; !reflect.DeepEqual(state.Queue, want) {
		t.Fatalf("restored queue = %v, want %v", state.Queue, want)
	}
	if state.Position != 0 || state.Submitted || state.SelectedOption != "" {
		t.Fatalf("unexpected transient state: %+v", state)
	}
}

func TestSubmitCaseInsensitive(t *testing.T) {
	// The source bank occasionally carries a lowercase answer letter.
	questions := []model.Question{{
		ID: "S/C1/page-1", Subject: "S", Chapter: "C1", Page: 1,
		Question: "q", Options: model.OptionList{{Key: "B", Text: "x"}}, Answer: "b",
	}}
	b := bank.New(questions, []model.SubjectEntry{
		{Name: "S", Chapters: []model.ChapterEntry{{Name: "C1", Count: 1}}},
	})
	engine := newTestEngine(t, b, store.NewMemoryStore())

	result, err := engine.Submit(context.Background(), "B")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Accepted || !result.Correct {
		t.Fatalf("Submit result = %+v, want accepted and correct", result)
	}
	if state := engine.State(); state.Stats.Wrong != 0 {
		t.Fatalf("correct answer landed in wrongbook: %+v", state.Stats)
	}
}

func TestSubmitIdempotent(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	// Current question is S/C1/page-1 with answer B.
	first, err := engine.Submit(ctx, "A")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !first.Accepted || first.Correct {
		t.Fatalf("first Submit = %+v, want accepted and incorrect", first)
	}

	before := engine.State()

	second, err := engine.Submit(ctx, "B")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.Accepted {
		t.Fatalf("resubmission accepted: %+v", second)
	}

	after := engine.State()
	if after.SelectedOption != before.SelectedOption || after.Stats != before.Stats {
		t.Fatalf("resubmission changed state: %+v vs %+v", before, after)
	}
}

func TestSubmitPreconditions(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	if result, _ := engine.Submit(ctx, "   "); result.Accepted {
		t.Fatalf("empty option accepted")
	}

	// No current question once the chapter filters to nothing.
	if err := engine.SetChapter(ctx, "C9"); err != nil {
		t.Fatalf("SetChapter: %v", err)
	}
	if result, _ := engine.Submit(ctx, "A"); result.Accepted {
		t.Fatalf("submit without current question accepted")
	}
}

func TestNavigationBounds(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	if err := engine.Prev(ctx); err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if state := engine.State(); state.Position != 0 {
		t.Fatalf("Prev at 0 moved to %d", state.Position)
	}

	if err := engine.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if state := engine.State(); state.Position != 1 || !state.IsLastQuestion {
		t.Fatalf("after Next: %+v", state)
	}

	if err := engine.Next(ctx); err != nil {
		t.Fatalf("Next at last: %v", err)
	}
	if state := engine.State(); state.Position != 1 {
		t.Fatalf("Next at last moved to %d", state.Position)
	}

	for _, index := range []int{-1, 2, 99} {
		if err := engine.JumpTo(ctx, index); err != nil {
			t.Fatalf("JumpTo(%d): %v", index, err)
		}
		if state := engine.State(); state.Position != 1 {
			t.Fatalf("JumpTo(%d) moved cursor to %d", index, state.Position)
		}
	}
}

func TestNavigationPrefillsAnsweredState(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	if _, err := engine.Submit(ctx, "A"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := engine.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if state := engine.State(); state.Submitted || state.SelectedOption != "" {
		t.Fatalf("fresh question inherited transient state: %+v", state)
	}

	if err := engine.Prev(ctx); err != nil {
		t.Fatalf("Prev: %v", err)
	}
	state := engine.State()
	if !state.Submitted || state.SelectedOption != "A" {
		t.Fatalf("answered question not prefilled: %+v", state)
	}
}

func TestWrongbookLifecycle(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	// Wrong answer on S/C1/page-1.
	if _, err := engine.Submit(ctx, "A"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := engine.SetOnlyWrong(ctx, true); err != nil {
		t.Fatalf("SetOnlyWrong: %v", err)
	}
	if state := engine.State(); !reflect.DeepEqual(state.Queue, []string{"S/C1/page-1"}) {
		t.Fatalf("wrong-only queue = %v", state.Queue)
	}

	if err := engine.Reset(ctx, "S/C1/page-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state := engine.State(); state.Submitted || state.Stats.Wrong != 0 {
		t.Fatalf("reset left state behind: %+v", state)
	}

	// Rebuilding after the reset excludes the question again.
	if err := engine.SetOnlyWrong(ctx, true); err != nil {
		t.Fatalf("SetOnlyWrong: %v", err)
	}
	if state := engine.State(); len(state.Queue) != 0 {
		t.Fatalf("queue after reset = %v, want empty", state.Queue)
	}
}

func TestCursorRememberedPerFilterKey(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	if err := engine.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	// A different order mode is a different progress key, starting at 0.
	if err := engine.SetRandomOrder(ctx, true); err != nil {
		t.Fatalf("SetRandomOrder: %v", err)
	}
	if state := engine.State(); state.Position != 0 {
		t.Fatalf("new filter key position = %d, want 0", state.Position)
	}

	// Switching back restores the remembered position.
	if err := engine.SetRandomOrder(ctx, false); err != nil {
		t.Fatalf("SetRandomOrder: %v", err)
	}
	if state := engine.State(); state.Position != 1 {
		t.Fatalf("restored position = %d, want 1", state.Position)
	}
}

func TestRoundTripAcrossEngines(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	first := newTestEngine(t, testBank(), kv)
	if _, err := first.Submit(ctx, "A"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := first.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := first.State()

	second := newTestEngine(t, testBank(), kv)
	got := second.State()

	if got.Subject != want.Subject || got.Chapter != want.Chapter || got.Position != want.Position {
		t.Fatalf("restored session = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(got.Queue, want.Queue) {
		t.Fatalf("restored queue = %v, want %v", got.Queue, want.Queue)
	}
	if got.Stats != want.Stats {
		t.Fatalf("restored stats = %+v, want %+v", got.Stats, want.Stats)
	}
}

func TestStaleCursorClamped(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	// A remembered position beyond the rebuilt queue must not be trusted.
	if err := kv.Set(ctx, config.StorageKey.Progress(), `{"S__C1__all__seq__":5}`); err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	engine := newTestEngine(t, testBank(), kv)
	if state := engine.State(); state.Position != 0 {
		t.Fatalf("stale cursor position = %d, want 0", state.Position)
	}
}

func TestMalformedStorageFallsBack(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{
		config.StorageKey.Progress(),
		config.StorageKey.Records(),
		config.StorageKey.Wrongbook(),
		config.StorageKey.Prefs(),
	} {
		if err := kv.Set(ctx, key, "{not json"); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	engine := newTestEngine(t, testBank(), kv)
	state := engine.State()
	if state.Subject != "S" || state.Stats.Done != 0 || state.Stats.Wrong != 0 {
		t.Fatalf("malformed storage leaked into state: %+v", state)
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	kv := &failingKV{inner: store.NewMemoryStore()}
	ctx := context.Background()

	engine := newTestEngine(t, testBank(), kv)
	before := engine.State()

	kv.failSet = true

	if _, err := engine.Submit(ctx, "A"); err == nil {
		t.Fatalf("Submit succeeded with failing store")
	}
	if err := engine.Next(ctx); err == nil {
		t.Fatalf("Next succeeded with failing store")
	}
	if err := engine.SetChapter(ctx, "C2"); err == nil {
		t.Fatalf("SetChapter succeeded with failing store")
	}

	after := engine.State()
	if after.Position != before.Position || after.Chapter != before.Chapter ||
		after.Submitted != before.Submitted || after.Stats != before.Stats {
		t.Fatalf("failed persist left partial state: %+v vs %+v", before, after)
	}
}

func TestSubjectSwitchRevalidatesChapter(t *testing.T) {
	questions := append(testQuestions(), model.Question{
		ID: "T/D1/page-1", Subject: "T", Chapter: "D1", Page: 1,
		Question: "q", Options: model.OptionList{{Key: "A", Text: "x"}}, Answer: "A",
	})
	b := bank.New(questions, []model.SubjectEntry{
		{Name: "S", Chapters: []model.ChapterEntry{{Name: "C1", Count: 2}, {Name: "C2", Count: 1}}},
		{Name: "T", Chapters: []model.ChapterEntry{{Name: "D1", Count: 1}}},
	})
	engine := newTestEngine(t, b, store.NewMemoryStore())

	if err := engine.SetSubject(context.Background(), "T"); err != nil {
		t.Fatalf("SetSubject: %v", err)
	}
	state := engine.State()
	if state.Chapter != "D1" {
		t.Fatalf("chapter after subject switch = %q, want D1", state.Chapter)
	}
	if !reflect.DeepEqual(state.Queue, []string{"T/D1/page-1"}) {
		t.Fatalf("queue after subject switch = %v", state.Queue)
	}
}

func TestToggleImageResetsOnNavigation(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	if !engine.ToggleImage() {
		t.Fatalf("ToggleImage did not flip on")
	}
	if err := engine.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if state := engine.State(); state.ShowImage {
		t.Fatalf("navigation kept image visible")
	}
}

func TestStats(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	// Correct answer on the first of two questions.
	if _, err := engine.Submit(ctx, "b"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	stats := engine.State().Stats
	want := SessionStats{Done: 1, Correct: 1, Wrong: 0, ProgressRate: 50, AccuracyRate: 100}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestEmptyQueueState(t *testing.T) {
	engine := newTestEngine(t, testBank(), store.NewMemoryStore())
	ctx := context.Background()

	if err := engine.SetChapter(ctx, "C9"); err != nil {
		t.Fatalf("SetChapter: %v", err)
	}

	state := engine.State()
	if len(state.Queue) != 0 || state.Current != nil {
		t.Fatalf("empty filter produced a queue: %+v", state)
	}
	if !state.IsLastQuestion {
		t.Fatalf("empty queue should report last question by convention")
	}
}
