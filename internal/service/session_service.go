package service

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/bank"
	"github.com/quizdrill/quizdrill-backend/internal/model"
	"github.com/quizdrill/quizdrill-backend/internal/repository"
)

// SessionService is the quiz session engine: it owns the traversal
// queue, the cursor, the answer records and the wrongbook, and persists
// every mutation synchronously through the repositories. Gin serves
// requests concurrently, so a single mutex serializes every operation.
type SessionService struct {
	mu sync.Mutex

	bank          *bank.Bank
	progressRepo  *repository.ProgressRepository
	recordRepo    *repository.RecordRepository
	wrongbookRepo *repository.WrongbookRepository
	prefRepo      *repository.PrefRepository
	log           zerolog.Logger
	rng           *rand.Rand

	subject     string
	chapter     string
	keyword     string
	randomOrder bool
	onlyWrong   bool

	queue []string
	pos   int

	selectedOption string
	submitted      bool
	showImage      bool

	records   map[string]model.AnswerRecord
	wrongbook []string
	progress  map[string]int
}

// NewSessionService creates a SessionService over a loaded bank.
// Call Restore before serving requests.
func NewSessionService(
	b *bank.Bank,
	progressRepo *repository.ProgressRepository,
	recordRepo *repository.RecordRepository,
	wrongbookRepo *repository.WrongbookRepository,
	prefRepo *repository.PrefRepository,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		bank:          b,
		progressRepo:  progressRepo,
		recordRepo:    recordRepo,
		wrongbookRepo: wrongbookRepo,
		prefRepo:      prefRepo,
		log:           log.With().Str("component", "session_service").Logger(),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		records:       make(map[string]model.AnswerRecord),
		progress:      make(map[string]int),
	}
}

// SessionState is the full observable session snapshot handed to the
// caller after every operation. The caller re-renders from it; nothing
// recomputes behind its back.
type SessionState struct {
	Subject     string `json:"subject"`
	Chapter     string `json:"chapter"`
	Keyword     string `json:"keyword"`
	RandomOrder bool   `json:"randomOrder"`
	OnlyWrong   bool   `json:"onlyWrong"`

	Queue    []string        `json:"queue"`
	Position int             `json:"position"`
	Current  *model.Question `json:"current"`

	SelectedOption string `json:"selectedOption"`
	Submitted      bool   `json:"submitted"`
	ShowImage      bool   `json:"showImage"`
	IsLastQuestion bool   `json:"isLastQuestion"`

	Stats SessionStats `json:"stats"`
}

// SessionStats are the progress counters over the current queue.
type SessionStats struct {
	Done         int `json:"done"`
	Correct      int `json:"correct"`
	Wrong        int `json:"wrong"`
	ProgressRate int `json:"progressRate"`
	AccuracyRate int `json:"accuracyRate"`
}

// SubmitResult reports the outcome of an answer submission. Accepted is
// false when the call was a precondition no-op (no current question,
// empty option, or already submitted).
type SubmitResult struct {
	Accepted bool `json:"accepted"`
	Correct  bool `json:"correct"`
}

// Restore loads persisted records, wrongbook, progress and prefs, then
// builds the initial queue. Missing or malformed entries fall back to
// defaults; only a failed persist of the rebuilt state errors.
func (s *SessionService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.recordRepo.Load(ctx)
	s.wrongbook = s.wrongbookRepo.Load(ctx)
	s.progress = s.progressRepo.Load(ctx)

	prefs := s.prefRepo.Load(ctx)
	s.randomOrder = prefs.RandomOrder
	s.onlyWrong = prefs.OnlyWrong
	s.keyword = prefs.Keyword

	s.subject = prefs.SelectedSubject
	if s.subject == "" && len(s.bank.Subjects) > 0 {
		s.subject = s.bank.Subjects[0].Name
	}
	s.chapter = s.validChapterLocked(prefs.SelectedChapter)

	return s.rebuildQueueLocked(ctx)
}

// State returns the current session snapshot.
func (s *SessionService) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// ApplyFilters applies the non-nil fields of req, rebuilding the queue
// after each change exactly like the individual setters would.
func (s *SessionService) ApplyFilters(ctx context.Context, req model.SetFiltersRequest) error {
	if req.Subject != nil {
		if err := s.SetSubject(ctx, *req.Subject); err != nil {
			return err
		}
	}
	if req.Chapter != nil {
		if err := s.SetChapter(ctx, *req.Chapter); err != nil {
			return err
		}
	}
	if req.Keyword != nil {
		if err := s.SetKeyword(ctx, *req.Keyword); err != nil {
			return err
		}
	}
	if req.RandomOrder != nil {
		if err := s.SetRandomOrder(ctx, *req.RandomOrder); err != nil {
			return err
		}
	}
	if req.OnlyWrong != nil {
		if err := s.SetOnlyWrong(ctx, *req.OnlyWrong); err != nil {
			return err
		}
	}
	return nil
}

// SetSubject switches the subject. A chapter that does not exist under
// the new subject falls back to the subject's first chapter.
func (s *SessionService) SetSubject(ctx context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restore := s.snapshotLocked()
	s.subject = subject
	s.chapter = s.validChapterLocked(s.chapter)
	return s.commitRebuildLocked(ctx, restore)
}

func (s *SessionService) SetChapter(ctx context.Context, chapter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restore := s.snapshotLocked()
	s.chapter = chapter
	return s.commitRebuildLocked(ctx, restore)
}

func (s *SessionService) SetKeyword(ctx context.Context, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restore := s.snapshotLocked()
	s.keyword = keyword
	return s.commitRebuildLocked(ctx, restore)
}

func (s *SessionService) SetRandomOrder(ctx context.Context, randomOrder bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restore := s.snapshotLocked()
	s.randomOrder = randomOrder
	return s.commitRebuildLocked(ctx, restore)
}

func (s *SessionService) SetOnlyWrong(ctx context.Context, onlyWrong bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restore := s.snapshotLocked()
	s.onlyWrong = onlyWrong
	return s.commitRebuildLocked(ctx, restore)
}

// Next advances the cursor by one. At the last question it is a silent
// no-op.
func (s *SessionService) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 || s.pos >= len(s.queue)-1 {
		return nil
	}
	return s.moveLocked(ctx, s.pos+1)
}

// Prev retreats the cursor by one. At index 0 it is a silent no-op.
func (s *SessionService) Prev(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 || s.pos <= 0 {
		return nil
	}
	return s.moveLocked(ctx, s.pos-1)
}

// JumpTo moves the cursor to index. Out-of-range indexes are ignored.
func (s *SessionService) JumpTo(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.queue) {
		return nil
	}
	return s.moveLocked(ctx, index)
}

// Submit grades the option against the current question. Preconditions
// (a current question, a non-empty option, no prior submission for this
// viewing) failing make the call a no-op with Accepted=false; it never
// overwrites an existing record. On acceptance the record, wrongbook
// and transient state update and persist before returning.
func (s *SessionService) Submit(ctx context.Context, option string) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.currentQuestionLocked()
	option = strings.TrimSpace(option)
	if q == nil || option == "" || s.submitted {
		return SubmitResult{}, nil
	}

	selected := strings.ToUpper(option)
	correct := selected == strings.ToUpper(q.Answer)

	prevRecord, hadRecord := s.records[q.ID]
	prevWrongbook := s.wrongbook
	prevSelected, prevSubmitted := s.selectedOption, s.submitted

	s.records[q.ID] = model.AnswerRecord{
		Selected:   selected,
		Correct:    correct,
		AnsweredAt: time.Now().UTC(),
	}
	if correct {
		s.wrongbook = removeID(s.wrongbook, q.ID)
	} else if !containsID(s.wrongbook, q.ID) {
		s.wrongbook = append(append([]string(nil), s.wrongbook...), q.ID)
	}
	s.selectedOption = selected
	s.submitted = true

	if err := s.persistAllLocked(ctx); err != nil {
		if hadRecord {
			s.records[q.ID] = prevRecord
		} else {
			delete(s.records, q.ID)
		}
		s.wrongbook = prevWrongbook
		s.selectedOption, s.submitted = prevSelected, prevSubmitted
		return SubmitResult{}, err
	}

	s.log.Debug().
		Str("question_id", q.ID).
		Str("selected", selected).
		Bool("correct", correct).
		Msg("answer recorded")

	return SubmitResult{Accepted: true, Correct: correct}, nil
}

// Reset removes the answer record and wrongbook entry for a question id
// (empty id targets the current question), making it answerable again.
// This is the only path that discards an existing record.
func (s *SessionService) Reset(ctx context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if questionID == "" {
		q := s.currentQuestionLocked()
		if q == nil {
			return nil
		}
		questionID = q.ID
	}

	prevRecord, hadRecord := s.records[questionID]
	prevWrongbook := s.wrongbook
	prevSelected, prevSubmitted := s.selectedOption, s.submitted

	delete(s.records, questionID)
	s.wrongbook = removeID(s.wrongbook, questionID)
	if q := s.currentQuestionLocked(); q != nil && q.ID == questionID {
		s.selectedOption = ""
		s.submitted = false
	}

	if err := s.persistAllLocked(ctx); err != nil {
		if hadRecord {
			s.records[questionID] = prevRecord
		}
		s.wrongbook = prevWrongbook
		s.selectedOption, s.submitted = prevSelected, prevSubmitted
		return err
	}
	return nil
}

// ToggleImage flips the transient image-visible flag and returns the
// new value. Navigation resets it.
func (s *SessionService) ToggleImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showImage = !s.showImage
	return s.showImage
}

// ─── internals (all require s.mu held) ─────────────────────────────────

type sessionSnapshot struct {
	subject, chapter, keyword string
	randomOrder, onlyWrong    bool
	queue                     []string
	pos                       int
	selectedOption            string
	submitted, showImage      bool
	wrongbook                 []string
	progress                  map[string]int
}

func (s *SessionService) snapshotLocked() sessionSnapshot {
	progress := make(map[string]int, len(s.progress))
	for k, v := range s.progress {
		progress[k] = v
	}
	return sessionSnapshot{
		subject:        s.subject,
		chapter:        s.chapter,
		keyword:        s.keyword,
		randomOrder:    s.randomOrder,
		onlyWrong:      s.onlyWrong,
		queue:          s.queue,
		pos:            s.pos,
		selectedOption: s.selectedOption,
		submitted:      s.submitted,
		showImage:      s.showImage,
		wrongbook:      s.wrongbook,
		progress:       progress,
	}
}

func (s *SessionService) restoreLocked(snap sessionSnapshot) {
	s.subject, s.chapter, s.keyword = snap.subject, snap.chapter, snap.keyword
	s.randomOrder, s.onlyWrong = snap.randomOrder, snap.onlyWrong
	s.queue, s.pos = snap.queue, snap.pos
	s.selectedOption, s.submitted, s.showImage = snap.selectedOption, snap.submitted, snap.showImage
	s.wrongbook = snap.wrongbook
	s.progress = snap.progress
}

// commitRebuildLocked rebuilds the queue for the mutated filters and
// rolls the whole mutation back if the persist fails.
func (s *SessionService) commitRebuildLocked(ctx context.Context, restore sessionSnapshot) error {
	if err := s.rebuildQueueLocked(ctx); err != nil {
		s.restoreLocked(restore)
		return err
	}
	return nil
}

// rebuildQueueLocked recomputes the queue, restores the remembered
// cursor for the filter key when it is still in range, re-derives the
// transient question state and persists everything.
func (s *SessionService) rebuildQueueLocked(ctx context.Context) error {
	if s.subject == "" || s.chapter == "" {
		s.queue = nil
		s.pos = 0
		s.syncQuestionStateLocked()
		return nil
	}

	s.queue = buildQueue(s.bank.Questions, s.subject, s.chapter, s.keyword, s.onlyWrong, s.wrongbook, s.randomOrder, s.rng)

	pos, ok := s.progress[s.progressKeyLocked()]
	if !ok || pos < 0 || pos >= len(s.queue) {
		pos = 0
	}
	s.pos = pos

	s.syncQuestionStateLocked()
	return s.persistAllLocked(ctx)
}

// moveLocked sets the cursor to a validated index, re-derives transient
// state and persists the new position under the current filter key.
func (s *SessionService) moveLocked(ctx context.Context, index int) error {
	restore := s.snapshotLocked()

	s.pos = index
	s.syncQuestionStateLocked()
	s.progress[s.progressKeyLocked()] = s.pos

	if err := s.persistAllLocked(ctx); err != nil {
		s.restoreLocked(restore)
		return err
	}
	return nil
}

// syncQuestionStateLocked re-derives selected/submitted from whether a
// record already exists for the current question, and hides the image.
func (s *SessionService) syncQuestionStateLocked() {
	s.showImage = false

	q := s.currentQuestionLocked()
	if q == nil {
		s.selectedOption = ""
		s.submitted = false
		return
	}
	if record, ok := s.records[q.ID]; ok {
		s.selectedOption = record.Selected
		s.submitted = true
	} else {
		s.selectedOption = ""
		s.submitted = false
	}
}

func (s *SessionService) currentQuestionLocked() *model.Question {
	if len(s.queue) == 0 || s.pos < 0 || s.pos >= len(s.queue) {
		return nil
	}
	q, ok := s.bank.Question(s.queue[s.pos])
	if !ok {
		return nil
	}
	return &q
}

// progressKeyLocked builds the composite filter key. Subject and
// chapter names are directory-safe tokens without underscores, so the
// double-underscore delimiter cannot collide. The keyword is always
// trimmed, both here and in queue filtering.
func (s *SessionService) progressKeyLocked() string {
	wrongTag := "all"
	if s.onlyWrong {
		wrongTag = "wrong"
	}
	orderTag := "seq"
	if s.randomOrder {
		orderTag = "rand"
	}
	return strings.Join([]string{s.subject, s.chapter, wrongTag, orderTag, strings.TrimSpace(s.keyword)}, "__")
}

// persistAllLocked writes records, wrongbook, progress and prefs in one
// pass. No batching or debouncing: every mutation is durable before the
// operation returns.
func (s *SessionService) persistAllLocked(ctx context.Context) error {
	if err := s.recordRepo.Save(ctx, s.records); err != nil {
		return err
	}
	if err := s.wrongbookRepo.Save(ctx, s.wrongbook); err != nil {
		return err
	}
	if err := s.progressRepo.Save(ctx, s.progress); err != nil {
		return err
	}
	return s.prefRepo.Save(ctx, model.Prefs{
		RandomOrder:     s.randomOrder,
		OnlyWrong:       s.onlyWrong,
		SelectedSubject: s.subject,
		SelectedChapter: s.chapter,
		Keyword:         s.keyword,
	})
}

// validChapterLocked returns chapter if it exists under the current
// subject, otherwise the subject's first chapter (or empty).
func (s *SessionService) validChapterLocked(chapter string) string {
	chapters := s.bank.ChaptersFor(s.subject)
	for _, c := range chapters {
		if c.Name == chapter {
			return chapter
		}
	}
	if len(chapters) > 0 {
		return chapters[0].Name
	}
	return ""
}

func (s *SessionService) stateLocked() SessionState {
	queue := make([]string, len(s.queue))
	copy(queue, s.queue)

	done, correct := 0, 0
	for _, id := range s.queue {
		record, ok := s.records[id]
		if !ok {
			continue
		}
		done++
		if record.Correct {
			correct++
		}
	}

	stats := SessionStats{Done: done, Correct: correct, Wrong: len(s.wrongbook)}
	if len(s.queue) > 0 {
		stats.ProgressRate = int(math.Round(float64(done) / float64(len(s.queue)) * 100))
	}
	if done > 0 {
		stats.AccuracyRate = int(math.Round(float64(correct) / float64(done) * 100))
	}

	return SessionState{
		Subject:        s.subject,
		Chapter:        s.chapter,
		Keyword:        s.keyword,
		RandomOrder:    s.randomOrder,
		OnlyWrong:      s.onlyWrong,
		Queue:          queue,
		Position:       s.pos,
		Current:        s.currentQuestionLocked(),
		SelectedOption: s.selectedOption,
		Submitted:      s.submitted,
		ShowImage:      s.showImage,
		IsLastQuestion: s.pos >= len(s.queue)-1,
		Stats:          stats,
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
