// Package bank loads the two offline-built documents (question bank +
// chapter index) into the immutable in-memory form the session engine
// traverses.
package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/model"
)

// ErrLoad marks a failed bank load: an unreachable source or a document
// that is not valid JSON. The engine stays unusable until the caller
// retries the load.
var ErrLoad = errors.New("bank: load failed")

// Bank is the loaded question bank plus its subject/chapter index.
// It is built once at startup and never mutated afterwards.
type Bank struct {
	Questions []model.Question
	Subjects  []model.SubjectEntry

	byID map[string]model.Question
}

// New builds a Bank from already-loaded documents.
func New(questions []model.Question, subjects []model.SubjectEntry) *Bank {
	b := &Bank{
		Questions: questions,
		Subjects:  subjects,
		byID:      make(map[string]model.Question, len(questions)),
	}
	for _, q := range questions {
		b.byID[q.ID] = q
	}
	return b
}

// Question looks up a question by id.
func (b *Bank) Question(id string) (model.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// ChaptersFor returns the ordered chapter entries of a subject, or nil
// if the subject is unknown.
func (b *Bank) ChaptersFor(subject string) []model.ChapterEntry {
	for _, s := range b.Subjects {
		if s.Name == subject {
			return s.Chapters
		}
	}
	return nil
}

// Loader fetches and validates the bank documents. Sources can be
// http(s) URLs or local file paths.
type Loader struct {
	client *http.Client
	log    zerolog.Logger
}

// NewLoader creates a Loader with a bounded fetch timeout.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("component", "bank_loader").Logger(),
	}
}

// Load fetches both documents concurrently and awaits both before the
// bank becomes usable. Either failure aborts the whole load; there is
// no partial activation. A document missing its top-level array is
// tolerated as an empty bank rather than a hard failure.
func (l *Loader) Load(ctx context.Context, bankSrc, indexSrc string) (*Bank, error) {
	var (
		bankDoc  model.BankDocument
		indexDoc model.ChapterIndexDocument
	)

	bankErr := make(chan error, 1)
	indexErr := make(chan error, 1)

	go func() { bankErr <- l.fetchJSON(ctx, bankSrc, &bankDoc) }()
	go func() { indexErr <- l.fetchJSON(ctx, indexSrc, &indexDoc) }()

	if err := <-bankErr; err != nil {
		return nil, fmt.Errorf("%w: question bank %s: %v", ErrLoad, bankSrc, err)
	}
	if err := <-indexErr; err != nil {
		return nil, fmt.Errorf("%w: chapter index %s: %v", ErrLoad, indexSrc, err)
	}

	b := New(bankDoc.Questions, indexDoc.Subjects)

	l.log.Info().
		Int("questions", len(b.Questions)).
		Int("subjects", len(b.Subjects)).
		Str("generated_at", bankDoc.GeneratedAt).
		Msg("Question bank loaded")

	return b, nil
}

// fetchJSON reads one source into dst. Option maps normalize during
// decoding (see model.OptionList), so the bank is canonical on arrival.
func (l *Loader) fetchJSON(ctx context.Context, src string, dst interface{}) error {
	raw, err := l.read(ctx, src)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return raw, nil
}
