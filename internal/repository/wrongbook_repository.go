package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/store"
)

// WrongbookRepository persists the wrong-answer id list. The list keeps
// insertion order on disk but membership tests ignore order.
type WrongbookRepository struct {
	kv  store.KV
	log zerolog.Logger
}

func NewWrongbookRepository(kv store.KV, log zerolog.Logger) *WrongbookRepository {
	return &WrongbookRepository{
		kv:  kv,
		log: log.With().Str("component", "wrongbook_repository").Logger(),
	}
}

// Load returns the saved wrongbook, or an empty list when the key is
// missing or malformed.
func (r *WrongbookRepository) Load(ctx context.Context) []string {
	raw, err := r.kv.Get(ctx, config.StorageKey.Wrongbook())
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read wrongbook, starting empty")
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		r.log.Warn().Err(err).Msg("stored wrongbook malformed, discarding")
		return nil
	}
	return ids
}

// Save writes the whole wrongbook durably.
func (r *WrongbookRepository) Save(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode wrongbook: %w", err)
	}
	return r.kv.Set(ctx, config.StorageKey.Wrongbook(), string(raw))
}
