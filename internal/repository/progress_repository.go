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

// ProgressRepository persists the filter-key → cursor-position map.
type ProgressRepository struct {
	kv  store.KV
	log zerolog.Logger
}

func NewProgressRepository(kv store.KV, log zerolog.Logger) *ProgressRepository {
	return &ProgressRepository{
		kv:  kv,
		log: log.With().Str("component", "progress_repository").Logger(),
	}
}

// Load returns the saved progress map. A missing or malformed entry
// falls back to an empty map rather than failing the engine.
func (r *ProgressRepository) Load(ctx context.Context) map[string]int {
	progress := make(map[string]int)

	raw, err := r.kv.Get(ctx, config.StorageKey.Progress())
	if errors.Is(err, store.ErrNotFound) {
		return progress
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read progress, starting empty")
		return progress
	}
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		r.log.Warn().Err(err).Msg("stored progress malformed, discarding")
		return make(map[string]int)
	}
	return progress
}

// Save writes the whole progress map durably.
func (r *ProgressRepository) Save(ctx context.Context, progress map[string]int) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	return r.kv.Set(ctx, config.StorageKey.Progress(), string(raw))
}
