package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/model"
	"github.com/quizdrill/quizdrill-backend/internal/store"
)

// PrefRepository persists the filter preferences.
type PrefRepository struct {
	kv  store.KV
	log zerolog.Logger
}

func NewPrefRepository(kv store.KV, log zerolog.Logger) *PrefRepository {
	return &PrefRepository{
		kv:  kv,
		log: log.With().Str("component", "pref_repository").Logger(),
	}
}

// Load returns the saved preferences, or zero-valued defaults when the
// key is missing or malformed.
func (r *PrefRepository) Load(ctx context.Context) model.Prefs {
	var prefs model.Prefs

	raw, err := r.kv.Get(ctx, config.StorageKey.Prefs())
	if errors.Is(err, store.ErrNotFound) {
		return prefs
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read prefs, using defaults")
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		r.log.Warn().Err(err).Msg("stored prefs malformed, discarding")
		return model.Prefs{}
	}
	return prefs
}

// Save writes the preferences durably.
func (r *PrefRepository) Save(ctx context.Context, prefs model.Prefs) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	return r.kv.Set(ctx, config.StorageKey.Prefs(), string(raw))
}
