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

// RecordRepository persists the question-id → answer record map.
type RecordRepository struct {
	kv  store.KV
	log zerolog.Logger
}

func NewRecordRepository(kv store.KV, log zerolog.Logger) *RecordRepository {
	return &RecordRepository{
		kv:  kv,
		log: log.With().Str("component", "record_repository").Logger(),
	}
}

// Load returns the saved answer records, or an empty map when the key
// is missing or its value is not valid JSON.
func (r *RecordRepository) Load(ctx context.Context) map[string]model.AnswerRecord {
	records := make(map[string]model.AnswerRecord)

	raw, err := r.kv.Get(ctx, config.StorageKey.Records())
	if errors.Is(err, store.ErrNotFound) {
		return records
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read records, starting empty")
		return records
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.log.Warn().Err(err).Msg("stored records malformed, discarding")
		return make(map[string]model.AnswerRecord)
	}
	return records
}

// Save writes the whole record map durably.
func (r *RecordRepository) Save(ctx context.Context, records map[string]model.AnswerRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return r.kv.Set(ctx, config.StorageKey.Records(), string(raw))
}
