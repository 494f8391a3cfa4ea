package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"sellerscout/internal/domain"
)

// CollectionLogRepository records when a parameter set was last collected.
// Parameter sets are keyed by parser type plus a canonical hash of the
// normalized parameters.
type CollectionLogRepository struct {
	db *sqlx.DB
}

// NewCollectionLogRepository creates a new collection log repository.
func NewCollectionLogRepository(db *sqlx.DB) *CollectionLogRepository {
	return &CollectionLogRepository{db: db}
}

// Touch upserts the log row for (parserType, params) and stamps the
// collection time. The normalized parameter JSON is stored alongside the
// hash for inspection.
func (r *CollectionLogRepository) Touch(ctx context.Context, parserType string, params domain.Params) error {
	query := `
		INSERT INTO collection_logs (parser_type, params_hash, params, collected_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (parser_type, params_hash) DO UPDATE SET
			params = EXCLUDED.params,
			collected_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, parserType, params.Hash(), params.Normalize()); err != nil {
		return fmt.Errorf("failed to touch collection log: %w", err)
	}

	return nil
}

// LastCollectedAt returns when the parameter set was last collected, or nil
// if it never was.
func (r *CollectionLogRepository) LastCollectedAt(
	ctx context.Context,
	parserType string,
	params domain.Params,
) (*time.Time, error) {
	query := `
		SELECT collected_at FROM collection_logs
		WHERE parser_type = $1 AND params_hash = $2
	`

	var collectedAt time.Time
	err := r.db.GetContext(ctx, &collectedAt, query, parserType, params.Hash())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection log: %w", err)
	}

	return &collectedAt, nil
}
