package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestLogRepo appends one audit row per terminal request state. Nothing
// in the pipeline reads these rows back; they exist for operators.
type RequestLogRepo struct {
	pool *pgxpool.Pool
}

func NewRequestLogRepo(pool *pgxpool.Pool) *RequestLogRepo {
	return &RequestLogRepo{pool: pool}
}

func (r *RequestLogRepo) Insert(ctx context.Context, chatID int64, sourceURL, status string, processingTime time.Duration) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO requests (chat_id, source_url, status, processing_time_ms) VALUES ($1, $2, $3, $4)",
		chatID, NormalizeSourceURL(sourceURL), status, processingTime.Milliseconds(),
	)
	return err
}
