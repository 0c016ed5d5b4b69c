package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"grabberbot/internal/models"
)

type MediaCacheRepo struct {
	pool *pgxpool.Pool
}

func NewMediaCacheRepo(pool *pgxpool.Pool) *MediaCacheRepo {
	return &MediaCacheRepo{pool: pool}
}

// Lookup returns the cached delivery for sourceURL, or nil on a miss. A hit
// bumps last_used_at. Rows whose files no longer map to a known media type
// are reported as a miss so a fresh download can repair them.
func (r *MediaCacheRepo) Lookup(ctx context.Context, sourceURL string) (*models.CachedMedia, error) {
	normalized := NormalizeSourceURL(sourceURL)

	var cacheID int32
	cached := &models.CachedMedia{SourceURL: normalized}

	err := r.pool.QueryRow(ctx,
		"SELECT id, caption, created_at, last_used_at FROM media_cache WHERE source_url = $1",
		normalized,
	).Scan(&cacheID, &cached.Caption, &cached.CreatedAt, &cached.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	if _, err := r.pool.Exec(ctx,
		"UPDATE media_cache SET last_used_at = NOW() WHERE id = $1", cacheID,
	); err != nil {
		log.Printf("Failed to bump last_used_at for cache %d: %v", cacheID, err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT telegram_file_id, media_type, position FROM cached_files WHERE cache_id = $1 ORDER BY position",
		cacheID,
	)
	if err != nil {
		return nil, fmt.Errorf("cache files lookup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var file models.CachedFile
		var mediaType string
		if err := rows.Scan(&file.TelegramFileID, &mediaType, &file.Position); err != nil {
			return nil, fmt.Errorf("cache files scan: %w", err)
		}
		switch models.MediaType(mediaType) {
		case models.MediaTypeVideo, models.MediaTypePhoto:
			file.Type = models.MediaType(mediaType)
		default:
			return nil, nil
		}
		cached.Files = append(cached.Files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache files rows: %w", err)
	}

	if len(cached.Files) == 0 {
		return nil, nil
	}
	return cached, nil
}

// Upsert records a successful delivery. Callers only reach this after the
// platform accepted every file, so a row always means its file IDs are
// re-sendable.
func (r *MediaCacheRepo) Upsert(ctx context.Context, sourceURL, caption string, files []models.CachedFile) error {
	normalized := NormalizeSourceURL(sourceURL)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cache upsert begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var cacheID int32
	err = tx.QueryRow(ctx,
		`INSERT INTO media_cache (source_url, caption) VALUES ($1, $2)
		 ON CONFLICT (source_url) DO UPDATE SET caption = $2, last_used_at = NOW()
		 RETURNING id`,
		normalized, caption,
	).Scan(&cacheID)
	if err != nil {
		return fmt.Errorf("cache upsert: %w", err)
	}

	// Replace the file list wholesale in case an existing row is refreshed.
	if _, err := tx.Exec(ctx, "DELETE FROM cached_files WHERE cache_id = $1", cacheID); err != nil {
		return fmt.Errorf("cache files delete: %w", err)
	}

	for _, file := range files {
		if _, err := tx.Exec(ctx,
			"INSERT INTO cached_files (cache_id, telegram_file_id, media_type, position) VALUES ($1, $2, $3, $4)",
			cacheID, file.TelegramFileID, string(file.Type), file.Position,
		); err != nil {
			return fmt.Errorf("cache file insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cache upsert commit: %w", err)
	}

	log.Printf("Cached %d file(s) for %s", len(files), normalized)
	return nil
}

// PruneExpired removes cache rows unused for longer than ttl. cached_files
// rows go with their parent via ON DELETE CASCADE.
func (r *MediaCacheRepo) PruneExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM media_cache WHERE last_used_at < NOW() - $1::interval",
		fmt.Sprintf("%d seconds", int64(ttl.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
