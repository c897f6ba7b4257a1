package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/modscan/internal/github"
)

var _ github.Cache = (*Store)(nil)

// Get returns the cached response stored under key.
func (s *Store) Get(ctx context.Context, key string) (github.CachedResponse, bool, error) {
	query := `
	SELECT etag, last_modified, body, stored_at
	FROM http_cache
	WHERE key = ?
	`

	var (
		resp     github.CachedResponse
		storedAt string
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&resp.ETag, &resp.LastModified, &resp.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return github.CachedResponse{}, false, nil
	}
	if err != nil {
		return github.CachedResponse{}, false, fmt.Errorf("failed to get cached response: %w", err)
	}
	resp.StoredAt = parseTimestamp(storedAt)
	return resp, true, nil
}

// Put stores resp under key.
func (s *Store) Put(ctx context.Context, key string, resp github.CachedResponse) error {
	query := `
	INSERT INTO http_cache (key, etag, last_modified, body, stored_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		etag = excluded.etag,
		last_modified = excluded.last_modified,
		body = excluded.body,
		stored_at = excluded.stored_at
	`

	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, query, key, resp.ETag, resp.LastModified, body, formatTimestamp(storedAt)); err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

// PruneCache removes cached responses stored before cutoff and returns how
// many were removed.
func (s *Store) PruneCache(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM http_cache WHERE stored_at < ?", formatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}
