package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/modscan/internal/model"
)

// Load reads every record into a new Dataset.
func (s *Store) Load(ctx context.Context) (*model.Dataset, error) {
	query := `
	SELECT organization, repository, version, module, name, summary, stars, url, last_modified, scanned_at
	FROM records
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	ds := model.NewDataset()
	for rows.Next() {
		var (
			r            model.Record
			lastModified string
			scannedAt    string
		)
		err := rows.Scan(
			&r.Organization,
			&r.Repository,
			&r.Version,
			&r.Module,
			&r.Name,
			&r.Summary,
			&r.Stars,
			&r.URL,
			&lastModified,
			&scannedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.LastModified = parseTimestamp(lastModified)
		r.ScannedAt = parseTimestamp(scannedAt)
		ds.Upsert(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return ds, nil
}

// Save writes every record of ds in one transaction. Rows with the same
// identity are replaced as a whole; rows absent from ds are kept.
func (s *Store) Save(ctx context.Context, ds *model.Dataset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (organization, repository, version, module, name, summary, stars, url, last_modified, scanned_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(organization, repository, version, module) DO UPDATE SET
		name = excluded.name,
		summary = excluded.summary,
		stars = excluded.stars,
		url = excluded.url,
		last_modified = excluded.last_modified,
		scanned_at = excluded.scanned_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range ds.Records() {
		_, err = stmt.ExecContext(ctx,
			r.Organization,
			r.Repository,
			r.Version,
			r.Module,
			r.Name,
			r.Summary,
			r.Stars,
			r.URL,
			formatTimestamp(r.LastModified),
			formatTimestamp(r.ScannedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save record %s: %w", r.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// LoadDataset opens the database at path, creating it if needed, and loads it.
func LoadDataset(ctx context.Context, path string) (*model.Dataset, error) {
	s, err := Open(path, DefaultOptions())
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load(ctx)
}

// SaveDataset opens the database at path, creating it if needed, and saves ds.
func SaveDataset(ctx context.Context, path string, ds *model.Dataset) error {
	s, err := Open(path, DefaultOptions())
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, ds)
}

// OrganizationStats summarizes the records of one organization.
type OrganizationStats struct {
	Organization string
	Records      int
	Repositories int
	Modules      int
	LastScanned  time.Time
}

// Stats summarizes the database contents.
type Stats struct {
	Records         int
	Organizations   []OrganizationStats
	Runs            int
	CachedResponses int
}

// Stats returns record counts per organization, the number of recorded
// runs and the number of cached responses.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	query := `
	SELECT organization, COUNT(*), COUNT(DISTINCT repository), COUNT(DISTINCT module), MAX(scanned_at)
	FROM records
	GROUP BY organization
	ORDER BY organization
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var (
			org         OrganizationStats
			lastScanned string
		)
		if err := rows.Scan(&org.Organization, &org.Records, &org.Repositories, &org.Modules, &lastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		org.LastScanned = parseTimestamp(lastScanned)
		stats.Records += org.Records
		stats.Organizations = append(stats.Organizations, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM http_cache").Scan(&stats.CachedResponses); err != nil {
		return nil, fmt.Errorf("failed to count cached responses: %w", err)
	}
	return stats, nil
}
