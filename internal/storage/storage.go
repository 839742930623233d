// Package storage persists per-offer search parameters in a local SQLite
// database so that repeat cycles do not have to re-derive them from the
// marketplace API.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS offer_parameters (
	offer_id         TEXT PRIMARY KEY,
	seo_term         TEXT NOT NULL,
	region_id        TEXT NOT NULL,
	filter_attribute TEXT NOT NULL,
	created_at       TEXT NOT NULL
)`

// Store is the offer parameters cache backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if needed and
// prepares the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	return &Store{db: db}, nil
}

// GetParams returns the cached search parameters for an offer. The second
// return value is false on a cache miss.
func (s *Store) GetParams(ctx context.Context, offerID string) (models.OfferParams, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seo_term, region_id, filter_attribute FROM offer_parameters WHERE offer_id=?`, offerID)

	p := models.OfferParams{OfferID: offerID}
	if err := row.Scan(&p.SeoTerm, &p.RegionID, &p.FilterAttribute); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.OfferParams{}, false, nil
		}
		return models.OfferParams{}, false, fmt.Errorf("failed to read offer parameters: %w", err)
	}
	return p, true, nil
}

// PutParams inserts or replaces the cached search parameters for an offer.
func (s *Store) PutParams(ctx context.Context, p models.OfferParams) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO offer_parameters (offer_id, seo_term, region_id, filter_attribute, created_at)
VALUES (?,?,?,?,?)
ON CONFLICT(offer_id) DO UPDATE SET
	seo_term=excluded.seo_term,
	region_id=excluded.region_id,
	filter_attribute=excluded.filter_attribute,
	created_at=excluded.created_at
`, p.OfferID, p.SeoTerm, p.RegionID, p.FilterAttribute, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store offer parameters: %w", err)
	}
	return nil
}

// DeleteParams drops a cached entry, typically after it turned out stale.
func (s *Store) DeleteParams(ctx context.Context, offerID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM offer_parameters WHERE offer_id=?`, offerID); err != nil {
		return fmt.Errorf("failed to delete offer parameters: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
