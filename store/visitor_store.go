package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
)

const visitorColumns = `id, pixel_id, session_id, ip_address, user_agent, country, region, city,
	latitude, longitude, device, browser, os, referrer, landing_page, is_new_visitor, visit_count, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// VisitorStore persists visitor identities in Postgres. The partial unique
// index visitors_pixel_session_key guarantees one row per (pixel, session).
type VisitorStore struct {
	db *sql.DB
}

func NewVisitorStore(db *sql.DB) *VisitorStore {
	return &VisitorStore{db: db}
}

// FindBySession returns models.ErrNotFound when no visitor exists for the pair.
func (s *VisitorStore) FindBySession(ctx context.Context, pixelID, sessionID string) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + `
		FROM visitors
		WHERE pixel_id = $1 AND session_id = $2`

	v, err := scanVisitor(s.db.QueryRowContext(ctx, query, pixelID, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find visitor by session: %w", err)
	}
	return v, nil
}

// Create inserts v as-is. A concurrent insert for the same (pixel, session)
// yields models.ErrAlreadyExists; an unknown pixel yields
// models.ErrReferentialIntegrity.
func (s *VisitorStore) Create(ctx context.Context, v *models.Visitor) error {
	query := `
		INSERT INTO visitors (` + visitorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.PixelID, v.SessionID, v.IPAddress, v.UserAgent,
		v.Country, v.Region, v.City, v.Latitude, v.Longitude,
		v.Device, v.Browser, v.OS, v.Referrer, v.LandingPage,
		v.IsNewVisitor, v.VisitCount, v.CreatedAt,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, database.VisitorsPixelSessionKey):
			return fmt.Errorf("visitor for session already exists: %w", models.ErrAlreadyExists)
		case database.IsForeignKeyViolation(err):
			return fmt.Errorf("visitor references unknown pixel %s: %w", v.PixelID, models.ErrReferentialIntegrity)
		}
		return fmt.Errorf("failed to create visitor: %w", err)
	}
	return nil
}

// RecordReturn atomically bumps visit_count and clears is_new_visitor for the
// session's visitor, returning the updated row.
func (s *VisitorStore) RecordReturn(ctx context.Context, pixelID, sessionID string) (*models.Visitor, error) {
	query := `
		UPDATE visitors
		SET visit_count = visit_count + 1, is_new_visitor = FALSE
		WHERE pixel_id = $1 AND session_id = $2
		RETURNING ` + visitorColumns

	v, err := scanVisitor(s.db.QueryRowContext(ctx, query, pixelID, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to record returning visit: %w", err)
	}
	return v, nil
}

// ListByPixel returns the most recently created visitors of a pixel.
func (s *VisitorStore) ListByPixel(ctx context.Context, pixelID string, limit int) ([]models.Visitor, error) {
	query := `SELECT ` + visitorColumns + `
		FROM visitors
		WHERE pixel_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, pixelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	visitors := []models.Visitor{}
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		visitors = append(visitors, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visitors: %w", err)
	}
	return visitors, nil
}

func scanVisitor(row rowScanner) (*models.Visitor, error) {
	v := &models.Visitor{}
	err := row.Scan(
		&v.ID, &v.PixelID, &v.SessionID, &v.IPAddress, &v.UserAgent,
		&v.Country, &v.Region, &v.City, &v.Latitude, &v.Longitude,
		&v.Device, &v.Browser, &v.OS, &v.Referrer, &v.LandingPage,
		&v.IsNewVisitor, &v.VisitCount, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}
