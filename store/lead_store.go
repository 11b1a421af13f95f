package store

import (
	"context"
	"database/sql"
	"fmt"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
)

type LeadStore struct {
	db *sql.DB
}

func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

// Create inserts l only if its visitor belongs to its pixel; otherwise it
// returns models.ErrReferentialIntegrity.
func (s *LeadStore) Create(ctx context.Context, l *models.Lead) error {
	query := `
		INSERT INTO leads (id, visitor_id, pixel_id, email, first_name, last_name, phone, company, source, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE EXISTS (SELECT 1 FROM visitors WHERE id = $2 AND pixel_id = $3)`

	res, err := s.db.ExecContext(ctx, query,
		l.ID, l.VisitorID, l.PixelID, l.Email, l.FirstName, l.LastName, l.Phone, l.Company, l.Source, l.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("lead references unknown visitor or pixel: %w", models.ErrReferentialIntegrity)
		}
		return fmt.Errorf("failed to create lead: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read lead insert result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("visitor %s does not belong to pixel %s: %w", l.VisitorID, l.PixelID, models.ErrReferentialIntegrity)
	}
	return nil
}

// ListByPixel returns up to limit leads of pixelID, newest first.
func (s *LeadStore) ListByPixel(ctx context.Context, pixelID string, limit int) ([]models.Lead, error) {
	query := `
		SELECT id, visitor_id, pixel_id, email, first_name, last_name, phone, company, source, created_at
		FROM leads
		WHERE pixel_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, pixelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID, &l.VisitorID, &l.PixelID, &l.Email, &l.FirstName, &l.LastName, &l.Phone, &l.Company, &l.Source, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}
	return leads, nil
}
