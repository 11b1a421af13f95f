package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
)

const pixelColumns = `id, account_id, name, domain, status, created_at, updated_at`

type PixelStore struct {
	db *sql.DB
}

func NewPixelStore(db *sql.DB) *PixelStore {
	return &PixelStore{db: db}
}

func (s *PixelStore) Create(ctx context.Context, p *models.Pixel) error {
	query := `
		INSERT INTO tracking_pixels (` + pixelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query, p.ID, p.AccountID, p.Name, p.Domain, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("pixel references unknown account %d: %w", p.AccountID, models.ErrReferentialIntegrity)
		}
		return fmt.Errorf("failed to create pixel: %w", err)
	}
	return nil
}

// Get returns models.ErrNotFound for an unknown id.
func (s *PixelStore) Get(ctx context.Context, id string) (*models.Pixel, error) {
	query := `SELECT ` + pixelColumns + ` FROM tracking_pixels WHERE id = $1`

	p := &models.Pixel{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.AccountID, &p.Name, &p.Domain, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pixel: %w", err)
	}
	return p, nil
}

// Update saves the name, domain and status of p and stamps updated_at. It
// returns models.ErrNotFound for an unknown id.
func (s *PixelStore) Update(ctx context.Context, p *models.Pixel) error {
	if !p.Status.Valid() {
		return fmt.Errorf("invalid pixel status %q", p.Status)
	}

	query := `
		UPDATE tracking_pixels
		SET name = $2, domain = $3, status = $4, updated_at = $5
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Domain, p.Status, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update pixel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read pixel update result: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PixelStore) ListByAccount(ctx context.Context, accountID int) ([]models.Pixel, error) {
	query := `SELECT ` + pixelColumns + `
		FROM tracking_pixels
		WHERE account_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pixels: %w", err)
	}
	defer rows.Close()

	pixels := []models.Pixel{}
	for rows.Next() {
		var p models.Pixel
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Name, &p.Domain, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pixel: %w", err)
		}
		pixels = append(pixels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pixels: %w", err)
	}
	return pixels, nil
}

// ListActiveIDs returns the ids of every pixel in the active state.
func (s *PixelStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tracking_pixels WHERE status = $1 ORDER BY id`, models.PixelActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active pixels: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pixel id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pixel ids: %w", err)
	}
	return ids, nil
}
