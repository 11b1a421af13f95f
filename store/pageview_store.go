package store

import (
	"context"
	"database/sql"
	"fmt"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
)

// PageViewStore appends immutable page-view rows.
type PageViewStore struct {
	db *sql.DB
}

func NewPageViewStore(db *sql.DB) *PageViewStore {
	return &PageViewStore{db: db}
}

// Create inserts pv. It never deduplicates.
func (s *PageViewStore) Create(ctx context.Context, pv *models.PageView) error {
	query := `
		INSERT INTO page_views (id, visitor_id, pixel_id, url, title, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query, pv.ID, pv.VisitorID, pv.PixelID, pv.URL, pv.Title, pv.Timestamp)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("page view references visitor %s / pixel %s: %w",
				pv.VisitorID, pv.PixelID, models.ErrReferentialIntegrity)
		}
		return fmt.Errorf("failed to create page view: %w", err)
	}
	return nil
}
