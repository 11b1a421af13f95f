package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixeltrack/api/models"
)

type PageViewRepository interface {
	Create(ctx context.Context, pv *models.PageView) error
}

// Recorder appends page views. Every call writes exactly one row.
type Recorder struct {
	pageViews PageViewRepository
	now       func() time.Time
}

func NewRecorder(pageViews PageViewRepository) *Recorder {
	return &Recorder{pageViews: pageViews, now: time.Now}
}

// Record stores a page view stamped with the current UTC time. A missing
// visitor or pixel surfaces as models.ErrReferentialIntegrity.
func (r *Recorder) Record(ctx context.Context, visitorID, pixelID, url string, title *string) (*models.PageView, error) {
	pv := &models.PageView{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		PixelID:   pixelID,
		URL:       url,
		Title:     title,
		Timestamp: r.now().UTC(),
	}
	if err := r.pageViews.Create(ctx, pv); err != nil {
		return nil, fmt.Errorf("record page view: %w", err)
	}
	return pv, nil
}
