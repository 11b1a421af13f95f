package tracking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pixeltrack/api/models"
)

// ErrInvalidBeacon is returned when a beacon lacks its pixel id or URL.
var ErrInvalidBeacon = errors.New("beacon requires pixel id and url")

// IngestRequest is one inbound beacon. Nil or empty optional fields are absent.
type IngestRequest struct {
	PixelID   string
	SessionID string
	URL       string
	Title     *string
	Referrer  *string
	UserAgent *string
	SourceIP  *string
}

// Result is what Ingest produced for a beacon.
type Result struct {
	PageView        *models.PageView
	Visitor         *models.Visitor
	FirstForSession bool
}

// Tracker runs the ingest path: resolve the visitor, then append the page view.
type Tracker struct {
	resolver *Resolver
	recorder *Recorder
	logger   *zap.Logger
}

func NewTracker(resolver *Resolver, recorder *Recorder, logger *zap.Logger) *Tracker {
	return &Tracker{resolver: resolver, recorder: recorder, logger: logger}
}

// Ingest records req. Enrichment problems never fail it; storage and
// referential failures do.
func (t *Tracker) Ingest(ctx context.Context, req IngestRequest) (Result, error) {
	if req.PixelID == "" || req.URL == "" {
		return Result{}, ErrInvalidBeacon
	}

	visitor, first, err := t.resolver.Resolve(ctx, ResolveInput{
		PixelID:   req.PixelID,
		SessionID: req.SessionID,
		URL:       req.URL,
		Referrer:  deref(req.Referrer),
		UserAgent: deref(req.UserAgent),
		SourceIP:  deref(req.SourceIP),
	})
	if err != nil {
		return Result{}, fmt.Errorf("resolve visitor: %w", err)
	}

	pv, err := t.recorder.Record(ctx, visitor.ID, req.PixelID, req.URL, req.Title)
	if err != nil {
		return Result{}, err
	}

	t.logger.Debug("Beacon recorded",
		zap.String("pixel_id", req.PixelID),
		zap.String("visitor_id", visitor.ID),
		zap.Bool("first_for_session", first),
	)
	return Result{PageView: pv, Visitor: visitor, FirstForSession: first}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
