// Package tracking turns beacons into visitor identities and page views.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixeltrack/api/metrics"
	"pixeltrack/api/models"
)

// VisitorRepository is the storage contract the resolver needs. Create must
// fail with models.ErrAlreadyExists when another visitor already holds the
// (pixel, session) pair, and RecordReturn must increment atomically.
type VisitorRepository interface {
	FindBySession(ctx context.Context, pixelID, sessionID string) (*models.Visitor, error)
	Create(ctx context.Context, v *models.Visitor) error
	RecordReturn(ctx context.Context, pixelID, sessionID string) (*models.Visitor, error)
}

// Enricher derives geography and device attributes. It must not fail.
type Enricher interface {
	Enrich(ctx context.Context, sourceIP, userAgent string) models.Enrichment
}

// ResolveInput carries the identity and enrichment inputs of one beacon.
// Empty strings mean absent.
type ResolveInput struct {
	PixelID   string
	SessionID string
	URL       string
	Referrer  string
	UserAgent string
	SourceIP  string
}

// Resolver finds or creates the visitor for a beacon.
type Resolver struct {
	visitors VisitorRepository
	enricher Enricher
	now      func() time.Time
	logger   *zap.Logger
}

func NewResolver(visitors VisitorRepository, enricher Enricher, logger *zap.Logger) *Resolver {
	return &Resolver{
		visitors: visitors,
		enricher: enricher,
		now:      time.Now,
		logger:   logger,
	}
}

// Resolve returns the visitor for in and whether this beacon was the first
// one seen for its session. Beacons without a session always get a fresh
// anonymous visitor.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*models.Visitor, bool, error) {
	if in.SessionID == "" {
		v, err := r.create(ctx, in)
		if err != nil {
			return nil, false, err
		}
		metrics.VisitorsResolved.WithLabelValues("anonymous").Inc()
		return v, true, nil
	}

	_, err := r.visitors.FindBySession(ctx, in.PixelID, in.SessionID)
	switch {
	case err == nil:
		v, err := r.recordReturn(ctx, in)
		if err != nil {
			return nil, false, err
		}
		metrics.VisitorsResolved.WithLabelValues("returning").Inc()
		return v, false, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, false, fmt.Errorf("look up visitor: %w", err)
	}

	v, err := r.create(ctx, in)
	if err == nil {
		metrics.VisitorsResolved.WithLabelValues("new").Inc()
		return v, true, nil
	}
	if !errors.Is(err, models.ErrAlreadyExists) {
		return nil, false, err
	}

	// Lost the race to a concurrent first beacon: count this one as a return
	// visit on the winner's row.
	r.logger.Debug("Visitor create conflicted, recording as return visit",
		zap.String("pixel_id", in.PixelID),
		zap.String("session_id", in.SessionID),
	)
	v, err = r.recordReturn(ctx, in)
	if err != nil {
		return nil, false, err
	}
	metrics.VisitorsResolved.WithLabelValues("conflict").Inc()
	return v, false, nil
}

func (r *Resolver) recordReturn(ctx context.Context, in ResolveInput) (*models.Visitor, error) {
	v, err := r.visitors.RecordReturn(ctx, in.PixelID, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("record return visit: %w", err)
	}
	return v, nil
}

// create enriches outside of any transaction so a slow or failing lookup
// never blocks the insert on anything but its own timeout.
func (r *Resolver) create(ctx context.Context, in ResolveInput) (*models.Visitor, error) {
	e := r.enricher.Enrich(ctx, in.SourceIP, in.UserAgent)

	v := &models.Visitor{
		ID:           uuid.NewString(),
		PixelID:      in.PixelID,
		SessionID:    optional(in.SessionID),
		IPAddress:    optional(in.SourceIP),
		UserAgent:    optional(in.UserAgent),
		Device:       optional(e.Device.Device),
		Browser:      optional(e.Device.Browser),
		OS:           optional(e.Device.OS),
		Referrer:     optional(in.Referrer),
		LandingPage:  optional(in.URL),
		IsNewVisitor: true,
		VisitCount:   1,
		CreatedAt:    r.now().UTC(),
	}
	if g := e.Geo; g != nil {
		v.Country = optional(g.Country)
		v.Region = optional(g.Region)
		v.City = optional(g.City)
		v.Latitude = g.Latitude
		v.Longitude = g.Longitude
	}

	if err := r.visitors.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create visitor: %w", err)
	}
	return v, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
