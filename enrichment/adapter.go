// Package enrichment derives geography and device attributes for a beacon.
// Lookups are best effort: failures are logged and counted, never returned.
package enrichment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pixeltrack/api/metrics"
	"pixeltrack/api/models"
)

// Adapter combines a GeoLocator with user-agent classification.
type Adapter struct {
	geo     GeoLocator
	timeout time.Duration
	logger  *zap.Logger
}

// NewAdapter returns an Adapter. A nil geo disables IP geolocation.
func NewAdapter(geo GeoLocator, timeout time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{geo: geo, timeout: timeout, logger: logger}
}

// Enrich resolves whatever it can for sourceIP and userAgent. Either may be empty.
func (a *Adapter) Enrich(ctx context.Context, sourceIP, userAgent string) models.Enrichment {
	return models.Enrichment{
		Geo:    a.lookupGeo(ctx, sourceIP),
		Device: ClassifyUserAgent(userAgent),
	}
}

func (a *Adapter) lookupGeo(ctx context.Context, ip string) *models.GeoLocation {
	if a.geo == nil || ip == "" {
		return nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	loc, err := a.geo.Lookup(ctx, ip)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("geoip").Inc()
		a.logger.Warn("Geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		return nil
	}
	return loc
}
