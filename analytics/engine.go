// Package analytics computes dashboard statistics from recorded page views,
// visitors and leads.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pixeltrack/api/metrics"
	"pixeltrack/api/models"
)

const (
	DefaultTrafficDays = 30
	MaxTrafficDays     = 365
	// GeoTopN bounds the geographic breakdown.
	GeoTopN = 10
)

// Store is the read-only query surface the engine aggregates over.
type Store interface {
	SummaryCounts(ctx context.Context, pixelIDs []string) (pageViews, visitors, leads int64, err error)
	DailyTraffic(ctx context.Context, pixelID string, from, to time.Time) ([]models.TrafficPoint, error)
	CountryCounts(ctx context.Context, pixelID string, limit int) ([]models.GeoCount, error)
}

type Engine struct {
	store       Store
	defaultDays int
	now         func() time.Time
}

// NewEngine returns an engine over store. defaultDays is the traffic window
// used when a caller asks for none; values outside (0, MaxTrafficDays] fall
// back to DefaultTrafficDays.
func NewEngine(store Store, defaultDays int) *Engine {
	if defaultDays <= 0 || defaultDays > MaxTrafficDays {
		defaultDays = DefaultTrafficDays
	}
	return &Engine{store: store, defaultDays: defaultDays, now: time.Now}
}

// Summary totals page views, visitors and leads across pixelIDs.
func (e *Engine) Summary(ctx context.Context, pixelIDs []string) (models.DashboardSummary, error) {
	if len(pixelIDs) == 0 {
		return models.DashboardSummary{}, nil
	}
	defer observe("summary", time.Now())

	pageViews, visitors, leads, err := e.store.SummaryCounts(ctx, pixelIDs)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("summary counts: %w", err)
	}
	return models.DashboardSummary{
		TotalPageViews: pageViews,
		UniqueVisitors: visitors,
		LeadsCapture:   leads,
		ConversionRate: ConversionRate(leads, visitors),
	}, nil
}

// ConversionRate is leads per hundred visitors rounded to two decimals, or 0
// when there are no visitors.
func ConversionRate(leads, visitors int64) float64 {
	if visitors == 0 {
		return 0
	}
	return math.Round(float64(leads)/float64(visitors)*100*100) / 100
}

// Traffic returns one point per UTC date in [today-windowDays, today] that
// has at least one page view, in ascending date order.
func (e *Engine) Traffic(ctx context.Context, pixelID string, windowDays int) ([]models.TrafficPoint, error) {
	from, to := e.window(windowDays)
	defer observe("traffic", time.Now())

	rows, err := e.store.DailyTraffic(ctx, pixelID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("daily traffic: %w", err)
	}

	byDate := make(map[time.Time]*models.TrafficPoint, len(rows))
	for _, r := range rows {
		day := utcDate(r.Date)
		if day.Before(from) || day.After(to) || r.PageViews == 0 {
			continue
		}
		if p, ok := byDate[day]; ok {
			p.PageViews += r.PageViews
			// Visitors may appear in both rows, so the larger count is kept.
			p.UniqueVisitors = max(p.UniqueVisitors, r.UniqueVisitors)
			continue
		}
		byDate[day] = &models.TrafficPoint{Date: day, PageViews: r.PageViews, UniqueVisitors: r.UniqueVisitors}
	}

	points := make([]models.TrafficPoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// Geographic returns visitor counts per country, at most GeoTopN entries,
// largest first with ties broken by country name.
func (e *Engine) Geographic(ctx context.Context, pixelID string) ([]models.GeoCount, error) {
	defer observe("geographic", time.Now())

	counts, err := e.store.CountryCounts(ctx, pixelID, GeoTopN)
	if err != nil {
		return nil, fmt.Errorf("country counts: %w", err)
	}
	for i := range counts {
		if counts[i].Country == "" {
			counts[i].Country = models.Unknown
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Country < counts[j].Country
	})
	if len(counts) > GeoTopN {
		counts = counts[:GeoTopN]
	}
	return counts, nil
}

// window returns the first and last UTC dates of a traffic window.
func (e *Engine) window(days int) (time.Time, time.Time) {
	switch {
	case days <= 0:
		days = e.defaultDays
	case days > MaxTrafficDays:
		days = MaxTrafficDays
	}
	today := utcDate(e.now())
	return today.AddDate(0, 0, -days), today
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func observe(query string, start time.Time) {
	metrics.AggregationDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
