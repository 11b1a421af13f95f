// api/store/analytics_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pixeltrack/api/models"
)

// topDimensionLimit is the number of entries kept per rollup breakdown.
const topDimensionLimit = 5

// AnalyticsStore runs the read-side aggregate queries over page_views,
// visitors and leads. It never writes.
type AnalyticsStore struct {
	db *sql.DB
}

func NewAnalyticsStore(db *sql.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// SummaryCounts returns page-view, visitor and lead totals across pixelIDs.
func (s *AnalyticsStore) SummaryCounts(ctx context.Context, pixelIDs []string) (pageViews, visitors, leads int64, err error) {
	query := `
		SELECT
			(SELECT count(*) FROM page_views WHERE pixel_id = ANY($1::uuid[])),
			(SELECT count(*) FROM visitors WHERE pixel_id = ANY($1::uuid[])),
			(SELECT count(*) FROM leads WHERE pixel_id = ANY($1::uuid[]))
	`
	err = s.db.QueryRowContext(ctx, query, pq.Array(pixelIDs)).Scan(&pageViews, &visitors, &leads)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to query dashboard counts: %w", err)
	}
	return pageViews, visitors, leads, nil
}

// DailyTraffic groups a pixel's page views in [from, to) by UTC calendar date.
func (s *AnalyticsStore) DailyTraffic(ctx context.Context, pixelID string, from, to time.Time) ([]models.TrafficPoint, error) {
	query := `
		SELECT (timestamp AT TIME ZONE 'UTC')::date AS day,
			count(*) AS page_views,
			count(DISTINCT visitor_id) AS unique_visitors
		FROM page_views
		WHERE pixel_id = $1 AND timestamp >= $2 AND timestamp < $3
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err := s.db.QueryContext(ctx, query, pixelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily traffic: %w", err)
	}
	defer rows.Close()

	points := []models.TrafficPoint{}
	for rows.Next() {
		var p models.TrafficPoint
		if err := rows.Scan(&p.Date, &p.PageViews, &p.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("failed to scan daily traffic row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for daily traffic: %w", err)
	}
	return points, nil
}

// CountryCounts returns visitor counts per country, largest first, ties by
// country name. Visitors without a country are reported as models.Unknown.
func (s *AnalyticsStore) CountryCounts(ctx context.Context, pixelID string, limit int) ([]models.GeoCount, error) {
	query := `
		SELECT COALESCE(country, $2) AS country, count(*) AS visitors
		FROM visitors
		WHERE pixel_id = $1
		GROUP BY 1
		ORDER BY visitors DESC, country ASC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, pixelID, models.Unknown, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query country counts: %w", err)
	}
	defer rows.Close()

	results := []models.GeoCount{}
	for rows.Next() {
		var g models.GeoCount
		if err := rows.Scan(&g.Country, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan country count: %w", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for country counts: %w", err)
	}
	return results, nil
}

// Daily rollup queries. $1 = pixel id, $2 = day start, $3 = next day start.
const (
	dailyCountsQuery = `
		SELECT count(*),
			count(DISTINCT pv.visitor_id),
			count(DISTINCT pv.visitor_id) FILTER (WHERE v.created_at >= $2 AND v.created_at < $3)
		FROM page_views pv
		JOIN visitors v ON v.id = pv.visitor_id
		WHERE pv.pixel_id = $1 AND pv.timestamp >= $2 AND pv.timestamp < $3`

	dailyLeadsQuery = `
		SELECT count(*) FROM leads
		WHERE pixel_id = $1 AND created_at >= $2 AND created_at < $3`

	dailyTopPagesQuery = `
		SELECT url, count(*) AS n
		FROM page_views
		WHERE pixel_id = $1 AND timestamp >= $2 AND timestamp < $3
		GROUP BY url
		ORDER BY n DESC, url ASC
		LIMIT $4`

	// Visitor-level breakdowns count each visitor active that day once.
	dailyVisitorDimensionQuery = `
		SELECT COALESCE(v.%[1]s, 'Unknown') AS value, count(DISTINCT v.id) AS n
		FROM visitors v
		WHERE v.pixel_id = $1 AND EXISTS (
			SELECT 1 FROM page_views pv
			WHERE pv.visitor_id = v.id AND pv.timestamp >= $2 AND pv.timestamp < $3
		)
		GROUP BY 1
		ORDER BY n DESC, value ASC
		LIMIT $4`
)

// DailyAggregate derives the rollup for one pixel and the UTC date of day.
func (s *AnalyticsStore) DailyAggregate(ctx context.Context, pixelID string, day time.Time) (models.DailyAggregate, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	agg := models.DailyAggregate{PixelID: pixelID, Date: start}

	var newVisitors int64
	err := s.db.QueryRowContext(ctx, dailyCountsQuery, pixelID, start, end).
		Scan(&agg.PageViews, &agg.UniqueVisitors, &newVisitors)
	if err != nil {
		return agg, fmt.Errorf("failed to query daily counts: %w", err)
	}
	agg.NewVisitors = newVisitors
	agg.ReturningVisitors = agg.UniqueVisitors - newVisitors

	if err := s.db.QueryRowContext(ctx, dailyLeadsQuery, pixelID, start, end).Scan(&agg.Leads); err != nil {
		return agg, fmt.Errorf("failed to query daily leads: %w", err)
	}

	if agg.TopPages, err = s.dimension(ctx, dailyTopPagesQuery, pixelID, start, end); err != nil {
		return agg, err
	}
	if agg.TopCountries, err = s.dimension(ctx, fmt.Sprintf(dailyVisitorDimensionQuery, "country"), pixelID, start, end); err != nil {
		return agg, err
	}
	if agg.TopReferrers, err = s.dimension(ctx, fmt.Sprintf(dailyVisitorDimensionQuery, "referrer"), pixelID, start, end); err != nil {
		return agg, err
	}
	if agg.DeviceBreakdown, err = s.dimension(ctx, fmt.Sprintf(dailyVisitorDimensionQuery, "device"), pixelID, start, end); err != nil {
		return agg, err
	}

	return agg, nil
}

func (s *AnalyticsStore) dimension(ctx context.Context, query, pixelID string, start, end time.Time) ([]models.DimensionCount, error) {
	rows, err := s.db.QueryContext(ctx, query, pixelID, start, end, topDimensionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily breakdown: %w", err)
	}
	defer rows.Close()

	results := []models.DimensionCount{}
	for rows.Next() {
		var d models.DimensionCount
		if err := rows.Scan(&d.Value, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily breakdown: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily breakdown: %w", err)
	}
	return results, nil
}
