package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
)

// RollupStore keeps the analytics_daily cache in ClickHouse. Rows are
// replaced by (pixel_id, date), newest computed_at wins, so rewriting a day
// is always safe.
type RollupStore struct {
	DB *database.ClickHouseClient
}

func NewRollupStore(chClient *database.ClickHouseClient) *RollupStore {
	return &RollupStore{DB: chClient}
}

// EnsureSchema creates the analytics_daily table if it does not exist.
func (s *RollupStore) EnsureSchema(ctx context.Context) error {
	err := s.DB.Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analytics_daily (
			pixel_id           String,
			date               Date,
			page_views         UInt64,
			unique_visitors    UInt64,
			new_visitors       UInt64,
			returning_visitors UInt64,
			leads              UInt64,
			top_countries      String,
			top_pages          String,
			top_referrers      String,
			device_breakdown   String,
			computed_at        DateTime64(3, 'UTC')
		)
		ENGINE = ReplacingMergeTree(computed_at)
		ORDER BY (pixel_id, date)
	`)
	if err != nil {
		return fmt.Errorf("failed to create analytics_daily table: %w", err)
	}
	return nil
}

// WriteDailyAggregates batch-inserts aggregates, superseding any earlier row
// for the same pixel and date.
func (s *RollupStore) WriteDailyAggregates(ctx context.Context, aggs []models.DailyAggregate) error {
	if len(aggs) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO analytics_daily (
			pixel_id, date, page_views, unique_visitors, new_visitors, returning_visitors, leads,
			top_countries, top_pages, top_referrers, device_breakdown, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	sent := false
	defer func() {
		if !sent {
			_ = batch.Abort()
		}
	}()

	for _, a := range aggs {
		dims, err := encodeDimensions(a.TopCountries, a.TopPages, a.TopReferrers, a.DeviceBreakdown)
		if err != nil {
			return err
		}
		err = batch.Append(
			a.PixelID,
			a.Date,
			uint64(a.PageViews),
			uint64(a.UniqueVisitors),
			uint64(a.NewVisitors),
			uint64(a.ReturningVisitors),
			uint64(a.Leads),
			dims[0], dims[1], dims[2], dims[3],
			a.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append rollup for pixel %s on %s: %w", a.PixelID, a.Date.Format(time.DateOnly), err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	sent = true
	return nil
}

// GetDailyAggregates returns the cached rollups for pixelID with dates in
// [from, to], ascending.
func (s *RollupStore) GetDailyAggregates(ctx context.Context, pixelID string, from, to time.Time) ([]models.DailyAggregate, error) {
	query := `
		SELECT pixel_id, date, page_views, unique_visitors, new_visitors, returning_visitors, leads,
			top_countries, top_pages, top_referrers, device_breakdown, computed_at
		FROM analytics_daily FINAL
		WHERE pixel_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := s.DB.Conn.Query(ctx, query, pixelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily rollups: %w", err)
	}
	defer rows.Close()

	results := []models.DailyAggregate{}
	for rows.Next() {
		var (
			a                                         models.DailyAggregate
			pageViews, unique, newV, returning, leads uint64
			countries, pages, referrers, devices      string
		)
		if err := rows.Scan(&a.PixelID, &a.Date, &pageViews, &unique, &newV, &returning, &leads,
			&countries, &pages, &referrers, &devices, &a.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily rollup: %w", err)
		}
		a.PageViews = int64(pageViews)
		a.UniqueVisitors = int64(unique)
		a.NewVisitors = int64(newV)
		a.ReturningVisitors = int64(returning)
		a.Leads = int64(leads)

		if err := decodeDimensions(
			[]string{countries, pages, referrers, devices},
			&a.TopCountries, &a.TopPages, &a.TopReferrers, &a.DeviceBreakdown,
		); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily rollups: %w", err)
	}
	return results, nil
}

func encodeDimensions(sets ...[]models.DimensionCount) ([]string, error) {
	out := make([]string, len(sets))
	for i, set := range sets {
		if set == nil {
			set = []models.DimensionCount{}
		}
		b, err := json.Marshal(set)
		if err != nil {
			return nil, fmt.Errorf("failed to encode rollup breakdown: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}

func decodeDimensions(raw []string, dst ...*[]models.DimensionCount) error {
	for i, s := range raw {
		if s == "" {
			*dst[i] = []models.DimensionCount{}
			continue
		}
		if err := json.Unmarshal([]byte(s), dst[i]); err != nil {
			return fmt.Errorf("failed to decode rollup breakdown: %w", err)
		}
	}
	return nil
}
