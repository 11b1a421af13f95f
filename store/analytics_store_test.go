package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeltrack/api/models"
	"pixeltrack/api/store"
)

func TestAnalyticsStore_SummaryCounts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM page_views WHERE pixel_id = ANY").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"pv", "v", "l"}).AddRow(3, 2, 1))

	pv, v, l, err := store.NewAnalyticsStore(db).SummaryCounts(context.Background(), []string{testPixelID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), pv)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, int64(1), l)
}

func TestAnalyticsStore_DailyTraffic(t *testing.T) {
	db, mock := newMockDB(t)
	from := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\(timestamp AT TIME ZONE 'UTC'\\)::date AS day").
		WithArgs(testPixelID, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "page_views", "unique_visitors"}).
			AddRow(time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC), 5, 2).
			AddRow(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), 3, 3))

	points, err := store.NewAnalyticsStore(db).DailyTraffic(context.Background(), testPixelID, from, to)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(5), points[0].PageViews)
	assert.Equal(t, int64(3), points[1].UniqueVisitors)
}

func TestAnalyticsStore_CountryCounts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE\\(country, \\$2\\) AS country").
		WithArgs(testPixelID, models.Unknown, 10).
		WillReturnRows(sqlmock.NewRows([]string{"country", "visitors"}).
			AddRow("Canada", 4).
			AddRow("Unknown", 1))

	geo, err := store.NewAnalyticsStore(db).CountryCounts(context.Background(), testPixelID, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.GeoCount{{Country: "Canada", Count: 4}, {Country: "Unknown", Count: 1}}, geo)
}

func TestAnalyticsStore_DailyAggregate(t *testing.T) {
	db, mock := newMockDB(t)
	day := time.Date(2026, 10, 14, 17, 45, 0, 0, time.UTC)
	start := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	mock.ExpectQuery("FROM page_views pv JOIN visitors v").
		WithArgs(testPixelID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"pv", "uv", "nv"}).AddRow(10, 4, 1))
	mock.ExpectQuery("FROM leads").
		WithArgs(testPixelID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectQuery("SELECT url, count").
		WithArgs(testPixelID, start, end, 5).
		WillReturnRows(sqlmock.NewRows([]string{"url", "n"}).AddRow("https://example.com/", 7))
	mock.ExpectQuery("COALESCE\\(v.country").
		WillReturnRows(sqlmock.NewRows([]string{"value", "n"}).AddRow("Canada", 3).AddRow("Unknown", 1))
	mock.ExpectQuery("COALESCE\\(v.referrer").
		WillReturnRows(sqlmock.NewRows([]string{"value", "n"}))
	mock.ExpectQuery("COALESCE\\(v.device").
		WillReturnRows(sqlmock.NewRows([]string{"value", "n"}).AddRow("desktop", 4))

	agg, err := store.NewAnalyticsStore(db).DailyAggregate(context.Background(), testPixelID, day)
	require.NoError(t, err)

	assert.Equal(t, start, agg.Date)
	assert.Equal(t, int64(10), agg.PageViews)
	assert.Equal(t, int64(4), agg.UniqueVisitors)
	assert.Equal(t, int64(1), agg.NewVisitors)
	assert.Equal(t, int64(3), agg.ReturningVisitors)
	assert.Equal(t, int64(2), agg.Leads)
	assert.Len(t, agg.TopPages, 1)
	assert.Len(t, agg.TopCountries, 2)
	assert.Empty(t, agg.TopReferrers)
	assert.Equal(t, []models.DimensionCount{{Value: "desktop", Count: 4}}, agg.DeviceBreakdown)
}
