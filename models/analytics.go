package models

import "time"

// DashboardSummary is the headline statistics block for a set of pixels.
type DashboardSummary struct {
	TotalPageViews int64   `json:"totalPageViews"`
	UniqueVisitors int64   `json:"uniqueVisitors"`
	LeadsCapture   int64   `json:"leadsCapture"`
	ConversionRate float64 `json:"conversionRate"`
}

// TrafficPoint is one calendar date of the traffic time series.
type TrafficPoint struct {
	Date           time.Time `json:"date"`
	PageViews      int64     `json:"pageViews"`
	UniqueVisitors int64     `json:"uniqueVisitors"`
}

type GeoCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// DimensionCount is one entry of a top-N breakdown.
type DimensionCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// DailyAggregate is a derived rollup for one pixel and UTC calendar date.
// It can always be recomputed from page views, visitors and leads.
type DailyAggregate struct {
	PixelID           string           `json:"pixelId"`
	Date              time.Time        `json:"date"`
	PageViews         int64            `json:"pageViews"`
	UniqueVisitors    int64            `json:"uniqueVisitors"`
	NewVisitors       int64            `json:"newVisitors"`
	ReturningVisitors int64            `json:"returningVisitors"`
	Leads             int64            `json:"leads"`
	TopCountries      []DimensionCount `json:"topCountries"`
	TopPages          []DimensionCount `json:"topPages"`
	TopReferrers      []DimensionCount `json:"topReferrers"`
	DeviceBreakdown   []DimensionCount `json:"deviceBreakdown"`
	ComputedAt        time.Time        `json:"computedAt"`
}
