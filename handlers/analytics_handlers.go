package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pixeltrack/api/middleware"
	"pixeltrack/api/models"
)

const (
	defaultRollupDays = 30
	maxRollupDays     = 365
)

type Dashboard interface {
	Summary(ctx context.Context, pixelIDs []string) (models.DashboardSummary, error)
	Traffic(ctx context.Context, pixelID string, windowDays int) ([]models.TrafficPoint, error)
	Geographic(ctx context.Context, pixelID string) ([]models.GeoCount, error)
}

type RollupReader interface {
	GetDailyAggregates(ctx context.Context, pixelID string, from, to time.Time) ([]models.DailyAggregate, error)
}

type AnalyticsHandlers struct {
	pixelGuard
	Engine  Dashboard
	Rollups RollupReader
	now     func() time.Time
}

// NewAnalyticsHandlers wires the dashboard endpoints. rollups may be nil when
// no rollup store is configured.
func NewAnalyticsHandlers(engine Dashboard, pixels PixelRepository, rollups RollupReader, logger *zap.Logger) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		pixelGuard: pixelGuard{pixels: pixels, logger: logger},
		Engine:     engine,
		Rollups:    rollups,
		now:        time.Now,
	}
}

// DashboardStats summarizes every pixel the caller owns.
func (h *AnalyticsHandlers) DashboardStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	pixels, err := h.pixels.ListByAccount(ctx, c.GetInt(middleware.UserIDKey))
	if err != nil {
		h.logger.Error("Failed to list pixels for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}
	ids := make([]string, 0, len(pixels))
	for _, p := range pixels {
		ids = append(ids, p.ID)
	}

	summary, err := h.Engine.Summary(ctx, ids)
	if err != nil {
		h.logger.Error("Failed to compute dashboard stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Traffic returns the daily series for ?days= (default window when absent or
// not a positive number).
func (h *AnalyticsHandlers) Traffic(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "pixelId")
	if !ok {
		return
	}

	points, err := h.Engine.Traffic(ctx, p.ID, days)
	if err != nil {
		h.logger.Error("Failed to fetch traffic data", zap.String("pixel_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch traffic data"})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *AnalyticsHandlers) Geographic(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "pixelId")
	if !ok {
		return
	}

	counts, err := h.Engine.Geographic(ctx, p.ID)
	if err != nil {
		h.logger.Error("Failed to fetch geographic data", zap.String("pixel_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch geographic data"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// Daily serves cached daily rollups for the last ?days= UTC dates.
func (h *AnalyticsHandlers) Daily(c *gin.Context) {
	if h.Rollups == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Daily rollups are not enabled"})
		return
	}
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days <= 0 {
		days = defaultRollupDays
	}
	if days > maxRollupDays {
		days = maxRollupDays
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "pixelId")
	if !ok {
		return
	}

	y, m, d := h.now().UTC().Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -days)

	aggs, err := h.Rollups.GetDailyAggregates(ctx, p.ID, from, to)
	if err != nil {
		h.logger.Error("Failed to fetch daily rollups", zap.String("pixel_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch daily analytics"})
		return
	}
	c.JSON(http.StatusOK, aggs)
}
