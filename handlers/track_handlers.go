package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixeltrack/api/metrics"
	"pixeltrack/api/models"
	"pixeltrack/api/tracking"
	"pixeltrack/api/utils"
)

const ingestTimeout = 15 * time.Second

type BeaconIngester interface {
	Ingest(ctx context.Context, req tracking.IngestRequest) (tracking.Result, error)
}

type PixelGetter interface {
	Get(ctx context.Context, id string) (*models.Pixel, error)
}

type LeadRepository interface {
	Create(ctx context.Context, l *models.Lead) error
}

// TrackHandlers serves the public endpoints the embedded pixel script calls.
type TrackHandlers struct {
	Tracker BeaconIngester
	Pixels  PixelGetter
	Leads   LeadRepository
	logger  *zap.Logger
	now     func() time.Time
}

func NewTrackHandlers(tracker BeaconIngester, pixels PixelGetter, leads LeadRepository, logger *zap.Logger) *TrackHandlers {
	return &TrackHandlers{
		Tracker: tracker,
		Pixels:  pixels,
		Leads:   leads,
		logger:  logger,
		now:     time.Now,
	}
}

// Track ingests one page-view beacon. Beacons for paused or disabled pixels
// are accepted with 204 and dropped.
func (h *TrackHandlers) Track(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.BeaconsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "pixelId and url are required"})
		return
	}
	if !utils.IsUUID(req.PixelID) {
		metrics.BeaconsTotal.WithLabelValues("unknown_pixel").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "Tracking pixel not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	pixel, err := h.Pixels.Get(ctx, req.PixelID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.BeaconsTotal.WithLabelValues("unknown_pixel").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": "Tracking pixel not found"})
			return
		}
		metrics.BeaconsTotal.WithLabelValues("failed").Inc()
		h.logger.Error("Failed to load pixel for beacon", zap.String("pixel_id", req.PixelID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}
	if pixel.Status != models.PixelActive {
		metrics.BeaconsTotal.WithLabelValues("inactive_pixel").Inc()
		c.Status(http.StatusNoContent)
		return
	}

	userAgent := c.Request.UserAgent()
	sourceIP := c.ClientIP()
	res, err := h.Tracker.Ingest(ctx, tracking.IngestRequest{
		PixelID:   req.PixelID,
		SessionID: req.SessionID,
		URL:       req.URL,
		Title:     req.Title,
		Referrer:  req.Referrer,
		UserAgent: &userAgent,
		SourceIP:  &sourceIP,
	})
	if err != nil {
		if errors.Is(err, tracking.ErrInvalidBeacon) {
			metrics.BeaconsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "pixelId and url are required"})
			return
		}
		metrics.BeaconsTotal.WithLabelValues("failed").Inc()
		h.logger.Error("Failed to ingest beacon", zap.String("pixel_id", req.PixelID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}

	metrics.BeaconsTotal.WithLabelValues("recorded").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"visitorId":  res.Visitor.ID,
		"pageViewId": res.PageView.ID,
	})
}

// CaptureLead stores contact details against a visitor of a pixel.
func (h *TrackHandlers) CaptureLead(c *gin.Context) {
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !utils.IsUUID(req.PixelID) || !utils.IsUUID(req.VisitorID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Visitor not found for this pixel"})
		return
	}

	source := req.Source
	if source == "" {
		source = "form"
	}
	lead := &models.Lead{
		ID:        uuid.NewString(),
		VisitorID: req.VisitorID,
		PixelID:   req.PixelID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Company:   req.Company,
		Source:    source,
		CreatedAt: h.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	if err := h.Leads.Create(ctx, lead); err != nil {
		if errors.Is(err, models.ErrReferentialIntegrity) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Visitor not found for this pixel"})
			return
		}
		h.logger.Error("Failed to capture lead", zap.String("pixel_id", req.PixelID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to capture lead"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "leadId": lead.ID})
}
