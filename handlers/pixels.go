package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixeltrack/api/middleware"
	"pixeltrack/api/models"
	"pixeltrack/api/utils"
)

const (
	queryTimeout = 10 * time.Second

	defaultVisitorLimit = 50
	maxVisitorLimit     = 500

	defaultLeadLimit = 50
	maxLeadLimit     = 500
)

type PixelRepository interface {
	Create(ctx context.Context, p *models.Pixel) error
	Get(ctx context.Context, id string) (*models.Pixel, error)
	ListByAccount(ctx context.Context, accountID int) ([]models.Pixel, error)
	Update(ctx context.Context, p *models.Pixel) error
}

type VisitorLister interface {
	ListByPixel(ctx context.Context, pixelID string, limit int) ([]models.Visitor, error)
}

type LeadLister interface {
	ListByPixel(ctx context.Context, pixelID string, limit int) ([]models.Lead, error)
}

// pixelGuard resolves pixel ids from the URL against the caller's account.
type pixelGuard struct {
	pixels PixelRepository
	logger *zap.Logger
}

// owned loads the pixel named by the route parameter param. It writes a 404
// and returns false when the id is malformed, unknown or owned by another
// account.
func (g pixelGuard) owned(ctx context.Context, c *gin.Context, param string) (*models.Pixel, bool) {
	id := c.Param(param)
	if !utils.IsUUID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tracking pixel not found"})
		return nil, false
	}

	p, err := g.pixels.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tracking pixel not found"})
			return nil, false
		}
		g.logger.Error("Failed to load pixel", zap.String("pixel_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tracking pixel"})
		return nil, false
	}
	if p.AccountID != c.GetInt(middleware.UserIDKey) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tracking pixel not found"})
		return nil, false
	}
	return p, true
}

type PixelHandlers struct {
	pixelGuard
	Visitors VisitorLister
	Leads    LeadLister
	now      func() time.Time
}

func NewPixelHandlers(pixels PixelRepository, visitors VisitorLister, leads LeadLister, logger *zap.Logger) *PixelHandlers {
	return &PixelHandlers{
		pixelGuard: pixelGuard{pixels: pixels, logger: logger},
		Visitors:   visitors,
		Leads:      leads,
		now:        time.Now,
	}
}

func (h *PixelHandlers) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	pixels, err := h.pixels.ListByAccount(ctx, c.GetInt(middleware.UserIDKey))
	if err != nil {
		h.logger.Error("Failed to list pixels", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tracking pixels"})
		return
	}
	c.JSON(http.StatusOK, pixels)
}

func (h *PixelHandlers) Create(c *gin.Context) {
	var req models.CreatePixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = models.PixelActive
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pixel status"})
		return
	}

	now := h.now().UTC()
	p := &models.Pixel{
		ID:        uuid.NewString(),
		AccountID: c.GetInt(middleware.UserIDKey),
		Name:      req.Name,
		Domain:    req.Domain,
		Status:    req.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	if err := h.pixels.Create(ctx, p); err != nil {
		h.logger.Error("Failed to create pixel", zap.Int("account_id", p.AccountID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tracking pixel"})
		return
	}
	h.logger.Info("Tracking pixel created", zap.String("pixel_id", p.ID), zap.Int("account_id", p.AccountID))
	c.JSON(http.StatusCreated, p)
}

func (h *PixelHandlers) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PixelHandlers) Update(c *gin.Context) {
	var req models.UpdatePixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pixel status"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "id")
	if !ok {
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Domain != nil {
		p.Domain = *req.Domain
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	p.UpdatedAt = h.now().UTC()

	if err := h.pixels.Update(ctx, p); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tracking pixel not found"})
			return
		}
		h.logger.Error("Failed to update pixel", zap.String("pixel_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tracking pixel"})
		return
	}
	h.logger.Info("Tracking pixel updated", zap.String("pixel_id", p.ID), zap.String("status", string(p.Status)))
	c.JSON(http.StatusOK, p)
}

// ListVisitors returns the newest visitors of a pixel, ?limit= capped at 500.
func (h *PixelHandlers) ListVisitors(c *gin.Context) {
	limit, ok := utils.QueryInt(c.Query("limit"), defaultVisitorLimit, maxVisitorLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "pixelId")
	if !ok {
		return
	}

	visitors, err := h.Visitors.ListByPixel(ctx, p.ID, limit)
	if err != nil {
		h.logger.Error("Failed to list visitors", zap.String("pixel_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list visitors"})
		return
	}
	c.JSON(http.StatusOK, visitors)
}

// ListLeads returns the newest leads captured for a pixel.
func (h *PixelHandlers) ListLeads(c *gin.Context) {
	limit, ok := utils.QueryInt(c.Query("limit"), defaultLeadLimit, maxLeadLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	p, ok := h.owned(ctx, c, "pixelId")
	if !ok {
		return
	}

	leads, err := h.Leads.ListByPixel(ctx, p.ID, limit)
	if err != nil {
		h.logger.Error("Failed to list leads", zap.String("pixel_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}
