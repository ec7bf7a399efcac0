// Package handlers contains the gin HTTP handlers for the media-monitor API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/preview"
)

// MediaService is the pipeline surface the handlers call into.
type MediaService interface {
	CheckStatus(ctx context.Context, rawURL, hint string) (models.StatusRecord, error)
	GenerateThumbnail(ctx context.Context, rawURL, hint string) (string, error)
	ResetPreviews(rawURL string) error
	PreviewState(rawURL string) preview.State
}

// Watchlist is the monitor surface for watch-list management.
type Watchlist interface {
	Watch(rawURL, hint string) error
	Unwatch(rawURL string) bool
	StopAll() int
	Items() []models.TrackedItem
}

type MediaHandler struct {
	svc    MediaService
	watch  Watchlist
	logger logger.Logger
}

func NewMediaHandler(svc MediaService, watch Watchlist, log logger.Logger) *MediaHandler {
	return &MediaHandler{
		svc:    svc,
		watch:  watch,
		logger: log,
	}
}

// mediaRequest is the common request body: a URL plus an optional declared
// media type hint.
type mediaRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

func (h *MediaHandler) CheckStatus(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.svc.CheckStatus(c.Request.Context(), req.URL, req.Type)
	if err != nil {
		// Only malformed input surfaces as an error; probe failures are
		// ordinary error-status records.
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *MediaHandler) GenerateThumbnail(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ref, err := h.svc.GenerateThumbnail(c.Request.Context(), req.URL, req.Type)
	if err != nil {
		h.thumbnailError(c, req.URL, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"thumbnail_url": ref})
}

func (h *MediaHandler) thumbnailError(c *gin.Context, rawURL string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrUnsupportedCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrSourceUnreachable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File unavailable"})
	case errors.Is(err, models.ErrRetriesExhausted):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Preview retries exhausted; reset the item to try again",
		})
	default:
		h.logger.Error("Thumbnail generation failed",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate thumbnail",
			"message": err.Error(),
		})
	}
}

func (h *MediaHandler) Watch(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.watch.Watch(req.URL, req.Type); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": req.URL, "watching": true})
}

func (h *MediaHandler) Unwatch(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if !h.watch.Unwatch(req.URL) {
		c.JSON(http.StatusNotFound, gin.H{"error": "URL is not being watched"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *MediaHandler) ListWatched(c *gin.Context) {
	items := h.watch.Items()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *MediaHandler) StopAll(c *gin.Context) {
	removed := h.watch.StopAll()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ResetPreview clears an item's retry state and cached previews so the next
// cycle regenerates them. This is the operator escape hatch for Exhausted
// items.
func (h *MediaHandler) ResetPreview(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.svc.ResetPreviews(req.URL); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to reset previews",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset previews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   req.URL,
		"state": h.svc.PreviewState(req.URL),
	})
}
