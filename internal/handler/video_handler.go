package handler

import (
	"net/http"

	"mediagrab/internal/model"
	"mediagrab/internal/service"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoHandler handles metadata lookups
type VideoHandler struct {
	metadataService *service.MetadataService
	cfg             *model.Config
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(ms *service.MetadataService, cfg *model.Config) *VideoHandler {
	return &VideoHandler{
		metadataService: ms,
		cfg:             cfg,
	}
}

// GetVideoInfo handles GET /api/video/info
func (h *VideoHandler) GetVideoInfo(c *gin.Context) {
	videoURL := c.Query("url")

	if videoURL == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_url",
			Message: "Video URL is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !validator.ValidateURL(videoURL, h.cfg.Security.AllowedDomains) {
		logger.Logger.Warn("Invalid URL domain", zap.String("url", videoURL))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_domain",
			Message: "URL domain is not allowed",
			Code:    http.StatusBadRequest,
		})
		return
	}

	meta, err := h.metadataService.Resolve(c.Request.Context(), videoURL)
	if err != nil {
		logger.Logger.Error("Failed to resolve metadata", zap.Error(err), zap.String("url", videoURL))
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, meta)
}

// HealthCheck handles GET /api/health
func (h *VideoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "mediagrab",
	})
}
