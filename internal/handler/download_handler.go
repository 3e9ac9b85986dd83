package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"mediagrab/internal/model"
	"mediagrab/internal/service"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Default quality per format when the client leaves it unset.
const (
	defaultVideoQuality = "720p"
	defaultAudioQuality = "192kbps"
)

// DownloadHandler handles download job requests
type DownloadHandler struct {
	downloadService *service.DownloadService
	progressService *service.ProgressService
	cfg             *model.Config
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(ds *service.DownloadService, ps *service.ProgressService, cfg *model.Config) *DownloadHandler {
	return &DownloadHandler{
		downloadService: ds,
		progressService: ps,
		cfg:             cfg,
	}
}

// StartDownload handles POST /api/download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req model.DownloadRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger.Warn("Invalid download request", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "URL and format are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !validator.ValidateURL(req.URL, h.cfg.Security.AllowedDomains) {
		logger.Logger.Warn("Invalid URL domain", zap.String("url", req.URL))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_domain",
			Message: "URL domain is not allowed",
			Code:    http.StatusBadRequest,
		})
		return
	}

	format, err := model.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "unsupported_format",
			Message: "Invalid format. Supported formats are audio (mp3) and video (mp4).",
			Code:    http.StatusBadRequest,
		})
		return
	}

	quality := req.Quality
	if quality == "" {
		if format == model.FormatAudio {
			quality = defaultAudioQuality
		} else {
			quality = defaultVideoQuality
		}
	}

	job := h.downloadService.StartJob(req.URL, format, quality)

	c.JSON(http.StatusAccepted, model.DownloadResponse{
		ID:           job.ID,
		ProgressLink: fmt.Sprintf("/api/download/%s/progress", job.ID),
		DownloadLink: fmt.Sprintf("/api/download/%s", job.ID),
	})
}

// GetProgress handles GET /api/download/:id/progress
func (h *DownloadHandler) GetProgress(c *gin.Context) {
	jobID := c.Param("id")

	snap, ok := h.progressService.Snapshot(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "Unknown download job",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// GetFile handles GET /api/download/:id. A finished job streams its file;
// an in-flight job answers 202 with the current progress snapshot.
func (h *DownloadHandler) GetFile(c *gin.Context) {
	jobID := c.Param("id")

	job, ok := h.downloadService.Job(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "Unknown download job",
			Code:    http.StatusNotFound,
		})
		return
	}

	switch job.Status {
	case model.JobQueued, model.JobRunning:
		snap, _ := h.progressService.Snapshot(jobID)
		c.JSON(http.StatusAccepted, snap)
		return

	case model.JobFailed:
		logger.Logger.Error("Failed job requested", zap.String("job_id", jobID), zap.Error(job.Err))
		status, body := errorResponse(job.Err)
		c.JSON(status, body)
		return
	}

	if _, err := os.Stat(job.FilePath); err != nil {
		logger.Logger.Warn("Job artifact no longer exists", zap.String("path", job.FilePath))
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "File no longer available",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.Header("Content-Disposition", buildContentDispositionHeader(job.Filename))
	c.Header("Content-Type", mimeTypeFor(job.Filename))
	c.File(job.FilePath)

	logger.Logger.Info("File streamed to client",
		zap.String("job_id", jobID),
		zap.String("filename", job.Filename))
}

// mimeTypeFor derives the response MIME type from the output extension.
func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	}
	return "application/octet-stream"
}

// buildContentDispositionHeader builds a proper Content-Disposition header
// with RFC 5987 encoding for unicode and special characters
func buildContentDispositionHeader(filename string) string {
	needsEncoding := strings.ContainsAny(filename, " \t\n\r\";\\,")
	for _, r := range filename {
		if r > 127 {
			needsEncoding = true
			break
		}
	}

	if !needsEncoding {
		return fmt.Sprintf(`attachment; filename="%s"`, filename)
	}

	return fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.QueryEscape(filename))
}
