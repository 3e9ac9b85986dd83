package handler

import (
	"errors"
	"net/http"

	"mediagrab/internal/model"
	"mediagrab/internal/pipeline"
)

// Friendly messages for classified pipeline failures. The raw pipeline text
// is logged server-side; clients only ever see these.
const (
	msgUpstreamAPI = "Video service API error. Please try again later or try a different video."
	msgLiveStream  = "Live streams are not supported for download."
	msgTranscode   = "Error processing media. The video may be in an unsupported format."
	msgGeneric     = "An unexpected error occurred. Please try again later."
)

// classifyError maps a core error onto an HTTP status, a machine-readable
// error code and a safe client-facing message. Classification goes through
// errors.Is/As on the typed taxonomy; no message text is inspected here.
func classifyError(err error) (int, string, string) {
	var pipeErr *pipeline.Error

	switch {
	case errors.Is(err, model.ErrInvalidURL):
		return http.StatusBadRequest, "invalid_url", "Could not extract a video ID from the URL."
	case errors.Is(err, model.ErrNotFound):
		return http.StatusBadRequest, "not_found", "Video not found or unavailable."
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format", "Unsupported format or quality option."
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable", "The video catalog is currently unavailable. Please try again later."
	case errors.As(err, &pipeErr):
		switch pipeErr.Kind {
		case pipeline.KindUpstreamAPI:
			return http.StatusBadRequest, "upstream_api_error", msgUpstreamAPI
		case pipeline.KindLiveStream:
			return http.StatusBadRequest, "live_stream", msgLiveStream
		case pipeline.KindTranscode:
			return http.StatusBadRequest, "transcode_error", msgTranscode
		}
		return http.StatusInternalServerError, "download_failed", msgGeneric
	case errors.Is(err, model.ErrFileNotProduced):
		return http.StatusInternalServerError, "file_not_produced", msgGeneric
	}

	return http.StatusInternalServerError, "internal_error", msgGeneric
}

// errorResponse builds the JSON error body for a classified error.
func errorResponse(err error) (int, model.ErrorResponse) {
	status, code, message := classifyError(err)
	return status, model.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	}
}
