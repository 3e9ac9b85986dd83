package model

import "errors"

// Sentinel errors for the download core. Handlers map these to HTTP statuses
// with errors.Is; nothing downstream matches on message text.
var (
	ErrInvalidURL          = errors.New("could not extract video id from url")
	ErrNotFound            = errors.New("video not found or unavailable")
	ErrUpstreamUnavailable = errors.New("video catalog unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrFileNotProduced     = errors.New("pipeline produced no output file")
)

// DownloadError wraps any failure during orchestration. The original error
// is preserved intact so callers can still unwrap sentinels and pipeline
// error kinds.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return "download failed: " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// WrapDownload wraps err as a DownloadError unless it already is one.
func WrapDownload(err error) error {
	if err == nil {
		return nil
	}
	var de *DownloadError
	if errors.As(err, &de) {
		return err
	}
	return &DownloadError{Err: err}
}
