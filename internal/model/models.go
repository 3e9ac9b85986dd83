package model

import (
	"strings"
	"time"
)

// Standard quality options presented to clients. These are presentational;
// the pipeline picks the best available stream at or below the request.
var (
	StandardVideoQualities = []string{"1080p", "720p", "480p", "360p", "240p"}
	StandardAudioQualities = []string{"320kbps", "256kbps", "192kbps", "128kbps", "96kbps"}
)

// Metadata contains catalog information about a video
type Metadata struct {
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	DurationSeconds int      `json:"length"`
	ThumbnailURL    string   `json:"thumbnail"`
	VideoQualities  []string `json:"video_resolutions"`
	AudioQualities  []string `json:"audio_bitrates"`
}

// Format selects the output shape of a download.
type Format string

const (
	FormatAudio Format = "audio"
	FormatVideo Format = "video"
)

// Extension returns the output container extension for the format.
func (f Format) Extension() string {
	if f == FormatAudio {
		return ".mp3"
	}
	return ".mp4"
}

// ParseFormat parses a client-supplied format token. The container names
// mp3/mp4 are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audio", "mp3":
		return FormatAudio, nil
	case "video", "mp4":
		return FormatVideo, nil
	}
	return "", ErrUnsupportedFormat
}

// Phase is a stage of the download pipeline.
type Phase string

const (
	PhasePreparing   Phase = "Preparing"
	PhaseDownloading Phase = "Downloading"
	PhaseProcessing  Phase = "Processing"
	PhaseComplete    Phase = "Complete"
)

// rank orders phases; transitions only ever move forward.
func (p Phase) rank() int {
	switch p {
	case PhasePreparing:
		return 0
	case PhaseDownloading:
		return 1
	case PhaseProcessing:
		return 2
	case PhaseComplete:
		return 3
	}
	return -1
}

// After reports whether p is a later phase than q.
func (p Phase) After(q Phase) bool {
	return p.rank() > q.rank()
}

// ProgressSnapshot is the pollable state of one download job
type ProgressSnapshot struct {
	Percent int    `json:"progress"`
	File    string `json:"file"`
	Phase   Phase  `json:"phase"`
	ETA     string `json:"eta"`
}

// JobStatus is the lifecycle state of a download job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// DownloadJob tracks one asynchronous download from request to artifact
type DownloadJob struct {
	ID         string
	URL        string
	Format     Format
	Quality    string
	Status     JobStatus
	Dir        string
	FilePath   string
	Filename   string
	Err        error
	CreatedAt  time.Time
	FinishedAt time.Time
}

// DownloadRequest represents a user's download request
type DownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Format  string `json:"format" binding:"required"`
	Quality string `json:"quality"`
}

// DownloadResponse is returned when a download job is accepted
type DownloadResponse struct {
	ID           string `json:"id"`
	ProgressLink string `json:"progress_link"`
	DownloadLink string `json:"download_link"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
