// Package pipeline adapts the external fetch/transcode toolchain behind a
// small engine interface with structured progress events and error kinds.
package pipeline

import "context"

// EventKind identifies a progress event emitted by the engine.
type EventKind int

const (
	EventDownloading EventKind = iota
	EventFinished
	EventPostProcessing
)

// Step names a post-processing stage inside the pipeline.
type Step string

const (
	StepMoveFile     Step = "MoveFiles"
	StepVideoConvert Step = "VideoConvertor"
	StepExtractAudio Step = "ExtractAudio"
)

// Event is one progress notification from a running pipeline. Byte counts
// are zero when the pipeline does not report them.
type Event struct {
	Kind               EventKind
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	ETA                string
	Step               Step
}

// PostProcess describes one post-processing step requested from the engine.
type PostProcess struct {
	Step    Step
	Codec   string // target codec for audio extraction
	Format  string // target container for video conversion
	Bitrate int    // kbps, audio extraction only
}

// Spec is the immutable configuration for one pipeline invocation.
type Spec struct {
	SourceURL      string
	FormatSelector string
	OutputTemplate string
	MergeContainer string
	PostProcessing []PostProcess
}

// Engine runs a fetch/transcode pipeline to completion. Implementations
// invoke onEvent synchronously from the pipeline's execution context; onEvent
// must not block. Run returns once every requested output file is produced.
type Engine interface {
	Run(ctx context.Context, spec Spec, onEvent func(Event)) error
}

// ErrorKind classifies pipeline failures so callers never have to match on
// error text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUpstreamAPI
	KindLiveStream
	KindTranscode
)

// String returns a readable kind name for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindUpstreamAPI:
		return "upstream_api"
	case KindLiveStream:
		return "live_stream"
	case KindTranscode:
		return "transcode"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure. Msg preserves the pipeline's own
// output verbatim for server-side logs.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}
