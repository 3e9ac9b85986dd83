package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mediagrab/internal/model"
	"mediagrab/pkg/logger"

	"go.uber.org/zap"
)

// progressTemplate makes yt-dlp print machine-readable progress lines on
// stdout: "PROGRESS <status> <downloaded> <total> <estimate> <eta>". Missing
// values come through as "NA".
const progressTemplate = "PROGRESS %(progress.status)s %(progress.downloaded_bytes)s %(progress.total_bytes)s %(progress.total_bytes_estimate)s %(progress._eta_str)s"

// Ytdlp drives the yt-dlp binary as a subprocess.
type Ytdlp struct {
	cfg *model.PipelineConfig
}

// NewYtdlp creates a yt-dlp backed engine.
func NewYtdlp(cfg *model.PipelineConfig) *Ytdlp {
	return &Ytdlp{cfg: cfg}
}

// Run executes yt-dlp for the given spec, streaming progress events parsed
// from stdout. Stderr is captured for error classification.
func (y *Ytdlp) Run(ctx context.Context, spec Spec, onEvent func(Event)) error {
	if y.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(y.cfg.Timeout)*time.Second)
		defer cancel()
	}

	args := buildArgs(spec)
	logger.Logger.Debug("Starting pipeline", zap.String("binary", y.cfg.YtdlpPath), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, y.cfg.YtdlpPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &Error{Kind: KindUnknown, Msg: err.Error()}
	}

	if err := cmd.Start(); err != nil {
		return &Error{Kind: KindUnknown, Msg: err.Error()}
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if ev, ok := parseLine(line); ok {
			onEvent(ev)
		}
	}

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		logger.Logger.Error("Pipeline failed", zap.String("detail", detail))
		return classify(detail)
	}

	return nil
}

// buildArgs translates a Spec into yt-dlp command-line arguments.
func buildArgs(spec Spec) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--newline",
		"--progress",
		"--progress-template", "download:" + progressTemplate,
		"-f", spec.FormatSelector,
		"-o", spec.OutputTemplate,
	}

	if spec.MergeContainer != "" {
		args = append(args, "--merge-output-format", spec.MergeContainer)
	}

	for _, pp := range spec.PostProcessing {
		switch pp.Step {
		case StepExtractAudio:
			args = append(args, "--extract-audio", "--audio-format", pp.Codec)
			if pp.Bitrate > 0 {
				args = append(args, "--audio-quality", strconv.Itoa(pp.Bitrate))
			}
		case StepVideoConvert:
			args = append(args, "--recode-video", pp.Format)
		}
	}

	return append(args, spec.SourceURL)
}

// parseLine turns one stdout line into a progress event. Lines that carry no
// progress information are skipped.
func parseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "PROGRESS ") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return Event{}, false
		}

		if fields[1] == "finished" {
			return Event{Kind: EventFinished}, true
		}
		if fields[1] != "downloading" {
			return Event{}, false
		}

		ev := Event{
			Kind:               EventDownloading,
			DownloadedBytes:    parseBytes(fields[2]),
			TotalBytes:         parseBytes(fields[3]),
			TotalBytesEstimate: parseBytes(fields[4]),
		}
		if len(fields) > 5 && fields[5] != "NA" {
			ev.ETA = fields[5]
		}
		return ev, true
	}

	// Post-processor banner lines, e.g. "[ExtractAudio] Destination: x.mp3".
	switch {
	case strings.HasPrefix(line, "[MoveFiles]"):
		return Event{Kind: EventPostProcessing, Step: StepMoveFile}, true
	case strings.HasPrefix(line, "[VideoConvertor]"), strings.HasPrefix(line, "[Merger]"):
		return Event{Kind: EventPostProcessing, Step: StepVideoConvert}, true
	case strings.HasPrefix(line, "[ExtractAudio]"):
		return Event{Kind: EventPostProcessing, Step: StepExtractAudio}, true
	}

	return Event{}, false
}

func parseBytes(s string) int64 {
	if s == "NA" {
		return 0
	}
	// yt-dlp renders byte counts as floats in some versions
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

// classify maps raw pipeline output onto a stable error kind. The original
// text travels along untouched for logging.
func classify(detail string) *Error {
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(lower, "live stream"), strings.Contains(lower, "live event"):
		return &Error{Kind: KindLiveStream, Msg: detail}
	case strings.Contains(lower, "ffmpeg"), strings.Contains(lower, "postprocess"):
		return &Error{Kind: KindTranscode, Msg: detail}
	case strings.Contains(lower, "http error 400"), strings.Contains(lower, "html5 player"), strings.Contains(lower, "quota"):
		return &Error{Kind: KindUpstreamAPI, Msg: detail}
	}

	return &Error{Kind: KindUnknown, Msg: detail}
}

var _ Engine = (*Ytdlp)(nil)
