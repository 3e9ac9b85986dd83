package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"mediagrab/internal/model"
	"mediagrab/internal/pipeline"
	"mediagrab/internal/storage"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DownloadService orchestrates downloads: it resolves metadata for naming,
// builds the pipeline spec, drives the engine with progress wired to the
// tracker, and finalizes the output file. Jobs run asynchronously; each one
// is identified by a uuid handed back to the caller for polling.
type DownloadService struct {
	cfg       *model.Config
	metadata  *MetadataService
	progress  *ProgressService
	workspace *storage.Workspace
	engine    pipeline.Engine

	mu       sync.RWMutex
	jobs     map[string]*model.DownloadJob
	quitChan chan struct{}
}

// NewDownloadService creates a new download service
func NewDownloadService(cfg *model.Config, ms *MetadataService, ps *ProgressService, ws *storage.Workspace, engine pipeline.Engine) *DownloadService {
	return &DownloadService{
		cfg:       cfg,
		metadata:  ms,
		progress:  ps,
		workspace: ws,
		engine:    engine,
		jobs:      make(map[string]*model.DownloadJob),
		quitChan:  make(chan struct{}),
	}
}

// Start launches the janitor that retires expired jobs.
func (s *DownloadService) Start() {
	go s.cleanupRoutine()
}

// Stop stops the janitor.
func (s *DownloadService) Stop() {
	close(s.quitChan)
}

// StartJob accepts a download request and runs it in the background,
// returning the job handle immediately.
func (s *DownloadService) StartJob(url string, format model.Format, quality string) *model.DownloadJob {
	job := &model.DownloadJob{
		ID:        uuid.NewString(),
		URL:       url,
		Format:    format,
		Quality:   quality,
		Status:    model.JobQueued,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.progress.Create(job.ID)

	go s.run(job)

	logger.Logger.Info("Download job accepted",
		zap.String("job_id", job.ID),
		zap.String("url", url),
		zap.String("format", string(format)),
		zap.String("quality", quality))

	return job
}

// Job returns a copy of the job record.
func (s *DownloadService) Job(jobID string) (model.DownloadJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return model.DownloadJob{}, false
	}
	return *job, true
}

// run executes one job and records its outcome.
func (s *DownloadService) run(job *model.DownloadJob) {
	ctx := context.Background()

	s.mu.Lock()
	job.Status = model.JobRunning
	s.mu.Unlock()

	path, err := s.Orchestrate(ctx, job)

	s.mu.Lock()
	defer s.mu.Unlock()

	job.FinishedAt = time.Now()
	if err != nil {
		job.Status = model.JobFailed
		job.Err = err
		logger.Logger.Error("Download job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	job.Status = model.JobCompleted
	job.FilePath = path
	job.Filename = filepath.Base(path)
	logger.Logger.Info("Download job completed", zap.String("job_id", job.ID), zap.String("path", path))
}

// Orchestrate runs the full download synchronously: workspace acquisition,
// metadata resolution for naming, pipeline invocation and finalization. Any
// failure comes back as a DownloadError wrapping the original cause.
func (s *DownloadService) Orchestrate(ctx context.Context, job *model.DownloadJob) (string, error) {
	s.progress.Create(job.ID)

	dir, err := s.workspace.Acquire()
	if err != nil {
		return "", model.WrapDownload(err)
	}
	s.mu.Lock()
	job.Dir = dir
	s.mu.Unlock()

	meta, err := s.metadata.Resolve(ctx, job.URL)
	if err != nil {
		s.releaseQuietly(dir)
		return "", model.WrapDownload(err)
	}

	title := validator.TruncateFilename(validator.SanitizeFilename(meta.Title), s.cfg.Security.MaxTitleLength)
	s.progress.SetLabel(job.ID, title)

	var path string
	switch job.Format {
	case model.FormatVideo:
		path, err = s.runVideo(ctx, job, dir, title)
	case model.FormatAudio:
		path, err = s.runAudio(ctx, job, dir, title)
	default:
		err = fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, job.Format)
	}

	if err != nil {
		s.releaseQuietly(dir)
		return "", model.WrapDownload(err)
	}

	s.progress.Complete(job.ID)
	return path, nil
}

// runVideo downloads the best streams at or below the requested height and
// merges them into a single mp4.
func (s *DownloadService) runVideo(ctx context.Context, job *model.DownloadJob, dir, title string) (string, error) {
	height, err := parseResolution(job.Quality)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(dir, title+job.Format.Extension())
	spec := pipeline.Spec{
		SourceURL:      job.URL,
		FormatSelector: fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height),
		OutputTemplate: outputPath,
		MergeContainer: "mp4",
		PostProcessing: []pipeline.PostProcess{
			{Step: pipeline.StepVideoConvert, Format: "mp4"},
		},
	}

	if err := s.engine.Run(ctx, spec, s.eventSink(job.ID)); err != nil {
		return "", err
	}
	return outputPath, nil
}

// runAudio downloads the best audio stream and extracts it to mp3 at the
// requested bitrate. The pipeline appends its own extension to the temp
// output, so the finalizer reconciles the real name afterwards.
func (s *DownloadService) runAudio(ctx context.Context, job *model.DownloadJob, dir, title string) (string, error) {
	bitrate, err := parseBitrate(job.Quality)
	if err != nil {
		return "", err
	}

	tempName := storage.TempName(title)
	spec := pipeline.Spec{
		SourceURL:      job.URL,
		FormatSelector: "bestaudio/best",
		OutputTemplate: filepath.Join(dir, tempName),
		PostProcessing: []pipeline.PostProcess{
			{Step: pipeline.StepExtractAudio, Codec: "mp3", Bitrate: bitrate},
		},
	}

	if err := s.engine.Run(ctx, spec, s.eventSink(job.ID)); err != nil {
		return "", err
	}

	ext := job.Format.Extension()
	return s.workspace.Finalize(dir, tempName+ext, title+ext)
}

// eventSink forwards pipeline events to the job's progress snapshot.
func (s *DownloadService) eventSink(jobID string) func(pipeline.Event) {
	return func(ev pipeline.Event) {
		s.progress.Record(jobID, ev)
	}
}

func (s *DownloadService) releaseQuietly(dir string) {
	if err := s.workspace.Release(dir); err != nil {
		logger.Logger.Error("Failed to release workspace", zap.String("dir", dir), zap.Error(err))
	}
}

// parseResolution converts a resolution label like "720p" to a pixel-height
// ceiling.
func parseResolution(quality string) (int, error) {
	height, err := strconv.Atoi(strings.TrimSuffix(quality, "p"))
	if err != nil || height <= 0 {
		return 0, fmt.Errorf("%w: resolution %q", model.ErrUnsupportedFormat, quality)
	}
	return height, nil
}

// parseBitrate converts a bitrate label like "128kbps" to a kbps floor.
func parseBitrate(quality string) (int, error) {
	kbps, err := strconv.Atoi(strings.TrimSuffix(quality, "kbps"))
	if err != nil || kbps <= 0 {
		return 0, fmt.Errorf("%w: bitrate %q", model.ErrUnsupportedFormat, quality)
	}
	return kbps, nil
}

// cleanupRoutine periodically retires finished jobs past their TTL together
// with their workspaces and progress entries.
func (s *DownloadService) cleanupRoutine() {
	interval := time.Duration(s.cfg.Storage.CleanupInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Logger.Info("Job cleanup routine started",
		zap.Duration("interval", interval),
		zap.Int("job_ttl_seconds", s.cfg.Storage.JobTTLSeconds))

	for {
		select {
		case <-s.quitChan:
			logger.Logger.Info("Job cleanup routine stopped")
			return
		case <-ticker.C:
			s.cleanupExpiredJobs()
		}
	}
}

// cleanupExpiredJobs removes finished jobs whose TTL has elapsed.
func (s *DownloadService) cleanupExpiredJobs() {
	ttl := time.Duration(s.cfg.Storage.JobTTLSeconds) * time.Second
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	var expired []*model.DownloadJob
	for id, job := range s.jobs {
		done := job.Status == model.JobCompleted || job.Status == model.JobFailed
		if done && job.FinishedAt.Before(cutoff) {
			expired = append(expired, job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		s.progress.Remove(job.ID)
		if job.Status == model.JobCompleted {
			s.releaseQuietly(job.Dir)
		}
		logger.Logger.Info("Expired job retired", zap.String("job_id", job.ID))
	}
}
