package service

import (
	"sync"

	"mediagrab/internal/model"
	"mediagrab/internal/pipeline"
)

// Post-processing percent floors. A floor lifts the percent to at least its
// value; it never pulls an already-higher percent back down.
const (
	floorMoveFile     = 80
	floorVideoConvert = 90
	floorExtractAudio = 95
)

// ProgressService keeps a pollable progress snapshot per download job.
// Record is the only mutator; Snapshot may run concurrently from any number
// of polling readers and never observes a torn record.
type ProgressService struct {
	mu      sync.RWMutex
	entries map[string]*model.ProgressSnapshot
}

// NewProgressService creates a new progress service
func NewProgressService() *ProgressService {
	return &ProgressService{
		entries: make(map[string]*model.ProgressSnapshot),
	}
}

// Create resets the snapshot for a job to its initial state.
func (ps *ProgressService) Create(jobID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.entries[jobID] = &model.ProgressSnapshot{Percent: 0, Phase: model.PhasePreparing}
}

// SetLabel records the display name of the file being produced.
func (ps *ProgressService) SetLabel(jobID, label string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if snap, ok := ps.entries[jobID]; ok {
		snap.File = label
	}
}

// Record applies one pipeline event to a job's snapshot. Percent never
// decreases and the phase never moves backward, regardless of event order.
// Events for unknown jobs and unrecognized event kinds are ignored.
func (ps *ProgressService) Record(jobID string, ev pipeline.Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	snap, ok := ps.entries[jobID]
	if !ok {
		return
	}

	switch ev.Kind {
	case pipeline.EventDownloading:
		total := ev.TotalBytes
		if total <= 0 {
			total = ev.TotalBytesEstimate
		}
		if total > 0 {
			raisePercent(snap, int(ev.DownloadedBytes*100/total))
		}
		advancePhase(snap, model.PhaseDownloading)
		if ev.ETA != "" {
			snap.ETA = ev.ETA
		}

	case pipeline.EventFinished:
		raisePercent(snap, 100)
		advancePhase(snap, model.PhaseProcessing)
		snap.ETA = ""

	case pipeline.EventPostProcessing:
		advancePhase(snap, model.PhaseProcessing)
		switch ev.Step {
		case pipeline.StepMoveFile:
			raisePercent(snap, floorMoveFile)
		case pipeline.StepVideoConvert:
			raisePercent(snap, floorVideoConvert)
		case pipeline.StepExtractAudio:
			raisePercent(snap, floorExtractAudio)
		}
	}
}

// Complete marks a job's snapshot as finished.
func (ps *ProgressService) Complete(jobID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if snap, ok := ps.entries[jobID]; ok {
		raisePercent(snap, 100)
		advancePhase(snap, model.PhaseComplete)
		snap.ETA = ""
	}
}

// Snapshot returns a copy of the job's current progress.
func (ps *ProgressService) Snapshot(jobID string) (model.ProgressSnapshot, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	snap, ok := ps.entries[jobID]
	if !ok {
		return model.ProgressSnapshot{}, false
	}
	return *snap, true
}

// Remove drops a job's snapshot once the job record itself is retired.
func (ps *ProgressService) Remove(jobID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.entries, jobID)
}

func raisePercent(snap *model.ProgressSnapshot, percent int) {
	if percent > 100 {
		percent = 100
	}
	if percent > snap.Percent {
		snap.Percent = percent
	}
}

func advancePhase(snap *model.ProgressSnapshot, phase model.Phase) {
	if phase.After(snap.Phase) {
		snap.Phase = phase
	}
}
