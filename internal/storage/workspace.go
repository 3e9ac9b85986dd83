// Package storage owns the temporary workspaces downloads run in: scoped
// per-job directories, the startup sweep for orphans, and reconciling the
// pipeline's output name with the requested final filename.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediagrab/internal/model"
	"mediagrab/pkg/logger"

	"go.uber.org/zap"
)

// jobDirPattern prefixes every per-job directory so orphans are
// recognizable during the startup sweep.
const jobDirPattern = "job-"

// tempFilePrefix marks pipeline outputs that still need their final name.
const tempFilePrefix = "temp_"

// Workspace manages per-job temp directories under a single root.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace manager rooted at cfg.WorkspaceRoot.
func NewWorkspace(cfg *model.StorageConfig) *Workspace {
	return &Workspace{root: cfg.WorkspaceRoot}
}

// EnsureRoot creates the workspace root if missing.
func (w *Workspace) EnsureRoot() error {
	return os.MkdirAll(w.root, 0o755)
}

// Acquire creates a fresh, exclusively-owned directory for one job.
func (w *Workspace) Acquire() (string, error) {
	dir, err := os.MkdirTemp(w.root, jobDirPattern)
	if err != nil {
		return "", fmt.Errorf("acquire workspace: %w", err)
	}
	logger.Logger.Debug("Workspace acquired", zap.String("dir", dir))
	return dir, nil
}

// Release removes a job directory and everything in it. Directories outside
// the root are refused.
func (w *Workspace) Release(dir string) error {
	if dir == "" {
		return nil
	}
	if filepath.Dir(dir) != filepath.Clean(w.root) {
		return fmt.Errorf("refusing to release %q: outside workspace root", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("release workspace: %w", err)
	}
	logger.Logger.Debug("Workspace released", zap.String("dir", dir))
	return nil
}

// SweepOrphans removes job directories left behind by a previous process.
// Called once at startup, before any job runs.
func (w *Workspace) SweepOrphans() (int, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), jobDirPattern) {
			continue
		}
		path := filepath.Join(w.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Logger.Error("Failed to sweep orphaned workspace", zap.String("dir", path), zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}

// TempName returns the temporary output name used while the pipeline
// controls the extension.
func TempName(title string) string {
	return tempFilePrefix + title
}

// Finalize renames the pipeline's output to the requested final name. The
// pipeline appends its own extension, so when the expected name is absent the
// directory is scanned for any temp-prefixed file with the target extension.
// Zero matches is a hard error: the pipeline produced nothing usable.
func (w *Workspace) Finalize(dir, expectedTempName, finalName string) (string, error) {
	finalPath := filepath.Join(dir, finalName)

	expectedPath := filepath.Join(dir, expectedTempName)
	if _, err := os.Stat(expectedPath); err == nil {
		if err := os.Rename(expectedPath, finalPath); err != nil {
			return "", fmt.Errorf("finalize output: %w", err)
		}
		return finalPath, nil
	}

	logger.Logger.Warn("Expected pipeline output missing, scanning workspace",
		zap.String("expected", expectedPath))

	ext := filepath.Ext(finalName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("finalize output: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, tempFilePrefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		if err := os.Rename(filepath.Join(dir, name), finalPath); err != nil {
			return "", fmt.Errorf("finalize output: %w", err)
		}
		return finalPath, nil
	}

	return "", fmt.Errorf("%w: expected %s", model.ErrFileNotProduced, expectedTempName)
}
