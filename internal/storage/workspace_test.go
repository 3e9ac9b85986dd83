package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/internal/model"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws := NewWorkspace(&model.StorageConfig{WorkspaceRoot: t.TempDir()})
	require.NoError(t, ws.EnsureRoot())
	return ws
}

func TestAcquireRelease(t *testing.T) {
	ws := newTestWorkspace(t)

	dir, err := ws.Acquire()
	require.NoError(t, err)
	assert.DirExists(t, dir)

	dir2, err := ws.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, dir, dir2)

	require.NoError(t, ws.Release(dir))
	assert.NoDirExists(t, dir)
	assert.DirExists(t, dir2)
}

func TestReleaseOutsideRootRefused(t *testing.T) {
	ws := newTestWorkspace(t)

	other := t.TempDir()
	err := ws.Release(other)
	assert.Error(t, err)
	assert.DirExists(t, other)

	assert.NoError(t, ws.Release(""))
}

func TestSweepOrphans(t *testing.T) {
	ws := newTestWorkspace(t)

	orphan1, err := ws.Acquire()
	require.NoError(t, err)
	orphan2, err := ws.Acquire()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(orphan1, "leftover.mp4"), []byte("x"), 0o644))

	// Unrelated entries in the root are left alone.
	keepDir := filepath.Join(ws.root, "keep")
	require.NoError(t, os.Mkdir(keepDir, 0o755))
	keepFile := filepath.Join(ws.root, "job-looking-file")
	require.NoError(t, os.WriteFile(keepFile, []byte("x"), 0o644))

	swept, err := ws.SweepOrphans()
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	assert.NoDirExists(t, orphan1)
	assert.NoDirExists(t, orphan2)
	assert.DirExists(t, keepDir)
	assert.FileExists(t, keepFile)
}

func TestSweepOrphansMissingRoot(t *testing.T) {
	ws := NewWorkspace(&model.StorageConfig{WorkspaceRoot: filepath.Join(t.TempDir(), "absent")})

	swept, err := ws.SweepOrphans()
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestFinalizePrimaryPath(t *testing.T) {
	ws := newTestWorkspace(t)
	dir, err := ws.Acquire()
	require.NoError(t, err)

	tempPath := filepath.Join(dir, "temp_Demo.mp3")
	require.NoError(t, os.WriteFile(tempPath, []byte("audio"), 0o644))

	path, err := ws.Finalize(dir, "temp_Demo.mp3", "Demo.mp3")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Demo.mp3"), path)
	assert.FileExists(t, path)
	assert.NoFileExists(t, tempPath)
}

func TestFinalizeFallbackScan(t *testing.T) {
	ws := newTestWorkspace(t)
	dir, err := ws.Acquire()
	require.NoError(t, err)

	// The pipeline wrote under a name we did not expect, but the temp
	// prefix and the extension still match.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp_Demo #1.mp3"), []byte("audio"), 0o644))
	// Distractors: wrong extension, wrong prefix, a directory.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp_Demo.part"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "temp_dir.mp3"), 0o755))

	path, err := ws.Finalize(dir, "temp_Demo.mp3", "Demo.mp3")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Demo.mp3"), path)
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(dir, "temp_Demo #1.mp3"))
}

func TestFinalizeNothingProduced(t *testing.T) {
	ws := newTestWorkspace(t)
	dir, err := ws.Acquire()
	require.NoError(t, err)

	_, err = ws.Finalize(dir, "temp_Demo.mp3", "Demo.mp3")
	assert.ErrorIs(t, err, model.ErrFileNotProduced)
}

func TestTempName(t *testing.T) {
	assert.Equal(t, "temp_Demo", TempName("Demo"))
}
