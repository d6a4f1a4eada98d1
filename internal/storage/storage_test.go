// file: internal/storage/storage_test.go
// version: 1.2.0
// guid: 3c5d7e9f-1a2b-4c5d-8e7f-9a1b3c5d7e9f

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func writeFileAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	tests := []struct {
		in   string
		want string
	}{
		{"video.mp4", "video.mp4"},
		{"../../etc/passwd", "passwd"},
		{"my video (1).mp4", "my_video__1_.mp4"},
		{"clip&x=1.webm", "clip_x_1.webm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.SanitizeFilename(tt.in), "input %q", tt.in)
	}

	// empty input falls back to a timestamped name
	got := m.SanitizeFilename("")
	assert.True(t, strings.HasPrefix(got, "download_"))
	assert.True(t, strings.HasSuffix(got, ".bin"))
}

func TestGeneratePath(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	path, err := m.GeneratePath("https://example.com/videos/clip.mp4?token=abc", 42)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Root(), "user_42", "clip.mp4"), path)

	// user directory is created
	info, err := os.Stat(filepath.Join(m.Root(), "user_42"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGeneratePathNoExtension(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	// extension recoverable from the URL query
	path, err := m.GeneratePath("https://example.com/get?file=x.mp4", 1)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".mp4"), "got %s", path)

	// nothing recoverable: generic binary extension
	path, err = m.GeneratePath("https://example.com/stream", 1)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".bin"), "got %s", path)
}

func TestGeneratePathCollision(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	first, err := m.GeneratePath("https://example.com/clip.mp4", 7)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(first, []byte("x"), 0o644))

	second, err := m.GeneratePath("https://example.com/clip.mp4", 7)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(second, ".mp4"))
}

func TestCleanupRemovesOldAndSiblings(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	oldFile := filepath.Join(m.Root(), "user_1", "movie.mp4")
	sibling := filepath.Join(m.Root(), "user_1", "movie.f137.m4a")
	fresh := filepath.Join(m.Root(), "user_1", "recent.mp4")

	writeFileAged(t, oldFile, 48*time.Hour)
	writeFileAged(t, sibling, 48*time.Hour)
	writeFileAged(t, fresh, 1*time.Hour)

	removed, err := m.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.NoFileExists(t, oldFile)
	assert.NoFileExists(t, sibling)
	assert.FileExists(t, fresh)
}

func TestCleanupSiblingOfOldFileRemovedEvenIfFresh(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	oldFile := filepath.Join(m.Root(), "user_1", "movie.mp4")
	freshSibling := filepath.Join(m.Root(), "user_1", "movie.part")

	writeFileAged(t, oldFile, 48*time.Hour)
	writeFileAged(t, freshSibling, time.Minute)

	removed, err := m.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, freshSibling)
}

func TestCleanupRemovesEmptyUserDirs(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	oldFile := filepath.Join(m.Root(), "user_9", "stale.mp4")
	writeFileAged(t, oldFile, 48*time.Hour)

	_, err := m.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(m.Root(), "user_9"))
}

func TestCleanupSkipsDotfiles(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	keep := filepath.Join(m.Root(), ".gitkeep")
	writeFileAged(t, keep, 100*time.Hour)

	removed, err := m.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.FileExists(t, keep)
}

func TestRemoveWithSiblings(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	main := filepath.Join(m.Root(), "user_3", "video.mp4")
	audio := filepath.Join(m.Root(), "user_3", "video.f251.webm")
	other := filepath.Join(m.Root(), "user_3", "unrelated.mp4")

	writeFileAged(t, main, time.Minute)
	writeFileAged(t, audio, time.Minute)
	writeFileAged(t, other, time.Minute)

	m.RemoveWithSiblings(main)

	assert.NoFileExists(t, main)
	assert.NoFileExists(t, audio)
	assert.FileExists(t, other)

	// removing an already-gone file must not panic
	m.RemoveWithSiblings(main)
}

func TestFileCount(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	assert.Equal(t, 0, m.FileCount())
	writeFileAged(t, filepath.Join(m.Root(), "user_1", "a.mp4"), time.Minute)
	writeFileAged(t, filepath.Join(m.Root(), "user_2", "b.mp4"), time.Minute)
	assert.Equal(t, 2, m.FileCount())
}

func TestFreeSpaceGB(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	free, err := m.FreeSpaceGB()
	require.NoError(t, err)
	assert.Greater(t, free, 0.0)
}

func TestRename(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	planned := filepath.Join(m.Root(), "user_1", "download_1700000000.bin")

	renamed, err := m.Rename(planned, "my clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Root(), "user_1", "my_clip.mp4"), renamed)

	// same name keeps the path
	same, err := m.Rename(renamed, "my_clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, renamed, same)
}

func TestRenameCollision(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	existing := filepath.Join(m.Root(), "user_1", "clip.mp4")
	writeFileAged(t, existing, time.Minute)
	planned := filepath.Join(m.Root(), "user_1", "download_1700000000.bin")

	renamed, err := m.Rename(planned, "clip.mp4")
	require.NoError(t, err)
	assert.NotEqual(t, existing, renamed)
	assert.True(t, strings.HasPrefix(filepath.Base(renamed), "clip_"))
}

func TestCleanupWithProgressReportsRemovals(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	writeFileAged(t, filepath.Join(m.Root(), "user_1", "old.mp4"), 48*time.Hour)
	writeFileAged(t, filepath.Join(m.Root(), "user_1", "new.mp4"), time.Minute)

	var reported []string
	removed, err := m.CleanupWithProgress(24*time.Hour, func(path string) {
		reported = append(reported, path)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.Len(t, reported, 1)
	assert.Equal(t, "old.mp4", filepath.Base(reported[0]))
}
