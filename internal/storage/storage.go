// file: internal/storage/storage.go
// version: 1.3.0
// guid: 5a7b9c1d-3e5f-4a7b-9c1d-8e0f2a4b6c8d

// Package storage owns the on-disk download tree: per-user paths, age-based
// cleanup of artifacts and their siblings, and disk-space monitoring.
package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// EmergencyCleanupAge is the age threshold used when disk space runs low.
const EmergencyCleanupAge = time.Hour

// MinFreeGB is the free-space floor below which emergency cleanup triggers.
const MinFreeGB = 1.0

var (
	unsafeChars = regexp.MustCompile(`[^\w.-]`)
	urlExt      = regexp.MustCompile(`\.(mp4|mkv|avi|mov|wmv|flv|webm|mp3|m4a)(?:[?&]|$)`)
)

// Manager handles path generation and cleanup under one storage root.
type Manager struct {
	root string
	now  func() time.Time
}

// NewManager creates a Manager rooted at root, creating the directory when
// missing.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &Manager{root: root, now: time.Now}, nil
}

// Root returns the storage root directory.
func (m *Manager) Root() string { return m.root }

// SanitizeFilename strips directory components and unsafe characters from a
// candidate filename, substituting a timestamped fallback when nothing
// usable remains.
func (m *Manager) SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = fmt.Sprintf("download_%d.bin", m.now().Unix())
	}
	return name
}

// GeneratePath builds a download path for the URL under the user's
// subdirectory. Collisions with existing files are disambiguated with a
// timestamp suffix.
func (m *Manager) GeneratePath(rawURL string, userID int64) (string, error) {
	filename := m.SanitizeFilename(pathComponent(rawURL))

	if !strings.Contains(filename, ".") {
		ts := m.now().Unix()
		if match := urlExt.FindStringSubmatch(strings.ToLower(rawURL)); match != nil {
			filename = fmt.Sprintf("download_%d.%s", ts, match[1])
		} else {
			// generic extension; refined later from response headers
			filename = fmt.Sprintf("download_%d.bin", ts)
		}
	}

	dir := filepath.Join(m.root, fmt.Sprintf("user_%d", userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}

	full := filepath.Join(dir, filename)
	if _, err := os.Stat(full); err == nil {
		ext := filepath.Ext(filename)
		base := strings.TrimSuffix(filename, ext)
		full = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, m.now().Unix(), ext))
	}

	return full, nil
}

// Rename replaces the base name of a planned path with a sanitized version
// of newName, keeping the same directory. Collisions are disambiguated like
// GeneratePath. The file at path need not exist yet.
func (m *Manager) Rename(path, newName string) (string, error) {
	filename := m.SanitizeFilename(newName)
	if filename == "" {
		return path, fmt.Errorf("empty filename after sanitization")
	}
	dir := filepath.Dir(path)
	full := filepath.Join(dir, filename)
	if full == path {
		return path, nil
	}
	if _, err := os.Stat(full); err == nil {
		ext := filepath.Ext(filename)
		base := strings.TrimSuffix(filename, ext)
		full = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, m.now().Unix(), ext))
	}
	return full, nil
}

// pathComponent extracts the last path segment of a URL, without query.
func pathComponent(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return filepath.Base(trimmed)
}

// Cleanup walks the storage root and removes every file older than maxAge
// together with its sibling files (same base name, e.g. pre-mux audio and
// video parts). Empty per-user directories are removed afterwards. Files
// disappearing mid-walk are tolerated. Returns the number of files removed.
func (m *Manager) Cleanup(maxAge time.Duration) (int, error) {
	return m.CleanupWithProgress(maxAge, nil)
}

// CleanupWithProgress is Cleanup with a per-removal callback, used by the
// command-line cleanup to drive a progress bar.
func (m *Manager) CleanupWithProgress(maxAge time.Duration, onRemove func(path string)) (int, error) {
	removed := 0
	cutoff := m.now().Add(-maxAge)

	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// entry vanished mid-walk; keep going
			return nil
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		n := m.removeWithSiblings(path)
		removed += n
		if onRemove != nil && n > 0 {
			onRemove(path)
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleanup walk failed: %w", err)
	}

	m.removeEmptyUserDirs()
	return removed, nil
}

// RemoveWithSiblings deletes the file and every sibling sharing its base
// name. Used after delivery and on failed downloads.
func (m *Manager) RemoveWithSiblings(path string) {
	m.removeWithSiblings(path)
}

func (m *Manager) removeWithSiblings(path string) int {
	removed := 0
	if err := os.Remove(path); err == nil {
		removed++
		log.Printf("[INFO] removed file: %s", path)
	} else if !os.IsNotExist(err) {
		log.Printf("[ERROR] failed to remove %s: %v", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return removed
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base) {
			continue
		}
		sibling := filepath.Join(dir, entry.Name())
		if sibling == path {
			continue
		}
		if err := os.Remove(sibling); err == nil {
			removed++
			log.Printf("[INFO] removed sibling file: %s", sibling)
		} else if !os.IsNotExist(err) {
			log.Printf("[ERROR] failed to remove sibling %s: %v", sibling, err)
		}
	}
	return removed
}

func (m *Manager) removeEmptyUserDirs() {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "user_") {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		children, err := os.ReadDir(dir)
		if err != nil || len(children) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			log.Printf("[INFO] removed empty directory: %s", dir)
		}
	}
}

// FileCount returns the number of files under the storage root.
func (m *Manager) FileCount() int {
	count := 0
	_ = filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// FreeSpaceGB returns free gigabytes on the filesystem holding the root.
func (m *Manager) FreeSpaceGB() (float64, error) {
	_, free, err := getDiskStats(m.root)
	if err != nil {
		return 0, err
	}
	return float64(free) / (1024 * 1024 * 1024), nil
}

// DiskUsage returns total, used and free gigabytes for the storage root.
func (m *Manager) DiskUsage() (totalGB, usedGB, freeGB float64, err error) {
	total, free, err := getDiskStats(m.root)
	if err != nil {
		return 0, 0, 0, err
	}
	totalGB = float64(total) / (1024 * 1024 * 1024)
	freeGB = float64(free) / (1024 * 1024 * 1024)
	usedGB = totalGB - freeGB
	return totalGB, usedGB, freeGB, nil
}

// EnsureFreeSpace checks free space and runs an emergency short-age cleanup
// when it drops under the floor. Returns the free space observed.
func (m *Manager) EnsureFreeSpace() (float64, error) {
	free, err := m.FreeSpaceGB()
	if err != nil {
		return 0, err
	}
	if free < MinFreeGB {
		log.Printf("[WARN] low disk space: only %.2fGB available, running emergency cleanup", free)
		if _, err := m.Cleanup(EmergencyCleanupAge); err != nil {
			log.Printf("[ERROR] emergency cleanup failed: %v", err)
		}
	}
	return free, nil
}
