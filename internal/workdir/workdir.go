package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"file-forge/internal/logging"
	"file-forge/internal/metrics"
)

// Manager creates and tears down scratch directories under a single root.
type Manager struct {
	root string
}

// New verifies the work root exists and is writable and returns a Manager.
func New(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work root %s: %w", root, err)
	}

	testFile := filepath.Join(root, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return nil, fmt.Errorf("work root %s is not writable: %w", root, err)
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't fail since write access was confirmed
	}

	return &Manager{root: root}, nil
}

// Root returns the work root path.
func (m *Manager) Root() string {
	return m.root
}

// Scratch is a single request's working directory.
type Scratch struct {
	path    string
	created time.Time
}

// Create makes a fresh scratch directory. The prefix names the operation for
// easier debugging of leftovers (e.g. "img-compress").
func (m *Manager) Create(prefix string) (*Scratch, error) {
	dir, err := os.MkdirTemp(m.root, prefix+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	metrics.ScratchDirsActive.Inc()
	logging.Debug("Created scratch directory %s", dir)

	return &Scratch{path: dir, created: time.Now()}, nil
}

// Path returns the scratch directory path.
func (s *Scratch) Path() string {
	return s.path
}

// Join returns a path inside the scratch directory.
func (s *Scratch) Join(elem ...string) string {
	return filepath.Join(append([]string{s.path}, elem...)...)
}

// Mkdir creates a named subdirectory inside the scratch directory and
// returns its path.
func (s *Scratch) Mkdir(name string) (string, error) {
	dir := s.Join(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// Remove deletes the scratch directory and everything in it. Safe to call
// more than once.
func (s *Scratch) Remove() {
	if s.path == "" {
		return
	}
	if err := os.RemoveAll(s.path); err != nil {
		logging.Warn("Failed to remove scratch directory %s: %v", s.path, err)
		return
	}
	metrics.ScratchDirsActive.Dec()
	metrics.ScratchDirLifetime.Observe(time.Since(s.created).Seconds())
	logging.Debug("Removed scratch directory %s", s.path)
	s.path = ""
}

// GetStats reports current work-root usage. Implements the metrics
// collector's StatsProvider.
func (m *Manager) GetStats() metrics.Stats {
	var stats metrics.Stats

	entries, err := os.ReadDir(m.root)
	if err != nil {
		logging.Debug("Failed to read work root for stats: %v", err)
		return stats
	}
	stats.Entries = len(entries)

	filepath.WalkDir(m.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil // skip unreadable entries, a request may be mid-teardown
		}
		if info, err := d.Info(); err == nil {
			stats.UsageBytes += info.Size()
		}
		return nil
	})
	return stats
}

// CleanupOrphans removes scratch directories older than maxAge. Run at
// startup to sweep leftovers from a previous crash.
func (m *Manager) CleanupOrphans(maxAge time.Duration) int {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		logging.Warn("Failed to scan work root for orphans: %v", err)
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logging.Warn("Failed to remove orphaned scratch directory %s: %v", path, err)
			continue
		}
		logging.Info("Removed orphaned scratch directory %s", path)
		removed++
	}
	return removed
}
