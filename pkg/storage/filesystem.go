package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir receives rendered reports when no directory is configured.
const DefaultDir = "./exports"

// ReportStore keeps rendered reports on disk under a base directory.
type ReportStore struct {
	baseDir string
}

// NewReportStore ensures the base directory exists and returns a handle.
func NewReportStore(baseDir string) (*ReportStore, error) {
	if baseDir == "" {
		baseDir = DefaultDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &ReportStore{baseDir: baseDir}, nil
}

// Save writes data to name below the base directory and returns the full path.
func (s *ReportStore) Save(name string, data []byte) (string, error) {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", name, err)
	}
	return path, nil
}

// Prune removes reports last modified before now minus ttl and returns
// their paths relative to the base directory.
func (s *ReportStore) Prune(ttl time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-ttl)
	var removed []string
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune reports: %w", err)
	}
	return removed, nil
}

// Path resolves name against the base directory. Absolute names are kept.
func (s *ReportStore) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.baseDir, name)
}
