package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SourceType identifies an export format.
type SourceType string

// Export formats, in preference order when timestamps tie.
const (
	SourceTypeSQLite SourceType = "sqlite"
	SourceTypeJSON   SourceType = "json"
)

// Priority values for source types (higher wins a timestamp tie).
const (
	prioritySQLite = 100
	priorityJSON   = 50
)

// DataSource is one discovered export file.
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, mod=%s)", s.Path, s.Type, s.ModTime.Format(time.RFC3339))
}

// DiscoverSources finds every export file in dir, newest first. SQLite
// exports outrank JSON when modification times are equal.
func DiscoverSources(dir string) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading export directory: %w", err)
	}

	var sources []DataSource
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var src DataSource
		switch filepath.Ext(entry.Name()) {
		case ".db", ".sqlite":
			src = DataSource{Type: SourceTypeSQLite, Priority: prioritySQLite}
		case ".json":
			src = DataSource{Type: SourceTypeJSON, Priority: priorityJSON}
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		src.Path = filepath.Join(dir, entry.Name())
		src.ModTime = info.ModTime()
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		if !sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].ModTime.After(sources[j].ModTime)
		}
		return sources[i].Priority > sources[j].Priority
	})
	return sources, nil
}

// Load reads a snapshot from a single export file, dispatching on extension.
func Load(path string) (*Snapshot, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		return LoadSQLite(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("unknown export format %q", filepath.Ext(path))
	}
}

// LoadFreshest loads the newest valid export in dir. Sources that fail to
// load are skipped in favor of older ones; the last error surfaces only when
// nothing loads.
func LoadFreshest(dir string) (*Snapshot, error) {
	sources, err := DiscoverSources(dir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no exports found in %s", dir)
	}

	var lastErr error
	for _, src := range sources {
		snap, err := Load(src.Path)
		if err == nil {
			return snap, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no loadable export in %s: %w", dir, lastErr)
}
