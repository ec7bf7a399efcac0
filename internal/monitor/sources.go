package monitor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
)

// Source is one entry in the watch-list source file.
type Source struct {
	URL  string `yaml:"url"`
	Type string `yaml:"type,omitempty"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the YAML watch-list source file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	return file.Sources, nil
}

// SyncSources reconciles the watch-list with the source file contents:
// listed URLs are watched, previously file-managed URLs no longer listed are
// unwatched. URLs added through the API are left alone.
func (m *Monitor) SyncSources(sources []Source) (added, removed int) {
	listed := make(map[string]bool, len(sources))
	for _, src := range sources {
		listed[src.URL] = true
		if m.Watching(src.URL) {
			continue
		}
		if err := m.watch(src.URL, src.Type, true); err != nil {
			m.log.Warn("skipping invalid source entry",
				logger.String("url", src.URL),
				logger.Error(err),
			)
			continue
		}
		added++
	}

	m.mu.Lock()
	var stale []string
	for url, e := range m.items {
		if e.fromFile && !listed[url] {
			stale = append(stale, url)
		}
	}
	m.mu.Unlock()

	for _, url := range stale {
		if m.Unwatch(url) {
			removed++
		}
	}
	return added, removed
}
