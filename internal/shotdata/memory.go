package shotdata

import (
	"context"
	"sync"
)

// Memory is an in-process provider, used when no tracking database is
// configured and in tests.
type Memory struct {
	mu       sync.RWMutex
	versions []Record
	artists  map[string]string
	fps      map[string]float64
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		artists: make(map[string]string),
		fps:     make(map[string]float64),
	}
}

// AddVersion publishes a record.
func (m *Memory) AddVersion(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		r.ID = int64(len(m.versions) + 1)
	}
	m.versions = append(m.versions, r)
}

// AddArtist registers a display name → username mapping.
func (m *Memory) AddArtist(displayName, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artists[displayName] = username
}

// SetProjectFPS records the frame rate of a project.
func (m *Memory) SetProjectFPS(project string, fps float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fps[project] = fps
}

func (m *Memory) FindLatestVersion(_ context.Context, q Query) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best Record
	found := false
	for _, r := range m.versions {
		if !q.Matches(r) {
			continue
		}
		if !found || r.Number > best.Number || (r.Number == best.Number && r.ID > best.ID) {
			best = r
			found = true
		}
	}
	return best, found, nil
}

func (m *Memory) LookupUsername(_ context.Context, displayName string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.artists[displayName]
	return name, ok, nil
}

func (m *Memory) ProjectFPS(_ context.Context, project string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fps, ok := m.fps[project]
	return fps, ok && fps > 0, nil
}

// Source returns the memory provider bound to every lookup contract.
func (m *Memory) Source() Source {
	return Source{Versions: m, Artists: m, Projects: m}
}

// Matches reports whether r satisfies every non-empty filter of q.
func (q Query) Matches(r Record) bool {
	return match(q.Project, r.Project) &&
		match(q.Entity, r.Entity) &&
		match(q.VersionType, r.VersionType) &&
		match(q.Variation, r.Variation) &&
		match(q.Status, r.Status)
}

func match(filter, value string) bool {
	return filter == "" || filter == value
}
