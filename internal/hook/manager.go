package hook

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// ManifestFile is the manifest name looked for in each hook directory.
const ManifestFile = "hook.json"

// Manager discovers hooks and looks them up by name or event.
type Manager struct {
	dir    string
	hooks  map[string]*Hook
	mu     sync.RWMutex
	logger *log.Logger
}

// NewManager creates a Manager for the given hook directory.
func NewManager(dir string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		dir:    dir,
		hooks:  make(map[string]*Hook),
		logger: logger,
	}
}

// Discover scans the hook directory. Each subdirectory holding a
// hook.json is one hook; unreadable manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		hookPath := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(hookPath, ManifestFile))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			m.logger.Printf("hook: skipping %s: %v", entry.Name(), err)
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			m.logger.Printf("hook: skipping %s: invalid manifest: %v", entry.Name(), err)
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.logger.Printf("hook: skipping %s: name and executable are required", entry.Name())
			continue
		}

		m.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		}
	}

	m.logger.Printf("hook: %d discovered in %s", len(m.hooks), m.dir)
	return nil
}

// Get returns a hook by name.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns every discovered hook sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].Manifest.Name < hooks[j].Manifest.Name })
	return hooks
}

// ForEvent returns the hooks subscribed to event, sorted by name.
func (m *Manager) ForEvent(event string) []*Hook {
	var out []*Hook
	for _, h := range m.List() {
		if h.Handles(event) {
			out = append(out, h)
		}
	}
	return out
}

// Dir returns the hook directory path.
func (m *Manager) Dir() string {
	return m.dir
}
