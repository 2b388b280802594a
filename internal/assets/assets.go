// Package assets resolves asset paths against GRF archives and directories.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Faultbox/midgard-modelbake/pkg/grf"
)

// ErrNotFound is returned when no source holds the requested path.
var ErrNotFound = errors.New("asset not found")

// Source is one place assets can be read from.
type Source interface {
	Name() string
	Read(path string) ([]byte, error)
	Contains(path string) bool
	List() []string
}

// Manager searches its sources in reverse order (last added = highest priority)
// and caches what it reads.
type Manager struct {
	sources []Source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddArchive opens a GRF archive and adds it as a source.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.AddSource(archiveSource{path: path, Archive: archive})
	return nil
}

// AddDirectory adds a plain directory as a source.
// Lookups are lower-cased, so files below root must use lower-case names.
func (m *Manager) AddDirectory(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("adding directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding directory %s: not a directory", root)
	}
	m.AddSource(dirSource{root: root})
	return nil
}

// AddSource registers a source with the highest priority so far.
func (m *Manager) AddSource(s Source) {
	m.mu.Lock()
	m.sources = append(m.sources, s)
	m.mu.Unlock()
}

// Load reads a file from the highest-priority source that has it.
func (m *Manager) Load(path string) ([]byte, error) {
	path = normalizePath(path)
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		if !m.sources[i].Contains(path) {
			continue
		}
		data, err := m.sources[i].Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", path, m.sources[i].Name(), err)
		}
		m.cache.Set(path, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Exists reports whether any source holds path.
func (m *Manager) Exists(path string) bool {
	path = normalizePath(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sources {
		if s.Contains(path) {
			return true
		}
	}
	return false
}

// List returns the sorted, de-duplicated paths under prefix across all sources.
func (m *Manager) List(prefix string) []string {
	prefix = normalizePath(prefix)
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, s := range m.sources {
		for _, p := range s.List() {
			if strings.HasPrefix(p, prefix) && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// CacheStats returns cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sources {
		if c, ok := s.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	m.sources = nil
	m.cache.Clear()
}

type archiveSource struct {
	path string
	*grf.Archive
}

func (a archiveSource) Name() string { return a.path }

type dirSource struct {
	root string
}

func (d dirSource) Name() string { return d.root }

func (d dirSource) Read(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(path)))
}

func (d dirSource) Contains(path string) bool {
	info, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(path)))
	return err == nil && !info.IsDir()
}

func (d dirSource) List() []string {
	var out []string
	_ = filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return nil
		}
		out = append(out, normalizePath(filepath.ToSlash(rel)))
		return nil
	})
	return out
}

// normalizePath matches the GRF convention: forward slashes, lower case.
func normalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
