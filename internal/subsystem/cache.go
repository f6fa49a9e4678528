package subsystem

import (
	"os"
	"sync"

	"archcheck/internal/parser"
)

// Cache is a read-through cache over file contents, parsed source
// facts and manifests. One Cache serves one scan; checks running in
// parallel share it.
type Cache struct {
	mu        sync.RWMutex
	contents  map[string][]byte
	sources   map[string]*parser.SourceFile
	manifests map[string]*manifestEntry
}

type manifestEntry struct {
	manifest *Manifest
	err      error
}

func NewCache() *Cache {
	return &Cache{
		contents:  make(map[string][]byte),
		sources:   make(map[string]*parser.SourceFile),
		manifests: make(map[string]*manifestEntry),
	}
}

// Content returns the file's bytes, reading it at most once.
func (c *Cache) Content(path string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.contents[path]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.contents[path] = data
	c.mu.Unlock()
	return data, nil
}

// Source returns the parsed facts for a file, parsing it at most once.
// Unreadable files yield empty facts.
func (c *Cache) Source(path string) *parser.SourceFile {
	c.mu.RLock()
	src, ok := c.sources[path]
	c.mu.RUnlock()
	if ok {
		return src
	}
	data, err := c.Content(path)
	if err != nil {
		src = &parser.SourceFile{Path: path}
	} else {
		src = parser.Parse(path, string(data))
	}
	c.mu.Lock()
	c.sources[path] = src
	c.mu.Unlock()
	return src
}

// Manifest returns the parsed manifest at path, loading it at most
// once. The error is cached too so a malformed manifest is reported
// once per call site, not re-read.
func (c *Cache) Manifest(path string) (*Manifest, error) {
	c.mu.RLock()
	entry, ok := c.manifests[path]
	c.mu.RUnlock()
	if ok {
		return entry.manifest, entry.err
	}
	m, err := LoadManifest(path)
	c.mu.Lock()
	c.manifests[path] = &manifestEntry{manifest: m, err: err}
	c.mu.Unlock()
	return m, err
}
