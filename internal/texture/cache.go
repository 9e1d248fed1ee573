package texture

import (
	"image"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Resolver resolves a texture path to a decoded image.
type Resolver interface {
	Resolve(path string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache. A texture that fails to load is
// remembered as nil so it is only logged once.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	load  func(string) (*image.NRGBA, error)
}

// NewCache creates an empty cache that loads from disk.
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]*image.NRGBA),
		load:  LoadTexture,
	}
}

// Resolve loads and caches a texture by path. Returns nil for an empty path
// or when the texture cannot be loaded.
func (c *Cache) Resolve(path string) *image.NRGBA {
	if path == "" {
		return nil
	}

	// Fast path: read lock
	c.mu.RLock()
	img, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return img
	}

	// Slow path: load from disk
	img, err := c.load(path)
	if err != nil {
		logs.WithTag("path", path).Warn(err)
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, exists := c.items[path]; exists {
		return cached
	}
	c.items[path] = img
	return img
}
