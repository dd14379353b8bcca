package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/piwi3910/sheetnest/internal/model"
)

// DefaultCacheSize is the number of nesting results kept when no size is given.
const DefaultCacheSize = 16

// Cache keeps the most recent nesting results, keyed by a hash of the input.
// It is owned by the caller and safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, Result]
}

// NewCache creates a cache holding at most size results. Sizes below one fall
// back to DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create nesting cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Key derives the cache key for a nesting run.
// The key format is: nest:sha256(json(groups, settings)).
// Inputs JSON can not encode, such as NaN or infinite sizes, have no key.
func Key(groups model.MaterialGroups, settings model.Settings) (string, error) {
	data, err := json.Marshal(struct {
		Groups   model.MaterialGroups `json:"groups"`
		Settings model.Settings       `json:"settings"`
	}{groups, settings})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	hash := sha256.Sum256(data)
	return "nest:" + hex.EncodeToString(hash[:]), nil
}

// Get returns a copy of the cached result so callers can not alter the entry.
func (c *Cache) Get(key string) (Result, bool) {
	r, ok := c.entries.Get(key)
	if !ok {
		return Result{}, false
	}
	return r.Clone(), true
}

// Add stores a copy of r, evicting the least recently used entry when full.
func (c *Cache) Add(key string, r Result) {
	c.entries.Add(key, r.Clone())
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.entries.Purge()
}
