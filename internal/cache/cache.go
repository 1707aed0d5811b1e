// Package cache provides an in-memory completion cache so repeated
// evaluations of the same claim do not repeat identical LLM calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CompletionCache stores raw completion text keyed by a hash of the prompt.
type CompletionCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewCompletionCache creates a cache with the given TTL and cleanup interval.
func NewCompletionCache(ttl, cleanupInterval time.Duration) *CompletionCache {
	return &CompletionCache{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Key derives the cache key for a prompt. Prompts embed the full OCR blob,
// so the key is a digest rather than the prompt itself.
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cached completion for the prompt.
func (c *CompletionCache) Get(prompt string) (string, bool) {
	if val, found := c.cache.Get(Key(prompt)); found {
		return val.(string), true
	}
	return "", false
}

// Set stores a completion for the prompt.
func (c *CompletionCache) Set(prompt, completion string) {
	c.cache.Set(Key(prompt), completion, c.ttl)
}

// Clear removes all cached completions.
func (c *CompletionCache) Clear() {
	c.cache.Flush()
}
