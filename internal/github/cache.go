package github

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"
)

// CachedResponse is a stored response body with its validators.
type CachedResponse struct {
	ETag         string
	LastModified string
	Body         []byte
	StoredAt     time.Time
}

// Cache stores responses by key.
type Cache interface {
	// Get returns the response stored under key and whether there was one.
	Get(ctx context.Context, key string) (CachedResponse, bool, error)
	// Put stores resp under key, replacing any previous response.
	Put(ctx context.Context, key string, resp CachedResponse) error
}

// LRUCache keeps recently used responses in memory in front of an optional
// persistent cache. Reads fall through to the backing cache on a miss and
// writes go to both.
type LRUCache struct {
	mem     *lru.Cache[string, CachedResponse]
	backing Cache
}

var _ Cache = (*LRUCache)(nil)

// NewLRUCache returns an LRUCache holding up to size responses in memory.
// backing may be nil.
func NewLRUCache(size int, backing Cache) (*LRUCache, error) {
	mem, err := lru.New[string, CachedResponse](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	return &LRUCache{mem: mem, backing: backing}, nil
}

// Get implements Cache.
func (c *LRUCache) Get(ctx context.Context, key string) (CachedResponse, bool, error) {
	if resp, ok := c.mem.Get(key); ok {
		return resp, true, nil
	}
	if c.backing == nil {
		return CachedResponse{}, false, nil
	}
	resp, ok, err := c.backing.Get(ctx, key)
	if err != nil || !ok {
		return CachedResponse{}, false, err
	}
	c.mem.Add(key, resp)
	return resp, true, nil
}

// Put implements Cache.
func (c *LRUCache) Put(ctx context.Context, key string, resp CachedResponse) error {
	c.mem.Add(key, resp)
	if c.backing == nil {
		return nil
	}
	return c.backing.Put(ctx, key, resp)
}

// Len returns the number of responses held in memory.
func (c *LRUCache) Len() int {
	return c.mem.Len()
}

// cacheKey identifies a request. Accept is part of the key because the
// contents endpoint returns JSON or raw bytes for the same URL.
func cacheKey(method, accept, rawURL string) string {
	sum := sha3.Sum256([]byte(method + " " + accept + " " + rawURL))
	return hex.EncodeToString(sum[:])
}
