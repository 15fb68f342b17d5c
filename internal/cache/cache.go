package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
)

// Cache defines the interface for typed caching operations.
type Cache[T any] interface {
	// Get retrieves a value from the cache by key.
	// The boolean is false if the key is not found or has expired.
	Get(ctx context.Context, key string) (T, bool)

	// Set stores a value in the cache with the cache's TTL.
	Set(ctx context.Context, key string, value T) error

	// Delete removes a value from the cache by key.
	Delete(ctx context.Context, key string) error
}

// HashKey joins parts and hashes them into a fixed-length key.
func HashKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%x", hash)
}
