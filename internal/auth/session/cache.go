package session

import (
	"context"
	"time"
)

// KeepTTL tells Replace to leave the entry's remaining lifetime untouched.
const KeepTTL time.Duration = -1

// Cache is the process-external key/value store holding sessions. Each
// operation is atomic per key. Get returns sentinel.ErrNotFound for absent or
// expired keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Replace overwrites key only if it exists and reports whether it did.
	Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
