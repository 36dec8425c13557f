package redis

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when the key does not exist
var ErrKeyNotFound = errors.New("redis: key not found")

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// Set sets a key to a value with an optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key, ErrKeyNotFound if missing
	Get(ctx context.Context, key string) (string, error)

	// SetNX sets a key only if it does not exist and reports whether it was set
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Del removes keys
	Del(ctx context.Context, keys ...string) error

	// CompareAndDelete removes key only while it still holds value
	CompareAndDelete(ctx context.Context, key string, value string) (bool, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
