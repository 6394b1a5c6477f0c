// Package store provides the durable key-value port the session engine
// persists through. Persistence is a capability injected into the
// engine, so tests can swap the Redis backend for an in-memory one.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// KV is a durable string-keyed, string-valued store scoped to one
// installation. Writes must be fully durable before Set returns.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
