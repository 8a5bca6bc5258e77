package ports

import (
	"context"
	"time"
)

// Cache is a best-effort key/value store. Card use cases only write to it
// after a committed change; a failed write never fails the use case.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
