// Package cache is a small byte-value cache used to keep market-data lookups
// off the provider's rate limits. Redis when configured, in-process otherwise.
package cache

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
