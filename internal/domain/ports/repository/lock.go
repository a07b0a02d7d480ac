package repository

import (
	"context"
	"time"
)

// Locker serializes work on a key across requests (and processes, when backed
// by a shared store). TryLock returns domain.ErrLockNotAcquired when the key
// stays held.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
