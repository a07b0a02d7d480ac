package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.Locker = (*Locker)(nil)

type lockEntry struct {
	token   string
	expires time.Time
}

// Locker is the single-process counterpart of the Redis locker.
type Locker struct {
	mu      sync.Mutex
	held    map[string]lockEntry
	retries int
	wait    time.Duration
}

func NewLocker() *Locker {
	return &Locker{held: map[string]lockEntry{}, retries: 5, wait: 50 * time.Millisecond}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < l.retries; i++ {
		if l.acquire(key, token, ttl) {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.wait):
		}
	}
	return "", domain.ErrLockNotAcquired
}

func (l *Locker) acquire(key, token string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return false
	}
	l.held[key] = lockEntry{token: token, expires: now.Add(ttl)}
	return true
}

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.held[key]
	if !ok {
		return nil
	}
	if e.token != token {
		return errors.New("lock held by another owner")
	}
	delete(l.held, key)
	return nil
}

func (l *Locker) Name() string { return "locks" }

// Sweep forgets locks whose TTL passed without an Unlock.
func (l *Locker) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.held {
		if !now.Before(e.expires) {
			delete(l.held, k)
			n++
		}
	}
	return n
}
