//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"

	"github.com/go-redis/redis/v8"
)

// fakeRedis is an in-memory RedisClient; expirations are recorded, not enforced.
type fakeRedis struct {
	mu      sync.Mutex
	kv      map[string]string
	ttl     map[string]time.Duration
	failAll error
}

var _ RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return f.failAll }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	if f.failAll != nil {
		return f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = toString(value)
	f.ttl[key] = exp
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.failAll != nil {
		return "", f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	if f.failAll != nil {
		return false, f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kv[key]; ok {
		return false, nil
	}
	f.kv[key] = toString(value)
	f.ttl[key] = exp
	return true, nil
}

func (f *fakeRedis) CompareAndDelete(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kv[key] == value {
		delete(f.kv, key)
	}
	return nil
}

func (f *fakeRedis) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if f.failAll != nil {
		return 0, f.failAll
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.kv[key] {
		n = n*10 + int64(c-'0')
	}
	n++
	f.kv[key] = toString(n)
	if f.ttl[key] <= 0 {
		f.ttl[key] = window
	}
	return n, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		if x == 0 {
			return "0"
		}
		var buf []byte
		for x > 0 {
			buf = append([]byte{byte('0' + x%10)}, buf...)
			x /= 10
		}
		return string(buf)
	default:
		panic("unsupported value type")
	}
}

func TestFormStateRepo(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	repo := NewFormStateRepo(fr, time.Hour)

	f := model.NewLeadForm(time.Now())
	if err := repo.Save(ctx, f); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fr.ttl["lead_form:"+f.ID] != time.Hour {
		t.Errorf("expected ttl to be applied, got %v", fr.ttl["lead_form:"+f.ID])
	}
	got, err := repo.Get(ctx, f.ID)
	if err != nil || got.ID != f.ID || got.State != model.FormEditing {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	fr.failAll = errors.New("conn refused")
	if _, err := repo.Get(ctx, f.ID); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("backend errors must not look like a miss, got %v", err)
	}
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	l := NewLocker(fr)
	l.wait = time.Millisecond

	tok, err := l.TryLock(ctx, "lock:registration:AB12CDE", time.Second)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if _, err := l.TryLock(ctx, "lock:registration:AB12CDE", time.Second); !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	if err := l.Unlock(ctx, "lock:registration:AB12CDE", "stale-token"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := l.TryLock(ctx, "lock:registration:AB12CDE", time.Second); err == nil {
		t.Fatal("foreign token must not release the lock")
	}
	if err := l.Unlock(ctx, "lock:registration:AB12CDE", tok); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := l.TryLock(ctx, "lock:registration:AB12CDE", time.Second); err != nil {
		t.Fatalf("relock: %v", err)
	}

	fr.failAll = errors.New("conn refused")
	if _, err := l.TryLock(ctx, "other", time.Second); err == nil || errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("backend failure must surface as its own error, got %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	rl := NewRateLimiter(fr, 2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "10.0.0.1")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("third request should be limited")
	}
	if fr.ttl["rate_limit:10.0.0.1"] != time.Minute {
		t.Errorf("window not applied: %v", fr.ttl["rate_limit:10.0.0.1"])
	}
}

func TestRateLimiter_RecoversKeyWithoutTTL(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	rl := NewRateLimiter(fr, 3, time.Minute)

	fr.failAll = errors.New("i/o timeout")
	if ok, err := rl.Allow(ctx, "10.0.0.2"); ok || err == nil {
		t.Fatalf("want error while redis is down, got ok=%v err=%v", ok, err)
	}
	fr.failAll = nil

	// a counter left behind without an expiry, e.g. by an older writer
	fr.kv["rate_limit:10.0.0.2"] = "7"
	if ok, err := rl.Allow(ctx, "10.0.0.2"); ok || err != nil {
		t.Fatalf("over the limit: ok=%v err=%v", ok, err)
	}
	if fr.ttl["rate_limit:10.0.0.2"] != time.Minute {
		t.Fatalf("window must be reapplied, ttl=%v", fr.ttl["rate_limit:10.0.0.2"])
	}

	// the window expiring frees the client again
	delete(fr.kv, "rate_limit:10.0.0.2")
	delete(fr.ttl, "rate_limit:10.0.0.2")
	if ok, err := rl.Allow(ctx, "10.0.0.2"); !ok || err != nil {
		t.Fatalf("new window: ok=%v err=%v", ok, err)
	}
}
