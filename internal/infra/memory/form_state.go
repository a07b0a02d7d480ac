package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/repository"
	"tnt-services-site/internal/infra/metrics"
)

var _ repository.FormStateRepository = (*FormStore)(nil)

type formEntry struct {
	data    []byte
	expires time.Time
}

// FormStore keeps lead forms in process memory. It is used when Redis is not
// configured; forms do not survive a restart or span replicas.
type FormStore struct {
	mu   sync.Mutex
	data map[string]formEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewFormStore(ttl time.Duration) *FormStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FormStore{data: map[string]formEntry{}, ttl: ttl, now: time.Now}
}

func (s *FormStore) Save(ctx context.Context, f *model.LeadForm) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.data[f.ID] = formEntry{data: b, expires: now.Add(s.ttl)}
	s.sweepLocked(now)
	return nil
}

func (s *FormStore) Get(ctx context.Context, id string) (*model.LeadForm, error) {
	s.mu.Lock()
	e, ok := s.data[id]
	if ok && s.now().After(e.expires) {
		delete(s.data, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		metrics.IncFormStateLookup("memory", "miss")
		return nil, domain.ErrNotFound
	}
	metrics.IncFormStateLookup("memory", "hit")

	var f model.LeadForm
	if err := json.Unmarshal(e.data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FormStore) Name() string { return "forms" }

// Sweep drops expired forms and reports how many were removed.
func (s *FormStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropExpired(now)
}

// sweepLocked drops expired entries once the map grows.
func (s *FormStore) sweepLocked(now time.Time) {
	if len(s.data) >= 1024 {
		s.dropExpired(now)
	}
}

func (s *FormStore) dropExpired(now time.Time) int {
	n := 0
	for k, e := range s.data {
		if now.After(e.expires) {
			delete(s.data, k)
			n++
		}
	}
	return n
}
