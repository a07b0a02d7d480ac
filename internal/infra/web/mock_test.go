//go:build !integration

package web

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/repository"
	"tnt-services-site/internal/infra/memory"
	"tnt-services-site/internal/usecase"

	"github.com/rs/zerolog"
)

// --- in-memory submission store with the partial unique index ---

type memSubmissionRepo struct {
	mu        sync.Mutex
	rows      []*model.Submission
	insertErr error
}

var _ repository.SubmissionRepository = (*memSubmissionRepo)(nil)

func (m *memSubmissionRepo) ExistsActive(ctx context.Context, registration string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.IsActive && r.CarRegistration == registration {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSubmissionRepo) Insert(ctx context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, r := range m.rows {
		if r.IsActive && r.CarRegistration == s.CarRegistration {
			return domain.ErrDuplicateRegistration
		}
	}
	cp := *s
	cp.ID = int64(len(m.rows) + 1)
	now := time.Now()
	cp.CreatedAt = &now
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memSubmissionRepo) List(ctx context.Context, limit, offset int) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Submission, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		cp := *m.rows[i]
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return []*model.Submission{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSubmissionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// --- server wiring ---

type testEnv struct {
	srv     *Server
	handler http.Handler
	repo    *memSubmissionRepo
}

type envOption func(*envConfig)

type envConfig struct {
	limiter RateLimiter
	auth    *AuthManager
	consent bool
}

func withLimiter(rl RateLimiter) envOption { return func(c *envConfig) { c.limiter = rl } }
func withAuth(a *AuthManager) envOption    { return func(c *envConfig) { c.auth = a } }
func withConsentRequired() envOption       { return func(c *envConfig) { c.consent = true } }

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}

	logger := zerolog.Nop()
	repo := &memSubmissionRepo{}
	subs := usecase.NewSubmissionClient(repo, "memory", false, &logger)
	automation := usecase.NewAutomationClient(nil, &logger)

	var mu sync.Mutex
	n := 0
	codes := usecase.CodeGeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return []string{"TNT10-TEST01", "TNT10-TEST02", "TNT10-TEST03"}[(n-1)%3]
	})

	leads := usecase.NewLeadUseCase(
		memory.NewFormStore(time.Hour),
		memory.NewLocker(),
		subs,
		automation,
		nil,
		nil,
		codes,
		model.Offer{Percent: 10, ValidityDays: 30, Exclusions: []string{"memberships"}},
		usecase.LeadOptions{RequireConsent: cfg.consent, LockTTL: 5 * time.Second},
		&logger,
	)

	content, err := LoadContent()
	if err != nil {
		t.Fatalf("LoadContent: %v", err)
	}

	srv := NewServer(
		leads,
		subs,
		map[string]Backend{"persistence": subs, "automation": automation},
		cfg.auth,
		cfg.limiter,
		content,
		Options{RequireConsent: cfg.consent, ModalDelay: time.Second},
		&logger,
	)
	return &testEnv{srv: srv, handler: srv.Routes(), repo: repo}
}
