//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/adapter"
	"tnt-services-site/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ---- In-memory submission store ----

type MockSubmissionRepo struct {
	mu   sync.Mutex
	rows []*model.Submission

	ExistsCalls int
	InsertCalls int

	ExistsFunc func(ctx context.Context, registration string) (bool, error)
	InsertFunc func(ctx context.Context, s *model.Submission) error
	// UniqueIndex mirrors the partial unique index on active registrations.
	UniqueIndex bool
}

var _ repository.SubmissionRepository = (*MockSubmissionRepo)(nil)

func NewMockSubmissionRepo() *MockSubmissionRepo {
	return &MockSubmissionRepo{UniqueIndex: true}
}

func (m *MockSubmissionRepo) ExistsActive(ctx context.Context, registration string) (bool, error) {
	m.mu.Lock()
	m.ExistsCalls++
	m.mu.Unlock()
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, registration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.IsActive && r.CarRegistration == registration {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSubmissionRepo) Insert(ctx context.Context, s *model.Submission) error {
	m.mu.Lock()
	m.InsertCalls++
	m.mu.Unlock()
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UniqueIndex {
		for _, r := range m.rows {
			if r.IsActive && r.CarRegistration == s.CarRegistration {
				return domain.ErrDuplicateRegistration
			}
		}
	}
	cp := *s
	cp.ID = int64(len(m.rows) + 1)
	now := time.Now()
	cp.CreatedAt = &now
	m.rows = append(m.rows, &cp)
	s.ID = cp.ID
	s.CreatedAt = cp.CreatedAt
	return nil
}

func (m *MockSubmissionRepo) List(ctx context.Context, limit, offset int) ([]*model.Submission, error) {
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

func (m *MockSubmissionRepo) Rows() []*model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Submission(nil), m.rows...)
}

// ---- In-memory form state ----

type MockFormStateRepo struct {
	mu   sync.Mutex
	data map[string][]byte

	SaveErr error
	// CtxBound makes Save fail on a done context, as a network store would.
	CtxBound bool
}

var _ repository.FormStateRepository = (*MockFormStateRepo)(nil)

func NewMockFormStateRepo() *MockFormStateRepo {
	return &MockFormStateRepo{data: map[string][]byte{}}
}

// Save stores a JSON copy so tests observe the same isolation as the
// Redis-backed store.
func (m *MockFormStateRepo) Save(ctx context.Context, f *model.LeadForm) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.CtxBound && ctx.Err() != nil {
		return ctx.Err()
	}
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[f.ID] = b
	return nil
}

func (m *MockFormStateRepo) Get(ctx context.Context, id string) (*model.LeadForm, error) {
	m.mu.Lock()
	b, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	var f model.LeadForm
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ repository.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLockNotAcquired
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// ---- Automation hub ----

type MockHub struct {
	mu         sync.Mutex
	configured bool
	records    []model.AutomationRecord
	Err        error
	PanicWith  any
	OnCreate   func(ctx context.Context)
}

var _ adapter.AutomationHub = (*MockHub)(nil)

func NewMockHub() *MockHub { return &MockHub{configured: true} }

func (h *MockHub) Name() string     { return "mockhub" }
func (h *MockHub) Configured() bool { return h.configured }

func (h *MockHub) CreateRecord(ctx context.Context, rec model.AutomationRecord) error {
	if h.PanicWith != nil {
		panic(h.PanicWith)
	}
	if h.OnCreate != nil {
		h.OnCreate(ctx)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return h.Err
	}
	h.records = append(h.records, rec)
	return nil
}

func (h *MockHub) Records() []model.AutomationRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.AutomationRecord(nil), h.records...)
}

// ---- Mailer / notifier ----

type MockMailer struct {
	mu   sync.Mutex
	Sent []adapter.DiscountEmail
	Err  error
}

func (m *MockMailer) Name() string { return "mockmail" }

func (m *MockMailer) SendDiscount(ctx context.Context, msg adapter.DiscountEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

type MockNotifier struct {
	mu    sync.Mutex
	Texts []string
	Err   error
}

func (n *MockNotifier) Name() string { return "mocknotify" }

func (n *MockNotifier) NotifyLead(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Texts = append(n.Texts, text)
	return nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func fixedCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return CodeGeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c
	})
}
