package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/repository"
	"tnt-services-site/internal/infra/logging"
	"tnt-services-site/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SubmissionClient is the persistence client used by the lead workflow.
// A nil repository means the store is not configured; callers ask
// Available instead of checking for nil themselves.
type SubmissionClient struct {
	repo     repository.SubmissionRepository
	service  string
	required bool
	log      *zerolog.Logger
}

// NewSubmissionClient wraps repo. service names the backend in logs and
// metrics ("supabase", "postgres"). When required is set, an unconfigured
// store makes Save fail instead of being skipped.
func NewSubmissionClient(repo repository.SubmissionRepository, service string, required bool, logger *zerolog.Logger) *SubmissionClient {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "submission_client").Str("service", service).Logger()
	return &SubmissionClient{repo: repo, service: service, required: required, log: &l}
}

func (c *SubmissionClient) Available() bool { return c != nil && c.repo != nil }

// CheckDuplicate reports whether an active submission exists for the
// registration. Lookup failures are logged and treated as "no duplicate".
func (c *SubmissionClient) CheckDuplicate(ctx context.Context, registration string) bool {
	log := logging.With(ctx, c.log)
	key := model.NormalizeRegistration(registration)
	if !c.Available() {
		log.Warn().Msg("store not configured, skipping duplicate check")
		metrics.ObserveExternal(c.service, "exists", "skipped", 0)
		return false
	}

	start := time.Now()
	exists, err := c.repo.ExistsActive(ctx, key)
	if err != nil {
		metrics.ObserveExternal(c.service, "exists", "error", time.Since(start))
		log.Error().Err(err).Str("registration", key).Msg("duplicate check failed, continuing")
		return false
	}
	metrics.ObserveExternal(c.service, "exists", "ok", time.Since(start))
	return exists
}

// Save inserts s as an active submission with a normalized registration.
// It makes a single attempt.
func (c *SubmissionClient) Save(ctx context.Context, s *model.Submission) error {
	log := logging.With(ctx, c.log)
	if !c.Available() {
		metrics.ObserveExternal(c.service, "insert", "skipped", 0)
		if c.required {
			log.Error().Msg("store not configured, submission rejected")
			return domain.ErrPersistenceUnavailable
		}
		log.Warn().Msg("store not configured, submission not saved")
		return nil
	}

	s.CarRegistration = model.NormalizeRegistration(s.CarRegistration)
	s.IsActive = true

	start := time.Now()
	err := c.repo.Insert(ctx, s)
	switch {
	case err == nil:
		metrics.ObserveExternal(c.service, "insert", "ok", time.Since(start))
		return nil
	case errors.Is(err, domain.ErrDuplicateRegistration):
		metrics.ObserveExternal(c.service, "insert", "conflict", time.Since(start))
		log.Info().Str("registration", s.CarRegistration).Msg("store rejected duplicate registration")
		return domain.ErrDuplicateRegistration
	default:
		metrics.ObserveExternal(c.service, "insert", "error", time.Since(start))
		log.Error().Err(err).Str("registration", s.CarRegistration).Msg("insert failed")
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
}

// List returns stored submissions newest first.
func (c *SubmissionClient) List(ctx context.Context, limit, offset int) ([]*model.Submission, error) {
	if !c.Available() {
		return nil, domain.ErrPersistenceUnavailable
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	start := time.Now()
	out, err := c.repo.List(ctx, limit, offset)
	if err != nil {
		metrics.ObserveExternal(c.service, "list", "error", time.Since(start))
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	metrics.ObserveExternal(c.service, "list", "ok", time.Since(start))
	return out, nil
}
