package repository

import (
	"context"

	"tnt-services-site/internal/domain/model"
)

// SubmissionRepository is the port for the relational store holding issued
// discount codes.
type SubmissionRepository interface {
	// ExistsActive reports whether an active submission exists for the
	// already normalized registration.
	ExistsActive(ctx context.Context, registration string) (bool, error)
	// Insert stores s. A uniqueness violation on the active registration is
	// reported as domain.ErrDuplicateRegistration.
	Insert(ctx context.Context, s *model.Submission) error
	// List returns submissions newest first.
	List(ctx context.Context, limit, offset int) ([]*model.Submission, error)
}
