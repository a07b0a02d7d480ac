package repository

import (
	"context"

	"tnt-services-site/internal/domain/model"
)

// FormStateRepository keeps lead form instances between requests.
// Get returns domain.ErrNotFound for unknown or expired forms.
type FormStateRepository interface {
	Save(ctx context.Context, f *model.LeadForm) error
	Get(ctx context.Context, id string) (*model.LeadForm, error)
}
