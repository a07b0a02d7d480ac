package adapter

import (
	"context"

	"tnt-services-site/internal/domain/model"
)

// AutomationHub is the port for the marketing automation backend that keeps a
// loose copy of every lead.
type AutomationHub interface {
	Name() string
	Configured() bool
	CreateRecord(ctx context.Context, rec model.AutomationRecord) error
}
