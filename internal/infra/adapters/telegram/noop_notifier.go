package telegram

import (
	"context"

	"tnt-services-site/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.StaffNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs the lead instead of sending it; used when no bot token
// or chat is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) Name() string { return "noop" }

func (n *NoopNotifier) NotifyLead(ctx context.Context, text string) error {
	if n.log != nil {
		n.log.Debug().Msg("staff notifier disabled, lead not forwarded")
	}
	return nil
}
