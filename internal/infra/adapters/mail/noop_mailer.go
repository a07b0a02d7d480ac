package mail

import (
	"context"

	"tnt-services-site/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer logs instead of sending; used when no SendGrid key is configured.
type NoopMailer struct {
	log *zerolog.Logger
}

func NewNoopMailer(logger *zerolog.Logger) *NoopMailer {
	return &NoopMailer{log: logger}
}

func (m *NoopMailer) Name() string { return "noop" }

func (m *NoopMailer) SendDiscount(ctx context.Context, msg adapter.DiscountEmail) error {
	if m.log != nil {
		m.log.Debug().Str("discount_code", msg.Code).Msg("mailer disabled, discount email not sent")
	}
	return nil
}
