package usecase

import (
	"context"
	"time"

	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/adapter"
	"tnt-services-site/internal/infra/logging"
	"tnt-services-site/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// AutomationClient mirrors leads to the marketing automation hub.
// Every failure is logged and reported as false; nothing is retried.
type AutomationClient struct {
	hub adapter.AutomationHub
	log *zerolog.Logger
}

func NewAutomationClient(hub adapter.AutomationHub, logger *zerolog.Logger) *AutomationClient {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "automation_client").Logger()
	return &AutomationClient{hub: hub, log: &l}
}

func (c *AutomationClient) Available() bool {
	return c != nil && c.hub != nil && c.hub.Configured()
}

func (c *AutomationClient) Submit(ctx context.Context, rec model.AutomationRecord) bool {
	log := logging.With(ctx, c.log)
	if !c.Available() {
		log.Warn().Msg("automation hub not configured, skipping mirror")
		metrics.ObserveExternal("automation", "create", "skipped", 0)
		return false
	}

	start := time.Now()
	if err := c.hub.CreateRecord(ctx, rec); err != nil {
		metrics.ObserveExternal(c.hub.Name(), "create", "error", time.Since(start))
		log.Error().Err(err).Str("hub", c.hub.Name()).Str("discount_code", rec.DiscountCode).Msg("mirror failed")
		return false
	}
	metrics.ObserveExternal(c.hub.Name(), "create", "ok", time.Since(start))
	log.Debug().Str("hub", c.hub.Name()).Str("discount_code", rec.DiscountCode).Msg("lead mirrored")
	return true
}
