// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tnt-services-site/internal/config"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/adapter"
	"tnt-services-site/internal/domain/ports/repository"
	"tnt-services-site/internal/infra/adapters/airtable"
	"tnt-services-site/internal/infra/adapters/mail"
	"tnt-services-site/internal/infra/adapters/supabase"
	tele "tnt-services-site/internal/infra/adapters/telegram"
	pg "tnt-services-site/internal/infra/db/postgres"
	"tnt-services-site/internal/infra/logging"
	"tnt-services-site/internal/infra/memory"
	"tnt-services-site/internal/infra/metrics"
	red "tnt-services-site/internal/infra/redis"
	"tnt-services-site/internal/infra/sched"
	"tnt-services-site/internal/infra/web"
	"tnt-services-site/internal/infra/worker"
	"tnt-services-site/internal/usecase"

	"github.com/rs/zerolog"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Form state, locks, rate limiting ----
	forms, locker, limiter, closeRedis := stateBackends(ctx, cfg, logger)
	defer closeRedis()

	// ---- Submission store ----
	store, closeStore := submissionStore(ctx, cfg, logger)
	defer closeStore()
	subs := usecase.NewSubmissionClient(store, cfg.Persistence.Driver, cfg.Persistence.Required, logger)
	if !subs.Available() {
		logger.Warn().Str("driver", cfg.Persistence.Driver).Msg("submission store not configured; codes will not be persisted")
	}

	// ---- Outbound integrations ----
	hub := airtable.NewHub(cfg.Airtable)
	automation := usecase.NewAutomationClient(hub, logger)
	if !automation.Available() {
		logger.Warn().Msg("airtable not configured; mirror disabled")
	}

	var mailer adapter.Mailer = mail.NewNoopMailer(logger)
	if cfg.Mail.SendGridKey != "" && cfg.Mail.FromEmail != "" {
		mailer = mail.NewSendGridMailer(cfg.Mail)
	}

	var notifier adapter.StaffNotifier = tele.NewNoopNotifier(logger)
	if cfg.Telegram.Token != "" {
		n, err := tele.NewLeadNotifier(cfg.Telegram)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier disabled")
		} else {
			notifier = n
		}
	}

	// ---- Follow-up workers ----
	pool := worker.NewPool(cfg.Worker.Count, cfg.Worker.TaskTimeout, logger)
	pool.Start(ctx)

	// ---- Use case ----
	offer := model.Offer{
		Percent:      cfg.Offer.Percent,
		ValidityDays: cfg.Offer.ValidityDays,
		Exclusions:   cfg.Offer.Exclusions,
	}
	leads := usecase.NewLeadUseCase(
		forms, locker, subs, automation, mailer, notifier,
		usecase.DefaultCodeGenerator,
		offer,
		usecase.LeadOptions{
			RequireConsent: cfg.Form.RequireConsent,
			LockTTL:        cfg.Form.LockTTL,
			Dev:            cfg.Runtime.Dev,
			Dispatcher:     pool,
		},
		logger,
	)

	// ---- HTTP ----
	content, err := web.LoadContent()
	if err != nil {
		logger.Fatal().Err(err).Msg("load site content")
	}
	proxies, err := web.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("http.trusted_proxies")
	}
	var auth *web.AuthManager
	if cfg.Admin.APIKey != "" {
		auth = web.NewAuthManager(cfg.Admin.APIKey, cfg.Admin.JWTSecret, cfg.Admin.SecureOnly, cfg.Admin.SessionTTL)
	}
	srv := web.NewServer(
		leads,
		subs,
		map[string]web.Backend{"persistence": subs, "automation": automation},
		auth,
		limiter,
		content,
		web.Options{
			RequestTimeout: cfg.HTTP.RequestTimeout,
			ModalDelay:     cfg.Form.ModalDelay,
			RequireConsent: cfg.Form.RequireConsent,
			TrustedProxies: proxies,
		},
		logger,
	)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// queued emails and notifications finish before the process exits
	pool.Stop()
	cancel()
}

// stateBackends prefers Redis so several instances share form state, locks
// and rate counters; without it everything stays in process and a sweeper
// clears what expired.
func stateBackends(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.FormStateRepository, repository.Locker, web.RateLimiter, func()) {
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err == nil {
			logger.Info().Msg("redis connected")
			return red.NewFormStateRepo(client, cfg.Form.StateTTL),
				red.NewLocker(client),
				red.NewRateLimiter(client, cfg.Form.RateLimit, cfg.Form.RateWindow),
				func() { _ = client.Close() }
		}
		logger.Error().Err(err).Msg("redis unavailable, using in-process state")
	}
	forms := memory.NewFormStore(cfg.Form.StateTTL)
	locker := memory.NewLocker()
	limiter := memory.NewRateLimiter(cfg.Form.RateLimit, cfg.Form.RateWindow)
	go func() { _ = sched.NewSweeper(time.Minute, logger, forms, locker, limiter).Run(ctx) }()
	return forms, locker, limiter, func() {}
}

// submissionStore returns nil when the selected driver has no credentials.
func submissionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.SubmissionRepository, func()) {
	switch cfg.Persistence.Driver {
	case "postgres":
		if cfg.Persistence.Database.URL == "" {
			return nil, func() {}
		}
		pool, err := pg.Connect(ctx, cfg.Persistence.Database)
		if err != nil {
			logger.Error().Err(err).Msg("postgres unavailable")
			return nil, func() {}
		}
		if cfg.Persistence.Database.Migrate {
			if err := pg.Migrate(ctx, pool); err != nil {
				logger.Fatal().Err(err).Msg("postgres migrate")
			}
		}
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)
		return pg.NewSubmissionRepo(pool), pool.Close
	default:
		if !cfg.SupabaseConfigured() {
			return nil, func() {}
		}
		return supabase.NewSubmissionRepo(cfg.Persistence.Supabase, cfg.Persistence.Table, cfg.Persistence.Timeout), func() {}
	}
}
