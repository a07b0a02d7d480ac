package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"tnt-services-site/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var pages = map[string]*template.Template{
	"index":   mustPage("templates/index.html", "templates/discount_form.html"),
	"pricing": mustPage("templates/pricing.html"),
	"privacy": mustPage("templates/privacy.html"),
}

func mustPage(files ...string) *template.Template {
	patterns := append([]string{"templates/layout.html"}, files...)
	return template.Must(template.New("layout").Funcs(pageFuncs).ParseFS(templateFS, patterns...))
}

// LeadWorkflow is the discount form use case as seen by the handlers.
type LeadWorkflow interface {
	Offer() model.Offer
	Open(ctx context.Context) (*model.LeadForm, error)
	Get(ctx context.Context, formID string) (*model.LeadForm, error)
	Submit(ctx context.Context, formID string, in model.LeadInput) (*model.LeadForm, error)
	Card(ctx context.Context, formID string) (*model.LeadResult, error)
}

// SubmissionLister backs the admin listing.
type SubmissionLister interface {
	Available() bool
	List(ctx context.Context, limit, offset int) ([]*model.Submission, error)
}

// Backend is anything /healthz reports on.
type Backend interface {
	Available() bool
}

type Options struct {
	RequestTimeout time.Duration
	ModalDelay     time.Duration
	RequireConsent bool
	// TrustedProxies may set X-Forwarded-For; nobody else is believed.
	TrustedProxies TrustedProxies
}

type Server struct {
	leads    LeadWorkflow
	subs     SubmissionLister
	backends map[string]Backend
	auth     *AuthManager
	limiter  RateLimiter
	content  *Content
	opts     Options
	log      *zerolog.Logger
}

func NewServer(
	leads LeadWorkflow,
	subs SubmissionLister,
	backends map[string]Backend,
	auth *AuthManager,
	limiter RateLimiter,
	content *Content,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ModalDelay <= 0 {
		opts.ModalDelay = time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		leads:    leads,
		subs:     subs,
		backends: backends,
		auth:     auth,
		limiter:  limiter,
		content:  content,
		opts:     opts,
		log:      &l,
	}
}

// Routes builds the site and API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.opts.RequestTimeout),
	)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleIndex)
	r.Get("/pricing", s.handlePricing)
	r.Get("/privacy-policy", s.handlePrivacy)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	limited := r.With(RateLimit(s.limiter, s.opts.TrustedProxies, s.log))
	limited.Post("/discount", s.handleDiscountPost)
	r.Get("/discount/{formID}/card.png", s.handleCard)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/forms", s.handleCreateForm)
		r.Get("/forms/{formID}", s.handleGetForm)
		r.With(RateLimit(s.limiter, s.opts.TrustedProxies, s.log)).Post("/forms/{formID}/submit", s.handleSubmitForm)

		r.Post("/admin/auth/login", s.handleAdminLogin)
		r.Post("/admin/auth/logout", s.handleAdminLogout)
		r.With(s.requireAdmin).Get("/admin/submissions", s.handleListSubmissions)
	})
	return r
}

// requireAdmin accepts the session minted by the login handler.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			writeError(w, http.StatusForbidden, "admin api is disabled")
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
