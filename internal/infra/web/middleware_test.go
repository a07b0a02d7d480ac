//go:build !integration

package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tnt-services-site/internal/infra/logging"

	"github.com/rs/zerolog"
)

func TestTraceID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceID(r.Context())
	}), TraceID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "edge-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "edge-123" || rec.Header().Get("X-Request-ID") != "edge-123" {
		t.Fatalf("incoming id not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Fatalf("expected generated uuid, got %q", seen)
	}
}

func TestRecover(t *testing.T) {
	logger := zerolog.Nop()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(&logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}), Timeout(time.Second))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if deadline.IsZero() {
		t.Fatal("expected a deadline on the request context")
	}
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Name() string { return "stub" }

func (s *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit_Middleware(t *testing.T) {
	logger := zerolog.Nop()
	// httptest requests come from 192.0.2.1
	proxies, err := ParseTrustedProxies([]string{"192.0.2.1", "10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name string
		rl   *stubLimiter
		want int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusNoContent},
		{"rejected", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"backend error fails open", &stubLimiter{err: errors.New("redis down")}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Chain(ok, RateLimit(tc.rl, proxies, &logger))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d", tc.want, rec.Code)
			}
			if len(tc.rl.keys) != 1 || tc.rl.keys[0] != "submit:203.0.113.7" {
				t.Fatalf("unexpected limiter keys %v", tc.rl.keys)
			}
		})
	}

	t.Run("nil limiter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Chain(ok, RateLimit(nil, proxies, &logger)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("want 204, got %d", rec.Code)
		}
	})
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 ", ""})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	if _, err := ParseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("expected error for a malformed entry")
	}

	cases := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct client ignores header", "203.0.113.9:5000", "198.51.100.1", "203.0.113.9"},
		{"trusted peer, single hop", "10.1.2.3:443", "198.51.100.1", "198.51.100.1"},
		{"spoofed prefix is skipped", "192.0.2.1:443", "1.2.3.4, 198.51.100.1, 10.0.0.7", "198.51.100.1"},
		{"trusted peer without header", "10.1.2.3:443", "", "10.1.2.3"},
		{"garbage hop stops the walk", "10.1.2.3:443", "198.51.100.1, nonsense", "10.1.2.3"},
		{"all hops trusted", "10.1.2.3:443", "10.9.9.9", "10.9.9.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := proxies.ClientIP(req); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}

	var none TrustedProxies
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := none.ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("without trusted proxies the peer must win, got %q", got)
	}
}

func TestAuthManager(t *testing.T) {
	a := NewAuthManager("k", "0123456789abcdef", true, time.Minute)
	if !a.Enabled() || !a.CheckKey("k") || a.CheckKey("K") || a.CheckKey("") {
		t.Fatal("unexpected key check results")
	}

	rec := httptest.NewRecorder()
	tok, err := a.Mint(rec)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	claims, err := a.ParseFromRequest(req)
	if err != nil || claims.Role != "admin" || claims.Issuer != sessionIssuer {
		t.Fatalf("parse: %+v %v", claims, err)
	}

	other := NewAuthManager("k", "fedcba9876543210", true, time.Minute)
	if _, err := other.ParseFromRequest(req); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}

	if _, err := a.ParseFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, errMissingToken) {
		t.Fatalf("want errMissingToken, got %v", err)
	}

	var disabled *AuthManager
	if disabled.Enabled() || disabled.CheckKey("k") {
		t.Fatal("nil manager must be disabled")
	}
}
