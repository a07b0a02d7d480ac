package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/infra/metrics"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

// handleAdminLogin exchanges the admin key (JSON body or X-Admin-Key header)
// for a session token.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		metrics.IncAdminLogin("disabled")
		writeError(w, http.StatusForbidden, "admin api is disabled")
		return
	}

	key := r.Header.Get("X-Admin-Key")
	if key == "" {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		key = req.APIKey
	}
	if !s.auth.CheckKey(key) {
		metrics.IncAdminLogin("unauthorized")
		writeError(w, http.StatusUnauthorized, "invalid admin key")
		return
	}

	tok, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("mint admin session")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	metrics.IncAdminLogin("authorized")
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_in": int(s.auth.cfg.TTL.Seconds()),
	})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth.Enabled() {
		s.auth.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, err := s.subs.List(r.Context(), limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": rows,
		"count":       len(rows),
	})
}

// handleHealth reports which optional backends are configured. The site
// keeps serving with any of them missing.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	backends := make(map[string]bool, len(s.backends))
	for name, b := range s.backends {
		backends[name] = b != nil && b.Available()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"backends": backends,
	})
}
