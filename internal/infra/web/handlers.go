package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/infra/logging"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 16 << 10

type submitRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CarRegistration string `json:"car_registration"`
	Consent         bool   `json:"consent"`
}

func (r submitRequest) input() model.LeadInput {
	return model.LeadInput{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		CarRegistration: r.CarRegistration,
		ConsentGiven:    r.Consent,
	}
}

type offerView struct {
	Headline   string    `json:"headline"`
	Terms      []string  `json:"terms"`
	ValidUntil time.Time `json:"valid_until"`
}

// resultView leaves the visitor's name and email out; anyone holding the
// form id can read it.
type resultView struct {
	Code            string    `json:"code"`
	Registration    string    `json:"registration"`
	RawRegistration string    `json:"raw_registration"`
	GeneratedAt     time.Time `json:"generated_at"`
}

type formResponse struct {
	*model.LeadForm
	Result  *resultView `json:"result,omitempty"`
	CardURL string      `json:"card_url,omitempty"`
	Offer   *offerView  `json:"offer,omitempty"`
}

func (s *Server) toResponse(f *model.LeadForm) formResponse {
	resp := formResponse{LeadForm: f}
	if f.Result != nil {
		resp.Result = &resultView{
			Code:            f.Result.Code,
			Registration:    f.Result.Registration,
			RawRegistration: f.Result.RawRegistration,
			GeneratedAt:     f.Result.GeneratedAt,
		}
	}
	if f.Succeeded() && f.Result != nil {
		o := s.leads.Offer()
		resp.CardURL = cardURL(f.ID)
		resp.Offer = &offerView{
			Headline:   o.Headline(),
			Terms:      o.Terms(),
			ValidUntil: o.ValidUntil(f.Result.GeneratedAt),
		}
	}
	return resp
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.leads.Open(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toResponse(f))
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.leads.Get(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toResponse(f))
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := s.leads.Submit(r.Context(), chi.URLParam(r, "formID"), req.input())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, statusForForm(f), s.toResponse(f))
}

// statusForForm maps the notice on a submitted form to an HTTP status.
func statusForForm(f *model.LeadForm) int {
	if f.Succeeded() {
		return http.StatusOK
	}
	if f.Notice == nil {
		return http.StatusOK
	}
	switch f.Notice.Kind {
	case model.NoticeValidation:
		return http.StatusUnprocessableEntity
	case model.NoticeDuplicate, model.NoticeBusy:
		return http.StatusConflict
	case model.NoticePersistence:
		return http.StatusBadGateway
	case model.NoticeUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFormBusy), errors.Is(err, domain.ErrFormCompleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func cardURL(formID string) string {
	return "/discount/" + formID + "/card.png"
}
