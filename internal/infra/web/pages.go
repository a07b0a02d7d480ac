package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/infra/logging"

	"github.com/go-chi/chi/v5"
)

const (
	variantInline = "inline"
	variantModal  = "modal"
)

type pageData struct {
	Title   string
	Year    int
	Site    Site
	Pricing []PriceCategory
	Privacy PrivacyPolicy

	Inline       formView
	Modal        formView
	ModalDelayMS int64
	ModalOpen    bool
}

// formView is one rendered copy of the discount form. The inline section
// and the modal are separate form instances.
type formView struct {
	Variant        string
	FormID         string
	Values         model.LeadInput
	Notice         *model.Notice
	Result         *model.LeadResult
	Offer          model.Offer
	CardURL        string
	RequireConsent bool
	ExportNotice   *model.Notice
}

func (s *Server) newFormView(variant string) formView {
	return formView{
		Variant:        variant,
		Offer:          s.leads.Offer(),
		RequireConsent: s.opts.RequireConsent,
		ExportNotice:   model.NoticeScreenshotInstead(),
	}
}

func (s *Server) basePage(title string) pageData {
	return pageData{
		Title:        title,
		Year:         time.Now().Year(),
		Site:         s.content.Site,
		Pricing:      s.content.Pricing,
		Privacy:      s.content.Privacy,
		Inline:       s.newFormView(variantInline),
		Modal:        s.newFormView(variantModal),
		ModalDelayMS: s.opts.ModalDelay.Milliseconds(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", s.basePage(""))
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "pricing", s.basePage("Pricing"))
}

func (s *Server) handlePrivacy(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "privacy", s.basePage("Privacy Policy"))
}

// handleDiscountPost is the no-script path: a plain form post that re-renders
// the landing page with the outcome.
func (s *Server) handleDiscountPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	variant := r.PostForm.Get("variant")
	if variant != variantModal {
		variant = variantInline
	}
	in := model.LeadInput{
		Name:            r.PostForm.Get("name"),
		Email:           r.PostForm.Get("email"),
		Phone:           r.PostForm.Get("phone"),
		CarRegistration: r.PostForm.Get("carRegistration"),
		ConsentGiven:    r.PostForm.Get("consent") != "",
	}

	formID := r.PostForm.Get("form_id")
	if _, err := s.leads.Get(ctx, formID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.renderError(w, r, err)
			return
		}
		f, err := s.leads.Open(ctx)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		formID = f.ID
	}

	view := s.newFormView(variant)
	view.FormID = formID
	view.Values = in

	status := http.StatusOK
	f, err := s.leads.Submit(ctx, formID, in)
	switch {
	case errors.Is(err, domain.ErrFormBusy):
		view.Notice = model.NoticeStillProcessing()
		status = http.StatusConflict
	case err != nil:
		s.renderError(w, r, err)
		return
	default:
		view.Notice = f.Notice
		view.Result = f.Result
		if f.Succeeded() {
			view.CardURL = cardURL(f.ID)
		}
		status = statusForForm(f)
	}

	data := s.basePage("")
	if variant == variantModal {
		data.Modal = view
		data.ModalOpen = true
	} else {
		data.Inline = view
	}
	s.render(w, r, status, "index", data)
}

// handleCard renders the issued code as a PNG.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	res, err := s.leads.Card(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	offer := s.leads.Offer()

	var buf bytes.Buffer
	err = RenderCard(&buf, CardData{
		Brand:        s.content.Site.Name,
		Headline:     offer.Headline(),
		Code:         res.Code,
		Registration: res.Registration,
		GeneratedAt:  res.GeneratedAt,
		ValidUntil:   offer.ValidUntil(res.GeneratedAt),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+res.Code+`.png"`)
	}
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := pages[page]
	if !ok {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	logging.With(r.Context(), s.log).Error().Err(err).Msg("discount form failed")
	data := s.basePage("")
	data.Inline.Notice = model.NoticeSomethingWentWrong()
	s.render(w, r, http.StatusInternalServerError, "index", data)
}
