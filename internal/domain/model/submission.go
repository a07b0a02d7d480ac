package model

import (
	"regexp"
	"strings"
	"time"
)

// Submission is the persisted record of one completed lead-capture workflow.
type Submission struct {
	ID              int64      `json:"id,omitempty"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	CarRegistration string     `json:"car_registration"`
	DiscountCode    string     `json:"discount_code"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       *time.Time `json:"created_at,omitempty"` // set by the store
}

// NewSubmission builds an active submission for the given input and code.
// The registration is stored in normalized form.
func NewSubmission(in LeadInput, code string) *Submission {
	return &Submission{
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		CarRegistration: NormalizeRegistration(in.CarRegistration),
		DiscountCode:    code,
		IsActive:        true,
	}
}

// AutomationRecord is the looser copy mirrored to the marketing automation hub.
type AutomationRecord struct {
	Name            string
	Email           string
	Phone           string
	CarRegistration string
	DiscountCode    string
	SubmittedAt     time.Time
}

// LeadInput is what a visitor types into the discount form.
type LeadInput struct {
	Name            string
	Email           string
	Phone           string
	CarRegistration string
	ConsentGiven    bool
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Trimmed returns a copy with surrounding whitespace removed from text fields.
func (in LeadInput) Trimmed() LeadInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CarRegistration = strings.TrimSpace(in.CarRegistration)
	return in
}

// Validate runs the advisory client-side checks. It returns nil when the
// input may be submitted, otherwise the notice to show.
func (in LeadInput) Validate(requireConsent bool) *Notice {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.CarRegistration == "" {
		return NoticeMissingFields()
	}
	// a registration typed only as punctuation has no usable key
	if NormalizeRegistration(in.CarRegistration) == "" {
		return NoticeMissingFields()
	}
	if requireConsent && !in.ConsentGiven {
		return NoticeConsentRequired()
	}
	if !ValidEmail(in.Email) {
		return NoticeInvalidEmail()
	}
	return nil
}
