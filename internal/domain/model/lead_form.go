package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"tnt-services-site/internal/domain"
)

// FormState is the position of a form instance in the submit workflow.
type FormState string

const (
	FormEditing    FormState = "editing"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
)

// LeadResult is what the success view renders once a code is issued.
type LeadResult struct {
	Code            string    `json:"code"`
	Registration    string    `json:"registration"`     // normalized
	RawRegistration string    `json:"raw_registration"` // as typed
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// LeadForm is one visitor's instance of the discount form.
// Transitions: editing -> submitting -> (success | editing).
// Success is terminal.
type LeadForm struct {
	ID        string      `json:"id"`
	State     FormState   `json:"state"`
	Busy      bool        `json:"busy"`
	Notice    *Notice     `json:"notice,omitempty"`
	Result    *LeadResult `json:"result,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewLeadForm(now time.Time) *LeadForm {
	return &LeadForm{
		ID:        ulid.Make().String(),
		State:     FormEditing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidFormID reports whether id could have been issued by NewLeadForm.
func ValidFormID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// BeginSubmit moves an editing form into submitting and raises the busy flag.
func (f *LeadForm) BeginSubmit(now time.Time) error {
	switch f.State {
	case FormSubmitting:
		return domain.ErrFormBusy
	case FormSuccess:
		return domain.ErrFormCompleted
	}
	f.State = FormSubmitting
	f.Busy = true
	f.Notice = nil
	f.UpdatedAt = now
	return nil
}

// Reject returns the form to editing with the given notice. It is valid from
// editing (validation failures never leave it) and from submitting.
func (f *LeadForm) Reject(n *Notice, now time.Time) {
	if f.State == FormSuccess {
		return
	}
	f.State = FormEditing
	f.Busy = false
	f.Notice = n
	f.UpdatedAt = now
}

// Complete records the issued code and makes the form terminal.
func (f *LeadForm) Complete(res *LeadResult, now time.Time) {
	f.State = FormSuccess
	f.Busy = false
	f.Result = res
	f.Notice = NoticeCodeIssued()
	f.UpdatedAt = now
}

func (f *LeadForm) Succeeded() bool { return f != nil && f.State == FormSuccess }
