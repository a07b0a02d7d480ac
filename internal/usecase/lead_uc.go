package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/adapter"
	"tnt-services-site/internal/domain/ports/repository"
	"tnt-services-site/internal/infra/logging"
	"tnt-services-site/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Dispatcher runs follow-up work off the request path.
type Dispatcher interface {
	Submit(task func(ctx context.Context) error) error
}

// LeadOptions tunes the lead workflow.
type LeadOptions struct {
	RequireConsent bool
	// LockTTL bounds how long a form or registration lock is held. A form
	// left in submitting for longer than this (crashed request) is treated
	// as editing again.
	LockTTL time.Duration
	Dev     bool // log PII unredacted
	// Dispatcher, when set, sends the customer email and staff notification
	// asynchronously. They run inline otherwise, or when the queue is full.
	Dispatcher Dispatcher
}

// LeadUseCase runs the discount form workflow:
// validate, check duplicate, generate code, save, mirror, succeed.
type LeadUseCase struct {
	forms      repository.FormStateRepository
	locker     repository.Locker
	subs       *SubmissionClient
	automation *AutomationClient
	mailer     adapter.Mailer
	notifier   adapter.StaffNotifier
	codes      CodeGenerator
	offer      model.Offer
	opts       LeadOptions
	log        *zerolog.Logger
	now        func() time.Time
}

func NewLeadUseCase(
	forms repository.FormStateRepository,
	locker repository.Locker,
	subs *SubmissionClient,
	automation *AutomationClient,
	mailer adapter.Mailer,
	notifier adapter.StaffNotifier,
	codes CodeGenerator,
	offer model.Offer,
	opts LeadOptions,
	logger *zerolog.Logger,
) *LeadUseCase {
	if codes == nil {
		codes = DefaultCodeGenerator
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "lead_uc").Logger()
	return &LeadUseCase{
		forms:      forms,
		locker:     locker,
		subs:       subs,
		automation: automation,
		mailer:     mailer,
		notifier:   notifier,
		codes:      codes,
		offer:      offer,
		opts:       opts,
		log:        &l,
		now:        time.Now,
	}
}

func (uc *LeadUseCase) Offer() model.Offer { return uc.offer }

// Open creates a fresh form instance in the editing state.
func (uc *LeadUseCase) Open(ctx context.Context) (*model.LeadForm, error) {
	f := model.NewLeadForm(uc.now())
	if err := uc.forms.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("save form: %w", err)
	}
	metrics.IncLeadFormOpened()
	return f, nil
}

// Get returns the current state of a form instance.
func (uc *LeadUseCase) Get(ctx context.Context, formID string) (*model.LeadForm, error) {
	if !model.ValidFormID(formID) {
		return nil, domain.ErrNotFound
	}
	return uc.forms.Get(ctx, formID)
}

// Submit runs one submit attempt for the form. The returned form carries the
// notice to show; a nil error does not imply success. ErrFormBusy is
// returned while another attempt on the same form is in flight.
func (uc *LeadUseCase) Submit(ctx context.Context, formID string, in model.LeadInput) (*model.LeadForm, error) {
	ctx = logging.WithFormID(ctx, formID)
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "LeadUseCase.Submit")()

	form, err := uc.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Succeeded() {
		return form, nil
	}

	token, err := uc.locker.TryLock(ctx, formLockKey(formID), uc.opts.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			metrics.IncLeadOutcome("busy")
			return nil, domain.ErrFormBusy
		}
		return nil, fmt.Errorf("lock form: %w", err)
	}
	defer uc.unlock(ctx, formLockKey(formID), token)

	// re-read under the lock; the previous holder may have finished
	form, err = uc.forms.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Succeeded() {
		return form, nil
	}
	if form.State == model.FormSubmitting && uc.now().Sub(form.UpdatedAt) > uc.opts.LockTTL {
		log.Warn().Time("since", form.UpdatedAt).Msg("recovering stale submitting form")
		form.Reject(nil, uc.now())
	}

	in = in.Trimmed()
	if n := in.Validate(uc.opts.RequireConsent); n != nil {
		if form.State == model.FormSubmitting {
			return nil, domain.ErrFormBusy
		}
		form.Reject(n, uc.now())
		metrics.IncLeadOutcome(string(n.Kind))
		return form, uc.persist(ctx, form)
	}

	if err := form.BeginSubmit(uc.now()); err != nil {
		metrics.IncLeadOutcome("busy")
		return nil, err
	}
	if err := uc.forms.Save(ctx, form); err != nil {
		return nil, fmt.Errorf("save form: %w", err)
	}

	res, notice := uc.process(ctx, in)
	if res != nil {
		form.Complete(res, uc.now())
		metrics.IncLeadOutcome(string(model.NoticeSuccess))
	} else {
		form.Reject(notice, uc.now())
		metrics.IncLeadOutcome(string(notice.Kind))
	}
	if res != nil {
		// the row is committed; the success view must be stored even if the
		// caller has gone away
		ctx = context.WithoutCancel(ctx)
	}
	if err := uc.persist(ctx, form); err != nil && res == nil {
		return nil, err
	}
	return form, nil
}

// Card returns the issued result for the image export.
func (uc *LeadUseCase) Card(ctx context.Context, formID string) (*model.LeadResult, error) {
	form, err := uc.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.Succeeded() || form.Result == nil {
		return nil, domain.ErrNotFound
	}
	return form.Result, nil
}

// process runs steps 1-4 of the workflow. Exactly one of the results is
// non-nil. Panics are converted into the generic failure notice.
func (uc *LeadUseCase) process(ctx context.Context, in model.LeadInput) (res *model.LeadResult, notice *model.Notice) {
	log := logging.With(ctx, uc.log)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("lead workflow panicked")
			res, notice = nil, model.NoticeSomethingWentWrong()
		}
	}()

	registration := model.NormalizeRegistration(in.CarRegistration)

	regKey := registrationLockKey(registration)
	token, err := uc.locker.TryLock(ctx, regKey, uc.opts.LockTTL)
	switch {
	case errors.Is(err, domain.ErrLockNotAcquired):
		log.Info().Str("registration", registration).Msg("registration locked by another submission")
		return nil, model.NoticeSomethingWentWrong()
	case err != nil:
		// the store constraint still rejects duplicates
		log.Warn().Err(err).Msg("registration lock unavailable, continuing without it")
	default:
		defer uc.unlock(ctx, regKey, token)
	}

	// 1. duplicate check
	if uc.subs.CheckDuplicate(ctx, registration) {
		log.Info().Str("registration", registration).Msg("registration already used")
		return nil, model.NoticeRegistrationUsed()
	}

	// 2. code
	code := uc.codes.Generate()
	generatedAt := uc.now()

	// 3. save
	sub := model.NewSubmission(in, code)
	if err := uc.subs.Save(ctx, sub); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateRegistration):
			return nil, model.NoticeRegistrationUsed()
		case errors.Is(err, domain.ErrPersistenceFailed), errors.Is(err, domain.ErrPersistenceUnavailable):
			return nil, model.NoticeDatabaseError()
		default:
			log.Error().Err(err).Msg("unexpected save error")
			return nil, model.NoticeSomethingWentWrong()
		}
	}

	// 4. best-effort follow ups, detached from the request
	ctx = context.WithoutCancel(ctx)
	uc.followUp(ctx, in, registration, code, generatedAt)

	log.Info().
		Str("registration", registration).
		Str("email", logging.Redact(in.Email, uc.opts.Dev)).
		Str("discount_code", code).
		Msg("discount code issued")

	return &model.LeadResult{
		Code:            code,
		Registration:    registration,
		RawRegistration: in.CarRegistration,
		Name:            in.Name,
		Email:           in.Email,
		GeneratedAt:     generatedAt,
	}, nil
}

func (uc *LeadUseCase) followUp(ctx context.Context, in model.LeadInput, registration, code string, at time.Time) {
	log := logging.With(ctx, uc.log)

	uc.automation.Submit(ctx, model.AutomationRecord{
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		CarRegistration: registration,
		DiscountCode:    code,
		SubmittedAt:     at,
	})

	email := adapter.DiscountEmail{
		ToName:     in.Name,
		ToEmail:    in.Email,
		Code:       code,
		Headline:   uc.offer.Headline(),
		Terms:      uc.offer.Terms(),
		ValidUntil: uc.offer.ValidUntil(at),
	}
	staff := staffMessage(in, registration, code)
	task := func(ctx context.Context) error {
		uc.notify(ctx, log, email, staff)
		return nil
	}

	if d := uc.opts.Dispatcher; d != nil {
		err := d.Submit(task)
		if err == nil {
			return
		}
		log.Warn().Err(err).Msg("dispatch failed, sending follow-ups inline")
	}
	_ = task(ctx)
}

// notify sends the customer email and the staff notification. Failures are
// logged only.
func (uc *LeadUseCase) notify(ctx context.Context, log *zerolog.Logger, email adapter.DiscountEmail, staff string) {
	if uc.mailer != nil {
		start := time.Now()
		if err := uc.mailer.SendDiscount(ctx, email); err != nil {
			metrics.ObserveExternal(uc.mailer.Name(), "send", "error", time.Since(start))
			log.Error().Err(err).Str("mailer", uc.mailer.Name()).Msg("discount email failed")
		} else {
			metrics.ObserveExternal(uc.mailer.Name(), "send", "ok", time.Since(start))
		}
	}

	if uc.notifier != nil {
		start := time.Now()
		if err := uc.notifier.NotifyLead(ctx, staff); err != nil {
			metrics.ObserveExternal(uc.notifier.Name(), "notify", "error", time.Since(start))
			log.Error().Err(err).Str("notifier", uc.notifier.Name()).Msg("staff notification failed")
		} else {
			metrics.ObserveExternal(uc.notifier.Name(), "notify", "ok", time.Since(start))
		}
	}
}

func (uc *LeadUseCase) persist(ctx context.Context, f *model.LeadForm) error {
	if err := uc.forms.Save(ctx, f); err != nil {
		logging.With(ctx, uc.log).Error().Err(err).Str("state", string(f.State)).Msg("save form state failed")
		return fmt.Errorf("save form: %w", err)
	}
	return nil
}

func (uc *LeadUseCase) unlock(ctx context.Context, key, token string) {
	// the request context may already be done
	ctx = context.WithoutCancel(ctx)
	if err := uc.locker.Unlock(ctx, key, token); err != nil {
		logging.With(ctx, uc.log).Warn().Err(err).Str("key", key).Msg("unlock failed")
	}
}

func staffMessage(in model.LeadInput, registration, code string) string {
	var b strings.Builder
	b.WriteString("New discount lead\n")
	fmt.Fprintf(&b, "Name: %s\n", in.Name)
	fmt.Fprintf(&b, "Phone: %s\n", in.Phone)
	fmt.Fprintf(&b, "Email: %s\n", in.Email)
	fmt.Fprintf(&b, "Registration: %s\n", registration)
	fmt.Fprintf(&b, "Code: %s", code)
	return b.String()
}

func formLockKey(id string) string { return "lock:form:" + id }

func registrationLockKey(reg string) string { return "lock:registration:" + reg }
