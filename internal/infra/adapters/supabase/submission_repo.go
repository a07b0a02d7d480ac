// File: internal/infra/adapters/supabase/submission_repo.go
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tnt-services-site/internal/config"
	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/repository"
)

var _ repository.SubmissionRepository = (*SubmissionRepo)(nil)

const uniqueViolation = "23505"

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s %s", e.Status, e.Code, e.Message)
}

// SubmissionRepo talks to the form_submissions table through the Supabase
// REST (PostgREST) API with the project's anon key.
type SubmissionRepo struct {
	restURL string
	anonKey string
	client  *http.Client
}

func NewSubmissionRepo(cfg config.SupabaseConfig, table string, timeout time.Duration) *SubmissionRepo {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if table == "" {
		table = "form_submissions"
	}
	return &SubmissionRepo{
		restURL: strings.TrimRight(cfg.URL, "/") + "/rest/v1/" + url.PathEscape(table),
		anonKey: cfg.AnonKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *SubmissionRepo) ExistsActive(ctx context.Context, registration string) (bool, error) {
	q := url.Values{}
	q.Set("select", "car_registration")
	q.Set("car_registration", "eq."+registration)
	q.Set("is_active", "is.true")
	q.Set("limit", "1")

	var rows []struct {
		CarRegistration string `json:"car_registration"`
	}
	if err := r.do(ctx, http.MethodGet, q, nil, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (r *SubmissionRepo) Insert(ctx context.Context, s *model.Submission) error {
	row := map[string]any{
		"name":             s.Name,
		"email":            s.Email,
		"phone":            s.Phone,
		"car_registration": s.CarRegistration,
		"discount_code":    s.DiscountCode,
		"is_active":        s.IsActive,
	}
	var out []model.Submission
	err := r.do(ctx, http.MethodPost, nil, []map[string]any{row}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusConflict || apiErr.Code == uniqueViolation) {
			return domain.ErrDuplicateRegistration
		}
		return err
	}
	if len(out) > 0 {
		s.ID = out[0].ID
		s.CreatedAt = out[0].CreatedAt
	}
	return nil
}

func (r *SubmissionRepo) List(ctx context.Context, limit, offset int) ([]*model.Submission, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out []*model.Submission
	if err := r.do(ctx, http.MethodGet, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SubmissionRepo) do(ctx context.Context, method string, q url.Values, body any, out any) error {
	target := r.restURL
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("supabase: encode: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", r.anonKey)
	req.Header.Set("Authorization", "Bearer "+r.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("supabase: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: decode: %w", err)
	}
	return nil
}
