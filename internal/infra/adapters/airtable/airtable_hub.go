// File: internal/infra/adapters/airtable/airtable_hub.go
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tnt-services-site/internal/config"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/adapter"

	"github.com/nyaruka/phonenumbers"
)

var _ adapter.AutomationHub = (*Hub)(nil)

// APIError carries the HTTP status and body of a rejected Airtable call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.Status, e.Body)
}

// Hub creates lead records in one Airtable table through REST v0.
type Hub struct {
	baseURL string
	baseID  string
	table   string
	apiKey  string
	region  string
	client  *http.Client
}

func NewHub(cfg config.AirtableConfig) *Hub {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.airtable.com/v0"
	}
	return &Hub{
		baseURL: base,
		baseID:  cfg.BaseID,
		table:   cfg.Table,
		apiKey:  cfg.APIKey,
		region:  cfg.DefaultRegion,
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *Hub) Name() string { return "airtable" }

func (h *Hub) Configured() bool { return h.baseID != "" && h.apiKey != "" }

func (h *Hub) endpoint() string {
	return fmt.Sprintf("%s/%s/%s", h.baseURL, url.PathEscape(h.baseID), url.PathEscape(h.table))
}

func (h *Hub) CreateRecord(ctx context.Context, rec model.AutomationRecord) error {
	payload := map[string]any{
		"fields": map[string]string{
			"Name":             rec.Name,
			"Email":            rec.Email,
			"Phone":            FormatPhone(rec.Phone, h.region),
			"Car Registration": rec.CarRegistration,
			"Discount Code":    rec.DiscountCode,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("airtable: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint(), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// FormatPhone returns the E.164 form of raw when it parses as a valid number
// for region, and raw unchanged otherwise.
func FormatPhone(raw, region string) string {
	if region == "" {
		region = "GB"
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
