// File: internal/infra/adapters/mail/sendgrid_mailer.go
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"tnt-services-site/internal/config"
	"tnt-services-site/internal/domain/ports/adapter"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var _ adapter.Mailer = (*SendGridMailer)(nil)

// SendGridMailer delivers the discount email through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey   string
	baseURL  string
	fromName string
	fromMail string
	client   *http.Client
}

func NewSendGridMailer(cfg config.MailConfig) *SendGridMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.sendgrid.com"
	}
	return &SendGridMailer{
		apiKey:   cfg.SendGridKey,
		baseURL:  base,
		fromName: cfg.FromName,
		fromMail: cfg.FromEmail,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *SendGridMailer) Name() string { return "sendgrid" }

func (s *SendGridMailer) SendDiscount(ctx context.Context, msg adapter.DiscountEmail) error {
	html, text, err := renderDiscount(msg)
	if err != nil {
		return err
	}

	message := sgmail.NewV3Mail()
	message.SetFrom(sgmail.NewEmail(s.fromName, s.fromMail))
	message.Subject = msg.Headline + ": " + msg.Code

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))
	message.AddPersonalizations(p)
	message.AddContent(sgmail.NewContent("text/plain", text))
	message.AddContent(sgmail.NewContent("text/html", html))

	body := sgmail.GetRequestBody(message)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("sendgrid API error: %d %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

var discountHTML = template.Must(template.New("discount").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#111">
<h2>{{.Headline}}</h2>
<p>Hi {{.ToName}}, thanks for choosing TNT Services. Show this code when you book:</p>
<p style="font-size:28px;font-weight:bold;letter-spacing:2px">{{.Code}}</p>
<ul>{{range .Terms}}<li>{{.}}</li>{{end}}</ul>
<p>Valid until {{.ValidUntil.Format "2 January 2006"}}.</p>
</body></html>`))

func renderDiscount(msg adapter.DiscountEmail) (html, text string, err error) {
	var buf bytes.Buffer
	if err := discountHTML.Execute(&buf, msg); err != nil {
		return "", "", fmt.Errorf("render discount email: %w", err)
	}

	var tb strings.Builder
	fmt.Fprintf(&tb, "Hi %s,\n\n%s: %s\n\n", msg.ToName, msg.Headline, msg.Code)
	for _, t := range msg.Terms {
		fmt.Fprintf(&tb, "- %s\n", t)
	}
	fmt.Fprintf(&tb, "\nValid until %s.\n", msg.ValidUntil.Format("2 January 2006"))
	return buf.String(), tb.String(), nil
}
