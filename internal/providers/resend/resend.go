// Package resend integrates the Resend email REST API.
package resend

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/internal/providers/rest"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultFrom    = "Homeroom <agent@homeroom.dev>"

	// subjectTag prefixes every outbound subject line.
	subjectTag = "[Homeroom] "
)

// brandedTemplate wraps a plain-text body when the caller supplies no HTML.
// Format verbs: escaped body, then the sending agent id.
const brandedTemplate = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #4f46e5; color: #ffffff; padding: 16px 24px; border-radius: 8px 8px 0 0;">
    <h2 style="margin: 0;">Homeroom</h2>
  </div>
  <div style="padding: 24px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px;">
    <p style="white-space: pre-line; color: #111827;">%s</p>
    <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 24px 0;">
    <p style="color: #6b7280; font-size: 12px;">Sent by agent %s via the Homeroom dashboard.</p>
  </div>
</div>`

// Config holds the email provider configuration.
type Config struct {
	APIKey  string
	From    string
	BaseURL string // override for tests
	Timeout time.Duration
}

// Provider is the email capability.
type Provider struct {
	cfg    Config
	client *rest.Client
}

// New creates the email provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	return &Provider{cfg: cfg, client: rest.New(cfg.BaseURL, cfg.Timeout)}
}

func (p *Provider) Name() schema.ProviderName { return schema.ProviderEmail }

func (p *Provider) Probe() gateway.ProbeSpec {
	return gateway.ProbeSpec{
		Action: "sendEmail",
		Payload: map[string]any{
			"to":      "probe@example.com",
			"subject": "Configuration check",
			"body":    "Homeroom configuration check",
		},
		Mode: gateway.ProbeTolerateDomainError,
	}
}

func (p *Provider) Actions() []gateway.Action {
	return []gateway.Action{
		{
			Name:        "sendEmail",
			Description: "Send an email, wrapping plain text in the branded template",
			Required:    []string{"to", "subject", "body"},
			Handler:     p.sendEmail,
		},
	}
}

func (p *Provider) sendEmail(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	if p.cfg.APIKey == "" {
		return nil, schema.NewError(schema.ErrCodeCredentialsMissing,
			"Resend credentials missing").WithProvider(schema.ProviderEmail)
	}

	to := gateway.StringField(payload, "to", "")
	subject := subjectTag + gateway.StringField(payload, "subject", "")
	body := gateway.StringField(payload, "body", "")

	htmlBody := gateway.StringField(payload, "html", "")
	if htmlBody == "" {
		htmlBody = fmt.Sprintf(brandedTemplate, html.EscapeString(body), html.EscapeString(agentID))
	}

	resp, err := p.client.PostJSON(ctx, "/emails", map[string]any{
		"from":    p.cfg.From,
		"to":      []string{to},
		"subject": subject,
		"text":    body,
		"html":    htmlBody,
	}, rest.Auth{Bearer: p.cfg.APIKey})
	if err != nil {
		return nil, err
	}

	messageID, _ := resp["id"].(string)
	if messageID == "" {
		messageID = schema.CorrelationID("email")
	}

	return map[string]any{
		"agentId":   agentID,
		"messageId": messageID,
		"to":        to,
		"subject":   subject,
	}, nil
}
