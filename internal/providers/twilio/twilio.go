// Package twilio integrates the Twilio REST API for outbound voice calls and
// SMS. All calls are form-encoded POSTs with basic auth.
package twilio

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/internal/providers/rest"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

const (
	defaultBaseURL = "https://api.twilio.com"
	defaultVoice   = "Polly.Joanna"
	defaultPurpose = "a quick update"

	// callScript embeds the agent identity, the call purpose, and the
	// message into a fixed spoken template.
	callScript = "Hello! This is %s calling from the Homeroom dashboard about %s. %s Thank you, goodbye!"
)

// placeholder number used by capability probes; valid credentials are
// expected to reject it.
const probeNumber = "+15005550006"

// Config holds the Twilio provider configuration.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string // override for tests
	Timeout    time.Duration
}

// Provider is the voice-call capability.
type Provider struct {
	cfg    Config
	client *rest.Client
}

// New creates the voice-call provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Provider{cfg: cfg, client: rest.New(cfg.BaseURL, cfg.Timeout)}
}

func (p *Provider) Name() schema.ProviderName { return schema.ProviderVoiceCall }

func (p *Provider) Probe() gateway.ProbeSpec {
	return gateway.ProbeSpec{
		Action: "sendSms",
		Payload: map[string]any{
			"to":   probeNumber,
			"body": "Homeroom configuration check",
		},
		Mode: gateway.ProbeTolerateDomainError,
	}
}

func (p *Provider) Actions() []gateway.Action {
	return []gateway.Action{
		{
			Name:        "makeCall",
			Description: "Place an outbound voice call with a spoken script",
			Required:    []string{"to", "message"},
			Handler:     p.makeCall,
		},
		{
			Name:        "sendSms",
			Description: "Send an SMS message",
			Required:    []string{"to", "body"},
			Handler:     p.sendSms,
		},
	}
}

func (p *Provider) auth() (rest.Auth, error) {
	if p.cfg.AccountSID == "" || p.cfg.AuthToken == "" {
		return rest.Auth{}, schema.NewError(schema.ErrCodeCredentialsMissing,
			"Twilio credentials missing").WithProvider(schema.ProviderVoiceCall)
	}
	return rest.Auth{Username: p.cfg.AccountSID, Password: p.cfg.AuthToken}, nil
}

func (p *Provider) makeCall(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	to := gateway.StringField(payload, "to", "")
	message := gateway.StringField(payload, "message", "")
	purpose := gateway.StringField(payload, "purpose", defaultPurpose)
	voice := gateway.StringField(payload, "voice", defaultVoice)

	script := fmt.Sprintf(callScript, agentID, purpose, message)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", p.cfg.FromNumber)
	form.Set("Twiml", buildTwiML(voice, script))

	resp, err := p.client.PostForm(ctx, fmt.Sprintf("/2010-04-01/Accounts/%s/Calls.json", p.cfg.AccountSID), form, auth)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"agentId": agentID,
		"callSid": sidOrCorrelation(resp, "call"),
		"to":      to,
		"status":  resp["status"],
		"purpose": purpose,
	}, nil
}

func (p *Provider) sendSms(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	auth, err := p.auth()
	if err != nil {
		return nil, err
	}

	to := gateway.StringField(payload, "to", "")
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", p.cfg.FromNumber)
	form.Set("Body", gateway.StringField(payload, "body", ""))

	resp, err := p.client.PostForm(ctx, fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", p.cfg.AccountSID), form, auth)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"agentId":    agentID,
		"messageSid": sidOrCorrelation(resp, "sms"),
		"to":         to,
		"status":     resp["status"],
	}, nil
}

// buildTwiML wraps the spoken script in a minimal TwiML document.
func buildTwiML(voice, script string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(script))
	return fmt.Sprintf(`<Response><Say voice="%s">%s</Say></Response>`, voice, escaped.String())
}

func sidOrCorrelation(resp map[string]any, kind string) string {
	if sid, ok := resp["sid"].(string); ok && sid != "" {
		return sid
	}
	return schema.CorrelationID(kind)
}
