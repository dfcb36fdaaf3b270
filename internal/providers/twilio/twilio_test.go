package twilio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

func testConfig(baseURL string) Config {
	return Config{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15551230000",
		BaseURL:    baseURL,
	}
}

func TestMakeCallBuildsScriptAndTwiML(t *testing.T) {
	var gotForm map[string]string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotForm = map[string]string{
			"To":    r.PostForm.Get("To"),
			"From":  r.PostForm.Get("From"),
			"Twiml": r.PostForm.Get("Twiml"),
		}
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid": "CA999", "status": "queued"}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL))
	data, err := p.makeCall(context.Background(), "ms-rivera", map[string]any{
		"to":      "+15557654321",
		"message": "Parent conference is tomorrow at 3pm.",
		"purpose": "a schedule change",
	})
	require.NoError(t, err)

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls.json", gotPath)
	assert.Equal(t, "+15557654321", gotForm["To"])
	assert.Equal(t, "+15551230000", gotForm["From"])
	assert.Contains(t, gotForm["Twiml"], `<Say voice="Polly.Joanna">`)
	assert.Contains(t, gotForm["Twiml"], "This is ms-rivera calling from the Homeroom dashboard about a schedule change.")
	assert.Contains(t, gotForm["Twiml"], "Parent conference is tomorrow at 3pm.")

	assert.Equal(t, "CA999", data["callSid"])
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, "ms-rivera", data["agentId"])
}

func TestMakeCallDefaultsPurposeAndVoice(t *testing.T) {
	var twiml string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		twiml = r.PostForm.Get("Twiml")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid": "CA1"}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL))
	data, err := p.makeCall(context.Background(), "agent-1", map[string]any{
		"to":      "+15557654321",
		"message": "Hello.",
	})
	require.NoError(t, err)

	assert.Contains(t, twiml, "about a quick update.")
	assert.Contains(t, twiml, `voice="Polly.Joanna"`)
	assert.Equal(t, "a quick update", data["purpose"])
}

func TestSendSms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		assert.Equal(t, "Homework reminder", r.PostForm.Get("Body"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid": "SM42", "status": "queued"}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL))
	data, err := p.sendSms(context.Background(), "agent-1", map[string]any{
		"to":   "+15557654321",
		"body": "Homework reminder",
	})
	require.NoError(t, err)
	assert.Equal(t, "SM42", data["messageSid"])
}

func TestSendSmsGeneratesCorrelationID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "queued"}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL))
	data, err := p.sendSms(context.Background(), "agent-1", map[string]any{
		"to":   "+15557654321",
		"body": "x",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^sms_\d+$`, data["messageSid"])
}

func TestCredentialsMissing(t *testing.T) {
	p := New(Config{})
	_, err := p.sendSms(context.Background(), "agent-1", map[string]any{"to": "+1", "body": "x"})
	require.Error(t, err)

	var gerr *schema.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, schema.ErrCodeCredentialsMissing, gerr.Code)
	assert.Equal(t, "Twilio credentials missing", gerr.Message)
}

func TestAPIErrorBecomesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Invalid phone number"}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL))
	_, err := p.sendSms(context.Background(), "agent-1", map[string]any{"to": "bogus", "body": "x"})
	require.Error(t, err)

	var gerr *schema.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, schema.ErrCodeTransportFailure, gerr.Code)
	assert.Contains(t, gerr.Message, "Invalid phone number")
}

func TestProbeUsesSmsWithPlaceholderNumber(t *testing.T) {
	p := New(testConfig(""))
	spec := p.Probe()
	assert.Equal(t, "sendSms", spec.Action)
	assert.Equal(t, gateway.ProbeTolerateDomainError, spec.Mode)
	assert.Equal(t, probeNumber, spec.Payload["to"])
}

func TestBuildTwiMLEscapesScript(t *testing.T) {
	out := buildTwiML("Polly.Joanna", `say "hi" & <bye>`)
	assert.Contains(t, out, "&amp;")
	assert.Contains(t, out, "&lt;bye&gt;")
	assert.NotContains(t, out, "<bye>")
}
