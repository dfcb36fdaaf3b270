package schema

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceedPopulatesDataOnly(t *testing.T) {
	res := Succeed(map[string]any{"courseId": "c-1"})
	assert.True(t, res.Success)
	assert.Equal(t, "c-1", res.Data["courseId"])
	assert.Empty(t, res.Error)
	assert.Empty(t, res.Code)
	assert.False(t, res.Timestamp.IsZero())
}

func TestFailKeepsGatewayErrorCodeAndBareMessage(t *testing.T) {
	err := NewError(ErrCodeCredentialsMissing, "Twilio credentials missing").
		WithProvider(ProviderVoiceCall)

	res := Fail(err)
	assert.False(t, res.Success)
	assert.Equal(t, "Twilio credentials missing", res.Error)
	assert.Equal(t, ErrCodeCredentialsMissing, res.Code)
	assert.Nil(t, res.Data)
}

func TestFailWrappedGatewayError(t *testing.T) {
	inner := NewError(ErrCodeTransportFailure, "api.twilio.com returned 500")
	wrapped := errors.Join(errors.New("outer"), inner)

	res := Fail(wrapped)
	assert.Equal(t, ErrCodeTransportFailure, res.Code)
	assert.Equal(t, "api.twilio.com returned 500", res.Error)
}

func TestFailUnknownErrorIsUnexpectedFailure(t *testing.T) {
	res := Fail(errors.New("something broke"))
	assert.Equal(t, ErrCodeUnexpectedFailure, res.Code)
	assert.Equal(t, "something broke", res.Error)
}

func TestEnvelopeJSONShape(t *testing.T) {
	res := Succeed(map[string]any{"ok": true})
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "success")
	assert.Contains(t, raw, "timestamp")
	assert.NotContains(t, raw, "error")
	assert.NotContains(t, raw, "code")

	ts := raw["timestamp"].(string)
	_, err = time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestGatewayErrorString(t *testing.T) {
	err := NewErrorf(ErrCodeUnknownAction, "unknown action %q", "sendFax").
		WithProvider(ProviderEmail)
	assert.Equal(t, `[UNKNOWN_ACTION] email: unknown action "sendFax"`, err.Error())

	bare := NewError(ErrCodeStore, "disk full")
	assert.Equal(t, "[STORE_ERROR] disk full", bare.Error())
}

func TestGatewayErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrCodeTransportFailure, "request failed").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestIsCallerError(t *testing.T) {
	for _, code := range []string{
		ErrCodeUnknownProvider, ErrCodeUnknownAction, ErrCodeInvalidPayload, ErrCodeValidation,
	} {
		assert.True(t, IsCallerError(code), code)
	}
	for _, code := range []string{
		ErrCodeCredentialsMissing, ErrCodeTransportFailure, ErrCodeUnexpectedFailure,
		ErrCodeNotFound, ErrCodeStore, "",
	} {
		assert.False(t, IsCallerError(code), code)
	}
}

func TestCorrelationIDFormat(t *testing.T) {
	id := CorrelationID("call")
	require.True(t, strings.HasPrefix(id, "call_"))

	ms, err := strconv.ParseInt(strings.TrimPrefix(id, "call_"), 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), ms, 5000)
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{ProviderChat: true, ProviderEmail: false}
	clone := snap.Clone()
	clone[ProviderChat] = false
	assert.True(t, snap[ProviderChat])

	var nilSnap Snapshot
	assert.Nil(t, nilSnap.Clone())
}
