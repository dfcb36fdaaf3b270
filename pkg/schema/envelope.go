package schema

import (
	"errors"
	"fmt"
	"time"
)

// ActionRequest is the inbound shape for one action invocation. AgentID is an
// opaque caller identity used for logging and correlation only.
type ActionRequest struct {
	Provider ProviderName   `json:"provider"`
	Action   string         `json:"action"`
	AgentID  string         `json:"agentId"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// ActionResult is the normalized outbound envelope. Exactly one of Data/Error
// is populated, matching Success. Timestamp marshals as RFC 3339.
type ActionResult struct {
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Code      string         `json:"code,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Succeed builds a success envelope around the given data.
func Succeed(data map[string]any) ActionResult {
	return ActionResult{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Fail converts any error into a failure envelope. GatewayErrors keep their
// code and bare message; anything else is classified UNEXPECTED_FAILURE.
func Fail(err error) ActionResult {
	res := ActionResult{
		Success:   false,
		Timestamp: time.Now().UTC(),
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		res.Error = ge.Message
		res.Code = ge.Code
		return res
	}
	res.Error = err.Error()
	res.Code = ErrCodeUnexpectedFailure
	return res
}

// CorrelationID generates a fallback identifier ("<kind>_<epoch-ms>") for
// providers that don't assign one of their own.
func CorrelationID(kind string) string {
	return fmt.Sprintf("%s_%d", kind, time.Now().UnixMilli())
}
