package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeUnknownProvider    = "UNKNOWN_PROVIDER"
	ErrCodeUnknownAction      = "UNKNOWN_ACTION"
	ErrCodeInvalidPayload     = "INVALID_PAYLOAD"
	ErrCodeCredentialsMissing = "CREDENTIALS_MISSING"
	ErrCodeTransportFailure   = "TRANSPORT_FAILURE"
	ErrCodeUnexpectedFailure  = "UNEXPECTED_FAILURE"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeStore              = "STORE_ERROR"
	ErrCodeVault              = "VAULT_ERROR"
)

// GatewayError is the structured error type for all gateway operations.
type GatewayError struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Provider string         `json:"provider,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Cause    error          `json:"-"`
}

func (e *GatewayError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Provider, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewError creates a new GatewayError.
func NewError(code, message string) *GatewayError {
	return &GatewayError{Code: code, Message: message}
}

// NewErrorf creates a new GatewayError with a formatted message.
func NewErrorf(code, format string, args ...any) *GatewayError {
	return &GatewayError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithProvider attaches the provider name to the error.
func (e *GatewayError) WithProvider(provider ProviderName) *GatewayError {
	e.Provider = string(provider)
	return e
}

// WithCause attaches an underlying cause.
func (e *GatewayError) WithCause(err error) *GatewayError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *GatewayError) WithDetails(details map[string]any) *GatewayError {
	e.Details = details
	return e
}

// IsCallerError reports whether a code identifies a malformed request rather
// than a provider or gateway failure. Caller errors map to HTTP 400.
func IsCallerError(code string) bool {
	switch code {
	case ErrCodeUnknownProvider, ErrCodeUnknownAction, ErrCodeInvalidPayload, ErrCodeValidation:
		return true
	}
	return false
}
