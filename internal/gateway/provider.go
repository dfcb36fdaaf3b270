package gateway

import (
	"github.com/homeroomhq/homeroom/pkg/schema"
)

// ProbeMode determines how a probe outcome maps to an availability flag.
type ProbeMode int

const (
	// ProbeExpectSuccess marks a provider available only when its probe
	// call succeeds cleanly.
	ProbeExpectSuccess ProbeMode = iota

	// ProbeTolerateDomainError marks a provider available when the probe
	// call completed, unless the error message indicates missing
	// credentials. Used for providers whose probe payload is a placeholder
	// that is expected to fail validation: a "bad phone number" style error
	// proves the credentials work.
	ProbeTolerateDomainError
)

// ProbeSpec describes the benign call the Prober issues for one provider.
type ProbeSpec struct {
	Action  string
	Payload map[string]any
	Mode    ProbeMode
}

// Provider is a named external capability with its action table and probe.
// Implementations are registered once at startup and must be safe for
// concurrent use.
type Provider interface {
	Name() schema.ProviderName
	Actions() []Action
	Probe() ProbeSpec
}

// ProviderInfo is a summary of a registered provider for listing.
type ProviderInfo struct {
	Name    schema.ProviderName `json:"name"`
	Actions []ActionInfo        `json:"actions"`
}
