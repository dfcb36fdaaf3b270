package gateway

import (
	"context"
	"encoding/json"
)

// HandlerFunc executes one provider action. It owns all provider-specific
// request shaping and the external call. Returned errors never escape the
// Router; they are converted to the normalized envelope at the dispatch
// boundary.
type HandlerFunc func(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error)

// Action describes one named operation scoped to a provider.
type Action struct {
	Name        string
	Description string

	// Required lists payload fields checked for presence before dispatch.
	// Missing fields are named in the resulting INVALID_PAYLOAD error.
	Required []string

	// InputSchema optionally tightens validation beyond presence checks
	// (types, enums). Compiled lazily and cached.
	InputSchema json.RawMessage

	Handler HandlerFunc
}

// ActionInfo is a summary of a registered action for listing.
type ActionInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
}
