package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

// --- Tool definitions ---

func dispatchTool() mcp.Tool {
	return mcp.NewTool("homeroom.dispatch",
		mcp.WithDescription("Invoke one provider action through the gateway"),
		mcp.WithString("provider", mcp.Required(),
			mcp.Enum("classroom", "voice-call", "email", "web-research", "chat", "documents"),
			mcp.Description("Target provider"),
		),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name within the provider")),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("ID of the calling agent")),
		mcp.WithObject("payload", mcp.Description("Action payload")),
	)
}

func providersTool() mcp.Tool {
	return mcp.NewTool("homeroom.providers",
		mcp.WithDescription("List registered providers and their actions"),
	)
}

func capabilitiesTool() mcp.Tool {
	return mcp.NewTool("homeroom.capabilities",
		mcp.WithDescription("Get the per-provider availability snapshot (probes on first call)"),
	)
}

func refreshTool() mcp.Tool {
	return mcp.NewTool("homeroom.refresh",
		mcp.WithDescription("Invalidate the availability snapshot and re-probe every provider"),
	)
}

// --- Handlers ---

func (s *GatewayServer) handleDispatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	provider, err := req.RequireString("provider")
	if err != nil {
		return mcp.NewToolResultError("provider is required"), nil
	}
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action is required"), nil
	}
	agentID, err := req.RequireString("agent_id")
	if err != nil {
		return mcp.NewToolResultError("agent_id is required"), nil
	}
	payload := mcp.ParseStringMap(req, "payload", nil)

	result := s.router.Dispatch(ctx, schema.ActionRequest{
		Provider: schema.ProviderName(provider),
		Action:   action,
		AgentID:  agentID,
		Payload:  payload,
	})
	return marshalResult(result)
}

func (s *GatewayServer) handleProviders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(map[string]any{"providers": s.router.Providers()})
}

func (s *GatewayServer) handleCapabilities(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(map[string]any{"capabilities": s.prober.CheckAll(ctx)})
}

func (s *GatewayServer) handleRefresh(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.prober.Invalidate()
	return marshalResult(map[string]any{
		"capabilities": s.prober.CheckAll(ctx),
		"refreshed":    true,
	})
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
