package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAccessors(t *testing.T) {
	ctx := WithDispatch(context.Background(), "agent-7", "email", "sendEmail")
	assert.Equal(t, "agent-7", AgentID(ctx))
	assert.Equal(t, "email", Provider(ctx))
	assert.Equal(t, "sendEmail", Action(ctx))
}

func TestContextAccessors_Absent(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, AgentID(ctx))
	assert.Empty(t, Provider(ctx))
	assert.Empty(t, Action(ctx))
}

func TestCorrelationHandler_InjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithDispatch(context.Background(), "agent-1", "chat", "complete")
	logger.InfoContext(ctx, "dispatching")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "agent-1", record["agent_id"])
	assert.Equal(t, "chat", record["provider"])
	assert.Equal(t, "complete", record["action"])
}

func TestCorrelationHandler_EmptyContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("no correlation")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, "agent_id")
	assert.NotContains(t, record, "provider")
}
