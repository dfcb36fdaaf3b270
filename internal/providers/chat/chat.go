// Package chat integrates the OpenAI chat-completion API, composing the agent
// persona prompt from caller-supplied personality fields and recent history.
package chat

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

const (
	defaultModel = "gpt-4o-mini"

	// maxHistoryTurns bounds how much prior conversation is replayed into
	// each completion.
	maxHistoryTurns = 8

	temperature      = 0.8
	presencePenalty  = 0.6
	frequencyPenalty = 0.3
)

// personaTemplate fixes the system prompt shape; callers fill the blanks via
// the personality payload fields.
const personaTemplate = "You are %s, %s. Your tone is %s. You assist teachers and staff from the Homeroom agent dashboard; keep answers concise and actionable."

// Config holds the chat provider configuration.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests
}

// Provider is the chat capability.
type Provider struct {
	cfg    Config
	client openai.Client
}

// New creates the chat provider.
func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{cfg: cfg, client: openai.NewClient(opts...)}
}

func (p *Provider) Name() schema.ProviderName { return schema.ProviderChat }

func (p *Provider) Probe() gateway.ProbeSpec {
	return gateway.ProbeSpec{
		Action:  "complete",
		Payload: map[string]any{"message": "Reply with the single word OK."},
		Mode:    gateway.ProbeExpectSuccess,
	}
}

func (p *Provider) Actions() []gateway.Action {
	return []gateway.Action{
		{
			Name:        "complete",
			Description: "Generate one chat completion in the agent persona",
			Required:    []string{"message"},
			Handler:     p.complete,
		},
	}
}

func (p *Provider) complete(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	if p.cfg.APIKey == "" {
		return nil, schema.NewError(schema.ErrCodeCredentialsMissing,
			"OpenAI credentials missing").WithProvider(schema.ProviderChat)
	}

	message := gateway.StringField(payload, "message", "")
	personality := gateway.MapField(payload, "personality")
	history := gateway.MapSliceField(payload, "history")

	messages := buildMessages(personality, history, message)

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:            p.cfg.Model,
		Messages:         messages,
		Temperature:      openai.Float(temperature),
		PresencePenalty:  openai.Float(presencePenalty),
		FrequencyPenalty: openai.Float(frequencyPenalty),
	})
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeTransportFailure,
			"completion request failed: %v", err).WithCause(err).WithProvider(schema.ProviderChat)
	}
	if len(completion.Choices) == 0 {
		return nil, schema.NewError(schema.ErrCodeTransportFailure,
			"completion returned no choices").WithProvider(schema.ProviderChat)
	}

	messageID := completion.ID
	if messageID == "" {
		messageID = schema.CorrelationID("chat")
	}

	return map[string]any{
		"agentId":   agentID,
		"messageId": messageID,
		"reply":     completion.Choices[0].Message.Content,
		"model":     completion.Model,
	}, nil
}

// buildMessages composes the persona system prompt, up to the last 8 history
// turns, and the new user message.
func buildMessages(personality map[string]any, history []map[string]any, message string) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(personality)),
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		content := gateway.StringField(turn, "content", "")
		if content == "" {
			continue
		}
		if gateway.StringField(turn, "role", "user") == "assistant" {
			messages = append(messages, openai.AssistantMessage(content))
		} else {
			messages = append(messages, openai.UserMessage(content))
		}
	}

	return append(messages, openai.UserMessage(message))
}

func systemPrompt(personality map[string]any) string {
	name := gateway.StringField(personality, "name", "the Homeroom assistant")
	role := gateway.StringField(personality, "role", "a school operations assistant")
	tone := gateway.StringField(personality, "tone", "friendly and professional")
	return fmt.Sprintf(personaTemplate, name, role, tone)
}
