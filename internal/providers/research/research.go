// Package research integrates the Perplexity search API through its
// OpenAI-compatible chat surface, and distills raw answers into short
// insight lists with deduplicated source hostnames.
package research

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

const defaultBaseURL = "https://api.perplexity.ai"

const (
	maxInsights      = 5
	maxSources       = 10
	minInsightLength = 20
	recencyFilter    = "month"
)

// modelForSearchType maps the searchType enum to a fixed model identifier.
var modelForSearchType = map[string]string{
	"general":   "sonar",
	"news":      "sonar",
	"academic":  "sonar-reasoning",
	"financial": "sonar-pro",
}

const researchSystemPrompt = "You are a research assistant. Answer with concise factual statements, one per line, and cite source URLs inline."

var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// Config holds the web-research provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // override for tests
}

// Provider is the web-research capability.
type Provider struct {
	cfg    Config
	client openai.Client
}

// New creates the web-research provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	)
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() schema.ProviderName { return schema.ProviderWebResearch }

func (p *Provider) Probe() gateway.ProbeSpec {
	return gateway.ProbeSpec{
		Action:  "search",
		Payload: map[string]any{"query": "What is today's date?"},
		Mode:    gateway.ProbeExpectSuccess,
	}
}

func (p *Provider) Actions() []gateway.Action {
	return []gateway.Action{
		{
			Name:        "search",
			Description: "Run a web search and distill insights and sources",
			Required:    []string{"query"},
			InputSchema: []byte(`{
				"type": "object",
				"properties": {
					"query": {"type": "string"},
					"searchType": {"type": "string", "enum": ["general", "news", "academic", "financial"]}
				}
			}`),
			Handler: p.search,
		},
	}
}

func (p *Provider) search(ctx context.Context, agentID string, payload map[string]any) (map[string]any, error) {
	if p.cfg.APIKey == "" {
		return nil, schema.NewError(schema.ErrCodeCredentialsMissing,
			"Perplexity credentials missing").WithProvider(schema.ProviderWebResearch)
	}

	query := gateway.StringField(payload, "query", "")
	searchType := gateway.StringField(payload, "searchType", "general")
	model, ok := modelForSearchType[searchType]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidPayload,
			"unsupported searchType %q", searchType).WithProvider(schema.ProviderWebResearch)
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(researchSystemPrompt),
			openai.UserMessage(query),
		},
		Temperature: openai.Float(0.2),
	},
		option.WithJSONSet("return_related_questions", true),
		option.WithJSONSet("search_recency_filter", recencyFilter),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeTransportFailure,
			"search request failed: %v", err).WithCause(err).WithProvider(schema.ProviderWebResearch)
	}
	if len(completion.Choices) == 0 {
		return nil, schema.NewError(schema.ErrCodeTransportFailure,
			"search returned no choices").WithProvider(schema.ProviderWebResearch)
	}

	answer := completion.Choices[0].Message.Content
	searchID := completion.ID
	if searchID == "" {
		searchID = schema.CorrelationID("research")
	}

	return map[string]any{
		"agentId":    agentID,
		"searchId":   searchID,
		"query":      query,
		"searchType": searchType,
		"model":      model,
		"answer":     answer,
		"insights":   extractInsights(answer),
		"sources":    extractSources(answer),
	}, nil
}

// extractInsights keeps the response lines longer than 20 characters, in
// original order, capped at 5.
func extractInsights(text string) []string {
	insights := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= minInsightLength {
			continue
		}
		insights = append(insights, line)
		if len(insights) == maxInsights {
			break
		}
	}
	return insights
}

// extractSources pattern-matches URLs in the text and reduces them to unique
// hostnames, in first-seen order, capped at 10.
func extractSources(text string) []string {
	sources := []string{}
	seen := make(map[string]struct{})
	for _, match := range urlPattern.FindAllString(text, -1) {
		u, err := url.Parse(strings.TrimRight(match, ".,;"))
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := u.Hostname()
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		sources = append(sources, host)
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}
