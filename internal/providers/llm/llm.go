// Package llm is the single-call LLM chat client per §4.2:
// complete(system, messages, max_tokens, temperature, model) → {text, usage}.
// Implemented against the Anthropic API, generalizing script.ClaudeGenerator's
// retry-then-extract-text shape away from podcast-script-specific parsing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/brightfeed/newsbrief/internal/errs"
)

var tracer = otel.Tracer("newsbrief-llm")

// modelAliases lets callers request "haiku"/"sonnet" without hardcoding a
// dated model ID, mirroring script.claudeModels.
var modelAliases = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	backoffMult    = 2
)

// Message is one turn in the conversation sent to the model.
type Message struct {
	Role string // "user" or "assistant"
	Text string
}

// Usage reports token counts from the provider's response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// CompleteParams is the single-call request shape from §4.2.
type CompleteParams struct {
	System      string
	Messages    []Message
	MaxTokens   int64
	Temperature float64
	Model       string // alias ("haiku", "sonnet") or a concrete model ID
}

// CompleteResult is the single-call response shape from §4.2.
type CompleteResult struct {
	Text  string
	Usage Usage
}

// Client is the LLM chat client interface every caller depends on, so tests
// can substitute a fake without touching the network.
type Client interface {
	Complete(ctx context.Context, params CompleteParams) (CompleteResult, error)
}

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	apiKey string
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey}
}

func (c *AnthropicClient) Complete(ctx context.Context, params CompleteParams) (CompleteResult, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete")
	span.SetAttributes(attribute.String("model", params.Model))
	defer span.End()

	result, err := c.complete(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm completion failed")
	}
	return result, err
}

func (c *AnthropicClient) complete(ctx context.Context, params CompleteParams) (CompleteResult, error) {
	var client anthropic.Client
	if c.apiKey != "" {
		client = anthropic.NewClient(option.WithAPIKey(c.apiKey))
	} else {
		client = anthropic.NewClient()
	}

	modelID := params.Model
	if alias, ok := modelAliases[params.Model]; ok {
		modelID = alias
	}
	if modelID == "" {
		modelID = modelAliases["haiku"]
	}

	msgs := make([]anthropic.MessageParam, 0, len(params.Messages))
	for _, m := range params.Messages {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return CompleteResult{}, ctx.Err()
		}

		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(modelID),
			MaxTokens:   params.MaxTokens,
			Temperature: anthropic.Float(params.Temperature),
			System:      []anthropic.TextBlockParam{{Text: params.System}},
			Messages:    msgs,
		})
		if err != nil {
			classified := classifyError(err)
			if errs.Is(classified, errs.ProviderAuth) {
				return CompleteResult{}, classified
			}
			lastErr = classified
			if attempt < maxRetries {
				if !sleepBackoff(ctx, &backoff) {
					return CompleteResult{}, ctx.Err()
				}
				continue
			}
			return CompleteResult{}, lastErr
		}

		text := extractText(message)
		if text == "" {
			lastErr = errs.New(errs.ProviderTransient, "empty response from llm", nil)
			if attempt < maxRetries {
				if !sleepBackoff(ctx, &backoff) {
					return CompleteResult{}, ctx.Err()
				}
				continue
			}
			return CompleteResult{}, lastErr
		}

		return CompleteResult{
			Text: text,
			Usage: Usage{
				InputTokens:  message.Usage.InputTokens,
				OutputTokens: message.Usage.OutputTokens,
			},
		}, nil
	}

	return CompleteResult{}, lastErr
}

func sleepBackoff(ctx context.Context, backoff *time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
	}
	*backoff *= backoffMult
	return true
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}

func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return errs.New(errs.ProviderAuth, "anthropic auth error", err)
		case 429:
			return errs.New(errs.ProviderRateLimit, "anthropic rate limited", err)
		case 529:
			return errs.New(errs.ProviderTransient, "anthropic overloaded", err)
		}
		if apiErr.StatusCode >= 500 {
			return errs.New(errs.ProviderTransient, "anthropic server error", err)
		}
	}
	return errs.New(errs.ProviderTransient, fmt.Sprintf("anthropic call failed: %v", err), err)
}
