package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
// and OpenAI-compatible endpoints (LM Studio, vLLM, ...).
//
// It is the only provider that exposes token log-probabilities, which
// the classifier needs for confidence scoring.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// verdictSchema constrains the classification response to exactly a
// boolean and a reason.
var verdictSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "violates_criteria": {
      "type": "boolean",
      "description": "Whether the product violates the criteria"
    },
    "reason": {
      "type": "string",
      "description": "The reason why the product violates the criteria or why it does not"
    }
  },
  "required": ["violates_criteria", "reason"],
  "additionalProperties": false
}`)

// summarySchema constrains the summarization response to a summary
// string and a site-level violation boolean.
var summarySchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "summary": {
      "type": "string",
      "description": "Natural-language compliance summary for the site"
    },
    "violation": {
      "type": "boolean",
      "description": "Whether the site has a policy violation"
    }
  },
  "required": ["summary", "violation"],
  "additionalProperties": false
}`)

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Classify runs a single classification exchange with greedy sampling
// and token log-probabilities enabled. The client performs no
// transport-level retries; a transient failure surfaces immediately
// and the next incremental run picks the product up again.
func (p *OpenAIProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	model := p.resolveModel(req.Model)
	maxTokens := p.resolveMaxTokens(req.MaxTokens)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens: maxTokens,
		// go-openai omits a zero temperature from the request body, so
		// the smallest nonzero value stands in for greedy sampling.
		Temperature: math.SmallestNonzeroFloat32,
		LogProbs:    true,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "classification_verdict",
				Schema: verdictSchema,
				Strict: true,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%w: OpenAI API error: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from OpenAI", ErrGeneration)
	}

	choice := resp.Choices[0]
	violates, reason, err := decodeVerdict(choice.Message.Content)
	if err != nil {
		return nil, err
	}

	out := &ClassifyResponse{
		Violates:    violates,
		Reason:      reason,
		Model:       resp.Model,
		GeneratedAt: time.Unix(resp.Created, 0).UTC(),
	}
	if choice.LogProbs != nil {
		for _, lp := range choice.LogProbs.Content {
			out.LogProbs = append(out.LogProbs, TokenLogProb{
				Token:   lp.Token,
				LogProb: lp.LogProb,
			})
		}
	}

	return out, nil
}

// Summarize generates the per-site compliance summary. This is a prose
// task, so sampling uses a moderate temperature instead of greedy.
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	model := p.resolveModel(req.Model)
	maxTokens := p.resolveMaxTokens(req.MaxTokens)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "site_summary",
				Schema: summarySchema,
				Strict: true,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%w: OpenAI API error: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from OpenAI", ErrGeneration)
	}

	summary, violation, err := decodeSummary(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &SummarizeResponse{
		Summary:    strings.TrimSpace(summary),
		Violation:  violation,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (p *OpenAIProvider) resolveModel(override string) string {
	if override != "" {
		return override
	}
	if p.config.Model != "" {
		return p.config.Model
	}
	return DefaultModel("openai")
}

func (p *OpenAIProvider) resolveMaxTokens(override int) int {
	if override != 0 {
		return override
	}
	if p.config.MaxTokens != 0 {
		return p.config.MaxTokens
	}
	return 1000
}

func (p *OpenAIProvider) timeout() time.Duration {
	if p.config.Timeout > 0 {
		return time.Duration(p.config.Timeout) * time.Second
	}
	return 60 * time.Second
}
