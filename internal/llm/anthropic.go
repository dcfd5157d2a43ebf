package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// AnthropicProvider implements the Provider interface for Anthropic
// Claude models. The Messages API exposes no token log-probabilities,
// so verdicts produced through this provider carry confidence 0.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model        string `json:"model"`
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &AnthropicProvider{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: make a minimal API call
	req := anthropicRequest{
		Model:     "claude-3-5-haiku-20241022",
		MaxTokens: 10,
		Messages: []anthropicMessage{
			{Role: "user", Content: "Hi"},
		},
	}

	_, err := p.makeRequest(ctx, req)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "Anthropic API check failed: %v\n", err)
		return false
	}
	return true
}

// Classify runs a single classification exchange using the Messages API.
func (p *AnthropicProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	apiReq := anthropicRequest{
		Model:       p.resolveModel(req.Model),
		MaxTokens:   p.resolveMaxTokens(req.MaxTokens),
		System:      req.System + jsonOnlyVerdictHint,
		Temperature: 0, // Greedy: repeated calls against unchanged input stay reproducible
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}

	resp, err := p.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("%w: Anthropic API error: %v", ErrGeneration, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	violates, reason, err := decodeVerdict(text)
	if err != nil {
		return nil, err
	}

	return &ClassifyResponse{
		Violates:    violates,
		Reason:      reason,
		Model:       resp.Model,
		GeneratedAt: time.Now().UTC(), // API reports no timestamp
		LogProbs:    nil,              // Not exposed by the Messages API
	}, nil
}

// Summarize generates the per-site compliance summary.
func (p *AnthropicProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	apiReq := anthropicRequest{
		Model:       p.resolveModel(req.Model),
		MaxTokens:   p.resolveMaxTokens(req.MaxTokens),
		System:      req.System + jsonOnlySummaryHint,
		Temperature: 0.3,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}

	resp, err := p.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("%w: Anthropic API error: %v", ErrGeneration, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	summary, violation, err := decodeSummary(text)
	if err != nil {
		return nil, err
	}

	return &SummarizeResponse{
		Summary:    strings.TrimSpace(summary),
		Violation:  violation,
		Model:      resp.Model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// The Messages API has no structured-output mode, so the contract is
// enforced by instruction plus strict validation on receipt.
const jsonOnlyVerdictHint = "\nRespond with ONLY a JSON object of the form " +
	`{"violates_criteria": boolean, "reason": string}. No other text.`

const jsonOnlySummaryHint = "\nRespond with ONLY a JSON object of the form " +
	`{"summary": string, "violation": boolean}. No other text.`

func (p *AnthropicProvider) resolveModel(override string) string {
	if override != "" {
		return override
	}
	if p.config.Model != "" {
		return p.config.Model
	}
	return DefaultModel("anthropic")
}

func (p *AnthropicProvider) resolveMaxTokens(override int) int {
	if override != 0 {
		return override
	}
	if p.config.MaxTokens != 0 {
		return p.config.MaxTokens
	}
	return 1000
}

// makeRequest performs one Messages API call
func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

func responseText(resp *anthropicResponse) (string, error) {
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: empty response from Anthropic", ErrGeneration)
}
