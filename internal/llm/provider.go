package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrGeneration marks a failed model call or a response that does not
// satisfy the structured output contract. It is never retried here;
// the orchestration layer decides per-product disposition.
var ErrGeneration = errors.New("generation failure")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Classify runs one structured boolean classification exchange
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// Summarize runs one structured site-summary exchange
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest contains the two-message exchange for one
// (product, category) classification call.
type ClassifyRequest struct {
	// System is the instruction embedding the category label, examples,
	// and the decision contract.
	System string

	// User is the JSON-encoded product payload.
	User string

	// Model overrides the configured model (provider-specific).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// TokenLogProb is the log-probability the provider reported for one
// output token.
type TokenLogProb struct {
	Token   string
	LogProb float64
}

// ClassifyResponse is the validated structured verdict from one
// classification call.
type ClassifyResponse struct {
	Violates bool
	Reason   string

	// Model is the model identifier reported by the provider.
	Model string

	// GeneratedAt is the response timestamp reported by the provider.
	GeneratedAt time.Time

	// LogProbs are per-token log-probabilities, nil when the provider
	// does not expose them.
	LogProbs []TokenLogProb
}

// SummarizeRequest contains the exchange for one site-summary call.
type SummarizeRequest struct {
	System    string
	User      string
	Model     string
	MaxTokens int
}

// SummarizeResponse is the validated structured summary.
type SummarizeResponse struct {
	Summary    string
	Violation  bool
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, mock servers)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "",
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// verdictWire is the wire form of the classification contract:
// exactly a boolean and a reason.
type verdictWire struct {
	Violates *bool   `json:"violates_criteria"`
	Reason   *string `json:"reason"`
}

// summaryWire is the wire form of the summarization contract.
type summaryWire struct {
	Summary   *string `json:"summary"`
	Violation *bool   `json:"violation"`
}

// decodeVerdict validates a raw model response against the
// classification contract. There is no partial or best-effort parse:
// a missing or mistyped field fails the call.
func decodeVerdict(raw string) (bool, string, error) {
	content := stripCodeFence(raw)

	var wire verdictWire
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return false, "", fmt.Errorf("%w: parse verdict: %v (response: %s)", ErrGeneration, err, content)
	}
	if wire.Violates == nil {
		return false, "", fmt.Errorf("%w: response missing violates_criteria", ErrGeneration)
	}
	if wire.Reason == nil {
		return false, "", fmt.Errorf("%w: response missing reason", ErrGeneration)
	}
	return *wire.Violates, *wire.Reason, nil
}

// decodeSummary validates a raw model response against the
// summarization contract.
func decodeSummary(raw string) (string, bool, error) {
	content := stripCodeFence(raw)

	var wire summaryWire
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return "", false, fmt.Errorf("%w: parse summary: %v (response: %s)", ErrGeneration, err, content)
	}
	if wire.Summary == nil {
		return "", false, fmt.Errorf("%w: response missing summary", ErrGeneration)
	}
	if wire.Violation == nil {
		return "", false, fmt.Errorf("%w: response missing violation", ErrGeneration)
	}
	return *wire.Summary, *wire.Violation, nil
}

// stripCodeFence removes markdown code block formatting if present.
// Some models wrap JSON output in ```json fences even when asked not to.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	firstNewline := strings.Index(content, "\n")
	if firstNewline == -1 {
		return content
	}
	closing := strings.LastIndex(content, "```")
	if closing == -1 || closing <= firstNewline {
		return content
	}
	return strings.TrimSpace(content[firstNewline+1 : closing])
}
