package classify

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nkarev/storewarden/internal/llm"
	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/policy"
)

// MockProvider implements llm.Provider
type MockProvider struct {
	mu sync.Mutex

	ClassifyResp  *llm.ClassifyResponse
	ClassifyErr   error
	SummarizeResp *llm.SummarizeResponse
	SummarizeErr  error

	// FailCategories makes Classify fail when the system prompt
	// mentions one of these category labels
	FailCategories []string

	ClassifyCalls  []llm.ClassifyRequest
	SummarizeCalls []llm.SummarizeRequest
}

func (m *MockProvider) Name() string                       { return "mock" }
func (m *MockProvider) IsAvailable(_ context.Context) bool { return true }

func (m *MockProvider) Classify(_ context.Context, req llm.ClassifyRequest) (*llm.ClassifyResponse, error) {
	m.mu.Lock()
	m.ClassifyCalls = append(m.ClassifyCalls, req)
	m.mu.Unlock()

	for _, label := range m.FailCategories {
		if strings.Contains(req.System, label) {
			return nil, errors.New("mock classify error")
		}
	}
	if m.ClassifyErr != nil {
		return nil, m.ClassifyErr
	}
	resp := *m.ClassifyResp
	return &resp, nil
}

func (m *MockProvider) Summarize(_ context.Context, req llm.SummarizeRequest) (*llm.SummarizeResponse, error) {
	m.mu.Lock()
	m.SummarizeCalls = append(m.SummarizeCalls, req)
	m.mu.Unlock()

	if m.SummarizeErr != nil {
		return nil, m.SummarizeErr
	}
	resp := *m.SummarizeResp
	return &resp, nil
}

var testProduct = model.Product{
	Name:             "Tactical Combat Knife - Special Forces Edition",
	Permalink:        "https://example.com/tactical-combat-knife",
	Description:      "Professional-grade combat knife with quick-deploy spring-assisted opening mechanism. 7-inch stainless steel blade.",
	ShortDescription: "Spring-assisted tactical combat knife",
}

func TestClassifier_Classify(t *testing.T) {
	generatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	provider := &MockProvider{
		ClassifyResp: &llm.ClassifyResponse{
			Violates:    true,
			Reason:      "Spring-assisted knife with a quick-deploy mechanism",
			Model:       "gpt-4o-mini-2024-07-18",
			GeneratedAt: generatedAt,
			LogProbs: []llm.TokenLogProb{
				{Token: "{\"", LogProb: -0.001},
				{Token: "true", LogProb: -0.05},
			},
		},
	}

	classifier := NewClassifier(provider, nil)
	category, _ := policy.Get("weapons")

	verdict, err := classifier.Classify(context.Background(), category, testProduct)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if verdict.CategoryKey != "weapons" {
		t.Errorf("expected category key weapons, got %s", verdict.CategoryKey)
	}
	if !verdict.Violates {
		t.Error("expected violation verdict")
	}
	if verdict.Reason == "" {
		t.Error("expected non-empty reason")
	}
	if verdict.Model != "gpt-4o-mini-2024-07-18" {
		t.Errorf("unexpected model id: %s", verdict.Model)
	}
	if !verdict.GeneratedAt.Equal(generatedAt) {
		t.Errorf("unexpected timestamp: %v", verdict.GeneratedAt)
	}

	want := math.Exp(-0.05)
	if verdict.Confidence != want {
		t.Errorf("expected confidence %v, got %v", want, verdict.Confidence)
	}

	// Verdict echoes product identity for downstream joins
	if verdict.Product.Permalink != testProduct.Permalink {
		t.Errorf("expected permalink echo, got %s", verdict.Product.Permalink)
	}
}

func TestClassifier_PromptContents(t *testing.T) {
	provider := &MockProvider{
		ClassifyResp: &llm.ClassifyResponse{Violates: false, Reason: "No match"},
	}
	classifier := NewClassifier(provider, nil)
	category, _ := policy.Get("weapons")

	if _, err := classifier.Classify(context.Background(), category, testProduct); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if len(provider.ClassifyCalls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(provider.ClassifyCalls))
	}
	call := provider.ClassifyCalls[0]

	if !strings.Contains(call.System, "<criteria>"+category.Label+"</criteria>") {
		t.Error("system prompt missing criteria label")
	}
	if !strings.Contains(call.System, "katanas") {
		t.Error("system prompt missing category examples")
	}
	if !strings.Contains(call.System, "you should return false") {
		t.Error("system prompt missing insufficient-evidence instruction")
	}

	if !strings.Contains(call.User, testProduct.Name) {
		t.Error("user payload missing product name")
	}
	if !strings.Contains(call.User, "short_description") {
		t.Error("user payload missing short description field")
	}
	// The permalink is carried through verdicts but never sent to the model
	if strings.Contains(call.User, testProduct.Permalink) {
		t.Error("user payload must not contain the permalink")
	}
}

func TestClassifier_NoLogProbs_ConfidenceZero(t *testing.T) {
	provider := &MockProvider{
		ClassifyResp: &llm.ClassifyResponse{
			Violates: false,
			Reason:   "Toy water pistol, not a weapon",
			LogProbs: nil,
		},
	}
	classifier := NewClassifier(provider, nil)
	category, _ := policy.Get("weapons")

	verdict, err := classifier.Classify(context.Background(), category, testProduct)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if verdict.Confidence != 0 {
		t.Errorf("expected confidence exactly 0, got %v", verdict.Confidence)
	}
}

func TestClassifier_EmptyReason_GenerationFailure(t *testing.T) {
	provider := &MockProvider{
		ClassifyResp: &llm.ClassifyResponse{Violates: true, Reason: "  "},
	}
	classifier := NewClassifier(provider, nil)
	category, _ := policy.Get("weapons")

	_, err := classifier.Classify(context.Background(), category, testProduct)
	if err == nil {
		t.Fatal("expected error for empty reason")
	}
	if !errors.Is(err, llm.ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestClassifier_ProviderError(t *testing.T) {
	provider := &MockProvider{
		ClassifyErr: errors.New("connection refused"),
	}
	classifier := NewClassifier(provider, nil)
	category, _ := policy.Get("marijuana")

	_, err := classifier.Classify(context.Background(), category, testProduct)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "marijuana") {
		t.Errorf("expected error to name the category, got %v", err)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		violates bool
		logProbs []llm.TokenLogProb
		want     float64
	}{
		{
			name:     "matching true token",
			violates: true,
			logProbs: []llm.TokenLogProb{{Token: "true", LogProb: -0.2}},
			want:     math.Exp(-0.2),
		},
		{
			name:     "matching false token",
			violates: false,
			logProbs: []llm.TokenLogProb{{Token: "false", LogProb: -1.5}},
			want:     math.Exp(-1.5),
		},
		{
			name:     "wrong boolean token only",
			violates: true,
			logProbs: []llm.TokenLogProb{{Token: "false", LogProb: -0.2}},
			want:     0,
		},
		{
			name:     "no log probs",
			violates: true,
			logProbs: nil,
			want:     0,
		},
		{
			name:     "zero logprob is certainty",
			violates: true,
			logProbs: []llm.TokenLogProb{{Token: "true", LogProb: 0}},
			want:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.violates, tt.logProbs)
			if got != tt.want {
				t.Errorf("Confidence() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("confidence %v outside [0,1]", got)
			}
		})
	}
}
