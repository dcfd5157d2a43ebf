package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nkarev/storewarden/internal/llm"
	"github.com/nkarev/storewarden/internal/model"
)

func TestSummarizer_NoViolations(t *testing.T) {
	provider := &MockProvider{
		SummarizeResp: &llm.SummarizeResponse{Summary: "", Violation: false},
	}
	summarizer := NewSummarizer(provider, nil)

	summary, err := summarizer.Summarize(context.Background(), "https://shop.example.com", nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.HasViolation {
		t.Error("expected no violation for empty input")
	}
	if summary.Summary != "" {
		t.Errorf("expected empty summary, got %q", summary.Summary)
	}

	// The model is still invoked, instructed that nothing was recorded
	if len(provider.SummarizeCalls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(provider.SummarizeCalls))
	}
	if !strings.Contains(provider.SummarizeCalls[0].User, "no recorded violations") {
		t.Error("expected no-violations instruction in context")
	}
}

func TestSummarizer_WithViolations(t *testing.T) {
	provider := &MockProvider{
		SummarizeResp: &llm.SummarizeResponse{
			Summary:   "The site sells restricted knives.",
			Violation: true,
			Model:     "gpt-4o-mini",
		},
	}
	summarizer := NewSummarizer(provider, nil)

	rows := []model.ViolationRow{
		{CategoryKey: "weapons", Violates: true, Reason: "Spring-assisted knife"},
		{CategoryKey: "marijuana", Violates: false, Reason: "Hemp-derived CBD within legal limits"},
	}

	summary, err := summarizer.Summarize(context.Background(), "https://shop.example.com", rows)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !summary.HasViolation {
		t.Error("expected violation flag from model")
	}
	if summary.SiteURL != "https://shop.example.com" {
		t.Errorf("unexpected site URL: %s", summary.SiteURL)
	}
	if summary.Summary != "The site sells restricted knives." {
		t.Errorf("unexpected summary: %s", summary.Summary)
	}

	user := provider.SummarizeCalls[0].User
	if !strings.Contains(user, "weapons violates: Spring-assisted knife") {
		t.Errorf("missing violation line in context:\n%s", user)
	}
	if !strings.Contains(user, "marijuana does not violate: Hemp-derived CBD within legal limits") {
		t.Errorf("missing non-violation line in context:\n%s", user)
	}
}

func TestSummarizer_ProviderError(t *testing.T) {
	provider := &MockProvider{
		SummarizeErr: errors.New("model overloaded"),
	}
	summarizer := NewSummarizer(provider, nil)

	_, err := summarizer.Summarize(context.Background(), "https://shop.example.com", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRenderRows_Empty(t *testing.T) {
	out := RenderRows("https://shop.example.com", nil)
	if !strings.Contains(out, "https://shop.example.com") {
		t.Error("expected site URL in rendered context")
	}
	if !strings.Contains(out, "no recorded violations") {
		t.Error("expected explicit no-violations line")
	}
}
