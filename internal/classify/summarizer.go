package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nkarev/storewarden/internal/llm"
	"github.com/nkarev/storewarden/internal/model"
)

const summarizeSystemPrompt = "You are summarizing a compliance review of a merchant's site against a " +
	"payment processor's restricted business policy. " +
	"You will be given the policy findings recorded for the site's products, one per line. " +
	"Write a brief natural-language summary of the site's compliance standing, then decide " +
	"whether the site has a policy violation. Use your judgment when deciding: a single " +
	"doubtful finding does not have to condemn the whole site. " +
	"If the site has no recorded violations, return violation false and an empty summary."

// Summarizer produces the per-site compliance summary from the
// violation rows accumulated during a scan. The model commits to its
// own site-level boolean rather than the caller recomputing it from
// the rows, so it can discount weak findings.
type Summarizer struct {
	provider llm.Provider
	pacer    Pacer
}

// NewSummarizer creates a summarizer over the given provider. pacer
// may be nil to disable rate limiting.
func NewSummarizer(provider llm.Provider, pacer Pacer) *Summarizer {
	return &Summarizer{
		provider: provider,
		pacer:    pacer,
	}
}

// Summarize generates the site summary. With an empty input the model
// is still invoked, instructed that nothing was recorded, and expected
// to return violation == false.
func (s *Summarizer) Summarize(ctx context.Context, siteURL string, rows []model.ViolationRow) (model.SiteSummary, error) {
	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			return model.SiteSummary{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := s.provider.Summarize(ctx, llm.SummarizeRequest{
		System: summarizeSystemPrompt,
		User:   RenderRows(siteURL, rows),
	})
	if err != nil {
		return model.SiteSummary{}, fmt.Errorf("summarize %s: %w", siteURL, err)
	}

	return model.SiteSummary{
		SiteURL:      siteURL,
		Summary:      resp.Summary,
		HasViolation: resp.Violation,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// RenderRows renders the violation rows as the summarization context,
// one finding per line.
func RenderRows(siteURL string, rows []model.ViolationRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Site: %s\n", siteURL)

	if len(rows) == 0 {
		sb.WriteString("The site has no recorded violations.\n")
		return sb.String()
	}

	sb.WriteString("Recorded findings:\n")
	for _, row := range rows {
		verb := "does not violate"
		if row.Violates {
			verb = "violates"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", row.CategoryKey, verb, row.Reason)
	}
	return sb.String()
}
