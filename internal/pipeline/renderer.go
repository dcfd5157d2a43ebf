package pipeline

import (
	"fmt"
	"io"

	"github.com/nkarev/storewarden/internal/model"
)

// Renderer prints scan and violation reports as plain text.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// RenderScan prints the outcome of one site scan.
func (r *Renderer) RenderScan(report *ScanReport) {
	fmt.Fprintf(r.w, "\nScan of %s\n", report.SiteURL)
	fmt.Fprintf(r.w, "  products: %d total, %d checked, %d skipped, %d failed\n",
		report.Total, report.Checked, report.Skipped, report.Failed)

	if len(report.Violations) == 0 {
		fmt.Fprintf(r.w, "  no violations recorded\n")
	} else {
		fmt.Fprintf(r.w, "  violations: %d\n\n", len(report.Violations))
		r.renderRows(report.Violations, false)
	}

	if report.Summary != nil && report.Summary.Summary != "" {
		fmt.Fprintf(r.w, "\nSummary (violation=%t):\n  %s\n", report.Summary.HasViolation, report.Summary.Summary)
	}
}

// RenderViolations prints stored violations, optionally across sites.
func (r *Renderer) RenderViolations(rows []model.ViolationRow, summary *model.SiteSummary) {
	if len(rows) == 0 {
		fmt.Fprintf(r.w, "No violations recorded.\n")
		return
	}

	fmt.Fprintf(r.w, "%d violation(s) recorded:\n\n", len(rows))
	r.renderRows(rows, true)

	if summary != nil && summary.Summary != "" {
		fmt.Fprintf(r.w, "\nSummary (violation=%t):\n  %s\n", summary.HasViolation, summary.Summary)
	}
}

func (r *Renderer) renderRows(rows []model.ViolationRow, withSite bool) {
	for _, row := range rows {
		if withSite && row.SiteURL != "" {
			fmt.Fprintf(r.w, "  [%s] %s\n", row.SiteURL, row.ProductName)
		} else {
			fmt.Fprintf(r.w, "  %s\n", row.ProductName)
		}
		fmt.Fprintf(r.w, "    %s (%.2f, %s): %s\n", row.CategoryKey, row.Confidence, row.Model, row.Reason)
		if row.Permalink != "" {
			fmt.Fprintf(r.w, "    %s\n", row.Permalink)
		}
	}
}
