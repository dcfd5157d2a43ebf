package model

import "time"

// Verdict is the outcome of checking one product against one policy
// category with one model.
type Verdict struct {
	CategoryKey string    `json:"category_key"`
	Violates    bool      `json:"violates_criteria"`
	Reason      string    `json:"reason"`
	// Confidence is exp(logprob) of the chosen boolean token, in [0,1].
	// It measures how strongly the model committed to the token, not how
	// likely the verdict is to be correct. 0 means the provider exposed
	// no log-probability for the token.
	Confidence  float64   `json:"confidence"`
	Model       string    `json:"model_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Product     Identity  `json:"product"`
}

// ProductResult collects the verdicts for one product, keyed by
// policy category key.
type ProductResult struct {
	Product  Identity           `json:"product"`
	Verdicts map[string]Verdict `json:"results"`
}

// ViolationRow is a stored verdict row read back for reporting and
// summarization.
type ViolationRow struct {
	SiteURL     string  `json:"site_url,omitempty"`
	ProductName string  `json:"product_name,omitempty"`
	Permalink   string  `json:"permalink,omitempty"`
	CategoryKey string  `json:"category_key"`
	Violates    bool    `json:"violates_criteria"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence"`
	Model       string  `json:"model_id"`
}

// SiteSummary is the per-site compliance summary produced by the
// summarization pass.
type SiteSummary struct {
	SiteURL      string    `json:"site_url"`
	Summary      string    `json:"summary"`
	HasViolation bool      `json:"has_violation"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}
