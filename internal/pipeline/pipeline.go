package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/nkarev/storewarden/internal/cache"
	"github.com/nkarev/storewarden/internal/classify"
	"github.com/nkarev/storewarden/internal/feed"
	"github.com/nkarev/storewarden/internal/llm"
	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/store"
	"github.com/nkarev/storewarden/internal/worker"
)

// Feed lists a storefront's products.
type Feed interface {
	FetchProducts(ctx context.Context, baseURL string) ([]model.Product, error)
}

// Storage is the persistence surface the scan needs.
type Storage interface {
	UpsertSite(url string) (int64, error)
	UpsertProduct(siteID int64, p model.Product) (int64, error)
	HasResults(productID int64, modelID string) (bool, error)
	UpsertResult(productID int64, v model.Verdict) error
	GetSiteViolations(siteID int64) ([]model.ViolationRow, error)
	UpsertSiteSummary(siteID int64, summary model.SiteSummary) error
	GetSiteSummary(siteID int64) (*model.SiteSummary, error)
}

// Summarizer produces the per-site compliance summary.
type Summarizer interface {
	Summarize(ctx context.Context, siteURL string, rows []model.ViolationRow) (model.SiteSummary, error)
}

// Pipeline orchestrates a site scan: feed fetch, classification fan-out,
// persistence and the summary pass.
type Pipeline struct {
	feed       Feed
	store      Storage
	processor  *worker.BatchProcessor
	summarizer Summarizer
	provider   llm.Provider // nil skips the availability preflight
	renderer   *Renderer
	modelID    string
	config     *model.Config
}

// ScanReport aggregates what a site scan did, for rendering.
type ScanReport struct {
	SiteURL    string
	Total      int // Products in the feed
	Checked    int // Products classified this run
	Skipped    int // Products with stored verdicts for this model
	Failed     int // Products whose fan-out errored
	Violations []model.ViolationRow
	Summary    *model.SiteSummary
}

// NewPipeline wires a pipeline from configuration. The caller owns the
// store and closes it after the run.
func NewPipeline(cfg *model.Config, st *store.Store) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	pacer := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	classifier := classify.NewClassifier(provider, pacer)

	var feedCache cache.Cache
	if cfg.Cache.Enabled {
		feedCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	fetcher := feed.NewFetcher(feed.Options{
		Timeout:     cfg.HTTP.Timeout,
		UserAgent:   cfg.HTTP.UserAgent,
		MaxBytes:    cfg.HTTP.MaxBodyBytes,
		Cache:       feedCache,
		CacheTTL:    cfg.Cache.TTL,
		CheckRobots: cfg.HTTP.CheckRobots,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		Verbose:     cfg.Output.Verbose,
	})

	modelID := cfg.LLM.Model
	if modelID == "" {
		modelID = llm.DefaultModel(cfg.LLM.Provider)
	}

	return &Pipeline{
		feed:       fetcher,
		store:      st,
		processor:  worker.NewBatchProcessor(classifier, cfg.Concurrency.Products),
		summarizer: classify.NewSummarizer(provider, pacer),
		provider:   provider,
		renderer:   NewRenderer(os.Stdout),
		modelID:    modelID,
		config:     cfg,
	}, nil
}

// ScanSite runs the full scan for one storefront. Per-product failures
// are reported and skipped; the scan continues with the remaining
// products. A feed or persistence failure aborts the scan.
func (p *Pipeline) ScanSite(ctx context.Context, siteURL string) (*ScanReport, error) {
	if p.provider != nil && !p.provider.IsAvailable(ctx) {
		return nil, fmt.Errorf("provider %s is not available", p.provider.Name())
	}

	products, err := p.feed.FetchProducts(ctx, siteURL)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	siteID, err := p.store.UpsertSite(siteURL)
	if err != nil {
		return nil, fmt.Errorf("upsert site: %w", err)
	}

	report := &ScanReport{SiteURL: siteURL, Total: len(products)}

	// Persist the feed and decide which products still need checking
	productIDs := make(map[string]int64, len(products))
	var pending []model.Product
	for _, product := range products {
		productID, err := p.store.UpsertProduct(siteID, product)
		if err != nil {
			return nil, fmt.Errorf("upsert product %q: %w", product.Permalink, err)
		}
		productIDs[product.Permalink] = productID

		if !p.config.Scan.Recheck {
			checked, err := p.store.HasResults(productID, p.modelID)
			if err != nil {
				return nil, fmt.Errorf("check existing results: %w", err)
			}
			if checked {
				report.Skipped++
				continue
			}
		}
		pending = append(pending, product)
	}

	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "scanning %s: %d products, %d already checked with %s\n",
			siteURL, report.Total, report.Skipped, p.modelID)
	}

	outcomes := p.processor.Process(ctx, pending, p.config.Scan.ExcludedCategories)
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			report.Failed++
			fmt.Fprintf(os.Stderr, "product %q failed: %v\n", outcome.Product.Name, outcome.Error)
			continue
		}

		productID := productIDs[outcome.Product.Permalink]
		for _, verdict := range outcome.Result.Verdicts {
			if err := p.store.UpsertResult(productID, verdict); err != nil {
				return nil, fmt.Errorf("persist verdict for %q: %w", outcome.Product.Permalink, err)
			}
		}
		report.Checked++
	}

	violations, err := p.store.GetSiteViolations(siteID)
	if err != nil {
		return nil, fmt.Errorf("read violations: %w", err)
	}
	report.Violations = violations

	if len(violations) > 0 {
		summary, err := p.summarizer.Summarize(ctx, siteURL, violations)
		if err != nil {
			// A failed summary never blocks the run; any prior stored
			// summary stays untouched
			fmt.Fprintf(os.Stderr, "summary generation failed for %s: %v\n", siteURL, err)
		} else {
			if err := p.store.UpsertSiteSummary(siteID, summary); err != nil {
				return nil, fmt.Errorf("persist summary: %w", err)
			}
			report.Summary = &summary
		}
	}

	if report.Summary == nil {
		if stored, err := p.store.GetSiteSummary(siteID); err == nil && stored != nil {
			report.Summary = stored
		}
	}

	return report, nil
}

// RenderReport prints the scan report to stdout.
func (p *Pipeline) RenderReport(report *ScanReport) {
	p.renderer.RenderScan(report)
}
