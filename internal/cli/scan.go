package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/pipeline"
	"github.com/nkarev/storewarden/internal/store"
)

var (
	dbPath      string
	llmProvider string
	llmModel    string
	concurrency int
	excluded    []string
	timeout     time.Duration
	userAgent   string
	noCache     bool
	noRobots    bool
	recheck     bool
	rps         float64
	burst       int
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <store-url>",
	Short: "Scan a storefront's catalog for policy violations",
	Long: `Scan fetches the product feed of a WooCommerce storefront, checks every
product against each restricted-business policy category with a language
model, and stores the verdicts in SQLite.

Products that already have stored verdicts for the configured model are
skipped, so repeated scans only classify what is new. If any violations
are recorded, a site-level compliance summary is generated and stored.

Example:
  storewarden scan https://shop.example.com
  storewarden scan https://shop.example.com --provider anthropic --recheck
  storewarden scan https://shop.example.com --exclude gambling --exclude adult`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	defaults := model.DefaultConfig()

	scanCmd.Flags().StringVar(&dbPath, "db", defaults.DB.Path, "SQLite database path")
	scanCmd.Flags().StringVar(&llmProvider, "provider", defaults.LLM.Provider, "LLM provider (openai, anthropic, ollama)")
	scanCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name (provider default if empty)")
	scanCmd.Flags().IntVar(&concurrency, "concurrency", defaults.Concurrency.Products, "products checked concurrently")
	scanCmd.Flags().StringSliceVar(&excluded, "exclude", nil, "policy category keys to skip (repeatable)")
	scanCmd.Flags().DurationVar(&timeout, "timeout", defaults.HTTP.Timeout, "feed fetch timeout")
	scanCmd.Flags().StringVar(&userAgent, "ua", defaults.HTTP.UserAgent, "HTTP User-Agent")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the feed cache (force fresh fetch)")
	scanCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip the robots.txt check")
	scanCmd.Flags().BoolVar(&recheck, "recheck", false, "re-classify products that already have stored verdicts")
	scanCmd.Flags().Float64Var(&rps, "rps", defaults.RateLimiting.RequestsPerSecond, "model calls per second (0 disables pacing)")
	scanCmd.Flags().IntVar(&burst, "burst", defaults.RateLimiting.BurstSize, "model call burst size")
}

func runScan(cmd *cobra.Command, args []string) error {
	siteURL := args[0]

	cfg, err := scanConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", siteURL)
		fmt.Fprintf(os.Stderr, "Provider: %s\n", cfg.LLM.Provider)
		fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DB.Path)
		fmt.Fprintln(os.Stderr)
	}

	st, err := store.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = st.Close() }()

	p, err := pipeline.NewPipeline(cfg, st)
	if err != nil {
		return err
	}

	report, err := p.ScanSite(context.Background(), siteURL)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	p.RenderReport(report)
	return nil
}

// scanConfig assembles the run configuration from defaults, flags and
// provider credentials from the environment.
func scanConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.DB.Path = dbPath
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.CheckRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.Concurrency.Products = concurrency
	cfg.RateLimiting.RequestsPerSecond = rps
	cfg.RateLimiting.BurstSize = burst
	cfg.Scan.ExcludedCategories = excluded
	cfg.Scan.Recheck = recheck
	cfg.Output.Verbose = verbose

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return cfg, nil
}
