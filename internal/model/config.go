package model

import "time"

// Config is the full runtime configuration, assembled from defaults,
// the config file, STOREWARDEN_* environment variables, and CLI flags.
type Config struct {
	DB           DBConfig           `yaml:"db"`
	HTTP         HTTPConfig         `yaml:"http"`
	Cache        CacheConfig        `yaml:"cache"`
	LLM          LLMConfig          `yaml:"llm"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
	Scan         ScanConfig         `yaml:"scan"`
	Output       OutputConfig       `yaml:"output"`
}

// DBConfig configures the SQLite store.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig configures the feed fetcher's HTTP client.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	CheckRobots  bool          `yaml:"check_robots"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty"`
}

// CacheConfig configures the feed response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // Never persisted; from environment only
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// ConcurrencyConfig bounds concurrent work.
type ConcurrencyConfig struct {
	// Products is the number of products checked at a time. Each product
	// additionally fans out one model call per active policy category.
	Products int `yaml:"products"`
}

// RateLimitingConfig paces calls to the model provider.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// ScanConfig holds scan-level policy knobs.
type ScanConfig struct {
	// ExcludedCategories lists policy category keys disabled for this
	// deployment. They stay in the catalog but are never classified.
	ExcludedCategories []string `yaml:"excluded_categories"`

	// Recheck forces re-classification of products that already have
	// stored verdicts for the configured model.
	Recheck bool `yaml:"recheck"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DB: DBConfig{
			Path: "storewarden.sqlite",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Storewarden/0.1 (+https://github.com/nkarev/storewarden)",
			MaxBodyBytes: 4_000_000,
			CheckRobots:  true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".storewarden-cache",
			TTL:     1 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "",
			Timeout:   60,
			MaxTokens: 1000,
		},
		Concurrency: ConcurrencyConfig{
			Products: 5,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         10,
		},
		Scan: ScanConfig{},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
