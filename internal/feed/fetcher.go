package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nkarev/storewarden/internal/cache"
	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/util"
)

// productsEndpoint is the WooCommerce Store API product listing path.
const productsEndpoint = "/wp-json/wc/store/v1/products"

// perPage is the page size requested from the Store API.
const perPage = 25

// Fetcher retrieves a storefront's product feed over the WooCommerce
// Store API.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	cacheTTL   time.Duration
	robots     *util.RobotsChecker
	verbose    bool
}

// Options configures a Fetcher.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBytes    int64
	Cache       cache.Cache // nil disables caching
	CacheTTL    time.Duration
	CheckRobots bool
	HTTPProxy   string
	HTTPSProxy  string
	Verbose     bool
}

// wcProduct mirrors the Store API product payload. Description fields
// arrive as HTML.
type wcProduct struct {
	Name             string `json:"name"`
	Permalink        string `json:"permalink"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
}

// NewFetcher creates a feed fetcher.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 4_000_000
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy),
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		verbose:   opts.Verbose,
	}

	if opts.CheckRobots {
		f.robots = util.NewRobotsChecker(util.NormalizeUserAgent(opts.UserAgent), opts.Timeout)
	}

	return f
}

// FetchProducts retrieves all products for the store at baseURL,
// following pagination until a short page, and returns them with
// HTML stripped from the description fields.
func (f *Fetcher) FetchProducts(ctx context.Context, baseURL string) ([]model.Product, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	if f.robots != nil {
		if !f.robots.IsAllowed(ctx, baseURL+productsEndpoint) {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", baseURL+productsEndpoint)
		}
	}

	var products []model.Product
	for page := 1; ; page++ {
		raw, err := f.fetchPage(ctx, baseURL, page)
		if err != nil {
			return nil, err
		}

		var pageProducts []wcProduct
		if err := json.Unmarshal(raw, &pageProducts); err != nil {
			return nil, fmt.Errorf("decode product feed: %w", err)
		}

		for _, wp := range pageProducts {
			products = append(products, model.Product{
				Name:             wp.Name,
				Permalink:        wp.Permalink,
				Description:      StripHTML(wp.Description),
				ShortDescription: StripHTML(wp.ShortDescription),
			})
		}

		if len(pageProducts) < perPage {
			break
		}
	}

	if f.verbose {
		fmt.Fprintf(os.Stderr, "fetched %d products from %s\n", len(products), baseURL)
	}

	return products, nil
}

// fetchPage retrieves one page of the feed, consulting the cache first.
func (f *Fetcher) fetchPage(ctx context.Context, baseURL string, page int) ([]byte, error) {
	key := cache.Key(baseURL, strconv.Itoa(page))
	if f.cache != nil {
		if body, found := f.cache.Get(key); found {
			if f.verbose {
				fmt.Fprintf(os.Stderr, "cache hit for %s page %d\n", baseURL, page)
			}
			return body, nil
		}
	}

	pageURL := fmt.Sprintf("%s%s?per_page=%d&page=%d", baseURL, productsEndpoint, perPage, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch product feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.cache != nil {
		if err := f.cache.Set(key, body, f.cacheTTL); err != nil && f.verbose {
			fmt.Fprintf(os.Stderr, "cache write failed: %v\n", err)
		}
	}

	return body, nil
}

// StripHTML reduces an HTML fragment to its text content. Tags are
// dropped, entities are decoded, and text runs are joined with single
// spaces.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var parts []string
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			if text := strings.TrimSpace(tokenizer.Token().Data); text != "" {
				parts = append(parts, text)
			}
		}
	}

	return strings.Join(parts, " ")
}
