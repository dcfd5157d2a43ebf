// Package store is the persistence gateway: idempotent upserts of
// sites, products, and per-category verdicts, plus the read paths for
// incremental re-runs and violation reporting. Every write is keyed by
// a natural key and tolerates re-entrant writes (last write wins).
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nkarev/storewarden/internal/model"
)

//go:embed schema.sql
var schema string

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store backed by the SQLite file at dbPath
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertSite inserts the site if absent and returns its id
func (s *Store) UpsertSite(url string) (int64, error) {
	_, err := s.db.Exec(
		"INSERT INTO sites (url) VALUES (?) ON CONFLICT(url) DO NOTHING",
		url,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert site: %w", err)
	}

	var id int64
	if err := s.db.QueryRow("SELECT id FROM sites WHERE url = ?", url).Scan(&id); err != nil {
		return 0, fmt.Errorf("get site id: %w", err)
	}
	return id, nil
}

// GetSite retrieves a site by URL
func (s *Store) GetSite(url string) (*model.Site, error) {
	var site model.Site
	err := s.db.QueryRow("SELECT id, url FROM sites WHERE url = ?", url).Scan(&site.ID, &site.URL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &site, nil
}

// UpsertProduct inserts or refreshes a product keyed by permalink and
// returns its id. A re-fetched product overwrites the stored
// descriptions in place.
func (s *Store) UpsertProduct(siteID int64, p model.Product) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO products (site_id, name, description, short_description, permalink)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(permalink) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			short_description = excluded.short_description`,
		siteID, p.Name, p.Description, p.ShortDescription, p.Permalink,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert product: %w", err)
	}

	var id int64
	if err := s.db.QueryRow("SELECT id FROM products WHERE permalink = ?", p.Permalink).Scan(&id); err != nil {
		return 0, fmt.Errorf("get product id: %w", err)
	}
	return id, nil
}

// GetProduct retrieves a product by permalink
func (s *Store) GetProduct(permalink string) (*model.Product, error) {
	var p model.Product
	err := s.db.QueryRow(`
		SELECT id, name, description, COALESCE(short_description, ''), permalink, created_at
		FROM products WHERE permalink = ?`, permalink,
	).Scan(&p.ID, &p.Name, &p.Description, &p.ShortDescription, &p.Permalink, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpsertResult stores one verdict keyed by (product, category, model).
// A re-classification under the same key updates the row in place
// rather than accumulating history.
func (s *Store) UpsertResult(productID int64, v model.Verdict) error {
	_, err := s.db.Exec(`
		INSERT INTO results (product_id, criteria, violates_criteria, reason, confidence, model_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, criteria, model_id) DO UPDATE SET
			violates_criteria = excluded.violates_criteria,
			reason = excluded.reason,
			confidence = excluded.confidence,
			created_at = excluded.created_at`,
		productID, v.CategoryKey, boolToInt(v.Violates), v.Reason, v.Confidence, v.Model, v.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// HasResults reports whether the product already has stored verdicts
// for the given model. This is the skip-if-already-checked read used
// by incremental re-runs.
func (s *Store) HasResults(productID int64, modelID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM results WHERE product_id = ? AND model_id = ?",
		productID, modelID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count results: %w", err)
	}
	return count > 0, nil
}

// GetProductResults returns all stored verdicts for a product
func (s *Store) GetProductResults(productID int64) ([]model.ViolationRow, error) {
	rows, err := s.db.Query(`
		SELECT criteria, violates_criteria, reason, confidence, model_id
		FROM results WHERE product_id = ?`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("get product results: %w", err)
	}
	defer rows.Close()

	return scanViolationRows(rows, false, false)
}

// GetSiteViolations returns the violation rows for one site, ordered
// by product. This is the input of the summarization pass.
func (s *Store) GetSiteViolations(siteID int64) ([]model.ViolationRow, error) {
	rows, err := s.db.Query(`
		SELECT p.name, p.permalink, r.criteria, r.violates_criteria, r.reason, r.confidence, r.model_id
		FROM results AS r
		JOIN products AS p ON p.id = r.product_id
		WHERE p.site_id = ? AND r.violates_criteria = 1
		ORDER BY p.id, r.criteria`, siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("get site violations: %w", err)
	}
	defer rows.Close()

	return scanViolationRows(rows, true, false)
}

// GetAllViolations returns every stored violation across all sites
func (s *Store) GetAllViolations() ([]model.ViolationRow, error) {
	rows, err := s.db.Query(`
		SELECT s.url, p.name, p.permalink, r.criteria, r.violates_criteria, r.reason, r.confidence, r.model_id
		FROM results AS r
		JOIN products AS p ON p.id = r.product_id
		JOIN sites AS s ON s.id = p.site_id
		WHERE r.violates_criteria = 1
		ORDER BY s.url, p.id, r.criteria`,
	)
	if err != nil {
		return nil, fmt.Errorf("get all violations: %w", err)
	}
	defer rows.Close()

	return scanViolationRows(rows, true, true)
}

// UpsertSiteSummary stores or overwrites the per-site summary
func (s *Store) UpsertSiteSummary(siteID int64, summary model.SiteSummary) error {
	updatedAt := summary.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO site_summaries (site_id, summary, has_violation, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			summary = excluded.summary,
			has_violation = excluded.has_violation,
			updated_at = excluded.updated_at`,
		siteID, summary.Summary, boolToInt(summary.HasViolation), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert site summary: %w", err)
	}
	return nil
}

// GetSiteSummary retrieves the stored summary for a site
func (s *Store) GetSiteSummary(siteID int64) (*model.SiteSummary, error) {
	var (
		summary      model.SiteSummary
		hasViolation int
	)
	err := s.db.QueryRow(`
		SELECT ss.summary, ss.has_violation, ss.updated_at, s.url
		FROM site_summaries AS ss
		JOIN sites AS s ON s.id = ss.site_id
		WHERE ss.site_id = ?`, siteID,
	).Scan(&summary.Summary, &hasViolation, &summary.UpdatedAt, &summary.SiteURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site summary: %w", err)
	}
	summary.HasViolation = hasViolation != 0
	return &summary, nil
}

func scanViolationRows(rows *sql.Rows, withProduct, withSite bool) ([]model.ViolationRow, error) {
	var out []model.ViolationRow
	for rows.Next() {
		var (
			row      model.ViolationRow
			violates int
		)
		targets := []interface{}{}
		if withSite {
			targets = append(targets, &row.SiteURL)
		}
		if withProduct {
			targets = append(targets, &row.ProductName, &row.Permalink)
		}
		targets = append(targets, &row.CategoryKey, &violates, &row.Reason, &row.Confidence, &row.Model)

		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		row.Violates = violates != 0
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
