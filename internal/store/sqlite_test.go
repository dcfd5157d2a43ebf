package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nkarev/storewarden/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testVerdict(category string, violates bool, reason string) model.Verdict {
	return model.Verdict{
		CategoryKey: category,
		Violates:    violates,
		Reason:      reason,
		Confidence:  0.92,
		Model:       "gpt-4o-mini",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertSite_Idempotent(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.UpsertSite("https://shop.example.com")
	if err != nil {
		t.Fatalf("upsert site: %v", err)
	}
	id2, err := s.UpsertSite("https://shop.example.com")
	if err != nil {
		t.Fatalf("second upsert site: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected stable site id, got %d then %d", id1, id2)
	}

	site, err := s.GetSite("https://shop.example.com")
	if err != nil {
		t.Fatalf("get site: %v", err)
	}
	if site == nil || site.ID != id1 {
		t.Errorf("unexpected site lookup result: %+v", site)
	}

	if missing, err := s.GetSite("https://other.example.com"); err != nil || missing != nil {
		t.Errorf("expected nil for unknown site, got %+v, %v", missing, err)
	}
}

func TestUpsertProduct_RefreshesInPlace(t *testing.T) {
	s := newTestStore(t)
	siteID, _ := s.UpsertSite("https://shop.example.com")

	p := model.Product{
		Name:        "Water Pistol",
		Permalink:   "https://shop.example.com/water-pistol",
		Description: "Water pistol for playful water annihilation",
	}

	id1, err := s.UpsertProduct(siteID, p)
	if err != nil {
		t.Fatalf("upsert product: %v", err)
	}

	p.Description = "Updated description"
	id2, err := s.UpsertProduct(siteID, p)
	if err != nil {
		t.Fatalf("second upsert product: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected stable product id, got %d then %d", id1, id2)
	}

	stored, err := s.GetProduct(p.Permalink)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if stored.Description != "Updated description" {
		t.Errorf("expected refreshed description, got %q", stored.Description)
	}
}

func TestUpsertResult_UpdateInPlace(t *testing.T) {
	s := newTestStore(t)
	siteID, _ := s.UpsertSite("https://shop.example.com")
	productID, _ := s.UpsertProduct(siteID, model.Product{
		Name:        "Tactical Combat Knife",
		Permalink:   "https://shop.example.com/knife",
		Description: "Spring-assisted knife",
	})

	if err := s.UpsertResult(productID, testVerdict("weapons", true, "first reason")); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	// Re-classification under the same (product, category, model) key
	// overwrites rather than inserting a second row
	second := testVerdict("weapons", false, "second reason")
	second.Confidence = 0.4
	if err := s.UpsertResult(productID, second); err != nil {
		t.Fatalf("second upsert result: %v", err)
	}

	results, err := s.GetProductResults(productID)
	if err != nil {
		t.Fatalf("get product results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 stored row, got %d", len(results))
	}
	row := results[0]
	if row.Violates {
		t.Error("expected second verdict's boolean")
	}
	if row.Reason != "second reason" {
		t.Errorf("expected second verdict's reason, got %q", row.Reason)
	}
	if row.Confidence != 0.4 {
		t.Errorf("expected second verdict's confidence, got %v", row.Confidence)
	}

	// A different model for the same category is a distinct row
	other := testVerdict("weapons", true, "other model says yes")
	other.Model = "claude-3-5-haiku"
	if err := s.UpsertResult(productID, other); err != nil {
		t.Fatalf("other-model upsert: %v", err)
	}
	results, _ = s.GetProductResults(productID)
	if len(results) != 2 {
		t.Errorf("expected 2 rows across models, got %d", len(results))
	}
}

func TestHasResults(t *testing.T) {
	s := newTestStore(t)
	siteID, _ := s.UpsertSite("https://shop.example.com")
	productID, _ := s.UpsertProduct(siteID, model.Product{
		Name:        "CBD Oil Tincture",
		Permalink:   "https://shop.example.com/cbd-oil",
		Description: "Hemp-derived CBD oil",
	})

	has, err := s.HasResults(productID, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("has results: %v", err)
	}
	if has {
		t.Error("expected no results before upsert")
	}

	_ = s.UpsertResult(productID, testVerdict("marijuana", false, "within legal THC limits"))

	has, _ = s.HasResults(productID, "gpt-4o-mini")
	if !has {
		t.Error("expected results after upsert")
	}

	// Checked with one model does not mean checked with another
	has, _ = s.HasResults(productID, "claude-3-5-haiku")
	if has {
		t.Error("expected no results for a different model")
	}
}

func TestViolationQueries(t *testing.T) {
	s := newTestStore(t)

	siteA, _ := s.UpsertSite("https://a.example.com")
	siteB, _ := s.UpsertSite("https://b.example.com")

	knife, _ := s.UpsertProduct(siteA, model.Product{
		Name: "Combat Knife", Permalink: "https://a.example.com/knife", Description: "knife",
	})
	pistol, _ := s.UpsertProduct(siteB, model.Product{
		Name: "Water Pistol", Permalink: "https://b.example.com/pistol", Description: "toy",
	})

	_ = s.UpsertResult(knife, testVerdict("weapons", true, "quick-deploy blade"))
	_ = s.UpsertResult(knife, testVerdict("marijuana", false, "not a cannabis product"))
	_ = s.UpsertResult(pistol, testVerdict("weapons", false, "toy water pistol"))

	siteViolations, err := s.GetSiteViolations(siteA)
	if err != nil {
		t.Fatalf("get site violations: %v", err)
	}
	if len(siteViolations) != 1 {
		t.Fatalf("expected 1 violation for site A, got %d", len(siteViolations))
	}
	if siteViolations[0].CategoryKey != "weapons" || !siteViolations[0].Violates {
		t.Errorf("unexpected violation row: %+v", siteViolations[0])
	}
	if siteViolations[0].ProductName != "Combat Knife" {
		t.Errorf("expected product name in row, got %q", siteViolations[0].ProductName)
	}

	if rows, _ := s.GetSiteViolations(siteB); len(rows) != 0 {
		t.Errorf("expected no violations for site B, got %d", len(rows))
	}

	all, err := s.GetAllViolations()
	if err != nil {
		t.Fatalf("get all violations: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 violation across sites, got %d", len(all))
	}
	if all[0].SiteURL != "https://a.example.com" {
		t.Errorf("expected site URL in row, got %q", all[0].SiteURL)
	}
}

func TestSiteSummary_Overwrite(t *testing.T) {
	s := newTestStore(t)
	siteID, _ := s.UpsertSite("https://shop.example.com")

	if summary, err := s.GetSiteSummary(siteID); err != nil || summary != nil {
		t.Fatalf("expected no summary yet, got %+v, %v", summary, err)
	}

	first := model.SiteSummary{Summary: "Sells restricted knives.", HasViolation: true}
	if err := s.UpsertSiteSummary(siteID, first); err != nil {
		t.Fatalf("upsert summary: %v", err)
	}

	second := model.SiteSummary{Summary: "", HasViolation: false}
	if err := s.UpsertSiteSummary(siteID, second); err != nil {
		t.Fatalf("second upsert summary: %v", err)
	}

	stored, err := s.GetSiteSummary(siteID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored summary")
	}
	if stored.HasViolation {
		t.Error("expected second summary's violation flag")
	}
	if stored.Summary != "" {
		t.Errorf("expected second summary's text, got %q", stored.Summary)
	}
	if stored.SiteURL != "https://shop.example.com" {
		t.Errorf("expected site URL on summary, got %q", stored.SiteURL)
	}
}
