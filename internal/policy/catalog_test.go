package policy

import (
	"strings"
	"testing"
)

func TestCatalog_Complete(t *testing.T) {
	all := All()
	if len(all) != 16 {
		t.Fatalf("expected 16 categories, got %d", len(all))
	}

	seen := make(map[string]bool)
	for _, c := range all {
		if c.Key == "" {
			t.Error("category with empty key")
		}
		if seen[c.Key] {
			t.Errorf("duplicate category key: %s", c.Key)
		}
		seen[c.Key] = true

		if c.Label == "" {
			t.Errorf("category %s has empty label", c.Key)
		}
		if strings.TrimSpace(c.Examples) == "" {
			t.Errorf("category %s has empty examples", c.Key)
		}
	}

	for _, key := range []string{"weapons", "marijuana", "gambling", "non-fiat"} {
		if !seen[key] {
			t.Errorf("expected category %s in catalog", key)
		}
	}
}

func TestGet(t *testing.T) {
	c, ok := Get("weapons")
	if !ok {
		t.Fatal("expected to find weapons category")
	}
	if c.Key != "weapons" {
		t.Errorf("unexpected key: %s", c.Key)
	}
	if !strings.Contains(c.Examples, "katanas") {
		t.Error("weapons examples look truncated")
	}

	if _, ok := Get("no-such-category"); ok {
		t.Error("expected lookup miss for unknown key")
	}
}

func TestActive_Exclusion(t *testing.T) {
	active := Active([]string{"travel", "legal"})
	if len(active) != 14 {
		t.Fatalf("expected 14 active categories, got %d", len(active))
	}
	for _, c := range active {
		if c.Key == "travel" || c.Key == "legal" {
			t.Errorf("excluded category %s still active", c.Key)
		}
	}

	// Unknown keys in the exclusion list are ignored
	if got := len(Active([]string{"bogus"})); got != 16 {
		t.Errorf("expected 16 active categories, got %d", got)
	}
}
