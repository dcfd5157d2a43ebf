package cache

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("https://shop.example.com", "1")
	b := Key("https://shop.example.com", "1")
	c := Key("https://shop.example.com", "2")

	if a != b {
		t.Error("expected deterministic keys for identical parts")
	}
	if a == c {
		t.Error("expected distinct keys for distinct parts")
	}
	if Key("https://shop.example.coma", "") == Key("https://shop.example.com", "a") {
		t.Error("expected part boundaries to affect the key")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	key := Key("https://shop.example.com", "1")
	if err := c.Set(key, []byte("page one"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	if val, found := c.Get(key); !found || string(val) != "page one" {
		t.Fatalf("expected fresh entry, got %q, %v", val, found)
	}

	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	key := Key("https://shop.example.com", "1")
	if err := c.Set(key, []byte("page one"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh layered cache over the same directory has a cold memory layer
	// and must fall through to disk
	reopened := NewLayeredCache(time.Hour, dir, time.Hour)
	if val, found := reopened.Get(key); !found || string(val) != "page one" {
		t.Fatalf("expected disk fallthrough, got %q, %v", val, found)
	}

	// The hit is promoted, so memory alone serves it now
	if val, found := reopened.memory.Get(key); !found || string(val) != "page one" {
		t.Errorf("expected promotion to memory, got %q, %v", val, found)
	}

	if err := reopened.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := reopened.Get(key); found {
		t.Error("expected miss after delete")
	}
}
