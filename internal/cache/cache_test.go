package cache

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c := New(db)
	if err := c.Init(); err != nil {
		t.Fatalf("init cache: %v", err)
	}
	return c
}

func TestCacheKey(t *testing.T) {
	k1 := Key("GET", "/category", url.Values{"a": {"1"}, "b": {"2"}})
	if k1 == "" {
		t.Fatal("key should not be empty")
	}

	// Parameter order must not matter
	q := url.Values{}
	q.Set("b", "2")
	q.Set("a", "1")
	if k2 := Key("get", "/category", q); k1 != k2 {
		t.Errorf("equivalent requests should share a key: %s != %s", k1, k2)
	}

	if k3 := Key("GET", "/category", url.Values{"a": {"9"}}); k1 == k3 {
		t.Error("different queries should produce different keys")
	}
}

func TestCacheSetGet(t *testing.T) {
	c := setupCache(t)

	body := []byte(`[{"id":1,"name":"Уборка"}]`)
	key := Key("GET", "/category", nil)

	if err := c.Set(key, "/category", body, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	entry, hit, err := c.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if string(entry.Body) != string(body) {
		t.Errorf("body mismatch: got %s", entry.Body)
	}
	if entry.Path != "/category" {
		t.Errorf("expected path /category, got %s", entry.Path)
	}
}

func TestCacheMiss(t *testing.T) {
	c := setupCache(t)

	_, hit, err := c.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Error("expected cache miss for nonexistent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := setupCache(t)

	now := time.Now()
	c.now = func() time.Time { return now }

	key := "expiry-test-key"
	if err := c.Set(key, "/category", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	_, hit, err := c.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Error("expected cache miss after expiry")
	}

	total, _, _ := c.Stats()
	if total != 0 {
		t.Errorf("expired entry should be lazily deleted, %d left", total)
	}
}

func TestCacheHitCount(t *testing.T) {
	c := setupCache(t)

	key := "hit-count-key"
	c.Set(key, "/category", []byte(`[]`), time.Hour)

	for i := 0; i < 3; i++ {
		entry, hit, _ := c.Get(key)
		if !hit {
			t.Fatalf("iteration %d: expected hit", i)
		}
		if entry.HitCount != i+1 {
			t.Errorf("iteration %d: expected hit count %d, got %d", i, i+1, entry.HitCount)
		}
	}
}

func TestCacheInvalidatePath(t *testing.T) {
	c := setupCache(t)

	c.Set("k1", "/category", []byte(`[]`), time.Hour)
	c.Set("k2", "/category/4", []byte(`{}`), time.Hour)
	c.Set("k3", "/user", []byte(`[]`), time.Hour)

	n, err := c.InvalidatePath("/category")
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if _, hit, _ := c.Get("k3"); !hit {
		t.Error("unrelated path should survive")
	}
}

func TestCachePurgeAndClear(t *testing.T) {
	c := setupCache(t)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("old", "/category", []byte(`[]`), time.Second)
	c.Set("fresh", "/category", []byte(`[]`), time.Hour)

	c.now = func() time.Time { return now.Add(time.Minute) }

	total, expired, err := c.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if total != 2 || expired != 1 {
		t.Errorf("expected 2 total / 1 expired, got %d / %d", total, expired)
	}

	n, err := c.Purge()
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}

	n, err = c.Clear()
	if err != nil || n != 1 {
		t.Fatalf("clear: n=%d err=%v", n, err)
	}
}
