package economy

import "testing"

func TestProfileCacheRoundTrip(t *testing.T) {
	cache, err := NewProfileCache()
	if err != nil {
		t.Fatalf("NewProfileCache() error = %v", err)
	}

	if _, ok := cache.Get("u1"); ok {
		t.Fatal("empty cache returned a snapshot")
	}

	cache.Put(&ProfileSnapshot{UserID: "u1", Level: 7})
	got, ok := cache.Get("u1")
	if !ok {
		t.Fatal("cache miss after Put")
	}
	if got.Level != 7 {
		t.Errorf("snapshot level = %d, want 7", got.Level)
	}

	cache.Invalidate("u1")
	if _, ok := cache.Get("u1"); ok {
		t.Error("snapshot survived invalidation")
	}
}
