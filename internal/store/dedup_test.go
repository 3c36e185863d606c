package store

import (
	"fmt"
	"testing"
)

func TestDedupIndexBasic(t *testing.T) {
	idx := NewDedupIndex(100, 0.001)

	if idx.Has("https://a.example/1") {
		t.Error("empty index must not report any URL")
	}
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}

	idx.Add("https://a.example/1")
	if !idx.Has("https://a.example/1") {
		t.Error("Has = false after Add")
	}
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}

	idx.Add("https://a.example/1")
	if idx.Len() != 1 {
		t.Errorf("Len = %d after duplicate Add, want 1", idx.Len())
	}
}

func TestDedupIndexLoad(t *testing.T) {
	idx := NewDedupIndex(100, 0.001)
	idx.Add("https://a.example/stale")

	idx.Load([]string{"https://a.example/1", "https://a.example/2", ""})

	if idx.Has("https://a.example/stale") {
		t.Error("Load must replace previous contents")
	}
	if !idx.Has("https://a.example/1") || !idx.Has("https://a.example/2") {
		t.Error("loaded URLs missing")
	}
	if idx.Len() != 2 {
		t.Errorf("Len = %d, want 2 (empty strings skipped)", idx.Len())
	}
}

func TestDedupIndexEviction(t *testing.T) {
	const capacity = 10
	idx := NewDedupIndex(capacity, 0.001)

	for i := 0; i < capacity*2; i++ {
		idx.Add(fmt.Sprintf("https://a.example/%d", i))
	}

	if idx.Len() != capacity {
		t.Errorf("Len = %d, want capped at %d", idx.Len(), capacity)
	}
	// The most recent additions must survive.
	for i := capacity; i < capacity*2; i++ {
		if !idx.Has(fmt.Sprintf("https://a.example/%d", i)) {
			t.Errorf("recent URL %d evicted", i)
		}
	}
}
