package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupIndex answers "is this track URL already on the playlist" without a
// database round-trip. A Bloom filter rejects the common never-seen case
// cheaply; an LRU bounds the exact set under sustained growth. False
// negatives after LRU eviction are acceptable: the database PRIMARY KEY is
// the authority and Add falls back to it.
type DedupIndex struct {
	mu       sync.RWMutex
	urls     map[string]struct{}
	bloom    *bloom.BloomFilter
	recency  *lru.Cache[string, struct{}]
	capacity int
	fpRate   float64
}

// NewDedupIndex creates an index sized for capacity URLs with the given
// Bloom false-positive rate.
func NewDedupIndex(capacity int, fpRate float64) *DedupIndex {
	recency, _ := lru.New[string, struct{}](capacity)
	return &DedupIndex{
		urls:     make(map[string]struct{}),
		bloom:    bloom.NewWithEstimates(uint(capacity), fpRate),
		recency:  recency,
		capacity: capacity,
		fpRate:   fpRate,
	}
}

// Has reports whether url was seen before.
func (d *DedupIndex) Has(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.bloom.TestString(url) {
		return false
	}
	_, ok := d.urls[url]
	return ok
}

// Add records url, evicting the least recently added URL past capacity.
func (d *DedupIndex) Add(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(url)
}

// Load replaces the index contents, typically from the playlist table at
// startup.
func (d *DedupIndex) Load(urls []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = make(map[string]struct{})
	d.bloom = bloom.NewWithEstimates(uint(d.capacity), d.fpRate)
	d.recency.Purge()

	for _, url := range urls {
		if url != "" {
			d.add(url)
		}
	}
}

// Len returns the number of URLs in the exact set.
func (d *DedupIndex) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.urls)
}

func (d *DedupIndex) add(url string) {
	if _, ok := d.urls[url]; ok {
		return
	}

	d.urls[url] = struct{}{}
	d.bloom.AddString(url)
	d.recency.Add(url, struct{}{})

	for len(d.urls) > d.capacity {
		oldest, _, ok := d.recency.GetOldest()
		if !ok {
			return
		}
		delete(d.urls, oldest)
		d.recency.Remove(oldest)
	}
}
