// Package flood rate-limits per-user bot actions with a sliding window.
package flood

import (
	"sync"
	"time"
)

const (
	// window is the sliding window the per-user limit applies to.
	window = time.Minute
	// cleanupInterval is how often idle user entries are dropped.
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long an entry may sit unused before cleanup.
	idleTimeout = 10 * time.Minute
)

// Gate limits how often a single user in a single channel may trigger an
// automatic action. The window is fixed at one minute.
type Gate struct {
	limitPerMinute int
	entries        map[string]*gateEntry // key: channelID + ":" + userID
	mu             sync.Mutex
	stop           chan struct{}
}

type gateEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// NewGate creates a gate allowing limitPerMinute actions per user per channel
// and starts its background cleanup.
func NewGate(limitPerMinute int) *Gate {
	g := &Gate{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*gateEntry),
		stop:           make(chan struct{}),
	}

	go g.cleanupLoop()

	return g
}

// Stop terminates the background cleanup goroutine.
func (g *Gate) Stop() {
	close(g.stop)
}

// Allow reports whether the user may trigger another action right now, and
// counts the action against their window when they may.
func (g *Gate) Allow(channelID, userID string) bool {
	key := channelID + ":" + userID
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[key]
	if !ok {
		entry = &gateEntry{timestamps: make([]time.Time, 0, g.limitPerMinute+1)}
		g.entries[key] = entry
	}
	entry.lastSeen = now

	windowStart := now.Add(-window)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= g.limitPerMinute {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

// ActiveUsers returns the number of tracked channel/user pairs.
func (g *Gate) ActiveUsers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Gate) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep()
		case <-g.stop:
			return
		}
	}
}

func (g *Gate) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := time.Now().Add(-idleTimeout)
	for key, entry := range g.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(g.entries, key)
		}
	}
}
