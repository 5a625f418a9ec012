// package cache implements the in-memory membership memo
package cache

import "sync"

// DefaultMaxEntries bounds the memo so an unbounded browsing session cannot
// grow it without limit.
const DefaultMaxEntries = 10000

type key struct {
	playlistID string
	videoID    string
}

// MembershipCache memoizes "(playlist, video) is a member" facts for the
// process lifetime. Every discovery path consults it before issuing a
// catalog query, so the same fact is never fetched twice.
//
// The cache is guarded by a single mutex and safe for concurrent use. When
// full it evicts an arbitrary entry; membership facts are cheap to
// re-derive and precision of eviction order does not matter here.
type MembershipCache struct {
	mu      sync.Mutex
	entries map[key]bool
	max     int
}

// NewMembershipCache creates a membership cache holding at most maxEntries
// facts. Non-positive values fall back to [DefaultMaxEntries].
func NewMembershipCache(maxEntries int) *MembershipCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MembershipCache{
		entries: make(map[key]bool),
		max:     maxEntries,
	}
}

// Get returns the memoized fact for (playlistID, videoID).
func (c *MembershipCache) Get(playlistID, videoID string) (member, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	member, ok = c.entries[key{playlistID, videoID}]
	return member, ok
}

// Put memoizes the fact for (playlistID, videoID).
func (c *MembershipCache) Put(playlistID, videoID string, member bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{playlistID, videoID}
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.max {
		for evict := range c.entries {
			delete(c.entries, evict)
			break
		}
	}
	c.entries[k] = member
}

// Len returns the number of memoized facts.
func (c *MembershipCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear drops all memoized facts.
func (c *MembershipCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[key]bool)
}
