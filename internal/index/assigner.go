package index

import "sync"

// Assigner hands out permanent display numbers for playlists: a strictly
// increasing, gap-free sequence starting at 1, scoped to one browsing
// session. A playlist keeps its number until Clear; re-rendering, sorting
// or pinning never renumbers anything.
type Assigner struct {
	mu         sync.Mutex
	byPlaylist map[string]int
	next       int
}

// NewAssigner creates an empty assigner.
func NewAssigner() *Assigner {
	return &Assigner{
		byPlaylist: make(map[string]int),
		next:       1,
	}
}

// Assign returns the playlist's display number, allocating the next number
// on first sight. Idempotent and safe under concurrent discovery: the
// second caller for a new playlist observes the first caller's number.
func (a *Assigner) Assign(playlistID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n, ok := a.byPlaylist[playlistID]; ok {
		return n
	}

	n := a.next
	a.byPlaylist[playlistID] = n
	a.next++
	return n
}

// Lookup returns the playlist's display number without allocating one.
func (a *Assigner) Lookup(playlistID string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.byPlaylist[playlistID]
	return n, ok
}

// Len returns the number of assigned playlists.
func (a *Assigner) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.byPlaylist)
}

// Assignments returns a copy of the playlist → display number map.
func (a *Assigner) Assignments() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]int, len(a.byPlaylist))
	for id, n := range a.byPlaylist {
		out[id] = n
	}
	return out
}

// Clear resets the sequence. Callers must also clear derived video
// back-references (see MediaIndex.ClearAssignments); the engine does both.
func (a *Assigner) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.byPlaylist = make(map[string]int)
	a.next = 1
}
