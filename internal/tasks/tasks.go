package tasks

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/ferrovax/playdex/internal/cache"
	"github.com/ferrovax/playdex/internal/catalog"
	"github.com/ferrovax/playdex/internal/index"
	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/repositories"
	"github.com/ferrovax/playdex/internal/shared"
)

// ScanOpts contains tuning knobs for a discovery scan.
type ScanOpts struct {
	Workers              int // Concurrent group workers (default: 4)
	ChannelPlaylistLimit int // Playlists fetched per channel (default: 50)
	PlaylistPageSize     int // Videos fetched per playlist first page (default: 10)
	SearchBudget         int // Fallback search calls per scan, shared (default: 8)
	ProbeLimit           int // Membership probes per intersection fallback (default: 30)
}

func (o ScanOpts) withDefaults() ScanOpts {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.ChannelPlaylistLimit <= 0 {
		o.ChannelPlaylistLimit = 50
	}
	if o.PlaylistPageSize <= 0 {
		o.PlaylistPageSize = 10
	}
	if o.SearchBudget <= 0 {
		o.SearchBudget = 8
	}
	if o.ProbeLimit <= 0 {
		o.ProbeLimit = 30
	}
	return o
}

// ScanCallbacks carries the named callbacks a scan reports through.
//
// OnPlaylistFound is invoked exactly once per newly discovered playlist and
// returns its display number; when nil the engine's own assigner numbers
// the playlist. OnProgress receives monotonically non-decreasing done
// counts ending at done == total. OnVideoIndexed fires once per reconciled
// (video, playlist) pair.
//
// Callback invocations are serialized by the engine, so callers may mutate
// single-threaded presentation state inside them.
type ScanCallbacks struct {
	OnPlaylistFound func(models.Playlist) int
	OnProgress      func(done, total int)
	OnVideoIndexed  func(videoID, playlistID string, displayNumber int)
}

// ScanResult summarizes one discovery scan.
type ScanResult struct {
	Total         int               // Videos presented to the scan
	Resolved      int               // Videos linked to an owning playlist
	Unresolved    int               // Videos left without a playlist
	NewPlaylists  []models.Playlist // Playlists discovered by this scan, in discovery order
	SearchesUsed  int               // Fallback search calls consumed
	Superseded    bool              // True when a newer scan displaced this one
	DisplayNumber map[string]int    // playlist id -> display number, for playlists seen this scan
}

// Engine owns all reconciliation state for one browsing session: the media
// index, the display number assigner, both membership caches and the
// intersection cache. Create → mutate (scans, matches) → snapshot/reset;
// nothing here lives in package globals.
type Engine struct {
	catalog  catalog.Service
	index    *index.MediaIndex
	assigner *index.Assigner
	memo     *cache.MembershipCache
	durable  *repositories.MembershipRepository
	store    *SnapshotStore
	logger   *log.Logger
	opts     ScanOpts

	// generation counts scans; a unit belonging to an older generation
	// drains without applying results.
	generation atomic.Int64

	searchMu sync.Mutex
	search   models.SearchState

	matchMu    sync.Mutex
	matchCache map[string][]string
}

// EngineOpts contains configuration options for creating an Engine.
type EngineOpts struct {
	Catalog    catalog.Service
	Durable    *repositories.MembershipRepository // optional durable membership cache
	Store      *SnapshotStore                     // optional snapshot persistence
	Logger     *log.Logger
	Scan       ScanOpts
	MemoBounds int // max in-memory membership facts (default: cache.DefaultMaxEntries)
}

// NewEngine creates an Engine with the provided collaborators.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Engine{
		catalog:    opts.Catalog,
		index:      index.NewMediaIndex(),
		assigner:   index.NewAssigner(),
		memo:       cache.NewMembershipCache(opts.MemoBounds),
		durable:    opts.Durable,
		store:      opts.Store,
		logger:     opts.Logger,
		opts:       opts.Scan.withDefaults(),
		matchCache: make(map[string][]string),
	}
}

// Index exposes the engine's media index to the foreground caller.
func (e *Engine) Index() *index.MediaIndex {
	return e.index
}

// AssignDisplayNumber returns the playlist's permanent display number,
// allocating the next one on first sight.
func (e *Engine) AssignDisplayNumber(playlistID string) int {
	return e.assigner.Assign(playlistID)
}

// DisplayNumber returns the playlist's display number without allocating.
func (e *Engine) DisplayNumber(playlistID string) (int, bool) {
	return e.assigner.Lookup(playlistID)
}

// SetResults replaces the current search result set. The previous scan is
// superseded (it drains without merging) and the intersection cache is
// invalidated, since cached answers describe a result set that no longer
// exists.
func (e *Engine) SetResults(state models.SearchState) {
	e.generation.Add(1)

	e.searchMu.Lock()
	e.search = state
	e.searchMu.Unlock()

	e.index.AddVideos(state.Videos)
	e.index.AddPlaylists(state.Playlists)
	e.InvalidateMatches()
}

// SearchState returns a copy of the current search state.
func (e *Engine) SearchState() models.SearchState {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	return e.search
}

// Stop cooperatively stops an in-flight scan. Units already running finish;
// their results are discarded.
func (e *Engine) Stop() {
	e.generation.Add(1)
}

// InvalidateMatches drops all cached intersection answers.
func (e *Engine) InvalidateMatches() {
	e.matchMu.Lock()
	defer e.matchMu.Unlock()

	e.matchCache = make(map[string][]string)
}

// Reset clears the whole session: index, display numbers, membership memo,
// intersection cache and search state. Callers invoke this only on an
// explicit mode/session switch.
func (e *Engine) Reset() {
	e.generation.Add(1)
	e.index.Reset()
	e.assigner.Clear()
	e.memo.Clear()
	e.InvalidateMatches()

	e.searchMu.Lock()
	e.search = models.SearchState{}
	e.searchMu.Unlock()
}

// SaveSnapshot persists the media index plus the current search state.
// No-op without a configured store.
func (e *Engine) SaveSnapshot() error {
	if e.store == nil {
		return nil
	}

	doc := e.index.Snapshot()
	state := e.SearchState()
	doc.LastSearch = &state

	return e.store.Save(doc)
}

// LoadSnapshot restores the media index and search state from the snapshot
// store. Display numbers are rebuilt from the persisted video assignments,
// in numbering order, so every playlist comes back with exactly the number
// it had. Missing or corrupt snapshots restore an empty, valid session.
func (e *Engine) LoadSnapshot() error {
	if e.store == nil {
		return nil
	}

	doc, err := e.store.Load()
	if err != nil {
		return err
	}

	e.index.Load(doc)
	e.restoreAssignments(doc)

	if doc.LastSearch != nil {
		e.searchMu.Lock()
		e.search = *doc.LastSearch
		e.searchMu.Unlock()
	}

	e.InvalidateMatches()
	return nil
}

// restoreAssignments rebuilds the display number sequence from the videos'
// persisted playlist indices. Numbers are gap-free from 1, so re-assigning
// in ascending order reproduces them exactly.
func (e *Engine) restoreAssignments(doc models.SnapshotDocument) {
	numbered := make(map[int]string)
	for _, v := range doc.Videos {
		if v.PlaylistID != "" && v.PlaylistIndex > 0 {
			numbered[v.PlaylistIndex] = v.PlaylistID
		}
	}

	numbers := make([]int, 0, len(numbered))
	for n := range numbered {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		e.assigner.Assign(numbered[n])
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// lookupMembership consults the in-memory memo, then the durable cache.
func (e *Engine) lookupMembership(playlistID, videoID string) (member, ok bool) {
	if member, ok = e.memo.Get(playlistID, videoID); ok {
		return member, true
	}

	if e.durable != nil {
		member, ok, err := e.durable.Get(playlistID, videoID)
		if err != nil {
			e.logger.Debug("durable membership lookup failed", "err", err)
			return false, false
		}
		if ok {
			e.memo.Put(playlistID, videoID, member)
			return member, true
		}
	}

	return false, false
}

// recordMembership memoizes a fact in both cache tiers.
func (e *Engine) recordMembership(playlistID, videoID string, member bool) {
	e.memo.Put(playlistID, videoID, member)

	if e.durable != nil {
		if err := e.durable.Put(playlistID, videoID, member); err != nil {
			e.logger.Debug("durable membership store failed", "err", err)
		}
	}
}

// ProbeMembership answers "is videoID in playlistID" from cache when
// possible, falling back to one catalog query. The learned fact is
// memoized in both tiers.
func (e *Engine) ProbeMembership(ctx context.Context, playlistID, videoID string) (bool, error) {
	if member, ok := e.lookupMembership(playlistID, videoID); ok {
		return member, nil
	}

	member, err := e.catalog.PlaylistContainsVideo(ctx, playlistID, videoID)
	if err != nil {
		return false, err
	}

	e.recordMembership(playlistID, videoID, member)
	return member, nil
}
