package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/scylladb/go-set/strset"
)

// scanUnit is one schedulable piece of a scan: a channel group or the
// whole fallback group.
type scanUnit struct {
	channelID string // empty for the fallback group
	videos    []models.Video
}

// scanState is the shared mutable state of one scan pass. A single mutex
// guards counters, dedup maps and callback invocation, so callbacks observe
// a serialized, ordered stream of events.
type scanState struct {
	mu sync.Mutex

	total      int
	done       int
	processed  map[string]bool
	resolved   map[string]bool
	found      map[string]int // playlist id -> display number, reported this scan
	discovered []models.Playlist
	budget     int
	budgetUsed int
}

// Scan reconciles a batch of videos against the catalog: it groups them by
// channel, discovers each channel's playlists once, matches memberships
// locally, and falls back to budgeted playlist searches for channel-less
// videos. Side effects flow into the media index and membership caches;
// events flow through cb and the optional progress channel.
//
// A scan is fire-and-forget with cooperative stop: starting a new scan,
// calling Stop or SetResults supersedes this one, and superseded units
// drain without applying results. Per-unit catalog failures are swallowed;
// the affected videos simply stay unresolved.
func (e *Engine) Scan(ctx context.Context, videos []models.Video, progress chan<- ProgressUpdate, cb ScanCallbacks) (*ScanResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	gen := e.generation.Add(1)
	scanID := shared.GenerateID()
	logger := e.logger.With("scan", scanID[:8])

	// Deduplicate by id so each video contributes exactly one progress unit.
	unique := make([]models.Video, 0, len(videos))
	seen := strset.New()
	for _, v := range videos {
		if v.ID == "" || seen.Has(v.ID) {
			continue
		}
		seen.Add(v.ID)
		unique = append(unique, v)
	}

	e.index.AddVideos(unique)

	st := &scanState{
		total:     len(unique),
		processed: make(map[string]bool),
		resolved:  make(map[string]bool),
		found:     make(map[string]int),
		budget:    e.opts.SearchBudget,
	}

	var units []scanUnit
	groups := make(map[string][]models.Video)
	var fallback []models.Video
	for _, v := range unique {
		if v.ChannelID == "" {
			fallback = append(fallback, v)
			continue
		}
		groups[v.ChannelID] = append(groups[v.ChannelID], v)
	}
	for channelID, group := range groups {
		units = append(units, scanUnit{channelID: channelID, videos: group})
	}
	if len(fallback) > 0 {
		units = append(units, scanUnit{videos: fallback})
	}

	logger.Debug("scan started", "videos", st.total, "units", len(units))
	e.sendProgress(progress, groupVideosUpdate(st.total, len(units)))

	jobs := make(chan scanUnit, len(units))
	for _, unit := range units {
		jobs <- unit
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				if unit.channelID == "" {
					e.scanFallbackGroup(ctx, gen, unit.videos, st, progress, cb)
				} else {
					e.scanChannelGroup(ctx, gen, unit.channelID, unit.videos, st, progress, cb)
				}
			}
		}()
	}
	wg.Wait()

	result := &ScanResult{
		Total:         st.total,
		Resolved:      len(st.resolved),
		Unresolved:    st.total - len(st.resolved),
		NewPlaylists:  st.discovered,
		SearchesUsed:  st.budgetUsed,
		DisplayNumber: st.found,
	}

	if e.generation.Load() != gen {
		result.Superseded = true
		logger.Debug("scan superseded, results discarded", "total", st.total)
		return result, nil
	}

	e.recordDiscovered(st.discovered)

	if err := e.SaveSnapshot(); err != nil {
		// Persistence failure degrades to "not saved", never fails the scan.
		logger.Warn("snapshot save failed after scan", "err", err)
	} else if e.store != nil {
		e.sendProgress(progress, persistUpdate(e.store.Path()))
	}

	return result, nil
}

// scanChannelGroup resolves one channel's videos by fetching the channel's
// playlists once and intersecting each playlist's first page with the group
// locally, trading one page fetch per playlist for a membership query per
// (playlist, video) pair.
func (e *Engine) scanChannelGroup(ctx context.Context, gen int64, channelID string, group []models.Video, st *scanState, progress chan<- ProgressUpdate, cb ScanCallbacks) {
	// Every video in the group counts as processed exactly once, with or
	// without data.
	defer func() {
		for _, v := range group {
			st.markProcessed(v.ID, progress, cb, e)
		}
	}()

	if e.stale(gen) {
		return
	}

	playlists, err := e.catalog.ChannelPlaylists(ctx, channelID, e.opts.ChannelPlaylistLimit)
	if err != nil {
		e.logger.Warn("channel playlist fetch failed", "channel", channelID, "err", err)
		return
	}
	e.sendProgress(progress, channelPlaylistsUpdate(channelID, len(playlists)))

	groupIDs := strset.New()
	for _, v := range group {
		groupIDs.Add(v.ID)
	}

	for _, pl := range playlists {
		if e.stale(gen) {
			return
		}

		page, err := e.catalog.PlaylistVideos(ctx, pl.ID, "", e.opts.PlaylistPageSize)
		if err != nil {
			e.logger.Warn("playlist page fetch failed", "playlist", pl.ID, "err", err)
			continue
		}

		pageIDs := strset.New()
		for _, v := range page.Videos {
			pageIDs.Add(v.ID)
		}

		// Record the whole page as known membership, not just the hits;
		// the matcher benefits later.
		withMembers := pl
		withMembers.VideoIDs = pageIDs.List()
		e.index.AddPlaylists([]models.Playlist{withMembers})
		for _, id := range withMembers.VideoIDs {
			e.recordMembership(pl.ID, id, true)
		}

		hits := strset.Intersection(groupIDs, pageIDs)
		if hits.Size() == 0 {
			continue
		}

		hits.Each(func(videoID string) bool {
			// First match wins: a video already owned by another playlist
			// keeps its owner.
			if owner := e.index.Owner(videoID); owner != "" && owner != pl.ID {
				return true
			}
			number := st.reportFound(pl, progress, cb, e)
			e.indexVideo(videoID, pl.ID, number, st, cb)
			return true
		})
	}
}

// scanFallbackGroup resolves channel-less videos by searching playlists
// with the video's title then its channel name, under the scan-wide search
// budget. Once the budget is gone remaining videos are skipped, not errored.
func (e *Engine) scanFallbackGroup(ctx context.Context, gen int64, group []models.Video, st *scanState, progress chan<- ProgressUpdate, cb ScanCallbacks) {
	budgetAnnounced := false

	for _, video := range group {
		if e.stale(gen) {
			st.markProcessed(video.ID, progress, cb, e)
			continue
		}

		resolved := false
		for _, term := range []string{video.Title, video.ChannelTitle} {
			if term == "" || resolved {
				continue
			}

			if !st.takeBudget() {
				if !budgetAnnounced {
					budgetAnnounced = true
					e.sendProgress(progress, budgetExhaustedUpdate(st.budget))
				}
				break
			}

			e.sendProgress(progress, fallbackSearchUpdate(video.ID, term))
			candidates, err := e.catalog.SearchPlaylists(ctx, term, e.opts.PlaylistPageSize)
			if err != nil {
				e.logger.Warn("fallback playlist search failed", "video", video.ID, "err", err)
				continue
			}

			// First match wins, in discovery order.
			for _, pl := range candidates {
				member, err := e.ProbeMembership(ctx, pl.ID, video.ID)
				if err != nil {
					e.logger.Warn("membership probe failed", "playlist", pl.ID, "video", video.ID, "err", err)
					continue
				}
				if member {
					number := st.reportFound(pl, progress, cb, e)
					e.indexVideo(video.ID, pl.ID, number, st, cb)
					resolved = true
					break
				}
			}
		}

		st.markProcessed(video.ID, progress, cb, e)
	}
}

// recordDiscovered appends this scan's newly found playlists to the search
// state, in discovery order, so the persisted session lists them.
func (e *Engine) recordDiscovered(discovered []models.Playlist) {
	if len(discovered) == 0 {
		return
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	known := strset.New()
	for _, pl := range e.search.Playlists {
		known.Add(pl.ID)
	}
	for _, pl := range discovered {
		if !known.Has(pl.ID) {
			known.Add(pl.ID)
			e.search.Playlists = append(e.search.Playlists, pl)
		}
	}
}

// stale reports whether a newer scan (or Stop/SetResults) displaced gen.
func (e *Engine) stale(gen int64) bool {
	return e.generation.Load() != gen
}

// indexVideo applies one reconciled (video, playlist) pair to the index and
// caches, then reports it.
func (e *Engine) indexVideo(videoID, playlistID string, number int, st *scanState, cb ScanCallbacks) {
	e.index.Link(playlistID, videoID, number)
	e.recordMembership(playlistID, videoID, true)

	st.mu.Lock()
	st.resolved[videoID] = true
	// Invoked under the lock; all scan callbacks share one serialization.
	if cb.OnVideoIndexed != nil {
		cb.OnVideoIndexed(videoID, playlistID, number)
	}
	st.mu.Unlock()
}

// reportFound reports a playlist exactly once per scan and returns its
// display number.
func (st *scanState) reportFound(pl models.Playlist, progress chan<- ProgressUpdate, cb ScanCallbacks, e *Engine) int {
	st.mu.Lock()
	if number, ok := st.found[pl.ID]; ok {
		st.mu.Unlock()
		return number
	}

	var number int
	if cb.OnPlaylistFound != nil {
		number = cb.OnPlaylistFound(pl)
	} else {
		number = e.assigner.Assign(pl.ID)
	}
	st.found[pl.ID] = number
	st.discovered = append(st.discovered, pl)
	st.mu.Unlock()

	e.index.AddPlaylists([]models.Playlist{pl})
	e.sendProgress(progress, playlistFoundUpdate(pl, number))
	return number
}

// markProcessed counts a video's progress unit exactly once and reports the
// monotonically increasing done count.
func (st *scanState) markProcessed(videoID string, progress chan<- ProgressUpdate, cb ScanCallbacks, e *Engine) {
	st.mu.Lock()
	if st.processed[videoID] {
		st.mu.Unlock()
		return
	}
	st.processed[videoID] = true
	st.done++
	done, total := st.done, st.total

	// Invoke under the lock so concurrent units cannot reorder the
	// done sequence observed by the callback.
	if cb.OnProgress != nil {
		cb.OnProgress(done, total)
	}
	st.mu.Unlock()

	e.sendProgress(progress, scanProgressUpdate(done, total))
}

// takeBudget consumes one fallback search call from the scan-wide budget.
func (st *scanState) takeBudget() bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.budgetUsed >= st.budget {
		return false
	}
	st.budgetUsed++
	return true
}
