package tasks

import (
	"context"
	"sort"

	"github.com/scylladb/go-set/strset"
)

// ProbeFunc answers a single live membership question. Engine.ProbeMembership
// is the standard implementation; tests substitute their own.
type ProbeFunc func(ctx context.Context, playlistID, videoID string) (bool, error)

// Intersection answers "which of the currently displayed videos belong to
// this playlist". Answers are cached per playlist until the caller
// invalidates them (the engine does so automatically whenever the current
// result set changes; see SetResults).
//
// When the locally known intersection is empty and a probe is supplied, a
// bounded number of still-unknown videos are probed one at a time — but
// only while the index has not verified the playlist's membership as
// complete, in which case an empty answer is already authoritative.
func (e *Engine) Intersection(ctx context.Context, playlistID string, currentVideoIDs []string, probe ProbeFunc) ([]string, error) {
	e.matchMu.Lock()
	if cached, ok := e.matchCache[playlistID]; ok {
		out := make([]string, len(cached))
		copy(out, cached)
		e.matchMu.Unlock()
		return out, nil
	}
	e.matchMu.Unlock()

	current := strset.New(currentVideoIDs...)
	known := e.index.PlaylistVideoIDs(playlistID)
	result := strset.Intersection(current, known)

	if result.Size() == 0 && probe != nil && current.Size() > 0 && !e.index.HasCompleteMembership(playlistID) {
		probed := 0
		for _, videoID := range currentVideoIDs {
			if probed >= e.opts.ProbeLimit {
				break
			}
			if known.Has(videoID) {
				continue
			}

			probed++
			member, err := probe(ctx, playlistID, videoID)
			if err != nil {
				// Degrade to "fewer matches found"; the probe can be
				// retried on the next uncached call.
				e.logger.Warn("intersection probe failed", "playlist", playlistID, "video", videoID, "err", err)
				continue
			}
			if member {
				result.Add(videoID)
				e.index.Link(playlistID, videoID, 0)
			}
		}
	}

	matches := result.List()
	sort.Strings(matches)

	e.matchMu.Lock()
	e.matchCache[playlistID] = matches
	e.matchMu.Unlock()

	out := make([]string, len(matches))
	copy(out, matches)
	return out, nil
}
