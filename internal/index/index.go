// package index implements the durable media index: video and playlist
// records, playlist membership sets and the video → playlist back-pointer.
package index

import (
	"sort"
	"sync"

	"github.com/ferrovax/playdex/internal/models"
	"github.com/scylladb/go-set/strset"
)

// MediaIndex owns storage and linking for everything the engine has learned
// about videos and playlists. It is safe for concurrent use; discovery
// workers and the foreground caller share one instance.
//
// The index never removes entries and membership sets only grow. Clearing
// happens only through Reset on an explicit session/mode switch.
type MediaIndex struct {
	mu        sync.RWMutex
	videos    map[string]models.Video
	playlists map[string]models.Playlist
	members   map[string]*strset.Set // playlist id -> known member video ids
	owner     map[string]string      // video id -> owning playlist id
}

// NewMediaIndex creates an empty media index.
func NewMediaIndex() *MediaIndex {
	return &MediaIndex{
		videos:    make(map[string]models.Video),
		playlists: make(map[string]models.Playlist),
		members:   make(map[string]*strset.Set),
		owner:     make(map[string]string),
	}
}

// AddVideos upserts video records by id. Fields present in the new record
// overwrite prior values; empty fields keep what was already stored. The
// reconciled PlaylistID/PlaylistIndex survive re-adds from fresh search
// results, which never carry them.
func (m *MediaIndex) AddVideos(records []models.Video) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			continue
		}

		prior, ok := m.videos[rec.ID]
		if !ok {
			m.videos[rec.ID] = rec
			if rec.PlaylistID != "" {
				m.owner[rec.ID] = rec.PlaylistID
			}
			continue
		}

		m.videos[rec.ID] = mergeVideo(prior, rec)
		if rec.PlaylistID != "" {
			m.owner[rec.ID] = rec.PlaylistID
		}
	}
}

// AddPlaylists upserts playlist records by id. VideoIDs carried on the
// record are merged into the playlist's member set; the set never shrinks.
func (m *MediaIndex) AddPlaylists(records []models.Playlist) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			continue
		}

		prior, ok := m.playlists[rec.ID]
		if !ok {
			prior = models.Playlist{ID: rec.ID, VideoCount: models.VideoCountUnknown}
		}

		m.playlists[rec.ID] = mergePlaylist(prior, rec)

		if len(rec.VideoIDs) > 0 {
			m.memberSetLocked(rec.ID).Add(rec.VideoIDs...)
		}
	}
}

// Link adds videoID to the playlist's member set and, if the video is not
// yet owned, claims ownership and stamps the record's PlaylistID and (when
// displayIndex > 0) PlaylistIndex. The first claim wins; later links against
// an already-owned video record membership only. Unknown ids are not an
// error; the side that exists is still recorded.
func (m *MediaIndex) Link(playlistID, videoID string, displayIndex int) {
	if playlistID == "" || videoID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.memberSetLocked(playlistID).Add(videoID)

	if prior, ok := m.owner[videoID]; ok && prior != playlistID {
		return
	}
	m.owner[videoID] = playlistID

	if video, ok := m.videos[videoID]; ok {
		video.PlaylistID = playlistID
		if displayIndex > 0 {
			video.PlaylistIndex = displayIndex
		}
		m.videos[videoID] = video
	}
}

// BulkLink links every id in videoIDs to the playlist. Safe with an empty list.
func (m *MediaIndex) BulkLink(playlistID string, videoIDs []string) {
	for _, id := range videoIDs {
		m.Link(playlistID, id, 0)
	}
}

// PlaylistVideoIDs returns a copy of the playlist's known member set.
// Unknown playlists yield an empty set, never an error.
func (m *MediaIndex) PlaylistVideoIDs(playlistID string) *strset.Set {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if set, ok := m.members[playlistID]; ok {
		return set.Copy()
	}
	return strset.New()
}

// Video returns the stored video record for id.
func (m *MediaIndex) Video(id string) (models.Video, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	video, ok := m.videos[id]
	return video, ok
}

// Playlist returns the stored playlist record for id, with VideoIDs
// populated from the member set.
func (m *MediaIndex) Playlist(id string) (models.Playlist, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	playlist, ok := m.playlists[id]
	if !ok {
		return models.Playlist{}, false
	}
	if set, ok := m.members[id]; ok {
		playlist.VideoIDs = sortedList(set)
	}
	return playlist, true
}

// Owner returns the playlist id reconciled for the video, or "".
func (m *MediaIndex) Owner(videoID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.owner[videoID]
}

// HasCompleteMembership reports whether the playlist's known member set has
// reached the member count recorded by the catalog. While the recorded
// count is unknown the membership is never considered complete.
func (m *MediaIndex) HasCompleteMembership(playlistID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	playlist, ok := m.playlists[playlistID]
	if !ok || playlist.VideoCount == models.VideoCountUnknown {
		return false
	}

	set, ok := m.members[playlistID]
	return ok && set.Size() >= playlist.VideoCount
}

// Len returns the number of stored videos and playlists.
func (m *MediaIndex) Len() (videos, playlists int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.videos), len(m.playlists)
}

// ClearAssignments removes every video's reconciled playlist assignment.
// Called alongside the display-number reset on a session switch.
func (m *MediaIndex) ClearAssignments() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, video := range m.videos {
		video.PlaylistID = ""
		video.PlaylistIndex = 0
		m.videos[id] = video
	}
	m.owner = make(map[string]string)
}

// Reset drops all stored state. Only a deliberate session/mode switch calls
// this; nothing clears the index implicitly.
func (m *MediaIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.videos = make(map[string]models.Video)
	m.playlists = make(map[string]models.Playlist)
	m.members = make(map[string]*strset.Set)
	m.owner = make(map[string]string)
}

// Snapshot serializes the index into its durable document form. Member sets
// come out as sorted lists so the output is deterministic.
func (m *MediaIndex) Snapshot() models.SnapshotDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc := models.SnapshotDocument{
		Videos:    make(map[string]models.Video, len(m.videos)),
		Playlists: make(map[string]models.Playlist, len(m.playlists)),
	}

	for id, video := range m.videos {
		doc.Videos[id] = video
	}

	for id, playlist := range m.playlists {
		if set, ok := m.members[id]; ok {
			playlist.VideoIDs = sortedList(set)
		} else {
			playlist.VideoIDs = nil
		}
		doc.Playlists[id] = playlist
	}

	return doc
}

// Load replaces the index contents with the document's. Missing maps load
// as empty; membership lists are rebuilt into sets and ownership is
// re-derived from the videos' stamped assignments. Membership alone never
// implies ownership.
func (m *MediaIndex) Load(doc models.SnapshotDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.videos = make(map[string]models.Video, len(doc.Videos))
	m.playlists = make(map[string]models.Playlist, len(doc.Playlists))
	m.members = make(map[string]*strset.Set, len(doc.Playlists))
	m.owner = make(map[string]string)

	for id, video := range doc.Videos {
		if video.ID == "" {
			video.ID = id
		}
		m.videos[id] = video
		if video.PlaylistID != "" {
			m.owner[id] = video.PlaylistID
		}
	}

	for id, playlist := range doc.Playlists {
		if playlist.ID == "" {
			playlist.ID = id
		}
		if len(playlist.VideoIDs) > 0 {
			m.members[id] = strset.New(playlist.VideoIDs...)
		}
		playlist.VideoIDs = nil
		m.playlists[id] = playlist
	}
}

func (m *MediaIndex) memberSetLocked(playlistID string) *strset.Set {
	set, ok := m.members[playlistID]
	if !ok {
		set = strset.New()
		m.members[playlistID] = set
	}
	return set
}

func mergeVideo(prior, rec models.Video) models.Video {
	merged := prior
	if rec.Title != "" {
		merged.Title = rec.Title
	}
	if rec.ChannelTitle != "" {
		merged.ChannelTitle = rec.ChannelTitle
	}
	if rec.ChannelID != "" {
		merged.ChannelID = rec.ChannelID
	}
	if rec.Duration != "" {
		merged.Duration = rec.Duration
	}
	if rec.Published != "" {
		merged.Published = rec.Published
	}
	if rec.Views != "" {
		merged.Views = rec.Views
	}
	if rec.PlaylistID != "" {
		merged.PlaylistID = rec.PlaylistID
	}
	if rec.PlaylistIndex > 0 {
		merged.PlaylistIndex = rec.PlaylistIndex
	}
	return merged
}

func mergePlaylist(prior, rec models.Playlist) models.Playlist {
	merged := prior
	if rec.Title != "" {
		merged.Title = rec.Title
	}
	if rec.ChannelTitle != "" {
		merged.ChannelTitle = rec.ChannelTitle
	}
	// A zero count is indistinguishable from an unset field on a literal
	// record, so only positive counts overwrite.
	if rec.VideoCount > 0 {
		merged.VideoCount = rec.VideoCount
	}
	merged.VideoIDs = nil
	return merged
}

func sortedList(set *strset.Set) []string {
	list := set.List()
	sort.Strings(list)
	return list
}
