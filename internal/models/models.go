// package models defines the data model for the playlist reconciliation engine
package models

// VideoCountUnknown is the sentinel for a playlist whose member count has
// not been fetched from the catalog yet.
const VideoCountUnknown = -1

// Video represents a single catalog video as learned from a search result.
//
// PlaylistID and PlaylistIndex start empty/zero and are assigned exclusively
// by the reconciliation engine once the owning playlist is discovered.
type Video struct {
	ID            string `json:"videoId"`
	Title         string `json:"title,omitempty"`
	ChannelTitle  string `json:"channelTitle,omitempty"`
	ChannelID     string `json:"channelId,omitempty"`
	Duration      string `json:"duration,omitempty"`
	Published     string `json:"published,omitempty"` // ISO-8601 timestamp
	Views         string `json:"views,omitempty"`     // numeric string, as returned by the catalog
	PlaylistID    string `json:"playlistId,omitempty"`
	PlaylistIndex int    `json:"playlistIndex,omitempty"` // display number of the owning playlist, 0 when unassigned
}

// Playlist represents a catalog playlist.
//
// VideoIDs is the set of member video ids known so far, serialized as a
// sorted list. It may be a strict subset of the playlist's true membership
// and only ever grows for the lifetime of the record.
type Playlist struct {
	ID           string   `json:"playlistId"`
	Title        string   `json:"title,omitempty"`
	ChannelTitle string   `json:"channelTitle,omitempty"`
	VideoCount   int      `json:"videoCount"`
	VideoIDs     []string `json:"videoIds,omitempty"`
}

// SearchState captures the last video search so a restart can resume
// browsing without re-querying the catalog.
type SearchState struct {
	Query         string     `json:"query"`
	Videos        []Video    `json:"videos,omitempty"`
	Playlists     []Playlist `json:"playlists,omitempty"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
	PrevPageToken string     `json:"prevPageToken,omitempty"`
	VideoIDs      []string   `json:"videoIds,omitempty"`
}

// SnapshotDocument is the persisted form of the media index plus the last
// search. All optional fields default to empty on load.
type SnapshotDocument struct {
	Videos     map[string]Video    `json:"videos,omitempty"`
	Playlists  map[string]Playlist `json:"playlists,omitempty"`
	LastSearch *SearchState        `json:"lastSearch,omitempty"`
}

// VideoPage is one page of video results from the catalog.
type VideoPage struct {
	Videos        []Video `json:"videos"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	PrevPageToken string  `json:"prevPageToken,omitempty"`
}
