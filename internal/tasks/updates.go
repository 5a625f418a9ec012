package tasks

import (
	"fmt"

	"github.com/ferrovax/playdex/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GroupVideos Phase = iota
	FetchChannelPlaylists
	FetchPlaylistPage
	SearchFallback
	IndexVideo
	MatchPlaylist
	Persist
	Restore
)

func (p Phase) String() string {
	switch p {
	case GroupVideos:
		return "group_videos"
	case FetchChannelPlaylists:
		return "fetch_channel_playlists"
	case FetchPlaylistPage:
		return "fetch_playlist_page"
	case SearchFallback:
		return "search_fallback"
	case IndexVideo:
		return "index_video"
	case MatchPlaylist:
		return "match_playlist"
	case Persist:
		return "persist"
	case Restore:
		return "restore"
	default:
		return ""
	}
}

func groupVideosUpdate(total, groups int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GroupVideos,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Grouping %d videos into %d channel groups...", total, groups),
	}
}

func channelPlaylistsUpdate(channelID string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchChannelPlaylists,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Channel %s: %d playlists", channelID, count),
	}
}

func scanProgressUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IndexVideo,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] videos reconciled", done, total),
	}
}

func playlistFoundUpdate(pl models.Playlist, number int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IndexVideo,
		Step:    number,
		Total:   number,
		Message: fmt.Sprintf("Found playlist #%d: %s", number, pl.Title),
		Data:    pl,
	}
}

func fallbackSearchUpdate(videoID, term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchFallback,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching playlists for %s (%q)...", videoID, term),
	}
}

func budgetExhaustedUpdate(budget int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchFallback,
		Step:    budget,
		Total:   budget,
		Message: fmt.Sprintf("Search budget of %d exhausted, skipping remaining fallback videos", budget),
	}
}

func persistUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Snapshot written to %s", path),
	}
}
