// package catalog defines interface Service for the external video catalog
package catalog

import (
	"context"

	"github.com/ferrovax/playdex/internal/models"
)

// Service defines the operations the reconciliation engine needs from the
// external catalog. Implementations own transport, auth and rate limiting;
// the engine only sees this boundary.
type Service interface {
	// SearchPlaylists searches playlists by free-text query.
	SearchPlaylists(ctx context.Context, query string, maxResults int) ([]models.Playlist, error)

	// SearchVideos searches videos by free-text query, with optional paging.
	SearchVideos(ctx context.Context, query string, maxResults int, pageToken string) (*models.VideoPage, error)

	// ChannelPlaylists retrieves the playlists owned by a channel.
	ChannelPlaylists(ctx context.Context, channelID string, maxResults int) ([]models.Playlist, error)

	// PlaylistVideos retrieves one page of a playlist's member videos.
	PlaylistVideos(ctx context.Context, playlistID, pageToken string, maxResults int) (*models.VideoPage, error)

	// PlaylistContainsVideo reports whether the given video belongs to the playlist.
	PlaylistContainsVideo(ctx context.Context, playlistID, videoID string) (bool, error)

	// PlaylistDetails returns the playlist's total member count as recorded
	// by the catalog, or [models.VideoCountUnknown].
	PlaylistDetails(ctx context.Context, playlistID string) (int, error)

	// Name returns the name of the catalog backend (e.g., "playdex proxy")
	Name() string
}
