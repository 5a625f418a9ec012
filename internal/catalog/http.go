// Catalog HTTP [Service] implementation
//
// Communicates with the playdex catalog proxy, a thin JSON wrapper around
// the upstream video platform API. The proxy owns credentials and wire
// formats; this client owns throttling and retries.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

const defaultBaseURL string = "http://localhost:8080"

// HTTPService implements the Service interface against the catalog proxy.
type HTTPService struct {
	baseURL    string
	tokenSrc   oauth2.TokenSource
	limiter    *RateLimiter
	httpClient *http.Client
}

// HTTPServiceOpts contains configuration options for creating an HTTPService.
type HTTPServiceOpts struct {
	BaseURL  string
	Token    string // optional bearer token forwarded to the proxy
	RetryMax int
	Rate     RateLimitConfig
}

// NewHTTPService creates a new catalog client with a retrying transport and
// a token-bucket rate limiter.
func NewHTTPService(opts HTTPServiceOpts) *HTTPService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 3
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.Logger = nil

	svc := &HTTPService{
		baseURL:    opts.BaseURL,
		limiter:    NewRateLimiter(opts.Rate),
		httpClient: rc.StandardClient(),
	}

	if opts.Token != "" {
		svc.tokenSrc = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	}

	return svc
}

// Name returns the service name.
func (s *HTTPService) Name() string {
	return "playdex proxy"
}

func (s *HTTPService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait aborted: %v", shared.ErrCatalogRequest, err)
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrCatalogRequest, err)
	}

	if s.tokenSrc != nil {
		token, err := s.tokenSrc.Token()
		if err != nil {
			return fmt.Errorf("%w: token source: %v", shared.ErrCatalogRequest, err)
		}
		token.SetAuthHeader(req)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		s.limiter.RecordQuotaError(retryAfter)
		return fmt.Errorf("%w: quota exhausted (status 429)", shared.ErrCatalogRequest)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrCatalogRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrCatalogRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrCatalogRequest, err)
		}
	}

	return nil
}

// SearchPlaylists searches playlists by free-text query.
//
// Calls GET /api/search/playlists on the proxy.
func (s *HTTPService) SearchPlaylists(ctx context.Context, query string, maxResults int) ([]models.Playlist, error) {
	endpoint := fmt.Sprintf("/api/search/playlists?q=%s&max=%d", url.QueryEscape(query), maxResults)

	var results []playlistPayload
	if err := s.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(results))
	for i, p := range results {
		playlists[i] = p.toModel()
	}

	return playlists, nil
}

// SearchVideos searches videos by free-text query with optional paging.
//
// Calls GET /api/search/videos on the proxy.
func (s *HTTPService) SearchVideos(ctx context.Context, query string, maxResults int, pageToken string) (*models.VideoPage, error) {
	endpoint := fmt.Sprintf("/api/search/videos?q=%s&max=%d", url.QueryEscape(query), maxResults)
	if pageToken != "" {
		endpoint += "&page=" + url.QueryEscape(pageToken)
	}

	var page videoPagePayload
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return page.toModel(), nil
}

// ChannelPlaylists retrieves the playlists owned by a channel.
//
// Calls GET /api/channels/{id}/playlists on the proxy.
func (s *HTTPService) ChannelPlaylists(ctx context.Context, channelID string, maxResults int) ([]models.Playlist, error) {
	endpoint := fmt.Sprintf("/api/channels/%s/playlists?max=%d", url.PathEscape(channelID), maxResults)

	var results []playlistPayload
	if err := s.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(results))
	for i, p := range results {
		playlists[i] = p.toModel()
	}

	return playlists, nil
}

// PlaylistVideos retrieves one page of a playlist's member videos.
//
// Calls GET /api/playlists/{id}/videos on the proxy.
func (s *HTTPService) PlaylistVideos(ctx context.Context, playlistID, pageToken string, maxResults int) (*models.VideoPage, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s/videos?max=%d", url.PathEscape(playlistID), maxResults)
	if pageToken != "" {
		endpoint += "&page=" + url.QueryEscape(pageToken)
	}

	var page videoPagePayload
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return page.toModel(), nil
}

// PlaylistContainsVideo reports whether the given video belongs to the playlist.
//
// Calls GET /api/playlists/{id}/contains/{videoId} on the proxy.
func (s *HTTPService) PlaylistContainsVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s/contains/%s", url.PathEscape(playlistID), url.PathEscape(videoID))

	var result struct {
		Member bool `json:"member"`
	}
	if err := s.doRequest(ctx, endpoint, &result); err != nil {
		return false, err
	}

	return result.Member, nil
}

// PlaylistDetails returns the playlist's recorded member count.
//
// Calls GET /api/playlists/{id} on the proxy.
func (s *HTTPService) PlaylistDetails(ctx context.Context, playlistID string) (int, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))

	var result struct {
		VideoCount *int `json:"videoCount"`
	}
	if err := s.doRequest(ctx, endpoint, &result); err != nil {
		return models.VideoCountUnknown, err
	}

	if result.VideoCount == nil {
		return models.VideoCountUnknown, nil
	}

	return *result.VideoCount, nil
}

// playlistPayload is the proxy's wire form of a playlist.
type playlistPayload struct {
	PlaylistID   string `json:"playlistId"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	VideoCount   *int   `json:"videoCount"`
}

func (p playlistPayload) toModel() models.Playlist {
	count := models.VideoCountUnknown
	if p.VideoCount != nil {
		count = *p.VideoCount
	}
	return models.Playlist{
		ID:           p.PlaylistID,
		Title:        p.Title,
		ChannelTitle: p.ChannelTitle,
		VideoCount:   count,
	}
}

// videoPagePayload is the proxy's wire form of one page of videos.
type videoPagePayload struct {
	Videos []struct {
		VideoID      string `json:"videoId"`
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		ChannelID    string `json:"channelId"`
		Duration     string `json:"duration"`
		Published    string `json:"published"`
		Views        string `json:"views"`
	} `json:"videos"`
	NextPageToken string `json:"nextPageToken"`
	PrevPageToken string `json:"prevPageToken"`
}

func (p videoPagePayload) toModel() *models.VideoPage {
	page := &models.VideoPage{
		Videos:        make([]models.Video, len(p.Videos)),
		NextPageToken: p.NextPageToken,
		PrevPageToken: p.PrevPageToken,
	}
	for i, v := range p.Videos {
		page.Videos[i] = models.Video{
			ID:           v.VideoID,
			Title:        v.Title,
			ChannelTitle: v.ChannelTitle,
			ChannelID:    v.ChannelID,
			Duration:     v.Duration,
			Published:    v.Published,
			Views:        v.Views,
		}
	}
	return page
}
