// Catalog API client for the music provider.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/crate/internal/shared"
	"golang.org/x/time/rate"
)

// defaultRate paces catalog calls well under the provider's documented limits.
const (
	defaultRate  = rate.Limit(10) // requests per second
	defaultBurst = 5
)

type followers struct {
	Total int `json:"total"`
}

// apiUser is the provider's wire shape for the current-user endpoint.
type apiUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type apiArtist struct {
	Name string `json:"name"`
}

type apiAlbum struct {
	Name string `json:"name"`
}

// apiTrack is the provider's wire shape for track objects.
type apiTrack struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Artists     []apiArtist `json:"artists"`
	Album       apiAlbum    `json:"album"`
	DurationMS  int         `json:"duration_ms"`
	ExternalIDs externalIDs `json:"external_ids"`
}

func (t apiTrack) toTrack() Track {
	track := Track{
		ID:       t.ID,
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: t.DurationMS / 1000,
		ISRC:     t.ExternalIDs.ISRC,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// CatalogService makes authenticated requests to the provider Web API.
// Implements [ProfileFetcher].
type CatalogService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewCatalogService creates a catalog client for the given API base URL.
func NewCatalogService(baseURL string, client *http.Client) *CatalogService {
	if baseURL == "" {
		baseURL = "https://api.spotify.com/v1"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &CatalogService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(defaultRate, defaultBurst),
	}
}

// doRequest performs an authenticated request against the catalog API and decodes the JSON response into result.
func (s *CatalogService) doRequest(ctx context.Context, method, endpoint, token string, result any) error {
	if token == "" {
		return fmt.Errorf("%w: no access token", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: catalog rejected token with status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Profile retrieves the current authenticated user's profile.
func (s *CatalogService) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var user apiUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", accessToken, &user); err != nil {
		return nil, err
	}

	return &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
	}, nil
}

// Search searches the catalog for tracks matching the query.
func (s *CatalogService) Search(ctx context.Context, accessToken, query string, limit int) ([]Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks struct {
			Items []apiTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, accessToken, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, item.toTrack())
	}

	return tracks, nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *CatalogService) SavedTracks(ctx context.Context, accessToken string, limit, offset int) ([]SavedTrack, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response struct {
		Items []struct {
			AddedAt string   `json:"added_at"`
			Track   apiTrack `json:"track"`
		} `json:"items"`
		Total int `json:"total"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, accessToken, &response); err != nil {
		return nil, 0, err
	}

	saved := make([]SavedTrack, 0, len(response.Items))
	for _, item := range response.Items {
		saved = append(saved, SavedTrack{Track: item.Track.toTrack(), AddedAt: item.AddedAt})
	}

	return saved, response.Total, nil
}

// SaveTrack adds a track to the user's library.
func (s *CatalogService) SaveTrack(ctx context.Context, accessToken, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: empty track id", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/me/tracks?ids=%s", url.QueryEscape(trackID))
	return s.doRequest(ctx, http.MethodPut, endpoint, accessToken, nil)
}
