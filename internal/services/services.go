package services

import (
	"context"
)

// Profile represents the authenticated user's catalog profile.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
	Followers   int    `json:"followers"`
}

// Track represents a music track from the catalog.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"` // Duration in seconds
	ISRC     string `json:"isrc"`     // International Standard Recording Code
}

// SavedTrack is a track in the user's library with the instant it was saved.
type SavedTrack struct {
	Track   Track  `json:"track"`
	AddedAt string `json:"added_at"`
}

// ProfileFetcher fetches the current user's profile with an access token.
//
// Implementations must return an error matching [shared.ErrNotAuthenticated]
// when the provider rejects the token (401/403), since the session
// controller treats that as an invalid-session signal.
type ProfileFetcher interface {
	Profile(ctx context.Context, accessToken string) (*Profile, error)
}
