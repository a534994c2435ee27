// Package services contains HTTP clients for the music catalog provider.
//
// [CatalogService] wraps the provider Web API with Bearer-token requests,
// client-side request pacing via [rate.Limiter], and mapping of auth
// failures (401/403) onto [shared.ErrNotAuthenticated] so the session
// controller can treat them as an invalid-session signal.
//
// The [ProfileFetcher] interface is the only piece the session controller
// depends on; the rest (search, saved tracks, save) backs the CLI and TUI
// catalog commands.
package services
