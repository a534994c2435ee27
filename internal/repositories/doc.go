// Package repositories provides SQLite persistence for credentials and the
// saved-track cache.
//
// [CredentialsRepository] implements the auth.KV port: a plain key-value
// table holding the four credential scalars the token store owns. It has
// no knowledge of what the values mean.
//
// [TrackRepository] caches library tracks fetched from the catalog so the
// saved-track listing works offline.
package repositories
