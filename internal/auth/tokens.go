package auth

import (
	"fmt"
	"strconv"
	"time"
)

// Fixed keys for the credential record. All four are independently
// overwritable scalars, so no schema versioning is tracked.
const (
	keyAccessToken  = "spotify_access_token"
	keyRefreshToken = "spotify_refresh_token"
	keyTokenExpiry  = "spotify_token_expiry"
	keyAuthState    = "spotify_auth_state"
)

// KV is the narrow persistence port the token store writes through.
// Implementations must survive process restarts (see repositories.CredentialsRepository).
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// TokenStore persists OAuth credentials under fixed [KV] keys.
//
// Read errors are treated as absent values so a corrupt or unreachable
// store degrades to "unauthenticated" rather than trusting stale state.
type TokenStore struct {
	kv  KV
	now func() time.Time
}

// NewTokenStore creates a TokenStore backed by the given key-value store.
func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv, now: time.Now}
}

// Save persists the access token, refresh token, and the absolute expiry
// instant computed from expiresIn seconds.
func (s *TokenStore) Save(accessToken, refreshToken string, expiresIn int64) error {
	expiresAt := s.now().UnixMilli() + expiresIn*1000

	if err := s.kv.Set(keyAccessToken, accessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := s.kv.Set(keyRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if err := s.kv.Set(keyTokenExpiry, strconv.FormatInt(expiresAt, 10)); err != nil {
		return fmt.Errorf("failed to store token expiry: %w", err)
	}

	return nil
}

// AccessToken returns the stored access token, or false when absent.
func (s *TokenStore) AccessToken() (string, bool) {
	return s.get(keyAccessToken)
}

// RefreshToken returns the stored refresh token, or false when absent.
func (s *TokenStore) RefreshToken() (string, bool) {
	return s.get(keyRefreshToken)
}

// ExpiresAt returns the stored expiry instant in epoch milliseconds, or false
// when absent or unparsable.
func (s *TokenStore) ExpiresAt() (int64, bool) {
	raw, ok := s.get(keyTokenExpiry)
	if !ok {
		return 0, false
	}

	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return expiresAt, true
}

// Expired reports whether the stored access token should be treated as
// expired. A missing or unreadable expiry counts as expired.
func (s *TokenStore) Expired() bool {
	expiresAt, ok := s.ExpiresAt()
	if !ok {
		return true
	}
	return s.now().UnixMilli() > expiresAt
}

// SetState persists the CSRF state token, replacing any previous one.
func (s *TokenStore) SetState(state string) error {
	if err := s.kv.Set(keyAuthState, state); err != nil {
		return fmt.Errorf("failed to store auth state: %w", err)
	}
	return nil
}

// State returns the pending CSRF state token, or false when absent.
func (s *TokenStore) State() (string, bool) {
	return s.get(keyAuthState)
}

// ClearState removes the CSRF state token. States are single use.
func (s *TokenStore) ClearState() error {
	if err := s.kv.Delete(keyAuthState); err != nil {
		return fmt.Errorf("failed to clear auth state: %w", err)
	}
	return nil
}

// Clear removes all four credential keys. Idempotent.
func (s *TokenStore) Clear() error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyTokenExpiry, keyAuthState} {
		if err := s.kv.Delete(key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

func (s *TokenStore) get(key string) (string, bool) {
	value, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return "", false
	}
	return value, true
}
