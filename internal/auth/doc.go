// Package auth implements the client half of the OAuth2 authorization code flow.
//
// # Token Store
//
// [TokenStore] persists the access token, refresh token, absolute expiry
// instant, and the transient CSRF state under fixed keys in a [KV] store.
// It is deliberately dumb: no validation and no network access, so the
// policy for when to store, refresh, or clear lives entirely in the
// session controller.
//
// Expiry is recorded as an absolute epoch-millisecond instant computed
// from the provider-reported expires_in at save time. A stored access
// token with no readable expiry is reported as expired.
//
// # OAuth Client
//
// [Client] owns protocol construction and parsing: it builds the
// authorization URL (generating and persisting the CSRF state token),
// exchanges authorization codes, and refreshes access tokens. Token
// endpoint calls go through the token exchange proxy rather than the
// provider directly, so the client secret never has to be configured
// here.
//
// A state parameter returned by the provider redirect must match the
// persisted state exactly before any exchange request is sent; the
// stored state is single use.
//
// Failures are classified into the sentinel errors of internal/shared
// ([shared.ErrStateMismatch], [shared.ErrInvalidRequest],
// [shared.ErrUnauthorizedClient], [shared.ErrForbidden],
// [shared.ErrProviderFailure], [shared.ErrNetwork],
// [shared.ErrRefreshFailed], [shared.ErrAuthFailed]) so callers can
// match with errors.Is without inspecting HTTP details.
package auth
