// Package server implements the token exchange proxy and OAuth callback handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method
// filtering; requests with the wrong method receive a JSON 405 body.
//
// # Token Exchange Proxy
//
// [TokenHandler] serves the two proxy endpoints consumed by the auth client:
//
//	POST /auth/token-exchange  {code, state}      → {access_token, refresh_token, expires_in}
//	POST /auth/token-refresh   {refresh_token}    → {access_token, expires_in}
//
// The proxy is the only component that reads the client secret. It calls the
// identity provider's token endpoint with HTTP Basic client credentials
// through [ProviderClient] and translates provider error codes
// (invalid_grant, invalid_client) into stable user-presentable messages.
// The secret is read from configuration per request and is never logged or
// included in a response.
//
// # OAuth Callback Handler
//
// [CallbackHandler] captures the provider redirect during a CLI login: it
// records the code and state query parameters exactly once and hands them to
// the waiting flow through a channel. CSRF state validation and the actual
// code exchange happen in the auth client, not here.
package server
