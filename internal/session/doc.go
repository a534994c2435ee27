// package session owns the in-memory authentication state of the
// application and the lifecycle transitions between unauthenticated and
// authenticated sessions.
//
// The [Controller] is constructed once per process and wired with four
// collaborators: an OAuth client for the authorization flow, a profile
// fetcher for resolving the current user, a token store for persisted
// credentials, and a navigator for user-facing redirects. On startup it
// rebuilds session state from the token store, silently refreshing an
// expired access token when a refresh token is available. Concurrent
// refresh attempts are coalesced into a single in-flight call so two
// callers never race to rewrite stored credentials.
//
// Failures that imply the session is no longer trustworthy (an expired
// refresh token, a rejected profile fetch) clear the token store and
// reset the session, surfacing a single user-facing error message.
package session
