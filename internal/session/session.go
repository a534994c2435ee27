package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/auth"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	msgSessionExpired = "Session expired. Please log in again."
	msgAuthFailed     = "Authentication failed. Please try again."
)

// OAuthClient is the authorization flow consumed by the [Controller].
//
// Implemented by [auth.Client].
type OAuthClient interface {
	BuildAuthorizationURL() (string, error)
	ExchangeCode(ctx context.Context, code, state string) (*auth.TokenPayload, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPayload, error)
}

// Navigator performs the user-facing redirects of the login flow.
type Navigator interface {
	// Redirect sends the user to the provider's authorization URL.
	Redirect(url string) error
	// ToLogin returns the user to the login entry point after logout.
	ToLogin()
}

// State is a snapshot of the current session.
type State struct {
	Authenticated bool
	AccessToken   string
	User          *services.Profile
	Loading       bool
	Err           string
}

// Controller orchestrates the OAuth client, token store and profile
// fetcher into a single session state machine.
type Controller struct {
	client   OAuthClient
	profiles services.ProfileFetcher
	store    *auth.TokenStore
	nav      Navigator
	logger   *log.Logger

	mu      sync.RWMutex
	state   State
	refresh singleflight.Group
}

// ControllerOpts bundles the collaborators wired into a [Controller].
type ControllerOpts struct {
	Client    OAuthClient
	Profiles  services.ProfileFetcher
	Store     *auth.TokenStore
	Navigator Navigator
	Logger    *log.Logger
}

// NewController creates a [Controller] in the loading state. Call
// [Controller.Initialize] to settle it from stored credentials.
func NewController(opts ControllerOpts) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Controller{
		client:   opts.Client,
		profiles: opts.Profiles,
		store:    opts.Store,
		nav:      opts.Navigator,
		logger:   logger,
		state:    State{Loading: true},
	}
}

// State returns a snapshot of the current session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Initialize rebuilds session state from the token store.
//
// A missing access token settles the session unauthenticated. A valid
// token is confirmed by fetching the current user's profile. An expired
// token triggers a silent refresh before the profile fetch; if the
// refresh fails the stored credentials are cleared.
func (c *Controller) Initialize(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	token, ok := c.store.AccessToken()
	if !ok {
		c.reset("")
		return
	}

	if c.store.Expired() {
		if !c.Refresh(ctx) {
			return
		}
		token, _ = c.store.AccessToken()
	}

	c.adopt(ctx, token)
}

// Login builds the authorization URL, records the CSRF state and
// redirects the user to the provider.
//
// Configuration errors are returned to the caller; they indicate a
// deployment defect rather than a user-recoverable condition.
func (c *Controller) Login() error {
	authURL, err := c.client.BuildAuthorizationURL()
	if err != nil {
		return err
	}
	return c.nav.Redirect(authURL)
}

// HandleCallback completes the authorization flow with the code and
// state captured from the provider redirect. It persists the exchanged
// tokens, fetches the user's profile and reports whether the session is
// now authenticated. It never returns an error; failures surface
// through [State.Err].
func (c *Controller) HandleCallback(ctx context.Context, code, state string) bool {
	c.setLoading(true)
	defer c.setLoading(false)

	payload, err := c.client.ExchangeCode(ctx, code, state)
	if err != nil {
		c.logger.Error("code exchange failed", "error", err)
		c.clearSession(msgAuthFailed)
		return false
	}

	if err := c.store.Save(payload.AccessToken, payload.RefreshToken, payload.ExpiresIn); err != nil {
		c.logger.Error("failed to persist tokens", "error", err)
		c.clearSession(msgAuthFailed)
		return false
	}

	return c.adopt(ctx, payload.AccessToken)
}

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share a single in-flight refresh. Returns false
// and clears the session when no refresh token is stored or the
// provider rejects it.
func (c *Controller) Refresh(ctx context.Context) bool {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err == nil
}

func (c *Controller) doRefresh(ctx context.Context) error {
	refreshToken, ok := c.store.RefreshToken()
	if !ok || refreshToken == "" {
		c.clearSession("")
		return shared.ErrNoRefreshToken
	}

	payload, err := c.client.Refresh(ctx, refreshToken)
	if err != nil {
		c.logger.Error("token refresh failed", "error", err)
		c.clearSession(msgSessionExpired)
		return err
	}

	// Providers may omit the refresh token when it is not rotated.
	if payload.RefreshToken == "" {
		payload.RefreshToken = refreshToken
	}

	if err := c.store.Save(payload.AccessToken, payload.RefreshToken, payload.ExpiresIn); err != nil {
		c.logger.Error("failed to persist refreshed tokens", "error", err)
		c.clearSession(msgSessionExpired)
		return err
	}

	c.mu.Lock()
	c.state.AccessToken = payload.AccessToken
	c.mu.Unlock()

	return nil
}

// Logout clears the token store, resets the in-memory session and then
// returns the user to the login entry point. The in-memory reset
// completes before navigation so no consumer observes stale
// credentials.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear stored tokens", "error", err)
	}
	c.reset("")
	c.nav.ToLogin()
}

// ClearError resets the session error without touching tokens or
// authentication state.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.state.Err = ""
	c.mu.Unlock()
}

// adopt confirms token by fetching the current user's profile and
// settles the session authenticated. A rejected fetch means the token
// is not trustworthy, so the stored credentials are cleared.
func (c *Controller) adopt(ctx context.Context, token string) bool {
	profile, err := c.profiles.Profile(ctx, token)
	if err != nil {
		c.logger.Error("profile fetch failed", "error", err)
		c.clearSession(msgAuthFailed)
		return false
	}

	c.mu.Lock()
	c.state.Authenticated = true
	c.state.AccessToken = token
	c.state.User = profile
	c.state.Err = ""
	c.mu.Unlock()

	return true
}

// clearSession drops stored credentials and resets in-memory state.
func (c *Controller) clearSession(msg string) {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear stored tokens", "error", err)
	}
	c.reset(msg)
}

func (c *Controller) reset(msg string) {
	c.mu.Lock()
	loading := c.state.Loading
	c.state = State{Loading: loading, Err: msg}
	c.mu.Unlock()
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	c.state.Loading = loading
	c.mu.Unlock()
}
