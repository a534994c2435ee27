package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/crate/internal/shared"
)

// Proxy endpoints consumed by the client. The token exchange proxy
// (internal/server) serves these paths.
const (
	ExchangePath = "/auth/token-exchange"
	RefreshPath  = "/auth/token-refresh"
)

const stateLength = 32

// TokenPayload is the normalized token response returned by the proxy.
//
// RefreshToken is empty on refresh responses unless the provider rotates
// refresh tokens.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Client implements the browser-safe half of the authorization code grant.
// It never sees the client secret; token endpoint calls are delegated to
// the exchange proxy.
type Client struct {
	clientID    string
	redirectURI string
	scopes      []string
	authURL     string
	proxyURL    string
	store       *TokenStore
	httpClient  *http.Client
}

// ClientOpts contains the configuration for creating a [Client].
type ClientOpts struct {
	Credentials shared.SpotifyConfig
	AuthURL     string
	ProxyURL    string
	Store       *TokenStore
	HTTPClient  *http.Client
}

// NewClient creates an OAuth client for the configured provider.
func NewClient(opts ClientOpts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		clientID:    opts.Credentials.ClientID,
		redirectURI: opts.Credentials.RedirectURI,
		scopes:      opts.Credentials.Scopes,
		authURL:     opts.AuthURL,
		proxyURL:    strings.TrimSuffix(opts.ProxyURL, "/"),
		store:       opts.Store,
		httpClient:  opts.HTTPClient,
	}
}

// BuildAuthorizationURL constructs the provider authorization URL with a
// freshly generated CSRF state token.
//
// The state is persisted to the token store before the URL is returned,
// replacing any previously pending state.
func (c *Client) BuildAuthorizationURL() (string, error) {
	if c.clientID == "" {
		return "", fmt.Errorf("%w: client id is not set", shared.ErrMissingConfig)
	}
	if c.redirectURI == "" {
		return "", fmt.Errorf("%w: redirect URI is not set", shared.ErrMissingConfig)
	}

	state, err := shared.GenerateState(stateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	if err := c.store.SetState(state); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.clientID)
	params.Set("scope", strings.Join(c.scopes, " "))
	params.Set("redirect_uri", c.redirectURI)
	params.Set("state", state)

	return c.authURL + "?" + params.Encode(), nil
}

// ExchangeCode exchanges an authorization code for tokens via the proxy.
//
// The state echoed by the provider redirect must match the persisted CSRF
// state exactly; on mismatch no network call is made. The stored state is
// cleared once an exchange is attempted.
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*TokenPayload, error) {
	stored, ok := c.store.State()
	if !ok || stored != state {
		return nil, fmt.Errorf("%w: authorization response state does not match", shared.ErrStateMismatch)
	}

	payload, err := c.postToken(ctx, ExchangePath, map[string]string{
		"code":  code,
		"state": state,
	}, false)

	if clearErr := c.store.ClearState(); clearErr != nil && err == nil {
		return nil, clearErr
	}

	if err != nil {
		return nil, err
	}

	return payload, nil
}

// Refresh exchanges a refresh token for a new access token via the proxy.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPayload, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	return c.postToken(ctx, RefreshPath, map[string]string{
		"refresh_token": refreshToken,
	}, true)
}

// postToken posts a JSON body to a proxy endpoint and classifies failures.
func (c *Client) postToken(ctx context.Context, path string, body map[string]string, refresh bool) (*TokenPayload, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp, refresh)
	}

	var payload TokenPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode token response: %v", shared.ErrAuthFailed, err)
	}

	return &payload, nil
}

// classify maps a non-200 proxy response onto the shared error taxonomy,
// surfacing the server-supplied message when one is present.
func classify(resp *http.Response, refresh bool) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		if refresh {
			return wrap(shared.ErrRefreshFailed, body.Error)
		}
		return wrap(shared.ErrInvalidRequest, body.Error)
	case resp.StatusCode == http.StatusUnauthorized:
		return wrap(shared.ErrUnauthorizedClient, body.Error)
	case resp.StatusCode == http.StatusForbidden:
		return wrap(shared.ErrForbidden, body.Error)
	case resp.StatusCode >= http.StatusInternalServerError:
		return wrap(shared.ErrProviderFailure, body.Error)
	default:
		return wrap(shared.ErrAuthFailed, body.Error)
	}
}

func wrap(sentinel error, message string) error {
	if message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}
