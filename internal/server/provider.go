package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/crate/internal/auth"
	"github.com/desertthunder/crate/internal/shared"
	"golang.org/x/oauth2"
)

// OAuth error codes from RFC 6749 §5.2 the proxy translates specially.
const (
	codeInvalidGrant  = "invalid_grant"
	codeInvalidClient = "invalid_client"
)

// TokenExchanger performs the token endpoint calls against the identity provider.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.TokenPayload, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPayload, error)
}

// ProviderError carries the OAuth error code reported by the identity
// provider, or an empty code for transport failures.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("provider call failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ProviderClient calls the provider token endpoint with HTTP Basic client
// credentials. Implements [TokenExchanger].
type ProviderClient struct {
	config *oauth2.Config
}

// NewProviderClient creates a provider client from the registered
// application credentials and the provider's token endpoint URL.
func NewProviderClient(creds shared.SpotifyConfig, tokenURL string) *ProviderClient {
	return &ProviderClient{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL: tokenURL,
				// Basic auth: base64(client_id:client_secret)
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

// Exchange redeems an authorization code for tokens.
func (p *ProviderClient) Exchange(ctx context.Context, code string) (*auth.TokenPayload, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, wrapProviderError(err)
	}
	return payloadFromToken(token), nil
}

// Refresh mints a new access token from a refresh token.
//
// The returned payload carries a refresh token only when the provider
// rotated it.
func (p *ProviderClient) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPayload, error) {
	source := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return nil, wrapProviderError(err)
	}

	payload := payloadFromToken(token)
	if token.RefreshToken == refreshToken {
		// Not rotated; don't echo the caller's own token back.
		payload.RefreshToken = ""
	}

	return payload, nil
}

// wrapProviderError converts an oauth2 failure into a [ProviderError],
// preserving the provider's error code when one was returned.
func wrapProviderError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &ProviderError{Code: retrieveErr.ErrorCode, Err: err}
	}
	return &ProviderError{Err: err}
}

// payloadFromToken normalizes an [oauth2.Token] into the proxy's response shape.
func payloadFromToken(token *oauth2.Token) *auth.TokenPayload {
	expiresIn := token.ExpiresIn
	if expiresIn == 0 && !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Seconds())
	}

	return &auth.TokenPayload{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}
