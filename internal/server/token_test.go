package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/crate/internal/auth"
	"github.com/desertthunder/crate/internal/shared"
)

var testCreds = shared.SpotifyConfig{
	ClientID:     "test_client_id",
	ClientSecret: "test_client_secret",
	RedirectURI:  "http://127.0.0.1:3000/callback",
}

// fakeExchanger is a test double for [TokenExchanger].
type fakeExchanger struct {
	exchangePayload *auth.TokenPayload
	refreshPayload  *auth.TokenPayload
	err             error
	exchangeCalls   int
	refreshCalls    int
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*auth.TokenPayload, error) {
	f.exchangeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.exchangePayload, nil
}

func (f *fakeExchanger) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPayload, error) {
	f.refreshCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.refreshPayload, nil
}

func newProxyServer(t *testing.T, provider TokenExchanger, creds shared.SpotifyConfig) *httptest.Server {
	t.Helper()

	router := NewBasicRouter()
	handler := NewTokenHandler(provider, creds, shared.NewLogger(io.Discard))
	handler.Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return resp, decoded
}

func TestTokenHandler(t *testing.T) {
	t.Run("Exchange", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			provider := &fakeExchanger{exchangePayload: &auth.TokenPayload{
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresIn:    3600,
			}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.ExchangePath, `{"code":"abc","state":"xyz"}`)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			if body["access_token"] != "access" || body["refresh_token"] != "refresh" {
				t.Errorf("unexpected body %v", body)
			}
			if body["expires_in"] != float64(3600) {
				t.Errorf("expected expires_in 3600, got %v", body["expires_in"])
			}
		})

		t.Run("Missing Fields", func(t *testing.T) {
			provider := &fakeExchanger{}
			srv := newProxyServer(t, provider, testCreds)

			tests := []string{`{}`, `{"code":"abc"}`, `{"state":"xyz"}`, `not json`}
			for _, body := range tests {
				resp, decoded := postJSON(t, srv.URL+auth.ExchangePath, body)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("body %q: expected 400, got %d", body, resp.StatusCode)
				}
				if decoded["error"] != "Missing code or state" {
					t.Errorf("body %q: unexpected error %v", body, decoded["error"])
				}
			}

			if provider.exchangeCalls != 0 {
				t.Errorf("provider should not be called on validation failure, got %d calls", provider.exchangeCalls)
			}
		})

		t.Run("Missing Server Configuration", func(t *testing.T) {
			srv := newProxyServer(t, &fakeExchanger{}, shared.SpotifyConfig{ClientID: "id"})

			resp, body := postJSON(t, srv.URL+auth.ExchangePath, `{"code":"abc","state":"xyz"}`)
			if resp.StatusCode != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", resp.StatusCode)
			}
			if body["error"] != "Server configuration error" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})

		t.Run("Invalid Grant", func(t *testing.T) {
			provider := &fakeExchanger{err: &ProviderError{Code: codeInvalidGrant, Err: errors.New("expired")}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.ExchangePath, `{"code":"stale","state":"xyz"}`)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			if body["error"] != "Authorization code has expired or is invalid" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})

		t.Run("Invalid Client", func(t *testing.T) {
			provider := &fakeExchanger{err: &ProviderError{Code: codeInvalidClient, Err: errors.New("bad creds")}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.ExchangePath, `{"code":"abc","state":"xyz"}`)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			if body["error"] != "Invalid client credentials" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})

		t.Run("Provider Failure", func(t *testing.T) {
			provider := &fakeExchanger{err: &ProviderError{Err: errors.New("connection reset")}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.ExchangePath, `{"code":"abc","state":"xyz"}`)
			if resp.StatusCode != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", resp.StatusCode)
			}
			if body["error"] != "Authentication failed" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})

		t.Run("Method Not Allowed", func(t *testing.T) {
			srv := newProxyServer(t, &fakeExchanger{}, testCreds)

			resp, err := http.Get(srv.URL + auth.ExchangePath)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", resp.StatusCode)
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("expected JSON 405 body: %v", err)
			}
			if body["error"] != "Method not allowed" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			provider := &fakeExchanger{refreshPayload: &auth.TokenPayload{
				AccessToken: "new_access",
				ExpiresIn:   3600,
			}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.RefreshPath, `{"refresh_token":"refresh"}`)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			if body["access_token"] != "new_access" {
				t.Errorf("unexpected body %v", body)
			}
			if _, present := body["refresh_token"]; present {
				t.Error("refresh token should be omitted when not rotated")
			}
		})

		t.Run("Missing Refresh Token", func(t *testing.T) {
			srv := newProxyServer(t, &fakeExchanger{}, testCreds)

			resp, body := postJSON(t, srv.URL+auth.RefreshPath, `{}`)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			if body["error"] != "Missing refresh token" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})

		t.Run("Invalid Grant", func(t *testing.T) {
			provider := &fakeExchanger{err: &ProviderError{Code: codeInvalidGrant, Err: errors.New("expired")}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.RefreshPath, `{"refresh_token":"stale"}`)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			if body["error"] != "Refresh token has expired" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})

		t.Run("Provider Failure", func(t *testing.T) {
			provider := &fakeExchanger{err: &ProviderError{Err: errors.New("boom")}}
			srv := newProxyServer(t, provider, testCreds)

			resp, body := postJSON(t, srv.URL+auth.RefreshPath, `{"refresh_token":"refresh"}`)
			if resp.StatusCode != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", resp.StatusCode)
			}
			if body["error"] != "Token refresh failed" {
				t.Errorf("unexpected error %v", body["error"])
			}
		})
	})
}

func TestProviderClient(t *testing.T) {
	t.Run("Exchange Sends Basic Credentials", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			want := "Basic " + base64.StdEncoding.EncodeToString([]byte("test_client_id:test_client_secret"))
			if authz != want {
				t.Errorf("expected %s, got %s", want, authz)
			}

			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "authorization_code" {
				t.Errorf("expected authorization_code grant, got %s", r.Form.Get("grant_type"))
			}
			if r.Form.Get("code") != "auth_code" {
				t.Errorf("expected code auth_code, got %s", r.Form.Get("code"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
		}))
		defer provider.Close()

		client := NewProviderClient(testCreds, provider.URL)

		payload, err := client.Exchange(context.Background(), "auth_code")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if payload.AccessToken != "access" || payload.RefreshToken != "refresh" {
			t.Errorf("unexpected payload %+v", payload)
		}
		if payload.ExpiresIn < 3590 || payload.ExpiresIn > 3600 {
			t.Errorf("expected expires_in near 3600, got %d", payload.ExpiresIn)
		}
	})

	t.Run("Exchange Surfaces Provider Error Code", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Authorization code expired"}`))
		}))
		defer provider.Close()

		client := NewProviderClient(testCreds, provider.URL)

		_, err := client.Exchange(context.Background(), "stale_code")
		var providerErr *ProviderError
		if !errors.As(err, &providerErr) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
		if providerErr.Code != codeInvalidGrant {
			t.Errorf("expected invalid_grant, got %s", providerErr.Code)
		}
	})

	t.Run("Refresh Uses Refresh Grant", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "refresh_token" {
				t.Errorf("expected refresh_token grant, got %s", r.Form.Get("grant_type"))
			}
			if r.Form.Get("refresh_token") != "old_refresh" {
				t.Errorf("expected refresh_token old_refresh, got %s", r.Form.Get("refresh_token"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"new_access","token_type":"Bearer","expires_in":3600}`))
		}))
		defer provider.Close()

		client := NewProviderClient(testCreds, provider.URL)

		payload, err := client.Refresh(context.Background(), "old_refresh")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if payload.AccessToken != "new_access" {
			t.Errorf("expected new_access, got %s", payload.AccessToken)
		}
		if payload.RefreshToken != "" {
			t.Errorf("expected no rotated refresh token, got %s", payload.RefreshToken)
		}
	})

	t.Run("Refresh Reports Rotated Token", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"new_access","refresh_token":"rotated","token_type":"Bearer","expires_in":3600}`))
		}))
		defer provider.Close()

		client := NewProviderClient(testCreds, provider.URL)

		payload, err := client.Refresh(context.Background(), "old_refresh")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if payload.RefreshToken != "rotated" {
			t.Errorf("expected rotated refresh token, got %s", payload.RefreshToken)
		}
	})
}
