package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/auth"
	"github.com/desertthunder/crate/internal/shared"
)

// TokenHandler serves the token exchange proxy endpoints. It is the only
// handler permitted to trigger requests carrying the client secret.
type TokenHandler struct {
	provider TokenExchanger
	creds    shared.SpotifyConfig
	logger   *log.Logger
}

// NewTokenHandler creates a token proxy handler backed by the given provider client.
func NewTokenHandler(provider TokenExchanger, creds shared.SpotifyConfig, logger *log.Logger) *TokenHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &TokenHandler{
		provider: provider,
		creds:    creds,
		logger:   logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *TokenHandler) Routes() []string {
	return []string{auth.ExchangePath, auth.RefreshPath}
}

// Register registers both endpoints with POST-only method filtering.
func (h *TokenHandler) Register(router Router) {
	for _, route := range h.Routes() {
		router.Handle(http.MethodPost, route, h)
	}
}

// ServeHTTP dispatches to the exchange or refresh endpoint by path.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case auth.ExchangePath:
		h.exchange(w, r)
	case auth.RefreshPath:
		h.refresh(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// exchange handles POST /auth/token-exchange.
func (h *TokenHandler) exchange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" || body.State == "" {
		writeError(w, http.StatusBadRequest, "Missing code or state")
		return
	}

	if err := h.creds.ValidateServer(); err != nil {
		h.logger.Error("token exchange misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	payload, err := h.provider.Exchange(r.Context(), body.Code)
	if err != nil {
		h.fail(w, err, exchangeMessages)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// refresh handles POST /auth/token-refresh.
func (h *TokenHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Missing refresh token")
		return
	}

	if err := h.creds.ValidateServer(); err != nil {
		h.logger.Error("token refresh misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	payload, err := h.provider.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		h.fail(w, err, refreshMessages)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// endpointMessages holds the user-presentable translations for provider failures.
type endpointMessages struct {
	invalidGrant string
	fallback     string
}

var (
	exchangeMessages = endpointMessages{
		invalidGrant: "Authorization code has expired or is invalid",
		fallback:     "Authentication failed",
	}
	refreshMessages = endpointMessages{
		invalidGrant: "Refresh token has expired",
		fallback:     "Token refresh failed",
	}
)

// fail translates a provider failure into a proxy response. The raw error
// is logged; only the stable message goes to the client.
func (h *TokenHandler) fail(w http.ResponseWriter, err error, messages endpointMessages) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Code {
		case codeInvalidGrant:
			writeError(w, http.StatusBadRequest, messages.invalidGrant)
			return
		case codeInvalidClient:
			writeError(w, http.StatusBadRequest, "Invalid client credentials")
			return
		}
	}

	h.logger.Error("provider call failed", "error", err)
	writeError(w, http.StatusInternalServerError, messages.fallback)
}
