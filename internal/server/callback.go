package server

import (
	"fmt"
	"net/http"
	"sync"
)

// CallbackResult contains the query parameters captured from the provider redirect.
type CallbackResult struct {
	Code  string
	State string
	err   error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler captures the OAuth authorization redirect during a CLI login.
// Implements the Handler interface for registration with a Router.
//
// It records the code and state exactly once; CSRF validation and the code
// exchange happen in the auth client, which receives the result through
// [CallbackHandler.Result].
type CallbackHandler struct {
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a new callback capture handler.
func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Only the first callback is processed; replays receive 400.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Callback already processed")
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		err := fmt.Errorf("authorization failed: %s - %s", errParam, query.Get("error_description"))
		h.Send(CallbackResult{err: err})
		writeError(w, http.StatusBadRequest, "Authorization failed")
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization response missing code")
		h.Send(CallbackResult{err: err})
		writeError(w, http.StatusBadRequest, "Authorization failed")
		return
	}

	h.Send(CallbackResult{Code: code, State: query.Get("state")})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving the captured redirect.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
