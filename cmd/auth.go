package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/crate/internal/server"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the login flow waits for the provider redirect.
const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization flow.
//
// Starts a local HTTP server to capture the provider redirect, opens the
// browser for user authorization, and completes the code exchange through
// the token exchange proxy.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	callback := server.NewCallbackHandler()
	router := server.NewBasicRouter()
	router.Handler(callback)

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	if err := r.controller.Login(); err != nil {
		httpServer.Close()
		return fmt.Errorf("failed to start authorization: %w", err)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callback.Result():
		// Got result from redirect
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		httpServer.Close()
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	if !r.controller.HandleCallback(ctx, result.Code, result.State) {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, r.controller.State().Err)
	}

	state := r.controller.State()
	r.writePlainln("✓ Authorization successful")
	if state.User != nil {
		r.writePlain("Signed in as %s\n\n", state.User.DisplayName)
	}
	r.writePlain("You can now use: crate library sync\n")

	return nil
}

// AuthStatus reports the current session state from stored credentials.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	r.controller.Initialize(ctx)
	state := r.controller.State()

	if state.Authenticated {
		r.writePlain("Authentication: ✓ Authenticated\n")
		if state.User != nil {
			r.writePlain("User: %s (%s)\n", state.User.DisplayName, state.User.ID)
		}
		if expiresAt, ok := r.store.ExpiresAt(); ok {
			r.writePlain("Token expires: %s\n", time.UnixMilli(expiresAt).Format(time.RFC3339))
		}
		return nil
	}

	r.writePlain("Authentication: ✗ Not authenticated\n")
	if state.Err != "" {
		r.writePlain("Reason: %s\n", state.Err)
	}
	return nil
}

// AuthRefresh forces a refresh of the stored access token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	if !r.controller.Refresh(ctx) {
		state := r.controller.State()
		if state.Err != "" {
			return fmt.Errorf("%w: %s", shared.ErrRefreshFailed, state.Err)
		}
		return shared.ErrRefreshFailed
	}

	r.writePlain("✓ Access token refreshed\n")
	return nil
}

// AuthLogout clears stored credentials and resets the session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	r.controller.Logout()
	r.writePlain("✓ Logged out\n")
	return nil
}
