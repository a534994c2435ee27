package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/crate/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Serve runs the token exchange proxy.
//
// The proxy is the only process holding the provider client secret:
// it accepts code-exchange and refresh requests from the client and
// performs the credentialed calls against the provider's token
// endpoint.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if err := creds.ValidateServer(); err != nil {
		return fmt.Errorf("proxy cannot start: %w", err)
	}

	provider := server.NewProviderClient(creds, r.config.Catalog.TokenURL)

	router := server.NewBasicRouter()
	router.Use(
		server.RequestID(),
		server.Logging(r.logger),
		server.RateLimit(rate.Limit(cmd.Int("rate")), cmd.Int("burst")),
	)

	handler := server.NewTokenHandler(provider, creds, r.logger)
	handler.Register(router)

	httpServer := &http.Server{
		Addr:              r.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("token exchange proxy listening at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		r.logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	return nil
}
