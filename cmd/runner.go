package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/auth"
	"github.com/desertthunder/crate/internal/repositories"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/session"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      *auth.TokenStore
	client     *auth.Client
	catalog    *services.CatalogService
	tracks     *repositories.TrackRepository
	controller *session.Controller
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the Runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database connection if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// open lazily wires the database-backed dependencies: token store,
// OAuth client, catalog service, track repository and session
// controller. Safe to call from every command action.
func (r *Runner) open() error {
	if r.controller != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.store = auth.NewTokenStore(repositories.NewCredentialsRepository(db))
	r.tracks = repositories.NewTrackRepository(db)
	r.catalog = services.NewCatalogService(r.config.Catalog.BaseURL, r.httpClient)
	r.client = auth.NewClient(auth.ClientOpts{
		Credentials: r.config.Credentials.Spotify,
		AuthURL:     r.config.Catalog.AuthURL,
		ProxyURL:    r.config.Catalog.ProxyURL,
		Store:       r.store,
		HTTPClient:  r.httpClient,
	})
	r.controller = session.NewController(session.ControllerOpts{
		Client:    r.client,
		Profiles:  r.catalog,
		Store:     r.store,
		Navigator: &browserNavigator{runner: r},
		Logger:    r.logger,
	})

	return nil
}

// accessToken settles the session from stored credentials and returns
// a usable access token, refreshing silently when the stored one has
// expired.
func (r *Runner) accessToken(ctx context.Context) (string, error) {
	if err := r.open(); err != nil {
		return "", err
	}

	r.controller.Initialize(ctx)

	state := r.controller.State()
	if !state.Authenticated {
		if state.Err != "" {
			return "", fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, state.Err)
		}
		return "", fmt.Errorf("%w: run 'crate auth login' first", shared.ErrNotAuthenticated)
	}

	return state.AccessToken, nil
}

// browserNavigator implements [session.Navigator] for the CLI by
// opening the system browser for the authorization redirect.
type browserNavigator struct {
	runner *Runner
}

func (n *browserNavigator) Redirect(url string) error {
	n.runner.writePlain("→ Opening browser for authorization...\n")
	if err := shared.OpenBrowser(url); err != nil {
		n.runner.logger.Warnf("failed to open browser automatically %v", err)
		n.runner.writePlainln("⚠ Could not open browser automatically.")
		n.runner.writePlain("Please open this URL in your browser:\n%s\n\n", url)
	}
	return nil
}

func (n *browserNavigator) ToLogin() {
	n.runner.writePlain("Run 'crate auth login' to sign in again.\n")
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, profileCommand, searchCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
