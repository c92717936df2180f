// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, flag overrides, logger construction and
// opening the API client and run journal.
package appctx

import (
	"fmt"
	"strconv"

	"github.com/lherron/clashsync/internal/config"
	"github.com/lherron/clashsync/internal/journal"
	"github.com/lherron/clashsync/internal/logging"
	"github.com/lherron/clashsync/internal/render"
	"github.com/lherron/clashsync/internal/tabbycat"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// App holds the shared application context for commands.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Renderer *render.Renderer

	// Client is nil unless NeedsRemote is set.
	Client *tabbycat.Client

	// Journal is nil unless NeedsJournal is set and a journal path is
	// configured.
	Journal *journal.Journal
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.Journal != nil {
		a.Journal.Close()
		a.Journal = nil
	}
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsRemote validates the connection settings and builds the client.
	NeedsRemote bool

	// NeedsJournal opens the run journal when one is configured.
	NeedsJournal bool

	// RequireJournal makes a missing journal path an error.
	RequireJournal bool

	// SkipMigrationCheck opens the journal even with pending migrations.
	SkipMigrationCheck bool
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// Resources are released when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := ApplyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if opts.NeedsRemote {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateSheet()
	}
	if err != nil {
		return nil, err
	}

	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	var porcelain bool
	if f := cmd.Flag("porcelain"); f != nil {
		porcelain = f.Value.String() == "true"
	}

	app := &App{
		Config:   cfg,
		Logger:   logging.New(cmd.ErrOrStderr(), logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}),
		Renderer: render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: format, Porcelain: porcelain}),
	}

	if opts.NeedsRemote {
		timeout, _ := cfg.RequestTimeout()
		client, err := tabbycat.New(tabbycat.Options{
			BaseURL:    cfg.BaseURL,
			Slug:       cfg.Slug,
			APIKey:     cfg.APIKey,
			AuthScheme: cfg.AuthScheme,
			Timeout:    timeout,
			Logger:     app.Logger,
		})
		if err != nil {
			return nil, err
		}
		app.Client = client
	}

	if opts.NeedsJournal || opts.RequireJournal {
		if cfg.JournalPath == "" {
			if opts.RequireJournal {
				return nil, fmt.Errorf("%w: journal path (set CLASHSYNC_JOURNAL or --journal)", config.ErrMissing)
			}
			return app, nil
		}

		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		if !opts.SkipMigrationCheck {
			if err := j.RequiresMigrationError(); err != nil {
				j.Close()
				return nil, err
			}
		}
		app.Journal = j
	}

	return app, nil
}

// ApplyFlags copies explicitly set command-line flags over cfg. Flags the
// command does not define are ignored.
func ApplyFlags(cmd *cobra.Command, cfg *config.Config) error {
	strs := map[string]*string{
		"base-url":    &cfg.BaseURL,
		"slug":        &cfg.Slug,
		"auth-scheme": &cfg.AuthScheme,
		"timeout":     &cfg.Timeout,
		"conflicts":   &cfg.Conflicts,
		"delimiter":   &cfg.Delimiter,
		"journal":     &cfg.JournalPath,
		"log-level":   &cfg.LogLevel,
		"log-format":  &cfg.LogFormat,
		"output":      &cfg.Output,
	}
	for name, dst := range strs {
		if f := cmd.Flag(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	ints := map[string]*int{
		"start-row": &cfg.StartRow,
		"jobs":      &cfg.Jobs,
		"retries":   &cfg.Retries,
	}
	for name, dst := range ints {
		if f := cmd.Flag(name); f != nil && f.Changed {
			n, err := strconv.Atoi(f.Value.String())
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"header": &cfg.Header,
		"full":   &cfg.Full,
	}
	for name, dst := range bools {
		if f := cmd.Flag(name); f != nil && f.Changed {
			v, err := strconv.ParseBool(f.Value.String())
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", name, err)
			}
			*dst = v
		}
	}

	return nil
}
