package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/apidoc/internal/config"
	"git.home.luguber.info/inful/apidoc/internal/events"
	"git.home.luguber.info/inful/apidoc/internal/generate"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/runstore"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"apidoc.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text or json)" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Run one documentation generation pass"`
	Watch    WatchCmd    `cmd:"" help:"Watch intake sources and regenerate on change"`
	History  HistoryCmd  `cmd:"" help:"Inspect past generation runs"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig loads the configuration named by the global flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.Config)
}

// buildService assembles a generation service with the collaborators the
// configuration asks for. The returned cleanup closes them.
func buildService(cfg *config.Config, noHistory bool) (*generate.Service, func(), error) {
	svc := generate.NewService(cfg)
	var closers []func()

	if !noHistory && cfg.History.Path != "" {
		store, err := runstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		svc.WithStore(store)
		closers = append(closers, func() { _ = store.Close() })
	}

	if cfg.Events.URL != "" {
		publisher, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			// Event publishing is best effort; the run proceeds without it.
			slog.Warn("event publisher unavailable", logfields.Error(err))
		} else {
			svc.WithPublisher(publisher)
			closers = append(closers, publisher.Close)
		}
	}

	cleanup := func() {
		for _, close := range closers {
			close()
		}
	}
	return svc, cleanup, nil
}
