package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/apidoc/internal/generate"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// GenerateCmd implements the 'generate' command: one full run.
type GenerateCmd struct {
	Output    string   `short:"o" help:"Output directory (overrides config)"`
	Formats   []string `short:"f" help:"Output formats (overrides config)"`
	All       bool     `name:"all" help:"Include non-public symbols"`
	NoHistory bool     `name:"no-history" help:"Skip recording this run in history"`
}

func (g *GenerateCmd) Run(_ *Global, cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if g.Output != "" {
		cfg.Output.Directory = g.Output
	}
	if len(g.Formats) > 0 {
		cfg.Render.Formats = g.Formats
	}
	if g.All {
		cfg.Render.IncludeNonPublic = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, cleanup, err := buildService(cfg, g.NoHistory)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.Run(context.Background())
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func printReport(report *generate.Report) {
	for format, paths := range report.Written {
		slog.Info("artifacts written", logfields.Format(format), "count", len(paths))
	}
	for _, d := range report.Diagnostics {
		fmt.Printf("diagnostic: %s\n", d)
	}
	for _, p := range report.Problems {
		fmt.Printf("broken link: %s\n", p)
	}
	fmt.Printf("run %s: %s (%d symbols, %d diagnostics)\n",
		report.RunID, report.Outcome, report.Symbols, len(report.Diagnostics))
}
