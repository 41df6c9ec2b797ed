package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apidoc/internal/runstore"
)

// HistoryCmd groups run history inspection subcommands.
type HistoryCmd struct {
	List HistoryListCmd `cmd:"" default:"1" help:"List recent runs"`
	Show HistoryShowCmd `cmd:"" help:"Show one run with its diagnostics"`
}

// HistoryListCmd prints recent runs in a table.
type HistoryListCmd struct {
	Limit int `short:"n" help:"Maximum runs to list" default:"20"`
}

func (h *HistoryListCmd) Run(_ *Global, cli *CLI) error {
	store, err := openStore(cli)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tOUTCOME\tREVISION\tSYMBOLS\tDIAGNOSTICS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Outcome, run.Revision,
			run.Symbols, run.Diagnostics)
	}
	return w.Flush()
}

// HistoryShowCmd prints one run with its diagnostics as YAML.
type HistoryShowCmd struct {
	ID string `arg:"" help:"Run id"`
}

func (h *HistoryShowCmd) Run(_ *Global, cli *CLI) error {
	store, err := openStore(cli)
	if err != nil {
		return err
	}
	defer store.Close()

	run, diags, err := store.GetRun(context.Background(), h.ID)
	if err != nil {
		return err
	}

	out := struct {
		Run         runstore.Run `yaml:"run"`
		Diagnostics any          `yaml:"diagnostics,omitempty"`
	}{Run: run}
	if len(diags) > 0 {
		out.Diagnostics = diags
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func openStore(cli *CLI) (runstore.Store, error) {
	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	return runstore.NewSQLiteStore(cfg.History.Path)
}
