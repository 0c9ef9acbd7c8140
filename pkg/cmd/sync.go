package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/migrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type syncParams struct {
	fx.In

	Config *config.Config `optional:"true"`
	Logger *slog.Logger
}

// syncCmd creates the sync command, which runs every table job in the
// configuration. Templated names are expanded per market first. Jobs for the
// same target run in order; different targets run concurrently.
//
// Example usage:
//
//	chsync sync
//	chsync sync --concurrency 8 --json
func syncCmd(p syncParams) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Run every configured table job",
		Before: loadConfig(&p.Config, true),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Maximum number of targets to work on at once (defaults to the config value)",
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSync(ctx, cmd, p)
		},
	}
}

func runSync(ctx context.Context, cmd *cli.Command, p syncParams) error {
	jobs, err := migrator.ExpandJobs(p.Config.Tables, p.Config.Markets)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.New("no tables configured")
	}

	concurrency := p.Config.Concurrency
	if n := int(cmd.Int("concurrency")); n > 0 {
		concurrency = n
	}

	s, err := openSession(ctx, p.Config, p.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p.Logger.Info("Starting sync", "jobs", len(jobs), "concurrency", concurrency)
	results, err := migrator.RunBatch(ctx, s.syncer(p.Config, p.Logger), jobs, concurrency)

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		if perr := printJSON(w, results); perr != nil {
			return perr
		}
		return err
	}

	renderBatch(w, results)
	return err
}

func renderBatch(w io.Writer, results []*migrator.SyncResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Target", "State", "Copied", "Rows", "Duration", "Error"})

	for _, r := range results {
		state := "skipped"
		if r.Migration != nil {
			state = string(r.Migration.State)
		}

		rows := "-"
		if r.Validation != nil && r.Validation.RowCount != nil {
			rows = fmt.Sprint(*r.Validation.RowCount)
		}

		t.AppendRow(table.Row{r.Job.Source, r.Job.Target, state, r.Copied, rows, r.Duration, r.Error})
	}

	t.Render()
}
