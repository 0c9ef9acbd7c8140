package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/migrator"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type migrateParams struct {
	fx.In

	Config *config.Config `optional:"true"`
	Logger *slog.Logger
}

// migrate creates the migrate command, which recreates one source table on
// the target server.
//
// The target table is dropped (a failed drop is reported but not fatal) and
// created from the rewritten source DDL. With --copy, rows are then copied
// through the remote() table function using the remote section of the
// configuration.
//
// Example usage:
//
//	chsync migrate app.orders
//	chsync migrate app.orders --target test.orders --copy
//	chsync migrate app.orders_dist --target test.orders_dist --drop-cluster staging --create-cluster staging
func migrate(p migrateParams) *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Recreate a source table on the target server",
		ArgsUsage: "<database.table>",
		Before:    loadConfig(&p.Config, true),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Target database.table (defaults to the source name)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "drop-cluster",
				Usage: "Cluster to run DROP TABLE on",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "create-cluster",
				Usage: "Cluster to run CREATE TABLE on (none when empty)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "Copy rows from the source after creating the table",
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMigrate(ctx, cmd, p)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command, p migrateParams) error {
	source, err := tableArg(cmd)
	if err != nil {
		return err
	}

	target := source
	if t := cmd.String("target"); t != "" {
		if target, err = schema.ParseQualifiedName(t); err != nil {
			return errors.Wrap(err, "invalid --target")
		}
	}

	s, err := openSession(ctx, p.Config, p.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	job := migrator.Job{
		Request: migrator.Request{
			Source:        source,
			Target:        target,
			DropCluster:   cmd.String("drop-cluster"),
			CreateCluster: cmd.String("create-cluster"),
		},
		CopyData: cmd.Bool("copy"),
	}

	res, err := s.syncer(p.Config, p.Logger).Sync(ctx, job)

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		if perr := printJSON(w, res); perr != nil {
			return perr
		}
		return err
	}

	renderSyncResult(w, res)
	return err
}

func renderSyncResult(w io.Writer, res *migrator.SyncResult) {
	fmt.Fprintf(w, "%s -> %s\n", res.Job.Source, res.Job.Target)

	if m := res.Migration; m != nil {
		fmt.Fprintf(w, "  state:    %s (run %s)\n", m.State, m.RunID)
		if m.DDL != "" {
			fmt.Fprintf(w, "  ddl:      %s\n", m.DDL)
		}
		for _, warning := range m.Warnings {
			fmt.Fprintf(w, "  warning:  %s: %s\n", warning.Code, warning.Message)
		}
		if m.DropError != "" {
			fmt.Fprintf(w, "  drop:     %s\n", m.DropError)
		}
	}

	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  warning:  %s\n", warning)
	}
	if res.Copied {
		fmt.Fprintln(w, "  data:     copied")
	}

	if v := res.Validation; v != nil {
		if v.RowCount != nil {
			fmt.Fprintf(w, "  rows:     %d\n", *v.RowCount)
		}
		fmt.Fprintf(w, "  columns:  %d\n", len(v.Columns))
		for _, e := range v.Errors {
			fmt.Fprintf(w, "  check:    %s\n", e)
		}
	}

	if res.Error != "" {
		fmt.Fprintf(w, "  error:    %s\n", res.Error)
	}
	fmt.Fprintf(w, "  duration: %s\n", res.Duration)
}
