package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type ddlParams struct {
	fx.In

	Config *config.Config `optional:"true"`
	Logger *slog.Logger
}

// ddlCmd creates the ddl command, a dry run of the structure half of a
// migration: the source CREATE TABLE is fetched and, when --target is given,
// rewritten for the target name and cluster. Nothing is written.
//
// Example usage:
//
//	chsync ddl app.orders
//	chsync ddl app.orders --target test.orders
//	chsync ddl app.orders_dist --target test.orders_dist --cluster staging
func ddlCmd(p ddlParams) *cli.Command {
	return &cli.Command{
		Name:      "ddl",
		Usage:     "Print a source table's CREATE statement, optionally rewritten",
		ArgsUsage: "<database.table>",
		Before:    loadConfig(&p.Config, true),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Rewrite the statement for this database.table",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "cluster",
				Usage: "Cluster the rewritten statement should run on (none when empty)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDDL(ctx, cmd, p)
		},
	}
}

func runDDL(ctx context.Context, cmd *cli.Command, p ddlParams) error {
	source, err := tableArg(cmd)
	if err != nil {
		return err
	}

	conn, err := dial(ctx, p.Config, p.Config.Source, p.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	doc, err := ddl.NewIntrospector(conn, p.Logger, p.Config.Timeouts.Fetch).FetchDDL(ctx, source)
	if err != nil {
		return err
	}

	res := &ddl.Result{Document: doc}
	if t := cmd.String("target"); t != "" {
		target, err := schema.ParseQualifiedName(t)
		if err != nil {
			return errors.Wrap(err, "invalid --target")
		}

		if res, err = ddl.Rewrite(doc, source, target, cmd.String("cluster")); err != nil {
			return err
		}
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, map[string]any{
			"ddl":      res.Document.String(),
			"warnings": res.Warnings,
		})
	}

	fmt.Fprintln(w, res.Document.String())
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "-- warning (%s): %s\n", warning.Code, warning.Message)
	}
	return nil
}

// tableArg parses the single database.table argument of a command.
func tableArg(cmd *cli.Command) (schema.QualifiedName, error) {
	if cmd.Args().Len() != 1 {
		return schema.QualifiedName{}, errors.New("exactly one database.table argument is required")
	}

	return schema.ParseQualifiedName(cmd.Args().First())
}
