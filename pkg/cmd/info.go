package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/migrator"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type infoParams struct {
	fx.In

	Config *config.Config `optional:"true"`
	Logger *slog.Logger
}

// info creates the info command, which prints a table's engine, columns and
// row count. It reads the source server unless --target is set.
//
// Example usage:
//
//	chsync info app.orders
//	chsync info test.orders --target --json
func info(p infoParams) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show a table's engine, columns and row count",
		ArgsUsage: "<database.table>",
		Before:    loadConfig(&p.Config, true),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "target",
				Usage: "Inspect the target server instead of the source",
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runInfo(ctx, cmd, p)
		},
	}
}

func runInfo(ctx context.Context, cmd *cli.Command, p infoParams) error {
	name, err := tableArg(cmd)
	if err != nil {
		return err
	}

	side := p.Config.Source
	if cmd.Bool("target") {
		side = p.Config.Target
	}

	conn, err := dial(ctx, p.Config, side, p.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	in := ddl.NewIntrospector(conn, p.Logger, p.Config.Timeouts.Fetch)
	exists, err := in.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return &schema.NotFoundError{Name: name.String()}
	}

	v := migrator.NewValidator(in, p.Logger).Validate(ctx, name)

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, v)
	}

	renderInfo(w, serverVersion(ctx, conn, p.Logger), v)
	return nil
}

// serverVersion is empty for connections that cannot report one.
func serverVersion(ctx context.Context, conn Conn, log *slog.Logger) string {
	vc, ok := conn.(interface {
		GetVersion(context.Context) (*clickhouse.VersionInfo, error)
	})
	if !ok {
		return ""
	}

	v, err := vc.GetVersion(ctx)
	if err != nil {
		log.Debug("failed to read server version", "error", err)
		return ""
	}
	return v.String()
}

func renderInfo(w io.Writer, server string, v *migrator.Validation) {
	if server != "" {
		fmt.Fprintf(w, "Server:  ClickHouse %s\n", server)
	}
	fmt.Fprintf(w, "Table:   %s\n", v.Table)
	if v.Engine != nil {
		fmt.Fprintf(w, "Engine:  %s\n", v.Engine.EngineFull)
		for _, key := range []struct{ label, value string }{
			{"Partition key", v.Engine.PartitionKey},
			{"Sorting key", v.Engine.SortingKey},
			{"Primary key", v.Engine.PrimaryKey},
			{"Sampling key", v.Engine.SamplingKey},
		} {
			if key.value != "" {
				fmt.Fprintf(w, "%s: %s\n", key.label, key.value)
			}
		}
	}
	if v.RowCount != nil {
		fmt.Fprintf(w, "Rows:    %d\n", *v.RowCount)
	}

	if len(v.Columns) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Column", "Type"})
		for _, c := range v.Columns {
			t.AppendRow(table.Row{c.Position, c.Name, c.Type})
		}
		t.Render()
	}

	for _, e := range v.Errors {
		fmt.Fprintf(w, "warning: %s\n", e)
	}
}
