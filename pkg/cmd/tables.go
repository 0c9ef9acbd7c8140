package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/extract"
	"github.com/pseudomuto/chsync/pkg/market"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type tablesParams struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// tables creates the tables command, which lists every database.table a
// query references.
//
// Templated names are expanded once per market, using --markets or the
// markets from the configuration file. The query comes from the first
// argument, --file, or stdin. A query that starts with a -- comment must come
// after a -- terminator, or it is read as a flag.
//
// Example usage:
//
//	chsync tables "SELECT * FROM app.orders o JOIN app.users u ON o.uid = u.id"
//	chsync tables --markets sg,id -- "-- monthly report
//	SELECT * FROM app.orders_{market}"
//	chsync tables --file report.sql --markets sg,id --json
//	cat report.sql | chsync tables
func tables(p tablesParams) *cli.Command {
	return &cli.Command{
		Name:      "tables",
		Usage:     "List the tables a query references",
		ArgsUsage: "[--] [sql]",
		Before:    loadConfig(&p.Config, false),
		Description: `The query is read from the sql argument, --file or stdin. Put flags
first and end them with -- when the query starts with a comment:

   chsync tables -m sg,id -- "-- report
   SELECT * FROM app.orders_{market}"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read the query from a file (- for stdin)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "markets",
				Aliases: []string{"m"},
				Usage:   "Comma-separated markets to expand {market} placeholders with",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runTables(cmd, p)
		},
	}
}

func runTables(cmd *cli.Command, p tablesParams) error {
	sql, err := readQuery(cmd)
	if err != nil {
		return err
	}

	markets := market.ParseList(cmd.String("markets"))
	if len(markets) == 0 && p.Config != nil {
		markets = p.Config.Markets
	}

	names := schema.Strings(extract.Tables(sql))
	if len(markets) > 0 {
		names = market.ExpandAll(names, markets)
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		if names == nil {
			names = []string{}
		}
		return printJSON(w, names)
	}

	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func readQuery(cmd *cli.Command) (string, error) {
	args := cmd.Args().Slice()
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	file := cmd.String("file")
	if file != "" && len(args) > 0 {
		return "", errors.New("pass the query as an argument or with --file, not both")
	}

	switch {
	case len(args) > 1:
		return "", errors.New("expected at most one query argument")
	case len(args) == 1:
		return args[0], nil
	case file != "" && file != "-":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read %s", file)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.Root().Reader)
	if err != nil {
		return "", errors.Wrap(err, "failed to read query from stdin")
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no query given")
	}
	return string(data), nil
}
