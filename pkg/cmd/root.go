package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
		Level      *slog.LevelVar
		Logger     *slog.Logger
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run registers the chsync CLI application to run when the fx app starts.
// The process exits with status 1 when the command fails.
//
// Global Flags:
//   - --config, -c: the configuration file ($CHSYNC_CONFIG, default chsync.yaml)
//   - --verbose: log at debug level (statements too, when show_sql is set)
//
// Commands that talk to ClickHouse fail early when the configuration file is
// missing.
func Run(p Params) {
	app := newApp(p)

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			p.Logger.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
			return
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

func newApp(p Params) *cli.Command {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	return &cli.Command{
		Name:  "chsync",
		Usage: "Copy ClickHouse table structure (and data) between servers",
		Description: `chsync recreates tables from a source ClickHouse server on a target
server. The source CREATE TABLE statement is retargeted to the new name,
moved on or off a cluster (including Distributed engine arguments), and then
run on the target after dropping any existing table.

It can also list the tables a query references, expanding market
placeholders such as {market} into one table per market.`,
		Version: p.Version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the chsync config file",
				Sources: cli.EnvVars(consts.ConfigEnvVar),
				Value:   consts.DefaultConfigFile,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				p.Level.Set(slog.LevelDebug)
			}
			return ctx, nil
		},
		Commands: p.Commands,
	}
}

// configPath returns the --config value. Roots without the flag fall back to
// $CHSYNC_CONFIG or chsync.yaml.
func configPath(cmd *cli.Command) string {
	if path := cmd.Root().String("config"); path != "" {
		return path
	}
	return config.Path()
}

// loadConfig returns a Before hook that loads the file named by --config into
// *dst unless it is already set. When required, a missing file is an error.
func loadConfig(dst **config.Config, required bool) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if *dst != nil {
			return ctx, nil
		}

		path := configPath(cmd)
		cfg, err := config.LoadIfExists(path)
		if err != nil {
			return ctx, err
		}

		if cfg == nil && required {
			return ctx, errors.Errorf("%s not found", path)
		}

		*dst = cfg
		return ctx, nil
	}
}
