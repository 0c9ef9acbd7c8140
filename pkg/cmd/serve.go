package cmd

import (
	"context"
	"log/slog"

	"github.com/pseudomuto/chsync/pkg/api"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type serveParams struct {
	fx.In

	Config *config.Config `optional:"true"`
	Logger *slog.Logger
}

// serve creates the serve command, which runs the HTTP API until interrupted.
// Without a configuration file only the endpoints that work on SQL text are
// usable; the others answer 503.
//
// Example usage:
//
//	chsync serve
//	chsync serve --addr 127.0.0.1:9090
func serve(p serveParams) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the HTTP API",
		Before: loadConfig(&p.Config, false),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Address to listen on",
				Value: ":8080",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx, cmd, p)
		},
	}
}

func runServe(ctx context.Context, cmd *cli.Command, p serveParams) error {
	cfg := api.Config{
		Addr:   cmd.String("addr"),
		Logger: p.Logger,
	}

	if p.Config != nil {
		s, err := openSession(ctx, p.Config, p.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		cfg.Syncer = s.syncer(p.Config, p.Logger)
		cfg.Markets = p.Config.Markets
	} else {
		p.Logger.Warn("no configuration found; migration endpoints are disabled", "path", configPath(cmd))
	}

	return api.New(cfg).Run(ctx)
}
