package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// Conn is a server connection as the commands use it. *clickhouse.Client
// satisfies it.
type Conn interface {
	migrator.ClickHouse
	Close() error
}

// dial connects to one configured server. Tests replace it with fakes.
var dial = func(ctx context.Context, cfg *config.Config, conn config.Connection, log *slog.Logger) (Conn, error) {
	opts := conn.ClientOptions()
	opts.ShowSQL = opts.ShowSQL || cfg.ShowSQL
	opts.ProbeTimeout = cfg.Timeouts.Probe
	opts.Logger = log

	client, err := clickhouse.NewClientWithOptions(ctx, conn.Addr(), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", conn.Addr())
	}

	return client, nil
}

// session holds open connections to both configured servers.
type session struct {
	source Conn
	target Conn
}

func openSession(ctx context.Context, cfg *config.Config, log *slog.Logger) (*session, error) {
	source, err := dial(ctx, cfg, cfg.Source, log.With("side", "source"))
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}

	target, err := dial(ctx, cfg, cfg.Target, log.With("side", "target"))
	if err != nil {
		_ = source.Close()
		return nil, errors.Wrap(err, "target")
	}

	return &session{source: source, target: target}, nil
}

func (s *session) Close() error {
	err := s.source.Close()
	if terr := s.target.Close(); terr != nil {
		return terr
	}
	return err
}

func (s *session) syncer(cfg *config.Config, log *slog.Logger) *migrator.Syncer {
	m := migrator.New(migrator.Config{
		Source: s.source,
		Target: s.target,
		Logger: log,
		Timeouts: migrator.Timeouts{
			Fetch:  cfg.Timeouts.Fetch,
			Drop:   cfg.Timeouts.Drop,
			Create: cfg.Timeouts.Create,
			Copy:   cfg.Timeouts.Copy,
		},
	})

	return migrator.NewSyncer(m, migrator.Remote{
		Address:  cfg.Remote.Address,
		User:     cfg.Remote.User,
		Password: cfg.Remote.Password,
	})
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the result as JSON",
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode output")
}
