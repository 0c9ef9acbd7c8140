package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type shutdowner struct {
	opts []fx.ShutdownOption
}

func (s *shutdowner) Shutdown(opts ...fx.ShutdownOption) error {
	s.opts = opts
	return nil
}

func testParams(t *testing.T, args ...string) (Params, *fxtest.Lifecycle, *shutdowner) {
	lc := fxtest.NewLifecycle(t)
	sd := new(shutdowner)

	return Params{
		Args:       append([]string{"chsync"}, args...),
		Commands:   []*cli.Command{tables(tablesParams{})},
		Ctx:        context.Background(),
		Lifecycle:  lc,
		Shutdowner: sd,
		Version:    &Version{Version: "1.2.3", Commit: "abc123", Timestamp: "2026-01-02"},
		Level:      new(slog.LevelVar),
		Logger:     discard,
	}, lc, sd
}

func TestNewApp(t *testing.T) {
	t.Run("verbose", func(t *testing.T) {
		p, _, _ := testParams(t)
		app := newApp(p)

		var out bytes.Buffer
		app.Writer = &out

		require.NoError(t, app.Run(context.Background(), []string{"chsync", "--verbose", "tables", "SELECT * FROM db.t"}))
		require.Equal(t, slog.LevelDebug, p.Level.Level())
		require.Equal(t, "db.t\n", out.String())
	})

	t.Run("quiet by default", func(t *testing.T) {
		p, _, _ := testParams(t)
		app := newApp(p)
		app.Writer = new(bytes.Buffer)

		require.NoError(t, app.Run(context.Background(), []string{"chsync", "tables", "SELECT 1"}))
		require.Equal(t, slog.LevelInfo, p.Level.Level())
	})

	t.Run("config flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prod.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testConfig), consts.ModeFile))

		for _, args := range [][]string{
			{"chsync", "--config", path, "tables", "--", "SELECT * FROM app.orders_{market}"},
			{"chsync", "-c", path, "tables", "--", "SELECT * FROM app.orders_{market}"},
		} {
			p, _, _ := testParams(t)
			app := newApp(p)

			var out bytes.Buffer
			app.Writer = &out

			require.NoError(t, app.Run(context.Background(), args))
			require.Equal(t, "app.orders_sg\napp.orders_id\n", out.String())
		}
	})

	t.Run("config from env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testConfig), consts.ModeFile))
		t.Setenv("CHSYNC_CONFIG", path)

		p, _, _ := testParams(t)
		app := newApp(p)

		var out bytes.Buffer
		app.Writer = &out

		require.NoError(t, app.Run(context.Background(), []string{"chsync", "tables", "--", "SELECT * FROM app.orders_{market}"}))
		require.Equal(t, "app.orders_sg\napp.orders_id\n", out.String())
	})

	t.Run("missing config", func(t *testing.T) {
		p, _, _ := testParams(t)
		p.Commands = []*cli.Command{migrate(migrateParams{Logger: discard})}
		app := newApp(p)
		app.Writer = new(bytes.Buffer)

		path := filepath.Join(t.TempDir(), "nope.yaml")
		err := app.Run(context.Background(), []string{"chsync", "--config", path, "migrate", "app.orders"})
		require.ErrorContains(t, err, path+" not found")
	})

	t.Run("version", func(t *testing.T) {
		p, _, _ := testParams(t)
		app := newApp(p)

		var out bytes.Buffer
		app.Writer = &out

		require.NoError(t, app.Run(context.Background(), []string{"chsync", "--version"}))
		require.Contains(t, out.String(), "Version: 1.2.3\n")
		require.Contains(t, out.String(), "Commit: abc123\n")
		require.Contains(t, out.String(), "Date: 2026-01-02\n")
	})
}

func TestRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p, lc, sd := testParams(t, "tables", "SELECT 1")
		Run(p)

		lc.RequireStart()
		lc.RequireStop()
		require.Len(t, sd.opts, 1)
		require.Equal(t, fx.ExitCode(0), sd.opts[0])
	})

	t.Run("failure", func(t *testing.T) {
		p, lc, sd := testParams(t, "tables", "--file", "/does/not/exist.sql")
		Run(p)

		lc.RequireStart()
		lc.RequireStop()
		require.Len(t, sd.opts, 1)
		require.Equal(t, fx.ExitCode(1), sd.opts[0])
	})
}
