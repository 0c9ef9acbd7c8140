package cmd

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/pseudomuto/chsync/pkg/testutil"
)

const testConfig = `
source:
  host: source
target:
  host: target
markets: [sg, id]
tables:
  - source: app.orders_{market}
    target: test.orders_{market}
`

var discard = slog.New(slog.DiscardHandler)

// server fakes a ClickHouse server holding tables created by ddl (keyed by
// name) with rows rows each.
func server(ddl map[string]string, rows uint64) *testutil.FakeConn {
	return &testutil.FakeConn{
		QueryFunc: func(_ context.Context, query string, args ...any) (driver.Rows, error) {
			switch {
			case strings.HasPrefix(query, "SHOW CREATE TABLE "):
				if text, ok := ddl[strings.TrimPrefix(query, "SHOW CREATE TABLE ")]; ok {
					return testutil.NewRows([]string{"statement"}, []any{text}), nil
				}
				return testutil.NewRows(nil), nil
			case strings.HasPrefix(query, "SELECT count() FROM system.tables"):
				n := uint64(0)
				if len(args) == 2 {
					if _, ok := ddl[args[0].(string)+"."+args[1].(string)]; ok {
						n = 1
					}
				}
				return testutil.NewRows([]string{"count()"}, []any{n}), nil
			case strings.HasPrefix(query, "SELECT count()"):
				return testutil.NewRows([]string{"count()"}, []any{rows}), nil
			case strings.Contains(query, "system.columns"):
				return testutil.NewRows([]string{"name", "type", "position"},
					[]any{"id", "Int64", uint64(1)},
					[]any{"amount", "Decimal(18, 2)", uint64(2)},
				), nil
			case strings.Contains(query, "system.tables"):
				return testutil.NewRows(
					[]string{"engine", "engine_full", "create_table_query", "partition_key", "sorting_key", "primary_key", "sampling_key"},
					[]any{"MergeTree", "MergeTree ORDER BY id", "CREATE TABLE ...", "", "id", "id", ""},
				), nil
			}
			return nil, errors.Errorf("unexpected query: %s", query)
		},
	}
}

// fakeDial routes connections to source or target by configured host for
// the duration of the test.
func fakeDial(t *testing.T, source, target *testutil.FakeConn) {
	t.Helper()

	orig := dial
	t.Cleanup(func() { dial = orig })

	dial = func(_ context.Context, _ *config.Config, conn config.Connection, _ *slog.Logger) (Conn, error) {
		if conn.Host == "target" {
			return target, nil
		}
		return source, nil
	}
}

func execs(conn *testutil.FakeConn) []string {
	var out []string
	for _, s := range conn.Statements() {
		if !strings.HasPrefix(s, "SELECT") && !strings.HasPrefix(s, "SHOW") {
			out = append(out, s)
		}
	}
	return out
}
