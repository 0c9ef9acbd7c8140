package ddl_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestFetchDDL(t *testing.T) {
	conn := &testutil.FakeConn{
		QueryFunc: func(_ context.Context, query string, _ ...any) (driver.Rows, error) {
			return testutil.NewRows([]string{"statement"}, []any{"CREATE TABLE app.orders (id Int64) ENGINE = Log\n"}), nil
		},
	}

	doc, err := ddl.NewIntrospector(conn, nil, 0).FetchDDL(context.Background(), name("app.orders"))
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE app.orders (id Int64) ENGINE = Log", doc.String())
	require.Equal(t, []string{"SHOW CREATE TABLE app.orders"}, conn.Statements())
}

func TestFetchDDLInvalidName(t *testing.T) {
	conn := &testutil.FakeConn{}

	_, err := ddl.NewIntrospector(conn, nil, 0).FetchDDL(context.Background(), schema.QualifiedName{Table: "orders"})
	require.True(t, schema.IsNotFound(err))
	require.True(t, schema.IsFormat(err))
	require.Empty(t, conn.Statements())
}

func TestFetchDDLNotFound(t *testing.T) {
	tests := []struct {
		name string
		rows driver.Rows
		err  error
	}{
		{name: "no rows", rows: testutil.NewRows([]string{"statement"})},
		{name: "empty text", rows: testutil.NewRows([]string{"statement"}, []any{"  \n"})},
		{name: "unknown table", err: &schema.RemoteError{Code: 60, Message: "Table app.orders does not exist"}},
		{name: "unknown database", err: &schema.RemoteError{Code: 81, Message: "Database app does not exist"}},
		{name: "no create query", err: &schema.RemoteError{Code: 390, Message: "Table `orders` doesn't exist"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &testutil.FakeConn{
				QueryFunc: func(context.Context, string, ...any) (driver.Rows, error) {
					if tt.err != nil {
						return nil, errors.WithStack(tt.err)
					}
					return tt.rows, nil
				},
			}

			_, err := ddl.NewIntrospector(conn, nil, 0).FetchDDL(context.Background(), name("app.orders"))
			require.True(t, schema.IsNotFound(err), "got %v", err)
		})
	}
}

func TestFetchDDLRemoteError(t *testing.T) {
	conn := &testutil.FakeConn{
		QueryFunc: func(context.Context, string, ...any) (driver.Rows, error) {
			return nil, errors.WithStack(&schema.RemoteError{Code: 497, Message: "Not enough privileges"})
		},
	}

	_, err := ddl.NewIntrospector(conn, nil, 0).FetchDDL(context.Background(), name("app.orders"))
	require.False(t, schema.IsNotFound(err))

	re, ok := schema.AsRemote(err)
	require.True(t, ok)
	require.Equal(t, int32(497), re.Code)
}

func TestFetchDDLAppliesTimeout(t *testing.T) {
	var deadline time.Time
	conn := &testutil.FakeConn{
		QueryFunc: func(ctx context.Context, _ string, _ ...any) (driver.Rows, error) {
			deadline, _ = ctx.Deadline()
			return testutil.NewRows([]string{"statement"}, []any{"CREATE TABLE a.t (x UInt8) ENGINE = Log"}), nil
		},
	}

	start := time.Now()
	_, err := ddl.NewIntrospector(conn, nil, 2*time.Second).FetchDDL(context.Background(), name("a.t"))
	require.NoError(t, err)
	require.WithinDuration(t, start.Add(2*time.Second), deadline, time.Second)
}

func TestEngine(t *testing.T) {
	var gotArgs []any
	conn := &testutil.FakeConn{
		QueryFunc: func(_ context.Context, _ string, args ...any) (driver.Rows, error) {
			gotArgs = args
			return testutil.NewRows(
				[]string{"engine", "engine_full", "create_table_query", "partition_key", "sorting_key", "primary_key", "sampling_key"},
				[]any{"MergeTree", "MergeTree ORDER BY id", "CREATE TABLE app.users ...", "", "id", "id", ""},
			), nil
		},
	}

	e, err := ddl.NewIntrospector(conn, nil, 0).Engine(context.Background(), name("app.users"))
	require.NoError(t, err)
	require.Equal(t, "MergeTree", e.Engine)
	require.Equal(t, "id", e.SortingKey)
	require.False(t, e.IsDistributed())
	require.Equal(t, []any{"app", "users"}, gotArgs)

	stmt := conn.Statements()[0]
	require.True(t, strings.HasPrefix(stmt, "SELECT engine, engine_full, create_table_query"))
	require.Contains(t, stmt, "FROM system.tables WHERE database = ? AND name = ?")
}

func TestEngineMissing(t *testing.T) {
	_, err := ddl.NewIntrospector(&testutil.FakeConn{}, nil, 0).Engine(context.Background(), name("app.users"))
	require.True(t, schema.IsNotFound(err))
}

func TestColumns(t *testing.T) {
	conn := &testutil.FakeConn{
		QueryFunc: func(context.Context, string, ...any) (driver.Rows, error) {
			return testutil.NewRows([]string{"name", "type", "position"},
				[]any{"id", "UInt64", uint64(1)},
				[]any{"name", "String", uint64(2)},
			), nil
		},
	}

	cols, err := ddl.NewIntrospector(conn, nil, 0).Columns(context.Background(), name("app.users"))
	require.NoError(t, err)
	require.Equal(t, []schema.Column{
		{Name: "id", Type: "UInt64", Position: 1},
		{Name: "name", Type: "String", Position: 2},
	}, cols)
	require.Contains(t, conn.Statements()[0], "ORDER BY position")
}

func TestExistsAndCount(t *testing.T) {
	conn := &testutil.FakeConn{
		QueryFunc: func(_ context.Context, query string, _ ...any) (driver.Rows, error) {
			if strings.Contains(query, "system.tables") {
				return testutil.NewRows([]string{"count()"}, []any{uint64(1)}), nil
			}
			return testutil.NewRows([]string{"count()"}, []any{uint64(42)}), nil
		},
	}
	in := ddl.NewIntrospector(conn, nil, 0)

	ok, err := in.Exists(context.Background(), name("app.users"))
	require.NoError(t, err)
	require.True(t, ok)

	n, err := in.Count(context.Background(), name("app.users"))
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
	require.Equal(t, "SELECT count() FROM app.users", conn.Statements()[1])
}
