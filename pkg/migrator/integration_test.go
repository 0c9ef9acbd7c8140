package migrator_test

import (
	"fmt"
	"testing"

	"github.com/pseudomuto/chsync/pkg/clickhouse"
	. "github.com/pseudomuto/chsync/pkg/migrator"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestSyncAgainstClickHouse(t *testing.T) {
	ch := testutil.StartClickHouse(t)
	client := ch.Client(t, clickhouse.ClientOptions{})

	src := testutil.CreateDatabase(t, client)
	dst := testutil.CreateDatabase(t, client)

	ctx := t.Context()
	require.NoError(t, client.Exec(ctx, fmt.Sprintf(
		"CREATE TABLE %s.orders (id UInt64, amount Decimal(18, 2)) ENGINE = MergeTree ORDER BY id", src)))
	require.NoError(t, client.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s.orders SELECT number, number * 1.5 FROM numbers(100)", src)))

	// the target reads the source through remote() on its own native port
	s := NewSyncer(New(Config{Source: client, Target: client}), Remote{
		Address:  "localhost:9000",
		User:     ch.Username,
		Password: ch.Password,
	})

	source := schema.MustParseQualifiedName(src + ".orders")
	target := schema.MustParseQualifiedName(dst + ".orders_copy")

	res, err := s.Sync(ctx, Job{Request: Request{Source: source, Target: target}, CopyData: true})
	require.NoError(t, err)
	require.True(t, res.Migration.Succeeded())
	require.True(t, res.Copied)

	require.True(t, res.Validation.OK(), "validation errors: %v", res.Validation.Errors)
	require.Equal(t, uint64(100), *res.Validation.RowCount)
	require.Equal(t, []string{"id", "amount"}, schema.ColumnNames(res.Validation.Columns))
	require.Equal(t, "MergeTree", res.Validation.Engine.Engine)

	// running it again replaces the table
	res, err = s.Sync(ctx, Job{Request: Request{Source: source, Target: target}})
	require.NoError(t, err)
	require.Empty(t, res.Migration.DropError)
	require.Equal(t, uint64(0), *res.Validation.RowCount)
}

func TestMigrateMissingSourceAgainstClickHouse(t *testing.T) {
	ch := testutil.StartClickHouse(t)
	client := ch.Client(t, clickhouse.ClientOptions{})
	db := testutil.CreateDatabase(t, client)

	m := New(Config{Source: client, Target: client})
	_, err := m.Migrate(t.Context(), Request{
		Source: schema.MustParseQualifiedName(db + ".missing"),
		Target: schema.MustParseQualifiedName(db + ".copy"),
	})
	require.True(t, schema.IsNotFound(err), "got %v", err)
}
