package parser_test

import (
	"testing"

	. "github.com/pseudomuto/chsync/pkg/parser"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		ddl     string
		table   string
		cluster string
	}{
		{
			name:  "plain",
			ddl:   "CREATE TABLE app.orders (id Int64) ENGINE = MergeTree ORDER BY id",
			table: "app.orders",
		},
		{
			name:    "cluster",
			ddl:     "CREATE TABLE app.orders ON CLUSTER c1 (id Int64) ENGINE = Log",
			table:   "app.orders",
			cluster: "c1",
		},
		{
			name:    "quoted cluster and backticks",
			ddl:     "create table if not exists `app`.`orders` on cluster '{cluster}' (id Int64) ENGINE = Log",
			table:   "app.orders",
			cluster: "{cluster}",
		},
		{
			name:  "unqualified",
			ddl:   "CREATE TABLE orders (id Int64) ENGINE = Log",
			table: "orders",
		},
		{
			name:  "leading comment",
			ddl:   "-- copied\nCREATE OR REPLACE TABLE test.orders UUID 'abc' (id Int64) ENGINE = Log",
			table: "test.orders",
		},
		{
			name:  "trailing statements",
			ddl:   "CREATE TABLE app.orders (id Int64) ENGINE = Log; INSERT INTO app.orders VALUES (1)",
			table: "app.orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(tt.ddl)
			require.NoError(t, err)
			require.Equal(t, tt.table, h.QualifiedName())
			require.Equal(t, tt.cluster, h.Cluster())
		})
	}
}

func TestParseHeaderRejectsOtherStatements(t *testing.T) {
	_, err := ParseHeader("CREATE VIEW app.v AS SELECT 1")
	require.Error(t, err)

	_, err = ParseHeader("")
	require.Error(t, err)
}
