package ddl_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func name(s string) schema.QualifiedName {
	return schema.MustParseQualifiedName(s)
}

func rewrite(t *testing.T, text, source, target, cluster string) *ddl.Result {
	t.Helper()

	res, err := ddl.Rewrite(ddl.NewDocument(text), name(source), name(target), cluster)
	require.NoError(t, err)
	return res
}

func TestRewriteGolden(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		target   string
		cluster  string
		warnings []string
	}{
		{
			name:     "distributed_no_cluster",
			source:   "app.orders",
			target:   "test.orders",
			warnings: []string{ddl.WarnDistributedCluster},
		},
		{
			name:    "distributed_new_cluster",
			source:  "app.orders",
			target:  "test.orders",
			cluster: "c2",
		},
		{
			name:    "distributed_self_reference",
			source:  "app.events",
			target:  "test.events_copy",
			cluster: "analytics",
		},
		{
			name:   "replicated_backticks",
			source: "app.orders_local",
			target: "test.orders_local",
		},
		{
			name:   "merge_tree",
			source: "app.users",
			target: "staging.users_v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := os.ReadFile(filepath.Join("testdata", tt.name+".in.sql"))
			require.NoError(t, err)

			res := rewrite(t, string(input), tt.source, tt.target, tt.cluster)
			golden.Assert(t, res.Document.String()+"\n", tt.name+".sql")

			var codes []string
			for _, w := range res.Warnings {
				codes = append(codes, w.Code)
			}
			require.Equal(t, tt.warnings, codes)
		})
	}
}

func TestRewriteEndToEnd(t *testing.T) {
	res := rewrite(t,
		"CREATE TABLE app.orders ON CLUSTER c1 (id Int64) ENGINE = Distributed('c1','app','orders_local', id)",
		"app.orders", "test.orders", "",
	)

	require.Equal(t,
		"CREATE TABLE test.orders (id Int64) ENGINE = Distributed('c1','app','orders_local', id)",
		res.Document.String(),
	)
	require.True(t, res.Has(ddl.WarnDistributedCluster))
	require.Contains(t, res.Warnings[0].Message, `"c1"`)
}

func TestRewriteClusterRemoval(t *testing.T) {
	for _, cluster := range []string{"old_cluster_name", "'{cluster}'", "`c-1`", `"c1"`} {
		t.Run(cluster, func(t *testing.T) {
			res := rewrite(t,
				"CREATE TABLE a.t ON CLUSTER "+cluster+" (x UInt8) ENGINE = Memory",
				"a.t", "b.t", "",
			)
			require.NotContains(t, res.Document.String(), "ON CLUSTER")
			require.Equal(t, "CREATE TABLE b.t (x UInt8) ENGINE = Memory", res.Document.String())
		})
	}
}

func TestRewriteClusterClauseOnlyInHeader(t *testing.T) {
	tests := []struct {
		name     string
		ddl      string
		cluster  string
		expected string
	}{
		{
			name:     "comment kept when removing",
			ddl:      "CREATE TABLE a.t (id Int64, s String COMMENT 'ON CLUSTER x') ENGINE = Log",
			expected: "CREATE TABLE b.t (id Int64, s String COMMENT 'ON CLUSTER x') ENGINE = Log",
		},
		{
			name:     "comment kept when substituting",
			ddl:      "CREATE TABLE a.t ON CLUSTER c1 (id Int64, s String COMMENT 'ON CLUSTER x') ENGINE = Log",
			cluster:  "c2",
			expected: "CREATE TABLE b.t ON CLUSTER c2 (id Int64, s String COMMENT 'ON CLUSTER x') ENGINE = Log",
		},
		{
			name:     "after UUID",
			ddl:      "CREATE TABLE a.t UUID '5c1f6a2e-0000-4000-8000-000000000001' ON CLUSTER c1 (id Int64) ENGINE = Log",
			expected: "CREATE TABLE b.t UUID '5c1f6a2e-0000-4000-8000-000000000001' (id Int64) ENGINE = Log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rewrite(t, tt.ddl, "a.t", "b.t", tt.cluster)
			require.Equal(t, tt.expected, res.Document.String())
		})
	}
}

func TestRewriteClusterSubstitution(t *testing.T) {
	res := rewrite(t,
		"CREATE TABLE db.tbl ON CLUSTER old_cluster (k UInt64) ENGINE = Distributed('old_cluster', 'db', 'tbl_local', shardExpr)",
		"db.tbl", "db2.tbl2", "new_cluster",
	)

	out := res.Document.String()
	require.Contains(t, out, "ON CLUSTER new_cluster (")
	require.Contains(t, out, "Distributed('new_cluster', 'db', 'tbl_local', shardExpr)")
	require.Empty(t, res.Warnings)
}

func TestRewriteUnquotedDistributedCluster(t *testing.T) {
	res := rewrite(t,
		"CREATE TABLE db.tbl (k UInt64) ENGINE = Distributed(old, db, tbl_local)",
		"db.tbl", "db.tbl", "new",
	)
	require.Contains(t, res.Document.String(), "Distributed('new', db, tbl_local)")
}

func TestRewriteHeaderRename(t *testing.T) {
	res := rewrite(t,
		"CREATE TABLE src_db.src_tbl (id UInt8) ENGINE = Log",
		"src_db.src_tbl", "tgt_db.tgt_tbl", "",
	)
	require.True(t, strings.HasPrefix(res.Document.String(), "CREATE TABLE tgt_db.tgt_tbl ("))
	require.False(t, res.Has(ddl.WarnHeaderNotFound))
}

func TestRewriteHeaderCaseInsensitive(t *testing.T) {
	res := rewrite(t, "create table SRC.Tbl (id UInt8) ENGINE = Log", "src.tbl", "tgt.tbl", "")
	require.Equal(t, "create table tgt.tbl (id UInt8) ENGINE = Log", res.Document.String())
}

func TestRewriteHeaderNotFound(t *testing.T) {
	res := rewrite(t,
		"CREATE TABLE app.orders_local ON CLUSTER c1 (id Int64) ENGINE = Log",
		"app.orders", "test.orders", "",
	)

	require.True(t, res.Has(ddl.WarnHeaderNotFound))
	// the other steps still ran
	require.Equal(t, "CREATE TABLE app.orders_local (id Int64) ENGINE = Log", res.Document.String())
}

func TestRewriteResidualExactToken(t *testing.T) {
	res := rewrite(t,
		"CREATE TABLE db.src_tbl (src_tbl_flag UInt8, note String DEFAULT 'src_tbl_x') "+
			"ENGINE = Distributed('c', 'db', 'src_tbl', rand())",
		"db.src_tbl", "db.tgt_tbl", "c",
	)

	out := res.Document.String()
	require.Contains(t, out, "'tgt_tbl'")
	require.NotContains(t, out, "'src_tbl'")
	require.Contains(t, out, "src_tbl_flag UInt8")
	require.Contains(t, out, "'src_tbl_x'")
}

func TestRewriteNonDistributedWithCluster(t *testing.T) {
	const input = "CREATE TABLE a.t (x UInt8) ENGINE = MergeTree ORDER BY x"
	res := rewrite(t, input, "a.t", "b.t", "c1")

	require.Equal(t, "CREATE TABLE b.t (x UInt8) ENGINE = MergeTree ORDER BY x", res.Document.String())
	require.Empty(t, res.Warnings)
}

func TestRewriteInvalidNames(t *testing.T) {
	doc := ddl.NewDocument("CREATE TABLE a.t (x UInt8) ENGINE = Log")

	_, err := ddl.Rewrite(doc, schema.QualifiedName{Table: "t"}, name("b.t"), "")
	require.Error(t, err)
	require.True(t, schema.IsFormat(err))

	_, err = ddl.Rewrite(doc, name("a.t"), schema.QualifiedName{}, "")
	require.True(t, schema.IsFormat(err))
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	const input = "CREATE TABLE a.t ON CLUSTER c (x UInt8) ENGINE = Log"
	doc := ddl.NewDocument(input)

	_, err := ddl.Rewrite(doc, name("a.t"), name("b.t"), "")
	require.NoError(t, err)
	require.Equal(t, input, doc.String())
}

func TestStepsInIsolation(t *testing.T) {
	p := ddl.Params{Source: name("a.t"), Target: name("b.u"), Cluster: "c2"}
	doc := ddl.NewDocument("CREATE TABLE a.t ON CLUSTER c1 (x UInt8) ENGINE = Distributed('c1', 'a', 't')")

	tests := []struct {
		step     ddl.Step
		expected string
	}{
		{ddl.RenameHeader, "CREATE TABLE b.u ON CLUSTER c1 (x UInt8) ENGINE = Distributed('c1', 'a', 't')"},
		{ddl.RewriteClusterClause, "CREATE TABLE a.t ON CLUSTER c2 (x UInt8) ENGINE = Distributed('c1', 'a', 't')"},
		{ddl.RewriteDistributedCluster, "CREATE TABLE a.t ON CLUSTER c1 (x UInt8) ENGINE = Distributed('c2', 'a', 't')"},
		{ddl.RenameResidual, "CREATE TABLE a.t ON CLUSTER c1 (x UInt8) ENGINE = Distributed('c1', 'a', 'u')"},
	}

	for _, tt := range tests {
		t.Run(tt.step.Name, func(t *testing.T) {
			res, err := ddl.RewriteWith([]ddl.Step{tt.step}, doc, p)
			require.NoError(t, err)
			require.Equal(t, tt.expected, res.Document.String())
		})
	}
}

func TestDocument(t *testing.T) {
	doc := ddl.NewDocument("\n CREATE TABLE a.t ON CLUSTER '{cluster}' (x UInt8) ENGINE = Distributed(\"c1\", 'a', 't_local') \n")

	require.Equal(t, "CREATE TABLE a.t ON CLUSTER '{cluster}' (x UInt8) ENGINE = Distributed(\"c1\", 'a', 't_local')", doc.String())
	require.True(t, doc.IsDistributed())
	require.Equal(t, "c1", doc.DistributedCluster())
	require.Equal(t, "{cluster}", doc.Cluster())
	require.False(t, doc.IsEmpty())

	plain := ddl.NewDocument("CREATE TABLE a.t (x UInt8) ENGINE = Log")
	require.False(t, plain.IsDistributed())
	require.Empty(t, plain.DistributedCluster())
	require.Empty(t, plain.Cluster())
	require.True(t, ddl.NewDocument("  ").IsEmpty())
}
