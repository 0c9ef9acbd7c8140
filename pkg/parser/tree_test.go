package parser_test

import (
	"testing"

	. "github.com/pseudomuto/chsync/pkg/parser"
	"github.com/stretchr/testify/require"
)

// significant returns the non-trivia children of node i.
func significant(tree *Tree, i int) []Node {
	var out []Node
	for _, c := range tree.Nodes[i].Children {
		if !tree.IsTrivia(c) {
			out = append(out, tree.Nodes[c])
		}
	}
	return out
}

func kinds(nodes []Node) []Kind {
	out := make([]Kind, len(nodes))
	for i, n := range nodes {
		out[i] = n.Kind
	}
	return out
}

func TestScanStatements(t *testing.T) {
	tree := Scan("SELECT 1; SELECT 2;")
	require.Len(t, tree.Roots, 2)
	require.Equal(t, "SELECT 1;", tree.Text(tree.Roots[0]))
	require.Equal(t, " SELECT 2;", tree.Text(tree.Roots[1]))
}

func TestScanEmpty(t *testing.T) {
	tree := Scan("")
	require.Empty(t, tree.Roots)
	require.Empty(t, tree.Tokens)
}

func TestScanIdentifier(t *testing.T) {
	tree := Scan("SELECT * FROM `app`.\"orders\" AS o WHERE id = 1")
	nodes := significant(tree, tree.Roots[0])

	require.Equal(t, []Kind{
		KindKeyword, KindOther, KindKeyword, KindIdentifier, KindKeyword, KindIdentifier, KindOther, KindOther,
	}, kinds(nodes))

	require.Equal(t, "app.orders", nodes[3].Name)
	require.Equal(t, "o", nodes[3].Alias)
}

func TestScanImplicitAlias(t *testing.T) {
	tree := Scan("select x from db.t tt join db.u uu on tt.id = uu.id")
	nodes := significant(tree, tree.Roots[0])

	require.Equal(t, KindIdentifier, nodes[3].Kind)
	require.Equal(t, "db.t", nodes[3].Name)
	require.Equal(t, "tt", nodes[3].Alias)
	require.Equal(t, "db.u", nodes[5].Name)
	require.Equal(t, "uu", nodes[5].Alias)
}

func TestScanFunctionAndGroup(t *testing.T) {
	tree := Scan("SELECT count() FROM remote('h:9000', 'db.t') WHERE x IN (1, 2)")
	nodes := significant(tree, tree.Roots[0])

	require.Equal(t, KindFunction, nodes[1].Kind)
	require.Equal(t, "count", nodes[1].Name)
	require.Equal(t, KindFunction, nodes[3].Kind)
	require.Equal(t, "remote", nodes[3].Name)

	last := nodes[len(nodes)-1]
	require.Equal(t, KindGroup, last.Kind)
}

func TestScanIdentifierList(t *testing.T) {
	tree := Scan("SELECT a FROM db.one, db.two")
	nodes := significant(tree, tree.Roots[0])

	list := nodes[len(nodes)-1]
	require.Equal(t, KindIdentifierList, list.Kind)
	require.Equal(t, "db.one", tree.Nodes[list.Children[0]].Name)
}

func TestScanComments(t *testing.T) {
	tree := Scan("-- leading\nSELECT /* inline */ 1")
	all := tree.Nodes[tree.Roots[0]].Children

	require.Equal(t, KindComment, tree.Nodes[all[0]].Kind)
	require.Equal(t, KindWhitespace, tree.Nodes[all[1]].Kind)
	require.Equal(t, 2, tree.NextSignificant(all, 0))
	require.True(t, tree.IsKeyword(all[2], "select"))
}

func TestScanMalformed(t *testing.T) {
	// unterminated literal and unbalanced parens must not panic or drop text
	sql := "SELECT 'oops FROM (db.t WHERE ))) ¿"
	tree := Scan(sql)

	var text string
	for _, r := range tree.Roots {
		text += tree.Text(r)
	}
	require.Equal(t, sql, text)
}

func TestScanPlaceholders(t *testing.T) {
	tree := Scan("SELECT * FROM db.orders_{market}_all")
	nodes := significant(tree, tree.Roots[0])
	require.Equal(t, "db.orders_{market}_all", nodes[3].Name)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "IdentifierList", KindIdentifierList.String())
	require.Equal(t, "Unknown", Kind(99).String())
	require.True(t, IsKeyword("from"))
	require.False(t, IsKeyword("orders"))
}
