package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

type (
	// CreateHeader is the leading clause of a CREATE TABLE statement, up to and
	// including ON CLUSTER. Everything after it is ignored.
	// ClickHouse syntax:
	//   CREATE [OR REPLACE] [TEMPORARY] TABLE [IF NOT EXISTS] [db.]table_name
	//   [UUID 'uuid'] [ON CLUSTER cluster] ...
	CreateHeader struct {
		Create      string  `parser:"'CREATE'"`
		OrReplace   bool    `parser:"@('OR' 'REPLACE')?"`
		Temporary   bool    `parser:"@'TEMPORARY'?"`
		Table       string  `parser:"'TABLE'"`
		IfNotExists bool    `parser:"@('IF' 'NOT' 'EXISTS')?"`
		Database    *string `parser:"(@(Ident | BacktickIdent | QuotedIdent) '.')?"`
		Name        string  `parser:"@(Ident | BacktickIdent | QuotedIdent)"`
		UUID        *string `parser:"('UUID' @String)?"`
		OnCluster   *string `parser:"('ON' 'CLUSTER' @(Ident | BacktickIdent | QuotedIdent | String))?"`
	}
)

var headerParser = participle.MustBuild[CreateHeader](
	participle.Lexer(sqlLexer),
	participle.Elide("Comment", "MultilineComment", "Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

// ParseHeader parses the CREATE TABLE header at the start of ddl. Quoting is
// removed from the returned database, table and cluster names.
//
// Example:
//
//	h, err := parser.ParseHeader("CREATE TABLE app.orders ON CLUSTER c1 (id Int64) ENGINE = Log")
//	if err != nil {
//		return err
//	}
//	fmt.Println(h.QualifiedName(), h.Cluster()) // app.orders c1
func ParseHeader(ddl string) (*CreateHeader, error) {
	h, err := headerParser.ParseString("", ddl, participle.AllowTrailing(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CREATE TABLE header")
	}

	h.Name = stripIdent(h.Name)
	if h.Database != nil {
		db := stripIdent(*h.Database)
		h.Database = &db
	}
	if h.OnCluster != nil {
		cluster := stripIdent(*h.OnCluster)
		h.OnCluster = &cluster
	}

	return h, nil
}

// QualifiedName returns "db.table", or just the table when no database is given.
func (h *CreateHeader) QualifiedName() string {
	if h.Database == nil || *h.Database == "" {
		return h.Name
	}
	return *h.Database + "." + h.Name
}

// Cluster returns the ON CLUSTER target, or "" when absent.
func (h *CreateHeader) Cluster() string {
	if h.OnCluster == nil {
		return ""
	}
	return *h.OnCluster
}

func stripIdent(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '`', '"', '\'':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
