package utils

import "strings"

// SQLBuilder provides a fluent interface for the handful of statements the
// migrator issues on its own: DROP TABLE, INSERT ... SELECT, and catalog reads.
// Table names are written as given so the statement text matches what
// operators see in the logs.
//
// Example usage:
//
//	sql := NewSQLBuilder().
//		Drop("TABLE").
//		IfExists().
//		Table("test.orders").
//		OnCluster("c1").
//		String()
//	// Output: DROP TABLE IF EXISTS test.orders ON CLUSTER c1
type SQLBuilder struct {
	parts []string
}

// NewSQLBuilder creates a new SQLBuilder instance.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{
		parts: make([]string, 0, 10),
	}
}

// Drop adds a DROP clause with the specified object type.
//
// Example:
//
//	builder.Drop("TABLE")       // DROP TABLE
func (b *SQLBuilder) Drop(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "DROP", objectType)
	return b
}

// InsertInto adds an INSERT INTO clause for the given table.
func (b *SQLBuilder) InsertInto(table string) *SQLBuilder {
	b.parts = append(b.parts, "INSERT", "INTO", table)
	return b
}

// Select adds a SELECT clause with the given expressions joined by commas.
//
// Example:
//
//	builder.Select("*")                   // SELECT *
//	builder.Select("name", "type")        // SELECT name, type
func (b *SQLBuilder) Select(exprs ...string) *SQLBuilder {
	b.parts = append(b.parts, "SELECT", strings.Join(exprs, ", "))
	return b
}

// From adds a FROM clause. Pass an empty source and follow with Func to read
// from a table function.
func (b *SQLBuilder) From(source string) *SQLBuilder {
	b.parts = append(b.parts, "FROM")
	if source != "" {
		b.parts = append(b.parts, source)
	}
	return b
}

// Where adds a WHERE clause. Multiple conditions are joined with AND.
func (b *SQLBuilder) Where(conds ...string) *SQLBuilder {
	if len(conds) > 0 {
		b.parts = append(b.parts, "WHERE", strings.Join(conds, " AND "))
	}
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(expr string) *SQLBuilder {
	b.parts = append(b.parts, "ORDER", "BY", expr)
	return b
}

// IfExists adds an IF EXISTS clause. This should be called after DROP operations.
//
// Example:
//
//	builder.Drop("TABLE").IfExists()  // DROP TABLE IF EXISTS
func (b *SQLBuilder) IfExists() *SQLBuilder {
	b.parts = append(b.parts, "IF", "EXISTS")
	return b
}

// Table adds a table name exactly as given.
func (b *SQLBuilder) Table(name string) *SQLBuilder {
	if name != "" {
		b.parts = append(b.parts, name)
	}
	return b
}

// OnCluster adds an ON CLUSTER clause if cluster is not empty. The cluster is
// written as given so macros like {cluster} or quoted names pass through.
//
// Example:
//
//	builder.OnCluster("production")  // ON CLUSTER production
//	builder.OnCluster("")            // (nothing added)
func (b *SQLBuilder) OnCluster(cluster string) *SQLBuilder {
	if cluster != "" {
		b.parts = append(b.parts, "ON", "CLUSTER", cluster)
	}
	return b
}

// Func adds a function call whose arguments are rendered as string literals.
//
// Example:
//
//	builder.Func("remote", "h:9000", "db.t")  // remote('h:9000', 'db.t')
func (b *SQLBuilder) Func(name string, args ...string) *SQLBuilder {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteString(a)
	}
	b.parts = append(b.parts, name+"("+strings.Join(quoted, ", ")+")")
	return b
}

// String builds and returns the final SQL statement. No trailing semicolon is
// added since statements are sent one at a time.
func (b *SQLBuilder) String() string {
	return strings.Join(b.parts, " ")
}
