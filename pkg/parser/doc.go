// Package parser tokenizes ClickHouse SQL into a shallow, walkable tree.
//
// The lexer is built with github.com/alecthomas/participle/v2 and never fails:
// characters it does not recognize become Other tokens. Scan groups the tokens
// into an arena-indexed tree with these node kinds:
//
//   - Statement: one ';'-separated statement
//   - Group: a parenthesized run of nodes
//   - Function: a name immediately followed by a Group
//   - Identifier: a dotted name with an optional alias
//   - IdentifierList: comma-separated identifiers or functions
//   - Keyword, Comment, Whitespace, Other: single tokens
//
// Nodes refer to each other by index into Tree.Nodes rather than by pointer:
//
//	tree := parser.Scan("SELECT * FROM app.orders AS o")
//	stmt := tree.Nodes[tree.Roots[0]]
//	for _, i := range stmt.Children {
//		if tree.Nodes[i].Kind == parser.KindIdentifier {
//			fmt.Println(tree.Nodes[i].Name, tree.Nodes[i].Alias) // app.orders o
//		}
//	}
//
// ParseHeader uses a small participle grammar to read just the leading
// CREATE TABLE clause of a DDL statement. It is used to confirm that rewritten
// DDL names the table it is supposed to create.
package parser
