package extract

import (
	"github.com/pseudomuto/chsync/pkg/parser"
	"github.com/pseudomuto/chsync/pkg/utils"
)

var triggerKeywords = []string{"FROM", "JOIN", "INTO", "UPDATE", "TABLE"}

// TokenExtractor walks the token tree from parser.Scan and takes the element
// following each FROM, JOIN, INTO, UPDATE or TABLE keyword.
type TokenExtractor struct{}

// Candidates implements Extractor.
func (TokenExtractor) Candidates(sql string) []string {
	tree := parser.Scan(sql)

	var out []string
	for _, root := range tree.Roots {
		out = walk(tree, root, out)
	}
	return out
}

func walk(tree *parser.Tree, node int, out []string) []string {
	children := tree.Nodes[node].Children

	for i, child := range children {
		if tree.IsTrivia(child) {
			continue
		}

		if tree.IsKeyword(child, triggerKeywords...) {
			next := tree.NextSignificant(children, i+1)
			if tree.IsKeyword(child, "TABLE") {
				next = skipIfExists(tree, children, next)
			}
			if next >= 0 {
				if name := identifierText(tree, children[next]); name != "" {
					out = append(out, name)
				}
			}
		}

		if len(tree.Nodes[child].Children) > 0 {
			out = walk(tree, child, out)
		}
	}

	return out
}

// skipIfExists moves past "IF [NOT] EXISTS" so CREATE TABLE IF NOT EXISTS
// yields the table rather than the IF keyword.
func skipIfExists(tree *parser.Tree, siblings []int, at int) int {
	if at < 0 || !tree.IsKeyword(siblings[at], "IF") {
		return at
	}

	for at >= 0 && tree.IsKeyword(siblings[at], "IF", "NOT", "EXISTS") {
		at = tree.NextSignificant(siblings, at+1)
	}
	return at
}

// identifierText interprets node as a table reference. Identifiers yield their
// dotted name, lists their first member, and anything else its literal text.
func identifierText(tree *parser.Tree, node int) string {
	n := tree.Nodes[node]

	switch n.Kind {
	case parser.KindIdentifier, parser.KindFunction:
		return n.Name
	case parser.KindIdentifierList:
		if len(n.Children) == 0 {
			return ""
		}
		return tree.Nodes[n.Children[0]].Name
	default:
		value := utils.StripQuotes(tree.Text(node))
		if isReserved(value) {
			return ""
		}
		return value
	}
}
