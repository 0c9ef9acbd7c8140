package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind classifies a node in the token tree.
type Kind int

const (
	KindOther Kind = iota
	KindStatement
	KindGroup
	KindFunction
	KindIdentifier
	KindIdentifierList
	KindKeyword
	KindComment
	KindWhitespace
)

var kindNames = [...]string{
	KindOther:          "Other",
	KindStatement:      "Statement",
	KindGroup:          "Group",
	KindFunction:       "Function",
	KindIdentifier:     "Identifier",
	KindIdentifierList: "IdentifierList",
	KindKeyword:        "Keyword",
	KindComment:        "Comment",
	KindWhitespace:     "Whitespace",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is one element of the tree. Start and End bound the half-open token
// range it covers; Children index back into Tree.Nodes.
//
// For identifiers Name holds the dotted name with quoting removed and Alias
// any trailing alias. For functions Name holds the function name.
type Node struct {
	Kind     Kind
	Start    int
	End      int
	Children []int
	Name     string
	Alias    string
}

// Tree is an arena of nodes over a flat token slice. Roots holds one
// statement node per ';'-separated statement.
type Tree struct {
	Tokens []lexer.Token
	Nodes  []Node
	Roots  []int
}

// Scan tokenizes sql and groups the tokens into a tree. It never fails:
// fragments it cannot classify become Other nodes.
//
// Example:
//
//	tree := parser.Scan("SELECT * FROM app.orders o")
//	for _, root := range tree.Roots {
//		for _, child := range tree.Nodes[root].Children {
//			fmt.Println(tree.Nodes[child].Kind, tree.Text(child))
//		}
//	}
func Scan(sql string) *Tree {
	b := &builder{tree: &Tree{Tokens: lex(sql)}}
	b.statements()
	return b.tree
}

// Node returns the node at index i.
func (t *Tree) Node(i int) Node {
	return t.Nodes[i]
}

// Text returns the source text covered by node i.
func (t *Tree) Text(i int) string {
	n := t.Nodes[i]

	var sb strings.Builder
	for _, tok := range t.Tokens[n.Start:n.End] {
		sb.WriteString(tok.Value)
	}
	return sb.String()
}

// IsTrivia reports whether node i is whitespace or a comment.
func (t *Tree) IsTrivia(i int) bool {
	k := t.Nodes[i].Kind
	return k == KindWhitespace || k == KindComment
}

// IsKeyword reports whether node i is a keyword matching one of words, ignoring case.
func (t *Tree) IsKeyword(i int, words ...string) bool {
	n := t.Nodes[i]
	if n.Kind != KindKeyword {
		return false
	}

	value := t.Tokens[n.Start].Value
	for _, w := range words {
		if strings.EqualFold(value, w) {
			return true
		}
	}
	return false
}

// NextSignificant returns the position in siblings of the first entry at or
// after from that is not whitespace or a comment, or -1 if there is none.
func (t *Tree) NextSignificant(siblings []int, from int) int {
	for i := from; i < len(siblings); i++ {
		if !t.IsTrivia(siblings[i]) {
			return i
		}
	}
	return -1
}

type builder struct {
	tree *Tree
	pos  int
}

func (b *builder) add(n Node) int {
	b.tree.Nodes = append(b.tree.Nodes, n)
	return len(b.tree.Nodes) - 1
}

func (b *builder) leaf(kind Kind) int {
	b.pos++
	return b.add(Node{Kind: kind, Start: b.pos - 1, End: b.pos})
}

func (b *builder) statements() {
	toks := b.tree.Tokens
	for b.pos < len(toks) {
		start := b.pos
		children := b.sequence(false)
		if b.pos < len(toks) {
			// the terminating ';'
			children = append(children, b.leaf(KindOther))
		}
		b.tree.Roots = append(b.tree.Roots, b.add(Node{
			Kind:     KindStatement,
			Start:    start,
			End:      b.pos,
			Children: children,
		}))
	}
}

// sequence collects sibling nodes until a closing paren (inside a group) or a
// ';' (at statement level). The terminator is left for the caller.
func (b *builder) sequence(inGroup bool) []int {
	toks := b.tree.Tokens

	var out []int
	for b.pos < len(toks) {
		tok := toks[b.pos]
		if inGroup && isPunct(tok, ")") {
			break
		}
		if !inGroup && isPunct(tok, ";") {
			break
		}
		out = append(out, b.element())
	}

	return b.lists(out)
}

func (b *builder) element() int {
	tok := b.tree.Tokens[b.pos]

	switch {
	case tok.Type == tokWhitespace:
		return b.leaf(KindWhitespace)
	case tok.Type == tokComment || tok.Type == tokMultilineComment:
		return b.leaf(KindComment)
	case isPunct(tok, "("):
		return b.group()
	case isKeywordToken(tok):
		return b.leaf(KindKeyword)
	case isWord(tok):
		return b.identifier()
	default:
		return b.leaf(KindOther)
	}
}

func (b *builder) group() int {
	start := b.pos
	children := []int{b.leaf(KindOther)}
	children = append(children, b.sequence(true)...)
	if b.pos < len(b.tree.Tokens) {
		children = append(children, b.leaf(KindOther))
	}

	return b.add(Node{Kind: KindGroup, Start: start, End: b.pos, Children: children})
}

// identifier consumes a dotted name and an optional alias. A single-segment
// name immediately followed by '(' becomes a function call instead.
func (b *builder) identifier() int {
	toks := b.tree.Tokens
	start := b.pos

	segments := []string{unquote(toks[b.pos])}
	b.pos++
	for b.pos+1 < len(toks) && isPunct(toks[b.pos], ".") && isWord(toks[b.pos+1]) {
		segments = append(segments, unquote(toks[b.pos+1]))
		b.pos += 2
	}
	name := strings.Join(segments, ".")

	if len(segments) == 1 && b.pos < len(toks) && isPunct(toks[b.pos], "(") {
		args := b.group()
		return b.add(Node{Kind: KindFunction, Start: start, End: b.pos, Children: []int{args}, Name: name})
	}

	n := Node{Kind: KindIdentifier, Start: start, Name: name}
	n.Alias = b.alias()
	n.End = b.pos
	return b.add(n)
}

// alias consumes "[AS] alias" following an identifier, if present.
func (b *builder) alias() string {
	toks := b.tree.Tokens

	next := b.skipTrivia(b.pos)
	if next >= len(toks) {
		return ""
	}

	if isKeywordToken(toks[next]) && strings.EqualFold(toks[next].Value, "AS") {
		target := b.skipTrivia(next + 1)
		if target < len(toks) && isWord(toks[target]) && !isKeywordToken(toks[target]) {
			b.pos = target + 1
			return unquote(toks[target])
		}
		return ""
	}

	if next > b.pos && isWord(toks[next]) && !isKeywordToken(toks[next]) {
		// "name alias" is only an alias when the alias is not itself followed
		// by '(' or '.', which would make it the start of another expression.
		after := next + 1
		if after < len(toks) && (isPunct(toks[after], "(") || isPunct(toks[after], ".")) {
			return ""
		}
		b.pos = next + 1
		return unquote(toks[next])
	}

	return ""
}

func (b *builder) skipTrivia(i int) int {
	toks := b.tree.Tokens
	for i < len(toks) && isTrivia(toks[i]) {
		i++
	}
	return i
}

// lists folds runs of "item , item , ..." into IdentifierList nodes, where an
// item is an identifier or function call.
func (b *builder) lists(ids []int) []int {
	t := b.tree

	listable := func(i int) bool {
		k := t.Nodes[i].Kind
		return k == KindIdentifier || k == KindFunction
	}
	comma := func(i int) bool {
		n := t.Nodes[i]
		return n.Kind == KindOther && isPunct(t.Tokens[n.Start], ",")
	}

	out := make([]int, 0, len(ids))
	for i := 0; i < len(ids); i++ {
		if !listable(ids[i]) {
			out = append(out, ids[i])
			continue
		}

		last := i
		for {
			c := t.NextSignificant(ids, last+1)
			if c < 0 || !comma(ids[c]) {
				break
			}
			d := t.NextSignificant(ids, c+1)
			if d < 0 || !listable(ids[d]) {
				break
			}
			last = d
		}

		if last == i {
			out = append(out, ids[i])
			continue
		}

		members := append([]int(nil), ids[i:last+1]...)
		out = append(out, b.add(Node{
			Kind:     KindIdentifierList,
			Start:    t.Nodes[ids[i]].Start,
			End:      t.Nodes[ids[last]].End,
			Children: members,
		}))
		i = last
	}

	return out
}
