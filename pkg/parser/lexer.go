package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// identPattern matches bare identifiers, including market placeholders such
// as table_{market} or ${region}_daily so templated SQL lexes as one word.
const identPattern = `(?:[a-zA-Z_]|\$?\{[a-zA-Z_]+\})(?:[a-zA-Z0-9_]|\$?\{[a-zA-Z_]+\})*`

var (
	// sqlLexer tokenizes analytical SQL. The trailing Other rule matches any
	// single character so lexing never fails on malformed input.
	sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `--[^\r\n]*`},
		{Name: "MultilineComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
		{Name: "String", Pattern: `'([^'\\]|\\.)*'`},
		{Name: "QuotedIdent", Pattern: `"([^"\\]|\\.)*"`},
		{Name: "BacktickIdent", Pattern: "`([^`\\\\]|\\\\.)*`"},
		{Name: "Number", Pattern: `\d+(\.\d*)?([eE][+-]?\d+)?`},
		{Name: "Ident", Pattern: identPattern},
		{Name: "NotEq", Pattern: `!=|<>`},
		{Name: "LtEq", Pattern: `<=`},
		{Name: "GtEq", Pattern: `>=`},
		{Name: "Punct", Pattern: `[(),.;=+\-*/%<>\[\]!:?{}]`},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Other", Pattern: `.`},
	})

	symbols = sqlLexer.Symbols()

	tokComment          = symbols["Comment"]
	tokMultilineComment = symbols["MultilineComment"]
	tokQuotedIdent      = symbols["QuotedIdent"]
	tokBacktickIdent    = symbols["BacktickIdent"]
	tokIdent            = symbols["Ident"]
	tokPunct            = symbols["Punct"]
	tokWhitespace       = symbols["Whitespace"]

	// keywords are the reserved words classified as Keyword tokens. Words
	// commonly used as column names (KEY, DATE, FIRST) are left out.
	keywords = toSet(
		"ALL", "ALTER", "AND", "ANTI", "ANY", "ARRAY", "AS", "ASC", "ASOF", "ATTACH",
		"BETWEEN", "BY", "CASE", "CAST", "CLUSTER", "COMMENT", "CREATE", "CROSS",
		"DATABASE", "DELETE", "DESC", "DESCRIBE", "DETACH", "DICTIONARY", "DISTINCT", "DROP",
		"ELSE", "END", "ENGINE", "EXCEPT", "EXISTS", "EXPLAIN", "FINAL", "FORMAT", "FROM",
		"FULL", "FUNCTION", "GLOBAL", "GROUP", "HAVING", "IF", "ILIKE", "IN", "INNER",
		"INSERT", "INTERSECT", "INTERVAL", "INTO", "IS", "JOIN", "LEFT", "LIKE", "LIMIT",
		"MATERIALIZED", "NOT", "NULL", "OFFSET", "ON", "OPTIMIZE", "OR", "ORDER", "OUTER",
		"OVER", "PARTITION", "POPULATE", "PREWHERE", "RENAME", "REPLACE", "RIGHT",
		"SAMPLE", "SELECT", "SEMI", "SET", "SETTINGS", "SHOW", "TABLE", "TEMPORARY",
		"THEN", "TO", "TOTALS", "TRUNCATE", "TTL", "UNION", "UPDATE", "USING", "VALUES",
		"VIEW", "WHEN", "WHERE", "WINDOW", "WITH",
	)
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsKeyword reports whether word is a reserved word, ignoring case.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

// lex tokenizes sql, dropping the trailing EOF token. Any lexer failure
// truncates the token stream at the failure point.
func lex(sql string) []lexer.Token {
	l, err := sqlLexer.LexString("", sql)
	if err != nil {
		return nil
	}

	var tokens []lexer.Token
	for {
		tok, err := l.Next()
		if err != nil || tok.EOF() {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func isWord(tok lexer.Token) bool {
	return tok.Type == tokIdent || tok.Type == tokBacktickIdent || tok.Type == tokQuotedIdent
}

func isKeywordToken(tok lexer.Token) bool {
	return tok.Type == tokIdent && IsKeyword(tok.Value)
}

func isPunct(tok lexer.Token, value string) bool {
	return tok.Type == tokPunct && tok.Value == value
}

func isTrivia(tok lexer.Token) bool {
	return tok.Type == tokWhitespace || tok.Type == tokComment || tok.Type == tokMultilineComment
}

// unquote strips backticks or double quotes from a quoted identifier token.
func unquote(tok lexer.Token) string {
	switch tok.Type {
	case tokBacktickIdent, tokQuotedIdent:
		if len(tok.Value) >= 2 {
			return tok.Value[1 : len(tok.Value)-1]
		}
	}
	return tok.Value
}
