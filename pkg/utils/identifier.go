package utils

import "strings"

// BacktickIdentifier adds backticks around an identifier, handling qualified names.
// Each dot-separated part is backticked on its own.
//
// Examples:
//   - "table" -> "`table`"
//   - "database.table" -> "`database`.`table`"
//   - "`table`" -> "`table`" (already backticked, not double-backticked)
//   - "" -> ""
func BacktickIdentifier(name string) string {
	if name == "" {
		return ""
	}

	if IsBackticked(name) {
		return name
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		if IsBackticked(part) {
			continue
		}
		parts[i] = "`" + part + "`"
	}
	return strings.Join(parts, ".")
}

// IsBackticked checks if a string is a single identifier wrapped in backticks.
//
// Examples:
//   - "`table`" -> true
//   - "table" -> false
//   - "`db`.`table`" -> false (qualified name, not a single backticked identifier)
func IsBackticked(s string) bool {
	return len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' && !strings.Contains(s[1:len(s)-1], "`")
}

// StripBackticks removes every backtick from an identifier.
//
// Examples:
//   - "`table`" -> "table"
//   - "`db`.`table`" -> "db.table"
func StripBackticks(s string) string {
	return strings.ReplaceAll(s, "`", "")
}

// StripQuotes trims surrounding whitespace and any backtick, single or double
// quote characters from both ends of s, then removes embedded backticks so
// "`db`.`tbl`" collapses to "db.tbl".
func StripQuotes(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "`'\"")
	return StripBackticks(s)
}

// QuoteString renders s as a single-quoted ClickHouse string literal.
//
// Examples:
//   - "host:9000" -> "'host:9000'"
//   - "it's" -> "'it\'s'"
func QuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}

// Truncate shortens s to at most limit bytes, marking the cut with "...".
// Strings already within the limit are returned unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
