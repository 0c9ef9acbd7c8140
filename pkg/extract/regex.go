package extract

import (
	"regexp"
)

// segment matches one name segment, including market placeholders.
const segment = `(?:[a-zA-Z_]|\$?\{[a-zA-Z_]+\})(?:[a-zA-Z0-9_]|\$?\{[a-zA-Z_]+\})*`

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	referencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+(` + segment + `\.` + segment + `)`),
		regexp.MustCompile(`(?i)\b(?:INTO|TABLE)\s+(` + segment + `\.` + segment + `)`),
		regexp.MustCompile(`(?i)\bremote\s*\([^,]+,\s*['"](` + segment + `\.` + segment + `)['"]`),
	}
)

// RegexExtractor is a heuristic pass over comment-free text. It recovers
// references the token walk misses, such as tables named inside remote()
// calls, but knows nothing about SQL structure.
type RegexExtractor struct{}

// Candidates implements Extractor.
func (RegexExtractor) Candidates(sql string) []string {
	text := StripComments(sql)

	var out []string
	for _, re := range referencePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			// a.b.c is not a two-segment name; RE2 has no lookahead to reject it
			if end := m[3]; end < len(text) && text[end] == '.' {
				continue
			}
			out = append(out, text[m[2]:m[3]])
		}
	}
	return out
}

// StripComments removes -- line comments and /* */ block comments.
func StripComments(sql string) string {
	sql = lineCommentRe.ReplaceAllString(sql, "")
	return blockCommentRe.ReplaceAllString(sql, "")
}
