package extract

import (
	"strings"

	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/utils"
)

var reservedNames = map[string]struct{}{
	"SELECT": {},
	"WHERE":  {},
	"GROUP":  {},
	"ORDER":  {},
	"LIMIT":  {},
}

// isReserved reports whether a candidate is a keyword picked up by a
// tokenizer mis-split rather than a table name.
func isReserved(candidate string) bool {
	_, ok := reservedNames[strings.ToUpper(strings.TrimSpace(candidate))]
	return ok
}

// Clean normalizes a raw candidate. Quotes and surrounding whitespace are
// stripped, anything after the first space (an alias) is dropped and stray
// parentheses are removed. Candidates that do not end up as exactly
// database.table are rejected.
func Clean(candidate string) (schema.QualifiedName, bool) {
	c := utils.StripQuotes(candidate)
	if c == "" || isReserved(c) || !strings.Contains(c, ".") {
		return schema.QualifiedName{}, false
	}

	if fields := strings.Fields(c); len(fields) > 0 {
		c = fields[0]
	}

	c = strings.NewReplacer("(", "", ")", "").Replace(c)
	c = utils.StripQuotes(c)

	name, err := schema.ParseQualifiedName(c)
	if err != nil {
		return schema.QualifiedName{}, false
	}
	return name, true
}
