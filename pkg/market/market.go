package market

import (
	"regexp"
	"strings"
)

// placeholderRe matches {market}, {region}, {country} and their ${...}
// spellings, ignoring case. The optional '$' is consumed with the braces.
var placeholderRe = regexp.MustCompile(`(?i)\$?\{(?:market|region|country)\}`)

// HasPlaceholder reports whether template contains any market placeholder.
func HasPlaceholder(template string) bool {
	return placeholderRe.MatchString(template)
}

// Expand substitutes each market code for every placeholder in template,
// producing one name per market in input order. Duplicates and casing in
// markets are kept as given. A template with no placeholder expands to itself
// regardless of markets.
//
// Example:
//
//	market.Expand("db.table_{market}_all", []string{"sg", "id"})
//	// [db.table_sg_all db.table_id_all]
func Expand(template string, markets []string) []string {
	if !HasPlaceholder(template) {
		return []string{template}
	}

	out := make([]string, 0, len(markets))
	for _, m := range markets {
		out = append(out, placeholderRe.ReplaceAllLiteralString(template, m))
	}
	return out
}

// ExpandAll expands every template and concatenates the results.
func ExpandAll(templates, markets []string) []string {
	var out []string
	for _, t := range templates {
		out = append(out, Expand(t, markets)...)
	}
	return out
}

// ParseList splits a comma-separated market list, trimming blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
