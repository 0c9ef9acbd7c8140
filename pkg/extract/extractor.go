package extract

import (
	"github.com/pseudomuto/chsync/pkg/schema"
)

// Extractor produces raw table-reference candidates from SQL text. Candidates
// are unvalidated; Tables cleans and deduplicates them.
type Extractor interface {
	Candidates(sql string) []string
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(sql string) []string

// Candidates implements Extractor.
func (f ExtractorFunc) Candidates(sql string) []string { return f(sql) }

// Default is the token walk unioned with the regex fallback.
var Default = Union(TokenExtractor{}, RegexExtractor{})

// Union combines extractors, concatenating their candidates.
func Union(extractors ...Extractor) Extractor {
	return ExtractorFunc(func(sql string) []string {
		var out []string
		for _, e := range extractors {
			out = append(out, e.Candidates(sql)...)
		}
		return out
	})
}

// Tables returns the qualified tables referenced by sql, sorted and without
// duplicates. Fragments that cannot be classified contribute nothing; it never
// fails.
//
// Example:
//
//	names := extract.Tables("SELECT * FROM app.orders o JOIN app.users u ON o.uid = u.id")
//	fmt.Println(schema.Strings(names)) // [app.orders app.users]
func Tables(sql string) []schema.QualifiedName {
	return With(Default, sql)
}

// With runs e over sql and cleans the result like Tables.
func With(e Extractor, sql string) []schema.QualifiedName {
	set := schema.NameSet{}
	for _, candidate := range e.Candidates(sql) {
		if name, ok := Clean(candidate); ok {
			set.Add(name)
		}
	}
	return set.Sorted()
}
