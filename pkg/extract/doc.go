// Package extract finds the qualified tables referenced by SQL text.
//
// Two extractors run over the input and their results are unioned:
//
//   - TokenExtractor walks the parser token tree and takes whatever follows
//     FROM, JOIN, INTO, UPDATE and TABLE.
//   - RegexExtractor strips comments and applies three patterns. It is a
//     heuristic kept behind the same interface so it can be replaced by a
//     real grammar later.
//
// Candidates are cleaned, validated as database.table, deduplicated and
// returned sorted. Extraction never fails; unclassifiable input yields nothing.
package extract
