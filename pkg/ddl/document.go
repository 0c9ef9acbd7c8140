package ddl

import (
	"regexp"
	"strings"
)

// distributedRe locates a Distributed engine constructor and its first
// argument, the cluster name.
var distributedRe = regexp.MustCompile(`(?i)(ENGINE\s*=\s*Distributed\s*\(\s*)('(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|[^,)\s]+)`)

// Document is the text of one CREATE TABLE statement. It is immutable: every
// transformation returns a new Document.
type Document struct {
	text string
}

// NewDocument wraps ddl, trimming surrounding whitespace.
func NewDocument(ddl string) Document {
	return Document{text: strings.TrimSpace(ddl)}
}

// String returns the statement text.
func (d Document) String() string {
	return d.text
}

// IsEmpty reports whether the document holds no text.
func (d Document) IsEmpty() bool {
	return d.text == ""
}

// with returns a copy holding text.
func (d Document) with(text string) Document {
	return Document{text: text}
}

// IsDistributed reports whether the statement uses the Distributed engine.
func (d Document) IsDistributed() bool {
	return distributedRe.MatchString(d.text)
}

// DistributedCluster returns the unquoted cluster argument of a Distributed
// engine, or "" if the statement is not Distributed.
func (d Document) DistributedCluster() string {
	m := distributedRe.FindStringSubmatch(d.text)
	if m == nil {
		return ""
	}
	return strings.Trim(m[2], `'"`)
}

// Cluster returns the identifier of the header's ON CLUSTER clause, unquoted,
// or "" if there is none.
func (d Document) Cluster() string {
	m := onClusterRe.FindStringSubmatch(d.text)
	if m == nil {
		return ""
	}
	return strings.Trim(m[2], "'\"`")
}
