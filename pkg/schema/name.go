package schema

import (
	"sort"
	"strings"
	"unicode"
)

// QualifiedName identifies a table as database.table.
//
// Both segments are non-empty and free of whitespace. The zero value is not a
// valid name; use ParseQualifiedName or NewQualifiedName to build one.
type QualifiedName struct {
	Database string
	Table    string
}

// ParseQualifiedName splits name on its dot. Anything other than exactly two
// non-empty, whitespace-free segments is rejected with a *FormatError.
//
// Example:
//
//	name, err := schema.ParseQualifiedName("analytics.events")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(name.Database, name.Table) // analytics events
func ParseQualifiedName(name string) (QualifiedName, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return QualifiedName{}, &FormatError{Name: name, Reason: "expected exactly one '.' separating database and table"}
	}

	return NewQualifiedName(parts[0], parts[1])
}

// MustParseQualifiedName is like ParseQualifiedName but panics on error.
func MustParseQualifiedName(name string) QualifiedName {
	qn, err := ParseQualifiedName(name)
	if err != nil {
		panic(err)
	}
	return qn
}

// NewQualifiedName builds a name from its segments and validates it.
func NewQualifiedName(database, table string) (QualifiedName, error) {
	qn := QualifiedName{Database: database, Table: table}
	if err := qn.Validate(); err != nil {
		return QualifiedName{}, err
	}
	return qn, nil
}

// Validate reports whether the name satisfies the two-segment invariant.
func (n QualifiedName) Validate() error {
	switch {
	case n.Database == "" || n.Table == "":
		return &FormatError{Name: n.String(), Reason: "database and table must both be non-empty"}
	case strings.Contains(n.Database, ".") || strings.Contains(n.Table, "."):
		return &FormatError{Name: n.String(), Reason: "expected exactly one '.' separating database and table"}
	case strings.IndexFunc(n.String(), unicode.IsSpace) >= 0:
		return &FormatError{Name: n.String(), Reason: "names may not contain whitespace"}
	}
	return nil
}

// String returns the canonical database.table form.
func (n QualifiedName) String() string {
	if n.Database == "" && n.Table == "" {
		return ""
	}
	return n.Database + "." + n.Table
}

// IsZero reports whether n is the zero value.
func (n QualifiedName) IsZero() bool {
	return n.Database == "" && n.Table == ""
}

// EqualFold compares two names ignoring case.
func (n QualifiedName) EqualFold(o QualifiedName) bool {
	return strings.EqualFold(n.Database, o.Database) && strings.EqualFold(n.Table, o.Table)
}

// MarshalText implements encoding.TextMarshaler.
func (n QualifiedName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *QualifiedName) UnmarshalText(text []byte) error {
	qn, err := ParseQualifiedName(string(text))
	if err != nil {
		return err
	}
	*n = qn
	return nil
}

// NameSet collects qualified names without duplicates. Insertion order is not
// kept; Sorted materializes the set in lexicographic order.
type NameSet map[QualifiedName]struct{}

// Add inserts name into the set.
func (s NameSet) Add(name QualifiedName) {
	s[name] = struct{}{}
}

// Sorted returns the members ordered by their canonical text.
func (s NameSet) Sorted() []QualifiedName {
	names := make([]QualifiedName, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		return names[i].String() < names[j].String()
	})

	return names
}

// Strings renders names in their canonical form.
func Strings(names []QualifiedName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}
