package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/utils"
)

// Warning codes attached to a rewrite Result.
const (
	// WarnHeaderNotFound means the CREATE TABLE header did not name the
	// source table, so the statement still creates whatever it named before.
	WarnHeaderNotFound = "header_not_found"

	// WarnDistributedCluster means a Distributed engine still points at its
	// source cluster because no target cluster was given.
	WarnDistributedCluster = "distributed_cluster_unchanged"
)

var (
	clusterIdent = `('(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|` + "`[^`]*`" + `|[\w{}\-]+)`

	headerKeywords = `CREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMPORARY\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?`
	headerPrefix   = `(?i)(` + headerKeywords + `)`
	headerIdent    = "(?:`[^`]*`" + `|"[^"]*"|[\w{}$]+)`

	// onClusterRe only matches the clause that directly follows the header's
	// table name (and optional UUID), never text further into the statement.
	// Groups: 1 header up to ON, 2 cluster identifier, 3 trailing whitespace.
	onClusterRe = regexp.MustCompile(`(?i)\A(\s*` + headerKeywords +
		`(?:` + headerIdent + `\s*\.\s*)?` + headerIdent + `(?:\s+UUID\s+'[^']*')?\s+)` +
		`ON\s+CLUSTER\s+` + clusterIdent + `(\s*)`)
)

type (
	// Params are the inputs shared by every rewrite step. An empty Cluster
	// means the destination has no cluster.
	Params struct {
		Source  schema.QualifiedName
		Target  schema.QualifiedName
		Cluster string
	}

	// Warning flags a rewrite that succeeded but may not produce a working
	// table.
	Warning struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	// Step is one independent transformation of a Document.
	Step struct {
		Name  string
		Apply func(doc Document, p Params) (Document, []Warning)
	}

	// Result is the rewritten statement plus any warnings raised on the way.
	Result struct {
		Document Document
		Warnings []Warning
	}
)

// Steps is the full rewrite pipeline, in the order it must run.
var Steps = []Step{
	RenameHeader,
	RewriteClusterClause,
	RewriteDistributedCluster,
	RenameResidual,
}

// Rewrite retargets ddl from source to target, moving it to cluster (or off
// any cluster when cluster is empty). It fails only when either name is not a
// valid database.table; steps that find nothing to change are no-ops.
//
// Example:
//
//	res, err := ddl.Rewrite(
//		ddl.NewDocument("CREATE TABLE app.orders ON CLUSTER c1 (id Int64) ENGINE = Log"),
//		schema.MustParseQualifiedName("app.orders"),
//		schema.MustParseQualifiedName("test.orders"),
//		"",
//	)
//	// res.Document: CREATE TABLE test.orders (id Int64) ENGINE = Log
func Rewrite(doc Document, source, target schema.QualifiedName, cluster string) (*Result, error) {
	return RewriteWith(Steps, doc, Params{Source: source, Target: target, Cluster: cluster})
}

// RewriteWith runs steps in order over doc.
func RewriteWith(steps []Step, doc Document, p Params) (*Result, error) {
	if err := p.Source.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid source name")
	}
	if err := p.Target.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid target name")
	}

	res := &Result{Document: doc}
	for _, step := range steps {
		next, warnings := step.Apply(res.Document, p)
		res.Document = next
		res.Warnings = append(res.Warnings, warnings...)
	}

	return res, nil
}

// Has reports whether the result carries a warning with the given code.
func (r *Result) Has(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// RenameHeader replaces the source name in the CREATE TABLE header. Only the
// exact source name matches, with or without backticks, and it must end at an
// identifier boundary so app.orders never matches app.orders_local.
var RenameHeader = Step{
	Name: "header",
	Apply: func(doc Document, p Params) (Document, []Warning) {
		re := regexp.MustCompile(headerPrefix +
			"(`?" + regexp.QuoteMeta(p.Source.Database) + "`?\\.`?" + regexp.QuoteMeta(p.Source.Table) + "`?)" +
			`(\W|$)`)

		text := doc.String()
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			return doc, []Warning{{
				Code:    WarnHeaderNotFound,
				Message: fmt.Sprintf("CREATE TABLE header for %s not found; the statement was not renamed to %s", p.Source, p.Target),
			}}
		}

		name := p.Target.String()
		if strings.Contains(text[m[4]:m[5]], "`") {
			name = utils.BacktickIdentifier(name)
		}

		return doc.with(text[:m[4]] + name + text[m[5]:]), nil
	},
}

// RewriteClusterClause points the header's ON CLUSTER clause at the target
// cluster, or removes the clause and its trailing whitespace when there is
// none. The words ON CLUSTER elsewhere (a column comment, say) are left alone.
var RewriteClusterClause = Step{
	Name: "cluster",
	Apply: func(doc Document, p Params) (Document, []Warning) {
		text := doc.String()
		m := onClusterRe.FindStringSubmatchIndex(text)
		if m == nil {
			return doc, nil
		}

		if p.Cluster == "" {
			return doc.with(text[:m[3]] + text[m[7]:]), nil
		}
		return doc.with(text[:m[3]] + "ON CLUSTER " + p.Cluster + text[m[5]:]), nil
	},
}

// RewriteDistributedCluster replaces the cluster argument of a Distributed
// engine, keeping its quote style. The database, table and sharding key
// arguments are untouched. Without a target cluster the engine is left as is
// and a warning is returned.
var RewriteDistributedCluster = Step{
	Name: "distributed",
	Apply: func(doc Document, p Params) (Document, []Warning) {
		if !doc.IsDistributed() {
			return doc, nil
		}

		if p.Cluster == "" {
			return doc, []Warning{{
				Code: WarnDistributedCluster,
				Message: fmt.Sprintf(
					"%s uses the Distributed engine over cluster %q; without a target cluster it is copied as is and will not work unless that cluster is reachable",
					p.Target, doc.DistributedCluster(),
				),
			}}
		}

		cluster := utils.StripQuotes(p.Cluster)
		text := distributedRe.ReplaceAllStringFunc(doc.String(), func(match string) string {
			sub := distributedRe.FindStringSubmatch(match)
			return sub[1] + quoteLike(sub[2], cluster)
		})
		return doc.with(text), nil
	},
}

// RenameResidual replaces quoted occurrences of the bare source table name,
// such as a Distributed engine's table argument. Only a whole quoted token
// matches: 'orders' is renamed, 'orders_local' is not.
var RenameResidual = Step{
	Name: "residual",
	Apply: func(doc Document, p Params) (Document, []Warning) {
		text := doc.String()
		for _, q := range []string{"'", `"`} {
			re := regexp.MustCompile(`(?i)` + q + regexp.QuoteMeta(p.Source.Table) + q)
			text = re.ReplaceAllLiteralString(text, q+p.Target.Table+q)
		}
		return doc.with(text), nil
	},
}

func quoteLike(original, value string) string {
	if strings.HasPrefix(original, `"`) {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return utils.QuoteString(value)
}
