package migrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/parser"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/utils"
)

type (
	// ClickHouse is the statement capability the migrator needs from the
	// target server. *clickhouse.Client satisfies it.
	ClickHouse interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
		Exec(context.Context, string, ...any) error
	}

	// State is a point in the migration state machine:
	//
	//	Idle -> FetchingDDL -> Rewriting -> Dropping -> Creating -> Done
	//
	// Any step may instead end in Failed.
	State string

	// Request names the table to copy and where to put it. Empty clusters
	// mean the statement runs without ON CLUSTER.
	Request struct {
		Source        schema.QualifiedName `json:"source"`
		Target        schema.QualifiedName `json:"target"`
		DropCluster   string               `json:"drop_cluster,omitempty"`
		CreateCluster string               `json:"create_cluster,omitempty"`
	}

	// Result describes one migration attempt. It is returned even when the
	// migration fails so callers can see how far it got.
	Result struct {
		RunID   string  `json:"run_id"`
		Request Request `json:"request"`

		State   State   `json:"state"`
		History []State `json:"history"`

		// DDL is the rewritten statement that was (or would have been) issued
		DDL      string        `json:"ddl,omitempty"`
		Warnings []ddl.Warning `json:"warnings,omitempty"`

		// DropError is set when DROP TABLE failed; the migration carried on
		DropError string `json:"drop_error,omitempty"`

		Error string `json:"error,omitempty"`
		Err   error  `json:"-"`

		StartedAt time.Time     `json:"started_at"`
		Duration  time.Duration `json:"duration"`
	}

	// Timeouts are the per-statement budgets. Zero values use the defaults in
	// pkg/consts.
	Timeouts struct {
		Fetch  time.Duration
		Drop   time.Duration
		Create time.Duration
		Copy   time.Duration
	}

	// Config contains the collaborators for a Migrator.
	Config struct {
		// Source is where DDL is read from
		Source ddl.Querier

		// Target receives the DROP and CREATE statements
		Target ClickHouse

		Logger   *slog.Logger
		Clock    clockwork.Clock
		Timeouts Timeouts

		// Steps overrides the rewrite pipeline (ddl.Steps by default)
		Steps []ddl.Step
	}

	// Migrator recreates a source table's structure on the target. Each call
	// to Migrate runs its steps one at a time; concurrent calls are safe but
	// must not share a target name (see TargetLocks).
	Migrator struct {
		source   *ddl.Introspector
		target   ClickHouse
		log      *slog.Logger
		clock    clockwork.Clock
		timeouts Timeouts
		steps    []ddl.Step
	}
)

const (
	Idle        State = "idle"
	FetchingDDL State = "fetching_ddl"
	Rewriting   State = "rewriting"
	Dropping    State = "dropping"
	Creating    State = "creating"
	Done        State = "done"
	Failed      State = "failed"
)

// New creates a Migrator.
//
// Example:
//
//	m := migrator.New(migrator.Config{
//		Source: sourceClient,
//		Target: targetClient,
//		Logger: log,
//	})
//
//	res, err := m.Migrate(ctx, migrator.Request{
//		Source: schema.MustParseQualifiedName("app.orders"),
//		Target: schema.MustParseQualifiedName("test.orders"),
//	})
func New(cfg Config) *Migrator {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	steps := cfg.Steps
	if steps == nil {
		steps = ddl.Steps
	}

	t := cfg.Timeouts.withDefaults()
	return &Migrator{
		source:   ddl.NewIntrospector(cfg.Source, log, t.Fetch),
		target:   cfg.Target,
		log:      log,
		clock:    clock,
		timeouts: t,
		steps:    steps,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Fetch <= 0 {
		t.Fetch = consts.FetchTimeout
	}
	if t.Drop <= 0 {
		t.Drop = consts.DropTimeout
	}
	if t.Create <= 0 {
		t.Create = consts.CreateTimeout
	}
	if t.Copy <= 0 {
		t.Copy = consts.CopyTimeout
	}
	return t
}

// Source returns the introspector used to read source tables.
func (m *Migrator) Source() *ddl.Introspector {
	return m.source
}

// Migrate fetches the source DDL, rewrites it for the target, drops the
// target table and creates it again. There are no retries.
//
// A failed DROP is logged and recorded in Result.DropError; the table may
// simply not have existed. A failed CREATE ends the migration with the
// server's error text. When CREATE fails after a successful DROP the target
// is left absent; running the migration again is safe.
//
// The returned Result is never nil. err is non-nil exactly when
// Result.State is Failed.
func (m *Migrator) Migrate(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Request:   req,
		State:     Idle,
		History:   []State{Idle},
		StartedAt: m.clock.Now(),
	}

	log := m.log.With(
		"run_id", res.RunID,
		"source", req.Source.String(),
		"target", req.Target.String(),
	)
	log.Info("migrating table", "drop_cluster", req.DropCluster, "create_cluster", req.CreateCluster)

	err := m.run(ctx, log, req, res)
	res.Duration = m.clock.Since(res.StartedAt)

	if err != nil {
		res.Err = err
		res.Error = err.Error()
		res.transition(Failed)
		recordMigration(Failed, res.Duration)
		log.Error("migration failed", "error", err, "duration", res.Duration)
		return res, err
	}

	res.transition(Done)
	recordMigration(Done, res.Duration)
	log.Info("migration complete", "duration", res.Duration, "warnings", len(res.Warnings))
	return res, nil
}

func (m *Migrator) run(ctx context.Context, log *slog.Logger, req Request, res *Result) error {
	res.transition(FetchingDDL)
	doc, err := m.source.FetchDDL(ctx, req.Source)
	if err != nil {
		return err
	}

	res.transition(Rewriting)
	rw, err := ddl.RewriteWith(m.steps, doc, ddl.Params{
		Source:  req.Source,
		Target:  req.Target,
		Cluster: req.CreateCluster,
	})
	if err != nil {
		return err
	}

	res.DDL = rw.Document.String()
	res.Warnings = rw.Warnings
	for _, w := range rw.Warnings {
		log.Warn("rewrite warning", "code", w.Code, "message", w.Message)
	}

	if err := verifyHeader(rw.Document, req.Target); err != nil {
		return err
	}

	res.transition(Dropping)
	drop := utils.NewSQLBuilder().
		Drop("TABLE").
		IfExists().
		Table(req.Target.String()).
		OnCluster(req.DropCluster).
		String()

	if err := m.exec(ctx, "drop", drop, m.timeouts.Drop); err != nil {
		res.DropError = err.Error()
		log.Warn("drop failed, continuing with create", "error", err)
	}

	res.transition(Creating)
	if err := m.exec(ctx, "create", res.DDL, m.timeouts.Create); err != nil {
		return errors.Wrapf(err, "failed to create %s", req.Target)
	}

	return nil
}

// exec runs stmt on the target within budget. Timeouts are reported as
// *schema.TimeoutError carrying the budget.
func (m *Migrator) exec(ctx context.Context, kind, stmt string, budget time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	err := m.target.Exec(ctx, stmt)
	recordStatement(kind, err)
	return withBudget(err, stmt, budget)
}

func withBudget(err error, stmt string, budget time.Duration) error {
	if err == nil {
		return nil
	}

	var te *schema.TimeoutError
	if errors.As(err, &te) {
		if te.Budget == 0 {
			te.Budget = budget
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(&schema.TimeoutError{
			Statement: utils.Truncate(clickhouse.RedactSQL(stmt), consts.DiagnosticLimit),
			Budget:    budget,
		})
	}

	return err
}

// verifyHeader checks that the rewritten statement creates target. Headers
// the grammar cannot parse fall back to a substring check.
func verifyHeader(doc ddl.Document, target schema.QualifiedName) error {
	h, err := parser.ParseHeader(doc.String())
	if err != nil {
		if strings.Contains(strings.ToLower(doc.String()), strings.ToLower(target.String())) {
			return nil
		}
		return &schema.FormatError{
			Name:   target.String(),
			Reason: "rewritten statement does not mention the target table",
		}
	}

	got, err := schema.ParseQualifiedName(h.QualifiedName())
	if err == nil && got.EqualFold(target) {
		return nil
	}

	return &schema.FormatError{
		Name:   h.QualifiedName(),
		Reason: fmt.Sprintf("rewritten statement creates %s instead of %s", h.QualifiedName(), target),
	}
}

func (r *Result) transition(s State) {
	r.State = s
	r.History = append(r.History, s)
}

// Succeeded reports whether the migration reached Done.
func (r *Result) Succeeded() bool {
	return r.State == Done
}
