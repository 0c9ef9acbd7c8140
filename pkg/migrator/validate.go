package migrator

import (
	"context"
	"log/slog"

	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/utils"
)

type (
	// Validation is a read-only report on a table after migration. Checks
	// that could not run leave their field nil and add to Errors.
	Validation struct {
		Table    schema.QualifiedName     `json:"table"`
		Exists   bool                     `json:"exists"`
		RowCount *uint64                  `json:"row_count,omitempty"`
		Columns  []schema.Column          `json:"columns,omitempty"`
		Engine   *schema.EngineDescriptor `json:"engine,omitempty"`
		Errors   []string                 `json:"errors,omitempty"`
	}

	// Validator gathers a Validation for a table. It never fails: problems
	// are logged as warnings and reported in the result.
	Validator struct {
		in  *ddl.Introspector
		log *slog.Logger
	}
)

// NewValidator returns a Validator reading through in.
func NewValidator(in *ddl.Introspector, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Validator{in: in, log: log}
}

// Validate checks that name exists and collects its row count, columns and
// engine.
func (v *Validator) Validate(ctx context.Context, name schema.QualifiedName) *Validation {
	res := &Validation{Table: name}
	log := v.log.With("table", name.String())

	exists, err := v.in.Exists(ctx, name)
	if err != nil {
		res.fail(log, "exists", err)
		return res
	}
	res.Exists = exists
	if !exists {
		log.Warn("table missing after migration")
		res.Errors = append(res.Errors, "table does not exist")
		return res
	}

	if n, err := v.in.Count(ctx, name); err != nil {
		res.fail(log, "count", err)
	} else {
		res.RowCount = utils.Ptr(n)
	}

	if cols, err := v.in.Columns(ctx, name); err != nil {
		res.fail(log, "columns", err)
	} else {
		res.Columns = cols
	}

	if engine, err := v.in.Engine(ctx, name); err != nil {
		res.fail(log, "engine", err)
	} else {
		res.Engine = engine
	}

	log.Info("validated table", "columns", len(res.Columns), "engine", engineName(res.Engine))
	return res
}

// OK reports whether every check ran and the table exists.
func (v *Validation) OK() bool {
	return v.Exists && len(v.Errors) == 0
}

func (v *Validation) fail(log *slog.Logger, check string, err error) {
	log.Warn("validation check failed", "check", check, "error", err)
	v.Errors = append(v.Errors, check+": "+err.Error())
}

func engineName(e *schema.EngineDescriptor) string {
	if e == nil {
		return ""
	}
	return e.Engine
}
