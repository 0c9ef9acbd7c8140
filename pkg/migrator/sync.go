package migrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/pseudomuto/chsync/pkg/ddl"
	"github.com/pseudomuto/chsync/pkg/utils"
)

type (
	// Remote is how the target server reaches the source when copying rows
	// with the remote() table function.
	Remote struct {
		Address  string
		User     string
		Password string
	}

	// Job is a migration plus an optional data copy.
	Job struct {
		Request
		CopyData bool `json:"copy_data,omitempty"`
	}

	// SyncResult reports one job. Migration is nil only if the job never
	// started.
	SyncResult struct {
		Job        Job         `json:"job"`
		Migration  *Result     `json:"migration,omitempty"`
		Copied     bool        `json:"copied"`
		Warnings   []string    `json:"warnings,omitempty"`
		Validation *Validation `json:"validation,omitempty"`

		Error string `json:"error,omitempty"`
		Err   error  `json:"-"`

		Duration time.Duration `json:"duration"`
	}

	// Syncer runs the full sync workflow for a table: migrate the structure,
	// copy rows from the source, then validate the target.
	Syncer struct {
		m         *Migrator
		remote    Remote
		validator *Validator
		locks     *TargetLocks
		log       *slog.Logger
	}
)

// NewSyncer returns a Syncer that migrates with m and copies rows through
// remote. Validation reads the target with m's fetch budget.
func NewSyncer(m *Migrator, remote Remote) *Syncer {
	return &Syncer{
		m:         m,
		remote:    remote,
		validator: NewValidator(ddl.NewIntrospector(m.target, m.log, m.timeouts.Fetch), m.log),
		locks:     new(TargetLocks),
		log:       m.log,
	}
}

// Migrator returns the underlying migrator.
func (s *Syncer) Migrator() *Migrator {
	return s.m
}

// Validator returns the validator reading the target.
func (s *Syncer) Validator() *Validator {
	return s.validator
}

// Migrate runs a structure-only migration, holding the target's lock.
func (s *Syncer) Migrate(ctx context.Context, req Request) (*Result, error) {
	unlock := s.locks.Lock(req.Target)
	defer unlock()

	return s.m.Migrate(ctx, req)
}

// Sync runs job while holding the lock for its target. Data copy is skipped
// with a warning when no remote address is configured, leaving an empty table
// with the source's structure. Validation problems never fail the sync.
func (s *Syncer) Sync(ctx context.Context, job Job) (*SyncResult, error) {
	unlock := s.locks.Lock(job.Target)
	defer unlock()

	res := &SyncResult{Job: job}
	start := s.m.clock.Now()

	err := s.sync(ctx, job, res)
	res.Duration = s.m.clock.Since(start)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res, err
	}

	return res, nil
}

func (s *Syncer) sync(ctx context.Context, job Job, res *SyncResult) error {
	mig, err := s.m.Migrate(ctx, job.Request)
	res.Migration = mig
	if err != nil {
		return err
	}

	log := s.log.With("run_id", mig.RunID, "target", job.Target.String())

	if job.CopyData {
		if !s.remote.Enabled() {
			msg := "data copy skipped: no remote address configured"
			log.Warn(msg)
			res.Warnings = append(res.Warnings, msg)
		} else {
			stmt := s.copyStatement(job.Request)
			log.Info("copying data", "sql", clickhouse.RedactSQL(stmt))

			if err := s.m.exec(ctx, "copy", stmt, s.m.timeouts.Copy); err != nil {
				return errors.Wrapf(err, "failed to copy data into %s", job.Target)
			}
			res.Copied = true
		}
	}

	res.Validation = s.validator.Validate(ctx, job.Target)
	return nil
}

// copyStatement reads every row of the source through remote().
func (s *Syncer) copyStatement(req Request) string {
	return utils.NewSQLBuilder().
		InsertInto(req.Target.String()).
		Select("*").
		From("").
		Func("remote", s.remote.Address, req.Source.String(), s.remote.User, s.remote.Password).
		String()
}

// Enabled reports whether an address was configured.
func (r Remote) Enabled() bool {
	return r.Address != ""
}
