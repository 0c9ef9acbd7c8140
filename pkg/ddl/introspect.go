package ddl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/pseudomuto/chsync/pkg/utils"
)

// Querier runs statements that return rows. *clickhouse.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
}

// Introspector reads table definitions and catalog metadata from a server.
type Introspector struct {
	q       Querier
	log     *slog.Logger
	timeout time.Duration
}

// NewIntrospector returns an Introspector over q. A zero timeout uses the
// default fetch budget.
func NewIntrospector(q Querier, log *slog.Logger, timeout time.Duration) *Introspector {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = consts.FetchTimeout
	}
	return &Introspector{q: q, log: log, timeout: timeout}
}

// FetchDDL returns the CREATE TABLE statement for name as reported by
// SHOW CREATE TABLE, trimmed of surrounding whitespace.
//
// An invalid name or a table the server does not know yields
// *schema.NotFoundError; any other server rejection a *schema.RemoteError.
func (i *Introspector) FetchDDL(ctx context.Context, name schema.QualifiedName) (Document, error) {
	if err := name.Validate(); err != nil {
		return Document{}, &schema.NotFoundError{Name: name.String(), Cause: err}
	}

	var text string
	found, err := i.queryRow(ctx, name, "SHOW CREATE TABLE "+name.String(), nil, &text)
	if err != nil {
		return Document{}, errors.Wrapf(err, "failed to fetch DDL for %s", name)
	}
	if !found || strings.TrimSpace(text) == "" {
		return Document{}, &schema.NotFoundError{Name: name.String()}
	}

	i.log.Debug("fetched DDL", "table", name.String(), "bytes", len(text))
	return NewDocument(text), nil
}

// Engine returns the engine descriptor for name from system.tables.
func (i *Introspector) Engine(ctx context.Context, name schema.QualifiedName) (*schema.EngineDescriptor, error) {
	query := utils.NewSQLBuilder().
		Select("engine", "engine_full", "create_table_query", "partition_key", "sorting_key", "primary_key", "sampling_key").
		From("system.tables").
		Where("database = ?", "name = ?").
		String()

	var e schema.EngineDescriptor
	found, err := i.queryRow(ctx, name, query, []any{name.Database, name.Table},
		&e.Engine, &e.EngineFull, &e.CreateTableQuery, &e.PartitionKey, &e.SortingKey, &e.PrimaryKey, &e.SamplingKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read engine for %s", name)
	}
	if !found {
		return nil, &schema.NotFoundError{Name: name.String()}
	}

	return &e, nil
}

// Columns returns the columns of name ordered by position.
func (i *Introspector) Columns(ctx context.Context, name schema.QualifiedName) ([]schema.Column, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	query := utils.NewSQLBuilder().
		Select("name", "type", "position").
		From("system.columns").
		Where("database = ?", "table = ?").
		OrderBy("position").
		String()

	rows, err := i.q.Query(ctx, query, name.Database, name.Table)
	if err != nil {
		return nil, errors.Wrapf(i.notFound(name, err), "failed to read columns for %s", name)
	}
	defer func() { _ = rows.Close() }()

	var cols []schema.Column
	for rows.Next() {
		var c schema.Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Position); err != nil {
			return nil, errors.Wrap(err, "failed to scan column row")
		}
		cols = append(cols, c)
	}

	return cols, errors.Wrap(rows.Err(), "failed to read column rows")
}

// Exists reports whether name is present in system.tables.
func (i *Introspector) Exists(ctx context.Context, name schema.QualifiedName) (bool, error) {
	query := utils.NewSQLBuilder().
		Select("count()").
		From("system.tables").
		Where("database = ?", "name = ?").
		String()

	var n uint64
	if _, err := i.queryRow(ctx, name, query, []any{name.Database, name.Table}, &n); err != nil {
		return false, errors.Wrapf(err, "failed to check %s", name)
	}
	return n > 0, nil
}

// Count returns the number of rows in name.
func (i *Introspector) Count(ctx context.Context, name schema.QualifiedName) (uint64, error) {
	var n uint64
	if _, err := i.queryRow(ctx, name, utils.NewSQLBuilder().Select("count()").From(name.String()).String(), nil, &n); err != nil {
		return 0, errors.Wrapf(err, "failed to count rows in %s", name)
	}
	return n, nil
}

// queryRow runs query within the fetch budget and scans the first row into
// dest. It reports false when there was no row.
func (i *Introspector) queryRow(ctx context.Context, name schema.QualifiedName, query string, args []any, dest ...any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	rows, err := i.q.Query(ctx, query, args...)
	if err != nil {
		return false, i.notFound(name, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(dest...); err != nil {
		return false, errors.Wrap(err, "failed to scan row")
	}
	return true, nil
}

// notFound maps unknown table/database server errors to NotFoundError.
func (i *Introspector) notFound(name schema.QualifiedName, err error) error {
	for _, code := range []int32{
		clickhouse.CodeUnknownTable,
		clickhouse.CodeUnknownDatabase,
		clickhouse.CodeCannotGetCreateTableQuery,
	} {
		if clickhouse.IsCode(err, code) {
			return &schema.NotFoundError{Name: name.String(), Cause: err}
		}
	}
	return err
}
