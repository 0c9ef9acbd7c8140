package testutil

import (
	"context"
	"reflect"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

type (
	// FakeConn records every statement and answers with the configured funcs.
	// A nil QueryFunc returns empty rows; a nil ExecFunc succeeds.
	FakeConn struct {
		QueryFunc func(ctx context.Context, query string, args ...any) (driver.Rows, error)
		ExecFunc  func(ctx context.Context, query string, args ...any) error

		mu         sync.Mutex
		statements []string
	}

	// Rows is an in-memory driver.Rows. Scan assigns values positionally and
	// converts between compatible kinds (e.g. uint64 into *uint64).
	Rows struct {
		Cols    []string
		Data    [][]any
		ScanErr error
		IterErr error

		pos    int
		closed bool
	}
)

// Query implements the Query half of the connection interfaces.
func (f *FakeConn) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	f.record(query)
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, query, args...)
	}
	return NewRows(nil), nil
}

// Exec implements the Exec half of the connection interfaces.
func (f *FakeConn) Exec(ctx context.Context, query string, args ...any) error {
	f.record(query)
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, query, args...)
	}
	return nil
}

// Close satisfies the client interfaces; it never fails.
func (f *FakeConn) Close() error {
	return nil
}

// Statements returns a copy of every statement seen so far, in order.
func (f *FakeConn) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statements...)
}

func (f *FakeConn) record(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, query)
}

// NewRows builds Rows with the given column names and data.
func NewRows(cols []string, data ...[]any) *Rows {
	return &Rows{Cols: cols, Data: data, pos: -1}
}

func (r *Rows) Next() bool {
	if r.closed || r.IterErr != nil {
		return false
	}
	r.pos++
	return r.pos < len(r.Data)
}

func (r *Rows) Scan(dest ...any) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	if r.pos < 0 || r.pos >= len(r.Data) {
		return errors.New("scan called without a current row")
	}

	row := r.Data[r.pos]
	if len(dest) != len(row) {
		return errors.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return errors.Errorf("destination %d is not a pointer", i)
		}

		value := reflect.ValueOf(row[i])
		elem := target.Elem()
		if !value.Type().ConvertibleTo(elem.Type()) {
			return errors.Errorf("cannot scan %T into %s", row[i], elem.Type())
		}
		elem.Set(value.Convert(elem.Type()))
	}
	return nil
}

func (r *Rows) ScanStruct(dest any) error {
	return errors.New("ScanStruct is not supported by testutil.Rows")
}

func (r *Rows) ColumnTypes() []driver.ColumnType { return nil }

func (r *Rows) Totals(dest ...any) error { return nil }

func (r *Rows) Columns() []string { return r.Cols }

func (r *Rows) Close() error {
	r.closed = true
	return nil
}

func (r *Rows) Err() error { return r.IterErr }
