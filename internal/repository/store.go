package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
)

// QueryStore executes compiled queries against the event store.
type QueryStore interface {
	// Query runs q and returns every row keyed by column name.
	Query(ctx context.Context, q query.Query) ([]model.Row, error)
}

type nativeStore struct {
	conn    clickhouse.Conn
	timeout time.Duration
}

// NewNativeStore creates a QueryStore backed by the native ClickHouse protocol.
// A positive timeout bounds every call.
func NewNativeStore(conn clickhouse.Conn, timeout time.Duration) QueryStore {
	return &nativeStore{conn: conn, timeout: timeout}
}

func (s *nativeStore) Query(ctx context.Context, q query.Query) ([]model.Row, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.conn.Query(ctx, q.SQL, nativeArgs(q.Params)...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns := rows.Columns()
	types := rows.ColumnTypes()

	result := make([]model.Row, 0)
	for rows.Next() {
		dest := scanTargets(types)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		result = append(result, toRow(columns, dest))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}

func scanTargets(types []driver.ColumnType) []any {
	dest := make([]any, len(types))
	for i, ct := range types {
		dest[i] = reflect.New(ct.ScanType()).Interface()
	}
	return dest
}

type sqlStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLStore creates a QueryStore over database/sql, typically a handle
// returned by clickhouse.OpenDB.
func NewSQLStore(db *sql.DB, timeout time.Duration) QueryStore {
	return &sqlStore{db: db, timeout: timeout}
}

func (s *sqlStore) Query(ctx context.Context, q query.Query) ([]model.Row, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, q.SQL, sqlArgs(q.Params)...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	columns := make([]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
	}

	result := make([]model.Row, 0)
	for rows.Next() {
		dest := make([]any, len(types))
		for i, ct := range types {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		result = append(result, toRow(columns, dest))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}

// nativeArgs binds params in name order. Times are bound at millisecond
// scale to match the DateTime64(3) time column; the driver default is seconds.
func nativeArgs(params query.Params) []any {
	args := make([]any, 0, len(params))
	for _, name := range params.Names() {
		if t, ok := params[name].(time.Time); ok {
			args = append(args, clickhouse.DateNamed(name, t, clickhouse.MilliSeconds))
			continue
		}
		args = append(args, clickhouse.Named(name, params[name]))
	}
	return args
}

// sqlArgs is nativeArgs for database/sql. The clickhouse std driver passes a
// bare NamedDateValue through to its binder, so times are not wrapped in
// sql.Named.
func sqlArgs(params query.Params) []any {
	args := make([]any, 0, len(params))
	for _, name := range params.Names() {
		if t, ok := params[name].(time.Time); ok {
			args = append(args, clickhouse.DateNamed(name, t, clickhouse.MilliSeconds))
			continue
		}
		args = append(args, sql.Named(name, params[name]))
	}
	return args
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func toRow(columns []string, dest []any) model.Row {
	row := make(model.Row, len(columns))
	for i, name := range columns {
		row[name] = normalize(dest[i])
	}
	return row
}

// normalize dereferences scan targets and makes values JSON safe: byte
// slices become strings and NaN/Inf (avg over no rows) become 0.
func normalize(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Interface())
	}

	switch val := rv.Interface().(type) {
	case []byte:
		return string(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return float64(0)
		}
		return val
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return float32(0)
		}
		return val
	default:
		return val
	}
}
