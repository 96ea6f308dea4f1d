package mockclickhouserows

import (
	"errors"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Rows is an in-memory driver.Rows. Column scan types are taken from the
// first row's values.
type Rows struct {
	Names   []string
	Data    [][]any
	ScanErr error
	IterErr error
	Closed  bool

	pos int
}

var _ driver.Rows = &Rows{}

// New creates Rows with the given column names and values.
func New(names []string, data ...[]any) *Rows {
	return &Rows{Names: names, Data: data}
}

func (r *Rows) Next() bool {
	if r.pos >= len(r.Data) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	if r.pos == 0 {
		return errors.New("scan called before next")
	}
	row := r.Data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

func (r *Rows) ScanStruct(any) error {
	return errors.New("not implemented")
}

func (r *Rows) ColumnTypes() []driver.ColumnType {
	types := make([]driver.ColumnType, len(r.Names))
	for i, name := range r.Names {
		var scanType reflect.Type = reflect.TypeOf("")
		if len(r.Data) > 0 && r.Data[0][i] != nil {
			scanType = reflect.TypeOf(r.Data[0][i])
		}
		types[i] = columnType{name: name, scanType: scanType}
	}
	return types
}

func (r *Rows) Totals(...any) error {
	return nil
}

func (r *Rows) Columns() []string {
	return r.Names
}

func (r *Rows) Close() error {
	r.Closed = true
	return nil
}

func (r *Rows) Err() error {
	return r.IterErr
}

type columnType struct {
	name     string
	scanType reflect.Type
}

func (c columnType) Name() string             { return c.name }
func (c columnType) Nullable() bool           { return c.scanType.Kind() == reflect.Ptr }
func (c columnType) ScanType() reflect.Type   { return c.scanType }
func (c columnType) DatabaseTypeName() string { return c.scanType.String() }
