package fluentdb

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record is one fetched row.
type Record interface {
	// Columns lists the column names of the row.
	Columns() []string
	// Get returns the value of col and whether the column exists.
	Get(col string) (any, bool)
}

// Assoc is a row materialised as a keyed mapping (AsArray).
type Assoc map[string]any

// Columns returns the keys of a in ascending order.
func (a Assoc) Columns() []string {
	cols := make([]string, 0, len(a))
	for k := range a {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Get returns a[col].
func (a Assoc) Get(col string) (any, bool) {
	v, ok := a[col]
	return v, ok
}

// Object is a row materialised with attribute-style accessors (AsObject).
// Columns keep the order of the result set.
type Object struct {
	columns []string
	values  map[string]any
}

// Columns returns the column names in result order.
func (o *Object) Columns() []string {
	return append([]string(nil), o.columns...)
}

// Get returns the raw value of col.
func (o *Object) Get(col string) (any, bool) {
	v, ok := o.values[col]
	return v, ok
}

// IsNull reports whether col is absent or SQL NULL.
func (o *Object) IsNull(col string) bool {
	return o.values[col] == nil
}

// String returns col as text; NULL and missing columns yield "".
func (o *Object) String(col string) string {
	switch v := o.values[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.DateTime)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns col as an integer. Non-numeric text yields 0.
func (o *Object) Int(col string) int64 {
	switch v := o.values[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return n
	}
	return 0
}

// Float returns col as a float. Non-numeric text yields 0.
func (o *Object) Float(col string) float64 {
	switch v := o.values[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Bool returns col as a boolean: non-zero numbers and "true"/"1" are true.
func (o *Object) Bool(col string) bool {
	switch v := o.values[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

// Map returns a copy of the row as an Assoc.
func (o *Object) Map() Assoc {
	m := make(Assoc, len(o.values))
	for k, v := range o.values {
		m[k] = v
	}
	return m
}

// scanRecord materialises the current row of rows in the given shape.
func scanRecord(rows *sqlx.Rows, cols []string, shape Shape) (Record, error) {
	m := make(map[string]any, len(cols))
	if err := rows.MapScan(m); err != nil {
		return nil, err
	}
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
	if shape == ShapeArray {
		return Assoc(m), nil
	}
	return &Object{columns: cols, values: m}, nil
}

// scanRecords reads up to limit rows (all when limit <= 0).
func scanRecords(rows *sqlx.Rows, shape Shape, limit int) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows, cols, shape)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}
