package fluentdb

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"time"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// WireType is the binding type handed to the driver for a Value.
type WireType uint8

const (
	WireNull WireType = iota
	WireBool
	WireInt
	WireString
)

// String returns the name of the wire type.
func (w WireType) String() string {
	switch w {
	case WireNull:
		return "null"
	case WireBool:
		return "bool"
	case WireInt:
		return "int"
	default:
		return "string"
	}
}

// Value is a bindable scalar: null, boolean, integer, float or string.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports the tag of v.
func (v Value) Kind() Kind { return v.kind }

// Any returns v as the plain Go value it was built from (nil for Null).
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindNull {
		return "NULL"
	}
	return fmt.Sprint(v.Any())
}

// specialChars matches strings that must always bind as text, whatever they
// look like otherwise.
var specialChars = regexp.MustCompile(`[\[\]{}()*+?.,\\^$|#\s-]`)

// Wire classifies v for binding.
func (v Value) Wire() WireType {
	if v.kind == KindString && specialChars.MatchString(v.s) {
		return WireString
	}
	switch v.kind {
	case KindNull:
		return WireNull
	case KindBool:
		return WireBool
	case KindInt:
		return WireInt
	default:
		return WireString
	}
}

// arg converts v into the driver argument for its wire type.
func (v Value) arg() any {
	switch v.Wire() {
	case WireNull:
		return nil
	case WireBool:
		return v.b
	case WireInt:
		return v.i
	default:
		if v.kind == KindFloat {
			return strconv.FormatFloat(v.f, 'f', -1, 64)
		}
		return v.s
	}
}

// ValueOf classifies a dynamic Go value into a Value. It accepts nil, bool,
// integer and float kinds, strings, []byte, time.Time, driver.Valuer,
// Value itself, and pointers to any of these (a nil pointer is Null).
func ValueOf(x any) (Value, error) {
	// a nil pointer whose element implements driver.Valuer must not reach Value()
	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []byte:
		return String(string(t)), nil
	case time.Time:
		return String(t.Format(time.DateTime)), nil
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %T: %v", ErrUnsupportedParam, x, err)
		}
		if _, again := dv.(driver.Valuer); again {
			return Value{}, fmt.Errorf("%w: %T returns another Valuer", ErrUnsupportedParam, x)
		}
		return ValueOf(dv)
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > 1<<63-1 {
			return Value{}, fmt.Errorf("%w: %T value %d overflows int64", ErrUnsupportedParam, x, u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedParam, x)
}

// Named is a name to value mapping for :name placeholders.
type Named map[string]any

// params is the bound parameter set of a query: either positional or named.
type params struct {
	positional []Value
	named      map[string]Value
}

func (p params) empty() bool {
	return len(p.positional) == 0 && len(p.named) == 0
}

func (p params) len() int {
	if p.named != nil {
		return len(p.named)
	}
	return len(p.positional)
}

// kinds lists the parameter kinds for diagnostics.
func (p params) kinds() []string {
	if p.named != nil {
		out := make([]string, 0, len(p.named))
		for k, v := range p.named {
			out = append(out, k+"="+v.kind.String())
		}
		return out
	}
	out := make([]string, len(p.positional))
	for i, v := range p.positional {
		out[i] = v.kind.String()
	}
	return out
}

// newParams normalizes Bind() arguments into a params set.
func newParams(args []any) (params, error) {
	switch len(args) {
	case 0:
		return params{}, nil
	case 1:
		switch t := args[0].(type) {
		case Named:
			return namedParams(t)
		case map[string]any:
			return namedParams(t)
		case map[string]Value:
			m := make(map[string]Value, len(t))
			for k, v := range t {
				m[k] = v
			}
			return params{named: m}, nil
		case []Value:
			return params{positional: append([]Value(nil), t...)}, nil
		case []any:
			return positionalParams(t)
		case []byte:
			return positionalParams(args)
		}
		if p, ok, err := reflectParams(args[0]); ok {
			return p, err
		}
	}
	return positionalParams(args)
}

// reflectParams expands any other slice, array or string-keyed map given as
// the single Bind argument. ok is false when x is a scalar.
func reflectParams(x any) (params, bool, error) {
	if _, isValuer := x.(driver.Valuer); isValuer {
		return params{}, false, nil
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return params{}, true, nil
		}
		seq := make([]any, rv.Len())
		for i := range seq {
			seq[i] = rv.Index(i).Interface()
		}
		p, err := positionalParams(seq)
		return p, true, err
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return params{}, false, nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		p, err := namedParams(m)
		return p, true, err
	}
	return params{}, false, nil
}

func positionalParams(args []any) (params, error) {
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := ValueOf(a)
		if err != nil {
			return params{}, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = v
	}
	return params{positional: out}, nil
}

func namedParams(m map[string]any) (params, error) {
	out := make(map[string]Value, len(m))
	for k, a := range m {
		if k == "" || k == ":" {
			return params{}, fmt.Errorf("%w: empty parameter name", ErrUnsupportedParam)
		}
		v, err := ValueOf(a)
		if err != nil {
			return params{}, fmt.Errorf("parameter %q: %w", k, err)
		}
		out[k] = v
	}
	return params{named: out}, nil
}
