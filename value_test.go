package fluentdb

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

type userID int32

type label string

// TestValueOf_Classification checks the tag chosen for each supported input.
func TestValueOf_Classification(t *testing.T) {
	n := 5
	var nilPtr *int
	ts := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		kind Kind
		want any
	}{
		{"nil", nil, KindNull, nil},
		{"bool", true, KindBool, true},
		{"int", 42, KindInt, int64(42)},
		{"int8", int8(-3), KindInt, int64(-3)},
		{"uint16", uint16(9), KindInt, int64(9)},
		{"named int", userID(11), KindInt, int64(11)},
		{"float32", float32(1.5), KindFloat, float64(1.5)},
		{"float64", 2.25, KindFloat, 2.25},
		{"string", "abc", KindString, "abc"},
		{"named string", label("x"), KindString, "x"},
		{"bytes", []byte("raw"), KindString, "raw"},
		{"time", ts, KindString, "2024-03-01 10:20:30"},
		{"pointer", &n, KindInt, int64(5)},
		{"nil pointer", nilPtr, KindNull, nil},
		{"nil valuer pointer", (*sql.NullString)(nil), KindNull, nil},
		{"nil valuer int pointer", (*sql.NullInt64)(nil), KindNull, nil},
		{"valuer pointer", &sql.NullInt64{Int64: 3, Valid: true}, KindInt, int64(3)},
		{"value", Float(0.5), KindFloat, 0.5},
		{"valuer null", sql.NullString{}, KindNull, nil},
		{"valuer string", sql.NullString{String: "v", Valid: true}, KindString, "v"},
		{"valuer int", sql.NullInt64{Int64: 8, Valid: true}, KindInt, int64(8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValueOf(tt.in)
			assertNoError(t, err)
			if v.Kind() != tt.kind {
				t.Fatalf("kind=%v, want %v", v.Kind(), tt.kind)
			}
			if !equalArg(v.Any(), tt.want) {
				t.Fatalf("Any()=%#v, want %#v", v.Any(), tt.want)
			}
		})
	}
}

// TestValueOf_Unsupported rejects composite inputs and uint64 overflow.
func TestValueOf_Unsupported(t *testing.T) {
	for _, in := range []any{struct{}{}, []int{1}, map[string]int{}, uint64(1 << 63), make(chan int)} {
		if _, err := ValueOf(in); !errors.Is(err, ErrUnsupportedParam) {
			t.Fatalf("ValueOf(%T) err=%v, want ErrUnsupportedParam", in, err)
		}
	}
}

// TestValue_Wire verifies the wire type, including the special-character
// rule that forces strings to bind as text.
func TestValue_Wire(t *testing.T) {
	tests := []struct {
		v    Value
		want WireType
		arg  any
	}{
		{Null(), WireNull, nil},
		{Bool(false), WireBool, false},
		{Int(-7), WireInt, int64(-7)},
		{Float(3.5), WireString, "3.5"},
		{Float(10), WireString, "10"},
		{String("plain"), WireString, "plain"},
		{String("a-b"), WireString, "a-b"},
		{String("x y"), WireString, "x y"},
		{String("1.0"), WireString, "1.0"},
	}
	for _, tt := range tests {
		if got := tt.v.Wire(); got != tt.want {
			t.Fatalf("%v.Wire()=%v, want %v", tt.v, got, tt.want)
		}
		if got := tt.v.arg(); !equalArg(got, tt.arg) {
			t.Fatalf("%v.arg()=%#v, want %#v", tt.v, got, tt.arg)
		}
	}
	if !specialChars.MatchString("a|b") || specialChars.MatchString("abc_1") {
		t.Fatalf("specialChars classification is off")
	}
}

// TestKind_String covers the diagnostic names.
func TestKind_String(t *testing.T) {
	want := map[Kind]string{
		KindNull:   "null",
		KindBool:   "boolean",
		KindInt:    "integer",
		KindFloat:  "float",
		KindString: "string",
		Kind(99):   "unknown",
	}
	for k, s := range want {
		if k.String() != s {
			t.Fatalf("Kind(%d).String()=%q, want %q", k, k.String(), s)
		}
	}
	if Null().String() != "NULL" || Int(3).String() != "3" {
		t.Fatalf("Value.String() mismatch")
	}
}

// TestNewParams_Shapes covers the Bind argument conventions.
func TestNewParams_Shapes(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		p, err := newParams(nil)
		assertNoError(t, err)
		if !p.empty() {
			t.Fatalf("want empty params")
		}
	})
	t.Run("scalar", func(t *testing.T) {
		p, err := newParams([]any{"x"})
		assertNoError(t, err)
		if len(p.positional) != 1 || p.positional[0].Kind() != KindString {
			t.Fatalf("params=%+v", p)
		}
	})
	t.Run("variadic", func(t *testing.T) {
		p, err := newParams([]any{1, "a", nil})
		assertNoError(t, err)
		if got := p.kinds(); len(got) != 3 || got[0] != "integer" || got[2] != "null" {
			t.Fatalf("kinds=%v", got)
		}
	})
	t.Run("slice", func(t *testing.T) {
		p, err := newParams([]any{[]any{1, 2}})
		assertNoError(t, err)
		if len(p.positional) != 2 {
			t.Fatalf("params=%+v", p)
		}
	})
	t.Run("values", func(t *testing.T) {
		p, err := newParams([]any{[]Value{Int(1), Null()}})
		assertNoError(t, err)
		if len(p.positional) != 2 || p.positional[1].Kind() != KindNull {
			t.Fatalf("params=%+v", p)
		}
	})
	t.Run("named", func(t *testing.T) {
		p, err := newParams([]any{Named{":id": 1, "name": "n"}})
		assertNoError(t, err)
		if p.len() != 2 || p.named[":id"].Kind() != KindInt {
			t.Fatalf("params=%+v", p)
		}
	})
	t.Run("map", func(t *testing.T) {
		p, err := newParams([]any{map[string]any{"a": true}})
		assertNoError(t, err)
		if p.named["a"].Kind() != KindBool {
			t.Fatalf("params=%+v", p)
		}
	})
	t.Run("typed slices", func(t *testing.T) {
		p, err := newParams([]any{[]int{1, 2}})
		assertNoError(t, err)
		if len(p.positional) != 2 || p.positional[1].Any() != int64(2) {
			t.Fatalf("[]int params=%+v", p)
		}
		p, err = newParams([]any{[]string{"a"}})
		assertNoError(t, err)
		if len(p.positional) != 1 || p.positional[0].Any() != "a" {
			t.Fatalf("[]string params=%+v", p)
		}
		p, err = newParams([]any{[2]float64{0.5, 1}})
		assertNoError(t, err)
		if len(p.positional) != 2 || p.positional[0].Kind() != KindFloat {
			t.Fatalf("array params=%+v", p)
		}
	})
	t.Run("typed map", func(t *testing.T) {
		p, err := newParams([]any{map[string]string{"name": "n", ":email": "e"}})
		assertNoError(t, err)
		if p.named == nil || p.named["name"].Any() != "n" || p.named[":email"].Any() != "e" {
			t.Fatalf("map[string]string params=%+v", p)
		}
		p, err = newParams([]any{map[string]int{"id": 4}})
		assertNoError(t, err)
		if p.named["id"].Any() != int64(4) {
			t.Fatalf("map[string]int params=%+v", p)
		}
	})
	t.Run("bytes stay scalar", func(t *testing.T) {
		p, err := newParams([]any{[]byte("raw")})
		assertNoError(t, err)
		if len(p.positional) != 1 || p.positional[0].Any() != "raw" {
			t.Fatalf("[]byte params=%+v", p)
		}
	})
	t.Run("non-string map keys", func(t *testing.T) {
		_, err := newParams([]any{map[int]string{1: "a"}})
		if !errors.Is(err, ErrUnsupportedParam) {
			t.Fatalf("err=%v, want ErrUnsupportedParam", err)
		}
	})
	t.Run("nested slice element", func(t *testing.T) {
		_, err := newParams([]any{[][]int{{1}}})
		if !errors.Is(err, ErrUnsupportedParam) {
			t.Fatalf("err=%v, want ErrUnsupportedParam", err)
		}
	})
	t.Run("empty name", func(t *testing.T) {
		_, err := newParams([]any{Named{":": 1}})
		if !errors.Is(err, ErrUnsupportedParam) {
			t.Fatalf("err=%v, want ErrUnsupportedParam", err)
		}
	})
	t.Run("bad positional", func(t *testing.T) {
		_, err := newParams([]any{1, []int{2}})
		if !errors.Is(err, ErrUnsupportedParam) {
			t.Fatalf("err=%v, want ErrUnsupportedParam", err)
		}
	})
}
