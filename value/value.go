// Package value implements the typed Value sum type used to pass guard and
// action arguments through the mini-language without runtime reflection
// (spec.md §9, "Unbounded args").
package value

import (
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindList
)

// Value is a typed sum: Int | Float | Str | List<Value>.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	list []Value
}

func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, f: f} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func List(vs []Value) Value  { return Value{kind: KindList, list: vs} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsList() bool   { return v.kind == KindList }

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	case KindString:
		n, _ := strconv.ParseInt(v.s, 10, 64)
		return n
	}
	return 0
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	case KindString:
		f, _ := strconv.ParseFloat(v.s, 64)
		return f
	}
	return 0
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		out := "{"
		for i, e := range v.list {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "}"
	}
	return ""
}

func (v Value) List() []Value { return v.list }

// GoValue unwraps a Value into the nearest idiomatic Go value, for passing
// positionally into a device method via reflection-free dispatch tables.
func (v Value) GoValue() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.GoValue()
		}
		return out
	}
	return nil
}

// FromLiteral parses a bare token into the most specific Value: integer,
// then float, then string (mini-language §4.4.2 operand resolution, step 1).
func FromLiteral(tok string) Value {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Float(f)
	}
	return String(tok)
}

func (v Value) GoString() string {
	return fmt.Sprintf("Value{%s}", v.String())
}
