package lox

import (
	"fmt"
	"math"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValNil ValueKind = iota
	ValBool
	ValNumber
	ValString
)

// ObjString is a heap-allocated, interned string. Two Values of kind
// ValString are equal iff they point at the same ObjString — interning
// makes pointer identity equivalent to content equality. Go's garbage
// collector plays the role the original's "weak reference from the VM's
// owned table" plays in a language without a collector: as long as any
// Value references an ObjString, the table (and thus the string) stays
// reachable and alive.
type ObjString struct {
	Chars string
}

// Value is a tagged variant of Number, Bool, Nil, or String.
type Value struct {
	Kind ValueKind
	num  float64
	b    bool
	str  *ObjString
}

// NilValue is the singleton Nil value.
var NilValue = Value{Kind: ValNil}

func NumberValue(n float64) Value { return Value{Kind: ValNumber, num: n} }
func BoolValue(b bool) Value      { return Value{Kind: ValBool, b: b} }
func StringValue(s *ObjString) Value {
	return Value{Kind: ValString, str: s}
}

func (v Value) IsNil() bool    { return v.Kind == ValNil }
func (v Value) IsBool() bool   { return v.Kind == ValBool }
func (v Value) IsNumber() bool { return v.Kind == ValNumber }
func (v Value) IsString() bool { return v.Kind == ValString }

func (v Value) AsNumber() float64  { return v.num }
func (v Value) AsBool() bool       { return v.b }
func (v Value) AsString() *ObjString { return v.str }

// Falsey reports whether v is falsy: Nil or Bool(false). Everything else,
// including Number(0) and the empty string, is truthy.
func (v Value) Falsey() bool {
	switch v.Kind {
	case ValNil:
		return true
	case ValBool:
		return !v.b
	default:
		return false
	}
}

// Equal compares two Values per the language's equality rules: numbers
// compare by IEEE value (so NaN != NaN), strings compare by interned
// identity, bools and nil compare directly, and cross-kind comparisons are
// always false.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValNil:
		return true
	case ValBool:
		return a.b == b.b
	case ValNumber:
		return a.num == b.num
	case ValString:
		return a.str == b.str
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		if v.b {
			return "true"
		}
		return "false"
	case ValNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return fmt.Sprintf("%g", v.num)
		}
		return formatNumber(v.num)
	case ValString:
		return v.str.Chars
	default:
		return "<unknown>"
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%.0f", n)
	}
	return fmt.Sprintf("%g", n)
}

// Strings is the VM-owned intern table: a set of heap strings keyed by
// content, exclusively owned by one VM instance for its entire lifetime.
type Strings struct {
	table map[string]*ObjString
}

func newStrings() *Strings {
	return &Strings{table: make(map[string]*ObjString)}
}

// Intern returns the canonical *ObjString for text: an existing entry if
// text was already interned, otherwise a freshly allocated one that's
// inserted and returned. New strings are produced ONLY through this path,
// so content-equal strings always share one heap entry.
func (s *Strings) Intern(text string) *ObjString {
	if existing, ok := s.table[text]; ok {
		return existing
	}
	obj := &ObjString{Chars: text}
	s.table[text] = obj
	return obj
}

// Concat interns the concatenation of two strings' contents.
func (s *Strings) Concat(a, b *ObjString) *ObjString {
	return s.Intern(a.Chars + b.Chars)
}
