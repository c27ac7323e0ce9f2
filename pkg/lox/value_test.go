package lox

import "testing"

func TestValueFalsey(t *testing.T) {
	cases := []struct {
		v      Value
		falsey bool
	}{
		{NilValue, true},
		{BoolValue(false), true},
		{BoolValue(true), false},
		{NumberValue(0), false},
		{StringValue(&ObjString{Chars: ""}), false},
	}
	for _, c := range cases {
		if got := c.v.Falsey(); got != c.falsey {
			t.Errorf("%v.Falsey() = %v, want %v", c.v, got, c.falsey)
		}
	}
}

func TestValueEqualCrossKindAlwaysFalse(t *testing.T) {
	if Equal(NumberValue(0), BoolValue(false)) {
		t.Error("number and bool should never compare equal")
	}
	if Equal(NilValue, BoolValue(false)) {
		t.Error("nil and bool should never compare equal")
	}
}

func TestValueEqualNumberNaN(t *testing.T) {
	nan := NumberValue(nan())
	if Equal(nan, nan) {
		t.Error("NaN must not equal itself")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestStringsInternSharesIdentity(t *testing.T) {
	s := newStrings()
	a := s.Intern("hello")
	b := s.Intern("hello")
	if a != b {
		t.Error("interning the same text twice should return the same *ObjString")
	}
	if !Equal(StringValue(a), StringValue(b)) {
		t.Error("interned equal strings should compare equal by Equal()")
	}
}

func TestStringsConcatInterns(t *testing.T) {
	s := newStrings()
	a := s.Intern("foo")
	b := s.Intern("bar")
	c := s.Concat(a, b)
	if c.Chars != "foobar" {
		t.Errorf("got %q, want foobar", c.Chars)
	}
	if c != s.Intern("foobar") {
		t.Error("Concat's result should be the same interned object as interning its text directly")
	}
}

func TestFormatNumber(t *testing.T) {
	if got := NumberValue(3).String(); got != "3" {
		t.Errorf("integral number got %q, want 3", got)
	}
	if got := NumberValue(3.5).String(); got != "3.5" {
		t.Errorf("got %q, want 3.5", got)
	}
}
