package lox

import "testing"

func TestChunkLineLookupRunLength(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpNil, 2)
	c.WriteOp(OpNil, 2)
	c.WriteOp(OpNil, 2)
	c.WriteOp(OpNil, 5)

	want := []int{1, 1, 2, 2, 2, 5}
	for i, line := range want {
		if got := c.Line(i); got != line {
			t.Errorf("offset %d: got line %d, want %d", i, got, line)
		}
	}
}

func TestChunkWriteU16RoundTrip(t *testing.T) {
	c := NewChunk()
	c.WriteU16(0xBEEF, 1)
	if got := c.ReadU16(0); got != 0xBEEF {
		t.Errorf("got 0x%04X, want 0xBEEF", got)
	}
}

func TestChunkAddConstEnforcesLimit(t *testing.T) {
	c := NewChunk()
	for i := 0; i < MaxConstants; i++ {
		if _, err := c.AddConst(NumberValue(float64(i))); err != nil {
			t.Fatalf("unexpected error adding constant %d: %v", i, err)
		}
	}
	if _, err := c.AddConst(NumberValue(999)); err != ErrTooManyConstants {
		t.Errorf("expected ErrTooManyConstants on the 257th constant, got %v", err)
	}
}
