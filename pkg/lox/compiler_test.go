package lox

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) (*Chunk, error) {
	t.Helper()
	p := NewParser(newStrings())
	return p.Compile(src)
}

func TestCompileSimpleExpressionStatement(t *testing.T) {
	chunk, err := compile(t, "1 + 2 * 3;")
	require.NoError(t, err)

	// constant, constant, constant, multiply, add, pop, return
	wantOps := []OpCode{OpConstant, OpConstant, OpConstant, OpMultiply, OpAdd, OpPop, OpReturn}
	gotOps := opsOf(t, chunk)
	assert.Equal(t, wantOps, gotOps)
}

func TestCompileAggregatesMultipleErrors(t *testing.T) {
	// three independent syntax errors: missing ';', bad token, missing ')'
	_, err := compile(t, "1 2\nvar;\n(1;")
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "expected a *multierror.Error, got %T", err)
	assert.GreaterOrEqual(t, len(merr.Errors), 2, "expected multiple independent compile errors to be aggregated")
}

func TestCompileUninitializedLocalSelfReference(t *testing.T) {
	_, err := compile(t, "{ var a = a; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrUninitializedLocal.Error())
}

func TestCompileDuplicateLocalNameInSameScope(t *testing.T) {
	_, err := compile(t, "{ var a = 1; var a = 2; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrDuplicateName.Error())
}

func TestCompileShadowingAcrossScopesIsAllowed(t *testing.T) {
	_, err := compile(t, "{ var a = 1; { var a = 2; } }")
	assert.NoError(t, err)
}

func TestCompileInvalidAssignmentTarget(t *testing.T) {
	_, err := compile(t, "1 + 2 = 3;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid assignment target")
}

func TestCompileTooManyLocals(t *testing.T) {
	src := "{\n"
	for i := 0; i < MaxLocals+1; i++ {
		src += "var v" + itoa(i) + " = 0;\n"
	}
	src += "}\n"

	_, err := compile(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrTooManyLocals.Error())
}

func TestCompileTooManyConstants(t *testing.T) {
	src := ""
	for i := 0; i < MaxConstants+1; i++ {
		src += "print " + itoa(i) + ";\n"
	}
	_, err := compile(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrTooManyConstants.Error())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func opsOf(t *testing.T, chunk *Chunk) []OpCode {
	t.Helper()
	var ops []OpCode
	for offset := 0; offset < len(chunk.Code); {
		op := OpCode(chunk.Code[offset])
		ops = append(ops, op)
		_, next := DisassembleInstruction(chunk, offset)
		offset = next
	}
	return ops
}
