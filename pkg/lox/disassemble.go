package lox

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in chunk as human-readable text,
// headed by name. It is the offline counterpart to the VM's own -trace
// instruction log: same per-instruction formatting, no execution.
func Disassemble(chunk *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		var line string
		line, offset = DisassembleInstruction(chunk, offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInstruction formats the single instruction starting at offset
// and returns it alongside the offset of the next instruction.
func DisassembleInstruction(chunk *Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	line := chunk.Line(offset)
	if offset > 0 && line == chunk.Line(offset-1) {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", line)
	}

	op := OpCode(chunk.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefGlobal, OpSetGlobal:
		return constantInstruction(&b, op, chunk, offset)
	case OpGetLocal, OpSetLocal:
		return byteInstruction(&b, op, chunk, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(&b, op, 1, chunk, offset)
	case OpLoop:
		return jumpInstruction(&b, op, -1, chunk, offset)
	case OpNil, OpTrue, OpFalse, OpPop, OpEqual, OpGreater, OpLess,
		OpAdd, OpSubtract, OpMultiply, OpDivide, OpNot, OpNegate,
		OpPrint, OpReturn:
		return simpleInstruction(&b, op), offset + 1
	default:
		b.WriteString(op.Name())
		return b.String(), offset + 1
	}
}

func simpleInstruction(b *strings.Builder, op OpCode) string {
	b.WriteString(op.Name())
	return b.String()
}

func constantInstruction(b *strings.Builder, op OpCode, chunk *Chunk, offset int) (string, int) {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%v'", op.Name(), idx, chunk.Constants[idx])
	return b.String(), offset + 2
}

func byteInstruction(b *strings.Builder, op OpCode, chunk *Chunk, offset int) (string, int) {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d", op.Name(), slot)
	return b.String(), offset + 2
}

func jumpInstruction(b *strings.Builder, op OpCode, sign int, chunk *Chunk, offset int) (string, int) {
	jump := int(chunk.ReadU16(offset + 1))
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d", op.Name(), offset, target)
	return b.String(), offset + 3
}
