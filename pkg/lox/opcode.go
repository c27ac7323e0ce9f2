package lox

import "fmt"

// OpCode is the closed set of VM instructions. Each is a single byte;
// operand-bearing instructions carry their immediates as the bytes that
// immediately follow in Chunk.Code.
type OpCode byte

const (
	OpConstant OpCode = iota // u8 const-idx
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal  // u8 slot
	OpSetLocal  // u8 slot
	OpGetGlobal // u8 name-const-idx
	OpDefGlobal // u8 name-const-idx
	OpSetGlobal // u8 name-const-idx
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump         // u16 BE forward displacement
	OpJumpIfFalse  // u16 BE forward displacement
	OpLoop         // u16 BE backward displacement
	OpReturn
)

var opcodeNames = [...]string{
	OpConstant:    "OP_CONSTANT",
	OpNil:         "OP_NIL",
	OpTrue:        "OP_TRUE",
	OpFalse:       "OP_FALSE",
	OpPop:         "OP_POP",
	OpGetLocal:    "OP_GET_LOCAL",
	OpSetLocal:    "OP_SET_LOCAL",
	OpGetGlobal:   "OP_GET_GLOBAL",
	OpDefGlobal:   "OP_DEFINE_GLOBAL",
	OpSetGlobal:   "OP_SET_GLOBAL",
	OpEqual:       "OP_EQUAL",
	OpGreater:     "OP_GREATER",
	OpLess:        "OP_LESS",
	OpAdd:         "OP_ADD",
	OpSubtract:    "OP_SUBTRACT",
	OpMultiply:    "OP_MULTIPLY",
	OpDivide:      "OP_DIVIDE",
	OpNot:         "OP_NOT",
	OpNegate:      "OP_NEGATE",
	OpPrint:       "OP_PRINT",
	OpJump:        "OP_JUMP",
	OpJumpIfFalse: "OP_JUMP_IF_FALSE",
	OpLoop:        "OP_LOOP",
	OpReturn:      "OP_RETURN",
}

// Name returns the human-readable mnemonic for op, falling back to a
// hex-coded placeholder for any value outside the closed enum.
func (op OpCode) Name() string {
	if int(op) >= 0 && int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))
}

func (op OpCode) String() string { return op.Name() }
