package lox

import (
	"fmt"
	"io"
	"os"
)

// VM is a single-threaded, synchronous bytecode interpreter: one owned
// value stack, one owned global table, one owned string-intern table, and
// whatever Chunk is currently installed by Run.
type VM struct {
	stack   []Value
	globals map[string]Value
	strings *Strings

	chunk *Chunk
	ip    int
	fault error

	trace bool
	out   io.Writer
}

// NewVM returns a VM with empty globals and a fresh string table, printing
// to stdout.
func NewVM() *VM {
	return &VM{
		globals: make(map[string]Value),
		strings: newStrings(),
		out:     os.Stdout,
	}
}

// SetTrace toggles per-instruction disassembly logging during Run.
func (vm *VM) SetTrace(on bool) { vm.trace = on }

// SetOutput redirects OpPrint output, for tests that want to capture it.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// Strings returns the VM's owned intern table, so a Parser compiling for
// this VM shares its string identities.
func (vm *VM) Strings() *Strings { return vm.strings }

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

// pop removes and returns the top of the stack. Popping an empty stack
// indicates a compiler/VM bug (an opcode consuming more values than were
// ever pushed for it) rather than a valid program outcome; it records a
// sticky fault instead of panicking, so a broken instruction stream
// degrades to a reported runtime error and the REPL loop can keep going.
func (vm *VM) pop() Value {
	if len(vm.stack) == 0 {
		vm.fault = ErrStackUnderflow
		return NilValue
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// peek reads distance slots down from the top without mutating the stack,
// recording the same sticky fault as pop on underflow.
func (vm *VM) peek(distance int) Value {
	idx := len(vm.stack) - 1 - distance
	if idx < 0 {
		vm.fault = ErrStackUnderflow
		return NilValue
	}
	return vm.stack[idx]
}

func (vm *VM) runtimeError(err error) error {
	line := 0
	if vm.chunk != nil && vm.ip > 0 {
		line = vm.chunk.Line(vm.ip - 1)
	}
	vm.stack = vm.stack[:0]
	return &RuntimeError{Line: line, Err: err}
}

// VFun is the minimal script-function record the VM actually executes: a
// compiled Chunk plus the name used to label it in traces and
// disassembly. There are no closures or first-class functions in this
// language, so the VM never has more than one VFun active at a time —
// the implicit top-level script — and never builds a call stack of
// frames beyond it.
type VFun struct {
	Chunk *Chunk
	Name  string
}

// Interpret compiles src against this VM's string table and, on success,
// wraps the resulting chunk in a VFun and runs it. A compile error is
// returned as-is (a *multierror.Error) without ever reaching Run.
func Interpret(vm *VM, src string) error {
	p := NewParser(vm.strings)
	chunk, err := p.Compile(src)
	if err != nil {
		return err
	}
	return vm.Run(&VFun{Chunk: chunk, Name: "script"})
}

// Run installs fn and executes its chunk from offset 0 to completion or
// until a runtime error halts it. The stack and ip reset on each call;
// globals and the intern table persist across calls, so a REPL can build
// state session over many Run calls.
func (vm *VM) Run(fn *VFun) error {
	vm.chunk = fn.Chunk
	vm.ip = 0
	vm.stack = vm.stack[:0]
	vm.fault = nil

	for {
		if vm.trace {
			inst, _ := DisassembleInstruction(vm.chunk, vm.ip)
			log.WithField("component", "vm").WithField("fn", fn.Name).Debugln(inst)
		}

		op := OpCode(vm.chunk.Code[vm.ip])
		vm.ip++

		switch op {
		case OpConstant:
			vm.push(vm.readConstant())

		case OpNil:
			vm.push(NilValue)
		case OpTrue:
			vm.push(BoolValue(true))
		case OpFalse:
			vm.push(BoolValue(false))

		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := vm.readByte()
			vm.push(vm.stack[slot])
		case OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.peek(0)

		case OpGetGlobal:
			name := vm.readConstant().AsString()
			v, ok := vm.globals[name.Chars]
			if !ok {
				return vm.runtimeError(fmt.Errorf("%w: %s", ErrUndefinedVariable, name.Chars))
			}
			vm.push(v)
		case OpDefGlobal:
			name := vm.readConstant().AsString()
			vm.globals[name.Chars] = vm.peek(0)
			vm.pop()
		case OpSetGlobal:
			name := vm.readConstant().AsString()
			if _, ok := vm.globals[name.Chars]; !ok {
				return vm.runtimeError(fmt.Errorf("%w: %s", ErrUndefinedVariable, name.Chars))
			}
			vm.globals[name.Chars] = vm.peek(0)

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolValue(Equal(a, b)))
		case OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return BoolValue(a > b) }); err != nil {
				return err
			}
		case OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return BoolValue(a < b) }); err != nil {
				return err
			}

		case OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a - b) }); err != nil {
				return err
			}
		case OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a * b) }); err != nil {
				return err
			}
		case OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a / b) }); err != nil {
				return err
			}

		case OpNot:
			vm.push(BoolValue(vm.pop().Falsey()))
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(&TypeError{Expected: "number", Found: vm.peek(0).Kind})
			}
			vm.push(NumberValue(-vm.pop().AsNumber()))

		case OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case OpJump:
			offset := vm.readU16()
			vm.ip += int(offset)
		case OpJumpIfFalse:
			offset := vm.readU16()
			if vm.peek(0).Falsey() {
				vm.ip += int(offset)
			}
		case OpLoop:
			offset := vm.readU16()
			vm.ip -= int(offset)

		case OpReturn:
			return nil

		default:
			return vm.runtimeError(fmt.Errorf("%w: 0x%02X", ErrInvalidOpcode, byte(op)))
		}

		if vm.fault != nil {
			return vm.runtimeError(vm.fault)
		}
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() Value {
	return vm.chunk.Constants[vm.readByte()]
}

// readU16 decodes the big-endian two-byte operand at ip and advances past
// it. High byte first, matching Chunk.WriteU16/ReadU16.
func (vm *VM) readU16() uint16 {
	hi := vm.readByte()
	lo := vm.readByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) binaryNumberOp(f func(a, b float64) Value) error {
	if !vm.peek(0).IsNumber() {
		return vm.runtimeError(&TypeError{Expected: "number", Found: vm.peek(0).Kind})
	}
	if !vm.peek(1).IsNumber() {
		return vm.runtimeError(&TypeError{Expected: "number", Found: vm.peek(1).Kind})
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(f(a, b))
	return nil
}

// add implements the language's overloaded '+': numeric addition when both
// operands are numbers, interned concatenation whenever either operand is
// a string (stringifying the other operand first), and InvalidAddition
// otherwise.
func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(NumberValue(a.AsNumber() + b.AsNumber()))
	case a.IsString() || b.IsString():
		vm.pop()
		vm.pop()
		left := vm.strings.Intern(a.String())
		right := vm.strings.Intern(b.String())
		vm.push(StringValue(vm.strings.Concat(left, right)))
	default:
		return vm.runtimeError(fmt.Errorf("%w", ErrInvalidAddition))
	}
	return nil
}
