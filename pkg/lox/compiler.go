package lox

import (
	"math"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// uninitializedDepth marks a local that has been declared but not yet
// initialized: its own initializer expression may not reference it.
const uninitializedDepth = -1

// MaxLocals is the per-scope-stack limit: a local's runtime stack slot is
// its index in this sequence, and that index must fit in one byte.
const MaxLocals = 256

type local struct {
	name  Token
	depth int
}

// Compiler tracks the compile-time local-variable stack for the scope
// currently being compiled. There is exactly one: this language has no
// first-class functions, so there is never more than one active chunk.
type Compiler struct {
	locals []local
	depth  int
}

func newCompiler() *Compiler { return &Compiler{} }

// Parser is the token cursor driving single-pass compilation: it holds
// previous/current tokens, the panic/error state, and emits directly into
// the Chunk being compiled. There is no intermediate AST — the call stack
// of parsePrecedence acts as the tree.
type Parser struct {
	*Scanner
	chunk    *Chunk
	compiler *Compiler
	strings  *Strings

	prev, curr Token

	errors    *multierror.Error
	panicMode bool
}

// NewParser returns a Parser that interns string and identifier constants
// into strs.
func NewParser(strs *Strings) *Parser {
	return &Parser{strings: strs, compiler: newCompiler()}
}

// Compile tokenizes and compiles src in a single pass, returning the
// resulting Chunk. Compilation always runs to completion (to surface as
// many independent errors as possible); err is non-nil iff any error was
// recorded during the pass, and the chunk should not be run.
func (p *Parser) Compile(src string) (*Chunk, error) {
	p.Scanner = NewScanner(src)
	p.chunk = NewChunk()
	p.compiler = newCompiler()
	p.errors = nil
	p.panicMode = false

	p.advance()
	for !p.match(TEOF) {
		p.declaration()
	}
	p.endCompiler()

	return p.chunk, p.errors.ErrorOrNil()
}

/* token cursor */

func (p *Parser) advance() {
	p.prev = p.curr
	for {
		p.curr = p.ScanToken()
		if p.curr.Type != TErrUnterminatedString && p.curr.Type != TErrUnexpectedCharacter {
			break
		}
		p.errorAtCurrent(p.curr.Type.String())
	}
}

func (p *Parser) check(t TokenType) bool { return p.curr.Type == t }

func (p *Parser) match(t TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t TokenType, msg string) {
	if p.check(t) {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

/* error reporting */

func (p *Parser) errorAt(tok Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	where := "at end"
	if tok.Type != TEOF {
		where = "at '" + tok.Lexeme + "'"
	}
	log.WithField("component", "compiler").Debugf("[line %d] Error %s: %s", tok.Line, where, msg)
	p.errors = multierror.Append(p.errors, &CompileError{Line: tok.Line, Reason: where + ": " + msg})
}

func (p *Parser) error(msg string)        { p.errorAt(p.prev, msg) }
func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.curr, msg) }

func (p *Parser) synchronize() {
	p.panicMode = false
	for p.curr.Type != TEOF {
		if p.prev.Type == TSemicolon {
			return
		}
		switch p.curr.Type {
		case TClass, TFun, TVar, TFor, TIf, TWhile, TPrint, TReturn:
			return
		}
		p.advance()
	}
}

/* emission helpers */

func (p *Parser) emitByte(b byte)    { p.chunk.Write(b, p.prev.Line) }
func (p *Parser) emitOp(op OpCode)   { p.emitByte(byte(op)) }
func (p *Parser) emitOps(ops ...OpCode) {
	for _, op := range ops {
		p.emitOp(op)
	}
}

func (p *Parser) makeConstant(v Value) byte {
	idx, err := p.chunk.AddConst(v)
	if err != nil {
		p.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (p *Parser) emitConstant(v Value) {
	p.emitOp(OpConstant)
	p.emitByte(p.makeConstant(v))
}

func (p *Parser) endCompiler() {
	p.emitOp(OpReturn)
	log.WithField("component", "compiler").Debugln(Disassemble(p.chunk, "script"))
}

// emitJump writes op followed by a two-byte placeholder displacement and
// returns the offset of the first placeholder byte, to be fixed up later
// by patchJump.
func (p *Parser) emitJump(op OpCode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk.Code) - 2
}

// patchJump backfills the displacement at offset with the distance from
// just after the placeholder to the current end of the chunk.
func (p *Parser) patchJump(offset int) {
	jump := len(p.chunk.Code) - offset - 2
	if jump > math.MaxUint16 {
		p.error(ErrTooMuchToJump.Error())
		return
	}
	p.chunk.Code[offset] = byte(jump >> 8)
	p.chunk.Code[offset+1] = byte(jump)
}

// emitLoop writes OpLoop followed by the backward displacement to
// loopStart.
func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(OpLoop)
	offset := len(p.chunk.Code) - loopStart + 2
	if offset > math.MaxUint16 {
		p.error(ErrTooFarToLoop.Error())
		return
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

/* precedence table */

type Prec int

const (
	PrecNone Prec = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          Prec
}

var rules = map[TokenType]parseRule{
	TLeftParen:    {(*Parser).grouping, nil, PrecNone},
	TMinus:        {(*Parser).unary, (*Parser).binary, PrecTerm},
	TPlus:         {nil, (*Parser).binary, PrecTerm},
	TSlash:        {nil, (*Parser).binary, PrecFactor},
	TStar:         {nil, (*Parser).binary, PrecFactor},
	TBang:         {(*Parser).unary, nil, PrecNone},
	TBangEqual:    {nil, (*Parser).binary, PrecEquality},
	TEqualEqual:   {nil, (*Parser).binary, PrecEquality},
	TGreater:      {nil, (*Parser).binary, PrecComparison},
	TGreaterEqual: {nil, (*Parser).binary, PrecComparison},
	TLess:         {nil, (*Parser).binary, PrecComparison},
	TLessEqual:    {nil, (*Parser).binary, PrecComparison},
	TIdentifier:   {(*Parser).variable, nil, PrecNone},
	TString:       {(*Parser).string_, nil, PrecNone},
	TNumber:       {(*Parser).number, nil, PrecNone},
	TAnd:          {nil, (*Parser).and_, PrecAnd},
	TOr:           {nil, (*Parser).or_, PrecOr},
	TFalse:        {(*Parser).literal, nil, PrecNone},
	TNil:          {(*Parser).literal, nil, PrecNone},
	TTrue:         {(*Parser).literal, nil, PrecNone},
}

func rule(t TokenType) parseRule { return rules[t] }

func (p *Parser) parsePrecedence(prec Prec) {
	p.advance()
	prefix := rule(p.prev.Type).prefix
	if prefix == nil {
		p.error("Expected expression")
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(p, canAssign)

	for prec <= rule(p.curr.Type).prec {
		p.advance()
		infix := rule(p.prev.Type).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(TEqual) {
		p.error("Invalid assignment target")
	}
}

func (p *Parser) expression() { p.parsePrecedence(PrecAssignment) }

/* expression handlers */

func (p *Parser) grouping(_ bool) {
	p.expression()
	p.consume(TRightParen, "Expect ')' after expression")
}

func (p *Parser) unary(_ bool) {
	op := p.prev.Type
	p.parsePrecedence(PrecUnary)
	switch op {
	case TBang:
		p.emitOp(OpNot)
	case TMinus:
		p.emitOp(OpNegate)
	}
}

func (p *Parser) binary(_ bool) {
	op := p.prev.Type
	r := rule(op)
	p.parsePrecedence(r.prec + 1)

	switch op {
	case TBangEqual:
		p.emitOps(OpEqual, OpNot)
	case TEqualEqual:
		p.emitOp(OpEqual)
	case TGreater:
		p.emitOp(OpGreater)
	case TGreaterEqual:
		p.emitOps(OpLess, OpNot)
	case TLess:
		p.emitOp(OpLess)
	case TLessEqual:
		p.emitOps(OpGreater, OpNot)
	case TPlus:
		p.emitOp(OpAdd)
	case TMinus:
		p.emitOp(OpSubtract)
	case TStar:
		p.emitOp(OpMultiply)
	case TSlash:
		p.emitOp(OpDivide)
	}
}

func (p *Parser) number(_ bool) {
	v, err := strconv.ParseFloat(p.prev.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal")
		return
	}
	p.emitConstant(NumberValue(v))
}

func (p *Parser) string_(_ bool) {
	lexeme := p.prev.Lexeme
	unquoted := lexeme[1 : len(lexeme)-1]
	p.emitConstant(StringValue(p.strings.Intern(unquoted)))
}

func (p *Parser) literal(_ bool) {
	switch p.prev.Type {
	case TFalse:
		p.emitOp(OpFalse)
	case TNil:
		p.emitOp(OpNil)
	case TTrue:
		p.emitOp(OpTrue)
	}
}

func (p *Parser) variable(canAssign bool) { p.namedVariable(p.prev, canAssign) }

func (p *Parser) namedVariable(name Token, canAssign bool) {
	var getOp, setOp OpCode
	arg, isLocal := p.resolveLocal(name)
	if isLocal {
		getOp, setOp = OpGetLocal, OpSetLocal
	} else {
		arg = p.identifierConstant(name)
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}

	if canAssign && p.match(TEqual) {
		p.expression()
		p.emitOp(setOp)
		p.emitByte(arg)
		return
	}
	p.emitOp(getOp)
	p.emitByte(arg)
}

func (p *Parser) and_(_ bool) {
	endJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func (p *Parser) or_(_ bool) {
	elseJump := p.emitJump(OpJumpIfFalse)
	endJump := p.emitJump(OpJump)
	p.patchJump(elseJump)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

/* statements */

func (p *Parser) declaration() {
	switch {
	case p.match(TVar):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) varDeclaration() {
	global, hasGlobal := p.parseVariable("Expect variable name")

	if p.match(TEqual) {
		p.expression()
	} else {
		p.emitOp(OpNil)
	}
	p.consume(TSemicolon, "Expect ';' after variable declaration")

	p.defineVariable(global, hasGlobal)
}

func (p *Parser) statement() {
	switch {
	case p.match(TPrint):
		p.printStatement()
	case p.match(TIf):
		p.ifStatement()
	case p.match(TWhile):
		p.whileStatement()
	case p.match(TFor):
		p.forStatement()
	case p.match(TLeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(TSemicolon, "Expect ';' after value")
	p.emitOp(OpPrint)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(TSemicolon, "Expect ';' after expression")
	p.emitOp(OpPop)
}

func (p *Parser) block() {
	for !p.check(TRightBrace) && !p.check(TEOF) {
		p.declaration()
	}
	p.consume(TRightBrace, "Expect '}' after block")
}

func (p *Parser) ifStatement() {
	p.consume(TLeftParen, "Expect '(' after 'if'")
	p.expression()
	p.consume(TRightParen, "Expect ')' after condition")

	thenJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()

	elseJump := p.emitJump(OpJump)
	p.patchJump(thenJump)
	p.emitOp(OpPop)

	if p.match(TElse) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.chunk.Code)
	p.consume(TLeftParen, "Expect '(' after 'while'")
	p.expression()
	p.consume(TRightParen, "Expect ')' after condition")

	exitJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OpPop)
}

func (p *Parser) forStatement() {
	p.beginScope()

	p.consume(TLeftParen, "Expect '(' after 'for'")
	switch {
	case p.match(TSemicolon):
		// no initializer
	case p.match(TVar):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk.Code)
	exitJump := -1
	if !p.match(TSemicolon) {
		p.expression()
		p.consume(TSemicolon, "Expect ';' after loop condition")
		exitJump = p.emitJump(OpJumpIfFalse)
		p.emitOp(OpPop)
	}

	if !p.match(TRightParen) {
		bodyJump := p.emitJump(OpJump)
		incrementStart := len(p.chunk.Code)
		p.expression()
		p.emitOp(OpPop)
		p.consume(TRightParen, "Expect ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OpPop)
	}

	p.endScope()
}

/* scopes and locals */

func (p *Parser) beginScope() { p.compiler.depth++ }

func (p *Parser) endScope() {
	p.compiler.depth--
	locals := p.compiler.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.compiler.depth {
		p.emitOp(OpPop)
		locals = locals[:len(locals)-1]
	}
	p.compiler.locals = locals
}

// parseVariable consumes the variable name and, for a global, returns its
// constant-pool index; for a local, declareVariable already registered it
// and hasGlobal is false.
func (p *Parser) parseVariable(msg string) (global byte, hasGlobal bool) {
	p.consume(TIdentifier, msg)
	name := p.prev

	p.declareVariable(name)
	if p.compiler.depth > 0 {
		return 0, false
	}
	return p.identifierConstant(name), true
}

func (p *Parser) identifierConstant(name Token) byte {
	return p.makeConstant(StringValue(p.strings.Intern(name.Lexeme)))
}

func (p *Parser) declareVariable(name Token) {
	if p.compiler.depth == 0 {
		return
	}
	locals := p.compiler.locals
	for i := len(locals) - 1; i >= 0; i-- {
		l := locals[i]
		if l.depth != uninitializedDepth && l.depth < p.compiler.depth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			p.error(ErrDuplicateName.Error())
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name Token) {
	if len(p.compiler.locals) >= MaxLocals {
		p.error(ErrTooManyLocals.Error())
		return
	}
	p.compiler.locals = append(p.compiler.locals, local{name: name, depth: uninitializedDepth})
}

func (p *Parser) defineVariable(global byte, hasGlobal bool) {
	if !hasGlobal {
		p.markInitialized()
		return
	}
	p.emitOp(OpDefGlobal)
	p.emitByte(global)
}

func (p *Parser) markInitialized() {
	if p.compiler.depth == 0 {
		return
	}
	p.compiler.locals[len(p.compiler.locals)-1].depth = p.compiler.depth
}

// resolveLocal walks locals back-to-front looking for name, returning its
// slot and true if found. A local whose initializer is still running
// (depth == uninitializedDepth) is reported as an error but its slot is
// still returned, so compilation continues and can surface further
// independent errors rather than aborting on the first one.
func (p *Parser) resolveLocal(name Token) (slot byte, found bool) {
	locals := p.compiler.locals
	for i := len(locals) - 1; i >= 0; i-- {
		if locals[i].name.Lexeme == name.Lexeme {
			if locals[i].depth == uninitializedDepth {
				p.error(ErrUninitializedLocal.Error())
			}
			return byte(i), true
		}
	}
	return 0, false
}
