package lox

import (
	"github.com/sirupsen/logrus"
)

// Scanner produces a lazy sequence of tokens from source text. Source is
// held as a string so Lexeme can borrow directly into it without copying.
type Scanner struct {
	src     string
	start   int
	pos     int
	line    int
	trace   bool
	log     *logrus.Entry
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{
		src:  src,
		line: 1,
		log:  log.WithField("component", "scanner"),
	}
}

// SetTrace toggles debug logging of each scanned token.
func (s *Scanner) SetTrace(on bool) { s.trace = on }

// ScanToken returns the next token in the source, skipping whitespace and
// comments first.
func (s *Scanner) ScanToken() (tok Token) {
	if s.trace {
		defer func() { s.log.Debugf("scanned %v %q at line %d", tok.Type, tok.Lexeme, tok.Line) }()
	}
	s.skipWhitespace()
	s.start = s.pos

	if s.atEnd() {
		return s.make(TEOF)
	}

	c := s.advance()

	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		tok = s.make(TLeftParen)
	case ')':
		tok = s.make(TRightParen)
	case '{':
		tok = s.make(TLeftBrace)
	case '}':
		tok = s.make(TRightBrace)
	case ';':
		tok = s.make(TSemicolon)
	case ',':
		tok = s.make(TComma)
	case '.':
		tok = s.make(TDot)
	case '-':
		tok = s.make(TMinus)
	case '+':
		tok = s.make(TPlus)
	case '/':
		tok = s.make(TSlash)
	case '*':
		tok = s.make(TStar)
	case '!':
		tok = s.make(s.twoChar('=', TBangEqual, TBang))
	case '=':
		tok = s.make(s.twoChar('=', TEqualEqual, TEqual))
	case '<':
		tok = s.make(s.twoChar('=', TLessEqual, TLess))
	case '>':
		tok = s.make(s.twoChar('=', TGreaterEqual, TGreater))
	case '"':
		tok = s.string()
	default:
		tok = s.errorToken(TErrUnexpectedCharacter)
	}
	return tok
}

func (s *Scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peekNext() byte {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

// twoChar consumes the pending char if it equals expect, returning matched
// when it does (greedy match on the trailing '=').
func (s *Scanner) twoChar(expect byte, matched, unmatched TokenType) TokenType {
	if s.atEnd() || s.src[s.pos] != expect {
		return unmatched
	}
	s.pos++
	return matched
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.pos++
		case '\n':
			s.line++
			s.pos++
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.pos++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.pos++
	}
	if s.atEnd() {
		return s.errorToken(TErrUnterminatedString)
	}
	s.pos++ // closing quote
	return s.make(TString)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.pos++
	}
	// A trailing '.' with no following digit is left unconsumed.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.pos++
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	return s.make(TNumber)
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.pos++
	}
	text := s.src[s.start:s.pos]
	if kind, ok := keywords[text]; ok {
		return s.make(kind)
	}
	return s.make(TIdentifier)
}

func (s *Scanner) make(kind TokenType) Token {
	return Token{Type: kind, Lexeme: s.src[s.start:s.pos], Line: s.line}
}

func (s *Scanner) errorToken(kind TokenType) Token {
	return Token{Type: kind, Lexeme: kind.String(), Line: s.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
