package lox

import "testing"

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	s := NewScanner(src)
	var toks []Token
	for {
		tok := s.ScanToken()
		toks = append(toks, tok)
		if tok.Type == TEOF {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){};,.+-*/! != = == < <= > >=")
	want := []TokenType{
		TLeftParen, TRightParen, TLeftBrace, TRightBrace, TSemicolon, TComma, TDot,
		TPlus, TMinus, TStar, TSlash, TBang, TBangEqual, TEqual, TEqualEqual,
		TLess, TLessEqual, TGreater, TGreaterEqual, TEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	toks := scanAll(t, "var and orange print")
	want := []TokenType{TVar, TAnd, TIdentifier, TPrint, TEOF}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
	if toks[2].Lexeme != "orange" {
		t.Errorf("expected 'orange' to scan as identifier, not a keyword prefix match, got %q", toks[2].Lexeme)
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "123 45.67 89.")
	if toks[0].Lexeme != "123" {
		t.Errorf("got %q, want 123", toks[0].Lexeme)
	}
	if toks[1].Lexeme != "45.67" {
		t.Errorf("got %q, want 45.67", toks[1].Lexeme)
	}
	// a trailing bare dot is not consumed into the number
	if toks[2].Lexeme != "89" {
		t.Errorf("got %q, want 89 (trailing dot left for caller)", toks[2].Lexeme)
	}
	if toks[3].Type != TDot {
		t.Errorf("expected dot token after 89, got %v", toks[3].Type)
	}
}

func TestScanStringLiteral(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	if toks[0].Type != TString {
		t.Fatalf("expected TString, got %v", toks[0].Type)
	}
	if toks[0].Lexeme != `"hello world"` {
		t.Errorf("expected lexeme to retain quotes, got %q", toks[0].Lexeme)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"oops`)
	if toks[0].Type != TErrUnterminatedString {
		t.Errorf("expected TErrUnterminatedString, got %v", toks[0].Type)
	}
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "1\n2\n3")
	if toks[0].Line != 1 || toks[1].Line != 2 || toks[2].Line != 3 {
		t.Errorf("line tracking off: %d %d %d", toks[0].Line, toks[1].Line, toks[2].Line)
	}
}

func TestScanLineCommentSkipped(t *testing.T) {
	toks := scanAll(t, "1 // a comment\n2")
	if toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
	if toks[1].Line != 2 {
		t.Errorf("expected second number on line 2, got %d", toks[1].Line)
	}
}
