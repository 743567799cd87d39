package compiler

import "testing"

func lexTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexKeywordsCaseInsensitive(t *testing.T) {
	toks, err := Lex(`PRINT Print print`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	for i, tok := range toks[:3] {
		if tok.Type != PRINT {
			t.Errorf("token %d: got %v, want PRINT", i, tok.Type)
		}
	}
}

func TestLexIdentifierPreservesCase(t *testing.T) {
	toks, err := Lex(`myVariable`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if toks[0].Type != IDENTIFIER || toks[0].Lexeme != "myVariable" {
		t.Errorf("got %+v, want IDENTIFIER \"myVariable\"", toks[0])
	}
}

func TestLexIntegerFormats(t *testing.T) {
	cases := []struct{ src, lexeme string }{
		{"42", "42"},
		{"0x2A", "0x2A"},
		{"0b101010", "0b101010"},
	}
	for _, c := range cases {
		toks, err := Lex(c.src)
		if err != nil {
			t.Fatalf("Lex(%q) failed: %v", c.src, err)
		}
		if toks[0].Type != INTEGER || toks[0].Lexeme != c.lexeme {
			t.Errorf("Lex(%q): got %+v", c.src, toks[0])
		}
	}
}

func TestLexFloatRequiresDigitAfterDot(t *testing.T) {
	toks, err := Lex(`3.1415926535`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if toks[0].Type != FLOAT || toks[0].Lexeme != "3.1415926535" {
		t.Errorf("got %+v, want FLOAT 3.1415926535", toks[0])
	}
}

func TestLexNestedParentheticalComment(t *testing.T) {
	toks, err := Lex(`Print (a comment (with a nested aside)) "hi".`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	want := []TokenType{PRINT, QUOTED, PERIOD, EOF}
	if len(types) != len(want) {
		t.Fatalf("got %v tokens, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, types[i], want[i])
		}
	}
}

func TestLexUnterminatedCommentErrors(t *testing.T) {
	if _, err := Lex(`Print (never closed`); err == nil {
		t.Fatal("expected an error for an unterminated comment")
	}
}

func TestLexUnterminatedStringErrors(t *testing.T) {
	if _, err := Lex(`Print "never closed`); err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
}

func TestLexApostropheS(t *testing.T) {
	toks, err := Lex(`arguments's count`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if toks[1].Type != APOSTROPHE_S {
		t.Errorf("got %v, want APOSTROPHE_S", toks[1].Type)
	}
}

func TestLexCharLiteralYieldsByteValue(t *testing.T) {
	toks, err := Lex(`'A'`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if toks[0].Type != INTEGER || toks[0].Lexeme != "65" {
		t.Errorf("got %+v, want INTEGER 65", toks[0])
	}
}

func TestLexBareAssignmentOperatorRejected(t *testing.T) {
	if _, err := Lex(`x = 1`); err == nil {
		t.Fatal("expected an error: EC has no bare '=' operator")
	}
}

// TestLexToDefVsToKeyword confirms the sentence-initial capitalized "To"
// that heads a function definition lexes differently from the lowercase
// "to" used as a range/unit preposition mid-sentence.
func TestLexToDefVsToKeyword(t *testing.T) {
	types := lexTypes(t, `To "double" with a number called "n". Return a number.`)
	if types[0] != TO_DEF {
		t.Errorf("got %v for sentence-initial \"To\", want TO_DEF", types[0])
	}

	types = lexTypes(t, `For each n from 1 to 15, print n.`)
	foundToKw := false
	for _, tt := range types {
		if tt == TO_DEF {
			t.Errorf("range preposition \"to\" should never lex as TO_DEF")
		}
		if tt == TO_KW {
			foundToKw = true
		}
	}
	if !foundToKw {
		t.Error("expected a TO_KW token for the range preposition")
	}
}

func TestLexToMidSentenceIsNotToDef(t *testing.T) {
	// A capitalized "To" that does NOT start a sentence must still lex as
	// TO_KW, since only sentence-initial position distinguishes the
	// function-header keyword.
	types := lexTypes(t, `Print 1. Wait 5 seconds. For each n from 1 To 3, print n.`)
	for _, tt := range types {
		if tt == TO_DEF {
			t.Error("mid-sentence \"To\" should not lex as TO_DEF")
		}
	}
}
