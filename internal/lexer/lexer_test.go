package lexer

import (
	"math"
	"strings"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `const x = 5;
	x = x + 10;
	`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{CONST, "const"},
		{IDENT, "x"},
		{ASSIGN, ""},
		{NUMBER, "5"},
		{SEMI, ""},
		{IDENT, "x"},
		{ASSIGN, ""},
		{IDENT, "x"},
		{PLUS, ""},
		{NUMBER, "10"},
		{SEMI, ""},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tt.expectedLiteral != "" && tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := "var let const function class extends static " +
		"if else for while do switch case default break continue return throw try catch finally with debugger " +
		"new delete typeof instanceof in of void this super yield async await get set true false null"

	expected := []TokenType{
		VAR, LET, CONST, FUNCTION, CLASS, EXTENDS, STATIC,
		IF, ELSE, FOR, WHILE, DO, SWITCH, CASE, DEFAULT, BREAK, CONTINUE, RETURN, THROW, TRY, CATCH, FINALLY, WITH, DEBUGGER,
		NEW, DELETE, TYPEOF, INSTANCEOF, IN, OF, VOID, THIS, SUPER, YIELD, ASYNC, AWAIT, GET, SET, TRUE, FALSE, NULL_KW,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token[%d]: expected %s, got %s (literal=%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input    string
		wantType TokenType
		wantNum  float64
	}{
		{"0", NUMBER, 0},
		{"42", NUMBER, 42},
		{"3.14", NUMBER, 3.14},
		{"1e3", NUMBER, 1000},
		{"1.5e-2", NUMBER, 0.015},
		{"0x1F", NUMBER, 31},
		{"0o17", NUMBER, 15},
		{"0b101", NUMBER, 5},
		{"1_000", NUMBER, 1000},
		{"10n", BIGINT, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()
			if tok.Type != tt.wantType {
				t.Fatalf("input %q: expected type %s, got %s", tt.input, tt.wantType, tok.Type)
			}
			if tt.wantType == NUMBER && tok.NumValue != tt.wantNum {
				t.Fatalf("input %q: expected value %v, got %v", tt.input, tt.wantNum, tok.NumValue)
			}
		})
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"\x41"`, "A"},
		{`"A"`, "A"},
		{`"\u{1F600}"`, "\U0001F600"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()
			if tok.Type != STRING {
				t.Fatalf("input %q: expected STRING, got %s", tt.input, tok.Type)
			}
			if tok.Literal != tt.want {
				t.Fatalf("input %q: expected %q, got %q", tt.input, tt.want, tok.Literal)
			}
		})
	}
}

// TestRegexVsDivision exercises the lexer's central lookahead-free
// disambiguation: a '/' starts a regex literal after a token that
// cannot end an expression, and division otherwise.
func TestRegexVsDivision(t *testing.T) {
	l := New("a / b")
	var types []TokenType
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		types = append(types, tok.Type)
	}
	want := []TokenType{IDENT, SLASH, IDENT}
	if len(types) != len(want) {
		t.Fatalf("a / b: got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("a / b: token[%d] = %s, want %s", i, types[i], want[i])
		}
	}

	l2 := New("return /abc/;")
	l2.NextToken() // return
	tok := l2.NextToken()
	if tok.Type != REGEX {
		t.Fatalf("after return, / should start a regex, got %s", tok.Type)
	}
	if tok.Literal != "abc" {
		t.Fatalf("regex body = %q, want %q", tok.Literal, "abc")
	}
}

func TestTemplateLiteral(t *testing.T) {
	l := New("`a${b}c`")
	tok := l.NextToken()
	if tok.Type != TEMPLATE_HEAD || tok.TemplateCooked != "a" {
		t.Fatalf("head: got %s %q", tok.Type, tok.TemplateCooked)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "b" {
		t.Fatalf("substitution: got %s %q", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != TEMPLATE_TAIL || tok.TemplateCooked != "c" {
		t.Fatalf("tail: got %s %q", tok.Type, tok.TemplateCooked)
	}
}

// TestTemplateNestedObjectBrace ensures a '}' belonging to an object
// literal nested inside a substitution doesn't get mistaken for the
// substitution's closing brace (readPunctuator tracks the braces it
// scans; the paired calls below leave the depth balanced).
func TestTemplateNestedObjectBrace(t *testing.T) {
	l := New("`${ {a: 1} }`")
	var types []TokenType
	for i := 0; i < 10; i++ {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == LBRACE {
			l.TrackBrace(true)
		}
		if tok.Type == RBRACE {
			l.TrackBrace(false)
		}
		if tok.Type == TEMPLATE_TAIL || tok.Type == EOF {
			break
		}
	}
	last := types[len(types)-1]
	if last != TEMPLATE_TAIL {
		t.Fatalf("expected template to close with TEMPLATE_TAIL, got sequence %v", types)
	}
}

func TestASINewlineFlag(t *testing.T) {
	l := New("a\nb")
	tok := l.NextToken()
	if tok.PrecededByNewline {
		t.Fatalf("first token should not be marked PrecededByNewline")
	}
	tok = l.NextToken()
	if !tok.PrecededByNewline {
		t.Fatalf("second token should be marked PrecededByNewline")
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	l := New("café = 1")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "café" {
		t.Fatalf("expected unicode identifier café, got %s %q", tok.Type, tok.Literal)
	}
}

func TestBOMStripped(t *testing.T) {
	l := New("﻿let x = 1;")
	tok := l.NextToken()
	if tok.Type != LET {
		t.Fatalf("expected LET after stripped BOM, got %s", tok.Type)
	}
}

func TestLexerErrors(t *testing.T) {
	l := New(`"unterminated`)
	l.NextToken()
	if len(l.Errors()) == 0 {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}

func TestWithTracing(t *testing.T) {
	var buf strings.Builder
	l := New("1 + 1", WithTracing(&buf))
	for {
		if tok := l.NextToken(); tok.Type == EOF {
			break
		}
	}
	if !strings.Contains(buf.String(), "NUMBER") {
		t.Fatalf("trace output missing NUMBER token: %q", buf.String())
	}
}

func TestWithPreserveComments(t *testing.T) {
	l := New("// hi\n1", WithPreserveComments(true))
	tok := l.NextToken()
	if tok.Type != COMMENT {
		t.Fatalf("expected COMMENT token to be preserved, got %s", tok.Type)
	}
}

func TestMaximalMunchPunctuators(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{">>>=", USHR_ASSIGN},
		{">>>", USHR},
		{">>=", SHR_ASSIGN},
		{"**=", POW_ASSIGN},
		{"??=", NULLISH_ASSIGN},
		{"?.", QUESTION_DOT},
		{"...", ELLIPSIS},
		{"=>", ARROW},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.want {
			t.Fatalf("input %q: expected %s, got %s", tt.input, tt.want, tok.Type)
		}
	}
}

func TestNumericLiteralOverflowIsInfinity(t *testing.T) {
	l := New("1e400")
	tok := l.NextToken()
	if tok.Type != NUMBER || !math.IsInf(tok.NumValue, 1) {
		t.Fatalf("expected 1e400 to lex as +Inf, got %s %v", tok.Type, tok.NumValue)
	}
}
