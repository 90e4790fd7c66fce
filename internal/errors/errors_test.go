package errors

import (
	"strings"
	"testing"

	"github.com/jsvm/jsvm/internal/lexer"
)

func TestStage_JSErrorName(t *testing.T) {
	for _, stage := range []Stage{StageLexer, StageParser, StageCompiler} {
		if got := stage.JSErrorName(); got != "SyntaxError" {
			t.Errorf("stage %v: expected SyntaxError, got %q", stage, got)
		}
	}
}

func TestCompilerError_Format(t *testing.T) {
	src := "let x = ;\n"
	err := NewCompilerError(StageParser, lexer.Position{Line: 1, Column: 9}, "unexpected token ';'", src, "main.js")

	out := err.Format(false)
	if !strings.Contains(out, "SyntaxError (parser) in main.js:1:9") {
		t.Errorf("missing header in output:\n%s", out)
	}
	if !strings.Contains(out, "let x = ;") {
		t.Errorf("missing source line in output:\n%s", out)
	}
	if !strings.Contains(out, "unexpected token ';'") {
		t.Errorf("missing message in output:\n%s", out)
	}
}

func TestCompilerError_Format_NoFile(t *testing.T) {
	err := NewCompilerError(StageLexer, lexer.Position{Line: 2, Column: 1}, "invalid escape sequence", "a\n\\q", "")
	out := err.Format(false)
	if !strings.Contains(out, "SyntaxError (lexer) at 2:1") {
		t.Errorf("missing no-file header in output:\n%s", out)
	}
}

func TestCompilerError_JSErrorName(t *testing.T) {
	err := NewCompilerError(StageCompiler, lexer.Position{}, "illegal break statement", "", "main.js")
	if err.JSErrorName() != "SyntaxError" {
		t.Errorf("expected SyntaxError, got %q", err.JSErrorName())
	}
}

func TestFormatErrors_Multiple(t *testing.T) {
	errs := []*CompilerError{
		NewCompilerError(StageParser, lexer.Position{Line: 1, Column: 1}, "first", "a", "main.js"),
		NewCompilerError(StageParser, lexer.Position{Line: 2, Column: 1}, "second", "a\nb", "main.js"),
	}
	out := FormatErrors(errs, false)
	if !strings.Contains(out, "2 error(s)") {
		t.Errorf("expected error count header, got:\n%s", out)
	}
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("expected both messages present, got:\n%s", out)
	}
}

func TestCompilerError_FormatWithContext(t *testing.T) {
	src := "function f() {\n  return\n    1;\n}\n"
	err := NewCompilerError(StageCompiler, lexer.Position{Line: 2, Column: 3}, "unreachable code after return", src, "main.js")
	out := err.FormatWithContext(1, false)
	if !strings.Contains(out, "function f() {") || !strings.Contains(out, "1;") {
		t.Errorf("expected surrounding context lines, got:\n%s", out)
	}
}
