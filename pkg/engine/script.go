package engine

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/object"
)

// Script is a parsed, not-yet-necessarily-compiled unit of source text
// (spec.md §6's `Script`). Parse returns one; Compile fills in its
// CodeBlock; Eval on the owning Engine does both plus Run.
type Script struct {
	engine   *Engine
	source   string
	filename string
	program  *ast.Program
	code     *bytecode.CodeBlock
}

// Program returns the parsed AST root.
func (s *Script) Program() *ast.Program { return s.program }

// Filename returns the name Script was parsed under (used in thrown
// errors' stack traces and in CompilerError's formatted output).
func (s *Script) Filename() string { return s.filename }

// Source returns the original source text.
func (s *Script) Source() string { return s.source }

// Compiled reports whether Compile has already run for this Script,
// and returns its CodeBlock if so.
func (s *Script) Compiled() (*bytecode.CodeBlock, bool) {
	return s.code, s.code != nil
}

// Compile compiles this Script against its owning Engine, caching the
// result so a second call is a no-op returning the cached CodeBlock.
func (s *Script) Compile() (*bytecode.CodeBlock, error) {
	if s.code != nil {
		return s.code, nil
	}
	return s.engine.Compile(s)
}

// Run compiles (if not already) and executes this Script, returning
// its completion value.
func (s *Script) Run() (object.Value, error) {
	code, err := s.Compile()
	if err != nil {
		return nil, err
	}
	return s.engine.Run(code)
}
