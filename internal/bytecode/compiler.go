package bytecode

import (
	"fmt"

	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/errors"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/lexer"
)

// scopeKind mirrors environment.Kind at compile time so binding
// resolution can tell whether a found declaration sits in a
// Declarative/Function scope (static slot) or will only be known at
// runtime (Object scope, i.e. `with`).
type scopeKind uint8

const (
	scopeBlock scopeKind = iota
	scopeFunction
	scopeGlobal
	scopeWith // opaque to static resolution: forces dynamic lookup for anything beyond it
)

// scope is the compiler's compile-time mirror of a runtime environment
// record.
type scope struct {
	kind   scopeKind
	names  map[string]int // name -> slot index within this scope
	order  []string
	mutable map[string]bool
}

func newScope(kind scopeKind) *scope {
	return &scope{kind: kind, names: make(map[string]int), mutable: make(map[string]bool)}
}

func (s *scope) declare(name string, mutable bool) int {
	if idx, ok := s.names[name]; ok {
		return idx
	}
	idx := len(s.order)
	s.names[name] = idx
	s.order = append(s.order, name)
	s.mutable[name] = mutable
	return idx
}

// funcCtx is the per-CodeBlock compilation context: its builder, the
// scope stack rooted at its own Function scope, and the flags
// (generator/async/derived-ctor/...) that change how special forms
// (`yield`, `await`, `super`, `new.target`) lower.
type funcCtx struct {
	b      *builder
	scopes []*scope

	flags      Flags
	thisMode   ThisMode
	paramCount int

	loops  []loopCtx
	tries  []tryCtx

	hasDynamicScope bool // a `with` or direct-eval is reachable: forces name-based lookup for outer references

	parent *funcCtx
}

type loopCtx struct {
	label        string
	continueLbl  int // code offset continue jumps back to
	breakFixups  []label
	continueFixups []label
	envDepth     int
}

type tryCtx struct {
	handlerIdx int
}

// Compiler lowers an AST into CodeBlocks.
type Compiler struct {
	interner *interner.Interner
	source   string
	file     string
	cur      *funcCtx
	errs     []*errors.CompilerError
}

// New creates a Compiler sharing in (the same Interner the parser used,
// so Names table Syms line up with identifier Syms elsewhere in the
// pipeline).
func New(in *interner.Interner, source, file string) *Compiler {
	return &Compiler{interner: in, source: source, file: file}
}

func (c *Compiler) Errors() []*errors.CompilerError { return c.errs }

func (c *Compiler) errorf(span lexer.Span, format string, args ...interface{}) {
	c.errs = append(c.errs, errors.NewCompilerError(errors.StageCompiler, span.Start, fmt.Sprintf(format, args...), c.source, c.file))
}

// CompileProgram compiles a parsed Program's top-level CodeBlock
// (ThisModeGlobal). Global declaration instantiation runs against the Global environment record at
// runtime; the compiler emits the DefVar/DefLet/DefConst opcodes that
// perform it rather than mutating an environment itself.
func (c *Compiler) CompileProgram(prog *ast.Program) (*CodeBlock, error) {
	fc := &funcCtx{b: newBuilder(), thisMode: ThisModeGlobal}
	fc.scopes = []*scope{newScope(scopeGlobal)}
	if prog.Strict {
		fc.flags |= FlagStrict
	}
	c.cur = fc

	c.hoistProgram(prog.Body, true)
	for _, stmt := range prog.Body {
		c.compileStatement(stmt)
	}
	fc.b.emit(PushUndefined)
	fc.b.emit(Return)

	cb := c.finish(fc, "<program>")
	if len(c.errs) > 0 {
		return cb, c.errs[0]
	}
	return cb, nil
}

func (c *Compiler) finish(fc *funcCtx, name string) *CodeBlock {
	b := fc.b
	return &CodeBlock{
		Name:          name,
		Code:          b.code,
		Constants:     b.constants,
		Names:         b.names,
		Functions:     b.functions,
		Bindings:      b.bindings,
		SourceMap:     b.sourceMap,
		Flags:         fc.flags,
		ThisMode:      fc.thisMode,
		ParamCount:    fc.paramCount,
		RegisterCount: b.maxStack,
		Source:        c.source,
		File:          c.file,
	}
}

// pushScope/popScope keep the compiler's scope stack and the runtime
// environment chain in lockstep: every scopeBlock entry pushed here
// corresponds to exactly one PushDeclarativeEnvironment/PopEnvironment
// pair the VM executes, regardless of whether the block ends up
// declaring any names, so a BindLocal locator's EnvDepth (a hop count
// over c.cur.scopes) always matches the number of environment records
// the VM must walk outward through at runtime (testable property:
// environment balance). scopeWith pushes/pops its own Object
// environment directly at the with-statement call site instead.
func (c *Compiler) pushScope(kind scopeKind) {
	c.cur.scopes = append(c.cur.scopes, newScope(kind))
	if kind == scopeBlock {
		c.cur.b.emit(PushDeclarativeEnvironment)
	}
}

func (c *Compiler) popScope() {
	s := c.cur.scopes[len(c.cur.scopes)-1]
	c.cur.scopes = c.cur.scopes[:len(c.cur.scopes)-1]
	if s.kind == scopeBlock {
		c.cur.b.emit(PopEnvironment)
	}
}

// resolveName implements binding resolution: walk outward through the
// compile-time scope stack; a hit inside the current CodeBlock's own
// scopes yields a BindLocal locator with a proven depth, a hit that
// requires crossing a `with`/eval boundary (or crossing into an
// enclosing function, which this compiler does not flatten across)
// falls back to name-based BindUnresolved/BindGlobal resolution.
func (c *Compiler) resolveName(name string) (kind BindingKind, depth, slot uint16, mutable bool) {
	scopes := c.cur.scopes
	depthFromTop := 0
	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		if s.kind == scopeWith {
			return BindUnresolved, 0, 0, true
		}
		if idx, ok := s.names[name]; ok {
			if s.kind == scopeGlobal {
				return BindGlobal, 0, 0, s.mutable[name]
			}
			return BindLocal, uint16(depthFromTop), uint16(idx), s.mutable[name]
		}
		depthFromTop++
	}
	// Not found in this function's own scopes: could be an enclosing
	// closure's binding (resolved dynamically by name at runtime
	// against the live environment chain) or a true global.
	return BindUnresolved, 0, 0, true
}

func (c *Compiler) declareInScope(name string, mutable, isVarLike bool) int {
	scopes := c.cur.scopes
	target := len(scopes) - 1
	if isVarLike {
		for i := target; i >= 0; i-- {
			if scopes[i].kind == scopeFunction || scopes[i].kind == scopeGlobal {
				target = i
				break
			}
		}
	}
	return scopes[target].declare(name, mutable)
}
