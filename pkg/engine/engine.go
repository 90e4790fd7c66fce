// Package engine is jsvm's embedder-facing façade: the single
// exported entrypoint that wires internal/lexer -> internal/parser ->
// internal/bytecode -> internal/vm into the parse/compile/eval surface
// an embedding host actually calls, following spec.md §6's Engine API
// (`Engine::new`, `engine.parse`, `engine.compile`, `engine.eval`,
// `engine.global_object`).
//
// Grounded on the teacher's own top-level wiring in
// cmd/dwscript/cmd/run.go (lexer -> parser -> semantic analysis ->
// interp.New(stdout).Eval(program)): the same lex/parse/run pipeline,
// generalized from DWScript's tree-walking interp.Interpreter to the
// bytecode compile+VM.Run step this engine uses instead, and packaged
// as a reusable type rather than inlined in a CLI command so both
// cmd/jsvm and any other embedder can drive it.
package engine

import (
	"io"

	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/builtins"
	"github.com/jsvm/jsvm/internal/errors"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/object"
	"github.com/jsvm/jsvm/internal/parser"
	"github.com/jsvm/jsvm/internal/vm"
)

// options holds the resolved configuration an Option mutates. Mirrors
// the teacher's LexerOption/CompilerOption functional-options pattern
// (internal/lexer.Option, internal/bytecode's compiler construction),
// generalized to the one façade that owns the whole pipeline.
type options struct {
	strict   bool
	maxDepth int
	traceOut io.Writer
}

// Option configures an Engine at construction time.
type Option func(*options)

// WithStrict makes every Script/Module this Engine parses behave as
// if it began with a top-level "use strict" directive, regardless of
// its own source text.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithStackLimit overrides the VM's call-frame limit (spec.md §5's
// "configurable limit (default order 10³–10⁴)" before a RangeError is
// thrown instead of exhausting the native Go stack). n <= 0 leaves the
// VM's built-in default in place.
func WithStackLimit(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithTracing directs lexer-token and VM-opcode diagnostic trace lines
// to w. Disabled (nil writer) by default.
func WithTracing(w io.Writer) Option {
	return func(o *options) { o.traceOut = w }
}

// Engine is one embedder instance: a Realm (global object, intrinsic
// prototypes), the interner its whole pipeline shares, and the VM that
// runs compiled code against that Realm. spec.md §5 requires instances
// to share no mutable state, which holds here because every field is
// private to the Engine that owns it — nothing is package-level.
type Engine struct {
	realm    *object.Realm
	interner *interner.Interner
	vm       *vm.VM
	opts     options
}

// New allocates an Engine with a fresh Realm (every intrinsic
// installed via internal/builtins.NewRealm) and VM, ready to parse,
// compile, and run source text.
func New(opts ...Option) *Engine {
	cfg := options{maxDepth: 0}
	for _, o := range opts {
		o(&cfg)
	}

	realm := builtins.NewRealm()
	in := interner.New()
	vmInst := vm.New(realm)
	vmInst.SetInterner(in)
	if cfg.maxDepth > 0 {
		vmInst.SetMaxDepth(cfg.maxDepth)
	}
	if cfg.traceOut != nil {
		vmInst.SetTracing(cfg.traceOut)
	}

	return &Engine{realm: realm, interner: in, vm: vmInst, opts: cfg}
}

// GlobalObject returns the Engine's global object (spec.md §6's
// `engine.global_object() -> Value`).
func (e *Engine) GlobalObject() *object.Object { return e.realm.GlobalObject }

// Realm exposes the underlying Realm for embedders that need direct
// access to an intrinsic prototype (installing a host object on
// Array.prototype, say) beyond what Script/Module's surface covers.
func (e *Engine) Realm() *object.Realm { return e.realm }

// Interner exposes the symbol interner this Engine's whole pipeline
// shares, for callers that need to resolve an interner.Sym found on a
// CodeBlock or BindingLocator (bytecode.Disassemble's name annotation,
// say) back to a string.
func (e *Engine) Interner() *interner.Interner { return e.interner }

// DrainJobs runs the Promise-reaction/async-resumption job queue to a
// fixed point (spec.md §5's "the embedder drains the queue"). Eval
// already calls this once after the top-level script returns; embedders
// driving their own event loop call it again after each externally
// triggered resolution.
func (e *Engine) DrainJobs() { e.vm.DrainJobs() }

// Parse lexes and parses source into a Script (spec.md §6:
// `engine.parse(source) -> Script | Module | SyntaxError`). A non-nil
// error is always a *errors.CompilerError tagged errors.StageParser or
// errors.StageLexer, so JSErrorName() is always "SyntaxError".
func (e *Engine) Parse(source, filename string) (*Script, error) {
	prog, perr := e.parseProgram(source, filename)
	if perr != nil {
		return nil, perr
	}
	return &Script{engine: e, source: source, filename: filename, program: prog}, nil
}

// ParseModule is Parse for module-goal source: the returned Module's
// Program has ast.Program.IsModule set. jsvm's grammar does not (yet)
// recognize import/export declarations — see Module's doc comment —
// so this accepts the same grammar as Parse and only the module flag
// differs; HostResolveImportedModule has nothing to call into.
func (e *Engine) ParseModule(source, filename string) (*Module, error) {
	prog, perr := e.parseProgram(source, filename)
	if perr != nil {
		return nil, perr
	}
	prog.IsModule = true
	return &Module{Script: Script{engine: e, source: source, filename: filename, program: prog}}, nil
}

func (e *Engine) parseProgram(source, filename string) (*ast.Program, error) {
	p := parser.New(source, e.interner, filename)
	prog, perrs := p.ParseProgram()
	if len(perrs) > 0 {
		return nil, perrs[0]
	}
	if e.opts.strict {
		prog.Strict = true
	}
	return prog, nil
}

// Compile lowers a Script's AST into a runnable CodeBlock (spec.md §6:
// `engine.compile(script) -> CodeBlock | SyntaxError`).
func (e *Engine) Compile(s *Script) (*bytecode.CodeBlock, error) {
	c := bytecode.New(e.interner, s.source, s.filename)
	cb, err := c.CompileProgram(s.program)
	if err != nil {
		return nil, err
	}
	s.code = cb
	return cb, nil
}

// Run executes an already-compiled CodeBlock against this Engine's
// Realm and returns its completion value, or the thrown value wrapped
// in a *vm.ThrownError.
func (e *Engine) Run(code *bytecode.CodeBlock) (object.Value, error) {
	return e.vm.Run(code)
}

// Eval is the one-shot convenience spec.md §6 names directly:
// `engine.eval(script) -> Value | Thrown(Value)`. It parses, compiles,
// runs, and drains the job queue so a top-level `await`'d Promise has
// already settled by the time Eval returns.
func (e *Engine) Eval(source, filename string) (object.Value, error) {
	script, err := e.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	code, err := e.Compile(script)
	if err != nil {
		return nil, err
	}
	v, err := e.Run(code)
	e.DrainJobs()
	return v, err
}

// ToString performs ECMAScript's ToString coercion on v, for embedders
// that want to display an Eval/Run completion value the way the
// language itself would render it (e.g. `[object Object]` for a plain
// object, not Go's struct-literal formatting of object.Value).
func (e *Engine) ToString(v object.Value) (string, error) {
	return e.vm.ToString(v)
}

// ErrorName extracts the ECMAScript error constructor name an error
// returned from Parse/Compile/Eval should be reported under: compile
// failures are always "SyntaxError" (errors.CompilerError.JSErrorName),
// runtime throws report the thrown value's own `name` property via
// vm.ThrownError's formatting, and anything else is an internal fault.
func ErrorName(err error) string {
	if ce, ok := err.(*errors.CompilerError); ok {
		return ce.JSErrorName()
	}
	if te, ok := err.(*vm.ThrownError); ok {
		if o, ok := te.Value.(*object.Object); ok {
			if n, gerr := o.Get(object.StringKey("name"), o); gerr == nil {
				if s, ok := n.(object.StringValue); ok {
					return string(s)
				}
			}
		}
		return "Error"
	}
	return ""
}
