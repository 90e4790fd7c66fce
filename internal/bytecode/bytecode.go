// Package bytecode implements the AST-to-linear-opcode lowering:
// CodeBlock, BindingLocator, the declaration-instantiation algorithms,
// and the Compiler that drives them.
//
// Grounded on the dws interpreter's internal/bytecode.Chunk (instructions +
// constants + local count), generalized with the fields a richer
// CodeBlock additionally requires (interned-name table, inner-function
// table, binding-locator table, flags, source map).
package bytecode

import (
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/lexer"
	"github.com/jsvm/jsvm/internal/object"
)

// Flags is a bitset of CodeBlock-wide properties.
type Flags uint16

const (
	FlagStrict Flags = 1 << iota
	FlagArrow
	FlagGenerator
	FlagAsync
	FlagConstructor
	FlagDerivedConstructor
	FlagNeedsArguments
	FlagLexicalThis // arrow functions: this/new.target/super/arguments all deferred to enclosing scope
	FlagHasSimpleParams
)

// ThisMode distinguishes how a function's `this` binding is formed on
// entry.
type ThisMode uint8

const (
	ThisModeGlobal  ThisMode = iota // a Program's top-level CodeBlock
	ThisModeLexical                 // arrow function: inherited from the enclosing scope
	ThisModeStrict                  // strict-mode function: this is exactly the call's this argument
	ThisModeGlobalObjectCoercion     // sloppy-mode function: undefined/null this coerces to the global object
)

// BindingKind tags how a BindingLocator was resolved.
type BindingKind uint8

const (
	BindGlobal BindingKind = iota
	BindLocal
	BindArgument
	BindUnresolved
)

// BindingLocator resolves an identifier reference to either a static
// (env_depth, slot) pair or, when the compiler could not prove the
// binding's environment depth (a `with` scope or direct `eval` is
// reachable), a name-only record the VM resolves dynamically against
// the live environment chain.
type BindingLocator struct {
	Kind               BindingKind
	EnvDepth           uint16
	Slot               uint16
	Name               interner.Sym
	Mutable            bool
	InitializedAtEntry bool
}

// SourceMapEntry maps a program-counter offset back to the source span
// that produced it, for diagnostics (stack traces).
type SourceMapEntry struct {
	PC   int
	Span lexer.Span
}

// CodeBlock is the compiler's immutable output: one per Program and
// one per nested function.
type CodeBlock struct {
	Name string

	Code      []byte
	Constants []object.Value
	Names     []interner.Sym
	Functions []*CodeBlock
	Bindings  []BindingLocator
	SourceMap []SourceMapEntry

	Flags        Flags
	ThisMode     ThisMode
	ParamCount   int
	RegisterCount int // the builder's estimated evaluation-stack high-water mark (see stackEffect)

	// ParamNames/ParamDefaults/HasRestParam mirror the parameter list's
	// shape for the VM's argument-binding prologue.
	ParamNames    []interner.Sym
	ParamDefaults []*CodeBlock // nil entry = no default; non-nil is a thunk CodeBlock evaluating the default
	HasRestParam  bool

	Source string // for error/stack-trace formatting
	File   string
}

func (c *CodeBlock) IsStrict() bool      { return c.Flags&FlagStrict != 0 }
func (c *CodeBlock) IsArrow() bool       { return c.Flags&FlagArrow != 0 }
func (c *CodeBlock) IsGenerator() bool   { return c.Flags&FlagGenerator != 0 }
func (c *CodeBlock) IsAsync() bool       { return c.Flags&FlagAsync != 0 }
func (c *CodeBlock) IsConstructor() bool { return c.Flags&FlagConstructor != 0 }
func (c *CodeBlock) IsDerivedConstructor() bool { return c.Flags&FlagDerivedConstructor != 0 }
func (c *CodeBlock) NeedsArguments() bool { return c.Flags&FlagNeedsArguments != 0 }

// SpanAt returns the source span registered for (or nearest preceding)
// pc, used to assemble stack traces.
func (c *CodeBlock) SpanAt(pc int) lexer.Span {
	var best lexer.Span
	for _, e := range c.SourceMap {
		if e.PC > pc {
			break
		}
		best = e.Span
	}
	return best
}
