package vm_test

import (
	"testing"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/builtins"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/object"
	"github.com/jsvm/jsvm/internal/parser"
	"github.com/jsvm/jsvm/internal/vm"
)

func run(t *testing.T, v *vm.VM, in *interner.Interner, src string) object.Value {
	t.Helper()
	p := parser.New(src, in, "<test>")
	prog, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error for %q: %v", src, errs[0])
	}
	c := bytecode.New(in, src, "<test>")
	cb, err := c.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error for %q: %v", src, err)
	}
	val, err := v.Run(cb)
	if err != nil {
		t.Fatalf("run error for %q: %v", src, err)
	}
	return val
}

func asNumber(t *testing.T, v object.Value) float64 {
	t.Helper()
	n, ok := v.(object.Number)
	if !ok {
		t.Fatalf("expected object.Number, got %T(%v)", v, v)
	}
	return float64(n)
}

// TestStackBalanceAcrossSequentialRuns is spec.md §8's stack-balance
// invariant: a pushed-and-unpopped value from one top-level Run would
// corrupt the next Run's arithmetic, since both share the VM's single
// operand stack. Running an unrelated, independently-correct program
// immediately after a complex one would observe the leaked value if
// any expression form left the stack unbalanced.
func TestStackBalanceAcrossSequentialRuns(t *testing.T) {
	realm := builtins.NewRealm()
	in := interner.New()
	v := vm.New(realm)
	v.SetInterner(in)

	programs := []string{
		"1 + 2 * (3 - 1);",
		"let a = [1,2,3]; a.map(x => x * 2).reduce((s,x) => s+x, 0);",
		"try { throw 1; } catch (e) { e + 1; } finally { 0; }",
		"function f(a,b) { return a+b; } f(1,2) + f(3,4);",
		"(() => { let x = 0; for (let i=0;i<5;i++) x += i; return x; })();",
	}
	for _, p := range programs {
		run(t, v, in, p)
	}

	// A fresh, simple computation after the programs above must still
	// be correct; a leaked stack slot from any prior Run would throw it
	// off.
	got := asNumber(t, run(t, v, in, "21 + 21;"))
	if got != 42 {
		t.Fatalf("stack imbalance suspected: got %v, want 42", got)
	}
}

// TestEnvironmentBalanceAcrossBlocks is spec.md §8's environment-balance
// invariant: a block's lexical environment must be fully popped when
// the block exits, so an identically-named `let` in a later sibling
// block resolves to its own binding rather than erroring or reading a
// stale value left behind by the first block's environment.
func TestEnvironmentBalanceAcrossBlocks(t *testing.T) {
	src := `
	{ let x = 1; }
	{ let x = 2; }
	let result;
	{ let x = 3; result = x; }
	result;
	`
	realm := builtins.NewRealm()
	in := interner.New()
	v := vm.New(realm)
	v.SetInterner(in)
	got := asNumber(t, run(t, v, in, src))
	if got != 3 {
		t.Fatalf("environment imbalance suspected: got %v, want 3", got)
	}
}

// TestMaxDepthThrowsRangeError checks the configurable call-stack limit
// spec.md §5 asks for: unbounded recursion throws a RangeError instead
// of exhausting the native Go stack.
func TestMaxDepthThrowsRangeError(t *testing.T) {
	realm := builtins.NewRealm()
	in := interner.New()
	v := vm.New(realm)
	v.SetInterner(in)
	v.SetMaxDepth(50)

	src := "function rec(n) { return rec(n+1); } rec(0);"
	p := parser.New(src, in, "<test>")
	prog, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	c := bytecode.New(in, src, "<test>")
	cb, err := c.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	_, runErr := v.Run(cb)
	if runErr == nil {
		t.Fatal("expected a RangeError from unbounded recursion")
	}
}
