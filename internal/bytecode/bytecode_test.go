package bytecode

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/parser"
)

// TestDisassembleSnapshot runs compiled bytecode for a handful of
// representative programs through Disassemble and checks it against a
// recorded snapshot, the way the teacher's fixture harness snapshots
// DWScript output via go-snaps.
func TestDisassembleSnapshot(t *testing.T) {
	programs := map[string]string{
		"arithmetic": "1 + 2 * 3 - 4 / 2;",
		"if_else":    "let x = 1; if (x) { x = 2; } else { x = 3; }",
		"function":   "function add(a, b) { return a + b; } add(1, 2);",
		"loop":       "let sum = 0; for (let i = 0; i < 10; i = i + 1) { sum = sum + i; }",
	}
	for name, src := range programs {
		t.Run(name, func(t *testing.T) {
			in := interner.New()
			p := parser.New(src, in, "<test>")
			prog, errs := p.ParseProgram()
			if len(errs) > 0 {
				t.Fatalf("parse error: %v", errs[0])
			}
			c := New(in, src, "<test>")
			cb, err := c.CompileProgram(prog)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}
			snaps.MatchSnapshot(t, Disassemble(cb, in))
		})
	}
}

// TestCompileDeterminism is spec.md's compile-determinism property:
// compiling the same source twice must produce byte-identical bytecode.
func TestCompileDeterminism(t *testing.T) {
	src := "function f(a, b) { return a * b + 1; } let x = f(2, 3);"
	var runs [][]byte
	for i := 0; i < 2; i++ {
		in := interner.New()
		p := parser.New(src, in, "<test>")
		prog, errs := p.ParseProgram()
		if len(errs) > 0 {
			t.Fatalf("parse error: %v", errs[0])
		}
		c := New(in, src, "<test>")
		cb, err := c.CompileProgram(prog)
		if err != nil {
			t.Fatalf("compile error: %v", err)
		}
		runs = append(runs, Serialize(cb))
	}
	if len(runs[0]) != len(runs[1]) {
		t.Fatalf("non-deterministic compile: serialized lengths differ (%d vs %d)", len(runs[0]), len(runs[1]))
	}
	for i := range runs[0] {
		if runs[0][i] != runs[1][i] {
			t.Fatalf("non-deterministic compile: byte %d differs", i)
		}
	}
}

// TestSerializeDeserializeRoundTrip checks the .jbc format `jsvm
// compile` writes and `jsvm disasm`/`run` read back survives a
// round-trip: disassembly of the deserialized CodeBlock matches the
// original.
func TestSerializeDeserializeRoundTrip(t *testing.T) {
	src := "function fib(n) { if (n < 2) { return n; } return fib(n-1) + fib(n-2); } fib(5);"
	in := interner.New()
	p := parser.New(src, in, "<test>")
	prog, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	c := New(in, src, "<test>")
	cb, err := c.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	want := Disassemble(cb, in)

	data := Serialize(cb)
	cb2, err := Deserialize(data, in)
	if err != nil {
		t.Fatalf("deserialize error: %v", err)
	}
	got := Disassemble(cb2, in)
	if got != want {
		t.Fatalf("round-trip mismatch:\nwant:\n%s\ngot:\n%s", want, got)
	}
}
