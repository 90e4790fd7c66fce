package builtins

import (
	"testing"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/object"
	"github.com/jsvm/jsvm/internal/parser"
	"github.com/jsvm/jsvm/internal/vm"
)

// evalSrc compiles and runs src against a fresh Realm built by
// NewRealm, the same pipeline pkg/engine.Engine.Eval drives, scoped
// down here to exercise this package's builtins directly.
func evalSrc(t *testing.T, src string) object.Value {
	t.Helper()
	realm := NewRealm()
	in := interner.New()
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
	v := vm.New(realm)
	v.SetInterner(in)
	val, err := v.Run(cb)
	if err != nil {
		t.Fatalf("run error for %q: %v", src, err)
	}
	return val
}

func evalTruthy(t *testing.T, src string) bool {
	t.Helper()
	v := evalSrc(t, src)
	b, ok := v.(object.Boolean)
	if !ok {
		t.Fatalf("Eval(%q) = %T(%v), want object.Boolean", src, v, v)
	}
	return bool(b)
}

func TestMathBuiltins(t *testing.T) {
	tests := []string{
		"Math.max(1,2,3) === 3",
		"Math.min(1,2,3) === 1",
		"Math.abs(-5) === 5",
		"Math.floor(1.9) === 1",
		"Math.ceil(1.1) === 2",
		"Math.round(1.5) === 2",
		"Math.pow(2,10) === 1024",
		"Math.sqrt(16) === 4",
		"typeof Math.PI === \"number\" && Math.PI > 3.14 && Math.PI < 3.15",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if !evalTruthy(t, src) {
				t.Errorf("%s was false", src)
			}
		})
	}
}

func TestStringBuiltins(t *testing.T) {
	tests := []string{
		`"hello".toUpperCase() === "HELLO"`,
		`"HELLO".toLowerCase() === "hello"`,
		`"hello world".split(" ").length === 2`,
		`"  hi  ".trim() === "hi"`,
		`"abc".indexOf("b") === 1`,
		`"abc".slice(1) === "bc"`,
		`"abc".includes("b")`,
		`("a" + "b" + "c") === "abc"`,
		`"abc".length === 3`,
		"`a${1+1}b` === \"a2b\"",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if !evalTruthy(t, src) {
				t.Errorf("%s was false", src)
			}
		})
	}
}

func TestArrayBuiltins(t *testing.T) {
	tests := []string{
		"[1,2,3].map(x => x*2).join(\",\") === \"2,4,6\"",
		"[1,2,3].filter(x => x % 2 === 0).length === 1",
		"[1,2,3].reduce((a,b) => a+b, 0) === 6",
		"[3,1,2].sort().join(\",\") === \"1,2,3\"",
		"[1,[2,3],[4]].flat().join(\",\") === \"1,2,3,4\"",
		"Array.isArray([1,2,3])",
		"!Array.isArray({})",
		"[1,2,3].includes(2)",
		"[1,2,3].indexOf(2) === 1",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if !evalTruthy(t, src) {
				t.Errorf("%s was false", src)
			}
		})
	}
}

func TestObjectBuiltins(t *testing.T) {
	tests := []string{
		`Object.keys({a:1,b:2}).join(",") === "a,b"`,
		`Object.values({a:1,b:2}).join(",") === "1,2"`,
		`Object.assign({}, {a:1}, {b:2}).a === 1`,
		`Object.is(NaN, NaN)`,
		`!Object.is(0, -0)`,
		`({}).hasOwnProperty !== undefined`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if !evalTruthy(t, src) {
				t.Errorf("%s was false", src)
			}
		})
	}
}

func TestErrorConstructorsHaveDistinctNames(t *testing.T) {
	tests := []struct {
		src  string
		name string
	}{
		{"new TypeError(\"x\").name", "TypeError"},
		{"new RangeError(\"x\").name", "RangeError"},
		{"new SyntaxError(\"x\").name", "SyntaxError"},
		{"new Error(\"x\").name", "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := evalSrc(t, tt.src)
			s, ok := v.(object.StringValue)
			if !ok || string(s) != tt.name {
				t.Fatalf("%s = %v, want %q", tt.src, v, tt.name)
			}
		})
	}
}

func TestThrownErrorPropagatesAsGoError(t *testing.T) {
	_, err := func() (v object.Value, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = nil
			}
		}()
		realm := NewRealm()
		in := interner.New()
		src := `throw new TypeError("boom");`
		p := parser.New(src, in, "<test>")
		prog, errs := p.ParseProgram()
		if len(errs) > 0 {
			return nil, errs[0]
		}
		c := bytecode.New(in, src, "<test>")
		cb, cerr := c.CompileProgram(prog)
		if cerr != nil {
			return nil, cerr
		}
		vmi := vm.New(realm)
		vmi.SetInterner(in)
		return vmi.Run(cb)
	}()
	if err == nil {
		t.Fatal("expected a thrown TypeError to surface as a Go error")
	}
}

func TestJSONStringifyParseBuiltins(t *testing.T) {
	tests := []string{
		`JSON.stringify({a:1,b:[1,2,3]}) === '{"a":1,"b":[1,2,3]}'`,
		`JSON.parse('{"a":1}').a === 1`,
		`JSON.stringify("x.y") === '"x.y"'`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if !evalTruthy(t, src) {
				t.Errorf("%s was false", src)
			}
		})
	}
}

func TestNumberBoundariesBuiltins(t *testing.T) {
	tests := []string{
		"Number.isInteger(5)",
		"!Number.isInteger(5.5)",
		"Number.isNaN(NaN)",
		"!Number.isNaN(5)",
		"(5).toString() === \"5\"",
		"(255).toString(16) === \"ff\"",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if !evalTruthy(t, src) {
				t.Errorf("%s was false", src)
			}
		})
	}
}
