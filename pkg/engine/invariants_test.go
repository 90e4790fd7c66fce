package engine

import (
	"testing"

	"github.com/jsvm/jsvm/internal/object"
)

func evalBool(t *testing.T, src string) bool {
	t.Helper()
	e := New()
	v, err := e.Eval(src, "test.js")
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	b, ok := v.(object.Boolean)
	if !ok {
		t.Fatalf("Eval(%q) = %T(%v), want object.Boolean", src, v, v)
	}
	return bool(b)
}

// TestStrictModeArithmeticInvariants checks spec.md §8's IEEE-754
// identities: NaN is never equal to itself under == or ===, Object.is
// distinguishes it correctly, and division by signed zero produces the
// correctly-signed infinity.
func TestStrictModeArithmeticInvariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"NaN !== NaN", "NaN !== NaN"},
		{"NaN == NaN is false", "!(NaN == NaN)"},
		{"Object.is(NaN, NaN)", "Object.is(NaN, NaN)"},
		{"1/0 === Infinity", "1/0 === Infinity"},
		{"1/-0 === -Infinity", "1/-0 === -Infinity"},
		{"Object.is(-0, -0)", "Object.is(-0, -0)"},
		{"!Object.is(0, -0)", "!Object.is(0, -0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !evalBool(t, tt.src) {
				t.Errorf("%s was false", tt.src)
			}
		})
	}
}

// TestTemporalDeadZone checks that reading a `let`/`const` binding
// before its declaration executes throws a ReferenceError rather than
// observing `undefined`, the way `var` hoisting would.
func TestTemporalDeadZone(t *testing.T) {
	e := New()
	_, err := e.Eval("{ x; let x = 1; }", "test.js")
	if err == nil {
		t.Fatal("expected a ReferenceError reading a let binding in its temporal dead zone")
	}
	if name := ErrorName(err); name != "ReferenceError" {
		t.Fatalf("ErrorName(err) = %q, want ReferenceError", name)
	}
}

// TestForOfCallsReturnExactlyOnceOnBreak checks spec.md §8's iterator
// protocol invariant: breaking out of a for-of loop early closes the
// iterator exactly once. A generator's `finally` block only runs when
// its iterator's return() method is invoked, so counting finally runs
// here exercises the same IteratorClose path a [Symbol.iterator]
// object's return() would, without depending on a user-visible `Symbol`
// global binding.
func TestForOfCallsReturnExactlyOnceOnBreak(t *testing.T) {
	src := `
	let closes = 0;
	function* g() {
		try {
			let i = 0;
			while (true) { yield i++; }
		} finally {
			closes++;
		}
	}
	for (const x of g()) {
		if (x === 2) break;
	}
	closes;
	`
	e := New()
	v, err := e.Eval(src, "test.js")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	n, ok := v.(object.Number)
	if !ok || float64(n) != 1 {
		t.Fatalf("closes = %v, want exactly 1", v)
	}
}

// TestJSONRoundTrip checks JSON.parse(JSON.stringify(x)) recovers an
// equivalent structure for representative nested object/array/string
// values, including object keys containing sjson's own path-syntax
// special characters (escapeSJSONPath's correctness hazard).
func TestJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"nested object and array", `JSON.stringify({a: [1, 2, {b: "c"}], d: null, e: true})`},
		{"key with dot", `JSON.stringify({"a.b": 1})`},
		{"key with star and pipe", `JSON.stringify({"a*b|c": 1})`},
		{"empty array", `JSON.stringify([])`},
		{"empty object", `JSON.stringify({})`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			src := "let s = " + tt.expr + "; JSON.stringify(JSON.parse(s)) === s"
			if !evalBool(t, src) {
				e2 := New()
				v, _ := e2.Eval(tt.expr, "test.js")
				t.Errorf("round trip unstable for %s (stringify -> %v)", tt.expr, v)
			}
		})
	}
}

// TestArrayBufferDataView exercises the minimal ArrayBuffer/DataView
// surface: shared backing storage between views, and the littleEndian
// argument's default (big-endian, per real DataView).
func TestArrayBufferDataView(t *testing.T) {
	src := `
	const buf = new ArrayBuffer(8);
	const view = new DataView(buf);
	view.setInt32(0, 1, false);
	const bigEndianFirstByte = view.getInt32(0, false) === 1;
	view.setInt32(4, 1, true);
	const littleEndianRoundTrip = view.getInt32(4, true) === 1;
	bigEndianFirstByte && littleEndianRoundTrip && view.byteLength === 8 && buf.byteLength === 8;
	`
	if !evalBool(t, src) {
		t.Fatal("ArrayBuffer/DataView surface misbehaved")
	}
}

// TestDateMinimalSurface exercises Date's intentionally minimal
// surface: getTime/valueOf/toISOString and Date.now() producing
// plausible epoch-millisecond values.
func TestDateMinimalSurface(t *testing.T) {
	src := `
	const d = new Date(0);
	d.getTime() === 0 && d.toISOString() === "1970-01-01T00:00:00.000Z" && typeof Date.now() === "number";
	`
	if !evalBool(t, src) {
		t.Fatal("Date minimal surface misbehaved")
	}
}
