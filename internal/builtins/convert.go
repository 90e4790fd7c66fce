// Package builtins populates a Realm's intrinsic objects and global
// bindings: the Object/Array/Math/JSON surface plus the error
// constructors and miscellaneous global functions every script runs
// against. Grounded on the teacher's own builtin registration split
// (internal/bytecode/vm_builtins*.go's one-file-per-domain layout,
// each with a register*Builtins entry point), generalized from a
// flat name->Go-func map to real prototype objects and NativeFunc
// property values.
package builtins

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jsvm/jsvm/internal/object"
)

// toNumber implements the ToNumber abstract operation. NativeFunc
// bodies only see object.VMContext (Call/Construct/Throw/Realm), not
// the VM's own unexported coercion helpers in internal/vm/vm_ops.go,
// so the builtin surface carries its own copy of the small set of
// abstract operations it needs, built the same way (a type switch
// over object.Value, falling to ToPrimitive's Call-based valueOf/
// toString probing for objects).
func toNumber(vm object.VMContext, v object.Value) (float64, error) {
	switch t := v.(type) {
	case object.Number:
		return float64(t), nil
	case object.Boolean:
		if t {
			return 1, nil
		}
		return 0, nil
	case object.StringValue:
		return stringToNumber(string(t)), nil
	}
	if v == object.Undefined {
		return math.NaN(), nil
	}
	if v == object.Null {
		return 0, nil
	}
	if obj, ok := v.(*object.Object); ok {
		prim, err := toPrimitive(vm, obj, "number")
		if err != nil {
			return 0, err
		}
		if _, isObj := prim.(*object.Object); isObj {
			return math.NaN(), nil
		}
		return toNumber(vm, prim)
	}
	return math.NaN(), nil
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s == "Infinity" || s == "+Infinity" {
		return math.Inf(1)
	}
	if s == "-Infinity" {
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// toPrimitive implements ToPrimitive: a callable Symbol.toPrimitive
// method wins outright; otherwise OrdinaryToPrimitive tries
// valueOf/toString (or the reverse, for a "string" hint) and takes the
// first result that isn't itself an object.
func toPrimitive(vm object.VMContext, obj *object.Object, hint string) (object.Value, error) {
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	if sp, err := getProperty(vm, obj, symToPrimitiveKey); err == nil {
		if fn, isFn := sp.(*object.Object); isFn && fn.IsCallable() {
			h := hint
			if h == "" {
				h = "default"
			}
			res, err := vm.Call(fn, obj, []object.Value{object.StringValue(h)})
			if err != nil {
				return nil, err
			}
			return res, nil
		}
	}
	for _, name := range methods {
		m, err := getProperty(vm, obj, object.StringKey(name))
		if err != nil {
			return nil, err
		}
		fn, ok := m.(*object.Object)
		if !ok || !fn.IsCallable() {
			continue
		}
		res, err := vm.Call(fn, obj, nil)
		if err != nil {
			return nil, err
		}
		if _, isObj := res.(*object.Object); !isObj {
			return res, nil
		}
	}
	return nil, vm.Throw(vm.NewTypeError("Cannot convert object to primitive value"))
}

// getProperty walks the prototype chain directly (Object.Get signals
// accessor invocation via a sentinel error rather than performing the
// call itself, since *object.Object has no VM access); builtins
// resolve that sentinel the same way internal/vm's getProperty does.
func getProperty(vm object.VMContext, obj *object.Object, key object.PropertyKey) (object.Value, error) {
	v, err := obj.Get(key, obj)
	if fn, this, ok := object.AsGetterCall(err); ok {
		return vm.Call(fn, this, nil)
	}
	return v, err
}

var symToPrimitiveKey = object.SymbolKey(object.SymToPrimitive)

// toStringValue implements ToString for the builtin surface (JSON.
// stringify's key coercion, Array.prototype.join, String(x), etc).
func toStringValue(vm object.VMContext, v object.Value) (string, error) {
	switch t := v.(type) {
	case object.StringValue:
		return string(t), nil
	case object.Number:
		return object.NumberToString(float64(t)), nil
	case object.Boolean:
		if t {
			return "true", nil
		}
		return "false", nil
	}
	if v == object.Undefined {
		return "undefined", nil
	}
	if v == object.Null {
		return "null", nil
	}
	if obj, ok := v.(*object.Object); ok {
		if obj.Class == object.ClassArray {
			return joinArray(vm, obj, ",")
		}
		prim, err := toPrimitive(vm, obj, "string")
		if err != nil {
			return "", err
		}
		if _, isObj := prim.(*object.Object); isObj {
			return "[object Object]", nil
		}
		return toStringValue(vm, prim)
	}
	return "", nil
}

func toBoolean(v object.Value) bool { return object.ToBoolean(v) }

// sameValueIs implements the SameValue algorithm for Object.is: like
// ===, except NaN equals NaN and +0 does not equal -0 (the opposite of
// ==='s zero handling, per ECMA-262's SameValue definition).
func sameValueIs(a, b object.Value) bool {
	if na, ok := a.(object.Number); ok {
		if nb, ok := b.(object.Number); ok {
			return na.SameValue(nb)
		}
		return false
	}
	return a == b
}

// toIntOrDefault implements the narrower numeric coercion the builtin
// surface needs for index/length/radix arguments: a missing or
// undefined argument gives def, NaN gives 0, and any other number is
// truncated toward zero (no clamping to a range) rather than put
// through full ToInt32/ToUint32 bit truncation, which nothing in this
// package's surface requires.
func toIntOrDefault(vm object.VMContext, v object.Value, def int) (int, error) {
	if v == nil || v == object.Undefined {
		return def, nil
	}
	n, err := toNumber(vm, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) {
		return 0, nil
	}
	return int(n), nil
}

func arrayElements(arr *object.Object) []object.Value {
	if arr.Array == nil {
		return nil
	}
	out := make([]object.Value, len(arr.Array.Elements))
	for i, v := range arr.Array.Elements {
		if v == nil {
			v = object.Undefined
		}
		out[i] = v
	}
	return out
}

func newArray(realm *object.Realm, elems []object.Value) *object.Object {
	return object.NewArray(realm.ArrayPrototype, elems)
}

func isCallable(v object.Value) (*object.Object, bool) {
	fn, ok := v.(*object.Object)
	return fn, ok && fn.IsCallable()
}

func method(realm *object.Realm, name string, length int, fn object.NativeFunc) *object.PropertyDescriptor {
	f := realm.NewFunction(&object.CallableData{Native: fn, Name: name, Length: length})
	return object.DataProperty(f, true, false, true)
}

func define(obj *object.Object, name string, desc *object.PropertyDescriptor) {
	obj.DefineOwnProperty(object.StringKey(name), desc)
}

func defineMethod(realm *object.Realm, obj *object.Object, name string, length int, fn object.NativeFunc) {
	define(obj, name, method(realm, name, length, fn))
}

// defineAccessor installs a getter-only accessor property (ArrayBuffer's
// byteLength, DataView's buffer/byteOffset/byteLength): the common
// shape of a read-only derived property that cannot be expressed as a
// plain data property because it is computed from Object.Internal at
// read time.
func defineAccessor(realm *object.Realm, obj *object.Object, name string, get func(object.VMContext, object.Value) (object.Value, error)) {
	getter := realm.NewFunction(&object.CallableData{
		Name: "get " + name, Length: 0,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			return get(vm, this)
		},
	})
	define(obj, name, object.AccessorProperty(getter, nil, false, true))
}

func arg(args []object.Value, i int) object.Value {
	if i < len(args) {
		v := args[i]
		if v != nil {
			return v
		}
	}
	return object.Undefined
}

func sortStrings(ss []string) { sort.Strings(ss) }
