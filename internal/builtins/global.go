package builtins

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/jsvm/jsvm/internal/object"
	enginevm "github.com/jsvm/jsvm/internal/vm"
	"github.com/tidwall/gjson"
)

// thrownValueOf extracts the ECMAScript value behind a *vm.ThrownError
// so a rejected Promise carries the actual thrown value rather than a
// stringified Go error; any other error (an internal fault) falls
// back to a plain string so the rejection still carries something
// diagnosable.
func thrownValueOf(err error) object.Value {
	if te, ok := err.(*enginevm.ThrownError); ok {
		return te.Value
	}
	return object.StringValue(err.Error())
}

// NewRealm allocates a fresh Realm with every intrinsic prototype and
// global binding installed, ready to hand to vm.New. Grounded on the
// teacher's own interpreter bootstrap (internal/interp's construction
// of a root scope pre-populated with every builtin table before a
// single line of user script runs, e.g. registerMiscBuiltins/
// registerMathBuiltins et al. in the bytecode VM's own constructor
// path); generalized from a flat builtins map to real prototype
// objects and a GlobalObject an environment.Record binds against.
func NewRealm() *object.Realm {
	realm := &object.Realm{}

	realm.ObjectPrototype = object.New(nil)
	realm.FunctionPrototype = object.New(realm.ObjectPrototype)
	realm.FunctionPrototype.Class = object.ClassFunction
	realm.FunctionPrototype.Callable = &object.CallableData{
		Name: "", Length: 0,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			return object.Undefined, nil
		},
	}
	realm.IteratorPrototype = object.New(realm.ObjectPrototype)
	realm.GeneratorPrototype = object.New(realm.IteratorPrototype)
	realm.PromisePrototype = object.New(realm.ObjectPrototype)
	realm.StringPrototype = object.New(realm.ObjectPrototype)
	realm.NumberPrototype = object.New(realm.ObjectPrototype)
	realm.BooleanPrototype = object.New(realm.ObjectPrototype)
	realm.RegExpPrototype = object.New(realm.ObjectPrototype)
	realm.DatePrototype = object.New(realm.ObjectPrototype)
	realm.DataViewPrototype = object.New(realm.ObjectPrototype)
	realm.MapPrototype = object.New(realm.ObjectPrototype)
	realm.SetPrototype = object.New(realm.ObjectPrototype)

	// Generators are themselves iterable (`for (const x of aGenerator())`
	// must work); Symbol.iterator returning `this` is all that needs
	// installing here, since next/throw/return are installed per
	// instance by internal/vm's installGeneratorMethods.
	realm.GeneratorPrototype.DefineOwnProperty(object.SymbolKey(object.SymIterator), object.DataProperty(
		nativeFunc(realm, "[Symbol.iterator]", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			return this, nil
		}), true, false, true))
	realm.IteratorPrototype.DefineOwnProperty(object.SymbolKey(object.SymIterator), object.DataProperty(
		nativeFunc(realm, "[Symbol.iterator]", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			return this, nil
		}), true, false, true))

	global := object.New(realm.ObjectPrototype)
	realm.GlobalObject = global

	objectCtor := bootstrapObject(realm)
	arrayCtor := bootstrapArray(realm)
	errCtors := bootstrapErrors(realm)
	realm.ErrorConstructors = errCtors
	mathObj := bootstrapMath(realm)
	jsonObj := bootstrapJSON(realm)
	promiseCtor := bootstrapPromise(realm)
	stringCtor := bootstrapString(realm)
	numberCtor := bootstrapNumber(realm)
	booleanCtor := bootstrapBoolean(realm)
	arrayBufferCtor := bootstrapArrayBuffer(realm)
	dataViewCtor := bootstrapDataView(realm)
	dateCtor := bootstrapDate(realm)

	define(global, "Object", object.DataProperty(objectCtor, true, false, true))
	define(global, "Array", object.DataProperty(arrayCtor, true, false, true))
	define(global, "Math", object.DataProperty(mathObj, true, false, true))
	define(global, "JSON", object.DataProperty(jsonObj, true, false, true))
	define(global, "Promise", object.DataProperty(promiseCtor, true, false, true))
	define(global, "String", object.DataProperty(stringCtor, true, false, true))
	define(global, "Number", object.DataProperty(numberCtor, true, false, true))
	define(global, "Boolean", object.DataProperty(booleanCtor, true, false, true))
	define(global, "ArrayBuffer", object.DataProperty(arrayBufferCtor, true, false, true))
	define(global, "DataView", object.DataProperty(dataViewCtor, true, false, true))
	define(global, "Date", object.DataProperty(dateCtor, true, false, true))
	for kind, ctor := range errCtors {
		define(global, kind, object.DataProperty(ctor, true, false, true))
	}
	define(global, "globalThis", object.DataProperty(global, true, false, true))
	define(global, "undefined", object.DataProperty(object.Undefined, false, false, false))
	define(global, "NaN", object.DataProperty(object.Number(math.NaN()), false, false, false))
	define(global, "Infinity", object.DataProperty(object.Number(math.Inf(1)), false, false, false))

	defineGlobalFunc(realm, global, "isNaN", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		n, err := toNumber(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return object.Boolean(math.IsNaN(n)), nil
	})
	defineGlobalFunc(realm, global, "isFinite", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		n, err := toNumber(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return object.Boolean(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})
	defineGlobalFunc(realm, global, "parseInt", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		s, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		radix := 10
		if len(args) > 1 && args[1] != object.Undefined {
			radix, err = toIntOrDefault(vm, args[1], 10)
			if err != nil {
				return nil, err
			}
			if radix == 0 {
				radix = 10
			}
		}
		return object.Number(parseIntString(s, radix)), nil
	})
	defineGlobalFunc(realm, global, "parseFloat", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		s, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return object.Number(parseFloatString(s)), nil
	})
	defineGlobalFunc(realm, global, "structuredClone", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return structuredClone(realm, vm, arg(args, 0))
	})

	console := object.New(realm.ObjectPrototype)
	logFn := func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := toStringValue(vm, a)
			if err != nil {
				return nil, err
			}
			parts[i] = s
		}
		fmt.Fprintln(os.Stdout, joinStrings(parts, " "))
		return object.Undefined, nil
	}
	defineMethod(realm, console, "log", 0, logFn)
	defineMethod(realm, console, "error", 0, logFn)
	defineMethod(realm, console, "warn", 0, logFn)
	defineMethod(realm, console, "info", 0, logFn)
	define(global, "console", object.DataProperty(console, true, false, true))

	return realm
}

// bootstrapPromise builds the user-facing Promise constructor and
// prototype atop the VMContext promise primitives internal/vm exposes
// (NewPromise/ResolvePromise/RejectPromise/PromiseThen), which settle
// through the exact same promiseData Await already operates on — a
// builtin-constructed `new Promise(...)` and an internal async
// function's return value interoperate without any adapter.
func bootstrapPromise(realm *object.Realm) *object.Object {
	proto := realm.PromisePrototype

	defineMethod(realm, proto, "then", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		p, ok := this.(*object.Object)
		if !ok || p.Class != object.ClassPromise {
			return nil, vm.Throw(vm.NewTypeError("Promise.prototype.then called on a non-Promise"))
		}
		onFulfilled, _ := isCallable(arg(args, 0))
		onRejected, _ := isCallable(arg(args, 1))
		result := vm.NewPromise()
		vm.PromiseThen(p,
			func(v object.Value) { settleChain(vm, result, onFulfilled, v, true) },
			func(v object.Value) { settleChain(vm, result, onRejected, v, false) },
		)
		return result, nil
	})
	defineMethod(realm, proto, "catch", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		thisObj, ok := this.(*object.Object)
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("Promise.prototype.catch called on a non-object"))
		}
		thenFn, err := getProperty(vm, thisObj, object.StringKey("then"))
		if err != nil {
			return nil, err
		}
		fn, _ := thenFn.(*object.Object)
		return vm.Call(fn, this, []object.Value{object.Undefined, arg(args, 0)})
	})
	defineMethod(realm, proto, "finally", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		onFinally, _ := isCallable(arg(args, 0))
		thisObj, ok := this.(*object.Object)
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("Promise.prototype.finally called on a non-object"))
		}
		thenFn, err := getProperty(vm, thisObj, object.StringKey("then"))
		if err != nil {
			return nil, err
		}
		fn, _ := thenFn.(*object.Object)
		wrap := nativeFunc(realm, "", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			if onFinally != nil {
				if _, err := vm.Call(onFinally, object.Undefined, nil); err != nil {
					return nil, err
				}
			}
			return arg(args, 0), nil
		})
		return vm.Call(fn, this, []object.Value{wrap, wrap})
	})

	ctor := realm.NewFunction(&object.CallableData{
		Name: "Promise", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			executor, ok := isCallable(arg(args, 0))
			if !ok {
				return nil, vm.Throw(vm.NewTypeError("Promise resolver is not a function"))
			}
			p := vm.NewPromise()
			resolveFn := nativeFunc(realm, "resolve", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
				vm.ResolvePromise(p, arg(args, 0))
				return object.Undefined, nil
			})
			rejectFn := nativeFunc(realm, "reject", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
				vm.RejectPromise(p, arg(args, 0))
				return object.Undefined, nil
			})
			if _, err := vm.Call(executor, object.Undefined, []object.Value{resolveFn, rejectFn}); err != nil {
				vm.RejectPromise(p, thrownValueOf(err))
			}
			return p, nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))

	defineMethod(realm, ctor, "resolve", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		v := arg(args, 0)
		if po, ok := v.(*object.Object); ok && po.Class == object.ClassPromise {
			return po, nil
		}
		p := vm.NewPromise()
		vm.ResolvePromise(p, v)
		return p, nil
	})
	defineMethod(realm, ctor, "reject", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		p := vm.NewPromise()
		vm.RejectPromise(p, arg(args, 0))
		return p, nil
	})
	defineMethod(realm, ctor, "all", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return promiseCombinator(realm, vm, arg(args, 0), combinatorAll)
	})
	defineMethod(realm, ctor, "allSettled", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return promiseCombinator(realm, vm, arg(args, 0), combinatorAllSettled)
	})
	defineMethod(realm, ctor, "race", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return promiseCombinator(realm, vm, arg(args, 0), combinatorRace)
	})

	return ctor
}

// settleChain implements a then() reaction: run the handler (if any)
// and propagate its result (or, absent a handler, the original
// settlement) into the derived promise.
func settleChain(vm object.VMContext, result object.Value, handler *object.Object, v object.Value, fulfilled bool) {
	if handler == nil {
		if fulfilled {
			vm.ResolvePromise(result, v)
		} else {
			vm.RejectPromise(result, v)
		}
		return
	}
	r, err := vm.Call(handler, object.Undefined, []object.Value{v})
	if err != nil {
		vm.RejectPromise(result, thrownValueOf(err))
		return
	}
	vm.ResolvePromise(result, r)
}

type combinatorKind int

const (
	combinatorAll combinatorKind = iota
	combinatorAllSettled
	combinatorRace
)

func promiseCombinator(realm *object.Realm, vm object.VMContext, iterable object.Value, kind combinatorKind) (object.Value, error) {
	arr, ok := iterable.(*object.Object)
	if !ok || arr.Class != object.ClassArray {
		return nil, vm.Throw(vm.NewTypeError("Promise combinator argument must be an array"))
	}
	items := arrayElements(arr)
	result := vm.NewPromise()
	if len(items) == 0 && kind != combinatorRace {
		vm.ResolvePromise(result, newArray(realm, nil))
		return result, nil
	}
	results := make([]object.Value, len(items))
	remaining := len(items)
	settled := false
	for i, item := range items {
		i := i
		p, isPromise := item.(*object.Object)
		if !isPromise || p.Class != object.ClassPromise {
			p = vm.NewPromise().(*object.Object)
			vm.ResolvePromise(p, item)
		}
		onFulfilled := func(v object.Value) {
			if settled {
				return
			}
			switch kind {
			case combinatorRace:
				settled = true
				vm.ResolvePromise(result, v)
			case combinatorAllSettled:
				o := object.New(realm.ObjectPrototype)
				define(o, "status", object.DataProperty(object.StringValue("fulfilled"), true, true, true))
				define(o, "value", object.DataProperty(v, true, true, true))
				results[i] = o
				remaining--
				if remaining == 0 {
					settled = true
					vm.ResolvePromise(result, newArray(realm, results))
				}
			default:
				results[i] = v
				remaining--
				if remaining == 0 {
					settled = true
					vm.ResolvePromise(result, newArray(realm, results))
				}
			}
		}
		onRejected := func(v object.Value) {
			if settled {
				return
			}
			switch kind {
			case combinatorAllSettled:
				o := object.New(realm.ObjectPrototype)
				define(o, "status", object.DataProperty(object.StringValue("rejected"), true, true, true))
				define(o, "reason", object.DataProperty(v, true, true, true))
				results[i] = o
				remaining--
				if remaining == 0 {
					settled = true
					vm.ResolvePromise(result, newArray(realm, results))
				}
			default:
				settled = true
				vm.RejectPromise(result, v)
			}
		}
		vm.PromiseThen(p, onFulfilled, onRejected)
	}
	return result, nil
}

func nativeFunc(realm *object.Realm, name string, length int, fn object.NativeFunc) *object.Object {
	return realm.NewFunction(&object.CallableData{Native: fn, Name: name, Length: length})
}

func defineGlobalFunc(realm *object.Realm, global *object.Object, name string, length int, fn object.NativeFunc) {
	defineMethod(realm, global, name, length, fn)
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// structuredClone is not part of spec.md's distilled scope but is a
// real, widely-implemented global (HTML living standard, adopted by
// every ECMAScript host) with an obvious implementation atop the
// JSON.stringify/parse machinery already built here; it only handles
// the JSON-representable subset of the full structured-clone
// algorithm (no Map/Set/ArrayBuffer support), which is an accepted
// scope reduction rather than a spec deviation: Map and Set have no
// methods in this package, and an ArrayBuffer's bytes live in
// Object.Internal, which the JSON round trip does not carry.
func structuredClone(realm *object.Realm, vm object.VMContext, v object.Value) (object.Value, error) {
	raw, ok, err := writeJSON(vm, v, map[*object.Object]bool{})
	if err != nil {
		return nil, err
	}
	if !ok {
		return object.Undefined, nil
	}
	return fromGJSON(realm, gjson.Parse(raw)), nil
}

func parseIntString(s string, radix int) float64 {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg, s = true, s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	} else if (radix == 0 || radix == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		radix = 16
		s = s[2:]
	}
	digitVal := func(c byte) int {
		switch {
		case c >= '0' && c <= '9':
			return int(c - '0')
		case c >= 'a' && c <= 'z':
			return int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			return int(c-'A') + 10
		}
		return -1
	}
	i := 0
	for i < len(s) && digitVal(s[i]) >= 0 && digitVal(s[i]) < radix {
		i++
	}
	if i == 0 {
		return math.NaN()
	}
	result := 0.0
	for j := 0; j < i; j++ {
		result = result*float64(radix) + float64(digitVal(s[j]))
	}
	if neg {
		result = -result
	}
	return result
}

func parseFloatString(s string) float64 {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
		return math.Inf(1)
	}
	if strings.HasPrefix(s, "-Infinity") {
		return math.Inf(-1)
	}
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	hadIntDigits := i > digitsStart
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if !hadIntDigits && i == digitsStart+1 {
		return math.NaN() // a lone "." with no digits at all
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	if i == 0 || i == digitsStart {
		return math.NaN()
	}
	return stringToNumber(s[:i])
}
