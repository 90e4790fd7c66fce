package vm

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/environment"
	"github.com/jsvm/jsvm/internal/object"
)

// toPrimitive implements ToPrimitive with an explicit hint ("string",
// "number", or "default").
func (vm *VM) toPrimitive(v object.Value, hint string) (object.Value, error) {
	obj, ok := v.(*object.Object)
	if !ok {
		return v, nil
	}
	exotic, err := vm.getProperty(obj, object.SymbolKey(object.SymToPrimitive))
	if err != nil {
		return nil, err
	}
	if fo, ok := exotic.(*object.Object); ok && fo.IsCallable() {
		return vm.Call(fo, obj, []object.Value{object.StringValue(hint)})
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, m := range methods {
		fnv, err := vm.getProperty(obj, object.StringKey(m))
		if err != nil {
			return nil, err
		}
		if fn, ok := fnv.(*object.Object); ok && fn.IsCallable() {
			res, err := vm.Call(fn, obj, nil)
			if err != nil {
				return nil, err
			}
			if _, isObj := res.(*object.Object); !isObj {
				return res, nil
			}
		}
	}
	return nil, vm.throwTypeError("cannot convert object to primitive value")
}

// getProperty performs Get(key) against obj, transparently invoking an
// accessor's getter via vm.Call when Get signals one through the
// getterCall sentinel.
func (vm *VM) getProperty(obj *object.Object, key object.PropertyKey) (object.Value, error) {
	v, err := obj.Get(key, obj)
	if err == nil {
		return v, nil
	}
	if fn, this, ok := object.AsGetterCall(err); ok {
		if fn == nil {
			return object.Undefined, nil
		}
		return vm.Call(fn, this, nil)
	}
	return nil, err
}

func (vm *VM) toNumber(v object.Value) (object.Number, error) {
	switch n := v.(type) {
	case object.Number:
		return n, nil
	case object.Boolean:
		if n {
			return object.Number(1), nil
		}
		return object.Number(0), nil
	case object.StringValue:
		return object.Number(stringToNumber(string(n))), nil
	case object.BigIntValue:
		return 0, vm.throwTypeError("cannot convert a BigInt value to a number")
	}
	if v == object.Undefined {
		return object.Number(math.NaN()), nil
	}
	if v == object.Null {
		return object.Number(0), nil
	}
	prim, err := vm.toPrimitive(v, "number")
	if err != nil {
		return 0, err
	}
	if _, ok := prim.(*object.Object); ok {
		return object.Number(math.NaN()), nil
	}
	return vm.toNumber(prim)
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToString performs ECMAScript's ToString abstract operation, exported
// for embedders (pkg/engine, the jsvm CLI's `run`/`parse --dump-ast`
// result printers) that need to display a completion value the way
// the language itself would coerce it to a string, rather than Go's
// %v formatting of the underlying Value representation.
func (vm *VM) ToString(v object.Value) (string, error) {
	return vm.toStringValue(v)
}

func (vm *VM) toStringValue(v object.Value) (string, error) {
	switch s := v.(type) {
	case object.StringValue:
		return string(s), nil
	case object.Number:
		return object.NumberToString(float64(s)), nil
	case object.Boolean:
		if s {
			return "true", nil
		}
		return "false", nil
	case object.BigIntValue:
		return s.V.String(), nil
	case *object.SymbolValue:
		return "", vm.throwTypeError("cannot convert a Symbol value to a string")
	}
	if v == object.Undefined {
		return "undefined", nil
	}
	if v == object.Null {
		return "null", nil
	}
	prim, err := vm.toPrimitive(v, "string")
	if err != nil {
		return "", err
	}
	if _, ok := prim.(*object.Object); ok {
		return "[object Object]", nil
	}
	return vm.toStringValue(prim)
}

func (vm *VM) toPropertyKey(v object.Value) (object.PropertyKey, error) {
	if sym, ok := v.(*object.SymbolValue); ok {
		return sym, nil
	}
	s, err := vm.toStringValue(v)
	if err != nil {
		return nil, err
	}
	return object.StringKey(s), nil
}

// add implements the `+` operator's ToPrimitive-then-either-concat-or-
// add algorithm.
func (vm *VM) add(a, b object.Value) (object.Value, error) {
	pa, err := vm.toPrimitive(a, "default")
	if err != nil {
		return nil, err
	}
	pb, err := vm.toPrimitive(b, "default")
	if err != nil {
		return nil, err
	}
	_, aStr := pa.(object.StringValue)
	_, bStr := pb.(object.StringValue)
	if aStr || bStr {
		sa, err := vm.toStringValue(pa)
		if err != nil {
			return nil, err
		}
		sb, err := vm.toStringValue(pb)
		if err != nil {
			return nil, err
		}
		return object.StringValue(sa + sb), nil
	}
	abi, aIsBig := pa.(object.BigIntValue)
	bbi, bIsBig := pb.(object.BigIntValue)
	if aIsBig || bIsBig {
		if !aIsBig || !bIsBig {
			return nil, vm.throwTypeError("cannot mix BigInt and other types, use explicit conversions")
		}
		return object.BigIntValue{V: new(big.Int).Add(abi.V, bbi.V)}, nil
	}
	na, err := vm.toNumber(pa)
	if err != nil {
		return nil, err
	}
	nb, err := vm.toNumber(pb)
	if err != nil {
		return nil, err
	}
	return na + nb, nil
}

// compareLess implements the Abstract Relational Comparison, returning
// result in {-1,0,1} and undef=true when either side is NaN (so the
// opcode handlers can make "never true" fall out naturally).
func (vm *VM) compareLess(a, b object.Value, leftFirst bool) (result int, undef bool, err error) {
	var pa, pb object.Value
	if leftFirst {
		if pa, err = vm.toPrimitive(a, "number"); err != nil {
			return 0, false, err
		}
		if pb, err = vm.toPrimitive(b, "number"); err != nil {
			return 0, false, err
		}
	} else {
		if pb, err = vm.toPrimitive(b, "number"); err != nil {
			return 0, false, err
		}
		if pa, err = vm.toPrimitive(a, "number"); err != nil {
			return 0, false, err
		}
	}
	sa, aIsStr := pa.(object.StringValue)
	sb, bIsStr := pb.(object.StringValue)
	if aIsStr && bIsStr {
		switch {
		case string(sa) < string(sb):
			return -1, false, nil
		case string(sa) == string(sb):
			return 0, false, nil
		default:
			return 1, false, nil
		}
	}
	na, err := vm.toNumber(pa)
	if err != nil {
		return 0, false, err
	}
	nb, err := vm.toNumber(pb)
	if err != nil {
		return 0, false, err
	}
	if na.IsNaN() || nb.IsNaN() {
		return 0, true, nil
	}
	switch {
	case na < nb:
		return -1, false, nil
	case na == nb:
		return 0, false, nil
	default:
		return 1, false, nil
	}
}

func sameValueZero(a, b object.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case object.Number:
		return av.SameValueZero(b.(object.Number))
	case object.StringValue:
		return av == b.(object.StringValue)
	case object.Boolean:
		return av == b.(object.Boolean)
	case object.BigIntValue:
		return av.V.Cmp(b.(object.BigIntValue).V) == 0
	default:
		return a == b
	}
}

// abstractEquals implements `==`.
func (vm *VM) abstractEquals(a, b object.Value) (bool, error) {
	if a.Kind() == b.Kind() {
		return vm.strictEquals(a, b), nil
	}
	if (a == object.Null && b == object.Undefined) || (a == object.Undefined && b == object.Null) {
		return true, nil
	}
	if _, ok := a.(object.Number); ok {
		if _, ok := b.(object.StringValue); ok {
			nb, err := vm.toNumber(b)
			if err != nil {
				return false, err
			}
			return sameValueZero(a, nb), nil
		}
	}
	if _, ok := b.(object.Number); ok {
		if _, ok := a.(object.StringValue); ok {
			na, err := vm.toNumber(a)
			if err != nil {
				return false, err
			}
			return sameValueZero(na, b), nil
		}
	}
	if ab, ok := a.(object.Boolean); ok {
		na, _ := vm.toNumber(ab)
		return vm.abstractEquals(na, b)
	}
	if bb, ok := b.(object.Boolean); ok {
		nb, _ := vm.toNumber(bb)
		return vm.abstractEquals(a, nb)
	}
	_, aObj := a.(*object.Object)
	_, bNum := b.(object.Number)
	_, bStr := b.(object.StringValue)
	_, bBig := b.(object.BigIntValue)
	if aObj && (bNum || bStr || bBig) {
		pa, err := vm.toPrimitive(a, "default")
		if err != nil {
			return false, err
		}
		return vm.abstractEquals(pa, b)
	}
	_, bObj := b.(*object.Object)
	_, aNum := a.(object.Number)
	_, aStr := a.(object.StringValue)
	_, aBig := a.(object.BigIntValue)
	if bObj && (aNum || aStr || aBig) {
		pb, err := vm.toPrimitive(b, "default")
		if err != nil {
			return false, err
		}
		return vm.abstractEquals(a, pb)
	}
	return false, nil
}

func (vm *VM) strictEquals(a, b object.Value) bool {
	if na, ok := a.(object.Number); ok {
		if nb, ok := b.(object.Number); ok {
			return float64(na) == float64(nb)
		}
		return false
	}
	return sameValueZero(a, b)
}

// toInt32/toUint32 implement the ToInt32/ToUint32 abstract operations
// (modular reduction into a 32-bit range), used by the bitwise
// operators and BitNot.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(f)))
}

// arith implements the numeric (and BigInt) binary operators other than
// `+`, which add already handles (it alone also does string
// concatenation).
func (vm *VM) arith(op bytecode.OpCode, a, b object.Value) (object.Value, error) {
	pa, err := vm.toPrimitive(a, "number")
	if err != nil {
		return nil, err
	}
	pb, err := vm.toPrimitive(b, "number")
	if err != nil {
		return nil, err
	}
	abi, aIsBig := pa.(object.BigIntValue)
	bbi, bIsBig := pb.(object.BigIntValue)
	if aIsBig || bIsBig {
		if !aIsBig || !bIsBig {
			return nil, vm.throwTypeError("cannot mix BigInt and other types, use explicit conversions")
		}
		r := new(big.Int)
		switch op {
		case bytecode.Sub:
			r.Sub(abi.V, bbi.V)
		case bytecode.Mul:
			r.Mul(abi.V, bbi.V)
		case bytecode.Div:
			if bbi.V.Sign() == 0 {
				return nil, vm.throwRangeError("division by zero")
			}
			r.Quo(abi.V, bbi.V)
		case bytecode.Mod:
			if bbi.V.Sign() == 0 {
				return nil, vm.throwRangeError("division by zero")
			}
			r.Rem(abi.V, bbi.V)
		case bytecode.Pow:
			r.Exp(abi.V, bbi.V, nil)
		}
		return object.BigIntValue{V: r}, nil
	}
	na, err := vm.toNumber(pa)
	if err != nil {
		return nil, err
	}
	nb, err := vm.toNumber(pb)
	if err != nil {
		return nil, err
	}
	switch op {
	case bytecode.Sub:
		return na - nb, nil
	case bytecode.Mul:
		return na * nb, nil
	case bytecode.Div:
		return object.Number(float64(na) / float64(nb)), nil
	case bytecode.Mod:
		return object.Number(math.Mod(float64(na), float64(nb))), nil
	case bytecode.Pow:
		return object.Number(math.Pow(float64(na), float64(nb))), nil
	}
	return object.Undefined, nil
}

// bitwise implements the integer bitwise/shift operators via ToInt32/
// ToUint32 coercion.
func (vm *VM) bitwise(op bytecode.OpCode, a, b object.Value) (object.Value, error) {
	na, err := vm.toNumber(a)
	if err != nil {
		return nil, err
	}
	nb, err := vm.toNumber(b)
	if err != nil {
		return nil, err
	}
	ia, ib := toInt32(float64(na)), toInt32(float64(nb))
	switch op {
	case bytecode.BitAnd:
		return object.Number(float64(ia & ib)), nil
	case bytecode.BitOr:
		return object.Number(float64(ia | ib)), nil
	case bytecode.BitXor:
		return object.Number(float64(ia ^ ib)), nil
	case bytecode.Shl:
		return object.Number(float64(ia << (uint32(ib) & 31))), nil
	case bytecode.Shr:
		return object.Number(float64(ia >> (uint32(ib) & 31))), nil
	case bytecode.UShr:
		ua := toUint32(float64(na))
		return object.Number(float64(ua >> (uint32(ib) & 31))), nil
	}
	return object.Undefined, nil
}

// instanceOf implements the `instanceof` operator: Symbol.hasInstance
// if the right-hand side defines one, else OrdinaryHasInstance's
// prototype-chain walk.
func (vm *VM) instanceOf(a, b object.Value) (bool, error) {
	ctor, ok := b.(*object.Object)
	if !ok {
		return false, vm.throwTypeError("right-hand side of 'instanceof' is not callable")
	}
	hi, err := vm.getProperty(ctor, object.SymbolKey(object.SymHasInstance))
	if err != nil {
		return false, err
	}
	if fn, ok := hi.(*object.Object); ok && fn.IsCallable() {
		r, err := vm.Call(fn, ctor, []object.Value{a})
		if err != nil {
			return false, err
		}
		return object.ToBoolean(r), nil
	}
	if !ctor.IsCallable() {
		return false, vm.throwTypeError("right-hand side of 'instanceof' is not callable")
	}
	inst, ok := a.(*object.Object)
	if !ok {
		return false, nil
	}
	protoV, err := vm.getProperty(ctor, object.StringKey("prototype"))
	if err != nil {
		return false, err
	}
	proto, ok := protoV.(*object.Object)
	if !ok {
		return false, vm.throwTypeError("function has non-object prototype in instanceof check")
	}
	for p := inst.GetPrototypeOf(); p != nil; p = p.GetPrototypeOf() {
		if p == proto {
			return true, nil
		}
	}
	return false, nil
}

// setProperty performs Set(key, v) against obj, transparently invoking
// an accessor's setter via vm.Call when Set signals one through the
// setterCall sentinel.
func (vm *VM) setProperty(obj *object.Object, key object.PropertyKey, v object.Value) error {
	ok, err := obj.Set(key, v, obj)
	if err == nil {
		if !ok {
			return nil // silent failure in sloppy mode: non-writable property, no-op
		}
		return nil
	}
	if fn, this, val, is := object.AsSetterCall(err); is {
		_, callErr := vm.Call(fn, this, []object.Value{val})
		return callErr
	}
	return err
}

// lookupName resolves a free identifier reference against env's chain.
// throwIfMissing distinguishes GetName (a ReferenceError on failure)
// from GetNameOrUndefined (typeof's unresolvable-reference carve-out).
func (vm *VM) lookupName(env *environment.Record, name string, throwIfMissing bool) (object.Value, error) {
	rec, slot, found := environment.Lookup(env, name)
	if !found {
		if throwIfMissing {
			return nil, vm.throwReferenceError("%s is not defined", name)
		}
		return object.Undefined, nil
	}
	if slot < 0 {
		return vm.getProperty(rec.Backing, object.StringKey(name))
	}
	v, ok := rec.GetSlot(slot)
	if !ok {
		return nil, vm.throwReferenceError("cannot access '%s' before initialization", name)
	}
	return v, nil
}

// assignName resolves and writes a free identifier reference. An
// unresolved name in sloppy-mode code implicitly creates a global
// property (the strict-mode case is rejected earlier, by the compiler
// emitting ThrowMutateImmutable/a direct ReferenceError check, not
// here).
func (vm *VM) assignName(env *environment.Record, name string, v object.Value) error {
	rec, slot, found := environment.Lookup(env, name)
	if !found {
		g := nearestGlobal(env)
		if g == nil {
			return vm.throwReferenceError("%s is not defined", name)
		}
		return vm.setProperty(g.Backing, object.StringKey(name), v)
	}
	if slot < 0 {
		return vm.setProperty(rec.Backing, object.StringKey(name), v)
	}
	if !rec.SetSlot(slot, v) {
		return vm.throwTypeError("assignment to constant variable")
	}
	return nil
}
