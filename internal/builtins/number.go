package builtins

import (
	"math"
	"strconv"

	"github.com/jsvm/jsvm/internal/object"
)

// bootstrapNumber builds Number.prototype and the Number constructor,
// following the same bare-call-vs-construct split bootstrapString
// uses: `Number(x)` (this == Undefined) coerces to a primitive, `new
// Number(x)` (this already allocated by vm.Construct) wraps it.
func bootstrapNumber(realm *object.Realm) *object.Object {
	proto := realm.NumberPrototype
	proto.Class = object.ClassNumber
	proto.Internal = object.Number(0)

	defineMethod(realm, proto, "toString", 1, numberThisMethod(func(n float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		radix := 10
		if len(args) > 0 && args[0] != object.Undefined {
			r, err := toIntOrDefault(vm, args[0], 10)
			if err != nil {
				return nil, err
			}
			radix = r
		}
		if radix == 10 {
			return object.StringValue(object.NumberToString(n)), nil
		}
		if radix < 2 || radix > 36 {
			return nil, vm.Throw(vm.NewRangeError("toString() radix must be between 2 and 36"))
		}
		return object.StringValue(formatRadix(n, radix)), nil
	}))
	defineMethod(realm, proto, "valueOf", 0, numberThisMethod(func(n float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.Number(n), nil
	}))
	defineMethod(realm, proto, "toFixed", 1, numberThisMethod(func(n float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		digits, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if digits < 0 || digits > 100 {
			return nil, vm.Throw(vm.NewRangeError("toFixed() digits argument out of range"))
		}
		if math.IsNaN(n) {
			return object.StringValue("NaN"), nil
		}
		return object.StringValue(strconv.FormatFloat(n, 'f', digits, 64)), nil
	}))
	defineMethod(realm, proto, "toPrecision", 1, numberThisMethod(func(n float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		if len(args) == 0 || args[0] == object.Undefined {
			return object.StringValue(object.NumberToString(n)), nil
		}
		p, err := toIntOrDefault(vm, args[0], 6)
		if err != nil {
			return nil, err
		}
		return object.StringValue(strconv.FormatFloat(n, 'g', p, 64)), nil
	}))
	defineMethod(realm, proto, "toExponential", 1, numberThisMethod(func(n float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		digits := -1
		if len(args) > 0 && args[0] != object.Undefined {
			d, err := toIntOrDefault(vm, args[0], 6)
			if err != nil {
				return nil, err
			}
			digits = d
		}
		s := strconv.FormatFloat(n, 'e', digits, 64)
		return object.StringValue(normalizeExponent(s)), nil
	}))
	defineMethod(realm, proto, "toLocaleString", 0, numberThisMethod(func(n float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(object.NumberToString(n)), nil
	}))

	ctor := realm.NewFunction(&object.CallableData{
		Name: "Number", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			n := 0.0
			if len(args) > 0 {
				v, err := toNumber(vm, args[0])
				if err != nil {
					return nil, err
				}
				n = v
			}
			if obj, ok := this.(*object.Object); ok {
				obj.Class = object.ClassNumber
				obj.Internal = object.Number(n)
				return obj, nil
			}
			return object.Number(n), nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))

	define(ctor, "MAX_SAFE_INTEGER", object.DataProperty(object.Number(9007199254740991), false, false, false))
	define(ctor, "MIN_SAFE_INTEGER", object.DataProperty(object.Number(-9007199254740991), false, false, false))
	define(ctor, "MAX_VALUE", object.DataProperty(object.Number(math.MaxFloat64), false, false, false))
	define(ctor, "MIN_VALUE", object.DataProperty(object.Number(5e-324), false, false, false))
	define(ctor, "EPSILON", object.DataProperty(object.Number(2.220446049250313e-16), false, false, false))
	define(ctor, "POSITIVE_INFINITY", object.DataProperty(object.Number(math.Inf(1)), false, false, false))
	define(ctor, "NEGATIVE_INFINITY", object.DataProperty(object.Number(math.Inf(-1)), false, false, false))
	define(ctor, "NaN", object.DataProperty(object.Number(math.NaN()), false, false, false))

	defineMethod(realm, ctor, "isInteger", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		n, ok := arg(args, 0).(object.Number)
		return object.Boolean(ok && !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0) && float64(n) == math.Trunc(float64(n))), nil
	})
	defineMethod(realm, ctor, "isSafeInteger", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		n, ok := arg(args, 0).(object.Number)
		if !ok || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) || float64(n) != math.Trunc(float64(n)) {
			return object.Boolean(false), nil
		}
		return object.Boolean(math.Abs(float64(n)) <= 9007199254740991), nil
	})
	defineMethod(realm, ctor, "isFinite", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		n, ok := arg(args, 0).(object.Number)
		return object.Boolean(ok && !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), nil
	})
	defineMethod(realm, ctor, "isNaN", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		n, ok := arg(args, 0).(object.Number)
		return object.Boolean(ok && math.IsNaN(float64(n))), nil
	})
	defineMethod(realm, ctor, "parseFloat", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		s, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return object.Number(parseFloatString(s)), nil
	})
	defineMethod(realm, ctor, "parseInt", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		s, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		radix, err := toIntOrDefault(vm, arg(args, 1), 10)
		if err != nil {
			return nil, err
		}
		if radix == 0 {
			radix = 10
		}
		return object.Number(parseIntString(s, radix)), nil
	})

	return ctor
}

func numberThisMethod(fn func(n float64, vm object.VMContext, args []object.Value) (object.Value, error)) object.NativeFunc {
	return func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		switch t := this.(type) {
		case object.Number:
			return fn(float64(t), vm, args)
		case *object.Object:
			if nv, ok := t.Internal.(object.Number); ok {
				return fn(float64(nv), vm, args)
			}
		}
		return nil, vm.Throw(vm.NewTypeError("Number.prototype method called on incompatible receiver"))
	}
}

// formatRadix implements Number.prototype.toString's non-decimal
// radix form; strconv handles integers directly and a fixed-point
// fractional remainder is appended digit by digit, matching the
// teacher's own base-conversion helpers' manual-digit-loop style
// rather than reaching for a library (no pack dependency formats
// floats in an arbitrary radix).
func formatRadix(n float64, radix int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	intPart := math.Trunc(n)
	frac := n - intPart
	s := strconv.FormatInt(int64(intPart), radix)
	if frac > 0 {
		s += "."
		for i := 0; i < 20 && frac > 0; i++ {
			frac *= float64(radix)
			d := int(frac)
			s += strconv.FormatInt(int64(d), radix)
			frac -= float64(d)
		}
	}
	if neg {
		s = "-" + s
	}
	return s
}

// normalizeExponent rewrites Go's "e+05"-style exponent into
// ECMAScript's "e+5" (no leading zero-padding on the exponent digits).
func normalizeExponent(s string) string {
	idx := -1
	for i, c := range s {
		if c == 'e' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	mantissa, exp := s[:idx], s[idx+1:]
	sign := "+"
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		if exp[0] == '-' {
			sign = "-"
		}
		exp = exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	return mantissa + "e" + sign + exp
}
