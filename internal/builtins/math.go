package builtins

import (
	"math"
	"math/rand"

	"github.com/jsvm/jsvm/internal/object"
)

// bootstrapMath builds the Math namespace object. Function selection
// and grouping follow the teacher's own registerMathBuiltins
// (internal/bytecode/vm_builtins_math.go): the same pi/sign/
// random/trig/rounding vocabulary, renamed from DWScript's
// capitalized free functions (Pi, Sign, Random) to ECMAScript's
// Math.* namespace-method spelling, dropping the handful with no
// ECMAScript equivalent (Gcd/Lcm/IsPrime/LeastFactor/PopCount/
// Haversine are DWScript-specific extensions, not part of the
// standard Math object).
func bootstrapMath(realm *object.Realm) *object.Object {
	m := object.New(realm.ObjectPrototype)

	define(m, "PI", object.DataProperty(object.Number(math.Pi), false, false, false))
	define(m, "E", object.DataProperty(object.Number(math.E), false, false, false))
	define(m, "LN2", object.DataProperty(object.Number(math.Ln2), false, false, false))
	define(m, "LN10", object.DataProperty(object.Number(math.Log(10)), false, false, false))
	define(m, "LOG2E", object.DataProperty(object.Number(1/math.Ln2), false, false, false))
	define(m, "LOG10E", object.DataProperty(object.Number(1/math.Log(10)), false, false, false))
	define(m, "SQRT2", object.DataProperty(object.Number(math.Sqrt2), false, false, false))
	define(m, "SQRT1_2", object.DataProperty(object.Number(math.Sqrt(0.5)), false, false, false))

	unary := map[string]func(float64) float64{
		"abs": math.Abs, "floor": math.Floor, "ceil": math.Ceil,
		"trunc": math.Trunc, "sqrt": math.Sqrt, "cbrt": math.Cbrt,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
		"asinh": math.Asinh, "acosh": math.Acosh, "atanh": math.Atanh,
		"exp": math.Exp, "expm1": math.Expm1,
		"log": math.Log, "log2": math.Log2, "log10": math.Log10, "log1p": math.Log1p,
		"round": jsRound, "sign": jsSign,
	}
	for name, fn := range unary {
		fn := fn
		defineMethod(realm, m, name, 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			n, err := toNumber(vm, arg(args, 0))
			if err != nil {
				return nil, err
			}
			return object.Number(fn(n)), nil
		})
	}

	defineMethod(realm, m, "pow", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		base, err := toNumber(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		exp, err := toNumber(vm, arg(args, 1))
		if err != nil {
			return nil, err
		}
		return object.Number(math.Pow(base, exp)), nil
	})
	defineMethod(realm, m, "atan2", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		y, err := toNumber(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		x, err := toNumber(vm, arg(args, 1))
		if err != nil {
			return nil, err
		}
		return object.Number(math.Atan2(y, x)), nil
	})
	defineMethod(realm, m, "hypot", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		sum := 0.0
		for _, a := range args {
			n, err := toNumber(vm, a)
			if err != nil {
				return nil, err
			}
			sum += n * n
		}
		return object.Number(math.Sqrt(sum)), nil
	})
	defineMethod(realm, m, "max", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return reduceNumbers(vm, args, math.Inf(-1), math.Max)
	})
	defineMethod(realm, m, "min", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return reduceNumbers(vm, args, math.Inf(1), math.Min)
	})
	defineMethod(realm, m, "random", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return object.Number(rand.Float64()), nil
	})

	define(m, "name", object.DataProperty(object.StringValue("Math"), false, false, true))
	return m
}

func jsRound(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	return math.Floor(n + 0.5)
}

func jsSign(n float64) float64 {
	switch {
	case math.IsNaN(n):
		return n
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return n
	}
}

func reduceNumbers(vm object.VMContext, args []object.Value, identity float64, combine func(a, b float64) float64) (object.Value, error) {
	result := identity
	for _, a := range args {
		n, err := toNumber(vm, a)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(n) {
			return object.Number(math.NaN()), nil
		}
		result = combine(result, n)
	}
	return object.Number(result), nil
}
