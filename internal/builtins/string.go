package builtins

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jsvm/jsvm/internal/object"
)

// bootstrapString builds String.prototype and the String constructor.
// A bare `String(x)` call (this == Undefined, per compileCall's "this =
// undefined for a bare function call") coerces to a primitive; `new
// String(x)` (this already an *object.Object, allocated by vm.Construct
// against newTarget.prototype) produces a ClassString wrapper object
// carrying the primitive in Internal, the same split errors.go uses to
// tell a plain call from a construct call without a dedicated
// newTarget parameter on NativeFunc.
//
// Strings are treated as rune sequences here rather than UTF-16 code
// units: charAt/slice/length-style indexing all count runes. This
// diverges from ECMAScript's UTF-16 indexing for text outside the
// Basic Multilingual Plane, an accepted simplification given Go's
// native string type is UTF-8, not UTF-16, and no pack library
// performs UTF-16 indexing either.
func bootstrapString(realm *object.Realm) *object.Object {
	proto := realm.StringPrototype
	proto.Class = object.ClassString
	proto.Internal = object.StringValue("")

	defineMethod(realm, proto, "toString", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(s), nil
	}))
	defineMethod(realm, proto, "valueOf", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(s), nil
	}))
	defineMethod(realm, proto, "charAt", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		i, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(rs) {
			return object.StringValue(""), nil
		}
		return object.StringValue(string(rs[i])), nil
	}))
	defineMethod(realm, proto, "at", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		i, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			i += len(rs)
		}
		if i < 0 || i >= len(rs) {
			return object.Undefined, nil
		}
		return object.StringValue(string(rs[i])), nil
	}))
	defineMethod(realm, proto, "charCodeAt", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		i, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(rs) {
			return object.Number(math.NaN()), nil
		}
		return object.Number(float64(rs[i])), nil
	}))
	defineMethod(realm, proto, "codePointAt", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		i, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(rs) {
			return object.Undefined, nil
		}
		return object.Number(float64(rs[i])), nil
	}))
	defineMethod(realm, proto, "indexOf", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		needle, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		from, err := toIntOrDefault(vm, arg(args, 1), 0)
		if err != nil {
			return nil, err
		}
		rs := []rune(s)
		if from < 0 {
			from = 0
		}
		if from > len(rs) {
			from = len(rs)
		}
		idx := strings.Index(string(rs[from:]), needle)
		if idx < 0 {
			return object.Number(-1), nil
		}
		return object.Number(float64(from + len([]rune(string(rs[from:])[:idx])))), nil
	}))
	defineMethod(realm, proto, "lastIndexOf", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		needle, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		idx := strings.LastIndex(s, needle)
		if idx < 0 {
			return object.Number(-1), nil
		}
		return object.Number(float64(len([]rune(s[:idx])))), nil
	}))
	defineMethod(realm, proto, "includes", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		needle, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return object.Boolean(strings.Contains(s, needle)), nil
	}))
	defineMethod(realm, proto, "startsWith", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		needle, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		pos, err := toIntOrDefault(vm, arg(args, 1), 0)
		if err != nil {
			return nil, err
		}
		rs := []rune(s)
		if pos < 0 {
			pos = 0
		}
		if pos > len(rs) {
			return object.Boolean(false), nil
		}
		return object.Boolean(strings.HasPrefix(string(rs[pos:]), needle)), nil
	}))
	defineMethod(realm, proto, "endsWith", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		needle, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		end := len([]rune(s))
		if len(args) > 1 && args[1] != object.Undefined {
			e, err := toIntOrDefault(vm, args[1], end)
			if err != nil {
				return nil, err
			}
			end = e
		}
		rs := []rune(s)
		if end < 0 {
			end = 0
		}
		if end > len(rs) {
			end = len(rs)
		}
		return object.Boolean(strings.HasSuffix(string(rs[:end]), needle)), nil
	}))
	defineMethod(realm, proto, "slice", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		start, end, err := sliceRange(vm, args, len(rs))
		if err != nil {
			return nil, err
		}
		if start >= end {
			return object.StringValue(""), nil
		}
		return object.StringValue(string(rs[start:end])), nil
	}))
	defineMethod(realm, proto, "substring", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		start, err := clampIndex(vm, arg(args, 0), len(rs))
		if err != nil {
			return nil, err
		}
		end := len(rs)
		if len(args) > 1 && args[1] != object.Undefined {
			end, err = clampIndex(vm, args[1], len(rs))
			if err != nil {
				return nil, err
			}
		}
		if start > end {
			start, end = end, start
		}
		return object.StringValue(string(rs[start:end])), nil
	}))
	defineMethod(realm, proto, "substr", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		rs := []rune(s)
		start, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if start < 0 {
			start += len(rs)
			if start < 0 {
				start = 0
			}
		}
		if start > len(rs) {
			start = len(rs)
		}
		length := len(rs) - start
		if len(args) > 1 && args[1] != object.Undefined {
			length, err = toIntOrDefault(vm, args[1], length)
			if err != nil {
				return nil, err
			}
		}
		if length < 0 {
			length = 0
		}
		end := start + length
		if end > len(rs) {
			end = len(rs)
		}
		return object.StringValue(string(rs[start:end])), nil
	}))
	defineMethod(realm, proto, "split", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		if len(args) == 0 || args[0] == object.Undefined {
			return newArray(realm, []object.Value{object.StringValue(s)}), nil
		}
		sep, err := toStringValue(vm, args[0])
		if err != nil {
			return nil, err
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		if len(args) > 1 && args[1] != object.Undefined {
			limit, err := toIntOrDefault(vm, args[1], len(parts))
			if err != nil {
				return nil, err
			}
			if limit < len(parts) {
				parts = parts[:limit]
			}
		}
		elems := make([]object.Value, len(parts))
		for i, p := range parts {
			elems[i] = object.StringValue(p)
		}
		return newArray(realm, elems), nil
	}))
	defineMethod(realm, proto, "trim", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.TrimSpace(s)), nil
	}))
	defineMethod(realm, proto, "trimStart", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.TrimLeftFunc(s, unicode.IsSpace)), nil
	}))
	defineMethod(realm, proto, "trimEnd", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.TrimRightFunc(s, unicode.IsSpace)), nil
	}))
	defineMethod(realm, proto, "padStart", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return padString(vm, s, args, true)
	}))
	defineMethod(realm, proto, "padEnd", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return padString(vm, s, args, false)
	}))
	defineMethod(realm, proto, "repeat", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		n, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, vm.Throw(vm.NewRangeError("repeat count must be non-negative"))
		}
		return object.StringValue(strings.Repeat(s, n)), nil
	}))
	defineMethod(realm, proto, "concat", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		out := s
		for _, a := range args {
			part, err := toStringValue(vm, a)
			if err != nil {
				return nil, err
			}
			out += part
		}
		return object.StringValue(out), nil
	}))
	defineMethod(realm, proto, "toUpperCase", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.ToUpper(s)), nil
	}))
	defineMethod(realm, proto, "toLowerCase", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.ToLower(s)), nil
	}))
	defineMethod(realm, proto, "toLocaleUpperCase", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.ToUpper(s)), nil
	}))
	defineMethod(realm, proto, "toLocaleLowerCase", 0, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.StringValue(strings.ToLower(s)), nil
	}))
	defineMethod(realm, proto, "replace", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return stringReplace(vm, s, args, false)
	}))
	defineMethod(realm, proto, "replaceAll", 2, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		return stringReplace(vm, s, args, true)
	}))
	defineMethod(realm, proto, "normalize", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		form := "NFC"
		if len(args) > 0 && args[0] != object.Undefined {
			f, err := toStringValue(vm, args[0])
			if err != nil {
				return nil, err
			}
			form = f
		}
		var nf norm.Form
		switch form {
		case "NFC":
			nf = norm.NFC
		case "NFD":
			nf = norm.NFD
		case "NFKC":
			nf = norm.NFKC
		case "NFKD":
			nf = norm.NFKD
		default:
			return nil, vm.Throw(vm.NewRangeError("invalid normalization form"))
		}
		return object.StringValue(nf.String(s)), nil
	}))
	defineMethod(realm, proto, "localeCompare", 1, stringThisMethod(func(s string, vm object.VMContext, args []object.Value) (object.Value, error) {
		other, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		c := collate.New(language.Und)
		return object.Number(float64(c.CompareString(s, other))), nil
	}))

	ctor := realm.NewFunction(&object.CallableData{
		Name: "String", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			s := ""
			if len(args) > 0 {
				v, err := toStringValue(vm, args[0])
				if err != nil {
					return nil, err
				}
				s = v
			}
			if obj, ok := this.(*object.Object); ok {
				obj.Class = object.ClassString
				obj.Internal = object.StringValue(s)
				return obj, nil
			}
			return object.StringValue(s), nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))
	defineMethod(realm, ctor, "fromCharCode", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		rs := make([]rune, len(args))
		for i, a := range args {
			n, err := toNumber(vm, a)
			if err != nil {
				return nil, err
			}
			rs[i] = rune(int(n))
		}
		return object.StringValue(string(rs)), nil
	})
	return ctor
}

// stringThisMethod unwraps either a primitive StringValue `this` or a
// ClassString wrapper object's Internal value, matching how every
// other String.prototype method accepts both call forms
// ("abc".indexOf vs. new String("abc").indexOf).
func stringThisMethod(fn func(s string, vm object.VMContext, args []object.Value) (object.Value, error)) object.NativeFunc {
	return func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		switch t := this.(type) {
		case object.StringValue:
			return fn(string(t), vm, args)
		case *object.Object:
			if sv, ok := t.Internal.(object.StringValue); ok {
				return fn(string(sv), vm, args)
			}
		}
		return nil, vm.Throw(vm.NewTypeError("String.prototype method called on incompatible receiver"))
	}
}

func padString(vm object.VMContext, s string, args []object.Value, start bool) (object.Value, error) {
	targetLen, err := toIntOrDefault(vm, arg(args, 0), 0)
	if err != nil {
		return nil, err
	}
	pad := " "
	if len(args) > 1 && args[1] != object.Undefined {
		p, err := toStringValue(vm, args[1])
		if err != nil {
			return nil, err
		}
		pad = p
	}
	rs := []rune(s)
	if pad == "" || targetLen <= len(rs) {
		return object.StringValue(s), nil
	}
	need := targetLen - len(rs)
	padRunes := []rune(pad)
	fill := make([]rune, 0, need)
	for len(fill) < need {
		fill = append(fill, padRunes...)
	}
	fill = fill[:need]
	if start {
		return object.StringValue(string(fill) + s), nil
	}
	return object.StringValue(s + string(fill)), nil
}

// stringReplace implements replace/replaceAll's string-pattern form
// (regex patterns are out of scope until RegExp gains a real builtin
// surface); the replacement argument may be a string (with "$&"
// substitution) or a callback, mirroring ReplaceAll/ReplaceFirst
// generalized with a callback escape hatch.
func stringReplace(vm object.VMContext, s string, args []object.Value, all bool) (object.Value, error) {
	pattern, err := toStringValue(vm, arg(args, 0))
	if err != nil {
		return nil, err
	}
	replacement := arg(args, 1)
	if fn, ok := isCallable(replacement); ok {
		count := 1
		if all {
			count = -1
		}
		var out strings.Builder
		rest := s
		for {
			idx := strings.Index(rest, pattern)
			if idx < 0 || count == 0 {
				out.WriteString(rest)
				break
			}
			out.WriteString(rest[:idx])
			res, err := vm.Call(fn, object.Undefined, []object.Value{object.StringValue(pattern), object.Number(float64(len(s) - len(rest) + idx))})
			if err != nil {
				return nil, err
			}
			rstr, err := toStringValue(vm, res)
			if err != nil {
				return nil, err
			}
			out.WriteString(rstr)
			rest = rest[idx+len(pattern):]
			if count > 0 {
				count--
			}
			if pattern == "" {
				break
			}
		}
		return object.StringValue(out.String()), nil
	}
	repl, err := toStringValue(vm, replacement)
	if err != nil {
		return nil, err
	}
	repl = strings.ReplaceAll(repl, "$&", pattern)
	if all {
		return object.StringValue(strings.ReplaceAll(s, pattern, repl)), nil
	}
	return object.StringValue(strings.Replace(s, pattern, repl, 1)), nil
}
