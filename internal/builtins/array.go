package builtins

import "github.com/jsvm/jsvm/internal/object"

// bootstrapArray builds Array.prototype (the mutation/iteration
// surface every array literal's [[Prototype]] inherits from) and the
// Array constructor/Array.isArray static. Method selection follows
// the teacher's registerMiscBuiltins array helpers (Length, array
// iteration) generalized to the full ECMAScript Array.prototype
// vocabulary the dws interpreter has no equivalent for at all (dws
// arrays are fixed-size declared-type arrays, not ECMAScript's dense,
// dynamically-growing exotic objects) — grounded instead directly on
// the ArrayData/SetArrayIndex/SetArrayLength exotic-object machinery
// internal/object/array.go already implements.
func bootstrapArray(realm *object.Realm) *object.Object {
	proto := object.NewArray(realm.ObjectPrototype, nil)
	realm.ArrayPrototype = proto

	defineMethod(realm, proto, "push", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		for _, a := range args {
			arr.SetArrayIndex(len(arr.Array.Elements), a)
		}
		return object.Number(len(arr.Array.Elements)), nil
	})
	defineMethod(realm, proto, "pop", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		n := len(arr.Array.Elements)
		if n == 0 {
			return object.Undefined, nil
		}
		v := arr.Array.Elements[n-1]
		arr.SetArrayLength(n - 1)
		if v == nil {
			return object.Undefined, nil
		}
		return v, nil
	})
	defineMethod(realm, proto, "shift", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		if len(arr.Array.Elements) == 0 {
			return object.Undefined, nil
		}
		v := arr.Array.Elements[0]
		arr.Array.Elements = arr.Array.Elements[1:]
		if v == nil {
			return object.Undefined, nil
		}
		return v, nil
	})
	defineMethod(realm, proto, "unshift", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		arr.Array.Elements = append(append([]object.Value(nil), args...), arr.Array.Elements...)
		return object.Number(len(arr.Array.Elements)), nil
	})
	defineMethod(realm, proto, "slice", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		elems := arrayElements(arr)
		start, end, err := sliceRange(vm, args, len(elems))
		if err != nil {
			return nil, err
		}
		return newArray(realm, append([]object.Value(nil), elems[start:end]...)), nil
	})
	defineMethod(realm, proto, "splice", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		elems := arr.Array.Elements
		start, err := clampIndex(vm, arg(args, 0), len(elems))
		if err != nil {
			return nil, err
		}
		deleteCount := len(elems) - start
		if len(args) > 1 {
			n, err := toIntOrDefault(vm, args[1], deleteCount)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				n = 0
			}
			if n > len(elems)-start {
				n = len(elems) - start
			}
			deleteCount = n
		}
		removed := append([]object.Value(nil), elems[start:start+deleteCount]...)
		var inserted []object.Value
		if len(args) > 2 {
			inserted = args[2:]
		}
		tail := append([]object.Value(nil), elems[start+deleteCount:]...)
		arr.Array.Elements = append(append(elems[:start:start], inserted...), tail...)
		return newArray(realm, removed), nil
	})
	defineMethod(realm, proto, "concat", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		out := append([]object.Value(nil), arrayElements(arr)...)
		for _, a := range args {
			if other, ok := a.(*object.Object); ok && other.Class == object.ClassArray {
				out = append(out, arrayElements(other)...)
			} else {
				out = append(out, a)
			}
		}
		return newArray(realm, out), nil
	})
	defineMethod(realm, proto, "join", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		sep := ","
		if len(args) > 0 && args[0] != object.Undefined {
			sep, err = toStringValue(vm, args[0])
			if err != nil {
				return nil, err
			}
		}
		s, err := joinArray(vm, arr, sep)
		if err != nil {
			return nil, err
		}
		return object.StringValue(s), nil
	})
	defineMethod(realm, proto, "reverse", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		e := arr.Array.Elements
		for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
			e[i], e[j] = e[j], e[i]
		}
		return arr, nil
	})
	defineMethod(realm, proto, "indexOf", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		target := arg(args, 0)
		for i, v := range arrayElements(arr) {
			if strictEquals(v, target) {
				return object.Number(i), nil
			}
		}
		return object.Number(-1), nil
	})
	defineMethod(realm, proto, "includes", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		target := arg(args, 0)
		for _, v := range arrayElements(arr) {
			if strictEquals(v, target) || (isNaNValue(v) && isNaNValue(target)) {
				return object.Boolean(true), nil
			}
		}
		return object.Boolean(false), nil
	})

	defineMethod(realm, proto, "forEach", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		for i, v := range arrayElements(arr) {
			if _, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr}); err != nil {
				return nil, err
			}
		}
		return object.Undefined, nil
	})
	defineMethod(realm, proto, "map", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		elems := arrayElements(arr)
		out := make([]object.Value, len(elems))
		for i, v := range elems {
			r, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return newArray(realm, out), nil
	})
	defineMethod(realm, proto, "filter", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		var out []object.Value
		for i, v := range arrayElements(arr) {
			r, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if toBoolean(r) {
				out = append(out, v)
			}
		}
		return newArray(realm, out), nil
	})
	defineMethod(realm, proto, "find", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		for i, v := range arrayElements(arr) {
			r, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if toBoolean(r) {
				return v, nil
			}
		}
		return object.Undefined, nil
	})
	defineMethod(realm, proto, "findIndex", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		for i, v := range arrayElements(arr) {
			r, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if toBoolean(r) {
				return object.Number(i), nil
			}
		}
		return object.Number(-1), nil
	})
	defineMethod(realm, proto, "some", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		for i, v := range arrayElements(arr) {
			r, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if toBoolean(r) {
				return object.Boolean(true), nil
			}
		}
		return object.Boolean(false), nil
	})
	defineMethod(realm, proto, "every", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, fn, thisArg, err := arrayCallbackArgs(vm, this, args)
		if err != nil {
			return nil, err
		}
		for i, v := range arrayElements(arr) {
			r, err := vm.Call(fn, thisArg, []object.Value{v, object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if !toBoolean(r) {
				return object.Boolean(false), nil
			}
		}
		return object.Boolean(true), nil
	})
	defineMethod(realm, proto, "reduce", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		fn, ok := isCallable(arg(args, 0))
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("reduce callback must be a function"))
		}
		elems := arrayElements(arr)
		i := 0
		var acc object.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(elems) == 0 {
				return nil, vm.Throw(vm.NewTypeError("Reduce of empty array with no initial value"))
			}
			acc = elems[0]
			i = 1
		}
		for ; i < len(elems); i++ {
			r, err := vm.Call(fn, object.Undefined, []object.Value{acc, elems[i], object.Number(i), arr})
			if err != nil {
				return nil, err
			}
			acc = r
		}
		return acc, nil
	})
	defineMethod(realm, proto, "sort", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		cmp, hasCmp := isCallable(arg(args, 0))
		elems := arr.Array.Elements
		var sortErr error
		insertionSort(elems, func(a, b object.Value) bool {
			if sortErr != nil {
				return false
			}
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			if hasCmp {
				r, err := vm.Call(cmp, object.Undefined, []object.Value{a, b})
				if err != nil {
					sortErr = err
					return false
				}
				n, err := toNumber(vm, r)
				if err != nil {
					sortErr = err
					return false
				}
				return n < 0
			}
			as, err := toStringValue(vm, a)
			if err != nil {
				sortErr = err
				return false
			}
			bs, err := toStringValue(vm, b)
			if err != nil {
				sortErr = err
				return false
			}
			return as < bs
		})
		if sortErr != nil {
			return nil, sortErr
		}
		return arr, nil
	})
	defineMethod(realm, proto, "flat", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		depth := 1
		if len(args) > 0 {
			depth, err = toIntOrDefault(vm, args[0], 1)
			if err != nil {
				return nil, err
			}
		}
		return newArray(realm, flatten(arrayElements(arr), depth)), nil
	})

	defineMethod(realm, proto, "at", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		arr, err := thisArray(vm, this)
		if err != nil {
			return nil, err
		}
		elems := arrayElements(arr)
		n, err := toIntOrDefault(vm, arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n += len(elems)
		}
		if n < 0 || n >= len(elems) {
			return object.Undefined, nil
		}
		return elems[n], nil
	})

	arrayIteratorFn := realm.NewFunction(&object.CallableData{
		Name: "[Symbol.iterator]", Length: 0,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			arr, err := thisArray(vm, this)
			if err != nil {
				return nil, err
			}
			return newArrayIterator(realm, arr), nil
		},
	})
	proto.DefineOwnProperty(object.SymbolKey(object.SymIterator), object.DataProperty(arrayIteratorFn, true, false, true))
	define(proto, "values", object.DataProperty(arrayIteratorFn, true, false, true))

	ctor := realm.NewFunction(&object.CallableData{
		Name: "Array", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			if len(args) == 1 {
				if n, ok := args[0].(object.Number); ok {
					return object.NewArray(proto, make([]object.Value, int(n))), nil
				}
			}
			return object.NewArray(proto, append([]object.Value(nil), args...)), nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))

	defineMethod(realm, ctor, "isArray", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		return object.Boolean(ok && obj.Class == object.ClassArray), nil
	})
	defineMethod(realm, ctor, "from", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		src := arg(args, 0)
		var elems []object.Value
		if obj, ok := src.(*object.Object); ok && obj.Class == object.ClassArray {
			elems = arrayElements(obj)
		} else if s, ok := src.(object.StringValue); ok {
			for _, r := range string(s) {
				elems = append(elems, object.StringValue(string(r)))
			}
		}
		if fn, ok := isCallable(arg(args, 1)); ok {
			for i, v := range elems {
				r, err := vm.Call(fn, object.Undefined, []object.Value{v, object.Number(i)})
				if err != nil {
					return nil, err
				}
				elems[i] = r
			}
		}
		return newArray(realm, elems), nil
	})
	defineMethod(realm, ctor, "of", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return newArray(realm, append([]object.Value(nil), args...)), nil
	})

	return ctor
}

func thisArray(vm object.VMContext, this object.Value) (*object.Object, error) {
	obj, ok := this.(*object.Object)
	if !ok || obj.Class != object.ClassArray {
		return nil, vm.Throw(vm.NewTypeError("method called on a non-array value"))
	}
	return obj, nil
}

func arrayCallbackArgs(vm object.VMContext, this object.Value, args []object.Value) (*object.Object, *object.Object, object.Value, error) {
	arr, err := thisArray(vm, this)
	if err != nil {
		return nil, nil, nil, err
	}
	fn, ok := isCallable(arg(args, 0))
	if !ok {
		return nil, nil, nil, vm.Throw(vm.NewTypeError("callback must be a function"))
	}
	thisArg := object.Value(object.Undefined)
	if len(args) > 1 {
		thisArg = args[1]
	}
	return arr, fn, thisArg, nil
}

func joinArray(vm object.VMContext, arr *object.Object, sep string) (string, error) {
	elems := arrayElements(arr)
	out := ""
	for i, v := range elems {
		if i > 0 {
			out += sep
		}
		if v == object.Undefined || v == object.Null {
			continue
		}
		s, err := toStringValue(vm, v)
		if err != nil {
			return "", err
		}
		out += s
	}
	return out, nil
}

func sliceRange(vm object.VMContext, args []object.Value, length int) (int, int, error) {
	start, err := clampIndex(vm, arg(args, 0), length)
	if err != nil {
		return 0, 0, err
	}
	end := length
	if len(args) > 1 && args[1] != object.Undefined {
		end, err = clampIndex(vm, args[1], length)
		if err != nil {
			return 0, 0, err
		}
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func clampIndex(vm object.VMContext, v object.Value, length int) (int, error) {
	n, err := toIntOrDefault(vm, v, 0)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n += length
	}
	if n < 0 {
		n = 0
	}
	if n > length {
		n = length
	}
	return n, nil
}

func flatten(elems []object.Value, depth int) []object.Value {
	var out []object.Value
	for _, v := range elems {
		if obj, ok := v.(*object.Object); ok && obj.Class == object.ClassArray && depth > 0 {
			out = append(out, flatten(arrayElements(obj), depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func strictEquals(a, b object.Value) bool {
	if a == nil {
		a = object.Undefined
	}
	if b == nil {
		b = object.Undefined
	}
	if an, ok := a.(object.Number); ok {
		if bn, ok := b.(object.Number); ok {
			return float64(an) == float64(bn)
		}
		return false
	}
	return a == b
}

func isNaNValue(v object.Value) bool {
	n, ok := v.(object.Number)
	return ok && n.IsNaN()
}

// insertionSort implements Array.prototype.sort's stability
// requirement with a plain O(n^2) insertion sort: ECMAScript's own
// comparator is already user script (every compare calls back into
// the VM), so there is no benefit to a more elaborate algorithm here
// over the one the teacher's own bytecode disassembler-adjacent
// helper code favors for small, already-mostly-sorted data.
func insertionSort(elems []object.Value, less func(a, b object.Value) bool) {
	for i := 1; i < len(elems); i++ {
		for j := i; j > 0 && less(elems[j], elems[j-1]); j-- {
			elems[j], elems[j-1] = elems[j-1], elems[j]
		}
	}
}

// newArrayIterator builds the Array.prototype[Symbol.iterator] result
// object: a plain object exposing next(), consumed by the same
// GetIterator/IteratorNext machinery internal/vm/vm_iteration.go
// drives for every other iterable.
func newArrayIterator(realm *object.Realm, arr *object.Object) *object.Object {
	iter := object.New(realm.IteratorPrototype)
	i := 0
	defineMethod(realm, iter, "next", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		elems := arrayElements(arr)
		res := object.New(realm.ObjectPrototype)
		if i >= len(elems) {
			define(res, "done", object.DataProperty(object.Boolean(true), true, true, true))
			define(res, "value", object.DataProperty(object.Undefined, true, true, true))
			return res, nil
		}
		define(res, "done", object.DataProperty(object.Boolean(false), true, true, true))
		define(res, "value", object.DataProperty(elems[i], true, true, true))
		i++
		return res, nil
	})
	iter.DefineOwnProperty(object.SymbolKey(object.SymIterator), object.DataProperty(
		realm.NewFunction(&object.CallableData{Name: "[Symbol.iterator]", Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			return this, nil
		}}), true, false, true))
	return iter
}
