package builtins

import "github.com/jsvm/jsvm/internal/object"

// bootstrapObject builds Object.prototype plus the Object constructor
// and its static methods. Grounded on the teacher's own distinction
// between a class's instance surface and its "class methods" (dws's
// interp/oop.go keeps a separate static-method table per class); here
// that is Object.prototype (instance methods, installed once and
// inherited by every object) versus own properties on the Object
// function object itself (the static Object.keys/assign/freeze
// family).
func bootstrapObject(realm *object.Realm) *object.Object {
	proto := realm.ObjectPrototype // allocated nil-prototype object by NewRealm before this runs

	defineMethod(realm, proto, "hasOwnProperty", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := this.(*object.Object)
		if !ok {
			return object.Boolean(false), nil
		}
		key, err := toPropertyKey(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		_, has := obj.GetOwnProperty(key)
		return object.Boolean(has), nil
	})
	defineMethod(realm, proto, "isPrototypeOf", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		self, ok := this.(*object.Object)
		target, ok2 := arg(args, 0).(*object.Object)
		if !ok || !ok2 {
			return object.Boolean(false), nil
		}
		for p := target.Prototype; p != nil; p = p.Prototype {
			if p == self {
				return object.Boolean(true), nil
			}
		}
		return object.Boolean(false), nil
	})
	defineMethod(realm, proto, "propertyIsEnumerable", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := this.(*object.Object)
		if !ok {
			return object.Boolean(false), nil
		}
		key, err := toPropertyKey(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		desc, has := obj.GetOwnProperty(key)
		return object.Boolean(has && desc.Enumerable), nil
	})
	defineMethod(realm, proto, "toString", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		if this == object.Undefined {
			return object.StringValue("[object Undefined]"), nil
		}
		if this == object.Null {
			return object.StringValue("[object Null]"), nil
		}
		tag := "Object"
		if obj, ok := this.(*object.Object); ok {
			switch obj.Class {
			case object.ClassArray:
				tag = "Array"
			case object.ClassFunction:
				tag = "Function"
			case object.ClassError:
				tag = "Error"
			}
			if t, err := getProperty(vm, obj, object.SymbolKey(object.SymToStringTag)); err == nil {
				if s, ok := t.(object.StringValue); ok {
					tag = string(s)
				}
			}
		}
		return object.StringValue("[object " + tag + "]"), nil
	})
	defineMethod(realm, proto, "valueOf", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return this, nil
	})

	ctor := realm.NewFunction(&object.CallableData{
		Name: "Object", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			v := arg(args, 0)
			if v == object.Undefined || v == object.Null || v == nil {
				return object.New(proto), nil
			}
			if obj, ok := v.(*object.Object); ok {
				return obj, nil
			}
			// ToObject on a primitive wraps it, matching new
			// String/Number/Boolean's own wrapper construction
			// (bootstrapString/Number/Boolean) rather than boxing
			// with a plain Object.prototype.
			switch p := v.(type) {
			case object.StringValue:
				w := object.New(realm.StringPrototype)
				w.Class = object.ClassString
				w.Internal = p
				return w, nil
			case object.Number:
				w := object.New(realm.NumberPrototype)
				w.Class = object.ClassNumber
				w.Internal = p
				return w, nil
			case object.Boolean:
				w := object.New(realm.BooleanPrototype)
				w.Class = object.ClassBoolean
				w.Internal = p
				return w, nil
			}
			return object.New(proto), nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))

	defineMethod(realm, ctor, "keys", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return newArray(realm, nil), nil
		}
		var keys []object.Value
		for _, k := range ownEnumerableStringKeys(obj) {
			keys = append(keys, object.StringValue(k))
		}
		return newArray(realm, keys), nil
	})
	defineMethod(realm, ctor, "values", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return newArray(realm, nil), nil
		}
		var vals []object.Value
		for _, k := range ownEnumerableStringKeys(obj) {
			v, err := getProperty(vm, obj, object.StringKey(k))
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return newArray(realm, vals), nil
	})
	defineMethod(realm, ctor, "entries", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return newArray(realm, nil), nil
		}
		var pairs []object.Value
		for _, k := range ownEnumerableStringKeys(obj) {
			v, err := getProperty(vm, obj, object.StringKey(k))
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, newArray(realm, []object.Value{object.StringValue(k), v}))
		}
		return newArray(realm, pairs), nil
	})
	defineMethod(realm, ctor, "assign", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		target, ok := arg(args, 0).(*object.Object)
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("Object.assign target must be an object"))
		}
		for _, src := range args[1:] {
			srcObj, ok := src.(*object.Object)
			if !ok {
				continue
			}
			for _, k := range ownEnumerableStringKeys(srcObj) {
				v, err := getProperty(vm, srcObj, object.StringKey(k))
				if err != nil {
					return nil, err
				}
				if _, err := setProperty(vm, target, object.StringKey(k), v); err != nil {
					return nil, err
				}
			}
		}
		return target, nil
	})
	defineMethod(realm, ctor, "freeze", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return arg(args, 0), nil
		}
		obj.PreventExtensions()
		for _, k := range obj.OwnPropertyKeys() {
			if d, ok := obj.GetOwnProperty(k); ok {
				nd := object.DataProperty(d.Value, false, d.Enumerable, false)
				if d.IsAccessor() {
					nd = object.AccessorProperty(d.Get, d.Set, d.Enumerable, false)
				}
				obj.DefineOwnProperty(k, nd)
			}
		}
		return obj, nil
	})
	defineMethod(realm, ctor, "isFrozen", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return object.Boolean(true), nil
		}
		if obj.IsExtensible() {
			return object.Boolean(false), nil
		}
		for _, k := range obj.OwnPropertyKeys() {
			if d, ok := obj.GetOwnProperty(k); ok && (d.Configurable || (!d.IsAccessor() && d.Writable)) {
				return object.Boolean(false), nil
			}
		}
		return object.Boolean(true), nil
	})
	defineMethod(realm, ctor, "getPrototypeOf", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok || obj.GetPrototypeOf() == nil {
			return object.Null, nil
		}
		return obj.GetPrototypeOf(), nil
	})
	defineMethod(realm, ctor, "setPrototypeOf", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return arg(args, 0), nil
		}
		if arg(args, 1) == object.Null {
			obj.SetPrototypeOf(nil)
			return obj, nil
		}
		if p, ok := arg(args, 1).(*object.Object); ok {
			obj.SetPrototypeOf(p)
		}
		return obj, nil
	})
	defineMethod(realm, ctor, "create", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		var p *object.Object
		if po, ok := arg(args, 0).(*object.Object); ok {
			p = po
		} else if arg(args, 0) != object.Null {
			return nil, vm.Throw(vm.NewTypeError("Object prototype may only be an Object or null"))
		}
		o := object.New(p)
		if props, ok := arg(args, 1).(*object.Object); ok {
			for _, k := range ownEnumerableStringKeys(props) {
				descObj, err := getProperty(vm, props, object.StringKey(k))
				if err != nil {
					return nil, err
				}
				if d, ok := descObj.(*object.Object); ok {
					applyDescriptorObject(vm, o, object.StringKey(k), d)
				}
			}
		}
		return o, nil
	})
	defineMethod(realm, ctor, "defineProperty", 3, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("Object.defineProperty called on non-object"))
		}
		key, err := toPropertyKey(vm, arg(args, 1))
		if err != nil {
			return nil, err
		}
		d, ok := arg(args, 2).(*object.Object)
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("Property description must be an object"))
		}
		applyDescriptorObject(vm, obj, key, d)
		return obj, nil
	})
	defineMethod(realm, ctor, "getOwnPropertyNames", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := arg(args, 0).(*object.Object)
		if !ok {
			return newArray(realm, nil), nil
		}
		var names []object.Value
		for _, k := range obj.OwnPropertyKeys() {
			if s, ok := k.(string); ok {
				names = append(names, object.StringValue(s))
			}
		}
		return newArray(realm, names), nil
	})
	defineMethod(realm, ctor, "is", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		a, b := arg(args, 0), arg(args, 1)
		return object.Boolean(sameValueIs(a, b)), nil
	})
	defineMethod(realm, ctor, "fromEntries", 1, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		o := object.New(proto)
		src, ok := arg(args, 0).(*object.Object)
		if !ok || src.Class != object.ClassArray {
			return o, nil
		}
		for _, pair := range arrayElements(src) {
			p, ok := pair.(*object.Object)
			if !ok {
				continue
			}
			elems := arrayElements(p)
			if len(elems) < 2 {
				continue
			}
			k, err := toStringValue(vm, elems[0])
			if err != nil {
				return nil, err
			}
			define(o, k, object.DataProperty(elems[1], true, true, true))
		}
		return o, nil
	})

	return ctor
}

func ownEnumerableStringKeys(obj *object.Object) []string {
	var out []string
	for _, k := range obj.OwnPropertyKeys() {
		s, ok := k.(string)
		if !ok {
			continue
		}
		if d, ok := obj.GetOwnProperty(k); ok && d.Enumerable {
			out = append(out, s)
		}
	}
	return out
}

func toPropertyKey(vm object.VMContext, v object.Value) (object.PropertyKey, error) {
	if sym, ok := v.(*object.SymbolValue); ok {
		return object.SymbolKey(sym), nil
	}
	s, err := toStringValue(vm, v)
	if err != nil {
		return nil, err
	}
	return object.StringKey(s), nil
}

func setProperty(vm object.VMContext, obj *object.Object, key object.PropertyKey, v object.Value) (bool, error) {
	ok, err := obj.Set(key, v, obj)
	if fn, this, val, isSetter := object.AsSetterCall(err); isSetter {
		_, cerr := vm.Call(fn, this, []object.Value{val})
		return true, cerr
	}
	return ok, err
}

func applyDescriptorObject(vm object.VMContext, obj *object.Object, key object.PropertyKey, d *object.Object) (bool, error) {
	desc := &object.PropertyDescriptor{}
	if v, err := getProperty(vm, d, object.StringKey("value")); err == nil && hasOwn(d, "value") {
		desc.Value, desc.HasValue = v, true
	}
	if v, err := getProperty(vm, d, object.StringKey("writable")); err == nil && hasOwn(d, "writable") {
		desc.Writable, desc.HasWritable = toBoolean(v), true
	}
	if v, err := getProperty(vm, d, object.StringKey("enumerable")); err == nil && hasOwn(d, "enumerable") {
		desc.Enumerable, desc.HasEnumerable = toBoolean(v), true
	}
	if v, err := getProperty(vm, d, object.StringKey("configurable")); err == nil && hasOwn(d, "configurable") {
		desc.Configurable, desc.HasConfigurable = toBoolean(v), true
	}
	if v, err := getProperty(vm, d, object.StringKey("get")); err == nil && hasOwn(d, "get") {
		desc.Get, desc.HasGet = v, true
	}
	if v, err := getProperty(vm, d, object.StringKey("set")); err == nil && hasOwn(d, "set") {
		desc.Set, desc.HasSet = v, true
	}
	return obj.DefineOwnProperty(key, desc), nil
}

func hasOwn(obj *object.Object, name string) bool {
	_, ok := obj.GetOwnProperty(object.StringKey(name))
	return ok
}
