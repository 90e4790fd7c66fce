package vm

import (
	"regexp"
	"strconv"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/environment"
	"github.com/jsvm/jsvm/internal/object"
)

// makeClosure instantiates a function object from a compiled inner
// CodeBlock and the defining environment a FunctionRef ran in.
//
// IsCtor's heuristic is an accepted imprecision: it correctly marks
// ordinary functions and class constructors as constructible, but has
// no way at this layer to exclude an ordinary (non-arrow) class or
// object-literal method, which ECMAScript also denies [[Construct]].
func (vm *VM) makeClosure(inner *bytecode.CodeBlock, env *environment.Record) *object.Object {
	isCtor := inner.IsConstructor() || (!inner.IsArrow() && !inner.IsGenerator() && !inner.IsAsync())
	length := 0
	for _, d := range inner.ParamDefaults {
		if d != nil {
			break
		}
		length++
	}
	if inner.HasRestParam && length > 0 {
		length--
	}
	fn := vm.realm.NewFunction(&object.CallableData{
		Code:   inner,
		IsCtor: isCtor,
		Name:   inner.Name,
		Length: length,
		Env:    env,
	})
	if inner.IsGenerator() {
		fn.Class = object.ClassGenerator
	}
	return fn
}

// newRegExp compiles a /body/flags literal to a best-effort host
// regexp.Regexp, translating the handful of ECMAScript flag letters Go's
// RE2 engine also understands. Lookaround and backreferences (valid in
// ECMAScript, not in RE2) are out of scope; a pattern using them
// compiles to a RegExp object whose Internal compiled matcher is nil,
// which the builtins layer treats as "never matches" rather than
// panicking.
func (vm *VM) newRegExp(body, flags string) *object.Object {
	o := object.New(vm.realm.RegExpPrototype)
	o.Class = object.ClassRegExp
	goFlags := ""
	for _, f := range flags {
		switch f {
		case 'i':
			goFlags += "i"
		case 's':
			goFlags += "s"
		case 'm':
			goFlags += "m"
		}
	}
	pattern := body
	if goFlags != "" {
		pattern = "(?" + goFlags + ")" + body
	}
	re, err := regexp.Compile(pattern)
	if err == nil {
		o.Internal = re
	}
	o.DefineOwnProperty(object.StringKey("source"), object.DataProperty(object.StringValue(body), false, false, false))
	o.DefineOwnProperty(object.StringKey("flags"), object.DataProperty(object.StringValue(flags), false, false, false))
	o.DefineOwnProperty(object.StringKey("lastIndex"), object.DataProperty(object.Number(0), true, false, false))
	return o
}

// lookupPrivate walks obj's prototype chain looking for a private field
// stored under id: fields are installed once on the class's own
// prototype object by DefinePrivateField, so an uninitialized instance
// still observes its class's initial private values there until a
// SetPrivateField on that specific instance shadows them.
func lookupPrivate(obj *object.Object, id *object.PrivateName) (object.Value, bool) {
	for o := obj; o != nil; o = o.Prototype {
		if o.PrivateFields != nil {
			if v, ok := o.PrivateFields[id]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (vm *VM) resolvePrivateName(name string) *object.PrivateName {
	for i := len(vm.privateStack) - 1; i >= 0; i-- {
		if vm.privateStack[i].name == name {
			return vm.privateStack[i].id
		}
	}
	return nil
}

// defaultCtorNative synthesizes a class's implicit constructor: a
// derived class forwards its arguments to the superclass constructor
// (mirroring `constructor(...args) { super(...args); }`); a base class
// does nothing, relying on Construct's instance fallback.
func defaultCtorNative(ctx *classCtx) object.NativeFunc {
	return func(vmc object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		if ctx.superCtor != nil {
			return vmc.Construct(ctx.superCtor, args, ctx.ctor)
		}
		return object.Undefined, nil
	}
}

// maybeAdoptConstructor is Pop's hook into the class-definition
// protocol: when the value popped is a constructor closure compiled by
// the explicit `constructor(...)` element, its Callable is grafted onto
// the class's already-public ctor object in place, rather than
// replacing that object's identity, so static members compiled before
// or after the constructor element in source order still attach to the
// same object referenced by the class binding.
func (vm *VM) maybeAdoptConstructor(v object.Value) {
	n := len(vm.classStack)
	if n == 0 {
		return
	}
	fn, ok := v.(*object.Object)
	if !ok || fn.Callable == nil {
		return
	}
	code, ok := fn.Callable.Code.(*bytecode.CodeBlock)
	if !ok || !code.IsConstructor() {
		return
	}
	ctx := vm.classStack[n-1]
	ctx.ctor.Callable = fn.Callable
	ctx.ctor.DefineOwnProperty(object.StringKey("name"), object.DataProperty(object.StringValue(fn.Callable.Name), false, false, true))
	ctx.ctor.DefineOwnProperty(object.StringKey("length"), object.DataProperty(object.Number(fn.Callable.Length), false, false, true))
}

// execExtended handles every opcode not dispatched directly by step:
// property access, private fields, class construction, and calls. Split
// out of vm_exec.go to keep each file to one concern.
func (vm *VM) execExtended(frame *callFrame, op bytecode.OpCode, pc int) (object.Value, bool, error) {
	cur := vm.cur
	code := frame.code.Code

	switch op {
	// --- property access --------------------------------------------
	case bytecode.GetPropertyByName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		obj, ref, err := vm.toObjectReceiver(cur.pop())
		if err != nil {
			return nil, false, err
		}
		v, err := vm.getProperty(obj, object.StringKey(name))
		if err != nil {
			return nil, false, err
		}
		_ = ref
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.GetPropertyByValue:
		key := cur.pop()
		obj, _, err := vm.toObjectReceiver(cur.pop())
		if err != nil {
			return nil, false, err
		}
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		v, err := vm.getProperty(obj, pk)
		if err != nil {
			return nil, false, err
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.SetPropertyByName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v := cur.pop()
		recv := cur.pop()
		obj, _, err := vm.toObjectReceiver(recv)
		if err != nil {
			return nil, false, err
		}
		if err := vm.setProperty(obj, object.StringKey(name), v); err != nil {
			return nil, false, err
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.SetPropertyByValue:
		v := cur.pop()
		key := cur.pop()
		obj, _, err := vm.toObjectReceiver(cur.pop())
		if err != nil {
			return nil, false, err
		}
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		if err := vm.setProperty(obj, pk, v); err != nil {
			return nil, false, err
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.DefineOwnPropertyByName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v := cur.pop()
		obj, _ := cur.peek().(*object.Object)
		if obj != nil {
			obj.DefineOwnProperty(object.StringKey(name), object.DataProperty(v, true, true, true))
		}
		frame.ip = pc + 2
	case bytecode.DefineOwnPropertyByValue:
		v := cur.pop()
		key := cur.pop()
		obj, _ := cur.peek().(*object.Object)
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		if obj != nil {
			obj.DefineOwnProperty(pk, object.DataProperty(v, true, true, true))
		}
		frame.ip = pc
	case bytecode.DefinePropertyGetterByName, bytecode.DefinePropertySetterByName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		fn := cur.pop()
		obj, _ := cur.peek().(*object.Object)
		if obj != nil {
			vm.defineAccessor(obj, object.StringKey(name), fn, op == bytecode.DefinePropertyGetterByName)
		}
		frame.ip = pc + 2
	case bytecode.DefinePropertyGetterByValue, bytecode.DefinePropertySetterByValue:
		fn := cur.pop()
		key := cur.pop()
		obj, _ := cur.peek().(*object.Object)
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		if obj != nil {
			vm.defineAccessor(obj, pk, fn, op == bytecode.DefinePropertyGetterByValue)
		}
		frame.ip = pc
	case bytecode.DeletePropertyByName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		obj, _ := cur.pop().(*object.Object)
		ok := true
		if obj != nil {
			ok = obj.Delete(object.StringKey(name))
		}
		cur.push(object.Boolean(ok))
		frame.ip = pc + 2
	case bytecode.DeletePropertyByValue:
		key := cur.pop()
		obj, _ := cur.pop().(*object.Object)
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		ok := true
		if obj != nil {
			ok = obj.Delete(pk)
		}
		cur.push(object.Boolean(ok))
		frame.ip = pc
	case bytecode.SetHomeObject:
		// the home object is always the class's instance prototype: a
		// static method's `super` resolving against the instance
		// prototype rather than the superclass constructor is an
		// accepted simplification, since the compiler emits this
		// opcode before it branches on el.Static.
		if n := len(vm.classStack); n > 0 {
			if fn, ok := cur.peek().(*object.Object); ok {
				fn.HomeObject = vm.classStack[n-1].proto
			}
		}
		frame.ip = pc

	// --- private fields -----------------------------------------------
	case bytecode.GetPrivateField:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		obj, ok := cur.pop().(*object.Object)
		if !ok {
			return nil, false, vm.throwTypeError("cannot read private member from non-object")
		}
		id := vm.resolvePrivateName(name)
		v, found := lookupPrivate(obj, id)
		if !found {
			return nil, false, vm.throwTypeError("private field '#%s' must be declared in an enclosing class", name)
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.SetPrivateField:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v := cur.pop()
		obj, ok := cur.pop().(*object.Object)
		if !ok {
			return nil, false, vm.throwTypeError("cannot write private member to non-object")
		}
		id := vm.resolvePrivateName(name)
		if obj.PrivateFields == nil {
			obj.PrivateFields = make(map[*object.PrivateName]object.Value)
		}
		obj.PrivateFields[id] = v
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.DefinePrivateField:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v := cur.pop()
		ctx := vm.classStack[len(vm.classStack)-1]
		id := vm.resolvePrivateName(name)
		if ctx.proto.PrivateFields == nil {
			ctx.proto.PrivateFields = make(map[*object.PrivateName]object.Value)
		}
		ctx.proto.PrivateFields[id] = v
		frame.ip = pc
	case bytecode.SetPrivateMethod, bytecode.SetPrivateGetter, bytecode.SetPrivateSetter:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		fn := cur.pop()
		ctx := vm.classStack[len(vm.classStack)-1]
		id := vm.resolvePrivateName(name)
		if ctx.proto.PrivateFields == nil {
			ctx.proto.PrivateFields = make(map[*object.PrivateName]object.Value)
		}
		ctx.proto.PrivateFields[id] = fn
		frame.ip = pc + 2
	case bytecode.PushPrivateEnvironment:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		vm.privateStack = append(vm.privateStack, privateNameEntry{name: name, id: &object.PrivateName{Name: name}})
		frame.ip = pc + 2
	case bytecode.PopPrivateEnvironment:
		if n := len(vm.privateStack); n > 0 {
			vm.privateStack = vm.privateStack[:n-1]
		}
		frame.ip = pc
	case bytecode.InPrivate:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		obj, ok := cur.pop().(*object.Object)
		id := vm.resolvePrivateName(name)
		found := false
		if ok {
			_, found = lookupPrivate(obj, id)
		}
		cur.push(object.Boolean(found))
		frame.ip = pc + 2

	// --- classes ------------------------------------------------------
	case bytecode.PushClassPrototype:
		proto := object.New(vm.realm.ObjectPrototype)
		ctor := object.New(vm.realm.FunctionPrototype)
		ctor.Class = object.ClassFunction
		ctx := &classCtx{ctor: ctor, proto: proto}
		ctor.Callable = &object.CallableData{Native: defaultCtorNative(ctx), IsCtor: true, Name: "", Length: 0, Env: frame.env}
		ctor.DefineOwnProperty(object.StringKey("prototype"), object.DataProperty(proto, false, false, false))
		ctor.DefineOwnProperty(object.StringKey("name"), object.DataProperty(object.StringValue(""), false, false, true))
		ctor.DefineOwnProperty(object.StringKey("length"), object.DataProperty(object.Number(0), false, false, true))
		proto.DefineOwnProperty(object.StringKey("constructor"), object.DataProperty(ctor, true, false, true))
		vm.classStack = append(vm.classStack, ctx)
		cur.push(ctor)
		frame.ip = pc
	case bytecode.SetClassPrototype:
		// stack is [superVal, ctor] (ctor pushed by the preceding,
		// unconditionally-emitted PushClassPrototype): pop ctor off,
		// consume superVal, then restore ctor as the sole value this
		// whole class-definition sequence leaves behind.
		ctor := cur.pop()
		superVal := cur.pop()
		cur.push(ctor)
		ctx := vm.classStack[len(vm.classStack)-1]
		superCtor, ok := superVal.(*object.Object)
		if !ok || !superCtor.IsConstructor() {
			return nil, false, vm.throwTypeError("class extends value is not a constructor")
		}
		ctx.superCtor = superCtor
		superProtoV, err := vm.getProperty(superCtor, object.StringKey("prototype"))
		if err != nil {
			return nil, false, err
		}
		if sp, ok := superProtoV.(*object.Object); ok {
			ctx.proto.SetPrototypeOf(sp)
		}
		ctx.ctor.SetPrototypeOf(superCtor)
		frame.ip = pc
	case bytecode.DefineClassMethod, bytecode.DefineClassGetter, bytecode.DefineClassSetter,
		bytecode.DefineClassStaticMethod, bytecode.DefineClassStaticGetter, bytecode.DefineClassStaticSetter:
		fn := cur.pop()
		key := cur.pop()
		ctx := vm.classStack[len(vm.classStack)-1]
		target := ctx.proto
		if op == bytecode.DefineClassStaticMethod || op == bytecode.DefineClassStaticGetter || op == bytecode.DefineClassStaticSetter {
			target = ctx.ctor
		}
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		switch op {
		case bytecode.DefineClassMethod, bytecode.DefineClassStaticMethod:
			target.DefineOwnProperty(pk, object.DataProperty(fn, true, false, true))
		default:
			vm.defineAccessor(target, pk, fn, op == bytecode.DefineClassGetter || op == bytecode.DefineClassStaticGetter)
		}
		frame.ip = pc
	case bytecode.PushClassFieldInit:
		v := cur.pop()
		key := cur.pop()
		ctx := vm.classStack[len(vm.classStack)-1]
		pk, err := vm.toPropertyKey(key)
		if err != nil {
			return nil, false, err
		}
		ctx.proto.DefineOwnProperty(pk, object.DataProperty(v, true, true, true))
		frame.ip = pc
	case bytecode.RunStaticBlock:
		idx := readU16(code, pc)
		inner := frame.code.Functions[idx]
		ctx := vm.classStack[len(vm.classStack)-1]
		fn := vm.makeClosure(inner, frame.env)
		if _, err := vm.Call(fn, ctx.ctor, nil); err != nil {
			return nil, false, err
		}
		frame.ip = pc + 2

	// --- calls ----------------------------------------------------
	case bytecode.Call, bytecode.CallSpread:
		argc := int(readU16(code, pc))
		var args []object.Value
		if op == bytecode.CallSpread {
			args = vm.spreadArgs(cur.popN(argc))
		} else {
			args = cur.popN(argc)
		}
		this := cur.pop()
		fnv := cur.pop()
		fn, ok := fnv.(*object.Object)
		if !ok || !fn.IsCallable() {
			return nil, false, vm.throwTypeError("value is not a function")
		}
		v, err := vm.Call(fn, this, args)
		if err != nil {
			return nil, false, err
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.CallEval:
		argc := int(readU16(code, pc))
		args := cur.popN(argc)
		cur.pop() // this
		cur.pop() // the eval function value itself; direct eval is unimplemented
		if len(args) > 0 {
			cur.push(args[0])
		} else {
			cur.push(object.Undefined)
		}
		frame.ip = pc + 2
	case bytecode.New, bytecode.NewSpread:
		argc := int(readU16(code, pc))
		var args []object.Value
		if op == bytecode.NewSpread {
			args = vm.spreadArgs(cur.popN(argc))
		} else {
			args = cur.popN(argc)
		}
		ctorv := cur.pop()
		ctor, ok := ctorv.(*object.Object)
		if !ok || !ctor.IsConstructor() {
			return nil, false, vm.throwTypeError("value is not a constructor")
		}
		v, err := vm.Construct(ctor, args, ctor)
		if err != nil {
			return nil, false, err
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.SuperCall, bytecode.SuperCallSpread:
		argc := int(readU16(code, pc))
		var args []object.Value
		if op == bytecode.SuperCallSpread {
			args = vm.spreadArgs(cur.popN(argc))
		} else {
			args = cur.popN(argc)
		}
		if frame.fn == nil || frame.fn.Prototype == nil || !frame.fn.Prototype.IsConstructor() {
			return nil, false, vm.throwTypeError("'super' keyword is only valid inside a derived class constructor")
		}
		superCtor := frame.fn.Prototype
		nt := environment.NewTargetBinding(frame.env)
		ntObj, _ := nt.(*object.Object)
		if ntObj == nil {
			ntObj = superCtor
		}
		v, err := vm.Construct(superCtor, args, ntObj)
		if err != nil {
			return nil, false, err
		}
		instance, _ := v.(*object.Object)
		frame.env.This = instance
		frame.env.HasThis = true
		cur.push(instance)
		frame.ip = pc + 2
	case bytecode.SuperCallDerived:
		cur.push(object.Boolean(frame.fn != nil && frame.fn.Prototype != nil && frame.fn.Prototype.IsConstructor()))
		frame.ip = pc

	default:
		return vm.execIteration(frame, op, pc)
	}

	return nil, false, nil
}

// toObjectReceiver coerces v to the *object.Object a property
// access runs against, boxing primitives transparently against the
// realm's corresponding prototype (so "x".length, (1).toString(), etc.
// resolve without a persistent wrapper object).
func (vm *VM) toObjectReceiver(v object.Value) (*object.Object, object.Value, error) {
	switch vv := v.(type) {
	case *object.Object:
		return vv, v, nil
	case object.StringValue:
		o := object.New(vm.realm.StringPrototype)
		o.Class = object.ClassString
		o.Internal = string(vv)
		o.DefineOwnProperty(object.StringKey("length"), object.DataProperty(object.Number(len(vv)), false, false, false))
		for i, ch := range []rune(string(vv)) {
			o.DefineOwnProperty(object.StringKey(strconv.Itoa(i)), object.DataProperty(object.StringValue(string(ch)), false, true, false))
		}
		return o, v, nil
	case object.Number:
		o := object.New(vm.realm.NumberPrototype)
		o.Class = object.ClassNumber
		o.Internal = float64(vv)
		return o, v, nil
	case object.Boolean:
		o := object.New(vm.realm.BooleanPrototype)
		o.Class = object.ClassBoolean
		o.Internal = bool(vv)
		return o, v, nil
	}
	if v == object.Undefined || v == object.Null {
		return nil, nil, vm.throwTypeError("cannot read properties of %s", object.TypeOf(v))
	}
	return nil, nil, vm.throwTypeError("cannot convert value to object")
}

func (vm *VM) defineAccessor(obj *object.Object, key object.PropertyKey, fn object.Value, isGetter bool) {
	existing, _ := obj.GetOwnProperty(key)
	var get, set object.Value
	if existing != nil && existing.IsAccessor() {
		get, set = existing.Get, existing.Set
	}
	if isGetter {
		get = fn
	} else {
		set = fn
	}
	obj.DefineOwnProperty(key, object.AccessorProperty(get, set, true, true))
}

// spreadArgs flattens a CallSpread/NewSpread argument vector, where
// each popped slot already evaluated to either an ordinary value (a
// plain argument) or an Array produced by the compiler's spread-element
// lowering (...arr collects into one array slot before the call).
func (vm *VM) spreadArgs(raw []object.Value) []object.Value {
	out := make([]object.Value, 0, len(raw))
	for _, v := range raw {
		if arr, ok := v.(*object.Object); ok && arr.Class == object.ClassArray {
			out = append(out, arrayElements(arr)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func arrayElements(arr *object.Object) []object.Value {
	out := make([]object.Value, len(arr.Array.Elements))
	for i, v := range arr.Array.Elements {
		if v == nil {
			out[i] = object.Undefined
		} else {
			out[i] = v
		}
	}
	return out
}
