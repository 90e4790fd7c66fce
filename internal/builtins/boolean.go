package builtins

import "github.com/jsvm/jsvm/internal/object"

// bootstrapBoolean builds Boolean.prototype and the Boolean
// constructor; the wrapper-vs-primitive split mirrors
// bootstrapString/bootstrapNumber exactly, so it is the thinnest of
// the three (only toString/valueOf exist on the real Boolean.prototype).
func bootstrapBoolean(realm *object.Realm) *object.Object {
	proto := realm.BooleanPrototype
	proto.Class = object.ClassBoolean
	proto.Internal = object.Boolean(false)

	defineMethod(realm, proto, "toString", 0, booleanThisMethod(func(b bool, vm object.VMContext, args []object.Value) (object.Value, error) {
		if b {
			return object.StringValue("true"), nil
		}
		return object.StringValue("false"), nil
	}))
	defineMethod(realm, proto, "valueOf", 0, booleanThisMethod(func(b bool, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.Boolean(b), nil
	}))

	ctor := realm.NewFunction(&object.CallableData{
		Name: "Boolean", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			b := toBoolean(arg(args, 0))
			if obj, ok := this.(*object.Object); ok {
				obj.Class = object.ClassBoolean
				obj.Internal = object.Boolean(b)
				return obj, nil
			}
			return object.Boolean(b), nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))
	return ctor
}

func booleanThisMethod(fn func(b bool, vm object.VMContext, args []object.Value) (object.Value, error)) object.NativeFunc {
	return func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		switch t := this.(type) {
		case object.Boolean:
			return fn(bool(t), vm, args)
		case *object.Object:
			if bv, ok := t.Internal.(object.Boolean); ok {
				return fn(bool(bv), vm, args)
			}
		}
		return nil, vm.Throw(vm.NewTypeError("Boolean.prototype method called on incompatible receiver"))
	}
}
