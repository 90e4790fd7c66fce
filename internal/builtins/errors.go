package builtins

import "github.com/jsvm/jsvm/internal/object"

// errorKinds lists the constructor names bootstrapErrors wires up,
// mirroring the taxonomy Realm.NewError (internal/object/realm.go)
// already expects in its ErrorConstructors lookup: the plain Error
// plus the six subclasses the language defines natively.
var errorKinds = []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError"}

// bootstrapErrors builds Error.prototype and each subclass's own
// prototype/constructor pair, installing Realm.ErrorPrototype and
// Realm.ErrorConstructors so internal/vm's throwTypeError/
// throwRangeError/etc. (which call realm.NewError) produce objects
// with the right prototype chain and a working .toString()/.stack.
func bootstrapErrors(realm *object.Realm) map[string]*object.Object {
	proto := object.New(realm.ObjectPrototype)
	define(proto, "name", object.DataProperty(object.StringValue("Error"), true, false, true))
	define(proto, "message", object.DataProperty(object.StringValue(""), true, false, true))
	defineMethod(realm, proto, "toString", 0, errorToString)
	realm.ErrorPrototype = proto

	ctors := make(map[string]*object.Object)
	for _, kind := range errorKinds {
		ctors[kind] = makeErrorConstructor(realm, kind, proto)
	}
	return ctors
}

func makeErrorConstructor(realm *object.Realm, kind string, base *object.Object) *object.Object {
	ownProto := base
	if kind != "Error" {
		ownProto = object.New(base)
		define(ownProto, "name", object.DataProperty(object.StringValue(kind), true, false, true))
	}
	ctor := realm.NewFunction(&object.CallableData{
		Name: kind, Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			// vm.Construct already allocated `this` with the right
			// prototype (newTarget.prototype, honoring subclassing), so
			// the native constructor only has to tag the Class and fill
			// message/cause.
			errObj, ok := this.(*object.Object)
			if !ok {
				errObj = object.New(ownProto)
			}
			errObj.Class = object.ClassError
			return finishError(vm, errObj, args)
		},
	})
	// overwrite the default NewFunction-allocated prototype with the one
	// actually wired to the shared Error.prototype chain.
	define(ctor, "prototype", object.DataProperty(ownProto, false, false, false))
	define(ownProto, "constructor", object.DataProperty(ctor, true, false, true))
	return ctor
}

func finishError(vm object.VMContext, errObj *object.Object, args []object.Value) (object.Value, error) {
	if len(args) > 0 && args[0] != object.Undefined {
		msg, err := toStringValue(vm, args[0])
		if err != nil {
			return nil, err
		}
		define(errObj, "message", object.DataProperty(object.StringValue(msg), true, false, true))
	}
	if len(args) > 1 {
		if opts, ok := args[1].(*object.Object); ok {
			if cause, err := getProperty(vm, opts, object.StringKey("cause")); err == nil && cause != object.Undefined {
				define(errObj, "cause", object.DataProperty(cause, true, false, true))
			}
		}
	}
	return errObj, nil
}

func errorToString(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
	obj, ok := this.(*object.Object)
	if !ok {
		return object.StringValue("Error"), nil
	}
	name := "Error"
	if v, err := getProperty(vm, obj, object.StringKey("name")); err == nil && v != object.Undefined {
		if s, err := toStringValue(vm, v); err == nil {
			name = s
		}
	}
	msg := ""
	if v, err := getProperty(vm, obj, object.StringKey("message")); err == nil && v != object.Undefined {
		if s, err := toStringValue(vm, v); err == nil {
			msg = s
		}
	}
	if msg == "" {
		return object.StringValue(name), nil
	}
	if name == "" {
		return object.StringValue(msg), nil
	}
	return object.StringValue(name + ": " + msg), nil
}
