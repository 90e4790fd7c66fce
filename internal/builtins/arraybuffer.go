package builtins

import "github.com/jsvm/jsvm/internal/object"

// bootstrapArrayBuffer builds the minimal ArrayBuffer constructor
// DataView needs to back onto: a fixed-length, zero-initialized byte
// slice held in Object.Internal. Grounded on
// original_source/core/engine/src/builtins/array_buffer (boa's
// ArrayBufferData wraps the same "owned Vec<u8>, fixed length"
// shape); only `byteLength`, `slice` and the constructor are
// implemented since nothing else in this engine's scope (no TypedArray,
// no transfer/resize) reads an ArrayBuffer except DataView.
func bootstrapArrayBuffer(realm *object.Realm) *object.Object {
	proto := object.New(realm.ObjectPrototype)
	proto.Class = object.ClassArrayBuffer

	defineMethod(realm, proto, "slice", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		buf, err := arrayBufferBytes(vm, this)
		if err != nil {
			return nil, err
		}
		start, err := normalizeBufferIndex(vm, arg(args, 0), len(buf), 0)
		if err != nil {
			return nil, err
		}
		end, err := normalizeBufferIndex(vm, arg(args, 1), len(buf), len(buf))
		if err != nil {
			return nil, err
		}
		if end < start {
			end = start
		}
		out := object.New(proto)
		out.Class = object.ClassArrayBuffer
		cp := make([]byte, end-start)
		copy(cp, buf[start:end])
		out.Internal = cp
		return out, nil
	})

	ctor := realm.NewFunction(&object.CallableData{
		Name: "ArrayBuffer", Length: 1, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			n, err := toIntOrDefault(vm, arg(args, 0), 0)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, vm.Throw(vm.NewRangeError("Invalid array buffer length"))
			}
			obj, ok := this.(*object.Object)
			if !ok {
				return nil, vm.Throw(vm.NewTypeError("ArrayBuffer requires 'new'"))
			}
			obj.Class = object.ClassArrayBuffer
			obj.Internal = make([]byte, n)
			return obj, nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))
	defineAccessor(realm, proto, "byteLength", func(vm object.VMContext, this object.Value) (object.Value, error) {
		buf, err := arrayBufferBytes(vm, this)
		if err != nil {
			return nil, err
		}
		return object.Number(float64(len(buf))), nil
	})

	return ctor
}

func arrayBufferBytes(vm object.VMContext, v object.Value) ([]byte, error) {
	obj, ok := v.(*object.Object)
	if !ok || obj.Class != object.ClassArrayBuffer {
		return nil, vm.Throw(vm.NewTypeError("not an ArrayBuffer"))
	}
	buf, ok := obj.Internal.([]byte)
	if !ok {
		return nil, vm.Throw(vm.NewTypeError("not an ArrayBuffer"))
	}
	return buf, nil
}

// normalizeBufferIndex clamps an optional, possibly-negative relative
// index (as slice()'s start/end accept) against length, defaulting to
// def when v is undefined.
func normalizeBufferIndex(vm object.VMContext, v object.Value, length, def int) (int, error) {
	if v == object.Undefined {
		return def, nil
	}
	n, err := toIntOrDefault(vm, v, def)
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
