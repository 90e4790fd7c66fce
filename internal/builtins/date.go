package builtins

import (
	"math"
	"time"

	"github.com/jsvm/jsvm/internal/object"
)

// bootstrapDate builds the minimal Date surface SPEC_FULL.md names:
// epoch-millis numeric backing in Object.Internal, `new Date()` /
// `new Date(millis)` / `new Date(rfc3339String)`, getTime/valueOf/
// toISOString/toString (all UTC), and Date.now. Grounded on
// original_source/boa_engine/src/builtins/date/mod.rs's get_time (the
// internal slot is a plain f64 of milliseconds since the epoch, NaN
// for an invalid date) and to_iso_string; everything else real Date
// exposes (component getters and setters, other string formats,
// timezones, Temporal) is out of this engine's distilled scope, so
// jsvm's Date is honestly this one numeric slot and the few operations
// built on it rather than a partial stub of the full constructor
// surface.
func bootstrapDate(realm *object.Realm) *object.Object {
	proto := realm.DatePrototype
	proto.Class = object.ClassDate
	proto.Internal = math.NaN()

	defineMethod(realm, proto, "getTime", 0, dateThisMethod(func(ms float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.Number(ms), nil
	}))
	defineMethod(realm, proto, "valueOf", 0, dateThisMethod(func(ms float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		return object.Number(ms), nil
	}))
	defineMethod(realm, proto, "toISOString", 0, dateThisMethod(func(ms float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		if math.IsNaN(ms) {
			return nil, vm.Throw(vm.NewRangeError("Invalid time value"))
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return object.StringValue(t.Format("2006-01-02T15:04:05.000Z")), nil
	}))
	defineMethod(realm, proto, "toString", 0, dateThisMethod(func(ms float64, vm object.VMContext, args []object.Value) (object.Value, error) {
		if math.IsNaN(ms) {
			return object.StringValue("Invalid Date"), nil
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return object.StringValue(t.Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")), nil
	}))

	ctor := realm.NewFunction(&object.CallableData{
		Name: "Date", Length: 7, IsCtor: true,
		Native: func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
			obj, ok := this.(*object.Object)
			if !ok {
				return object.StringValue(time.Now().UTC().Format(time.RFC3339)), nil
			}
			ms, err := dateConstructArgs(vm, args)
			if err != nil {
				return nil, err
			}
			obj.Class = object.ClassDate
			obj.Internal = ms
			return obj, nil
		},
	})
	define(ctor, "prototype", object.DataProperty(proto, false, false, false))
	define(proto, "constructor", object.DataProperty(ctor, true, false, true))

	defineMethod(realm, ctor, "now", 0, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		return object.Number(float64(time.Now().UnixMilli())), nil
	})

	return ctor
}

// dateConstructArgs implements the argument forms `new Date()` (now),
// `new Date(string)` (parsed as RFC 3339 only; any other string gives
// an invalid date, NaN) and `new Date(millis)` (an explicit
// epoch-milliseconds value); the multi-argument
// `new Date(year, month, ...)` form real Date also accepts is outside
// this minimal surface.
func dateConstructArgs(vm object.VMContext, args []object.Value) (float64, error) {
	if len(args) == 0 {
		return float64(time.Now().UnixMilli()), nil
	}
	if s, ok := args[0].(object.StringValue); ok {
		t, err := time.Parse(time.RFC3339, string(s))
		if err != nil {
			return math.NaN(), nil
		}
		return float64(t.UnixMilli()), nil
	}
	n, err := toNumber(vm, args[0])
	if err != nil {
		return 0, err
	}
	return n, nil
}

func dateThisMethod(fn func(ms float64, vm object.VMContext, args []object.Value) (object.Value, error)) object.NativeFunc {
	return func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		obj, ok := this.(*object.Object)
		if !ok || obj.Class != object.ClassDate {
			return nil, vm.Throw(vm.NewTypeError("this is not a Date"))
		}
		ms, ok := obj.Internal.(float64)
		if !ok {
			return nil, vm.Throw(vm.NewTypeError("this is not a Date"))
		}
		return fn(ms, vm, args)
	}
}
