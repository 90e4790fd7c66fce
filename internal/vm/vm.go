// Package vm executes compiled bytecode.CodeBlocks against an
// object.Realm: the stack-based interpreter at the bottom of the
// lexer -> parser -> compiler -> vm pipeline.
//
// Grounded on the dws interpreter's internal/bytecode.VM: a flat,
// non-recursive frame array driven by a `for len(frames) > 0` dispatch
// loop rather than Go-stack recursion for Call/New, with Call pushing
// a frame and looping rather than invoking Go code recursively.
// Synchronous host-to-script callbacks (Array.prototype.map's
// callback, a getter/setter invocation) instead start a *bounded*
// nested run of the same loop (runUntil) rather than introducing
// actual Go recursion through the opcode switch.
package vm

import (
	"fmt"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/errors"
	"github.com/jsvm/jsvm/internal/object"
)

// ThrownError wraps an ECMAScript value thrown past every handler: the
// embedder-visible "script threw" completion.
type ThrownError struct {
	Value object.Value
	Trace errors.StackTrace
}

func (e *ThrownError) Error() string {
	if o, ok := e.Value.(*object.Object); ok {
		if msg, err := o.Get(object.StringKey("message"), o); err == nil {
			if s, ok := msg.(object.StringValue); ok {
				name := "Error"
				if n, err := o.Get(object.StringKey("name"), o); err == nil {
					if ns, ok := n.(object.StringValue); ok {
						name = string(ns)
					}
				}
				return fmt.Sprintf("%s: %s", name, string(s))
			}
		}
	}
	return fmt.Sprintf("uncaught exception: %v", object.NumberToString(toDisplayNumber(e.Value)))
}

func toDisplayNumber(v object.Value) float64 {
	if n, ok := v.(object.Number); ok {
		return float64(n)
	}
	return 0
}

// InternalError is a VM-detected fault that does not correspond to a
// catchable ECMAScript exception (compiled-code invariant violation).
type InternalError struct{ Message string }

func (e *InternalError) Error() string { return e.Message }

// --- object.VMContext implementation --------------------------------

// Call implements object.VMContext.Call: invoke fn(this, args...) and
// block for its result, used by both the Call/New opcode family and by
// NativeFunc implementations that need to call back into script.
func (vm *VM) Call(fn object.Value, this object.Value, args []object.Value) (object.Value, error) {
	obj, ok := fn.(*object.Object)
	if !ok || !obj.IsCallable() {
		return nil, &ThrownError{Value: vm.realm.NewError("TypeError", "value is not a function"), Trace: vm.buildStackTrace()}
	}
	if obj.Callable.Bound != nil {
		bd := obj.Callable.Bound
		return vm.Call(bd.Target, bd.BoundThis, append(append([]object.Value(nil), bd.BoundArgs...), args...))
	}
	v, err := vm.pushFrame(obj, this, args, nil)
	if err != nil {
		return nil, vm.wrapThrow(err)
	}
	return v, nil
}

// Construct implements object.VMContext.Construct ([[Construct]]).
func (vm *VM) Construct(fn object.Value, args []object.Value, newTarget object.Value) (object.Value, error) {
	obj, ok := fn.(*object.Object)
	if !ok || !obj.IsConstructor() {
		return nil, &ThrownError{Value: vm.realm.NewError("TypeError", "value is not a constructor"), Trace: vm.buildStackTrace()}
	}
	if obj.Callable.Bound != nil {
		return vm.Construct(obj.Callable.Bound.Target, append(append([]object.Value(nil), obj.Callable.Bound.BoundArgs...), args...), newTarget)
	}
	nt, _ := newTarget.(*object.Object)
	if nt == nil {
		nt = obj
	}
	proto := vm.realm.ObjectPrototype
	if p, err := nt.Get(object.StringKey("prototype"), nt); err == nil {
		if po, ok := p.(*object.Object); ok {
			proto = po
		}
	}
	instance := object.New(proto)

	if obj.Callable.Native != nil {
		v, err := obj.Callable.Native(vm, instance, args)
		if err != nil {
			return nil, vm.wrapThrow(err)
		}
		if ro, ok := v.(*object.Object); ok {
			return ro, nil
		}
		return instance, nil
	}

	code, _ := obj.Callable.Code.(*bytecode.CodeBlock)
	derived := code != nil && code.IsDerivedConstructor()

	var this object.Value = instance
	if derived {
		this = nil // bound only once super() runs; the VM's SuperCall handler fills it in
	}
	v, err := vm.pushFrame(obj, this, args, nt)
	if err != nil {
		return nil, vm.wrapThrow(err)
	}
	if ro, ok := v.(*object.Object); ok {
		return ro, nil
	}
	if derived {
		if ro, ok := vm.lastFrame.env.This.(*object.Object); ok {
			return ro, nil
		}
		return nil, vm.throwReferenceError("must call super constructor before returning from a derived constructor")
	}
	return instance, nil
}

// Throw implements object.VMContext.Throw: raise v as an ECMAScript
// exception from native code (a builtin validating its arguments).
func (vm *VM) Throw(v object.Value) error {
	return &ThrownError{Value: v, Trace: vm.buildStackTrace()}
}

func (vm *VM) NewTypeError(msg string) object.Value { return vm.realm.NewError("TypeError", msg) }
func (vm *VM) NewRangeError(msg string) object.Value { return vm.realm.NewError("RangeError", msg) }

func (vm *VM) throwTypeError(format string, args ...interface{}) error {
	return vm.Throw(vm.NewTypeError(fmt.Sprintf(format, args...)))
}

func (vm *VM) throwRangeError(format string, args ...interface{}) error {
	return vm.Throw(vm.NewRangeError(fmt.Sprintf(format, args...)))
}

func (vm *VM) throwReferenceError(format string, args ...interface{}) error {
	return vm.Throw(vm.realm.NewError("ReferenceError", fmt.Sprintf(format, args...)))
}

func (vm *VM) throwSyntaxError(format string, args ...interface{}) error {
	return vm.Throw(vm.realm.NewError("SyntaxError", fmt.Sprintf(format, args...)))
}

// wrapThrow normalizes a nested runUntil's error into a *ThrownError so
// callers of Call/Construct always see the same error shape.
func (vm *VM) wrapThrow(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ThrownError); ok {
		return err
	}
	return err
}

// buildStackTrace walks the current execState's frames, newest last
// (matching errors.StackTrace's documented bottom-to-top ordering).
func (vm *VM) buildStackTrace() errors.StackTrace {
	if vm.cur == nil {
		return errors.NewStackTrace()
	}
	trace := make(errors.StackTrace, 0, len(vm.cur.frames))
	for _, f := range vm.cur.frames {
		name := f.code.Name
		if name == "" {
			name = "<anonymous>"
		}
		span := f.code.SpanAt(f.ip)
		if f.gen != nil {
			trace = append(trace, errors.NewGeneratorStackFrame(name, f.code.File, &span.Start))
		} else {
			trace = append(trace, errors.NewStackFrame(name, f.code.File, &span.Start))
		}
	}
	return trace
}
