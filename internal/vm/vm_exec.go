package vm

import (
	"encoding/binary"
	"math/big"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/environment"
	"github.com/jsvm/jsvm/internal/object"
)

func readU16(code []byte, pc int) uint16 { return binary.BigEndian.Uint16(code[pc : pc+2]) }
func readU32(code []byte, pc int) uint32 { return binary.BigEndian.Uint32(code[pc : pc+4]) }
func readI8(code []byte, pc int) int8    { return int8(code[pc]) }
func readI16(code []byte, pc int) int16  { return int16(readU16(code, pc)) }
func readI32(code []byte, pc int) int32  { return int32(readU32(code, pc)) }

// envAt walks depth hops outward from env along Outer, the runtime
// counterpart of a BindingLocator's EnvDepth (a static hop count over
// the compiler's scope stack).
func envAt(env *environment.Record, depth uint16) *environment.Record {
	for i := uint16(0); i < depth; i++ {
		if env.Outer == nil {
			return env
		}
		env = env.Outer
	}
	return env
}

// growSlot lazily extends rec's slot array so index idx exists,
// declaring filler names in encounter order. This mirrors the
// compiler's own slot numbering: a BindLocal locator's Slot always
// matches the order its binding's declare-by-name opcode runs in, so
// declaring on first write reproduces the same index without the
// CodeBlock needing to carry a separate declared-local count.
func growSlot(rec *environment.Record, idx int, name string, mutable bool) {
	for len(rec.Slots) <= idx {
		rec.Declare(name, mutable, false)
	}
}

// step executes exactly one instruction of frame, returning completed
// and ret when a Return opcode runs the frame dry.
func (vm *VM) step(frame *callFrame) (ret object.Value, completed bool, err error) {
	cur := vm.cur
	code := frame.code.Code
	if frame.ip >= len(code) {
		return object.Undefined, true, nil
	}
	op := bytecode.OpCode(code[frame.ip])
	pc := frame.ip + 1

	switch op {
	case bytecode.Nop:
		frame.ip = pc

	// --- push -----------------------------------------------------
	case bytecode.PushUndefined:
		cur.push(object.Undefined)
		frame.ip = pc
	case bytecode.PushNull:
		cur.push(object.Null)
		frame.ip = pc
	case bytecode.PushTrue:
		cur.push(object.Boolean(true))
		frame.ip = pc
	case bytecode.PushFalse:
		cur.push(object.Boolean(false))
		frame.ip = pc
	case bytecode.PushZero:
		cur.push(object.Number(0))
		frame.ip = pc
	case bytecode.PushOne:
		cur.push(object.Number(1))
		frame.ip = pc
	case bytecode.PushInt8:
		cur.push(object.Number(float64(readI8(code, pc))))
		frame.ip = pc + 1
	case bytecode.PushInt16:
		cur.push(object.Number(float64(readI16(code, pc))))
		frame.ip = pc + 2
	case bytecode.PushInt32:
		cur.push(object.Number(float64(readI32(code, pc))))
		frame.ip = pc + 4
	case bytecode.PushDouble:
		cur.push(object.Number(0))
		frame.ip = pc + 4
	case bytecode.PushLiteral:
		idx := readU32(code, pc)
		cur.push(frame.code.Constants[idx])
		frame.ip = pc + 4
	case bytecode.PushNewArray:
		cur.push(object.NewArray(vm.realm.ArrayPrototype, nil))
		frame.ip = pc
	case bytecode.PushEmptyObject:
		cur.push(object.New(vm.realm.ObjectPrototype))
		frame.ip = pc
	case bytecode.PushRegExp:
		bodyIdx := readU16(code, pc)
		flagsIdx := readU16(code, pc+2)
		body, _ := frame.code.Constants[bodyIdx].(object.StringValue)
		flags, _ := frame.code.Constants[flagsIdx].(object.StringValue)
		cur.push(vm.newRegExp(string(body), string(flags)))
		frame.ip = pc + 4
	case bytecode.DefineArrayElement:
		idx := readU32(code, pc)
		v := cur.pop()
		arr := cur.peek().(*object.Object)
		n, _ := frame.code.Constants[idx].(object.Number)
		arr.SetArrayIndex(int(n), v)
		frame.ip = pc + 4

	// --- pop/dup/swap ------------------------------------------------
	case bytecode.Pop:
		cur.pop()
		frame.ip = pc
	case bytecode.Dup:
		cur.push(cur.peek())
		frame.ip = pc
	case bytecode.Dup2:
		n := len(cur.stack)
		a, b := cur.stack[n-2], cur.stack[n-1]
		cur.push(a)
		cur.push(b)
		frame.ip = pc
	case bytecode.Swap:
		n := len(cur.stack)
		cur.stack[n-1], cur.stack[n-2] = cur.stack[n-2], cur.stack[n-1]
		frame.ip = pc

	// --- unary ops --------------------------------------------------
	case bytecode.Typeof:
		v := cur.pop()
		cur.push(object.StringValue(object.TypeOf(v)))
		frame.ip = pc
	case bytecode.Void:
		cur.pop()
		cur.push(object.Undefined)
		frame.ip = pc
	case bytecode.LogicalNot:
		v := cur.pop()
		cur.push(object.Boolean(!object.ToBoolean(v)))
		frame.ip = pc
	case bytecode.UnaryPlus:
		v := cur.pop()
		n, e := vm.toNumber(v)
		if e != nil {
			return nil, false, e
		}
		cur.push(n)
		frame.ip = pc
	case bytecode.UnaryMinus:
		v := cur.pop()
		if bi, ok := v.(object.BigIntValue); ok {
			neg := new(big.Int).Neg(bi.V)
			cur.push(object.BigIntValue{V: neg})
			frame.ip = pc
			break
		}
		n, e := vm.toNumber(v)
		if e != nil {
			return nil, false, e
		}
		cur.push(-n)
		frame.ip = pc
	case bytecode.BitNot:
		v := cur.pop()
		n, e := vm.toNumber(v)
		if e != nil {
			return nil, false, e
		}
		cur.push(object.Number(float64(^toInt32(float64(n)))))
		frame.ip = pc
	case bytecode.Inc, bytecode.Dec, bytecode.IncPost, bytecode.DecPost:
		v := cur.pop()
		n, e := vm.toNumber(v)
		if e != nil {
			return nil, false, e
		}
		delta := object.Number(1)
		if op == bytecode.Dec || op == bytecode.DecPost {
			delta = -1
		}
		result := n + delta
		if op == bytecode.IncPost || op == bytecode.DecPost {
			cur.push(n)
			cur.push(result)
		} else {
			cur.push(result)
		}
		frame.ip = pc

	// --- binary ops ---------------------------------------------------
	case bytecode.Add:
		b := cur.pop()
		a := cur.pop()
		v, e := vm.add(a, b)
		if e != nil {
			return nil, false, e
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod, bytecode.Pow:
		b := cur.pop()
		a := cur.pop()
		v, e := vm.arith(op, a, b)
		if e != nil {
			return nil, false, e
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.BitAnd, bytecode.BitOr, bytecode.BitXor, bytecode.Shl, bytecode.Shr, bytecode.UShr:
		b := cur.pop()
		a := cur.pop()
		v, e := vm.bitwise(op, a, b)
		if e != nil {
			return nil, false, e
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.Eq, bytecode.NotEq:
		b := cur.pop()
		a := cur.pop()
		r, e := vm.abstractEquals(a, b)
		if e != nil {
			return nil, false, e
		}
		if op == bytecode.NotEq {
			r = !r
		}
		cur.push(object.Boolean(r))
		frame.ip = pc
	case bytecode.StrictEq, bytecode.StrictNotEq:
		b := cur.pop()
		a := cur.pop()
		r := vm.strictEquals(a, b)
		if op == bytecode.StrictNotEq {
			r = !r
		}
		cur.push(object.Boolean(r))
		frame.ip = pc
	case bytecode.Lt, bytecode.LtEq, bytecode.Gt, bytecode.GtEq:
		b := cur.pop()
		a := cur.pop()
		var result int
		var undef bool
		var e error
		leftFirst := op == bytecode.Lt || op == bytecode.LtEq
		if leftFirst {
			result, undef, e = vm.compareLess(a, b, true)
		} else {
			result, undef, e = vm.compareLess(b, a, false)
			result = -result
		}
		if e != nil {
			return nil, false, e
		}
		var r bool
		if !undef {
			switch op {
			case bytecode.Lt:
				r = result < 0
			case bytecode.LtEq:
				r = result <= 0
			case bytecode.Gt:
				r = result > 0
			case bytecode.GtEq:
				r = result >= 0
			}
		}
		cur.push(object.Boolean(r))
		frame.ip = pc
	case bytecode.InstanceOf:
		b := cur.pop()
		a := cur.pop()
		r, e := vm.instanceOf(a, b)
		if e != nil {
			return nil, false, e
		}
		cur.push(object.Boolean(r))
		frame.ip = pc
	case bytecode.In:
		b := cur.pop()
		a := cur.pop()
		obj, ok := b.(*object.Object)
		if !ok {
			return nil, false, vm.throwTypeError("cannot use 'in' operator on a non-object")
		}
		key, e := vm.toPropertyKey(a)
		if e != nil {
			return nil, false, e
		}
		cur.push(object.Boolean(obj.HasProperty(key)))
		frame.ip = pc

	// --- coercions ----------------------------------------------------
	case bytecode.ToBooleanOp:
		v := cur.pop()
		cur.push(object.Boolean(object.ToBoolean(v)))
		frame.ip = pc
	case bytecode.ToPropertyKey:
		v := cur.pop()
		key, e := vm.toPropertyKey(v)
		if e != nil {
			return nil, false, e
		}
		cur.push(keyToValue(key))
		frame.ip = pc
	case bytecode.ToNumeric:
		v := cur.pop()
		if bi, ok := v.(object.BigIntValue); ok {
			cur.push(bi)
		} else {
			n, e := vm.toNumber(v)
			if e != nil {
				return nil, false, e
			}
			cur.push(n)
		}
		frame.ip = pc
	case bytecode.RequireObjectCoercible:
		v := cur.peek()
		if v == object.Undefined || v == object.Null {
			return nil, false, vm.throwTypeError("cannot destructure 'undefined' or 'null'")
		}
		frame.ip = pc

	// --- templates ------------------------------------------------
	case bytecode.Concat:
		n := int(readU16(code, pc))
		parts := cur.popN(n)
		s := ""
		for _, p := range parts {
			ps, e := vm.toStringValue(p)
			if e != nil {
				return nil, false, e
			}
			s += ps
		}
		cur.push(object.StringValue(s))
		frame.ip = pc + 2

	// --- object spread ----------------------------------------------
	case bytecode.CopyDataProperties:
		source := cur.pop()
		target := cur.peek().(*object.Object)
		if obj, ok := source.(*object.Object); ok {
			for _, k := range obj.OwnPropertyKeys() {
				d, ok := obj.GetOwnProperty(k)
				if !ok || !d.Enumerable {
					continue
				}
				v, e := vm.getProperty(obj, k)
				if e != nil {
					return nil, false, e
				}
				target.DefineOwnProperty(k, object.DataProperty(v, true, true, true))
			}
		}
		frame.ip = pc

	// --- bindings ----------------------------------------------------
	case bytecode.DefVar, bytecode.DefInitVar:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		var initVal object.Value
		hasInit := op == bytecode.DefInitVar
		if hasInit {
			initVal = cur.pop()
		}
		target := globalBacking(frame.env)
		if target != nil {
			if !target.HasProperty(object.StringKey(name)) {
				v := object.Value(object.Undefined)
				if hasInit {
					v = initVal
				}
				target.DefineOwnProperty(object.StringKey(name), object.DataProperty(v, true, true, false))
			} else if hasInit {
				target.Set(object.StringKey(name), initVal, target)
			}
		} else {
			rec, slot, found := environment.Lookup(frame.env, name)
			if !found {
				rec = varScopeTarget(frame.env)
				slot = rec.Declare(name, true, !hasInit)
			}
			if hasInit {
				rec.InitSlot(slot, initVal)
			}
		}
		frame.ip = pc + 2
	case bytecode.DefLet, bytecode.DefConst:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v := cur.pop()
		rec := lexicalTarget(frame.env)
		slot := rec.Declare(name, op == bytecode.DefLet, false)
		rec.InitSlot(slot, v)
		frame.ip = pc + 2
	case bytecode.PutLexicalValue:
		idx := readU16(code, pc)
		loc := frame.code.Bindings[idx]
		v := cur.pop()
		if loc.Kind == bytecode.BindLocal {
			rec := envAt(frame.env, loc.EnvDepth)
			growSlot(rec, int(loc.Slot), vm.interner.String(loc.Name), loc.Mutable)
			rec.InitSlot(int(loc.Slot), v)
		} else {
			name := vm.interner.String(loc.Name)
			rec := lexicalTarget(frame.env)
			if r2, slot, ok := environment.Lookup(frame.env, name); ok && slot >= 0 && r2.Kind != environment.KindObject && r2.Kind != environment.KindGlobal {
				r2.InitSlot(slot, v)
			} else {
				slot := rec.Declare(name, true, false)
				rec.InitSlot(slot, v)
			}
		}
		frame.ip = pc + 2
	case bytecode.GetName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v, e := vm.lookupName(frame.env, name, true)
		if e != nil {
			return nil, false, e
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.GetNameOrUndefined:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v, e := vm.lookupName(frame.env, name, false)
		if e != nil {
			return nil, false, e
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.GetLocal:
		idx := readU16(code, pc)
		loc := frame.code.Bindings[idx]
		rec := envAt(frame.env, loc.EnvDepth)
		v, ok := rec.GetSlot(int(loc.Slot))
		if !ok {
			return nil, false, vm.throwReferenceError("cannot access '%s' before initialization", vm.interner.String(loc.Name))
		}
		cur.push(v)
		frame.ip = pc + 2
	case bytecode.SetLocal:
		idx := readU16(code, pc)
		loc := frame.code.Bindings[idx]
		v := cur.pop()
		rec := envAt(frame.env, loc.EnvDepth)
		growSlot(rec, int(loc.Slot), vm.interner.String(loc.Name), true)
		if !rec.SetSlot(int(loc.Slot), v) {
			return nil, false, vm.throwTypeError("assignment to constant variable")
		}
		frame.ip = pc + 2
	case bytecode.GetArgument:
		idx := readU16(code, pc)
		switch {
		case frame.code.HasRestParam && frame.code.ParamCount > 0 && int(idx) == frame.code.ParamCount-1:
			cur.push(object.NewArray(vm.realm.ArrayPrototype, restArgs(frame.args, int(idx))))
		case int(idx) < len(frame.args):
			cur.push(frame.args[idx])
		default:
			cur.push(object.Undefined)
		}
		frame.ip = pc + 2
	case bytecode.SetName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		v := cur.pop()
		if e := vm.assignName(frame.env, name, v); e != nil {
			return nil, false, e
		}
		frame.ip = pc + 2
	case bytecode.DeleteName:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		if g := globalBacking(frame.env); g != nil {
			cur.push(object.Boolean(g.Delete(object.StringKey(name))))
		} else {
			cur.push(object.Boolean(true))
		}
		frame.ip = pc + 2
	case bytecode.ThrowMutateImmutable:
		idx := readU16(code, pc)
		name := vm.name(idx, frame.code)
		return nil, false, vm.throwTypeError("assignment to constant variable '%s'", name)

	// --- control flow -----------------------------------------------
	case bytecode.Jump:
		frame.ip = int(readU16(code, pc))
	case bytecode.JumpIfTrue:
		v := cur.pop()
		if object.ToBoolean(v) {
			frame.ip = int(readU16(code, pc))
		} else {
			frame.ip = pc + 2
		}
	case bytecode.JumpIfFalse:
		v := cur.pop()
		if !object.ToBoolean(v) {
			frame.ip = int(readU16(code, pc))
		} else {
			frame.ip = pc + 2
		}
	case bytecode.JumpIfNotUndefined:
		// pop-based: both use sites (?? lowering, destructuring defaults)
		// Dup the value under test first and expect this jump to
		// consume exactly one of the two copies either way.
		v := cur.pop()
		if v != object.Undefined {
			frame.ip = int(readU16(code, pc))
		} else {
			frame.ip = pc + 2
		}
	case bytecode.JumpIfNullOrUndefined:
		// pop-based: optional-chaining's Dup+test+fallthrough-read
		// sequence relies on this consuming one of the two copies.
		v := cur.pop()
		if v == object.Undefined || v == object.Null {
			frame.ip = int(readU16(code, pc))
		} else {
			frame.ip = pc + 2
		}

	// --- environment ---------------------------------------------------
	case bytecode.PushDeclarativeEnvironment:
		frame.env = environment.NewDeclarative(frame.env, 0)
		frame.ip = pc
	case bytecode.PushFunctionEnvironment:
		frame.env = environment.NewFunction(frame.env, 0)
		frame.ip = pc
	case bytecode.PushObjectEnvironment:
		v := cur.pop()
		obj, ok := v.(*object.Object)
		if !ok {
			return nil, false, vm.throwTypeError("with statement requires an object")
		}
		frame.env = environment.NewObject(frame.env, obj)
		frame.ip = pc
	case bytecode.PopEnvironment:
		outer := frame.env.Outer
		if len(vm.classStack) > 0 && vm.classStack[len(vm.classStack)-1].envMarker == outer {
			vm.classStack = vm.classStack[:len(vm.classStack)-1]
		}
		frame.env = outer
		frame.ip = pc
	case bytecode.IncrementLoopIteration:
		frame.ip = pc

	// --- exceptions -----------------------------------------------
	case bytecode.Throw:
		v := cur.pop()
		return nil, false, vm.Throw(v)
	case bytecode.ReThrow:
		frame.ip = pc
	case bytecode.Exception:
		cur.push(frame.pendingThrow)
		frame.pendingThrowActive = false
		frame.pendingThrow = nil
		frame.ip = pc
	case bytecode.MaybeException:
		if frame.pendingThrowActive {
			cur.push(frame.pendingThrow)
		} else {
			cur.push(object.Undefined)
		}
		frame.ip = pc
	case bytecode.ThrowNewTypeError:
		idx := readU16(code, pc)
		msg := vm.name(idx, frame.code)
		return nil, false, vm.throwTypeError("%s", msg)
	case bytecode.PushTryHandler:
		target := readU16(code, pc)
		frame.handlers = append(frame.handlers, tryHandler{
			catchPC:    int(target),
			stackDepth: len(cur.stack),
			iterDepth:  len(cur.iterStack),
			env:        frame.env,
		})
		frame.ip = pc + 2
	case bytecode.PopTryHandler:
		if len(frame.handlers) > 0 {
			frame.handlers = frame.handlers[:len(frame.handlers)-1]
		}
		frame.ip = pc
	case bytecode.FinallyStart:
		frame.ip = pc
	case bytecode.FinallyEnd:
		if frame.pendingThrowActive {
			thrown := frame.pendingThrow
			frame.pendingThrowActive = false
			frame.pendingThrow = nil
			return nil, false, vm.dispatchThrow(thrown)
		}
		frame.ip = pc
	case bytecode.FinallySetJump:
		frame.ip = pc + 2

	// --- meta --------------------------------------------------------
	case bytecode.This:
		v, _ := environment.ThisBinding(frame.env)
		cur.push(v)
		frame.ip = pc
	case bytecode.NewTarget:
		cur.push(environment.NewTargetBinding(frame.env))
		frame.ip = pc
	case bytecode.FunctionRef:
		idx := readU16(code, pc)
		inner := frame.code.Functions[idx]
		fn := vm.makeClosure(inner, frame.env)
		cur.push(fn)
		frame.ip = pc + 2

	// --- return -------------------------------------------------------
	case bytecode.Return:
		v := cur.pop()
		return v, true, nil
	case bytecode.GetReturnValue:
		v := frame.returnValue
		if v == nil {
			v = object.Undefined
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.SetReturnValue:
		frame.returnValue = cur.peek()
		frame.ip = pc

	default:
		return vm.execExtended(frame, op, pc)
	}
	return nil, false, nil
}

// keyToValue converts a resolved PropertyKey back to a pushable Value
// (ToPropertyKey's result is observable when assigned to a computed
// key slot that a later opcode reads as an ordinary Value).
func keyToValue(k object.PropertyKey) object.Value {
	switch v := k.(type) {
	case string:
		return object.StringValue(v)
	case *object.SymbolValue:
		return v
	default:
		return object.Undefined
	}
}

func restArgs(args []object.Value, from int) []object.Value {
	if from >= len(args) {
		return nil
	}
	return args[from:]
}

// globalBacking returns the global object backing frame.env's nearest
// Global record, or nil if frame.env's chain never reaches one without
// first producing a closer match (a function/block environment run
// entirely under a Global top level still resolves var/function
// declarations against that Global's backing object).
func globalBacking(env *environment.Record) *object.Object {
	for cur := env; cur != nil; cur = cur.Outer {
		if cur.Kind == environment.KindGlobal {
			return cur.Backing
		}
		if cur.Kind == environment.KindFunction {
			return nil
		}
	}
	return nil
}

// nearestGlobal returns the nearest Global environment record in env's
// outer chain (used by assignName's implicit-global-creation fallback),
// regardless of any intervening Function record.
func nearestGlobal(env *environment.Record) *environment.Record {
	for cur := env; cur != nil; cur = cur.Outer {
		if cur.Kind == environment.KindGlobal {
			return cur
		}
	}
	return nil
}

// varScopeTarget returns the Declarative/Function record a `var` binding
// not already resolvable by name should be declared into when no static
// local slot was assigned (an eval- or with-introduced var): the
// nearest Function record, or the Global record's backing object
// otherwise (handled by globalBacking at the DefVar call site, so this
// only needs to cover the non-global case).
func varScopeTarget(env *environment.Record) *environment.Record {
	for cur := env; cur != nil; cur = cur.Outer {
		if cur.Kind == environment.KindFunction || cur.Kind == environment.KindGlobal {
			return cur
		}
	}
	return env
}

// lexicalTarget returns the environment record a DefLet/DefConst or an
// unresolved PutLexicalValue should declare into: the nearest Global
// record's LexicalDeclarative component, or the innermost Declarative/
// Function record otherwise.
func lexicalTarget(env *environment.Record) *environment.Record {
	if env.Kind == environment.KindGlobal {
		return env.LexicalDeclarative
	}
	return env
}
