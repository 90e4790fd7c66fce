package vm

import (
	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/object"
)

// execIteration handles the iteration opcode family: CreateForInIterator,
// GetIterator/GetAsyncIterator, and the IteratorNext/Done/Value/Close/
// ToArray/Pop steps compileForIn/compileForOf/compileArrayLiteral's
// spread lowering drive against them. Grounded on the implicit-iterator
// design already declared in vm_core.go's execState.iterStack: the
// bytecode never carries an iterator as a stack value, only the object
// being iterated (popped here) and the values IteratorValue/IteratorDone
// later push back.
func (vm *VM) execIteration(frame *callFrame, op bytecode.OpCode, pc int) (object.Value, bool, error) {
	cur := vm.cur

	switch op {
	case bytecode.CreateForInIterator:
		v := cur.pop()
		cur.iterStack = append(cur.iterStack, vm.newForInIterator(v))
		frame.ip = pc
	case bytecode.GetIterator:
		v := cur.pop()
		rec, err := vm.newIterator(v, object.SymIterator)
		if err != nil {
			return nil, false, err
		}
		cur.iterStack = append(cur.iterStack, rec)
		frame.ip = pc
	case bytecode.GetAsyncIterator:
		v := cur.pop()
		rec, err := vm.newIterator(v, object.SymAsyncIterator)
		if err != nil {
			// an async iterable not implementing Symbol.asyncIterator
			// falls back to wrapping its ordinary (sync) iterator, per
			// the for-await-of spec algorithm; Await on each step result
			// still makes the loop body observe a settled value either
			// way.
			rec, err = vm.newIterator(v, object.SymIterator)
			if err != nil {
				return nil, false, err
			}
		}
		cur.iterStack = append(cur.iterStack, rec)
		frame.ip = pc

	case bytecode.IteratorNext:
		if len(cur.iterStack) == 0 {
			return nil, false, &InternalError{Message: "IteratorNext with no active iterator"}
		}
		rec := cur.iterStack[len(cur.iterStack)-1]
		if err := vm.stepIterator(rec); err != nil {
			return nil, false, err
		}
		frame.ip = pc
	case bytecode.IteratorDone:
		rec := cur.iterStack[len(cur.iterStack)-1]
		cur.push(object.Boolean(rec.lastDone))
		frame.ip = pc
	case bytecode.IteratorValue:
		rec := cur.iterStack[len(cur.iterStack)-1]
		v := rec.lastVal
		if v == nil {
			v = object.Undefined
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.IteratorReturn:
		rec := cur.iterStack[len(cur.iterStack)-1]
		v, err := vm.closeIterator(rec, nil)
		if err != nil {
			return nil, false, err
		}
		cur.push(v)
		frame.ip = pc
	case bytecode.IteratorToArray:
		rec := cur.iterStack[len(cur.iterStack)-1]
		cur.iterStack = cur.iterStack[:len(cur.iterStack)-1]
		arr, ok := cur.peek().(*object.Object)
		if !ok || arr.Class != object.ClassArray {
			return nil, false, &InternalError{Message: "IteratorToArray: no array beneath the iterator"}
		}
		for {
			if err := vm.stepIterator(rec); err != nil {
				return nil, false, err
			}
			if rec.lastDone {
				break
			}
			arr.SetArrayIndex(len(arr.Array.Elements), rec.lastVal)
		}
		frame.ip = pc
	case bytecode.IteratorPop:
		if n := len(cur.iterStack); n > 0 {
			cur.iterStack = cur.iterStack[:n-1]
		}
		frame.ip = pc
	case bytecode.IteratorClose:
		if n := len(cur.iterStack); n > 0 {
			rec := cur.iterStack[n-1]
			cur.iterStack = cur.iterStack[:n-1]
			if _, err := vm.closeIterator(rec, nil); err != nil {
				return nil, false, err
			}
		}
		frame.ip = pc

	default:
		return vm.execGenerator(frame, op, pc)
	}

	return nil, false, nil
}

// newForInIterator builds the native (non-JS-object) enumeration
// CreateForInIterator needs: own and inherited enumerable string keys,
// nearest-shadowing-wins, each key visited at most once, matching
// EnumerateObjectProperties's observable ordering.
func (vm *VM) newForInIterator(v object.Value) *iteratorRecord {
	obj, ok := v.(*object.Object)
	if !ok {
		return &iteratorRecord{native: func() (object.Value, bool, error) { return object.Undefined, true, nil }}
	}
	seen := make(map[string]bool)
	var keys []string
	for o := obj; o != nil; o = o.Prototype {
		for _, k := range o.OwnPropertyKeys() {
			s, isStr := k.(string)
			if !isStr || seen[s] {
				continue
			}
			seen[s] = true
			if desc, ok := o.GetOwnProperty(k); ok && desc.HasEnumerable && desc.Enumerable {
				keys = append(keys, s)
			}
		}
	}
	i := 0
	return &iteratorRecord{native: func() (object.Value, bool, error) {
		if i >= len(keys) {
			return object.Undefined, true, nil
		}
		k := keys[i]
		i++
		return object.StringValue(k), false, nil
	}}
}

// newIterator implements GetIterator's abstract operation: look up
// obj[sym], call it with obj as receiver, and keep the returned
// iterator object plus its .next method for IteratorNext to drive.
func (vm *VM) newIterator(v object.Value, sym *object.SymbolValue) (*iteratorRecord, error) {
	obj, _, err := vm.toObjectReceiver(v)
	if err != nil {
		return nil, err
	}
	method, err := vm.getProperty(obj, object.SymbolKey(sym))
	if err != nil {
		return nil, err
	}
	fn, ok := method.(*object.Object)
	if !ok || !fn.IsCallable() {
		return nil, vm.throwTypeError("value is not iterable")
	}
	iterV, err := vm.Call(fn, obj, nil)
	if err != nil {
		return nil, err
	}
	iterObj, ok := iterV.(*object.Object)
	if !ok {
		return nil, vm.throwTypeError("Symbol.iterator did not return an object")
	}
	next, err := vm.getProperty(iterObj, object.StringKey("next"))
	if err != nil {
		return nil, err
	}
	return &iteratorRecord{iterObj: iterObj, nextMethod: next}, nil
}

// stepIterator advances rec by one, populating lastVal/lastDone from
// either its native Go step function (for-in) or by calling the JS
// iterator's next() and reading the IteratorResult's .value/.done
// (for-of, spread, destructuring).
func (vm *VM) stepIterator(rec *iteratorRecord) error {
	if rec.native != nil {
		v, done, err := rec.native()
		if err != nil {
			return err
		}
		rec.lastVal, rec.lastDone, rec.stepped = v, done, true
		return nil
	}
	fn, ok := rec.nextMethod.(*object.Object)
	if !ok || !fn.IsCallable() {
		return vm.throwTypeError("iterator.next is not a function")
	}
	res, err := vm.Call(fn, rec.iterObj, nil)
	if err != nil {
		return err
	}
	resObj, ok := res.(*object.Object)
	if !ok {
		return vm.throwTypeError("iterator result is not an object")
	}
	doneV, err := vm.getProperty(resObj, object.StringKey("done"))
	if err != nil {
		return err
	}
	valV, err := vm.getProperty(resObj, object.StringKey("value"))
	if err != nil {
		return err
	}
	rec.lastDone = object.ToBoolean(doneV)
	rec.lastVal = valV
	rec.stepped = true
	return nil
}

// closeIterator runs IteratorClose/IteratorReturn's abstract operation:
// call the iterator's return() method if it has one, ignoring a
// non-object result (a for-in's native iterator has no such method and
// is a no-op here).
func (vm *VM) closeIterator(rec *iteratorRecord, arg object.Value) (object.Value, error) {
	if rec.iterObj == nil {
		return object.Undefined, nil
	}
	iterObj, ok := rec.iterObj.(*object.Object)
	if !ok {
		return object.Undefined, nil
	}
	retV, err := vm.getProperty(iterObj, object.StringKey("return"))
	if err != nil {
		return object.Undefined, nil
	}
	fn, ok := retV.(*object.Object)
	if !ok || !fn.IsCallable() {
		return object.Undefined, nil
	}
	var args []object.Value
	if arg != nil {
		args = []object.Value{arg}
	}
	v, err := vm.Call(fn, iterObj, args)
	if err != nil {
		return nil, err
	}
	return v, nil
}
