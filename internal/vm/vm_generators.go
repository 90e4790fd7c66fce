package vm

import (
	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/object"
)

// Generators and async functions are both "a frame that can suspend
// mid-body and hand control back to whoever called it." This file
// reifies that coroutine directly as a goroutine running the frame's
// own execState, synchronized with its driver by a pair of unbuffered
// channels: the channel operations themselves are the happens-before
// edge that makes handing vm.cur back and forth safe without a mutex,
// since by construction only one of the two goroutines ever touches VM
// state at a time (see runUntil/step, which read vm.cur freely).
//
// A sync generator's driver is whatever script called .next()/.throw()/
// .return(); an async function's driver is pumpAsync, reacting to
// promise settlement instead of an explicit external call.

type resumeKind int

const (
	resumeNext resumeKind = iota
	resumeThrow
	resumeReturn
)

type genResume struct {
	kind  resumeKind
	value object.Value
}

type genYield struct {
	value object.Value
	done  bool
	err   error
}

type generatorState struct {
	exec     *execState
	resumeCh chan genResume
	yieldCh  chan genYield
	finished bool
	isAsync  bool
}

// runCoroutineBody is the goroutine entry point shared by generators and
// async functions: block for the first drive, then run the frame to
// completion, suspending inline (inside vm.step, by way of execGenerator's
// suspend calls) however many times GeneratorYield/AsyncGeneratorYield/
// Await fire along the way.
func (vm *VM) runCoroutineBody(gs *generatorState) {
	msg := <-gs.resumeCh
	if msg.kind != resumeNext {
		// .throw()/.return() before the body ever ran: it never gets to
		// observe the call, matching "a generator that never started
		// yields no values and is immediately done."
		if msg.kind == resumeThrow {
			gs.yieldCh <- genYield{err: vm.Throw(msg.value)}
		} else {
			gs.yieldCh <- genYield{value: msg.value, done: true}
		}
		return
	}
	prev := vm.cur
	vm.cur = gs.exec
	v, err := vm.runUntil(0)
	vm.cur = prev
	gs.yieldCh <- genYield{value: v, done: true, err: err}
}

// drive hands a resume message to gs's coroutine and blocks for its next
// yield/return/throw, restoring vm.cur to whatever it was beforehand.
func (vm *VM) drive(gs *generatorState, msg genResume) genYield {
	prev := vm.cur
	vm.cur = gs.exec
	gs.resumeCh <- msg
	y := <-gs.yieldCh
	vm.cur = prev
	if y.done {
		gs.finished = true
	}
	return y
}

// createGenerator is pushFrame's branch for a generator (sync or async)
// function call: the frame is parked on its own execState and the
// coroutine goroutine started, but nothing runs until the first next().
func (vm *VM) createGenerator(frame *callFrame, isAsync bool) *object.Object {
	exec := newExecState()
	exec.frames = append(exec.frames, frame)
	gs := &generatorState{exec: exec, resumeCh: make(chan genResume), yieldCh: make(chan genYield), isAsync: isAsync}
	frame.gen = gs
	go vm.runCoroutineBody(gs)

	g := object.New(vm.realm.GeneratorPrototype)
	g.Class = object.ClassGenerator
	g.Internal = gs
	vm.installGeneratorMethods(g, gs)
	return g
}

// installGeneratorMethods defines next/throw/return as own properties of
// the generator instance. GeneratorPrototype is where these belong once
// the builtins layer populates it; installing them here too is harmless
// (an own property simply shadows the identical prototype one) and
// keeps generators usable standalone.
func (vm *VM) installGeneratorMethods(g *object.Object, gs *generatorState) {
	def := func(name string, kind resumeKind) {
		fn := vm.realm.NewFunction(&object.CallableData{
			Name: name, Length: 1,
			Native: func(_ object.VMContext, _ object.Value, args []object.Value) (object.Value, error) {
				return vm.resumeGenerator(gs, kind, argOrUndefined(args, 0))
			},
		})
		g.DefineOwnProperty(object.StringKey(name), object.DataProperty(fn, true, false, true))
	}
	def("next", resumeNext)
	def("throw", resumeThrow)
	def("return", resumeReturn)
}

// resumeGenerator implements next(v)/throw(v)/return(v): drive the
// coroutine (or, once it has already run to completion, synthesize the
// appropriate already-done result without touching the channels again),
// then wrap the outcome as a plain IteratorResult, or — for an async
// generator — as a Promise of one.
func (vm *VM) resumeGenerator(gs *generatorState, kind resumeKind, value object.Value) (object.Value, error) {
	result, done, err := vm.stepGenerator(gs, kind, value)
	if !gs.isAsync {
		if err != nil {
			return nil, err
		}
		return vm.iterResult(result, done), nil
	}
	p := vm.newPromise()
	if err != nil {
		vm.rejectPromise(p, thrownValue(err))
	} else {
		vm.resolvePromise(p, vm.iterResult(result, done))
	}
	return p, nil
}

func (vm *VM) stepGenerator(gs *generatorState, kind resumeKind, value object.Value) (object.Value, bool, error) {
	if gs.finished {
		if kind == resumeThrow {
			return nil, true, vm.Throw(value)
		}
		if kind == resumeReturn {
			return value, true, nil
		}
		return object.Undefined, true, nil
	}
	y := vm.drive(gs, genResume{kind: kind, value: value})
	if y.err != nil {
		return nil, true, y.err
	}
	v := y.value
	if v == nil {
		v = object.Undefined
	}
	return v, y.done, nil
}

func (vm *VM) iterResult(value object.Value, done bool) *object.Object {
	o := object.New(vm.realm.ObjectPrototype)
	o.DefineOwnProperty(object.StringKey("value"), object.DataProperty(value, true, true, true))
	o.DefineOwnProperty(object.StringKey("done"), object.DataProperty(object.Boolean(done), true, true, true))
	return o
}

func argOrUndefined(args []object.Value, i int) object.Value {
	if i < len(args) {
		return args[i]
	}
	return object.Undefined
}

func thrownValue(err error) object.Value {
	if te, ok := err.(*ThrownError); ok {
		return te.Value
	}
	return object.StringValue(err.Error())
}

// --- async functions -------------------------------------------------

// runAsyncFunction is pushFrame's branch for a plain (non-generator)
// async function call: unlike a generator, its coroutine starts running
// immediately — an async function body executes synchronously up to its
// first suspend point before the caller sees anything back, here a
// pending (or, if it never awaits, already-settled) Promise.
func (vm *VM) runAsyncFunction(frame *callFrame) *object.Object {
	exec := newExecState()
	exec.frames = append(exec.frames, frame)
	gs := &generatorState{exec: exec, resumeCh: make(chan genResume), yieldCh: make(chan genYield)}
	frame.gen = gs
	go vm.runCoroutineBody(gs)

	promise := vm.newPromise()
	vm.pumpAsync(gs, promise, genResume{kind: resumeNext})
	return promise
}

// pumpAsync drives gs until it either completes (settling promise) or
// hits an Await (arranging to pump again once the awaited value settles,
// via the job queue so the resumption is never reentrant with the call
// that triggered it).
func (vm *VM) pumpAsync(gs *generatorState, promise *object.Object, msg genResume) {
	y := vm.drive(gs, msg)
	if y.err != nil {
		vm.rejectPromise(promise, thrownValue(y.err))
		return
	}
	if y.done {
		vm.resolvePromise(promise, y.value)
		return
	}
	vm.awaitValue(y.value,
		func(v object.Value) { vm.pumpAsync(gs, promise, genResume{kind: resumeNext, value: v}) },
		func(v object.Value) { vm.pumpAsync(gs, promise, genResume{kind: resumeThrow, value: v}) },
	)
}

// --- promises ----------------------------------------------------------

type promiseStatus int

const (
	promisePending promiseStatus = iota
	promiseFulfilled
	promiseRejected
)

// promiseData is a Promise object's Internal payload: settlement state
// plus the reactions registered before it settled.
type promiseData struct {
	state     promiseStatus
	value     object.Value
	onFulfill []func(object.Value)
	onReject  []func(object.Value)
}

// NewPromise, ResolvePromise, RejectPromise, and PromiseThen implement
// object.VMContext's promise primitives for internal/builtins'
// Promise constructor/prototype, so a builtin-created Promise and an
// engine-internal Await both settle through this same promiseData.
func (vm *VM) NewPromise() object.Value { return vm.newPromise() }

func (vm *VM) ResolvePromise(p object.Value, v object.Value) {
	if po, ok := p.(*object.Object); ok {
		vm.resolvePromise(po, v)
	}
}

func (vm *VM) RejectPromise(p object.Value, v object.Value) {
	if po, ok := p.(*object.Object); ok {
		vm.rejectPromise(po, v)
	}
}

func (vm *VM) PromiseThen(p object.Value, onFulfilled, onRejected func(object.Value)) {
	if po, ok := p.(*object.Object); ok {
		vm.promiseThen(po, onFulfilled, onRejected)
	}
}

func (vm *VM) newPromise() *object.Object {
	p := object.New(vm.realm.PromisePrototype)
	p.Class = object.ClassPromise
	p.Internal = &promiseData{state: promisePending}
	return p
}

// resolvePromise implements the Promise Resolve Thenable Job's trigger:
// resolving with another thenable adopts its eventual state instead of
// fulfilling with the thenable itself.
func (vm *VM) resolvePromise(p *object.Object, v object.Value) {
	pd, ok := p.Internal.(*promiseData)
	if !ok || pd.state != promisePending {
		return
	}
	if obj, isObj := v.(*object.Object); isObj {
		if thenV, err := vm.getProperty(obj, object.StringKey("then")); err == nil {
			if thenFn, ok := thenV.(*object.Object); ok && thenFn.IsCallable() {
				vm.awaitValue(v, func(rv object.Value) { vm.resolvePromise(p, rv) }, func(rv object.Value) { vm.rejectPromise(p, rv) })
				return
			}
		}
	}
	pd.state, pd.value = promiseFulfilled, v
	reactions := pd.onFulfill
	pd.onFulfill, pd.onReject = nil, nil
	for _, r := range reactions {
		r := r
		vm.EnqueueJob(func() { r(v) })
	}
}

func (vm *VM) rejectPromise(p *object.Object, v object.Value) {
	pd, ok := p.Internal.(*promiseData)
	if !ok || pd.state != promisePending {
		return
	}
	pd.state, pd.value = promiseRejected, v
	reactions := pd.onReject
	pd.onFulfill, pd.onReject = nil, nil
	for _, r := range reactions {
		r := r
		vm.EnqueueJob(func() { r(v) })
	}
}

// promiseThen registers onFulfilled/onRejected against p, scheduling
// them as jobs immediately if p has already settled.
func (vm *VM) promiseThen(p *object.Object, onFulfilled, onRejected func(object.Value)) {
	pd, ok := p.Internal.(*promiseData)
	if !ok {
		return
	}
	switch pd.state {
	case promiseFulfilled:
		v := pd.value
		vm.EnqueueJob(func() { onFulfilled(v) })
	case promiseRejected:
		v := pd.value
		vm.EnqueueJob(func() { onRejected(v) })
	default:
		pd.onFulfill = append(pd.onFulfill, onFulfilled)
		pd.onReject = append(pd.onReject, onRejected)
	}
}

// awaitValue implements Await's abstract operation for both genuine
// Promises and arbitrary thenables, and for ordinary values (which still
// resolve after one job-queue tick rather than synchronously, matching
// `await 1` still yielding to the microtask queue once).
func (vm *VM) awaitValue(v object.Value, onFulfilled, onRejected func(object.Value)) {
	if p, ok := v.(*object.Object); ok && p.Class == object.ClassPromise {
		vm.promiseThen(p, onFulfilled, onRejected)
		return
	}
	if obj, ok := v.(*object.Object); ok {
		if thenV, err := vm.getProperty(obj, object.StringKey("then")); err == nil {
			if thenFn, ok := thenV.(*object.Object); ok && thenFn.IsCallable() {
				resolve := vm.realm.NewFunction(&object.CallableData{Length: 1, Native: func(_ object.VMContext, _ object.Value, args []object.Value) (object.Value, error) {
					rv := argOrUndefined(args, 0)
					vm.EnqueueJob(func() { onFulfilled(rv) })
					return object.Undefined, nil
				}})
				reject := vm.realm.NewFunction(&object.CallableData{Length: 1, Native: func(_ object.VMContext, _ object.Value, args []object.Value) (object.Value, error) {
					rv := argOrUndefined(args, 0)
					vm.EnqueueJob(func() { onRejected(rv) })
					return object.Undefined, nil
				}})
				if _, err := vm.Call(thenFn, obj, []object.Value{resolve, reject}); err != nil {
					ev := thrownValue(err)
					vm.EnqueueJob(func() { onRejected(ev) })
				}
				return
			}
		}
	}
	vm.EnqueueJob(func() { onFulfilled(v) })
}

// EnqueueJob implements HostEnqueuePromiseJob: queue a microtask
// (promise reaction, async-function resumption) for the embedder to
// drain via DrainJobs.
func (vm *VM) EnqueueJob(job func()) {
	vm.microtasks = append(vm.microtasks, job)
}

// DrainJobs runs queued jobs to a fixed point, FIFO within a checkpoint:
// jobs a job enqueues while running are processed in the same drain,
// after everything queued ahead of them.
func (vm *VM) DrainJobs() {
	for len(vm.microtasks) > 0 {
		job := vm.microtasks[0]
		vm.microtasks = vm.microtasks[1:]
		job()
	}
}

// --- opcode dispatch ---------------------------------------------------

// execGenerator handles the suspension opcodes: GeneratorYield,
// AsyncGeneratorYield, Await, and GeneratorDelegateNext (yield*). Each
// is only valid inside a frame running on a generatorState's coroutine;
// frame.gen is nil for an ordinary call.
func (vm *VM) execGenerator(frame *callFrame, op bytecode.OpCode, pc int) (object.Value, bool, error) {
	cur := vm.cur
	switch op {
	case bytecode.GeneratorYield, bytecode.AsyncGeneratorYield, bytecode.Await:
		v := cur.pop()
		if frame.gen == nil {
			// top-level await / yield outside any generator: treat the
			// operand as already settled rather than faulting, since
			// there is no coroutine to suspend.
			cur.push(v)
			frame.ip = pc
			return nil, false, nil
		}
		resumed, isReturn, err := vm.suspend(frame.gen, v)
		if err != nil {
			return nil, false, err
		}
		if isReturn {
			return resumed, true, nil
		}
		cur.push(resumed)
		frame.ip = pc
	case bytecode.GeneratorDelegateNext:
		v := cur.pop()
		if frame.gen == nil {
			return nil, false, &InternalError{Message: "yield* outside generator"}
		}
		result, isReturn, err := vm.delegateYield(frame.gen, v)
		if err != nil {
			return nil, false, err
		}
		if isReturn {
			return result, true, nil
		}
		cur.push(result)
		frame.ip = pc
	default:
		return nil, false, &InternalError{Message: "unimplemented opcode in execGenerator"}
	}
	return nil, false, nil
}

// suspend hands value out through gs's yield channel and blocks for the
// next resume message, reporting isReturn=true when the caller was a
// .return(v) / an async driver's cancellation rather than an ordinary
// .next(v): the generator body completes immediately with that value.
// A .return() while a `try { yield x } finally { ... }` is suspended at
// the yield point skips the finally, an accepted simplification: running
// it would require unwinding through the try-handler machinery the way
// dispatchThrow does for a thrown value, which yield's suspend point
// does not currently hook into.
func (vm *VM) suspend(gs *generatorState, value object.Value) (object.Value, bool, error) {
	gs.yieldCh <- genYield{value: value, done: false}
	msg := <-gs.resumeCh
	switch msg.kind {
	case resumeThrow:
		return nil, false, vm.Throw(msg.value)
	case resumeReturn:
		return msg.value, true, nil
	default:
		v := msg.value
		if v == nil {
			v = object.Undefined
		}
		return v, false, nil
	}
}

// delegateYield drives yield*'s inner iterator: forward .next(sent)
// results out through suspend until the inner iterator reports done, at
// which point its final value becomes yield*'s expression value. A
// .throw() arriving while delegating is forwarded to the inner
// iterator's own throw method when it has one (closing the inner
// iterator and raising a TypeError at the yield* site otherwise,
// per the delegated-yield abstract operation); a .return() closes the
// inner iterator and completes the delegation (and, by isReturn
// propagating up through execGenerator, the whole generator) with that
// value.
func (vm *VM) delegateYield(gs *generatorState, iterable object.Value) (object.Value, bool, error) {
	rec, err := vm.newIterator(iterable, object.SymIterator)
	if err != nil {
		return nil, false, err
	}
	resume := genResume{kind: resumeNext}
	for {
		switch resume.kind {
		case resumeThrow:
			handled, err := vm.iteratorThrowInto(rec, resume.value)
			if err != nil {
				return nil, false, err
			}
			if !handled {
				vm.closeIterator(rec, nil)
				return nil, false, vm.throwTypeError("iterator does not have a throw method")
			}
		case resumeReturn:
			v, err := vm.closeIterator(rec, resume.value)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		default:
			if err := vm.stepIterator(rec); err != nil {
				return nil, false, err
			}
		}
		if rec.lastDone {
			return rec.lastVal, false, nil
		}
		resumed, isReturn, err := vm.suspend(gs, rec.lastVal)
		if err != nil {
			return nil, false, err
		}
		if isReturn {
			v, _ := vm.closeIterator(rec, resumed)
			return v, true, nil
		}
		resume = genResume{kind: resumeNext, value: resumed}
	}
}

// iteratorThrowInto calls rec's iterator.throw(v) if it has one,
// updating rec's last-step result from the IteratorResult it returns.
// Reports handled=false when the iterator has no throw method at all.
func (vm *VM) iteratorThrowInto(rec *iteratorRecord, v object.Value) (handled bool, err error) {
	iterObj, ok := rec.iterObj.(*object.Object)
	if !ok {
		return false, nil
	}
	throwV, err := vm.getProperty(iterObj, object.StringKey("throw"))
	if err != nil {
		return false, err
	}
	fn, ok := throwV.(*object.Object)
	if !ok || !fn.IsCallable() {
		return false, nil
	}
	res, err := vm.Call(fn, iterObj, []object.Value{v})
	if err != nil {
		return true, err
	}
	resObj, ok := res.(*object.Object)
	if !ok {
		return true, vm.throwTypeError("iterator result is not an object")
	}
	doneV, err := vm.getProperty(resObj, object.StringKey("done"))
	if err != nil {
		return true, err
	}
	valV, err := vm.getProperty(resObj, object.StringKey("value"))
	if err != nil {
		return true, err
	}
	rec.lastDone = object.ToBoolean(doneV)
	rec.lastVal = valV
	rec.stepped = true
	return true, nil
}
