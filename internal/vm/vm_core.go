package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/internal/environment"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/object"
)

// tryHandler is the runtime counterpart of a compiled PushTryHandler:
// where to resume on exception, and the stack/environment/iterator
// depths to unwind back to first.
type tryHandler struct {
	catchPC    int
	stackDepth int
	iterDepth  int
	env        *environment.Record
}

// callFrame is one activation record in the flat frame array a VM (or
// generator goroutine) runs. Grounded on the dws interpreter's
// callFrame (code + ip + closure), generalized with an environment
// pointer (replacing DWScript's flat local-slot array) and a
// try-handler stack for the single-handler-per-try bytecode shape.
type callFrame struct {
	code *bytecode.CodeBlock
	ip   int
	env  *environment.Record

	fn   *object.Object // the Function object running, nil for the top-level program/eval
	args []object.Value

	handlers []tryHandler

	pendingThrow       object.Value
	pendingThrowActive bool

	// newTargetSet/superBound track the derived-constructor `this`
	// uninitialized-until-super() invariant at the frame level; the
	// environment.Record carries the actual This/NewTarget payload.
	thisInitialized bool

	// returnValue backs GetReturnValue/SetReturnValue, the register a
	// `try`/`finally` lowering stashes a pending return's value in
	// while the finally block runs (an ordinary Return inside a
	// finally block would otherwise discard the outer return).
	returnValue object.Value

	// gen is non-nil when this frame is a generator/async-function body
	// running on its own coroutine (see vm_generators.go): GeneratorYield/
	// AsyncGeneratorYield/Await/GeneratorDelegateNext suspend through it.
	gen *generatorState
}

// iteratorRecord backs the implicit iterator stack that
// GetIterator/CreateForInIterator/IteratorNext/.../IteratorClose
// operate against, letting the compiled bytecode reference "the
// current iterator" without a local slot.
type iteratorRecord struct {
	native     func() (object.Value, bool, error) // for-in enumeration; done=true forever once exhausted
	iterObj    object.Value                       // JS iterator object, for-of/spread
	nextMethod object.Value

	stepped  bool
	lastVal  object.Value
	lastDone bool
}

// execState is one logical thread of execution: the main program, or a
// generator/async function's coroutine. Each has its own stack and
// frame array; only one execState runs at a time, synchronized
// cooperatively (generators hand control back via channels rather than
// true concurrency touching shared state).
type execState struct {
	stack     []object.Value
	frames    []*callFrame
	iterStack []*iteratorRecord
}

func newExecState() *execState {
	return &execState{stack: make([]object.Value, 0, 64)}
}

func (s *execState) push(v object.Value) { s.stack = append(s.stack, v) }

func (s *execState) pop() object.Value {
	n := len(s.stack) - 1
	v := s.stack[n]
	s.stack = s.stack[:n]
	return v
}

func (s *execState) popN(n int) []object.Value {
	start := len(s.stack) - n
	vs := append([]object.Value(nil), s.stack[start:]...)
	s.stack = s.stack[:start]
	return vs
}

func (s *execState) peek() object.Value { return s.stack[len(s.stack)-1] }

func (s *execState) top() *callFrame { return s.frames[len(s.frames)-1] }

// VM executes compiled CodeBlocks against a single Realm. One VM
// instance corresponds to one embedder Script/Handle's worth of
// shared global state; concurrent scripts each get their own VM.
type VM struct {
	realm    *object.Realm
	interner *interner.Interner

	main *execState
	cur  *execState // whichever execState (main, or a running generator) is currently dispatching

	// classStack backs the class-definition-time construction protocol
	// (PushClassPrototype.../DefineClassMethod family): the ctor/proto
	// pair under construction, popped when the class body's own
	// PopEnvironment retires the environment pushed alongside it.
	classStack []*classCtx

	microtasks []func()

	depth    int
	maxDepth int

	// lastFrame records the most recently completed pushFrame call's
	// frame, so Construct can recover the (possibly super()-bound)
	// `this` value after the frame has already popped off the stack.
	lastFrame *callFrame

	// privateStack backs the PushPrivateEnvironment/PopPrivateEnvironment
	// opcode pair: a LIFO table of the private names currently in scope
	// while a class body is defining (or re-defining, for a nested
	// class) its `#x` members.
	privateStack []privateNameEntry

	// tracer, when non-nil, receives one line per dispatched opcode
	// (pc, mnemonic, frame depth) — the embedder-facing counterpart of
	// spec.md's logging ambient concern, off by default.
	tracer io.Writer
}

// SetTracing directs opcode-dispatch trace lines to w, or disables
// tracing entirely when w is nil.
func (vm *VM) SetTracing(w io.Writer) { vm.tracer = w }

// SetMaxDepth overrides the call-stack frame limit (default
// defaultMaxDepth). Exposed so an embedder's configurable stack limit
// (spec.md §5) can tune how deep recursion may go before the VM throws
// a RangeError instead of exhausting the native Go stack.
func (vm *VM) SetMaxDepth(n int) {
	if n > 0 {
		vm.maxDepth = n
	}
}

type privateNameEntry struct {
	name string
	id   *object.PrivateName
}

type classCtx struct {
	ctor      *object.Object
	proto     *object.Object
	superCtor *object.Object
	envMarker *environment.Record
}

const defaultMaxDepth = 2000

// New creates a VM bound to realm, ready to run CodeBlocks compiled
// against realm's global environment.
func New(realm *object.Realm) *VM {
	return &VM{realm: realm, main: newExecState(), maxDepth: defaultMaxDepth}
}

func (vm *VM) SetInterner(in *interner.Interner) { vm.interner = in }

func (vm *VM) Realm() *object.Realm { return vm.realm }

func (vm *VM) name(idx uint16, code *bytecode.CodeBlock) string {
	if vm.interner == nil || int(idx) >= len(code.Names) {
		return ""
	}
	return vm.interner.String(code.Names[idx])
}

// Run executes a top-level CodeBlock (a Program or a direct eval) to
// completion and returns its completion value.
func (vm *VM) Run(code *bytecode.CodeBlock) (object.Value, error) {
	env, ok := vm.realm.GlobalEnv.(*environment.Record)
	if !ok {
		env = environment.NewGlobal(vm.realm.GlobalObject)
		vm.realm.GlobalEnv = env
	}
	frame := &callFrame{code: code, env: env, thisInitialized: true}
	vm.cur = vm.main
	vm.cur.frames = append(vm.cur.frames, frame)
	return vm.runUntil(0)
}

// pushFrame activates a new frame for fn (a script closure) on the
// current execState and runs it to completion via a nested dispatch
// loop, bounded by the execState's depth at entry: this is how
// NativeFunc callbacks (Array.prototype.map et al.) call back into
// script synchronously without Go-stack recursion through the opcode
// switch itself.
func (vm *VM) pushFrame(fn *object.Object, this object.Value, args []object.Value, newTarget object.Value) (object.Value, error) {
	vm.depth++
	if vm.depth > vm.maxDepth {
		vm.depth--
		return nil, vm.throwRangeError("Maximum call stack size exceeded")
	}
	defer func() { vm.depth-- }()

	data := fn.Callable
	if data.Native != nil {
		return data.Native(vm, this, args)
	}
	code, _ := data.Code.(*bytecode.CodeBlock)
	if code == nil {
		return object.Undefined, nil
	}

	outer, _ := data.Env.(*environment.Record)
	fnEnv := environment.NewFunction(outer, 0)
	switch code.ThisMode {
	case bytecode.ThisModeLexical:
		// arrow: no own this binding; HasThis stays false so
		// ThisBinding defers outward.
	case bytecode.ThisModeStrict:
		fnEnv.This, fnEnv.HasThis = this, true
	default:
		if this == object.Undefined || this == object.Null {
			fnEnv.This = vm.realm.GlobalObject
		} else if obj, ok := this.(*object.Object); ok {
			fnEnv.This = obj
		} else {
			fnEnv.This = this
		}
		fnEnv.HasThis = true
	}
	if code.IsDerivedConstructor() {
		fnEnv.HasThis = false // uninitialized until super() runs
	}
	fnEnv.NewTarget = newTarget
	if fn.HomeObject != nil {
		fnEnv.HomeObject = fn.HomeObject
	}

	if code.NeedsArguments() {
		argsObj := object.New(vm.realm.ObjectPrototype)
		argsObj.Class = object.ClassArguments
		argsObj.Args = &object.ArgumentsData{}
		elements := make([]object.Value, len(args))
		copy(elements, args)
		for i, v := range elements {
			argsObj.DefineOwnProperty(object.StringKey(strconv.Itoa(i)), object.DataProperty(v, true, true, true))
		}
		argsObj.DefineOwnProperty(object.StringKey("length"), object.DataProperty(object.Number(len(args)), true, false, true))
		slot := fnEnv.Declare("arguments", true, true)
		fnEnv.InitSlot(slot, argsObj)
	}

	frame := &callFrame{code: code, env: fnEnv, fn: fn, args: args, thisInitialized: !code.IsDerivedConstructor()}

	// Generator and async-function bodies run on their own coroutine
	// (see vm_generators.go) rather than vm.cur's frame stack: calling
	// either returns immediately (a Generator object, or a pending
	// Promise) without executing a single opcode of the body yet.
	if code.IsGenerator() {
		return vm.createGenerator(frame, code.IsAsync()), nil
	}
	if code.IsAsync() {
		return vm.runAsyncFunction(frame), nil
	}

	cur := vm.cur
	base := len(cur.frames)
	cur.frames = append(cur.frames, frame)
	v, err := vm.runUntil(base)
	vm.lastFrame = frame
	return v, err
}

// runUntil drives the current execState's dispatch loop until its
// frame count returns to baseDepth (the nested call that pushed the
// frame beyond baseDepth has fully returned or thrown).
func (vm *VM) runUntil(baseDepth int) (object.Value, error) {
	cur := vm.cur
	var lastReturn object.Value = object.Undefined
	for len(cur.frames) > baseDepth {
		frame := cur.top()
		if vm.tracer != nil && frame.ip < len(frame.code.Code) {
			op := bytecode.OpCode(frame.code.Code[frame.ip])
			fmt.Fprintf(vm.tracer, "%04d %-20s depth=%d\n", frame.ip, op.String(), len(cur.frames))
		}
		ret, completed, err := vm.step(frame)
		if err != nil {
			if rerr, ok := err.(*ThrownError); ok {
				if derr := vm.dispatchThrow(rerr.Value); derr != nil {
					return nil, derr
				}
				continue
			}
			return nil, err
		}
		if completed {
			cur.frames = cur.frames[:len(cur.frames)-1]
			lastReturn = ret
			if len(cur.frames) > baseDepth {
				cur.top().push(ret)
			}
		}
	}
	return lastReturn, nil
}

// dispatchThrow searches the current execState's frames (innermost
// first) for a handler, trimming stacks/environments/iterator depth to
// match the registration point. Frames with no handler are discarded
// entirely (their call "throws" to the caller). Returns a *ThrownError
// wrapping a RuntimeError if no handler anywhere catches it.
func (vm *VM) dispatchThrow(thrown object.Value) error {
	cur := vm.cur
	trace := vm.buildStackTrace()
	for len(cur.frames) > 0 {
		f := cur.top()
		if len(f.handlers) > 0 {
			h := f.handlers[len(f.handlers)-1]
			f.handlers = f.handlers[:len(f.handlers)-1]
			if h.stackDepth <= len(cur.stack) {
				cur.stack = cur.stack[:h.stackDepth]
			}
			if h.iterDepth <= len(cur.iterStack) {
				cur.iterStack = cur.iterStack[:h.iterDepth]
			}
			f.env = h.env
			f.pendingThrow = thrown
			f.pendingThrowActive = true
			f.ip = h.catchPC
			return nil
		}
		cur.frames = cur.frames[:len(cur.frames)-1]
	}
	return &ThrownError{Value: thrown, Trace: trace}
}
