package object

// Class tags the exotic-object kind an *Object plays. Ordinary objects use
// ClassOrdinary; every other tag overrides specific internal methods
// below the default ordinary-object algorithms.
type Class uint8

const (
	ClassOrdinary Class = iota
	ClassArray
	ClassArguments
	ClassFunction
	ClassError
	ClassDate
	ClassRegExp
	ClassDataView
	ClassArrayBuffer
	ClassTypedArray
	ClassProxy
	ClassModuleNamespace
	ClassMap
	ClassSet
	ClassPromise
	ClassGenerator
	ClassBoolean
	ClassNumber
	ClassString
)

// NativeFunc is a host-implemented callable: the builtin surface
// and the embedder's
// HostEnqueuePromiseJob-style hooks both hand the VM a NativeFunc
// rather than a CodeBlock to run.
type NativeFunc func(vm VMContext, this Value, args []Value) (Value, error)

// VMContext is the minimal surface a NativeFunc needs from the running
// VM: enough to call back into script (Array.prototype.map's callback
// argument), construct new objects, and throw. It is implemented by
// internal/vm.VM; object cannot import vm without an import cycle, so
// the capability is expressed as an interface here instead.
type VMContext interface {
	Call(fn Value, this Value, args []Value) (Value, error)
	Construct(fn Value, args []Value, newTarget Value) (Value, error)
	Throw(v Value) error
	NewTypeError(msg string) Value
	NewRangeError(msg string) Value
	Realm() *Realm

	// Promise primitives back the builtin Promise constructor/prototype
	// (internal/builtins), which needs to produce and settle the exact
	// same ClassPromise representation Await/yield-suspension already
	// operate on (see internal/vm/vm_generators.go's promiseData) rather
	// than a second, incompatible one of its own.
	NewPromise() Value
	ResolvePromise(p Value, v Value)
	RejectPromise(p Value, v Value)
	PromiseThen(p Value, onFulfilled, onRejected func(Value))
}

// CallableData distinguishes the two callable representations: an
// ECMAScript function body (Code, non-nil, opaque here to avoid an
// import cycle with internal/bytecode — the VM type-asserts it) or a
// NativeFunc. Exactly one of Code/Native is set.
type CallableData struct {
	Code   interface{} // *bytecode.CodeBlock, set for script functions
	Native NativeFunc  // set for host/builtin functions
	Bound  *BoundFunctionData
	IsCtor bool // whether [[Construct]] is present
	Name   string
	Length int

	// Env is the *environment.Record the closure captured at creation
	// time (the defining environment FunctionRef ran in), opaque here
	// to avoid an import cycle with internal/environment. Unset for
	// NativeFunc values, which close over Go state instead.
	Env interface{}
}

// BoundFunctionData backs Function.prototype.bind's exotic object.
type BoundFunctionData struct {
	Target    Value
	BoundThis Value
	BoundArgs []Value
}

// ArrayData backs the Array exotic object: a dense element vector plus
// the `length` own-property invariant.
type ArrayData struct {
	Elements []Value
}

// ArgumentsData backs the (possibly mapped) arguments object: unmapped
// in strict mode or with non-simple parameters, mapped otherwise.
type ArgumentsData struct {
	Mapped    bool
	ParamMap  map[int]int // argument index -> environment slot, mapped arguments only
	Env       interface{} // *environment.Record the mapped indices write through to
}

// Object is the on-heap representation of every ECMAScript object,
// ordinary or exotic. It presents the essential internal methods
// via the methods below; exotic classes override the
// ones the comment on each method names.
//
// Grounded on the dws interpreter's ObjectInstance (Class + Fields map) shape,
// generalized from a single class-instance kind to the tagged Class
// enum above and from a bare string->Value map to an insertion-
// ordered PropertyDescriptor map (ValidateAndApplyPropertyDescriptor
// needs the attribute-presence bits a plain map can't carry).
type Object struct {
	Class      Class
	Prototype  *Object // [[Prototype]]; nil means %Object.prototype% is absent (the null case)
	Extensible bool

	// keys preserves insertion order for own-property enumeration;
	// props is the backing map. Integer-index keys are still enumerated first
	// per ECMAScript's OrdinaryOwnPropertyKeys, handled by OwnPropertyKeys.
	keys  []PropertyKey
	props map[PropertyKey]*PropertyDescriptor

	// Callable is non-nil for function objects ([[Call]]); Callable's
	// IsCtor additionally gates [[Construct]].
	Callable *CallableData

	// Specialized data slots, at most one populated per object
	// depending on Class.
	Array    *ArrayData
	Args     *ArgumentsData
	Bound    *BoundFunctionData
	Internal interface{} // Date epoch millis, RegExp pattern, DataView buffer, etc.

	// HomeObject backs `super` property lookups inside methods; arrow
	// functions have no home object of their own, so this is only set
	// on ordinary methods.
	HomeObject *Object

	// PrivateFields holds the class-scoped `#x` storage for instances
	// of a class declaring private fields.
	PrivateFields map[*PrivateName]Value
}

// PrivateName is the runtime identity behind a `#x` declaration: two
// classes that both declare `#x` get distinct PrivateName instances,
// so a private reference only resolves against the class that
// declared it.
type PrivateName struct {
	Name string
}

// Kind reports KindObject; *Object is itself a Value so it can sit
// directly in property descriptors, arguments, and array elements
// without a wrapper type.
func (*Object) Kind() Kind { return KindObject }
func (*Object) jsValue()   {}

// New allocates an ordinary, extensible object with the given
// prototype (nil for %Object.prototype% itself).
func New(proto *Object) *Object {
	return &Object{
		Class:      ClassOrdinary,
		Prototype:  proto,
		Extensible: true,
		props:      make(map[PropertyKey]*PropertyDescriptor),
	}
}

// GetPrototypeOf implements [[GetPrototypeOf]].
func (o *Object) GetPrototypeOf() *Object { return o.Prototype }

// SetPrototypeOf implements [[SetPrototypeOf]]; rejects cycles and
// non-extensible targets per the ordinary-object algorithm.
func (o *Object) SetPrototypeOf(proto *Object) bool {
	if proto == o.Prototype {
		return true
	}
	if !o.Extensible {
		return false
	}
	for p := proto; p != nil; p = p.Prototype {
		if p == o {
			return false // would create a cycle
		}
	}
	o.Prototype = proto
	return true
}

// IsExtensible implements [[IsExtensible]].
func (o *Object) IsExtensible() bool { return o.Extensible }

// PreventExtensions implements [[PreventExtensions]].
func (o *Object) PreventExtensions() bool {
	o.Extensible = false
	return true
}

// GetOwnProperty implements [[GetOwnProperty]]. Array overrides parts of
// this via arrayOwnProperty in array.go; ordinary storage is the
// fallback for every class.
func (o *Object) GetOwnProperty(key PropertyKey) (*PropertyDescriptor, bool) {
	if o.Class == ClassArray {
		if d, ok := o.arrayOwnProperty(key); ok {
			return d, true
		}
	}
	d, ok := o.props[key]
	return d, ok
}

// DefineOwnProperty implements [[DefineOwnProperty]] via
// ValidateAndApplyPropertyDescriptor (the ECMAScript algorithm,
// abbreviated: a new property is rejected only if the object is
// non-extensible; an existing non-configurable property rejects any
// change except a writable data property's value, or widening
// writable/configurable itself never succeeds once false).
func (o *Object) DefineOwnProperty(key PropertyKey, desc *PropertyDescriptor) bool {
	if o.Class == ClassArray && o.Array != nil {
		if handled, ok := o.defineArrayOwnProperty(key, desc); ok {
			return handled
		}
	}
	current, exists := o.GetOwnProperty(key)
	if !exists {
		if !o.Extensible {
			return false
		}
		o.putOwn(key, normalizeNewDescriptor(desc))
		return true
	}
	if !current.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return false
		}
		if desc.HasEnumerable && desc.Enumerable != current.Enumerable {
			return false
		}
		if !desc.IsGenericDescriptor() && desc.IsAccessor() != current.IsAccessor() {
			return false
		}
		if current.IsAccessor() {
			if desc.HasGet && desc.Get != current.Get {
				return false
			}
			if desc.HasSet && desc.Set != current.Set {
				return false
			}
		} else if !current.Writable {
			if desc.HasWritable && desc.Writable {
				return false
			}
			if desc.HasValue && !sameValue(desc.Value, current.Value) {
				return false
			}
		}
	}
	mergeDescriptor(current, desc)
	o.props[key] = current
	return true
}

func normalizeNewDescriptor(desc *PropertyDescriptor) *PropertyDescriptor {
	d := &PropertyDescriptor{}
	mergeDescriptor(d, desc)
	return d
}

func mergeDescriptor(dst, src *PropertyDescriptor) {
	if src.HasValue {
		dst.Value, dst.HasValue = src.Value, true
		dst.Get, dst.Set, dst.HasGet, dst.HasSet = nil, nil, false, false
	}
	if src.HasWritable {
		dst.Writable, dst.HasWritable = src.Writable, true
	}
	if src.HasGet {
		dst.Get, dst.HasGet = src.Get, true
		dst.Value, dst.HasValue, dst.Writable, dst.HasWritable = nil, false, false, false
	}
	if src.HasSet {
		dst.Set, dst.HasSet = src.Set, true
		dst.Value, dst.HasValue, dst.Writable, dst.HasWritable = nil, false, false, false
	}
	if src.HasEnumerable {
		dst.Enumerable, dst.HasEnumerable = src.Enumerable, true
	}
	if src.HasConfigurable {
		dst.Configurable, dst.HasConfigurable = src.Configurable, true
	}
}

func sameValue(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if na, ok := a.(Number); ok {
		if nb, ok := b.(Number); ok {
			return na.SameValue(nb)
		}
		return false
	}
	return a == b
}

func (o *Object) putOwn(key PropertyKey, d *PropertyDescriptor) {
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = d
}

// HasProperty implements [[HasProperty]], walking the prototype chain.
func (o *Object) HasProperty(key PropertyKey) bool {
	for cur := o; cur != nil; cur = cur.Prototype {
		if _, ok := cur.GetOwnProperty(key); ok {
			return true
		}
	}
	return false
}

// Get implements [[Get]] (receiver defaults to o; distinct when
// invoked through a Proxy or a `with` delegate).
func (o *Object) Get(key PropertyKey, receiver Value) (Value, error) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if d, ok := cur.GetOwnProperty(key); ok {
			if d.IsAccessor() {
				if d.Get == nil {
					return Undefined, nil
				}
				return nil, &getterCall{fn: d.Get, this: receiver}
			}
			return d.Value, nil
		}
	}
	return Undefined, nil
}

// getterCall is a sentinel error type VMContext.Call-aware callers
// unwrap to invoke an accessor getter; Object itself cannot invoke
// script functions (no VM access), so Get signals the call back to
// the VM rather than performing it directly. Ordinary data-property
// reads never produce this.
type getterCall struct {
	fn   Value
	this Value
}

func (*getterCall) Error() string { return "getter call required" }

// AsGetterCall extracts the pending getter invocation from an error
// returned by Get/Set, if any.
func AsGetterCall(err error) (fn, this Value, ok bool) {
	if g, is := err.(*getterCall); is {
		return g.fn, g.this, true
	}
	return nil, nil, false
}

// Set implements [[Set]]. Like Get, an accessor setter is signalled to
// the caller rather than invoked here.
func (o *Object) Set(key PropertyKey, value Value, receiver Value) (bool, error) {
	if o.Class == ClassArray && o.Array != nil && receiver == o {
		if handled, ok := o.defineArrayOwnProperty(key, DataProperty(value, true, true, true)); ok {
			return handled, nil
		}
	}
	for cur := o; cur != nil; cur = cur.Prototype {
		if d, ok := cur.GetOwnProperty(key); ok {
			if d.IsAccessor() {
				if d.Set == nil {
					return false, nil
				}
				return false, &setterCall{fn: d.Set, this: receiver, value: value}
			}
			if cur == o {
				if !d.Writable {
					return false, nil
				}
				d.Value = value
				return true, nil
			}
			if !d.Writable {
				return false, nil
			}
			break
		}
	}
	if ro, ok := receiver.(*Object); ok && ro != o {
		return ro.DefineOwnProperty(key, DataProperty(value, true, true, true)), nil
	}
	return o.DefineOwnProperty(key, DataProperty(value, true, true, true)), nil
}

type setterCall struct {
	fn    Value
	this  Value
	value Value
}

func (*setterCall) Error() string { return "setter call required" }

// AsSetterCall extracts a pending setter invocation, if any.
func AsSetterCall(err error) (fn, this, value Value, ok bool) {
	if s, is := err.(*setterCall); is {
		return s.fn, s.this, s.value, true
	}
	return nil, nil, nil, false
}

// Delete implements [[Delete]].
func (o *Object) Delete(key PropertyKey) bool {
	d, ok := o.props[key]
	if !ok {
		return true
	}
	if !d.Configurable {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// OwnPropertyKeys implements [[OwnPropertyKeys]]: integer-index keys in
// ascending order, then string keys in insertion order, then symbol
// keys in insertion order (the OrdinaryOwnPropertyKeys order).
func (o *Object) OwnPropertyKeys() []PropertyKey {
	var ints []PropertyKey
	var strs []PropertyKey
	var syms []PropertyKey
	if o.Class == ClassArray && o.Array != nil {
		for i := range o.Array.Elements {
			ints = append(ints, arrayIndexKey(i))
		}
	}
	for _, k := range o.keys {
		if _, isSym := k.(*SymbolValue); isSym {
			syms = append(syms, k)
			continue
		}
		if _, isIdx := indexOf(k); isIdx {
			ints = append(ints, k)
			continue
		}
		strs = append(strs, k)
	}
	if o.Class == ClassArray {
		strs = append(strs, StringKey("length"))
	}
	sortIndexKeys(ints)
	out := make([]PropertyKey, 0, len(ints)+len(strs)+len(syms))
	out = append(out, ints...)
	out = append(out, strs...)
	out = append(out, syms...)
	return out
}

// Callable internal methods.

// IsCallable and IsConstructor report the [[Call]]/[[Construct]]
// capabilities: the object itself has no VM, so it merely reports
// them; invocation happens in internal/vm against CallableData.
func (o *Object) IsCallable() bool    { return o.Callable != nil }
func (o *Object) IsConstructor() bool { return o.Callable != nil && o.Callable.IsCtor }
