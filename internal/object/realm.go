package object

// Realm is an isolated set of intrinsics and a global object. Exactly
// one is created per Engine instance in this implementation
// (multi-realm embedding is left to the embedder); its fields are
// populated once at construction and never structurally mutated
// afterward.
type Realm struct {
	GlobalObject *Object
	GlobalEnv    interface{} // *environment.Record, opaque here to avoid an import cycle

	ObjectPrototype   *Object
	FunctionPrototype *Object
	ArrayPrototype    *Object
	StringPrototype   *Object
	NumberPrototype   *Object
	BooleanPrototype  *Object
	ErrorPrototype    *Object
	RegExpPrototype   *Object
	DatePrototype     *Object
	DataViewPrototype *Object
	PromisePrototype  *Object
	GeneratorPrototype *Object
	IteratorPrototype  *Object
	MapPrototype       *Object
	SetPrototype       *Object

	ErrorConstructors map[string]*Object // Error and its native subclasses, keyed by name
}

// NewFunction allocates a callable Object (a function exotic object in
// the literal ECMAScript sense is "ordinary object + [[Call]]/
// [[Construct]]"; this implementation treats it as ClassFunction with
// a populated CallableData rather than a distinct struct).
func (r *Realm) NewFunction(data *CallableData) *Object {
	o := New(r.FunctionPrototype)
	o.Class = ClassFunction
	o.Callable = data
	o.DefineOwnProperty(StringKey("length"), DataProperty(Number(float64(data.Length)), false, false, true))
	o.DefineOwnProperty(StringKey("name"), DataProperty(StringValue(data.Name), false, false, true))
	if data.IsCtor {
		proto := New(r.ObjectPrototype)
		proto.DefineOwnProperty(StringKey("constructor"), DataProperty(o, true, false, true))
		o.DefineOwnProperty(StringKey("prototype"), DataProperty(proto, true, false, false))
	}
	return o
}

// NewError allocates an error object of the given constructor name
// (any key of ErrorConstructors, such as TypeError or RangeError; an
// unknown name gets the plain Error.prototype).
func (r *Realm) NewError(kind, message string) *Object {
	proto := r.ErrorPrototype
	if ctor, ok := r.ErrorConstructors[kind]; ok {
		if p, ok := ctor.GetOwnProperty(StringKey("prototype")); ok {
			if po, ok := p.Value.(*Object); ok {
				proto = po
			}
		}
	}
	o := New(proto)
	o.Class = ClassError
	o.DefineOwnProperty(StringKey("message"), DataProperty(StringValue(message), true, false, true))
	o.DefineOwnProperty(StringKey("name"), DataProperty(StringValue(kind), true, false, true))
	return o
}
