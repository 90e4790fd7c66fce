// Package environment implements the lexical/variable/function/object
// environment records: the runtime chain a BindingLocator's
// (env_depth, slot) pair is resolved against, and the fallback
// name-based walk used when the compiler could not prove a static
// depth (`with`, direct `eval`, or an unresolved global).
//
// Grounded on the dws interpreter's Environment (slot store + outer pointer)
// shape, generalized from a single case-insensitive kind to a tagged
// Declarative/Function/Object/Global variant, and made
// case-sensitive (ECMAScript identifiers are case-sensitive, unlike
// DWScript's).
package environment

import "github.com/jsvm/jsvm/internal/object"

// Kind tags which environment-record variant a Record plays.
type Kind uint8

const (
	KindDeclarative Kind = iota
	KindFunction
	KindObject
	KindGlobal
)

// hole is the sentinel stored in a slot that is declared but not yet
// initialized: the TDZ. It embeds object.Value so that it carries the
// interface's unexported method and can be stored as a Value.
type hole struct{ object.Value }

// Hole is the TDZ sentinel Value. It is never observable from script;
// any read must be trapped by GetSlot and converted to a
// ReferenceError by the caller (the VM).
var Hole object.Value = hole{}

func (hole) Kind() object.Kind { return object.KindUndefined }
func (hole) jsValue()          {}

// SlotFlags records per-slot mutability and initialization state.
type SlotFlags struct {
	Mutable     bool
	Initialized bool
}

// Record is a runtime environment record. Exactly the fields relevant
// to Kind are used: Declarative/Function records use Slots/Names;
// Object/Global records delegate through Backing.
type Record struct {
	Kind  Kind
	Outer *Record

	Slots []object.Value
	Flags []SlotFlags
	Names map[string]int // name -> slot index, for the dynamic (name-based) fallback path

	// Function-record-only fields.
	This         object.Value
	NewTarget    object.Value
	HomeObject   *object.Object
	HasThis      bool // false for an environment not yet bound to a this (before super() in a derived ctor)

	// Object/Global-record-only field: HasBinding/Get/SetMutableBinding
	// delegate to this object's property operations, so `with`
	// bindings can be shadowed by prototype properties.
	Backing *object.Object

	// Global records additionally carry a declarative component for
	// lexical (let/const/class) global bindings, kept separate from
	// the global object's own properties (which hold var/function
	// declarations) per ECMAScript's GlobalEnvironmentRecord split.
	LexicalDeclarative *Record
}

// NewDeclarative allocates a Declarative environment record with n
// slots, all initially holes with no name binding (names are assigned
// via Declare as declaration instantiation runs).
func NewDeclarative(outer *Record, n int) *Record {
	return &Record{
		Kind:  KindDeclarative,
		Outer: outer,
		Slots: make([]object.Value, n),
		Flags: make([]SlotFlags, n),
		Names: make(map[string]int, n),
	}
}

// NewFunction allocates a Function environment record: a Declarative
// record plus the per-invocation this/new.target/home-object triple.
func NewFunction(outer *Record, n int) *Record {
	r := NewDeclarative(outer, n)
	r.Kind = KindFunction
	return r
}

// NewObject allocates an Object environment record over backing,
// used for `with` statements and (via NewGlobal) the global object.
func NewObject(outer *Record, backing *object.Object) *Record {
	return &Record{Kind: KindObject, Outer: outer, Backing: backing}
}

// NewGlobal allocates the Global environment record: backing is the
// global object (holds var/function bindings); its LexicalDeclarative
// component holds let/const/class bindings declared at top level.
func NewGlobal(backing *object.Object) *Record {
	r := &Record{Kind: KindGlobal, Backing: backing}
	r.LexicalDeclarative = NewDeclarative(nil, 0)
	return r
}

// Declare adds a named slot to a Declarative/Function record, growing
// Slots/Flags, and returns its slot index. Used by declaration
// instantiation when the compiler could not pre-size every slot (e.g.
// `eval`-introduced bindings).
func (r *Record) Declare(name string, mutable, initialized bool) int {
	idx := len(r.Slots)
	if initialized {
		r.Slots = append(r.Slots, object.Undefined)
	} else {
		r.Slots = append(r.Slots, Hole)
	}
	r.Flags = append(r.Flags, SlotFlags{Mutable: mutable, Initialized: initialized})
	r.Names[name] = idx
	return idx
}

// GetSlot reads a Declarative/Function slot by static index, returning
// ok=false if the slot is still a hole (TDZ).
func (r *Record) GetSlot(idx int) (object.Value, bool) {
	if idx < 0 || idx >= len(r.Slots) {
		return object.Undefined, false
	}
	if !r.Flags[idx].Initialized {
		return nil, false
	}
	return r.Slots[idx], true
}

// InitSlot initializes a slot (the `PutLexicalValue`/`DefInitVar`
// opcodes' runtime effect), lifting it out of TDZ.
func (r *Record) InitSlot(idx int, v object.Value) {
	r.Slots[idx] = v
	r.Flags[idx].Initialized = true
}

// SetSlot writes to an already-initialized, mutable slot. Returns
// false if the slot is immutable (a `const` rebinding) — the caller
// (VM) converts that into a TypeError.
func (r *Record) SetSlot(idx int, v object.Value) bool {
	if !r.Flags[idx].Mutable {
		return false
	}
	r.Slots[idx] = v
	return true
}

// HasBinding reports whether name is bound directly in r (not walking
// Outer), delegating to the backing object for Object/Global records.
func (r *Record) HasBinding(name string) bool {
	switch r.Kind {
	case KindObject:
		return r.Backing.HasProperty(object.StringKey(name))
	case KindGlobal:
		if r.LexicalDeclarative.HasBinding(name) {
			return true
		}
		return r.Backing.HasProperty(object.StringKey(name))
	default:
		_, ok := r.Names[name]
		return ok
	}
}

// Lookup walks r and its outer chain for name, returning the defining
// record and slot index for a Declarative/Function record, or the
// record alone (slot -1) for an Object/Global record whose backing
// object owns the property.
func Lookup(r *Record, name string) (defining *Record, slot int, found bool) {
	for cur := r; cur != nil; cur = cur.Outer {
		if cur.Kind == KindGlobal {
			if idx, ok := cur.LexicalDeclarative.Names[name]; ok {
				return cur.LexicalDeclarative, idx, true
			}
			if cur.Backing.HasProperty(object.StringKey(name)) {
				return cur, -1, true
			}
			continue
		}
		if cur.Kind == KindObject {
			if cur.Backing.HasProperty(object.StringKey(name)) {
				return cur, -1, true
			}
			continue
		}
		if idx, ok := cur.Names[name]; ok {
			return cur, idx, true
		}
	}
	return nil, 0, false
}

// ThisBinding walks outward from r to the nearest Function record
// carrying a this-binding (arrow functions have none of their own,
// AST invariant, so they transparently defer to their
// enclosing function's environment).
func ThisBinding(r *Record) (object.Value, bool) {
	for cur := r; cur != nil; cur = cur.Outer {
		if cur.Kind == KindFunction && cur.HasThis {
			return cur.This, true
		}
		if cur.Kind == KindGlobal {
			return object.Undefined, true
		}
	}
	return object.Undefined, false
}

// NewTargetBinding mirrors ThisBinding for `new.target`.
func NewTargetBinding(r *Record) object.Value {
	for cur := r; cur != nil; cur = cur.Outer {
		if cur.Kind == KindFunction {
			if cur.NewTarget != nil {
				return cur.NewTarget
			}
			return object.Undefined
		}
	}
	return object.Undefined
}

// HomeObjectBinding mirrors ThisBinding for the `super` property
// lookup's home object.
func HomeObjectBinding(r *Record) *object.Object {
	for cur := r; cur != nil; cur = cur.Outer {
		if cur.Kind == KindFunction && cur.HomeObject != nil {
			return cur.HomeObject
		}
	}
	return nil
}
