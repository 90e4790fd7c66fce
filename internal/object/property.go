package object

// PropertyDescriptor is either a Data or an Accessor descriptor.
// The Has* bits distinguish "attribute absent" from
// "attribute present with its default value" as ECMAScript's
// ValidateAndApplyPropertyDescriptor algorithm requires: a partial
// descriptor passed to defineProperty only touches the attributes it
// explicitly sets.
type PropertyDescriptor struct {
	Value Value // Data descriptor payload
	Get   Value // Accessor descriptor getter (Callable *Object or Undefined)
	Set   Value // Accessor descriptor setter

	Writable     bool
	Enumerable   bool
	Configurable bool

	HasValue        bool
	HasGet          bool
	HasSet          bool
	HasWritable     bool
	HasEnumerable   bool
	HasConfigurable bool
}

// IsAccessor reports whether d describes an accessor property (has a
// getter or setter) rather than a data property.
func (d *PropertyDescriptor) IsAccessor() bool { return d.HasGet || d.HasSet }

// IsDataDescriptor reports whether d is usable as a data descriptor.
func (d *PropertyDescriptor) IsDataDescriptor() bool { return d.HasValue || d.HasWritable }

// IsGenericDescriptor reports whether d specifies neither a value nor
// accessor component (only attribute flags).
func (d *PropertyDescriptor) IsGenericDescriptor() bool {
	return !d.IsDataDescriptor() && !d.IsAccessor()
}

// DataProperty is a convenience constructor for a fully-populated data
// property descriptor, the common case for literal properties and
// builtin installation.
func DataProperty(v Value, writable, enumerable, configurable bool) *PropertyDescriptor {
	return &PropertyDescriptor{
		Value: v, Writable: writable, Enumerable: enumerable, Configurable: configurable,
		HasValue: true, HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	}
}

// AccessorProperty is a convenience constructor for a fully-populated
// accessor property descriptor.
func AccessorProperty(get, set Value, enumerable, configurable bool) *PropertyDescriptor {
	return &PropertyDescriptor{
		Get: get, Set: set, Enumerable: enumerable, Configurable: configurable,
		HasGet: get != nil, HasSet: set != nil, HasEnumerable: true, HasConfigurable: true,
	}
}

// PropertyKey is either a string or a *SymbolValue; Go's comparable
// interface value lets it serve directly as a map key (symbol identity
// is pointer identity, matching ECMAScript's `[[Key]]` uniqueness
// rule).
type PropertyKey interface{}

// StringKey and SymbolKey are constructors documenting intent at call
// sites; both just produce the underlying comparable value.
func StringKey(s string) PropertyKey    { return s }
func SymbolKey(s *SymbolValue) PropertyKey { return s }

// KeyString renders a PropertyKey for diagnostics and for the
// "numeric-looking key" ordering rule own-property enumeration needs
// (integer-index keys enumerate first, in ascending numeric order,
// ahead of string keys in insertion order, ahead of symbol keys).
func KeyString(k PropertyKey) string {
	switch v := k.(type) {
	case string:
		return v
	case *SymbolValue:
		return "Symbol(" + v.Description + ")"
	default:
		return ""
	}
}
