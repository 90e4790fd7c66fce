package object

import (
	"math"
	"sort"
	"strconv"
)

// NewArray allocates an Array exotic object backed by a
// dense element vector, honoring the `length` own-property invariant:
// length is always present, non-configurable, and setting it to a
// smaller value deletes trailing elements.
func NewArray(proto *Object, elements []Value) *Object {
	o := New(proto)
	o.Class = ClassArray
	o.Array = &ArrayData{Elements: elements}
	return o
}

func arrayIndexKey(i int) PropertyKey { return strconv.Itoa(i) }

// indexOf reports whether key is a canonical array index string
// ("0", "1", ... without leading zeros, max uint32-1) and its value.
func indexOf(key PropertyKey) (int, bool) {
	s, ok := key.(string)
	if !ok || s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || int64(n) > math.MaxUint32-1 {
		return 0, false
	}
	return n, true
}

func sortIndexKeys(keys []PropertyKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, _ := indexOf(keys[i])
		b, _ := indexOf(keys[j])
		return a < b
	})
}

// arrayOwnProperty resolves index and "length" own-properties of an
// Array exotic object against its dense backing store, overriding the
// ordinary property-map lookup GetOwnProperty otherwise performs.
func (o *Object) arrayOwnProperty(key PropertyKey) (*PropertyDescriptor, bool) {
	if key == PropertyKey("length") {
		return DataProperty(Number(float64(len(o.Array.Elements))), true, false, false), true
	}
	if idx, ok := indexOf(key); ok {
		if idx < len(o.Array.Elements) {
			v := o.Array.Elements[idx]
			if v == nil {
				return nil, false // a hole
			}
			return DataProperty(v, true, true, true), true
		}
	}
	return nil, false
}

// SetArrayIndex implements the exotic ArraySetLength/index-define
// behavior: writing past the end grows the backing slice (filling
// holes with nil), and writing "length" truncates it.
func (o *Object) SetArrayIndex(idx int, v Value) {
	for idx >= len(o.Array.Elements) {
		o.Array.Elements = append(o.Array.Elements, nil)
	}
	o.Array.Elements[idx] = v
}

// SetArrayLength truncates or extends (with holes) the backing store.
func (o *Object) SetArrayLength(n int) {
	if n < len(o.Array.Elements) {
		o.Array.Elements = o.Array.Elements[:n]
		return
	}
	for len(o.Array.Elements) < n {
		o.Array.Elements = append(o.Array.Elements, nil)
	}
}

// defineArrayOwnProperty intercepts [[DefineOwnProperty]] for an Array
// exotic object's index and "length" keys so writes land in the dense
// backing store instead of the generic property map, preserving the
// length invariant. ok is false for any other key,
// telling the caller to fall through to the ordinary algorithm.
func (o *Object) defineArrayOwnProperty(key PropertyKey, desc *PropertyDescriptor) (handled, ok bool) {
	if key == PropertyKey("length") {
		if !desc.HasValue {
			return true, true
		}
		n, isNum := desc.Value.(Number)
		if !isNum || float64(int(n)) != float64(n) || n < 0 {
			return false, true
		}
		o.SetArrayLength(int(n))
		return true, true
	}
	if idx, isIdx := indexOf(key); isIdx {
		if !desc.HasValue {
			return false, true // accessor array elements are not supported
		}
		o.SetArrayIndex(idx, desc.Value)
		return true, true
	}
	return false, false
}
