package builtins

import (
	"strconv"
	"strings"

	"github.com/jsvm/jsvm/internal/object"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// bootstrapJSON builds the JSON namespace object: parse (via gjson,
// walking its parsed tree into this engine's Value representation)
// and stringify (a bottom-up writer that assembles each node's raw
// JSON text and splices it into its parent document with sjson.SetRaw,
// reformatted through tidwall/pretty when an indent argument is
// given). Grounded on the teacher's own JSON builtin
// (internal/semantic/analyze_builtin_json.go names the same parse/
// stringify pair as DWScript's StrToJSON/JSONToStr); unlike the
// teacher's encoding/json-based implementation (DWScript's value model
// maps onto Go structs/maps directly), this engine's Value tree needs
// its own walker on both sides, which is where the pack's own JSON
// library trio (gjson for reading, sjson for assembling the write side
// without a second hand-rolled encoder, tidwall/pretty for indentation)
// earns its place.
func bootstrapJSON(realm *object.Realm) *object.Object {
	j := object.New(realm.ObjectPrototype)

	defineMethod(realm, j, "parse", 2, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		text, err := toStringValue(vm, arg(args, 0))
		if err != nil {
			return nil, err
		}
		if !gjson.Valid(text) {
			return nil, vm.Throw(vm.NewTypeError("JSON.parse: invalid JSON"))
		}
		return fromGJSON(realm, gjson.Parse(text)), nil
	})

	defineMethod(realm, j, "stringify", 3, func(vm object.VMContext, this object.Value, args []object.Value) (object.Value, error) {
		v := arg(args, 0)
		raw, ok, err := writeJSON(vm, v, map[*object.Object]bool{})
		if err != nil {
			return nil, err
		}
		if !ok {
			return object.Undefined, nil
		}
		out := []byte(raw)
		if indent := indentFromArg(vm, arg(args, 2)); indent != "" {
			out = pretty.PrettyOptions(out, &pretty.Options{Indent: indent, SortKeys: false})
			out = []byte(strings.TrimRight(string(out), "\n"))
		}
		return object.StringValue(string(out)), nil
	})

	return j
}

func indentFromArg(vm object.VMContext, v object.Value) string {
	switch t := v.(type) {
	case object.Number:
		n := int(t)
		if n < 0 {
			n = 0
		}
		if n > 10 {
			n = 10
		}
		return strings.Repeat(" ", n)
	case object.StringValue:
		s := string(t)
		if len(s) > 10 {
			s = s[:10]
		}
		return s
	}
	return ""
}

func fromGJSON(realm *object.Realm, r gjson.Result) object.Value {
	switch r.Type {
	case gjson.Null:
		return object.Null
	case gjson.False:
		return object.Boolean(false)
	case gjson.True:
		return object.Boolean(true)
	case gjson.Number:
		return object.Number(r.Num)
	case gjson.String:
		return object.StringValue(r.Str)
	}
	if r.IsArray() {
		var elems []object.Value
		r.ForEach(func(_, v gjson.Result) bool {
			elems = append(elems, fromGJSON(realm, v))
			return true
		})
		return newArray(realm, elems)
	}
	if r.IsObject() {
		o := object.New(realm.ObjectPrototype)
		r.ForEach(func(k, v gjson.Result) bool {
			define(o, k.String(), object.DataProperty(fromGJSON(realm, v), true, true, true))
			return true
		})
		return o
	}
	return object.Null
}

// sjsonRawOpts is shared by every SetRaw call below: Optimistic skips
// sjson's own re-validation of the raw fragment we supply (we already
// know it is well-formed JSON, since we just built it), and
// ReplaceInPlace lets sjson grow the same backing array across the
// whole object/array instead of reallocating per key.
var sjsonRawOpts = &sjson.Options{Optimistic: true, ReplaceInPlace: true}

// writeJSON implements the SerializeJSONProperty algorithm far enough
// to cover plain data: toJSON() methods, undefined/function values
// dropped (returning ok=false at the top level, omitted as object
// properties/array holes-to-null otherwise), and cycle detection via
// the seen set (raises the same TypeError JSON.stringify raises on a
// circular structure). Composite values are assembled bottom-up: each
// child's raw JSON text is computed first, then spliced into the
// parent's "{}"/"[]" document with sjson.SetRaw rather than built by
// hand with a strings.Builder.
func writeJSON(vm object.VMContext, v object.Value, seen map[*object.Object]bool) (string, bool, error) {
	if obj, ok := v.(*object.Object); ok {
		if toJSON, err := getProperty(vm, obj, object.StringKey("toJSON")); err == nil {
			if fn, isFn := toJSON.(*object.Object); isFn && fn.IsCallable() {
				res, err := vm.Call(fn, obj, nil)
				if err != nil {
					return "", false, err
				}
				v = res
			}
		}
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case object.Boolean:
		return strconv.FormatBool(bool(t)), true, nil
	case object.Number:
		if t.IsNaN() || float64(t) > 1.7976931348623157e+308 || float64(t) < -1.7976931348623157e+308 {
			return "null", true, nil
		}
		return object.NumberToString(float64(t)), true, nil
	case object.StringValue:
		return quoteJSONString(string(t)), true, nil
	}
	if v == object.Undefined {
		return "", false, nil
	}
	if v == object.Null {
		return "null", true, nil
	}
	obj, ok := v.(*object.Object)
	if !ok {
		return "", false, nil
	}
	if obj.IsCallable() {
		return "", false, nil
	}
	if seen[obj] {
		return "", false, vm.Throw(vm.NewTypeError("Converting circular structure to JSON"))
	}
	seen[obj] = true
	defer delete(seen, obj)

	if obj.Class == object.ClassArray {
		doc := "[]"
		for _, e := range arrayElements(obj) {
			raw, ok, err := writeJSON(vm, e, seen)
			if err != nil {
				return "", false, err
			}
			if !ok {
				raw = "null"
			}
			doc, err = sjson.SetRawOptions(doc, "-1", raw, sjsonRawOpts)
			if err != nil {
				return "", false, err
			}
		}
		return doc, true, nil
	}

	doc := "{}"
	for _, key := range obj.OwnPropertyKeys() {
		name, isStr := key.(string)
		if !isStr {
			continue
		}
		desc, ok := obj.GetOwnProperty(key)
		if !ok || !desc.Enumerable {
			continue
		}
		pv, err := getProperty(vm, obj, object.StringKey(name))
		if err != nil {
			return "", false, err
		}
		raw, wrote, err := writeJSON(vm, pv, seen)
		if err != nil {
			return "", false, err
		}
		if !wrote {
			continue
		}
		doc, err = sjson.SetRawOptions(doc, escapeSJSONPath(name), raw, sjsonRawOpts)
		if err != nil {
			return "", false, err
		}
	}
	return doc, true, nil
}

// escapeSJSONPath escapes a property name for use as a single sjson
// path segment: backslash-escape every character sjson's GJSON-style
// path syntax would otherwise treat as a path operator, so an object
// key containing "." or "*" lands as one literal field rather than
// being parsed as a nested path.
func escapeSJSONPath(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func quoteJSONString(s string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u`)
				hex := strconv.FormatInt(int64(r), 16)
				for len(hex) < 4 {
					hex = "0" + hex
				}
				buf.WriteString(hex)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
