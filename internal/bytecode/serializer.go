package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/object"
)

// jsvm bytecode file format ("JBC" files), mirroring the dws
// interpreter's "DWC" format: a small fixed header (magic + version)
// followed by length-prefixed sections, so cross-CodeBlock references
// stay indices rather than pointers.
const (
	MagicNumber  = "JBC\x00"
	VersionMajor = 1
	VersionMinor = 0
)

// constantKind tags how a literal-pool entry is encoded.
type constantKind uint8

const (
	constNumber constantKind = iota
	constString
	constBigInt
)

// Serialize encodes cb (recursively, including its inner-function
// table) into the wire format.
func Serialize(cb *CodeBlock) []byte {
	var buf bytes.Buffer
	buf.WriteString(MagicNumber)
	buf.WriteByte(VersionMajor)
	buf.WriteByte(VersionMinor)
	writeCodeBlock(&buf, cb)
	return buf.Bytes()
}

func writeCodeBlock(buf *bytes.Buffer, cb *CodeBlock) {
	writeString(buf, cb.Name)
	writeU16(buf, uint16(cb.Flags))
	buf.WriteByte(byte(cb.ThisMode))
	writeU32(buf, uint32(cb.ParamCount))
	writeU32(buf, uint32(cb.RegisterCount))

	writeU32(buf, uint32(len(cb.Code)))
	buf.Write(cb.Code)

	writeU32(buf, uint32(len(cb.Constants)))
	for _, v := range cb.Constants {
		writeConstant(buf, v)
	}

	writeU32(buf, uint32(len(cb.Names)))
	for _, s := range cb.Names {
		writeU32(buf, uint32(s))
	}

	writeU32(buf, uint32(len(cb.Bindings)))
	for _, loc := range cb.Bindings {
		buf.WriteByte(byte(loc.Kind))
		writeU16(buf, loc.EnvDepth)
		writeU16(buf, loc.Slot)
		writeU32(buf, uint32(loc.Name))
		writeBool(buf, loc.Mutable)
		writeBool(buf, loc.InitializedAtEntry)
	}

	writeU32(buf, uint32(len(cb.Functions)))
	for _, fn := range cb.Functions {
		writeCodeBlock(buf, fn)
	}
}

func writeConstant(buf *bytes.Buffer, v object.Value) {
	switch c := v.(type) {
	case object.Number:
		buf.WriteByte(byte(constNumber))
		var b8 [8]byte
		binary.BigEndian.PutUint64(b8[:], math.Float64bits(float64(c)))
		buf.Write(b8[:])
	case object.StringValue:
		buf.WriteByte(byte(constString))
		writeString(buf, string(c))
	case object.BigIntValue:
		buf.WriteByte(byte(constBigInt))
		writeString(buf, c.V.String())
	default:
		buf.WriteByte(byte(constNumber))
		var b8 [8]byte
		buf.Write(b8[:])
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// Deserialize decodes a wire-format blob back into a CodeBlock tree.
// in is not consulted: the wire format stores Sym values as raw uint32s
// and they are read back unchanged, so the blob is only meaningful
// against the same Interner that produced it.
func Deserialize(data []byte, in *interner.Interner) (*CodeBlock, error) {
	if len(data) < 6 || string(data[:4]) != MagicNumber {
		return nil, fmt.Errorf("bytecode: bad magic number")
	}
	major := data[4]
	if major != VersionMajor {
		return nil, fmt.Errorf("bytecode: unsupported version %d", major)
	}
	r := &reader{buf: data[6:]}
	return readCodeBlock(r)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) byte() byte {
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) bool() bool { return r.byte() != 0 }

func (r *reader) bytes(n int) []byte {
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) string() string {
	n := int(r.u32())
	return string(r.bytes(n))
}

func readCodeBlock(r *reader) (*CodeBlock, error) {
	cb := &CodeBlock{}
	cb.Name = r.string()
	cb.Flags = Flags(r.u16())
	cb.ThisMode = ThisMode(r.byte())
	cb.ParamCount = int(r.u32())
	cb.RegisterCount = int(r.u32())

	codeLen := int(r.u32())
	cb.Code = append([]byte(nil), r.bytes(codeLen)...)

	constCount := int(r.u32())
	cb.Constants = make([]object.Value, constCount)
	for i := range cb.Constants {
		switch constantKind(r.byte()) {
		case constNumber:
			bits := binary.BigEndian.Uint64(r.bytes(8))
			cb.Constants[i] = object.Number(math.Float64frombits(bits))
		case constString:
			cb.Constants[i] = object.StringValue(r.string())
		case constBigInt:
			digits := r.string()
			v, _ := new(big.Int).SetString(digits, 10)
			cb.Constants[i] = object.BigIntValue{V: v}
		}
	}

	nameCount := int(r.u32())
	cb.Names = make([]interner.Sym, nameCount)
	for i := range cb.Names {
		cb.Names[i] = interner.Sym(r.u32())
	}

	bindCount := int(r.u32())
	cb.Bindings = make([]BindingLocator, bindCount)
	for i := range cb.Bindings {
		cb.Bindings[i] = BindingLocator{
			Kind:     BindingKind(r.byte()),
			EnvDepth: r.u16(),
			Slot:     r.u16(),
			Name:     interner.Sym(r.u32()),
		}
		cb.Bindings[i].Mutable = r.bool()
		cb.Bindings[i].InitializedAtEntry = r.bool()
	}

	fnCount := int(r.u32())
	cb.Functions = make([]*CodeBlock, fnCount)
	for i := range cb.Functions {
		fn, err := readCodeBlock(r)
		if err != nil {
			return nil, err
		}
		cb.Functions[i] = fn
	}

	return cb, nil
}
