package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/lexer"
	"github.com/jsvm/jsvm/internal/object"
)

// builder accumulates one CodeBlock's instruction stream and side
// tables as the compiler walks a function/program body. It is the
// mutable counterpart to the immutable CodeBlock it eventually
// produces.
type builder struct {
	code      []byte
	constants []object.Value
	names     []interner.Sym
	nameIndex map[interner.Sym]uint16
	functions []*CodeBlock
	bindings  []BindingLocator
	sourceMap []SourceMapEntry
	stackDepth int
	maxStack   int
}

func newBuilder() *builder {
	return &builder{nameIndex: make(map[interner.Sym]uint16)}
}

// label is an unresolved jump target: the byte offset of its 2-byte
// operand, patched once the real destination is known.
type label int

func (b *builder) here() int { return len(b.code) }

func (b *builder) emit(op OpCode) {
	b.code = append(b.code, byte(op))
	b.trackEffect(op)
}

func (b *builder) emitU16(op OpCode, operand uint16) {
	b.code = append(b.code, byte(op))
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], operand)
	b.code = append(b.code, buf[:]...)
	b.trackEffect(op)
}

func (b *builder) emitU32(op OpCode, operand uint32) {
	b.code = append(b.code, byte(op))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], operand)
	b.code = append(b.code, buf[:]...)
	b.trackEffect(op)
}

// emitJump reserves a 2-byte forward-jump operand and returns its
// label for later patching via patchJump.
func (b *builder) emitJump(op OpCode) label {
	b.code = append(b.code, byte(op))
	lbl := label(len(b.code))
	b.code = append(b.code, 0, 0)
	b.trackEffect(op)
	return lbl
}

// patchJump backfills a previously-reserved jump operand with the
// current instruction offset.
func (b *builder) patchJump(l label) {
	target := uint16(len(b.code))
	binary.BigEndian.PutUint16(b.code[l:l+2], target)
}

// patchJumpTo backfills a jump operand with an already-known offset.
func (b *builder) patchJumpTo(l label, target int) {
	binary.BigEndian.PutUint16(b.code[l:l+2], uint16(target))
}

func (b *builder) emitJumpTo(op OpCode, target int) {
	b.code = append(b.code, byte(op))
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(target))
	b.code = append(b.code, buf[:]...)
	b.trackEffect(op)
}

// trackEffect maintains a conservative running stack-depth estimate so
// RegisterCount captures the compiled function's evaluation-stack
// high-water mark.
func (b *builder) trackEffect(op OpCode) {
	delta := stackEffect(op)
	b.stackDepth += delta
	if b.stackDepth > b.maxStack {
		b.maxStack = b.stackDepth
	}
	if b.stackDepth < 0 {
		b.stackDepth = 0
	}
}

// stackEffect gives each opcode's net evaluation-stack delta for the
// common (non-call, non-variadic) case; Call/New and the other
// operand-sized opcodes fall to the default of 0, since this table
// does not see argc, so the tracked depth stays above the real one
// after them and maxStack is an upper-bound estimate.
func stackEffect(op OpCode) int {
	switch op {
	case Pop, JumpIfTrue, JumpIfFalse, Throw, SetLocal, PopEnvironment,
		ReThrow, FinallyStart:
		return -1
	case Dup:
		return 1
	case Dup2:
		return 2
	case Add, Sub, Mul, Div, Mod, Pow, BitAnd, BitOr, BitXor, Shl, Shr, UShr,
		Eq, NotEq, StrictEq, StrictNotEq, Lt, LtEq, Gt, GtEq, InstanceOf, In,
		SetPropertyByName, DefineOwnPropertyByName, DefineArrayElement,
		CopyDataProperties:
		return -1
	case SetPropertyByValue, DefineOwnPropertyByValue:
		return -2
	case PushUndefined, PushNull, PushTrue, PushFalse, PushZero, PushOne,
		PushInt8, PushInt16, PushInt32, PushDouble, PushLiteral, PushNewArray,
		PushEmptyObject, GetName, GetNameOrUndefined, GetLocal, GetArgument,
		GetPropertyByName, This, NewTarget, FunctionRef:
		return 1
	case GetPropertyByValue:
		return -1
	default:
		return 0
	}
}

func (b *builder) addConstant(v object.Value) uint32 {
	b.constants = append(b.constants, v)
	return uint32(len(b.constants) - 1)
}

func (b *builder) addName(s interner.Sym) uint16 {
	if idx, ok := b.nameIndex[s]; ok {
		return idx
	}
	idx := uint16(len(b.names))
	b.names = append(b.names, s)
	b.nameIndex[s] = idx
	return idx
}

func (b *builder) addFunction(cb *CodeBlock) uint16 {
	idx := uint16(len(b.functions))
	b.functions = append(b.functions, cb)
	return idx
}

func (b *builder) addBinding(loc BindingLocator) uint16 {
	idx := uint16(len(b.bindings))
	b.bindings = append(b.bindings, loc)
	return idx
}

func (b *builder) mark(span lexer.Span) {
	b.sourceMap = append(b.sourceMap, SourceMapEntry{PC: len(b.code), Span: span})
}

// emitNumber chooses the most compact literal opcode for a numeric
// constant, matching "short forms dominate code size"
// design note.
func (b *builder) emitNumber(n float64) {
	switch {
	case n == 0 && math.Signbit(n) == false:
		b.emit(PushZero)
	case n == 1:
		b.emit(PushOne)
	case n == math.Trunc(n) && n >= -128 && n <= 127:
		b.code = append(b.code, byte(PushInt8), byte(int8(n)))
		b.trackEffect(PushInt8)
	case n == math.Trunc(n) && n >= -32768 && n <= 32767:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(int16(n)))
		b.code = append(b.code, byte(PushInt16))
		b.code = append(b.code, buf[:]...)
		b.trackEffect(PushInt16)
	default:
		idx := b.addConstant(object.Number(n))
		b.emitU32(PushLiteral, idx)
	}
}
