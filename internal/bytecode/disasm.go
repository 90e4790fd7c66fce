package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jsvm/jsvm/internal/interner"
)

// Disassemble renders cb's instruction stream as human-readable text,
// one instruction per line with its pc, mnemonic, and decoded
// operands — used by the `jsvm disasm` CLI command and by tests that
// snapshot compiler output.
//
// Grounded on the dws interpreter's internal/bytecode/disasm.go
// (pc-prefixed, one-instruction-per-line layout); operand decoding is
// generalized to this package's wider, variable-width opcode set.
func Disassemble(cb *CodeBlock, in *interner.Interner) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", cb.Name)
	pc := 0
	for pc < len(cb.Code) {
		op := OpCode(cb.Code[pc])
		width := op.Width()
		fmt.Fprintf(&sb, "%04d %-28s", pc, op.String())
		if width > 0 && pc+1+width <= len(cb.Code) {
			operand := decodeOperand(cb.Code[pc+1:pc+1+width], width)
			fmt.Fprintf(&sb, " %s", annotateOperand(cb, op, operand, in))
		}
		sb.WriteByte('\n')
		pc += 1 + width
	}
	for i, fn := range cb.Functions {
		fmt.Fprintf(&sb, "\n-- function[%d] --\n%s", i, Disassemble(fn, in))
	}
	return sb.String()
}

func decodeOperand(b []byte, width int) int64 {
	switch width {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b)))
	default:
		return 0
	}
}

func annotateOperand(cb *CodeBlock, op OpCode, operand int64, in *interner.Interner) string {
	switch op {
	case PushLiteral:
		if int(operand) < len(cb.Constants) {
			return fmt.Sprintf("#%d", operand)
		}
	case GetName, GetNameOrUndefined, SetName, DeleteName, GetPropertyByName,
		SetPropertyByName, DefineOwnPropertyByName, DeletePropertyByName:
		if int(operand) < len(cb.Names) && in != nil {
			return fmt.Sprintf("%d (%s)", operand, in.String(cb.Names[operand]))
		}
	case GetLocal, SetLocal:
		if int(operand) < len(cb.Bindings) {
			loc := cb.Bindings[operand]
			name := ""
			if in != nil {
				name = in.String(loc.Name)
			}
			return fmt.Sprintf("%d (depth=%d slot=%d %s)", operand, loc.EnvDepth, loc.Slot, name)
		}
	case FunctionRef:
		if int(operand) < len(cb.Functions) {
			return fmt.Sprintf("%d (%s)", operand, cb.Functions[operand].Name)
		}
	}
	return fmt.Sprintf("%d", operand)
}
