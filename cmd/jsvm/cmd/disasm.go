package cmd

import (
	"fmt"

	"github.com/jsvm/jsvm/internal/bytecode"
	"github.com/jsvm/jsvm/pkg/engine"
	"github.com/spf13/cobra"
)

var disasmExpression bool

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile ECMAScript source and print its disassembled bytecode",
	Long: `Compile source to bytecode and print a human-readable listing:
one instruction per line with its program counter, mnemonic, and
decoded operands, recursing into every nested function's CodeBlock.

Unlike "jsvm compile --disassemble" in some other engines, disasm is
its own subcommand here: it never writes a bytecode file, it only
prints the listing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().BoolVarP(&disasmExpression, "expression", "e", false, "disassemble an expression from the command line")
}

func runDisasm(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(disasmExpression, args)
	if err != nil {
		return err
	}

	e := engine.New()
	script, err := e.Parse(input, filename)
	if err != nil {
		return err
	}
	code, err := script.Compile()
	if err != nil {
		return err
	}

	fmt.Print(bytecode.Disassemble(code, e.Interner()))
	return nil
}

// bytecodeSerialize wraps bytecode.Serialize for the compile command,
// kept here so disasm and compile share this file's bytecode import.
func bytecodeSerialize(cb *bytecode.CodeBlock) []byte {
	return bytecode.Serialize(cb)
}
