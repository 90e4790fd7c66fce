package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsvm/jsvm/pkg/engine"
	"github.com/maruel/natural"
	"github.com/spf13/cobra"
)

var (
	compileOutput  string
	compileVerbose bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file...]",
	Short: "Compile one or more ECMAScript files to bytecode",
	Long: `Compile ECMAScript programs to bytecode and save each as a .jbc file.

The compiled bytecode can be disassembled with "jsvm disasm" or loaded
back by an embedder without re-parsing the source.

Given more than one file, -o is ignored (each input gets its own
<input>.jbc) and the files are compiled in natural sort order, so a
build directory containing file2.js and file10.js compiles file2.js
before file10.js rather than in lexical (file10.js first) order.

Examples:
  jsvm compile script.js
  jsvm compile script.js -o out.jbc
  jsvm compile src/*.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: compileScripts,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default: <input>.jbc); ignored for multiple inputs")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "verbose output")
}

func compileScripts(_ *cobra.Command, args []string) error {
	filenames := append([]string(nil), args...)
	natural.Sort(filenames)

	for _, filename := range filenames {
		out := compileOutput
		if len(filenames) > 1 {
			out = ""
		}
		if err := compileScript(filename, out); err != nil {
			return err
		}
	}
	return nil
}

func compileScript(filename, outFlag string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	input := string(content)

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	e := engine.New()
	script, err := e.Parse(input, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("parsing failed")
	}

	code, err := script.Compile()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("compilation failed")
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "  Instructions: %d bytes\n", len(code.Code))
		fmt.Fprintf(os.Stderr, "  Constants: %d\n", len(code.Constants))
		fmt.Fprintf(os.Stderr, "  Registers: %d\n", code.RegisterCount)
		fmt.Fprintf(os.Stderr, "  Inner functions: %d\n", len(code.Functions))
	}

	data := bytecodeSerialize(code)

	outFile := outFlag
	if outFile == "" {
		ext := filepath.Ext(filename)
		if ext != "" {
			outFile = strings.TrimSuffix(filename, ext) + ".jbc"
		} else {
			outFile = filename + ".jbc"
		}
	}

	if err := os.WriteFile(outFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", outFile, err)
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Bytecode written to %s (%d bytes)\n", outFile, len(data))
	} else {
		fmt.Printf("Compiled %s -> %s\n", filename, outFile)
	}

	return nil
}
