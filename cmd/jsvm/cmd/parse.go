package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jsvm/jsvm/pkg/engine"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

var (
	parseExpression bool
	parseDumpAST    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse ECMAScript source and report success or the SyntaxError",
	Long: `Parse ECMAScript source code and report whether it parses.

If no file is provided, reads from stdin. Use -e to parse a single
expression from the command line. Use --dump-ast to pretty-print the
parsed AST.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVarP(&parseExpression, "expression", "e", false, "parse an expression from the command line")
	parseCmd.Flags().BoolVar(&parseDumpAST, "dump-ast", false, "pretty-print the parsed AST")
}

func runParse(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(parseExpression, args)
	if err != nil {
		return err
	}

	e := engine.New()
	script, err := e.Parse(input, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("parsing %s failed", filename)
	}

	if parseDumpAST {
		pretty.Println(script.Program())
		return nil
	}

	fmt.Printf("%s: OK (%d top-level statement(s))\n", filename, len(script.Program().Body))
	return nil
}

// readSource resolves the input/filename pair shared by parse, disasm,
// and run: an inline -e expression, a named file, or (absent both)
// stdin.
func readSource(inlineFlag bool, args []string) (input, filename string, err error) {
	switch {
	case inlineFlag:
		if len(args) == 0 {
			return "", "", fmt.Errorf("no expression provided")
		}
		return args[0], "<eval>", nil
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("error reading file: %w", err)
		}
		return string(data), args[0], nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("error reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}
}
