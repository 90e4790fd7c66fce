package cmd

import (
	"fmt"
	"os"

	"github.com/jsvm/jsvm/internal/lexer"
	"github.com/spf13/cobra"
)

var (
	lexEval     string
	showPos     bool
	showType    bool
	onlyErrors  bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize an ECMAScript file or expression",
	Long: `Tokenize (lex) ECMAScript source and print the resulting tokens.

This command is useful for debugging the lexer and understanding how
source text is tokenized, including automatic semicolon insertion
hints (PrecededByNewline) and regex/division disambiguation.

Examples:
  # Tokenize a script file
  jsvm lex script.js

  # Tokenize an inline expression
  jsvm lex -e "const x = 42;"

  # Show token types and positions
  jsvm lex --show-type --show-pos script.js

  # Show only illegal tokens
  jsvm lex --only-errors script.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&lexEval, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&showPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&showType, "show-type", false, "show token type names")
	lexCmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "show only illegal tokens")
}

func lexScript(cmd *cobra.Command, args []string) error {
	var input string
	var filename string

	switch {
	case lexEval != "":
		input = lexEval
		filename = "<eval>"
	case len(args) == 1:
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		input = string(content)
	default:
		exitWithError("either provide a file path or use -e flag for inline code")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Printf("Tokenizing: %s\n", filename)
		fmt.Printf("Input length: %d bytes\n", len(input))
		fmt.Println("---")
	}

	l := lexer.New(input)

	tokenCount := 0
	errorCount := 0

	for {
		tok := l.NextToken()

		if onlyErrors && tok.Type != lexer.ILLEGAL {
			if tok.Type == lexer.EOF {
				break
			}
			continue
		}

		tokenCount++
		if tok.Type == lexer.ILLEGAL {
			errorCount++
		}

		printToken(tok)

		if tok.Type == lexer.EOF {
			break
		}
	}

	if verbose {
		fmt.Println("---")
		fmt.Printf("Total tokens: %d\n", tokenCount)
		if errorCount > 0 {
			fmt.Printf("Errors: %d\n", errorCount)
		}
	}

	if onlyErrors && errorCount > 0 {
		return fmt.Errorf("found %d illegal token(s)", errorCount)
	}

	return nil
}

func printToken(tok lexer.Token) {
	var output string

	if showType {
		output = fmt.Sprintf("[%-14s]", tok.Type)
	}

	switch {
	case tok.Type == lexer.EOF:
		output += " EOF"
	case tok.Type == lexer.ILLEGAL:
		output += fmt.Sprintf(" ILLEGAL: %q", tok.Literal)
	case tok.Literal == "":
		output += fmt.Sprintf(" %s", tok.Type)
	default:
		output += fmt.Sprintf(" %q", tok.Literal)
	}

	if tok.PrecededByNewline {
		output += " [nl]"
	}

	if showPos {
		output += fmt.Sprintf(" @%d:%d", tok.Pos.Line, tok.Pos.Column)
	}

	fmt.Println(output)
}
