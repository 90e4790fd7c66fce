package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "jsvm",
	Short: "A from-scratch ECMAScript lexer, parser, bytecode compiler, and VM",
	Long: `jsvm is a Go implementation of an ECMAScript execution engine:
a hand-written lexer and recursive-descent parser feeding a bytecode
compiler and register-style stack VM.

It implements a useful, honestly-scoped subset of the language:
lexical scoping (var/let/const, TDZ), closures, classes with private
fields, generators, async/await over a job queue, destructuring,
template literals, and a small standard library (Object, Array,
String, Number, Math, JSON, Promise). It does not implement a module
loader, RegExp, or a garbage-collector distinct from Go's own.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
