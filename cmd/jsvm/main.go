// Command jsvm is the engine's own command-line front end: lex, parse,
// compile, disassemble, and run ECMAScript source through the
// pkg/engine façade, grounded on the teacher's cmd/dwscript entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/jsvm/jsvm/cmd/jsvm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
