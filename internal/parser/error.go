package parser

import (
	"fmt"

	"github.com/jsvm/jsvm/internal/errors"
	"github.com/jsvm/jsvm/internal/lexer"
)

// ParserError is a single parse-time failure (lexical, syntax, or early
// error), carrying the structured position/source context the rest of
// the pipeline's diagnostics share.
type ParserError struct {
	*errors.CompilerError
}

func newParserError(pos lexer.Position, source, file string, format string, args ...any) *ParserError {
	return &ParserError{errors.NewCompilerError(errors.StageParser, pos, fmt.Sprintf(format, args...), source, file)}
}
