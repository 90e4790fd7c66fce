// Package errors provides error formatting utilities for the jsvm engine.
// It formats lexer/parser/compiler errors with source context, line/column
// information, and visual indicators (carets) pointing to the error location.
package errors

import (
	"fmt"
	"strings"

	"github.com/jsvm/jsvm/internal/lexer"
)

// Stage identifies which stage of the lexer -> parser -> compiler
// pipeline reported a CompilerError. A single error type spans all
// three stages (unlike a one-pass compiler, jsvm's pipeline can fail
// before a single token is even parsed), so the stage travels with
// the error instead of being implied by which package constructed it.
type Stage uint8

const (
	StageLexer Stage = iota
	StageParser
	StageCompiler
)

func (s Stage) String() string {
	switch s {
	case StageLexer:
		return "lexer"
	case StageParser:
		return "parser"
	case StageCompiler:
		return "compiler"
	default:
		return "unknown"
	}
}

// JSErrorName is the ECMAScript error constructor a given stage's
// failures surface as to script and to the embedder: lexer, parser,
// and compiler failures are all early errors, and every early error is
// a SyntaxError regardless of which stage detected it (ECMA-262 draws
// no runtime distinction between "bad token" and "bad binding form").
func (s Stage) JSErrorName() string { return "SyntaxError" }

// CompilerError represents a single compilation error with position and context.
type CompilerError struct {
	Message string
	Source  string
	File    string
	Pos     lexer.Position
	Stage   Stage
}

// NewCompilerError creates a new compiler error attributed to stage.
func NewCompilerError(stage Stage, pos lexer.Position, message, source, file string) *CompilerError {
	return &CompilerError{
		Pos:     pos,
		Message: message,
		Source:  source,
		File:    file,
		Stage:   stage,
	}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// JSErrorName returns the ECMAScript error constructor an embedder
// should construct when surfacing this failure to script (e.g. via
// Engine.Parse/Compile rejecting with a thrown SyntaxError rather than
// a bare Go error).
func (e *CompilerError) JSErrorName() string { return e.Stage.JSErrorName() }

func (e *CompilerError) header() string {
	return fmt.Sprintf("%s (%s)", e.JSErrorName(), e.Stage)
}

// Format formats the error message with source context.
// If color is true, ANSI color codes are used for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	// File and position header
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", e.header(), e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at %d:%d\n", e.header(), e.Pos.Line, e.Pos.Column))
	}

	// Extract the relevant source line
	sourceLine := e.getSourceLine(e.Pos.Line)
	if sourceLine != "" {
		// Line number and source
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		// Caret indicator
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m") // Red bold
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m") // Reset
		}
		sb.WriteString("\n")
	}

	// Error message
	if color {
		sb.WriteString("\033[1m") // Bold
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m") // Reset
	}

	return sb.String()
}

// getSourceLine extracts a specific line from the source code.
// Lines are 1-indexed.
func (e *CompilerError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}

	return lines[lineNum-1]
}

// getSourceContext extracts multiple lines around the error for context.
// Returns lines from (lineNum - contextBefore) to (lineNum + contextAfter).
func (e *CompilerError) getSourceContext(lineNum, contextBefore, contextAfter int) []string {
	if e.Source == "" {
		return nil
	}

	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return nil
	}

	start := lineNum - contextBefore
	if start < 1 {
		start = 1
	}

	end := lineNum + contextAfter
	if end > len(lines) {
		end = len(lines)
	}

	return lines[start-1 : end]
}

// FormatWithContext formats the error with surrounding source context.
func (e *CompilerError) FormatWithContext(contextLines int, color bool) string {
	var sb strings.Builder

	// File and position header
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", e.header(), e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at %d:%d\n", e.header(), e.Pos.Line, e.Pos.Column))
	}

	// Get context lines
	contextLinesList := e.getSourceContext(e.Pos.Line, contextLines, contextLines)
	if len(contextLinesList) == 0 {
		// Fallback to single line
		return e.Format(color)
	}

	// Calculate starting line number
	startLine := e.Pos.Line - contextLines
	if startLine < 1 {
		startLine = 1
	}

	// Display context
	for i, line := range contextLinesList {
		currentLine := startLine + i
		lineNumStr := fmt.Sprintf("%4d | ", currentLine)

		// Highlight the error line
		if currentLine == e.Pos.Line {
			if color {
				sb.WriteString("\033[1m") // Bold
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m") // Reset
			}
			sb.WriteString("\n")

			// Caret indicator
			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
			if color {
				sb.WriteString("\033[1;31m") // Red bold
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m") // Reset
			}
			sb.WriteString("\n")
		} else {
			// Context lines (dimmed if color enabled)
			if color {
				sb.WriteString("\033[2m") // Dim
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m") // Reset
			}
			sb.WriteString("\n")
		}
	}

	// Error message
	sb.WriteString("\n")
	if color {
		sb.WriteString("\033[1m") // Bold
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m") // Reset
	}

	return sb.String()
}

// FormatErrors formats multiple compiler errors.
// Each error is formatted individually with source context.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}

	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s):\n\n", len(errs)))

	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// FormatErrorsWithContext formats multiple compiler errors with source context.
func FormatErrorsWithContext(errs []*CompilerError, contextLines int, color bool) string {
	if len(errs) == 0 {
		return ""
	}

	if len(errs) == 1 {
		return errs[0].FormatWithContext(contextLines, color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s):\n\n", len(errs)))

	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(err.FormatWithContext(contextLines, color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}
