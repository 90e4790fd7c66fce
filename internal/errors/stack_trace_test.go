package errors

import (
	"strings"
	"testing"

	"github.com/jsvm/jsvm/internal/lexer"
)

func TestStackFrame_String(t *testing.T) {
	tests := []struct {
		name     string
		frame    StackFrame
		expected string
	}{
		{
			name: "frame with position",
			frame: StackFrame{
				FunctionName: "processInput",
				FileName:     "main.js",
				Position:     &lexer.Position{Line: 10, Column: 5},
			},
			expected: "processInput [line: 10, column: 5]",
		},
		{
			name: "frame without position",
			frame: StackFrame{
				FunctionName: "processInput",
				FileName:     "main.js",
				Position:     nil,
			},
			expected: "processInput",
		},
		{
			name: "anonymous frame",
			frame: StackFrame{
				FunctionName: "<anonymous>",
				FileName:     "main.js",
				Position:     &lexer.Position{Line: 42, Column: 15},
			},
			expected: "<anonymous> [line: 42, column: 15]",
		},
		{
			name: "generator frame",
			frame: StackFrame{
				FunctionName: "values",
				FileName:     "main.js",
				Position:     &lexer.Position{Line: 7, Column: 1},
				Kind:         FrameGenerator,
			},
			expected: "values [generator] [line: 7, column: 1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.frame.String()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestStackTrace_String(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		trace    StackTrace
	}{
		{
			name:     "empty stack trace",
			trace:    StackTrace{},
			expected: "",
		},
		{
			name: "single frame",
			trace: StackTrace{
				{FunctionName: "main", Position: &lexer.Position{Line: 1, Column: 1}},
			},
			expected: "main [line: 1, column: 1]",
		},
		{
			name: "multiple frames print top first",
			trace: StackTrace{
				{FunctionName: "main", Position: &lexer.Position{Line: 20, Column: 1}},
				{FunctionName: "compute", Position: &lexer.Position{Line: 15, Column: 5}},
				{FunctionName: "validate", Position: &lexer.Position{Line: 10, Column: 3}},
			},
			expected: "validate [line: 10, column: 3]\ncompute [line: 15, column: 5]\nmain [line: 20, column: 1]",
		},
		{
			name: "frames with and without position",
			trace: StackTrace{
				{FunctionName: "main", Position: &lexer.Position{Line: 20, Column: 1}},
				{FunctionName: "nativeCall", Position: nil},
			},
			expected: "nativeCall\nmain [line: 20, column: 1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.trace.String()
			if result != tt.expected {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.expected, result)
			}
		})
	}
}

func TestStackTrace_Reverse(t *testing.T) {
	original := StackTrace{
		{FunctionName: "first", Position: &lexer.Position{Line: 1, Column: 1}},
		{FunctionName: "second", Position: &lexer.Position{Line: 2, Column: 1}},
		{FunctionName: "third", Position: &lexer.Position{Line: 3, Column: 1}},
	}

	reversed := original.Reverse()

	if reversed[0].FunctionName != "third" || reversed[1].FunctionName != "second" || reversed[2].FunctionName != "first" {
		t.Fatalf("reverse order wrong: %+v", reversed)
	}
	if original[0].FunctionName != "first" {
		t.Errorf("original stack trace was modified")
	}
}

func TestStackTrace_TopAndBottom(t *testing.T) {
	empty := StackTrace{}
	if empty.Top() != nil || empty.Bottom() != nil {
		t.Errorf("expected nil top/bottom for empty trace")
	}

	trace := StackTrace{
		{FunctionName: "main", Position: &lexer.Position{Line: 20, Column: 1}},
		{FunctionName: "compute", Position: &lexer.Position{Line: 15, Column: 5}},
		{FunctionName: "validate", Position: &lexer.Position{Line: 10, Column: 3}},
	}
	if top := trace.Top(); top == nil || top.FunctionName != "validate" {
		t.Errorf("expected top 'validate', got %v", top)
	}
	if bottom := trace.Bottom(); bottom == nil || bottom.FunctionName != "main" {
		t.Errorf("expected bottom 'main', got %v", bottom)
	}
}

func TestStackTrace_Depth(t *testing.T) {
	tests := []struct {
		name     string
		trace    StackTrace
		expected int
	}{
		{name: "empty stack", trace: StackTrace{}, expected: 0},
		{name: "single frame", trace: StackTrace{{FunctionName: "main"}}, expected: 1},
		{
			name: "multiple frames",
			trace: StackTrace{
				{FunctionName: "main"},
				{FunctionName: "compute"},
				{FunctionName: "validate"},
			},
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if depth := tt.trace.Depth(); depth != tt.expected {
				t.Errorf("expected depth %d, got %d", tt.expected, depth)
			}
		})
	}
}

func TestNewStackFrame(t *testing.T) {
	pos := &lexer.Position{Line: 42, Column: 13}
	frame := NewStackFrame("validate", "main.js", pos)

	if frame.FunctionName != "validate" || frame.FileName != "main.js" || frame.Position != pos {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if frame.Kind != FrameScript {
		t.Errorf("expected FrameScript, got %v", frame.Kind)
	}
}

func TestNewGeneratorStackFrame(t *testing.T) {
	pos := &lexer.Position{Line: 3, Column: 1}
	frame := NewGeneratorStackFrame("values", "main.js", pos)

	if frame.Kind != FrameGenerator {
		t.Errorf("expected FrameGenerator, got %v", frame.Kind)
	}
	if !strings.Contains(frame.String(), "[generator]") {
		t.Errorf("expected generator marker in %q", frame.String())
	}
}

func TestNewStackTrace(t *testing.T) {
	trace := NewStackTrace()
	if trace == nil {
		t.Error("NewStackTrace returned nil")
	}
	if len(trace) != 0 {
		t.Errorf("expected empty stack trace, got length %d", len(trace))
	}
}

// TestStackTrace_GeneratorBody models a for-of loop resuming a
// generator: the generator body frame should still report correctly
// ordered alongside the script frame that drove it.
func TestStackTrace_GeneratorBody(t *testing.T) {
	trace := StackTrace{
		{FunctionName: "main", FileName: "main.js", Position: &lexer.Position{Line: 5, Column: 1}},
		NewGeneratorStackFrame("values", "main.js", &lexer.Position{Line: 2, Column: 3}),
	}

	result := trace.String()
	lines := strings.Split(result, "\n")
	if lines[0] != "values [generator] [line: 2, column: 3]" {
		t.Errorf("top frame line wrong: %q", lines[0])
	}
	if lines[1] != "main [line: 5, column: 1]" {
		t.Errorf("bottom frame line wrong: %q", lines[1])
	}
}
