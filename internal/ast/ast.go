// Package ast defines the immutable, owned-subtree Abstract Syntax Tree
// produced by the parser and consumed by the bytecode compiler. Nodes
// are never mutated after construction; the tree (and the tokens that
// produced it) may be dropped once compilation finishes.
package ast

import "github.com/jsvm/jsvm/internal/lexer"

// Node is implemented by every AST node.
type Node interface {
	Span() lexer.Span
}

// Expression is any AST node that evaluates to a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any AST node executed for effect.
type Statement interface {
	Node
	statementNode()
}

// BaseNode carries the source span common to every node.
type BaseNode struct {
	Sp lexer.Span
}

// Span implements Node.
func (b BaseNode) Span() lexer.Span { return b.Sp }

// Program is the root of a parsed script or module.
type Program struct {
	BaseNode
	Body       []Statement
	IsModule   bool
	Strict     bool // true if a "use strict" directive prologue was found
	Directives []string
}

func (p *Program) statementNode() {}

// Identifier is a bare name reference.
type Identifier struct {
	BaseNode
	Name string
}

func (*Identifier) expressionNode() {}

// PrivateIdentifier is a `#name` reference, valid only inside a class
// body that declares that name.
type PrivateIdentifier struct {
	BaseNode
	Name string
}

func (*PrivateIdentifier) expressionNode() {}
