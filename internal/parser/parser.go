// Package parser implements a recursive-descent, Pratt-style parser for
// ECMAScript: token stream in, AST out, with the contextual grammars
// (arrow-vs-parenthesized, class bodies, destructuring) and early-error
// checks requires. The parser is non-recovering: the first
// error wins and ParseProgram returns it.
package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/interner"
	"github.com/jsvm/jsvm/internal/lexer"
)

// Precedence levels, low to high, mirroring table.
const (
	_ int = iota
	precComma
	precAssign     // = += -= ... (right-assoc)
	precConditional // ?: (right-assoc)
	precNullish    // ??
	precLogicalOr  // ||
	precLogicalAnd // &&
	precBitOr
	precBitXor
	precBitAnd
	precEquality   // == != === !==
	precRelational // < <= > >= in instanceof
	precShift      // << >> >>>
	precAdditive   // + -
	precMultiplicative // * / %
	precExponent   // ** (right-assoc)
	precUnary      // prefix ops
	precUpdatePostfix
	precCall // member/call/new
)

var binaryPrecedence = map[lexer.TokenType]int{
	lexer.QUESTION_QUESTION: precNullish,
	lexer.LOGICAL_OR:        precLogicalOr,
	lexer.LOGICAL_AND:       precLogicalAnd,
	lexer.PIPE:              precBitOr,
	lexer.CARET:             precBitXor,
	lexer.AMP:               precBitAnd,
	lexer.EQ:                precEquality,
	lexer.NOT_EQ:            precEquality,
	lexer.STRICT_EQ:         precEquality,
	lexer.STRICT_NOT_EQ:     precEquality,
	lexer.LESS:              precRelational,
	lexer.GREATER:           precRelational,
	lexer.LESS_EQ:           precRelational,
	lexer.GREATER_EQ:        precRelational,
	lexer.IN:                precRelational,
	lexer.INSTANCEOF:        precRelational,
	lexer.SHL:               precShift,
	lexer.SHR:               precShift,
	lexer.USHR:              precShift,
	lexer.PLUS:              precAdditive,
	lexer.MINUS:             precAdditive,
	lexer.STAR:              precMultiplicative,
	lexer.SLASH:             precMultiplicative,
	lexer.PERCENT:           precMultiplicative,
	lexer.POW:               precExponent,
}

var assignmentOps = map[lexer.TokenType]string{
	lexer.ASSIGN: "=", lexer.PLUS_ASSIGN: "+=", lexer.MINUS_ASSIGN: "-=",
	lexer.STAR_ASSIGN: "*=", lexer.SLASH_ASSIGN: "/=", lexer.PERCENT_ASSIGN: "%=",
	lexer.POW_ASSIGN: "**=", lexer.SHL_ASSIGN: "<<=", lexer.SHR_ASSIGN: ">>=",
	lexer.USHR_ASSIGN: ">>>=", lexer.AND_ASSIGN: "&=", lexer.OR_ASSIGN: "|=",
	lexer.XOR_ASSIGN: "^=", lexer.LOGICAL_AND_ASSIGN: "&&=",
	lexer.LOGICAL_OR_ASSIGN: "||=", lexer.NULLISH_ASSIGN: "??=",
}

// Parser turns a token stream into an AST.
type Parser struct {
	ts      *tokenStream
	interner *interner.Interner
	source  string
	file    string
	errors  []*ParserError
	pos     int
	ctx     ParseContext
	allowIn bool
}

// New creates a Parser over source text.
func New(source string, in *interner.Interner, file string) *Parser {
	if in == nil {
		in = interner.New()
	}
	return &Parser{
		ts:       newTokenStream(lexer.New(source)),
		interner: in,
		source:   source,
		file:     file,
		ctx:      ParseContext{PrivateNamesInScope: map[string]bool{}},
		allowIn:  true,
	}
}

// Errors returns the recorded errors. errorf keeps only the first, so
// the slice holds at most one.
func (p *Parser) Errors() []*ParserError { return p.errors }

func (p *Parser) cur() lexer.Token  { return p.ts.at(p.pos) }
func (p *Parser) peek() lexer.Token { return p.ts.at(p.pos + 1) }
func (p *Parser) peekN(n int) lexer.Token { return p.ts.at(p.pos + n) }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	p.pos++
	return t
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) accept(tt lexer.TokenType) bool {
	if p.at(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if !p.at(tt) {
		p.errorf("expected %s but found %s %q", tt, p.cur().Type, p.cur().Literal)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...any) {
	if len(p.errors) > 0 {
		return // non-recovering: first error wins
	}
	p.errors = append(p.errors, newParserError(p.cur().Pos, p.source, p.file, format, args...))
}

func (p *Parser) hasError() bool { return len(p.errors) > 0 }

func (p *Parser) span(start lexer.Position) lexer.Span {
	return lexer.Span{Start: start, End: p.cur().Pos}
}

// spanFrom builds a Span directly from two already-known positions, for
// productions that close over a node parsed by a sub-call rather than
// the parser's own current cursor position.
func spanFrom(start, end lexer.Position) lexer.Span {
	return lexer.Span{Start: start, End: end}
}

// ParseProgram parses the entire token stream as a Script.
func (p *Parser) ParseProgram() (*ast.Program, []*ParserError) {
	start := p.cur().Pos
	prog := &ast.Program{BaseNode: ast.BaseNode{}}

	directives, strict := p.parseDirectivePrologue()
	prog.Directives = directives
	prog.Strict = strict
	p.ctx.Strict = strict

	for !p.at(lexer.EOF) && !p.hasError() {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}
	prog.Sp = p.span(start)
	return prog, p.errors
}

// parseDirectivePrologue consumes leading bare string-literal expression
// statements, recognizing "use strict".
// Statements already consumed are prepended to the returned program body
// by the caller via normal parseStatement flow; here we only peek ahead
// without consuming, re-parsing each directive as an ordinary statement
// afterward so it still appears in Program.Body.
func (p *Parser) parseDirectivePrologue() ([]string, bool) {
	var directives []string
	strict := false
	save := p.mark()
	for p.at(lexer.STRING) {
		raw := p.cur().Literal
		hasEscape := p.cur().OctalEscape
		tok := p.cur()
		p.advance()
		// A directive must be immediately followed by ASI (';', newline, '}' or EOF).
		terminated := p.at(lexer.SEMI) || p.cur().PrecededByNewline || p.at(lexer.RBRACE) || p.at(lexer.EOF)
		if !terminated {
			break
		}
		p.accept(lexer.SEMI)
		if value, ok := lexer.DirectivePrologueValue(quoteLiteral(raw), hasEscape); ok {
			directives = append(directives, value)
			if lexer.IsUseStrict(value) {
				strict = true
			}
		} else {
			_ = tok
		}
	}
	p.resetTo(save)
	return directives, strict
}

// quoteLiteral reconstructs a quoted spelling for DirectivePrologueValue,
// which expects the raw (quoted) source text rather than the cooked
// value the lexer already stored in Literal.
func quoteLiteral(cooked string) string {
	return "\"" + cooked + "\""
}
