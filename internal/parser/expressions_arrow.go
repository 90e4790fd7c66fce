package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/lexer"
)

// tryParseArrowFunction speculatively parses an arrow function head
// (`ident =>` or `(params) =>`) from the current position. On failure
// it rewinds to the mark and returns nil so the caller falls through to
// ordinary expression parsing. This is the one place the parser
// backtracks instead of resolving the ambiguity by a fixed lookahead
// depth, mirroring the dws interpreter's own speculative-parse helper
// for DWScript's anonymous-method-vs-call ambiguity.
func (p *Parser) tryParseArrowFunction() ast.Expression {
	async := false
	start := p.cur().Pos
	mark := p.mark()

	if p.at(lexer.ASYNC) && !p.peek().PrecededByNewline && (p.peek().Type == lexer.LPAREN || p.peek().Type == lexer.IDENT || lexer.IsContextualKeyword(p.peek().Type)) {
		async = true
		p.advance()
	}

	switch {
	case p.at(lexer.IDENT) || lexer.IsContextualKeyword(p.cur().Type):
		if p.peek().Type != lexer.ARROW || p.peek().PrecededByNewline {
			p.resetTo(mark)
			return nil
		}
		name := p.cur().Literal
		p.advance()
		param := &ast.Param{BaseNode: ast.BaseNode{Sp: p.span(start)}, Binding: &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: name}}
		return p.finishArrowFunction(start, []*ast.Param{param}, async)
	case p.at(lexer.LPAREN):
		if !p.looksLikeArrowParams() {
			p.resetTo(mark)
			return nil
		}
		params := p.parseParams()
		if !p.at(lexer.ARROW) || p.cur().PrecededByNewline {
			p.resetTo(mark)
			return nil
		}
		return p.finishArrowFunction(start, params, async)
	default:
		p.resetTo(mark)
		return nil
	}
}

// looksLikeArrowParams does a cheap bracket-matching scan from the
// current '(' to find its matching ')' and checks whether '=>' follows,
// without building any AST. It avoids a full speculative parse (and the
// error side effects that would cause) for the overwhelmingly common
// non-arrow case of a parenthesized expression.
func (p *Parser) looksLikeArrowParams() bool {
	depth := 0
	i := 0
	for {
		tok := p.peekN(i)
		switch tok.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				next := p.peekN(i + 1)
				return next.Type == lexer.ARROW && !next.PrecededByNewline
			}
		case lexer.EOF:
			return false
		}
		i++
		if i > 4096 {
			return false
		}
	}
}

func (p *Parser) finishArrowFunction(start lexer.Position, params []*ast.Param, async bool) ast.Expression {
	p.expect(lexer.ARROW)
	savedCtx := p.ctx
	p.ctx = p.ctx.child(func(c *ParseContext) {
		c.InFunction = true
		c.InAsync = async
		c.InGenerator = false
		c.InLoop = false
		c.InSwitch = false
		c.Labels = nil
	})
	var body ast.Node
	concise := !p.at(lexer.LBRACE)
	if concise {
		body = p.parseAssignmentExpression()
	} else {
		body = p.parseFunctionBody()
	}
	p.ctx = savedCtx
	return &ast.ArrowFunctionExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Params: params, Body: body, Async: async, ConciseBody: concise}
}
