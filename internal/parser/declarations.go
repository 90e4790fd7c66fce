package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/lexer"
)

func (p *Parser) parseVariableStatement() ast.Statement {
	start := p.cur().Pos
	kind := declKindFor(p.cur().Type)
	p.advance()
	decl := &ast.VariableDeclaration{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: kind}
	decl.Declarations = append(decl.Declarations, p.parseVariableDeclarator(kind))
	for p.accept(lexer.COMMA) {
		decl.Declarations = append(decl.Declarations, p.parseVariableDeclarator(kind))
	}
	p.consumeSemicolon()
	decl.Sp = p.span(start)
	return decl
}

func (p *Parser) parseVariableDeclarator(kind ast.DeclKind) *ast.VariableDeclarator {
	start := p.cur().Pos
	id := p.parseBindingTargetOnly()
	var init ast.Expression
	if p.accept(lexer.ASSIGN) {
		init = p.parseAssignmentExpression()
	} else if kind == ast.DeclConst {
		p.errorf("missing initializer in const declaration")
	} else if _, isDestructure := id.(*ast.Identifier); !isDestructure {
		p.errorf("missing initializer in destructuring declaration")
	}
	return &ast.VariableDeclarator{BaseNode: ast.BaseNode{Sp: p.span(start)}, Id: id, Init: init}
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	start := p.cur().Pos
	async := p.accept(lexer.ASYNC)
	p.expect(lexer.FUNCTION)
	generator := p.accept(lexer.STAR)
	name := p.parseBindingIdentifier()
	kind := ast.FuncNormal
	switch {
	case async && generator:
		kind = ast.FuncAsyncGenerator
	case async:
		kind = ast.FuncAsync
	case generator:
		kind = ast.FuncGenerator
	}
	fn := p.parseFunctionTail(name, kind, async, generator)
	return &ast.FunctionDeclaration{
		BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: name, Params: fn.Params,
		Body: fn.Body, Kind: kind, Strict: fn.Strict,
	}
}
