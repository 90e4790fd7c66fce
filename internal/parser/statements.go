package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/lexer"
)

// parseStatement dispatches on the current token to the matching
// statement production. Function/class/let/const declarations are
// syntactically statements but are restricted to certain positions by
// the caller (block/switch-case bodies allow them; single-statement
// positions like the body of `if` without braces do not in strict
// mode — an Annex-B legacy allowance this parser does not implement).
func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Type {
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.VAR, lexer.LET, lexer.CONST:
		return p.parseVariableStatement()
	case lexer.FUNCTION:
		return p.parseFunctionDeclaration()
	case lexer.ASYNC:
		if p.peek().Type == lexer.FUNCTION && !p.peek().PrecededByNewline {
			return p.parseFunctionDeclaration()
		}
		return p.parseExpressionStatement()
	case lexer.CLASS:
		return p.parseClassDeclaration()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.FOR:
		return p.parseForStatement("")
	case lexer.WHILE:
		return p.parseWhileStatement("")
	case lexer.DO:
		return p.parseDoWhileStatement("")
	case lexer.SWITCH:
		return p.parseSwitchStatement()
	case lexer.BREAK:
		return p.parseBreakStatement()
	case lexer.CONTINUE:
		return p.parseContinueStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.THROW:
		return p.parseThrowStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.WITH:
		return p.parseWithStatement()
	case lexer.DEBUGGER:
		return p.parseDebuggerStatement()
	case lexer.SEMI:
		start := p.cur().Pos
		p.advance()
		return &ast.EmptyStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	default:
		if (p.at(lexer.IDENT) || lexer.IsContextualKeyword(p.cur().Type)) && p.peek().Type == lexer.COLON {
			return p.parseLabeledStatement()
		}
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	start := p.cur().Pos
	p.expect(lexer.LBRACE)
	block := &ast.BlockStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	for !p.at(lexer.RBRACE) && !p.hasError() {
		block.Body = append(block.Body, p.parseStatement())
	}
	p.expect(lexer.RBRACE)
	block.Sp = p.span(start)
	if !p.hasError() {
		p.checkLexicalDeclarations(block.Body)
	}
	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	start := p.cur().Pos
	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Expr: expr}
}

func (p *Parser) parseIfStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.IF)
	p.expect(lexer.LPAREN)
	test := p.parseExpression()
	p.expect(lexer.RPAREN)
	cons := p.parseStatement()
	var alt ast.Statement
	if p.accept(lexer.ELSE) {
		alt = p.parseStatement()
	}
	return &ast.IfStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseWhileStatement(label string) ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	test := p.parseExpression()
	p.expect(lexer.RPAREN)
	body := p.parseLoopBody()
	return &ast.WhileStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Test: test, Body: body, Label: label}
}

func (p *Parser) parseDoWhileStatement(label string) ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.DO)
	body := p.parseLoopBody()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	test := p.parseExpression()
	p.expect(lexer.RPAREN)
	p.accept(lexer.SEMI) // ASI after do-while never requires a following token check
	return &ast.DoWhileStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Body: body, Test: test, Label: label}
}

func (p *Parser) parseLoopBody() ast.Statement {
	savedCtx := p.ctx
	p.ctx.InLoop = true
	body := p.parseStatement()
	p.ctx = savedCtx
	return body
}

// parseForStatement parses classic `for`, `for-in`, and `for-of`,
// disambiguated after parsing the init clause: an
// Identifier/pattern followed by `in`/`of` rebinds the loop kind.
func (p *Parser) parseForStatement(label string) ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.FOR)
	isAwait := p.accept(lexer.AWAIT)
	p.expect(lexer.LPAREN)

	if p.at(lexer.SEMI) {
		return p.finishClassicFor(start, nil, label)
	}

	if p.at(lexer.VAR) || p.at(lexer.LET) || p.at(lexer.CONST) {
		kind := declKindFor(p.cur().Type)
		declStart := p.cur().Pos
		p.advance()
		savedAllowIn := p.allowIn
		p.allowIn = false
		target := p.parseBindingTargetOnly()
		p.allowIn = savedAllowIn
		if p.at(lexer.IN) || p.at(lexer.OF) {
			isOf := p.at(lexer.OF)
			p.advance()
			decl := &ast.VariableDeclaration{BaseNode: ast.BaseNode{Sp: p.span(declStart)}, Kind: kind, Declarations: []*ast.VariableDeclarator{{BaseNode: ast.BaseNode{Sp: p.span(declStart)}, Id: target}}}
			return p.finishForInOf(start, decl, isOf, isAwait, label)
		}
		var init ast.Expression
		if p.accept(lexer.ASSIGN) {
			init = p.parseAssignmentExpression()
		}
		decl := &ast.VariableDeclaration{BaseNode: ast.BaseNode{Sp: p.span(declStart)}, Kind: kind, Declarations: []*ast.VariableDeclarator{{BaseNode: ast.BaseNode{Sp: p.span(declStart)}, Id: target, Init: init}}}
		for p.accept(lexer.COMMA) {
			decl.Declarations = append(decl.Declarations, p.parseVariableDeclarator(kind))
		}
		p.expect(lexer.SEMI)
		return p.finishClassicFor(start, decl, label)
	}

	savedAllowIn := p.allowIn
	p.allowIn = false
	initExpr := p.parseExpression()
	p.allowIn = savedAllowIn
	if p.at(lexer.IN) || p.at(lexer.OF) {
		isOf := p.at(lexer.OF)
		p.advance()
		left := p.exprToPattern(initExpr)
		return p.finishForInOf(start, left, isOf, isAwait, label)
	}
	p.expect(lexer.SEMI)
	return p.finishClassicFor(start, initExpr, label)
}

func (p *Parser) finishClassicFor(start lexer.Position, init ast.Node, label string) ast.Statement {
	var test, update ast.Expression
	if !p.at(lexer.SEMI) {
		test = p.parseExpression()
	}
	p.expect(lexer.SEMI)
	if !p.at(lexer.RPAREN) {
		update = p.parseExpression()
	}
	p.expect(lexer.RPAREN)
	body := p.parseLoopBody()
	return &ast.ForStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Init: init, Test: test, Update: update, Body: body, Label: label}
}

func (p *Parser) finishForInOf(start lexer.Position, left ast.Node, isOf, isAwait bool, label string) ast.Statement {
	var right ast.Expression
	if isOf {
		right = p.parseAssignmentExpression()
	} else {
		right = p.parseExpression()
	}
	p.expect(lexer.RPAREN)
	body := p.parseLoopBody()
	if isOf {
		return &ast.ForOfStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Left: left, Right: right, Body: body, Await: isAwait, Label: label}
	}
	return &ast.ForInStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Left: left, Right: right, Body: body, Label: label}
}

func declKindFor(tt lexer.TokenType) ast.DeclKind {
	switch tt {
	case lexer.LET:
		return ast.DeclLet
	case lexer.CONST:
		return ast.DeclConst
	default:
		return ast.DeclVar
	}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.BREAK)
	label := ""
	if (p.at(lexer.IDENT) || lexer.IsContextualKeyword(p.cur().Type)) && !p.cur().PrecededByNewline {
		label = p.cur().Literal
		p.advance()
	}
	p.consumeSemicolon()
	return &ast.BreakStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Label: label}
}

func (p *Parser) parseContinueStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.CONTINUE)
	label := ""
	if (p.at(lexer.IDENT) || lexer.IsContextualKeyword(p.cur().Type)) && !p.cur().PrecededByNewline {
		label = p.cur().Literal
		p.advance()
	}
	p.consumeSemicolon()
	return &ast.ContinueStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Label: label}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.RETURN)
	if !p.ctx.InFunction {
		p.errorf("'return' outside of function")
	}
	var arg ast.Expression
	if !p.restrictedProductionBoundary() {
		arg = p.parseExpression()
	}
	p.consumeSemicolon()
	return &ast.ReturnStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: arg}
}

func (p *Parser) parseThrowStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.THROW)
	if p.cur().PrecededByNewline {
		p.errorf("illegal newline after 'throw'")
	}
	arg := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ThrowStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: arg}
}

func (p *Parser) parseTryStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.TRY)
	block := p.parseBlockStatement()
	var handler *ast.CatchClause
	var finalizer *ast.BlockStatement
	if p.accept(lexer.CATCH) {
		catchStart := p.cur().Pos
		var param ast.Pattern
		if p.accept(lexer.LPAREN) {
			param = p.parseBindingTargetOnly()
			p.expect(lexer.RPAREN)
		}
		body := p.parseBlockStatement()
		handler = &ast.CatchClause{BaseNode: ast.BaseNode{Sp: p.span(catchStart)}, Param: param, Body: body}
	}
	if p.accept(lexer.FINALLY) {
		finalizer = p.parseBlockStatement()
	}
	if handler == nil && finalizer == nil {
		p.errorf("missing catch or finally after try")
	}
	return &ast.TryStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Block: block, Handler: handler, Finalizer: finalizer}
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.SWITCH)
	p.expect(lexer.LPAREN)
	disc := p.parseExpression()
	p.expect(lexer.RPAREN)
	p.expect(lexer.LBRACE)
	savedCtx := p.ctx
	p.ctx.InSwitch = true
	sw := &ast.SwitchStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Discriminant: disc}
	sawDefault := false
	for !p.at(lexer.RBRACE) && !p.hasError() {
		caseStart := p.cur().Pos
		var test ast.Expression
		if p.accept(lexer.CASE) {
			test = p.parseExpression()
		} else {
			p.expect(lexer.DEFAULT)
			if sawDefault {
				p.errorf("more than one default clause in switch statement")
			}
			sawDefault = true
		}
		p.expect(lexer.COLON)
		sc := &ast.SwitchCase{BaseNode: ast.BaseNode{Sp: p.span(caseStart)}, Test: test}
		for !p.at(lexer.CASE) && !p.at(lexer.DEFAULT) && !p.at(lexer.RBRACE) && !p.hasError() {
			sc.Consequent = append(sc.Consequent, p.parseStatement())
		}
		sw.Cases = append(sw.Cases, sc)
	}
	p.expect(lexer.RBRACE)
	p.ctx = savedCtx
	return sw
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	start := p.cur().Pos
	label := p.cur().Literal
	p.advance()
	p.expect(lexer.COLON)
	for _, l := range p.ctx.Labels {
		if l == label {
			p.errorf("label '%s' has already been declared", label)
		}
	}
	savedCtx := p.ctx
	p.ctx.Labels = append(append([]string(nil), p.ctx.Labels...), label)
	var body ast.Statement
	switch p.cur().Type {
	case lexer.FOR:
		body = p.parseForStatement(label)
	case lexer.WHILE:
		body = p.parseWhileStatement(label)
	case lexer.DO:
		body = p.parseDoWhileStatement(label)
	default:
		body = p.parseStatement()
	}
	p.ctx = savedCtx
	return &ast.LabeledStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Label: label, Body: body}
}

func (p *Parser) parseWithStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.WITH)
	if p.ctx.Strict {
		p.errorf("'with' statements are not allowed in strict mode")
	}
	p.expect(lexer.LPAREN)
	obj := p.parseExpression()
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.WithStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: obj, Body: body}
}

func (p *Parser) parseDebuggerStatement() ast.Statement {
	start := p.cur().Pos
	p.expect(lexer.DEBUGGER)
	p.consumeSemicolon()
	return &ast.DebuggerStatement{BaseNode: ast.BaseNode{Sp: p.span(start)}}
}
