package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/lexer"
)

// parseExpression parses the comma operator: a, b, c.
func (p *Parser) parseExpression() ast.Expression {
	start := p.cur().Pos
	first := p.parseAssignmentExpression()
	if !p.at(lexer.COMMA) {
		return first
	}
	exprs := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		exprs = append(exprs, p.parseAssignmentExpression())
	}
	return &ast.SequenceExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Expressions: exprs}
}

// parseAssignmentExpression is the precedence-climbing entry point: a
// single parseExpressionWithPrecedence(min) drives operator-precedence
// folding. Assignment is handled specially because its left side must
// be reinterpreted as a pattern when the operator is a plain `=` and
// the left looks like a destructuring target.
func (p *Parser) parseAssignmentExpression() ast.Expression {
	if p.at(lexer.YIELD) && p.ctx.InGenerator {
		return p.parseYieldExpression()
	}
	if arrow := p.tryParseArrowFunction(); arrow != nil {
		return arrow
	}
	start := p.cur().Pos
	left := p.parseExpressionWithPrecedence(precConditional)
	if op, ok := assignmentOps[p.cur().Type]; ok {
		p.advance()
		value := p.parseAssignmentExpression()
		var target ast.Node = left
		if op == "=" {
			switch left.(type) {
			case *ast.ArrayLiteral, *ast.ObjectLiteral:
				target = p.exprToPattern(left)
			}
		}
		return &ast.AssignmentExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Op: op, Target: target, Value: value}
	}
	return left
}

func (p *Parser) parseYieldExpression() ast.Expression {
	start := p.cur().Pos
	p.advance() // 'yield'
	delegate := p.accept(lexer.STAR)
	var arg ast.Expression
	if !p.restrictedProductionBoundary() && !p.at(lexer.RPAREN) && !p.at(lexer.RBRACKET) && !p.at(lexer.COLON) {
		arg = p.parseAssignmentExpression()
	}
	return &ast.YieldExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: arg, Delegate: delegate}
}

// parseExpressionWithPrecedence implements the Pratt loop: parse a unary
// (prefix) expression, then fold in binary/logical/conditional operators
// whose precedence is >= minPrec. Right-associative operators (`**`,
// `?:`) recurse at the same precedence instead of minPrec+1.
func (p *Parser) parseExpressionWithPrecedence(minPrec int) ast.Expression {
	left := p.parseUnaryExpression()
	for {
		tt := p.cur().Type
		if tt == lexer.QUESTION && precConditional >= minPrec {
			left = p.parseConditional(left)
			continue
		}
		prec, ok := binaryPrecedence[tt]
		if !ok || prec < minPrec {
			break
		}
		if tt == lexer.IN && !p.allowIn {
			break
		}
		p.advance()
		nextMin := prec + 1
		if tt == lexer.POW { // right-associative
			nextMin = prec
		}
		right := p.parseExpressionWithPrecedence(nextMin)
		switch tt {
		case lexer.LOGICAL_AND, lexer.LOGICAL_OR, lexer.QUESTION_QUESTION:
			left = &ast.LogicalExpression{BaseNode: ast.BaseNode{Sp: spanFrom(left.Span().Start, right.Span().End)}, Op: tt.String(), Left: left, Right: right}
		default:
			left = &ast.BinaryExpression{BaseNode: ast.BaseNode{Sp: spanFrom(left.Span().Start, right.Span().End)}, Op: tt.String(), Left: left, Right: right}
		}
	}
	return left
}

func (p *Parser) parseConditional(test ast.Expression) ast.Expression {
	p.expect(lexer.QUESTION)
	savedAllowIn := p.allowIn
	p.allowIn = true
	cons := p.parseAssignmentExpression()
	p.allowIn = savedAllowIn
	p.expect(lexer.COLON)
	alt := p.parseAssignmentExpression()
	return &ast.ConditionalExpression{BaseNode: ast.BaseNode{Sp: spanFrom(test.Span().Start, alt.Span().End)}, Test: test, Consequent: cons, Alternate: alt}
}

var unaryOps = map[lexer.TokenType]ast.UnaryOp{
	lexer.TYPEOF: ast.UnaryTypeof, lexer.VOID: ast.UnaryVoid, lexer.DELETE: ast.UnaryDelete,
	lexer.PLUS: ast.UnaryPlus, lexer.MINUS: ast.UnaryMinus, lexer.TILDE: ast.UnaryBitNot,
	lexer.BANG: ast.UnaryNot,
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	start := p.cur().Pos
	if op, ok := unaryOps[p.cur().Type]; ok {
		p.advance()
		arg := p.parseUnaryExpression()
		if op == ast.UnaryDelete {
			if ident, ok := arg.(*ast.Identifier); ok && p.ctx.Strict {
				_ = ident
				p.errorf("delete of an unqualified identifier is not allowed in strict mode")
			}
		}
		return &ast.UnaryExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Op: op, Argument: arg}
	}
	if p.at(lexer.INCR) || p.at(lexer.DECR) {
		op := p.cur().Type
		p.advance()
		arg := p.parseUnaryExpression()
		sym := "++"
		if op == lexer.DECR {
			sym = "--"
		}
		return &ast.UpdateExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Op: sym, Prefix: true, Argument: arg}
	}
	if p.at(lexer.AWAIT) && p.ctx.InAsync {
		p.advance()
		arg := p.parseUnaryExpression()
		return &ast.AwaitExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: arg}
	}
	return p.parseExponentOrPostfix()
}

// parseExponentOrPostfix handles `**` (which binds tighter than unary
// but whose left operand may not itself be an un-parenthesized unary
// expression, per the grammar) and postfix ++/--.
func (p *Parser) parseExponentOrPostfix() ast.Expression {
	start := p.cur().Pos
	base := p.parsePostfixExpression()
	if p.at(lexer.POW) {
		p.advance()
		right := p.parseUnaryExpression()
		return &ast.BinaryExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Op: "**", Left: base, Right: right}
	}
	return base
}

func (p *Parser) parsePostfixExpression() ast.Expression {
	start := p.cur().Pos
	expr := p.parseLeftHandSideExpression()
	if (p.at(lexer.INCR) || p.at(lexer.DECR)) && !p.cur().PrecededByNewline {
		op := "++"
		if p.at(lexer.DECR) {
			op = "--"
		}
		p.advance()
		return &ast.UpdateExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Op: op, Prefix: false, Argument: expr}
	}
	return expr
}

// parseLeftHandSideExpression parses new-expressions, calls, and member
// accesses, which share a common suffix grammar.
func (p *Parser) parseLeftHandSideExpression() ast.Expression {
	start := p.cur().Pos
	var expr ast.Expression
	if p.at(lexer.NEW) {
		expr = p.parseNewExpression()
	} else {
		expr = p.parsePrimaryExpression()
	}
	return p.parseCallMemberTail(expr, start)
}

func (p *Parser) parseNewExpression() ast.Expression {
	start := p.cur().Pos
	p.expect(lexer.NEW)
	if p.at(lexer.DOT) { // new.target
		p.advance()
		p.expect(lexer.IDENT) // "target"
		return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: "new.target"}
	}
	var callee ast.Expression
	if p.at(lexer.NEW) {
		callee = p.parseNewExpression()
	} else {
		callee = p.parsePrimaryExpression()
	}
	callee = p.parseMemberTailNoCall(callee, start)
	var args []ast.Expression
	if p.at(lexer.LPAREN) {
		args = p.parseArguments()
	}
	return &ast.NewExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Callee: callee, Args: args}
}

// parseMemberTailNoCall consumes `.x`/`[x]` suffixes but stops before a
// call, since `new a.b(args)` binds the call to the whole `new`
// expression rather than to `b`.
func (p *Parser) parseMemberTailNoCall(expr ast.Expression, start lexer.Position) ast.Expression {
	for {
		switch {
		case p.accept(lexer.DOT):
			name := p.parsePropertyName()
			expr = &ast.MemberExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: expr, Property: name, Computed: false}
		case p.accept(lexer.LBRACKET):
			prop := p.parseExpression()
			p.expect(lexer.RBRACKET)
			expr = &ast.MemberExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: expr, Property: prop, Computed: true}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallMemberTail(expr ast.Expression, start lexer.Position) ast.Expression {
	for {
		switch {
		case p.accept(lexer.DOT):
			name := p.parsePropertyName()
			expr = &ast.MemberExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: expr, Property: name, Computed: false}
		case p.accept(lexer.QUESTION_DOT):
			if p.at(lexer.LPAREN) {
				args := p.parseArguments()
				expr = &ast.CallExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Callee: expr, Args: args, Optional: true}
			} else if p.accept(lexer.LBRACKET) {
				prop := p.parseExpression()
				p.expect(lexer.RBRACKET)
				expr = &ast.MemberExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: expr, Property: prop, Computed: true, Optional: true}
			} else {
				name := p.parsePropertyName()
				expr = &ast.MemberExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: expr, Property: name, Computed: false, Optional: true}
			}
		case p.at(lexer.LBRACKET):
			p.advance()
			prop := p.parseExpression()
			p.expect(lexer.RBRACKET)
			expr = &ast.MemberExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Object: expr, Property: prop, Computed: true}
		case p.at(lexer.LPAREN):
			args := p.parseArguments()
			if _, ok := expr.(*ast.SuperExpression); ok {
				expr = &ast.SuperCallExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Args: args}
			} else {
				expr = &ast.CallExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Callee: expr, Args: args}
			}
		case p.at(lexer.TEMPLATE_NOSUBSTITUTION), p.at(lexer.TEMPLATE_HEAD):
			quasi := p.parseTemplateLiteral()
			expr = &ast.TaggedTemplateExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Tag: expr, Quasi: quasi}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePropertyName() ast.Expression {
	start := p.cur().Pos
	if p.at(lexer.PRIVATE) {
		name := p.cur().Literal
		p.advance()
		return &ast.PrivateIdentifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: name}
	}
	tok := p.cur()
	if tok.Type != lexer.IDENT && !tok.IsKeyword() {
		p.errorf("expected property name but found %s %q", tok.Type, tok.Literal)
	}
	p.advance()
	return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: tok.Literal}
}

func (p *Parser) parseArguments() []ast.Expression {
	p.expect(lexer.LPAREN)
	var args []ast.Expression
	savedAllowIn := p.allowIn
	p.allowIn = true
	for !p.at(lexer.RPAREN) && !p.hasError() {
		if p.at(lexer.ELLIPSIS) {
			start := p.cur().Pos
			p.advance()
			arg := p.parseAssignmentExpression()
			args = append(args, &ast.SpreadElement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: arg})
		} else {
			args = append(args, p.parseAssignmentExpression())
		}
		if !p.at(lexer.RPAREN) {
			p.expect(lexer.COMMA)
		}
	}
	p.allowIn = savedAllowIn
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseLiteral() ast.Expression {
	start := p.cur().Pos
	tok := p.cur()
	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitNumber, NumberValue: tok.NumValue}
	case lexer.BIGINT:
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitBigInt, BigIntDigits: tok.Literal}
	case lexer.STRING:
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitString, StringValue: tok.Literal}
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitBool, BoolValue: tok.Type == lexer.TRUE}
	case lexer.NULL_KW:
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitNull}
	case lexer.REGEX:
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitRegex, RegexBody: tok.Literal, RegexFlags: tok.TemplateCooked}
	default:
		p.errorf("expected literal but found %s %q", tok.Type, tok.Literal)
		p.advance()
		return &ast.Literal{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.LitNull}
	}
}

func (p *Parser) parseTemplateLiteral() *ast.TemplateLiteral {
	start := p.cur().Pos
	tl := &ast.TemplateLiteral{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	if p.at(lexer.TEMPLATE_NOSUBSTITUTION) {
		tl.Quasis = append(tl.Quasis, p.cur().TemplateCooked)
		p.advance()
		tl.Sp = p.span(start)
		return tl
	}
	tl.Quasis = append(tl.Quasis, p.cur().TemplateCooked)
	p.expect(lexer.TEMPLATE_HEAD)
	for {
		tl.Expressions = append(tl.Expressions, p.parseExpression())
		if p.at(lexer.TEMPLATE_MIDDLE) {
			tl.Quasis = append(tl.Quasis, p.cur().TemplateCooked)
			p.advance()
			continue
		}
		tl.Quasis = append(tl.Quasis, p.cur().TemplateCooked)
		p.expect(lexer.TEMPLATE_TAIL)
		break
	}
	tl.Sp = p.span(start)
	return tl
}

func (p *Parser) parsePrimaryExpression() ast.Expression {
	start := p.cur().Pos
	tok := p.cur()
	switch tok.Type {
	case lexer.THIS:
		p.advance()
		return &ast.ThisExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	case lexer.SUPER:
		p.advance()
		return &ast.SuperExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	case lexer.NUMBER, lexer.BIGINT, lexer.STRING, lexer.TRUE, lexer.FALSE, lexer.NULL_KW, lexer.REGEX:
		return p.parseLiteral()
	case lexer.TEMPLATE_NOSUBSTITUTION, lexer.TEMPLATE_HEAD:
		return p.parseTemplateLiteral()
	case lexer.LPAREN:
		p.advance()
		savedAllowIn := p.allowIn
		p.allowIn = true
		expr := p.parseExpression()
		p.allowIn = savedAllowIn
		p.expect(lexer.RPAREN)
		return expr
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseObjectLiteral()
	case lexer.FUNCTION:
		return p.parseFunctionExpression()
	case lexer.CLASS:
		return p.parseClassExpression()
	case lexer.ASYNC:
		if p.peek().Type == lexer.FUNCTION && !p.peek().PrecededByNewline {
			return p.parseFunctionExpression()
		}
		p.advance()
		return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: "async"}
	case lexer.IDENT:
		p.advance()
		return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: tok.Literal}
	default:
		if lexer.IsContextualKeyword(tok.Type) {
			p.advance()
			return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: tok.Literal}
		}
		p.errorf("unexpected token %s %q", tok.Type, tok.Literal)
		p.advance()
		return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: tok.Literal}
	}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	start := p.cur().Pos
	p.expect(lexer.LBRACKET)
	arr := &ast.ArrayLiteral{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	for !p.at(lexer.RBRACKET) && !p.hasError() {
		if p.accept(lexer.COMMA) {
			arr.Elements = append(arr.Elements, nil)
			continue
		}
		if p.at(lexer.ELLIPSIS) {
			spStart := p.cur().Pos
			p.advance()
			arg := p.parseAssignmentExpression()
			arr.Elements = append(arr.Elements, &ast.SpreadElement{BaseNode: ast.BaseNode{Sp: p.span(spStart)}, Argument: arg})
		} else {
			arr.Elements = append(arr.Elements, p.parseAssignmentExpression())
		}
		if !p.at(lexer.RBRACKET) {
			p.expect(lexer.COMMA)
		}
	}
	p.expect(lexer.RBRACKET)
	arr.Sp = p.span(start)
	return arr
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	start := p.cur().Pos
	p.expect(lexer.LBRACE)
	obj := &ast.ObjectLiteral{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	for !p.at(lexer.RBRACE) && !p.hasError() {
		obj.Properties = append(obj.Properties, p.parseObjectProperty())
		if !p.at(lexer.RBRACE) {
			p.expect(lexer.COMMA)
		}
	}
	p.expect(lexer.RBRACE)
	obj.Sp = p.span(start)
	return obj
}

func (p *Parser) parseObjectProperty() *ast.Property {
	start := p.cur().Pos
	if p.at(lexer.ELLIPSIS) {
		p.advance()
		arg := p.parseAssignmentExpression()
		return &ast.Property{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.PropSpread, Key: arg}
	}
	isGetter := p.at(lexer.GET) && !p.nextTerminatesPropertyName()
	isSetter := p.at(lexer.SET) && !p.nextTerminatesPropertyName()
	isAsync := p.at(lexer.ASYNC) && !p.peek().PrecededByNewline && p.peek().Type != lexer.COLON && p.peek().Type != lexer.LPAREN && p.peek().Type != lexer.COMMA && p.peek().Type != lexer.RBRACE
	if isGetter || isSetter {
		p.advance()
	}
	isGenerator := false
	if !isGetter && !isSetter {
		if isAsync {
			p.advance()
		}
		isGenerator = p.accept(lexer.STAR)
	}
	computed := false
	var key ast.Expression
	if p.accept(lexer.LBRACKET) {
		computed = true
		key = p.parseAssignmentExpression()
		p.expect(lexer.RBRACKET)
	} else if p.at(lexer.STRING) || p.at(lexer.NUMBER) {
		key = p.parseLiteral()
	} else {
		key = p.parsePropertyName()
	}

	switch {
	case p.at(lexer.LPAREN): // method shorthand
		kind := ast.FuncMethod
		if isGetter {
			kind = ast.FuncGetter
		} else if isSetter {
			kind = ast.FuncSetter
		} else if isAsync && isGenerator {
			kind = ast.FuncAsyncGenerator
		} else if isAsync {
			kind = ast.FuncAsync
		} else if isGenerator {
			kind = ast.FuncGenerator
		}
		fn := p.parseFunctionTail(nil, kind, isAsync, isGenerator)
		pk := ast.PropMethod
		if isGetter {
			pk = ast.PropGet
		} else if isSetter {
			pk = ast.PropSet
		}
		return &ast.Property{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: pk, Key: key, Computed: computed, Value: fn}
	case p.accept(lexer.COLON):
		value := p.parseAssignmentExpression()
		return &ast.Property{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.PropInit, Key: key, Computed: computed, Value: value}
	default:
		ident, ok := key.(*ast.Identifier)
		if !ok {
			p.errorf("invalid shorthand object property")
			return &ast.Property{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.PropInit, Key: key, Computed: computed}
		}
		var value ast.Expression = ident
		if p.accept(lexer.ASSIGN) { // CoverInitializedName; only legal when later reinterpreted as a pattern
			def := p.parseAssignmentExpression()
			value = &ast.AssignmentExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Op: "=", Target: ident, Value: def}
		}
		return &ast.Property{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.PropInit, Key: key, Computed: computed, Value: value, Shorthand: true}
	}
}

// nextTerminatesPropertyName reports whether the token after a
// contextual `get`/`set` keyword means it should be treated as the
// property name itself rather than an accessor marker.
func (p *Parser) nextTerminatesPropertyName() bool {
	switch p.peek().Type {
	case lexer.COLON, lexer.LPAREN, lexer.COMMA, lexer.RBRACE, lexer.ASSIGN:
		return true
	default:
		return false
	}
}

func (p *Parser) parseFunctionExpression() ast.Expression {
	start := p.cur().Pos
	async := p.accept(lexer.ASYNC)
	p.expect(lexer.FUNCTION)
	generator := p.accept(lexer.STAR)
	var name *ast.Identifier
	if p.at(lexer.IDENT) || lexer.IsContextualKeyword(p.cur().Type) {
		name = p.parseBindingIdentifier()
	}
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
	fn.Sp = p.span(start)
	return fn
}

// parseFunctionTail parses `(params) { body }` shared by function
// declarations, expressions, and methods.
func (p *Parser) parseFunctionTail(name *ast.Identifier, kind ast.FunctionKind, async, generator bool) *ast.FunctionExpression {
	savedCtx := p.ctx
	p.ctx = p.ctx.child(func(c *ParseContext) {
		c.InFunction = true
		c.InGenerator = generator
		c.InAsync = async
		c.InLoop = false
		c.InSwitch = false
		c.Labels = nil
	})
	params := p.parseParams()
	body := p.parseFunctionBody()
	if !p.hasError() {
		p.checkDuplicateParams(params, p.ctx.Strict)
	}
	fn := &ast.FunctionExpression{Name: name, Params: params, Body: body, Kind: kind, Strict: p.ctx.Strict}
	p.ctx = savedCtx
	return fn
}

func (p *Parser) parseFunctionBody() *ast.BlockStatement {
	start := p.cur().Pos
	p.expect(lexer.LBRACE)
	directives, strict := p.parseDirectivePrologue()
	_ = directives
	if strict {
		p.ctx.Strict = true
	}
	block := &ast.BlockStatement{}
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
