package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/lexer"
)

func (p *Parser) parseClassExpression() ast.Expression {
	start := p.cur().Pos
	decl := p.parseClassTail(false)
	return &ast.ClassExpression{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: decl.Name, SuperClass: decl.SuperClass, Body: decl.Body}
}

func (p *Parser) parseClassDeclaration() ast.Statement {
	return p.parseClassTail(true)
}

// parseClassTail parses `class [Name] [extends Super] { body }`, used
// for both declaration and expression position; requireName controls
// whether an anonymous class is accepted (only in expression/default-
// export position).
func (p *Parser) parseClassTail(requireName bool) *ast.ClassDeclaration {
	start := p.cur().Pos
	p.expect(lexer.CLASS)
	savedStrict := p.ctx.Strict
	p.ctx.Strict = true // class bodies are always strict

	var name *ast.Identifier
	if p.at(lexer.IDENT) || lexer.IsContextualKeyword(p.cur().Type) {
		name = p.parseBindingIdentifier()
	} else if requireName {
		p.errorf("class declaration requires a name")
	}

	var super ast.Expression
	isDerived := false
	if p.accept(lexer.EXTENDS) {
		isDerived = true
		super = p.parseLeftHandSideExpression()
	}

	body := p.parseClassBody(isDerived)
	p.ctx.Strict = savedStrict
	return &ast.ClassDeclaration{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: name, SuperClass: super, Body: body}
}

func (p *Parser) parseClassBody(isDerived bool) *ast.ClassBody {
	start := p.cur().Pos
	p.expect(lexer.LBRACE)
	body := &ast.ClassBody{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	privateNames := map[string]bool{}
	sawConstructor := false
	for !p.at(lexer.RBRACE) && !p.hasError() {
		if p.accept(lexer.SEMI) {
			continue
		}
		elem := p.parseClassElement(isDerived, &sawConstructor)
		if elem == nil {
			continue
		}
		if priv, ok := elem.Key.(*ast.PrivateIdentifier); ok {
			variant := priv.Name
			if priv.Name == "constructor" {
				p.errorf("class may not have a private field named #constructor")
			}
			if privateNames[variant] {
				p.errorf("duplicate private name #%s", variant)
			}
			privateNames[variant] = true
		}
		body.Elements = append(body.Elements, elem)
	}
	p.expect(lexer.RBRACE)
	body.Sp = p.span(start)
	return body
}

func (p *Parser) parseClassElement(isDerived bool, sawConstructor *bool) *ast.ClassElement {
	start := p.cur().Pos

	static := false
	if p.at(lexer.STATIC) && !p.nextEndsPropertyContext() {
		static = true
		p.advance()
		if p.at(lexer.LBRACE) {
			body := p.parseBlockStatement()
			return &ast.ClassElement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: ast.ElemStaticBlock, Static: true, Body: body}
		}
	}

	isGetter := p.at(lexer.GET) && !p.nextEndsPropertyContext()
	isSetter := p.at(lexer.SET) && !p.nextEndsPropertyContext()
	isAsync := p.at(lexer.ASYNC) && !p.peek().PrecededByNewline && !p.nextEndsPropertyContext()
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
	if p.at(lexer.PRIVATE) {
		key = p.parsePropertyName()
	} else if p.accept(lexer.LBRACKET) {
		computed = true
		key = p.parseAssignmentExpression()
		p.expect(lexer.RBRACKET)
	} else if p.at(lexer.STRING) || p.at(lexer.NUMBER) {
		key = p.parseLiteral()
	} else {
		key = p.parsePropertyName()
	}

	_, isPrivate := key.(*ast.PrivateIdentifier)

	if p.at(lexer.LPAREN) {
		isCtor := !static && !computed && !isPrivate && !isGetter && !isSetter && !isAsync && !isGenerator && keyIsLiteralName(key, "constructor")
		if isCtor {
			if *sawConstructor {
				p.errorf("a class may only have one constructor")
			}
			*sawConstructor = true
		}
		kind := ast.FuncMethod
		elemKind := ast.ElemMethod
		switch {
		case isCtor:
			kind = ast.FuncConstructor
			elemKind = ast.ElemConstructor
		case isGetter:
			kind = ast.FuncGetter
		case isSetter:
			kind = ast.FuncSetter
		case isAsync && isGenerator:
			kind = ast.FuncAsyncGenerator
		case isAsync:
			kind = ast.FuncAsync
		case isGenerator:
			kind = ast.FuncGenerator
		}
		if !isCtor && static {
			elemKind = ast.ElemStaticMethod
		}
		if isPrivate {
			if static {
				elemKind = ast.ElemStaticPrivateMethod
			} else if !isCtor {
				elemKind = ast.ElemPrivateMethod
			}
		}
		savedCtx := p.ctx
		p.ctx = p.ctx.child(func(c *ParseContext) {
			c.InMethod = true
			c.InDerivedCtor = isCtor && isDerived
		})
		fn := p.parseFunctionTail(nil, kind, isAsync, isGenerator)
		p.ctx = savedCtx
		return &ast.ClassElement{
			BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: elemKind, Key: key, Computed: computed,
			Value: fn, Func: nil, Getter: isGetter, Setter: isSetter, Static: static,
		}
	}

	// Field declaration (possibly with initializer).
	elemKind := ast.ElemField
	switch {
	case static && isPrivate:
		elemKind = ast.ElemStaticPrivateField
	case static:
		elemKind = ast.ElemStaticField
	case isPrivate:
		elemKind = ast.ElemPrivateField
	}
	var init ast.Expression
	if p.accept(lexer.ASSIGN) {
		savedCtx := p.ctx
		p.ctx = p.ctx.child(func(c *ParseContext) { c.InClassField = true })
		init = p.parseAssignmentExpression()
		p.ctx = savedCtx
	}
	p.consumeSemicolon()
	return &ast.ClassElement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Kind: elemKind, Key: key, Computed: computed, Value: init, Static: static}
}

func keyIsLiteralName(key ast.Expression, name string) bool {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name == name
	case *ast.Literal:
		return k.Kind == ast.LitString && k.StringValue == name
	default:
		return false
	}
}

// nextEndsPropertyContext reports whether the token after the current
// contextual keyword (static/get/set/async) means that keyword is
// actually being used as the member name itself.
func (p *Parser) nextEndsPropertyContext() bool {
	return p.nextEndsPropertyContextAt(0)
}

func (p *Parser) nextEndsPropertyContextAt(offset int) bool {
	switch p.peekN(offset + 1).Type {
	case lexer.LPAREN, lexer.ASSIGN, lexer.SEMI, lexer.RBRACE:
		return true
	default:
		return false
	}
}
