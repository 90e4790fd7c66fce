package parser

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/lexer"
)

// parseBindingTargetOnly parses a bare binding target — an identifier
// or a destructuring array/object pattern — without consuming a
// trailing `= default`. Use this wherever the grammar treats `=` as a
// separate Initializer production rather than part of the pattern
// itself: variable declarators, catch parameters, and for-in/for-of
// loop heads.
func (p *Parser) parseBindingTargetOnly() ast.Pattern {
	switch {
	case p.at(lexer.LBRACKET):
		return p.parseArrayPattern()
	case p.at(lexer.LBRACE):
		return p.parseObjectPattern()
	default:
		return p.parseBindingIdentifier()
	}
}

// parseBindingTarget parses a single binding element: a binding target
// optionally followed by a default value (`= expr`), represented as an
// AssignmentPattern wrapping the left-hand pattern. Used for formal
// parameters and for array/object pattern elements, where `=` is part
// of the element grammar (BindingElement), not a separate Initializer.
func (p *Parser) parseBindingTarget() ast.Pattern {
	left := p.parseBindingTargetOnly()
	if p.accept(lexer.ASSIGN) {
		start := left.Span().Start
		value := p.parseAssignmentExpression()
		return &ast.AssignmentPattern{BaseNode: ast.BaseNode{Sp: p.span(start)}, Left: left, Right: value}
	}
	return left
}

func (p *Parser) parseBindingIdentifier() *ast.Identifier {
	start := p.cur().Pos
	tok := p.cur()
	if tok.Type != lexer.IDENT && !lexer.IsContextualKeyword(tok.Type) {
		p.errorf("expected binding identifier but found %s %q", tok.Type, tok.Literal)
		return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: tok.Literal}
	}
	p.advance()
	name := tok.Literal
	if p.ctx.Strict && (name == "eval" || name == "arguments") {
		p.errorf("'%s' cannot be bound as a binding identifier in strict mode", name)
	}
	if (name == "yield" && p.ctx.InGenerator) || (name == "await" && p.ctx.InAsync) {
		p.errorf("'%s' is not a valid binding identifier in this context", name)
	}
	return &ast.Identifier{BaseNode: ast.BaseNode{Sp: p.span(start)}, Name: name}
}

func (p *Parser) parseArrayPattern() *ast.ArrayPattern {
	start := p.cur().Pos
	p.expect(lexer.LBRACKET)
	var elems []ast.Pattern
	for !p.at(lexer.RBRACKET) && !p.hasError() {
		if p.accept(lexer.COMMA) {
			elems = append(elems, nil)
			continue
		}
		if p.accept(lexer.ELLIPSIS) {
			rest := p.parseBindingTarget()
			elems = append(elems, &ast.RestElement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: rest})
			break
		}
		elems = append(elems, p.parseBindingTarget())
		if !p.at(lexer.RBRACKET) {
			p.expect(lexer.COMMA)
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.ArrayPattern{BaseNode: ast.BaseNode{Sp: p.span(start)}, Elements: elems}
}

func (p *Parser) parseObjectPattern() *ast.ObjectPattern {
	start := p.cur().Pos
	p.expect(lexer.LBRACE)
	op := &ast.ObjectPattern{BaseNode: ast.BaseNode{Sp: p.span(start)}}
	for !p.at(lexer.RBRACE) && !p.hasError() {
		if p.accept(lexer.ELLIPSIS) {
			rest := p.parseBindingIdentifier()
			op.Rest = &ast.RestElement{BaseNode: rest.BaseNode, Argument: rest}
			break
		}
		propStart := p.cur().Pos
		computed := false
		var key ast.Expression
		if p.accept(lexer.LBRACKET) {
			computed = true
			key = p.parseAssignmentExpression()
			p.expect(lexer.RBRACKET)
		} else if p.at(lexer.STRING) || p.at(lexer.NUMBER) {
			key = p.parseLiteral()
		} else {
			key = p.parseBindingIdentifier()
		}
		prop := &ast.ObjectPatternProperty{BaseNode: ast.BaseNode{Sp: p.span(propStart)}, Key: key, Computed: computed}
		if p.accept(lexer.COLON) {
			prop.Value = p.parseBindingTarget()
		} else {
			ident, ok := key.(*ast.Identifier)
			if !ok {
				p.errorf("invalid shorthand destructuring property")
			} else {
				prop.Shorthand = true
				if p.accept(lexer.ASSIGN) {
					value := p.parseAssignmentExpression()
					prop.Value = &ast.AssignmentPattern{BaseNode: ident.BaseNode, Left: ident, Right: value}
				} else {
					prop.Value = ident
				}
			}
		}
		op.Properties = append(op.Properties, prop)
		if !p.at(lexer.RBRACE) {
			p.expect(lexer.COMMA)
		}
	}
	p.expect(lexer.RBRACE)
	return op
}

// exprToPattern reinterprets an already-parsed expression (an array or
// object literal, an identifier, or a member expression) as an
// assignment-target pattern. This is the "to-pattern" pass needed for
// destructuring in assignment position, as opposed to declaration/
// parameter position where parseBindingTarget is used directly.
func (p *Parser) exprToPattern(e ast.Expression) ast.Pattern {
	switch v := e.(type) {
	case *ast.Identifier:
		return v
	case *ast.MemberExpression:
		return v
	case *ast.AssignmentExpression:
		if v.Op != "=" {
			p.errorf("invalid destructuring assignment target")
			return nil
		}
		left, ok := v.Target.(ast.Pattern)
		if !ok {
			left = p.exprToPattern(v.Target.(ast.Expression))
		}
		return &ast.AssignmentPattern{BaseNode: v.BaseNode, Left: left, Right: v.Value}
	case *ast.ArrayLiteral:
		ap := &ast.ArrayPattern{BaseNode: v.BaseNode}
		for i, el := range v.Elements {
			if el == nil {
				ap.Elements = append(ap.Elements, nil)
				continue
			}
			if spread, ok := el.(*ast.SpreadElement); ok {
				if i != len(v.Elements)-1 {
					p.errorf("rest element must be last in array pattern")
				}
				ap.Elements = append(ap.Elements, &ast.RestElement{BaseNode: spread.BaseNode, Argument: p.exprToPattern(spread.Argument)})
				continue
			}
			ap.Elements = append(ap.Elements, p.exprToPattern(el))
		}
		return ap
	case *ast.ObjectLiteral:
		op := &ast.ObjectPattern{BaseNode: v.BaseNode}
		for _, prop := range v.Properties {
			if prop.Kind == ast.PropSpread {
				rest, _ := p.exprToPattern(prop.Key).(*ast.Identifier)
				op.Rest = &ast.RestElement{BaseNode: prop.BaseNode, Argument: rest}
				continue
			}
			val := p.exprToPattern(prop.Value)
			op.Properties = append(op.Properties, &ast.ObjectPatternProperty{
				BaseNode: prop.BaseNode, Key: prop.Key, Computed: prop.Computed,
				Value: val, Shorthand: prop.Shorthand,
			})
		}
		return op
	default:
		p.errorf("invalid destructuring assignment target")
		return nil
	}
}

// parseParams parses a parenthesized formal-parameter list: patterns,
// default values, and a single trailing rest parameter. Duplicate
// parameter names are checked by the compiler's declaration
// instantiation pass (which also knows whether strict mode or a
// non-simple parameter list makes duplicates an early error).
func (p *Parser) parseParams() []*ast.Param {
	p.expect(lexer.LPAREN)
	var params []*ast.Param
	for !p.at(lexer.RPAREN) && !p.hasError() {
		start := p.cur().Pos
		if p.accept(lexer.ELLIPSIS) {
			rest := p.parseBindingTarget()
			params = append(params, &ast.Param{BaseNode: ast.BaseNode{Sp: p.span(start)}, Binding: &ast.RestElement{BaseNode: ast.BaseNode{Sp: p.span(start)}, Argument: rest}})
			break
		}
		binding := p.parseBindingTarget()
		params = append(params, &ast.Param{BaseNode: ast.BaseNode{Sp: p.span(start)}, Binding: binding})
		if !p.at(lexer.RPAREN) {
			p.expect(lexer.COMMA)
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

// isSimpleParameterList reports whether params contains no defaults,
// rest parameters, or destructuring — ECMAScript's "simple parameter
// list" condition that gates the mapped `arguments` object and relaxes
// the duplicate-parameter-name rule outside strict mode.
func isSimpleParameterList(params []*ast.Param) bool {
	for _, param := range params {
		switch param.Binding.(type) {
		case *ast.Identifier:
			continue
		default:
			return false
		}
	}
	return true
}
