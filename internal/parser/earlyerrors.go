package parser

import "github.com/jsvm/jsvm/internal/ast"

// checkLexicalDeclarations walks one block's direct statement list and
// rejects a name bound twice among its let/const/class/function
// declarations. var declarations are skipped, so a let/const name that
// collides with a var is not reported here. Nested blocks are checked
// independently when they are themselves visited by the caller.
func (p *Parser) checkLexicalDeclarations(body []ast.Statement) {
	seen := map[string]bool{}
	declare := func(name string) {
		if seen[name] {
			p.errorf("identifier '%s' has already been declared", name)
			return
		}
		seen[name] = true
	}
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == ast.DeclVar {
				continue
			}
			for _, d := range s.Declarations {
				forEachBoundName(d.Id, declare)
			}
		case *ast.ClassDeclaration:
			if s.Name != nil {
				declare(s.Name.Name)
			}
		case *ast.FunctionDeclaration:
			if s.Name != nil {
				declare(s.Name.Name)
			}
		}
	}
}

// forEachBoundName visits every identifier bound by a pattern,
// including names nested inside array/object destructuring and
// defaults, in declaration order.
func forEachBoundName(pat ast.Pattern, visit func(name string)) {
	switch v := pat.(type) {
	case *ast.Identifier:
		visit(v.Name)
	case *ast.ArrayPattern:
		for _, el := range v.Elements {
			if el != nil {
				forEachBoundName(el, visit)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range v.Properties {
			forEachBoundName(prop.Value, visit)
		}
		if v.Rest != nil {
			forEachBoundName(v.Rest.Argument, visit)
		}
	case *ast.AssignmentPattern:
		forEachBoundName(v.Left, visit)
	case *ast.RestElement:
		forEachBoundName(v.Argument, visit)
	}
}

// checkDuplicateParams rejects repeated parameter names, which is an
// early error whenever the parameter list is non-simple (defaults,
// rest, destructuring) or the function body is strict.
func (p *Parser) checkDuplicateParams(params []*ast.Param, strict bool) {
	if !strict && isSimpleParameterList(params) {
		return
	}
	seen := map[string]bool{}
	for _, param := range params {
		forEachBoundName(param.Binding, func(name string) {
			if seen[name] {
				p.errorf("duplicate parameter name '%s' not allowed in this context", name)
				return
			}
			seen[name] = true
		})
	}
}

// checkPrivateNameReference rejects `#name` references to a private
// name that is not declared by any enclosing class body.
func (p *Parser) checkPrivateNameReference(name string) {
	if !p.ctx.PrivateNamesInScope[name] {
		p.errorf("private name #%s is not defined", name)
	}
}
