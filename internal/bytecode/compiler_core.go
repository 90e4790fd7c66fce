package bytecode

import (
	"sort"

	"github.com/jsvm/jsvm/internal/ast"
)

// hoistProgram implements the var/function-hoisting half of Global
// Declaration Instantiation: walk the body collecting every `var` name
// and every top-level function declaration
// (last-wins by name), and declare each in the current function scope
// before any statement executes. With topLevel set, the body's own
// lexical (`let`/`const`/`class`) names are declared here too, after
// the var and function names; the lexical names of nested blocks are
// declared separately, per-block, as compileStatement reaches each
// BlockStatement — this mirrors LexicallyDeclaredNames being scoped to
// the block that contains them while VarDeclaredNames are scoped to the
// whole function/program.
func (c *Compiler) hoistProgram(body []ast.Statement, topLevel bool) {
	varNames := map[string]bool{}
	collectVarNames(body, varNames)
	for _, name := range sortedNames(varNames) {
		c.declareVar(name)
	}

	funcs := collectFunctionDeclarations(body)
	for _, fd := range funcs {
		c.declareVar(fd.Name.Name)
	}
	for _, fd := range funcs {
		c.compileFunctionHoist(fd)
	}

	if topLevel {
		collectLexicalNames(body, func(name string, mutable bool) {
			c.declareInScope(name, mutable, false)
		})
	}
}

func (c *Compiler) declareVar(name string) {
	c.declareInScope(name, true, true)
	sym := c.interner.Intern(name)
	idx := c.cur.b.addName(sym)
	c.cur.b.emitU16(DefVar, idx)
}

// compileFunctionHoist compiles a hoisted function declaration's
// closure eagerly (function declarations are initialized to their
// constructed function value before the body runs) and binds it into
// the already-declared var slot.
func (c *Compiler) compileFunctionHoist(fd *ast.FunctionDeclaration) {
	c.compileFunctionExpr(fd.Name.Name, fd.Params, fd.Body, fd.Kind, fd.Strict)
	sym := c.interner.Intern(fd.Name.Name)
	idx := c.cur.b.addName(sym)
	c.cur.b.emitU16(SetName, idx)
	c.cur.b.emit(Pop)
}

// collectVarNames walks body recursively (but not into nested function
// bodies) collecting every `var`-declared name, matching
// ECMAScript's VarDeclaredNames static semantics.
func collectVarNames(body []ast.Statement, out map[string]bool) {
	for _, stmt := range body {
		collectVarNamesStmt(stmt, out)
	}
}

func collectVarNamesStmt(stmt ast.Statement, out map[string]bool) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.DeclVar {
			for _, d := range s.Declarations {
				collectPatternNames(d.Id, out)
			}
		}
	case *ast.BlockStatement:
		collectVarNames(s.Body, out)
	case *ast.IfStatement:
		collectVarNamesStmt(s.Consequent, out)
		if s.Alternate != nil {
			collectVarNamesStmt(s.Alternate, out)
		}
	case *ast.WhileStatement:
		collectVarNamesStmt(s.Body, out)
	case *ast.DoWhileStatement:
		collectVarNamesStmt(s.Body, out)
	case *ast.ForStatement:
		if vd, ok := s.Init.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclVar {
			for _, d := range vd.Declarations {
				collectPatternNames(d.Id, out)
			}
		}
		collectVarNamesStmt(s.Body, out)
	case *ast.ForInStatement:
		if vd, ok := s.Left.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclVar {
			for _, d := range vd.Declarations {
				collectPatternNames(d.Id, out)
			}
		}
		collectVarNamesStmt(s.Body, out)
	case *ast.ForOfStatement:
		if vd, ok := s.Left.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclVar {
			for _, d := range vd.Declarations {
				collectPatternNames(d.Id, out)
			}
		}
		collectVarNamesStmt(s.Body, out)
	case *ast.TryStatement:
		collectVarNames(s.Block.Body, out)
		if s.Handler != nil {
			collectVarNames(s.Handler.Body.Body, out)
		}
		if s.Finalizer != nil {
			collectVarNames(s.Finalizer.Body, out)
		}
	case *ast.SwitchStatement:
		for _, cs := range s.Cases {
			collectVarNames(cs.Consequent, out)
		}
	case *ast.LabeledStatement:
		collectVarNamesStmt(s.Body, out)
	case *ast.WithStatement:
		collectVarNamesStmt(s.Body, out)
	}
}

func collectPatternNames(p ast.Pattern, out map[string]bool) {
	switch n := p.(type) {
	case *ast.Identifier:
		out[n.Name] = true
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el != nil {
				collectPatternNames(el, out)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			collectPatternNames(prop.Value, out)
		}
		if n.Rest != nil {
			collectPatternNames(n.Rest.Argument, out)
		}
	case *ast.AssignmentPattern:
		collectPatternNames(n.Left, out)
	case *ast.RestElement:
		collectPatternNames(n.Argument, out)
	}
}

// sortedNames returns the names of a name set in sorted order, so that
// slot and name-table indices do not depend on map iteration order.
func sortedNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// collectFunctionDeclarations gathers top-level FunctionDeclaration
// statements of body, last-wins by name").
func collectFunctionDeclarations(body []ast.Statement) []*ast.FunctionDeclaration {
	byName := map[string]*ast.FunctionDeclaration{}
	var order []string
	for _, stmt := range body {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok && fd.Name != nil {
			if _, seen := byName[fd.Name.Name]; !seen {
				order = append(order, fd.Name.Name)
			}
			byName[fd.Name.Name] = fd // last-wins
		}
	}
	out := make([]*ast.FunctionDeclaration, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// collectLexicalNames collects the LexicallyDeclaredNames of a single
// scope's direct statement list (let/const/class at this level only,
// not descending into nested blocks), reporting each with its
// mutability.
func collectLexicalNames(body []ast.Statement, declare func(name string, mutable bool)) {
	seen := map[string]bool{}
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == ast.DeclLet || s.Kind == ast.DeclConst {
				for _, d := range s.Declarations {
					names := map[string]bool{}
					collectPatternNames(d.Id, names)
					for _, n := range sortedNames(names) {
						if seen[n] {
							continue // duplicate-lexical early error is caught by the parser
						}
						seen[n] = true
						declare(n, s.Kind == ast.DeclLet)
					}
				}
			}
		case *ast.ClassDeclaration:
			if s.Name != nil && !seen[s.Name.Name] {
				seen[s.Name.Name] = true
				declare(s.Name.Name, true)
			}
		}
	}
}
