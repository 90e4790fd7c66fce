package bytecode

import "github.com/jsvm/jsvm/internal/ast"

func (c *Compiler) compileStatement(stmt ast.Statement) {
	b := c.cur.b
	b.mark(stmt.Span())
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		c.compileExpression(s.Expr)
		b.emit(SetReturnValue)
		b.emit(Pop)
	case *ast.VariableDeclaration:
		c.compileVariableDeclaration(s)
	case *ast.FunctionDeclaration:
		// already hoisted; nothing to do at its textual position.
	case *ast.ClassDeclaration:
		c.compileClassDeclaration(s)
	case *ast.BlockStatement:
		c.compileBlock(s)
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		// no-op
	case *ast.IfStatement:
		c.compileIf(s)
	case *ast.WhileStatement:
		c.compileWhile(s)
	case *ast.DoWhileStatement:
		c.compileDoWhile(s)
	case *ast.ForStatement:
		c.compileFor(s)
	case *ast.ForInStatement:
		c.compileForIn(s)
	case *ast.ForOfStatement:
		c.compileForOf(s)
	case *ast.BreakStatement:
		c.compileBreak(s)
	case *ast.ContinueStatement:
		c.compileContinue(s)
	case *ast.ReturnStatement:
		if s.Argument != nil {
			c.compileExpression(s.Argument)
		} else {
			b.emit(PushUndefined)
		}
		b.emit(Return)
	case *ast.ThrowStatement:
		c.compileExpression(s.Argument)
		b.emit(Throw)
	case *ast.TryStatement:
		c.compileTry(s)
	case *ast.SwitchStatement:
		c.compileSwitch(s)
	case *ast.LabeledStatement:
		c.compileLabeled(s)
	case *ast.WithStatement:
		c.compileWith(s)
	default:
		c.errorf(stmt.Span(), "compiler: unsupported statement node %T", stmt)
	}
}

func (c *Compiler) compileBlock(s *ast.BlockStatement) {
	c.pushScope(scopeBlock)
	collectLexicalNames(s.Body, func(name string, mutable bool) {
		idx := c.declareInScope(name, mutable, false)
		_ = idx
		sym := c.interner.Intern(name)
		nidx := c.cur.b.addName(sym)
		if mutable {
			c.cur.b.emitU16(DefLet, nidx)
		} else {
			c.cur.b.emitU16(DefConst, nidx)
		}
	})
	funcs := collectFunctionDeclarations(s.Body)
	for _, fd := range funcs {
		c.declareInScope(fd.Name.Name, true, false)
	}
	for _, fd := range funcs {
		c.compileFunctionHoist(fd)
	}
	for _, st := range s.Body {
		c.compileStatement(st)
	}
	c.popScope()
}

func (c *Compiler) compileVariableDeclaration(s *ast.VariableDeclaration) {
	b := c.cur.b
	for _, d := range s.Declarations {
		if d.Init != nil {
			c.compileExpression(d.Init)
		} else {
			b.emit(PushUndefined)
		}
		c.bindPattern(d.Id, s.Kind != ast.DeclVar, s.Kind == ast.DeclConst)
	}
}

// bindPattern destructures the value on top of the stack into pat,
// either initializing fresh lexical/var bindings (the callers already
// declared the slots during hoisting; isLexical selects lexical
// initialization) or writing through existing assignment targets
// (destructuring assignment).
func (c *Compiler) bindPattern(pat ast.Pattern, isLexical, isConst bool) {
	b := c.cur.b
	switch p := pat.(type) {
	case *ast.Identifier:
		kind, depth, slot, mutable := c.resolveName(p.Name)
		sym := c.interner.Intern(p.Name)
		if kind == BindLocal {
			if isLexical {
				idx := b.addBinding(BindingLocator{Kind: BindLocal, EnvDepth: depth, Slot: slot, Name: sym, Mutable: mutable})
				b.emitU16(PutLexicalValue, idx)
			} else {
				idx := b.addBinding(BindingLocator{Kind: BindLocal, EnvDepth: depth, Slot: slot, Name: sym, Mutable: mutable})
				b.emitU16(SetLocal, idx)
			}
		} else {
			if isLexical {
				idx := b.addBinding(BindingLocator{Kind: kind, Name: sym, Mutable: mutable})
				b.emitU16(PutLexicalValue, idx)
			} else {
				idx := b.addName(sym)
				b.emitU16(SetName, idx)
			}
		}
	case *ast.MemberExpression:
		c.compileExpression(p.Object)
		c.compileExpression(p.Property)
		b.emit(Swap)
		b.emit(SetPropertyByValue)
	case *ast.AssignmentPattern:
		b.emit(Dup)
		lbl := b.emitJump(JumpIfNotUndefined)
		b.emit(Pop)
		c.compileExpression(p.Right)
		b.patchJump(lbl)
		c.bindPattern(p.Left, isLexical, isConst)
	case *ast.ArrayPattern:
		b.emit(GetIterator)
		for _, el := range p.Elements {
			b.emit(IteratorNext)
			b.emit(IteratorValue)
			if el == nil {
				b.emit(Pop)
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				b.emit(Pop) // drop the single-step value; collect remainder as an array
				b.emit(IteratorToArray)
				c.bindPattern(rest.Argument, isLexical, isConst)
				continue
			}
			c.bindPattern(el, isLexical, isConst)
		}
		b.emit(IteratorClose)
	case *ast.ObjectPattern:
		b.emit(Dup)
		b.emit(RequireObjectCoercible)
		for _, prop := range p.Properties {
			b.emit(Dup)
			c.compilePropertyKey(prop.Key, prop.Computed)
			b.emit(GetPropertyByValue)
			c.bindPattern(prop.Value, isLexical, isConst)
		}
		if p.Rest != nil {
			b.emit(Dup)
			c.bindPattern(p.Rest.Argument, isLexical, isConst)
		}
		b.emit(Pop)
	case *ast.RestElement:
		c.bindPattern(p.Argument, isLexical, isConst)
	default:
		c.errorf(pat.Span(), "compiler: unsupported binding pattern %T", pat)
	}
}

func (c *Compiler) compileIf(s *ast.IfStatement) {
	b := c.cur.b
	c.compileExpression(s.Test)
	elseLbl := b.emitJump(JumpIfFalse)
	c.compileStatement(s.Consequent)
	if s.Alternate != nil {
		endLbl := b.emitJump(Jump)
		b.patchJump(elseLbl)
		c.compileStatement(s.Alternate)
		b.patchJump(endLbl)
	} else {
		b.patchJump(elseLbl)
	}
}

func (c *Compiler) enterLoop(label string) {
	c.cur.loops = append(c.cur.loops, loopCtx{label: label})
}

func (c *Compiler) currentLoop() *loopCtx {
	return &c.cur.loops[len(c.cur.loops)-1]
}

func (c *Compiler) exitLoop() {
	b := c.cur.b
	lc := c.cur.loops[len(c.cur.loops)-1]
	for _, l := range lc.breakFixups {
		b.patchJump(l)
	}
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) {
	b := c.cur.b
	c.enterLoop(s.Label)
	start := b.here()
	c.currentLoop().continueLbl = start
	c.compileExpression(s.Test)
	endLbl := b.emitJump(JumpIfFalse)
	c.compileStatement(s.Body)
	b.emitJumpTo(Jump, start)
	b.patchJump(endLbl)
	c.exitLoop()
}

func (c *Compiler) compileDoWhile(s *ast.DoWhileStatement) {
	b := c.cur.b
	c.enterLoop(s.Label)
	start := b.here()
	c.compileStatement(s.Body)
	contTarget := b.here()
	c.currentLoop().continueLbl = contTarget
	c.compileExpression(s.Test)
	b.emitJumpTo(JumpIfTrue, start)
	c.exitLoop()
}

func (c *Compiler) compileFor(s *ast.ForStatement) {
	b := c.cur.b
	c.pushScope(scopeBlock)
	if s.Init != nil {
		switch init := s.Init.(type) {
		case *ast.VariableDeclaration:
			if init.Kind != ast.DeclVar {
				collectLexicalNames([]ast.Statement{init}, func(name string, mutable bool) {
					c.declareInScope(name, mutable, false)
				})
			}
			c.compileVariableDeclaration(init)
		case ast.Expression:
			c.compileExpression(init)
			b.emit(Pop)
		}
	}
	c.enterLoop(s.Label)
	start := b.here()
	var endLbl label
	hasTest := s.Test != nil
	if hasTest {
		c.compileExpression(s.Test)
		endLbl = b.emitJump(JumpIfFalse)
	}
	c.compileStatement(s.Body)
	contTarget := b.here()
	c.currentLoop().continueLbl = contTarget
	if s.Update != nil {
		c.compileExpression(s.Update)
		b.emit(Pop)
	}
	b.emit(IncrementLoopIteration)
	b.emitJumpTo(Jump, start)
	if hasTest {
		b.patchJump(endLbl)
	}
	c.exitLoop()
	c.popScope()
}

func (c *Compiler) compileForIn(s *ast.ForInStatement) {
	b := c.cur.b
	c.compileExpression(s.Right)
	b.emit(CreateForInIterator)
	c.compileForHeaderLoop(s.Left, s.Body, s.Label, false)
}

func (c *Compiler) compileForOf(s *ast.ForOfStatement) {
	b := c.cur.b
	c.compileExpression(s.Right)
	if s.Await {
		b.emit(GetAsyncIterator)
	} else {
		b.emit(GetIterator)
	}
	c.compileForHeaderLoop(s.Left, s.Body, s.Label, s.Await)
}

func (c *Compiler) compileForHeaderLoop(left ast.Node, body ast.Statement, labelName string, isAwait bool) {
	b := c.cur.b
	c.enterLoop(labelName)
	start := b.here()
	c.currentLoop().continueLbl = start
	b.emit(IteratorNext)
	if isAwait {
		b.emit(Await)
	}
	b.emit(IteratorDone)
	endLbl := b.emitJump(JumpIfTrue)
	b.emit(IteratorValue)
	c.pushScope(scopeBlock)
	switch l := left.(type) {
	case *ast.VariableDeclaration:
		if l.Kind != ast.DeclVar {
			collectLexicalNames([]ast.Statement{l}, func(name string, mutable bool) {
				c.declareInScope(name, mutable, false)
			})
		}
		c.bindPattern(l.Declarations[0].Id, l.Kind != ast.DeclVar, l.Kind == ast.DeclConst)
	case ast.Expression:
		c.compileAssignFromStack(l)
	}
	c.compileStatement(body)
	c.popScope()
	b.emitJumpTo(Jump, start)
	b.patchJump(endLbl)
	b.emit(IteratorClose)
	c.exitLoop()
}

// compileAssignFromStack writes the for-in/for-of loop's current
// value (already on the stack) into an existing assignment target
// (the non-declaration form, `for (x in obj)`).
func (c *Compiler) compileAssignFromStack(target ast.Expression) {
	c.bindPattern(target.(ast.Pattern), false, false)
}

func (c *Compiler) findLoopOrLabel(labelName string) *loopCtx {
	if labelName == "" {
		return c.currentLoop()
	}
	for i := len(c.cur.loops) - 1; i >= 0; i-- {
		if c.cur.loops[i].label == labelName {
			return &c.cur.loops[i]
		}
	}
	return c.currentLoop()
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) {
	if len(c.cur.loops) == 0 {
		c.errorf(s.Span(), "illegal break statement")
		return
	}
	lc := c.findLoopOrLabel(s.Label)
	lbl := c.cur.b.emitJump(Jump)
	lc.breakFixups = append(lc.breakFixups, lbl)
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) {
	if len(c.cur.loops) == 0 {
		c.errorf(s.Span(), "illegal continue statement")
		return
	}
	lc := c.findLoopOrLabel(s.Label)
	c.cur.b.emitJumpTo(Jump, lc.continueLbl)
}

func (c *Compiler) compileTry(s *ast.TryStatement) {
	b := c.cur.b
	tryStart := b.here()
	handlerFixup := b.emitJump(PushTryHandler)
	c.compileBlock(s.Block)
	b.emit(PopTryHandler)
	afterTryLbl := b.emitJump(Jump)
	b.patchJump(handlerFixup)
	_ = tryStart

	if s.Handler != nil {
		b.emit(Exception)
		c.pushScope(scopeBlock)
		if s.Handler.Param != nil {
			names := map[string]bool{}
			collectPatternNames(s.Handler.Param, names)
			for _, n := range sortedNames(names) {
				c.declareInScope(n, true, false)
			}
			c.bindPattern(s.Handler.Param, true, false)
		} else {
			b.emit(Pop)
		}
		for _, st := range s.Handler.Body.Body {
			c.compileStatement(st)
		}
		c.popScope()
	} else {
		b.emit(ReThrow)
	}
	b.patchJump(afterTryLbl)

	if s.Finalizer != nil {
		b.emit(FinallyStart)
		c.compileBlock(s.Finalizer)
		b.emit(FinallyEnd)
	}
}

func (c *Compiler) compileSwitch(s *ast.SwitchStatement) {
	b := c.cur.b
	c.compileExpression(s.Discriminant)
	c.pushScope(scopeBlock)
	var allStmts []ast.Statement
	for _, cs := range s.Cases {
		allStmts = append(allStmts, cs.Consequent...)
	}
	collectLexicalNames(allStmts, func(name string, mutable bool) {
		c.declareInScope(name, mutable, false)
	})
	c.enterLoop("") // switch participates in break but not continue

	var caseFixups []label
	var defaultIdx = -1
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		b.emit(Dup)
		c.compileExpression(cs.Test)
		b.emit(StrictEq)
		lbl := b.emitJump(JumpIfTrue)
		caseFixups = append(caseFixups, lbl)
	}
	var defaultJump label
	hasDefault := defaultIdx >= 0
	if hasDefault {
		defaultJump = b.emitJump(Jump)
	}
	endLbl := b.emitJump(Jump)

	fixupIdx := 0
	for i, cs := range s.Cases {
		if cs.Test == nil {
			if hasDefault {
				b.patchJump(defaultJump)
			}
		} else {
			b.patchJump(caseFixups[fixupIdx])
			fixupIdx++
		}
		_ = i
		for _, st := range cs.Consequent {
			c.compileStatement(st)
		}
	}
	b.patchJump(endLbl)
	b.emit(Pop) // discard discriminant
	c.exitLoop()
	c.popScope()
}

func (c *Compiler) compileLabeled(s *ast.LabeledStatement) {
	switch body := s.Body.(type) {
	case *ast.WhileStatement:
		body.Label = s.Label
		c.compileStatement(body)
	case *ast.DoWhileStatement:
		body.Label = s.Label
		c.compileStatement(body)
	case *ast.ForStatement:
		body.Label = s.Label
		c.compileStatement(body)
	case *ast.ForInStatement:
		body.Label = s.Label
		c.compileStatement(body)
	case *ast.ForOfStatement:
		body.Label = s.Label
		c.compileStatement(body)
	default:
		c.enterLoop(s.Label)
		c.compileStatement(s.Body)
		c.exitLoop()
	}
}

func (c *Compiler) compileWith(s *ast.WithStatement) {
	b := c.cur.b
	c.compileExpression(s.Object)
	b.emit(PushObjectEnvironment)
	c.pushScope(scopeWith)
	c.cur.hasDynamicScope = true
	c.compileStatement(s.Body)
	c.cur.scopes = c.cur.scopes[:len(c.cur.scopes)-1]
	b.emit(PopEnvironment)
}
