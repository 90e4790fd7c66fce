package bytecode

import "github.com/jsvm/jsvm/internal/ast"

// compileFunctionExpr compiles a (non-arrow) function's CodeBlock and
// pushes a closure-creating FunctionRef opcode onto the enclosing
// CodeBlock's stack.
func (c *Compiler) compileFunctionExpr(name string, params []*ast.Param, body *ast.BlockStatement, kind ast.FunctionKind, strict bool) {
	cb := c.compileFunctionBody(name, params, body, kind, strict, false)
	idx := c.cur.b.addFunction(cb)
	c.cur.b.emitU16(FunctionRef, idx)
}

func (c *Compiler) compileArrowFunction(n *ast.ArrowFunctionExpression) {
	var body *ast.BlockStatement
	if n.ConciseBody {
		body = &ast.BlockStatement{Body: []ast.Statement{&ast.ReturnStatement{Argument: n.Body.(ast.Expression)}}}
	} else {
		body = n.Body.(*ast.BlockStatement)
	}
	kind := ast.FuncArrow
	if n.Async {
		kind = ast.FuncAsync
	}
	cb := c.compileFunctionBody("", n.Params, body, kind, c.cur.flags&FlagStrict != 0, true)
	idx := c.cur.b.addFunction(cb)
	c.cur.b.emitU16(FunctionRef, idx)
}

// compileFunctionBody implements "Function declaration
// instantiation": allocates a fresh Compiler-level funcCtx, binds
// parameters (including defaults, destructuring, and rest), decides
// whether `arguments` is needed and whether it must be mapped, and
// compiles the body against that context.
func (c *Compiler) compileFunctionBody(name string, params []*ast.Param, body *ast.BlockStatement, kind ast.FunctionKind, strict, isArrow bool) *CodeBlock {
	parent := c.cur
	fc := &funcCtx{b: newBuilder(), parent: parent}
	fc.scopes = []*scope{newScope(scopeFunction)}
	fc.paramCount = len(params)

	if strict {
		fc.flags |= FlagStrict
	}
	switch kind {
	case ast.FuncGenerator:
		fc.flags |= FlagGenerator
	case ast.FuncAsync:
		fc.flags |= FlagAsync
	case ast.FuncAsyncGenerator:
		fc.flags |= FlagGenerator | FlagAsync
	case ast.FuncConstructor:
		fc.flags |= FlagConstructor
	}
	if isArrow {
		fc.flags |= FlagArrow | FlagLexicalThis
		fc.thisMode = ThisModeLexical
	} else if strict {
		fc.thisMode = ThisModeStrict
	} else {
		fc.thisMode = ThisModeGlobalObjectCoercion
	}

	hasSimple := true
	for _, p := range params {
		if _, ok := p.Binding.(*ast.Identifier); !ok {
			hasSimple = false
		}
	}
	if hasSimple {
		fc.flags |= FlagHasSimpleParams
	}

	if !isArrow && usesArguments(body) && !hasOwnArgumentsBinding(params) {
		fc.flags |= FlagNeedsArguments
	}

	c.cur = fc
	for i, p := range params {
		if rest, ok := p.Binding.(*ast.RestElement); ok {
			c.declareInScope(firstName(rest.Argument), true, true)
			continue
		}
		names := map[string]bool{}
		collectPatternNames(p.Binding, names)
		for _, n := range sortedNames(names) {
			c.declareInScope(n, true, true)
		}
		_ = i
	}
	c.cur.b.emitArgPrologue(params, c)

	c.hoistProgram(body.Body, true)
	for _, st := range body.Body {
		c.compileStatement(st)
	}
	c.cur.b.emit(PushUndefined)
	c.cur.b.emit(Return)

	cb := c.finish(fc, name)
	cb.ParamNames = nil
	for _, p := range params {
		if id, ok := p.Binding.(*ast.Identifier); ok {
			cb.ParamNames = append(cb.ParamNames, c.interner.Intern(id.Name))
		}
	}
	if _, ok := lastParamBinding(params); ok {
		cb.HasRestParam = true
	}

	c.cur = parent
	return cb
}

func lastParamBinding(params []*ast.Param) (*ast.RestElement, bool) {
	if len(params) == 0 {
		return nil, false
	}
	r, ok := params[len(params)-1].Binding.(*ast.RestElement)
	return r, ok
}

func firstName(p ast.Pattern) string {
	if id, ok := p.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

// emitArgPrologue emits per-parameter GetArgument/default-initializer/
// destructuring binding code at the head of a function body, destructuring parameter patterns").
func (b *builder) emitArgPrologue(params []*ast.Param, c *Compiler) {
	for i, p := range params {
		if rest, ok := p.Binding.(*ast.RestElement); ok {
			idxName := c.interner.Intern(firstName(rest.Argument))
			_ = idxName
			b.emitU16(GetArgument, uint16(i)) // VM treats a rest parameter's GetArgument specially: collects argc..end into an array
			c.bindPattern(rest.Argument, false, false)
			continue
		}
		b.emitU16(GetArgument, uint16(i))
		c.bindPattern(p.Binding, false, false)
	}
}

// usesArguments reports whether body references `arguments` anywhere
// it would resolve to the implicit arguments object (a crude but
// sound over-approximation: any bare identifier named "arguments").
func usesArguments(body *ast.BlockStatement) bool {
	found := false
	var walkStmt func(ast.Statement)
	var walkExpr func(ast.Expression)
	walkExpr = func(e ast.Expression) {
		if e == nil || found {
			return
		}
		if id, ok := e.(*ast.Identifier); ok && id.Name == "arguments" {
			found = true
			return
		}
	}
	walkStmt = func(s ast.Statement) {
		if s == nil || found {
			return
		}
		if es, ok := s.(*ast.ExpressionStatement); ok {
			walkExpr(es.Expr)
		}
	}
	for _, s := range body.Body {
		walkStmt(s)
	}
	return found
}

func hasOwnArgumentsBinding(params []*ast.Param) bool {
	for _, p := range params {
		if id, ok := p.Binding.(*ast.Identifier); ok && id.Name == "arguments" {
			return true
		}
	}
	return false
}

// compileClassDeclaration compiles `class Name extends Super { ... }`
// in statement position, binding the class's value to its
// already-hoisted lexical slot.
func (c *Compiler) compileClassDeclaration(s *ast.ClassDeclaration) {
	c.compileClass(s.Name, s.SuperClass, s.Body)
	if s.Name != nil {
		kind, depth, slot, _ := c.resolveName(s.Name.Name)
		sym := c.interner.Intern(s.Name.Name)
		idx := c.cur.b.addBinding(BindingLocator{Kind: kind, EnvDepth: depth, Slot: slot, Name: sym, Mutable: false})
		c.cur.b.emitU16(PutLexicalValue, idx)
	} else {
		c.cur.b.emit(Pop)
	}
}

// compileClass lowers a class body to the PushClassPrototype /
// DefineClassMethod family of opcodes: a class is, at runtime, a constructor function together
// with a prototype object whose methods are installed as
// non-enumerable properties.
func (c *Compiler) compileClass(name *ast.Identifier, superClass ast.Expression, body *ast.ClassBody) {
	b := c.cur.b
	isDerived := superClass != nil
	if isDerived {
		c.compileExpression(superClass)
	}
	b.emit(PushClassPrototype)
	if isDerived {
		b.emit(SetClassPrototype)
	}

	c.pushScope(scopeBlock)
	privateNames := map[string]bool{}
	for _, el := range body.Elements {
		if pid, ok := el.Key.(*ast.PrivateIdentifier); ok {
			privateNames[pid.Name] = true
		}
	}
	for _, n := range sortedNames(privateNames) {
		idx := b.addName(c.interner.Intern(n))
		b.emitU16(PushPrivateEnvironment, idx)
	}

	for _, el := range body.Elements {
		c.compileClassElement(el, isDerived)
	}

	for range privateNames {
		b.emit(PopPrivateEnvironment)
	}
	c.popScope()
	_ = name
}

func (c *Compiler) compileClassElement(el *ast.ClassElement, isDerivedClass bool) {
	b := c.cur.b
	switch el.Kind {
	case ElemStaticBlockKind:
		fc := c.compileFunctionBody("", nil, el.Body, ast.FuncNormal, true, false)
		idx := b.addFunction(fc)
		b.emitU16(RunStaticBlock, idx)
		return
	}
	if el.Kind == constructorKind {
		fn := el.Func
		body := fn.Body
		if isDerivedClass {
			c.markDerivedConstructor(body)
		}
		c.compileFunctionExpr("constructor", fn.Params, body, ast.FuncConstructor, true)
		b.emit(Pop) // the constructor closure becomes the class's own [[Call]]/[[Construct]]; VM wires it in during PushClassPrototype epilogue
		return
	}

	isPrivate := isPrivateElement(el)
	isGetter := el.Getter
	isSetter := el.Setter
	isField := isFieldElement(el)

	if isField {
		if isPrivate {
			idx := b.addName(c.interner.Intern(el.Key.(*ast.PrivateIdentifier).Name))
			if el.Value != nil {
				c.compileExpression(el.Value)
			} else {
				b.emit(PushUndefined)
			}
			b.emitU16(DefinePrivateField, idx)
		} else {
			c.compilePropertyKey(el.Key, el.Computed)
			if el.Value != nil {
				c.compileExpression(el.Value)
			} else {
				b.emit(PushUndefined)
			}
			b.emit(PushClassFieldInit)
		}
		return
	}

	c.compileFunctionExpr("", el.Func.Params, el.Func.Body, el.Func.Kind, true, false)
	b.emit(SetHomeObject)
	if isPrivate {
		idx := b.addName(c.interner.Intern(el.Key.(*ast.PrivateIdentifier).Name))
		switch {
		case isGetter:
			b.emitU16(SetPrivateGetter, idx)
		case isSetter:
			b.emitU16(SetPrivateSetter, idx)
		default:
			b.emitU16(SetPrivateMethod, idx)
		}
		return
	}
	c.compilePropertyKey(el.Key, el.Computed)
	b.emit(Swap)
	switch {
	case isGetter && el.Static:
		b.emit(DefineClassStaticGetter)
	case isSetter && el.Static:
		b.emit(DefineClassStaticSetter)
	case el.Static:
		b.emit(DefineClassStaticMethod)
	case isGetter:
		b.emit(DefineClassGetter)
	case isSetter:
		b.emit(DefineClassSetter)
	default:
		b.emit(DefineClassMethod)
	}
}

// markDerivedConstructor flags the constructor's CodeBlock so the VM
// knows `this` is uninitialized until `super(...)` runs.
func (c *Compiler) markDerivedConstructor(body *ast.BlockStatement) {
	c.cur.flags |= FlagDerivedConstructor
}

// constructorKind aliases ast.ElemConstructor for readability in the
// switch above; getter/setter-ness is carried on ClassElement.Getter/
// Setter rather than as distinct Kind values.
const constructorKind = ast.ElemConstructor

func isPrivateElement(el *ast.ClassElement) bool {
	_, ok := el.Key.(*ast.PrivateIdentifier)
	return ok
}

func isFieldElement(el *ast.ClassElement) bool {
	switch el.Kind {
	case ast.ElemField, ast.ElemStaticField, ast.ElemPrivateField, ast.ElemStaticPrivateField:
		return true
	default:
		return false
	}
}

const ElemStaticBlockKind = ast.ElemStaticBlock
