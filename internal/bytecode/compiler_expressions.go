package bytecode

import (
	"github.com/jsvm/jsvm/internal/ast"
	"github.com/jsvm/jsvm/internal/object"
)

var binaryOpcodes = map[string]OpCode{
	"+": Add, "-": Sub, "*": Mul, "/": Div, "%": Mod, "**": Pow,
	"&": BitAnd, "|": BitOr, "^": BitXor, "<<": Shl, ">>": Shr, ">>>": UShr,
	"==": Eq, "!=": NotEq, "===": StrictEq, "!==": StrictNotEq,
	"<": Lt, "<=": LtEq, ">": Gt, ">=": GtEq,
	"instanceof": InstanceOf, "in": In,
}

// compileExpression lowers e, leaving exactly one Value on the
// evaluation stack.
func (c *Compiler) compileExpression(e ast.Expression) {
	b := c.cur.b
	b.mark(e.Span())
	switch n := e.(type) {
	case *ast.Literal:
		c.compileLiteral(n)
	case *ast.Identifier:
		c.compileIdentifierRef(n.Name)
	case *ast.ThisExpression:
		b.emit(This)
	case *ast.TemplateLiteral:
		c.compileTemplateLiteral(n)
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(n)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(n)
	case *ast.SpreadElement:
		c.compileExpression(n.Argument) // bare-spread compile is handled by call-site flattening
	case *ast.MemberExpression:
		c.compileMemberGet(n)
	case *ast.CallExpression:
		c.compileCall(n)
	case *ast.NewExpression:
		c.compileNew(n)
	case *ast.SuperCallExpression:
		c.compileSuperCall(n)
	case *ast.UnaryExpression:
		c.compileUnary(n)
	case *ast.UpdateExpression:
		c.compileUpdate(n)
	case *ast.AwaitExpression:
		c.compileExpression(n.Argument)
		b.emit(Await)
	case *ast.YieldExpression:
		c.compileYield(n)
	case *ast.BinaryExpression:
		c.compileExpression(n.Left)
		c.compileExpression(n.Right)
		if op, ok := binaryOpcodes[n.Op]; ok {
			b.emit(op)
		} else {
			c.errorf(n.Span(), "unknown binary operator %q", n.Op)
		}
	case *ast.LogicalExpression:
		c.compileLogical(n)
	case *ast.ConditionalExpression:
		c.compileConditional(n)
	case *ast.AssignmentExpression:
		c.compileAssignment(n)
	case *ast.SequenceExpression:
		for i, sub := range n.Expressions {
			if i > 0 {
				b.emit(Pop)
			}
			c.compileExpression(sub)
		}
	case *ast.FunctionExpression:
		name := ""
		if n.Name != nil {
			name = n.Name.Name
		}
		c.compileFunctionExpr(name, n.Params, n.Body, n.Kind, n.Strict)
	case *ast.ArrowFunctionExpression:
		c.compileArrowFunction(n)
	case *ast.ClassExpression:
		c.compileClass(n.Name, n.SuperClass, n.Body)
	case *ast.TaggedTemplateExpression:
		c.compileExpression(n.Tag)
		c.compileTemplateLiteral(n.Quasi)
		b.emitU16(Call, 1)
	case *ast.PrivateIdentifier:
		sym := c.interner.Intern(n.Name)
		idx := b.addName(sym)
		b.emitU16(InPrivate, idx)
	default:
		c.errorf(e.Span(), "compiler: unsupported expression node %T", e)
		b.emit(PushUndefined)
	}
}

func (c *Compiler) compileLiteral(n *ast.Literal) {
	b := c.cur.b
	switch n.Kind {
	case ast.LitNull:
		b.emit(PushNull)
	case ast.LitBool:
		if n.BoolValue {
			b.emit(PushTrue)
		} else {
			b.emit(PushFalse)
		}
	case ast.LitNumber:
		b.emitNumber(n.NumberValue)
	case ast.LitBigInt:
		bi, ok := object.NewBigInt(n.BigIntDigits)
		if !ok {
			c.errorf(n.Span(), "invalid BigInt literal %q", n.BigIntDigits)
			b.emit(PushUndefined)
			return
		}
		idx := b.addConstant(bi)
		b.emitU32(PushLiteral, idx)
	case ast.LitString:
		idx := b.addConstant(object.StringValue(n.StringValue))
		b.emitU32(PushLiteral, idx)
	case ast.LitRegex:
		bodyIdx := b.addConstant(object.StringValue(n.RegexBody))
		flagsIdx := b.addConstant(object.StringValue(n.RegexFlags))
		b.code = append(b.code, byte(PushRegExp))
		var buf [4]byte
		putU16(buf[0:2], uint16(bodyIdx))
		putU16(buf[2:4], uint16(flagsIdx))
		b.code = append(b.code, buf[:]...)
		b.trackEffect(PushRegExp)
	}
}

func putU16(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}

// compileIdentifierRef resolves name to a BindingLocator and emits the
// matching read opcode.
func (c *Compiler) compileIdentifierRef(name string) {
	b := c.cur.b
	if name == "undefined" {
		b.emit(PushUndefined)
		return
	}
	kind, depth, slot, _ := c.resolveName(name)
	sym := c.interner.Intern(name)
	switch kind {
	case BindLocal:
		loc := BindingLocator{Kind: BindLocal, EnvDepth: depth, Slot: slot, Name: sym}
		idx := b.addBinding(loc)
		b.emitU16(GetLocal, idx)
	case BindGlobal:
		idx := b.addName(sym)
		b.emitU16(GetName, idx)
	default:
		idx := b.addName(sym)
		b.emitU16(GetName, idx)
	}
}

func (c *Compiler) compileTemplateLiteral(n *ast.TemplateLiteral) {
	b := c.cur.b
	idx := b.addConstant(object.StringValue(n.Quasis[0]))
	b.emitU32(PushLiteral, idx)
	for i, expr := range n.Expressions {
		c.compileExpression(expr)
		qidx := b.addConstant(object.StringValue(n.Quasis[i+1]))
		b.emitU32(PushLiteral, qidx)
		b.emitU16(Concat, 3)
	}
}

func (c *Compiler) compileArrayLiteral(n *ast.ArrayLiteral) {
	b := c.cur.b
	b.emit(PushNewArray)
	hasSpread := false
	for i, el := range n.Elements {
		if el == nil {
			continue // elision: leaves a hole
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			hasSpread = true
			c.compileExpression(sp.Argument)
			b.emit(GetIterator)
			b.emit(IteratorToArray) // appends iterator's remaining values onto the array beneath it
			continue
		}
		c.compileExpression(el)
		idx := b.addConstant(object.Number(float64(i)))
		b.emitU32(DefineArrayElement, idx)
	}
	// A trailing elision (e.g. `[1, 2,]` has none, but `[1, , ]` does)
	// leaves the array's length one short of the literal's element
	// count unless the last slot was itself written; force it.
	if count := len(n.Elements); count > 0 && n.Elements[count-1] == nil && !hasSpread {
		b.emit(Dup)
		b.emitNumber(float64(count))
		idx := b.addName(c.interner.Intern("length"))
		b.emitU16(SetPropertyByName, idx)
		b.emit(Pop)
	}
}

func (c *Compiler) compileObjectLiteral(n *ast.ObjectLiteral) {
	b := c.cur.b
	b.emit(PushEmptyObject)
	for _, prop := range n.Properties {
		if prop.Kind == ast.PropSpread {
			c.compileExpression(prop.Key) // the spread's source expression is parsed into Key
			b.emit(CopyDataProperties)
			continue
		}
		c.compilePropertyKey(prop.Key, prop.Computed)
		c.compileExpression(prop.Value)
		switch prop.Kind {
		case ast.PropGet:
			b.emit(DefinePropertyGetterByValue)
		case ast.PropSet:
			b.emit(DefinePropertySetterByValue)
		default:
			b.emit(DefineOwnPropertyByValue)
		}
	}
}

// compilePropertyKey pushes a property key Value (string or symbol)
// for DefineOwnPropertyByValue-family opcodes.
func (c *Compiler) compilePropertyKey(key ast.Expression, computed bool) {
	b := c.cur.b
	if computed {
		c.compileExpression(key)
		b.emit(ToPropertyKey)
		return
	}
	switch k := key.(type) {
	case *ast.Identifier:
		idx := b.addConstant(object.StringValue(k.Name))
		b.emitU32(PushLiteral, idx)
	case *ast.Literal:
		c.compileLiteral(k)
	default:
		c.compileExpression(key)
		b.emit(ToPropertyKey)
	}
}

func (c *Compiler) compileMemberGet(n *ast.MemberExpression) {
	b := c.cur.b
	if _, ok := n.Object.(*ast.SuperExpression); ok {
		b.emit(This)
		c.compilePropertyKey(n.Property, n.Computed)
		b.emit(GetPropertyByValue) // VM resolves against HomeObject's prototype, receiver = this
		return
	}
	c.compileExpression(n.Object)
	if n.Optional {
		b.emit(Dup)
		lbl := b.emitJump(JumpIfNullOrUndefined)
		c.emitMemberRead(n)
		endLbl := b.emitJump(Jump)
		b.patchJump(lbl)
		b.emit(Pop)
		b.emit(PushUndefined)
		b.patchJump(endLbl)
		return
	}
	c.emitMemberRead(n)
}

func (c *Compiler) emitMemberRead(n *ast.MemberExpression) {
	b := c.cur.b
	if !n.Computed {
		if id, ok := n.Property.(*ast.Identifier); ok {
			idx := b.addName(c.interner.Intern(id.Name))
			b.emitU16(GetPropertyByName, idx)
			return
		}
	}
	c.compileExpression(n.Property)
	b.emit(GetPropertyByValue)
}

func (c *Compiler) compileCall(n *ast.CallExpression) {
	b := c.cur.b
	hasSpread := false
	for _, a := range n.Args {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
		}
	}
	// this-binding: method calls pass the object as `this`.
	switch callee := n.Callee.(type) {
	case *ast.MemberExpression:
		if sup, ok := callee.Object.(*ast.SuperExpression); ok {
			_ = sup
			b.emit(This)
			b.emit(Dup)
			c.compilePropertyKey(callee.Property, callee.Computed)
			b.emit(GetPropertyByValue) // stack left as [this, func]: the dup supplied the lookup object, the original this survives beneath for the call's receiver
		} else {
			c.compileExpression(callee.Object)
			b.emit(Dup)
			c.emitMemberRead(callee) // leaves [this, func] directly; no swap needed
		}
	default:
		c.compileExpression(n.Callee)
		b.emit(PushUndefined) // this = undefined for a bare function call
		b.emit(Swap)
	}
	argc := c.compileArguments(n.Args)
	if hasSpread {
		b.emitU16(CallSpread, uint16(argc))
	} else {
		b.emitU16(Call, uint16(argc))
	}
}

// compileArguments pushes each argument left-to-right and returns the
// count for non-spread calls; spread arguments are pre-flattened into
// an array the VM's CallSpread recognizes as its sole stack operand.
func (c *Compiler) compileArguments(args []ast.Expression) int {
	b := c.cur.b
	hasSpread := false
	for _, a := range args {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
		}
	}
	if !hasSpread {
		for _, a := range args {
			c.compileExpression(a)
		}
		return len(args)
	}
	b.emit(PushNewArray)
	for i, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			c.compileExpression(sp.Argument)
			b.emit(GetIterator)
			b.emit(IteratorToArray)
			continue
		}
		c.compileExpression(a)
		idx := b.addConstant(object.Number(float64(i)))
		b.emitU32(DefineArrayElement, idx)
	}
	return -1
}

func (c *Compiler) compileNew(n *ast.NewExpression) {
	b := c.cur.b
	c.compileExpression(n.Callee)
	hasSpread := false
	for _, a := range n.Args {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
		}
	}
	argc := c.compileArguments(n.Args)
	if hasSpread {
		b.emitU16(NewSpread, 0)
	} else {
		b.emitU16(New, uint16(argc))
	}
}

func (c *Compiler) compileSuperCall(n *ast.SuperCallExpression) {
	b := c.cur.b
	hasSpread := false
	for _, a := range n.Args {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
		}
	}
	argc := c.compileArguments(n.Args)
	if hasSpread {
		b.emitU16(SuperCallSpread, 0)
	} else {
		b.emitU16(SuperCall, uint16(argc))
	}
	b.emit(SuperCallDerived) // binds `this` in the derived constructor's environment
}

var unaryOpcodes = map[ast.UnaryOp]OpCode{
	ast.UnaryTypeof: Typeof, ast.UnaryVoid: Void, ast.UnaryPlus: UnaryPlus,
	ast.UnaryMinus: UnaryMinus, ast.UnaryBitNot: BitNot, ast.UnaryNot: LogicalNot,
}

func (c *Compiler) compileUnary(n *ast.UnaryExpression) {
	b := c.cur.b
	if n.Op == ast.UnaryDelete {
		c.compileDelete(n.Argument)
		return
	}
	if n.Op == ast.UnaryTypeof {
		if id, ok := n.Argument.(*ast.Identifier); ok {
			kind, depth, slot, _ := c.resolveName(id.Name)
			sym := c.interner.Intern(id.Name)
			if kind == BindLocal {
				idx := b.addBinding(BindingLocator{Kind: BindLocal, EnvDepth: depth, Slot: slot, Name: sym})
				b.emitU16(GetLocal, idx)
			} else {
				idx := b.addName(sym)
				b.emitU16(GetNameOrUndefined, idx)
			}
			b.emit(Typeof)
			return
		}
	}
	c.compileExpression(n.Argument)
	b.emit(unaryOpcodes[n.Op])
}

func (c *Compiler) compileDelete(target ast.Expression) {
	b := c.cur.b
	switch t := target.(type) {
	case *ast.MemberExpression:
		c.compileExpression(t.Object)
		if !t.Computed {
			if id, ok := t.Property.(*ast.Identifier); ok {
				idx := b.addName(c.interner.Intern(id.Name))
				b.emitU16(DeletePropertyByName, idx)
				return
			}
		}
		c.compileExpression(t.Property)
		b.emit(DeletePropertyByValue)
	case *ast.Identifier:
		idx := b.addName(c.interner.Intern(t.Name))
		b.emitU16(DeleteName, idx)
	default:
		b.emit(PushTrue)
	}
}

func (c *Compiler) compileUpdate(n *ast.UpdateExpression) {
	b := c.cur.b
	op := IncPost
	if n.Op == "--" {
		op = DecPost
	}
	if n.Prefix {
		if n.Op == "++" {
			op = Inc
		} else {
			op = Dec
		}
	}
	c.compileReadModifyWrite(n.Argument, func() { b.emit(op) })
}

// compileReadModifyWrite reads target, applies modify (which consumes
// the old value and must leave exactly the opcode's stack effect
// behind: postfix ops leave the old value under the new one,
// compound-assignment leaves only the new value), then writes the
// result back through the same reference.
func (c *Compiler) compileReadModifyWrite(target ast.Expression, modify func()) {
	b := c.cur.b
	switch t := target.(type) {
	case *ast.Identifier:
		kind, depth, slot, mutable := c.resolveName(t.Name)
		sym := c.interner.Intern(t.Name)
		if kind == BindLocal {
			idx := b.addBinding(BindingLocator{Kind: BindLocal, EnvDepth: depth, Slot: slot, Name: sym, Mutable: mutable})
			b.emitU16(GetLocal, idx)
			modify()
			b.emitU16(SetLocal, idx)
		} else {
			idx := b.addName(sym)
			b.emitU16(GetName, idx)
			modify()
			b.emitU16(SetName, idx)
		}
	case *ast.MemberExpression:
		if !t.Computed {
			if id, ok := t.Property.(*ast.Identifier); ok {
				c.compileExpression(t.Object)
				b.emit(Dup)
				idx := b.addName(c.interner.Intern(id.Name))
				b.emitU16(GetPropertyByName, idx)
				modify()
				// stack: [obj, newval] — exactly what SetPropertyByName
				// expects (object, then the value to assign).
				b.emitU16(SetPropertyByName, idx)
				return
			}
		}
		c.compileExpression(t.Object)
		c.compileExpression(t.Property)
		b.emit(Dup2) // [obj, key, obj, key]
		b.emit(GetPropertyByValue)
		modify()
		// stack: [obj, key, newval] — exactly what SetPropertyByValue
		// expects.
		b.emit(SetPropertyByValue)
	default:
		c.errorf(target.Span(), "invalid assignment target")
	}
}

func (c *Compiler) compileYield(n *ast.YieldExpression) {
	b := c.cur.b
	if n.Argument != nil {
		c.compileExpression(n.Argument)
	} else {
		b.emit(PushUndefined)
	}
	if n.Delegate {
		b.emit(GeneratorDelegateNext)
	} else if c.cur.flags&FlagAsync != 0 {
		b.emit(AsyncGeneratorYield)
	} else {
		b.emit(GeneratorYield)
	}
}

func (c *Compiler) compileLogical(n *ast.LogicalExpression) {
	b := c.cur.b
	c.compileExpression(n.Left)
	b.emit(Dup)
	var lbl label
	switch n.Op {
	case "&&":
		lbl = b.emitJump(JumpIfFalse)
	case "||":
		lbl = b.emitJump(JumpIfTrue)
	case "??":
		lbl = b.emitJump(JumpIfNotUndefined) // approximation: treated as not-nullish gate, refined by VM nullish check
	}
	b.emit(Pop)
	c.compileExpression(n.Right)
	b.patchJump(lbl)
}

func (c *Compiler) compileConditional(n *ast.ConditionalExpression) {
	b := c.cur.b
	c.compileExpression(n.Test)
	elseLbl := b.emitJump(JumpIfFalse)
	c.compileExpression(n.Consequent)
	endLbl := b.emitJump(Jump)
	b.patchJump(elseLbl)
	c.compileExpression(n.Alternate)
	b.patchJump(endLbl)
}

func (c *Compiler) compileAssignment(n *ast.AssignmentExpression) {
	b := c.cur.b
	if n.Op == "=" {
		if mem, ok := n.Target.(*ast.MemberExpression); ok {
			c.compileExpression(mem.Object)
			if !mem.Computed {
				if id, ok := mem.Property.(*ast.Identifier); ok {
					c.compileExpression(n.Value)
					// stack: [obj, val] — exactly what SetPropertyByName expects.
					idx := b.addName(c.interner.Intern(id.Name))
					b.emitU16(SetPropertyByName, idx)
					return
				}
			}
			c.compileExpression(mem.Property)
			c.compileExpression(n.Value)
			// stack: [obj, key, val] — exactly what SetPropertyByValue expects.
			b.emit(SetPropertyByValue)
			return
		}
		if pat, ok := n.Target.(ast.Pattern); ok {
			if _, isID := pat.(*ast.Identifier); !isID {
				c.compileExpression(n.Value)
				b.emit(Dup)
				c.compileDestructuringAssign(pat)
				return
			}
		}
		c.compileExpression(n.Value)
		b.emit(Dup)
		c.compileAssignTo(n.Target.(ast.Expression))
		return
	}
	switch n.Op {
	case "&&=", "||=", "??=":
		target := n.Target.(ast.Expression)
		c.compileExpression(target)
		b.emit(Dup)
		var lbl label
		switch n.Op {
		case "&&=":
			lbl = b.emitJump(JumpIfFalse)
		case "||=":
			lbl = b.emitJump(JumpIfTrue)
		case "??=":
			lbl = b.emitJump(JumpIfNotUndefined)
		}
		b.emit(Pop)
		c.compileExpression(n.Value)
		b.emit(Dup)
		c.compileAssignTo(target)
		b.patchJump(lbl)
	default:
		target := n.Target.(ast.Expression)
		binOp := n.Op[:len(n.Op)-1]
		c.compileReadModifyWrite(target, func() {
			c.compileExpression(n.Value)
			if op, ok := binaryOpcodes[binOp]; ok {
				b.emit(op)
			}
		})
	}
}

// compileAssignTo writes the (already-on-stack, duplicated) value to a
// simple assignment target.
func (c *Compiler) compileAssignTo(target ast.Expression) {
	b := c.cur.b
	switch t := target.(type) {
	case *ast.Identifier:
		kind, depth, slot, mutable := c.resolveName(t.Name)
		sym := c.interner.Intern(t.Name)
		if kind == BindLocal {
			if !mutable {
				idx := b.addName(sym)
				b.emitU16(ThrowMutateImmutable, idx)
				return
			}
			idx := b.addBinding(BindingLocator{Kind: BindLocal, EnvDepth: depth, Slot: slot, Name: sym, Mutable: mutable})
			b.emitU16(SetLocal, idx)
		} else {
			idx := b.addName(sym)
			b.emitU16(SetName, idx)
		}
	default:
		c.errorf(target.Span(), "invalid assignment target")
	}
}

func (c *Compiler) compileDestructuringAssign(pat ast.Pattern) {
	// Minimal destructuring-assignment lowering: delegate to the same
	// pattern-binding machinery declarations use, treating the target
	// as already-declared references rather than fresh bindings.
	c.bindPattern(pat, false, false)
}
