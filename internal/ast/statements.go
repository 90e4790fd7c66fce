package ast

// BlockStatement is `{ stmt... }`.
type BlockStatement struct {
	BaseNode
	Body []Statement
}

func (*BlockStatement) statementNode() {}

// ExpressionStatement is an expression evaluated for effect.
type ExpressionStatement struct {
	BaseNode
	Expr Expression
}

func (*ExpressionStatement) statementNode() {}

// EmptyStatement is a bare `;`.
type EmptyStatement struct{ BaseNode }

func (*EmptyStatement) statementNode() {}

// DebuggerStatement is `debugger;` (a no-op at this layer).
type DebuggerStatement struct{ BaseNode }

func (*DebuggerStatement) statementNode() {}

// IfStatement is `if (test) cons else alt`; Alternate is nil when there
// is no else-arm.
type IfStatement struct {
	BaseNode
	Test       Expression
	Consequent Statement
	Alternate  Statement
}

func (*IfStatement) statementNode() {}

// WhileStatement is `while (test) body`.
type WhileStatement struct {
	BaseNode
	Test Expression
	Body Statement
	Label string
}

func (*WhileStatement) statementNode() {}

// DoWhileStatement is `do body while (test)`.
type DoWhileStatement struct {
	BaseNode
	Body Statement
	Test Expression
	Label string
}

func (*DoWhileStatement) statementNode() {}

// ForStatement is the classic C-style `for (init; test; update) body`.
// Init may be a *VariableDeclaration, an Expression, or nil.
type ForStatement struct {
	BaseNode
	Init   Node
	Test   Expression
	Update Expression
	Body   Statement
	Label  string
}

func (*ForStatement) statementNode() {}

// ForInStatement is `for (left in right) body`. Left is a
// *VariableDeclaration (with exactly one declarator) or an assignment
// target Pattern/Expression.
type ForInStatement struct {
	BaseNode
	Left  Node
	Right Expression
	Body  Statement
	Label string
}

func (*ForInStatement) statementNode() {}

// ForOfStatement is `for (left of right) body`; Await marks
// `for await (...)` inside an async function/generator.
type ForOfStatement struct {
	BaseNode
	Left  Node
	Right Expression
	Body  Statement
	Await bool
	Label string
}

func (*ForOfStatement) statementNode() {}

// BreakStatement is `break;` or `break label;`.
type BreakStatement struct {
	BaseNode
	Label string
}

func (*BreakStatement) statementNode() {}

// ContinueStatement is `continue;` or `continue label;`.
type ContinueStatement struct {
	BaseNode
	Label string
}

func (*ContinueStatement) statementNode() {}

// ReturnStatement is `return expr;`; Argument is nil for a bare return.
type ReturnStatement struct {
	BaseNode
	Argument Expression
}

func (*ReturnStatement) statementNode() {}

// ThrowStatement is `throw expr;`.
type ThrowStatement struct {
	BaseNode
	Argument Expression
}

func (*ThrowStatement) statementNode() {}

// CatchClause is the `catch (param) { body }` part of a TryStatement.
// Param is nil for a parameter-less catch; it may be any binding
// Pattern (destructuring catch parameters are legal ECMAScript).
type CatchClause struct {
	BaseNode
	Param Pattern
	Body  *BlockStatement
}

// TryStatement is `try { } catch (e) { } finally { }`; Handler and
// Finalizer are independently optional but not both nil (early error
// enforced by the parser).
type TryStatement struct {
	BaseNode
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

func (*TryStatement) statementNode() {}

// SwitchCase is one `case expr:`/`default:` arm. Test is nil for the
// default arm; at most one default arm is allowed per switch (early
// error enforced by the parser).
type SwitchCase struct {
	BaseNode
	Test       Expression
	Consequent []Statement
}

// SwitchStatement is `switch (disc) { case ...: ... }`.
type SwitchStatement struct {
	BaseNode
	Discriminant Expression
	Cases        []*SwitchCase
}

func (*SwitchStatement) statementNode() {}

// LabeledStatement is `label: stmt`.
type LabeledStatement struct {
	BaseNode
	Label string
	Body  Statement
}

func (*LabeledStatement) statementNode() {}

// WithStatement is `with (obj) body`; only legal in sloppy mode (early
// error in strict mode).
type WithStatement struct {
	BaseNode
	Object Expression
	Body   Statement
}

func (*WithStatement) statementNode() {}
