package ast

// ClassElementKind enumerates the exhaustive variant AST
// invariants require: "A ClassElement is exactly one of: constructor,
// static method, instance method, static field, instance field, private
// variant of each, or static initialization block."
type ClassElementKind int

const (
	ElemConstructor ClassElementKind = iota
	ElemMethod
	ElemStaticMethod
	ElemField
	ElemStaticField
	ElemPrivateMethod
	ElemStaticPrivateMethod
	ElemPrivateField
	ElemStaticPrivateField
	ElemStaticBlock
)

// ClassElement is one member of a ClassBody. Exactly the fields relevant
// to Kind are populated; Key is nil only for ElemStaticBlock.
type ClassElement struct {
	BaseNode
	Kind     ClassElementKind
	Key      Expression // Identifier, PrivateIdentifier, Literal, or computed Expression
	Computed bool
	Value    Expression       // FunctionExpression for methods, initializer Expression for fields (may be nil)
	Func     *FunctionDeclaration // nil unless Kind is one of the method kinds
	Getter   bool
	Setter   bool
	Static   bool
	Body     *BlockStatement // non-nil only for ElemStaticBlock
}

// ClassBody is the `{ ... }` portion of a class declaration/expression.
type ClassBody struct {
	BaseNode
	Elements []*ClassElement
}

// ClassDeclaration is `class Name extends Super { ... }`.
type ClassDeclaration struct {
	BaseNode
	Name       *Identifier // nil only for a default-exported anonymous class
	SuperClass Expression  // nil for a base class
	Body       *ClassBody
}

func (*ClassDeclaration) statementNode() {}

// ClassExpression is the expression-position counterpart of
// ClassDeclaration.
type ClassExpression struct {
	BaseNode
	Name       *Identifier
	SuperClass Expression
	Body       *ClassBody
}

func (*ClassExpression) expressionNode() {}
