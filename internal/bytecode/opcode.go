package bytecode

// OpCode is a single-byte instruction tag; each opcode's operand width
// is fixed and reported by Width. Names and grouping follow the
// boa_engine VM's opcode module breakdown.
type OpCode uint8

const (
	// --- nop -----------------------------------------------------
	Nop OpCode = iota

	// --- push: literals and simple value construction ------------
	PushUndefined
	PushNull
	PushTrue
	PushFalse
	PushZero
	PushOne
	PushInt8
	PushInt16
	PushInt32
	PushDouble
	PushLiteral // operand: constant-pool index (string/number/bigint)
	PushNewArray
	PushEmptyObject
	PushRegExp // operands: pattern index, flags index (4 bytes total)
	PushClassPrototype
	PushClassField
	PushClassFieldPrivate
	DefineArrayElement // operand: constant-pool index of the element's Number key; stack: [array, value] -> [array]

	// --- pop/dup/swap --------------------------------------
	Pop
	Dup
	Dup2 // duplicates the top two stack items as a pair: [a,b] -> [a,b,a,b]
	Swap

	// --- unary_ops -------------------------------------------------
	Typeof
	Void
	LogicalNot
	UnaryPlus
	UnaryMinus
	BitNot
	Inc
	Dec
	IncPost
	DecPost

	// --- binary_ops --------------------------------------------------
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	UShr
	Eq
	NotEq
	StrictEq
	StrictNotEq
	Lt
	LtEq
	Gt
	GtEq
	InstanceOf
	In

	// --- to: type coercions ----------------------------------------
	ToBooleanOp
	ToPropertyKey
	ToNumeric
	RequireObjectCoercible

	// --- templates ---------------------------------------------------
	Concat // n-ary string concatenation for template literals

	// --- object spread -------------------------------------------------
	CopyDataProperties // stack: [target, source] -> [target]; copies source's own enumerable properties onto target

	// --- bindings ------------------------------------------------
	DefVar
	DefInitVar
	DefLet
	DefConst
	PutLexicalValue
	GetName
	GetNameOrUndefined
	GetLocal  // operand: binding-table index
	SetLocal  // operand: binding-table index
	GetArgument
	SetName
	DeleteName
	ThrowMutateImmutable

	// --- get/set: property access -----------------------------------
	GetPropertyByName
	GetPropertyByValue
	SetPropertyByName
	SetPropertyByValue
	DefineOwnPropertyByName
	DefineOwnPropertyByValue
	DefinePropertyGetterByName
	DefinePropertySetterByName
	DefinePropertyGetterByValue
	DefinePropertySetterByValue
	DeletePropertyByName
	DeletePropertyByValue
	SetHomeObject

	// --- private fields -----------------------------------------
	GetPrivateField
	SetPrivateField
	DefinePrivateField
	SetPrivateMethod
	SetPrivateGetter
	SetPrivateSetter
	PushPrivateEnvironment
	PopPrivateEnvironment
	InPrivate

	// --- classes --------------------------------------------------
	SetClassPrototype
	DefineClassMethod
	DefineClassGetter
	DefineClassSetter
	DefineClassStaticMethod
	DefineClassStaticGetter
	DefineClassStaticSetter
	PushClassFieldInit
	RunStaticBlock

	// --- control_flow -----------------------------------------------
	Jump
	JumpIfTrue
	JumpIfFalse
	JumpIfNotUndefined
	JumpIfNullOrUndefined
	JumpTable // operand: case count, followed by (value,target) pairs + default target
	Case
	Default

	// --- call ------------------------------------------------------
	Call
	CallSpread
	CallEval
	New
	NewSpread
	SuperCall
	SuperCallSpread
	SuperCallDerived
	Return
	GetReturnValue
	SetReturnValue

	// --- environment -------------------------------------------------
	PushDeclarativeEnvironment
	PushFunctionEnvironment
	PushObjectEnvironment
	PopEnvironment
	IncrementLoopIteration

	// --- iteration --------------------------------------------------
	CreateForInIterator
	GetIterator
	GetAsyncIterator
	IteratorNext
	IteratorDone
	IteratorValue
	IteratorReturn
	IteratorToArray
	IteratorPop
	IteratorClose

	// --- generator/suspension -----------------------------------------
	Generator
	GeneratorYield
	AsyncGeneratorYield
	GeneratorNext
	Await
	GeneratorDelegateNext
	GeneratorDelegateResume
	CreatePromiseCapability
	CompletePromiseCapability

	// --- exception ------------------------------------------------
	Throw
	ReThrow
	Exception
	MaybeException
	ThrowNewTypeError
	PushTryHandler
	PopTryHandler
	FinallyStart
	FinallyEnd
	FinallySetJump

	// --- meta --------------------------------------------------------
	This
	NewTarget
	FunctionRef // operand: inner-function table index; pushes a fresh closure

	opCodeCount
)

// Width reports the fixed operand width (in bytes) for an opcode, or
// -1 for opcodes whose operand count is variable and decoded specially
// (JumpTable, unused by the compiler but reserved for a future dense
// switch lowering). The compiler and disassembler both consult this
// table so the two never disagree about instruction boundaries.
func (op OpCode) Width() int {
	switch op {
	case JumpTable:
		return -1
	case PushInt8:
		return 1
	case PushInt16:
		return 2
	case PushInt32, PushDouble, PushLiteral, PushRegExp, DefineArrayElement:
		return 4
	case GetName, GetNameOrUndefined, SetName, DeleteName,
		GetPropertyByName, SetPropertyByName, DefineOwnPropertyByName,
		DefinePropertyGetterByName, DefinePropertySetterByName, DeletePropertyByName,
		GetLocal, SetLocal, GetArgument, FunctionRef,
		Jump, JumpIfTrue, JumpIfFalse, JumpIfNotUndefined, JumpIfNullOrUndefined,
		Call, CallSpread, New, NewSpread, SuperCall, SuperCallSpread, Concat,
		PushPrivateEnvironment, GetPrivateField, SetPrivateField, DefinePrivateField,
		SetPrivateMethod, SetPrivateGetter, SetPrivateSetter, InPrivate,
		PushTryHandler, ThrowNewTypeError, DefVar, DefInitVar, DefLet, DefConst,
		PutLexicalValue, ThrowMutateImmutable, RunStaticBlock:
		return 2
	default:
		return 0
	}
}

var opcodeNames = [...]string{
	Nop: "Nop", PushUndefined: "PushUndefined", PushNull: "PushNull",
	PushTrue: "PushTrue", PushFalse: "PushFalse", PushZero: "PushZero", PushOne: "PushOne",
	PushInt8: "PushInt8", PushInt16: "PushInt16", PushInt32: "PushInt32", PushDouble: "PushDouble",
	PushLiteral: "PushLiteral", PushNewArray: "PushNewArray", PushEmptyObject: "PushEmptyObject",
	PushRegExp: "PushRegExp", PushClassPrototype: "PushClassPrototype",
	PushClassField: "PushClassField", PushClassFieldPrivate: "PushClassFieldPrivate",
	DefineArrayElement: "DefineArrayElement",
	Pop: "Pop", Dup: "Dup", Dup2: "Dup2", Swap: "Swap",
	Typeof: "Typeof", Void: "Void", LogicalNot: "LogicalNot", UnaryPlus: "UnaryPlus",
	UnaryMinus: "UnaryMinus", BitNot: "BitNot", Inc: "Inc", Dec: "Dec",
	IncPost: "IncPost", DecPost: "DecPost",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Mod: "Mod", Pow: "Pow",
	BitAnd: "BitAnd", BitOr: "BitOr", BitXor: "BitXor", Shl: "Shl", Shr: "Shr", UShr: "UShr",
	Eq: "Eq", NotEq: "NotEq", StrictEq: "StrictEq", StrictNotEq: "StrictNotEq",
	Lt: "Lt", LtEq: "LtEq", Gt: "Gt", GtEq: "GtEq", InstanceOf: "InstanceOf", In: "In",
	ToBooleanOp: "ToBoolean", ToPropertyKey: "ToPropertyKey", ToNumeric: "ToNumeric",
	RequireObjectCoercible: "RequireObjectCoercible", Concat: "Concat",
	CopyDataProperties: "CopyDataProperties",
	DefVar: "DefVar", DefInitVar: "DefInitVar", DefLet: "DefLet", DefConst: "DefConst",
	PutLexicalValue: "PutLexicalValue", GetName: "GetName", GetNameOrUndefined: "GetNameOrUndefined",
	GetLocal: "GetLocal", SetLocal: "SetLocal", GetArgument: "GetArgument",
	SetName: "SetName", DeleteName: "DeleteName", ThrowMutateImmutable: "ThrowMutateImmutable",
	GetPropertyByName: "GetPropertyByName", GetPropertyByValue: "GetPropertyByValue",
	SetPropertyByName: "SetPropertyByName", SetPropertyByValue: "SetPropertyByValue",
	DefineOwnPropertyByName: "DefineOwnPropertyByName", DefineOwnPropertyByValue: "DefineOwnPropertyByValue",
	DefinePropertyGetterByName: "DefinePropertyGetterByName", DefinePropertySetterByName: "DefinePropertySetterByName",
	DefinePropertyGetterByValue: "DefinePropertyGetterByValue", DefinePropertySetterByValue: "DefinePropertySetterByValue",
	DeletePropertyByName: "DeletePropertyByName", DeletePropertyByValue: "DeletePropertyByValue",
	SetHomeObject: "SetHomeObject",
	GetPrivateField: "GetPrivateField", SetPrivateField: "SetPrivateField",
	DefinePrivateField: "DefinePrivateField", SetPrivateMethod: "SetPrivateMethod",
	SetPrivateGetter: "SetPrivateGetter", SetPrivateSetter: "SetPrivateSetter",
	PushPrivateEnvironment: "PushPrivateEnvironment", PopPrivateEnvironment: "PopPrivateEnvironment",
	InPrivate: "InPrivate",
	SetClassPrototype: "SetClassPrototype", DefineClassMethod: "DefineClassMethod",
	DefineClassGetter: "DefineClassGetter", DefineClassSetter: "DefineClassSetter",
	DefineClassStaticMethod: "DefineClassStaticMethod", DefineClassStaticGetter: "DefineClassStaticGetter",
	DefineClassStaticSetter: "DefineClassStaticSetter", PushClassFieldInit: "PushClassFieldInit",
	RunStaticBlock: "RunStaticBlock",
	Jump: "Jump", JumpIfTrue: "JumpIfTrue", JumpIfFalse: "JumpIfFalse",
	JumpIfNotUndefined: "JumpIfNotUndefined", JumpIfNullOrUndefined: "JumpIfNullOrUndefined",
	JumpTable: "JumpTable", Case: "Case", Default: "Default",
	Call: "Call", CallSpread: "CallSpread", CallEval: "CallEval",
	New: "New", NewSpread: "NewSpread", SuperCall: "SuperCall",
	SuperCallSpread: "SuperCallSpread", SuperCallDerived: "SuperCallDerived",
	Return: "Return", GetReturnValue: "GetReturnValue", SetReturnValue: "SetReturnValue",
	PushDeclarativeEnvironment: "PushDeclarativeEnvironment", PushFunctionEnvironment: "PushFunctionEnvironment",
	PushObjectEnvironment: "PushObjectEnvironment", PopEnvironment: "PopEnvironment",
	IncrementLoopIteration: "IncrementLoopIteration",
	CreateForInIterator: "CreateForInIterator", GetIterator: "GetIterator", GetAsyncIterator: "GetAsyncIterator",
	IteratorNext: "IteratorNext", IteratorDone: "IteratorDone", IteratorValue: "IteratorValue",
	IteratorReturn: "IteratorReturn", IteratorToArray: "IteratorToArray", IteratorPop: "IteratorPop",
	IteratorClose: "IteratorClose",
	Generator: "Generator", GeneratorYield: "GeneratorYield", AsyncGeneratorYield: "AsyncGeneratorYield",
	GeneratorNext: "GeneratorNext", Await: "Await", GeneratorDelegateNext: "GeneratorDelegateNext",
	GeneratorDelegateResume: "GeneratorDelegateResume", CreatePromiseCapability: "CreatePromiseCapability",
	CompletePromiseCapability: "CompletePromiseCapability",
	Throw: "Throw", ReThrow: "ReThrow", Exception: "Exception", MaybeException: "MaybeException",
	ThrowNewTypeError: "ThrowNewTypeError", PushTryHandler: "PushTryHandler", PopTryHandler: "PopTryHandler",
	FinallyStart: "FinallyStart", FinallyEnd: "FinallyEnd", FinallySetJump: "FinallySetJump",
	This: "This", NewTarget: "NewTarget", FunctionRef: "FunctionRef",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "OpCode(?)"
}
