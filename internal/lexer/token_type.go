package lexer

// TokenType represents the category of a lexical token.
// The token types are organized into logical groups for clarity, the
// same grouping style the rest of this pipeline uses for opcodes and
// AST node kinds.
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota // unexpected character or malformed literal
	EOF                      // end of input
	COMMENT                  // line or block comment (only emitted with WithPreserveComments)

	// Identifiers and literals
	IDENT      // identifiers and keywords-used-as-identifiers
	PRIVATE    // #name private class member name
	NUMBER     // numeric literal (decimal/hex/octal/binary), value in Token.NumValue
	BIGINT     // numeric literal with the 'n' suffix
	STRING     // single- or double-quoted string literal
	REGEX      // /pattern/flags
	TEMPLATE_NOSUBSTITUTION
	TEMPLATE_HEAD   // `...${
	TEMPLATE_MIDDLE // }...${
	TEMPLATE_TAIL   // }...`

	literalEnd // marker, not a real token type

	// Keyword literals
	TRUE
	FALSE
	NULL_KW

	// Keywords - declarations
	VAR
	LET
	CONST
	FUNCTION
	CLASS
	EXTENDS
	STATIC

	// Keywords - control flow
	IF
	ELSE
	FOR
	WHILE
	DO
	SWITCH
	CASE
	DEFAULT
	BREAK
	CONTINUE
	RETURN
	THROW
	TRY
	CATCH
	FINALLY
	WITH
	DEBUGGER

	// Keywords - expressions
	NEW
	DELETE
	TYPEOF
	INSTANCEOF
	IN
	OF
	VOID
	THIS
	SUPER
	YIELD
	ASYNC
	AWAIT
	GET
	SET

	keywordEnd // marker, not a real token type

	// Punctuators
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	SEMI     // ;
	COMMA    // ,
	DOT      // .
	ELLIPSIS // ...
	ARROW    // =>
	QUESTION // ?
	QUESTION_DOT    // ?.
	QUESTION_QUESTION // ??
	COLON    // :

	ASSIGN        // =
	PLUS_ASSIGN   // +=
	MINUS_ASSIGN  // -=
	STAR_ASSIGN   // *=
	SLASH_ASSIGN  // /=
	PERCENT_ASSIGN // %=
	POW_ASSIGN    // **=
	SHL_ASSIGN    // <<=
	SHR_ASSIGN    // >>=
	USHR_ASSIGN   // >>>=
	AND_ASSIGN    // &=
	OR_ASSIGN     // |=
	XOR_ASSIGN    // ^=
	LOGICAL_AND_ASSIGN // &&=
	LOGICAL_OR_ASSIGN  // ||=
	NULLISH_ASSIGN     // ??=

	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	POW      // **
	INCR     // ++
	DECR     // --

	EQ        // ==
	NOT_EQ    // !=
	STRICT_EQ // ===
	STRICT_NOT_EQ // !==
	LESS      // <
	GREATER   // >
	LESS_EQ   // <=
	GREATER_EQ // >=

	AMP        // &
	PIPE       // |
	CARET      // ^
	TILDE      // ~
	SHL        // <<
	SHR        // >>
	USHR       // >>>

	BANG        // !
	LOGICAL_AND // &&
	LOGICAL_OR  // ||
)

// tokenNames maps token types to their display name, used by
// disassembly and CLI lexer output.
var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT",
	IDENT: "IDENT", PRIVATE: "PRIVATE", NUMBER: "NUMBER", BIGINT: "BIGINT",
	STRING: "STRING", REGEX: "REGEX",
	TEMPLATE_NOSUBSTITUTION: "TEMPLATE", TEMPLATE_HEAD: "TEMPLATE_HEAD",
	TEMPLATE_MIDDLE: "TEMPLATE_MIDDLE", TEMPLATE_TAIL: "TEMPLATE_TAIL",
	TRUE: "true", FALSE: "false", NULL_KW: "null",
	VAR: "var", LET: "let", CONST: "const", FUNCTION: "function",
	CLASS: "class", EXTENDS: "extends", STATIC: "static",
	IF: "if", ELSE: "else", FOR: "for", WHILE: "while", DO: "do",
	SWITCH: "switch", CASE: "case", DEFAULT: "default", BREAK: "break",
	CONTINUE: "continue", RETURN: "return", THROW: "throw", TRY: "try",
	CATCH: "catch", FINALLY: "finally", WITH: "with", DEBUGGER: "debugger",
	NEW: "new", DELETE: "delete", TYPEOF: "typeof", INSTANCEOF: "instanceof",
	IN: "in", OF: "of", VOID: "void", THIS: "this", SUPER: "super",
	YIELD: "yield", ASYNC: "async", AWAIT: "await", GET: "get", SET: "set",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", SEMI: ";", COMMA: ",", DOT: ".",
	ELLIPSIS: "...", ARROW: "=>", QUESTION: "?", QUESTION_DOT: "?.",
	QUESTION_QUESTION: "??", COLON: ":",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=",
	SLASH_ASSIGN: "/=", PERCENT_ASSIGN: "%=", POW_ASSIGN: "**=",
	SHL_ASSIGN: "<<=", SHR_ASSIGN: ">>=", USHR_ASSIGN: ">>>=",
	AND_ASSIGN: "&=", OR_ASSIGN: "|=", XOR_ASSIGN: "^=",
	LOGICAL_AND_ASSIGN: "&&=", LOGICAL_OR_ASSIGN: "||=", NULLISH_ASSIGN: "??=",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%", POW: "**",
	INCR: "++", DECR: "--",
	EQ: "==", NOT_EQ: "!=", STRICT_EQ: "===", STRICT_NOT_EQ: "!==",
	LESS: "<", GREATER: ">", LESS_EQ: "<=", GREATER_EQ: ">=",
	AMP: "&", PIPE: "|", CARET: "^", TILDE: "~", SHL: "<<", SHR: ">>", USHR: ">>>",
	BANG: "!", LOGICAL_AND: "&&", LOGICAL_OR: "||",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps reserved-word spellings to their TokenType. Identifiers
// not present here lex as IDENT.
var keywords = map[string]TokenType{
	"true": TRUE, "false": FALSE, "null": NULL_KW,
	"var": VAR, "let": LET, "const": CONST, "function": FUNCTION,
	"class": CLASS, "extends": EXTENDS, "static": STATIC,
	"if": IF, "else": ELSE, "for": FOR, "while": WHILE, "do": DO,
	"switch": SWITCH, "case": CASE, "default": DEFAULT, "break": BREAK,
	"continue": CONTINUE, "return": RETURN, "throw": THROW, "try": TRY,
	"catch": CATCH, "finally": FINALLY, "with": WITH, "debugger": DEBUGGER,
	"new": NEW, "delete": DELETE, "typeof": TYPEOF, "instanceof": INSTANCEOF,
	"in": IN, "of": OF, "void": VOID, "this": THIS, "super": SUPER,
	"yield": YIELD, "async": ASYNC, "await": AWAIT, "get": GET, "set": SET,
}

// LookupIdent classifies ident as a keyword TokenType, or IDENT if it is
// not reserved. "of", "get", "set", "async", "await", "yield" are
// contextual keywords: the parser decides per-position whether to treat
// them as identifiers.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsContextualKeyword reports whether tok is one of the contextual
// keywords that are also valid identifier names outside their triggering
// grammar position.
func IsContextualKeyword(tok TokenType) bool {
	switch tok {
	case OF, GET, SET, ASYNC, AWAIT, YIELD, STATIC:
		return true
	default:
		return false
	}
}
