package parser

import "github.com/jsvm/jsvm/internal/lexer"

// consumeSemicolon implements Automatic Semicolon Insertion: after a statement production that grammatically wants `;`, a
// semicolon is inserted if the next token is `}`, EOF, or is preceded
// by a line terminator. Otherwise it's a syntax error.
func (p *Parser) consumeSemicolon() {
	if p.accept(lexer.SEMI) {
		return
	}
	if p.at(lexer.RBRACE) || p.at(lexer.EOF) || p.cur().PrecededByNewline {
		return
	}
	p.errorf("expected ';' but found %s %q", p.cur().Type, p.cur().Literal)
}

// restrictedProductionBoundary reports whether a restricted production
// (return/throw/break/continue/yield) ends before the current token:
// true when the token is preceded by a line terminator or is `;`, `}`
// or EOF.
func (p *Parser) restrictedProductionBoundary() bool {
	return p.cur().PrecededByNewline || p.at(lexer.SEMI) || p.at(lexer.RBRACE) || p.at(lexer.EOF)
}
