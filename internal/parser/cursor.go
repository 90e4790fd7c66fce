package parser

import "github.com/jsvm/jsvm/internal/lexer"

// tokenStream is a lazily-filled, indexable buffer over the lexer's
// token sequence. It lets the parser do bounded lookahead and the
// arrow-vs-parenthesized-expression speculative parse
// rewind to an earlier position without re-lexing.
type tokenStream struct {
	lex *lexer.Lexer
	buf []lexer.Token
}

func newTokenStream(l *lexer.Lexer) *tokenStream {
	return &tokenStream{lex: l}
}

func (ts *tokenStream) at(i int) lexer.Token {
	for len(ts.buf) <= i {
		ts.buf = append(ts.buf, ts.lex.NextToken())
	}
	return ts.buf[i]
}

// Mark is an opaque cursor position for save/restore backtracking.
type Mark int

func (p *Parser) mark() Mark { return Mark(p.pos) }

func (p *Parser) resetTo(m Mark) { p.pos = int(m) }
