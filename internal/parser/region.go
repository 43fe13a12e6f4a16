package parser

import (
	"fmt"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/lexer"
	"ttcnlang/internal/source"
)

// ParseFailure is returned when a region does not parse into a clean
// statement list.
type ParseFailure struct {
	Diags diag.Bag
}

func (e *ParseFailure) Error() string {
	if len(e.Diags.Items) == 0 {
		return "parse failure"
	}
	first := e.Diags.Items[0]
	return fmt.Sprintf("parse failure at %s:%d:%d: %s (%d problems)", first.Filename, first.Line, first.Col, first.Msg, len(e.Diags.Items))
}

// ParseStatements parses file.Input[start:end] as a statement sequence
// owned by parent. New blocks are allocated in arena; on failure they are
// released again and a *ParseFailure is returned.
func ParseStatements(arena *ast.Arena, parent ast.BlockID, file *source.File, start, end int) ([]*ast.Statement, error) {
	p := newParser(file, lexer.LexRange(file, start, end), arena, parent)
	holder := &ast.Block{ID: parent}
	p.parseStatementsUntil(holder, lexer.TokenEOF)
	if p.diags.Len() > 0 {
		for _, id := range p.allocated {
			arena.Release(id)
		}
		return nil, &ParseFailure{Diags: *p.diags}
	}
	return holder.Stmts, nil
}

// Region adapts the package to the parser the incremental reparser drives.
type Region struct{}

func (Region) ParseStatements(arena *ast.Arena, parent ast.BlockID, file *source.File, start, end int) ([]*ast.Statement, error) {
	return ParseStatements(arena, parent, file, start, end)
}

func (Region) CanExtend(st *ast.Statement, text string) bool { return CanExtend(st, text) }

func (Region) CanPrefix(st *ast.Statement, text string) bool { return CanPrefix(st, text) }

func tokensOf(text string) []lexer.Token {
	toks := lexer.Lex(source.NewFile("", text))
	return toks[:len(toks)-1] // drop EOF
}

// CanExtend reports whether text placed right after st could continue it,
// so that st has to be parsed together with text.
func CanExtend(st *ast.Statement, text string) bool {
	toks := tokensOf(text)
	if len(toks) == 0 {
		return false
	}
	first := toks[0].Kind
	switch st.Kind {
	case ast.StmtIf:
		if first == lexer.TokenElse {
			last := st.Clauses[len(st.Clauses)-1]
			return !last.Else
		}
	case ast.StmtTry, ast.StmtBlock, ast.StmtWhile, ast.StmtFor, ast.StmtCatch, ast.StmtAlt, ast.StmtInterleave, ast.StmtSelect:
		return false
	case ast.StmtDoWhile:
		return false
	}
	if endsWithTerminator(st) {
		return false
	}
	return continuesExpr(first)
}

// CanPrefix reports whether text placed right before st could take st in
// as part of a larger statement.
func CanPrefix(st *ast.Statement, text string) bool {
	toks := tokensOf(text)
	if len(toks) == 0 {
		return false
	}
	last := toks[len(toks)-1].Kind
	switch last {
	case lexer.TokenRParen, lexer.TokenElse, lexer.TokenDo, lexer.TokenTry, lexer.TokenRBracket:
		return st.Kind == ast.StmtBlock
	case lexer.TokenAssign, lexer.TokenReturn, lexer.TokenComma, lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenDot:
		return true
	}
	_, prec := (&Parser{toks: toks[len(toks)-1:]}).peekInfix()
	return prec > 0
}

func endsWithTerminator(st *ast.Statement) bool {
	f := st.S.File
	if f == nil || st.S.End == 0 || st.S.End > len(f.Input) {
		return false
	}
	switch f.Input[st.S.End-1] {
	case ';', '}':
		return true
	}
	return false
}

func continuesExpr(k lexer.Kind) bool {
	switch k {
	case lexer.TokenDot, lexer.TokenLBracket, lexer.TokenLParen, lexer.TokenAssign, lexer.TokenArrow:
		return true
	}
	_, prec := (&Parser{toks: []lexer.Token{{Kind: k}}}).peekInfix()
	return prec > 0
}
