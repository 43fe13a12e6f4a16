package parser

import (
	"ttcnlang/internal/ast"
	"ttcnlang/internal/lexer"
)

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePrefix()
	for {
		op, prec := p.peekInfix()
		if prec < minPrec || prec < 0 {
			break
		}
		p.advance()
		right := p.parseExpr(prec + 1)
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, S: joinSpan(left.Span(), right.Span())}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenNot:
		p.advance()
		x := p.parseExpr(4)
		return &ast.UnaryExpr{Op: "not", Expr: x, S: joinSpan(tok.Span, x.Span())}
	case lexer.TokenMinus:
		p.advance()
		x := p.parsePostfix(p.parsePrimary())
		return &ast.UnaryExpr{Op: "-", Expr: x, S: joinSpan(tok.Span, x.Span())}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenIdent:
		p.advance()
		return &ast.IdentExpr{Name: tok.Lexeme, S: tok.Span}
	case lexer.TokenInt:
		p.advance()
		return &ast.IntLit{Text: tok.Lexeme, S: tok.Span}
	case lexer.TokenFloat:
		p.advance()
		return &ast.FloatLit{Text: tok.Lexeme, S: tok.Span}
	case lexer.TokenString:
		p.advance()
		return &ast.StringLit{Text: tok.Lexeme, S: tok.Span}
	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == lexer.TokenTrue, S: tok.Span}
	case lexer.TokenPass, lexer.TokenFail, lexer.TokenInconc, lexer.TokenNone, lexer.TokenError:
		p.advance()
		return &ast.VerdictLit{Name: tok.Lexeme, S: tok.Span}
	case lexer.TokenLParen:
		p.advance()
		x := p.parseExpr(0)
		p.expect(lexer.TokenRParen, "expected `)`")
		return x
	}
	p.errorHere("expected expression")
	return &ast.IntLit{Text: "0", S: tok.Span}
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch {
		case p.at(lexer.TokenDot):
			p.advance()
			id := p.expect(lexer.TokenIdent, "expected identifier after `.`")
			x = &ast.SelectorExpr{X: x, Sel: id.Lexeme, S: joinSpan(x.Span(), id.Span)}
		case p.at(lexer.TokenLBracket):
			p.advance()
			idx := p.parseExpr(0)
			rb := p.expect(lexer.TokenRBracket, "expected `]`")
			x = &ast.IndexExpr{X: x, Index: idx, S: joinSpan(x.Span(), rb.Span)}
		case p.at(lexer.TokenLParen):
			x = p.parseCall(x)
		default:
			return x
		}
	}
}

// parseRef parses a reference `a.b[i].c`. It stops before a selector naming
// a communication operation so the caller can build the statement.
func (p *Parser) parseRef() ast.Expr {
	tok := p.expect(lexer.TokenIdent, "expected reference")
	var x ast.Expr = &ast.IdentExpr{Name: tok.Lexeme, S: tok.Span}
	for {
		switch {
		case p.at(lexer.TokenDot):
			next := p.peekN(1)
			switch next.Kind {
			case lexer.TokenIdent, lexer.TokenCatch, lexer.TokenStop:
			default:
				p.advance()
				p.errorHere("expected identifier after `.`")
				return x
			}
			p.advance()
			p.advance()
			x = &ast.SelectorExpr{X: x, Sel: next.Lexeme, S: joinSpan(x.Span(), next.Span)}
			if isCommOp(next.Lexeme) {
				return x
			}
		case p.at(lexer.TokenLBracket):
			p.advance()
			idx := p.parseExpr(0)
			rb := p.expect(lexer.TokenRBracket, "expected `]`")
			x = &ast.IndexExpr{X: x, Index: idx, S: joinSpan(x.Span(), rb.Span)}
		default:
			return x
		}
	}
}

// parseAnyRef parses `any port`, `any timer`, `any component` and
// `all component`.
func (p *Parser) parseAnyRef() ast.Expr {
	tok := p.advance()
	x := &ast.AnyExpr{All: tok.Kind == lexer.TokenAll}
	cls := p.advance()
	switch cls.Kind {
	case lexer.TokenPort:
		x.Class = ast.ClassPort
	case lexer.TokenTimer:
		x.Class = ast.ClassTimer
	case lexer.TokenComponent:
		x.Class = ast.ClassComponent
	default:
		p.errorAt(cls.Span, "expected `port`, `timer` or `component` after `"+tok.Lexeme+"'")
		return nil
	}
	x.S = joinSpan(tok.Span, cls.Span)
	return x
}

func (p *Parser) parseCall(callee ast.Expr) *ast.CallExpr {
	args := p.parseArgs("callee")
	return &ast.CallExpr{Callee: callee, Args: args, S: joinSpan(callee.Span(), p.prev().Span)}
}

func (p *Parser) peekInfix() (string, int) {
	switch p.peek().Kind {
	case lexer.TokenOr:
		return "or", 1
	case lexer.TokenXor:
		return "xor", 2
	case lexer.TokenAnd:
		return "and", 3
	case lexer.TokenEqEq:
		return "==", 5
	case lexer.TokenBangEq:
		return "!=", 5
	case lexer.TokenLt:
		return "<", 6
	case lexer.TokenLtEq:
		return "<=", 6
	case lexer.TokenGt:
		return ">", 6
	case lexer.TokenGtEq:
		return ">=", 6
	case lexer.TokenPlus:
		return "+", 7
	case lexer.TokenMinus:
		return "-", 7
	case lexer.TokenAmp:
		return "&", 7
	case lexer.TokenStar:
		return "*", 8
	case lexer.TokenSlash:
		return "/", 8
	case lexer.TokenMod:
		return "mod", 8
	case lexer.TokenRem:
		return "rem", 8
	}
	return "", -1
}

func canStartExpr(k lexer.Kind) bool {
	switch k {
	case lexer.TokenIdent, lexer.TokenInt, lexer.TokenFloat, lexer.TokenString,
		lexer.TokenTrue, lexer.TokenFalse, lexer.TokenLParen, lexer.TokenMinus, lexer.TokenNot,
		lexer.TokenPass, lexer.TokenFail, lexer.TokenInconc, lexer.TokenNone, lexer.TokenError:
		return true
	}
	return false
}
