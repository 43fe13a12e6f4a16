package parser

import (
	"ttcnlang/internal/ast"
	"ttcnlang/internal/lexer"
)

func (p *Parser) parseAlt() *ast.Statement {
	tok := p.advance()
	kind := ast.StmtAlt
	if tok.Kind == lexer.TokenInterleave {
		kind = ast.StmtInterleave
	}
	st := ast.NewStatement(kind, tok.Span)
	st.Guards = p.parseGuardBlock()
	st.S = joinSpan(tok.Span, p.prev().Span)
	return st
}

// parseGuardBlock parses `{ [..] op {..} ... }`.
func (p *Parser) parseGuardBlock() *ast.AltGuards {
	p.expect(lexer.TokenLBrace, "expected `{` to start alternatives")
	g := p.parseGuards()
	p.expect(lexer.TokenRBrace, "expected `}` to end alternatives")
	return g
}

func (p *Parser) parseGuards() *ast.AltGuards {
	g := &ast.AltGuards{}
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		if p.match(lexer.TokenSemicolon) {
			continue
		}
		if !p.at(lexer.TokenLBracket) {
			p.errorHere("expected `[` to start an alternative")
			p.advance()
			continue
		}
		if gd := p.parseGuard(); gd != nil {
			g.Guards = append(g.Guards, gd)
		}
	}
	return g
}

func (p *Parser) parseGuard() *ast.AltGuard {
	lb := p.advance() // `[`
	gd := &ast.AltGuard{Body: ast.NoBlock}
	isElse := false
	if p.match(lexer.TokenElse) {
		isElse = true
	} else if !p.at(lexer.TokenRBracket) {
		gd.Cond = p.parseExpr(0)
	}
	p.expect(lexer.TokenRBracket, "expected `]` after guard condition")
	if isElse {
		gd.Kind = ast.GuardElse
		gd.Body = p.parseBlock(guardBlock)
		gd.S = joinSpan(lb.Span, p.prev().Span)
		return gd
	}

	switch p.peek().Kind {
	case lexer.TokenAny, lexer.TokenAll:
		target := p.parseAnyRef()
		if target == nil {
			return nil
		}
		gd.Kind = ast.GuardOperation
		gd.Op = p.parseCommTail(target)
	case lexer.TokenIdent:
		ref := p.parseRef()
		if sel, ok := ref.(*ast.SelectorExpr); ok && isCommOp(sel.Sel) {
			gd.Kind = ast.GuardOperation
			gd.Op = p.parseCommOp(sel.X, sel.Sel, sel.S)
			break
		}
		if !p.at(lexer.TokenLParen) {
			p.errorAt(ref.Span(), "expected a communication operation or an altstep instance")
			return nil
		}
		gd.Call = p.parseCall(ref)
		gd.Kind = ast.GuardReferenced
		if sel, ok := ref.(*ast.SelectorExpr); ok && sel.Sel == "apply" {
			gd.Kind = ast.GuardInvoke
		}
	default:
		p.errorHere("expected guard operation")
		return nil
	}
	if gd.Kind == ast.GuardOperation && gd.Op == nil {
		return nil
	}
	if p.at(lexer.TokenLBrace) {
		gd.Body = p.parseBlock(guardBlock)
	}
	gd.S = joinSpan(lb.Span, p.prev().Span)
	return gd
}

// parseAltstepBody parses the local definitions of an altstep followed by
// its alternatives. The definitions form the outermost block.
func (p *Parser) parseAltstepBody(setup func(*ast.Block)) (ast.BlockID, *ast.AltGuards) {
	lbrace := p.expect(lexer.TokenLBrace, "expected `{` to start altstep body")
	if lbrace.Kind != lexer.TokenLBrace {
		return ast.NoBlock, nil
	}
	b := p.newBlock(lbrace.Span)
	setup(b)
	saved := p.cur
	p.cur = b.ID
	for {
		if p.match(lexer.TokenSemicolon) {
			continue
		}
		k := p.peek().Kind
		if k != lexer.TokenVar && k != lexer.TokenConst && k != lexer.TokenTimer && k != lexer.TokenTemplate {
			break
		}
		if st := p.parseStmt(); st != nil {
			b.Stmts = append(b.Stmts, st)
		}
	}
	guards := p.parseGuards()
	p.cur = saved
	rbrace := p.expect(lexer.TokenRBrace, "expected `}` to end altstep body")
	b.S = joinSpan(lbrace.Span, rbrace.Span)
	b.Renumber(p.arena)
	return b.ID, guards
}
