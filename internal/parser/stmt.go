package parser

import (
	"ttcnlang/internal/ast"
	"ttcnlang/internal/lexer"
	"ttcnlang/internal/source"
)

func (p *Parser) newBlock(s source.Span) *ast.Block {
	b := p.arena.New(p.cur, s)
	p.allocated = append(p.allocated, b.ID)
	return b
}

func (p *Parser) blockSpan(id ast.BlockID) source.Span {
	if b := p.arena.Block(id); b != nil {
		return b.S
	}
	return p.prev().Span
}

// parseBlock parses `{ statements }` into a new block below p.cur.
func (p *Parser) parseBlock(setup func(*ast.Block)) ast.BlockID {
	lbrace := p.expect(lexer.TokenLBrace, "expected `{`")
	if lbrace.Kind != lexer.TokenLBrace {
		return ast.NoBlock
	}
	b := p.newBlock(lbrace.Span)
	if setup != nil {
		setup(b)
	}
	saved := p.cur
	p.cur = b.ID
	p.parseStatementsUntil(b, lexer.TokenRBrace)
	p.cur = saved
	rbrace := p.expect(lexer.TokenRBrace, "expected `}`")
	b.S = joinSpan(lbrace.Span, rbrace.Span)
	b.Renumber(p.arena)
	return b.ID
}

func (p *Parser) parseStatementsUntil(b *ast.Block, end lexer.Kind) {
	for !p.at(end) && !p.at(lexer.TokenEOF) {
		if p.match(lexer.TokenSemicolon) {
			continue
		}
		before := p.pos
		st := p.parseStmt()
		if st != nil {
			b.Stmts = append(b.Stmts, st)
		} else if p.pos == before {
			p.advance()
		}
	}
}

func loopBlock(b *ast.Block) { b.Loop = true }

func guardBlock(b *ast.Block) { b.AltGuard = true }

// parseStmt parses one statement including its optional `;`.
func (p *Parser) parseStmt() *ast.Statement {
	st := p.parseStmtBody()
	if st == nil {
		return nil
	}
	if p.match(lexer.TokenSemicolon) {
		st.S = joinSpan(st.S, p.prev().Span)
	}
	return st
}

func (p *Parser) parseStmtBody() *ast.Statement {
	switch p.peek().Kind {
	case lexer.TokenVar, lexer.TokenConst, lexer.TokenTimer, lexer.TokenTemplate:
		return p.parseDefStmt()
	case lexer.TokenPort:
		p.errorHere("port definitions are only allowed in component types")
		p.parseDefinition()
		return nil
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenSelect:
		return p.parseSelect()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenGoto, lexer.TokenLabel:
		return p.parseJump()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenLBrace:
		st := ast.NewStatement(ast.StmtBlock, p.peek().Span)
		st.Body = p.parseBlock(nil)
		st.S = p.blockSpan(st.Body)
		return st
	case lexer.TokenTry:
		tok := p.advance()
		st := ast.NewStatement(ast.StmtTry, tok.Span)
		st.Body = p.parseBlock(nil)
		st.S = joinSpan(tok.Span, p.blockSpan(st.Body))
		return st
	case lexer.TokenCatch:
		return p.parseCatch()
	case lexer.TokenAlt, lexer.TokenInterleave:
		return p.parseAlt()
	case lexer.TokenRepeat:
		return ast.NewStatement(ast.StmtRepeat, p.advance().Span)
	case lexer.TokenBreak:
		return ast.NewStatement(ast.StmtBreak, p.advance().Span)
	case lexer.TokenContinue:
		return ast.NewStatement(ast.StmtContinue, p.advance().Span)
	case lexer.TokenStop:
		return ast.NewStatement(ast.StmtStopExec, p.advance().Span)
	case lexer.TokenLog:
		tok := p.advance()
		st := ast.NewStatement(ast.StmtLog, tok.Span)
		st.Args = p.parseArgs("log")
		st.S = joinSpan(tok.Span, p.prev().Span)
		return st
	case lexer.TokenSetverdict:
		tok := p.advance()
		st := ast.NewStatement(ast.StmtSetverdict, tok.Span)
		args := p.parseArgs("setverdict")
		if len(args) == 0 {
			p.errorAt(tok.Span, "setverdict requires a verdict")
		} else {
			st.Value, st.Args = args[0], args[1:]
		}
		st.S = joinSpan(tok.Span, p.prev().Span)
		return st
	case lexer.TokenActivate:
		tok := p.advance()
		st := ast.NewStatement(ast.StmtActivate, tok.Span)
		if args := p.parseArgs("activate"); len(args) == 1 {
			st.Value = args[0]
		} else {
			p.errorAt(tok.Span, "activate requires exactly one altstep instance")
		}
		st.S = joinSpan(tok.Span, p.prev().Span)
		return st
	case lexer.TokenDeactivate:
		tok := p.advance()
		st := ast.NewStatement(ast.StmtDeactivate, tok.Span)
		if p.at(lexer.TokenLParen) {
			if args := p.parseArgs("deactivate"); len(args) > 0 {
				st.Value = args[0]
			}
		}
		st.S = joinSpan(tok.Span, p.prev().Span)
		return st
	case lexer.TokenAny, lexer.TokenAll:
		target := p.parseAnyRef()
		if target == nil {
			return nil
		}
		return p.parseCommTail(target)
	case lexer.TokenIdent:
		return p.parseRefStmt()
	}
	p.errorHere("expected statement")
	return nil
}

func (p *Parser) parseDefStmt() *ast.Statement {
	d, s := p.parseDefinition()
	if d == nil {
		return nil
	}
	st := ast.NewStatement(ast.StmtDef, s)
	st.Def = d
	return st
}

// parseRefStmt handles statements starting with a reference: assignment,
// communication operations and invocations.
func (p *Parser) parseRefStmt() *ast.Statement {
	ref := p.parseRef()
	if p.at(lexer.TokenAssign) {
		p.advance()
		value := p.parseExpr(0)
		st := ast.NewStatement(ast.StmtAssign, joinSpan(ref.Span(), value.Span()))
		st.Target, st.Value = ref, value
		return st
	}
	if sel, ok := ref.(*ast.SelectorExpr); ok && isCommOp(sel.Sel) {
		return p.parseCommOp(sel.X, sel.Sel, sel.S)
	}
	if p.at(lexer.TokenLParen) {
		call := p.parseCall(ref)
		st := ast.NewStatement(ast.StmtInvoke, call.S)
		st.Value = call
		return st
	}
	p.errorAt(ref.Span(), "expected assignment, communication operation or invocation")
	return nil
}

// parseCommTail expects `.op` after an `any`/`all` reference.
func (p *Parser) parseCommTail(target ast.Expr) *ast.Statement {
	p.expect(lexer.TokenDot, "expected `.` after `any` or `all` reference")
	opTok := p.advance()
	name := opTok.Lexeme
	if !isCommOp(name) {
		p.errorAt(opTok.Span, "expected communication operation")
		return nil
	}
	return p.parseCommOp(target, name, joinSpan(target.Span(), opTok.Span))
}

var commOps = map[string]bool{
	"send": true, "receive": true, "trigger": true, "check": true, "getcall": true,
	"getreply": true, "catch": true, "reply": true, "raise": true, "call": true,
	"start": true, "stop": true, "timeout": true, "done": true, "killed": true,
}

func isCommOp(name string) bool { return commOps[name] }

func (p *Parser) parseCommOp(target ast.Expr, name string, s source.Span) *ast.Statement {
	var st *ast.Statement
	switch name {
	case "timeout":
		st = ast.NewStatement(ast.StmtTimeout, s)
	case "done":
		st = ast.NewStatement(ast.StmtDone, s)
	case "killed":
		st = ast.NewStatement(ast.StmtKilled, s)
	case "start":
		st = ast.NewStatement(ast.StmtStart, s)
	case "stop":
		st = ast.NewStatement(ast.StmtStop, s)
	default:
		op, _ := ast.LookupPortOp(name)
		st = ast.NewStatement(ast.StmtPortOp, s)
		st.Op = op
	}
	st.Target = target
	if p.at(lexer.TokenLParen) {
		st.Args = p.parseArgs(name)
	}
	if st.Kind == ast.StmtPortOp && st.Op == ast.OpCall && p.at(lexer.TokenLBrace) {
		st.Guards = p.parseGuardBlock()
	}
	if p.match(lexer.TokenArrow) {
		p.expect(lexer.TokenValue, "expected `value` after `->`")
		st.Redirect = p.parseRef()
	}
	st.S = joinSpan(s, p.prev().Span)
	return st
}

func (p *Parser) parseArgs(what string) []ast.Expr {
	p.expect(lexer.TokenLParen, "expected `(` after "+what)
	var args []ast.Expr
	if !p.at(lexer.TokenRParen) {
		for {
			args = append(args, p.parseExpr(0))
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenRParen, "expected `)`")
	return args
}

func (p *Parser) parseIf() *ast.Statement {
	ifTok := p.advance()
	st := ast.NewStatement(ast.StmtIf, ifTok.Span)
	start := ifTok.Span
	for {
		p.expect(lexer.TokenLParen, "expected `(` after `if`")
		cond := p.parseExpr(0)
		p.expect(lexer.TokenRParen, "expected `)` after condition")
		body := p.parseBlock(nil)
		st.Clauses = append(st.Clauses, &ast.Clause{Cond: cond, Body: body, S: joinSpan(start, p.blockSpan(body))})
		if !p.at(lexer.TokenElse) {
			break
		}
		elseTok := p.advance()
		if p.match(lexer.TokenIf) {
			start = elseTok.Span
			continue
		}
		body = p.parseBlock(nil)
		st.Clauses = append(st.Clauses, &ast.Clause{Else: true, Body: body, S: joinSpan(elseTok.Span, p.blockSpan(body))})
		break
	}
	st.S = joinSpan(ifTok.Span, p.prev().Span)
	return st
}

func (p *Parser) parseSelect() *ast.Statement {
	selTok := p.advance()
	st := ast.NewStatement(ast.StmtSelect, selTok.Span)
	p.expect(lexer.TokenLParen, "expected `(` after `select`")
	st.Value = p.parseExpr(0)
	p.expect(lexer.TokenRParen, "expected `)` after select expression")
	p.expect(lexer.TokenLBrace, "expected `{` to start select body")
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		caseTok := p.expect(lexer.TokenCase, "expected `case`")
		if caseTok.Kind != lexer.TokenCase {
			p.advance()
			continue
		}
		c := &ast.Clause{}
		if p.match(lexer.TokenElse) {
			c.Else = true
		} else {
			c.Values = p.parseArgs("case")
		}
		c.Body = p.parseBlock(nil)
		c.S = joinSpan(caseTok.Span, p.blockSpan(c.Body))
		st.Clauses = append(st.Clauses, c)
	}
	rb := p.expect(lexer.TokenRBrace, "expected `}` to end select body")
	st.S = joinSpan(selTok.Span, rb.Span)
	return st
}

func (p *Parser) parseWhile() *ast.Statement {
	tok := p.advance()
	st := ast.NewStatement(ast.StmtWhile, tok.Span)
	p.expect(lexer.TokenLParen, "expected `(` after `while`")
	st.Value = p.parseExpr(0)
	p.expect(lexer.TokenRParen, "expected `)` after condition")
	st.Body = p.parseBlock(loopBlock)
	st.S = joinSpan(tok.Span, p.blockSpan(st.Body))
	return st
}

func (p *Parser) parseDoWhile() *ast.Statement {
	tok := p.advance()
	st := ast.NewStatement(ast.StmtDoWhile, tok.Span)
	st.Body = p.parseBlock(loopBlock)
	p.expect(lexer.TokenWhile, "expected `while` after do body")
	p.expect(lexer.TokenLParen, "expected `(` after `while`")
	st.Value = p.parseExpr(0)
	rp := p.expect(lexer.TokenRParen, "expected `)` after condition")
	st.S = joinSpan(tok.Span, rp.Span)
	return st
}

// parseFor builds a header block holding the initializer; the loop body
// is a child of the header.
func (p *Parser) parseFor() *ast.Statement {
	tok := p.advance()
	st := ast.NewStatement(ast.StmtFor, tok.Span)
	lp := p.expect(lexer.TokenLParen, "expected `(` after `for`")
	header := p.newBlock(lp.Span)
	header.Header = true
	st.Header = header.ID

	saved := p.cur
	p.cur = header.ID
	var init *ast.Statement
	switch p.peek().Kind {
	case lexer.TokenVar, lexer.TokenConst:
		init = p.parseDefStmt()
	case lexer.TokenIdent:
		init = p.parseRefStmt()
	default:
		p.errorHere("expected loop initializer")
	}
	if init != nil {
		header.Stmts = append(header.Stmts, init)
	}
	p.expect(lexer.TokenSemicolon, "expected `;` after loop initializer")
	st.Value = p.parseExpr(0)
	p.expect(lexer.TokenSemicolon, "expected `;` after loop condition")
	if p.at(lexer.TokenIdent) {
		st.Step = p.parseRefStmt()
		if st.Step != nil && st.Step.Kind != ast.StmtAssign {
			p.errorAt(st.Step.S, "loop step must be an assignment")
		}
	} else {
		p.errorHere("expected loop step")
	}
	rp := p.expect(lexer.TokenRParen, "expected `)` after loop step")
	header.S = joinSpan(lp.Span, rp.Span)
	header.Renumber(p.arena)
	st.Body = p.parseBlock(loopBlock)
	p.cur = saved
	st.S = joinSpan(tok.Span, p.blockSpan(st.Body))
	return st
}

func (p *Parser) parseJump() *ast.Statement {
	tok := p.advance()
	kind := ast.StmtGoto
	if tok.Kind == lexer.TokenLabel {
		kind = ast.StmtLabel
	}
	st := ast.NewStatement(kind, tok.Span)
	name := p.expect(lexer.TokenIdent, "expected label name")
	if name.Kind == lexer.TokenIdent {
		st.Name, st.NameSpan = name.Lexeme, name.Span
		st.S = joinSpan(tok.Span, name.Span)
	}
	return st
}

func (p *Parser) parseReturn() *ast.Statement {
	tok := p.advance()
	st := ast.NewStatement(ast.StmtReturn, tok.Span)
	if canStartExpr(p.peek().Kind) {
		st.Value = p.parseExpr(0)
		st.S = joinSpan(tok.Span, st.Value.Span())
	}
	return st
}

func (p *Parser) parseCatch() *ast.Statement {
	tok := p.advance()
	st := ast.NewStatement(ast.StmtCatch, tok.Span)
	p.expect(lexer.TokenLParen, "expected `(` after `catch`")
	name := p.expect(lexer.TokenIdent, "expected exception variable name")
	p.expect(lexer.TokenRParen, "expected `)` after exception variable")
	if name.Kind == lexer.TokenIdent {
		st.Name, st.NameSpan = name.Lexeme, name.Span
	}
	st.Body = p.parseBlock(func(b *ast.Block) {
		if st.Name == "" {
			return
		}
		b.Implicit = []*ast.Definition{{
			Name:     st.Name,
			Kind:     ast.DefVar,
			TypeName: "charstring",
			S:        st.NameSpan,
			Owner:    b.ID,
		}}
	})
	st.S = joinSpan(tok.Span, p.blockSpan(st.Body))
	return st
}
