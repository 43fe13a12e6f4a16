package parser

import (
	"ttcnlang/internal/ast"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/lexer"
	"ttcnlang/internal/source"
)

type Parser struct {
	file  *source.File
	toks  []lexer.Token
	pos   int
	diags *diag.Bag

	arena     *ast.Arena
	cur       ast.BlockID // block receiving the statements being parsed
	allocated []ast.BlockID
}

func newParser(file *source.File, toks []lexer.Token, arena *ast.Arena, cur ast.BlockID) *Parser {
	return &Parser{file: file, toks: toks, diags: &diag.Bag{}, arena: arena, cur: cur}
}

// Parse parses a whole unit. The unit is returned even when diagnostics
// were reported.
func Parse(file *source.File) (*ast.Unit, *diag.Bag) {
	p := newParser(file, lexer.Lex(file), ast.NewArena(), ast.NoBlock)
	return p.parseUnit(), p.diags
}

func (p *Parser) parseUnit() *ast.Unit {
	u := &ast.Unit{File: p.file, Arena: p.arena}
	if p.match(lexer.TokenModule) {
		name := p.expect(lexer.TokenIdent, "expected module name")
		u.Module = name.Lexeme
		p.expect(lexer.TokenLBrace, "expected `{` after module name")
		p.parseDecls(u, lexer.TokenRBrace)
		p.expect(lexer.TokenRBrace, "expected `}` to end module")
	}
	p.parseDecls(u, lexer.TokenEOF)
	return u
}

func (p *Parser) parseDecls(u *ast.Unit, end lexer.Kind) {
	for !p.at(end) && !p.at(lexer.TokenEOF) {
		if p.match(lexer.TokenSemicolon) {
			continue
		}
		switch p.peek().Kind {
		case lexer.TokenType:
			if c := p.parseComponent(); c != nil {
				u.Components = append(u.Components, c)
			}
		case lexer.TokenFunction, lexer.TokenTestcase, lexer.TokenAltstep:
			if b := p.parseBehavior(); b != nil {
				u.Behaviors = append(u.Behaviors, b)
			}
		case lexer.TokenConst, lexer.TokenTemplate:
			if d, _ := p.parseDefinition(); d != nil {
				u.Globals = append(u.Globals, d)
			}
		default:
			p.errorHere("expected `type`, `function`, `testcase`, `altstep`, `const` or `template`")
			p.advance()
		}
	}
}

func (p *Parser) parseComponent() *ast.Component {
	startTok := p.advance() // `type`
	p.expect(lexer.TokenComponent, "expected `component` after `type`")
	nameTok := p.expect(lexer.TokenIdent, "expected component type name")
	if nameTok.Kind != lexer.TokenIdent {
		return nil
	}
	c := &ast.Component{Name: nameTok.Lexeme}
	c.Def = &ast.Definition{Name: c.Name, Kind: ast.DefComponent, S: nameTok.Span, Owner: ast.NoBlock, Comp: c}
	if p.match(lexer.TokenExtends) {
		for {
			base := p.expect(lexer.TokenIdent, "expected component type name after `extends`")
			if base.Kind == lexer.TokenIdent {
				c.Extends = append(c.Extends, base.Lexeme)
			}
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenLBrace, "expected `{` to start component body")
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		if p.match(lexer.TokenSemicolon) {
			continue
		}
		switch p.peek().Kind {
		case lexer.TokenVar, lexer.TokenConst, lexer.TokenTimer, lexer.TokenPort, lexer.TokenTemplate:
			if d, _ := p.parseDefinition(); d != nil {
				d.Comp = c
				c.Members = append(c.Members, d)
			}
		default:
			p.errorHere("expected component member definition")
			p.advance()
		}
	}
	rb := p.expect(lexer.TokenRBrace, "expected `}` to end component body")
	c.S = joinSpan(startTok.Span, rb.Span)
	return c
}

func (p *Parser) parseBehavior() *ast.Behavior {
	kw := p.advance()
	b := &ast.Behavior{Body: ast.NoBlock}
	defKind := ast.DefFunction
	switch kw.Kind {
	case lexer.TokenTestcase:
		b.Kind, defKind = ast.BehaviorTestcase, ast.DefTestcase
	case lexer.TokenAltstep:
		b.Kind, defKind = ast.BehaviorAltstep, ast.DefAltstep
	}
	nameTok := p.expect(lexer.TokenIdent, "expected "+b.Kind.String()+" name")
	if nameTok.Kind != lexer.TokenIdent {
		return nil
	}
	b.Name, b.NameSpan = nameTok.Lexeme, nameTok.Span
	b.Def = &ast.Definition{Name: b.Name, Kind: defKind, S: nameTok.Span, Owner: ast.NoBlock, Behavior: b}
	b.Params = p.parseParams()
	if p.match(lexer.TokenRuns) {
		p.expect(lexer.TokenOn, "expected `on` after `runs`")
		ct := p.expect(lexer.TokenIdent, "expected component type after `runs on`")
		b.RunsOn, b.RunsOnSpan = ct.Lexeme, ct.Span
	}
	if p.match(lexer.TokenReturn) {
		if b.Kind != ast.BehaviorFunction {
			p.errorAt(p.prev().Span, "only functions may declare a return type")
		}
		b.ReturnType, _ = p.parseTypeName()
	}

	saved := p.cur
	p.cur = ast.NoBlock
	setup := func(blk *ast.Block) {
		blk.Behavior = b
		blk.Implicit = b.Params
		for _, d := range b.Params {
			d.Owner = blk.ID
		}
	}
	if b.Kind == ast.BehaviorAltstep {
		b.Body, b.Guards = p.parseAltstepBody(setup)
	} else {
		b.Body = p.parseBlock(setup)
	}
	p.cur = saved
	b.S = joinSpan(kw.Span, p.prev().Span)
	return b
}

func (p *Parser) parseParams() []*ast.Definition {
	p.expect(lexer.TokenLParen, "expected `(` to start formal parameter list")
	var out []*ast.Definition
	if p.match(lexer.TokenRParen) {
		return out
	}
	for {
		switch p.peek().Kind {
		case lexer.TokenIn, lexer.TokenOut, lexer.TokenInout:
			p.advance()
		}
		d := &ast.Definition{Kind: ast.DefParam, Owner: ast.NoBlock}
		switch {
		case p.match(lexer.TokenTimer):
			d.TypeName = "timer"
		default:
			p.match(lexer.TokenTemplate)
			d.TypeName, _ = p.parseTypeName()
		}
		nameTok := p.expect(lexer.TokenIdent, "expected parameter name")
		if nameTok.Kind == lexer.TokenIdent {
			d.Name, d.S = nameTok.Lexeme, nameTok.Span
			out = append(out, d)
		}
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRParen, "expected `)` to end formal parameter list")
	return out
}

func (p *Parser) parseTypeName() (string, source.Span) {
	tok := p.expect(lexer.TokenIdent, "expected type name")
	if tok.Kind != lexer.TokenIdent {
		return "", tok.Span
	}
	return tok.Lexeme, tok.Span
}

// parseDefinition parses `var T x [:= e]`, `const T x := e`, `timer t [:= e]`,
// `port T p` and `template T x := e`.
func (p *Parser) parseDefinition() (*ast.Definition, source.Span) {
	kw := p.advance()
	d := &ast.Definition{Owner: ast.NoBlock}
	switch kw.Kind {
	case lexer.TokenVar:
		d.Kind = ast.DefVar
		if p.match(lexer.TokenTemplate) {
			d.Kind = ast.DefTemplate
		}
	case lexer.TokenConst:
		d.Kind = ast.DefConst
	case lexer.TokenTimer:
		d.Kind, d.TypeName = ast.DefTimer, "timer"
	case lexer.TokenPort:
		d.Kind = ast.DefPort
	case lexer.TokenTemplate:
		d.Kind = ast.DefTemplate
	}
	if d.Kind != ast.DefTimer {
		d.TypeName, _ = p.parseTypeName()
	}
	nameTok := p.expect(lexer.TokenIdent, "expected definition name")
	if nameTok.Kind != lexer.TokenIdent {
		return nil, kw.Span
	}
	d.Name, d.S = nameTok.Lexeme, nameTok.Span
	if p.match(lexer.TokenAssign) {
		d.Init = p.parseExpr(0)
	} else if d.Kind == ast.DefConst || (d.Kind == ast.DefTemplate && kw.Kind == lexer.TokenTemplate) {
		p.errorAt(nameTok.Span, "expected `:=` and a value for `"+d.Name+"'")
	}
	return d, joinSpan(kw.Span, p.prev().Span)
}

// helpers
func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) prev() lexer.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *Parser) at(k lexer.Kind) bool { return p.peek().Kind == k }

func (p *Parser) match(k lexer.Kind) bool {
	if p.at(k) {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) advance() lexer.Token {
	t := p.peek()
	if t.Kind != lexer.TokenEOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind, msg string) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorAt(p.peek().Span, msg)
	return p.peek()
}

func (p *Parser) errorHere(msg string) {
	p.errorAt(p.peek().Span, msg)
}

func (p *Parser) errorAt(s source.Span, msg string) {
	p.diags.Report(diag.Error, s, msg)
}

func joinSpan(a source.Span, b source.Span) source.Span { return source.Join(a, b) }
