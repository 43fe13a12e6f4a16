package ast

import "ttcnlang/internal/source"

// spanMap rewrites one span. Spans without a file are left alone.
type spanMap func(source.Span) source.Span

// shiftFrom moves spans starting at or after at, and stretches the end of
// spans reaching past at.
func shiftFrom(at, delta int) spanMap {
	return func(s source.Span) source.Span {
		switch {
		case s.File == nil:
		case s.Start >= at:
			s = s.Shifted(delta)
		case s.End > at:
			s.End += delta
		}
		return s
	}
}

// ShiftAfter moves the parts of st that lie at or after offset at by delta
// bytes. The block skip is not touched; it was updated in place.
func (a *Arena) ShiftAfter(st *Statement, at, delta int, skip BlockID) {
	if delta == 0 || st == nil {
		return
	}
	a.moveStatement(st, shiftFrom(at, delta), skip)
}

// ShiftBehavior moves the parts of a behavior at or after at by delta.
func (a *Arena) ShiftBehavior(b *Behavior, at, delta int) {
	if delta == 0 {
		return
	}
	m := shiftFrom(at, delta)
	b.S = m(b.S)
	b.NameSpan = m(b.NameSpan)
	b.RunsOnSpan = m(b.RunsOnSpan)
	if b.Def != nil {
		b.Def.S = m(b.Def.S)
	}
	if a.Block(b.Body) != nil {
		a.moveBlock(b.Body, m, NoBlock) // moves the parameters too
	} else {
		for _, d := range b.Params {
			moveDef(d, m)
		}
	}
	if b.Guards != nil {
		a.moveGuards(b.Guards, m, NoBlock)
		a.moveGuardBodies(b.Guards, m)
	}
}

// ShiftGuard moves the parts of an altstep alternative and its body at or
// after at by delta.
func (a *Arena) ShiftGuard(g *AltGuard, at, delta int) {
	if delta == 0 || g == nil {
		return
	}
	one := &AltGuards{Guards: []*AltGuard{g}}
	m := shiftFrom(at, delta)
	a.moveGuards(one, m, NoBlock)
	a.moveGuardBodies(one, m)
}

func ShiftComponent(c *Component, at, delta int) {
	m := shiftFrom(at, delta)
	c.S = m(c.S)
	if c.Def != nil {
		c.Def.S = m(c.Def.S)
	}
	for _, d := range c.Members {
		moveDef(d, m)
	}
}

func ShiftDefinition(d *Definition, at, delta int) { moveDef(d, shiftFrom(at, delta)) }

func (a *Arena) moveStatement(st *Statement, m spanMap, skip BlockID) {
	st.S = m(st.S)
	st.NameSpan = m(st.NameSpan)
	if st.Def != nil {
		moveDef(st.Def, m)
	}
	moveExpr(st.Target, m)
	moveExpr(st.Value, m)
	moveExpr(st.Redirect, m)
	for _, e := range st.Args {
		moveExpr(e, m)
	}
	for _, c := range st.Clauses {
		c.S = m(c.S)
		moveExpr(c.Cond, m)
		for _, v := range c.Values {
			moveExpr(v, m)
		}
	}
	if st.Step != nil {
		a.moveStatement(st.Step, m, skip)
	}
	if st.Guards != nil {
		a.moveGuards(st.Guards, m, skip)
	}
	for _, id := range st.Blocks() {
		if id != skip {
			a.moveBlock(id, m, skip)
		}
	}
}

// moveGuards rewrites the guard spans; guard bodies are blocks of the
// owning statement and are moved with them.
func (a *Arena) moveGuards(g *AltGuards, m spanMap, skip BlockID) {
	for _, it := range g.Guards {
		it.S = m(it.S)
		moveExpr(it.Cond, m)
		if it.Call != nil {
			moveExpr(it.Call, m)
		}
		if it.Op != nil {
			a.moveStatement(it.Op, m, skip)
		}
	}
}

func (a *Arena) moveGuardBodies(g *AltGuards, m spanMap) {
	for _, it := range g.Guards {
		a.moveBlock(it.Body, m, NoBlock)
	}
}

// moveBlock rewrites the block span, its statements and its diagnostics.
// Escape spans are left alone; a moved block is invalidated or freed.
func (a *Arena) moveBlock(id BlockID, m spanMap, skip BlockID) {
	b := a.Block(id)
	if b == nil {
		return
	}
	f := b.S.File
	b.S = m(b.S)
	for _, d := range b.Implicit {
		moveDef(d, m)
	}
	for _, st := range b.Stmts {
		a.moveStatement(st, m, skip)
	}
	for i := range b.Diags.Items {
		it := &b.Diags.Items[i]
		s := m(source.Span{File: f, Start: it.Start, End: it.End})
		it.Start, it.End = s.Start, s.End
	}
}

func moveDef(d *Definition, m spanMap) {
	d.S = m(d.S)
	moveExpr(d.Init, m)
}

// WalkStatements calls fn for every statement in the block tree rooted at
// id, parents before children.
func (a *Arena) WalkStatements(id BlockID, fn func(*Block, *Statement)) {
	b := a.Block(id)
	if b == nil {
		return
	}
	for _, st := range b.Stmts {
		fn(b, st)
		for _, child := range st.Blocks() {
			if child == st.Header {
				// the header holds the initializer only
				hb := a.Block(child)
				if hb != nil {
					for _, init := range hb.Stmts {
						fn(hb, init)
					}
				}
				continue
			}
			a.WalkStatements(child, fn)
		}
	}
}
