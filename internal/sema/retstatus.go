package sema

import "ttcnlang/internal/ast"

// Merge folds the statuses of alternative branches. A non-exhaustive set
// of branches also admits the path where none is taken.
func Merge(statuses []ast.ReturnStatus, exhaustive bool) ast.ReturnStatus {
	if !exhaustive {
		statuses = append(statuses[:len(statuses):len(statuses)], ast.ReturnNo)
	}
	if len(statuses) == 0 {
		return ast.ReturnNo
	}
	first := statuses[0]
	for _, s := range statuses[1:] {
		if s != first {
			return ast.ReturnMaybe
		}
	}
	return first
}

// BlockReturn reports the return status of a block, using the cached value
// when it is current or the block was freed.
func (c *Checker) BlockReturn(id ast.BlockID) ast.ReturnStatus {
	b := c.arena.Block(id)
	if b == nil {
		return ast.ReturnNo
	}
	if b.Freed || (!b.RetChecked.IsZero() && !b.RetChecked.IsLess(c.ts)) {
		return b.RetStatus
	}
	b.RetStatus = c.scanReturn(b)
	b.RetChecked = c.ts
	return b.RetStatus
}

func (c *Checker) scanReturn(b *ast.Block) ast.ReturnStatus {
	result := ast.ReturnNo
	for i := 0; i < len(b.Stmts); i++ {
		st := b.Stmts[i]
		var s ast.ReturnStatus
		switch {
		case st.Kind == ast.StmtGoto:
			if !st.JumpsForward {
				continue
			}
			// statements jumped over do not contribute
			j := i + 1
			for j < len(b.Stmts) && !(b.Stmts[j].Kind == ast.StmtLabel && b.Stmts[j].LabelUsed) {
				j++
			}
			i = j - 1
			continue
		case st.Kind == ast.StmtTry && i+1 < len(b.Stmts) && b.Stmts[i+1].Kind == ast.StmtCatch:
			s = Merge([]ast.ReturnStatus{c.BlockReturn(st.Body), c.BlockReturn(b.Stmts[i+1].Body)}, true)
			i++
		default:
			s = c.statementReturn(st)
		}
		switch s {
		case ast.ReturnYes:
			return ast.ReturnYes
		case ast.ReturnMaybe:
			result = ast.ReturnMaybe
		}
	}
	return result
}

func (c *Checker) statementReturn(st *ast.Statement) ast.ReturnStatus {
	switch st.Kind {
	case ast.StmtReturn, ast.StmtStopExec, ast.StmtRepeat:
		return ast.ReturnYes
	case ast.StmtBlock:
		return c.BlockReturn(st.Body)
	case ast.StmtTry, ast.StmtCatch:
		return Merge([]ast.ReturnStatus{c.BlockReturn(st.Body)}, false)
	case ast.StmtIf, ast.StmtSelect:
		var ss []ast.ReturnStatus
		exhaustive := false
		for _, cl := range st.Clauses {
			if cl.Else {
				exhaustive = true
			}
			if cl.Unreachable {
				continue
			}
			ss = append(ss, c.BlockReturn(cl.Body))
		}
		return Merge(ss, exhaustive)
	case ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor:
		if st.Infinite {
			return ast.ReturnYes
		}
		if c.BlockReturn(st.Body) == ast.ReturnNo {
			return ast.ReturnNo
		}
		return ast.ReturnMaybe
	case ast.StmtAlt:
		return c.guardsReturn(st.Guards)
	case ast.StmtInterleave:
		// return, stop and repeat are rejected inside interleave branches
		return ast.ReturnNo
	case ast.StmtPortOp:
		if st.Op == ast.OpCall && st.Guards != nil {
			return c.guardsReturn(st.Guards)
		}
	}
	return ast.ReturnNo
}

// guardsReturn folds the guard bodies up to the first else guard. Without
// an else guard the alternative may be left on a path none of them covers.
func (c *Checker) guardsReturn(g *ast.AltGuards) ast.ReturnStatus {
	if g == nil || len(g.Guards) == 0 {
		return ast.ReturnNo
	}
	var ss []ast.ReturnStatus
	for _, gd := range g.Guards {
		ss = append(ss, c.BlockReturn(gd.Body))
		if gd.Kind == ast.GuardElse {
			break
		}
	}
	return Merge(ss, g.HasElse())
}

// terminating reports whether control cannot reach the statement after st.
func (c *Checker) terminating(st *ast.Statement) bool {
	switch st.Kind {
	case ast.StmtReturn, ast.StmtStopExec, ast.StmtRepeat, ast.StmtGoto, ast.StmtBreak, ast.StmtContinue:
		return true
	case ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor:
		return st.Infinite
	case ast.StmtBlock:
		if b := c.arena.Block(st.Body); b != nil {
			return b.Terminates
		}
	case ast.StmtIf, ast.StmtSelect:
		hasElse := false
		for _, cl := range st.Clauses {
			if cl.Else {
				hasElse = true
			}
			if cl.Unreachable {
				continue
			}
			if b := c.arena.Block(cl.Body); b == nil || !b.Terminates {
				return false
			}
		}
		return hasElse
	case ast.StmtAlt:
		if st.Guards == nil || !st.Guards.HasElse() {
			return false
		}
		for _, gd := range st.Guards.Guards {
			if b := c.arena.Block(gd.Body); b == nil || !b.Terminates {
				return false
			}
			if gd.Kind == ast.GuardElse {
				break
			}
		}
		return true
	}
	return false
}

// terminatesAt is terminating for b.Stmts[i], taking a catch together
// with the try it follows.
func (c *Checker) terminatesAt(b *ast.Block, i int) bool {
	st := b.Stmts[i]
	if st.Kind == ast.StmtCatch && i > 0 && b.Stmts[i-1].Kind == ast.StmtTry {
		return c.bodyTerminates(b.Stmts[i-1].Body) && c.bodyTerminates(st.Body)
	}
	return c.terminating(st)
}

func (c *Checker) bodyTerminates(id ast.BlockID) bool {
	b := c.arena.Block(id)
	return b != nil && b.Terminates
}

func (c *Checker) scanTerminating(b *ast.Block) bool {
	term := false
	for i, st := range b.Stmts {
		if st.Kind == ast.StmtLabel {
			term = false
			continue
		}
		if c.terminatesAt(b, i) {
			term = true
		}
	}
	return term
}
