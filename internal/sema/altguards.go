package sema

import (
	"fmt"

	"ttcnlang/internal/ast"
)

type guardContext int

const (
	ctxAlt guardContext = iota
	ctxInterleave
	ctxAltstep
	ctxCall // response and exception handling part of a call
)

func (g guardContext) String() string {
	switch g {
	case ctxInterleave:
		return "interleave statement"
	case ctxAltstep:
		return "altstep"
	case ctxCall:
		return "response and exception handling part of call operation"
	}
	return "alt statement"
}

// checkGuards checks the alternatives of st (nil for an altstep body) in
// order. Diagnostics go into b, the block holding the alternatives.
func (c *Checker) checkGuards(b *ast.Block, st *ast.Statement, g *ast.AltGuards, ctx guardContext) {
	if g == nil {
		return
	}
	if ctx == ctxInterleave {
		c.checkAllowedInterleave(b, st, g)
	}
	afterElse := false
	for _, gd := range g.Guards {
		gd.Erroneous = false
		gd.Unreachable = afterElse
		if afterElse {
			b.Diags.Report(c.opts.ReportUnreachableCode, gd.S, "Control never reaches this branch of alternative because of a previous [else] branch")
		}
		if gd.Cond != nil {
			c.checkCondition(b, st, gd.Cond)
		}
		switch gd.Kind {
		case ast.GuardElse:
			if ctx == ctxCall {
				c.guardError(b, st, gd, "[else] branch is not allowed in the response and exception handling part of call operations")
			}
			afterElse = true
		case ast.GuardOperation:
			c.checkOperationGuard(b, st, gd, ctx)
		case ast.GuardReferenced:
			if ctx == ctxCall {
				c.guardError(b, st, gd, "An altstep instance cannot be used in the response and exception handling part of call operations")
			} else {
				c.checkInvocation(b, c.guardStmt(st, gd), gd.Call, invokeAltstep)
			}
		case ast.GuardInvoke:
			if ctx == ctxCall {
				c.guardError(b, st, gd, "An altstep invocation cannot be used in the response and exception handling part of call operations")
			}
			c.useExpr(b, c.guardStmt(st, gd), gd.Call)
		}
		if body := c.arena.Block(gd.Body); body != nil {
			body.Interleave = ctx == ctxInterleave
			c.checkBlock(gd.Body, nil)
		}
		gd.LastChecked = c.ts
	}
}

// guardStmt is the statement marked erroneous for a failing guard.
func (c *Checker) guardStmt(st *ast.Statement, gd *ast.AltGuard) *ast.Statement {
	if gd.Op != nil {
		return gd.Op
	}
	return st
}

func (c *Checker) guardError(b *ast.Block, st *ast.Statement, gd *ast.AltGuard, msg string) {
	c.errorAt(b, st, gd.S, msg)
	gd.Erroneous = true
}

func (c *Checker) checkOperationGuard(b *ast.Block, st *ast.Statement, gd *ast.AltGuard, ctx guardContext) {
	op := gd.Op
	c.checkKind(b, op)
	op.LastChecked = c.ts
	if op.Erroneous {
		gd.Erroneous = true
	}
	switch op.Kind {
	case ast.StmtTimeout, ast.StmtDone, ast.StmtKilled:
		if ctx == ctxCall && op.Kind != ast.StmtTimeout {
			c.guardError(b, st, gd, fmt.Sprintf("The %s operation cannot be used in the %s", op.Kind, ctx))
		}
		return
	case ast.StmtPortOp:
		if !op.Op.Incoming() {
			c.guardError(b, st, gd, fmt.Sprintf("The %s operation cannot be used as the guard of an alternative", op.Op))
			return
		}
		if ctx == ctxCall && op.Op != ast.OpGetreply && op.Op != ast.OpCatch {
			c.guardError(b, st, gd, fmt.Sprintf("The %s operation cannot be used in the %s", op.Op, ctx))
		}
		return
	}
	c.guardError(b, st, gd, fmt.Sprintf("The %s operation cannot be used as the guard of an alternative", op.Kind))
}

// checkAllowedInterleave rejects the branches interleave does not permit.
func (c *Checker) checkAllowedInterleave(b *ast.Block, st *ast.Statement, g *ast.AltGuards) {
	for _, gd := range g.Guards {
		switch gd.Kind {
		case ast.GuardElse:
			c.guardError(b, st, gd, "[else] branch is not allowed in an interleave statement")
		case ast.GuardReferenced, ast.GuardInvoke:
			c.guardError(b, st, gd, "Invocation of an altstep is not allowed within an interleave statement")
		}
	}
}
