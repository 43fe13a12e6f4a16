package sema

import (
	"fmt"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/types"
)

func (c *Checker) checkStatement(b *ast.Block, st *ast.Statement) {
	if !st.LastChecked.IsZero() && !st.LastChecked.IsLess(c.ts) {
		return
	}
	c.checkKind(b, st)
	st.LastChecked = c.ts
}

func (c *Checker) checkKind(b *ast.Block, st *ast.Statement) {
	switch st.Kind {
	case ast.StmtGoto, ast.StmtLabel, ast.StmtReturn, ast.StmtRepeat, ast.StmtWhile, ast.StmtDoWhile,
		ast.StmtFor, ast.StmtActivate, ast.StmtDeactivate, ast.StmtStopExec:
		if c.inInterleave(b) {
			c.errorAt(b, st, st.S, fmt.Sprintf("The %s statement is not allowed within an interleave statement", st.Kind))
		}
	}

	switch st.Kind {
	case ast.StmtDef:
		c.useExpr(b, st, st.Def.Init)
		c.register(b, st.Def)
	case ast.StmtAssign:
		c.checkAssign(b, st)
	case ast.StmtInvoke:
		if call, ok := st.Value.(*ast.CallExpr); ok {
			c.checkInvocation(b, st, call, invokeStatement)
		}
	case ast.StmtLog:
		for _, a := range st.Args {
			c.useExpr(b, st, a)
		}
	case ast.StmtSetverdict:
		c.checkSetverdict(b, st)
	case ast.StmtActivate:
		if call, ok := st.Value.(*ast.CallExpr); ok {
			c.checkInvocation(b, st, call, invokeAltstep)
		} else if st.Value != nil {
			c.errorAt(b, st, st.Value.Span(), "Reference to an altstep was expected in the argument of activate()")
		}
	case ast.StmtDeactivate:
		c.useExpr(b, st, st.Value)
	case ast.StmtIf:
		c.checkIf(b, st)
	case ast.StmtSelect:
		c.checkSelect(b, st)
	case ast.StmtWhile, ast.StmtDoWhile:
		c.checkCondition(b, st, st.Value)
		c.checkBlock(st.Body, nil)
		c.loopFacts(b, st)
	case ast.StmtFor:
		c.checkBlock(st.Header, func(h *ast.Block) {
			c.checkCondition(h, st, st.Value)
			if st.Step != nil {
				c.checkKind(h, st.Step)
				st.Step.LastChecked = c.ts
			}
			c.checkBlock(st.Body, nil)
		})
		c.loopFacts(b, st)
	case ast.StmtGoto:
		c.checkGoto(b, st)
	case ast.StmtLabel:
	case ast.StmtReturn:
		c.checkReturn(b, st)
	case ast.StmtBlock, ast.StmtTry, ast.StmtCatch:
		c.checkBlock(st.Body, nil)
	case ast.StmtAlt:
		c.checkGuards(b, st, st.Guards, ctxAlt)
	case ast.StmtInterleave:
		c.checkGuards(b, st, st.Guards, ctxInterleave)
	case ast.StmtRepeat:
		if !c.enclosedBy(b, func(x *ast.Block) bool { return x.AltGuard }) {
			c.errorAt(b, st, st.S, "Repeat statement cannot be used outside alt statements, altsteps or response and exception handling part of call operations")
		}
	case ast.StmtBreak:
		if !c.enclosedBy(b, func(x *ast.Block) bool { return x.Loop || x.AltGuard }) {
			c.errorAt(b, st, st.S, "Break statement cannot be used outside loops, alt or interleave statements, altsteps or response and exception handling part of call operations")
		}
	case ast.StmtContinue:
		if !c.enclosedBy(b, func(x *ast.Block) bool { return x.Loop }) {
			c.errorAt(b, st, st.S, "Continue statement cannot be used outside loops")
		}
	case ast.StmtStopExec:
	case ast.StmtPortOp:
		c.checkPortOp(b, st)
	case ast.StmtTimeout:
		c.checkTarget(b, st, ast.ClassTimer, "timeout")
	case ast.StmtDone, ast.StmtKilled:
		c.checkTarget(b, st, ast.ClassComponent, st.Kind.String())
	case ast.StmtStart, ast.StmtStop:
		c.checkStartStop(b, st)
	}
}

func (c *Checker) enclosedBy(b *ast.Block, pred func(*ast.Block) bool) bool {
	for cur := b; cur != nil; cur = c.arena.Block(cur.Parent) {
		if pred(cur) {
			return true
		}
	}
	return false
}

func (c *Checker) inInterleave(b *ast.Block) bool {
	return c.enclosedBy(b, func(x *ast.Block) bool { return x.Interleave })
}

// use resolves an identifier and reports it when nothing matches.
func (c *Checker) use(b *ast.Block, st *ast.Statement, id *ast.IdentExpr, write bool) (*ast.Definition, bool) {
	d, ok := c.resolve(b, id.Name, write, id.S)
	if !ok {
		c.errorAt(b, st, id.S, fmt.Sprintf("There is no local or imported definition with name `%s'", id.Name))
	}
	return d, ok
}

// useExpr resolves every reference read by e.
func (c *Checker) useExpr(b *ast.Block, st *ast.Statement, e ast.Expr) {
	ast.InspectExpr(e, func(n ast.Expr) bool {
		if id, ok := n.(*ast.IdentExpr); ok {
			c.use(b, st, id, false)
		}
		return true
	})
}

// useRef resolves the root of a reference and the indices along it.
func (c *Checker) useRef(b *ast.Block, st *ast.Statement, e ast.Expr, write bool) (*ast.Definition, bool) {
	for x := e; ; {
		switch r := x.(type) {
		case *ast.IdentExpr:
			return c.use(b, st, r, write)
		case *ast.SelectorExpr:
			x = r.X
		case *ast.IndexExpr:
			c.useExpr(b, st, r.Index)
			x = r.X
		default:
			c.useExpr(b, st, x)
			return nil, false
		}
	}
}

func (c *Checker) scope(b *ast.Block) types.Scope { return scopeView{c, b} }

func (c *Checker) checkCondition(b *ast.Block, st *ast.Statement, e ast.Expr) {
	if e == nil {
		return
	}
	c.useExpr(b, st, e)
	t := c.oracle.StaticTypeOf(e, c.scope(b))
	if t.K != types.TyUnknown && !c.oracle.IsBoolean(t) {
		c.errorAt(b, st, e.Span(), fmt.Sprintf("A value or expression of type boolean was expected instead of %s", t))
	}
}

func (c *Checker) checkAssign(b *ast.Block, st *ast.Statement) {
	d, ok := c.useRef(b, st, st.Target, true)
	c.useExpr(b, st, st.Value)
	if !ok {
		return
	}
	switch d.Kind {
	case ast.DefVar, ast.DefParam, ast.DefTemplate:
		if d.TypeName == "timer" {
			c.errorAt(b, st, st.Target.Span(), fmt.Sprintf("Reference to a variable or template variable was expected instead of timer parameter `%s'", d.Name))
		}
	default:
		c.errorAt(b, st, st.Target.Span(), fmt.Sprintf("Reference to a variable or template variable was expected instead of %s `%s'", d.Kind, d.Name))
	}
}

func (c *Checker) checkSetverdict(b *ast.Block, st *ast.Statement) {
	c.useExpr(b, st, st.Value)
	for _, a := range st.Args {
		c.useExpr(b, st, a)
	}
	if st.Value == nil {
		return
	}
	if v, ok := st.Value.(*ast.VerdictLit); ok && v.Name == "error" {
		c.errorAt(b, st, v.S, "Error verdict cannot be set explicitly")
		return
	}
	if t := c.oracle.StaticTypeOf(st.Value, c.scope(b)); t.K != types.TyUnknown && t.K != types.TyVerdict {
		c.errorAt(b, st, st.Value.Span(), fmt.Sprintf("A value or expression of type verdicttype was expected instead of %s", t))
	}
}

func (c *Checker) checkIf(b *ast.Block, st *ast.Statement) {
	alwaysTaken := false
	for _, cl := range st.Clauses {
		cl.Unreachable = false
		if !cl.Else {
			c.checkCondition(b, st, cl.Cond)
		}
		if alwaysTaken {
			cl.Unreachable = true
			b.Diags.Report(c.opts.ReportUnreachableCode, cl.S, "Control never reaches this branch because a previous condition is always true")
		} else if !cl.Else {
			if v, ok := c.oracle.ConstantBool(cl.Cond); ok {
				if v {
					alwaysTaken = true
				} else {
					cl.Unreachable = true
					b.Diags.Report(c.opts.ReportUnreachableCode, cl.S, "Control never reaches this branch because the condition is always false")
				}
			}
		}
		c.checkBlock(cl.Body, nil)
	}
}

func (c *Checker) checkSelect(b *ast.Block, st *ast.Statement) {
	c.useExpr(b, st, st.Value)
	elseSeen := false
	for _, cl := range st.Clauses {
		cl.Unreachable = false
		switch {
		case cl.Else && elseSeen:
			c.errorAt(b, st, cl.S, "Duplicate `case else'")
			cl.Unreachable = true
		case elseSeen:
			cl.Unreachable = true
			b.Diags.Report(c.opts.ReportUnreachableCode, cl.S, "Control never reaches this code because of a previous `case else'")
		}
		if cl.Else {
			elseSeen = true
		}
		for _, v := range cl.Values {
			c.useExpr(b, st, v)
		}
		c.checkBlock(cl.Body, nil)
	}
}

// loopFacts reports constant loop conditions and decides whether the loop
// never terminates.
func (c *Checker) loopFacts(b *ast.Block, st *ast.Statement) {
	body := c.arena.Block(st.Body)
	if body == nil || st.Value == nil {
		return
	}
	v, ok := c.oracle.ConstantBool(st.Value)
	if ok && !v && st.Kind != ast.StmtDoWhile {
		b.Diags.Report(c.opts.ReportUnreachableCode, body.S, "Control never reaches this code because the conditional expression evaluates to false")
	}
	if !body.Freed {
		st.Infinite = ok && v && c.BlockReturn(st.Body) == ast.ReturnNo && !c.canExit(st.Body)
	}
	if st.Infinite {
		b.Diags.Report(c.opts.ReportInfiniteLoops, st.S, fmt.Sprintf("Infinite loop detected: the program can not escape from this %s statement", st.Kind))
	}
}

// canExit reports whether a break or goto may leave the loop body.
func (c *Checker) canExit(id ast.BlockID) bool {
	b := c.arena.Block(id)
	if b == nil || b.Freed {
		return true
	}
	for _, st := range b.Stmts {
		switch st.Kind {
		case ast.StmtBreak, ast.StmtGoto:
			return true
		case ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor, ast.StmtAlt, ast.StmtInterleave:
			// a break in there leaves the inner construct only
			continue
		}
		for _, child := range st.Blocks() {
			if c.canExit(child) {
				return true
			}
		}
	}
	return false
}

func (c *Checker) checkGoto(b *ast.Block, st *ast.Statement) {
	b.Diags.Report(c.opts.ReportGoto, st.S, "Usage of goto statement is not recommended as it usually breaks the structure of the code")
	lbl, target, path := c.resolveLabel(b, st.Name, st.NameSpan)
	if lbl == nil {
		st.JumpsForward = false
		c.errorAt(b, st, st.NameSpan, fmt.Sprintf("Label `%s' is used, but not defined", st.Name))
		return
	}
	from := st.Index
	if len(path) > 0 {
		from = path[len(path)-1].Index
	}
	st.JumpsForward = lbl.Index > from
	if !st.JumpsForward {
		return
	}
	for _, mid := range target.Stmts[from+1 : lbl.Index] {
		if mid.Kind == ast.StmtDef {
			c.errorAt(b, st, st.S, fmt.Sprintf("Jumping to label `%s' crosses the definition of `%s'", st.Name, mid.Def.Name))
			return
		}
	}
}

func (c *Checker) checkReturn(b *ast.Block, st *ast.Statement) {
	c.useExpr(b, st, st.Value)
	beh := c.beh
	if beh == nil {
		return
	}
	switch beh.Kind {
	case ast.BehaviorFunction:
		switch {
		case beh.ReturnType == "" && st.Value != nil:
			c.errorAt(b, st, st.Value.Span(), "Unexpected return value. The function does not have a return type")
		case beh.ReturnType != "" && st.Value == nil:
			c.errorAt(b, st, st.S, fmt.Sprintf("Missing return value. The function should return a value of type `%s'", beh.ReturnType))
		}
	case ast.BehaviorAltstep:
		if st.Value != nil {
			c.errorAt(b, st, st.Value.Span(), "An altstep cannot return a value")
		}
	case ast.BehaviorTestcase:
		if st.Value != nil {
			c.errorAt(b, st, st.Value.Span(), "A testcase cannot return a value")
		}
	}
}

type invokeKind int

const (
	invokeStatement invokeKind = iota // function or altstep call
	invokeAltstep                     // activate, alt guard
	invokeStart                       // component start
)

// checkInvocation validates a call of a behavior given by name. Calls of a
// value (`x.apply(...)`) are only resolved.
func (c *Checker) checkInvocation(b *ast.Block, st *ast.Statement, call *ast.CallExpr, want invokeKind) *ast.Definition {
	for _, a := range call.Args {
		c.useExpr(b, st, a)
	}
	id, ok := call.Callee.(*ast.IdentExpr)
	if !ok {
		c.useExpr(b, st, call.Callee)
		return nil
	}
	d, ok := c.use(b, st, id, false)
	if !ok {
		return nil
	}
	switch want {
	case invokeStatement:
		if d.Kind != ast.DefFunction && d.Kind != ast.DefAltstep {
			c.errorAt(b, st, id.S, fmt.Sprintf("Reference to a function or altstep was expected instead of %s `%s'", d.Kind, d.Name))
			return nil
		}
	case invokeAltstep:
		if d.Kind != ast.DefAltstep {
			c.errorAt(b, st, id.S, fmt.Sprintf("Reference to an altstep was expected instead of %s `%s'", d.Kind, d.Name))
			return nil
		}
	case invokeStart:
		if d.Kind != ast.DefFunction {
			c.errorAt(b, st, id.S, fmt.Sprintf("Reference to a function was expected instead of %s `%s'", d.Kind, d.Name))
			return nil
		}
		return d
	}
	if d.Behavior != nil && c.beh != nil && !c.oracle.RunsOnCompatible(c.beh.RunsOn, d.Behavior.RunsOn) {
		caller := "no component type"
		if c.beh.RunsOn != "" {
			caller = "`" + c.beh.RunsOn + "'"
		}
		c.errorAt(b, st, id.S, fmt.Sprintf("Runs on clause mismatch: %s `%s' runs on `%s', but the calling context runs on %s",
			d.Kind, d.Name, d.Behavior.RunsOn, caller))
	}
	return d
}

// checkTarget validates the reference a communication statement operates
// on. It is the one path every port, timer and component operation takes.
func (c *Checker) checkTarget(b *ast.Block, st *ast.Statement, want ast.TargetClass, what string) *ast.Definition {
	switch t := st.Target.(type) {
	case *ast.AnyExpr:
		if t.Class != want {
			c.errorAt(b, st, t.S, fmt.Sprintf("Reference to a %s was expected in the %s operation instead of any %s", want, what, t.Class))
		} else if t.All && st.Kind != ast.StmtDone && st.Kind != ast.StmtKilled && st.Kind != ast.StmtStop {
			c.errorAt(b, st, t.S, fmt.Sprintf("`all %s' cannot be used in the %s operation", t.Class, what))
		}
		return nil
	case nil:
		return nil
	}
	d, ok := c.useRef(b, st, st.Target, false)
	if !ok {
		return nil
	}
	if got := c.oracle.ClassOf(d); got != want {
		c.errorAt(b, st, st.Target.Span(), fmt.Sprintf("Reference to a %s was expected in the %s operation instead of %s `%s'", want, what, d.Kind, d.Name))
		return nil
	}
	return d
}

func (c *Checker) checkPortOp(b *ast.Block, st *ast.Statement) {
	c.checkTarget(b, st, ast.ClassPort, st.Op.String())
	for _, a := range st.Args {
		c.useExpr(b, st, a)
	}
	if st.Redirect != nil {
		c.useRef(b, st, st.Redirect, true)
	}
	switch st.Op {
	case ast.OpSend, ast.OpCall, ast.OpReply, ast.OpRaise:
		if len(st.Args) == 0 {
			c.errorAt(b, st, st.S, fmt.Sprintf("The %s operation requires a value or template", st.Op))
		}
		if st.Redirect != nil {
			c.errorAt(b, st, st.Redirect.Span(), fmt.Sprintf("Value redirect cannot be used in the %s operation", st.Op))
		}
	}
	if st.Op == ast.OpCall && st.Guards != nil {
		c.checkGuards(b, st, st.Guards, ctxCall)
	}
}

func (c *Checker) checkStartStop(b *ast.Block, st *ast.Statement) {
	what := st.Kind.String()
	if t, ok := st.Target.(*ast.AnyExpr); ok {
		st.Class = t.Class
		if !t.All {
			c.errorAt(b, st, t.S, fmt.Sprintf("`any %s' cannot be used in the %s operation", t.Class, what))
		}
		for _, a := range st.Args {
			c.useExpr(b, st, a)
		}
		return
	}
	st.Class = ast.ClassUnknown
	d, ok := c.useRef(b, st, st.Target, false)
	if !ok {
		for _, a := range st.Args {
			c.useExpr(b, st, a)
		}
		return
	}
	st.Class = c.oracle.ClassOf(d)
	if st.Class != ast.ClassComponent {
		for _, a := range st.Args {
			c.useExpr(b, st, a)
		}
	}
	switch st.Class {
	case ast.ClassTimer:
		if st.Kind == ast.StmtStop && len(st.Args) > 0 {
			c.errorAt(b, st, st.S, "The timer stop operation does not take arguments")
		}
		if len(st.Args) > 1 {
			c.errorAt(b, st, st.Args[1].Span(), "The timer start operation takes at most one duration")
		}
		if len(st.Args) == 1 {
			if t := c.oracle.StaticTypeOf(st.Args[0], c.scope(b)); t.K != types.TyUnknown && t.K != types.TyFloat {
				c.errorAt(b, st, st.Args[0].Span(), fmt.Sprintf("A float value was expected as timer duration instead of %s", t))
			}
		}
	case ast.ClassPort:
		if len(st.Args) > 0 {
			c.errorAt(b, st, st.S, fmt.Sprintf("The port %s operation does not take arguments", what))
		}
	case ast.ClassComponent:
		if st.Kind == ast.StmtStop {
			if len(st.Args) > 0 {
				c.errorAt(b, st, st.S, "The component stop operation does not take arguments")
			}
			return
		}
		c.checkComponentStart(b, st, d)
	default:
		c.errorAt(b, st, st.Target.Span(), fmt.Sprintf("Reference to a timer, port or component was expected in the %s operation instead of %s `%s'", what, d.Kind, d.Name))
	}
}

func (c *Checker) checkComponentStart(b *ast.Block, st *ast.Statement, comp *ast.Definition) {
	if len(st.Args) != 1 {
		c.errorAt(b, st, st.S, "Starting a component requires exactly one function instance")
		return
	}
	call, ok := st.Args[0].(*ast.CallExpr)
	if !ok {
		c.errorAt(b, st, st.Args[0].Span(), "Starting a component requires a function instance")
		c.useExpr(b, st, st.Args[0])
		return
	}
	fn := c.checkInvocation(b, st, call, invokeStart)
	if fn == nil || fn.Behavior == nil {
		return
	}
	if !c.oracle.RunsOnCompatible(comp.TypeName, fn.Behavior.RunsOn) {
		c.errorAt(b, st, call.S, fmt.Sprintf("Component type `%s' is not compatible with the runs on clause of function `%s' (`%s')",
			comp.TypeName, fn.Name, fn.Behavior.RunsOn))
	}
}

