// Package sema runs the memoised check pass over the statement blocks of
// a unit: scopes, reachability, return status and alt guard legality.
package sema

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/config"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/source"
	"ttcnlang/internal/stamp"
	"ttcnlang/internal/types"
)

// ErrNeedsReparse is returned by Check when a freed block no longer
// matches its surroundings and the unit has to be parsed again.
var ErrNeedsReparse = errors.New("freed block is stale, unit needs a full reparse")

// Stats counts what the last Check did.
type Stats struct {
	Checked  int // blocks checked in full
	Replayed int // blocks skipped by memoisation
}

type Checker struct {
	log    zerolog.Logger
	opts   config.Options
	oracle types.Oracle
	unit   *ast.Unit
	arena  *ast.Arena

	ts    stamp.Timestamp
	beh   *ast.Behavior
	diags diag.Bag // module level diagnostics
	stats Stats
	err   error
	stale bool
}

func New(u *ast.Unit, oracle types.Oracle, opts config.Options, log zerolog.Logger) *Checker {
	return &Checker{
		log:    log.With().Str("component", "sema").Logger(),
		opts:   opts,
		oracle: oracle,
		unit:   u,
		arena:  u.Arena,
	}
}

func (c *Checker) Stats() Stats { return c.stats }

// Check validates every behavior of the unit at ts. Blocks already checked
// at ts or later are skipped.
func (c *Checker) Check(ts stamp.Timestamp) error {
	c.ts = ts
	c.err = nil
	c.stale = false
	c.stats = Stats{}
	c.diags.Reset()
	c.checkModule()
	for _, b := range c.unit.Behaviors {
		c.checkBehavior(b)
	}
	c.beh = nil
	c.log.Debug().
		Str("stamp", ts.String()).
		Int("checked", c.stats.Checked).
		Int("replayed", c.stats.Replayed).
		Msg("check pass finished")
	if c.stale {
		return ErrNeedsReparse
	}
	return c.err
}

// Diagnostics gathers the module level items and the items of every live
// block, with line and column recomputed against the current text.
func (c *Checker) Diagnostics() *diag.Bag {
	out := &diag.Bag{}
	out.Merge(&c.diags)
	c.arena.Each(func(b *ast.Block) { out.Merge(&b.Diags) })
	f := c.unit.File
	for i := range out.Items {
		it := &out.Items[i]
		if it.Filename == f.Name && it.Start <= len(f.Input) {
			it.Line, it.Col = f.LineCol(it.Start)
		}
	}
	return out
}

func (c *Checker) checkModule() {
	seen := map[string]*ast.Definition{}
	add := func(d *ast.Definition) {
		if prev, dup := seen[d.Name]; dup {
			c.diags.Report(diag.Error, d.S, fmt.Sprintf("Duplicate definition with name `%s'", d.Name))
			c.diags.Report(diag.Note, prev.S, fmt.Sprintf("Previous definition with name `%s' is here", d.Name))
			return
		}
		seen[d.Name] = d
	}
	for _, comp := range c.unit.Components {
		add(comp.Def)
		for _, base := range comp.Extends {
			if d, ok := c.oracle.ResolveReference(base, nil); !ok || d.Kind != ast.DefComponent {
				c.diags.Report(diag.Error, comp.Def.S, fmt.Sprintf("There is no component type with name `%s'", base))
			}
		}
		members := map[string]*ast.Definition{}
		for _, m := range comp.Members {
			if prev, dup := members[m.Name]; dup {
				c.diags.Report(diag.Error, m.S, fmt.Sprintf("Duplicate definition with name `%s'", m.Name))
				c.diags.Report(diag.Note, prev.S, fmt.Sprintf("Previous definition with name `%s' is here", m.Name))
				continue
			}
			members[m.Name] = m
		}
	}
	for _, d := range c.unit.Globals {
		add(d)
	}
	for _, b := range c.unit.Behaviors {
		add(b.Def)
	}
}

func (c *Checker) checkBehavior(beh *ast.Behavior) {
	c.beh = beh
	root := c.arena.Block(beh.Body)
	if root == nil {
		return
	}
	var tail func(*ast.Block)
	if beh.Kind == ast.BehaviorAltstep && beh.Guards != nil {
		tail = func(b *ast.Block) { c.checkGuards(b, nil, beh.Guards, ctxAltstep) }
	}
	if !c.checkBlock(beh.Body, tail) {
		return
	}
	if beh.RunsOn != "" {
		if d, ok := c.oracle.ResolveReference(beh.RunsOn, nil); !ok || d.Kind != ast.DefComponent {
			root.Diags.Report(diag.Error, beh.RunsOnSpan, fmt.Sprintf("There is no component type with name `%s'", beh.RunsOn))
		}
	}
	if beh.Kind == ast.BehaviorFunction && beh.ReturnType != "" {
		switch c.BlockReturn(beh.Body) {
		case ast.ReturnNo:
			root.Diags.Report(diag.Error, beh.NameSpan, "The function has a return type, but it does not have any return statement")
		case ast.ReturnMaybe:
			root.Diags.Report(diag.Error, beh.NameSpan, "The function has return type, but control might leave it without reaching a return statement")
		}
	}
}

// checkBlock checks the block unless it is memoised at the current stamp.
// tail runs after the statements and before unused names are reported.
// It reports whether the block was checked in full.
func (c *Checker) checkBlock(id ast.BlockID, tail func(*ast.Block)) bool {
	b := c.arena.Block(id)
	if b == nil {
		return false
	}
	if b.Freed {
		c.stats.Replayed++
		if !c.replay(b) {
			c.log.Debug().Int32("block", int32(b.ID)).Msg("freed block has a stale escape")
			c.stale = true
		}
		return false
	}
	if !b.LastChecked.IsZero() && !b.LastChecked.IsLess(c.ts) {
		if c.replay(b) {
			c.stats.Replayed++
			return false
		}
		c.log.Debug().Int32("block", int32(b.ID)).Msg("memoised block has a stale escape")
		b.Invalidate()
	}
	if err := b.Enter(ast.PhaseChecking); err != nil {
		c.log.Warn().Err(err).Msg("skipping block")
		if c.err == nil {
			c.err = err
		}
		return false
	}
	defer b.Leave()
	c.stats.Checked++
	c.fullCheck(b, tail)
	return true
}

func (c *Checker) fullCheck(b *ast.Block, tail func(*ast.Block)) {
	b.Diags.Reset()
	clear(b.Escapes)
	clear(b.Definitions)
	clear(b.Labels)
	for _, d := range b.Implicit {
		c.register(b, d)
	}
	c.prescanLabels(b)

	if len(b.Stmts) == 0 && !b.Header && tail == nil {
		b.Diags.Report(c.opts.ReportEmptyBlock, b.S, "Empty statement block")
	}
	if n := len(b.Stmts); n > c.opts.TooManyStatementsThreshold && !b.Header {
		b.Diags.Report(c.opts.ReportTooManyStatements, b.S,
			fmt.Sprintf("More than %d statements in a single statement block (%d)", c.opts.TooManyStatementsThreshold, n))
	}

	unreachable, reported := false, false
	for i, st := range b.Stmts {
		if st.Kind == ast.StmtLabel {
			unreachable, reported = false, false
		} else if unreachable && !reported {
			b.Diags.Report(c.opts.ReportUnreachableCode, st.S, "Control never reaches this code because of previous effective statement(s)")
			reported = true
		}
		c.checkStatement(b, st)
		if c.terminatesAt(b, i) {
			unreachable = true
		}
	}
	if tail != nil {
		tail(b)
	}
	c.checkTryCatch(b)
	c.reportUnused(b)

	b.RetStatus = c.scanReturn(b)
	b.RetChecked = c.ts
	b.Terminates = c.scanTerminating(b)
	b.LastChecked = c.ts
}

func (c *Checker) prescanLabels(b *ast.Block) {
	for _, st := range b.Stmts {
		st.Erroneous = false
		if st.Kind != ast.StmtLabel {
			continue
		}
		st.LabelUsed = false
		if prev, dup := b.Labels[st.Name]; dup {
			b.Diags.Report(diag.Error, st.NameSpan, fmt.Sprintf("Duplicate label `%s'", st.Name))
			b.Diags.Report(diag.Note, prev.NameSpan, fmt.Sprintf("Previous definition of label `%s' is here", st.Name))
			st.Erroneous = true
			continue
		}
		b.Labels[st.Name] = st
	}
}

func (c *Checker) checkTryCatch(b *ast.Block) {
	for i, st := range b.Stmts {
		switch st.Kind {
		case ast.StmtTry:
			if i+1 >= len(b.Stmts) || b.Stmts[i+1].Kind != ast.StmtCatch {
				c.errorAt(b, st, st.S, "A try block must be followed by a catch block")
			}
		case ast.StmtCatch:
			if i == 0 || b.Stmts[i-1].Kind != ast.StmtTry {
				c.errorAt(b, st, st.S, "A catch block must be preceded by a try block")
			}
		}
	}
}

func (c *Checker) reportUnused(b *ast.Block) {
	for _, st := range b.Stmts {
		switch st.Kind {
		case ast.StmtLabel:
			if !st.LabelUsed && b.Labels[st.Name] == st {
				b.Diags.Report(c.opts.ReportUnusedLabel, st.NameSpan, fmt.Sprintf("Label `%s' is defined, but not used", st.Name))
			}
		case ast.StmtDef:
			d := st.Def
			if !d.Used && b.Definitions[d.Name] == d {
				b.Diags.Report(c.opts.ReportUnusedLocalDefinition, d.S, fmt.Sprintf("The %s `%s' seems to be never used locally", d.Kind, d.Name))
			}
		}
	}
}

// errorAt reports an error into b and marks st erroneous.
func (c *Checker) errorAt(b *ast.Block, st *ast.Statement, s source.Span, msg string) {
	b.Diags.Report(diag.Error, s, msg)
	if st != nil {
		st.Erroneous = true
	}
}
