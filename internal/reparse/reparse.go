// Package reparse updates the block tree of a unit in place after a text
// edit, reparsing only the statements the edit reaches.
package reparse

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/source"
)

// Parser is the statement parser the updater drives.
type Parser interface {
	ParseStatements(arena *ast.Arena, parent ast.BlockID, file *source.File, start, end int) ([]*ast.Statement, error)
	CanExtend(st *ast.Statement, text string) bool
	CanPrefix(st *ast.Statement, text string) bool
}

// ErrOutsideBehavior means the edit is not inside a statement block and
// only a full parse can apply it.
var ErrOutsideBehavior = errors.New("edit is outside of every behavior body")

// ReparseError asks the block Depth levels up to reparse its enclosing
// statement. It escapes UpdateBlock when no level could handle it.
type ReparseError struct {
	Depth int
	Err   error
}

func (e *ReparseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reparse needed %d level(s) up: %v", e.Depth, e.Err)
	}
	return fmt.Sprintf("reparse needed %d level(s) up", e.Depth)
}

func (e *ReparseError) Unwrap() error { return e.Err }

// Updater applies one edit. DamageStart and DamageEnd are the replaced
// range in the text before the edit, Shift is the length change. The
// file must already hold the new text.
type Updater struct {
	File        *source.File
	Arena       *ast.Arena
	Parser      Parser
	DamageStart int
	DamageEnd   int
	Shift       int

	// ScopeChanged is set when a reparsed region added or removed a
	// definition or a label.
	ScopeChanged bool
	// Reparsed counts the statements replaced.
	Reparsed int

	log zerolog.Logger
}

func NewUpdater(f *source.File, arena *ast.Arena, p Parser, start, end, shift int, log zerolog.Logger) *Updater {
	return &Updater{
		File:        f,
		Arena:       arena,
		Parser:      p,
		DamageStart: start,
		DamageEnd:   end,
		Shift:       shift,
		log:         log.With().Str("component", "reparse").Logger(),
	}
}

// strictlyInside reports whether the damage lies between the braces of s.
func (u *Updater) strictlyInside(s source.Span) bool {
	return s.Start < u.DamageStart && u.DamageEnd < s.End
}

// Update applies the edit to the unit: the enclosing behavior is updated
// in place and everything after it is moved.
func (u *Updater) Update(unit *ast.Unit) error {
	beh := unit.BehaviorAt(u.DamageStart, u.DamageEnd)
	if beh == nil {
		return ErrOutsideBehavior
	}
	root := u.Arena.Block(beh.Body)
	if root == nil || !u.strictlyInside(root.S) {
		return ErrOutsideBehavior
	}

	var err error
	if g, i := u.guardAt(beh); g != nil {
		err = u.UpdateBlock(g.Body)
		if err == nil {
			g.S.End += u.Shift
			for _, later := range beh.Guards.Guards[i+1:] {
				u.Arena.ShiftGuard(later, u.DamageEnd, u.Shift)
			}
			root.S.End += u.Shift
			u.Arena.InvalidateChain(root.ID)
		}
	} else if beh.Guards != nil && len(beh.Guards.Guards) > 0 && u.DamageEnd >= beh.Guards.Guards[0].S.Start {
		err = &ReparseError{Depth: 1, Err: errors.New("edit touches the alternatives of an altstep")}
	} else {
		err = u.UpdateBlock(root.ID)
		if err == nil && beh.Guards != nil {
			for _, g := range beh.Guards.Guards {
				u.Arena.ShiftGuard(g, u.DamageEnd, u.Shift)
			}
		}
	}
	if err != nil {
		return err
	}

	beh.S.End += u.Shift
	u.shiftUnitAfter(unit, beh)
	return nil
}

// guardAt returns the altstep alternative whose body envelops the damage.
func (u *Updater) guardAt(beh *ast.Behavior) (*ast.AltGuard, int) {
	if beh.Guards == nil {
		return nil, -1
	}
	for i, g := range beh.Guards.Guards {
		if b := u.Arena.Block(g.Body); b != nil && u.strictlyInside(b.S) {
			return g, i
		}
	}
	return nil, -1
}

func (u *Updater) shiftUnitAfter(unit *ast.Unit, edited *ast.Behavior) {
	at := u.DamageEnd
	for _, b := range unit.Behaviors {
		if b != edited && b.S.Start >= at {
			u.Arena.ShiftBehavior(b, at, u.Shift)
		}
	}
	for _, c := range unit.Components {
		if c.S.Start >= at {
			ast.ShiftComponent(c, at, u.Shift)
		}
	}
	for _, d := range unit.Globals {
		if d.S.Start >= at {
			ast.ShiftDefinition(d, at, u.Shift)
		}
	}
}

// UpdateBlock applies the edit to block id, whose braces enclose it.
func (u *Updater) UpdateBlock(id ast.BlockID) error {
	b := u.Arena.Block(id)
	if b == nil || b.Freed {
		return &ReparseError{Depth: 1, Err: fmt.Errorf("block %d is not available", id)}
	}
	if err := b.Enter(ast.PhaseReparsing); err != nil {
		return &ReparseError{Depth: 1, Err: err}
	}
	defer b.Leave()

	lo, hi := u.damaged(b)
	if hi == lo+1 {
		st := b.Stmts[lo]
		if child := u.envelopingChild(st); child != ast.NoBlock {
			err := u.UpdateBlock(child)
			var rerr *ReparseError
			switch {
			case err == nil:
				u.Arena.ShiftAfter(st, u.DamageEnd, u.Shift, child)
				u.shiftFollowing(b, lo+1)
				b.S.End += u.Shift
				u.Arena.InvalidateChain(b.ID)
				return nil
			case errors.As(err, &rerr) && rerr.Depth > 1:
				return &ReparseError{Depth: rerr.Depth - 1, Err: rerr.Err}
			case rerr == nil:
				return err
			}
			u.log.Debug().Int32("block", int32(child)).Err(err).Msg("reparsing the enclosing statement")
		}
	}
	return u.reparseRange(b, lo, hi)
}

// damaged returns the index range of the statements touching the damage.
// An empty range marks the insertion point.
func (u *Updater) damaged(b *ast.Block) (int, int) {
	n := len(b.Stmts)
	lo := sort.Search(n, func(i int) bool { return b.Stmts[i].S.End >= u.DamageStart })
	hi := sort.Search(n, func(i int) bool { return b.Stmts[i].S.Start > u.DamageEnd })
	return lo, hi
}

// envelopingChild returns the block of st strictly enclosing the damage.
func (u *Updater) envelopingChild(st *ast.Statement) ast.BlockID {
	for _, id := range st.Blocks() {
		if id == st.Header {
			continue // the body is checked on its own, the header text is reparsed
		}
		if c := u.Arena.Block(id); c != nil && u.strictlyInside(c.S) {
			return id
		}
	}
	return ast.NoBlock
}

// bounds returns the reparse region [left, right) in pre-edit offsets for
// the statements lo..hi-1 of b.
func (u *Updater) bounds(b *ast.Block, lo, hi int) (int, int) {
	left := b.S.Start + 1
	if lo > 0 {
		left = b.Stmts[lo-1].S.End
	}
	right := u.blockEnd(b)
	if hi < len(b.Stmts) {
		right = b.Stmts[hi].S.Start
	}
	return left, right
}

// blockEnd is where the statements of b end: the closing brace, or the
// first alternative of an altstep.
func (u *Updater) blockEnd(b *ast.Block) int {
	if beh := b.Behavior; beh != nil && beh.Guards != nil && len(beh.Guards.Guards) > 0 {
		return beh.Guards.Guards[0].S.Start
	}
	return b.S.End - 1
}

func (u *Updater) reparseRange(b *ast.Block, lo, hi int) error {
	left, right := u.bounds(b, lo, hi)
	for {
		text := u.File.Slice(left, right+u.Shift)
		switch {
		case lo > 0 && u.Parser.CanExtend(b.Stmts[lo-1], text):
			lo--
		case hi < len(b.Stmts) && u.Parser.CanPrefix(b.Stmts[hi], text):
			hi++
		default:
			return u.splice(b, lo, hi, left, right)
		}
		left, right = u.bounds(b, lo, hi)
	}
}

func (u *Updater) splice(b *ast.Block, lo, hi, left, right int) error {
	parsed, err := u.Parser.ParseStatements(u.Arena, b.ID, u.File, left, right+u.Shift)
	if err != nil {
		var rerr *ReparseError
		if errors.As(err, &rerr) {
			return rerr
		}
		return &ReparseError{Depth: 1, Err: err}
	}

	removed := b.Stmts[lo:hi]
	if !sameDeclarations(removed, parsed) {
		u.ScopeChanged = true
	}
	for _, st := range removed {
		u.Arena.ReleaseStatement(st)
	}
	u.shiftFollowing(b, hi)

	stmts := make([]*ast.Statement, 0, len(b.Stmts)-len(removed)+len(parsed))
	stmts = append(stmts, b.Stmts[:lo]...)
	stmts = append(stmts, parsed...)
	stmts = append(stmts, b.Stmts[hi:]...)
	b.Stmts = stmts
	b.Renumber(u.Arena)
	b.S.End += u.Shift
	u.Reparsed += len(parsed)

	u.Arena.InvalidateChain(b.ID)
	if u.ScopeChanged {
		u.Arena.InvalidateSubtree(b.ID)
	}
	u.log.Debug().
		Int32("block", int32(b.ID)).
		Int("removed", len(removed)).
		Int("parsed", len(parsed)).
		Bool("scope_changed", u.ScopeChanged).
		Msg("spliced statements")
	return nil
}

func (u *Updater) shiftFollowing(b *ast.Block, from int) {
	for _, st := range b.Stmts[from:] {
		u.Arena.ShiftAfter(st, u.DamageEnd, u.Shift, ast.NoBlock)
	}
}

// sameDeclarations reports whether both statement lists declare the same
// definitions and labels.
func sameDeclarations(old, cur []*ast.Statement) bool {
	count := map[string]int{}
	for _, st := range old {
		if k, ok := declKey(st); ok {
			count[k]++
		}
	}
	for _, st := range cur {
		if k, ok := declKey(st); ok {
			count[k]--
		}
	}
	for _, n := range count {
		if n != 0 {
			return false
		}
	}
	return true
}

func declKey(st *ast.Statement) (string, bool) {
	switch st.Kind {
	case ast.StmtLabel:
		return "label " + st.Name, true
	case ast.StmtDef:
		return fmt.Sprintf("%s %s %s", st.Def.Kind, st.Def.TypeName, st.Def.Name), true
	}
	return "", false
}
