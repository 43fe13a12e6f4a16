package ast

import (
	"errors"
	"fmt"

	"ttcnlang/internal/diag"
	"ttcnlang/internal/source"
	"ttcnlang/internal/stamp"
)

// BlockID indexes a Block inside its Arena.
type BlockID int32

const NoBlock BlockID = -1

// ReturnStatus answers whether control always, never or only sometimes
// leaves a statement through an explicit return.
type ReturnStatus int8

const (
	ReturnNo ReturnStatus = iota
	ReturnMaybe
	ReturnYes
)

func (r ReturnStatus) String() string {
	switch r {
	case ReturnNo:
		return "NO"
	case ReturnMaybe:
		return "MAYBE"
	case ReturnYes:
		return "YES"
	}
	return fmt.Sprintf("ReturnStatus(%d)", int8(r))
}

// Phase is the operation currently running on a block. Checking and
// reparsing never overlap on the same block.
type Phase int8

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseReparsing
)

func (p Phase) String() string {
	switch p {
	case PhaseChecking:
		return "checking"
	case PhaseReparsing:
		return "reparsing"
	}
	return "idle"
}

var ErrPhaseConflict = errors.New("block is busy in another phase")

// Block is an ordered statement sequence with its own scope.
type Block struct {
	ID     BlockID
	Parent BlockID
	Index  int         // index of the owning statement in Parent
	S      source.Span // includes the braces

	Stmts    []*Statement
	Implicit []*Definition // formal parameters, catch variable

	Loop       bool // body of while, do-while or for
	AltGuard   bool // response block of an alt guard
	Header     bool // for loop header scope
	Interleave bool // response block of an interleave guard

	Behavior *Behavior // set on the outermost block of a behavior

	Definitions map[string]*Definition
	Labels      map[string]*Statement
	Escapes     map[EscapedRef]source.Span
	Diags       diag.Bag

	LastChecked stamp.Timestamp
	RetStatus   ReturnStatus
	RetChecked  stamp.Timestamp
	Terminates  bool // control never falls out of the end

	Freed bool
	Phase Phase
}

// Enter moves the block into phase p.
func (b *Block) Enter(p Phase) error {
	if b.Phase != PhaseIdle && b.Phase != p {
		return fmt.Errorf("%w: block %d is %s, wanted %s", ErrPhaseConflict, b.ID, b.Phase, p)
	}
	b.Phase = p
	return nil
}

func (b *Block) Leave() { b.Phase = PhaseIdle }

// Invalidate drops the cached verdicts of the block and of its direct
// statements.
func (b *Block) Invalidate() {
	b.LastChecked = stamp.Timestamp{}
	b.RetChecked = stamp.Timestamp{}
	for _, st := range b.Stmts {
		st.LastChecked = stamp.Timestamp{}
		if st.Guards != nil {
			st.Guards.Invalidate()
		}
	}
}

// Renumber makes statement indices dense and relinks every statement,
// definition and direct sub-block to b.
func (b *Block) Renumber(a *Arena) {
	for i, st := range b.Stmts {
		st.Index = i
		st.Owner = b.ID
		if st.Def != nil {
			st.Def.Owner = b.ID
		}
		if st.Header != NoBlock {
			a.link(st.Header, b.ID, i)
			a.link(st.Body, st.Header, 0)
			continue
		}
		for _, id := range st.Blocks() {
			a.link(id, b.ID, i)
		}
	}
}

func (a *Arena) link(id, parent BlockID, index int) {
	if child := a.Block(id); child != nil {
		child.Parent = parent
		child.Index = index
	}
}

// Arena owns every block of a unit. Released slots are never reused so a
// stale BlockID can only resolve to nil.
type Arena struct {
	blocks []*Block
	live   int
}

func NewArena() *Arena { return &Arena{} }

// New allocates an empty block under parent.
func (a *Arena) New(parent BlockID, s source.Span) *Block {
	b := &Block{
		ID:          BlockID(len(a.blocks)),
		Parent:      parent,
		S:           s,
		Definitions: map[string]*Definition{},
		Labels:      map[string]*Statement{},
		Escapes:     map[EscapedRef]source.Span{},
	}
	a.blocks = append(a.blocks, b)
	a.live++
	return b
}

// Block returns the block with the given id, or nil when it was released.
func (a *Arena) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(a.blocks) {
		return nil
	}
	return a.blocks[id]
}

func (a *Arena) Live() int { return a.live }

// Each calls fn for every live block in allocation order.
func (a *Arena) Each(fn func(*Block)) {
	for _, b := range a.blocks {
		if b != nil {
			fn(b)
		}
	}
}

// Release frees the block with the given id together with every block
// nested in it.
func (a *Arena) Release(id BlockID) {
	b := a.Block(id)
	if b == nil {
		return
	}
	for _, st := range b.Stmts {
		a.ReleaseStatement(st)
	}
	a.blocks[id] = nil
	a.live--
}

// ReleaseStatement frees the blocks owned by st.
func (a *Arena) ReleaseStatement(st *Statement) {
	for _, id := range st.Blocks() {
		a.Release(id)
	}
}

// Ancestors returns the chain of enclosing blocks from id's parent outward.
func (a *Arena) Ancestors(id BlockID) []*Block {
	var out []*Block
	for b := a.Block(id); b != nil; {
		p := a.Block(b.Parent)
		if p == nil {
			break
		}
		out = append(out, p)
		b = p
	}
	return out
}

// Root returns the outermost block enclosing id.
func (a *Arena) Root(id BlockID) *Block {
	b := a.Block(id)
	for b != nil {
		p := a.Block(b.Parent)
		if p == nil {
			return b
		}
		b = p
	}
	return nil
}

// InvalidateChain invalidates id and every enclosing block.
func (a *Arena) InvalidateChain(id BlockID) {
	for b := a.Block(id); b != nil; b = a.Block(b.Parent) {
		b.Invalidate()
	}
}

// InvalidateSubtree invalidates id and every block nested in it.
func (a *Arena) InvalidateSubtree(id BlockID) {
	b := a.Block(id)
	if b == nil {
		return
	}
	b.Invalidate()
	for _, st := range b.Stmts {
		for _, child := range st.Blocks() {
			a.InvalidateSubtree(child)
		}
	}
}
