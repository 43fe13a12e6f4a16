package ast

import "ttcnlang/internal/source"

type BehaviorKind int

const (
	BehaviorFunction BehaviorKind = iota
	BehaviorTestcase
	BehaviorAltstep
)

func (k BehaviorKind) String() string {
	switch k {
	case BehaviorTestcase:
		return "testcase"
	case BehaviorAltstep:
		return "altstep"
	}
	return "function"
}

// Behavior is a function, testcase or altstep. Body is its outermost
// block; for an altstep it holds the local definitions and Guards the
// branches that follow them.
type Behavior struct {
	Kind       BehaviorKind
	Name       string
	NameSpan   source.Span
	S          source.Span
	Params     []*Definition
	RunsOn     string
	RunsOnSpan source.Span
	ReturnType string
	Body       BlockID
	Guards     *AltGuards
	Def        *Definition
}

// Component is a `type component` declaration.
type Component struct {
	Name    string
	S       source.Span
	Extends []string
	Members []*Definition
	Def     *Definition
}

// Unit is the parse result of one source file.
type Unit struct {
	File       *source.File
	Module     string
	Arena      *Arena
	Components []*Component
	Behaviors  []*Behavior
	Globals    []*Definition // module level constants and templates
}

// BehaviorAt returns the behavior whose span contains the byte range.
func (u *Unit) BehaviorAt(start, end int) *Behavior {
	for _, b := range u.Behaviors {
		if b.S.EnvelopsRange(start, end) {
			return b
		}
	}
	return nil
}
