package ast

import (
	"ttcnlang/internal/source"
	"ttcnlang/internal/stamp"
)

type GuardKind int

const (
	GuardElse GuardKind = iota
	GuardOperation
	GuardInvoke     // `[] ref.apply(...)`: altstep given by value
	GuardReferenced // `[] as1(...)`: altstep given by name
)

func (k GuardKind) String() string {
	switch k {
	case GuardElse:
		return "else"
	case GuardOperation:
		return "operation"
	case GuardInvoke:
		return "invoke"
	case GuardReferenced:
		return "referenced"
	}
	return "guard"
}

// AltGuard is one branch of an alt, interleave, altstep or call response.
type AltGuard struct {
	Kind GuardKind
	S    source.Span
	Cond Expr       // optional boolean precondition
	Op   *Statement // GuardOperation
	Call *CallExpr  // GuardInvoke, GuardReferenced
	Body BlockID    // optional response block

	LastChecked stamp.Timestamp
	Erroneous   bool
	Unreachable bool
}

type AltGuards struct {
	Guards []*AltGuard
}

// HasElse reports whether any guard is an else guard.
func (g *AltGuards) HasElse() bool {
	for _, it := range g.Guards {
		if it.Kind == GuardElse {
			return true
		}
	}
	return false
}

func (g *AltGuards) Invalidate() {
	for _, it := range g.Guards {
		it.LastChecked = stamp.Timestamp{}
		if it.Op != nil {
			it.Op.LastChecked = stamp.Timestamp{}
		}
	}
}
