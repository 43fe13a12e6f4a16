package ast

import "ttcnlang/internal/source"

type DefKind int

const (
	DefVar DefKind = iota
	DefConst
	DefTimer
	DefPort
	DefTemplate
	DefParam
	DefFunction
	DefAltstep
	DefTestcase
	DefComponent
)

var defNames = [...]string{
	DefVar:       "variable",
	DefConst:     "constant",
	DefTimer:     "timer",
	DefPort:      "port",
	DefTemplate:  "template",
	DefParam:     "formal parameter",
	DefFunction:  "function",
	DefAltstep:   "altstep",
	DefTestcase:  "testcase",
	DefComponent: "component type",
}

func (k DefKind) String() string { return defNames[k] }

// Definition is a named declaration. Local definitions are owned by the
// block that registers them; module level ones have Owner == NoBlock.
type Definition struct {
	Name     string
	Kind     DefKind
	TypeName string
	S        source.Span // identifier span
	Init     Expr

	Owner    BlockID
	Behavior *Behavior  // DefFunction, DefAltstep, DefTestcase
	Comp     *Component // DefComponent, and members of a component

	Used    bool
	Written bool
}

// Class maps the definition to the communication target it denotes.
func (d *Definition) Class() TargetClass {
	switch d.Kind {
	case DefTimer:
		return ClassTimer
	case DefPort:
		return ClassPort
	case DefParam:
		if d.TypeName == "timer" {
			return ClassTimer
		}
	}
	return ClassUnknown
}

// EscapedRef records that a name resolved inside a block was found in an
// enclosing scope. Scope is the block holding the definition, NoBlock for
// module level names.
type EscapedRef struct {
	Scope BlockID
	Name  string
	Write bool
	Label bool
}
