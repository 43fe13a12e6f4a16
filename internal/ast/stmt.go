package ast

import (
	"ttcnlang/internal/source"
	"ttcnlang/internal/stamp"
)

type StmtKind int

const (
	StmtDef StmtKind = iota
	StmtAssign
	StmtInvoke // function or altstep invocation used as a statement
	StmtLog
	StmtSetverdict
	StmtActivate
	StmtDeactivate
	StmtIf
	StmtSelect
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtGoto
	StmtLabel
	StmtReturn
	StmtBlock
	StmtTry
	StmtCatch
	StmtAlt
	StmtInterleave
	StmtRepeat
	StmtBreak
	StmtContinue
	StmtStopExec // `stop;`
	StmtPortOp
	StmtTimeout
	StmtDone
	StmtKilled
	StmtStart // `x.start(...)`, target class resolved by the checker
	StmtStop  // `x.stop`, target class resolved by the checker
)

var stmtNames = [...]string{
	StmtDef:        "definition",
	StmtAssign:     "assignment",
	StmtInvoke:     "invocation",
	StmtLog:        "log",
	StmtSetverdict: "setverdict",
	StmtActivate:   "activate",
	StmtDeactivate: "deactivate",
	StmtIf:         "if",
	StmtSelect:     "select",
	StmtWhile:      "while",
	StmtDoWhile:    "do-while",
	StmtFor:        "for",
	StmtGoto:       "goto",
	StmtLabel:      "label",
	StmtReturn:     "return",
	StmtBlock:      "statement block",
	StmtTry:        "try",
	StmtCatch:      "catch",
	StmtAlt:        "alt",
	StmtInterleave: "interleave",
	StmtRepeat:     "repeat",
	StmtBreak:      "break",
	StmtContinue:   "continue",
	StmtStopExec:   "stop",
	StmtPortOp:     "port operation",
	StmtTimeout:    "timeout",
	StmtDone:       "done",
	StmtKilled:     "killed",
	StmtStart:      "start",
	StmtStop:       "stop",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtNames) {
		return stmtNames[k]
	}
	return "statement"
}

// PortOp tells apart the communication statements sharing StmtPortOp.
type PortOp int

const (
	OpSend PortOp = iota
	OpReceive
	OpTrigger
	OpCheck
	OpGetcall
	OpGetreply
	OpCatch
	OpReply
	OpRaise
	OpCall
)

var portOpNames = [...]string{"send", "receive", "trigger", "check", "getcall", "getreply", "catch", "reply", "raise", "call"}

func (o PortOp) String() string { return portOpNames[o] }

var portOpsByName = map[string]PortOp{
	"send": OpSend, "receive": OpReceive, "trigger": OpTrigger, "check": OpCheck,
	"getcall": OpGetcall, "getreply": OpGetreply, "catch": OpCatch,
	"reply": OpReply, "raise": OpRaise, "call": OpCall,
}

func LookupPortOp(name string) (PortOp, bool) {
	op, ok := portOpsByName[name]
	return op, ok
}

// Incoming reports whether the operation takes a message off the queue
// and so may be used as an alt guard.
func (o PortOp) Incoming() bool {
	switch o {
	case OpReceive, OpTrigger, OpCheck, OpGetcall, OpGetreply, OpCatch:
		return true
	}
	return false
}

// TargetClass is what a communication statement operates on.
type TargetClass int

const (
	ClassUnknown TargetClass = iota
	ClassTimer
	ClassPort
	ClassComponent
)

func (c TargetClass) String() string {
	switch c {
	case ClassTimer:
		return "timer"
	case ClassPort:
		return "port"
	case ClassComponent:
		return "component"
	}
	return "unknown"
}

// Clause is one branch of an if or select statement. An else branch has
// Else set and no condition.
type Clause struct {
	Cond   Expr   // if
	Values []Expr // select case
	Else   bool
	Body   BlockID
	S      source.Span

	Unreachable bool
}

// Statement is the single variant for every statement kind. Kind decides
// which payload fields are meaningful.
type Statement struct {
	Kind StmtKind
	S    source.Span

	Name     string      // label and goto target, catch variable
	NameSpan source.Span // span of Name
	Def      *Definition // StmtDef
	Target   Expr        // assignment left side, port/timer/component reference
	Op       PortOp      // StmtPortOp
	Value    Expr        // right side, condition, return value, verdict, invoked call, select subject
	Args     []Expr      // log arguments, start arguments, port op parameter
	Redirect Expr        // `-> value x`
	Clauses  []*Clause   // if, select
	Body     BlockID     // loop, block, try, catch
	Header   BlockID     // for loop header scope, holds the initializer
	Step     *Statement  // for loop step
	Guards   *AltGuards  // alt, interleave, call response

	Owner BlockID // block holding this statement
	Index int     // position in Owner's statement list

	LastChecked  stamp.Timestamp
	Erroneous    bool
	LabelUsed    bool        // StmtLabel
	Class        TargetClass // StmtStart, StmtStop: resolved target
	Infinite     bool        // loop with a constant true condition and no exit
	JumpsForward bool        // StmtGoto
}

// NewStatement returns a statement of the given kind with all block
// references unset.
func NewStatement(kind StmtKind, s source.Span) *Statement {
	return &Statement{Kind: kind, S: s, Body: NoBlock, Header: NoBlock, Owner: NoBlock}
}

// IsLoop reports whether the statement is while, do-while or for.
func (st *Statement) IsLoop() bool {
	return st.Kind == StmtWhile || st.Kind == StmtDoWhile || st.Kind == StmtFor
}

// Blocks returns the ids of every block directly owned by st.
func (st *Statement) Blocks() []BlockID {
	var out []BlockID
	add := func(id BlockID) {
		if id != NoBlock {
			out = append(out, id)
		}
	}
	add(st.Header)
	add(st.Body)
	for _, c := range st.Clauses {
		add(c.Body)
	}
	if st.Guards != nil {
		for _, g := range st.Guards.Guards {
			add(g.Body)
		}
	}
	return out
}

// DeclaresScope reports whether st adds a definition or a label to its
// owning block.
func (st *Statement) DeclaresScope() bool {
	return st.Kind == StmtDef || st.Kind == StmtLabel
}
