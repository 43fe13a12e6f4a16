package ast

import "ttcnlang/internal/source"

// Expr
type Expr interface {
	exprNode()
	Span() source.Span
}

type IdentExpr struct {
	Name string
	S    source.Span
}

func (*IdentExpr) exprNode()           {}
func (e *IdentExpr) Span() source.Span { return e.S }

type IntLit struct {
	Text string
	S    source.Span
}

func (*IntLit) exprNode()           {}
func (e *IntLit) Span() source.Span { return e.S }

type FloatLit struct {
	Text string
	S    source.Span
}

func (*FloatLit) exprNode()           {}
func (e *FloatLit) Span() source.Span { return e.S }

type StringLit struct {
	Text string
	S    source.Span
}

func (*StringLit) exprNode()           {}
func (e *StringLit) Span() source.Span { return e.S }

type BoolLit struct {
	Value bool
	S     source.Span
}

func (*BoolLit) exprNode()           {}
func (e *BoolLit) Span() source.Span { return e.S }

// VerdictLit is one of pass, fail, inconc, none, error.
type VerdictLit struct {
	Name string
	S    source.Span
}

func (*VerdictLit) exprNode()           {}
func (e *VerdictLit) Span() source.Span { return e.S }

type UnaryExpr struct {
	Op   string
	Expr Expr
	S    source.Span
}

func (*UnaryExpr) exprNode()           {}
func (e *UnaryExpr) Span() source.Span { return e.S }

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*BinaryExpr) exprNode()           {}
func (e *BinaryExpr) Span() source.Span { return e.S }

type CallExpr struct {
	Callee Expr
	Args   []Expr
	S      source.Span
}

func (*CallExpr) exprNode()           {}
func (e *CallExpr) Span() source.Span { return e.S }

// SelectorExpr is a field reference `X.Sel`.
type SelectorExpr struct {
	X   Expr
	Sel string
	S   source.Span
}

func (*SelectorExpr) exprNode()           {}
func (e *SelectorExpr) Span() source.Span { return e.S }

type IndexExpr struct {
	X     Expr
	Index Expr
	S     source.Span
}

func (*IndexExpr) exprNode()           {}
func (e *IndexExpr) Span() source.Span { return e.S }

// AnyExpr stands for `any port`, `any timer`, `any component` or
// `all component` in the reference position of a communication statement.
type AnyExpr struct {
	All   bool
	Class TargetClass
	S     source.Span
}

func (*AnyExpr) exprNode()           {}
func (e *AnyExpr) Span() source.Span { return e.S }

// RootIdent returns the identifier a reference expression starts with.
func RootIdent(e Expr) (*IdentExpr, bool) {
	for {
		switch x := e.(type) {
		case *IdentExpr:
			return x, true
		case *SelectorExpr:
			e = x.X
		case *IndexExpr:
			e = x.X
		default:
			return nil, false
		}
	}
}

// InspectExpr calls fn for e and its sub-expressions in depth-first order
// until fn returns false.
func InspectExpr(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case *UnaryExpr:
		InspectExpr(x.Expr, fn)
	case *BinaryExpr:
		InspectExpr(x.Left, fn)
		InspectExpr(x.Right, fn)
	case *CallExpr:
		InspectExpr(x.Callee, fn)
		for _, a := range x.Args {
			InspectExpr(a, fn)
		}
	case *SelectorExpr:
		InspectExpr(x.X, fn)
	case *IndexExpr:
		InspectExpr(x.X, fn)
		InspectExpr(x.Index, fn)
	}
}

// moveExpr rewrites every span of e with m.
func moveExpr(e Expr, m spanMap) {
	InspectExpr(e, func(n Expr) bool {
		switch x := n.(type) {
		case *IdentExpr:
			x.S = m(x.S)
		case *IntLit:
			x.S = m(x.S)
		case *FloatLit:
			x.S = m(x.S)
		case *StringLit:
			x.S = m(x.S)
		case *BoolLit:
			x.S = m(x.S)
		case *VerdictLit:
			x.S = m(x.S)
		case *UnaryExpr:
			x.S = m(x.S)
		case *BinaryExpr:
			x.S = m(x.S)
		case *CallExpr:
			x.S = m(x.S)
		case *SelectorExpr:
			x.S = m(x.S)
		case *IndexExpr:
			x.S = m(x.S)
		case *AnyExpr:
			x.S = m(x.S)
		}
		return true
	})
}
