// Package types answers the narrow type questions the statement checker
// asks: the static type of an expression, whether it is boolean, what a
// module level name refers to and whether two runs-on clauses fit.
package types

import (
	"strconv"

	"ttcnlang/internal/ast"
)

type Kind int

const (
	TyUnknown Kind = iota
	TyInteger
	TyFloat
	TyBoolean
	TyCharstring
	TyVerdict
	TyComponent
	TyTimer
	TyPort
	TyDefault
)

type Type struct {
	K    Kind
	Name string // component or port type name
}

var Unknown = Type{}

func (t Type) String() string {
	switch t.K {
	case TyInteger:
		return "integer"
	case TyFloat:
		return "float"
	case TyBoolean:
		return "boolean"
	case TyCharstring:
		return "charstring"
	case TyVerdict:
		return "verdicttype"
	case TyComponent:
		return "component " + t.Name
	case TyTimer:
		return "timer"
	case TyPort:
		return "port " + t.Name
	case TyDefault:
		return "default"
	default:
		return "<unknown>"
	}
}

// Scope is the checker's view of the local scope chain at a point.
type Scope interface {
	Lookup(name string) (*ast.Definition, bool)
	RunsOn() string
}

// Oracle is the type-system collaborator of the checker. It never changes
// the tree it is asked about.
type Oracle interface {
	StaticTypeOf(e ast.Expr, sc Scope) Type
	IsBoolean(t Type) bool
	ResolveReference(name string, sc Scope) (*ast.Definition, bool)
	RunsOnCompatible(caller, callee string) bool
	ConstantBool(e ast.Expr) (value bool, ok bool)
	ClassOf(d *ast.Definition) ast.TargetClass
}

// Basic is an Oracle over a single unit's module level definitions.
type Basic struct {
	globals    map[string]*ast.Definition
	components map[string]*ast.Component
	predef     map[string]predefined
}

type predefined struct {
	def *ast.Definition
	ret Type
}

var _ Oracle = (*Basic)(nil)

func NewBasic(u *ast.Unit) *Basic {
	o := &Basic{
		globals:    map[string]*ast.Definition{},
		components: map[string]*ast.Component{},
		predef:     map[string]predefined{},
	}
	for _, c := range u.Components {
		o.components[c.Name] = c
		o.globals[c.Name] = c.Def
	}
	for _, b := range u.Behaviors {
		o.globals[b.Name] = b.Def
	}
	for _, d := range u.Globals {
		o.globals[d.Name] = d
	}
	fn := func(name string, ret Type) {
		o.predef[name] = predefined{def: &ast.Definition{Name: name, Kind: ast.DefFunction, Owner: ast.NoBlock}, ret: ret}
	}
	fn("int2str", Type{K: TyCharstring})
	fn("float2str", Type{K: TyCharstring})
	fn("str2int", Type{K: TyInteger})
	fn("float2int", Type{K: TyInteger})
	fn("int2float", Type{K: TyFloat})
	fn("lengthof", Type{K: TyInteger})
	fn("sizeof", Type{K: TyInteger})
	fn("rnd", Type{K: TyFloat})
	fn("isvalue", Type{K: TyBoolean})
	fn("ispresent", Type{K: TyBoolean})
	fn("ischosen", Type{K: TyBoolean})
	fn("getverdict", Type{K: TyVerdict})
	for _, name := range []string{"self", "mtc", "system"} {
		o.predef[name] = predefined{
			def: &ast.Definition{Name: name, Kind: ast.DefConst, TypeName: "component", Owner: ast.NoBlock},
			ret: Type{K: TyComponent},
		}
	}
	return o
}

// ResolveReference looks name up in the runs-on component (and the
// components it extends), then among module level definitions.
func (o *Basic) ResolveReference(name string, sc Scope) (*ast.Definition, bool) {
	if sc != nil {
		if d, ok := o.member(sc.RunsOn(), name, map[string]bool{}); ok {
			return d, true
		}
	}
	if d, ok := o.globals[name]; ok {
		return d, true
	}
	if p, ok := o.predef[name]; ok {
		return p.def, true
	}
	return nil, false
}

func (o *Basic) member(comp, name string, seen map[string]bool) (*ast.Definition, bool) {
	c, ok := o.components[comp]
	if !ok || seen[comp] {
		return nil, false
	}
	seen[comp] = true
	for _, m := range c.Members {
		if m.Name == name {
			return m, true
		}
	}
	for _, base := range c.Extends {
		if d, ok := o.member(base, name, seen); ok {
			return d, true
		}
	}
	return nil, false
}

// RunsOnCompatible reports whether a behavior running on caller may start
// or invoke one that runs on callee.
func (o *Basic) RunsOnCompatible(caller, callee string) bool {
	if callee == "" || caller == callee {
		return true
	}
	if caller == "" {
		return false
	}
	return o.extends(caller, callee, map[string]bool{})
}

func (o *Basic) extends(comp, base string, seen map[string]bool) bool {
	c, ok := o.components[comp]
	if !ok || seen[comp] {
		return false
	}
	seen[comp] = true
	for _, b := range c.Extends {
		if b == base || o.extends(b, base, seen) {
			return true
		}
	}
	return false
}

func (o *Basic) IsBoolean(t Type) bool { return t.K == TyBoolean }

func (o *Basic) typeOfName(name string) Type {
	switch name {
	case "integer":
		return Type{K: TyInteger}
	case "float":
		return Type{K: TyFloat}
	case "boolean":
		return Type{K: TyBoolean}
	case "charstring":
		return Type{K: TyCharstring}
	case "verdicttype":
		return Type{K: TyVerdict}
	case "timer":
		return Type{K: TyTimer}
	case "default":
		return Type{K: TyDefault}
	case "component":
		return Type{K: TyComponent}
	}
	if _, ok := o.components[name]; ok {
		return Type{K: TyComponent, Name: name}
	}
	return Unknown
}

func (o *Basic) typeOfDef(d *ast.Definition) Type {
	switch d.Kind {
	case ast.DefTimer:
		return Type{K: TyTimer}
	case ast.DefPort:
		return Type{K: TyPort, Name: d.TypeName}
	case ast.DefComponent:
		return Type{K: TyComponent, Name: d.Name}
	case ast.DefFunction, ast.DefAltstep, ast.DefTestcase:
		return Unknown
	}
	return o.typeOfName(d.TypeName)
}

// ClassOf reports which communication target a definition denotes.
func (o *Basic) ClassOf(d *ast.Definition) ast.TargetClass {
	switch t := o.typeOfDef(d); t.K {
	case TyTimer:
		return ast.ClassTimer
	case TyPort:
		return ast.ClassPort
	case TyComponent:
		if d.Kind != ast.DefComponent {
			return ast.ClassComponent
		}
	}
	return ast.ClassUnknown
}

func (o *Basic) lookup(name string, sc Scope) (*ast.Definition, bool) {
	if sc != nil {
		if d, ok := sc.Lookup(name); ok {
			return d, true
		}
	}
	return o.ResolveReference(name, sc)
}

// StaticTypeOf returns Unknown whenever the type cannot be decided
// locally; callers must not report on Unknown.
func (o *Basic) StaticTypeOf(e ast.Expr, sc Scope) Type {
	switch x := e.(type) {
	case *ast.IntLit:
		return Type{K: TyInteger}
	case *ast.FloatLit:
		return Type{K: TyFloat}
	case *ast.StringLit:
		return Type{K: TyCharstring}
	case *ast.BoolLit:
		return Type{K: TyBoolean}
	case *ast.VerdictLit:
		return Type{K: TyVerdict}
	case *ast.IdentExpr:
		if d, ok := o.lookup(x.Name, sc); ok {
			if p, ok := o.predef[x.Name]; ok && p.def == d {
				return p.ret
			}
			return o.typeOfDef(d)
		}
	case *ast.UnaryExpr:
		if x.Op == "not" {
			return Type{K: TyBoolean}
		}
		return o.StaticTypeOf(x.Expr, sc)
	case *ast.BinaryExpr:
		switch x.Op {
		case "and", "or", "xor", "==", "!=", "<", "<=", ">", ">=":
			return Type{K: TyBoolean}
		case "&":
			return Type{K: TyCharstring}
		}
		l, r := o.StaticTypeOf(x.Left, sc), o.StaticTypeOf(x.Right, sc)
		if l.K == r.K && (l.K == TyInteger || l.K == TyFloat) {
			return l
		}
	case *ast.CallExpr:
		switch callee := x.Callee.(type) {
		case *ast.IdentExpr:
			if p, ok := o.predef[callee.Name]; ok {
				return p.ret
			}
			if d, ok := o.lookup(callee.Name, sc); ok && d.Behavior != nil {
				return o.typeOfName(d.Behavior.ReturnType)
			}
		case *ast.SelectorExpr:
			return o.selectorType(callee, sc)
		}
	case *ast.SelectorExpr:
		return o.selectorType(x, sc)
	}
	return Unknown
}

func (o *Basic) selectorType(x *ast.SelectorExpr, sc Scope) Type {
	switch x.Sel {
	case "running", "alive", "checkstate":
		return Type{K: TyBoolean}
	case "read":
		return Type{K: TyFloat}
	case "create":
		if id, ok := x.X.(*ast.IdentExpr); ok {
			if _, ok := o.components[id.Name]; ok {
				return Type{K: TyComponent, Name: id.Name}
			}
		}
	}
	return Unknown
}

// ConstantBool folds boolean literals, not/and/or/xor and integer
// comparisons of literals.
func (o *Basic) ConstantBool(e ast.Expr) (bool, bool) {
	switch x := e.(type) {
	case *ast.BoolLit:
		return x.Value, true
	case *ast.UnaryExpr:
		if x.Op == "not" {
			v, ok := o.ConstantBool(x.Expr)
			return !v, ok
		}
	case *ast.BinaryExpr:
		switch x.Op {
		case "and", "or", "xor":
			l, lok := o.ConstantBool(x.Left)
			r, rok := o.ConstantBool(x.Right)
			if !lok || !rok {
				return false, false
			}
			switch x.Op {
			case "and":
				return l && r, true
			case "or":
				return l || r, true
			}
			return l != r, true
		case "==", "!=", "<", "<=", ">", ">=":
			l, lok := constInt(x.Left)
			r, rok := constInt(x.Right)
			if !lok || !rok {
				return false, false
			}
			switch x.Op {
			case "==":
				return l == r, true
			case "!=":
				return l != r, true
			case "<":
				return l < r, true
			case "<=":
				return l <= r, true
			case ">":
				return l > r, true
			}
			return l >= r, true
		}
	}
	return false, false
}

func constInt(e ast.Expr) (int64, bool) {
	switch x := e.(type) {
	case *ast.IntLit:
		n, err := strconv.ParseInt(x.Text, 10, 64)
		return n, err == nil
	case *ast.UnaryExpr:
		if x.Op == "-" {
			n, ok := constInt(x.Expr)
			return -n, ok
		}
	}
	return 0, false
}
