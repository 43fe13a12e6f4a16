package parser

import (
	"errors"
	"strings"
	"testing"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/source"
)

func parseOK(t *testing.T, src string) *ast.Unit {
	t.Helper()
	f := source.NewFile("test.ttcn", src)
	u, diags := Parse(f)
	if diags.Len() > 0 {
		t.Fatalf("unexpected diags: %+v", diags.Items)
	}
	return u
}

func body(t *testing.T, u *ast.Unit, i int) *ast.Block {
	t.Helper()
	b := u.Arena.Block(u.Behaviors[i].Body)
	if b == nil {
		t.Fatalf("behavior %d has no body", i)
	}
	return b
}

func TestParseFunction(t *testing.T) {
	u := parseOK(t, `module M {
type component C { var integer n; timer T; port P p }
function f(in integer x, timer t) runs on C return integer {
  var integer y := x + 1;
  log("y", y);
  return y
}
}`)
	if u.Module != "M" {
		t.Fatalf("expected module M, got %q", u.Module)
	}
	if len(u.Components) != 1 || len(u.Components[0].Members) != 3 {
		t.Fatalf("expected one component with 3 members, got %+v", u.Components)
	}
	fn := u.Behaviors[0]
	if fn.Name != "f" || fn.RunsOn != "C" || fn.ReturnType != "integer" {
		t.Fatalf("unexpected behavior header: %+v", fn)
	}
	if len(fn.Params) != 2 || fn.Params[1].TypeName != "timer" {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
	b := body(t, u, 0)
	if len(b.Implicit) != 2 || b.Behavior != fn {
		t.Fatalf("parameters not attached to the body block")
	}
	kinds := []ast.StmtKind{ast.StmtDef, ast.StmtLog, ast.StmtReturn}
	if len(b.Stmts) != len(kinds) {
		t.Fatalf("expected %d statements, got %d", len(kinds), len(b.Stmts))
	}
	for i, st := range b.Stmts {
		if st.Kind != kinds[i] {
			t.Fatalf("stmt %d: expected %s, got %s", i, kinds[i], st.Kind)
		}
		if st.Index != i || st.Owner != b.ID {
			t.Fatalf("stmt %d: bad index/owner %d/%d", i, st.Index, st.Owner)
		}
		if !b.S.Encloses(st.S) {
			t.Fatalf("stmt %d span %v escapes block", i, st.S)
		}
	}
	if got := u.File.Slice(b.Stmts[0].S.Start, b.Stmts[0].S.End); got != "var integer y := x + 1;" {
		t.Fatalf("definition span should include the semicolon, got %q", got)
	}
}

func TestParseControlFlow(t *testing.T) {
	u := parseOK(t, `function f() {
  if (true) { } else if (false) { } else { }
  while (true) { break }
  do { continue } while (false)
  for (var integer i := 0; i < 10; i := i + 1) { }
  select (1) { case (1, 2) { } case else { } }
  label L; goto L;
  try { } catch (e) { log(e) }
  { stop }
}`)
	b := body(t, u, 0)
	want := []ast.StmtKind{ast.StmtIf, ast.StmtWhile, ast.StmtDoWhile, ast.StmtFor, ast.StmtSelect,
		ast.StmtLabel, ast.StmtGoto, ast.StmtTry, ast.StmtCatch, ast.StmtBlock}
	if len(b.Stmts) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(b.Stmts))
	}
	for i, st := range b.Stmts {
		if st.Kind != want[i] {
			t.Fatalf("stmt %d: expected %s, got %s", i, want[i], st.Kind)
		}
	}
	ifSt := b.Stmts[0]
	if len(ifSt.Clauses) != 3 || !ifSt.Clauses[2].Else {
		t.Fatalf("expected if/else if/else clauses, got %d", len(ifSt.Clauses))
	}
	loop := u.Arena.Block(b.Stmts[1].Body)
	if !loop.Loop || loop.Parent != b.ID {
		t.Fatalf("while body should be a loop block under the function body")
	}
	forSt := b.Stmts[3]
	header := u.Arena.Block(forSt.Header)
	if header == nil || !header.Header || len(header.Stmts) != 1 || header.Stmts[0].Def.Name != "i" {
		t.Fatalf("for header should hold the initializer")
	}
	if u.Arena.Block(forSt.Body).Parent != header.ID {
		t.Fatalf("for body should hang below the header")
	}
	sel := b.Stmts[4]
	if len(sel.Clauses) != 2 || len(sel.Clauses[0].Values) != 2 || !sel.Clauses[1].Else {
		t.Fatalf("unexpected select clauses")
	}
	catch := u.Arena.Block(b.Stmts[8].Body)
	if len(catch.Implicit) != 1 || catch.Implicit[0].Name != "e" {
		t.Fatalf("catch variable should be an implicit definition")
	}
}

func TestParseCommunication(t *testing.T) {
	u := parseOK(t, `function f() runs on C {
  p.send(1);
  p.receive(2) -> value x;
  any port.receive;
  T.start(5.0); T.stop; vc.start(g()); vc.done; all component.killed
  p.call(s) { [] p.getreply { } }
}`)
	b := body(t, u, 0)
	if len(b.Stmts) != 9 {
		t.Fatalf("expected 9 statements, got %d", len(b.Stmts))
	}
	if b.Stmts[0].Kind != ast.StmtPortOp || b.Stmts[0].Op != ast.OpSend {
		t.Fatalf("expected send, got %s", b.Stmts[0].Kind)
	}
	if b.Stmts[1].Redirect == nil {
		t.Fatalf("expected value redirect on receive")
	}
	if a, ok := b.Stmts[2].Target.(*ast.AnyExpr); !ok || a.Class != ast.ClassPort {
		t.Fatalf("expected any port target, got %T", b.Stmts[2].Target)
	}
	for i, k := range []ast.StmtKind{ast.StmtStart, ast.StmtStop, ast.StmtStart, ast.StmtDone, ast.StmtKilled} {
		if b.Stmts[3+i].Kind != k {
			t.Fatalf("stmt %d: expected %s, got %s", 3+i, k, b.Stmts[3+i].Kind)
		}
	}
	call := b.Stmts[8]
	if call.Op != ast.OpCall || call.Guards == nil || len(call.Guards.Guards) != 1 {
		t.Fatalf("expected call with one response guard")
	}
}

func TestParseAltAndAltstep(t *testing.T) {
	u := parseOK(t, `altstep as1() runs on C {
  var integer n;
  [] T.timeout { repeat }
  [n > 0] p.receive { }
}
function f() runs on C {
  alt {
    [] as1()
    [] d.apply()
    [else] { }
  }
  interleave { [] p.receive { } }
}`)
	as1 := u.Behaviors[0]
	if as1.Kind != ast.BehaviorAltstep || as1.Guards == nil || len(as1.Guards.Guards) != 2 {
		t.Fatalf("expected altstep with 2 guards")
	}
	if len(body(t, u, 0).Stmts) != 1 {
		t.Fatalf("expected the altstep local definition in its body block")
	}
	if as1.Guards.Guards[1].Cond == nil {
		t.Fatalf("expected guard precondition")
	}
	alt := body(t, u, 1).Stmts[0]
	kinds := []ast.GuardKind{ast.GuardReferenced, ast.GuardInvoke, ast.GuardElse}
	for i, g := range alt.Guards.Guards {
		if g.Kind != kinds[i] {
			t.Fatalf("guard %d: expected %s, got %s", i, kinds[i], g.Kind)
		}
	}
	if body(t, u, 1).Stmts[1].Kind != ast.StmtInterleave {
		t.Fatalf("expected interleave")
	}
}

func TestParseRecovery(t *testing.T) {
	f := source.NewFile("test.ttcn", `bogus function f() { x := ; log("a") }`)
	u, diags := Parse(f)
	if diags.Len() == 0 {
		t.Fatalf("expected diagnostics")
	}
	if len(u.Behaviors) != 1 || u.Behaviors[0].Name != "f" {
		t.Fatalf("expected to still parse f")
	}
	found := false
	for _, it := range diags.Items {
		if it.Msg == "expected expression" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected %q, got: %+v", "expected expression", diags.Items)
	}
}

func TestParseStatementsRegion(t *testing.T) {
	src := `function f() { log(1); x := 2; { y := 3 } }`
	u := parseOK(t, src)
	b := body(t, u, 0)
	start := strings.Index(src, "x :=")
	end := strings.Index(src, "} }") + 1
	live := u.Arena.Live()
	stmts, err := ParseStatements(u.Arena, b.ID, u.File, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmts) != 2 || stmts[0].Kind != ast.StmtAssign || stmts[1].Kind != ast.StmtBlock {
		t.Fatalf("unexpected statements: %+v", stmts)
	}
	if stmts[0].S.Start != start {
		t.Fatalf("spans must stay file relative, got %d want %d", stmts[0].S.Start, start)
	}
	if u.Arena.Block(stmts[1].Body).Parent != b.ID {
		t.Fatalf("new block should hang below the parent")
	}
	if u.Arena.Live() != live+1 {
		t.Fatalf("expected one new block")
	}
}

func TestParseStatementsFailureReleasesBlocks(t *testing.T) {
	src := `function f() { log(1) }`
	u := parseOK(t, src)
	b := body(t, u, 0)
	f := source.NewFile("test.ttcn", `{ { x := } `)
	live := u.Arena.Live()
	_, err := ParseStatements(u.Arena, b.ID, f, 0, len(f.Input))
	var pf *ParseFailure
	if !errors.As(err, &pf) || pf.Diags.Len() == 0 {
		t.Fatalf("expected ParseFailure, got %v", err)
	}
	if u.Arena.Live() != live {
		t.Fatalf("failed region must not leak blocks: %d vs %d", u.Arena.Live(), live)
	}
}

func TestCanExtendAndPrefix(t *testing.T) {
	u := parseOK(t, `function f() { if (true) { } x := 1 { } }`)
	b := body(t, u, 0)
	ifSt, assign, blk := b.Stmts[0], b.Stmts[1], b.Stmts[2]
	if !CanExtend(ifSt, " else { }") {
		t.Fatalf("if without else should take an else")
	}
	if CanExtend(ifSt, " log(1)") {
		t.Fatalf("if should not take a log")
	}
	if !CanExtend(assign, " + 2") {
		t.Fatalf("unterminated assignment should take an operator")
	}
	if !CanPrefix(blk, "while (c) ") || !CanPrefix(blk, "else") {
		t.Fatalf("block should take a loop header or else before it")
	}
	if CanPrefix(blk, "log(1);") {
		t.Fatalf("block should not take a finished statement before it")
	}
}
