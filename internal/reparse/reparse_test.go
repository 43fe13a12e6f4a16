package reparse

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/parser"
	"ttcnlang/internal/source"
)

const sample = `module M {
type component C { port P p; timer T }
function f(in integer a) runs on C return integer {
  var integer x := a;
  if (x > 0) {
    log("pos", x);
    x := x - 1
  } else {
    for (var integer i := 0; i < 3; i := i + 1) { log(i) }
  }
  alt {
    [] p.receive { log("r") }
    [else] { }
  }
  return x
}
altstep as1() runs on C {
  var integer n := 1;
  [n > 0] T.timeout { log("t"); repeat }
  [] p.receive { }
}
testcase tc() runs on C {
  label L;
  log("tc");
  goto L
}
}
`

func mustParse(t require.TestingT, src string) *ast.Unit {
	u, diags := parser.Parse(source.NewFile("m.ttcn", src))
	require.Zero(t, diags.Len(), "parse diagnostics: %+v", diags.Items)
	return u
}

// shape renders the block tree with spans and parent links.
func shape(u *ast.Unit) string {
	var sb strings.Builder
	var block func(id, parent ast.BlockID, depth int)
	stmt := func(st *ast.Statement, owner ast.BlockID, depth int) {
		fmt.Fprintf(&sb, "%s%s %d-%d", strings.Repeat("  ", depth), st.Kind, st.S.Start, st.S.End)
		if st.Value != nil {
			fmt.Fprintf(&sb, " value %d-%d", st.Value.Span().Start, st.Value.Span().End)
		}
		if st.Def != nil {
			fmt.Fprintf(&sb, " def %s %d-%d", st.Def.Name, st.Def.S.Start, st.Def.S.End)
		}
		if st.Owner != owner {
			sb.WriteString(" bad-owner")
		}
		sb.WriteString("\n")
		if st.Step != nil {
			fmt.Fprintf(&sb, "%s step %d-%d\n", strings.Repeat("  ", depth), st.Step.S.Start, st.Step.S.End)
		}
		if st.Guards != nil {
			for _, g := range st.Guards.Guards {
				fmt.Fprintf(&sb, "%s guard %s %d-%d\n", strings.Repeat("  ", depth), g.Kind, g.S.Start, g.S.End)
			}
		}
		for _, id := range st.Blocks() {
			if id == st.Body && st.Header != ast.NoBlock {
				block(id, st.Header, depth+1)
				continue
			}
			block(id, owner, depth+1)
		}
	}
	block = func(id, parent ast.BlockID, depth int) {
		b := u.Arena.Block(id)
		if b == nil {
			fmt.Fprintf(&sb, "%smissing\n", strings.Repeat("  ", depth))
			return
		}
		fmt.Fprintf(&sb, "%sblock %d-%d", strings.Repeat("  ", depth), b.S.Start, b.S.End)
		if b.Parent != parent {
			sb.WriteString(" bad-parent")
		}
		sb.WriteString("\n")
		for i, st := range b.Stmts {
			if st.Index != i {
				fmt.Fprintf(&sb, "%sbad-index %d\n", strings.Repeat("  ", depth), i)
			}
			stmt(st, b.ID, depth+1)
		}
	}
	for _, beh := range u.Behaviors {
		fmt.Fprintf(&sb, "%s %s %d-%d\n", beh.Kind, beh.Name, beh.S.Start, beh.S.End)
		block(beh.Body, ast.NoBlock, 1)
		if beh.Guards != nil {
			for _, g := range beh.Guards.Guards {
				fmt.Fprintf(&sb, "  guard %s %d-%d\n", g.Kind, g.S.Start, g.S.End)
				block(g.Body, beh.Body, 2)
			}
		}
	}
	for _, c := range u.Components {
		fmt.Fprintf(&sb, "component %s %d-%d\n", c.Name, c.S.Start, c.S.End)
	}
	return sb.String()
}

type edit struct {
	start, end int
	text       string
}

func apply(t require.TestingT, u *ast.Unit, p Parser, e edit) (*Updater, error) {
	delta, err := u.File.Apply(e.start, e.end, e.text)
	require.NoError(t, err)
	up := NewUpdater(u.File, u.Arena, p, e.start, e.end, delta, zerolog.Nop())
	return up, up.Update(u)
}

func editAt(src, anchor, text string, replace int) edit {
	i := strings.Index(src, anchor)
	if i < 0 {
		panic("anchor not found: " + anchor)
	}
	return edit{start: i, end: i + replace, text: text}
}

func requireSameAsFullParse(t *testing.T, u *ast.Unit) {
	t.Helper()
	fresh := mustParse(t, u.File.Input)
	if diff := cmp.Diff(shape(fresh), shape(u)); diff != "" {
		t.Fatalf("incremental tree differs from a full parse (-full +incremental):\n%s", diff)
	}
}

func TestEditInsideNestedBlock(t *testing.T) {
	u := mustParse(t, sample)
	ret := u.Arena.Block(u.Behaviors[0].Body).Stmts[3]
	up, err := apply(t, u, parser.Region{}, editAt(sample, `log("pos", x)`, `log("positive", x)`, len(`log("pos", x)`)))
	require.NoError(t, err)
	require.Equal(t, 1, up.Reparsed)
	require.False(t, up.ScopeChanged)
	requireSameAsFullParse(t, u)
	require.Same(t, ret, u.Arena.Block(u.Behaviors[0].Body).Stmts[3], "statements after the edit keep their identity")
}

func TestEditInsideForBody(t *testing.T) {
	u := mustParse(t, sample)
	up, err := apply(t, u, parser.Region{}, editAt(sample, `log(i)`, `log(i); log(i * 2)`, len(`log(i)`)))
	require.NoError(t, err)
	require.Equal(t, 2, up.Reparsed)
	requireSameAsFullParse(t, u)
}

func TestEditInsideAltstepGuard(t *testing.T) {
	u := mustParse(t, sample)
	_, err := apply(t, u, parser.Region{}, editAt(sample, `log("t")`, `log("timeout")`, len(`log("t")`)))
	require.NoError(t, err)
	requireSameAsFullParse(t, u)
}

func TestEditAltstepGuardListFails(t *testing.T) {
	u := mustParse(t, sample)
	_, err := apply(t, u, parser.Region{}, editAt(sample, `[] p.receive { }`, `[] T.timeout { }`, len(`[] p.receive { }`)))
	var rerr *ReparseError
	require.ErrorAs(t, err, &rerr)
}

func TestInsertDefinitionChangesScope(t *testing.T) {
	u := mustParse(t, sample)
	up, err := apply(t, u, parser.Region{}, editAt(sample, `  label L;`, "  var integer y := 1;\n", 0))
	require.NoError(t, err)
	require.True(t, up.ScopeChanged)
	requireSameAsFullParse(t, u)
}

func TestEditConditionReparsesStatement(t *testing.T) {
	u := mustParse(t, sample)
	up, err := apply(t, u, parser.Region{}, editAt(sample, `x > 0`, `x >= 10`, len(`x > 0`)))
	require.NoError(t, err)
	require.Equal(t, 1, up.Reparsed)
	requireSameAsFullParse(t, u)
}

func TestAppendElseExtendsIf(t *testing.T) {
	src := "function f() {\n  if (true) { log(1) }\n  log(2)\n}\n"
	u := mustParse(t, src)
	up, err := apply(t, u, parser.Region{}, editAt(src, "\n  log(2)", " else { log(3) }", 0))
	require.NoError(t, err)
	require.Equal(t, 1, up.Reparsed)
	requireSameAsFullParse(t, u)
	require.Len(t, u.Arena.Block(u.Behaviors[0].Body).Stmts, 2)
}

func TestOperatorContinuesPreviousStatement(t *testing.T) {
	src := "function f() {\n  var integer x := 1\n  log(x)\n}\n"
	u := mustParse(t, src)
	up, err := apply(t, u, parser.Region{}, editAt(src, "  log(x)", "  + 2\n", 0))
	require.NoError(t, err)
	require.Equal(t, 1, up.Reparsed)
	requireSameAsFullParse(t, u)
	root := u.Arena.Block(u.Behaviors[0].Body)
	require.Len(t, root.Stmts, 2)
	require.IsType(t, &ast.BinaryExpr{}, root.Stmts[0].Def.Init)
}

func TestUnbalancedBraceFails(t *testing.T) {
	src := "function f() { if (true) { log(\"a\") } }\n"
	u := mustParse(t, src)
	_, err := apply(t, u, parser.Region{}, editAt(src, ` }`, ` {`, 0))
	var rerr *ReparseError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, 1, rerr.Depth)
}

func TestEditOutsideBehavior(t *testing.T) {
	u := mustParse(t, sample)
	_, err := apply(t, u, parser.Region{}, editAt(sample, `timer T }`, `timer T2 }`, len(`timer T }`)))
	require.ErrorIs(t, err, ErrOutsideBehavior)
}

// deferring asks for a reparse two levels up on its first call.
type deferring struct {
	parser.Region
	calls int
}

func (d *deferring) ParseStatements(arena *ast.Arena, parent ast.BlockID, file *source.File, start, end int) ([]*ast.Statement, error) {
	d.calls++
	if d.calls == 1 {
		return nil, &ReparseError{Depth: 2, Err: errors.New("restart higher up")}
	}
	return d.Region.ParseStatements(arena, parent, file, start, end)
}

func TestDeeperErrorHandledByAncestor(t *testing.T) {
	src := "function f() {\n  if (true) {\n    while (true) { log(1) }\n  }\n}\n"
	u := mustParse(t, src)
	p := &deferring{}
	up, err := apply(t, u, p, editAt(src, "log(1)", "log(2)", len("log(1)")))
	require.NoError(t, err)
	require.Equal(t, 2, p.calls)
	require.Equal(t, 1, up.Reparsed, "the root reparses the if statement")
	requireSameAsFullParse(t, u)
}

func TestFreedBlockDefersToParent(t *testing.T) {
	src := "function f() {\n  if (true) { log(1) }\n}\n"
	u := mustParse(t, src)
	ifBody := u.Arena.Block(u.Arena.Block(u.Behaviors[0].Body).Stmts[0].Clauses[0].Body)
	ifBody.Freed = true
	up, err := apply(t, u, parser.Region{}, editAt(src, "log(1)", "log(2)", len("log(1)")))
	require.NoError(t, err)
	require.Equal(t, 1, up.Reparsed)
	require.Nil(t, u.Arena.Block(ifBody.ID))
	requireSameAsFullParse(t, u)
}

func TestRandomInsertionsMatchFullParse(t *testing.T) {
	snippets := []string{" ", "\n", "log(1); ", "var integer z := 2; ", "label Q; ", "{ } "}
	rapid.Check(t, func(t *rapid.T) {
		u := mustParse(t, sample)
		steps := rapid.IntRange(1, 4).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			at := rapid.IntRange(0, len(u.File.Input)).Draw(t, "at")
			text := rapid.SampledFrom(snippets).Draw(t, "text")
			if _, err := apply(t, u, parser.Region{}, edit{start: at, end: at, text: text}); err != nil {
				return
			}
			fresh, diags := parser.Parse(source.NewFile("m.ttcn", u.File.Input))
			if diags.Len() > 0 {
				return
			}
			if diff := cmp.Diff(shape(fresh), shape(u)); diff != "" {
				t.Fatalf("after inserting %q at %d (-full +incremental):\n%s", text, at, diff)
			}
		}
	})
}
