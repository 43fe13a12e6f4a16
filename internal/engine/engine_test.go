package engine

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttcnlang/internal/config"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/stamp"
)

const src = `module M {
type component C { port P p; timer T }
function f(in integer a) runs on C return integer {
  var integer x := a;
  if (x > 0) {
    var integer unused;
    log("pos", x)
  } else {
    while (x < 0) { x := x + 1 }
  }
  return x
}
testcase tc() runs on C {
  var integer k := 1;
  if (k > 0) { log(k) }
  T.start(1.0);
  T.timeout
}
}
`

type item struct {
	Start, End int
	Line, Col  int
	Severity   diag.Severity
	Msg        string
}

func items(b *diag.Bag) []item {
	var out []item
	for _, it := range b.Sorted() {
		out = append(out, item{it.Start, it.End, it.Line, it.Col, it.Severity, it.Msg})
	}
	return out
}

func open(t *testing.T, text string, opts config.Options) *Unit {
	t.Helper()
	return Open("m.ttcn", text, opts, stamp.NewClock(), zerolog.Nop())
}

func check(t *testing.T, u *Unit) []item {
	t.Helper()
	bag, err := u.Check()
	require.NoError(t, err)
	return items(bag)
}

// requireFresh compares the diagnostics of u with those of a unit opened
// from the same text.
func requireFresh(t *testing.T, u *Unit, opts config.Options) {
	t.Helper()
	want := check(t, open(t, u.Text(), opts))
	if diff := cmp.Diff(want, check(t, u)); diff != "" {
		t.Fatalf("diagnostics differ from a fresh unit (-fresh +edited):\n%s", diff)
	}
}

func editAt(t *testing.T, u *Unit, anchor, text string, replace int) EditResult {
	t.Helper()
	i := strings.Index(u.Text(), anchor)
	require.GreaterOrEqual(t, i, 0, "anchor %q", anchor)
	res, err := u.Edit(i, i+replace, text)
	require.NoError(t, err)
	return res
}

func TestCheckReportsDiagnostics(t *testing.T) {
	got := check(t, open(t, src, config.Default()))
	require.Len(t, got, 1)
	assert.Equal(t, "The variable `unused' seems to be never used locally", got[0].Msg)
	assert.Equal(t, 6, got[0].Line)
}

func TestIncrementalEditReusesStamp(t *testing.T) {
	u := open(t, src, config.Default())
	check(t, u)
	ts := u.ts
	full := u.Stats().Checked

	res := editAt(t, u, `log("pos", x)`, `log("positive", x)`, len(`log("pos", x)`))
	require.True(t, res.Incremental)
	require.Equal(t, 1, res.Reparsed)
	check(t, u)
	assert.Equal(t, ts, u.ts, "an incremental edit keeps the stamp")
	assert.Less(t, u.Stats().Checked, full, "untouched blocks are not checked again")
	requireFresh(t, u, config.Default())
}

func TestEditShiftsLaterDiagnostics(t *testing.T) {
	text := strings.Replace(src, "  T.timeout\n", "  T.timeout;\n  var integer late\n", 1)
	u := open(t, text, config.Default())
	before := check(t, u)
	require.Len(t, before, 2)

	editAt(t, u, `log("pos", x)`, "log(\"pos\", x);\n    log(a)", len(`log("pos", x)`))
	requireFresh(t, u, config.Default())
}

func TestEditOutsideBehaviorParsesInFull(t *testing.T) {
	u := open(t, src, config.Default())
	check(t, u)
	ts := u.ts
	res := editAt(t, u, "timer T }", "timer T; timer T2 }", len("timer T }"))
	require.False(t, res.Incremental)
	check(t, u)
	assert.True(t, ts.IsLess(u.ts), "a full reparse takes a fresh stamp")
	requireFresh(t, u, config.Default())
}

func TestEditRemovingDefinitionReportsUse(t *testing.T) {
	u := open(t, src, config.Default())
	check(t, u)
	res := editAt(t, u, "  var integer k := 1;\n", "", len("  var integer k := 1;\n"))
	require.True(t, res.Incremental)
	require.True(t, res.ScopeChanged)
	got := check(t, u)
	assert.Contains(t, got, item{Severity: diag.Error, Msg: "There is no local or imported definition with name `k'",
		Start: strings.Index(u.Text(), "k > 0"), End: strings.Index(u.Text(), "k > 0") + 1,
		Line: 14, Col: 7})
	requireFresh(t, u, config.Default())
}

func TestSyntaxErrorThenRepair(t *testing.T) {
	u := open(t, src, config.Default())
	check(t, u)
	res := editAt(t, u, "return x", "return x +", len("return x"))
	require.False(t, res.Incremental)
	bag, err := u.Check()
	require.NoError(t, err)
	require.True(t, bag.HasErrors())

	res = editAt(t, u, "return x +", "return x", len("return x +"))
	require.False(t, res.Incremental, "a tree with syntax errors is parsed again")
	requireFresh(t, u, config.Default())
}

func TestMinimiseThenEdit(t *testing.T) {
	opts := config.Default()
	opts.MinimiseMemoryUsage = true
	u := open(t, src, opts)
	first := check(t, u)
	require.Len(t, first, 1, "the freed block keeps its diagnostics")

	res := editAt(t, u, `log("pos", x)`, `log("pos", x, a)`, len(`log("pos", x)`))
	require.True(t, res.Incremental)
	requireFresh(t, u, opts)
}

func TestMinimiseStaleBlockFallsBack(t *testing.T) {
	opts := config.Default()
	opts.MinimiseMemoryUsage = true
	u := open(t, src, opts)
	check(t, u)
	editAt(t, u, "  var integer k := 1;\n", "", len("  var integer k := 1;\n"))
	got := check(t, u)
	assert.Equal(t, 2, countMsg(got, "no local or imported definition with name `k'"))
	requireFresh(t, u, opts)
}

func countMsg(items []item, substr string) int {
	n := 0
	for _, it := range items {
		if strings.Contains(it.Msg, substr) {
			n++
		}
	}
	return n
}

func TestReconfigureAppliesSeverities(t *testing.T) {
	u := open(t, src, config.Default())
	require.Len(t, check(t, u), 1)

	opts := config.Default()
	opts.ReportUnusedLocalDefinition = diag.Error
	require.NoError(t, u.Reconfigure(opts))
	got := check(t, u)
	require.Len(t, got, 1)
	assert.Equal(t, diag.Error, got[0].Severity)

	opts.TooManyStatementsThreshold = 0
	assert.Error(t, u.Reconfigure(opts))
}

func TestConcurrentChecks(t *testing.T) {
	u := open(t, src, config.Default())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := u.Check(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestWorkspaceEvictsLeastRecentlyUsed(t *testing.T) {
	opts := config.Default()
	opts.OpenUnits = 2
	w, err := NewWorkspace(opts, zerolog.Nop())
	require.NoError(t, err)
	w.Open("a.ttcn", "function a() { }")
	w.Open("b.ttcn", "function b() { }")
	_, ok := w.Get("a.ttcn")
	require.True(t, ok)
	w.Open("c.ttcn", "function c() { }")

	assert.Equal(t, 2, w.Len())
	assert.EqualValues(t, 1, w.Evicted())
	_, ok = w.Get("b.ttcn")
	assert.False(t, ok)

	bags, err := w.CheckAll()
	require.NoError(t, err)
	assert.Len(t, bags, 2)

	opts.OpenUnits = 1
	require.NoError(t, w.Reconfigure(opts))
	assert.Equal(t, 1, w.Len())
}

func TestWorkspaceOpenPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ttcn"), []byte("function a() { goto L }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.ttcn3"), []byte("function b() { }"), 0o644))

	w, err := NewWorkspace(config.Default(), zerolog.Nop())
	require.NoError(t, err)
	units, err := w.OpenPaths(dir, dir)
	require.NoError(t, err)
	require.Len(t, units, 2)

	res, err := w.Edit("a.ttcn", len("function a() { goto L"), len("function a() { goto L"), "; label L")
	require.NoError(t, err)
	assert.True(t, res.Incremental)
	bags, err := w.CheckAll()
	require.NoError(t, err)
	assert.Zero(t, bags["a.ttcn"].Len())

	_, err = w.Edit("missing.ttcn", 0, 0, "")
	assert.Error(t, err)
}
