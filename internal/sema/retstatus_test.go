package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"ttcnlang/internal/ast"
)

var statusGen = rapid.SampledFrom([]ast.ReturnStatus{ast.ReturnNo, ast.ReturnMaybe, ast.ReturnYes})

func TestMergeTable(t *testing.T) {
	yes, maybe, no := ast.ReturnYes, ast.ReturnMaybe, ast.ReturnNo
	assert.Equal(t, no, Merge(nil, true))
	assert.Equal(t, no, Merge(nil, false))
	assert.Equal(t, yes, Merge([]ast.ReturnStatus{yes, yes}, true))
	assert.Equal(t, maybe, Merge([]ast.ReturnStatus{yes, yes}, false))
	assert.Equal(t, maybe, Merge([]ast.ReturnStatus{yes, no}, true))
	assert.Equal(t, no, Merge([]ast.ReturnStatus{no}, false))
}

func TestMergeLaws(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOfN(statusGen, 1, 8).Draw(t, "xs")
		exhaustive := rapid.Bool().Draw(t, "exhaustive")
		got := Merge(xs, exhaustive)

		perm := rapid.Permutation(xs).Draw(t, "perm")
		if p := Merge(perm, exhaustive); p != got {
			t.Fatalf("order changed the result: %s vs %s", got, p)
		}
		if !exhaustive {
			if w := Merge(append(append([]ast.ReturnStatus{}, xs...), ast.ReturnNo), true); w != got {
				t.Fatalf("non-exhaustive merge %s differs from merge with a NO branch %s", got, w)
			}
		}
		if got == ast.ReturnYes {
			for _, x := range xs {
				if x != ast.ReturnYes {
					t.Fatalf("YES although a branch is %s", x)
				}
			}
		}
		if Merge(xs, true) != ast.ReturnMaybe && Merge(xs, true) != xs[0] {
			t.Fatalf("uniform merge must return the shared value")
		}
	})
}
