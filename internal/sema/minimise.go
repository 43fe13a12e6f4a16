package sema

import "ttcnlang/internal/ast"

// Minimise frees the statement blocks directly below each checked
// behavior body. A freed block keeps its diagnostics, return status and
// escape records and drops everything else. It returns the number of
// blocks freed.
func (c *Checker) Minimise() int {
	n := 0
	for _, beh := range c.unit.Behaviors {
		root := c.arena.Block(beh.Body)
		if root == nil || root.LastChecked.IsZero() {
			continue
		}
		for _, st := range root.Stmts {
			for _, id := range st.Blocks() {
				if id == st.Header {
					continue
				}
				if c.free(id) {
					n++
				}
			}
		}
		if beh.Guards != nil {
			for _, gd := range beh.Guards.Guards {
				n += c.freeAll([]ast.BlockID{gd.Body})
			}
		}
	}
	if n > 0 {
		c.log.Debug().Int("freed", n).Int("live", c.arena.Live()).Msg("minimised unit")
	}
	return n
}

func (c *Checker) freeAll(ids []ast.BlockID) int {
	n := 0
	for _, id := range ids {
		if c.free(id) {
			n++
		}
	}
	return n
}

func (c *Checker) free(id ast.BlockID) bool {
	b := c.arena.Block(id)
	if b == nil || b.Freed || b.LastChecked.IsZero() || b.Phase != ast.PhaseIdle {
		return false
	}
	for _, st := range b.Stmts {
		for _, child := range st.Blocks() {
			c.collect(b, child)
		}
		c.arena.ReleaseStatement(st)
	}
	b.Stmts = nil
	b.Implicit = nil
	clear(b.Definitions)
	clear(b.Labels)
	b.Freed = true
	return true
}

// collect moves the diagnostics of id and its descendants into dst.
func (c *Checker) collect(dst *ast.Block, id ast.BlockID) {
	b := c.arena.Block(id)
	if b == nil {
		return
	}
	dst.Diags.Merge(&b.Diags)
	for _, st := range b.Stmts {
		for _, child := range st.Blocks() {
			c.collect(dst, child)
		}
	}
}
