package sema

import (
	"fmt"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/source"
)

// register adds d to b. A duplicate in the same block is reported and
// dropped; a name hiding an outer one is registered with a warning.
func (c *Checker) register(b *ast.Block, d *ast.Definition) {
	d.Owner = b.ID
	d.Used, d.Written = false, false
	if prev, dup := b.Definitions[d.Name]; dup {
		b.Diags.Report(diag.Error, d.S, fmt.Sprintf("Duplicate definition with name `%s'", d.Name))
		b.Diags.Report(diag.Note, prev.S, fmt.Sprintf("Previous definition with name `%s' is here", d.Name))
		return
	}
	if outer, ok := c.lookupOuter(b, d.Name); ok {
		b.Diags.Report(diag.Warning, d.S, fmt.Sprintf("Definition with name `%s' hides a definition in an outer scope", d.Name))
		if outer.S.IsValid() {
			b.Diags.Report(diag.Note, outer.S, fmt.Sprintf("Hidden definition `%s' is here", d.Name))
		}
	}
	b.Definitions[d.Name] = d
}

func (c *Checker) lookupOuter(b *ast.Block, name string) (*ast.Definition, bool) {
	for cur := c.arena.Block(b.Parent); cur != nil; cur = c.arena.Block(cur.Parent) {
		if d, ok := cur.Definitions[name]; ok {
			return d, true
		}
	}
	return c.oracle.ResolveReference(name, scopeView{c, b})
}

// resolve finds name from b outward. Every block passed on the way gets
// an escape record so the lookup can be replayed without its statements.
func (c *Checker) resolve(b *ast.Block, name string, write bool, at source.Span) (*ast.Definition, bool) {
	var path []*ast.Block
	for cur := b; cur != nil; cur = c.arena.Block(cur.Parent) {
		if d, ok := cur.Definitions[name]; ok {
			c.escape(path, ast.EscapedRef{Scope: cur.ID, Name: name, Write: write}, at)
			markUsed(d, write)
			return d, true
		}
		path = append(path, cur)
	}
	d, ok := c.oracle.ResolveReference(name, scopeView{c, b})
	if ok {
		c.escape(path, ast.EscapedRef{Scope: ast.NoBlock, Name: name, Write: write}, at)
		markUsed(d, write)
	}
	return d, ok
}

// resolveLabel finds a label from b outward and marks it used.
func (c *Checker) resolveLabel(b *ast.Block, name string, at source.Span) (*ast.Statement, *ast.Block, []*ast.Block) {
	var path []*ast.Block
	for cur := b; cur != nil; cur = c.arena.Block(cur.Parent) {
		if lbl, ok := cur.Labels[name]; ok {
			c.escape(path, ast.EscapedRef{Scope: cur.ID, Name: name, Label: true}, at)
			lbl.LabelUsed = true
			return lbl, cur, path
		}
		path = append(path, cur)
	}
	return nil, nil, path
}

func (c *Checker) escape(path []*ast.Block, ref ast.EscapedRef, at source.Span) {
	for _, blk := range path {
		if blk.Escapes == nil {
			continue
		}
		if _, ok := blk.Escapes[ref]; !ok {
			blk.Escapes[ref] = at
		}
	}
}

func markUsed(d *ast.Definition, write bool) {
	d.Used = true
	if write {
		d.Written = true
	}
}

// replay re-applies the escape records of a block that is not checked
// again. It fails when a name now resolves to a different scope.
func (c *Checker) replay(b *ast.Block) bool {
	parent := c.arena.Block(b.Parent)
	for ref, at := range b.Escapes {
		var path []*ast.Block
		found := false
		for cur := parent; cur != nil; cur = c.arena.Block(cur.Parent) {
			if ref.Label {
				if lbl, ok := cur.Labels[ref.Name]; ok {
					if cur.ID != ref.Scope {
						return false
					}
					lbl.LabelUsed = true
					found = true
					break
				}
			} else if d, ok := cur.Definitions[ref.Name]; ok {
				if cur.ID != ref.Scope {
					return false
				}
				markUsed(d, ref.Write)
				found = true
				break
			}
			path = append(path, cur)
		}
		if !found {
			if ref.Label || ref.Scope != ast.NoBlock {
				return false
			}
			d, ok := c.oracle.ResolveReference(ref.Name, scopeView{c, b})
			if !ok {
				return false
			}
			markUsed(d, ref.Write)
		}
		c.escape(path, ref, at)
	}
	return true
}

// scopeView is the types.Scope seen from a block.
type scopeView struct {
	c *Checker
	b *ast.Block
}

func (s scopeView) Lookup(name string) (*ast.Definition, bool) {
	for cur := s.b; cur != nil; cur = s.c.arena.Block(cur.Parent) {
		if d, ok := cur.Definitions[name]; ok {
			return d, true
		}
	}
	return nil, false
}

func (s scopeView) RunsOn() string {
	if s.c.beh == nil {
		return ""
	}
	return s.c.beh.RunsOn
}
