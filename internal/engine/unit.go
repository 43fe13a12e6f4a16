// Package engine ties parsing, incremental reparsing and checking of one
// source unit together and keeps a workspace of open units.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"ttcnlang/internal/ast"
	"ttcnlang/internal/config"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/parser"
	"ttcnlang/internal/reparse"
	"ttcnlang/internal/sema"
	"ttcnlang/internal/source"
	"ttcnlang/internal/stamp"
	"ttcnlang/internal/types"
)

// EditResult describes how an edit was applied.
type EditResult struct {
	Incremental  bool // false when the unit was parsed again in full
	Reparsed     int  // statements replaced by the incremental update
	ScopeChanged bool
}

// Unit is one open source file. It is safe for concurrent use; edits and
// checks are serialised.
type Unit struct {
	mu sync.Mutex

	file  *source.File
	tree  *ast.Unit
	parse *diag.Bag
	check *sema.Checker
	opts  config.Options
	clock *stamp.Clock
	log   zerolog.Logger

	ts    stamp.Timestamp
	fresh bool // the next check takes a new stamp
}

// Open parses text as a new unit. Stamps are taken from clock.
func Open(name, text string, opts config.Options, clock *stamp.Clock, log zerolog.Logger) *Unit {
	return OpenFile(source.NewFile(name, text), opts, clock, log)
}

func OpenFile(f *source.File, opts config.Options, clock *stamp.Clock, log zerolog.Logger) *Unit {
	u := &Unit{
		file:  f,
		opts:  opts,
		clock: clock,
		log:   log.With().Str("component", "engine").Str("unit", f.Name).Logger(),
	}
	u.parseAll()
	return u
}

func (u *Unit) Name() string { return u.file.Name }

// Text returns the current source text.
func (u *Unit) Text() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.file.Input
}

// Tree returns the current syntax tree. It is replaced by full reparses.
func (u *Unit) Tree() *ast.Unit {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tree
}

func (u *Unit) parseAll() {
	u.tree, u.parse = parser.Parse(u.file)
	u.check = sema.New(u.tree, types.NewBasic(u.tree), u.opts, u.log)
	u.fresh = true
	u.log.Debug().Int("blocks", u.tree.Arena.Live()).Int("parse_diags", u.parse.Len()).Msg("parsed unit")
}

// Check runs the check pass and returns every diagnostic of the unit.
func (u *Unit) Check() (*diag.Bag, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.checkLocked()
}

func (u *Unit) checkLocked() (*diag.Bag, error) {
	if u.fresh || u.ts.IsZero() {
		u.ts = u.clock.Next()
		u.fresh = false
	}
	err := u.check.Check(u.ts)
	if errors.Is(err, sema.ErrNeedsReparse) {
		u.log.Info().Msg("freed block went stale, parsing the unit again")
		u.parseAll()
		u.ts = u.clock.Next()
		u.fresh = false
		err = u.check.Check(u.ts)
	}
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", u.file.Name, err)
	}
	if u.opts.MinimiseMemoryUsage {
		u.check.Minimise()
	}
	out := &diag.Bag{}
	out.Merge(u.parse)
	out.Merge(u.check.Diagnostics())
	return out, nil
}

// Stats reports what the last check did.
func (u *Unit) Stats() sema.Stats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.check.Stats()
}

// Edit replaces text[start:end] with text. The tree is updated in place
// when possible and parsed again otherwise.
func (u *Unit) Edit(start, end int, text string) (EditResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	delta, err := u.file.Apply(start, end, text)
	if err != nil {
		return EditResult{}, err
	}
	if u.parse.Len() > 0 {
		// a tree built by error recovery is not updated in place
		u.parseAll()
		return EditResult{}, nil
	}
	up := reparse.NewUpdater(u.file, u.tree.Arena, parser.Region{}, start, end, delta, u.log)
	if err := up.Update(u.tree); err != nil {
		u.log.Debug().Err(err).Int("start", start).Int("end", end).Msg("incremental update failed, parsing in full")
		u.parseAll()
		return EditResult{}, nil
	}
	u.log.Debug().
		Int("start", start).
		Int("end", end).
		Int("shift", delta).
		Int("reparsed", up.Reparsed).
		Msg("updated unit in place")
	return EditResult{Incremental: true, Reparsed: up.Reparsed, ScopeChanged: up.ScopeChanged}, nil
}

// Reconfigure swaps the options. Severities and thresholds are baked into
// cached diagnostics, so the unit is parsed and checked from scratch.
func (u *Unit) Reconfigure(opts config.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.opts = opts
	u.parseAll()
	return nil
}
