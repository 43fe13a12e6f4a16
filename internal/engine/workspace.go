package engine

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"ttcnlang/internal/config"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/loader"
	"ttcnlang/internal/stamp"
)

// Workspace keeps the most recently used units open. Units share one
// clock so stamps stay ordered across the workspace.
type Workspace struct {
	mu      sync.Mutex
	units   *lru.Cache[string, *Unit]
	opts    config.Options
	clock   *stamp.Clock
	log     zerolog.Logger
	evicted *atomic.Int64
}

func NewWorkspace(opts config.Options, log zerolog.Logger) (*Workspace, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	w := &Workspace{
		opts:    opts,
		clock:   stamp.NewClock(),
		log:     log.With().Str("component", "workspace").Logger(),
		evicted: atomic.NewInt64(0),
	}
	units, err := lru.NewWithEvict(opts.OpenUnits, func(name string, _ *Unit) {
		w.evicted.Inc()
		w.log.Debug().Str("unit", name).Msg("closed least recently used unit")
	})
	if err != nil {
		return nil, fmt.Errorf("could not create unit cache: %w", err)
	}
	w.units = units
	return w, nil
}

// Open parses text as unit name, replacing an open unit of that name.
func (w *Workspace) Open(name, text string) *Unit {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := Open(name, text, w.opts, w.clock, w.log)
	w.units.Add(name, u)
	return u
}

// OpenPaths loads every source below the given paths. Files that cannot
// be read are reported together; the others are still opened.
func (w *Workspace) OpenPaths(root string, paths ...string) ([]*Unit, error) {
	files, err := loader.Discover(paths...)
	if err != nil {
		return nil, err
	}
	var out []*Unit
	for _, p := range files {
		f, rerr := loader.Read(root, p)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		w.mu.Lock()
		u := OpenFile(f, w.opts, w.clock, w.log)
		w.units.Add(f.Name, u)
		w.mu.Unlock()
		out = append(out, u)
	}
	return out, err
}

// Get returns an open unit and marks it as recently used.
func (w *Workspace) Get(name string) (*Unit, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.units.Get(name)
}

func (w *Workspace) Close(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.units.Remove(name)
}

func (w *Workspace) Len() int { return w.units.Len() }

// Evicted counts the units closed because the workspace was full.
func (w *Workspace) Evicted() int64 { return w.evicted.Load() }

func (w *Workspace) Options() config.Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

// Edit applies an edit to an open unit.
func (w *Workspace) Edit(name string, start, end int, text string) (EditResult, error) {
	u, ok := w.Get(name)
	if !ok {
		return EditResult{}, fmt.Errorf("unit %q is not open", name)
	}
	return u.Edit(start, end, text)
}

// CheckAll checks every open unit. Failing units are reported together.
func (w *Workspace) CheckAll() (map[string]*diag.Bag, error) {
	out := map[string]*diag.Bag{}
	var err error
	for _, u := range w.snapshot() {
		bag, cerr := u.Check()
		if cerr != nil {
			err = multierr.Append(err, cerr)
			continue
		}
		out[u.Name()] = bag
	}
	return out, err
}

// Reconfigure applies new options to the workspace and every open unit.
func (w *Workspace) Reconfigure(opts config.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	w.opts = opts
	w.units.Resize(opts.OpenUnits)
	w.mu.Unlock()

	var err error
	for _, u := range w.snapshot() {
		err = multierr.Append(err, u.Reconfigure(opts))
	}
	w.log.Info().Int("units", w.Len()).Msg("reconfigured workspace")
	return err
}

func (w *Workspace) snapshot() []*Unit {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*Unit
	for _, name := range w.units.Keys() {
		if u, ok := w.units.Peek(name); ok {
			out = append(out, u)
		}
	}
	return out
}
