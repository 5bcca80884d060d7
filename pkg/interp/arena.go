package interp

import "github.com/oisee/seqmine/pkg/oeis"

// Arena owns every resolved program runner and hands out integer
// handles for seq instructions to link against. Handles stay valid for
// the arena's lifetime; the call graph is a DAG over them, so plain
// indices avoid any cyclic ownership.
type Arena struct {
	runners []*Runner
	byID    map[oeis.ID]int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{byID: make(map[oeis.ID]int)}
}

// Register adds a runner and returns its handle. Runners with an OEIS
// id are also indexed by id.
func (a *Arena) Register(r *Runner) int {
	handle := len(a.runners)
	a.runners = append(a.runners, r)
	if !r.ID().IsAnonymous() {
		a.byID[r.ID().OEIS()] = handle
	}
	return handle
}

// Runner returns the runner behind a handle; nil for invalid handles.
func (a *Arena) Runner(handle int) *Runner {
	if handle < 0 || handle >= len(a.runners) {
		return nil
	}
	return a.runners[handle]
}

// HandleFor looks up the handle registered for an OEIS id.
func (a *Arena) HandleFor(id oeis.ID) (int, bool) {
	handle, ok := a.byID[id]
	return handle, ok
}

// ByID looks up a registered runner by OEIS id.
func (a *Arena) ByID(id oeis.ID) (*Runner, bool) {
	handle, ok := a.byID[id]
	if !ok {
		return nil, false
	}
	return a.runners[handle], true
}

// Len returns the number of registered runners.
func (a *Arena) Len() int {
	return len(a.runners)
}
