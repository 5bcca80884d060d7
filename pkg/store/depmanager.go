package store

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/oisee/seqmine/pkg/inst"
	"github.com/oisee/seqmine/pkg/interp"
	"github.com/oisee/seqmine/pkg/oeis"
)

var (
	// ErrCannotLoadFile marks a program the store could not supply.
	ErrCannotLoadFile = errors.New("cannot load program")
	// ErrCyclicDependency marks a cycle in the seq call graph.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrLink marks a seq instruction whose target could not be bound.
	ErrLink = errors.New("link error")
)

// DependencyManager resolves programs and the transitive closure of
// their seq dependencies, linking each call instruction to an arena
// handle. Resolution is depth-first: every callee is fully linked
// before its caller, so the arena only ever holds complete runners.
type DependencyManager struct {
	store    ProgramStore
	arena    *interp.Arena
	inFlight map[oeis.ID]bool
	trace    []oeis.ID
}

// NewDependencyManager creates a manager over a program store.
func NewDependencyManager(store ProgramStore) *DependencyManager {
	return &DependencyManager{
		store:    store,
		arena:    interp.NewArena(),
		inFlight: make(map[oeis.ID]bool),
	}
}

// Arena exposes the linked runners for evaluation.
func (m *DependencyManager) Arena() *interp.Arena {
	return m.arena
}

// Trace returns the ids visited by resolution, in visit order. Ids
// appear once per Resolve call that touched them.
func (m *DependencyManager) Trace() []oeis.ID {
	out := make([]oeis.ID, len(m.trace))
	copy(out, m.trace)
	return out
}

// ResetTrace clears the dependency trace between resolution roots.
func (m *DependencyManager) ResetTrace() {
	m.trace = m.trace[:0]
}

// Resolve loads, parses and links a program and everything it calls.
// Already-resolved programs are returned from the registry. A cycle
// anywhere in the dependency graph fails the whole root; nothing along
// the failing path is registered.
func (m *DependencyManager) Resolve(id oeis.ID) (*interp.Runner, error) {
	if err := m.resolve(id); err != nil {
		return nil, err
	}
	runner, ok := m.arena.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s resolved but not registered", ErrLink, id.ANumber())
	}
	return runner, nil
}

func (m *DependencyManager) resolve(id oeis.ID) error {
	m.trace = append(m.trace, id)
	if _, ok := m.arena.HandleFor(id); ok {
		return nil
	}
	if m.inFlight[id] {
		glog.V(1).Infof("cyclic dependency at %s", id.ANumber())
		return fmt.Errorf("%w: via %s", ErrCyclicDependency, id.ANumber())
	}
	m.inFlight[id] = true
	defer delete(m.inFlight, id)

	source, err := m.store.Source(id)
	if err != nil {
		return err
	}
	prog, err := inst.ParseProgram(source)
	if err != nil {
		return fmt.Errorf("%s: %w", id.ANumber(), err)
	}
	if err := m.link(prog); err != nil {
		return fmt.Errorf("%s: %w", id.ANumber(), err)
	}
	m.arena.Register(interp.NewRunner(interp.OEISProgram(id), prog, m.arena))
	return nil
}

// ParseAnonymous parses candidate source, resolves its dependencies
// and links it, without registering the program itself. The eval
// command uses this for program files given by path.
func (m *DependencyManager) ParseAnonymous(source string) (*interp.Runner, error) {
	prog, err := inst.ParseProgram(source)
	if err != nil {
		return nil, err
	}
	return m.LinkProgram(prog)
}

// LinkProgram resolves and links the dependencies of an already-parsed
// anonymous program.
func (m *DependencyManager) LinkProgram(prog *inst.Program) (*interp.Runner, error) {
	if err := m.link(prog); err != nil {
		return nil, err
	}
	return interp.NewRunner(interp.AnonymousProgram(), prog, m.arena), nil
}

// link resolves every direct dependency depth-first, then binds each
// constant-target seq instruction to its arena handle.
func (m *DependencyManager) link(prog *inst.Program) error {
	for _, dep := range prog.DirectDependencies() {
		if err := m.resolve(dep); err != nil {
			return err
		}
	}
	for i := 0; i < prog.Len(); i++ {
		ins := prog.At(i)
		if ins.Op != inst.Seq || !ins.Source().IsConstant() {
			continue
		}
		id := oeis.ID(ins.Source().Value.Uint64())
		handle, ok := m.arena.HandleFor(id)
		if !ok {
			return fmt.Errorf("%w: seq target %s", ErrLink, id.ANumber())
		}
		prog.LinkCall(i, handle)
	}
	return nil
}
