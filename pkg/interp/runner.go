package interp

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/oisee/seqmine/pkg/inst"
	"github.com/oisee/seqmine/pkg/oeis"
)

// ProgramID identifies a runnable program: either an OEIS sequence id
// or the anonymous marker used for mining candidates.
type ProgramID struct {
	id        oeis.ID
	anonymous bool
}

// OEISProgram tags a runner with a repository identity.
func OEISProgram(id oeis.ID) ProgramID {
	return ProgramID{id: id}
}

// AnonymousProgram tags a runner that exists only for one mining batch.
func AnonymousProgram() ProgramID {
	return ProgramID{anonymous: true}
}

// IsAnonymous reports whether the program has no OEIS identity.
func (p ProgramID) IsAnonymous() bool {
	return p.anonymous
}

// OEIS returns the sequence id; only meaningful when not anonymous.
func (p ProgramID) OEIS() oeis.ID {
	return p.id
}

func (p ProgramID) String() string {
	if p.anonymous {
		return "anonymous"
	}
	return p.id.ANumber()
}

// maxRuntimeRegister bounds effective addresses reached through
// indirection, keeping on-demand growth finite.
const maxRuntimeRegister = 1 << 20

// maxLoopRange bounds the compared register range of a single loop.
const maxLoopRange = 1 << 16

// Runner evaluates one linked program. Runners are immutable after
// linking and may be shared; each Run call builds its own State.
type Runner struct {
	id            ProgramID
	prog          *inst.Program
	registerCount int
	arena         *Arena

	// Trace receives the verbose-mode state dump; nil suppresses it.
	Trace io.Writer
}

// NewRunner wraps a parsed program. The arena supplies callees for seq
// instructions and may be nil for programs without dependencies.
func NewRunner(id ProgramID, prog *inst.Program, arena *Arena) *Runner {
	return &Runner{
		id:            id,
		prog:          prog,
		registerCount: prog.MaxRegisterIndex() + 1,
		arena:         arena,
	}
}

// ID returns the runner's identity.
func (r *Runner) ID() ProgramID {
	return r.id
}

// Program returns the underlying instruction list.
func (r *Runner) Program() *inst.Program {
	return r.prog
}

// Run evaluates the program on one input. The input lands in register
// 0, the output is read from register 1. stepCount accumulates across
// calls so a caller can bound total work; cache hits add the stored
// step count instead of re-executing.
func (r *Runner) Run(input *big.Int, mode RunMode, stepCount *uint64, limits *Limits, cache *Cache) (*big.Int, error) {
	stepsBefore := *stepCount

	if cache != nil && !r.id.IsAnonymous() {
		if entry, ok := cache.get(r.id.OEIS(), input); ok {
			cache.countHit()
			*stepCount = stepsBefore + entry.steps
			return new(big.Int).Set(entry.output), nil
		}
	}

	state := NewState(r.registerCount, mode, limits)
	state.SetSteps(stepsBefore)
	if err := state.Set(0, new(big.Int).Set(input)); err != nil {
		return nil, err
	}

	runErr := r.exec(state, cache, limits)
	*stepCount = state.Steps()
	if runErr != nil {
		return nil, runErr
	}

	output := new(big.Int).Set(state.Get(inst.OutputRegister))

	if cache != nil {
		if r.id.IsAnonymous() {
			cache.countMissAnonymous()
		} else {
			cache.put(r.id.OEIS(), input, output, state.Steps()-stepsBefore)
			cache.countMissOeis()
		}
	}
	return output, nil
}

// loopFrame tracks one active lpb/lpe pair. The comparison covers the
// declared range; the rollback restores the whole register vector, so
// the side effects of the iteration that failed to decrease are undone.
type loopFrame struct {
	beginPC    int
	target     int
	count      int
	prev       []*big.Int // full register vector at iteration start
	iterations int
}

func (r *Runner) exec(state *State, cache *Cache, limits *Limits) error {
	var loops []loopFrame
	for pc := 0; pc < r.prog.Len(); pc++ {
		ins := r.prog.At(pc)
		if err := state.CountStep(); err != nil {
			return err
		}
		switch ins.Op {
		case inst.Lpb:
			target, err := r.resolveIndex(state, ins.Target())
			if err != nil {
				return err
			}
			count := 1
			if ins.HasSource() {
				count, err = r.resolveLoopCount(state, ins.Source())
				if err != nil {
					return err
				}
			}
			loops = append(loops, loopFrame{
				beginPC: pc,
				target:  target,
				count:   count,
				prev:    state.Snapshot(0, len(state.regs)),
			})

		case inst.Lpe:
			frame := &loops[len(loops)-1]
			if rangeLess(state, frame) {
				frame.iterations++
				if limits.LoopIterations > 0 && frame.iterations > limits.LoopIterations {
					return evalErrorf(KindLoopLimit, "loop at line %d exceeded %d iterations",
						r.prog.At(frame.beginPC).Line, limits.LoopIterations)
				}
				frame.prev = state.Snapshot(0, len(state.regs))
				pc = frame.beginPC // next iteration starts after lpb
			} else {
				state.regs = frame.prev
				loops = loops[:len(loops)-1]
			}

		case inst.Clr:
			target, err := r.resolveIndex(state, ins.Target())
			if err != nil {
				return err
			}
			n, err := r.readSource(state, ins)
			if err != nil {
				return err
			}
			count := 0
			if n.Sign() > 0 {
				if n.IsInt64() && n.Int64() <= int64(len(state.regs)) {
					count = int(n.Int64())
				} else {
					count = len(state.regs)
				}
			}
			state.ClearRange(target, count)

		case inst.Seq:
			if err := r.execCall(state, pc, ins, cache, limits); err != nil {
				return err
			}

		default:
			target, err := r.resolveIndex(state, ins.Target())
			if err != nil {
				return err
			}
			source, err := r.readSource(state, ins)
			if err != nil {
				return err
			}
			value, err := applyBinary(ins.Op, state.Get(target), source, limits)
			if err != nil {
				return err
			}
			if err := state.Set(target, value); err != nil {
				return err
			}
		}
		if state.mode == Verbose && r.Trace != nil {
			fmt.Fprintf(r.Trace, "%-16s %s\n", ins.String(), state.String())
		}
	}
	return nil
}

// execCall evaluates a seq instruction: the callee runs on an isolated
// register vector with the current target value as input and its
// output replaces the target. The callee's steps count against the
// caller's budget.
func (r *Runner) execCall(state *State, pc int, ins inst.Instruction, cache *Cache, limits *Limits) error {
	handle := r.prog.CallHandle(pc)
	if handle < 0 || r.arena == nil {
		return evalErrorf(KindUnlinkedCall, "seq at line %d is not linked", ins.Line)
	}
	callee := r.arena.Runner(handle)
	if callee == nil {
		return evalErrorf(KindUnlinkedCall, "seq at line %d has a dangling handle", ins.Line)
	}
	target, err := r.resolveIndex(state, ins.Target())
	if err != nil {
		return err
	}
	input := new(big.Int).Set(state.Get(target))
	steps := state.Steps()
	output, err := callee.Run(input, Silent, &steps, limits, cache)
	state.SetSteps(steps)
	if err != nil {
		return err
	}
	if limits.StepCount > 0 && steps > limits.StepCount {
		return evalErrorf(KindStepLimit, "exceeded %d steps", limits.StepCount)
	}
	return state.Set(target, output)
}

// rangeLess compares the declared loop range of the current state
// against the frame's previous snapshot, strict lexicographic on
// absolute values.
func rangeLess(state *State, frame *loopFrame) bool {
	cur := make([]*big.Int, frame.count)
	prev := make([]*big.Int, frame.count)
	for i := 0; i < frame.count; i++ {
		cur[i] = state.Get(frame.target + i)
		cell := frame.target + i
		if cell < len(frame.prev) {
			prev[i] = frame.prev[cell]
		} else {
			prev[i] = bigZero
		}
	}
	return snapshotLess(cur, prev)
}

// resolveIndex turns a register operand into an effective address,
// applying each indirection level beyond the first `$`.
func (r *Runner) resolveIndex(state *State, o inst.Operand) (int, error) {
	index := o.Index()
	for level := 1; level < o.Indirection; level++ {
		v := state.Get(index)
		if v.Sign() < 0 || !v.IsInt64() || v.Int64() > maxRuntimeRegister {
			return 0, evalErrorf(KindRegisterIndexOutOfRange, "indirect address %s via $%d", v, index)
		}
		index = int(v.Int64())
	}
	if index > maxRuntimeRegister {
		return 0, evalErrorf(KindRegisterIndexOutOfRange, "register $%d", index)
	}
	return index, nil
}

// resolveLoopCount evaluates the optional lpb range length, clamped
// into [1, maxLoopRange].
func (r *Runner) resolveLoopCount(state *State, o inst.Operand) (int, error) {
	v, err := r.readOperand(state, o)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 1 {
		return 1, nil
	}
	if !v.IsInt64() || v.Int64() > maxLoopRange {
		return maxLoopRange, nil
	}
	return int(v.Int64()), nil
}

func (r *Runner) readSource(state *State, ins inst.Instruction) (*big.Int, error) {
	return r.readOperand(state, ins.Source())
}

func (r *Runner) readOperand(state *State, o inst.Operand) (*big.Int, error) {
	if o.IsConstant() {
		return o.Value, nil
	}
	index, err := r.resolveIndex(state, o)
	if err != nil {
		return nil, err
	}
	return state.Get(index), nil
}

// Terms evaluates the program on inputs 0..n-1.
func (r *Runner) Terms(n int, limits *Limits, cache *Cache) ([]*big.Int, error) {
	terms := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		var steps uint64
		term, err := r.Run(big.NewInt(int64(i)), Silent, &steps, limits, cache)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Inspect renders the first n terms as a comma-joined string; a failing
// input renders as BOOM and stops the listing.
func (r *Runner) Inspect(n int, limits *Limits) string {
	cache := NewCache(DefaultCacheCapacity)
	var parts []string
	for i := 0; i < n; i++ {
		var steps uint64
		out, err := r.Run(big.NewInt(int64(i)), Silent, &steps, limits, cache)
		if err != nil {
			parts = append(parts, "BOOM")
			break
		}
		parts = append(parts, out.String())
	}
	return strings.Join(parts, ",")
}
