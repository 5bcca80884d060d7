package interp

import (
	"math/big"
	"strings"
)

// RunMode selects whether the evaluator narrates each step.
type RunMode int

const (
	// Silent evaluation has no side effects beyond the returned value
	// and the step counter.
	Silent RunMode = iota
	// Verbose evaluation emits a trace line after every instruction.
	Verbose
)

// State is the mutable part of one evaluation: the register vector, the
// step counter and the limit handles. The register vector grows on
// first write past its length; reads outside it are zero.
type State struct {
	regs   []*big.Int
	steps  uint64
	mode   RunMode
	limits *Limits
}

// NewState allocates registerCount zeroed registers.
func NewState(registerCount int, mode RunMode, limits *Limits) *State {
	regs := make([]*big.Int, registerCount)
	for i := range regs {
		regs[i] = new(big.Int)
	}
	return &State{regs: regs, mode: mode, limits: limits}
}

// Steps returns the accumulated step count.
func (s *State) Steps() uint64 {
	return s.steps
}

// SetSteps seeds the counter, used when a caller's count carries over
// into a nested call.
func (s *State) SetSteps(n uint64) {
	s.steps = n
}

// CountStep increments the step counter and enforces the step limit.
func (s *State) CountStep() error {
	s.steps++
	if s.limits.StepCount > 0 && s.steps > s.limits.StepCount {
		return evalErrorf(KindStepLimit, "exceeded %d steps", s.limits.StepCount)
	}
	return nil
}

// Get reads a register; cells never written read as zero.
func (s *State) Get(index int) *big.Int {
	if index < 0 || index >= len(s.regs) {
		return bigZero
	}
	return s.regs[index]
}

// Set writes a register, growing the vector on demand and enforcing
// the per-register bit-length limit.
func (s *State) Set(index int, value *big.Int) error {
	if s.limits.RegisterBits > 0 && value.BitLen() > s.limits.RegisterBits {
		return evalErrorf(KindRegisterValueTooLarge, "register $%d value of %d bits exceeds %d",
			index, value.BitLen(), s.limits.RegisterBits)
	}
	for index >= len(s.regs) {
		s.regs = append(s.regs, new(big.Int))
	}
	s.regs[index] = value
	return nil
}

// ClearRange zeroes count cells starting at index. Cells beyond the
// current vector are ignored; clearing never grows it.
func (s *State) ClearRange(index, count int) {
	for i := 0; i < count; i++ {
		cell := index + i
		if cell < 0 {
			continue
		}
		if cell >= len(s.regs) {
			return
		}
		s.regs[cell] = new(big.Int)
	}
}

// Snapshot copies the cell values in [index, index+count).
func (s *State) Snapshot(index, count int) []*big.Int {
	out := make([]*big.Int, count)
	for i := range out {
		out[i] = new(big.Int).Set(s.Get(index + i))
	}
	return out
}

// Restore writes a snapshot back into [index, index+count). Cells
// beyond the current vector that hold zero are left unallocated.
func (s *State) Restore(index int, snapshot []*big.Int) error {
	for i, v := range snapshot {
		cell := index + i
		if cell >= len(s.regs) && v.Sign() == 0 {
			continue
		}
		if err := s.Set(cell, new(big.Int).Set(v)); err != nil {
			return err
		}
	}
	return nil
}

// snapshotLess is the loop-termination order: strict lexicographic
// comparison of absolute values, lowest cell first.
func snapshotLess(a, b []*big.Int) bool {
	for i := range a {
		switch a[i].CmpAbs(b[i]) {
		case -1:
			return true
		case 1:
			return false
		}
	}
	return false
}

// String renders the register vector for verbose traces.
func (s *State) String() string {
	parts := make([]string, len(s.regs))
	for i, r := range s.regs {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}
