package inst

import (
	"sort"
	"strings"

	"github.com/oisee/seqmine/pkg/oeis"
)

// Program is an immutable, validated instruction list with the lexical
// loop structure and the seq call slots resolved at link time. The
// output register by convention is index 1; input arrives in index 0.
type Program struct {
	instructions []Instruction
	loopMatch    []int // lpb index <-> matching lpe index, -1 elsewhere
	callHandles  []int // arena handle per seq instruction, -1 unlinked
	maxRegister  int
}

// OutputRegister is the register conventionally read as a program's result.
const OutputRegister = 1

// NewProgram validates loop nesting and computes the derived tables.
func NewProgram(instructions []Instruction) (*Program, error) {
	loopMatch := make([]int, len(instructions))
	callHandles := make([]int, len(instructions))
	var stack []int
	for i := range loopMatch {
		loopMatch[i] = -1
		callHandles[i] = -1
	}
	for i, ins := range instructions {
		switch ins.Op {
		case Lpb:
			stack = append(stack, i)
		case Lpe:
			if len(stack) == 0 {
				return nil, parseErrorf(ins.Line, "lpe without matching lpb")
			}
			begin := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			loopMatch[begin] = i
			loopMatch[i] = begin
		}
	}
	if len(stack) > 0 {
		return nil, parseErrorf(instructions[stack[len(stack)-1]].Line, "lpb without matching lpe")
	}
	p := &Program{
		instructions: instructions,
		loopMatch:    loopMatch,
		callHandles:  callHandles,
	}
	p.maxRegister = p.computeMaxRegister()
	return p, nil
}

// MustParse parses source that is known to be well-formed; for tests
// and embedded fixtures.
func MustParse(src string) *Program {
	p, err := ParseProgram(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the instruction count.
func (p *Program) Len() int {
	return len(p.instructions)
}

// At returns the i-th instruction.
func (p *Program) At(i int) Instruction {
	return p.instructions[i]
}

// Instructions returns a copy of the instruction list.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instructions))
	copy(out, p.instructions)
	return out
}

// MatchingLoop returns the index of the lpe matching an lpb (or the
// lpb matching an lpe); -1 for other instructions.
func (p *Program) MatchingLoop(i int) int {
	return p.loopMatch[i]
}

// MaxRegisterIndex is the largest register index syntactically
// referenced. Indirect operands count their named cell; the cells they
// reach through at run time grow the register vector on demand instead.
func (p *Program) MaxRegisterIndex() int {
	return p.maxRegister
}

func (p *Program) computeMaxRegister() int {
	maxIndex := OutputRegister
	for _, ins := range p.instructions {
		for _, o := range ins.Operands {
			if o.IsRegister() && o.Index() > maxIndex {
				maxIndex = o.Index()
			}
		}
	}
	return maxIndex
}

// RegisterIndexes reports every register index syntactically used, in
// ascending order.
func (p *Program) RegisterIndexes() []int {
	seen := make(map[int]bool)
	for _, ins := range p.instructions {
		for _, o := range ins.Operands {
			if o.IsRegister() {
				seen[o.Index()] = true
			}
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// DirectDependencies returns the distinct program ids referenced by seq
// instructions with a constant source, in first-appearance order.
func (p *Program) DirectDependencies() []oeis.ID {
	var ids []oeis.ID
	seen := make(map[oeis.ID]bool)
	for _, ins := range p.instructions {
		if ins.Op != Seq || !ins.HasSource() || !ins.Source().IsConstant() {
			continue
		}
		id := oeis.ID(ins.Source().Value.Uint64())
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// LinkCall assigns the arena handle of a seq instruction's resolved
// target. Handles are write-once; the dependency manager is the only
// writer.
func (p *Program) LinkCall(instrIndex, handle int) {
	p.callHandles[instrIndex] = handle
}

// CallHandle returns the arena handle linked into a seq instruction,
// or -1 when unlinked.
func (p *Program) CallHandle(instrIndex int) int {
	return p.callHandles[instrIndex]
}

// Format renders the program back to source text. Parsing the result
// yields a structurally identical program.
func (p *Program) Format() string {
	var b strings.Builder
	depth := 0
	for _, ins := range p.instructions {
		if ins.Op == Lpe && depth > 0 {
			depth--
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(ins.String())
		b.WriteByte('\n')
		if ins.Op == Lpb {
			depth++
		}
	}
	return b.String()
}

func (p *Program) String() string {
	return p.Format()
}

// LiveRegisters computes the registers whose value is derived from the
// input register by data flow. Only data flow is tracked: a register
// updated from constants inside a loop whose counter derives from the
// input is not marked live, although its final value depends on the
// input. Indirect operands
// defeat the tracking; the analysis then reports every referenced
// register as live.
func (p *Program) LiveRegisters() map[int]bool {
	for _, ins := range p.instructions {
		for _, o := range ins.Operands {
			if o.Indirection >= 2 {
				all := make(map[int]bool)
				all[0] = true
				for _, idx := range p.RegisterIndexes() {
					all[idx] = true
				}
				return all
			}
		}
	}
	live := map[int]bool{0: true}
	// Loops feed values computed late in the body back to instructions
	// above them, so repeat the forward pass until the set at the end
	// of a pass matches the set it started with.
	for pass := 0; pass <= p.Len(); pass++ {
		before := copySet(live)
		for _, ins := range p.instructions {
			if len(ins.Operands) == 0 {
				continue
			}
			target := ins.Target().Index()
			sourceLive := false
			if ins.HasSource() && ins.Source().IsRegister() {
				sourceLive = live[ins.Source().Index()]
			}
			switch ins.Op {
			case Mov:
				// The previous target value is overwritten.
				if sourceLive {
					live[target] = true
				} else {
					delete(live, target)
				}
			case Clr:
				// Zeroing kills liveness, but loops re-run the body;
				// stay conservative and leave the set unchanged.
			case Lpb:
				// The loop counter register is read, not written.
			case Seq:
				// Callee output is a function of the current target.
			default:
				if sourceLive {
					live[target] = true
				}
			}
		}
		if setsEqual(before, live) {
			break
		}
	}
	return live
}

func copySet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// AttachOutput appends `mov $1,$n` from the lowest live register when
// liveness shows the output register carries no input-derived data.
// Returns the possibly-extended program and whether an output
// connection exists afterwards. Programs with no live registers at all
// are beyond repair and come back unchanged with false.
func (p *Program) AttachOutput() (*Program, bool) {
	live := p.LiveRegisters()
	if live[OutputRegister] {
		return p, true
	}
	lowest := -1
	for idx := range live {
		if lowest < 0 || idx < lowest {
			lowest = idx
		}
	}
	if lowest < 0 {
		return p, false
	}
	extended := append(p.Instructions(), Instruction{
		Op:       Mov,
		Operands: []Operand{NewDirect(OutputRegister), NewDirect(int64(lowest))},
	})
	out, err := NewProgram(extended)
	if err != nil {
		return p, false
	}
	return out, true
}
