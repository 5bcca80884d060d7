package mine

import (
	"math/rand/v2"
	"strings"

	"github.com/oisee/seqmine/pkg/analytics"
	"github.com/oisee/seqmine/pkg/inst"
)

// arithmeticOps is the fallback pool when the trigram context is
// unknown to the corpus.
var arithmeticOps = inst.ArithmeticOps()

// Genome is a mutable instruction list derived from a seed program.
// Mutations are local rewrites steered by the corpus histograms; the
// genome is rebuilt into a Program when mining wants to run it.
type Genome struct {
	rows []inst.Instruction
	rng  *rand.Rand
	ctx  *MutateContext
}

// NewGenome copies a program into mutable form.
func NewGenome(prog *inst.Program, ctx *MutateContext, rng *rand.Rand) *Genome {
	return &Genome{rows: prog.Instructions(), rng: rng, ctx: ctx}
}

// Program validates the current rows back into a Program.
func (g *Genome) Program() (*inst.Program, error) {
	rows := make([]inst.Instruction, len(g.rows))
	copy(rows, g.rows)
	return inst.NewProgram(rows)
}

// Len returns the current instruction count.
func (g *Genome) Len() int {
	return len(g.rows)
}

// Mutate applies one random rewrite and reports whether the rows
// changed. Callers typically retry a few times on false.
func (g *Genome) Mutate() bool {
	if len(g.rows) == 0 {
		return false
	}
	// Weighted selection over mutation kinds, heaviest on operand
	// rewrites; structural edits are rarer.
	switch r := g.rng.IntN(100); {
	case r < 20:
		return g.replaceInstruction()
	case r < 35:
		return g.insertInstruction()
	case r < 45:
		return g.deleteInstruction()
	case r < 65:
		return g.replaceSource()
	case r < 80:
		return g.replaceTarget()
	case r < 90:
		return g.replaceConstant()
	default:
		return g.spliceFragment()
	}
}

// MutateN applies up to n rewrites, reporting whether any succeeded.
func (g *Genome) MutateN(n int) bool {
	changed := false
	for i := 0; i < n; i++ {
		if g.Mutate() {
			changed = true
		}
	}
	return changed
}

// mutablePositions lists row indexes that are not loop delimiters.
func (g *Genome) mutablePositions() []int {
	var out []int
	for i, row := range g.rows {
		switch row.Op {
		case inst.Lpb, inst.Lpe:
			continue
		}
		out = append(out, i)
	}
	return out
}

// instructionWord is the instruction-stream symbol at a position,
// START/STOP outside the program.
func (g *Genome) instructionWord(i int) string {
	if i < 0 {
		return analytics.TokenStart
	}
	if i >= len(g.rows) {
		return analytics.TokenStop
	}
	return g.rows[i].Op.String()
}

func (g *Genome) replaceInstruction() bool {
	positions := g.mutablePositions()
	if len(positions) == 0 {
		return false
	}
	pos := positions[g.rng.IntN(len(positions))]
	op, ok := g.ctx.Instructions.Choose(g.rng, g.instructionWord(pos-1), g.instructionWord(pos+1))
	if !ok {
		op = arithmeticOps[g.rng.IntN(len(arithmeticOps))]
	}
	if op == g.rows[pos].Op {
		return false
	}
	row := g.rows[pos]
	row.Op = op
	if len(row.Operands) < 2 {
		row.Operands = []inst.Operand{g.randomTarget(), g.randomSource(op)}
	}
	g.rows[pos] = row
	return true
}

func (g *Genome) insertInstruction() bool {
	pos := g.rng.IntN(len(g.rows) + 1)
	op, ok := g.ctx.Instructions.Choose(g.rng, g.instructionWord(pos-1), g.instructionWord(pos))
	if !ok {
		op = arithmeticOps[g.rng.IntN(len(arithmeticOps))]
	}
	row := inst.Instruction{Op: op, Operands: []inst.Operand{g.randomTarget(), g.randomSource(op)}}
	g.rows = append(g.rows[:pos], append([]inst.Instruction{row}, g.rows[pos:]...)...)
	return true
}

func (g *Genome) deleteInstruction() bool {
	positions := g.mutablePositions()
	if len(positions) == 0 || len(g.rows) <= 1 {
		return false
	}
	pos := positions[g.rng.IntN(len(positions))]
	g.rows = append(g.rows[:pos], g.rows[pos+1:]...)
	return true
}

func (g *Genome) replaceSource() bool {
	positions := g.mutablePositions()
	if len(positions) == 0 {
		return false
	}
	pos := positions[g.rng.IntN(len(positions))]
	row := g.rows[pos]
	if !row.HasSource() {
		return false
	}
	token := g.ctx.Sources.Choose(g.rng, g.sourceWordAt(pos-1), g.sourceWordAt(pos+1))
	operand, ok := g.operandFromToken(token, row.Op)
	if !ok || operand.Equal(row.Source()) {
		return false
	}
	row.Operands = []inst.Operand{row.Target(), operand}
	g.rows[pos] = row
	return true
}

func (g *Genome) replaceTarget() bool {
	positions := g.mutablePositions()
	if len(positions) == 0 {
		return false
	}
	pos := positions[g.rng.IntN(len(positions))]
	row := g.rows[pos]
	if len(row.Operands) == 0 {
		return false
	}
	token := g.ctx.Targets.Choose(g.rng, g.targetWordAt(pos-1), g.targetWordAt(pos+1))
	operand, ok := g.registerFromToken(token)
	if !ok || operand.Equal(row.Target()) {
		return false
	}
	operands := []inst.Operand{operand}
	if row.HasSource() {
		operands = append(operands, row.Source())
	}
	row.Operands = operands
	g.rows[pos] = row
	return true
}

func (g *Genome) replaceConstant() bool {
	var positions []int
	for i, row := range g.rows {
		if row.HasSource() && row.Source().IsConstant() && row.Op != inst.Seq {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return false
	}
	pos := positions[g.rng.IntN(len(positions))]
	row := g.rows[pos]
	value := g.ctx.Constants.Choose(g.rng, row.Op)
	operand := inst.NewConstant(value)
	if operand.Equal(row.Source()) {
		return false
	}
	row.Operands = []inst.Operand{row.Target(), operand}
	g.rows[pos] = row
	return true
}

// spliceFragment copies a short run of non-structural instructions to
// another position.
func (g *Genome) spliceFragment() bool {
	positions := g.mutablePositions()
	if len(positions) < 2 {
		return false
	}
	start := positions[g.rng.IntN(len(positions))]
	length := 1 + g.rng.IntN(3)
	var fragment []inst.Instruction
	for i := start; i < len(g.rows) && len(fragment) < length; i++ {
		switch g.rows[i].Op {
		case inst.Lpb, inst.Lpe:
		default:
			fragment = append(fragment, g.rows[i])
		}
	}
	if len(fragment) == 0 {
		return false
	}
	pos := g.rng.IntN(len(g.rows) + 1)
	g.rows = append(g.rows[:pos], append(append([]inst.Instruction{}, fragment...), g.rows[pos:]...)...)
	return true
}

func (g *Genome) sourceWordAt(i int) string {
	if i < 0 {
		return analytics.TokenStart
	}
	if i >= len(g.rows) {
		return analytics.TokenStop
	}
	row := g.rows[i]
	if !row.HasSource() {
		return analytics.TokenNone
	}
	if row.Source().IsConstant() {
		return analytics.TokenConst
	}
	return row.Source().String()
}

func (g *Genome) targetWordAt(i int) string {
	if i < 0 {
		return analytics.TokenStart
	}
	if i >= len(g.rows) {
		return analytics.TokenStop
	}
	row := g.rows[i]
	if len(row.Operands) == 0 {
		return analytics.TokenNone
	}
	return row.Target().String()
}

// operandFromToken turns a histogram token back into an operand.
func (g *Genome) operandFromToken(token string, op inst.Opcode) (inst.Operand, bool) {
	switch token {
	case "", analytics.TokenNone:
		return inst.Operand{}, false
	case analytics.TokenConst:
		return inst.NewConstant(g.ctx.Constants.Choose(g.rng, op)), true
	}
	return g.registerFromToken(token)
}

func (g *Genome) registerFromToken(token string) (inst.Operand, bool) {
	if token == "" || !strings.HasPrefix(token, "$") {
		return inst.Operand{}, false
	}
	prog, err := inst.ParseProgram("mov " + token + ",0")
	if err != nil {
		return inst.Operand{}, false
	}
	return prog.At(0).Target(), true
}

// randomTarget picks a register among the ones the genome already
// touches, occasionally reaching one past the maximum.
func (g *Genome) randomTarget() inst.Operand {
	maxIndex := 1
	for _, row := range g.rows {
		for _, o := range row.Operands {
			if o.IsRegister() && o.Index() > maxIndex {
				maxIndex = o.Index()
			}
		}
	}
	return inst.NewDirect(int64(g.rng.IntN(maxIndex + 2)))
}

func (g *Genome) randomSource(op inst.Opcode) inst.Operand {
	if g.rng.IntN(2) == 0 {
		return inst.NewConstant(g.ctx.Constants.Choose(g.rng, op))
	}
	return g.randomTarget()
}
