package mine

import (
	"math/rand/v2"

	"github.com/oisee/seqmine/pkg/analytics"
	"github.com/oisee/seqmine/pkg/inst"
)

// weightedWord is one suggestion candidate with its corpus count.
type weightedWord struct {
	word   string
	weight uint64
}

// suggestModel answers "given previous symbol P and next symbol N,
// suggest a middle symbol" by weighted-random choice over the corpus
// trigram histogram.
type suggestModel struct {
	histogram map[[2]string][]weightedWord
	totals    map[[2]string]uint64
}

func newSuggestModel(records []analytics.RecordTrigram, keep func(string) bool) *suggestModel {
	m := &suggestModel{
		histogram: make(map[[2]string][]weightedWord),
		totals:    make(map[[2]string]uint64),
	}
	for _, r := range records {
		if r.Count == 0 || !keep(r.Word1) {
			continue
		}
		key := [2]string{r.Word0, r.Word2}
		m.histogram[key] = append(m.histogram[key], weightedWord{word: r.Word1, weight: r.Count})
		m.totals[key] += r.Count
	}
	return m
}

// choose picks a middle word for the (prev, next) context, or "" when
// the context never occurred in the corpus.
func (m *suggestModel) choose(rng *rand.Rand, prev, next string) string {
	key := [2]string{prev, next}
	candidates := m.histogram[key]
	if len(candidates) == 0 {
		return ""
	}
	pick := rng.Uint64N(m.totals[key])
	for _, c := range candidates {
		if pick < c.weight {
			return c.word
		}
		pick -= c.weight
	}
	return candidates[len(candidates)-1].word
}

// SuggestInstruction proposes opcodes from the instruction-stream
// trigrams. Structural opcodes (lpb, lpe, clr, seq) are never
// suggested; mutations that touch loop shape go through dedicated
// mutation kinds instead.
type SuggestInstruction struct {
	model *suggestModel
}

// NewSuggestInstruction builds the model from histogram records.
func NewSuggestInstruction(records []analytics.RecordTrigram) *SuggestInstruction {
	keep := func(word string) bool {
		op, ok := inst.LookupOpcode(word)
		if !ok {
			return false
		}
		switch op {
		case inst.Lpb, inst.Lpe, inst.Clr, inst.Seq:
			return false
		}
		return true
	}
	return &SuggestInstruction{model: newSuggestModel(records, keep)}
}

// Choose suggests an opcode between prev and next; program boundaries
// are passed as the START/STOP tokens. ok is false when the context
// never occurred in the corpus.
func (s *SuggestInstruction) Choose(rng *rand.Rand, prev, next string) (inst.Opcode, bool) {
	word := s.model.choose(rng, prev, next)
	if word == "" {
		return 0, false
	}
	op, ok := inst.LookupOpcode(word)
	return op, ok
}

// SuggestOperand proposes operand tokens ("$3", "$$0", CONST) from the
// source- or target-stream trigrams.
type SuggestOperand struct {
	model *suggestModel
}

// NewSuggestOperand builds the model from histogram records.
func NewSuggestOperand(records []analytics.RecordTrigram) *SuggestOperand {
	keep := func(word string) bool {
		return word != analytics.TokenStart && word != analytics.TokenStop
	}
	return &SuggestOperand{model: newSuggestModel(records, keep)}
}

// Choose suggests an operand token between prev and next; empty when
// the context is unknown.
func (s *SuggestOperand) Choose(rng *rand.Rand, prev, next string) string {
	return s.model.choose(rng, prev, next)
}

// ConstantHistogram suggests constants per instruction, weighted by
// how often each value appears in the corpus.
type ConstantHistogram struct {
	byInstruction map[string][]weightedConstant
	totals        map[string]uint64
}

type weightedConstant struct {
	value  int64
	weight uint64
}

// NewConstantHistogram builds the model from histogram records.
func NewConstantHistogram(records []analytics.RecordConstant) *ConstantHistogram {
	h := &ConstantHistogram{
		byInstruction: make(map[string][]weightedConstant),
		totals:        make(map[string]uint64),
	}
	for _, r := range records {
		if r.Count == 0 {
			continue
		}
		h.byInstruction[r.Instruction] = append(h.byInstruction[r.Instruction],
			weightedConstant{value: r.Constant, weight: r.Count})
		h.totals[r.Instruction] += r.Count
	}
	return h
}

// Choose picks a constant for an opcode; falls back to small defaults
// when the corpus has nothing for it.
func (h *ConstantHistogram) Choose(rng *rand.Rand, op inst.Opcode) int64 {
	candidates := h.byInstruction[op.String()]
	if len(candidates) == 0 {
		return int64(rng.IntN(5)) + 1
	}
	pick := rng.Uint64N(h.totals[op.String()])
	for _, c := range candidates {
		if pick < c.weight {
			return c.value
		}
		pick -= c.weight
	}
	return candidates[len(candidates)-1].value
}
