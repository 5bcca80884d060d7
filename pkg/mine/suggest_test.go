package mine

import (
	"math/rand/v2"
	"testing"

	"github.com/oisee/seqmine/pkg/analytics"
	"github.com/oisee/seqmine/pkg/inst"
)

func mockInstructionTrigrams() []analytics.RecordTrigram {
	return []analytics.RecordTrigram{
		{Count: 1000, Word0: "mov", Word1: "div", Word2: "mul"},
		{Count: 1000, Word0: analytics.TokenStart, Word1: "sub", Word2: "add"},
		{Count: 1000, Word0: "gcd", Word1: "min", Word2: analytics.TokenStop},
		{Count: 1000, Word0: analytics.TokenStart, Word1: "max", Word2: analytics.TokenStop},
		{Count: 1000, Word0: "add", Word1: "lpb", Word2: "sub"},
	}
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(0, 0))
}

func TestSuggestInstructionContexts(t *testing.T) {
	suggest := NewSuggestInstruction(mockInstructionTrigrams())
	tests := []struct {
		name       string
		prev, next string
		want       inst.Opcode
		ok         bool
	}{
		{"between instructions", "mov", "mul", inst.Div, true},
		{"start of program", analytics.TokenStart, "add", inst.Sub, true},
		{"end of program", "gcd", analytics.TokenStop, inst.Min, true},
		{"start and end", analytics.TokenStart, analytics.TokenStop, inst.Max, true},
		{"unknown context", "dif", "dif", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op, ok := suggest.Choose(testRNG(), tc.prev, tc.next)
			if ok != tc.ok {
				t.Fatalf("ok: got %v want %v", ok, tc.ok)
			}
			if ok && op != tc.want {
				t.Errorf("op: got %s want %s", op, tc.want)
			}
		})
	}
}

func TestSuggestInstructionNeverSuggestsStructural(t *testing.T) {
	suggest := NewSuggestInstruction(mockInstructionTrigrams())
	// The lpb row must have been filtered out during population.
	if _, ok := suggest.Choose(testRNG(), "add", "sub"); ok {
		t.Error("lpb must not be suggested")
	}
}

func TestSuggestInstructionWeighting(t *testing.T) {
	records := []analytics.RecordTrigram{
		{Count: 990, Word0: "mov", Word1: "add", Word2: "mov"},
		{Count: 10, Word0: "mov", Word1: "sub", Word2: "mov"},
	}
	suggest := NewSuggestInstruction(records)
	rng := testRNG()
	counts := map[inst.Opcode]int{}
	for i := 0; i < 1000; i++ {
		op, ok := suggest.Choose(rng, "mov", "mov")
		if !ok {
			t.Fatal("context must be known")
		}
		counts[op]++
	}
	if counts[inst.Add] < 900 {
		t.Errorf("add should dominate, got %v", counts)
	}
	if counts[inst.Sub] == 0 {
		t.Errorf("sub should still appear occasionally, got %v", counts)
	}
}

func TestSuggestOperand(t *testing.T) {
	records := []analytics.RecordTrigram{
		{Count: 100, Word0: "$0", Word1: "$2", Word2: analytics.TokenConst},
		{Count: 100, Word0: analytics.TokenNone, Word1: analytics.TokenConst, Word2: "$1"},
	}
	suggest := NewSuggestOperand(records)
	if got := suggest.Choose(testRNG(), "$0", analytics.TokenConst); got != "$2" {
		t.Errorf("got %q", got)
	}
	if got := suggest.Choose(testRNG(), analytics.TokenNone, "$1"); got != analytics.TokenConst {
		t.Errorf("got %q", got)
	}
	if got := suggest.Choose(testRNG(), "$9", "$9"); got != "" {
		t.Errorf("unknown context: got %q", got)
	}
}

func TestConstantHistogram(t *testing.T) {
	records := []analytics.RecordConstant{
		{Count: 500, Instruction: "mov", Constant: 2},
		{Count: 1, Instruction: "mov", Constant: 31},
	}
	histogram := NewConstantHistogram(records)
	rng := testRNG()
	seen := map[int64]int{}
	for i := 0; i < 500; i++ {
		seen[histogram.Choose(rng, inst.Mov)]++
	}
	if seen[2] < 400 {
		t.Errorf("2 should dominate, got %v", seen)
	}
	// Unknown instructions fall back to small positive defaults.
	v := histogram.Choose(rng, inst.Gcd)
	if v < 1 || v > 5 {
		t.Errorf("fallback constant out of range: %d", v)
	}
}
