package mine

import (
	"math/rand/v2"
	"testing"

	"github.com/oisee/seqmine/pkg/analytics"
	"github.com/oisee/seqmine/pkg/inst"
	"github.com/oisee/seqmine/pkg/oeis"
)

func testMutateContext(t *testing.T) *MutateContext {
	t.Helper()
	trigrams := []analytics.RecordTrigram{
		{Count: 100, Word0: analytics.TokenStart, Word1: "mov", Word2: "add"},
		{Count: 100, Word0: "mov", Word1: "add", Word2: "mul"},
		{Count: 100, Word0: "add", Word1: "mul", Word2: analytics.TokenStop},
		{Count: 100, Word0: "mov", Word1: "sub", Word2: analytics.TokenStop},
		{Count: 100, Word0: analytics.TokenStart, Word1: "add", Word2: analytics.TokenStop},
		{Count: 50, Word0: "sub", Word1: "div", Word2: "add"},
	}
	operands := []analytics.RecordTrigram{
		{Count: 100, Word0: analytics.TokenStart, Word1: "$0", Word2: analytics.TokenConst},
		{Count: 100, Word0: "$0", Word1: analytics.TokenConst, Word2: analytics.TokenStop},
		{Count: 100, Word0: "$1", Word1: "$2", Word2: "$1"},
		{Count: 100, Word0: analytics.TokenConst, Word1: "$1", Word2: analytics.TokenStop},
		{Count: 100, Word0: analytics.TokenStart, Word1: "$1", Word2: "$1"},
	}
	constants := []analytics.RecordConstant{
		{Count: 100, Instruction: "mov", Constant: 2},
		{Count: 100, Instruction: "add", Constant: 1},
		{Count: 100, Instruction: "sub", Constant: 1},
	}
	ctx, err := NewMutateContext(trigrams, operands, operands, constants, []oeis.ID{45, 79})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	return ctx
}

func TestGenomeMutateEventuallyChanges(t *testing.T) {
	ctx := testMutateContext(t)
	rng := rand.New(rand.NewPCG(42, 42))
	seed := inst.MustParse("mov $1,$0\nadd $1,1\nmul $1,2")

	genome := NewGenome(seed, ctx, rng)
	changed := false
	for i := 0; i < 100 && !changed; i++ {
		changed = genome.Mutate()
	}
	if !changed {
		t.Fatal("a hundred attempts should produce at least one rewrite")
	}
	if _, err := genome.Program(); err != nil {
		t.Fatalf("mutated genome must still build: %v", err)
	}
}

func TestGenomeKeepsLoopStructure(t *testing.T) {
	ctx := testMutateContext(t)
	rng := rand.New(rand.NewPCG(7, 7))
	seed := inst.MustParse("mov $3,1\nlpb $0\n  sub $0,1\n  add $1,$3\nlpe\nmov $0,$1")

	genome := NewGenome(seed, ctx, rng)
	for i := 0; i < 200; i++ {
		genome.Mutate()
		prog, err := genome.Program()
		if err != nil {
			t.Fatalf("iteration %d broke loop nesting: %v", i, err)
		}
		begins, ends := 0, 0
		for j := 0; j < prog.Len(); j++ {
			switch prog.At(j).Op {
			case inst.Lpb:
				begins++
			case inst.Lpe:
				ends++
			}
		}
		if begins != 1 || ends != 1 {
			t.Fatalf("iteration %d changed loop delimiters: %d/%d", i, begins, ends)
		}
	}
}

func TestGenomeMutateNReportsChange(t *testing.T) {
	ctx := testMutateContext(t)
	rng := rand.New(rand.NewPCG(3, 3))
	genome := NewGenome(inst.MustParse("mov $1,$0\nadd $1,1"), ctx, rng)
	if !genome.MutateN(50) {
		t.Error("fifty attempts should include a successful rewrite")
	}
}

func TestChooseSeedStaysInPool(t *testing.T) {
	ctx := testMutateContext(t)
	rng := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < 100; i++ {
		id := ctx.ChooseSeed(rng)
		if id != oeis.ID(45) && id != oeis.ID(79) {
			t.Fatalf("seed outside pool: %v", id)
		}
	}
}
