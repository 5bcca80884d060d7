package mine

import (
	"testing"

	"github.com/oisee/seqmine/pkg/oeis"
	"github.com/oisee/seqmine/pkg/store"
)

// An end-to-end smoke test of the batch loop: one seed program, a
// funnel over its own terms. Whatever the mutations produce, the batch
// must terminate, classify every iteration and leave the sink
// consistent with the counters.
func TestMinerExecuteBatch(t *testing.T) {
	memory := store.NewMemoryStore()
	memory.Put(oeis.ID(45), funnelFibonacciSource)

	ctx := testMutateContext(t)
	funnel := newFunnelForTest(t)
	guard := NewPreventFlooding(1000, 2)
	sink := &MemorySink{}
	recorder := &captureRecorder{}

	miner := NewMiner(memory, ctx, funnel, guard, sink, recorder, 12345)
	// The test context's seed pool lists A000079 too; only A000045
	// exists in the store, so some iterations exercise the seed-load
	// error path as well.
	result := miner.ExecuteBatch(50)

	if result.Iterations != 50 {
		t.Errorf("iterations: got %d", result.Iterations)
	}
	if result.Candidates+result.Rejections != 50 {
		t.Errorf("every iteration must be classified: %+v", result)
	}
	if result.Candidates != len(sink.Candidates()) {
		t.Errorf("sink has %d candidates, result says %d", len(sink.Candidates()), result.Candidates)
	}

	var sawIterations bool
	for _, ev := range recorder.events {
		if ev.Kind == EventIterations && ev.Value == 50 {
			sawIterations = true
		}
	}
	if !sawIterations {
		t.Error("batch must report its iteration count")
	}
}

func TestMinerEmittedCandidatesSatisfyTheFunnel(t *testing.T) {
	memory := store.NewMemoryStore()
	memory.Put(oeis.ID(45), funnelFibonacciSource)
	memory.Put(oeis.ID(79), "mov $1,2\npow $1,$0")

	ctx := testMutateContext(t)
	funnel := newFunnelForTest(t)
	guard := NewPreventFlooding(1000, 2)
	sink := &MemorySink{}

	miner := NewMiner(memory, ctx, funnel, guard, sink, nil, 999)
	miner.ExecuteBatch(100)

	for _, c := range sink.Candidates() {
		if len(c.Terms) != 40 {
			t.Errorf("candidate with %d terms emitted", len(c.Terms))
		}
		if c.Fingerprint == 0 {
			t.Error("candidate without fingerprint")
		}
	}
}
