package mine

import (
	"math/big"
	"math/rand/v2"

	"github.com/golang/glog"
	"github.com/oisee/seqmine/pkg/interp"
	"github.com/oisee/seqmine/pkg/store"
)

// noOpGuardTerms is how many leading terms are compared between seed
// and candidate; a mutation counts as having an effect when any of
// them differs.
const noOpGuardTerms = 5

// mutationsPerCandidate bounds the rewrites applied to one seed before
// it is executed.
const mutationsPerCandidate = 3

// Miner owns one worker's mutable mining state: dependency manager,
// result cache, random stream. The funnel, mutation context and sink
// are shared read-only or serialized by their own discipline.
type Miner struct {
	programStore store.ProgramStore
	ctx          *MutateContext
	funnel       *Funnel
	guard        *PreventFlooding
	sink         CandidateSink
	recorder     Recorder
	limits       interp.Limits
	rng          *rand.Rand

	deps  *store.DependencyManager
	cache *interp.Cache
}

// NewMiner assembles a worker. Each worker needs its own Miner; only
// funnel, context and guard may be shared (the guard locks
// internally).
func NewMiner(
	programStore store.ProgramStore,
	ctx *MutateContext,
	funnel *Funnel,
	guard *PreventFlooding,
	sink CandidateSink,
	recorder Recorder,
	seed uint64,
) *Miner {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Miner{
		programStore: programStore,
		ctx:          ctx,
		funnel:       funnel,
		guard:        guard,
		sink:         sink,
		recorder:     recorder,
		limits:       interp.MiningLimits(),
		rng:          rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		deps:         store.NewDependencyManager(programStore),
		cache:        interp.NewCache(interp.DefaultCacheCapacity),
	}
}

// BatchResult summarises one batch for the coordinator.
type BatchResult struct {
	Iterations int
	Candidates int
	Rejections int
}

// ExecuteBatch runs `iterations` mutate-execute-match cycles.
func (m *Miner) ExecuteBatch(iterations int) BatchResult {
	result := BatchResult{Iterations: iterations}
	for i := 0; i < iterations; i++ {
		if m.mineOne() {
			result.Candidates++
		} else {
			result.Rejections++
		}
	}
	m.recorder.Record(MetricEvent{Kind: EventIterations, Value: uint64(iterations)})
	m.recorder.Record(MetricEvent{Kind: EventCacheHit, Value: m.cache.Hits()})
	m.recorder.Record(MetricEvent{Kind: EventCacheMissOeis, Value: m.cache.MissesOeis()})
	m.recorder.Record(MetricEvent{Kind: EventCacheMissAnonymous, Value: m.cache.MissesAnonymous()})
	m.cache.Clear()
	return result
}

// mineOne runs a single funnel attempt; true means a candidate was
// emitted.
func (m *Miner) mineOne() bool {
	seedID := m.ctx.ChooseSeed(m.rng)
	seedRunner, err := m.deps.Resolve(seedID)
	if err != nil {
		glog.V(1).Infof("seed %s failed to load: %v", seedID.ANumber(), err)
		m.recorder.Record(MetricEvent{Kind: EventErrorSeedLoad, Value: 1})
		return false
	}
	seedTerms, err := seedRunner.Terms(noOpGuardTerms, &m.limits, m.cache)
	if err != nil {
		m.recorder.Record(MetricEvent{Kind: EventErrorSeedLoad, Value: 1})
		return false
	}

	genome := NewGenome(seedRunner.Program(), m.ctx, m.rng)
	if !genome.MutateN(1 + m.rng.IntN(mutationsPerCandidate)) {
		m.recorder.Record(MetricEvent{Kind: EventRejectMutateNoImpact, Value: 1})
		return false
	}
	prog, err := genome.Program()
	if err != nil {
		m.recorder.Record(MetricEvent{Kind: EventRejectCannotParse, Value: 1})
		return false
	}

	// The mutation may have cut the output register loose; try to
	// reconnect it before giving up on the candidate.
	prog, hasOutput := prog.AttachOutput()
	if !hasOutput {
		m.recorder.Record(MetricEvent{Kind: EventRejectNoOutput, Value: 1})
		return false
	}

	runner, err := m.deps.LinkProgram(prog)
	if err != nil {
		m.recorder.Record(MetricEvent{Kind: EventRejectCannotParse, Value: 1})
		return false
	}

	// No-op mutation guard: the candidate must diverge from its seed
	// on the first few inputs.
	candidateTerms, err := runner.Terms(noOpGuardTerms, &m.limits, m.cache)
	if err != nil {
		m.recorder.Record(MetricEvent{Kind: EventRejectComputeError, Value: 1})
		return false
	}
	if termsEqual(seedTerms, candidateTerms) {
		m.recorder.Record(MetricEvent{Kind: EventRejectMutateNoImpact, Value: 1})
		return false
	}

	funnelResult, ok, err := m.funnel.Check(runner, &m.limits, m.cache, m.recorder)
	if err != nil {
		m.recorder.Record(MetricEvent{Kind: EventRejectComputeError, Value: 1})
		return false
	}
	if !ok {
		m.recorder.Record(MetricEvent{Kind: EventRejectNoMatch, Value: 1})
		return false
	}

	fingerprint := TermFingerprint(funnelResult.Terms)
	if !m.guard.Register(fingerprint) {
		m.recorder.Record(MetricEvent{Kind: EventRejectFloodGuard, Value: 1})
		return false
	}

	candidate := &Candidate{
		Program:     prog,
		Terms:       funnelResult.Terms,
		Wildcards:   funnelResult.Wildcards,
		Fingerprint: fingerprint,
	}
	if err := m.sink.Emit(candidate); err != nil {
		glog.Errorf("emitting candidate: %v", err)
		return false
	}
	m.recorder.Record(MetricEvent{Kind: EventCandidate, Value: 1})
	return true
}

func termsEqual(a, b []*big.Int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Cmp(b[i]) != 0 {
			return false
		}
	}
	return true
}
