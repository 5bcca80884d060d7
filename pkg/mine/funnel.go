package mine

import (
	"fmt"
	"io"
	"math/big"

	"github.com/golang/glog"
	"github.com/oisee/seqmine/pkg/interp"
	"github.com/oisee/seqmine/pkg/oeis"
)

// DefaultStageTermCounts are the staged prefix lengths a candidate
// must match before it is emitted.
var DefaultStageTermCounts = []int{10, 20, 30, 40}

// DefaultMinimumRequiredTerms anchors the wildcard query: at least
// this many leading terms stay concrete.
const DefaultMinimumRequiredTerms = 10

// DefaultFalsePositiveRate sizes the per-stage bloom filters.
const DefaultFalsePositiveRate = 0.01

// Funnel filters candidates through staged term-count checks. Stage i
// evaluates the candidate on inputs 0..tᵢ-1 and queries the stage's
// fixed-length index with wildcard tails; any evaluation error or
// index miss rejects immediately. The funnel is read-only after
// construction and shared by every worker.
type Funnel struct {
	checkers    []*oeis.FixedLengthIndex
	minRequired int
}

// NewFunnel wraps pre-built per-stage indexes, ordered by ascending
// term count.
func NewFunnel(checkers []*oeis.FixedLengthIndex, minRequired int) *Funnel {
	if minRequired < 1 {
		minRequired = 1
	}
	return &Funnel{checkers: checkers, minRequired: minRequired}
}

// FunnelFromStripped builds one index per stage term count from the
// OEIS stripped file. Rows shorter than a stage's term count are
// zero-padded, so they remain reachable through wildcard tails.
func FunnelFromStripped(r io.Reader, stageTermCounts []int, expectedRows int, fpRate float64, keys [2]uint64) (*Funnel, error) {
	if len(stageTermCounts) == 0 {
		stageTermCounts = DefaultStageTermCounts
	}
	checkers := make([]*oeis.FixedLengthIndex, len(stageTermCounts))
	for i, k := range stageTermCounts {
		checkers[i] = oeis.NewFixedLengthIndex(expectedRows, fpRate, k, keys)
	}
	rows := 0
	maxTerms := stageTermCounts[len(stageTermCounts)-1]
	err := oeis.ForEachRow(r, maxTerms, func(row *oeis.Row) {
		for _, checker := range checkers {
			checker.Insert(row.Terms)
		}
		rows++
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("funnel: indexed %d rows at term counts %v", rows, stageTermCounts)
	return &Funnel{checkers: checkers, minRequired: DefaultMinimumRequiredTerms}, nil
}

// FunnelFromIndexFiles loads previously saved per-stage indexes.
func FunnelFromIndexFiles(paths []string) (*Funnel, error) {
	checkers := make([]*oeis.FixedLengthIndex, len(paths))
	for i, path := range paths {
		checker, err := oeis.LoadIndexFile(path)
		if err != nil {
			return nil, err
		}
		checkers[i] = checker
	}
	return &Funnel{checkers: checkers, minRequired: DefaultMinimumRequiredTerms}, nil
}

// Checkers exposes the per-stage indexes, for persistence.
func (f *Funnel) Checkers() []*oeis.FixedLengthIndex {
	return f.checkers
}

// Stages returns the term counts, ascending.
func (f *Funnel) Stages() []int {
	out := make([]int, len(f.checkers))
	for i, c := range f.checkers {
		out[i] = c.TermCount()
	}
	return out
}

// Result describes a candidate that survived every stage.
type Result struct {
	Terms     []*big.Int
	Wildcards int // wildcard count of the final stage's match
}

// Check runs a candidate through every stage. A nil error with ok ==
// false means an index miss; an error is an evaluation failure whose
// kind the caller can read with interp.KindOf. The recorder receives
// one survivor event per passed stage.
func (f *Funnel) Check(runner *interp.Runner, limits *interp.Limits, cache *interp.Cache, recorder Recorder) (Result, bool, error) {
	var terms []*big.Int
	var wildcards int
	for _, checker := range f.checkers {
		k := checker.TermCount()
		for len(terms) < k {
			var steps uint64
			term, err := runner.Run(big.NewInt(int64(len(terms))), interp.Silent, &steps, limits, cache)
			if err != nil {
				return Result{}, false, fmt.Errorf("term %d: %w", len(terms), err)
			}
			terms = append(terms, term)
		}
		w, ok := checker.QueryWithWildcards(terms, f.minRequired)
		if !ok {
			return Result{}, false, nil
		}
		wildcards = w
		if recorder != nil {
			recorder.Record(MetricEvent{Kind: EventFunnelSurvivor, Value: uint64(k)})
		}
	}
	return Result{Terms: terms, Wildcards: wildcards}, true, nil
}
