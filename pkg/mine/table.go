package mine

import (
	"sort"
	"sync"
)

// CandidateTable is a CandidateSink that keeps emitted candidates in
// memory behind a mutex, for the coordinator summary and for tests
// that assert on the mined set. It usually wraps the real sink.
type CandidateTable struct {
	mu         sync.Mutex
	candidates []*Candidate
	next       CandidateSink
}

// NewCandidateTable creates a table forwarding to next; next may be
// nil for collect-only use.
func NewCandidateTable(next CandidateSink) *CandidateTable {
	return &CandidateTable{next: next}
}

// Emit implements CandidateSink.
func (t *CandidateTable) Emit(c *Candidate) error {
	t.mu.Lock()
	t.candidates = append(t.candidates, c)
	t.mu.Unlock()
	if t.next != nil {
		return t.next.Emit(c)
	}
	return nil
}

// Candidates returns a copy of all candidates, strongest match first
// (fewest wildcards, then longest term prefix).
func (t *CandidateTable) Candidates() []*Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Candidate, len(t.candidates))
	copy(out, t.candidates)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wildcards != out[j].Wildcards {
			return out[i].Wildcards < out[j].Wildcards
		}
		return len(out[i].Terms) > len(out[j].Terms)
	})
	return out
}

// Len returns the number of emitted candidates.
func (t *CandidateTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.candidates)
}
