package mine

import (
	"hash/fnv"
	"math/big"
	"sync"
)

// TermFingerprint hashes a term prefix; candidates computing the same
// prefix share a fingerprint.
func TermFingerprint(terms []*big.Int) uint64 {
	h := fnv.New64a()
	for i, t := range terms {
		if i > 0 {
			h.Write([]byte{','})
		}
		h.Write([]byte(t.String()))
	}
	return h.Sum64()
}

// PreventFlooding drops candidates whose fingerprint was already seen
// recently. Mining mutates one seed into many near-identical programs
// that all compute the same terms; without this the event dir fills
// with duplicates. The window is a ring: once full, the oldest
// fingerprint is forgotten and may be emitted again. The guard is the
// one piece of state all workers share, so it locks internally.
type PreventFlooding struct {
	mu       sync.Mutex
	window   []uint64
	next     int
	seen     map[uint64]int
	maxSeen  int
	capacity int
}

// NewPreventFlooding creates a guard remembering the last windowSize
// fingerprints; a fingerprint occurring more than maxRepeats times
// inside the window is dropped.
func NewPreventFlooding(windowSize, maxRepeats int) *PreventFlooding {
	if windowSize < 1 {
		windowSize = 1
	}
	if maxRepeats < 1 {
		maxRepeats = 1
	}
	return &PreventFlooding{
		window:   make([]uint64, 0, windowSize),
		seen:     make(map[uint64]int),
		maxSeen:  maxRepeats,
		capacity: windowSize,
	}
}

// Register records a fingerprint. It returns false when the
// fingerprint has flooded the window and the candidate should be
// dropped.
func (p *PreventFlooding) Register(fingerprint uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen[fingerprint] >= p.maxSeen {
		return false
	}
	if len(p.window) < p.capacity {
		p.window = append(p.window, fingerprint)
	} else {
		old := p.window[p.next]
		if p.seen[old] <= 1 {
			delete(p.seen, old)
		} else {
			p.seen[old]--
		}
		p.window[p.next] = fingerprint
	}
	p.seen[fingerprint]++
	p.next = (p.next + 1) % p.capacity
	return true
}

// Len returns how many fingerprints the window currently holds.
func (p *PreventFlooding) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.window)
}
