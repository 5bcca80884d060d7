package oeis

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/big"
	"os"

	"github.com/bits-and-blooms/bitset"
)

// FixedLengthIndex is a probabilistic membership filter over term
// prefixes of exactly TermCount terms. A hit means the prefix is
// possibly in OEIS; a miss is definitive. False positives occur at
// roughly the rate the filter was sized for.
type FixedLengthIndex struct {
	bits      *bitset.BitSet
	bitCount  uint64
	hashCount uint32
	keys      [2]uint64
	termCount int
}

// NewFixedLengthIndex sizes a filter for the expected number of rows and
// target false-positive rate. The two hash keys perturb the probe
// positions; persisting them makes save/load reproduce the filter bit
// for bit.
func NewFixedLengthIndex(expectedRows int, falsePositiveRate float64, termCount int, keys [2]uint64) *FixedLengthIndex {
	if expectedRows < 1 {
		expectedRows = 1
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(expectedRows) * math.Log(falsePositiveRate) / (ln2 * ln2)))
	if m < 64 {
		m = 64
	}
	k := uint32(math.Round(float64(m) / float64(expectedRows) * ln2))
	if k < 1 {
		k = 1
	}
	return &FixedLengthIndex{
		bits:      bitset.New(uint(m)),
		bitCount:  m,
		hashCount: k,
		keys:      keys,
		termCount: termCount,
	}
}

// TermCount returns the fixed prefix length K this filter indexes.
func (x *FixedLengthIndex) TermCount() int {
	return x.termCount
}

// canonical serialises a term vector the one way the filter hashes it.
func canonical(terms []*big.Int) []byte {
	buf := make([]byte, 0, len(terms)*4)
	for i, t := range terms {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = t.Append(buf, 10)
	}
	return buf
}

func (x *FixedLengthIndex) hashPair(data []byte) (uint64, uint64) {
	h1 := fnv.New64a()
	var seed [8]byte
	putUint64(seed[:], x.keys[0])
	h1.Write(seed[:])
	h1.Write(data)
	h2 := fnv.New64a()
	putUint64(seed[:], x.keys[1])
	h2.Write(seed[:])
	h2.Write(data)
	return h1.Sum64(), h2.Sum64() | 1
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Insert adds a row's terms, truncated or zero-padded to TermCount.
func (x *FixedLengthIndex) Insert(terms []*big.Int) {
	data := canonical(x.normalize(terms))
	h1, h2 := x.hashPair(data)
	for i := uint32(0); i < x.hashCount; i++ {
		x.bits.Set(uint((h1 + uint64(i)*h2) % x.bitCount))
	}
}

// Contains tests exact membership of a TermCount-length prefix.
func (x *FixedLengthIndex) Contains(terms []*big.Int) bool {
	data := canonical(x.normalize(terms))
	h1, h2 := x.hashPair(data)
	for i := uint32(0); i < x.hashCount; i++ {
		if !x.bits.Test(uint((h1 + uint64(i)*h2) % x.bitCount)) {
			return false
		}
	}
	return true
}

func (x *FixedLengthIndex) normalize(terms []*big.Int) []*big.Int {
	if len(terms) == x.termCount {
		return terms
	}
	out := make([]*big.Int, x.termCount)
	for i := range out {
		if i < len(terms) {
			out[i] = terms[i]
		} else {
			out[i] = big.NewInt(0)
		}
	}
	return out
}

// QueryWithWildcards performs the fuzzy tail match. The prefix is
// trimmed to TermCount; then for w = 0,1,... the last w terms are
// replaced with zero and the filter probed, stopping at the first hit.
// At least minRequired concrete terms are always kept, so w ranges over
// [0, TermCount-minRequired]. Returns the wildcard count of the hit, or
// (0, false) when nothing matched.
//
// OEIS rows shorter than TermCount were zero-padded at insert time, so
// a short-but-correct indexed row still matches a full-length candidate
// prefix once enough of the tail is wildcarded away.
func (x *FixedLengthIndex) QueryWithWildcards(terms []*big.Int, minRequired int) (int, bool) {
	if minRequired < 1 {
		minRequired = 1
	}
	if len(terms) < x.termCount || minRequired > x.termCount {
		return 0, false
	}
	probe := make([]*big.Int, x.termCount)
	copy(probe, terms[:x.termCount])
	if x.Contains(probe) {
		return 0, true
	}
	zero := big.NewInt(0)
	for w := 1; w <= x.termCount-minRequired; w++ {
		probe[x.termCount-w] = zero
		if x.Contains(probe) {
			return w, true
		}
	}
	return 0, false
}

// indexSnapshot is the stable on-disk representation.
type indexSnapshot struct {
	Bitmap    []byte    `json:"bitmap"`
	BitCount  uint64    `json:"bit_count"`
	HashCount uint32    `json:"hash_count"`
	Keys      [2]uint64 `json:"hash_keys"`
	TermCount int       `json:"term_count"`
}

// WriteTo serialises the filter state as JSON.
func (x *FixedLengthIndex) WriteTo(w io.Writer) error {
	bitmap, err := x.bits.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bitmap: %w", err)
	}
	snap := indexSnapshot{
		Bitmap:    bitmap,
		BitCount:  x.bitCount,
		HashCount: x.hashCount,
		Keys:      x.keys,
		TermCount: x.termCount,
	}
	return json.NewEncoder(w).Encode(&snap)
}

// ReadIndex reconstructs a filter previously written with WriteTo.
func ReadIndex(r io.Reader) (*FixedLengthIndex, error) {
	var snap indexSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	bits := bitset.New(uint(snap.BitCount))
	if err := bits.UnmarshalBinary(snap.Bitmap); err != nil {
		return nil, fmt.Errorf("unmarshal bitmap: %w", err)
	}
	return &FixedLengthIndex{
		bits:      bits,
		bitCount:  snap.BitCount,
		hashCount: snap.HashCount,
		keys:      snap.Keys,
		termCount: snap.TermCount,
	}, nil
}

// SaveFile writes the filter to path, creating or truncating it.
func (x *FixedLengthIndex) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return x.WriteTo(f)
}

// LoadIndexFile reads a filter previously saved with SaveFile.
func LoadIndexFile(path string) (*FixedLengthIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIndex(f)
}
