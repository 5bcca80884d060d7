package mine

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/oisee/seqmine/pkg/inst"
)

// Candidate is a mined program that survived every funnel stage.
type Candidate struct {
	Program     *inst.Program
	Terms       []*big.Int
	Wildcards   int
	Fingerprint uint64
}

// CandidateSink receives emitted candidates. An emit must be atomic at
// the granularity of one candidate program.
type CandidateSink interface {
	Emit(c *Candidate) error
}

// EventDirSink writes each candidate as its own file in the mine event
// directory. Writing to a temp name and renaming keeps partially
// written candidates invisible to the consumer.
type EventDirSink struct {
	dir       string
	annotator *Annotator
}

// NewEventDirSink creates the directory if needed.
func NewEventDirSink(dir string, annotator *Annotator) (*EventDirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating mine event dir: %w", err)
	}
	if annotator == nil {
		annotator = &Annotator{}
	}
	return &EventDirSink{dir: dir, annotator: annotator}, nil
}

// Emit implements CandidateSink.
func (s *EventDirSink) Emit(c *Candidate) error {
	name := uuid.NewString() + ".asm"
	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp"
	content := s.annotator.Format(c.Program, nil, c.Terms)
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing candidate: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publishing candidate: %w", err)
	}
	glog.V(1).Infof("emitted candidate %s (%d wildcards)", name, c.Wildcards)
	return nil
}

// MemorySink collects candidates in memory; tests use it.
type MemorySink struct {
	candidates []*Candidate
}

// Emit implements CandidateSink.
func (s *MemorySink) Emit(c *Candidate) error {
	s.candidates = append(s.candidates, c)
	return nil
}

// Candidates returns everything emitted so far.
func (s *MemorySink) Candidates() []*Candidate {
	return s.candidates
}
