package mine

import (
	"encoding/gob"
	"os"
)

// Checkpoint carries the state worth keeping across mining runs: the
// flood-guard window, so a restarted miner does not re-emit the
// duplicates the previous run already saw, and the running totals.
type Checkpoint struct {
	Fingerprints []uint64
	Iterations   int64
	Candidates   int64
}

// SaveCheckpoint writes mining state to a file.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ckpt)
}

// LoadCheckpoint loads mining state from a file.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	return &ckpt, nil
}

// Snapshot captures the guard's current window into a checkpoint.
func (p *PreventFlooding) Snapshot() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint64, len(p.window))
	copy(out, p.window)
	return out
}

// Reseed replays fingerprints into the guard, typically from a
// checkpoint of a previous run.
func (p *PreventFlooding) Reseed(fingerprints []uint64) {
	for _, fp := range fingerprints {
		p.Register(fp)
	}
}
