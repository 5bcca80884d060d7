package mine

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oisee/seqmine/pkg/inst"
)

func TestEventDirSinkWritesCandidateFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewEventDirSink(dir, &Annotator{SubmittedBy: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	candidate := &Candidate{
		Program:   inst.MustParse("mov $1,$0\nadd $1,1"),
		Terms:     []*big.Int{big.NewInt(1), big.NewInt(2)},
		Wildcards: 0,
	}
	if err := sink.Emit(candidate); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("files: got %d want 1", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasSuffix(name, ".asm") || strings.HasSuffix(name, ".tmp") {
		t.Errorf("file name: %q", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "; Submitted by tester") {
		t.Errorf("missing header in:\n%s", content)
	}
	if _, err := inst.ParseProgram(content); err != nil {
		t.Errorf("candidate file must reparse: %v", err)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.gob")
	saved := &Checkpoint{
		Fingerprints: []uint64{1, 2, 3},
		Iterations:   100,
		Candidates:   2,
	}
	if err := SaveCheckpoint(path, saved); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Iterations != 100 || loaded.Candidates != 2 || len(loaded.Fingerprints) != 3 {
		t.Errorf("got %+v", loaded)
	}
}
