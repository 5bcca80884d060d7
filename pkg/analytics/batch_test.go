package analytics

import (
	"path/filepath"
	"testing"

	"github.com/oisee/seqmine/pkg/inst"
	"github.com/oisee/seqmine/pkg/oeis"
)

func TestAnalyzeProgramTrigrams(t *testing.T) {
	analyzer := NewAnalyzer()
	prog := inst.MustParse("mov $1,$0\nadd $1,2")
	analyzer.AnalyzeProgram(oeis.ID(1), prog)

	records := trigramRecords(analyzer.instructionTrigrams)
	wants := map[[3]string]bool{
		{TokenStart, "mov", "add"}: false,
		{"mov", "add", TokenStop}:  false,
	}
	for _, r := range records {
		key := [3]string{r.Word0, r.Word1, r.Word2}
		if _, ok := wants[key]; ok {
			wants[key] = true
			if r.Count != 1 {
				t.Errorf("%v count: got %d", key, r.Count)
			}
		}
	}
	for key, seen := range wants {
		if !seen {
			t.Errorf("missing trigram %v", key)
		}
	}
}

func TestAnalyzeProgramOperandStreams(t *testing.T) {
	analyzer := NewAnalyzer()
	analyzer.AnalyzeProgram(oeis.ID(1), inst.MustParse("mov $1,$0\nadd $1,2"))

	// Source stream: START, $0, CONST, STOP
	if analyzer.sourceTrigrams[[3]string{TokenStart, "$0", TokenConst}] != 1 {
		t.Errorf("source trigrams: %v", analyzer.sourceTrigrams)
	}
	// Target stream: START, $1, $1, STOP
	if analyzer.targetTrigrams[[3]string{TokenStart, "$1", "$1"}] != 1 {
		t.Errorf("target trigrams: %v", analyzer.targetTrigrams)
	}
	// Constant histogram: add saw the constant 2.
	if analyzer.constants[[2]string{"add", "2"}] != 1 {
		t.Errorf("constants: %v", analyzer.constants)
	}
}

func TestCSVRoundTrips(t *testing.T) {
	dir := t.TempDir()

	trigrams := []RecordTrigram{
		{Count: 10, Word0: "mov", Word1: "add", Word2: "STOP"},
		{Count: 3, Word0: "START", Word1: "mov", Word2: "add"},
	}
	path := filepath.Join(dir, "trigram.csv")
	if err := WriteTrigramCSV(path, trigrams); err != nil {
		t.Fatal(err)
	}
	back, err := ReadTrigramCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[0] != trigrams[0] || back[1] != trigrams[1] {
		t.Errorf("got %+v", back)
	}

	constants := []RecordConstant{{Count: 7, Instruction: "mov", Constant: -3}}
	path = filepath.Join(dir, "constants.csv")
	if err := WriteConstantCSV(path, constants); err != nil {
		t.Fatal(err)
	}
	constantsBack, err := ReadConstantCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(constantsBack) != 1 || constantsBack[0] != constants[0] {
		t.Errorf("got %+v", constantsBack)
	}

	ids := []oeis.ID{45, 79}
	path = filepath.Join(dir, "ids.csv")
	if err := WriteProgramIDsCSV(path, ids); err != nil {
		t.Fatal(err)
	}
	idsBack, err := ReadProgramIDsCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(idsBack) != 2 || idsBack[0] != ids[0] || idsBack[1] != ids[1] {
		t.Errorf("got %v", idsBack)
	}
}

func TestWriteCSVFiles(t *testing.T) {
	analyzer := NewAnalyzer()
	analyzer.AnalyzeProgram(oeis.ID(45), inst.MustParse("mov $1,$0"))
	analyzer.valid = append(analyzer.valid, oeis.ID(45))

	dir := filepath.Join(t.TempDir(), "analytics")
	if err := analyzer.WriteCSVFiles(dir); err != nil {
		t.Fatal(err)
	}
	for _, file := range []string{
		FileInstructionTrigram, FileSourceTrigram, FileTargetTrigram,
		FileInstructionConst, FileProgramsValid, FileProgramsInvalid,
	} {
		if _, err := ReadTrigramCSV(filepath.Join(dir, file)); err != nil && file == FileInstructionTrigram {
			t.Errorf("%s unreadable: %v", file, err)
		}
	}
	valid, err := ReadProgramIDsCSV(filepath.Join(dir, FileProgramsValid))
	if err != nil {
		t.Fatal(err)
	}
	if len(valid) != 1 || valid[0] != oeis.ID(45) {
		t.Errorf("valid ids: got %v", valid)
	}
}
