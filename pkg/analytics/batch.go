package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/golang/glog"
	"github.com/oisee/seqmine/pkg/inst"
	"github.com/oisee/seqmine/pkg/interp"
	"github.com/oisee/seqmine/pkg/oeis"
	"github.com/oisee/seqmine/pkg/store"
)

// File names written into the analytics directory.
const (
	FileInstructionTrigram = "histogram_instruction_trigram.csv"
	FileSourceTrigram      = "histogram_source_trigram.csv"
	FileTargetTrigram      = "histogram_target_trigram.csv"
	FileInstructionConst   = "histogram_instruction_constant.csv"
	FileProgramsValid      = "programs_valid.csv"
	FileProgramsInvalid    = "programs_invalid.csv"
)

// Analyzer accumulates corpus statistics program by program.
type Analyzer struct {
	instructionTrigrams map[[3]string]uint64
	sourceTrigrams      map[[3]string]uint64
	targetTrigrams      map[[3]string]uint64
	constants           map[[2]string]uint64
	valid               []oeis.ID
	invalid             []oeis.ID

	// ValidationTerms is how many terms a program must produce to be
	// listed valid; 0 skips validation and lists every parseable
	// program.
	ValidationTerms int
	limits          interp.Limits
}

// NewAnalyzer creates an analyzer with mining limits for validation.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		instructionTrigrams: make(map[[3]string]uint64),
		sourceTrigrams:      make(map[[3]string]uint64),
		targetTrigrams:      make(map[[3]string]uint64),
		constants:           make(map[[2]string]uint64),
		ValidationTerms:     10,
		limits:              interp.MiningLimits(),
	}
}

// AnalyzeStore walks every program the dependency manager can resolve.
func (a *Analyzer) AnalyzeStore(fileStore *store.FileStore) error {
	ids, err := fileStore.ProgramIDs()
	if err != nil {
		return err
	}
	manager := store.NewDependencyManager(fileStore)
	cache := interp.NewCache(interp.DefaultCacheCapacity)
	for _, id := range ids {
		runner, err := manager.Resolve(id)
		if err != nil {
			glog.V(1).Infof("analytics: %s does not resolve: %v", id.ANumber(), err)
			a.invalid = append(a.invalid, id)
			continue
		}
		a.AnalyzeProgram(id, runner.Program())
		if a.ValidationTerms > 0 {
			if _, err := runner.Terms(a.ValidationTerms, &a.limits, cache); err != nil {
				a.invalid = append(a.invalid, id)
				continue
			}
		}
		a.valid = append(a.valid, id)
	}
	glog.Infof("analytics: %d valid, %d invalid programs", len(a.valid), len(a.invalid))
	return nil
}

// AnalyzeProgram folds one program into the histograms.
func (a *Analyzer) AnalyzeProgram(id oeis.ID, prog *inst.Program) {
	instructions := prog.Instructions()
	instrWords := make([]string, 0, len(instructions)+2)
	sourceWords := make([]string, 0, len(instructions)+2)
	targetWords := make([]string, 0, len(instructions)+2)
	instrWords = append(instrWords, TokenStart)
	sourceWords = append(sourceWords, TokenStart)
	targetWords = append(targetWords, TokenStart)
	for _, ins := range instructions {
		instrWords = append(instrWords, ins.Op.String())
		targetWords = append(targetWords, targetWord(ins))
		sourceWords = append(sourceWords, sourceWord(ins))
		if ins.HasSource() && ins.Source().IsConstant() && ins.Source().Value.IsInt64() {
			key := [2]string{ins.Op.String(), ins.Source().Value.String()}
			a.constants[key]++
		}
	}
	instrWords = append(instrWords, TokenStop)
	sourceWords = append(sourceWords, TokenStop)
	targetWords = append(targetWords, TokenStop)
	foldTrigrams(a.instructionTrigrams, instrWords)
	foldTrigrams(a.sourceTrigrams, sourceWords)
	foldTrigrams(a.targetTrigrams, targetWords)
}

// targetWord is the target-stream symbol of one instruction.
func targetWord(ins inst.Instruction) string {
	if len(ins.Operands) == 0 {
		return TokenNone
	}
	return ins.Target().String()
}

// sourceWord is the source-stream symbol: registers keep their
// spelling, constants collapse to CONST (their values live in the
// constant histogram instead).
func sourceWord(ins inst.Instruction) string {
	if !ins.HasSource() {
		return TokenNone
	}
	if ins.Source().IsConstant() {
		return TokenConst
	}
	return ins.Source().String()
}

func foldTrigrams(histogram map[[3]string]uint64, words []string) {
	for i := 0; i+2 < len(words); i++ {
		histogram[[3]string{words[i], words[i+1], words[i+2]}]++
	}
}

// WriteCSVFiles writes every histogram and id list into dir.
func (a *Analyzer) WriteCSVFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	writes := []struct {
		file    string
		trigram map[[3]string]uint64
	}{
		{FileInstructionTrigram, a.instructionTrigrams},
		{FileSourceTrigram, a.sourceTrigrams},
		{FileTargetTrigram, a.targetTrigrams},
	}
	for _, w := range writes {
		if err := WriteTrigramCSV(filepath.Join(dir, w.file), trigramRecords(w.trigram)); err != nil {
			return fmt.Errorf("writing %s: %w", w.file, err)
		}
	}
	if err := WriteConstantCSV(filepath.Join(dir, FileInstructionConst), a.constantRecords()); err != nil {
		return fmt.Errorf("writing %s: %w", FileInstructionConst, err)
	}
	if err := WriteProgramIDsCSV(filepath.Join(dir, FileProgramsValid), a.valid); err != nil {
		return fmt.Errorf("writing %s: %w", FileProgramsValid, err)
	}
	if err := WriteProgramIDsCSV(filepath.Join(dir, FileProgramsInvalid), a.invalid); err != nil {
		return fmt.Errorf("writing %s: %w", FileProgramsInvalid, err)
	}
	return nil
}

func trigramRecords(histogram map[[3]string]uint64) []RecordTrigram {
	records := make([]RecordTrigram, 0, len(histogram))
	for words, count := range histogram {
		records = append(records, RecordTrigram{Count: count, Word0: words[0], Word1: words[1], Word2: words[2]})
	}
	sortTrigrams(records)
	return records
}

func (a *Analyzer) constantRecords() []RecordConstant {
	records := make([]RecordConstant, 0, len(a.constants))
	for key, count := range a.constants {
		constant, err := strconv.ParseInt(key[1], 10, 64)
		if err != nil {
			continue
		}
		records = append(records, RecordConstant{Count: count, Instruction: key[0], Constant: constant})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Instruction != b.Instruction {
			return a.Instruction < b.Instruction
		}
		return a.Constant < b.Constant
	})
	return records
}

// Valid returns the ids of programs that parsed, linked and produced
// their validation terms.
func (a *Analyzer) Valid() []oeis.ID {
	return a.valid
}

// Invalid returns the ids of defunct programs.
func (a *Analyzer) Invalid() []oeis.ID {
	return a.invalid
}
