// Package analytics derives the statistics that steer mutation: n-gram
// histograms over the program corpus and lists of valid/invalid
// program ids. Everything is exchanged as CSV files in the cache
// directory.
package analytics

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/oisee/seqmine/pkg/oeis"
)

// Boundary and operand-kind tokens used in the n-gram streams.
const (
	TokenStart = "START"
	TokenStop  = "STOP"
	TokenNone  = "NONE"
	TokenConst = "CONST"
)

// RecordTrigram is one histogram row: how often Word1 appeared between
// Word0 and Word2 in a stream.
type RecordTrigram struct {
	Count uint64
	Word0 string
	Word1 string
	Word2 string
}

// RecordConstant is one row of the per-instruction constant histogram.
type RecordConstant struct {
	Count       uint64
	Instruction string
	Constant    int64
}

// WriteTrigramCSV writes rows as `count;word0;word1;word2`.
func WriteTrigramCSV(path string, records []RecordTrigram) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"count", "word0", "word1", "word2"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{strconv.FormatUint(r.Count, 10), r.Word0, r.Word1, r.Word2}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadTrigramCSV parses a file written by WriteTrigramCSV.
func ReadTrigramCSV(path string) ([]RecordTrigram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = 4
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []RecordTrigram
	for i, row := range rows {
		if i == 0 && row[0] == "count" {
			continue
		}
		count, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		records = append(records, RecordTrigram{Count: count, Word0: row[1], Word1: row[2], Word2: row[3]})
	}
	return records, nil
}

// WriteConstantCSV writes rows as `count;instruction;constant`.
func WriteConstantCSV(path string, records []RecordConstant) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"count", "instruction", "constant"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{strconv.FormatUint(r.Count, 10), r.Instruction, strconv.FormatInt(r.Constant, 10)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadConstantCSV parses a file written by WriteConstantCSV.
func ReadConstantCSV(path string) ([]RecordConstant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = 3
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []RecordConstant
	for i, row := range rows {
		if i == 0 && row[0] == "count" {
			continue
		}
		count, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		constant, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		records = append(records, RecordConstant{Count: count, Instruction: row[1], Constant: constant})
	}
	return records, nil
}

// WriteProgramIDsCSV writes a single-column id list.
func WriteProgramIDsCSV(path string, ids []oeis.ID) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"program id"}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.Write([]string{strconv.FormatUint(uint64(id), 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadProgramIDsCSV parses a file written by WriteProgramIDsCSV.
func ReadProgramIDsCSV(path string) ([]oeis.ID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = 1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var ids []oeis.ID
	for i, row := range rows {
		if i == 0 && row[0] == "program id" {
			continue
		}
		n, err := strconv.ParseUint(row[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		ids = append(ids, oeis.ID(n))
	}
	return ids, nil
}

// sortTrigrams orders records deterministically: count descending,
// then words.
func sortTrigrams(records []RecordTrigram) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Word0 != b.Word0 {
			return a.Word0 < b.Word0
		}
		if a.Word1 != b.Word1 {
			return a.Word1 < b.Word1
		}
		return a.Word2 < b.Word2
	})
}
