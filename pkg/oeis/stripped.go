package oeis

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// Row is one line of the OEIS "stripped" file: a sequence id and its
// known terms. Half of the sequences in the file are shorter than ~38
// terms, so callers that need a fixed length must pad.
type Row struct {
	ID    ID
	Terms []*big.Int
}

// GrowTo pads the term list with copies of pad until it has length n.
// Rows already at least n terms long are left unchanged.
func (r *Row) GrowTo(n int, pad *big.Int) {
	for len(r.Terms) < n {
		r.Terms = append(r.Terms, new(big.Int).Set(pad))
	}
}

// TermsString joins the terms with commas, e.g. "0,1,1,2,3,5".
func (r *Row) TermsString() string {
	parts := make([]string, len(r.Terms))
	for i, t := range r.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// ParseRow parses a stripped-file data line of the shape
// "A000045 ,0,1,1,2,3,5,". Comment lines and malformed lines return
// (nil, false). At most maxTerms terms are read; maxTerms <= 0 reads all.
func ParseRow(line string, maxTerms int) (*Row, bool) {
	if !strings.HasPrefix(line, "A") {
		return nil, false
	}
	fields := strings.Split(line, ",")
	idField := strings.TrimSpace(fields[0])
	id, err := ParseID(idField)
	if err != nil {
		return nil, false
	}
	row := &Row{ID: id}
	for _, field := range fields[1:] {
		field = strings.TrimSpace(field)
		if field == "" {
			// trailing comma, or end of terms
			break
		}
		term, ok := new(big.Int).SetString(field, 10)
		if !ok {
			return nil, false
		}
		row.Terms = append(row.Terms, term)
		if maxTerms > 0 && len(row.Terms) >= maxTerms {
			break
		}
	}
	return row, true
}

// ForEachRow streams rows from a stripped file, skipping comments and junk.
func ForEachRow(r io.Reader, maxTerms int, fn func(*Row)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if row, ok := ParseRow(line, maxTerms); ok {
			fn(row)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stripped file: %w", err)
	}
	return nil
}

// ReadNames parses the OEIS "names" file into an id -> description map.
// Each data line is an identifier followed by free text.
func ReadNames(r io.Reader) (map[ID]string, error) {
	names := make(map[ID]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "A") {
			continue
		}
		idField, rest, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		id, err := ParseID(idField)
		if err != nil {
			continue
		}
		names[id] = strings.TrimSpace(rest)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading names file: %w", err)
	}
	return names, nil
}
