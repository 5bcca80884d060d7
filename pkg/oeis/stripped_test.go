package oeis

import (
	"math/big"
	"strings"
	"testing"
)

const strippedMockData = `# OEIS Sequence Data (http://oeis.org/stripped.gz)
# Last Modified: January 32 01:01 UTC 1984
A000040 ,2,3,5,7,11,13,17,19,23,29,31,37,41,43,47,53,59,61,67,
A000045 ,0,1,1,2,3,5,8,13,21,34,55,89,144,233,377,610,987,1597,
`

func TestParseRow(t *testing.T) {
	row, ok := ParseRow("A000045 ,0,1,1,2,3,5,", 0)
	if !ok {
		t.Fatal("expected a parseable row")
	}
	if row.ID != ID(45) {
		t.Errorf("id: got %s", row.ID)
	}
	if row.TermsString() != "0,1,1,2,3,5" {
		t.Errorf("terms: got %s", row.TermsString())
	}
}

func TestParseRowMaxTerms(t *testing.T) {
	row, ok := ParseRow("A000040 ,2,3,5,7,11,13,", 3)
	if !ok {
		t.Fatal("expected a parseable row")
	}
	if row.TermsString() != "2,3,5" {
		t.Errorf("terms: got %s", row.TermsString())
	}
}

func TestParseRowRejectsJunk(t *testing.T) {
	junk := []string{
		"# comment line",
		"",
		"B000045 ,1,2,",
		"A000045 ,1,x,2,",
	}
	for _, line := range junk {
		if _, ok := ParseRow(line, 0); ok {
			t.Errorf("line %q should not parse", line)
		}
	}
}

func TestParseRowNegativeAndHugeTerms(t *testing.T) {
	row, ok := ParseRow("A000001 ,-5,123456789012345678901234567890,", 0)
	if !ok {
		t.Fatal("expected a parseable row")
	}
	if row.Terms[0].Int64() != -5 {
		t.Errorf("first term: got %s", row.Terms[0])
	}
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	if row.Terms[1].Cmp(huge) != 0 {
		t.Errorf("second term: got %s", row.Terms[1])
	}
}

func TestForEachRow(t *testing.T) {
	var ids []ID
	err := ForEachRow(strings.NewReader(strippedMockData), 5, func(row *Row) {
		ids = append(ids, row.ID)
		if len(row.Terms) != 5 {
			t.Errorf("%s: got %d terms", row.ID, len(row.Terms))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != ID(40) || ids[1] != ID(45) {
		t.Errorf("ids: got %v", ids)
	}
}

func TestGrowTo(t *testing.T) {
	row, _ := ParseRow("A000045 ,0,1,1,", 0)
	row.GrowTo(6, big.NewInt(0))
	if row.TermsString() != "0,1,1,0,0,0" {
		t.Errorf("got %s", row.TermsString())
	}
	row.GrowTo(2, big.NewInt(9))
	if len(row.Terms) != 6 {
		t.Errorf("GrowTo must never shrink, got %d terms", len(row.Terms))
	}
}

func TestReadNames(t *testing.T) {
	data := `A000040 The prime numbers.
A000045 Fibonacci numbers: F(n) = F(n-1) + F(n-2) with F(0) = 0 and F(1) = 1.
# comment
`
	names, err := ReadNames(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if names[ID(40)] != "The prime numbers." {
		t.Errorf("got %q", names[ID(40)])
	}
	if !strings.HasPrefix(names[ID(45)], "Fibonacci numbers") {
		t.Errorf("got %q", names[ID(45)])
	}
}

func TestIDFormatting(t *testing.T) {
	tests := []struct {
		id   ID
		a    string
		dir  string
		file string
	}{
		{45, "A000045", "000", "A000045.asm"},
		{123456, "A123456", "123", "A123456.asm"},
	}
	for _, tc := range tests {
		if got := tc.id.ANumber(); got != tc.a {
			t.Errorf("ANumber: got %s want %s", got, tc.a)
		}
		if got := tc.id.Dir(); got != tc.dir {
			t.Errorf("Dir: got %s want %s", got, tc.dir)
		}
		if got := tc.id.FileName(); got != tc.file {
			t.Errorf("FileName: got %s want %s", got, tc.file)
		}
	}
}

func TestParseID(t *testing.T) {
	for _, s := range []string{"A000045", "a000045", "45", " A000045 "} {
		id, err := ParseID(s)
		if err != nil || id != ID(45) {
			t.Errorf("%q: got %v, %v", s, id, err)
		}
	}
	for _, s := range []string{"", "Axyz", "A-1", "4.5"} {
		if _, err := ParseID(s); err == nil {
			t.Errorf("%q should not parse", s)
		}
	}
}
