package interp

import (
	"math/big"
	"testing"

	"github.com/oisee/seqmine/pkg/inst"
)

func apply(t *testing.T, op inst.Opcode, target, source int64) (*big.Int, error) {
	t.Helper()
	limits := DefaultLimits()
	return applyBinary(op, big.NewInt(target), big.NewInt(source), &limits)
}

func mustApply(t *testing.T, op inst.Opcode, target, source int64) int64 {
	t.Helper()
	v, err := apply(t, op, target, source)
	if err != nil {
		t.Fatalf("%s(%d,%d) failed: %v", op, target, source, err)
	}
	return v.Int64()
}

func TestBasicArithmetic(t *testing.T) {
	tests := []struct {
		op             inst.Opcode
		target, source int64
		want           int64
	}{
		{inst.Mov, 9, 3, 3},
		{inst.Add, 9, 3, 12},
		{inst.Sub, 9, 3, 6},
		{inst.Trn, 3, 9, 0},
		{inst.Trn, 9, 3, 6},
		{inst.Mul, -4, 3, -12},
		{inst.Div, 7, 2, 3},
		{inst.Div, -7, 2, -3}, // truncation toward zero
		{inst.Dif, 12, 4, 3},
		{inst.Dif, 12, 5, 12}, // source does not divide target
		{inst.Dif, 12, 0, 12}, // zero source leaves the target alone
		{inst.Mod, 7, 3, 1},
		{inst.Mod, -7, 3, -1}, // sign of the dividend
		{inst.Gcd, 12, 18, 6},
		{inst.Gcd, -12, 18, 6},
		{inst.Gcd, 0, 0, 0},
		{inst.Cmp, 5, 5, 1},
		{inst.Cmp, 5, 6, 0},
		{inst.Min, 5, 6, 5},
		{inst.Max, 5, 6, 6},
	}
	for _, tc := range tests {
		if got := mustApply(t, tc.op, tc.target, tc.source); got != tc.want {
			t.Errorf("%s(%d,%d): got %d want %d", tc.op, tc.target, tc.source, got, tc.want)
		}
	}
}

func TestDivisionByZeroKinds(t *testing.T) {
	if _, err := apply(t, inst.Div, 1, 0); !isKind(err, KindDivideByZero) {
		t.Errorf("div: got %v", err)
	}
	if _, err := apply(t, inst.Mod, 1, 0); !isKind(err, KindModuloByZero) {
		t.Errorf("mod: got %v", err)
	}
}

func TestPowerSemantics(t *testing.T) {
	tests := []struct {
		base, exponent, want int64
	}{
		{1, 0, 1}, {2, 0, 1}, {-1, 0, 1}, {-2, 0, 1},
		{2, 1, 2}, {-2, 1, -2},
		{2, 2, 4}, {-2, 2, 4}, {3, 2, 9},
		{0, 0, 1}, {0, 5, 0},
		// negative exponents truncate to zero, except |base| = 1
		{2, -1, 0}, {3, -2, 0}, {-2, -1, 0},
		{1, -1, 1}, {1, -2, 1},
		{-1, -4, 1}, {-1, -3, -1}, {-1, -2, 1}, {-1, -1, -1},
		{-1, 1, -1}, {-1, 2, 1}, {-1, 3, -1},
	}
	for _, tc := range tests {
		if got := mustApply(t, inst.Pow, tc.base, tc.exponent); got != tc.want {
			t.Errorf("pow(%d,%d): got %d want %d", tc.base, tc.exponent, got, tc.want)
		}
	}
}

func TestPowerFailures(t *testing.T) {
	if _, err := apply(t, inst.Pow, 0, -666); !isKind(err, KindPowerZeroDivision) {
		t.Errorf("0^-666: got %v", err)
	}
	limits := DefaultLimits()
	tooHigh := new(big.Int).Lsh(big.NewInt(1), 33)
	if _, err := semanticPower(big.NewInt(1234), tooHigh, &limits); !isKind(err, KindPowerExponentTooHigh) {
		t.Errorf("huge exponent: got %v", err)
	}
	if _, err := apply(t, inst.Pow, 2, 1_000_000); !isKind(err, KindPowerExceededLimit) {
		t.Errorf("result bits: got %v", err)
	}
}

func TestBinomialPascalsTriangle(t *testing.T) {
	rows := [][]int64{
		{1},
		{1, 1},
		{1, 2, 1},
		{1, 3, 3, 1},
		{1, 4, 6, 4, 1},
		{1, 5, 10, 10, 5, 1},
		{1, 6, 15, 20, 15, 6, 1},
	}
	for n, row := range rows {
		for k, want := range row {
			if got := mustApply(t, inst.Bin, int64(n), int64(k)); got != want {
				t.Errorf("bin(%d,%d): got %d want %d", n, k, got, want)
			}
		}
	}
}

func TestBinomialOutsideTriangle(t *testing.T) {
	tests := []struct{ n, k, want int64 }{
		{0, -1, 0}, {0, 1, 0},
		{1, -1, 0}, {1, 2, 0},
		{5, 6, 0}, {5, -2, 0},
	}
	for _, tc := range tests {
		if got := mustApply(t, inst.Bin, tc.n, tc.k); got != tc.want {
			t.Errorf("bin(%d,%d): got %d want %d", tc.n, tc.k, got, tc.want)
		}
	}
}

func TestBinomialNegativeN(t *testing.T) {
	tests := []struct{ n, k, want int64 }{
		// n = -1
		{-1, -4, -1}, {-1, -3, 1}, {-1, -2, -1}, {-1, -1, 1},
		{-1, 0, 1}, {-1, 1, -1}, {-1, 2, 1}, {-1, 3, -1},
		// n = -2
		{-2, -5, -4}, {-2, -4, 3}, {-2, -3, -2}, {-2, -2, 1}, {-2, -1, 0},
		{-2, 0, 1}, {-2, 1, -2}, {-2, 2, 3}, {-2, 3, -4},
		// n = -3
		{-3, -5, 6}, {-3, -4, -3}, {-3, -3, 1}, {-3, -2, 0}, {-3, -1, 0},
		{-3, 0, 1}, {-3, 1, -3}, {-3, 2, 6}, {-3, 3, -10},
	}
	for _, tc := range tests {
		if got := mustApply(t, inst.Bin, tc.n, tc.k); got != tc.want {
			t.Errorf("bin(%d,%d): got %d want %d", tc.n, tc.k, got, tc.want)
		}
	}
}

func TestBinomialDomainLimit(t *testing.T) {
	limits := Limits{BinomialN: 100}
	_, err := semanticBinomial(big.NewInt(101), big.NewInt(3), &limits)
	if !isKind(err, KindBinomialDomain) {
		t.Errorf("got %v", err)
	}
	// Negative n reflects into a large effective n.
	_, err = semanticBinomial(big.NewInt(-50), big.NewInt(60), &limits)
	if !isKind(err, KindBinomialDomain) {
		t.Errorf("reflected bound: got %v", err)
	}
}

func isKind(err error, want ErrorKind) bool {
	kind, ok := KindOf(err)
	return ok && kind == want
}
