package interp

import (
	"math/big"

	"github.com/oisee/seqmine/pkg/inst"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// applyBinary computes the pure arithmetic opcodes:
// result = f(target, source). Loop structure, clr and seq never reach
// here.
func applyBinary(op inst.Opcode, target, source *big.Int, limits *Limits) (*big.Int, error) {
	switch op {
	case inst.Mov:
		return new(big.Int).Set(source), nil
	case inst.Add:
		return new(big.Int).Add(target, source), nil
	case inst.Sub:
		return new(big.Int).Sub(target, source), nil
	case inst.Trn:
		diff := new(big.Int).Sub(target, source)
		if diff.Sign() < 0 {
			diff.SetInt64(0)
		}
		return diff, nil
	case inst.Mul:
		return new(big.Int).Mul(target, source), nil
	case inst.Div:
		if source.Sign() == 0 {
			return nil, evalErrorf(KindDivideByZero, "div by zero")
		}
		return new(big.Int).Quo(target, source), nil
	case inst.Dif:
		if source.Sign() == 0 {
			return new(big.Int).Set(target), nil
		}
		quo, rem := new(big.Int).QuoRem(target, source, new(big.Int))
		if rem.Sign() != 0 {
			return new(big.Int).Set(target), nil
		}
		return quo, nil
	case inst.Mod:
		if source.Sign() == 0 {
			return nil, evalErrorf(KindModuloByZero, "mod by zero")
		}
		return new(big.Int).Rem(target, source), nil
	case inst.Pow:
		return semanticPower(target, source, limits)
	case inst.Gcd:
		a := new(big.Int).Abs(target)
		b := new(big.Int).Abs(source)
		if a.Sign() == 0 && b.Sign() == 0 {
			return new(big.Int), nil
		}
		return new(big.Int).GCD(nil, nil, a, b), nil
	case inst.Bin:
		return semanticBinomial(target, source, limits)
	case inst.Cmp:
		if target.Cmp(source) == 0 {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	case inst.Min:
		if target.Cmp(source) <= 0 {
			return new(big.Int).Set(target), nil
		}
		return new(big.Int).Set(source), nil
	case inst.Max:
		if target.Cmp(source) >= 0 {
			return new(big.Int).Set(target), nil
		}
		return new(big.Int).Set(source), nil
	}
	panic("applyBinary: opcode " + op.String() + " is not a binary operation")
}

// semanticPower computes base^exponent with the integer-truncation
// rules for degenerate bases and negative exponents.
func semanticPower(base, exponent *big.Int, limits *Limits) (*big.Int, error) {
	if base.Sign() == 0 {
		switch {
		case exponent.Sign() > 0:
			return new(big.Int), nil
		case exponent.Sign() == 0:
			return big.NewInt(1), nil
		default:
			return nil, evalErrorf(KindPowerZeroDivision, "0 raised to a negative exponent")
		}
	}
	if base.CmpAbs(bigOne) == 0 {
		// 1^x is 1; (-1)^x alternates with the exponent's parity.
		if base.Sign() > 0 || exponent.Bit(0) == 0 {
			return big.NewInt(1), nil
		}
		return big.NewInt(-1), nil
	}
	if exponent.Sign() < 0 {
		// |base| > 1, so the exact result lies strictly between -1
		// and 1 and truncates to zero.
		return new(big.Int), nil
	}
	if !exponent.IsUint64() || exponent.Uint64() > 0xFFFFFFFF {
		return nil, evalErrorf(KindPowerExponentTooHigh, "exponent %s exceeds 32 bits", exponent)
	}
	exp := exponent.Uint64()
	if limits.PowerBits > 0 && exp*uint64(base.BitLen()) > uint64(limits.PowerBits) {
		return nil, evalErrorf(KindPowerExceededLimit, "estimated result of %d^%d exceeds %d bits",
			base, exp, limits.PowerBits)
	}
	return new(big.Int).Exp(base, exponent, nil), nil
}

// semanticBinomial computes binomial(n, k), extended to negative n via
// the reflection identities C(-n,k) = (-1)^k C(n+k-1,k) and
// C(n,k) = (-1)^(n-k) C(-k-1,n-k) for k <= n < 0.
func semanticBinomial(n, k *big.Int, limits *Limits) (*big.Int, error) {
	sign := 1
	var effN, effK *big.Int
	switch {
	case n.Sign() >= 0:
		if k.Sign() < 0 || k.Cmp(n) > 0 {
			return new(big.Int), nil
		}
		effN = new(big.Int).Set(n)
		effK = new(big.Int).Set(k)
	case k.Sign() >= 0:
		if k.Bit(0) == 1 {
			sign = -1
		}
		effN = new(big.Int).Neg(n)
		effN.Add(effN, k)
		effN.Sub(effN, bigOne)
		effK = new(big.Int).Set(k)
	case k.Cmp(n) <= 0:
		nMinusK := new(big.Int).Sub(n, k)
		if nMinusK.Bit(0) == 1 {
			sign = -1
		}
		effN = new(big.Int).Neg(k)
		effN.Sub(effN, bigOne)
		effK = nMinusK
	default:
		return new(big.Int), nil
	}
	if effK.Sign() < 0 || effK.Cmp(effN) > 0 {
		return new(big.Int), nil
	}
	if limits.BinomialN > 0 && effN.Cmp(big.NewInt(limits.BinomialN)) > 0 {
		return nil, evalErrorf(KindBinomialDomain, "binomial n=%s exceeds limit %d", effN, limits.BinomialN)
	}
	// Walk the shorter side of the row.
	half := new(big.Int).Lsh(effK, 1)
	if half.Cmp(effN) > 0 {
		effK.Sub(effN, effK)
	}
	value := big.NewInt(1)
	i := new(big.Int)
	for i.Cmp(effK) < 0 {
		value.Mul(value, new(big.Int).Sub(effN, i))
		i.Add(i, bigOne)
		value.Quo(value, i)
	}
	if sign < 0 {
		value.Neg(value)
	}
	return value, nil
}
