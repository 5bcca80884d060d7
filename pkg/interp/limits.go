package interp

// Limits bounds a single program evaluation. Every field is
// configurable; mining uses tighter values than interactive evaluation
// so that one pathological candidate cannot stall a worker.
type Limits struct {
	// StepCount caps executed instructions per top-level run,
	// including the steps of nested seq calls.
	StepCount uint64
	// RegisterBits caps the bit length of the absolute value written
	// to any register.
	RegisterBits int
	// LoopIterations caps successful iterations of a single loop.
	LoopIterations int
	// PowerBits caps the estimated bit length of a pow result.
	PowerBits int
	// BinomialN caps |n| in bin(n, k).
	BinomialN int64
}

// DefaultLimits suits interactive evaluation of repository programs.
func DefaultLimits() Limits {
	return Limits{
		StepCount:      100_000_000,
		RegisterBits:   4096,
		LoopIterations: 10_000_000,
		PowerBits:      1 << 17,
		BinomialN:      1000,
	}
}

// MiningLimits are deliberately small; candidates that need more
// resources than this are not worth keeping.
func MiningLimits() Limits {
	return Limits{
		StepCount:      1_000_000,
		RegisterBits:   1024,
		LoopIterations: 100_000,
		PowerBits:      1 << 14,
		BinomialN:      1000,
	}
}
