package inst

import (
	"math/big"
	"strings"
)

// Operand is either a literal constant or a register reference.
// Indirection counts the `$` prefixes of the source token: 0 is a
// constant, 1 a direct register, 2 or more an indirect register where
// each extra level is dereferenced at access time.
type Operand struct {
	Indirection int
	Value       *big.Int
}

// NewConstant builds a literal operand.
func NewConstant(v int64) Operand {
	return Operand{Indirection: 0, Value: big.NewInt(v)}
}

// NewDirect builds a direct register operand.
func NewDirect(index int64) Operand {
	return Operand{Indirection: 1, Value: big.NewInt(index)}
}

// NewIndirect builds a register operand with the given indirection level.
func NewIndirect(index int64, level int) Operand {
	return Operand{Indirection: level, Value: big.NewInt(index)}
}

// IsConstant reports whether the operand is a literal.
func (o Operand) IsConstant() bool {
	return o.Indirection == 0
}

// IsRegister reports whether the operand names a register.
func (o Operand) IsRegister() bool {
	return o.Indirection >= 1
}

// Index returns the syntactic register index. Only meaningful for
// register operands; the parser guarantees it is non-negative and fits
// an int.
func (o Operand) Index() int {
	return int(o.Value.Int64())
}

func (o Operand) String() string {
	return strings.Repeat("$", o.Indirection) + o.Value.String()
}

// Equal compares two operands structurally.
func (o Operand) Equal(p Operand) bool {
	return o.Indirection == p.Indirection && o.Value.Cmp(p.Value) == 0
}
