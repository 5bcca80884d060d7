package oeis

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is an OEIS sequence number, e.g. 45 for A000045 (the Fibonacci numbers).
type ID uint32

// ANumber returns the canonical "A" form with six-digit zero padding.
func (id ID) ANumber() string {
	return fmt.Sprintf("A%06d", uint32(id))
}

func (id ID) String() string {
	return id.ANumber()
}

// Dir returns the repository sub-directory an id's program file lives in:
// floor(id/1000) zero-padded to three digits.
func (id ID) Dir() string {
	return fmt.Sprintf("%03d", uint32(id)/1000)
}

// FileName returns the program file name, e.g. "A000045.asm".
func (id ID) FileName() string {
	return id.ANumber() + ".asm"
}

// ParseID accepts "A000045", "a000045" or a bare "45".
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty oeis id")
	}
	if s[0] == 'A' || s[0] == 'a' {
		s = s[1:]
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid oeis id %q: %w", s, err)
	}
	return ID(n), nil
}
