// Package emu provides the architectural state of the simulated machine:
// the register file with its rename map, and the data memory image.
package emu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NumRegs is the number of registers in each bank.
const NumRegs = 32

// TagNone marks a register with no outstanding producer: the stored value
// is authoritative.
const TagNone = -1

// ErrInvalidRegister is returned for register names outside
// R0..R31 / F0..F31.
var ErrInvalidRegister = errors.New("invalid register")

// Bank identifies a register bank.
type Bank int

const (
	// BankInt is the integer bank R0..R31.
	BankInt Bank = iota
	// BankFP is the floating-point bank F0..F31.
	BankFP
)

// String returns the bank's register prefix.
func (b Bank) String() string {
	if b == BankFP {
		return "F"
	}
	return "R"
}

// RegRef names one register as a (bank, index) pair.
type RegRef struct {
	Bank  Bank
	Index int
}

// String returns the register name, e.g. "R4" or "F10".
func (r RegRef) String() string {
	return fmt.Sprintf("%s%d", r.Bank, r.Index)
}

// ParseRef parses a register name. The leading letter selects the bank.
func ParseRef(name string) (RegRef, error) {
	if len(name) < 2 {
		return RegRef{}, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}

	var bank Bank
	switch name[0] {
	case 'R', 'r':
		bank = BankInt
	case 'F', 'f':
		bank = BankFP
	default:
		return RegRef{}, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}

	idx, err := strconv.Atoi(name[1:])
	if err != nil || idx < 0 || idx >= NumRegs {
		return RegRef{}, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}

	return RegRef{Bank: bank, Index: idx}, nil
}

// RegFile holds the two architectural register banks and their producer
// tags (the rename map). A tag is either TagNone or the reorder-buffer
// entry ID that will write the register. Setting a tag is the act of
// renaming; the tag is cleared at commit when the committing entry still
// owns the register.
type RegFile struct {
	// Int holds the integer registers R0..R31.
	Int [NumRegs]int64

	// FP holds the floating-point registers F0..F31.
	FP [NumRegs]float64

	intTags [NumRegs]int
	fpTags  [NumRegs]int
}

// NewRegFile creates a register file with all values zero and no
// outstanding producers.
func NewRegFile() *RegFile {
	r := &RegFile{}
	r.ClearAllTags()
	return r
}

// Value reads the architectural value of a register. Integer-bank values
// are widened to float64 so that operands of both banks flow through the
// same datapath.
func (r *RegFile) Value(ref RegRef) float64 {
	if ref.Bank == BankFP {
		return r.FP[ref.Index]
	}
	return float64(r.Int[ref.Index])
}

// SetValue writes the architectural value of a register. Writes to the
// integer bank truncate toward zero.
func (r *RegFile) SetValue(ref RegRef, v float64) {
	if ref.Bank == BankFP {
		r.FP[ref.Index] = v
		return
	}
	r.Int[ref.Index] = int64(v)
}

// Tag returns the producer tag of a register, or TagNone.
func (r *RegFile) Tag(ref RegRef) int {
	if ref.Bank == BankFP {
		return r.fpTags[ref.Index]
	}
	return r.intTags[ref.Index]
}

// SetTag renames a register to the given reorder-buffer entry ID.
func (r *RegFile) SetTag(ref RegRef, tag int) {
	if ref.Bank == BankFP {
		r.fpTags[ref.Index] = tag
		return
	}
	r.intTags[ref.Index] = tag
}

// ClearTag removes the producer tag of a register.
func (r *RegFile) ClearTag(ref RegRef) {
	r.SetTag(ref, TagNone)
}

// ClearAllTags removes every producer tag. Used on pipeline flush.
func (r *RegFile) ClearAllTags() {
	for i := range r.intTags {
		r.intTags[i] = TagNone
		r.fpTags[i] = TagNone
	}
}

// Read returns the value of the register with the given name.
func (r *RegFile) Read(name string) (float64, error) {
	ref, err := ParseRef(name)
	if err != nil {
		return 0, err
	}
	return r.Value(ref), nil
}

// Write sets the value of the register with the given name.
func (r *RegFile) Write(name string, v float64) error {
	ref, err := ParseRef(name)
	if err != nil {
		return err
	}
	r.SetValue(ref, v)
	return nil
}

// Tags returns copies of the integer and floating-point tag arrays.
func (r *RegFile) Tags() (intTags, fpTags [NumRegs]int) {
	return r.intTags, r.fpTags
}

// Reset zeroes all values and clears all tags.
func (r *RegFile) Reset() {
	for i := 0; i < NumRegs; i++ {
		r.Int[i] = 0
		r.FP[i] = 0
	}
	r.ClearAllTags()
}

// Dump returns a compact textual summary of the non-zero registers.
func (r *RegFile) Dump() string {
	var b strings.Builder
	b.WriteString("Int:")
	for i, v := range r.Int {
		if v != 0 {
			fmt.Fprintf(&b, " R%d=%d", i, v)
		}
	}
	b.WriteString("\nFP: ")
	for i, v := range r.FP {
		if v != 0 {
			fmt.Fprintf(&b, " F%d=%.2f", i, v)
		}
	}
	return b.String()
}
