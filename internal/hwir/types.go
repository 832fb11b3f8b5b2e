// Package hwir is the hardware-side IR stage C builds into and stage D
// lowers: combinational expressions (comb), registers (seq), tagged
// unions (hw_sum), the static opcode view of a subject-IR operation
// (hw_op), and the module/FSM shell around all of it (hw, fsm).
//
// Grounded on dialects/hw.py, dialects/hw_sum.py, dialects/hw_op.py,
// dialects/comb.py, dialects/seq.py, dialects/fsm.py. Those files define
// a full MLIR operation-definition-language dialect registered in an
// xDSL MLContext; this package keeps their vocabulary and width-checking
// discipline but drops the IRDLOperation/Dialect registration machinery,
// which has no Go equivalent and no job to do once nothing needs to
// parse or print a generic MLIR-style textual IR.
package hwir

import "fmt"

// Type is any hardware-side value type: a plain bit vector or a tagged
// union over bit-vector variants.
type Type interface {
	Width() int
	String() string
}

// IntType is a plain unsigned bit vector of the given width.
type IntType struct {
	Bits int
}

func Int(bits int) IntType { return IntType{Bits: bits} }

func (t IntType) Width() int    { return t.Bits }
func (t IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

// I1 is the one-bit type used throughout for conditions and flags.
var I1 = Int(1)

// SumVariant is one named, bit-typed alternative of a SumType.
type SumVariant struct {
	Name string
	Type IntType
}

// SumType is a tagged union over a fixed, ordered list of integer-typed
// variants, grounded on hw_sum.py's HwSumType. Ordering matters: the
// variant's position in Variants is its tag value once stage D lowers
// the union to a flat integer (spec §4.5.1).
type SumType struct {
	Variants []SumVariant
}

// NewSumType builds a SumType preserving the given variant order.
func NewSumType(variants ...SumVariant) SumType {
	return SumType{Variants: variants}
}

// VariantIndex returns the tag value assigned to a variant name.
func (t SumType) VariantIndex(name string) (int, bool) {
	for i, v := range t.Variants {
		if v.Name == name {
			return i, true
		}
	}
	return 0, false
}

// TagWidth returns the number of tag bits needed to distinguish all
// variants: ceil(log2(len(Variants))), minimum 1.
func (t SumType) TagWidth() int {
	n := len(t.Variants)
	width := 0
	for (1 << width) < n {
		width++
	}
	if width == 0 {
		width = 1
	}
	return width
}

// PayloadWidth is the widest variant payload; every variant is padded to
// this width once the union is lowered to a flat integer.
func (t SumType) PayloadWidth() int {
	max := 0
	for _, v := range t.Variants {
		if v.Type.Bits > max {
			max = v.Type.Bits
		}
	}
	return max
}

func (t SumType) Width() int {
	return t.TagWidth() + t.PayloadWidth()
}

func (t SumType) String() string {
	return fmt.Sprintf("sum_type(%d variants)", len(t.Variants))
}
