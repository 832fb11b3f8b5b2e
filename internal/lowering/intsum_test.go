package lowering

import (
	"testing"

	"github.com/hwmatch/hwmatch/internal/hwir"
)

func fourVariantSum() hwir.SumType {
	return hwir.NewSumType(
		hwir.SumVariant{Name: "unknown", Type: hwir.I1},
		hwir.SumVariant{Name: "located_at", Type: hwir.Int(4)},
		hwir.SumVariant{Name: "found", Type: hwir.Int(12)},
		hwir.SumVariant{Name: "never", Type: hwir.I1},
	)
}

func TestSumCreateLowersToTagLowPayloadHigh(t *testing.T) {
	st := fourVariantSum()
	data := hwir.Const(5, 4)
	created := hwir.SumCreate(st, "located_at", data)

	l := NewSumLowering()
	l.Lower(created)

	if created.Op != "comb.concat" {
		t.Fatalf("sum_create did not lower to comb.concat, got %q", created.Op)
	}
	// Payload first (MSB), tag last (LSB) per Concat's MSB-first convention.
	if created.Operands[len(created.Operands)-1].Op != "hw.constant" {
		t.Fatalf("tag operand is not a constant: %+v", created.Operands[len(created.Operands)-1])
	}
	if created.Result.Width() != st.Width() {
		t.Fatalf("lowered width = %d, want %d", created.Result.Width(), st.Width())
	}
}

func TestSumGetAsExtractsAtVariantWidthNotPlusOne(t *testing.T) {
	st := fourVariantSum()
	data := hwir.Const(0xABC, 12)
	created := hwir.SumCreate(st, "found", data)
	extracted := hwir.SumGetAs(created, st, "found")

	l := NewSumLowering()
	l.Lower(extracted)

	if extracted.Op != "comb.extract" {
		t.Fatalf("sum_get_as did not lower to comb.extract, got %q", extracted.Op)
	}
	lowBit := extracted.Attrs["lowBit"].(int)
	if lowBit != st.TagWidth() {
		t.Fatalf("get_as low bit = %d, want %d (the original's variant_width+1 bug must not reappear)", lowBit, st.TagWidth())
	}
	if extracted.Result.Width() != 12 {
		t.Fatalf("get_as width = %d, want 12", extracted.Result.Width())
	}
}

func TestSumIsComparesTagBits(t *testing.T) {
	st := fourVariantSum()
	data := hwir.Const(0, 1)
	created := hwir.SumCreate(st, "never", data)
	is := hwir.SumIs(created, st, "never")

	l := NewSumLowering()
	l.Lower(is)

	if is.Op != "comb.icmp" {
		t.Fatalf("sum_is did not lower to comb.icmp, got %q", is.Op)
	}
	if is.Result.Width() != 1 {
		t.Fatalf("sum_is result width = %d, want 1", is.Result.Width())
	}
}

// A single-variant sum elides its tag entirely: int_hw_sum.py's
// IntegerHwSumInfo allows variant_width == 0, and this repo preserves
// that case rather than forcing the minimum-1 floor hwir.SumType.TagWidth
// uses for its own width bookkeeping.
func TestSingleVariantSumElidesTag(t *testing.T) {
	st := hwir.NewSumType(hwir.SumVariant{Name: "only", Type: hwir.Int(8)})
	data := hwir.Const(42, 8)
	created := hwir.SumCreate(st, "only", data)

	l := NewSumLowering()
	l.Lower(created)

	if created.Op != data.Op || created.Result.Width() != 8 {
		t.Fatalf("single-variant sum_create should become its data operand verbatim, got op=%q width=%d", created.Op, created.Result.Width())
	}

	is := hwir.SumIs(created, st, "only")
	l.Lower(is)
	if is.Op != "hw.constant" {
		t.Fatalf("single-variant sum_is should lower to a constant true, got %q", is.Op)
	}
}

func TestFlattenSumTypeWidthMatchesTagPlusPayload(t *testing.T) {
	st := fourVariantSum()
	flat := flattenSumType(st)
	if flat.Width() != st.TagWidth()+st.PayloadWidth() {
		t.Fatalf("flattened width = %d, want %d", flat.Width(), st.TagWidth()+st.PayloadWidth())
	}
}
