package lowering

import (
	"errors"
	"testing"

	"github.com/hwmatch/hwmatch/internal/encoder"
	herrors "github.com/hwmatch/hwmatch/internal/errors"
	"github.com/hwmatch/hwmatch/internal/hwir"
)

func demoEncodingAndCatalog() (encoder.EncodingContext, encoder.OperationContext) {
	enc := encoder.EncodingContext{OpcodeWidth: 4, OperandOffsetWidth: 4, MaxOperandAmount: 2}
	resultType := encoder.TypeTag("i32")
	opCtx := encoder.OperationContext{Operations: map[string]encoder.OperationInfo{
		"foo.add": {Opcode: 1, OperandTypes: []encoder.TypeTag{"i32", "i32"}, ResultType: &resultType},
		"foo.neg": {Opcode: 2, OperandTypes: []encoder.TypeTag{"i32"}},
		"foo.nop": {Opcode: 3},
	}}
	return enc, opCtx
}

func TestGetOpcodeLowersToLowBitsExtract(t *testing.T) {
	enc, opCtx := demoEncodingAndCatalog()
	opType := hwir.OperationTypeFromEncodingContext(enc)
	opValue := hwir.Arg("op", hwir.Int(opType.Width()))
	n := hwir.GetOpcode(opValue, opType)

	l := NewOperationLowering(enc, opCtx)
	if err := l.Lower(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Op != "comb.extract" || n.Attrs["lowBit"].(int) != 0 || n.Result.Width() != enc.OpcodeWidth {
		t.Fatalf("get_opcode lowered incorrectly: %+v", n)
	}
}

func TestHasOperandBuildsMembershipOverMatchingOpcodes(t *testing.T) {
	enc, opCtx := demoEncodingAndCatalog()
	opType := hwir.OperationTypeFromEncodingContext(enc)
	opValue := hwir.Arg("op", hwir.Int(opType.Width()))
	n := hwir.HasOperand(opValue, 1)

	l := NewOperationLowering(enc, opCtx)
	if err := l.Lower(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only foo.add has a second operand (index 1).
	if n.Op != "comb.or" && n.Op != "comb.icmp" {
		t.Fatalf("has_operand should lower to an OR-of-equalities (or a single icmp when only one opcode matches), got %q", n.Op)
	}
}

func TestHasResultWithNoResultBearingOpcodesIsFalse(t *testing.T) {
	enc := encoder.EncodingContext{OpcodeWidth: 4, OperandOffsetWidth: 4, MaxOperandAmount: 2}
	opCtx := encoder.OperationContext{Operations: map[string]encoder.OperationInfo{
		"foo.nop": {Opcode: 1},
	}}
	opType := hwir.OperationTypeFromEncodingContext(enc)
	opValue := hwir.Arg("op", hwir.Int(opType.Width()))
	n := hwir.HasResult(opValue)

	l := NewOperationLowering(enc, opCtx)
	if err := l.Lower(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Op != "hw.constant" {
		t.Fatalf("has_result with no result-bearing catalog entries should collapse to a constant false, got %q", n.Op)
	}
}

func TestIsOperationUnknownNameErrors(t *testing.T) {
	enc, opCtx := demoEncodingAndCatalog()
	opType := hwir.OperationTypeFromEncodingContext(enc)
	opValue := hwir.Arg("op", hwir.Int(opType.Width()))
	n := hwir.IsOperation(opValue, "foo.missing")

	l := NewOperationLowering(enc, opCtx)
	err := l.Lower(n)
	if err == nil {
		t.Fatal("expected OperationNotFoundInContext, got nil")
	}
	var notFound *herrors.OperationNotFoundInContext
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *errors.OperationNotFoundInContext, got %T", err)
	}
}

func TestIsOperationKnownNameLowersToSingleComparison(t *testing.T) {
	enc, opCtx := demoEncodingAndCatalog()
	opType := hwir.OperationTypeFromEncodingContext(enc)
	opValue := hwir.Arg("op", hwir.Int(opType.Width()))
	n := hwir.IsOperation(opValue, "foo.nop")

	l := NewOperationLowering(enc, opCtx)
	if err := l.Lower(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Op != "comb.icmp" {
		t.Fatalf("is_operation should lower to a single icmp against the resolved opcode, got %q", n.Op)
	}
}

func TestBitLengthIsNotPopulationCount(t *testing.T) {
	// 0b0111 has bit length 3 and population count 3 (coincidence);
	// 0b1001 has bit length 4 but population count 2 -- the case the
	// original's bit_count() filter gets wrong.
	if bitLength(0b1001) != 4 {
		t.Fatalf("bitLength(0b1001) = %d, want 4", bitLength(0b1001))
	}
	if bitLength(0) != 0 {
		t.Fatalf("bitLength(0) = %d, want 0", bitLength(0))
	}
}
