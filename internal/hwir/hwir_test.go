package hwir

import "testing"

func TestConcatWidthIsSumOfInputs(t *testing.T) {
	a := Const(1, 4)
	b := Const(2, 8)
	c := Concat(a, b)
	if c.Result.Width() != 12 {
		t.Fatalf("concat width = %d, want 12", c.Result.Width())
	}
}

func TestSumTypeTagWidth(t *testing.T) {
	st := NewSumType(
		SumVariant{Name: "unknown", Type: I1},
		SumVariant{Name: "located_at", Type: Int(4)},
		SumVariant{Name: "found", Type: Int(12)},
		SumVariant{Name: "never", Type: I1},
	)
	if st.TagWidth() != 2 {
		t.Fatalf("tag width = %d, want 2 (4 variants)", st.TagWidth())
	}
	if st.PayloadWidth() != 12 {
		t.Fatalf("payload width = %d, want 12", st.PayloadWidth())
	}
}

func TestSumCreateAndGetAsRoundTripType(t *testing.T) {
	st := NewSumType(
		SumVariant{Name: "unknown", Type: I1},
		SumVariant{Name: "located_at", Type: Int(4)},
	)
	data := Const(3, 4)
	created := SumCreate(st, "located_at", data)
	got := SumGetAs(created, st, "located_at")
	if got.Result.Width() != 4 {
		t.Fatalf("get_as width = %d, want 4", got.Result.Width())
	}
}

func TestRegisterSetInputPatchesDataOperand(t *testing.T) {
	clock := Const(0, 1)
	enable := Const(1, 1)
	reset := Const(0, 1)
	resetValue := Const(0, 8)
	placeholder := Const(0, 8)
	reg := NewRegister("r0", Int(8), placeholder, clock, enable, reset, resetValue)
	real := Const(5, 8)
	reg.SetInput(real)
	if reg.Data.Operands[0] != real {
		t.Fatalf("SetInput did not patch the register's data operand")
	}
}
