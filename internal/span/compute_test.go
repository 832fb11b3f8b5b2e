package span

import (
	"testing"

	"github.com/hwmatch/hwmatch/internal/pdlinterp"
)

// buildSimplePattern constructs: root op, get its operand 0, get the
// defining op of that operand, check its operation name, record a match.
func buildSimplePattern(t *testing.T) *pdlinterp.Region {
	t.Helper()
	b := pdlinterp.NewBuilder()

	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", b)

	getOperand := pdlinterp.NewGetOperand(b, root, 0, "lhs")
	entry.AddOp(getOperand)

	getDefOp := pdlinterp.NewGetDefiningOp(b, getOperand.Result, "lhs_def")
	entry.AddOp(getDefOp)

	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")
	entry.SetTerminator(pdlinterp.NewCheckOperationName("const", getDefOp.Result, matched, failed))

	recordBlock := pdlinterp.NewBlock("record")
	matched.SetTerminator(pdlinterp.NewBranch(recordBlock))
	recordBlock.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, matched, recordBlock, failed)
}

func TestComputeUsageGraphMarksOperandAndDefiningOpUsed(t *testing.T) {
	region := buildSimplePattern(t)

	root, ctx, err := ComputeUsageGraph(region)
	if err != nil {
		t.Fatalf("ComputeUsageGraph error: %v", err)
	}
	if !root.Used {
		t.Fatalf("root span should be marked used")
	}
	operand, ok := root.Operands[0]
	if !ok {
		t.Fatalf("expected operand 0 span on root")
	}
	if !operand.DefiningOp.Used {
		t.Fatalf("expected the operand's defining-op span to be used")
	}
	if len(ctx.Operations) == 0 {
		t.Fatalf("expected ctx to record at least one operation span")
	}
}

func TestComputeUsageGraphRejectsCycles(t *testing.T) {
	entryA := pdlinterp.NewBlock("a")
	entryB := pdlinterp.NewBlock("b")
	b := pdlinterp.NewBuilder()
	entryA.AddArg(pdlinterp.OperationKind, "root", b)
	entryA.SetTerminator(pdlinterp.NewBranch(entryB))
	entryB.SetTerminator(pdlinterp.NewBranch(entryA))
	region := pdlinterp.NewRegion(entryA, entryB)

	if _, _, err := ComputeUsageGraph(region); err == nil {
		t.Fatalf("expected an UnsupportedPatternFeature error for a cyclic region")
	}
}
