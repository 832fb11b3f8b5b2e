package switchify

import (
	"testing"

	"github.com/hwmatch/hwmatch/internal/pdlinterp"
)

func TestNormalizeReplacesCheckOperationName(t *testing.T) {
	builder := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", builder)
	trueDest := pdlinterp.NewBlock("matched")
	falseDest := pdlinterp.NewBlock("failed")
	entry.SetTerminator(pdlinterp.NewCheckOperationName("add", root, trueDest, falseDest))
	region := pdlinterp.NewRegion(entry, trueDest, falseDest)

	Normalize(region)

	sw, ok := entry.Term.(*pdlinterp.SwitchOperationName)
	if !ok {
		t.Fatalf("entry terminator = %T, want *SwitchOperationName", entry.Term)
	}
	if len(sw.CaseValues) != 1 || sw.CaseValues[0] != "add" {
		t.Fatalf("case values = %v, want [add]", sw.CaseValues)
	}
	if sw.DefaultDest != falseDest {
		t.Fatalf("default dest = %v, want falseDest", sw.DefaultDest)
	}
	if len(sw.Cases) != 1 || sw.Cases[0] != trueDest {
		t.Fatalf("cases = %v, want [trueDest]", sw.Cases)
	}
}

func TestNormalizeLeavesOtherTerminatorsAlone(t *testing.T) {
	builder := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", builder)
	trueDest := pdlinterp.NewBlock("matched")
	falseDest := pdlinterp.NewBlock("failed")
	isNotNull := pdlinterp.NewIsNotNull(root, trueDest, falseDest)
	entry.SetTerminator(isNotNull)
	region := pdlinterp.NewRegion(entry, trueDest, falseDest)

	Normalize(region)

	if entry.Term != pdlinterp.Terminator(isNotNull) {
		t.Fatalf("terminator changed: %T", entry.Term)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	builder := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", builder)
	trueDest := pdlinterp.NewBlock("matched")
	falseDest := pdlinterp.NewBlock("failed")
	entry.SetTerminator(pdlinterp.NewCheckType("i32", root, trueDest, falseDest))
	region := pdlinterp.NewRegion(entry, trueDest, falseDest)

	Normalize(region)
	first := entry.Term
	Normalize(region)

	if entry.Term != first {
		t.Fatalf("second Normalize call replaced an already-switchified terminator")
	}
}
