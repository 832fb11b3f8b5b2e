package matchersynth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hwmatch/hwmatch/internal/encoder"
	"github.com/hwmatch/hwmatch/internal/hwir"
	"github.com/hwmatch/hwmatch/internal/lowering"
	"github.com/hwmatch/hwmatch/internal/matchersynth"
	"github.com/hwmatch/hwmatch/internal/pdlinterp"
	"github.com/hwmatch/hwmatch/internal/switchify"
)

func demoEncoding() encoder.EncodingContext {
	return encoder.EncodingContext{OpcodeWidth: 4, OperandOffsetWidth: 4, MaxOperandAmount: 2}
}

func demoOperationContext() encoder.OperationContext {
	resultType := encoder.TypeTag("i32")
	return encoder.OperationContext{Operations: map[string]encoder.OperationInfo{
		"foo.const": {Opcode: 1, ResultType: &resultType},
		"foo.or":    {Opcode: 2, OperandTypes: []encoder.TypeTag{"i32", "i32"}, ResultType: &resultType},
		"foo.and":   {Opcode: 3, OperandTypes: []encoder.TypeTag{"i32", "i32"}, ResultType: &resultType},
	}}
}

// trivialPattern builds spec.md seed scenario 1: is_not_null(root) ->
// record_match, finalize.
func trivialPattern() *pdlinterp.Region {
	b := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", b)

	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")
	entry.SetTerminator(pdlinterp.NewIsNotNull(root, matched, failed))
	matched.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, matched, failed)
}

// twoOperandPattern builds spec.md seed scenario 2: switch on the root's
// operation name, then require exactly two operands before matching.
func twoOperandPattern() *pdlinterp.Region {
	b := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", b)

	checkCount := pdlinterp.NewBlock("check_count")
	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")

	entry.SetTerminator(pdlinterp.NewSwitchOperationName(root, []string{"foo.or"}, []*pdlinterp.Block{checkCount}, failed))
	checkCount.SetTerminator(pdlinterp.NewCheckOperandCount(root, 2, false, matched, failed))
	matched.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, checkCount, matched, failed)
}

// operandDefiningOpPattern builds spec.md seed scenario 4: match
// or(x, and(y, z)) by walking to operand 1's defining operation and
// checking its name.
func operandDefiningOpPattern() *pdlinterp.Region {
	b := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", b)

	getOperand := pdlinterp.NewGetOperand(b, root, 1, "rhs")
	entry.AddOp(getOperand)
	getDefOp := pdlinterp.NewGetDefiningOp(b, getOperand.Result, "rhs_def")
	entry.AddOp(getDefOp)

	checkRoot := pdlinterp.NewBlock("check_root")
	checkChild := pdlinterp.NewBlock("check_child")
	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")

	entry.SetTerminator(pdlinterp.NewBranch(checkRoot))
	checkRoot.SetTerminator(pdlinterp.NewCheckOperationName("foo.or", root, checkChild, failed))
	checkChild.SetTerminator(pdlinterp.NewCheckOperationName("foo.and", getDefOp.Result, matched, failed))
	matched.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, checkRoot, checkChild, matched, failed)
}

// cyclicPattern builds spec.md seed scenario 5: a control-flow graph
// with a back edge, which compute_usage_graph must reject outright.
func cyclicPattern() *pdlinterp.Region {
	a := pdlinterp.NewBlock("a")
	b := pdlinterp.NewBlock("b")
	builder := pdlinterp.NewBuilder()
	a.AddArg(pdlinterp.OperationKind, "root", builder)
	a.SetTerminator(pdlinterp.NewBranch(b))
	b.SetTerminator(pdlinterp.NewBranch(a))
	return pdlinterp.NewRegion(a, b)
}

func generateAndLower(t *testing.T, region *pdlinterp.Region, name string) *matchersynth.MatcherUnit {
	t.Helper()
	switchify.Normalize(region)

	enc := demoEncoding()
	unit, err := matchersynth.GenerateMatcherUnit(region, enc, name)
	require.NoError(t, err)

	err = lowering.LowerMatcherUnit(unit, enc, demoOperationContext())
	require.NoError(t, err)
	return unit
}

// assertPortLayout checks property P2: the module's port list exactly
// matches spec §6's external interface, in order.
func assertPortLayout(t *testing.T, unit *matchersynth.MatcherUnit, opWidth int) {
	t.Helper()
	require.Len(t, unit.Module.Inputs, 5)
	require.Equal(t, "clock", unit.Module.Inputs[0].Name)
	require.Equal(t, "input_op", unit.Module.Inputs[1].Name)
	require.Equal(t, opWidth, unit.Module.Inputs[1].Type.Width())
	require.Equal(t, "is_stream_paused", unit.Module.Inputs[2].Name)
	require.Equal(t, "new_sequence", unit.Module.Inputs[3].Name)
	require.Equal(t, "stream_completed", unit.Module.Inputs[4].Name)

	require.Len(t, unit.Module.Outputs, 2)
	require.Equal(t, "output_op", unit.Module.Outputs[0].Name)
	require.Equal(t, opWidth, unit.Module.Outputs[0].Type.Width())
	require.Equal(t, "match_result", unit.Module.Outputs[1].Name)
}

// assertEveryStateHasAnOutputAndNonSinkStatesTransition checks
// invariants I4 and I5: every FSM state declares an output expression,
// and every non-sink state has at least one transition. The sinks are
// STATEFAILURE and the record_match/finalize states. GenerateFSM gives
// every non-sink state the same shared "unknown" status node, so a
// state without transitions must not share its output node with a
// state that has transitions.
func assertEveryStateHasAnOutputAndNonSinkStatesTransition(t *testing.T, fsm *hwir.Machine) {
	t.Helper()
	transitioningOutputs := make(map[*hwir.Node]bool)
	for _, state := range fsm.States {
		require.NotNil(t, state.Output, "state %s has no output expression", state.Name)
		if len(state.Transitions) > 0 {
			transitioningOutputs[state.Output] = true
		}
	}
	for _, state := range fsm.States {
		if state.Name == matchersynth.StateFailureName || len(state.Transitions) > 0 {
			continue
		}
		require.False(t, transitioningOutputs[state.Output], "non-sink state %s has no transitions", state.Name)
	}
}

func TestTrivialSingleOpMatch(t *testing.T) {
	opType := hwir.OperationTypeFromEncodingContext(demoEncoding())
	unit := generateAndLower(t, trivialPattern(), "trivial")

	assertPortLayout(t, unit, opType.Width())
	assertEveryStateHasAnOutputAndNonSinkStatesTransition(t, unit.Fsm)

	// Only the root operation is inspected: exactly one DAG buffer cell,
	// plus the module's output_op register.
	require.Equal(t, 2, countRegisters(unit.Module))
}

func TestTwoOperandCheckBuildsOneStatePerBlockPlusFailureSink(t *testing.T) {
	unit := generateAndLower(t, twoOperandPattern(), "two_operand")
	assertEveryStateHasAnOutputAndNonSinkStatesTransition(t, unit.Fsm)

	// 4 interpreter blocks (entry, check_count, matched, failed) plus the
	// shared STATEFAILURE sink.
	require.Len(t, unit.Fsm.States, 5)

	foundFailureSink := false
	for _, state := range unit.Fsm.States {
		if state.Name == matchersynth.StateFailureName {
			foundFailureSink = true
		}
	}
	require.True(t, foundFailureSink)
}

func TestOperandDefiningOpWalksToChildCell(t *testing.T) {
	unit := generateAndLower(t, operandDefiningOpPattern(), "operand_defining_op")
	assertEveryStateHasAnOutputAndNonSinkStatesTransition(t, unit.Fsm)

	// The root inspects one used operand (index 1), whose defining
	// operation gets its own child filler cell: two DAG buffer registers,
	// plus the module's output_op register.
	require.Equal(t, 3, countRegisters(unit.Module))
}

// countRegisters counts every seq.compreg.ce node in the module body:
// one per DAG buffer filler cell, plus one for the output_op register
// insert_module_output wires in.
func countRegisters(m *hwir.Module) int {
	n := 0
	for _, node := range m.Body {
		if node.Op == "seq.compreg.ce" {
			n++
		}
	}
	return n
}

func TestCyclicControlFlowIsRejected(t *testing.T) {
	region := cyclicPattern()
	switchify.Normalize(region)

	_, err := matchersynth.GenerateMatcherUnit(region, demoEncoding(), "cyclic")
	require.Error(t, err)
}

// redundantOrPattern builds spec.md seed scenario 3: an are_equal guard
// comparing root's two operands, the peephole recognizing x|x.
func redundantOrPattern() *pdlinterp.Region {
	b := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", b)

	lhs := pdlinterp.NewGetOperand(b, root, 0, "lhs")
	entry.AddOp(lhs)
	rhs := pdlinterp.NewGetOperand(b, root, 1, "rhs")
	entry.AddOp(rhs)

	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")
	entry.SetTerminator(pdlinterp.NewAreEqual(lhs.Result, rhs.Result, matched, failed))
	matched.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, matched, failed)
}

// TestRedundantOrAreEqualGuardComparesRhsNotLhsTwice is a regression test
// for the original's _are_equal_values bug: both the lhs and rhs paths
// led back to the same pattern-IR value (lhs_path reused for both sum
// calls), which this synthesizer fixes by always summing rhs's own path
// for the rhs side. Two distinct operand paths from root should produce
// two distinct operand-offset reads feeding the comparison rather than
// the same one twice.
func TestRedundantOrAreEqualGuardComparesRhsNotLhsTwice(t *testing.T) {
	unit := generateAndLower(t, redundantOrPattern(), "redundant_or")
	assertEveryStateHasAnOutputAndNonSinkStatesTransition(t, unit.Fsm)

	var guard *hwir.Node
	for _, state := range unit.Fsm.States {
		for _, tr := range state.Transitions {
			if tr.NextState == "STATE1" {
				guard = tr.Guard
			}
		}
	}
	require.NotNil(t, guard, "expected a transition targeting the matched state")

	offsetExtracts := collectOpcodeOffsetExtracts(guard)
	require.GreaterOrEqual(t, len(offsetExtracts), 2, "are_equal guard should read both operands' own offsets, not one value twice")
}

// collectOpcodeOffsetExtracts walks guard collecting every distinct
// comb.extract node whose low bit matches an operand-offset field
// (anything past the opcode bits), used to confirm the guard reads more
// than one distinct bit-slice of the operation value.
func collectOpcodeOffsetExtracts(n *hwir.Node) []*hwir.Node {
	seen := make(map[*hwir.Node]bool)
	var out []*hwir.Node
	var walk func(*hwir.Node)
	walk = func(cur *hwir.Node) {
		if cur == nil || seen[cur] {
			return
		}
		seen[cur] = true
		if cur.Op == "comb.extract" && cur.Attrs["lowBit"].(int) >= demoEncoding().OpcodeWidth {
			out = append(out, cur)
		}
		for _, operand := range cur.Operands {
			walk(operand)
		}
	}
	walk(n)
	return out
}

// switchTypesRangePattern builds spec.md seed scenario 6: a
// switch_types terminator over an operand-type range, a shape stage C's
// FSM synthesis has no guard semantics for.
func switchTypesRangePattern() *pdlinterp.Region {
	b := pdlinterp.NewBuilder()
	entry := pdlinterp.NewBlock("entry")
	root := entry.AddArg(pdlinterp.OperationKind, "root", b)

	operandRange := pdlinterp.NewGetOperands(b, root, nil, "operands")
	entry.AddOp(operandRange)
	typeRange := pdlinterp.NewGetValueType(b, operandRange.Result, "operand_types")
	entry.AddOp(typeRange)

	matched := pdlinterp.NewBlock("matched")
	failed := pdlinterp.NewBlock("failed")
	entry.SetTerminator(pdlinterp.NewSwitchTypes(typeRange.Result, [][]encoder.TypeTag{{"i32", "i32"}}, []*pdlinterp.Block{matched}, failed))
	matched.SetTerminator(pdlinterp.NewRecordMatch())
	failed.SetTerminator(pdlinterp.NewFinalize())

	return pdlinterp.NewRegion(entry, matched, failed)
}

func TestUnsupportedRangeSwitchIsRejected(t *testing.T) {
	region := switchTypesRangePattern()
	switchify.Normalize(region)

	_, err := matchersynth.GenerateMatcherUnit(region, demoEncoding(), "switch_types")
	require.Error(t, err)
}
