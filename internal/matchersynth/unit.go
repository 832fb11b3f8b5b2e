package matchersynth

import (
	"fmt"

	"github.com/hwmatch/hwmatch/internal/encoder"
	"github.com/hwmatch/hwmatch/internal/hwir"
	"github.com/hwmatch/hwmatch/internal/pdlinterp"
	"github.com/hwmatch/hwmatch/internal/span"
)

// The four DAG-buffer filler states, spec §3.4.
const (
	variantUnknown   = "unknown"
	variantLocatedAt = "located_at"
	variantFound     = "found"
	variantNever     = "never"
)

// The three matcher FSM status values, spec §3.5.
const (
	statusUnknown = "unknown"
	statusSuccess = "success"
	statusFailure = "failure"
)

// MatcherUnit is the synthesized hardware for one pattern: the hw.module
// wiring the DAG buffer into the matcher FSM instance, plus the FSM
// machine body itself, grounded on pdli_to_matcher_unit.py's
// generate_matcher_unit return value.
type MatcherUnit struct {
	Module *hwir.Module
	Fsm    *hwir.Machine
}

// nodeSumType builds the tagged union every DAG-buffer filler cell is
// registered as, grounded on generate_matcher_unit's dag_buffer_node_sum_type.
// located_at and found's payload widths come from the wire encoding;
// unknown and never carry a dummy one-bit payload, matching the TODO left
// in the original about HwSum lowering needing dummy i1s for empty
// variants.
func nodeSumType(enc encoder.EncodingContext) hwir.SumType {
	opType := hwir.OperationTypeFromEncodingContext(enc)
	return hwir.NewSumType(
		hwir.SumVariant{Name: variantUnknown, Type: hwir.I1},
		hwir.SumVariant{Name: variantLocatedAt, Type: hwir.Int(enc.OperandOffsetWidth)},
		hwir.SumVariant{Name: variantFound, Type: hwir.Int(opType.Width())},
		hwir.SumVariant{Name: variantNever, Type: hwir.I1},
	)
}

func statusSumType() hwir.SumType {
	return hwir.NewSumType(
		hwir.SumVariant{Name: statusUnknown, Type: hwir.I1},
		hwir.SumVariant{Name: statusSuccess, Type: hwir.I1},
		hwir.SumVariant{Name: statusFailure, Type: hwir.I1},
	)
}

// GenerateMatcherUnit turns one pattern's interpreter region into its
// matcher hardware: a DAG buffer tracking the operations the pattern
// inspects, an FSM deciding match/no-match over that buffer, and the
// surrounding module wiring both to the stream ports, grounded on
// pdli_to_matcher_unit.py's generate_matcher_unit.
func GenerateMatcherUnit(region *pdlinterp.Region, enc encoder.EncodingContext, matcherUnitName string) (*MatcherUnit, error) {
	opType := hwir.OperationTypeFromEncodingContext(enc)

	clock := hwir.Arg("clock", hwir.I1)
	inputOp := hwir.Arg("input_op", hwir.Int(opType.Width()))
	isStreamPaused := hwir.Arg("is_stream_paused", hwir.I1)
	newSequence := hwir.Arg("new_sequence", hwir.I1)
	streamCompleted := hwir.Arg("stream_completed", hwir.I1)

	module := hwir.NewModule(matcherUnitName, []hwir.Port{
		{Name: "clock", Type: hwir.I1},
		{Name: "input_op", Type: hwir.Int(opType.Width())},
		{Name: "is_stream_paused", Type: hwir.I1},
		{Name: "new_sequence", Type: hwir.I1},
		{Name: "stream_completed", Type: hwir.I1},
	})

	inputs := MatcherInputs{
		Clock:           clock,
		InputOp:         inputOp,
		IsStreamPaused:  isStreamPaused,
		NewSequence:     newSequence,
		StreamCompleted: streamCompleted,
	}

	root, dagSpanCtx, err := span.ComputeUsageGraph(region)
	if err != nil {
		return nil, err
	}

	nodeType := nodeSumType(enc)
	dagBufferCtx := BuildDagBuffer(module, inputs, root, matcherUnitName, nodeType, enc)

	statusType := statusSumType()
	fsmName := fmt.Sprintf("%s_fsm", matcherUnitName)
	fsm, err := GenerateFSM(region, root, dagSpanCtx, dagBufferCtx, enc, fsmName, nodeType, statusType)
	if err != nil {
		return nil, err
	}

	fsmInputs := make([]*hwir.Node, len(dagBufferCtx.Nodes))
	for i, node := range dagBufferCtx.Nodes {
		fsmInputs[i] = node.Data
	}
	fsmInst := module.Add(hwir.Instantiate(fsmName+"_inst", fsm, fsmInputs, clock, newSequence, statusType))

	// The next output_op is the previous cycle's input_op, held across
	// cycles the stream is paused for, grounded on insert_module_output.
	isStreamRunning := module.Add(hwir.Not(isStreamPaused))
	outputRegister := hwir.NewRegister("output_"+matcherUnitName, hwir.Int(opType.Width()), inputOp, clock, isStreamRunning, hwir.False(), inputOp)
	module.Add(outputRegister.Data)

	module.SetOutputs([]string{"output_op", "match_result"}, []*hwir.Node{outputRegister.Data, fsmInst})

	return &MatcherUnit{Module: module, Fsm: fsm}, nil
}
