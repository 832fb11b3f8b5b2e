// Package matchersynth is stage C: it turns a pattern's Span DAG into
// the DAG-buffer filler cells that track incoming operations (spec
// §3.4) and the matcher FSM that consumes them (spec §3.5), and wires
// both into the surrounding hw.module (spec §6).
//
// Grounded on lowering/pdli_to_matcher_unit.py (the DAG buffer) and
// lowering/pdli_to_fsm.py (the FSM), adapted from xDSL's
// IRDLOperation/Block construction onto this repository's hwir package.
package matchersynth

import (
	"fmt"

	"github.com/hwmatch/hwmatch/internal/encoder"
	"github.com/hwmatch/hwmatch/internal/hwir"
	"github.com/hwmatch/hwmatch/internal/span"
)

// MatcherInputs are the five wires every filler cell and the FSM
// instance are driven by, grounded on pdli_to_matcher_unit.py's
// MatcherUnitInputs.
type MatcherInputs struct {
	Clock            *hwir.Node
	InputOp          *hwir.Node
	IsStreamPaused   *hwir.Node
	NewSequence      *hwir.Node
	StreamCompleted  *hwir.Node
}

// DagBufferNode is one filler cell: the register holding the node's
// current DagBufferNode state (spec §3.4's unknown/located_at/found/
// never), plus where each used operand's own defining-operation cell
// lives.
type DagBufferNode struct {
	Data            *hwir.Node
	StoreOperandsAt map[int]*DagBufferNode
}

// DagBufferCtx resolves a Span DAG OperationSpan to the filler cell
// synthesized for it, grounded on pdli_to_matcher_unit.py's DagBufferCtx.
type DagBufferCtx struct {
	Nodes     []*DagBufferNode
	SpanToDag map[*span.OperationSpan]*DagBufferNode
}

func newDagBufferCtx() *DagBufferCtx {
	return &DagBufferCtx{SpanToDag: make(map[*span.OperationSpan]*DagBufferNode)}
}

func (c *DagBufferCtx) register(node *DagBufferNode, s *span.OperationSpan) *DagBufferNode {
	c.Nodes = append(c.Nodes, node)
	c.SpanToDag[s] = node
	return node
}

type fillerOutput struct {
	output      *hwir.Node
	writeTo     *hwir.Node
	writeValOut map[int]*hwir.Node
}

// buildFillerNode synthesizes one filler cell's register, its
// unknown/located_at/found/never decode logic, and the feedback
// muxer chain that computes its next state, grounded on
// pdli_to_matcher_unit.py's build_filler_node. operands lists the
// operand indices whose defining operation is actually used by the
// pattern (spec §3.4: only used operands get a child cell).
func buildFillerNode(
	module *hwir.Module,
	inputs MatcherInputs,
	defaultValue, writeTo, writeVal *hwir.Node,
	operands []int,
	enc encoder.EncodingContext,
	nodeName string,
	sumType hwir.SumType,
) fillerOutput {
	isStreamRunning := module.Add(hwir.Not(inputs.IsStreamPaused))
	register := hwir.NewRegister("register_"+nodeName, sumType, defaultValue, inputs.Clock, isStreamRunning, inputs.NewSequence, defaultValue)
	module.Add(register.Data)

	isNever := module.Add(hwir.SumIs(register.Data, sumType, "never"))
	isLocatedAt := module.Add(hwir.SumIs(register.Data, sumType, "located_at"))
	isFound := module.Add(hwir.SumIs(register.Data, sumType, "found"))

	offsetZero := module.Add(hwir.Const(0, enc.OperandOffsetWidth))
	offsetOne := module.Add(hwir.Const(1, enc.OperandOffsetWidth))

	getLocatedAt := module.Add(hwir.SumGetAs(register.Data, sumType, "located_at"))
	locatedAtIsZero := module.Add(hwir.ICmpEq(getLocatedAt, offsetZero))
	locatedAtDecr := module.Add(hwir.Sub(getLocatedAt, offsetOne))
	isLocatedAtZero := module.Add(hwir.And(isLocatedAt, locatedAtIsZero))

	foundInputOp := module.Add(hwir.SumCreate(sumType, "found", inputs.InputOp))
	locatedAtDecrWrapped := module.Add(hwir.SumCreate(sumType, "located_at", locatedAtDecr))
	constantNever := module.Add(hwir.SumCreate(sumType, "never", hwir.False()))

	decrMux := module.Add(hwir.Mux(isLocatedAt, locatedAtDecrWrapped, register.Data))
	streamEndMux := module.Add(hwir.Mux(inputs.StreamCompleted, constantNever, decrMux))
	foundMux := module.Add(hwir.Mux(isFound, register.Data, streamEndMux))
	locatedAtZeroMux := module.Add(hwir.Mux(isLocatedAtZero, foundInputOp, foundMux))
	writeToMux := module.Add(hwir.Mux(writeTo, writeVal, locatedAtZeroMux))

	register.SetInput(writeToMux)

	shouldWriteTo := module.Add(hwir.Or(isNever, isLocatedAtZero))

	writeValOperands := make(map[int]*hwir.Node, len(operands))
	for _, operand := range operands {
		hasOperand := module.Add(hwir.HasOperand(inputs.InputOp, operand))
		operandOffset := module.Add(hwir.GetOperandOffset(inputs.InputOp, hwir.OperationTypeFromEncodingContext(enc), operand))
		wrappedOffset := module.Add(hwir.SumCreate(sumType, "located_at", operandOffset))
		shouldWriteOffset := module.Add(hwir.And(hasOperand, isLocatedAtZero))
		writeValMux := module.Add(hwir.Mux(shouldWriteOffset, wrappedOffset, constantNever))
		writeValOperands[operand] = writeValMux
	}

	return fillerOutput{output: register.Data, writeTo: shouldWriteTo, writeValOut: writeValOperands}
}

// usedOperands returns the operand indices of s whose defining
// operation the pattern actually inspects, per spec §3.3's Used flag:
// only those need a child filler cell at all.
func usedOperands(s *span.OperationSpan) []int {
	var out []int
	for idx, operand := range s.Operands {
		if operand.DefiningOp.Used {
			out = append(out, idx)
		}
	}
	return out
}

// BuildDagBuffer synthesizes the whole filler-cell tree mirroring root's
// Span DAG shape, grounded on pdli_to_matcher_unit.py's create_filler.
// The root cell and its immediate operands get special-cased default
// values (the root always starts out holding the incoming operation);
// every other cell starts out unknown.
func BuildDagBuffer(
	module *hwir.Module,
	inputs MatcherInputs,
	root *span.OperationSpan,
	matcherName string,
	sumType hwir.SumType,
	enc encoder.EncodingContext,
) *DagBufferCtx {
	nameCounter := 0
	nextName := func() string {
		n := fmt.Sprintf("%s_dag_buffer_%d", matcherName, nameCounter)
		nameCounter++
		return n
	}

	constantUnknown := module.Add(hwir.SumCreate(sumType, "unknown", hwir.False()))
	constantNever := module.Add(hwir.SumCreate(sumType, "never", hwir.False()))

	ctx := newDagBufferCtx()

	var constructNode func(s *span.OperationSpan, defaultValue, writeTo, writeVal *hwir.Node) *DagBufferNode
	constructNode = func(s *span.OperationSpan, defaultValue, writeTo, writeVal *hwir.Node) *DagBufferNode {
		operands := usedOperands(s)
		filler := buildFillerNode(module, inputs, defaultValue, writeTo, writeVal, operands, enc, nextName(), sumType)

		storeOperandsAt := make(map[int]*DagBufferNode, len(operands))
		for _, operand := range operands {
			child := constructNode(s.Operands[operand].DefiningOp, constantUnknown, filler.writeTo, filler.writeValOut[operand])
			storeOperandsAt[operand] = child
		}
		return ctx.register(&DagBufferNode{Data: filler.output, StoreOperandsAt: storeOperandsAt}, s)
	}

	foundInputOp := module.Add(hwir.SumCreate(sumType, "found", inputs.InputOp))
	rootOperands := usedOperands(root)
	rootFiller := buildFillerNode(module, inputs, foundInputOp, hwir.False(), foundInputOp, rootOperands, enc, nextName(), sumType)

	storeOperandsAt := make(map[int]*DagBufferNode, len(rootOperands))
	for _, operand := range rootOperands {
		hasOperand := module.Add(hwir.HasOperand(inputs.InputOp, operand))
		operandOffset := module.Add(hwir.GetOperandOffset(inputs.InputOp, hwir.OperationTypeFromEncodingContext(enc), operand))
		wrappedOffset := module.Add(hwir.SumCreate(sumType, "located_at", operandOffset))
		writeValMux := module.Add(hwir.Mux(hasOperand, wrappedOffset, constantNever))
		child := constructNode(root.Operands[operand].DefiningOp, writeValMux, rootFiller.writeTo, rootFiller.writeValOut[operand])
		storeOperandsAt[operand] = child
	}

	ctx.register(&DagBufferNode{Data: rootFiller.output, StoreOperandsAt: storeOperandsAt}, root)
	return ctx
}
