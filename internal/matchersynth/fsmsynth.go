package matchersynth

import (
	"fmt"
	"sort"

	"github.com/hwmatch/hwmatch/internal/encoder"
	herrors "github.com/hwmatch/hwmatch/internal/errors"
	"github.com/hwmatch/hwmatch/internal/hwir"
	"github.com/hwmatch/hwmatch/internal/pdlinterp"
	"github.com/hwmatch/hwmatch/internal/span"
)

// StateFailureName names the failure sink state: its output is always the
// failure status and it has no outgoing transitions. No transition built
// by GenerateFSM targets it.
const StateFailureName = "STATEFAILURE"

// fsmContext memoizes the state name assigned to each pattern-IR block,
// grounded on pdli_to_fsm.py's FsmContext.get_state_name_of.
type fsmContext struct {
	blockToState map[*pdlinterp.Block]string
	counter      int
}

func newFsmContext() *fsmContext {
	return &fsmContext{blockToState: make(map[*pdlinterp.Block]string)}
}

func (c *fsmContext) stateNameOf(b *pdlinterp.Block) string {
	name, ok := c.blockToState[b]
	if !ok {
		name = fmt.Sprintf("STATE%d", c.counter)
		c.counter++
		c.blockToState[b] = name
	}
	return name
}

func sortedOperandIndices(operands map[int]*span.OperandSpan) []int {
	idx := make([]int, 0, len(operands))
	for i := range operands {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// pathsToCommonAncestor finds lhs and rhs' lowest common ancestor under
// root and returns the chain of operand spans from that ancestor down to
// each of them, grounded on pdli_to_fsm.py's _paths_to_common_ancestor.
// Each path is ordered from the operand nearest its target up to the
// operand nearest the ancestor, matching _sum_path's summation order.
func pathsToCommonAncestor(lhs, rhs, root *span.OperationSpan) ([]*span.OperandSpan, []*span.OperandSpan) {
	type found struct {
		path []*span.OperandSpan
		have bool
	}
	var compute func(current *span.OperationSpan) (found, found)
	compute = func(current *span.OperationSpan) (found, found) {
		left := found{have: current == lhs}
		right := found{have: current == rhs}
		for _, idx := range sortedOperandIndices(current.Operands) {
			if left.have && right.have {
				break
			}
			operand := current.Operands[idx]
			subLeft, subRight := compute(operand.DefiningOp)
			if subLeft.have && !left.have {
				left = found{path: append(append([]*span.OperandSpan{}, subLeft.path...), operand), have: true}
			}
			if subRight.have && !right.have {
				right = found{path: append(append([]*span.OperandSpan{}, subRight.path...), operand), have: true}
			}
		}
		return left, right
	}
	left, right := compute(root)
	lhsPath, rhsPath := left.path, right.path
	// Both paths share the operands above the lowest common ancestor;
	// drop that shared tail so each path starts at the ancestor.
	for len(lhsPath) > 0 && len(rhsPath) > 0 && lhsPath[len(lhsPath)-1] == rhsPath[len(rhsPath)-1] {
		lhsPath = lhsPath[:len(lhsPath)-1]
		rhsPath = rhsPath[:len(rhsPath)-1]
	}
	return lhsPath, rhsPath
}

// ceilLog2 returns ceil(log2(n)) for n >= 1, computed over integers so
// synthesis stays reproducible, grounded on _sum_path's
// math.ceil(math.log2(max_path_len)).
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	for v := n - 1; v > 0; v >>= 1 {
		bits++
	}
	return bits
}

// sumPath computes the cumulative stream offset between the common
// ancestor and the end of path, grounded on pdli_to_fsm.py's _sum_path.
// maxPathLen fixes the result width so two paths being compared share a
// type.
func sumPath(path []*span.OperandSpan, maxPathLen int, dagBufferCtx *DagBufferCtx, access map[*DagBufferNode]*hwir.Node, enc encoder.EncodingContext, nodeSumType hwir.SumType) *hwir.Node {
	overflowMargin := ceilLog2(maxPathLen)
	resultWidth := overflowMargin + enc.OperandOffsetWidth
	if len(path) == 0 {
		return hwir.Const(0, resultWidth)
	}
	var zeroPadding *hwir.Node
	if overflowMargin != 0 {
		zeroPadding = hwir.Const(0, overflowMargin)
	}
	opType := hwir.OperationTypeFromEncodingContext(enc)
	toSum := make([]*hwir.Node, 0, len(path))
	for _, operand := range path {
		dagNode := dagBufferCtx.SpanToDag[operand.OperandOf]
		unwrap := hwir.SumGetAs(access[dagNode], nodeSumType, "found")
		opOffset := hwir.GetOperandOffset(unwrap, opType, operand.OperandIndex)
		adjusted := opOffset
		if zeroPadding != nil {
			adjusted = hwir.Concat(zeroPadding, opOffset)
		}
		toSum = append(toSum, adjusted)
	}
	return hwir.Add(toSum...)
}

// findUserOfResult locates the operation span that consumes result as
// one of its operands, searching user's operand tree depth-first,
// grounded on pdli_to_fsm.py's _find_user_of_result.
func findUserOfResult(result *span.ResultSpan, user *span.OperationSpan) *span.OperationSpan {
	for _, idx := range sortedOperandIndices(user.Operands) {
		operand := user.Operands[idx]
		if operand.DefiningOp == result.ResultOf {
			return user
		}
		if found := findUserOfResult(result, operand.DefiningOp); found != nil {
			return found
		}
	}
	return nil
}

func findUserOfResultOrSelf(result *span.ResultSpan, root *span.OperationSpan) *span.OperationSpan {
	if user := findUserOfResult(result, root); user != nil {
		return user
	}
	return result.ResultOf
}

// areEqualValues builds the guarded transition to dest taken when two
// operand-chain-derived values actually compare equal, grounded on
// pdli_to_fsm.py's _are_equal_values.
//
// lhsBlocker/rhsBlocker name the operation spans whose "found" status
// gates the comparison; lhsDefiningOp/rhsDefiningOp name the operation
// spans whose paths from root are compared. The corresponding Python
// passes lhs_path to both _sum_path calls (pdli_to_fsm.py line 260-267),
// which makes an are_equal guard compare a value against itself instead
// of against rhs whenever the two paths differ in length or content;
// this version uses rhsPath for the rhs sum, the behavior the comment
// directly above the two calls describes.
func areEqualValues(
	fsmCtx *fsmContext,
	dest *pdlinterp.Block,
	lhsBlocker, lhsDefiningOp, rhsBlocker, rhsDefiningOp, root *span.OperationSpan,
	dagBufferCtx *DagBufferCtx,
	access map[*DagBufferNode]*hwir.Node,
	enc encoder.EncodingContext,
	nodeSumType hwir.SumType,
) *hwir.Transition {
	lhsPath, rhsPath := pathsToCommonAncestor(lhsDefiningOp, rhsDefiningOp, root)
	maxPathLen := len(lhsPath)
	if len(rhsPath) > maxPathLen {
		maxPathLen = len(rhsPath)
	}
	lhsSum := sumPath(lhsPath, maxPathLen, dagBufferCtx, access, enc, nodeSumType)
	rhsSum := sumPath(rhsPath, maxPathLen, dagBufferCtx, access, enc, nodeSumType)
	cmpSum := hwir.ICmpEq(lhsSum, rhsSum)

	lhsFound := hwir.SumIs(access[dagBufferCtx.SpanToDag[lhsBlocker]], nodeSumType, "found")
	rhsFound := hwir.SumIs(access[dagBufferCtx.SpanToDag[rhsBlocker]], nodeSumType, "found")
	guard := hwir.And(lhsFound, rhsFound, cmpSum)
	return &hwir.Transition{Guard: guard, NextState: fsmCtx.stateNameOf(dest)}
}

func nodeFor(dagBufferCtx *DagBufferCtx, access map[*DagBufferNode]*hwir.Node, s *span.OperationSpan) *hwir.Node {
	return access[dagBufferCtx.SpanToDag[s]]
}

// findAnyOperationUse resolves value against every "whole operation or
// range" map in declaration order, grounded on generate_fsm's IsNotNull
// case's find_in lookup.
func findAnyOperationUse(value *pdlinterp.Value, ctx *span.Ctx) (*span.OperationSpan, bool) {
	if s, ok := ctx.Operations[value]; ok {
		return s, true
	}
	if s, ok := ctx.OperandRangeOf[value]; ok {
		return s, true
	}
	if s, ok := ctx.OperandTypeRangeOf[value]; ok {
		return s, true
	}
	if s, ok := ctx.ResultRangeOf[value]; ok {
		return s, true
	}
	if s, ok := ctx.ResultTypeRangeOf[value]; ok {
		return s, true
	}
	return nil, false
}

// GenerateFSM turns a pattern's control-flow graph into the matcher FSM
// that consumes the DAG buffer's filler cells, grounded on
// pdli_to_fsm.py's generate_fsm. root is dag_span_ctx's root operation
// span; the Python OperationSpanCtx this is translated from never
// actually carries a root attribute despite generate_fsm reading
// dag_span_ctx.root in four places (an are_equal pattern reaching those
// lines would raise AttributeError), so this version takes root as an
// explicit parameter instead of reproducing that gap.
func GenerateFSM(
	region *pdlinterp.Region,
	root *span.OperationSpan,
	dagSpanCtx *span.Ctx,
	dagBufferCtx *DagBufferCtx,
	enc encoder.EncodingContext,
	fsmName string,
	nodeSumType, statusSumType hwir.SumType,
) (*hwir.Machine, error) {
	fsmCtx := newFsmContext()

	access := make(map[*DagBufferNode]*hwir.Node, len(dagBufferCtx.Nodes))
	inputs := make([]hwir.Port, 0, len(dagBufferCtx.Nodes))
	for i, node := range dagBufferCtx.Nodes {
		name := fmt.Sprintf("node_%d", i)
		access[node] = hwir.Arg(name, nodeSumType)
		inputs = append(inputs, hwir.Port{Name: name, Type: nodeSumType})
	}

	trueNode := hwir.True()
	falseNode := hwir.False()
	unknownStatus := hwir.SumCreate(statusSumType, "unknown", trueNode)
	successStatus := hwir.SumCreate(statusSumType, "success", trueNode)
	failureStatus := hwir.SumCreate(statusSumType, "failure", trueNode)

	machine := hwir.NewMachine(fsmName, inputs, []hwir.Port{{Name: "status", Type: statusSumType}}, "STATE0")
	machine.AddState(hwir.NewState(StateFailureName, failureStatus))

	for _, block := range region.Blocks {
		state := hwir.NewState(fsmCtx.stateNameOf(block), unknownStatus)

		switch t := block.Term.(type) {
		case *pdlinterp.Finalize:
			state.Output = failureStatus

		case *pdlinterp.RecordMatch:
			state.Output = successStatus

		case *pdlinterp.Branch:
			// spec.md names `branch` as a valid terminator (the region
			// grammar), unlike generate_fsm's match statement, which has
			// no case for it and would fall into its catch-all
			// UnsupportedPatternFeature. A branch carries no condition to
			// guard on, so it becomes a single always-taken transition.
			state.AddTransition(trueNode, fsmCtx.stateNameOf(t.Dest))

		case *pdlinterp.IsNotNull:
			value := t.Value
			switch {
			case mapHas(dagSpanCtx.ValueOfOperand, value) || mapHas(dagSpanCtx.TypeOfOperand, value):
				operand := dagSpanCtx.ValueOfOperand[value]
				if operand == nil {
					operand = dagSpanCtx.TypeOfOperand[value]
				}
				dagNode := nodeFor(dagBufferCtx, access, operand.OperandOf)
				isFound := hwir.SumIs(dagNode, nodeSumType, "found")
				unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
				hasOperand := hwir.HasOperand(unwrap, operand.OperandIndex)
				isNever := hwir.SumIs(dagNode, nodeSumType, "never")
				state.AddTransition(hwir.And(isFound, hasOperand), fsmCtx.stateNameOf(t.TrueDest))
				state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.FalseDest))
			case mapHasResult(dagSpanCtx.ValueOfResult, value) || mapHasResult(dagSpanCtx.TypeOfResult, value):
				result := dagSpanCtx.ValueOfResult[value]
				if result == nil {
					result = dagSpanCtx.TypeOfResult[value]
				}
				dagNode := nodeFor(dagBufferCtx, access, result.ResultOf)
				isFound := hwir.SumIs(dagNode, nodeSumType, "found")
				unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
				hasResult := hwir.HasResult(unwrap)
				isNever := hwir.SumIs(dagNode, nodeSumType, "never")
				state.AddTransition(hwir.And(isFound, hasResult), fsmCtx.stateNameOf(t.TrueDest))
				state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.FalseDest))
			default:
				opSpan, ok := findAnyOperationUse(value, dagSpanCtx)
				if !ok {
					return nil, herrors.NewUnsupportedPatternFeature(t, "is_not_null value is not part of the span DAG")
				}
				dagNode := nodeFor(dagBufferCtx, access, opSpan)
				isFound := hwir.SumIs(dagNode, nodeSumType, "found")
				isNever := hwir.SumIs(dagNode, nodeSumType, "never")
				state.AddTransition(isFound, fsmCtx.stateNameOf(t.TrueDest))
				state.AddTransition(isNever, fsmCtx.stateNameOf(t.FalseDest))
			}

		case *pdlinterp.CheckOperandCount:
			opSpan, ok := dagSpanCtx.Operations[t.InputOp]
			if !ok {
				return nil, herrors.NewUnsupportedPatternFeature(t, "check_operand_count input operation is not part of the span DAG")
			}
			dagNode := nodeFor(dagBufferCtx, access, opSpan)
			isFound := hwir.SumIs(dagNode, nodeSumType, "found")
			unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
			var isAmount *hwir.Node
			switch {
			case t.CompareAtLeast && t.Count <= 0:
				isAmount = trueNode
			case t.CompareAtLeast:
				isAmount = hwir.HasOperand(unwrap, t.Count-1)
			default:
				isAmount = hwir.OperandAmountIs(unwrap, t.Count)
			}
			isNever := hwir.SumIs(dagNode, nodeSumType, "never")
			state.AddTransition(hwir.And(isFound, isAmount), fsmCtx.stateNameOf(t.TrueDest))
			state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.FalseDest))

		case *pdlinterp.SwitchOperandCount:
			opSpan, ok := dagSpanCtx.Operations[t.InputOp]
			if !ok {
				return nil, herrors.NewUnsupportedPatternFeature(t, "switch_operand_count input operation is not part of the span DAG")
			}
			dagNode := nodeFor(dagBufferCtx, access, opSpan)
			isFound := hwir.SumIs(dagNode, nodeSumType, "found")
			unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
			for i, caseVal := range t.CaseValues {
				guard := hwir.And(isFound, hwir.OperandAmountIs(unwrap, caseVal))
				state.AddTransition(guard, fsmCtx.stateNameOf(t.Cases[i]))
			}
			isNever := hwir.SumIs(dagNode, nodeSumType, "never")
			state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.DefaultDest))

		case *pdlinterp.SwitchOperationName:
			opSpan, ok := dagSpanCtx.Operations[t.InputOp]
			if !ok {
				return nil, herrors.NewUnsupportedPatternFeature(t, "switch_operation_name input operation is not part of the span DAG")
			}
			dagNode := nodeFor(dagBufferCtx, access, opSpan)
			isFound := hwir.SumIs(dagNode, nodeSumType, "found")
			unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
			for i, caseVal := range t.CaseValues {
				guard := hwir.And(isFound, hwir.IsOperation(unwrap, caseVal))
				state.AddTransition(guard, fsmCtx.stateNameOf(t.Cases[i]))
			}
			isNever := hwir.SumIs(dagNode, nodeSumType, "never")
			state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.DefaultDest))

		case *pdlinterp.CheckResultCount:
			opSpan, ok := dagSpanCtx.Operations[t.InputOp]
			if !ok {
				return nil, herrors.NewUnsupportedPatternFeature(t, "check_result_count input operation is not part of the span DAG")
			}
			dagNode := nodeFor(dagBufferCtx, access, opSpan)
			isFound := hwir.SumIs(dagNode, nodeSumType, "found")
			// check_result_count's Python reads HwOpHasResult off the raw
			// pdl_interp input_op value rather than the "found" unwrap
			// every other case uses; input_op has no wire inside the FSM
			// at all, so this uses the unwrapped value instead, matching
			// every neighboring case's own convention.
			unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
			hasResult := hwir.HasResult(unwrap)
			var isExpected *hwir.Node
			switch {
			case t.CompareAtLeast && t.Count <= 0:
				isExpected = trueNode
			case t.CompareAtLeast && t.Count > 1:
				isExpected = falseNode
			case t.CompareAtLeast:
				isExpected = hasResult
			case !t.CompareAtLeast && t.Count == 0:
				isExpected = hwir.Not(hasResult)
			case !t.CompareAtLeast && t.Count == 1:
				isExpected = hasResult
			default:
				isExpected = falseNode
			}
			isNever := hwir.SumIs(dagNode, nodeSumType, "never")
			state.AddTransition(hwir.And(isFound, isExpected), fsmCtx.stateNameOf(t.TrueDest))
			state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.FalseDest))

		case *pdlinterp.SwitchResultCount:
			opSpan, ok := dagSpanCtx.Operations[t.InputOp]
			if !ok {
				return nil, herrors.NewUnsupportedPatternFeature(t, "switch_result_count input operation is not part of the span DAG")
			}
			dagNode := nodeFor(dagBufferCtx, access, opSpan)
			targetForZero := t.DefaultDest
			targetForOne := t.DefaultDest
			for i, v := range t.CaseValues {
				if v == 0 {
					targetForZero = t.Cases[i]
				}
				if v == 1 {
					targetForOne = t.Cases[i]
				}
			}
			isFound := hwir.SumIs(dagNode, nodeSumType, "found")
			unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
			hasResult := hwir.HasResult(unwrap)
			if targetForZero != t.DefaultDest {
				guard := hwir.And(isFound, hwir.Not(hasResult))
				state.AddTransition(guard, fsmCtx.stateNameOf(targetForZero))
			}
			if targetForOne != t.DefaultDest {
				guard := hwir.And(isFound, hasResult)
				state.AddTransition(guard, fsmCtx.stateNameOf(targetForOne))
			}
			isNever := hwir.SumIs(dagNode, nodeSumType, "never")
			state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.DefaultDest))

		case *pdlinterp.SwitchType:
			var opSpan *span.OperationSpan
			var operandIndex int
			isOperand := false
			if o, ok := dagSpanCtx.TypeOfOperand[t.Value]; ok {
				opSpan = o.OperandOf
				operandIndex = o.OperandIndex
				isOperand = true
			} else if r, ok := dagSpanCtx.TypeOfResult[t.Value]; ok {
				opSpan = r.ResultOf
			} else {
				return nil, herrors.NewUnsupportedPatternFeature(t, "switch_type value is not part of the span DAG")
			}
			dagNode := nodeFor(dagBufferCtx, access, opSpan)
			isFound := hwir.SumIs(dagNode, nodeSumType, "found")
			unwrap := hwir.SumGetAs(dagNode, nodeSumType, "found")
			for i, caseType := range t.CaseValues {
				var isRight *hwir.Node
				if isOperand {
					isRight = hwir.OperandTypeIs(unwrap, operandIndex, string(caseType))
				} else {
					isRight = hwir.ResultTypeIs(unwrap, string(caseType))
				}
				state.AddTransition(hwir.And(isFound, isRight), fsmCtx.stateNameOf(t.Cases[i]))
			}
			isNever := hwir.SumIs(dagNode, nodeSumType, "never")
			state.AddTransition(hwir.Or(isFound, isNever), fsmCtx.stateNameOf(t.DefaultDest))

		case *pdlinterp.SwitchTypes:
			return nil, herrors.NewUnsupportedPatternFeature(t, "switch_types has no defined FSM guard semantics")

		case *pdlinterp.AreEqual:
			lhsOperand, lhsIsOperand := dagSpanCtx.ValueOfOperand[t.Lhs]
			var lhsResult *span.ResultSpan
			if !lhsIsOperand {
				lhsResult = dagSpanCtx.ValueOfResult[t.Lhs]
				if lhsResult == nil {
					return nil, herrors.NewUnsupportedPatternFeature(t, "are_equal lhs is neither an operand nor a result value")
				}
			}
			rhsOperand, rhsIsOperand := dagSpanCtx.ValueOfOperand[t.Rhs]
			var rhsResult *span.ResultSpan
			if !rhsIsOperand {
				rhsResult = dagSpanCtx.ValueOfResult[t.Rhs]
				if rhsResult == nil {
					return nil, herrors.NewUnsupportedPatternFeature(t, "are_equal rhs is neither an operand nor a result value")
				}
			}

			var lhsBlocker, rhsBlocker *span.OperationSpan
			var trueTransition *hwir.Transition
			switch {
			case lhsIsOperand && rhsIsOperand:
				lhsBlocker = lhsOperand.OperandOf
				rhsBlocker = rhsOperand.OperandOf
				trueTransition = areEqualValues(fsmCtx, t.TrueDest, lhsBlocker, lhsOperand.DefiningOp, rhsBlocker, rhsOperand.DefiningOp, root, dagBufferCtx, access, enc, nodeSumType)
			case lhsIsOperand && !rhsIsOperand:
				lhsBlocker = lhsOperand.OperandOf
				rhsBlocker = findUserOfResultOrSelf(rhsResult, root)
				trueTransition = areEqualValues(fsmCtx, t.TrueDest, lhsBlocker, lhsOperand.DefiningOp, rhsBlocker, rhsResult.ResultOf, root, dagBufferCtx, access, enc, nodeSumType)
			case !lhsIsOperand && rhsIsOperand:
				lhsBlocker = findUserOfResultOrSelf(lhsResult, root)
				rhsBlocker = rhsOperand.OperandOf
				trueTransition = areEqualValues(fsmCtx, t.TrueDest, lhsBlocker, lhsResult.ResultOf, rhsBlocker, rhsOperand.DefiningOp, root, dagBufferCtx, access, enc, nodeSumType)
			default:
				lhsBlocker = findUserOfResultOrSelf(lhsResult, root)
				rhsBlocker = findUserOfResultOrSelf(rhsResult, root)
				trueTransition = areEqualValues(fsmCtx, t.TrueDest, lhsBlocker, lhsResult.ResultOf, rhsBlocker, rhsResult.ResultOf, root, dagBufferCtx, access, enc, nodeSumType)
			}
			state.Transitions = append(state.Transitions, trueTransition)

			lhsBlockerNode := nodeFor(dagBufferCtx, access, lhsBlocker)
			rhsBlockerNode := nodeFor(dagBufferCtx, access, rhsBlocker)
			foundBoth := hwir.And(hwir.SumIs(lhsBlockerNode, nodeSumType, "found"), hwir.SumIs(rhsBlockerNode, nodeSumType, "found"))
			neverLhs := hwir.SumIs(lhsBlockerNode, nodeSumType, "never")
			neverRhs := hwir.SumIs(rhsBlockerNode, nodeSumType, "never")
			state.AddTransition(hwir.Or(foundBoth, neverLhs, neverRhs), fsmCtx.stateNameOf(t.FalseDest))

		default:
			return nil, herrors.NewUnsupportedPatternFeature(block.Term, "terminator has no FSM synthesis translation")
		}

		machine.AddState(state)
	}

	return machine, nil
}

func mapHas(m map[*pdlinterp.Value]*span.OperandSpan, v *pdlinterp.Value) bool {
	_, ok := m[v]
	return ok
}

func mapHasResult(m map[*pdlinterp.Value]*span.ResultSpan, v *pdlinterp.Value) bool {
	_, ok := m[v]
	return ok
}
