package span

import (
	herrors "github.com/hwmatch/hwmatch/internal/errors"
	"github.com/hwmatch/hwmatch/internal/pdlinterp"
)

// ComputeUsageGraph walks region's use-def graph from its root value and
// builds the Span DAG, grounded on pattern_dag_span.py's
// compute_usage_graph. It first rejects a cyclic control-flow graph
// (spec §4.2 step 1), then walks every use of every value reachable from
// the root, recording which pieces of the matched operation tree the
// pattern actually inspects.
func ComputeUsageGraph(region *pdlinterp.Region) (*OperationSpan, *Ctx, error) {
	if region.HasCycle() {
		return nil, nil, herrors.NewUnsupportedPatternFeature(region.Entry(), "control-flow graph contains a cycle")
	}

	ctx := newCtx()
	rootValue := region.RootValue()
	root := newOperationSpan()
	root.addValue(ctx, rootValue)

	if _, err := walkOperation(ctx, rootValue, root); err != nil {
		return nil, nil, err
	}
	return root, ctx, nil
}

func addOperand(ctx *Ctx, op *OperationSpan, operand *pdlinterp.Value, index int) *OperandSpan {
	s, ok := op.Operands[index]
	if !ok {
		s = newOperandSpan(op, index)
		op.Operands[index] = s
	}
	if operand != nil {
		s.addValue(ctx, operand)
	}
	return s
}

func addResult(ctx *Ctx, op *OperationSpan, result *pdlinterp.Value, index int) *ResultSpan {
	s, ok := op.Results[index]
	if !ok {
		s = newResultSpan(op, index)
		op.Results[index] = s
	}
	if result != nil {
		s.addValue(ctx, result)
	}
	return s
}

// walkOperation walks every use of value, a pattern-IR value denoting an
// operation, recording what opSpan's operands/results are inspected for.
func walkOperation(ctx *Ctx, value *pdlinterp.Value, opSpan *OperationSpan) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch op := use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.CheckOperandCount, *pdlinterp.CheckOperationName,
			*pdlinterp.CheckResultCount, *pdlinterp.IsNotNull, *pdlinterp.RecordMatch,
			*pdlinterp.SwitchOperandCount, *pdlinterp.SwitchOperationName, *pdlinterp.SwitchResultCount:
			used = true
		case *pdlinterp.GetOperand:
			operandSpan := addOperand(ctx, opSpan, op.Result, op.Index)
			sub, err := walkOperand(ctx, op.Result, operandSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetOperands:
			if op.Index == nil {
				opSpan.addOperandRange(ctx, op.Result)
				sub, err := walkOperandRange(ctx, op.Result, opSpan)
				if err != nil {
					return false, err
				}
				used = used || sub
				continue
			}
			operandSpan := addOperand(ctx, opSpan, op.Result, *op.Index)
			sub, err := walkOperand(ctx, op.Result, operandSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetResult:
			resultSpan := addResult(ctx, opSpan, op.Result, op.Index)
			sub, err := walkResult(ctx, op.Result, resultSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetResults:
			if op.Index == nil {
				opSpan.addResultRange(ctx, op.Result)
				sub, err := walkResultRange(ctx, op.Result, opSpan)
				if err != nil {
					return false, err
				}
				used = used || sub
				continue
			}
			resultSpan := addResult(ctx, opSpan, op.Result, *op.Index)
			sub, err := walkResult(ctx, op.Result, resultSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		default:
			return false, herrors.NewUnsupportedPatternFeature(use, "op not valid as a use of an operation value")
		}
	}
	if used {
		opSpan.Used = true
	}
	return opSpan.Used, nil
}

// walkOperand walks every use of value, a pattern-IR value denoting a
// single operand.
func walkOperand(ctx *Ctx, value *pdlinterp.Value, operandSpan *OperandSpan) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch op := use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.IsNotNull, *pdlinterp.RecordMatch:
			used = true
		case *pdlinterp.GetDefiningOp:
			operandSpan.DefiningOp.addValue(ctx, op.Result)
			sub, err := walkOperation(ctx, op.Result, operandSpan.DefiningOp)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetValueType:
			operandSpan.addType(ctx, op.Result)
			sub, err := walkType(op.Result)
			if err != nil {
				return false, err
			}
			used = used || sub
		default:
			return false, herrors.NewUnsupportedPatternFeature(use, "op not valid as a use of an operand value")
		}
	}
	return used, nil
}

// walkResult walks every use of value, a pattern-IR value denoting a
// single result.
func walkResult(ctx *Ctx, value *pdlinterp.Value, resultSpan *ResultSpan) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch op := use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.IsNotNull, *pdlinterp.RecordMatch:
			used = true
		case *pdlinterp.GetDefiningOp:
			resultSpan.ResultOf.addValue(ctx, op.Result)
			sub, err := walkOperation(ctx, op.Result, resultSpan.ResultOf)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetValueType:
			resultSpan.addType(ctx, op.Result)
			sub, err := walkType(op.Result)
			if err != nil {
				return false, err
			}
			used = used || sub
		default:
			return false, herrors.NewUnsupportedPatternFeature(use, "op not valid as a use of a result value")
		}
	}
	return used, nil
}

// walkOperandRange walks every use of value, a pattern-IR value denoting
// a range of operands. Unrecognized uses are silently ignored rather
// than rejected, a faithful carry-through of the same gap in
// pattern_dag_span.py's walk_operand_range.
func walkOperandRange(ctx *Ctx, value *pdlinterp.Value, opSpan *OperationSpan) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch op := use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.IsNotNull:
			used = true
		case *pdlinterp.Extract:
			if op.Index != 0 {
				return false, herrors.NewUnsupportedPatternFeature(op, "extract with a non-zero index on an operand range")
			}
			operandSpan := addOperand(ctx, opSpan, op.Result, op.Index)
			sub, err := walkOperand(ctx, op.Result, operandSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetDefiningOp:
			operandSpan := addOperand(ctx, opSpan, nil, 0)
			operandSpan.DefiningOp.addValue(ctx, op.Result)
			sub, err := walkOperation(ctx, op.Result, operandSpan.DefiningOp)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetValueType:
			opSpan.addOperandTypeRange(ctx, op.Result)
			sub, err := walkTypeRange(op.Result)
			if err != nil {
				return false, err
			}
			used = used || sub
		}
	}
	return used, nil
}

// walkResultRange walks every use of value, a pattern-IR value denoting
// a range of results.
func walkResultRange(ctx *Ctx, value *pdlinterp.Value, opSpan *OperationSpan) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch op := use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.IsNotNull:
			used = true
		case *pdlinterp.Extract:
			if op.Index != 0 {
				return false, herrors.NewUnsupportedPatternFeature(op, "extract with a non-zero index on a result range")
			}
			resultSpan := addResult(ctx, opSpan, op.Result, op.Index)
			sub, err := walkResult(ctx, op.Result, resultSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetDefiningOp:
			opSpan.addValue(ctx, op.Result)
			sub, err := walkOperation(ctx, op.Result, opSpan)
			if err != nil {
				return false, err
			}
			used = used || sub
		case *pdlinterp.GetValueType:
			opSpan.addResultTypeRange(ctx, op.Result)
			sub, err := walkTypeRange(op.Result)
			if err != nil {
				return false, err
			}
			used = used || sub
		}
	}
	return used, nil
}

// walkTypeRange walks every use of value, a pattern-IR value denoting a
// range of types. Leaf-level: no further span structure to recurse into.
func walkTypeRange(value *pdlinterp.Value) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch op := use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.CheckTypes, *pdlinterp.IsNotNull, *pdlinterp.SwitchTypes:
			used = true
		case *pdlinterp.Extract:
			if op.Index != 0 {
				return false, herrors.NewUnsupportedPatternFeature(op, "extract with a non-zero index on a type range")
			}
			sub, err := walkType(op.Result)
			if err != nil {
				return false, err
			}
			used = used || sub
		}
	}
	return used, nil
}

// walkType walks every use of value, a pattern-IR value denoting a
// single type.
func walkType(value *pdlinterp.Value) (bool, error) {
	used := false
	for _, use := range value.Uses() {
		switch use.(type) {
		case *pdlinterp.AreEqual, *pdlinterp.CheckType, *pdlinterp.IsNotNull, *pdlinterp.SwitchType:
			used = true
		default:
			return false, herrors.NewUnsupportedPatternFeature(use, "op not valid as a use of a type value")
		}
	}
	return used, nil
}
