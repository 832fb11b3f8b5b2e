package lowering

import (
	"github.com/hwmatch/hwmatch/internal/encoder"
	herrors "github.com/hwmatch/hwmatch/internal/errors"
	"github.com/hwmatch/hwmatch/internal/hwir"
)

// bitLength returns the number of bits needed to represent n (0 for n
// == 0), i.e. n's position relative to the next power of two -- not its
// population count. int_hw_op.py's own opcode-catalog filter calls
// bit_count() here, Python's name for population count; for an opcode
// catalog that is almost always sparse (few set bits per opcode), a
// popcount bound is nearly always true and filters out almost nothing,
// which defeats the filter's evident purpose of excluding any catalog
// entry whose opcode doesn't fit in the configured opcode field width.
// This uses bit length instead, matching that intent.
func bitLength(n int) int {
	bits := 0
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}

// isInSet builds the big-OR-of-equalities membership test int_hw_op.py's
// is_in_set_replace_helper builds: extract the opcode field out of op,
// compare it against every candidate opcode, OR the results together. An
// empty candidate set lowers to a constant false, matching the helper's
// own empty-set special case; a single candidate lowers to its one
// comparison with no OR around it.
func isInSet(op *hwir.Node, opcodeWidth int, opcodes []int) *hwir.Node {
	if len(opcodes) == 0 {
		return hwir.False()
	}
	extracted := hwir.Extract(op, 0, opcodeWidth)
	checks := make([]*hwir.Node, 0, len(opcodes))
	for _, opcode := range opcodes {
		checks = append(checks, hwir.ICmpEq(extracted, hwir.Const(uint64(opcode), opcodeWidth)))
	}
	if len(checks) == 1 {
		return checks[0]
	}
	return hwir.Or(checks...)
}

// OperationLowering rewrites every hw_op.* accessor reachable from a root
// into comb ops over the flat wire encoding of an in-stream operation,
// grounded on int_hw_op.py's LowerIntegerHwOperation. Run SumLowering
// over the same graph first: the hw_op.* nodes' own operand is itself
// usually the payload of a hw_sum.get_as("found", ...), and that must
// already be a flat integer before GetOpcode/GetOperandOffset's bit
// offsets mean anything.
type OperationLowering struct {
	visited map[*hwir.Node]bool
	enc     encoder.EncodingContext
	opCtx   encoder.OperationContext
}

func NewOperationLowering(enc encoder.EncodingContext, opCtx encoder.OperationContext) *OperationLowering {
	return &OperationLowering{visited: make(map[*hwir.Node]bool), enc: enc, opCtx: opCtx}
}

// Lower rewrites n and everything it transitively depends on. Safe to
// call repeatedly on overlapping subgraphs.
func (l *OperationLowering) Lower(n *hwir.Node) error {
	if n == nil || l.visited[n] {
		return nil
	}
	l.visited[n] = true

	for _, operand := range n.Operands {
		if err := l.Lower(operand); err != nil {
			return err
		}
	}

	opType := hwir.OperationTypeFromEncodingContext(l.enc)

	switch n.Op {
	case "hw_op.get_opcode":
		op := n.Operands[0]
		*n = *hwir.Extract(op, 0, opType.OpcodeWidth)

	case "hw_op.get_operand_offset":
		op := n.Operands[0]
		operand := n.Attrs["operand"].(int)
		lowBit := opType.OpcodeWidth + operand*opType.OperandOffsetWidth
		*n = *hwir.Extract(op, lowBit, opType.OperandOffsetWidth)

	case "hw_op.has_operand":
		op := n.Operands[0]
		operand := n.Attrs["operand"].(int)
		var opcodes []int
		for _, info := range l.opCtx.Operations {
			if operand < len(info.OperandTypes) && bitLength(info.Opcode) <= opType.OpcodeWidth {
				opcodes = append(opcodes, info.Opcode)
			}
		}
		*n = *isInSet(op, opType.OpcodeWidth, opcodes)

	case "hw_op.operand_type_is":
		op := n.Operands[0]
		operand := n.Attrs["operand"].(int)
		typ := n.Attrs["type"].(string)
		var opcodes []int
		for _, info := range l.opCtx.Operations {
			if operand < len(info.OperandTypes) && string(info.OperandTypes[operand]) == typ && bitLength(info.Opcode) <= opType.OpcodeWidth {
				opcodes = append(opcodes, info.Opcode)
			}
		}
		*n = *isInSet(op, opType.OpcodeWidth, opcodes)

	case "hw_op.operand_amount_is":
		op := n.Operands[0]
		count := n.Attrs["count"].(int)
		var opcodes []int
		for _, info := range l.opCtx.Operations {
			if len(info.OperandTypes) == count && bitLength(info.Opcode) <= opType.OpcodeWidth {
				opcodes = append(opcodes, info.Opcode)
			}
		}
		*n = *isInSet(op, opType.OpcodeWidth, opcodes)

	case "hw_op.has_result":
		op := n.Operands[0]
		var opcodes []int
		for _, info := range l.opCtx.Operations {
			if info.HasResult() && bitLength(info.Opcode) <= opType.OpcodeWidth {
				opcodes = append(opcodes, info.Opcode)
			}
		}
		*n = *isInSet(op, opType.OpcodeWidth, opcodes)

	case "hw_op.is_operation":
		op := n.Operands[0]
		name := n.Attrs["name"].(string)
		info, ok := l.opCtx.Lookup(name)
		if !ok {
			return herrors.NewOperationNotFoundInContext(name)
		}
		*n = *isInSet(op, opType.OpcodeWidth, []int{info.Opcode})

	// result_type_is has no counterpart in int_hw_op.py, which never
	// lowers HwOpResultTypeIs; filled in here by the same pattern as
	// operand_type_is since stage C can still emit it (hwop.go models
	// it) and leaving it unlowered would pass a hw_op.* node straight
	// through to the netlist.
	case "hw_op.result_type_is":
		op := n.Operands[0]
		typ := n.Attrs["type"].(string)
		var opcodes []int
		for _, info := range l.opCtx.Operations {
			if info.HasResult() && string(*info.ResultType) == typ && bitLength(info.Opcode) <= opType.OpcodeWidth {
				opcodes = append(opcodes, info.Opcode)
			}
		}
		*n = *isInSet(op, opType.OpcodeWidth, opcodes)
	}

	return nil
}
