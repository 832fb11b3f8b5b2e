package hwir

import "github.com/hwmatch/hwmatch/internal/encoder"

// OperationType is the wire-level view of an in-stream subject-IR
// operation: a dense opcode field plus a fixed number of operand-offset
// fields, grounded on hw_op.py's HwOperation.
type OperationType struct {
	OpcodeWidth        int
	OperandOffsetWidth int
	MaxOperandAmount   int
}

func OperationTypeFromEncodingContext(enc encoder.EncodingContext) OperationType {
	return OperationType{
		OpcodeWidth:        enc.OpcodeWidth,
		OperandOffsetWidth: enc.OperandOffsetWidth,
		MaxOperandAmount:   enc.MaxOperandAmount,
	}
}

func (t OperationType) Width() int {
	return t.OpcodeWidth + t.MaxOperandAmount*t.OperandOffsetWidth
}

func (t OperationType) String() string { return "hw_op.operation" }

// GetOpcode reads the opcode field out of an in-stream operation,
// grounded on hw_op.py's HwOpGetOpcode.
func GetOpcode(op *Node, opType OperationType) *Node {
	return newNode("hw_op.get_opcode", Int(opType.OpcodeWidth), nil, op)
}

// GetOperandOffset reads the operand-th offset field, grounded on
// hw_op.py's HwOpGetOperandOffset.
func GetOperandOffset(op *Node, opType OperationType, operand int) *Node {
	return newNode("hw_op.get_operand_offset", Int(opType.OperandOffsetWidth), map[string]any{"operand": operand}, op)
}

// HasOperand reports whether op is encoded with at least operand+1
// operands, grounded on hw_op.py's HwOpHasOperand.
func HasOperand(op *Node, operand int) *Node {
	return newNode("hw_op.has_operand", I1, map[string]any{"operand": operand}, op)
}

// HasResult reports whether op produces a result, grounded on
// hw_op.py's HwOpHasResult (only modeled in the int_hw_op lowering file,
// since the dialect file in this pack predates it, but exercised
// throughout pdli_to_fsm.py).
func HasResult(op *Node) *Node {
	return newNode("hw_op.has_result", I1, nil, op)
}

// OperandAmountIs reports whether op is encoded with exactly count
// operands, grounded on hw_op.py's HwOpOperandAmountIs.
func OperandAmountIs(op *Node, count int) *Node {
	return newNode("hw_op.operand_amount_is", I1, map[string]any{"count": count}, op)
}

// IsOperation reports whether op's opcode matches name, grounded on
// hw_op.py's HwOpIsOperation. Stage D's int_hw_op lowering resolves name
// to its static opcode via the OperationContext.
func IsOperation(op *Node, name string) *Node {
	return newNode("hw_op.is_operation", I1, map[string]any{"name": name}, op)
}

// OperandTypeIs reports whether op's operand-th operand has the given
// type, grounded on hw_op.py's HwOpOperandTypeIs.
func OperandTypeIs(op *Node, operand int, typ string) *Node {
	return newNode("hw_op.operand_type_is", I1, map[string]any{"operand": operand, "type": typ}, op)
}

// ResultTypeIs reports whether op's result has the given type, grounded
// on hw_op.py's HwOpResultTypeIs.
func ResultTypeIs(op *Node, typ string) *Node {
	return newNode("hw_op.result_type_is", I1, map[string]any{"type": typ}, op)
}
