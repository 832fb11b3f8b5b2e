// Package encoder holds the two configuration structs synthesis is
// parameterized over: the bit-width layout of the wire encoding
// (EncodingContext) and the static opcode catalog (OperationContext).
// Both are supplied by the caller at a single entry point and are never
// mutated once synthesis starts.
package encoder

import "encoding/json"

// TypeTag identifies a subject-IR value type. The type system of the
// subject IR is opaque to this repository beyond equality comparison and
// naming, so a tag is just a name.
type TypeTag string

// EncodingContext fixes the three widths that determine how an in-stream
// operation is bit-packed: opcode_width + max_operand_amount *
// operand_offset_width, per spec §3.1.
type EncodingContext struct {
	OpcodeWidth        int `json:"opcode_width"`
	OperandOffsetWidth int `json:"operand_offset_width"`
	MaxOperandAmount   int `json:"max_operand_amount"`
}

// TotalWidth returns the bit width of one encoded operation on the wire.
func (e EncodingContext) TotalWidth() int {
	return e.OpcodeWidth + e.MaxOperandAmount*e.OperandOffsetWidth
}

// OperationInfo is one catalog entry: the dense opcode assigned to an
// operation name, its ordered operand types, and its optional result
// type (subject-IR operations have zero or one result).
type OperationInfo struct {
	Opcode       int       `json:"opcode"`
	OperandTypes []TypeTag `json:"operand_types"`
	ResultType   *TypeTag  `json:"result_type,omitempty"`
}

// HasResult reports whether this operation produces a result.
func (o OperationInfo) HasResult() bool {
	return o.ResultType != nil
}

// OperationContext is the static catalog mapping opcode name to
// OperationInfo, fixed at synthesis time.
type OperationContext struct {
	Operations map[string]OperationInfo `json:"operations"`
}

// Lookup returns the catalog entry for name, or
// errors.OperationNotFoundInContext-worthy ok=false if absent. Callers in
// stage D are expected to wrap a miss into that typed error themselves so
// this package does not need to import internal/errors.
func (c OperationContext) Lookup(name string) (OperationInfo, bool) {
	info, ok := c.Operations[name]
	return info, ok
}

// ParseOperationContext loads an OperationContext from its JSON form, the
// way sentra's own internal/build and internal/lsp packages load
// configuration with encoding/json rather than a config framework.
func ParseOperationContext(data []byte) (OperationContext, error) {
	var ctx OperationContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return OperationContext{}, err
	}
	return ctx, nil
}

// ParseEncodingContext loads an EncodingContext from its JSON form.
func ParseEncodingContext(data []byte) (EncodingContext, error) {
	var ctx EncodingContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return EncodingContext{}, err
	}
	return ctx, nil
}
