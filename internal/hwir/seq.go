package hwir

// Register is a synchronous register with clock-enable and
// synchronous-reset-to-value semantics, grounded on seq.py's
// SeqCompregCe. Input is set after construction via SetInput, mirroring
// build_filler_node's own two-step wiring (the register is declared with
// a placeholder input and patched once the feedback mux is built,
// because the mux's own inputs reference the register's output).
type Register struct {
	Name       string
	Input      *Node
	Clock      *Node
	Enable     *Node
	Reset      *Node
	ResetValue *Node
	Data       *Node
}

// NewRegister declares a register and returns it with Data already
// populated, so downstream nodes can reference its output before Input
// is finalized with SetInput.
func NewRegister(name string, typ Type, input, clock, enable, reset, resetValue *Node) *Register {
	r := &Register{Name: name, Input: input, Clock: clock, Enable: enable, Reset: reset, ResetValue: resetValue}
	r.Data = newNode("seq.compreg.ce", typ, map[string]any{"name": name}, input, clock, enable, reset, resetValue)
	return r
}

// SetInput patches the register's data input after construction, the
// way build_filler_node replaces register.operand(0) with the finished
// feedback mux once it is built.
func (r *Register) SetInput(input *Node) {
	r.Input = input
	if len(r.Data.Operands) > 0 {
		r.Data.Operands[0] = input
	}
}
