package hwir

// Port names and types one input or output of an hw.module, grounded on
// hw.py's HwModule.from_block (argNames/resultNames).
type Port struct {
	Name string
	Type Type
}

// Module is the hardware top-level artifact generate_matcher_unit
// returns: a named block of Nodes with input ports and an ordered list
// of result expressions, grounded on hw.py's HwModule/HwOutput.
type Module struct {
	Name    string
	Inputs  []Port
	Outputs []Port
	Body    []*Node
	Results []*Node
}

// NewModule starts a module declaration with its input ports; Body and
// Results are appended as synthesis proceeds.
func NewModule(name string, inputs []Port) *Module {
	return &Module{Name: name, Inputs: inputs}
}

// Add appends a node to the module body, grounded on hw.py/comb.py's
// Block.add_op calls threaded throughout pdli_to_matcher_unit.py.
func (m *Module) Add(n *Node) *Node {
	m.Body = append(m.Body, n)
	return n
}

// SetOutputs fixes the module's named, typed result ports and their
// driving expressions, grounded on HwOutput.from_outputs plus
// HwModule.from_block's resultNames.
func (m *Module) SetOutputs(names []string, values []*Node) {
	m.Outputs = m.Outputs[:0]
	m.Results = append([]*Node(nil), values...)
	for i, name := range names {
		m.Outputs = append(m.Outputs, Port{Name: name, Type: values[i].Result})
	}
}
