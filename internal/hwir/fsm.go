package hwir

// Transition is one guarded edge out of a State: when Guard evaluates
// true, control moves to the state named NextState. spec §3.5 requires
// every conditional branch in the pattern to become exactly two such
// transitions (never an unguarded wait), so Machine building code never
// leaves a state without a transition covering the complement of an
// existing guard.
type Transition struct {
	Guard     *Node
	NextState string
}

// State is one node of the matcher FSM: a combinational Output
// expression (the per-state status value, spec §3.5) and its outgoing
// Transitions, evaluated in order with the first true Guard taken.
type State struct {
	Name        string
	Output      *Node
	Transitions []*Transition
}

func NewState(name string, output *Node) *State {
	return &State{Name: name, Output: output}
}

func (s *State) AddTransition(guard *Node, nextState string) {
	s.Transitions = append(s.Transitions, &Transition{Guard: guard, NextState: nextState})
}

// Machine is the matcher FSM itself, grounded on fsm.py's FsmMachine:
// one State per interpreter block plus the STATE_FAILURE sink, an
// initial state, and the input/output port list the surrounding
// hw.module instantiates it with.
type Machine struct {
	Name    string
	Inputs  []Port
	Outputs []Port
	Initial string
	States  []*State
}

func NewMachine(name string, inputs []Port, outputs []Port, initial string) *Machine {
	return &Machine{Name: name, Inputs: inputs, Outputs: outputs, Initial: initial}
}

func (m *Machine) AddState(s *State) { m.States = append(m.States, s) }

// Instantiate builds the fsm.hw_instance node that wires the machine
// into the surrounding hw.module, grounded on fsm.py's FsmHwInstance.
func Instantiate(name string, machine *Machine, inputs []*Node, clock, reset *Node, outputType Type) *Node {
	return newNode("fsm.hw_instance", outputType, map[string]any{"name": name, "machine": machine}, append([]*Node{clock, reset}, inputs...)...)
}
