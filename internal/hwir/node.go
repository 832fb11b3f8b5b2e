package hwir

import "fmt"

// Node is one value-producing node of the hardware dataflow graph: a
// combinational operation, a register, a constant, or one of the
// hw_sum/hw_op accessors. Nodes are built bottom-up and referenced
// directly by Go pointer; there is no separate use-list the way
// pdlinterp.Value needs one, because this graph is only ever walked
// top-down by stage D lowering and never needs to answer "who uses me".
type Node struct {
	Op       string
	Operands []*Node
	Attrs    map[string]any
	Result   Type
}

func (n *Node) Type() Type { return n.Result }

func (n *Node) String() string {
	return fmt.Sprintf("%s : %s", n.Op, n.Result)
}

func newNode(op string, result Type, attrs map[string]any, operands ...*Node) *Node {
	return &Node{Op: op, Operands: operands, Attrs: attrs, Result: result}
}

// Const materializes a constant bit pattern of the given width.
func Const(value uint64, width int) *Node {
	return newNode("hw.constant", Int(width), map[string]any{"value": value})
}

// True and False are the one-bit constants used throughout filler-cell
// and FSM wiring.
func True() *Node  { return Const(1, 1) }
func False() *Node { return Const(0, 1) }

// Concat joins inputs MSB-first into one wider integer, grounded on
// comb.py's CombConcat.from_values.
func Concat(inputs ...*Node) *Node {
	width := 0
	for _, in := range inputs {
		width += in.Result.Width()
	}
	return newNode("comb.concat", Int(width), nil, inputs...)
}

// Extract reads resultWidth bits out of input starting at bit lowBit,
// grounded on comb.py's CombExtract.
func Extract(input *Node, lowBit, resultWidth int) *Node {
	return newNode("comb.extract", Int(resultWidth), map[string]any{"lowBit": lowBit}, input)
}

// ICmpEq is the equality comparator used throughout the filler cells and
// are_equal lowering; comb.py models the full ICmpPredicate enum but
// this repository only ever needs equality.
func ICmpEq(lhs, rhs *Node) *Node {
	return newNode("comb.icmp", I1, map[string]any{"predicate": "eq"}, lhs, rhs)
}

// Xor, And, Or are the variadic bitwise ops, grounded on comb.py's
// CombXor/CombAnd/CombOr. All operands must share one input's width;
// that width becomes the result width.
func Xor(inputs ...*Node) *Node { return variadicBitwise("comb.xor", inputs) }
func And(inputs ...*Node) *Node { return variadicBitwise("comb.and", inputs) }
func Or(inputs ...*Node) *Node  { return variadicBitwise("comb.or", inputs) }

func variadicBitwise(op string, inputs []*Node) *Node {
	var width int
	if len(inputs) > 0 {
		width = inputs[0].Result.Width()
	}
	return newNode(op, Int(width), nil, inputs...)
}

// Sub is integer subtraction, grounded on comb.py's CombSub.
func Sub(lhs, rhs *Node) *Node {
	return newNode("comb.sub", Int(lhs.Result.Width()), nil, lhs, rhs)
}

// Add sums a list of same-width integers, grounded on the CombAdd
// lowering/pdli_to_fsm.py's _sum_path uses (comb.py's own file in this
// pack only shows Sub, but Add is its direct variadic sibling and
// int_hw_op.py/int_hw_sum.py assume it exists the same way).
func Add(inputs ...*Node) *Node {
	return variadicBitwise("comb.add", inputs)
}

// Not is Xor against an all-ones constant of in's width, the idiom
// is_stream_running uses against is_stream_paused in
// lowering/pdli_to_matcher_unit.py's build_filler_node.
func Not(in *Node) *Node {
	if in.Result.Width() == 1 {
		return Xor(in, True())
	}
	mask := uint64(1)<<uint(in.Result.Width()) - 1
	return Xor(in, Const(mask, in.Result.Width()))
}

// Mux selects trueVal when cond is set, falseVal otherwise, grounded on
// comb.py's CombMux.
func Mux(cond, trueVal, falseVal *Node) *Node {
	return newNode("comb.mux", trueVal.Result, nil, cond, trueVal, falseVal)
}

// Arg is a leaf value standing for a block/region argument: an
// hw.module port or an fsm.machine formal parameter. It carries no
// operands of its own.
func Arg(name string, typ Type) *Node {
	return newNode("arg", typ, map[string]any{"name": name})
}
