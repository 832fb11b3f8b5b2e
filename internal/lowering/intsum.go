// Package lowering is stage D: it rewrites the tagged unions and
// operation-shaped values stage C built against into flat integers, the
// only thing real hardware can actually carry on a wire.
//
// Grounded on lowering/int_hw_sum.py (tagged-union lowering) and
// lowering/int_hw_op.py (operation-value lowering), adapted from xDSL's
// PatternRewriter/match_and_rewrite machinery onto in-place mutation of
// this repository's hwir.Node graph: since a Node already is the value
// its users hold a pointer to, "replacing" a node is done by overwriting
// its Op/Operands/Attrs/Result fields in place rather than splicing a new
// SSA value into a use-list.
package lowering

import "github.com/hwmatch/hwmatch/internal/hwir"

// sumInfo is the flattened shape of a sum type once lowered: variantWidth
// tag bits low, dataWidth payload bits high, grounded on int_hw_sum.py's
// IntegerHwSumInfo.
type sumInfo struct {
	variantWidth int
	dataWidth    int
}

// rawTagWidth computes ceil(log2(numVariants)) without the minimum-1 floor
// hwir.SumType.TagWidth applies for its own wire-layout bookkeeping;
// int_hw_sum.py's variant_width is allowed to be exactly 0 for a
// single-variant sum, which is what triggers HwSumCreate's erase-and-
// replace-by-data special case below.
func rawTagWidth(numVariants int) int {
	if numVariants <= 1 {
		return 0
	}
	bits := 0
	for v := numVariants - 1; v > 0; v >>= 1 {
		bits++
	}
	return bits
}

func computeSumInfo(st hwir.SumType) sumInfo {
	return sumInfo{variantWidth: rawTagWidth(len(st.Variants)), dataWidth: st.PayloadWidth()}
}

func flattenSumType(st hwir.SumType) hwir.IntType {
	info := computeSumInfo(st)
	return hwir.Int(info.variantWidth + info.dataWidth)
}

// SumLowering rewrites every hw_sum.create/is/get_as node reachable from
// a root into comb ops over flat integers, and every other node's
// sum-typed Result into its flattened IntType, grounded on
// int_hw_sum.py's LowerIntegerHwSum. Apply one SumLowering across an
// entire synthesis run so a sum-typed value shared by several consumers
// (a DAG buffer cell's output, say) is only ever lowered once.
type SumLowering struct {
	visited map[*hwir.Node]bool
}

func NewSumLowering() *SumLowering {
	return &SumLowering{visited: make(map[*hwir.Node]bool)}
}

// Lower rewrites n and everything it transitively depends on. It is safe
// to call repeatedly on overlapping subgraphs: already-lowered nodes are
// a no-op the second time through.
func (l *SumLowering) Lower(n *hwir.Node) {
	if n == nil || l.visited[n] {
		return
	}
	l.visited[n] = true

	for _, operand := range n.Operands {
		l.Lower(operand)
	}

	switch n.Op {
	case "hw_sum.create":
		l.lowerCreate(n)
	case "hw_sum.is":
		l.lowerIs(n)
	case "hw_sum.get_as":
		l.lowerGetAs(n)
	default:
		if st, ok := n.Result.(hwir.SumType); ok {
			n.Result = flattenSumType(st)
		}
	}
}

func (l *SumLowering) lowerCreate(n *hwir.Node) {
	sumType := n.Attrs["sum_type"].(hwir.SumType)
	variant := n.Attrs["variant"].(string)
	info := computeSumInfo(sumType)
	data := n.Operands[0]

	if info.variantWidth == 0 {
		*n = *data
		return
	}

	idx, _ := sumType.VariantIndex(variant)
	payload := data
	if data.Result.Width() < info.dataWidth {
		padding := hwir.Const(0, info.dataWidth-data.Result.Width())
		payload = hwir.Concat(padding, data)
	}
	tag := hwir.Const(uint64(idx), info.variantWidth)
	*n = *hwir.Concat(payload, tag)
}

func (l *SumLowering) lowerIs(n *hwir.Node) {
	sumType := n.Attrs["sum_type"].(hwir.SumType)
	variant := n.Attrs["variant"].(string)
	info := computeSumInfo(sumType)
	value := n.Operands[0]

	if info.variantWidth == 0 {
		// Only one variant exists, so the tag can never disagree.
		*n = *hwir.True()
		return
	}

	idx, _ := sumType.VariantIndex(variant)
	tag := hwir.Extract(value, 0, info.variantWidth)
	expected := hwir.Const(uint64(idx), info.variantWidth)
	*n = *hwir.ICmpEq(tag, expected)
}

// lowerGetAs extracts variant's payload out of value's flattened bits.
// int_hw_sum.py's own HwSumGetAs lowering reads from bit offset
// variant_width+1, one bit past where the tag actually ends (the tag
// occupies bits [0, variant_width), so the payload starts at
// variant_width exactly); this version starts the extraction at
// variant_width.
func (l *SumLowering) lowerGetAs(n *hwir.Node) {
	sumType := n.Attrs["sum_type"].(hwir.SumType)
	variant := n.Attrs["variant"].(string)
	info := computeSumInfo(sumType)
	value := n.Operands[0]

	if info.variantWidth == 0 {
		*n = *value
		return
	}

	idx, _ := sumType.VariantIndex(variant)
	width := sumType.Variants[idx].Type.Width()
	*n = *hwir.Extract(value, info.variantWidth, width)
}
