package hwir

import "fmt"

// SumIs tests whether value currently holds variant, grounded on
// hw_sum.py's HwSumIs.
func SumIs(value *Node, sumType SumType, variant string) *Node {
	if _, ok := sumType.VariantIndex(variant); !ok {
		panic(fmt.Sprintf("hwir: %q is not a variant of the supplied sum type", variant))
	}
	return newNode("hw_sum.is", I1, map[string]any{"variant": variant, "sum_type": sumType}, value)
}

// SumGetAs reads value's payload reinterpreted as variant's type,
// grounded on hw_sum.py's HwSumGetAs. Stage D's int_hw_sum lowering is
// responsible for the actual bit offset (spec §4.5.1's corrected
// tag-low/payload-high layout; see SPEC_FULL.md §3).
func SumGetAs(value *Node, sumType SumType, variant string) *Node {
	idx, ok := sumType.VariantIndex(variant)
	if !ok {
		panic(fmt.Sprintf("hwir: %q is not a variant of the supplied sum type", variant))
	}
	return newNode("hw_sum.get_as", sumType.Variants[idx].Type, map[string]any{"variant": variant, "sum_type": sumType}, value)
}

// SumCreate builds a sum-typed value holding data tagged as variant,
// grounded on hw_sum.py's HwSumCreate.
func SumCreate(sumType SumType, variant string, data *Node) *Node {
	if _, ok := sumType.VariantIndex(variant); !ok {
		panic(fmt.Sprintf("hwir: %q is not a variant of the supplied sum type", variant))
	}
	return newNode("hw_sum.create", sumType, map[string]any{"variant": variant, "sum_type": sumType}, data)
}
