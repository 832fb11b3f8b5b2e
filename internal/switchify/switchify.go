// Package switchify implements stage A of the synthesis pipeline: it
// normalizes a pattern's interpreter form so every conditional terminator
// is a single-case switch over its fallthrough destination, collapsing
// check_attribute/check_operation_name/check_type/check_types into their
// switch_* equivalents. Everything downstream (stage B's Span DAG walk
// and stage C's FSM synthesis) only ever has to handle switch_* and the
// small set of terminators spec.md keeps binary (is_not_null,
// check_operand_count, check_result_count, are_equal, record_match,
// branch, finalize).
//
// Grounded on lowering/pdli_switchify.py's SwitchifyPdlInterp rewrite:
// each check_X(true_dest, false_dest) becomes switch_X({value: true_dest},
// default=false_dest), in place, one block at a time.
package switchify

import (
	"github.com/hwmatch/hwmatch/internal/encoder"
	"github.com/hwmatch/hwmatch/internal/pdlinterp"
)

// Normalize rewrites every block of region in place, replacing the four
// pre-normalization terminators with their single-case switch_*
// equivalent. It is idempotent: blocks already terminated by a switch_*
// (or by one of the terminators spec.md never switchifies) are left
// untouched.
func Normalize(region *pdlinterp.Region) {
	for _, block := range region.Blocks {
		if block.Term == nil {
			continue
		}
		if replacement := switchifyTerminator(block.Term); replacement != nil {
			block.SetTerminator(replacement)
		}
	}
}

func switchifyTerminator(term pdlinterp.Terminator) pdlinterp.Terminator {
	switch op := term.(type) {
	case *pdlinterp.CheckAttribute:
		return pdlinterp.NewSwitchAttribute(
			op.Attribute,
			[]string{op.ConstantValue},
			[]*pdlinterp.Block{op.TrueDest},
			op.FalseDest,
		)
	case *pdlinterp.CheckOperationName:
		return pdlinterp.NewSwitchOperationName(
			op.InputOp,
			[]string{op.Name},
			[]*pdlinterp.Block{op.TrueDest},
			op.FalseDest,
		)
	case *pdlinterp.CheckType:
		return pdlinterp.NewSwitchType(
			op.Value,
			[]encoder.TypeTag{op.Type},
			[]*pdlinterp.Block{op.TrueDest},
			op.FalseDest,
		)
	case *pdlinterp.CheckTypes:
		return pdlinterp.NewSwitchTypes(
			op.Value,
			[][]encoder.TypeTag{op.Types},
			[]*pdlinterp.Block{op.TrueDest},
			op.FalseDest,
		)
	default:
		return nil
	}
}
