package lowering

import (
	"github.com/hwmatch/hwmatch/internal/encoder"
	"github.com/hwmatch/hwmatch/internal/hwir"
	"github.com/hwmatch/hwmatch/internal/matchersynth"
)

// LowerMatcherUnit runs both stage D passes over a synthesized matcher
// unit in place: sum lowering first (since a hw_op.* accessor's operand
// is usually the payload a hw_sum.get_as("found", ...) just unwrapped,
// and that unwrap has to be a flat integer before opcode/operand-offset
// bit math means anything), then operation lowering. Every Node reachable
// from the module body, its output expressions, and the FSM's state
// outputs and transition guards is rewritten; port types that were
// sum-typed are replaced with their flattened IntType.
func LowerMatcherUnit(unit *matchersynth.MatcherUnit, enc encoder.EncodingContext, opCtx encoder.OperationContext) error {
	sums := NewSumLowering()
	lowerModuleSums(sums, unit.Module)
	lowerMachineSums(sums, unit.Fsm)

	ops := NewOperationLowering(enc, opCtx)
	if err := lowerModuleOps(ops, unit.Module); err != nil {
		return err
	}
	if err := lowerMachineOps(ops, unit.Fsm); err != nil {
		return err
	}
	return nil
}

func lowerModuleSums(l *SumLowering, m *hwir.Module) {
	for _, n := range m.Body {
		l.Lower(n)
	}
	for _, n := range m.Results {
		l.Lower(n)
	}
	refreshModuleOutputTypes(m)
}

func lowerMachineSums(l *SumLowering, m *hwir.Machine) {
	flattenPorts(m.Inputs)
	flattenPorts(m.Outputs)
	for _, state := range m.States {
		l.Lower(state.Output)
		for _, tr := range state.Transitions {
			l.Lower(tr.Guard)
		}
	}
}

func lowerModuleOps(l *OperationLowering, m *hwir.Module) error {
	for _, n := range m.Body {
		if err := l.Lower(n); err != nil {
			return err
		}
	}
	for _, n := range m.Results {
		if err := l.Lower(n); err != nil {
			return err
		}
	}
	refreshModuleOutputTypes(m)
	return nil
}

func lowerMachineOps(l *OperationLowering, m *hwir.Machine) error {
	for _, state := range m.States {
		if err := l.Lower(state.Output); err != nil {
			return err
		}
		for _, tr := range state.Transitions {
			if err := l.Lower(tr.Guard); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshModuleOutputTypes re-reads each output port's type off its
// driving expression. SetOutputs captured these before stage D ran, so a
// port that started out sum-typed is left stale by an in-place Node
// rewrite until this runs.
func refreshModuleOutputTypes(m *hwir.Module) {
	for i := range m.Outputs {
		if i < len(m.Results) {
			m.Outputs[i].Type = m.Results[i].Result
		}
	}
}

func flattenPorts(ports []hwir.Port) {
	for i, port := range ports {
		if st, ok := port.Type.(hwir.SumType); ok {
			ports[i].Type = flattenSumType(st)
		}
	}
}
