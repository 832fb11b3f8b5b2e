// Package span builds the Span DAG (spec §3.3): the tree of
// OperationSpan/OperandSpan/ResultSpan nodes describing which pieces of
// the matched operation tree a pattern actually inspects. Stage C reads
// this tree to decide what the DAG-buffer filler cells and matcher FSM
// need to track; nothing not marked Used needs a register at all.
//
// Grounded on analysis/pattern_dag_span.py.
package span

import "github.com/hwmatch/hwmatch/internal/pdlinterp"

// OperationSpan is one node of the Span DAG: the use of data carried by
// a single operation (the root, or some operation reached by walking
// get_defining_op from an operand).
type OperationSpan struct {
	Values               []*pdlinterp.Value
	OperandRanges        []*pdlinterp.Value
	OperandTypeRanges    []*pdlinterp.Value
	ResultRanges         []*pdlinterp.Value
	ResultTypeRanges     []*pdlinterp.Value
	Used                 bool
	Operands             map[int]*OperandSpan
	Results              map[int]*ResultSpan
}

func newOperationSpan() *OperationSpan {
	return &OperationSpan{
		Operands: make(map[int]*OperandSpan),
		Results:  make(map[int]*ResultSpan),
	}
}

func (s *OperationSpan) addValue(ctx *Ctx, v *pdlinterp.Value) {
	s.Values = append(s.Values, v)
	ctx.Operations[v] = s
}

func (s *OperationSpan) addOperandRange(ctx *Ctx, v *pdlinterp.Value) {
	s.OperandRanges = append(s.OperandRanges, v)
	ctx.OperandRangeOf[v] = s
}

func (s *OperationSpan) addOperandTypeRange(ctx *Ctx, v *pdlinterp.Value) {
	s.OperandTypeRanges = append(s.OperandTypeRanges, v)
	ctx.OperandTypeRangeOf[v] = s
}

func (s *OperationSpan) addResultRange(ctx *Ctx, v *pdlinterp.Value) {
	s.ResultRanges = append(s.ResultRanges, v)
	ctx.ResultRangeOf[v] = s
}

func (s *OperationSpan) addResultTypeRange(ctx *Ctx, v *pdlinterp.Value) {
	s.ResultTypeRanges = append(s.ResultTypeRanges, v)
	ctx.ResultTypeRangeOf[v] = s
}

// OperandSpan is the use of data carried by one operand of the operation
// owning it (OperandOf). Exactly one OperandSpan owns each non-root
// OperationSpan, via DefiningOp (spec §3.3's ownership invariant).
type OperandSpan struct {
	Values       []*pdlinterp.Value
	Types        []*pdlinterp.Value
	OperandOf    *OperationSpan
	OperandIndex int
	DefiningOp   *OperationSpan
}

func newOperandSpan(operandOf *OperationSpan, index int) *OperandSpan {
	return &OperandSpan{OperandOf: operandOf, OperandIndex: index, DefiningOp: newOperationSpan()}
}

func (s *OperandSpan) addValue(ctx *Ctx, v *pdlinterp.Value) {
	s.Values = append(s.Values, v)
	ctx.ValueOfOperand[v] = s
}

func (s *OperandSpan) addType(ctx *Ctx, v *pdlinterp.Value) {
	s.Types = append(s.Types, v)
	ctx.TypeOfOperand[v] = s
}

// ResultSpan is the use of data carried by one result of the operation
// owning it (ResultOf).
type ResultSpan struct {
	Values      []*pdlinterp.Value
	Types       []*pdlinterp.Value
	ResultOf    *OperationSpan
	ResultIndex int
}

func newResultSpan(resultOf *OperationSpan, index int) *ResultSpan {
	return &ResultSpan{ResultOf: resultOf, ResultIndex: index}
}

func (s *ResultSpan) addValue(ctx *Ctx, v *pdlinterp.Value) {
	s.Values = append(s.Values, v)
	ctx.ValueOfResult[v] = s
}

func (s *ResultSpan) addType(ctx *Ctx, v *pdlinterp.Value) {
	s.Types = append(s.Types, v)
	ctx.TypeOfResult[v] = s
}

// Ctx maps every pattern-IR value touched while building the Span DAG
// back to the span construct it denotes, grounded on
// pattern_dag_span.py's OperationSpanCtx.
type Ctx struct {
	ValueOfOperand     map[*pdlinterp.Value]*OperandSpan
	TypeOfOperand      map[*pdlinterp.Value]*OperandSpan
	ValueOfResult      map[*pdlinterp.Value]*ResultSpan
	TypeOfResult       map[*pdlinterp.Value]*ResultSpan
	Operations         map[*pdlinterp.Value]*OperationSpan
	OperandRangeOf     map[*pdlinterp.Value]*OperationSpan
	OperandTypeRangeOf map[*pdlinterp.Value]*OperationSpan
	ResultRangeOf      map[*pdlinterp.Value]*OperationSpan
	ResultTypeRangeOf  map[*pdlinterp.Value]*OperationSpan
}

func newCtx() *Ctx {
	return &Ctx{
		ValueOfOperand:     make(map[*pdlinterp.Value]*OperandSpan),
		TypeOfOperand:      make(map[*pdlinterp.Value]*OperandSpan),
		ValueOfResult:      make(map[*pdlinterp.Value]*ResultSpan),
		TypeOfResult:       make(map[*pdlinterp.Value]*ResultSpan),
		Operations:         make(map[*pdlinterp.Value]*OperationSpan),
		OperandRangeOf:     make(map[*pdlinterp.Value]*OperationSpan),
		OperandTypeRangeOf: make(map[*pdlinterp.Value]*OperationSpan),
		ResultRangeOf:      make(map[*pdlinterp.Value]*OperationSpan),
		ResultTypeRangeOf:  make(map[*pdlinterp.Value]*OperationSpan),
	}
}
