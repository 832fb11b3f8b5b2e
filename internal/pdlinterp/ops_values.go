package pdlinterp

// --- value-producing ops: these build the use-def DAG stage B walks ---

// GetOperand extracts a single operand of inputOp by index.
type GetOperand struct {
	InputOp *Value
	Index   int
	Result  *Value
}

func NewGetOperand(b *Builder, inputOp *Value, index int, hint string) *GetOperand {
	o := &GetOperand{InputOp: inputOp, Index: index}
	o.Result = b.NewValue(ValueKind, hint)
	inputOp.addUse(o)
	return o
}

func (o *GetOperand) Kind() Kind     { return KindGetOperand }
func (o *GetOperand) String() string { return "pdl_interp.get_operand" }

// GetResult extracts one result of inputOp by index. The subject IR
// models zero or one result per operation (spec §3.1), so in practice
// the index is 0.
type GetResult struct {
	InputOp *Value
	Index   int
	Result  *Value
}

func NewGetResult(b *Builder, inputOp *Value, index int, hint string) *GetResult {
	o := &GetResult{InputOp: inputOp, Index: index}
	o.Result = b.NewValue(ValueKind, hint)
	inputOp.addUse(o)
	return o
}

func (o *GetResult) Kind() Kind     { return KindGetResult }
func (o *GetResult) String() string { return "pdl_interp.get_result" }

// GetOperands yields either the full operand range (Index == nil) or a
// single operand value (Index != nil) — mirrored from pdl_interp's own
// overload. Index is an *int so callers can use the
// indexed form when the pattern actually narrows to a single operand via
// this op rather than via GetOperand.
type GetOperands struct {
	InputOp *Value
	Index   *int
	Result  *Value
}

func NewGetOperands(b *Builder, inputOp *Value, index *int, hint string) *GetOperands {
	typ := OperandRangeKind
	if index != nil {
		typ = ValueKind
	}
	o := &GetOperands{InputOp: inputOp, Index: index}
	o.Result = b.NewValue(typ, hint)
	inputOp.addUse(o)
	return o
}

func (o *GetOperands) Kind() Kind     { return KindGetOperands }
func (o *GetOperands) String() string { return "pdl_interp.get_operands" }

// GetResults is GetOperands' twin over results.
type GetResults struct {
	InputOp *Value
	Index   *int
	Result  *Value
}

func NewGetResults(b *Builder, inputOp *Value, index *int, hint string) *GetResults {
	typ := ResultRangeKind
	if index != nil {
		typ = ValueKind
	}
	o := &GetResults{InputOp: inputOp, Index: index}
	o.Result = b.NewValue(typ, hint)
	inputOp.addUse(o)
	return o
}

func (o *GetResults) Kind() Kind     { return KindGetResults }
func (o *GetResults) String() string { return "pdl_interp.get_results" }

// GetDefiningOp walks from a value (or range) back to the operation that
// produced it. This is the op that lets the Span DAG grow past a single
// operation's immediate operands (spec §3.3).
type GetDefiningOp struct {
	Value  *Value
	Result *Value
}

func NewGetDefiningOp(b *Builder, value *Value, hint string) *GetDefiningOp {
	o := &GetDefiningOp{Value: value}
	o.Result = b.NewValue(OperationKind, hint)
	value.addUse(o)
	return o
}

func (o *GetDefiningOp) Kind() Kind     { return KindGetDefiningOp }
func (o *GetDefiningOp) String() string { return "pdl_interp.get_defining_op" }

// GetValueType reads the static type of a value or range; its result
// kind tracks the input's kind (single value -> single type, operand
// range -> operand type range, result range -> result type range).
type GetValueType struct {
	Value  *Value
	Result *Value
}

func NewGetValueType(b *Builder, value *Value, hint string) *GetValueType {
	var typ TypeKind
	switch value.Type() {
	case OperandRangeKind:
		typ = OperandTypeRangeKind
	case ResultRangeKind:
		typ = ResultTypeRangeKind
	default:
		typ = TypeKind_
	}
	o := &GetValueType{Value: value}
	o.Result = b.NewValue(typ, hint)
	value.addUse(o)
	return o
}

func (o *GetValueType) Kind() Kind     { return KindGetValueType }
func (o *GetValueType) String() string { return "pdl_interp.get_value_type" }

// Extract picks a single element out of a range at a static index. Per
// spec §4.2/§4.4 only statically-indexed extraction is supported;
// unindexed/variable extraction is rejected upstream as an
// UnsupportedPatternFeature before a node like this would even be built
// for it.
type Extract struct {
	Index  int
	Range  *Value
	Result *Value
}

func NewExtract(b *Builder, rng *Value, index int, hint string) *Extract {
	var typ TypeKind
	switch rng.Type() {
	case OperandRangeKind:
		typ = ValueKind
	case ResultRangeKind:
		typ = ValueKind
	case OperandTypeRangeKind:
		typ = TypeKind_
	case ResultTypeRangeKind:
		typ = TypeKind_
	default:
		typ = rng.Type()
	}
	o := &Extract{Index: index, Range: rng}
	o.Result = b.NewValue(typ, hint)
	rng.addUse(o)
	return o
}

func (o *Extract) Kind() Kind     { return KindExtract }
func (o *Extract) String() string { return "pdl_interp.extract" }
