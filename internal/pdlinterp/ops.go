package pdlinterp

import "github.com/hwmatch/hwmatch/internal/encoder"

// --- pre-normalization terminators (stage A rewrites these away) ---

// CheckAttribute tests an attribute-typed value against a constant.
// Attributes never produce a Span DAG node (see SPEC_FULL.md §3): any
// pattern that actually reaches this op during stage B's use-walk falls
// into the default UnsupportedPatternFeature case, the same way the
// original xDSL implementation never gave it a case in its match
// statement. It is modeled only so stage A's normalization rule is
// complete.
type CheckAttribute struct {
	ConstantValue       string
	Attribute           *Value
	TrueDest, FalseDest *Block
}

func NewCheckAttribute(constantValue string, attribute *Value, trueDest, falseDest *Block) *CheckAttribute {
	o := &CheckAttribute{ConstantValue: constantValue, Attribute: attribute, TrueDest: trueDest, FalseDest: falseDest}
	attribute.addUse(o)
	return o
}

func (o *CheckAttribute) Kind() Kind             { return KindCheckAttribute }
func (o *CheckAttribute) Successors() []*Block   { return []*Block{o.TrueDest, o.FalseDest} }
func (o *CheckAttribute) String() string         { return "pdl_interp.check_attribute" }

type CheckOperationName struct {
	Name                string
	InputOp             *Value
	TrueDest, FalseDest *Block
}

func NewCheckOperationName(name string, inputOp *Value, trueDest, falseDest *Block) *CheckOperationName {
	o := &CheckOperationName{Name: name, InputOp: inputOp, TrueDest: trueDest, FalseDest: falseDest}
	inputOp.addUse(o)
	return o
}

func (o *CheckOperationName) Kind() Kind           { return KindCheckOperationName }
func (o *CheckOperationName) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *CheckOperationName) String() string       { return "pdl_interp.check_operation_name" }

type CheckType struct {
	Type                encoder.TypeTag
	Value               *Value
	TrueDest, FalseDest *Block
}

func NewCheckType(typ encoder.TypeTag, value *Value, trueDest, falseDest *Block) *CheckType {
	o := &CheckType{Type: typ, Value: value, TrueDest: trueDest, FalseDest: falseDest}
	value.addUse(o)
	return o
}

func (o *CheckType) Kind() Kind           { return KindCheckType }
func (o *CheckType) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *CheckType) String() string       { return "pdl_interp.check_type" }

type CheckTypes struct {
	Types               []encoder.TypeTag
	Value               *Value
	TrueDest, FalseDest *Block
}

func NewCheckTypes(types []encoder.TypeTag, value *Value, trueDest, falseDest *Block) *CheckTypes {
	o := &CheckTypes{Types: types, Value: value, TrueDest: trueDest, FalseDest: falseDest}
	value.addUse(o)
	return o
}

func (o *CheckTypes) Kind() Kind           { return KindCheckTypes }
func (o *CheckTypes) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *CheckTypes) String() string       { return "pdl_interp.check_types" }

// --- terminators present both before and after stage A ---

// IsNotNull tests whether a value/type/operation/range is present.
type IsNotNull struct {
	Value               *Value
	TrueDest, FalseDest *Block
}

func NewIsNotNull(value *Value, trueDest, falseDest *Block) *IsNotNull {
	o := &IsNotNull{Value: value, TrueDest: trueDest, FalseDest: falseDest}
	value.addUse(o)
	return o
}

func (o *IsNotNull) Kind() Kind           { return KindIsNotNull }
func (o *IsNotNull) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *IsNotNull) String() string       { return "pdl_interp.is_not_null" }

// CheckOperandCount compares an operation's operand count, either exactly
// or with "at least" semantics (CompareAtLeast).
type CheckOperandCount struct {
	InputOp             *Value
	Count               int
	CompareAtLeast      bool
	TrueDest, FalseDest *Block
}

func NewCheckOperandCount(inputOp *Value, count int, compareAtLeast bool, trueDest, falseDest *Block) *CheckOperandCount {
	o := &CheckOperandCount{InputOp: inputOp, Count: count, CompareAtLeast: compareAtLeast, TrueDest: trueDest, FalseDest: falseDest}
	inputOp.addUse(o)
	return o
}

func (o *CheckOperandCount) Kind() Kind           { return KindCheckOperandCount }
func (o *CheckOperandCount) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *CheckOperandCount) String() string       { return "pdl_interp.check_operand_count" }

// CheckResultCount is CheckOperandCount's twin for result counts. The
// subject IR models zero-or-one result (spec §3.1), so only counts 0 and
// 1 are reachable in practice (see SPEC_FULL.md §3, Open Question #2).
type CheckResultCount struct {
	InputOp             *Value
	Count               int
	CompareAtLeast      bool
	TrueDest, FalseDest *Block
}

func NewCheckResultCount(inputOp *Value, count int, compareAtLeast bool, trueDest, falseDest *Block) *CheckResultCount {
	o := &CheckResultCount{InputOp: inputOp, Count: count, CompareAtLeast: compareAtLeast, TrueDest: trueDest, FalseDest: falseDest}
	inputOp.addUse(o)
	return o
}

func (o *CheckResultCount) Kind() Kind           { return KindCheckResultCount }
func (o *CheckResultCount) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *CheckResultCount) String() string       { return "pdl_interp.check_result_count" }

// AreEqual compares two values denoting the same kind of data (both
// operand-chain-derived, spec §4.4).
type AreEqual struct {
	Lhs, Rhs            *Value
	TrueDest, FalseDest *Block
}

func NewAreEqual(lhs, rhs *Value, trueDest, falseDest *Block) *AreEqual {
	o := &AreEqual{Lhs: lhs, Rhs: rhs, TrueDest: trueDest, FalseDest: falseDest}
	lhs.addUse(o)
	rhs.addUse(o)
	return o
}

func (o *AreEqual) Kind() Kind           { return KindAreEqual }
func (o *AreEqual) Successors() []*Block { return []*Block{o.TrueDest, o.FalseDest} }
func (o *AreEqual) String() string       { return "pdl_interp.are_equal" }

// RecordMatch marks a terminal success: reaching this block means the
// pattern matched. It never transitions further (spec §4.4).
type RecordMatch struct{}

func NewRecordMatch() *RecordMatch             { return &RecordMatch{} }
func (o *RecordMatch) Kind() Kind              { return KindRecordMatch }
func (o *RecordMatch) Successors() []*Block    { return nil }
func (o *RecordMatch) String() string          { return "pdl_interp.record_match" }

// Branch is an unconditional jump.
type Branch struct {
	Dest *Block
}

func NewBranch(dest *Block) *Branch { return &Branch{Dest: dest} }
func (o *Branch) Kind() Kind        { return KindBranch }
func (o *Branch) Successors() []*Block {
	return []*Block{o.Dest}
}
func (o *Branch) String() string { return "pdl_interp.branch" }

// Finalize marks a terminal failure: no record_match was reached.
type Finalize struct{}

func NewFinalize() *Finalize          { return &Finalize{} }
func (o *Finalize) Kind() Kind        { return KindFinalize }
func (o *Finalize) Successors() []*Block { return nil }
func (o *Finalize) String() string    { return "pdl_interp.finalize" }

// --- terminators stage A introduces (or patterns may already use) ---

type SwitchAttribute struct {
	Attribute   *Value
	CaseValues  []string
	Cases       []*Block
	DefaultDest *Block
}

func NewSwitchAttribute(attribute *Value, caseValues []string, cases []*Block, defaultDest *Block) *SwitchAttribute {
	o := &SwitchAttribute{Attribute: attribute, CaseValues: caseValues, Cases: cases, DefaultDest: defaultDest}
	attribute.addUse(o)
	return o
}

func (o *SwitchAttribute) Kind() Kind { return KindSwitchAttribute }
func (o *SwitchAttribute) Successors() []*Block {
	return append(append([]*Block{}, o.Cases...), o.DefaultDest)
}
func (o *SwitchAttribute) String() string { return "pdl_interp.switch_attribute" }

type SwitchOperationName struct {
	InputOp     *Value
	CaseValues  []string
	Cases       []*Block
	DefaultDest *Block
}

func NewSwitchOperationName(inputOp *Value, caseValues []string, cases []*Block, defaultDest *Block) *SwitchOperationName {
	o := &SwitchOperationName{InputOp: inputOp, CaseValues: caseValues, Cases: cases, DefaultDest: defaultDest}
	inputOp.addUse(o)
	return o
}

func (o *SwitchOperationName) Kind() Kind { return KindSwitchOperationName }
func (o *SwitchOperationName) Successors() []*Block {
	return append(append([]*Block{}, o.Cases...), o.DefaultDest)
}
func (o *SwitchOperationName) String() string { return "pdl_interp.switch_operation_name" }

type SwitchOperandCount struct {
	InputOp     *Value
	CaseValues  []int
	Cases       []*Block
	DefaultDest *Block
}

func NewSwitchOperandCount(inputOp *Value, caseValues []int, cases []*Block, defaultDest *Block) *SwitchOperandCount {
	o := &SwitchOperandCount{InputOp: inputOp, CaseValues: caseValues, Cases: cases, DefaultDest: defaultDest}
	inputOp.addUse(o)
	return o
}

func (o *SwitchOperandCount) Kind() Kind { return KindSwitchOperandCount }
func (o *SwitchOperandCount) Successors() []*Block {
	return append(append([]*Block{}, o.Cases...), o.DefaultDest)
}
func (o *SwitchOperandCount) String() string { return "pdl_interp.switch_operand_count" }

type SwitchResultCount struct {
	InputOp     *Value
	CaseValues  []int
	Cases       []*Block
	DefaultDest *Block
}

func NewSwitchResultCount(inputOp *Value, caseValues []int, cases []*Block, defaultDest *Block) *SwitchResultCount {
	o := &SwitchResultCount{InputOp: inputOp, CaseValues: caseValues, Cases: cases, DefaultDest: defaultDest}
	inputOp.addUse(o)
	return o
}

func (o *SwitchResultCount) Kind() Kind { return KindSwitchResultCount }
func (o *SwitchResultCount) Successors() []*Block {
	return append(append([]*Block{}, o.Cases...), o.DefaultDest)
}
func (o *SwitchResultCount) String() string { return "pdl_interp.switch_result_count" }

type SwitchType struct {
	Value       *Value
	CaseValues  []encoder.TypeTag
	Cases       []*Block
	DefaultDest *Block
}

func NewSwitchType(value *Value, caseValues []encoder.TypeTag, cases []*Block, defaultDest *Block) *SwitchType {
	o := &SwitchType{Value: value, CaseValues: caseValues, Cases: cases, DefaultDest: defaultDest}
	value.addUse(o)
	return o
}

func (o *SwitchType) Kind() Kind { return KindSwitchType }
func (o *SwitchType) Successors() []*Block {
	return append(append([]*Block{}, o.Cases...), o.DefaultDest)
}
func (o *SwitchType) String() string { return "pdl_interp.switch_type" }

// SwitchTypes is switch_type's range-typed twin. Per SPEC_FULL.md §3 it
// is accepted by stage B (so Span DAG construction does not spuriously
// fail on a pattern that merely uses it) but stage C's FSM synthesis
// raises UnsupportedPatternFeature if it is ever the terminator of a
// reachable block, since spec.md never defines its guard semantics.
type SwitchTypes struct {
	Value       *Value
	CaseValues  [][]encoder.TypeTag
	Cases       []*Block
	DefaultDest *Block
}

func NewSwitchTypes(value *Value, caseValues [][]encoder.TypeTag, cases []*Block, defaultDest *Block) *SwitchTypes {
	o := &SwitchTypes{Value: value, CaseValues: caseValues, Cases: cases, DefaultDest: defaultDest}
	value.addUse(o)
	return o
}

func (o *SwitchTypes) Kind() Kind { return KindSwitchTypes }
func (o *SwitchTypes) Successors() []*Block {
	return append(append([]*Block{}, o.Cases...), o.DefaultDest)
}
func (o *SwitchTypes) String() string { return "pdl_interp.switch_types" }
