package types

import "fmt"

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint32

const (
	FamilyNone FamilyMask = 0
	FamilyBool FamilyMask = 1 << iota
	FamilySignedInt
	FamilyFloat
	FamilyString
)

const (
	FamilyNumeric = FamilySignedInt | FamilyFloat
)

// BinaryOp is the closed set of binary operators.
type BinaryOp uint8

const (
	BinaryInvalid BinaryOp = iota
	BinaryAdd
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryEq
	BinaryNotEq
	BinaryLess
	BinaryLessEq
	BinaryGreater
	BinaryGreaterEq
	BinaryLogicalAnd
	BinaryLogicalOr
)

// UnaryOp is the closed set of unary operators.
type UnaryOp uint8

const (
	UnaryInvalid UnaryOp = iota
	UnaryNeg
	UnaryNot
)

var binaryOpNames = map[string]BinaryOp{
	"+":  BinaryAdd,
	"-":  BinarySub,
	"*":  BinaryMul,
	"/":  BinaryDiv,
	"%":  BinaryMod,
	"==": BinaryEq,
	"!=": BinaryNotEq,
	"<":  BinaryLess,
	"<=": BinaryLessEq,
	">":  BinaryGreater,
	">=": BinaryGreaterEq,
	"&&": BinaryLogicalAnd,
	"||": BinaryLogicalOr,
}

var unaryOpNames = map[string]UnaryOp{
	"-": UnaryNeg,
	"!": UnaryNot,
}

// ParseBinaryOp maps an operator identifier to its BinaryOp.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	op, ok := binaryOpNames[s]
	return op, ok
}

// ParseUnaryOp maps an operator identifier to its UnaryOp.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	op, ok := unaryOpNames[s]
	return op, ok
}

func (op BinaryOp) String() string {
	for name, v := range binaryOpNames {
		if v == op {
			return name
		}
	}
	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

func (op UnaryOp) String() string {
	for name, v := range unaryOpNames {
		if v == op {
			return name
		}
	}
	return fmt.Sprintf("UnaryOp(%d)", uint8(op))
}

// OpClass groups operators by their typing rule.
type OpClass uint8

const (
	OpClassNone OpClass = iota
	OpClassArithmetic
	OpClassComparison
	OpClassLogical
)

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultOperand
	BinaryResultBool
)

// BinarySpec lists the operand families and result rule of an operator.
// Both operands must have the same type; there is no implicit widening.
type BinarySpec struct {
	Operands FamilyMask
	Result   BinaryResult
	Class    OpClass
}

var binarySpecTable = map[BinaryOp]BinarySpec{
	BinaryAdd:        {Operands: FamilyNumeric, Result: BinaryResultOperand, Class: OpClassArithmetic},
	BinarySub:        {Operands: FamilyNumeric, Result: BinaryResultOperand, Class: OpClassArithmetic},
	BinaryMul:        {Operands: FamilyNumeric, Result: BinaryResultOperand, Class: OpClassArithmetic},
	BinaryDiv:        {Operands: FamilyNumeric, Result: BinaryResultOperand, Class: OpClassArithmetic},
	BinaryMod:        {Operands: FamilyNumeric, Result: BinaryResultOperand, Class: OpClassArithmetic},
	BinaryEq:         {Operands: FamilyNumeric | FamilyBool, Result: BinaryResultBool, Class: OpClassComparison},
	BinaryNotEq:      {Operands: FamilyNumeric | FamilyBool, Result: BinaryResultBool, Class: OpClassComparison},
	BinaryLess:       {Operands: FamilyNumeric | FamilyBool, Result: BinaryResultBool, Class: OpClassComparison},
	BinaryLessEq:     {Operands: FamilyNumeric | FamilyBool, Result: BinaryResultBool, Class: OpClassComparison},
	BinaryGreater:    {Operands: FamilyNumeric | FamilyBool, Result: BinaryResultBool, Class: OpClassComparison},
	BinaryGreaterEq:  {Operands: FamilyNumeric | FamilyBool, Result: BinaryResultBool, Class: OpClassComparison},
	BinaryLogicalAnd: {Operands: FamilyBool, Result: BinaryResultBool, Class: OpClassLogical},
	BinaryLogicalOr:  {Operands: FamilyBool, Result: BinaryResultBool, Class: OpClassLogical},
}

// UnarySpec describes operand expectations for unary operators.
type UnarySpec struct {
	Operand FamilyMask
}

var unarySpecTable = map[UnaryOp]UnarySpec{
	UnaryNeg: {Operand: FamilyNumeric},
	UnaryNot: {Operand: FamilyBool},
}

// BinarySpecFor returns the typing rule of op.
func BinarySpecFor(op BinaryOp) (BinarySpec, bool) {
	spec, ok := binarySpecTable[op]
	return spec, ok
}

// UnarySpecFor returns the typing rule of op.
func UnarySpecFor(op UnaryOp) (UnarySpec, bool) {
	spec, ok := unarySpecTable[op]
	return spec, ok
}

// BinaryResultType checks operand types against op and returns the result
// type. The error text is suitable for a type diagnostic.
func BinaryResultType(op BinaryOp, left, right Type) (Type, error) {
	spec, ok := binarySpecTable[op]
	if !ok {
		return Poison, fmt.Errorf("unknown binary operator %s", op)
	}
	if left != right {
		return Poison, fmt.Errorf("operator %s: operand types differ (%s vs %s)", op, left, right)
	}
	if left.Family()&spec.Operands == 0 {
		return Poison, fmt.Errorf("operator %s does not accept %s operands", op, left)
	}
	switch spec.Result {
	case BinaryResultBool:
		return Bool, nil
	default:
		return left, nil
	}
}

// UnaryResultType checks the operand type against op and returns the result type.
func UnaryResultType(op UnaryOp, operand Type) (Type, error) {
	spec, ok := unarySpecTable[op]
	if !ok {
		return Poison, fmt.Errorf("unknown unary operator %s", op)
	}
	if operand.Family()&spec.Operand == 0 {
		return Poison, fmt.Errorf("operator %s does not accept %s operand", op, operand)
	}
	return operand, nil
}
