package mir

import (
	"kestrel/internal/ast"
	"kestrel/internal/types"
)

// InstrKind enumerates instruction kinds in MIR.
type InstrKind uint8

const (
	// InstrAssign stores an rvalue into a local.
	InstrAssign InstrKind = iota
	// InstrCall calls a registered declaration.
	InstrCall
)

// Instr represents a MIR instruction. Node is the AST node it came from.
type Instr struct {
	Kind InstrKind
	Node ast.NodeID

	Assign AssignInstr
	Call   CallInstr
}

// AssignInstr represents an assignment instruction.
type AssignInstr struct {
	Dst LocalID
	Src RValue
}

// CallInstr represents a function call instruction.
type CallInstr struct {
	HasDst bool
	Dst    LocalID
	Callee string
	Args   []Operand
}

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	// OperandConst represents a literal.
	OperandConst OperandKind = iota
	// OperandCopy reads a local.
	OperandCopy
	// OperandVoid is the non-value of a call to a void declaration.
	OperandVoid
)

// Operand represents a MIR operand.
type Operand struct {
	Kind  OperandKind
	Type  types.Type
	Const types.Value
	Local LocalID
}

func ConstOperand(v types.Value) Operand {
	return Operand{Kind: OperandConst, Type: v.Type, Const: v, Local: NoLocalID}
}

func CopyOperand(local LocalID, ty types.Type) Operand {
	return Operand{Kind: OperandCopy, Type: ty, Local: local}
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	// RValueUse represents a use of a value.
	RValueUse RValueKind = iota
	// RValueUnaryOp represents a unary operation.
	RValueUnaryOp
	// RValueBinaryOp represents a binary operation.
	RValueBinaryOp
	// RValueCast represents a cast operation.
	RValueCast
)

// RValue represents a right-hand value in MIR.
type RValue struct {
	Kind RValueKind

	Use    Operand
	Unary  UnaryOp
	Binary BinaryOp
	Cast   CastOp
}

// UnaryOp represents a unary operation.
type UnaryOp struct {
	Op      types.UnaryOp
	Operand Operand
}

// BinaryOp represents a binary operation.
type BinaryOp struct {
	Op    types.BinaryOp
	Left  Operand
	Right Operand
}

// CastOp represents a cast operation.
type CastOp struct {
	Value    Operand
	TargetTy types.Type
	Kind     types.CastKind
}
