package ast

import "kestrel/internal/types"

type VariableData struct {
	Type types.Type
	Name string
}

type ConstantData struct {
	Type  types.Type
	Value types.Value
}

type CastData struct {
	Type  types.Type
	To    types.Type
	Value NodeID
}

type UnOpData struct {
	Type    types.Type
	Op      string
	Operand NodeID
}

type BinOpData struct {
	Type  types.Type
	Op    string
	Left  NodeID
	Right NodeID
}

type CallData struct {
	Type   types.Type
	Callee string
	Args   []NodeID
}

func (n *Nodes) Variable(id NodeID) (*VariableData, bool) {
	p, ok := n.payload(id, KindVariable)
	if !ok {
		return nil, false
	}
	return n.Variables.At(p), true
}

func (n *Nodes) Constant(id NodeID) (*ConstantData, bool) {
	p, ok := n.payload(id, KindConstant)
	if !ok {
		return nil, false
	}
	return n.Constants.At(p), true
}

func (n *Nodes) Cast(id NodeID) (*CastData, bool) {
	p, ok := n.payload(id, KindCast)
	if !ok {
		return nil, false
	}
	return n.Casts.At(p), true
}

func (n *Nodes) UnOp(id NodeID) (*UnOpData, bool) {
	p, ok := n.payload(id, KindUnOp)
	if !ok {
		return nil, false
	}
	return n.UnOps.At(p), true
}

func (n *Nodes) BinOp(id NodeID) (*BinOpData, bool) {
	p, ok := n.payload(id, KindBinOp)
	if !ok {
		return nil, false
	}
	return n.BinOps.At(p), true
}

func (n *Nodes) Call(id NodeID) (*CallData, bool) {
	p, ok := n.payload(id, KindCall)
	if !ok {
		return nil, false
	}
	return n.Calls.At(p), true
}

// OperationType returns the resolved type carried by an operation node.
// ok is false when id is not an operation.
func (n *Nodes) OperationType(id NodeID) (types.Type, bool) {
	node := n.Get(id)
	if node == nil {
		return types.Poison, false
	}
	p := uint32(node.Payload)
	switch node.Kind {
	case KindVariable:
		return n.Variables.At(p).Type, true
	case KindConstant:
		return n.Constants.At(p).Type, true
	case KindCast:
		return n.Casts.At(p).Type, true
	case KindUnOp:
		return n.UnOps.At(p).Type, true
	case KindBinOp:
		return n.BinOps.At(p).Type, true
	case KindCall:
		return n.Calls.At(p).Type, true
	default:
		return types.Poison, false
	}
}
