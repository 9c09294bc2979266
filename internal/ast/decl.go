package ast

import "kestrel/internal/types"

// Signature is the callable shape shared by Extern and Func.
type Signature struct {
	Name     string
	Return   types.Type
	Params   []NodeID // Variable nodes
	Variadic bool
}

// ExternData declares a function implemented elsewhere.
type ExternData struct {
	Signature
}

// FuncData is a signature plus the body that defines it.
type FuncData struct {
	Signature
	Body []NodeID
}

// Extern returns the extern payload for id.
func (n *Nodes) Extern(id NodeID) (*ExternData, bool) {
	p, ok := n.payload(id, KindExtern)
	if !ok {
		return nil, false
	}
	return n.Externs.At(p), true
}

// Func returns the func payload for id.
func (n *Nodes) Func(id NodeID) (*FuncData, bool) {
	p, ok := n.payload(id, KindFunc)
	if !ok {
		return nil, false
	}
	return n.Funcs.At(p), true
}

// Signature returns the signature of a declaration node of either kind.
func (n *Nodes) Signature(id NodeID) (*Signature, bool) {
	if ext, ok := n.Extern(id); ok {
		return &ext.Signature, true
	}
	if fn, ok := n.Func(id); ok {
		return &fn.Signature, true
	}
	return nil, false
}
