package ast

// ReturnData: Value is NoNodeID for a bare return.
type ReturnData struct {
	Value NodeID
}

type BranchData struct {
	Cond NodeID
	Then []NodeID
	Else []NodeID
}

type AssignmentData struct {
	Target string
	Value  NodeID
}

type WhileData struct {
	Cond NodeID
	Body []NodeID
}

// VoidContextData evaluates Operation and discards the result.
type VoidContextData struct {
	Operation NodeID
}

func (n *Nodes) Return(id NodeID) (*ReturnData, bool) {
	p, ok := n.payload(id, KindReturn)
	if !ok {
		return nil, false
	}
	return n.Returns.At(p), true
}

func (n *Nodes) Branch(id NodeID) (*BranchData, bool) {
	p, ok := n.payload(id, KindBranch)
	if !ok {
		return nil, false
	}
	return n.Branches.At(p), true
}

func (n *Nodes) Assignment(id NodeID) (*AssignmentData, bool) {
	p, ok := n.payload(id, KindAssignment)
	if !ok {
		return nil, false
	}
	return n.Assignments.At(p), true
}

func (n *Nodes) While(id NodeID) (*WhileData, bool) {
	p, ok := n.payload(id, KindWhile)
	if !ok {
		return nil, false
	}
	return n.Whiles.At(p), true
}

func (n *Nodes) VoidContext(id NodeID) (*VoidContextData, bool) {
	p, ok := n.payload(id, KindVoidContext)
	if !ok {
		return nil, false
	}
	return n.VoidContexts.At(p), true
}
