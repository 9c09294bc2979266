package ast

// Node is the common header of every AST node. The concrete shape lives in
// the payload arena selected by Kind.
type Node struct {
	ID      NodeID
	Kind    Kind
	Payload PayloadID
}

// Nodes stores every node of a program together with the per-kind payloads.
// Children are referenced by NodeID, so an operation may be referenced from
// several parents.
type Nodes struct {
	Arena *Arena[Node]
	index map[NodeID]uint32

	Externs      *Arena[ExternData]
	Funcs        *Arena[FuncData]
	Variables    *Arena[VariableData]
	Constants    *Arena[ConstantData]
	Casts        *Arena[CastData]
	UnOps        *Arena[UnOpData]
	BinOps       *Arena[BinOpData]
	Calls        *Arena[CallData]
	Returns      *Arena[ReturnData]
	Branches     *Arena[BranchData]
	Assignments  *Arena[AssignmentData]
	Whiles       *Arena[WhileData]
	VoidContexts *Arena[VoidContextData]
}

// NewNodes creates a store with every arena preallocated to capHint slots.
// If capHint is 0, 1<<8 is used.
func NewNodes(capHint uint) *Nodes {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Nodes{
		Arena:        NewArena[Node](capHint),
		index:        make(map[NodeID]uint32, capHint),
		Externs:      NewArena[ExternData](small),
		Funcs:        NewArena[FuncData](small),
		Variables:    NewArena[VariableData](capHint),
		Constants:    NewArena[ConstantData](capHint),
		Casts:        NewArena[CastData](small),
		UnOps:        NewArena[UnOpData](small),
		BinOps:       NewArena[BinOpData](capHint),
		Calls:        NewArena[CallData](small),
		Returns:      NewArena[ReturnData](small),
		Branches:     NewArena[BranchData](small),
		Assignments:  NewArena[AssignmentData](small),
		Whiles:       NewArena[WhileData](small),
		VoidContexts: NewArena[VoidContextData](small),
	}
}

func (n *Nodes) add(id NodeID, kind Kind, payload uint32) NodeID {
	if _, dup := n.index[id]; dup {
		panic("ast: node id " + id.String() + " registered twice")
	}
	slot := n.Arena.Allocate(Node{ID: id, Kind: kind, Payload: PayloadID(payload)})
	n.index[id] = slot
	return id
}

// Get returns the node header for id, nil if the id is unknown.
func (n *Nodes) Get(id NodeID) *Node {
	if n == nil || !id.IsValid() {
		return nil
	}
	slot, ok := n.index[id]
	if !ok {
		return nil
	}
	return n.Arena.At(slot)
}

// Kind returns the discriminant of id, KindInvalid if the id is unknown.
func (n *Nodes) Kind(id NodeID) Kind {
	node := n.Get(id)
	if node == nil {
		return KindInvalid
	}
	return node.Kind
}

// Len returns the number of stored nodes.
func (n *Nodes) Len() int {
	if n == nil {
		return 0
	}
	return n.Arena.Count()
}

// All returns the node headers in construction order. READONLY.
func (n *Nodes) All() []Node {
	if n == nil {
		return nil
	}
	return n.Arena.Items()
}

func (n *Nodes) payload(id NodeID, kind Kind) (uint32, bool) {
	node := n.Get(id)
	if node == nil || node.Kind != kind {
		return 0, false
	}
	return uint32(node.Payload), true
}
