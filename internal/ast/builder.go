package ast

import (
	"slices"

	"kestrel/internal/types"
)

// Program is an ordered sequence of declarations over a node store.
type Program struct {
	Nodes *Nodes
	Decls []NodeID
}

type Hints struct{ Nodes uint }

// Builder is the construction API used by front ends. Every node gets its
// identity from the shared Allocator at construction time.
type Builder struct {
	Nodes *Nodes
	alloc *Allocator
	decls []NodeID
}

// NewBuilder returns a builder drawing ids from alloc. A nil alloc gets a
// private allocator.
func NewBuilder(alloc *Allocator, hints Hints) *Builder {
	if alloc == nil {
		alloc = NewAllocator()
	}
	return &Builder{
		Nodes: NewNodes(hints.Nodes),
		alloc: alloc,
	}
}

// Allocator returns the identity allocator backing the builder.
func (b *Builder) Allocator() *Allocator {
	return b.alloc
}

// Program returns the program built so far. Declarations are in AddDecl order.
func (b *Builder) Program() *Program {
	return &Program{
		Nodes: b.Nodes,
		Decls: slices.Clone(b.decls),
	}
}

// AddDecl appends a declaration to the program.
func (b *Builder) AddDecl(id NodeID) {
	b.decls = append(b.decls, id)
}

func (b *Builder) NewExtern(name string, ret types.Type, params []NodeID, variadic bool) NodeID {
	p := b.Nodes.Externs.Allocate(ExternData{Signature: Signature{
		Name:     name,
		Return:   ret,
		Params:   slices.Clone(params),
		Variadic: variadic,
	}})
	return b.Nodes.add(b.alloc.Next(), KindExtern, p)
}

func (b *Builder) NewFunc(name string, ret types.Type, params []NodeID, variadic bool, body []NodeID) NodeID {
	p := b.Nodes.Funcs.Allocate(FuncData{
		Signature: Signature{
			Name:     name,
			Return:   ret,
			Params:   slices.Clone(params),
			Variadic: variadic,
		},
		Body: slices.Clone(body),
	})
	return b.Nodes.add(b.alloc.Next(), KindFunc, p)
}

// NewVariable creates a variable reference; also used for parameters.
func (b *Builder) NewVariable(ty types.Type, name string) NodeID {
	p := b.Nodes.Variables.Allocate(VariableData{Type: ty, Name: name})
	return b.Nodes.add(b.alloc.Next(), KindVariable, p)
}

// NewConstant creates a literal typed after its value.
func (b *Builder) NewConstant(v types.Value) NodeID {
	return b.NewTypedConstant(v.Type, v)
}

// NewTypedConstant creates a literal whose declared type may disagree with
// the value tag; lowering rejects such nodes.
func (b *Builder) NewTypedConstant(ty types.Type, v types.Value) NodeID {
	p := b.Nodes.Constants.Allocate(ConstantData{Type: ty, Value: v})
	return b.Nodes.add(b.alloc.Next(), KindConstant, p)
}

// NewCast creates a conversion of value to the type to.
func (b *Builder) NewCast(to types.Type, value NodeID) NodeID {
	p := b.Nodes.Casts.Allocate(CastData{Type: to, To: to, Value: value})
	return b.Nodes.add(b.alloc.Next(), KindCast, p)
}

func (b *Builder) NewUnOp(ty types.Type, op string, operand NodeID) NodeID {
	p := b.Nodes.UnOps.Allocate(UnOpData{Type: ty, Op: op, Operand: operand})
	return b.Nodes.add(b.alloc.Next(), KindUnOp, p)
}

func (b *Builder) NewBinOp(ty types.Type, op string, left, right NodeID) NodeID {
	p := b.Nodes.BinOps.Allocate(BinOpData{Type: ty, Op: op, Left: left, Right: right})
	return b.Nodes.add(b.alloc.Next(), KindBinOp, p)
}

func (b *Builder) NewCall(ty types.Type, callee string, args []NodeID) NodeID {
	p := b.Nodes.Calls.Allocate(CallData{Type: ty, Callee: callee, Args: slices.Clone(args)})
	return b.Nodes.add(b.alloc.Next(), KindCall, p)
}

// NewReturn creates a return; pass NoNodeID for a bare return.
func (b *Builder) NewReturn(value NodeID) NodeID {
	p := b.Nodes.Returns.Allocate(ReturnData{Value: value})
	return b.Nodes.add(b.alloc.Next(), KindReturn, p)
}

func (b *Builder) NewBranch(cond NodeID, then, els []NodeID) NodeID {
	p := b.Nodes.Branches.Allocate(BranchData{Cond: cond, Then: slices.Clone(then), Else: slices.Clone(els)})
	return b.Nodes.add(b.alloc.Next(), KindBranch, p)
}

func (b *Builder) NewAssignment(target string, value NodeID) NodeID {
	p := b.Nodes.Assignments.Allocate(AssignmentData{Target: target, Value: value})
	return b.Nodes.add(b.alloc.Next(), KindAssignment, p)
}

func (b *Builder) NewWhile(cond NodeID, body []NodeID) NodeID {
	p := b.Nodes.Whiles.Allocate(WhileData{Cond: cond, Body: slices.Clone(body)})
	return b.Nodes.add(b.alloc.Next(), KindWhile, p)
}

func (b *Builder) NewVoidContext(op NodeID) NodeID {
	p := b.Nodes.VoidContexts.Allocate(VoidContextData{Operation: op})
	return b.Nodes.add(b.alloc.Next(), KindVoidContext, p)
}
