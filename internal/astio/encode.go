package astio

import (
	"fmt"

	"fortio.org/safecast"

	"kestrel/internal/ast"
	"kestrel/internal/types"
)

// Encode converts prog into a document. Nodes are numbered in post-order
// from the declarations, so equal programs encode identically regardless of
// their allocator ids.
func Encode(name string, prog *ast.Program) (*Document, error) {
	e := &encoder{nodes: prog.Nodes, ids: make(map[ast.NodeID]uint32)}
	doc := &Document{Version: FormatVersion, Name: name}
	for _, d := range prog.Decls {
		id, err := e.node(d)
		if err != nil {
			return nil, err
		}
		doc.Decls = append(doc.Decls, id)
	}
	doc.Nodes = e.out
	return doc, nil
}

type encoder struct {
	nodes *ast.Nodes
	ids   map[ast.NodeID]uint32
	out   []NodeDoc
}

func (e *encoder) node(id ast.NodeID) (uint32, error) {
	if !id.IsValid() {
		return 0, nil
	}
	if doc, ok := e.ids[id]; ok {
		return doc, nil
	}
	nd, err := e.build(id)
	if err != nil {
		return 0, err
	}
	n, err := safecast.Conv[uint32](len(e.out) + 1)
	if err != nil {
		return 0, err
	}
	nd.ID = n
	nd.Kind = e.nodes.Kind(id).String()
	e.ids[id] = n
	e.out = append(e.out, nd)
	return n, nil
}

func (e *encoder) list(ids []ast.NodeID) ([]uint32, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		n, err := e.node(id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (e *encoder) build(id ast.NodeID) (NodeDoc, error) {
	var (
		nd  NodeDoc
		err error
	)
	switch kind := e.nodes.Kind(id); kind {
	case ast.KindExtern:
		x, _ := e.nodes.Extern(id)
		nd, err = e.signature(&x.Signature)
	case ast.KindFunc:
		x, _ := e.nodes.Func(id)
		if nd, err = e.signature(&x.Signature); err == nil {
			nd.Body, err = e.list(x.Body)
		}
	case ast.KindVariable:
		x, _ := e.nodes.Variable(id)
		nd = NodeDoc{Type: x.Type.String(), Name: x.Name}
	case ast.KindConstant:
		x, _ := e.nodes.Constant(id)
		nd = NodeDoc{Type: x.Type.String()}
		if x.Value.Type != x.Type {
			nd.LitType = x.Value.Type.String()
		}
		if lit, ok := literal(x.Value); ok {
			nd.Lit = &lit
		}
	case ast.KindCast:
		x, _ := e.nodes.Cast(id)
		nd = NodeDoc{Type: x.To.String()}
		nd.Value, err = e.node(x.Value)
	case ast.KindUnOp:
		x, _ := e.nodes.UnOp(id)
		nd = NodeDoc{Type: x.Type.String(), Op: x.Op}
		nd.Value, err = e.node(x.Operand)
	case ast.KindBinOp:
		x, _ := e.nodes.BinOp(id)
		nd = NodeDoc{Type: x.Type.String(), Op: x.Op}
		if nd.Left, err = e.node(x.Left); err == nil {
			nd.Right, err = e.node(x.Right)
		}
	case ast.KindCall:
		x, _ := e.nodes.Call(id)
		nd = NodeDoc{Type: x.Type.String(), Name: x.Callee}
		nd.Args, err = e.list(x.Args)
	case ast.KindReturn:
		x, _ := e.nodes.Return(id)
		nd.Value, err = e.node(x.Value)
	case ast.KindBranch:
		x, _ := e.nodes.Branch(id)
		if nd.Cond, err = e.node(x.Cond); err != nil {
			break
		}
		if nd.Then, err = e.list(x.Then); err != nil {
			break
		}
		nd.Else, err = e.list(x.Else)
	case ast.KindAssignment:
		x, _ := e.nodes.Assignment(id)
		nd = NodeDoc{Name: x.Target}
		nd.Value, err = e.node(x.Value)
	case ast.KindWhile:
		x, _ := e.nodes.While(id)
		if nd.Cond, err = e.node(x.Cond); err == nil {
			nd.Body, err = e.list(x.Body)
		}
	case ast.KindVoidContext:
		x, _ := e.nodes.VoidContext(id)
		nd.Value, err = e.node(x.Operation)
	default:
		return NodeDoc{}, fmt.Errorf("encode node %s: unexpected kind %s", id, kind)
	}
	return nd, err
}

func (e *encoder) signature(sig *ast.Signature) (NodeDoc, error) {
	params, err := e.list(sig.Params)
	if err != nil {
		return NodeDoc{}, err
	}
	return NodeDoc{
		Type:     sig.Return.String(),
		Name:     sig.Name,
		Params:   params,
		Variadic: sig.Variadic,
	}, nil
}

// literal returns the text ParseValue reads back into v.
func literal(v types.Value) (string, bool) {
	switch v.Type {
	case types.String:
		return v.Str, true
	case types.Bool, types.Int32, types.Float32:
		return v.String(), true
	default:
		return "", false
	}
}
