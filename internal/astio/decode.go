package astio

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"kestrel/internal/ast"
	"kestrel/internal/types"
)

// Decode builds a program from doc using alloc for node identities. Names
// are NFC-normalised. Nodes not reachable from a declaration are ignored.
func Decode(doc *Document, alloc *ast.Allocator) (*ast.Program, error) {
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, doc.Version)
	}
	d := &decoder{
		b:     ast.NewBuilder(alloc, ast.Hints{Nodes: uint(len(doc.Nodes))}),
		byID:  make(map[uint32]*NodeDoc, len(doc.Nodes)),
		built: make(map[uint32]ast.NodeID, len(doc.Nodes)),
		busy:  make(map[uint32]bool),
	}
	for i := range doc.Nodes {
		nd := &doc.Nodes[i]
		if nd.ID == 0 {
			return nil, fmt.Errorf("%w: node #%d has no id", ErrMalformed, i)
		}
		if _, dup := d.byID[nd.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", ErrMalformed, nd.ID)
		}
		d.byID[nd.ID] = nd
	}
	for _, ref := range doc.Decls {
		id, err := d.node(ref)
		if err != nil {
			return nil, err
		}
		if k := d.b.Nodes.Kind(id); !k.IsDeclaration() {
			return nil, fmt.Errorf("%w: decl %d is a %s", ErrMalformed, ref, k)
		}
		d.b.AddDecl(id)
	}
	return d.b.Program(), nil
}

type decoder struct {
	b     *ast.Builder
	byID  map[uint32]*NodeDoc
	built map[uint32]ast.NodeID
	busy  map[uint32]bool
}

func (d *decoder) node(ref uint32) (ast.NodeID, error) {
	if id, ok := d.built[ref]; ok {
		return id, nil
	}
	nd, ok := d.byID[ref]
	if !ok {
		return ast.NoNodeID, fmt.Errorf("%w: reference to unknown node %d", ErrMalformed, ref)
	}
	if d.busy[ref] {
		return ast.NoNodeID, fmt.Errorf("%w: node %d refers to itself", ErrMalformed, ref)
	}
	d.busy[ref] = true
	id, err := d.build(nd)
	delete(d.busy, ref)
	if err != nil {
		return ast.NoNodeID, fmt.Errorf("node %d (%s): %w", ref, nd.Kind, err)
	}
	d.built[ref] = id
	return id, nil
}

// optional treats 0 as "absent".
func (d *decoder) optional(ref uint32) (ast.NodeID, error) {
	if ref == 0 {
		return ast.NoNodeID, nil
	}
	return d.node(ref)
}

func (d *decoder) required(ref uint32, field string) (ast.NodeID, error) {
	if ref == 0 {
		return ast.NoNodeID, fmt.Errorf("%w: missing %s", ErrMalformed, field)
	}
	return d.node(ref)
}

func (d *decoder) list(refs []uint32) ([]ast.NodeID, error) {
	out := make([]ast.NodeID, 0, len(refs))
	for _, ref := range refs {
		id, err := d.node(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (d *decoder) build(nd *NodeDoc) (ast.NodeID, error) {
	kind, ok := ast.ParseKind(nd.Kind)
	if !ok {
		return ast.NoNodeID, fmt.Errorf("%w: unknown kind %q", ErrMalformed, nd.Kind)
	}
	name := norm.NFC.String(nd.Name)

	var ty types.Type
	if kind.IsDeclaration() || kind.IsOperation() {
		var err error
		if ty, err = types.ParseType(nd.Type); err != nil {
			return ast.NoNodeID, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	switch kind {
	case ast.KindExtern, ast.KindFunc:
		params, err := d.list(nd.Params)
		if err != nil {
			return ast.NoNodeID, err
		}
		if kind == ast.KindExtern {
			return d.b.NewExtern(name, ty, params, nd.Variadic), nil
		}
		body, err := d.list(nd.Body)
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewFunc(name, ty, params, nd.Variadic, body), nil
	case ast.KindVariable:
		return d.b.NewVariable(ty, name), nil
	case ast.KindConstant:
		v, err := constant(ty, nd)
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewTypedConstant(ty, v), nil
	case ast.KindCast:
		x, err := d.required(nd.Value, "value")
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewCast(ty, x), nil
	case ast.KindUnOp:
		x, err := d.required(nd.Value, "value")
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewUnOp(ty, nd.Op, x), nil
	case ast.KindBinOp:
		l, err := d.required(nd.Left, "left")
		if err != nil {
			return ast.NoNodeID, err
		}
		r, err := d.required(nd.Right, "right")
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewBinOp(ty, nd.Op, l, r), nil
	case ast.KindCall:
		args, err := d.list(nd.Args)
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewCall(ty, name, args), nil
	case ast.KindReturn:
		x, err := d.optional(nd.Value)
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewReturn(x), nil
	case ast.KindBranch:
		cond, err := d.required(nd.Cond, "cond")
		if err != nil {
			return ast.NoNodeID, err
		}
		then, err := d.list(nd.Then)
		if err != nil {
			return ast.NoNodeID, err
		}
		els, err := d.list(nd.Else)
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewBranch(cond, then, els), nil
	case ast.KindAssignment:
		x, err := d.required(nd.Value, "value")
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewAssignment(name, x), nil
	case ast.KindWhile:
		cond, err := d.required(nd.Cond, "cond")
		if err != nil {
			return ast.NoNodeID, err
		}
		body, err := d.list(nd.Body)
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewWhile(cond, body), nil
	case ast.KindVoidContext:
		x, err := d.required(nd.Value, "value")
		if err != nil {
			return ast.NoNodeID, err
		}
		return d.b.NewVoidContext(x), nil
	default:
		return ast.NoNodeID, fmt.Errorf("%w: unexpected kind %s", ErrMalformed, kind)
	}
}

// constant reads the literal; lit_type defaults to the node type.
func constant(ty types.Type, nd *NodeDoc) (types.Value, error) {
	litType := ty
	if nd.LitType != "" {
		var err error
		if litType, err = types.ParseType(nd.LitType); err != nil {
			return types.Value{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	if nd.Lit == nil {
		if litType.IsValue() {
			return types.Value{}, fmt.Errorf("%w: %s constant without lit", ErrMalformed, litType)
		}
		return types.Value{Type: litType}, nil
	}
	v, err := types.ParseValue(litType, *nd.Lit)
	if err != nil {
		return types.Value{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return v, nil
}
