package mir

import (
	"fmt"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/types"
)

// LowerOptions configures one lowering pass.
type LowerOptions struct {
	ModuleName string
}

// LowerProgram lowers prog into a fresh backend module. The first error
// aborts the pass and no module is returned.
func LowerProgram(prog *ast.Program, opts LowerOptions) (*Module, error) {
	if prog == nil || prog.Nodes == nil {
		return nil, fmt.Errorf("mir: nil program")
	}
	name := opts.ModuleName
	if name == "" {
		name = "main"
	}
	out := NewModule(name)
	for _, declID := range prog.Decls {
		switch kind := prog.Nodes.Kind(declID); kind {
		case ast.KindExtern:
			ext, _ := prog.Nodes.Extern(declID)
			if _, err := registerDecl(out, prog.Nodes, declID, &ext.Signature, false); err != nil {
				return nil, err
			}
		case ast.KindFunc:
			fn, _ := prog.Nodes.Func(declID)
			decl, err := registerDecl(out, prog.Nodes, declID, &fn.Signature, true)
			if err != nil {
				return nil, err
			}
			id, err := safecast.Conv[int32](len(out.Funcs))
			if err != nil {
				return nil, fmt.Errorf("mir: function id overflow: %w", err)
			}
			l := &funcLowerer{out: out, nodes: prog.Nodes}
			f, err := l.lowerFunc(FuncID(id), declID, decl, fn)
			if err != nil {
				return nil, err
			}
			out.Funcs = append(out.Funcs, f)
		default:
			return nil, diag.Errorf(diag.TypeError, declID, "%s node in declaration list", kind)
		}
	}
	return out, nil
}

// normalizeName folds identifiers to NFC so visually identical names resolve
// to the same symbol.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}

func registerDecl(out *Module, nodes *ast.Nodes, id ast.NodeID, sig *ast.Signature, defined bool) (*FuncDecl, error) {
	name := normalizeName(sig.Name)
	if name == "" {
		return nil, diag.Errorf(diag.NameError, id, "declaration without a name")
	}
	if !sig.Return.IsReturnable() {
		return nil, diag.Errorf(diag.TypeError, id, "function %q has invalid return type %s", name, sig.Return)
	}
	decl := &FuncDecl{
		Name:     name,
		Params:   make([]types.Type, 0, len(sig.Params)),
		Result:   sig.Return,
		Variadic: sig.Variadic,
		Node:     id,
		Defined:  defined,
	}
	for _, p := range sig.Params {
		v, ok := nodes.Variable(p)
		if !ok {
			return nil, diag.Errorf(diag.TypeError, p, "parameter of %q is not a variable", name)
		}
		if !v.Type.IsValue() {
			return nil, diag.Errorf(diag.TypeError, p, "parameter %q of %q has type %s", v.Name, name, v.Type)
		}
		decl.Params = append(decl.Params, v.Type)
	}

	prev, exists := out.Decl(name)
	if !exists {
		out.addDecl(decl)
		return decl, nil
	}
	if !prev.SameSignature(decl) {
		return nil, diag.Errorf(diag.NameError, id, "%q redeclared with a different signature (first declared at node %s)", name, prev.Node)
	}
	if prev.Defined && defined {
		return nil, diag.Errorf(diag.NameError, id, "function %q defined twice (first defined at node %s)", name, prev.Node)
	}
	if defined {
		prev.Defined = true
		prev.Node = id
	}
	return prev, nil
}

type funcLowerer struct {
	out   *Module
	nodes *ast.Nodes
	f     *Func

	cur   BlockID
	preds map[BlockID]int

	scope map[string]LocalID
	memo  *memoTable
}

func (l *funcLowerer) lowerFunc(id FuncID, declID ast.NodeID, decl *FuncDecl, fn *ast.FuncData) (*Func, error) {
	l.f = &Func{
		ID:       id,
		Name:     decl.Name,
		Node:     declID,
		Result:   decl.Result,
		Variadic: decl.Variadic,
	}
	l.preds = make(map[BlockID]int)
	l.scope = make(map[string]LocalID, len(fn.Params))
	l.memo = newMemoTable()

	for _, p := range fn.Params {
		v, _ := l.nodes.Variable(p)
		name := normalizeName(v.Name)
		if _, dup := l.scope[name]; dup {
			return nil, diag.Errorf(diag.NameError, p, "duplicate parameter %q in %q", name, decl.Name)
		}
		local, err := l.addLocal(Local{Name: name, Type: v.Type, Flags: LocalFlagParam, Node: p})
		if err != nil {
			return nil, err
		}
		l.scope[name] = local
	}
	l.f.ParamCount = len(fn.Params)

	l.f.Entry = l.newBlock()
	l.startBlock(l.f.Entry)

	if err := l.lowerBlock(fn.Body); err != nil {
		return nil, err
	}

	if !l.curBlock().Terminated() {
		switch {
		case l.dead():
			l.setTerm(&Terminator{Kind: TermUnreachable})
		case decl.Result != types.Void:
			return nil, diag.Errorf(diag.TypeError, declID, "missing return in %q: control reaches the end of a function returning %s", decl.Name, decl.Result)
		default:
			l.setTerm(&Terminator{Kind: TermReturn, Node: declID})
		}
	}

	// Ensure all blocks are terminated.
	for i := range l.f.Blocks {
		if l.f.Blocks[i].Term.Kind == TermNone {
			l.f.Blocks[i].Term = Terminator{Kind: TermUnreachable}
		}
	}
	return l.f, nil
}

func (l *funcLowerer) curBlock() *Block {
	if l.f == nil || l.cur == NoBlockID {
		return nil
	}
	return &l.f.Blocks[l.cur]
}

func (l *funcLowerer) newBlock() BlockID {
	n, err := safecast.Conv[int32](len(l.f.Blocks))
	if err != nil {
		panic(fmt.Errorf("mir: block id overflow: %w", err))
	}
	id := BlockID(n)
	l.f.Blocks = append(l.f.Blocks, Block{ID: id})
	return id
}

func (l *funcLowerer) startBlock(id BlockID) {
	l.cur = id
}

func (l *funcLowerer) setTerm(t *Terminator) {
	b := l.curBlock()
	if b == nil || b.Terminated() {
		return
	}
	b.Term = *t
	for _, succ := range t.Successors() {
		l.preds[succ]++
	}
}

func (l *funcLowerer) emit(ins *Instr) {
	b := l.curBlock()
	if b == nil || b.Terminated() {
		return
	}
	b.Instrs = append(b.Instrs, *ins)
}

// dead reports whether nothing more can be emitted into the current block:
// it is terminated or no edge leads to it.
func (l *funcLowerer) dead() bool {
	if l.curBlock().Terminated() {
		return true
	}
	return l.cur != l.f.Entry && l.preds[l.cur] == 0
}

func (l *funcLowerer) addLocal(local Local) (LocalID, error) {
	n, err := safecast.Conv[int32](len(l.f.Locals))
	if err != nil {
		return NoLocalID, fmt.Errorf("mir: local id overflow: %w", err)
	}
	l.f.Locals = append(l.f.Locals, local)
	return LocalID(n), nil
}

func (l *funcLowerer) newTemp(ty types.Type, node ast.NodeID) (LocalID, error) {
	return l.addLocal(Local{
		Name:  fmt.Sprintf("tmp%d", len(l.f.Locals)),
		Type:  ty,
		Flags: LocalFlagTemp,
		Node:  node,
	})
}

func (l *funcLowerer) lookup(name string) (LocalID, bool) {
	id, ok := l.scope[normalizeName(name)]
	return id, ok
}
