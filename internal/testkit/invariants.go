package testkit

import (
	"fmt"

	"kestrel/internal/ast"
)

// CheckNodeInvariants runs a minimal set of structural invariants on a program:
// 1) every declaration id names an Extern or Func node
// 2) every child reference resolves and belongs to the expected group
// 3) parameters are Variable nodes
func CheckNodeInvariants(prog *ast.Program) error {
	if prog == nil || prog.Nodes == nil {
		return fmt.Errorf("nil program")
	}
	n := prog.Nodes
	for _, id := range prog.Decls {
		if !n.Kind(id).IsDeclaration() {
			return fmt.Errorf("decl %s is %s", id, n.Kind(id))
		}
		sig, _ := n.Signature(id)
		for _, p := range sig.Params {
			if n.Kind(p) != ast.KindVariable {
				return fmt.Errorf("param %s of %s is %s", p, id, n.Kind(p))
			}
		}
		if fn, ok := n.Func(id); ok {
			if err := checkBody(n, fn.Body); err != nil {
				return fmt.Errorf("func %s: %w", fn.Name, err)
			}
		}
	}
	return nil
}

func checkBody(n *ast.Nodes, body []ast.NodeID) error {
	for _, id := range body {
		kind := n.Kind(id)
		if !kind.IsStatement() {
			return fmt.Errorf("body item %s is %s", id, kind)
		}
		var err error
		switch kind {
		case ast.KindReturn:
			r, _ := n.Return(id)
			if r.Value.IsValid() {
				err = checkOperation(n, r.Value)
			}
		case ast.KindAssignment:
			a, _ := n.Assignment(id)
			err = checkOperation(n, a.Value)
		case ast.KindVoidContext:
			v, _ := n.VoidContext(id)
			err = checkOperation(n, v.Operation)
		case ast.KindBranch:
			b, _ := n.Branch(id)
			if err = checkOperation(n, b.Cond); err == nil {
				if err = checkBody(n, b.Then); err == nil {
					err = checkBody(n, b.Else)
				}
			}
		case ast.KindWhile:
			w, _ := n.While(id)
			if err = checkOperation(n, w.Cond); err == nil {
				err = checkBody(n, w.Body)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkOperation(n *ast.Nodes, id ast.NodeID) error {
	kind := n.Kind(id)
	if !kind.IsOperation() {
		return fmt.Errorf("operand %s is %s", id, kind)
	}
	var children []ast.NodeID
	switch kind {
	case ast.KindCast:
		c, _ := n.Cast(id)
		children = []ast.NodeID{c.Value}
	case ast.KindUnOp:
		u, _ := n.UnOp(id)
		children = []ast.NodeID{u.Operand}
	case ast.KindBinOp:
		b, _ := n.BinOp(id)
		children = []ast.NodeID{b.Left, b.Right}
	case ast.KindCall:
		c, _ := n.Call(id)
		children = c.Args
	}
	for _, child := range children {
		if err := checkOperation(n, child); err != nil {
			return err
		}
	}
	return nil
}
