package mir

import (
	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/types"
)

func (l *funcLowerer) lowerBlock(body []ast.NodeID) error {
	for _, id := range body {
		if l.dead() {
			// остаток тела недостижим
			return nil
		}
		if err := l.lowerStmt(id); err != nil {
			return err
		}
	}
	return nil
}

func (l *funcLowerer) lowerStmt(id ast.NodeID) error {
	switch kind := l.nodes.Kind(id); kind {
	case ast.KindReturn:
		ret, _ := l.nodes.Return(id)
		return l.lowerReturn(id, ret)
	case ast.KindAssignment:
		as, _ := l.nodes.Assignment(id)
		return l.lowerAssignment(id, as)
	case ast.KindBranch:
		br, _ := l.nodes.Branch(id)
		return l.lowerBranch(id, br)
	case ast.KindWhile:
		w, _ := l.nodes.While(id)
		return l.lowerWhile(id, w)
	case ast.KindVoidContext:
		vc, _ := l.nodes.VoidContext(id)
		_, err := l.lowerOperation(vc.Operation)
		return err
	case ast.KindInvalid:
		return diag.Errorf(diag.TypeError, id, "unknown node in function body")
	default:
		return diag.Errorf(diag.TypeError, id, "%s node used as a statement", kind)
	}
}

func (l *funcLowerer) lowerReturn(id ast.NodeID, ret *ast.ReturnData) error {
	if !ret.Value.IsValid() {
		if l.f.Result != types.Void {
			return diag.Errorf(diag.TypeError, id, "missing return value in %q returning %s", l.f.Name, l.f.Result)
		}
		l.setTerm(&Terminator{Kind: TermReturn, Node: id})
		return nil
	}
	v, err := l.lowerOperation(ret.Value)
	if err != nil {
		return err
	}
	if l.f.Result == types.Void {
		return diag.Errorf(diag.TypeError, id, "%q returns no value", l.f.Name)
	}
	if v.op.Type != l.f.Result {
		return diag.Errorf(diag.TypeError, id, "return type mismatch in %q: expected %s, got %s", l.f.Name, l.f.Result, v.op.Type)
	}
	l.setTerm(&Terminator{
		Kind:   TermReturn,
		Node:   id,
		Return: ReturnTerm{HasValue: true, Value: v.op},
	})
	return nil
}

func (l *funcLowerer) lowerAssignment(id ast.NodeID, as *ast.AssignmentData) error {
	name := normalizeName(as.Target)
	local, ok := l.scope[name]
	if !ok {
		return diag.Errorf(diag.NameError, id, "assignment to unknown variable %q", as.Target)
	}
	v, err := l.lowerOperation(as.Value)
	if err != nil {
		return err
	}
	want := l.f.Locals[local].Type
	if v.op.Type != want {
		return diag.Errorf(diag.TypeError, id, "cannot assign %s to %q of type %s", v.op.Type, as.Target, want)
	}
	l.emit(&Instr{
		Kind:   InstrAssign,
		Node:   id,
		Assign: AssignInstr{Dst: local, Src: RValue{Kind: RValueUse, Use: v.op}},
	})
	l.memo.evict(map[string]struct{}{name: {}})
	return nil
}

func (l *funcLowerer) lowerCond(id ast.NodeID, what string) (Operand, error) {
	v, err := l.lowerOperation(id)
	if err != nil {
		return Operand{}, err
	}
	if v.op.Type != types.Bool {
		return Operand{}, diag.Errorf(diag.TypeError, id, "%s condition must be bool, got %s", what, v.op.Type)
	}
	return v.op, nil
}

func (l *funcLowerer) lowerBranch(id ast.NodeID, br *ast.BranchData) error {
	cond, err := l.lowerCond(br.Cond, "branch")
	if err != nil {
		return err
	}

	thenBB := l.newBlock()
	elseBB := l.newBlock()
	joinBB := l.newBlock()

	l.setTerm(&Terminator{
		Kind: TermIf,
		Node: id,
		If:   IfTerm{Cond: cond, Then: thenBB, Else: elseBB},
	})

	if err := l.lowerArm(thenBB, joinBB, br.Then); err != nil {
		return err
	}
	if err := l.lowerArm(elseBB, joinBB, br.Else); err != nil {
		return err
	}

	l.startBlock(joinBB)
	return nil
}

func (l *funcLowerer) lowerArm(bb, joinBB BlockID, body []ast.NodeID) error {
	l.startBlock(bb)
	l.memo.push()
	err := l.lowerBlock(body)
	l.memo.pop()
	if err != nil {
		return err
	}
	if !l.curBlock().Terminated() {
		l.setTerm(&Terminator{Kind: TermGoto, Goto: GotoTerm{Target: joinBB}})
	}
	return nil
}

func (l *funcLowerer) lowerWhile(id ast.NodeID, w *ast.WhileData) error {
	assigned := l.nodes.AssignedNames(w.Body)
	if len(assigned) > 0 {
		normalized := make(map[string]struct{}, len(assigned))
		for name := range assigned {
			normalized[normalizeName(name)] = struct{}{}
		}
		l.memo.evict(normalized)
	}

	headerBB := l.newBlock()
	bodyBB := l.newBlock()
	exitBB := l.newBlock()

	l.setTerm(&Terminator{Kind: TermGoto, Goto: GotoTerm{Target: headerBB}})

	l.startBlock(headerBB)
	cond, err := l.lowerCond(w.Cond, "loop")
	if err != nil {
		return err
	}
	l.setTerm(&Terminator{
		Kind: TermIf,
		Node: id,
		If:   IfTerm{Cond: cond, Then: bodyBB, Else: exitBB},
	})

	if err := l.lowerArm(bodyBB, headerBB, w.Body); err != nil {
		return err
	}

	l.startBlock(exitBB)
	return nil
}
