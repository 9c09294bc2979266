package mir

import (
	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/types"
)

// lowerOperation lowers an operation node, reusing the memoised value for a
// shared node when one is still valid here.
func (l *funcLowerer) lowerOperation(id ast.NodeID) (loweredValue, error) {
	if v, ok := l.memo.lookup(id); ok {
		return v, nil
	}
	ty, ok := l.nodes.OperationType(id)
	if !ok {
		if kind := l.nodes.Kind(id); kind != ast.KindInvalid {
			return loweredValue{}, diag.Errorf(diag.TypeError, id, "%s node used as an operation", kind)
		}
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "unknown operation node")
	}
	if ty == types.Poison {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "poison type reached lowering")
	}

	var (
		v   loweredValue
		err error
	)
	switch kind := l.nodes.Kind(id); kind {
	case ast.KindVariable:
		data, _ := l.nodes.Variable(id)
		v, err = l.lowerVariable(id, data)
	case ast.KindConstant:
		data, _ := l.nodes.Constant(id)
		v, err = l.lowerConstant(id, data)
	case ast.KindCast:
		data, _ := l.nodes.Cast(id)
		v, err = l.lowerCast(id, data)
	case ast.KindUnOp:
		data, _ := l.nodes.UnOp(id)
		v, err = l.lowerUnOp(id, data)
	case ast.KindBinOp:
		data, _ := l.nodes.BinOp(id)
		v, err = l.lowerBinOp(id, data)
	case ast.KindCall:
		data, _ := l.nodes.Call(id)
		v, err = l.lowerCall(id, data)
	default:
		panic("mir: unhandled operation kind " + kind.String())
	}
	if err != nil {
		return loweredValue{}, err
	}
	l.memo.store(id, v)
	return v, nil
}

// lowerValue lowers an operand that must produce a value.
func (l *funcLowerer) lowerValue(id ast.NodeID, parent ast.NodeID) (loweredValue, error) {
	v, err := l.lowerOperation(id)
	if err != nil {
		return loweredValue{}, err
	}
	if v.op.Kind == OperandVoid {
		return loweredValue{}, diag.Errorf(diag.TypeError, parent, "void call result %s used as a value", id)
	}
	return v, nil
}

func (l *funcLowerer) lowerVariable(id ast.NodeID, data *ast.VariableData) (loweredValue, error) {
	name := normalizeName(data.Name)
	local, ok := l.scope[name]
	if !ok {
		return loweredValue{}, diag.Errorf(diag.NameError, id, "unknown variable %q", data.Name)
	}
	lt := l.f.Locals[local].Type
	if data.Type != lt {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "variable %q is %s, node says %s", data.Name, lt, data.Type)
	}
	return loweredValue{
		op:    CopyOperand(local, lt),
		reads: nameSet{name: {}},
	}, nil
}

func (l *funcLowerer) lowerConstant(id ast.NodeID, data *ast.ConstantData) (loweredValue, error) {
	if !data.Value.Matches(data.Type) {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "constant %s does not match type %s", data.Value, data.Type)
	}
	return loweredValue{op: ConstOperand(data.Value)}, nil
}

func (l *funcLowerer) lowerCast(id ast.NodeID, data *ast.CastData) (loweredValue, error) {
	src, err := l.lowerValue(data.Value, id)
	if err != nil {
		return loweredValue{}, err
	}
	if data.Type != data.To {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "cast to %s typed as %s", data.To, data.Type)
	}
	kind := types.Cast(src.op.Type, data.To)
	if kind == types.CastIllegal {
		return loweredValue{}, diag.Errorf(diag.CastError, id, "cannot cast %s to %s", src.op.Type, data.To)
	}
	if kind == types.CastIdentity {
		return src, nil
	}
	return l.assignTemp(id, data.To, RValue{
		Kind: RValueCast,
		Cast: CastOp{Value: src.op, TargetTy: data.To, Kind: kind},
	}, src)
}

func (l *funcLowerer) lowerUnOp(id ast.NodeID, data *ast.UnOpData) (loweredValue, error) {
	op, ok := types.ParseUnaryOp(data.Op)
	if !ok {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "unknown unary operator %q", data.Op)
	}
	operand, err := l.lowerValue(data.Operand, id)
	if err != nil {
		return loweredValue{}, err
	}
	ty, err := types.UnaryResultType(op, operand.op.Type)
	if err != nil {
		return loweredValue{}, diag.Wrap(diag.TypeError, id, err, "invalid unary operation")
	}
	if ty != data.Type {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "unary %s yields %s, node says %s", op, ty, data.Type)
	}
	return l.assignTemp(id, ty, RValue{
		Kind:  RValueUnaryOp,
		Unary: UnaryOp{Op: op, Operand: operand.op},
	}, operand)
}

func (l *funcLowerer) lowerBinOp(id ast.NodeID, data *ast.BinOpData) (loweredValue, error) {
	op, ok := types.ParseBinaryOp(data.Op)
	if !ok {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "unknown binary operator %q", data.Op)
	}
	left, err := l.lowerValue(data.Left, id)
	if err != nil {
		return loweredValue{}, err
	}
	right, err := l.lowerValue(data.Right, id)
	if err != nil {
		return loweredValue{}, err
	}
	ty, err := types.BinaryResultType(op, left.op.Type, right.op.Type)
	if err != nil {
		return loweredValue{}, diag.Wrap(diag.TypeError, id, err, "invalid binary operation")
	}
	if ty != data.Type {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "binary %s yields %s, node says %s", op, ty, data.Type)
	}
	return l.assignTemp(id, ty, RValue{
		Kind:   RValueBinaryOp,
		Binary: BinaryOp{Op: op, Left: left.op, Right: right.op},
	}, left, right)
}

func (l *funcLowerer) lowerCall(id ast.NodeID, data *ast.CallData) (loweredValue, error) {
	name := normalizeName(data.Callee)
	decl, ok := l.out.Decl(name)
	if !ok {
		return loweredValue{}, diag.Errorf(diag.NameError, id, "unknown function %q", data.Callee)
	}
	switch {
	case decl.Variadic && len(data.Args) < len(decl.Params):
		return loweredValue{}, diag.Errorf(diag.ArityError, id, "%q expects at least %d arguments, got %d", name, len(decl.Params), len(data.Args))
	case !decl.Variadic && len(data.Args) != len(decl.Params):
		return loweredValue{}, diag.Errorf(diag.ArityError, id, "%q expects %d arguments, got %d", name, len(decl.Params), len(data.Args))
	}
	if data.Type != decl.Result {
		return loweredValue{}, diag.Errorf(diag.TypeError, id, "%q returns %s, call typed as %s", name, decl.Result, data.Type)
	}

	result := loweredValue{impure: true}
	args := make([]Operand, 0, len(data.Args))
	for i, argID := range data.Args {
		arg, err := l.lowerValue(argID, id)
		if err != nil {
			return loweredValue{}, err
		}
		if i < len(decl.Params) && arg.op.Type != decl.Params[i] {
			return loweredValue{}, diag.Errorf(diag.TypeError, argID, "argument %d of %q: expected %s, got %s", i+1, name, decl.Params[i], arg.op.Type)
		}
		result.reads = result.reads.union(arg.reads)
		args = append(args, arg.op)
	}

	call := CallInstr{Callee: name, Args: args, Dst: NoLocalID}
	if decl.Result == types.Void {
		result.op = Operand{Kind: OperandVoid, Type: types.Void, Local: NoLocalID}
	} else {
		dst, err := l.newTemp(decl.Result, id)
		if err != nil {
			return loweredValue{}, err
		}
		call.HasDst = true
		call.Dst = dst
		result.op = CopyOperand(dst, decl.Result)
	}
	l.emit(&Instr{Kind: InstrCall, Node: id, Call: call})
	return result, nil
}

// assignTemp stores rv into a fresh temporary and returns it as the value of id.
func (l *funcLowerer) assignTemp(id ast.NodeID, ty types.Type, rv RValue, deps ...loweredValue) (loweredValue, error) {
	tmp, err := l.newTemp(ty, id)
	if err != nil {
		return loweredValue{}, err
	}
	l.emit(&Instr{
		Kind:   InstrAssign,
		Node:   id,
		Assign: AssignInstr{Dst: tmp, Src: rv},
	})
	v := loweredValue{op: CopyOperand(tmp, ty)}
	for _, d := range deps {
		v.reads = v.reads.union(d.reads)
		v.impure = v.impure || d.impure
	}
	return v, nil
}
