package mir

import (
	"errors"
	"fmt"

	"kestrel/internal/diag"
	"kestrel/internal/types"
)

// Validate performs structural validation of MIR. Every failure is a
// diag.VerificationError attributed to the function's declaration node.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	seen := make(map[string]struct{}, len(m.Funcs))
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errs = append(errs, diag.Errorf(diag.VerificationError, f.Node, "function %q has more than one body", f.Name))
			continue
		}
		seen[f.Name] = struct{}{}
		if err := validateFunc(m, f); err != nil {
			errs = append(errs, diag.Wrap(diag.VerificationError, f.Node, err, "function %q is malformed", f.Name))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Func) error {
	var errs []error
	if len(f.Blocks) == 0 || f.Block(f.Entry) == nil {
		return fmt.Errorf("missing entry block")
	}
	if decl, ok := m.Decl(f.Name); !ok {
		errs = append(errs, fmt.Errorf("no declaration registered"))
	} else if decl.Result != f.Result || len(decl.Params) != f.ParamCount {
		errs = append(errs, fmt.Errorf("body does not match its declaration"))
	}
	for i := 0; i < f.ParamCount && i < len(f.Locals); i++ {
		if !f.Locals[i].IsParam() {
			errs = append(errs, fmt.Errorf("local %d is not a parameter", i))
		}
	}

	errs = append(errs, validateTerminators(f)...)
	errs = append(errs, validateTypes(m, f)...)
	errs = append(errs, validateReturns(f)...)

	reachable := reachableBlocks(f)
	for i := range f.Blocks {
		if reachable[i] && f.Blocks[i].Term.Kind == TermUnreachable {
			errs = append(errs, fmt.Errorf("bb%d: reachable block ends in unreachable", i))
		}
	}
	if len(errs) == 0 {
		// the dataflow pass assumes a well-formed CFG
		errs = append(errs, validateDefiniteAssignment(f, reachable)...)
	}
	return errors.Join(errs...)
}

func validateTerminators(f *Func) []error {
	var errs []error
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if bb.ID != BlockID(i) {
			errs = append(errs, fmt.Errorf("bb%d: block id is %d", i, bb.ID))
		}
		if bb.Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: missing terminator", i))
			continue
		}
		for _, succ := range bb.Successors() {
			if f.Block(succ) == nil {
				errs = append(errs, fmt.Errorf("bb%d: branch to missing block bb%d", i, succ))
			}
		}
	}
	return errs
}

func validateTypes(m *Module, f *Func) []error {
	var errs []error
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			var err error
			switch ins.Kind {
			case InstrAssign:
				err = validateAssign(f, &ins.Assign)
			case InstrCall:
				err = validateCall(m, f, &ins.Call)
			default:
				err = fmt.Errorf("unknown instruction kind %d", ins.Kind)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("bb%d.%d (node %s): %w", i, j, ins.Node, err))
			}
		}
		if bb.Term.Kind == TermIf {
			if err := validateOperand(f, bb.Term.If.Cond); err != nil {
				errs = append(errs, fmt.Errorf("bb%d: condition: %w", i, err))
			} else if bb.Term.If.Cond.Type != types.Bool {
				errs = append(errs, fmt.Errorf("bb%d: condition is %s, not bool", i, bb.Term.If.Cond.Type))
			}
		}
	}
	return errs
}

func validateOperand(f *Func, op Operand) error {
	switch op.Kind {
	case OperandConst:
		if !op.Const.Matches(op.Type) {
			return fmt.Errorf("constant %s is not %s", op.Const, op.Type)
		}
	case OperandCopy:
		local := f.Local(op.Local)
		if local == nil {
			return fmt.Errorf("unknown local L%d", op.Local)
		}
		if local.Type != op.Type {
			return fmt.Errorf("L%d is %s, operand says %s", op.Local, local.Type, op.Type)
		}
	case OperandVoid:
		return fmt.Errorf("void value used as an operand")
	default:
		return fmt.Errorf("unknown operand kind %d", op.Kind)
	}
	return nil
}

func validateAssign(f *Func, as *AssignInstr) error {
	dst := f.Local(as.Dst)
	if dst == nil {
		return fmt.Errorf("assignment to unknown local L%d", as.Dst)
	}
	var (
		ty  types.Type
		err error
	)
	rv := &as.Src
	switch rv.Kind {
	case RValueUse:
		err = validateOperand(f, rv.Use)
		ty = rv.Use.Type
	case RValueUnaryOp:
		if err = validateOperand(f, rv.Unary.Operand); err == nil {
			ty, err = types.UnaryResultType(rv.Unary.Op, rv.Unary.Operand.Type)
		}
	case RValueBinaryOp:
		if err = errors.Join(validateOperand(f, rv.Binary.Left), validateOperand(f, rv.Binary.Right)); err == nil {
			ty, err = types.BinaryResultType(rv.Binary.Op, rv.Binary.Left.Type, rv.Binary.Right.Type)
		}
	case RValueCast:
		if err = validateOperand(f, rv.Cast.Value); err == nil {
			ty = rv.Cast.TargetTy
			if kind := types.Cast(rv.Cast.Value.Type, ty); kind == types.CastIllegal || kind != rv.Cast.Kind {
				err = fmt.Errorf("cast %s -> %s recorded as %s", rv.Cast.Value.Type, ty, rv.Cast.Kind)
			}
		}
	default:
		return fmt.Errorf("unknown rvalue kind %d", rv.Kind)
	}
	if err != nil {
		return err
	}
	if ty != dst.Type {
		return fmt.Errorf("L%d is %s, assigned %s", as.Dst, dst.Type, ty)
	}
	return nil
}

func validateCall(m *Module, f *Func, call *CallInstr) error {
	decl, ok := m.Decl(call.Callee)
	if !ok {
		return fmt.Errorf("call to undeclared %q", call.Callee)
	}
	if len(call.Args) < len(decl.Params) || (!decl.Variadic && len(call.Args) != len(decl.Params)) {
		return fmt.Errorf("call to %q with %d arguments, declared %d", call.Callee, len(call.Args), len(decl.Params))
	}
	for i, arg := range call.Args {
		if err := validateOperand(f, arg); err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		if i < len(decl.Params) && arg.Type != decl.Params[i] {
			return fmt.Errorf("argument %d is %s, %q expects %s", i+1, arg.Type, call.Callee, decl.Params[i])
		}
	}
	if !call.HasDst {
		return nil
	}
	dst := f.Local(call.Dst)
	if dst == nil {
		return fmt.Errorf("call result stored in unknown local L%d", call.Dst)
	}
	if decl.Result == types.Void || dst.Type != decl.Result {
		return fmt.Errorf("call result %s stored in L%d of type %s", decl.Result, call.Dst, dst.Type)
	}
	return nil
}

func validateReturns(f *Func) []error {
	var errs []error
	for i := range f.Blocks {
		term := &f.Blocks[i].Term
		if term.Kind != TermReturn {
			continue
		}
		ret := &term.Return
		switch {
		case f.Result == types.Void && ret.HasValue:
			errs = append(errs, fmt.Errorf("bb%d: void function returns a value", i))
		case f.Result != types.Void && !ret.HasValue:
			errs = append(errs, fmt.Errorf("bb%d: missing return of %s", i, f.Result))
		case ret.HasValue:
			if err := validateOperand(f, ret.Value); err != nil {
				errs = append(errs, fmt.Errorf("bb%d: return: %w", i, err))
			} else if ret.Value.Type != f.Result {
				errs = append(errs, fmt.Errorf("bb%d: returns %s, function returns %s", i, ret.Value.Type, f.Result))
			}
		}
	}
	return errs
}

func reachableBlocks(f *Func) []bool {
	seen := make([]bool, len(f.Blocks))
	stack := []BlockID{f.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.Block(id) == nil || seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, f.Blocks[id].Successors()...)
	}
	return seen
}

// validateDefiniteAssignment checks that every local read in a reachable
// block has been written on all paths from the entry.
func validateDefiniteAssignment(f *Func, reachable []bool) []error {
	n := len(f.Locals)
	full := func() []bool {
		s := make([]bool, n)
		for i := range s {
			s[i] = true
		}
		return s
	}
	preds := make([][]BlockID, len(f.Blocks))
	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		for _, succ := range f.Blocks[i].Successors() {
			preds[succ] = append(preds[succ], BlockID(i))
		}
	}

	in := make([][]bool, len(f.Blocks))
	out := make([][]bool, len(f.Blocks))
	for i := range f.Blocks {
		in[i] = full()
		out[i] = full()
	}
	entry := make([]bool, n)
	for i := 0; i < f.ParamCount; i++ {
		entry[i] = true
	}

	transfer := func(id int, state []bool) []bool {
		cur := append([]bool(nil), state...)
		for _, ins := range f.Blocks[id].Instrs {
			switch ins.Kind {
			case InstrAssign:
				cur[ins.Assign.Dst] = true
			case InstrCall:
				if ins.Call.HasDst {
					cur[ins.Call.Dst] = true
				}
			}
		}
		return cur
	}

	for changed := true; changed; {
		changed = false
		for i := range f.Blocks {
			if !reachable[i] {
				continue
			}
			merged := full()
			if BlockID(i) == f.Entry {
				copy(merged, entry)
			}
			for _, p := range preds[i] {
				for k := range merged {
					merged[k] = merged[k] && out[p][k]
				}
			}
			in[i] = merged
			next := transfer(i, in[i])
			for k := range next {
				if next[k] != out[i][k] {
					out[i] = next
					changed = true
					break
				}
			}
		}
	}

	var errs []error
	check := func(bb int, state []bool, op Operand, where string) {
		if op.Kind == OperandCopy && !state[op.Local] {
			errs = append(errs, fmt.Errorf("bb%d: %s reads L%d before it is assigned", bb, where, op.Local))
		}
	}
	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		state := append([]bool(nil), in[i]...)
		for j, ins := range f.Blocks[i].Instrs {
			where := fmt.Sprintf("instr %d", j)
			switch ins.Kind {
			case InstrAssign:
				for _, op := range ins.Assign.Src.operands() {
					check(i, state, op, where)
				}
				state[ins.Assign.Dst] = true
			case InstrCall:
				for _, op := range ins.Call.Args {
					check(i, state, op, where)
				}
				if ins.Call.HasDst {
					state[ins.Call.Dst] = true
				}
			}
		}
		term := &f.Blocks[i].Term
		switch term.Kind {
		case TermReturn:
			if term.Return.HasValue {
				check(i, state, term.Return.Value, "return")
			}
		case TermIf:
			check(i, state, term.If.Cond, "branch")
		}
	}
	return errs
}

func (rv *RValue) operands() []Operand {
	switch rv.Kind {
	case RValueUse:
		return []Operand{rv.Use}
	case RValueUnaryOp:
		return []Operand{rv.Unary.Operand}
	case RValueBinaryOp:
		return []Operand{rv.Binary.Left, rv.Binary.Right}
	case RValueCast:
		return []Operand{rv.Cast.Value}
	default:
		return nil
	}
}
