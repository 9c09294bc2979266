package llvm

import (
	"fmt"
	"strings"

	"kestrel/internal/mir"
	"kestrel/internal/types"
)

func (fe *funcEmitter) emitInstr(ins *mir.Instr) error {
	switch ins.Kind {
	case mir.InstrAssign:
		val, ty, err := fe.emitRValue(&ins.Assign.Src)
		if err != nil {
			return err
		}
		return fe.storeLocal(ins.Assign.Dst, val, ty)
	case mir.InstrCall:
		return fe.emitCall(&ins.Call)
	default:
		return fmt.Errorf("unsupported instruction kind %v", ins.Kind)
	}
}

func (fe *funcEmitter) emitRValue(rv *mir.RValue) (val, ty string, err error) {
	switch rv.Kind {
	case mir.RValueUse:
		return fe.emitOperand(&rv.Use)
	case mir.RValueUnaryOp:
		return fe.emitUnary(&rv.Unary)
	case mir.RValueBinaryOp:
		return fe.emitBinary(&rv.Binary)
	case mir.RValueCast:
		return fe.emitCast(&rv.Cast)
	default:
		return "", "", fmt.Errorf("unsupported rvalue kind %v", rv.Kind)
	}
}

func (fe *funcEmitter) emitUnary(op *mir.UnaryOp) (val, ty string, err error) {
	operand, ty, err := fe.emitOperand(&op.Operand)
	if err != nil {
		return "", "", err
	}
	tmp := fe.nextTemp()
	switch {
	case op.Op == types.UnaryNeg && op.Operand.Type == types.Int32:
		fe.line("%s = sub i32 0, %s", tmp, operand)
	case op.Op == types.UnaryNeg && op.Operand.Type == types.Float32:
		fe.line("%s = fneg float %s", tmp, operand)
	case op.Op == types.UnaryNot && op.Operand.Type == types.Bool:
		fe.line("%s = xor i1 %s, true", tmp, operand)
	default:
		return "", "", fmt.Errorf("unsupported unary %s on %s", op.Op, op.Operand.Type)
	}
	return tmp, ty, nil
}

type binaryInstr struct {
	intOp, floatOp string
	cmp            bool
}

var binaryInstrs = map[types.BinaryOp]binaryInstr{
	types.BinaryAdd:       {intOp: "add", floatOp: "fadd"},
	types.BinarySub:       {intOp: "sub", floatOp: "fsub"},
	types.BinaryMul:       {intOp: "mul", floatOp: "fmul"},
	types.BinaryDiv:       {intOp: "sdiv", floatOp: "fdiv"},
	types.BinaryMod:       {intOp: "srem", floatOp: "frem"},
	types.BinaryEq:        {intOp: "icmp eq", floatOp: "fcmp oeq", cmp: true},
	types.BinaryNotEq:     {intOp: "icmp ne", floatOp: "fcmp une", cmp: true},
	types.BinaryLess:      {intOp: "icmp slt", floatOp: "fcmp olt", cmp: true},
	types.BinaryLessEq:    {intOp: "icmp sle", floatOp: "fcmp ole", cmp: true},
	types.BinaryGreater:   {intOp: "icmp sgt", floatOp: "fcmp ogt", cmp: true},
	types.BinaryGreaterEq: {intOp: "icmp sge", floatOp: "fcmp oge", cmp: true},
}

// bool operands compare as unsigned
var boolCompares = map[types.BinaryOp]string{
	types.BinaryEq:         "icmp eq",
	types.BinaryNotEq:      "icmp ne",
	types.BinaryLess:       "icmp ult",
	types.BinaryLessEq:     "icmp ule",
	types.BinaryGreater:    "icmp ugt",
	types.BinaryGreaterEq:  "icmp uge",
	types.BinaryLogicalAnd: "and",
	types.BinaryLogicalOr:  "or",
}

func (fe *funcEmitter) emitBinary(op *mir.BinaryOp) (val, ty string, err error) {
	left, lty, err := fe.emitOperand(&op.Left)
	if err != nil {
		return "", "", err
	}
	right, rty, err := fe.emitOperand(&op.Right)
	if err != nil {
		return "", "", err
	}
	if lty != rty {
		return "", "", fmt.Errorf("binary %s operands differ: %s vs %s", op.Op, lty, rty)
	}

	var opcode string
	resultTy := lty
	switch op.Left.Type {
	case types.Int32, types.Float32:
		spec, ok := binaryInstrs[op.Op]
		if !ok {
			return "", "", fmt.Errorf("unsupported binary %s on %s", op.Op, op.Left.Type)
		}
		opcode = spec.intOp
		if op.Left.Type == types.Float32 {
			opcode = spec.floatOp
		}
		if spec.cmp {
			resultTy = "i1"
		}
	case types.Bool:
		var ok bool
		if opcode, ok = boolCompares[op.Op]; !ok {
			return "", "", fmt.Errorf("unsupported binary %s on bool", op.Op)
		}
	default:
		return "", "", fmt.Errorf("unsupported binary %s on %s", op.Op, op.Left.Type)
	}

	tmp := fe.nextTemp()
	fe.line("%s = %s %s %s, %s", tmp, opcode, lty, left, right)
	return tmp, resultTy, nil
}

func (fe *funcEmitter) emitCast(op *mir.CastOp) (val, ty string, err error) {
	src, srcTy, err := fe.emitOperand(&op.Value)
	if err != nil {
		return "", "", err
	}
	dstTy, err := llvmValueType(op.TargetTy)
	if err != nil {
		return "", "", err
	}
	if op.Kind == types.CastIdentity {
		return src, srcTy, nil
	}
	tmp := fe.nextTemp()
	switch op.Kind {
	case types.CastIntToFloat:
		fe.line("%s = sitofp %s %s to %s", tmp, srcTy, src, dstTy)
	case types.CastFloatToInt:
		fe.line("%s = fptosi %s %s to %s", tmp, srcTy, src, dstTy)
	case types.CastBoolToInt:
		fe.line("%s = zext %s %s to %s", tmp, srcTy, src, dstTy)
	case types.CastBoolToFloat:
		fe.line("%s = uitofp %s %s to %s", tmp, srcTy, src, dstTy)
	case types.CastIntToBool:
		fe.line("%s = icmp ne %s %s, 0", tmp, srcTy, src)
	case types.CastFloatToBool:
		fe.line("%s = fcmp une %s %s, %s", tmp, srcTy, src, formatFloat(0))
	default:
		return "", "", fmt.Errorf("illegal cast %s -> %s", op.Value.Type, op.TargetTy)
	}
	return tmp, dstTy, nil
}

func (fe *funcEmitter) emitCall(call *mir.CallInstr) error {
	decl, ok := fe.emitter.mod.Decl(call.Callee)
	if !ok {
		return fmt.Errorf("call to undeclared %q", call.Callee)
	}
	ret, err := llvmReturnType(decl.Result)
	if err != nil {
		return err
	}
	args := make([]string, 0, len(call.Args))
	for i := range call.Args {
		val, ty, err := fe.emitOperand(&call.Args[i])
		if err != nil {
			return err
		}
		if i >= len(decl.Params) {
			val, ty = fe.promoteVariadic(val, ty)
		}
		args = append(args, ty+" "+val)
	}

	callee := ret
	if decl.Variadic {
		params, err := llvmParamTypes(decl.Params)
		if err != nil {
			return err
		}
		params = append(params, "...")
		callee = fmt.Sprintf("%s (%s)", ret, strings.Join(params, ", "))
	}
	target := llvmIdent(decl.Name)

	if !call.HasDst {
		fe.line("call %s @%s(%s)", callee, target, strings.Join(args, ", "))
		return nil
	}
	tmp := fe.nextTemp()
	fe.line("%s = call %s @%s(%s)", tmp, callee, target, strings.Join(args, ", "))
	return fe.storeLocal(call.Dst, tmp, ret)
}

// promoteVariadic applies C default argument promotion to an extra argument.
func (fe *funcEmitter) promoteVariadic(val, ty string) (string, string) {
	switch ty {
	case "float":
		tmp := fe.nextTemp()
		fe.line("%s = fpext float %s to double", tmp, val)
		return tmp, "double"
	case "i1":
		tmp := fe.nextTemp()
		fe.line("%s = zext i1 %s to i32", tmp, val)
		return tmp, "i32"
	default:
		return val, ty
	}
}
