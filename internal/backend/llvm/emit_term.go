package llvm

import (
	"fmt"

	"kestrel/internal/mir"
	"kestrel/internal/types"
)

func (fe *funcEmitter) emitTerminator(term *mir.Terminator) error {
	switch term.Kind {
	case mir.TermReturn:
		if !term.Return.HasValue {
			fe.line("ret void")
			return nil
		}
		val, ty, err := fe.emitOperand(&term.Return.Value)
		if err != nil {
			return err
		}
		fe.line("ret %s %s", ty, val)
		return nil
	case mir.TermGoto:
		fe.line("br label %%bb%d", term.Goto.Target)
		return nil
	case mir.TermIf:
		condVal, condTy, err := fe.emitOperand(&term.If.Cond)
		if err != nil {
			return err
		}
		if condTy != "i1" {
			return fmt.Errorf("if condition must be i1, got %s", condTy)
		}
		fe.line("br i1 %s, label %%bb%d, label %%bb%d", condVal, term.If.Then, term.If.Else)
		return nil
	case mir.TermUnreachable:
		fe.line("unreachable")
		return nil
	default:
		return fmt.Errorf("unsupported terminator kind %v", term.Kind)
	}
}

func (fe *funcEmitter) emitOperand(op *mir.Operand) (val, ty string, err error) {
	switch op.Kind {
	case mir.OperandConst:
		return fe.emitConst(&op.Const)
	case mir.OperandCopy:
		ptr, ty, err := fe.localPtr(op.Local)
		if err != nil {
			return "", "", err
		}
		tmp := fe.nextTemp()
		fe.line("%s = load %s, ptr %s", tmp, ty, ptr)
		return tmp, ty, nil
	default:
		return "", "", fmt.Errorf("unsupported operand kind %v", op.Kind)
	}
}

func (fe *funcEmitter) emitConst(c *types.Value) (val, ty string, err error) {
	switch c.Type {
	case types.Int32:
		return fmt.Sprintf("%d", c.Int), "i32", nil
	case types.Float32:
		return formatFloat(c.Float), "float", nil
	case types.Bool:
		return boolValue(c.Bool), "i1", nil
	case types.String:
		sc, ok := fe.emitter.stringConsts[c.Str]
		if !ok {
			return "", "", fmt.Errorf("missing string const %q", c.Str)
		}
		return "@" + sc.globalName, "ptr", nil
	default:
		return "", "", fmt.Errorf("unsupported constant of type %s", c.Type)
	}
}
