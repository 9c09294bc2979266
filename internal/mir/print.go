package mir

import (
	"fmt"
	"io"
	"strings"
)

// DumpModule writes a human-readable representation of a MIR module.
func DumpModule(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)

	externs := m.Externs()
	if len(externs) > 0 {
		fmt.Fprintf(&sb, "externs=%d\n", len(externs))
		for _, d := range externs {
			fmt.Fprintf(&sb, "  %s\n", formatSignature(d))
		}
	}

	fmt.Fprintf(&sb, "funcs=%d\n", len(m.Funcs))
	for _, f := range m.Funcs {
		dumpFunc(&sb, f)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatSignature(d *FuncDecl) string {
	params := make([]string, 0, len(d.Params)+1)
	for _, p := range d.Params {
		params = append(params, p.String())
	}
	if d.Variadic {
		params = append(params, "...")
	}
	return fmt.Sprintf("%s(%s) -> %s", d.Name, strings.Join(params, ", "), d.Result)
}

func dumpFunc(sb *strings.Builder, f *Func) {
	if f == nil {
		return
	}
	fmt.Fprintf(sb, "\nfn %s -> %s:\n", f.Name, f.Result)

	fmt.Fprintf(sb, "  locals:\n")
	for i := range f.Locals {
		l := &f.Locals[i]
		if flags := formatLocalFlags(l.Flags); flags != "" {
			fmt.Fprintf(sb, "    L%d: %s %s name=%s\n", i, l.Type, flags, l.Name)
		} else {
			fmt.Fprintf(sb, "    L%d: %s name=%s\n", i, l.Type, l.Name)
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(sb, "  bb%d:\n", bb.ID)
		for j := range bb.Instrs {
			fmt.Fprintf(sb, "    %s\n", formatInstr(&bb.Instrs[j]))
		}
		fmt.Fprintf(sb, "    %s\n", formatTerm(&bb.Term))
	}
}

func formatLocalFlags(f LocalFlags) string {
	var parts []string
	if f&LocalFlagParam != 0 {
		parts = append(parts, "param")
	}
	if f&LocalFlagTemp != 0 {
		parts = append(parts, "temp")
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatInstr(ins *Instr) string {
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("L%d = %s", ins.Assign.Dst, formatRValue(&ins.Assign.Src))
	case InstrCall:
		dst := ""
		if ins.Call.HasDst {
			dst = fmt.Sprintf("L%d = ", ins.Call.Dst)
		}
		return fmt.Sprintf("%scall %s(%s)", dst, ins.Call.Callee, formatOperands(ins.Call.Args))
	default:
		return fmt.Sprintf("<instr %d>", ins.Kind)
	}
}

func formatRValue(rv *RValue) string {
	switch rv.Kind {
	case RValueUse:
		return formatOperand(&rv.Use)
	case RValueUnaryOp:
		return fmt.Sprintf("%s%s", rv.Unary.Op, formatOperand(&rv.Unary.Operand))
	case RValueBinaryOp:
		return fmt.Sprintf("%s %s %s", formatOperand(&rv.Binary.Left), rv.Binary.Op, formatOperand(&rv.Binary.Right))
	case RValueCast:
		return fmt.Sprintf("%s to %s (%s)", formatOperand(&rv.Cast.Value), rv.Cast.TargetTy, rv.Cast.Kind)
	default:
		return fmt.Sprintf("<rvalue %d>", rv.Kind)
	}
}

func formatOperands(ops []Operand) string {
	parts := make([]string, 0, len(ops))
	for i := range ops {
		parts = append(parts, formatOperand(&ops[i]))
	}
	return strings.Join(parts, ", ")
}

func formatOperand(op *Operand) string {
	switch op.Kind {
	case OperandConst:
		return fmt.Sprintf("const %s:%s", op.Const, op.Type)
	case OperandCopy:
		return fmt.Sprintf("copy L%d", op.Local)
	case OperandVoid:
		return "void"
	default:
		return "<operand?>"
	}
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermNone:
		return "<no terminator>"
	case TermReturn:
		if t.Return.HasValue {
			return "return " + formatOperand(&t.Return.Value)
		}
		return "return"
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", formatOperand(&t.If.Cond), t.If.Then, t.If.Else)
	case TermUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("<term %d>", t.Kind)
	}
}
