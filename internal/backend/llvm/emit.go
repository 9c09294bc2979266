package llvm

import (
	"fmt"
	"sort"
	"strings"

	"kestrel/internal/mir"
	"kestrel/internal/types"
)

// EmitOptions configures textual IR emission.
type EmitOptions struct {
	// TargetTriple is written as `target triple` when non-empty.
	TargetTriple string
	// SourceFilename defaults to the module name.
	SourceFilename string
}

type stringConst struct {
	raw        string
	bytes      []byte
	arrayLen   int
	globalName string
}

type Emitter struct {
	mod          *mir.Module
	opts         EmitOptions
	buf          strings.Builder
	stringConsts map[string]*stringConst
}

type funcEmitter struct {
	emitter     *Emitter
	f           *mir.Func
	tmpID       int
	localAlloca map[mir.LocalID]string
}

// EmitModule renders mod as LLVM textual IR. The module is expected to have
// passed mir.Validate; the output depends only on mod and opts.
func EmitModule(mod *mir.Module, opts EmitOptions) (string, error) {
	if mod == nil {
		return "", nil
	}
	e := &Emitter{
		mod:          mod,
		opts:         opts,
		stringConsts: make(map[string]*stringConst),
	}
	e.collectStringConsts()
	e.emitPreamble()
	e.emitStringConsts()
	if err := e.emitDecls(); err != nil {
		return "", err
	}
	if err := e.emitFunctions(); err != nil {
		return "", err
	}
	return e.buf.String(), nil
}

func (e *Emitter) emitPreamble() {
	source := e.opts.SourceFilename
	if source == "" {
		source = e.mod.Name
	}
	fmt.Fprintf(&e.buf, "; ModuleID = '%s'\n", e.mod.Name)
	fmt.Fprintf(&e.buf, "source_filename = %s\n", quoteLLVMString(source))
	if e.opts.TargetTriple != "" {
		fmt.Fprintf(&e.buf, "target triple = %s\n", quoteLLVMString(e.opts.TargetTriple))
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) collectStringConsts() {
	for _, f := range e.mod.Funcs {
		if f == nil {
			continue
		}
		for i := range f.Blocks {
			bb := &f.Blocks[i]
			for j := range bb.Instrs {
				ins := &bb.Instrs[j]
				switch ins.Kind {
				case mir.InstrAssign:
					for _, op := range rvalueOperands(&ins.Assign.Src) {
						e.collectOperand(op)
					}
				case mir.InstrCall:
					for k := range ins.Call.Args {
						e.collectOperand(&ins.Call.Args[k])
					}
				}
			}
			switch bb.Term.Kind {
			case mir.TermReturn:
				if bb.Term.Return.HasValue {
					e.collectOperand(&bb.Term.Return.Value)
				}
			case mir.TermIf:
				e.collectOperand(&bb.Term.If.Cond)
			}
		}
	}
}

func (e *Emitter) collectOperand(op *mir.Operand) {
	if op == nil || op.Kind != mir.OperandConst || op.Type != types.String {
		return
	}
	raw := op.Const.Str
	if _, ok := e.stringConsts[raw]; ok {
		return
	}
	data := []byte(raw)
	e.stringConsts[raw] = &stringConst{
		raw:      raw,
		bytes:    data,
		arrayLen: len(data) + 1,
	}
}

func (e *Emitter) emitStringConsts() {
	if len(e.stringConsts) == 0 {
		return
	}
	raws := make([]string, 0, len(e.stringConsts))
	for raw := range e.stringConsts {
		raws = append(raws, raw)
	}
	sort.Strings(raws)
	for idx, raw := range raws {
		sc := e.stringConsts[raw]
		sc.globalName = fmt.Sprintf(".str.%d", idx)
		fmt.Fprintf(&e.buf, "@%s = private unnamed_addr constant [%d x i8] %s\n", sc.globalName, sc.arrayLen, formatLLVMBytes(sc.bytes, sc.arrayLen))
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) emitDecls() error {
	externs := e.mod.Externs()
	if len(externs) == 0 {
		return nil
	}
	for _, d := range externs {
		ret, err := llvmReturnType(d.Result)
		if err != nil {
			return fmt.Errorf("declare %s: %w", d.Name, err)
		}
		params, err := llvmParamTypes(d.Params)
		if err != nil {
			return fmt.Errorf("declare %s: %w", d.Name, err)
		}
		if d.Variadic {
			params = append(params, "...")
		}
		fmt.Fprintf(&e.buf, "declare %s @%s(%s)\n", ret, llvmIdent(d.Name), strings.Join(params, ", "))
	}
	e.buf.WriteString("\n")
	return nil
}

func (e *Emitter) emitFunctions() error {
	for i, f := range e.mod.Funcs {
		if f == nil {
			continue
		}
		if i > 0 {
			e.buf.WriteString("\n")
		}
		if err := e.emitFunction(f); err != nil {
			return fmt.Errorf("define %s: %w", f.Name, err)
		}
	}
	return nil
}

func rvalueOperands(rv *mir.RValue) []*mir.Operand {
	switch rv.Kind {
	case mir.RValueUse:
		return []*mir.Operand{&rv.Use}
	case mir.RValueUnaryOp:
		return []*mir.Operand{&rv.Unary.Operand}
	case mir.RValueBinaryOp:
		return []*mir.Operand{&rv.Binary.Left, &rv.Binary.Right}
	case mir.RValueCast:
		return []*mir.Operand{&rv.Cast.Value}
	default:
		return nil
	}
}
