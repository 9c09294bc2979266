package llvm

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"kestrel/internal/mir"
)

func (e *Emitter) emitFunction(f *mir.Func) error {
	ret, err := llvmReturnType(f.Result)
	if err != nil {
		return err
	}
	params := f.Params()
	paramDecls := make([]string, 0, len(params)+1)
	for i := range params {
		ty, err := llvmValueType(params[i].Type)
		if err != nil {
			return err
		}
		paramDecls = append(paramDecls, fmt.Sprintf("%s %%p%d", ty, i))
	}
	if f.Variadic {
		paramDecls = append(paramDecls, "...")
	}
	fmt.Fprintf(&e.buf, "define %s @%s(%s) {\n", ret, llvmIdent(f.Name), strings.Join(paramDecls, ", "))

	fe := &funcEmitter{
		emitter:     e,
		f:           f,
		localAlloca: make(map[mir.LocalID]string, len(f.Locals)),
	}
	for i := range f.Locals {
		n, err := safecast.Conv[int32](i)
		if err != nil {
			return fmt.Errorf("local id overflow: %w", err)
		}
		fe.localAlloca[mir.LocalID(n)] = fmt.Sprintf("%%l%d", i)
	}

	// entry first, the rest in id order
	order := make([]*mir.Block, 0, len(f.Blocks))
	order = append(order, f.Block(f.Entry))
	for i := range f.Blocks {
		if f.Blocks[i].ID != f.Entry {
			order = append(order, &f.Blocks[i])
		}
	}
	for _, bb := range order {
		fmt.Fprintf(&e.buf, "bb%d:\n", bb.ID)
		if bb.ID == f.Entry {
			if err := fe.emitAllocas(); err != nil {
				return err
			}
			if err := fe.emitParamStores(); err != nil {
				return err
			}
		}
		for i := range bb.Instrs {
			if err := fe.emitInstr(&bb.Instrs[i]); err != nil {
				return fmt.Errorf("bb%d: %w", bb.ID, err)
			}
		}
		if err := fe.emitTerminator(&bb.Term); err != nil {
			return fmt.Errorf("bb%d: %w", bb.ID, err)
		}
	}
	e.buf.WriteString("}\n")
	return nil
}

func (fe *funcEmitter) emitAllocas() error {
	for i := range fe.f.Locals {
		ty, err := llvmValueType(fe.f.Locals[i].Type)
		if err != nil {
			return err
		}
		fe.line("%%l%d = alloca %s", i, ty)
	}
	return nil
}

func (fe *funcEmitter) emitParamStores() error {
	for i, p := range fe.f.Params() {
		ty, err := llvmValueType(p.Type)
		if err != nil {
			return err
		}
		fe.line("store %s %%p%d, ptr %%l%d", ty, i, i)
	}
	return nil
}

func (fe *funcEmitter) localPtr(id mir.LocalID) (ptr, ty string, err error) {
	local := fe.f.Local(id)
	if local == nil {
		return "", "", fmt.Errorf("unknown local L%d", id)
	}
	ty, err = llvmValueType(local.Type)
	if err != nil {
		return "", "", err
	}
	return fe.localAlloca[id], ty, nil
}

func (fe *funcEmitter) storeLocal(id mir.LocalID, val, ty string) error {
	ptr, want, err := fe.localPtr(id)
	if err != nil {
		return err
	}
	if want != ty {
		return fmt.Errorf("store of %s into L%d of type %s", ty, id, want)
	}
	fe.line("store %s %s, ptr %s", ty, val, ptr)
	return nil
}
