package mir

import (
	"kestrel/internal/ast"
	"kestrel/internal/types"
)

type Func struct {
	ID   FuncID
	Name string
	Node ast.NodeID

	Result     types.Type
	Variadic   bool
	ParamCount int

	Locals []Local
	Blocks []Block
	Entry  BlockID
}

// Params returns the parameter locals, which always come first.
func (f *Func) Params() []Local {
	if f == nil {
		return nil
	}
	return f.Locals[:f.ParamCount]
}

func (f *Func) Block(id BlockID) *Block {
	if f == nil || id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

func (f *Func) Local(id LocalID) *Local {
	if f == nil || id < 0 || int(id) >= len(f.Locals) {
		return nil
	}
	return &f.Locals[id]
}
