package mir

import (
	"kestrel/internal/ast"
	"kestrel/internal/types"
)

// FuncDecl is a registered signature, external or defined.
type FuncDecl struct {
	Name     string
	Params   []types.Type
	Result   types.Type
	Variadic bool
	Node     ast.NodeID
	Defined  bool
}

// SameSignature reports whether d and other describe the same callable.
func (d *FuncDecl) SameSignature(other *FuncDecl) bool {
	if d.Result != other.Result || d.Variadic != other.Variadic || len(d.Params) != len(other.Params) {
		return false
	}
	for i := range d.Params {
		if d.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

// Module is the backend module produced by one lowering pass.
type Module struct {
	Name  string
	Decls []*FuncDecl
	Funcs []*Func

	declByName map[string]int
}

func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		declByName: make(map[string]int),
	}
}

// Decl looks up a registered signature by (normalised) name.
func (m *Module) Decl(name string) (*FuncDecl, bool) {
	if m == nil {
		return nil, false
	}
	idx, ok := m.declByName[name]
	if !ok {
		return nil, false
	}
	return m.Decls[idx], true
}

func (m *Module) addDecl(d *FuncDecl) {
	m.declByName[d.Name] = len(m.Decls)
	m.Decls = append(m.Decls, d)
}

// Externs returns the declarations without a body, in registration order.
func (m *Module) Externs() []*FuncDecl {
	var out []*FuncDecl
	for _, d := range m.Decls {
		if !d.Defined {
			out = append(out, d)
		}
	}
	return out
}
