// Package astio reads and writes typed AST documents handed over by a front
// end. Two encodings share one schema: YAML (.kast.yaml) for hand-written
// programs and msgpack (.kast) for generated packs.
//
// A document is a flat node table. Nodes reference each other by document
// id, so a node used in several places (a shared Variable, say) keeps a
// single identity after decoding.
package astio

import "errors"

// FormatVersion is the schema version written by Encode.
const FormatVersion = 1

// ErrMalformed is wrapped by every schema violation found while decoding.
var ErrMalformed = errors.New("malformed AST document")

// Document is the serialized form of an ast.Program.
type Document struct {
	Version int       `yaml:"version" msgpack:"version"`
	Name    string    `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Decls   []uint32  `yaml:"decls" msgpack:"decls"`
	Nodes   []NodeDoc `yaml:"nodes" msgpack:"nodes"`
}

// NodeDoc is one node. Which fields apply depends on Kind:
//
//	extern, func   name type params variadic [body]
//	variable       name type
//	constant       type lit_type lit
//	cast           type value
//	unop           type op value
//	binop          type op left right
//	call           type name args
//	return         [value]
//	branch         cond then else
//	assignment     name value
//	while          cond body
//	void_context   value
type NodeDoc struct {
	ID       uint32   `yaml:"id" msgpack:"id"`
	Kind     string   `yaml:"kind" msgpack:"kind"`
	Type     string   `yaml:"type,omitempty" msgpack:"type,omitempty"`
	Name     string   `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Op       string   `yaml:"op,omitempty" msgpack:"op,omitempty"`
	LitType  string   `yaml:"lit_type,omitempty" msgpack:"lit_type,omitempty"`
	Lit      *string  `yaml:"lit,omitempty" msgpack:"lit,omitempty"`
	Value    uint32   `yaml:"value,omitempty" msgpack:"value,omitempty"`
	Left     uint32   `yaml:"left,omitempty" msgpack:"left,omitempty"`
	Right    uint32   `yaml:"right,omitempty" msgpack:"right,omitempty"`
	Cond     uint32   `yaml:"cond,omitempty" msgpack:"cond,omitempty"`
	Params   []uint32 `yaml:"params,omitempty" msgpack:"params,omitempty"`
	Args     []uint32 `yaml:"args,omitempty" msgpack:"args,omitempty"`
	Body     []uint32 `yaml:"body,omitempty" msgpack:"body,omitempty"`
	Then     []uint32 `yaml:"then,omitempty" msgpack:"then,omitempty"`
	Else     []uint32 `yaml:"else,omitempty" msgpack:"else,omitempty"`
	Variadic bool     `yaml:"variadic,omitempty" msgpack:"variadic,omitempty"`
}
