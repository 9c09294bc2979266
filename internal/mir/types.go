package mir

import (
	"kestrel/internal/ast"
	"kestrel/internal/types"
)

type FuncID int32
type BlockID int32
type LocalID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

type LocalFlags uint8

const (
	LocalFlagParam LocalFlags = 1 << iota
	LocalFlagTemp
)

// Local is a function-scoped storage slot: a parameter or a temporary that
// holds the result of one lowered operation.
type Local struct {
	Name  string
	Type  types.Type
	Flags LocalFlags
	Node  ast.NodeID
}

func (l *Local) IsParam() bool { return l.Flags&LocalFlagParam != 0 }
func (l *Local) IsTemp() bool  { return l.Flags&LocalFlagTemp != 0 }
