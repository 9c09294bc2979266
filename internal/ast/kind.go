package ast

import "fmt"

// Kind is the discriminant of a node. The set is closed.
type Kind uint8

const (
	KindInvalid Kind = iota
	// declarations
	KindExtern
	KindFunc
	// operations
	KindVariable
	KindConstant
	KindCast
	KindUnOp
	KindBinOp
	KindCall
	// statements
	KindReturn
	KindBranch
	KindAssignment
	KindWhile
	KindVoidContext
)

// Group is the capability group of a node kind.
type Group uint8

const (
	GroupNone Group = iota
	GroupDeclaration
	GroupOperation
	GroupStatement
)

func (k Kind) Group() Group {
	switch k {
	case KindExtern, KindFunc:
		return GroupDeclaration
	case KindVariable, KindConstant, KindCast, KindUnOp, KindBinOp, KindCall:
		return GroupOperation
	case KindReturn, KindBranch, KindAssignment, KindWhile, KindVoidContext:
		return GroupStatement
	default:
		return GroupNone
	}
}

func (k Kind) IsDeclaration() bool { return k.Group() == GroupDeclaration }
func (k Kind) IsOperation() bool   { return k.Group() == GroupOperation }
func (k Kind) IsStatement() bool   { return k.Group() == GroupStatement }

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindExtern:
		return "extern"
	case KindFunc:
		return "func"
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindCast:
		return "cast"
	case KindUnOp:
		return "unop"
	case KindBinOp:
		return "binop"
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	case KindBranch:
		return "branch"
	case KindAssignment:
		return "assignment"
	case KindWhile:
		return "while"
	case KindVoidContext:
		return "void_context"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (g Group) String() string {
	switch g {
	case GroupDeclaration:
		return "declaration"
	case GroupOperation:
		return "operation"
	case GroupStatement:
		return "statement"
	default:
		return "none"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindExtern; k <= KindVoidContext; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindInvalid, false
}
