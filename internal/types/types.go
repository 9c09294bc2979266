package types

import "fmt"

// Type is the closed set of types an operation may carry.
type Type uint8

const (
	// Poison marks an unresolved type; it must never reach lowering.
	Poison Type = iota
	// Void is the "no value" return type of a declaration.
	Void
	Int32
	Float32
	Bool
	String

	typeCount = int(String) + 1
)

func (t Type) String() string {
	switch t {
	case Poison:
		return "poison"
	case Void:
		return "void"
	case Int32:
		return "i32"
	case Float32:
		return "f32"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// ParseType is the inverse of Type.String. A few spellings used by front
// ends are accepted as aliases.
func ParseType(s string) (Type, error) {
	switch s {
	case "poison":
		return Poison, nil
	case "void", "nothing":
		return Void, nil
	case "i32", "int32", "int":
		return Int32, nil
	case "f32", "float32", "float":
		return Float32, nil
	case "bool":
		return Bool, nil
	case "string", "str":
		return String, nil
	default:
		return Poison, fmt.Errorf("unknown type %q", s)
	}
}

// Known reports whether t is one of the declared constants.
func (t Type) Known() bool { return int(t) < typeCount }

// IsValue reports whether values of t can exist at run time.
func (t Type) IsValue() bool {
	switch t {
	case Int32, Float32, Bool, String:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t takes part in arithmetic.
func (t Type) IsNumeric() bool { return t == Int32 || t == Float32 }

// IsReturnable reports whether t may be a declaration's return type.
func (t Type) IsReturnable() bool { return t == Void || t.IsValue() }

// Family maps a type to its operator family bit.
func (t Type) Family() FamilyMask {
	switch t {
	case Int32:
		return FamilySignedInt
	case Float32:
		return FamilyFloat
	case Bool:
		return FamilyBool
	case String:
		return FamilyString
	default:
		return FamilyNone
	}
}
