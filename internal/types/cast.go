package types

// CastKind names the conversion a legal cast performs.
type CastKind uint8

const (
	CastIllegal CastKind = iota
	CastIdentity
	CastIntToFloat  // sitofp
	CastFloatToInt  // fptosi
	CastBoolToInt   // zext
	CastIntToBool   // icmp ne 0
	CastBoolToFloat // uitofp
	CastFloatToBool // fcmp une 0.0
)

func (k CastKind) String() string {
	switch k {
	case CastIdentity:
		return "identity"
	case CastIntToFloat:
		return "int_to_float"
	case CastFloatToInt:
		return "float_to_int"
	case CastBoolToInt:
		return "bool_to_int"
	case CastIntToBool:
		return "int_to_bool"
	case CastBoolToFloat:
		return "bool_to_float"
	case CastFloatToBool:
		return "float_to_bool"
	default:
		return "illegal"
	}
}

const (
	xx = CastIllegal
	eq = CastIdentity
)

// castTable[from][to]. Every pair is spelled out; rows and columns follow
// the Type constant order: poison, void, i32, f32, bool, string.
var castTable = [typeCount][typeCount]CastKind{
	Poison: {Poison: xx, Void: xx, Int32: xx, Float32: xx, Bool: xx, String: xx},
	Void:   {Poison: xx, Void: xx, Int32: xx, Float32: xx, Bool: xx, String: xx},
	Int32:  {Poison: xx, Void: xx, Int32: eq, Float32: CastIntToFloat, Bool: CastIntToBool, String: xx},
	Float32: {
		Poison: xx, Void: xx, Int32: CastFloatToInt, Float32: eq, Bool: CastFloatToBool, String: xx,
	},
	Bool:   {Poison: xx, Void: xx, Int32: CastBoolToInt, Float32: CastBoolToFloat, Bool: eq, String: xx},
	String: {Poison: xx, Void: xx, Int32: xx, Float32: xx, Bool: xx, String: eq},
}

// Cast returns the conversion performed by a cast from -> to.
func Cast(from, to Type) CastKind {
	if !from.Known() || !to.Known() {
		return CastIllegal
	}
	return castTable[from][to]
}

// CastLegal reports whether a cast from -> to is allowed.
func CastLegal(from, to Type) bool {
	return Cast(from, to) != CastIllegal
}
