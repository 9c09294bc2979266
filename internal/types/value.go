package types

import (
	"fmt"
	"strconv"
)

// Value is a literal payload. Type selects which field is meaningful.
type Value struct {
	Type  Type
	Bool  bool
	Int   int32
	Float float32
	Str   string
}

func BoolValue(v bool) Value     { return Value{Type: Bool, Bool: v} }
func IntValue(v int32) Value     { return Value{Type: Int32, Int: v} }
func FloatValue(v float32) Value { return Value{Type: Float32, Float: v} }
func StringValue(v string) Value { return Value{Type: String, Str: v} }

// Valid reports whether the tag names a value type.
func (v Value) Valid() bool { return v.Type.IsValue() }

// Matches reports whether v may be the literal of an operation typed t.
func (v Value) Matches(t Type) bool { return v.Valid() && v.Type == t }

func (v Value) String() string {
	switch v.Type {
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Int32:
		return strconv.FormatInt(int64(v.Int), 10)
	case Float32:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	case String:
		return strconv.Quote(v.Str)
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}

// ParseValue reads a literal of type t from its textual form.
func ParseValue(t Type, text string) (Value, error) {
	switch t {
	case Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("bad bool literal %q: %w", text, err)
		}
		return BoolValue(b), nil
	case Int32:
		i, err := strconv.ParseInt(text, 0, 32)
		if err != nil {
			return Value{}, fmt.Errorf("bad i32 literal %q: %w", text, err)
		}
		return IntValue(int32(i)), nil
	case Float32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, fmt.Errorf("bad f32 literal %q: %w", text, err)
		}
		return FloatValue(float32(f)), nil
	case String:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("type %s has no literals", t)
	}
}
