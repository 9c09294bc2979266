package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Ошибки пользовательского дерева
	TypeError  Code = 1001
	NameError  Code = 1002
	ArityError Code = 1003
	CastError  Code = 1004

	// внутренняя согласованность модуля
	VerificationError Code = 2001

	// запись артефакта
	IOError Code = 3001
)

var codeDescription = map[Code]string{
	UnknownCode:       "unknown error",
	TypeError:         "type error",
	NameError:         "name error",
	ArityError:        "arity error",
	CastError:         "cast error",
	VerificationError: "verification error",
	IOError:           "io error",
}

// ID returns the stable code string, e.g. "KT1001".
func (c Code) ID() string {
	return fmt.Sprintf("KT%04d", uint16(c))
}

func (c Code) String() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return c.ID()
}

// Internal reports whether the code signals a compiler bug rather than a
// malformed program.
func (c Code) Internal() bool {
	return c == VerificationError
}
