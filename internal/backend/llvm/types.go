package llvm

import (
	"fmt"
	"strings"

	"kestrel/internal/types"
)

func llvmValueType(t types.Type) (string, error) {
	switch t {
	case types.Int32:
		return "i32", nil
	case types.Float32:
		return "float", nil
	case types.Bool:
		return "i1", nil
	case types.String:
		return "ptr", nil
	default:
		return "", fmt.Errorf("type %s has no value representation", t)
	}
}

func llvmReturnType(t types.Type) (string, error) {
	if t == types.Void {
		return "void", nil
	}
	return llvmValueType(t)
}

func llvmParamTypes(params []types.Type) ([]string, error) {
	out := make([]string, 0, len(params)+1)
	for _, p := range params {
		ty, err := llvmValueType(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ty)
	}
	return out, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '$' || c == '.' || c == '_'
}

// llvmIdent quotes names LLVM would not accept bare.
func llvmIdent(name string) string {
	bare := name != ""
	for i := 0; i < len(name) && bare; i++ {
		c := name[i]
		bare = isIdentStart(c) || (i > 0 && c >= '0' && c <= '9')
	}
	if bare {
		return name
	}
	return quoteLLVMString(name)
}

func quoteLLVMString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c >= 0x7f || c == '"' || c == '\\' {
			fmt.Fprintf(&sb, "\\%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}
