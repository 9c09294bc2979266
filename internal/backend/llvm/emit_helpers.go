package llvm

import (
	"fmt"
	"math"
	"strings"
)

func (fe *funcEmitter) nextTemp() string {
	fe.tmpID++
	return fmt.Sprintf("%%t%d", fe.tmpID)
}

func (fe *funcEmitter) line(format string, args ...any) {
	fe.emitter.buf.WriteString("  ")
	fmt.Fprintf(&fe.emitter.buf, format, args...)
	fe.emitter.buf.WriteString("\n")
}

func formatLLVMBytes(data []byte, arrayLen int) string {
	var sb strings.Builder
	sb.WriteString("c\"")
	for i := range arrayLen {
		b := byte(0)
		if i < len(data) {
			b = data[i]
		}
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	sb.WriteString("\"")
	return sb.String()
}

// formatFloat renders f as the exact hexadecimal double LLVM expects for a
// float literal.
func formatFloat(f float32) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(float64(f)))
}

func boolValue(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
