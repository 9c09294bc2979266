package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the kestrel CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Styled renders Version with each numeric component coloured. Versions that
// are not major.minor.patch are returned unchanged.
func Styled(useColor bool) string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version
	}
	paint := func(c *color.Color, s string) string {
		if !useColor {
			return s
		}
		cc := *c
		cc.EnableColor()
		return cc.Sprint(s)
	}
	out := paint(versionMajorColor, parts[0]) + "." + paint(versionMinorColor, parts[1]) + "." + paint(versionPatchColor, parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Info is the multi-line text printed by `kestrel version`.
func Info(useColor bool) string {
	var sb strings.Builder
	sb.WriteString("kestrel " + Styled(useColor) + "\n")
	if GitCommit != "" {
		sb.WriteString("commit: " + GitCommit + "\n")
	}
	if BuildDate != "" {
		sb.WriteString("built:  " + BuildDate + "\n")
	}
	return sb.String()
}
