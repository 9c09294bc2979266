package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// toggle is the value of an auto|on|off flag such as --color or --ui.
type toggle uint8

const (
	toggleAuto toggle = iota
	toggleOn
	toggleOff
)

func (t toggle) String() string {
	switch t {
	case toggleOn:
		return "on"
	case toggleOff:
		return "off"
	default:
		return "auto"
	}
}

func parseToggle(flag, value string) (toggle, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return toggleAuto, nil
	case "on", "always":
		return toggleOn, nil
	case "off", "never":
		return toggleOff, nil
	}
	return toggleAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// enabledFor resolves auto against whether f is a terminal.
func (t toggle) enabledFor(f *os.File) bool {
	switch t {
	case toggleOn:
		return true
	case toggleOff:
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// toggleFlag reads an auto|on|off flag from cmd, falling back to the
// persistent flags of the root command.
func toggleFlag(cmd *cobra.Command, name string) (toggle, error) {
	fs := cmd.Flags()
	if fs.Lookup(name) == nil {
		fs = cmd.Root().PersistentFlags()
	}
	value, err := fs.GetString(name)
	if err != nil {
		return toggleAuto, err
	}
	return parseToggle(name, value)
}

// useColor resolves --color against the terminal state of f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	t, err := toggleFlag(cmd, "color")
	if err != nil {
		return false, err
	}
	return t.enabledFor(f), nil
}
