package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// RenderOpts controls Render output.
type RenderOpts struct {
	Color bool
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
)

// Render writes d as a single line plus one line per note.
func Render(w io.Writer, d *Diagnostic, opts RenderOpts) error {
	label := fmt.Sprintf("%s[%s]", d.Severity, d.Code.ID())
	if opts.Color {
		c := *d.Severity.palette()
		c.EnableColor()
		label = c.Sprint(label)
	}
	prefix := ""
	if d.Program != "" {
		prefix = d.Program + ": "
	}
	line := fmt.Sprintf("%s%s %s: %s", prefix, label, d.Code, d.Message)
	if d.Node.IsValid() {
		line += fmt.Sprintf(" (node %s)", d.Node)
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, n := range d.Notes {
		note := "note"
		if opts.Color {
			c := *noteColor
			c.EnableColor()
			note = c.Sprint(note)
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", note, n.Msg); err != nil {
			return err
		}
	}
	return nil
}

// RenderBag renders every item of b in its current order.
func RenderBag(w io.Writer, b *Bag, opts RenderOpts) error {
	for i := range b.Items() {
		if err := Render(w, &b.Items()[i], opts); err != nil {
			return err
		}
	}
	return nil
}
