// Package diag defines the error taxonomy of lowering and the diagnostic
// records the driver reports.
//
// Every failure of a lowering pass is a *Error carrying a Code and the
// identity of the offending node. Callers classify failures with CodeOf and
// locate them with NodeOf; both see through fmt.Errorf("%w") wrapping.
//
// Diagnostics collected across several programs (kestrel build) go into a
// Bag, which supports sorting and a cap on the number of stored items.
// Render writes a diagnostic in the one-line form
//
//	<program>: error[KT1001] type error: <message> (node #12)
//
// optionally coloured with fatih/color.
package diag
