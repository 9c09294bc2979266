package diag

import "kestrel/internal/ast"

type Note struct {
	Node ast.NodeID
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	// Program names the lowered program (file path or module name).
	Program string
	Node    ast.NodeID
	Notes   []Note
}

// FromError converts a lowering failure into a diagnostic. Errors that are
// not *Error become UnknownCode diagnostics without a node.
func FromError(program string, err error) Diagnostic {
	d := Diagnostic{
		Severity: SevError,
		Code:     CodeOf(err),
		Message:  err.Error(),
		Program:  program,
		Node:     NodeOf(err),
	}
	if e, ok := AsError(err); ok {
		d.Message = e.Message
		if e.Err != nil {
			d.Notes = append(d.Notes, Note{Node: e.Node, Msg: e.Err.Error()})
		}
	}
	return d
}
