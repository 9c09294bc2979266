package diag

import (
	"errors"
	"fmt"

	"kestrel/internal/ast"
)

// Error is a lowering failure attributed to a node.
type Error struct {
	Code    Code
	Node    ast.NodeID
	Message string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	if e.Node.IsValid() {
		msg = fmt.Sprintf("%s: %s (node %s)", e.Code, e.Message, e.Node)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, &diag.Error{Code: diag.NameError}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (!t.Node.IsValid() || t.Node == e.Node)
}

// Errorf builds an *Error for node.
func Errorf(code Code, node ast.NodeID, format string, args ...any) *Error {
	return &Error{Code: code, Node: node, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and node to an underlying error.
func Wrap(code Code, node ast.NodeID, err error, format string, args ...any) *Error {
	return &Error{Code: code, Node: node, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return UnknownCode
}

// NodeOf returns the node identity of the first *Error in err's chain.
func NodeOf(err error) ast.NodeID {
	if e, ok := AsError(err); ok {
		return e.Node
	}
	return ast.NoNodeID
}
