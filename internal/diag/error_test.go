package diag

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/internal/ast"
)

func TestCodeAndNodeSeeThroughWrapping(t *testing.T) {
	base := Errorf(CastError, ast.NodeID(7), "cannot cast %s to %s", "i32", "string")
	wrapped := fmt.Errorf("lowering main: %w", base)

	assert.Equal(t, CastError, CodeOf(wrapped))
	assert.Equal(t, ast.NodeID(7), NodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Code: CastError}))
	assert.True(t, errors.Is(wrapped, &Error{Code: CastError, Node: 7}))
	assert.False(t, errors.Is(wrapped, &Error{Code: CastError, Node: 8}))
	assert.False(t, errors.Is(wrapped, &Error{Code: TypeError}))
	assert.Contains(t, wrapped.Error(), "cast error: cannot cast i32 to string (node #7)")
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(IOError, ast.NoNodeID, fs.ErrPermission, "write %s", "out.ll")
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "io error: write out.ll: permission denied", err.Error())
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, UnknownCode, CodeOf(errors.New("boom")))
	assert.Equal(t, ast.NoNodeID, NodeOf(errors.New("boom")))
	assert.Equal(t, "KT1003", ArityError.ID())
	assert.True(t, VerificationError.Internal())
	assert.False(t, NameError.Internal())
}

func TestRenderPlain(t *testing.T) {
	d := FromError("main.kast", Errorf(NameError, 3, "unknown variable %q", "y"))
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &d, RenderOpts{}))
	assert.Equal(t, "main.kast: error[KT1002] name error: unknown variable \"y\" (node #3)\n", buf.String())
}

func TestBagSortLimitAndDedup(t *testing.T) {
	b := NewBag(3)
	require.True(t, b.Add(Diagnostic{Severity: SevError, Code: TypeError, Program: "b", Node: 2}))
	require.True(t, b.Add(Diagnostic{Severity: SevError, Code: NameError, Program: "a", Node: 9}))
	require.True(t, b.Add(Diagnostic{Severity: SevError, Code: NameError, Program: "a", Node: 9}))
	assert.False(t, b.Add(Diagnostic{Severity: SevError, Code: CastError, Program: "c"}))

	b.Dedup()
	b.Sort()
	require.Equal(t, 2, b.Len())
	assert.Equal(t, "a", b.Items()[0].Program)
	assert.True(t, b.HasErrors())
}
