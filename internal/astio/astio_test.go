package astio

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/internal/ast"
	"kestrel/internal/backend/llvm"
	"kestrel/internal/mir"
	"kestrel/internal/testkit"
	"kestrel/internal/types"
)

func emit(t *testing.T, prog *ast.Program) string {
	t.Helper()
	m, err := mir.LowerProgram(prog, mir.LowerOptions{ModuleName: "rt"})
	require.NoError(t, err)
	require.NoError(t, mir.Validate(m))
	text, err := llvm.EmitModule(m, llvm.EmitOptions{})
	require.NoError(t, err)
	return text
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatMsgpack} {
		t.Run(format.String(), func(t *testing.T) {
			orig := testkit.CountdownScenario(nil)
			doc, err := Encode("countdown", orig)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Marshal(&buf, doc, format))
			back, err := Unmarshal(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, doc, back)

			prog, err := Decode(back, nil)
			require.NoError(t, err)
			require.NoError(t, testkit.CheckNodeInvariants(prog))
			assert.Equal(t, orig.Nodes.Len(), prog.Nodes.Len(), "shared nodes stay shared")
			assert.Equal(t, emit(t, orig), emit(t, prog))

			again, err := Encode("countdown", prog)
			require.NoError(t, err)
			assert.Equal(t, doc, again)
		})
	}
}

func TestReadHandWrittenYAML(t *testing.T) {
	prog, name, err := ReadFile(filepath.Join("testdata", "hello.kast.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", name)
	require.Len(t, prog.Decls, 2)

	text := emit(t, prog)
	assert.Contains(t, text, "declare void @print_i32(i32)")
	assert.Contains(t, text, "call void @print_i32(i32 42)")
	assert.Contains(t, text, "ret i32 0")
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	for _, file := range []string{"p.kast", "p.kast.yaml"} {
		path := filepath.Join(dir, file)
		require.NoError(t, WriteFile(path, "", testkit.PrintScenario(nil)))

		prog, name, err := ReadFile(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "p", name)
		assert.Equal(t, emit(t, testkit.PrintScenario(nil)), emit(t, prog))
	}
}

func TestConstantLiterals(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	vals := []types.Value{
		types.StringValue("line\n\"q\""),
		types.StringValue(""),
		types.FloatValue(0.1),
		types.IntValue(-7),
		types.BoolValue(true),
	}
	for _, v := range vals {
		b.AddDecl(b.NewFunc("f"+v.Type.String(), v.Type, nil, false, []ast.NodeID{b.NewReturn(b.NewConstant(v))}))
	}
	mismatched := b.NewTypedConstant(types.Int32, types.FloatValue(1.5))
	b.AddDecl(b.NewFunc("g", types.Int32, nil, false, []ast.NodeID{b.NewReturn(mismatched)}))

	doc, err := Encode("lits", b.Program())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Marshal(&buf, doc, FormatYAML))
	back, err := Unmarshal(buf.Bytes(), FormatYAML)
	require.NoError(t, err)
	prog, err := Decode(back, nil)
	require.NoError(t, err)

	var got []types.Value
	for _, d := range prog.Decls {
		fn, ok := prog.Nodes.Func(d)
		require.True(t, ok)
		ret, ok := prog.Nodes.Return(fn.Body[0])
		require.True(t, ok)
		c, ok := prog.Nodes.Constant(ret.Value)
		require.True(t, ok)
		got = append(got, c.Value)
		if fn.Name == "g" {
			assert.Equal(t, types.Int32, c.Type)
		}
	}
	assert.Equal(t, append(vals, types.FloatValue(1.5)), got)
}

func TestDecodeNormalisesNames(t *testing.T) {
	doc := &Document{
		Version: FormatVersion,
		Decls:   []uint32{2},
		Nodes: []NodeDoc{
			{ID: 1, Kind: "variable", Type: "i32", Name: "cafe\u0301"},
			{ID: 2, Kind: "func", Type: "void", Name: "f", Params: []uint32{1}},
		},
	}
	prog, err := Decode(doc, nil)
	require.NoError(t, err)
	fn, ok := prog.Nodes.Func(prog.Decls[0])
	require.True(t, ok)
	v, ok := prog.Nodes.Variable(fn.Params[0])
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9", v.Name)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	zero := "0"
	cases := []struct {
		name string
		doc  Document
	}{
		{"version", Document{Version: 99}},
		{"unknown reference", Document{Version: 1, Decls: []uint32{7}}},
		{"duplicate id", Document{Version: 1, Nodes: []NodeDoc{{ID: 1, Kind: "variable", Type: "i32"}, {ID: 1, Kind: "variable", Type: "i32"}}}},
		{"missing id", Document{Version: 1, Nodes: []NodeDoc{{Kind: "variable", Type: "i32"}}}},
		{"cycle", Document{Version: 1, Decls: []uint32{1}, Nodes: []NodeDoc{
			{ID: 1, Kind: "func", Type: "void", Name: "f", Body: []uint32{2}},
			{ID: 2, Kind: "void_context", Value: 3},
			{ID: 3, Kind: "unop", Type: "i32", Op: "-", Value: 3},
		}}},
		{"decl is not a declaration", Document{Version: 1, Decls: []uint32{1}, Nodes: []NodeDoc{{ID: 1, Kind: "constant", Type: "i32", Lit: &zero}}}},
		{"unknown kind", Document{Version: 1, Decls: []uint32{1}, Nodes: []NodeDoc{{ID: 1, Kind: "lambda"}}}},
		{"unknown type", Document{Version: 1, Decls: []uint32{1}, Nodes: []NodeDoc{{ID: 1, Kind: "extern", Type: "i64", Name: "f"}}}},
		{"missing operand", Document{Version: 1, Decls: []uint32{1}, Nodes: []NodeDoc{
			{ID: 1, Kind: "func", Type: "void", Name: "f", Body: []uint32{2}},
			{ID: 2, Kind: "void_context"},
		}}},
		{"constant without literal", Document{Version: 1, Decls: []uint32{1}, Nodes: []NodeDoc{
			{ID: 1, Kind: "func", Type: "i32", Name: "f", Body: []uint32{2}},
			{ID: 2, Kind: "return", Value: 3},
			{ID: 3, Kind: "constant", Type: "i32"},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(&tc.doc, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestUnmarshalRejectsUnknownFields(t *testing.T) {
	_, err := Unmarshal([]byte("version: 1\ndecls: []\nnodes: []\nextra: true\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("dir/a.kast")
	require.NoError(t, err)
	assert.Equal(t, FormatMsgpack, f)
	f, err = FormatOf("a.kast.yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = FormatOf("a.json")
	assert.Error(t, err)

	assert.Equal(t, "a", ProgramName("dir/a.kast.yaml"))
	assert.Equal(t, "b", ProgramName("b.kast"))
}
