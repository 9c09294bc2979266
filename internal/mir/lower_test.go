package mir

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/testkit"
	"kestrel/internal/types"
)

func lower(t *testing.T, prog *ast.Program) *Module {
	t.Helper()
	require.NoError(t, testkit.CheckNodeInvariants(prog))
	m, err := LowerProgram(prog, LowerOptions{ModuleName: "test"})
	require.NoError(t, err)
	require.NoError(t, Validate(m))
	return m
}

func lowerErr(t *testing.T, prog *ast.Program) error {
	t.Helper()
	m, err := LowerProgram(prog, LowerOptions{})
	require.Error(t, err)
	assert.Nil(t, m)
	return err
}

func countInstrs(f *Func, pred func(*Instr) bool) int {
	n := 0
	for i := range f.Blocks {
		for j := range f.Blocks[i].Instrs {
			if pred(&f.Blocks[i].Instrs[j]) {
				n++
			}
		}
	}
	return n
}

func isBinary(ins *Instr) bool {
	return ins.Kind == InstrAssign && ins.Assign.Src.Kind == RValueBinaryOp
}

func isCall(ins *Instr) bool { return ins.Kind == InstrCall }

func TestLowerPrintScenario(t *testing.T) {
	m := lower(t, testkit.PrintScenario(nil))

	require.Len(t, m.Decls, 2)
	ext, ok := m.Decl("print_i32")
	require.True(t, ok)
	assert.False(t, ext.Defined)
	assert.Equal(t, []types.Type{types.Int32}, ext.Params)
	assert.Equal(t, types.Void, ext.Result)

	require.Len(t, m.Funcs, 1)
	main := m.Funcs[0]
	assert.Equal(t, "main", main.Name)
	require.Len(t, main.Blocks, 1)

	bb := main.Blocks[0]
	require.Len(t, bb.Instrs, 1)
	call := bb.Instrs[0].Call
	assert.Equal(t, InstrCall, bb.Instrs[0].Kind)
	assert.Equal(t, "print_i32", call.Callee)
	assert.False(t, call.HasDst)
	require.Len(t, call.Args, 1)
	assert.Equal(t, ConstOperand(types.IntValue(42)), call.Args[0])

	require.Equal(t, TermReturn, bb.Term.Kind)
	assert.True(t, bb.Term.Return.HasValue)
	assert.Equal(t, ConstOperand(types.IntValue(0)), bb.Term.Return.Value)
}

func TestBinOpOperandTypesMustMatch(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	sum := b.NewBinOp(types.Int32, "+", b.NewConstant(types.IntValue(1)), b.NewConstant(types.FloatValue(2)))
	b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{b.NewReturn(sum)}))

	err := lowerErr(t, b.Program())
	assert.Equal(t, diag.TypeError, diag.CodeOf(err))
	assert.Equal(t, sum, diag.NodeOf(err))
}

func TestUnknownOperator(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	op := b.NewBinOp(types.Int32, "<<", b.NewConstant(types.IntValue(1)), b.NewConstant(types.IntValue(2)))
	b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{b.NewReturn(op)}))

	err := lowerErr(t, b.Program())
	assert.Equal(t, diag.TypeError, diag.CodeOf(err))
	assert.Equal(t, op, diag.NodeOf(err))
}

func TestUnknownIdentifiers(t *testing.T) {
	t.Run("variable", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		v := b.NewVariable(types.Int32, "missing")
		b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{b.NewReturn(v)}))

		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.NameError, diag.CodeOf(err))
		assert.Equal(t, v, diag.NodeOf(err))
	})
	t.Run("assignment", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		p := b.NewVariable(types.Int32, "x")
		as := b.NewAssignment("y", b.NewConstant(types.IntValue(1)))
		b.AddDecl(b.NewFunc("f", types.Void, []ast.NodeID{p}, false, []ast.NodeID{as}))

		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.NameError, diag.CodeOf(err))
		assert.Equal(t, as, diag.NodeOf(err))
	})
	t.Run("callee", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		call := b.NewCall(types.Void, "later", nil)
		b.AddDecl(b.NewFunc("f", types.Void, nil, false, []ast.NodeID{b.NewVoidContext(call)}))
		b.AddDecl(b.NewExtern("later", types.Void, nil, false))

		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.NameError, diag.CodeOf(err))
		assert.Equal(t, call, diag.NodeOf(err))
	})
}

func TestCallArity(t *testing.T) {
	build := func(variadic bool, nargs int) (*ast.Program, ast.NodeID) {
		b := ast.NewBuilder(nil, ast.Hints{})
		p := b.NewVariable(types.Int32, "a")
		b.AddDecl(b.NewExtern("g", types.Void, []ast.NodeID{p}, variadic))
		args := make([]ast.NodeID, 0, nargs)
		for i := range nargs {
			args = append(args, b.NewConstant(types.IntValue(int32(i))))
		}
		call := b.NewCall(types.Void, "g", args)
		b.AddDecl(b.NewFunc("f", types.Void, nil, false, []ast.NodeID{b.NewVoidContext(call)}))
		return b.Program(), call
	}

	for _, nargs := range []int{0, 2} {
		prog, call := build(false, nargs)
		err := lowerErr(t, prog)
		assert.Equal(t, diag.ArityError, diag.CodeOf(err), "nargs=%d", nargs)
		assert.Equal(t, call, diag.NodeOf(err))
	}

	prog, call := build(true, 0)
	err := lowerErr(t, prog)
	assert.Equal(t, diag.ArityError, diag.CodeOf(err))
	assert.Equal(t, call, diag.NodeOf(err))

	for _, nargs := range []int{1, 3} {
		prog, _ := build(true, nargs)
		m := lower(t, prog)
		assert.Equal(t, 1, countInstrs(m.Funcs[0], isCall))
	}
}

func TestCallArgumentTypes(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	p := b.NewVariable(types.Int32, "a")
	b.AddDecl(b.NewExtern("g", types.Void, []ast.NodeID{p}, false))
	arg := b.NewConstant(types.BoolValue(true))
	b.AddDecl(b.NewFunc("f", types.Void, nil, false, []ast.NodeID{
		b.NewVoidContext(b.NewCall(types.Void, "g", []ast.NodeID{arg})),
	}))

	err := lowerErr(t, b.Program())
	assert.Equal(t, diag.TypeError, diag.CodeOf(err))
	assert.Equal(t, arg, diag.NodeOf(err))
}

func TestCastToStringIsCastError(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	cast := b.NewCast(types.String, b.NewConstant(types.IntValue(1)))
	b.AddDecl(b.NewFunc("f", types.Void, nil, false, []ast.NodeID{b.NewVoidContext(cast)}))

	err := lowerErr(t, b.Program())
	assert.Equal(t, diag.CastError, diag.CodeOf(err))
	assert.Equal(t, cast, diag.NodeOf(err))
}

func TestIdentityCastEmitsNothing(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	p := b.NewVariable(types.Int32, "x")
	cast := b.NewCast(types.Int32, b.NewVariable(types.Int32, "x"))
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{p}, false, []ast.NodeID{b.NewReturn(cast)}))

	m := lower(t, b.Program())
	f := m.Funcs[0]
	assert.Empty(t, f.Blocks[0].Instrs)
	assert.Equal(t, CopyOperand(0, types.Int32), f.Blocks[0].Term.Return.Value)
}

func TestPoisonReachingLowering(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	c := b.NewTypedConstant(types.Poison, types.IntValue(1))
	b.AddDecl(b.NewFunc("f", types.Void, nil, false, []ast.NodeID{b.NewVoidContext(c)}))

	err := lowerErr(t, b.Program())
	assert.Equal(t, diag.TypeError, diag.CodeOf(err))
	assert.Equal(t, c, diag.NodeOf(err))
}

func TestReturnContracts(t *testing.T) {
	t.Run("bare return in value function", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		ret := b.NewReturn(ast.NoNodeID)
		b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{ret}))
		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.TypeError, diag.CodeOf(err))
		assert.Equal(t, ret, diag.NodeOf(err))
	})
	t.Run("value from void function", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		ret := b.NewReturn(b.NewConstant(types.IntValue(1)))
		b.AddDecl(b.NewFunc("f", types.Void, nil, false, []ast.NodeID{ret}))
		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.TypeError, diag.CodeOf(err))
	})
	t.Run("void function falls off the end", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		b.AddDecl(b.NewFunc("f", types.Void, nil, false, nil))
		m := lower(t, b.Program())
		term := m.Funcs[0].Blocks[0].Term
		assert.Equal(t, TermReturn, term.Kind)
		assert.False(t, term.Return.HasValue)
	})
	t.Run("missing return on one path", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		p := b.NewVariable(types.Bool, "c")
		br := b.NewBranch(b.NewVariable(types.Bool, "c"),
			[]ast.NodeID{b.NewReturn(b.NewConstant(types.IntValue(1)))}, nil)
		fn := b.NewFunc("f", types.Int32, []ast.NodeID{p}, false, []ast.NodeID{br})
		b.AddDecl(fn)

		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.TypeError, diag.CodeOf(err))
		assert.Equal(t, fn, diag.NodeOf(err))
		assert.Contains(t, err.Error(), "missing return")
	})
	t.Run("empty value function", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		fn := b.NewFunc("0", types.Float32, nil, false, nil)
		b.AddDecl(fn)

		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.TypeError, diag.CodeOf(err))
		assert.Equal(t, fn, diag.NodeOf(err))
		assert.False(t, diag.CodeOf(err).Internal())
	})
	t.Run("both arms return", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		p := b.NewVariable(types.Bool, "c")
		br := b.NewBranch(b.NewVariable(types.Bool, "c"),
			[]ast.NodeID{b.NewReturn(b.NewConstant(types.IntValue(1)))},
			[]ast.NodeID{b.NewReturn(b.NewConstant(types.IntValue(2)))})
		b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{p}, false, []ast.NodeID{br}))

		m := lower(t, b.Program())
		require.NoError(t, Validate(m))
	})
}

func TestStatementsAfterReturnAreSkipped(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	b.AddDecl(b.NewExtern("g", types.Void, nil, false))
	b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{
		b.NewReturn(b.NewConstant(types.IntValue(1))),
		b.NewVoidContext(b.NewCall(types.Void, "g", nil)),
	}))

	m := lower(t, b.Program())
	assert.Zero(t, countInstrs(m.Funcs[0], isCall))
}

func TestSharedOperationIsLoweredOnce(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	b.AddDecl(b.NewExtern("use", types.Void, []ast.NodeID{b.NewVariable(types.Int32, "v")}, false))
	p := b.NewVariable(types.Int32, "x")
	sum := b.NewBinOp(types.Int32, "+", b.NewVariable(types.Int32, "x"), b.NewConstant(types.IntValue(1)))
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{p}, false, []ast.NodeID{
		b.NewVoidContext(b.NewCall(types.Void, "use", []ast.NodeID{sum})),
		b.NewReturn(b.NewBinOp(types.Int32, "*", sum, sum)),
	}))

	m := lower(t, b.Program())
	f := m.Funcs[0]
	// x+1 once, then the product
	assert.Equal(t, 2, countInstrs(f, isBinary))
	mul := f.Blocks[0].Instrs[2].Assign.Src.Binary
	assert.Equal(t, types.BinaryMul, mul.Op)
	assert.Equal(t, mul.Left, mul.Right)
}

func TestSharedCallIsNeverDeduplicated(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	b.AddDecl(b.NewExtern("tick", types.Int32, nil, false))
	call := b.NewCall(types.Int32, "tick", nil)
	sum := b.NewBinOp(types.Int32, "+", call, call)
	b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{
		b.NewVoidContext(call),
		b.NewVoidContext(sum),
		b.NewReturn(sum),
	}))

	m := lower(t, b.Program())
	f := m.Funcs[0]
	// one standalone call, two per evaluation of sum
	assert.Equal(t, 5, countInstrs(f, isCall))
	assert.Equal(t, 2, countInstrs(f, isBinary))
}

func TestAssignmentInvalidatesDependentValues(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	p := b.NewVariable(types.Int32, "x")
	sum := b.NewBinOp(types.Int32, "+", b.NewVariable(types.Int32, "x"), b.NewConstant(types.IntValue(1)))
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{p}, false, []ast.NodeID{
		b.NewAssignment("x", sum),
		b.NewReturn(sum),
	}))

	m := lower(t, b.Program())
	assert.Equal(t, 2, countInstrs(m.Funcs[0], isBinary))
}

func TestLoopEntryInvalidatesValuesReadingLoopVariables(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	b.AddDecl(b.NewExtern("use", types.Void, []ast.NodeID{b.NewVariable(types.Int32, "v")}, false))
	pc := b.NewVariable(types.Bool, "c")
	px := b.NewVariable(types.Int32, "x")
	sum := b.NewBinOp(types.Int32, "+", b.NewVariable(types.Int32, "x"), b.NewConstant(types.IntValue(1)))
	loop := b.NewWhile(b.NewVariable(types.Bool, "c"), []ast.NodeID{
		b.NewVoidContext(b.NewCall(types.Void, "use", []ast.NodeID{sum})),
		b.NewAssignment("x", sum),
	})
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{pc, px}, false, []ast.NodeID{
		b.NewVoidContext(b.NewCall(types.Void, "use", []ast.NodeID{sum})),
		loop,
		b.NewReturn(b.NewConstant(types.IntValue(0))),
	}))

	f := lower(t, b.Program()).Funcs[0]
	require.Len(t, f.Blocks, 4, "entry, header, body, exit")
	perBlock := make([]int, len(f.Blocks))
	for i := range f.Blocks {
		for j := range f.Blocks[i].Instrs {
			if isBinary(&f.Blocks[i].Instrs[j]) {
				perBlock[i]++
			}
		}
	}
	assert.Equal(t, []int{1, 0, 1, 0}, perBlock, "x+1 is recomputed inside the loop body")
}

func TestMemoDoesNotLeakOutOfBranchArms(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	b.AddDecl(b.NewExtern("use", types.Void, []ast.NodeID{b.NewVariable(types.Int32, "v")}, false))
	pc := b.NewVariable(types.Bool, "c")
	px := b.NewVariable(types.Int32, "x")
	sum := b.NewBinOp(types.Int32, "+", b.NewVariable(types.Int32, "x"), b.NewConstant(types.IntValue(1)))
	br := b.NewBranch(b.NewVariable(types.Bool, "c"),
		[]ast.NodeID{b.NewVoidContext(b.NewCall(types.Void, "use", []ast.NodeID{sum}))},
		nil)
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{pc, px}, false, []ast.NodeID{br, b.NewReturn(sum)}))

	m := lower(t, b.Program())
	f := m.Funcs[0]
	assert.Equal(t, 2, countInstrs(f, isBinary))
}

func TestBranchShape(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	pc := b.NewVariable(types.Bool, "c")
	br := b.NewBranch(b.NewVariable(types.Bool, "c"),
		[]ast.NodeID{b.NewReturn(b.NewConstant(types.IntValue(1)))},
		[]ast.NodeID{b.NewReturn(b.NewConstant(types.IntValue(2)))})
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{pc}, false, []ast.NodeID{br}))

	f := lower(t, b.Program()).Funcs[0]
	require.Len(t, f.Blocks, 4)
	entry := f.Blocks[0].Term
	require.Equal(t, TermIf, entry.Kind)
	assert.Equal(t, BlockID(1), entry.If.Then)
	assert.Equal(t, BlockID(2), entry.If.Else)
	assert.Equal(t, TermReturn, f.Blocks[1].Term.Kind)
	assert.Equal(t, TermReturn, f.Blocks[2].Term.Kind)
	// both arms return, so the join block is dead
	assert.Equal(t, TermUnreachable, f.Blocks[3].Term.Kind)
}

func TestCountdownScenarioShape(t *testing.T) {
	m := lower(t, testkit.CountdownScenario(nil))
	f := m.Funcs[0]
	require.Len(t, f.Blocks, 7)

	assert.Equal(t, TermGoto, f.Blocks[0].Term.Kind)
	assert.Equal(t, BlockID(1), f.Blocks[0].Term.Goto.Target)

	header := f.Blocks[1].Term
	require.Equal(t, TermIf, header.Kind)
	assert.Equal(t, BlockID(2), header.If.Then)
	assert.Equal(t, BlockID(3), header.If.Else)

	// loop latch sits in the join block of the inner branch
	assert.Equal(t, TermGoto, f.Blocks[6].Term.Kind)
	assert.Equal(t, BlockID(1), f.Blocks[6].Term.Goto.Target)
	assert.Equal(t, TermReturn, f.Blocks[3].Term.Kind)

	casts := countInstrs(f, func(ins *Instr) bool {
		return ins.Kind == InstrAssign && ins.Assign.Src.Kind == RValueCast
	})
	assert.Equal(t, 1, casts)
	assert.Equal(t, 2, countInstrs(f, isCall))
}

func TestSelfRecursionAndForwardDeclaration(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	b.AddDecl(b.NewExtern("fact", types.Int32, []ast.NodeID{b.NewVariable(types.Int32, "n")}, false))
	pn := b.NewVariable(types.Int32, "n")
	n := b.NewVariable(types.Int32, "n")
	one := b.NewConstant(types.IntValue(1))
	rec := b.NewCall(types.Int32, "fact", []ast.NodeID{b.NewBinOp(types.Int32, "-", n, one)})
	br := b.NewBranch(b.NewBinOp(types.Bool, "<=", n, one),
		[]ast.NodeID{b.NewReturn(one)},
		[]ast.NodeID{b.NewReturn(b.NewBinOp(types.Int32, "*", n, rec))})
	b.AddDecl(b.NewFunc("fact", types.Int32, []ast.NodeID{pn}, false, []ast.NodeID{br}))

	m := lower(t, b.Program())
	require.Len(t, m.Decls, 1)
	assert.True(t, m.Decls[0].Defined)
	assert.Empty(t, m.Externs())
}

func TestRedeclaration(t *testing.T) {
	t.Run("different signature", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		b.AddDecl(b.NewExtern("g", types.Void, nil, false))
		second := b.NewExtern("g", types.Int32, nil, false)
		b.AddDecl(second)
		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.NameError, diag.CodeOf(err))
		assert.Equal(t, second, diag.NodeOf(err))
	})
	t.Run("two bodies", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		b.AddDecl(b.NewFunc("g", types.Void, nil, false, nil))
		second := b.NewFunc("g", types.Void, nil, false, nil)
		b.AddDecl(second)
		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.NameError, diag.CodeOf(err))
		assert.Equal(t, second, diag.NodeOf(err))
	})
	t.Run("duplicate parameter", func(t *testing.T) {
		b := ast.NewBuilder(nil, ast.Hints{})
		p1 := b.NewVariable(types.Int32, "a")
		p2 := b.NewVariable(types.Int32, "a")
		b.AddDecl(b.NewFunc("g", types.Void, []ast.NodeID{p1, p2}, false, nil))
		err := lowerErr(t, b.Program())
		assert.Equal(t, diag.NameError, diag.CodeOf(err))
		assert.Equal(t, p2, diag.NodeOf(err))
	})
}

func TestIdentifiersAreNormalized(t *testing.T) {
	b := ast.NewBuilder(nil, ast.Hints{})
	p := b.NewVariable(types.Int32, "caf\u00e9")
	v := b.NewVariable(types.Int32, "cafe\u0301")
	b.AddDecl(b.NewFunc("f", types.Int32, []ast.NodeID{p}, false, []ast.NodeID{b.NewReturn(v)}))

	m := lower(t, b.Program())
	assert.Equal(t, CopyOperand(0, types.Int32), m.Funcs[0].Blocks[0].Term.Return.Value)
}

func TestLoweringIsDeterministic(t *testing.T) {
	dump := func() string {
		m := lower(t, testkit.CountdownScenario(nil))
		var buf bytes.Buffer
		require.NoError(t, DumpModule(&buf, m))
		return buf.String()
	}
	first := dump()
	assert.Equal(t, first, dump())
	assert.Contains(t, first, "printf(string, ...) -> i32")
	assert.Contains(t, first, "fn countdown -> f32:")
}
