package ast

import (
	"testing"

	"kestrel/internal/types"
)

func TestBuilderProgramShape(t *testing.T) {
	b := NewBuilder(nil, Hints{Nodes: 4})
	p := b.NewVariable(types.Int32, "n")
	ext := b.NewExtern("print_i32", types.Void, []NodeID{p}, false)
	b.AddDecl(ext)

	arg := b.NewConstant(types.IntValue(42))
	call := b.NewCall(types.Void, "print_i32", []NodeID{arg})
	ret := b.NewReturn(b.NewConstant(types.IntValue(0)))
	fn := b.NewFunc("main", types.Int32, nil, false, []NodeID{b.NewVoidContext(call), ret})
	b.AddDecl(fn)

	prog := b.Program()
	if len(prog.Decls) != 2 || prog.Decls[0] != ext || prog.Decls[1] != fn {
		t.Fatalf("unexpected decls %v", prog.Decls)
	}
	if k := prog.Nodes.Kind(fn); k != KindFunc || !k.IsDeclaration() {
		t.Fatalf("fn kind = %s", k)
	}
	sig, ok := prog.Nodes.Signature(ext)
	if !ok || sig.Name != "print_i32" || sig.Return != types.Void || len(sig.Params) != 1 {
		t.Fatalf("bad extern signature %+v", sig)
	}
	fd, ok := prog.Nodes.Func(fn)
	if !ok || len(fd.Body) != 2 || fd.Name != "main" {
		t.Fatalf("bad func payload %+v", fd)
	}
	if _, ok := prog.Nodes.Extern(fn); ok {
		t.Fatalf("func node must not answer as extern")
	}
	if ty, ok := prog.Nodes.OperationType(call); !ok || ty != types.Void {
		t.Fatalf("call type = %s, %v", ty, ok)
	}
	if _, ok := prog.Nodes.OperationType(ret); ok {
		t.Fatalf("return is not an operation")
	}
}

func TestBuilderCopiesSlices(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	args := []NodeID{b.NewConstant(types.IntValue(1))}
	call := b.NewCall(types.Int32, "f", args)
	args[0] = NoNodeID
	data, _ := b.Nodes.Call(call)
	if !data.Args[0].IsValid() {
		t.Fatalf("builder must not alias caller slices")
	}
}

func TestSharedOperationNode(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	x := b.NewVariable(types.Int32, "x")
	sum := b.NewBinOp(types.Int32, "+", x, x)
	data, ok := b.Nodes.BinOp(sum)
	if !ok || data.Left != data.Right {
		t.Fatalf("expected the same child on both sides")
	}
	if b.Nodes.Len() != 2 {
		t.Fatalf("sharing must not duplicate nodes, have %d", b.Nodes.Len())
	}
}

func TestKindGroups(t *testing.T) {
	for k := KindExtern; k <= KindVoidContext; k++ {
		if k.Group() == GroupNone {
			t.Fatalf("kind %s has no group", k)
		}
		back, ok := ParseKind(k.String())
		if !ok || back != k {
			t.Fatalf("ParseKind(%q) = %v", k.String(), back)
		}
	}
	if KindInvalid.Group() != GroupNone {
		t.Fatalf("invalid kind must have no group")
	}
}

func TestAssignedNamesDescends(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	one := b.NewConstant(types.IntValue(1))
	inner := b.NewAssignment("a", one)
	cond := b.NewConstant(types.BoolValue(true))
	loop := b.NewWhile(cond, []NodeID{b.NewAssignment("b", one)})
	br := b.NewBranch(cond, []NodeID{inner}, []NodeID{loop})

	got := b.Nodes.AssignedNames([]NodeID{br, b.NewAssignment("c", one)})
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := got[name]; !ok {
			t.Fatalf("missing %q in %v", name, got)
		}
	}
	if len(got) != 3 {
		t.Fatalf("unexpected names %v", got)
	}
}
