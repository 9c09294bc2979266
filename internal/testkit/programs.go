// Package testkit builds small programs shared by tests across packages.
package testkit

import (
	"kestrel/internal/ast"
	"kestrel/internal/types"
)

// PrintScenario builds
//
//	extern print_i32(n: i32) -> void
//	func main() -> i32 { print_i32(42); return 0 }
func PrintScenario(alloc *ast.Allocator) *ast.Program {
	b := ast.NewBuilder(alloc, ast.Hints{Nodes: 8})
	n := b.NewVariable(types.Int32, "n")
	b.AddDecl(b.NewExtern("print_i32", types.Void, []ast.NodeID{n}, false))

	call := b.NewCall(types.Void, "print_i32", []ast.NodeID{b.NewConstant(types.IntValue(42))})
	ret := b.NewReturn(b.NewConstant(types.IntValue(0)))
	b.AddDecl(b.NewFunc("main", types.Int32, nil, false, []ast.NodeID{b.NewVoidContext(call), ret}))
	return b.Program()
}

// CountdownScenario builds a program exercising every statement kind:
//
//	extern printf(fmt: string, ...) -> i32
//	func countdown(n: i32, scale: f32) -> f32 {
//	    while n > 0 {
//	        if n % 2 == 0 { printf("even %d\n", n) } else { printf("odd %d\n", n) }
//	        n = n - 1
//	    }
//	    return scale * (n as f32)
//	}
func CountdownScenario(alloc *ast.Allocator) *ast.Program {
	b := ast.NewBuilder(alloc, ast.Hints{Nodes: 32})
	format := b.NewVariable(types.String, "fmt")
	b.AddDecl(b.NewExtern("printf", types.Int32, []ast.NodeID{format}, true))

	pn := b.NewVariable(types.Int32, "n")
	ps := b.NewVariable(types.Float32, "scale")
	n := b.NewVariable(types.Int32, "n")

	cond := b.NewBinOp(types.Bool, ">", n, b.NewConstant(types.IntValue(0)))
	even := b.NewBinOp(types.Bool, "==",
		b.NewBinOp(types.Int32, "%", n, b.NewConstant(types.IntValue(2))),
		b.NewConstant(types.IntValue(0)))
	printEven := b.NewVoidContext(b.NewCall(types.Int32, "printf", []ast.NodeID{
		b.NewConstant(types.StringValue("even %d\n")), n,
	}))
	printOdd := b.NewVoidContext(b.NewCall(types.Int32, "printf", []ast.NodeID{
		b.NewConstant(types.StringValue("odd %d\n")), n,
	}))
	branch := b.NewBranch(even, []ast.NodeID{printEven}, []ast.NodeID{printOdd})
	dec := b.NewAssignment("n", b.NewBinOp(types.Int32, "-", n, b.NewConstant(types.IntValue(1))))
	loop := b.NewWhile(cond, []ast.NodeID{branch, dec})

	scaled := b.NewBinOp(types.Float32, "*", b.NewVariable(types.Float32, "scale"), b.NewCast(types.Float32, n))
	ret := b.NewReturn(scaled)

	b.AddDecl(b.NewFunc("countdown", types.Float32, []ast.NodeID{pn, ps}, false, []ast.NodeID{loop, ret}))
	return b.Program()
}
