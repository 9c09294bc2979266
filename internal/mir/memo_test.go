package mir

import (
	"testing"

	"kestrel/internal/ast"
	"kestrel/internal/types"
)

func TestMemoScopesAndEviction(t *testing.T) {
	m := newMemoTable()
	m.store(1, loweredValue{op: CopyOperand(0, types.Int32), reads: nameSet{"x": {}}})
	m.store(2, loweredValue{op: ConstOperand(types.IntValue(4))})
	m.store(3, loweredValue{op: CopyOperand(1, types.Int32), impure: true})
	if m.size() != 2 {
		t.Fatalf("impure values must not be stored, size=%d", m.size())
	}

	m.push()
	m.store(4, loweredValue{op: CopyOperand(2, types.Int32), reads: nameSet{"y": {}}})
	if _, ok := m.lookup(1); !ok {
		t.Fatalf("outer entry must be visible in inner scope")
	}
	m.evict(map[string]struct{}{"x": {}})
	if _, ok := m.lookup(1); ok {
		t.Fatalf("entry reading x survived eviction")
	}
	m.pop()

	if _, ok := m.lookup(4); ok {
		t.Fatalf("inner entry leaked out of its scope")
	}
	if _, ok := m.lookup(ast.NodeID(2)); !ok {
		t.Fatalf("constant entry lost")
	}
	m.pop()
	if m.size() != 1 {
		t.Fatalf("root scope must never be popped, size=%d", m.size())
	}
}
