package mir

import "kestrel/internal/ast"

// nameSet is the set of variables a lowered value depends on.
type nameSet map[string]struct{}

func (s nameSet) union(other nameSet) nameSet {
	if len(other) == 0 {
		return s
	}
	if len(s) == 0 {
		return other
	}
	out := make(nameSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func (s nameSet) intersects(other map[string]struct{}) bool {
	for k := range s {
		if _, ok := other[k]; ok {
			return true
		}
	}
	return false
}

// loweredValue is the result of lowering one operation.
type loweredValue struct {
	op    Operand
	reads nameSet
	// impure is set when the subtree contains a call.
	impure bool
}

// memoTable maps operation node ids to already lowered values. Scopes follow
// structured control flow: a value recorded inside a branch arm or loop body
// is dropped when that region ends, so every hit dominates its use.
type memoTable struct {
	scopes []map[ast.NodeID]loweredValue
}

func newMemoTable() *memoTable {
	return &memoTable{scopes: []map[ast.NodeID]loweredValue{{}}}
}

func (m *memoTable) push() {
	m.scopes = append(m.scopes, map[ast.NodeID]loweredValue{})
}

func (m *memoTable) pop() {
	if len(m.scopes) > 1 {
		m.scopes = m.scopes[:len(m.scopes)-1]
	}
}

func (m *memoTable) lookup(id ast.NodeID) (loweredValue, bool) {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if v, ok := m.scopes[i][id]; ok {
			return v, true
		}
	}
	return loweredValue{}, false
}

func (m *memoTable) store(id ast.NodeID, v loweredValue) {
	if v.impure {
		return
	}
	m.scopes[len(m.scopes)-1][id] = v
}

// evict drops every entry that read one of names.
func (m *memoTable) evict(names map[string]struct{}) {
	if len(names) == 0 {
		return
	}
	for _, scope := range m.scopes {
		for id, v := range scope {
			if v.reads.intersects(names) {
				delete(scope, id)
			}
		}
	}
}

func (m *memoTable) size() int {
	n := 0
	for _, scope := range m.scopes {
		n += len(scope)
	}
	return n
}
