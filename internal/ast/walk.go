package ast

// WalkStmts visits the statements of body in order, descending into branch
// and loop bodies. Returning false from fn skips the children of that node.
func (n *Nodes) WalkStmts(body []NodeID, fn func(id NodeID, kind Kind) bool) {
	for _, id := range body {
		kind := n.Kind(id)
		if !fn(id, kind) {
			continue
		}
		switch kind {
		case KindBranch:
			br, _ := n.Branch(id)
			n.WalkStmts(br.Then, fn)
			n.WalkStmts(br.Else, fn)
		case KindWhile:
			w, _ := n.While(id)
			n.WalkStmts(w.Body, fn)
		}
	}
}

// AssignedNames returns the set of identifiers assigned anywhere in body.
func (n *Nodes) AssignedNames(body []NodeID) map[string]struct{} {
	out := make(map[string]struct{})
	n.WalkStmts(body, func(id NodeID, kind Kind) bool {
		if kind == KindAssignment {
			as, _ := n.Assignment(id)
			out[as.Target] = struct{}{}
		}
		return true
	})
	return out
}
