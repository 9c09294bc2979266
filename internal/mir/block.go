package mir

// Block is a straight-line run of instructions closed by exactly one
// terminator once lowering finishes.
type Block struct {
	ID     BlockID
	Instrs []Instr
	Term   Terminator
}

// Terminated reports whether b is closed. A nil block counts as closed so
// nothing is ever appended to it.
func (b *Block) Terminated() bool {
	return b == nil || b.Term.Kind != TermNone
}

// Successors lists the blocks b may hand control to.
func (b *Block) Successors() []BlockID {
	if b == nil {
		return nil
	}
	return b.Term.Successors()
}
