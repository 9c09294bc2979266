package ast

import (
	"fmt"
	"sync/atomic"
)

type (
	// NodeID is the identity of a node within one compilation run.
	NodeID uint32
	// PayloadID indexes a per-kind payload arena.
	PayloadID uint32
)

const (
	NoNodeID    NodeID    = 0
	NoPayloadID PayloadID = 0
)

func (id NodeID) IsValid() bool    { return id != NoNodeID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }

func (id NodeID) String() string {
	if id == NoNodeID {
		return "#none"
	}
	return fmt.Sprintf("#%d", uint32(id))
}

// Allocator hands out node identities. Every call to Next returns a value
// strictly greater than all previous ones; zero is never returned.
//
// One allocator is shared by every Builder of a compilation run and may be
// used from several goroutines.
type Allocator struct {
	last atomic.Uint32
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns a fresh identity.
func (a *Allocator) Next() NodeID {
	id := a.last.Add(1)
	if id == 0 {
		// 2^32 nodes in one run: the counter wrapped and ids would repeat.
		panic("ast: node id space exhausted")
	}
	return NodeID(id)
}

// Peek returns the last identity handed out, NoNodeID if none.
func (a *Allocator) Peek() NodeID {
	return NodeID(a.last.Load())
}
