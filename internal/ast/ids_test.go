package ast

import (
	"sort"
	"sync"
	"testing"
)

func TestAllocatorStrictlyIncreasing(t *testing.T) {
	a := NewAllocator()
	prev := a.Peek()
	if prev != NoNodeID {
		t.Fatalf("fresh allocator should peek NoNodeID, got %v", prev)
	}
	for range 1000 {
		id := a.Next()
		if id <= prev {
			t.Fatalf("id %v not greater than %v", id, prev)
		}
		prev = id
	}
	if a.Peek() != prev {
		t.Fatalf("Peek = %v, want %v", a.Peek(), prev)
	}
}

func TestAllocatorConcurrentDistinct(t *testing.T) {
	a := NewAllocator()
	const workers, per = 8, 500
	out := make([][]NodeID, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				out[w] = append(out[w], a.Next())
			}
		}()
	}
	wg.Wait()

	seen := make(map[NodeID]struct{}, workers*per)
	all := make([]int, 0, workers*per)
	for _, ids := range out {
		for i, id := range ids {
			if i > 0 && id <= ids[i-1] {
				t.Fatalf("per-goroutine order broken: %v after %v", id, ids[i-1])
			}
			if _, dup := seen[id]; dup {
				t.Fatalf("duplicate id %v", id)
			}
			seen[id] = struct{}{}
			all = append(all, int(id))
		}
	}
	sort.Ints(all)
	if all[0] != 1 || all[len(all)-1] != workers*per {
		t.Fatalf("ids should cover 1..%d, got %d..%d", workers*per, all[0], all[len(all)-1])
	}
}

func TestSharedAllocatorAcrossBuilders(t *testing.T) {
	a := NewAllocator()
	b1 := NewBuilder(a, Hints{})
	b2 := NewBuilder(a, Hints{})
	x := b1.NewVariable(0, "x")
	y := b2.NewVariable(0, "y")
	z := b1.NewVariable(0, "z")
	if !(x < y && y < z) {
		t.Fatalf("ids must follow construction order: %v %v %v", x, y, z)
	}
	if b2.Nodes.Get(x) != nil {
		t.Fatalf("builder 2 must not see builder 1 nodes")
	}
}
