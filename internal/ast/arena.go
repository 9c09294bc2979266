package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// Arena stores payloads of one kind. Slots are addressed by 1-based
// indices so that 0 can mean "absent" in node headers.
type Arena[T any] struct {
	items []T
}

// NewArena creates an arena whose storage is preallocated with capHint slots.
func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capHint)}
}

// Allocate appends value and returns its slot.
func (a *Arena[T]) Allocate(value T) uint32 {
	slot, err := safecast.Conv[uint32](len(a.items) + 1)
	if err != nil {
		panic(fmt.Errorf("ast: arena overflow: %w", err))
	}
	a.items = append(a.items, value)
	return slot
}

// At возвращает элемент по слоту или nil, если слот пуст или вне диапазона.
func (a *Arena[T]) At(slot uint32) *T {
	if slot == 0 || uint64(slot) > uint64(len(a.items)) {
		return nil
	}
	return &a.items[slot-1]
}

// Items exposes the backing storage in allocation order. Callers must not
// modify it.
func (a *Arena[T]) Items() []T {
	return a.items
}

func (a *Arena[T]) Count() int {
	return len(a.items)
}
