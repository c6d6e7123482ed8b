package depot

import (
	"cmp"
	"fmt"
)

// Entity names one logical record. Two entities are equal only when both the
// index and the generation match, so a copy kept across a destroy never
// matches the entity that later reuses its index.
type Entity struct {
	index      uint32
	generation uint32
}

func NewEntity(index, generation uint32) Entity {
	return Entity{index: index, generation: generation}
}

func (e Entity) Index() uint32 {
	return e.index
}

func (e Entity) Generation() uint32 {
	return e.generation
}

// Compare orders by index, then generation.
func (e Entity) Compare(other Entity) int {
	if c := cmp.Compare(e.index, other.index); c != 0 {
		return c
	}
	return cmp.Compare(e.generation, other.generation)
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.index, e.generation)
}
