package depot

import "iter"

// Store is implemented by *World and *Storage; the typed component functions
// accept either.
type Store interface {
	storage() *Storage
}

// RowIndexer resolves a component type to its schema row in one storage.
type RowIndexer interface {
	RowIndexFor(ComponentType) (uint32, bool)
}

type QueryNode interface {
	Evaluate(archetype Archetype, rows RowIndexer) bool
}

// Filter builds composite query nodes. Items may be ComponentType,
// []ComponentType or QueryNode.
type Filter interface {
	QueryNode
	And(items ...any) QueryNode
	Or(items ...any) QueryNode
	Not(items ...any) QueryNode
}

type iCursor interface {
	Next() bool
	Entity() Entity
	Reset()
}

type iQuery interface {
	Entities() iter.Seq[Entity]
	Len() int
	Contains(Entity) bool
}
