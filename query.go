package depot

import (
	"iter"
	"slices"

	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []ComponentType
}

type filter struct {
	root QueryNode
}

func newFilter() Filter {
	return &filter{}
}

func newCompositeNode(op Operation, components []ComponentType, children []QueryNode) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   children,
		components: components,
	}
}

// nodeMask marks the rows of the node's components. known is false when at
// least one component has never been stored in this storage.
func (n *compositeNode) nodeMask(rows RowIndexer) (m mask.Mask, known bool) {
	known = true
	for _, ct := range n.components {
		row, ok := rows.RowIndexFor(ct)
		if !ok {
			known = false
			continue
		}
		m.Mark(row)
	}
	return m, known
}

func (n *compositeNode) Evaluate(archetype Archetype, rows RowIndexer) bool {
	nodeMask, known := n.nodeMask(rows)
	archeMask := archetype.Mask()

	switch n.op {
	case OpAnd:
		if !known || !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype, rows) {
				return false
			}
		}
		return true

	case OpOr:
		if archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, rows) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(archetype, rows) {
				return false
			}
		}
		// ContainsNone is false for an empty mask.
		return nodeMask.IsEmpty() || archeMask.ContainsNone(nodeMask)
	}
	return false
}

func (f *filter) And(items ...any) QueryNode {
	return f.node(OpAnd, items)
}

func (f *filter) Or(items ...any) QueryNode {
	return f.node(OpOr, items)
}

func (f *filter) Not(items ...any) QueryNode {
	return f.node(OpNot, items)
}

func (f *filter) node(op Operation, items []any) QueryNode {
	components, children := processItems(items...)
	node := newCompositeNode(op, components, children)
	f.root = node
	return node
}

func processItems(items ...any) ([]ComponentType, []QueryNode) {
	components := make([]ComponentType, 0, len(items))
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case ComponentType:
			components = append(components, v)
		case []ComponentType:
			components = append(components, v...)
		case QueryNode:
			children = append(children, v)
		}
	}
	return components, children
}

// Evaluate applies the most recently built node. Nested nodes are built
// before the node wrapping them, so this is the outermost expression.
func (f *filter) Evaluate(archetype Archetype, rows RowIndexer) bool {
	if f.root == nil {
		return false
	}
	return f.root.Evaluate(archetype, rows)
}

func evaluateAll(nodes []QueryNode, archetype Archetype, rows RowIndexer) bool {
	for _, node := range nodes {
		if !node.Evaluate(archetype, rows) {
			return false
		}
	}
	return true
}

var _ iQuery = &Query[struct{}]{}

// Query is a snapshot, taken at construction, of the entities carrying a T.
// Entities that gain a T later are not seen; entities that lose it are
// skipped when iterated.
type Query[T any] struct {
	store    Store
	ctype    ComponentType
	entities []Entity
}

// QueryOf snapshots every entity in s carrying a T whose archetype also
// satisfies all filters.
func QueryOf[T any](s Store, filters ...QueryNode) *Query[T] {
	ct := ComponentOf[T]()
	return &Query[T]{
		store:    s,
		ctype:    ct,
		entities: s.storage().matching(ct, filters),
	}
}

func (q *Query[T]) Len() int {
	return len(q.entities)
}

// Entities yields the snapshot as taken.
func (q *Query[T]) Entities() iter.Seq[Entity] {
	return slices.Values(q.entities)
}

// Contains is a linear scan of the snapshot.
func (q *Query[T]) Contains(e Entity) bool {
	return slices.Contains(q.entities, e)
}

func (q *Query[T]) Get(e Entity) (*ReadHandle[T], bool) {
	if !q.Contains(e) {
		return nil, false
	}
	return GetComponent[T](q.store, e)
}

func (q *Query[T]) GetMut(e Entity) (*WriteHandle[T], bool) {
	if !q.Contains(e) {
		return nil, false
	}
	return GetComponentMut[T](q.store, e)
}

// Iter yields a read handle per snapshotted entity that still carries a T.
// Each handle is released when the loop body returns.
func (q *Query[T]) Iter() iter.Seq2[Entity, *ReadHandle[T]] {
	return func(yield func(Entity, *ReadHandle[T]) bool) {
		for _, e := range q.entities {
			h, ok := GetComponent[T](q.store, e)
			if !ok {
				continue
			}
			more := yield(e, h)
			h.Release()
			if !more {
				return
			}
		}
	}
}

// IterMut is Iter with write handles.
func (q *Query[T]) IterMut() iter.Seq2[Entity, *WriteHandle[T]] {
	return func(yield func(Entity, *WriteHandle[T]) bool) {
		for _, e := range q.entities {
			h, ok := GetComponentMut[T](q.store, e)
			if !ok {
				continue
			}
			more := yield(e, h)
			h.Release()
			if !more {
				return
			}
		}
	}
}
