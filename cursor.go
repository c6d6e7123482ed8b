package depot

var _ iCursor = &Cursor[struct{}]{}

// Cursor steps through a query snapshot one entity at a time, skipping
// entities that no longer carry the queried component.
type Cursor[T any] struct {
	query    *Query[T]
	position int
	current  Entity
}

func (q *Query[T]) Cursor() *Cursor[T] {
	return &Cursor[T]{query: q}
}

func (c *Cursor[T]) Next() bool {
	sto := c.query.store.storage()
	for c.position < len(c.query.entities) {
		e := c.query.entities[c.position]
		c.position++
		if sto.Has(e, c.query.ctype) {
			c.current = e
			return true
		}
	}
	c.current = Entity{}
	return false
}

func (c *Cursor[T]) Entity() Entity {
	return c.current
}

func (c *Cursor[T]) Read() (*ReadHandle[T], bool) {
	return GetComponent[T](c.query.store, c.current)
}

func (c *Cursor[T]) Write() (*WriteHandle[T], bool) {
	return GetComponentMut[T](c.query.store, c.current)
}

// Remaining counts snapshot entries not yet visited, including any that will
// be skipped.
func (c *Cursor[T]) Remaining() int {
	return len(c.query.entities) - c.position
}

func (c *Cursor[T]) Reset() {
	c.position = 0
	c.current = Entity{}
}
