package depot

// ReadHandle holds a read lock on one component column until Release is
// called. Reads of other component types never wait on it.
type ReadHandle[T any] struct {
	col *column
	ptr *T
}

// Get returns a copy of the component value.
func (h *ReadHandle[T]) Get() T {
	if h.col == nil {
		panic("depot: use of released ReadHandle")
	}
	return *h.ptr
}

// Release unlocks the column. Calling it more than once is a no-op.
func (h *ReadHandle[T]) Release() {
	if h.col == nil {
		return
	}
	col := h.col
	h.col, h.ptr = nil, nil
	col.mu.RUnlock()
}

// WriteHandle holds the write lock on one component column until Release is
// called.
type WriteHandle[T any] struct {
	col *column
	ptr *T
}

// Get returns a pointer to the stored value. It must not be retained past
// Release.
func (h *WriteHandle[T]) Get() *T {
	if h.col == nil {
		panic("depot: use of released WriteHandle")
	}
	return h.ptr
}

func (h *WriteHandle[T]) Set(value T) {
	*h.Get() = value
}

func (h *WriteHandle[T]) Release() {
	if h.col == nil {
		return
	}
	col := h.col
	h.col, h.ptr = nil, nil
	col.mu.Unlock()
}

// GetComponent returns a read handle on e's T. The caller must Release it.
func GetComponent[T any](s Store, e Entity) (*ReadHandle[T], bool) {
	col, d, ok := s.storage().acquire(e, ComponentOf[T](), false)
	if !ok {
		return nil, false
	}
	ptr, ok := DataAs[T](*d)
	if !ok {
		col.mu.RUnlock()
		return nil, false
	}
	return &ReadHandle[T]{col: col, ptr: ptr}, true
}

// GetComponentMut returns a write handle on e's T. The caller must Release it.
func GetComponentMut[T any](s Store, e Entity) (*WriteHandle[T], bool) {
	col, d, ok := s.storage().acquire(e, ComponentOf[T](), true)
	if !ok {
		return nil, false
	}
	ptr, ok := DataAs[T](*d)
	if !ok {
		col.mu.Unlock()
		return nil, false
	}
	return &WriteHandle[T]{col: col, ptr: ptr}, true
}

// ReadComponent copies e's T out under a short-lived read lock.
func ReadComponent[T any](s Store, e Entity) (T, bool) {
	h, ok := GetComponent[T](s, e)
	if !ok {
		var zero T
		return zero, false
	}
	defer h.Release()
	return h.Get(), true
}

// UpdateComponent runs fn on e's T while holding the column write lock. fn
// must not call back into the store for the same component type.
func UpdateComponent[T any](s Store, e Entity, fn func(*T)) bool {
	h, ok := GetComponentMut[T](s, e)
	if !ok {
		return false
	}
	defer h.Release()
	fn(h.Get())
	return true
}

func HasComponent[T any](s Store, e Entity) bool {
	return s.storage().Has(e, ComponentOf[T]())
}

// RemoveComponent detaches e's T and returns the removed value.
func RemoveComponent[T any](s Store, e Entity) (T, bool) {
	var zero T
	d, ok := s.storage().Remove(e, ComponentOf[T]())
	if !ok {
		return zero, false
	}
	ptr, ok := DataAs[T](d)
	if !ok {
		return zero, false
	}
	return *ptr, true
}
