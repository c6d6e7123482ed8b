package depot

import (
	"iter"
	"slices"
)

const absent = -1

// sparseSet stores one component column. dense holds the values contiguously,
// sparse maps a raw entity index to its dense position and indices maps a
// dense position back to the raw index.
type sparseSet struct {
	dense   []Data
	sparse  []int
	indices []uint32
}

func newSparseSet(capacity int) sparseSet {
	return sparseSet{
		dense:   make([]Data, 0, capacity),
		indices: make([]uint32, 0, capacity),
	}
}

func (s *sparseSet) denseIndexOf(id uint32) (int, bool) {
	if int(id) >= len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[id]
	return idx, idx != absent
}

// insert stores d under id, replacing any value already there.
func (s *sparseSet) insert(id uint32, d Data) {
	if idx, ok := s.denseIndexOf(id); ok {
		s.dense[idx] = d
		return
	}
	if n := len(s.sparse); int(id) >= n {
		s.sparse = slices.Grow(s.sparse, int(id)+1-n)[:id+1]
		for i := n; i < len(s.sparse); i++ {
			s.sparse[i] = absent
		}
	}
	s.sparse[id] = len(s.dense)
	s.dense = append(s.dense, d)
	s.indices = append(s.indices, id)
}

// remove swaps the last element into the hole left by id.
func (s *sparseSet) remove(id uint32) (Data, bool) {
	idx, ok := s.denseIndexOf(id)
	if !ok {
		return Data{}, false
	}
	value := s.dense[idx]
	last := len(s.dense) - 1

	if idx != last {
		s.dense[idx] = s.dense[last]
		s.indices[idx] = s.indices[last]
		s.sparse[s.indices[idx]] = idx
	}
	s.dense[last] = Data{}
	s.dense = s.dense[:last]
	s.indices = s.indices[:last]
	s.sparse[id] = absent

	return value, true
}

// get returns a pointer into dense. It is only valid until the next insert or
// remove on the set.
func (s *sparseSet) get(id uint32) (*Data, bool) {
	idx, ok := s.denseIndexOf(id)
	if !ok {
		return nil, false
	}
	return &s.dense[idx], true
}

func (s *sparseSet) contains(id uint32) bool {
	_, ok := s.denseIndexOf(id)
	return ok
}

func (s *sparseSet) len() int {
	return len(s.dense)
}

func (s *sparseSet) isEmpty() bool {
	return len(s.dense) == 0
}

func (s *sparseSet) clear() {
	clear(s.dense)
	s.dense = s.dense[:0]
	s.sparse = s.sparse[:0]
	s.indices = s.indices[:0]
}

// all yields raw index and value in dense order. Order changes whenever a
// removal swaps elements.
func (s *sparseSet) all() iter.Seq2[uint32, *Data] {
	return func(yield func(uint32, *Data) bool) {
		for i := range s.dense {
			if !yield(s.indices[i], &s.dense[i]) {
				return
			}
		}
	}
}
