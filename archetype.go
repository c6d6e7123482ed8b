package depot

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/mask"
)

type archetypeID uint32

// column is one sparse set guarded by its own lock. version is bumped on every
// removal so a reader that resolved the column without holding the storage
// lock can tell whether its row may have moved.
type column struct {
	mu      sync.RWMutex
	version atomic.Uint64
	ctype   ComponentType
	set     sparseSet
}

type archetype struct {
	id        archetypeID
	mask      mask.Mask
	columns   []*column
	types     []ComponentType
	signature uint64
	count     int
	capacity  int
}

// Archetype is the read-only view handed to query filters.
type Archetype interface {
	ID() uint32
	Mask() mask.Mask
	Components() []ComponentType
}

var _ Archetype = &archetype{}

func newArchetype(id archetypeID, m mask.Mask, capacity int, types ...ComponentType) *archetype {
	arch := &archetype{
		id:       id,
		mask:     m,
		capacity: capacity,
	}
	for _, ct := range types {
		arch.addColumn(ct)
	}
	return arch
}

func (a *archetype) ID() uint32 {
	return uint32(a.id)
}

func (a *archetype) Mask() mask.Mask {
	return a.mask
}

func (a *archetype) Components() []ComponentType {
	return slices.Clone(a.types)
}

func (a *archetype) addColumn(ct ComponentType) int {
	a.columns = append(a.columns, &column{ctype: ct, set: newSparseSet(a.capacity)})
	a.types = append(a.types, ct)
	a.signature ^= ct.Key()
	return len(a.columns) - 1
}

// columnIndex is a linear scan; archetypes carry few columns.
func (a *archetype) columnIndex(ct ComponentType) int {
	for i, t := range a.types {
		if t == ct {
			return i
		}
	}
	return -1
}

func (a *archetype) hasType(ct ComponentType) bool {
	return a.columnIndex(ct) >= 0
}

// insert places d in the column for its type, creating the column if needed.
func (a *archetype) insert(id uint32, d Data) {
	idx := a.columnIndex(d.ctype)
	if idx < 0 {
		idx = a.addColumn(d.ctype)
	}
	col := a.columns[idx]
	col.mu.Lock()
	col.set.insert(id, d)
	col.mu.Unlock()
}

func (a *archetype) insertRow(id uint32, row []Data) {
	for _, d := range row {
		a.insert(id, d)
	}
	a.count++
}

// removeRow takes every value stored under id out of the archetype.
func (a *archetype) removeRow(id uint32) []Data {
	row := make([]Data, 0, len(a.columns))
	for _, col := range a.columns {
		col.mu.Lock()
		if d, ok := col.set.remove(id); ok {
			col.version.Add(1)
			row = append(row, d)
		}
		col.mu.Unlock()
	}
	if len(row) > 0 {
		a.count--
	}
	return row
}

func (a *archetype) containsEntity(id uint32) bool {
	for _, col := range a.columns {
		col.mu.RLock()
		ok := col.set.contains(id)
		col.mu.RUnlock()
		if ok {
			return true
		}
	}
	return false
}

// exclusivelyContains reports set equality between the archetype's column
// types and types.
func (a *archetype) exclusivelyContains(types []ComponentType) bool {
	if len(types) != len(a.types) {
		return false
	}
	for _, ct := range types {
		if !a.hasType(ct) {
			return false
		}
	}
	return true
}

func (a *archetype) len() int {
	return a.count
}

func (a *archetype) isEmpty() bool {
	return a.count == 0
}

func (a *archetype) clear() {
	for _, col := range a.columns {
		col.mu.Lock()
		col.set.clear()
		col.version.Add(1)
		col.mu.Unlock()
	}
	a.count = 0
}

// ArchetypeInfo is a point-in-time description of one archetype.
type ArchetypeInfo struct {
	ID         uint32
	Components []string
	Signature  uint64
	Len        int
}

func (a *archetype) info() ArchetypeInfo {
	names := make([]string, len(a.types))
	for i, ct := range a.types {
		names[i] = ct.Name()
	}
	slices.Sort(names)
	return ArchetypeInfo{
		ID:         uint32(a.id),
		Components: names,
		Signature:  a.signature,
		Len:        a.count,
	}
}
