package depot

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	"go.uber.org/zap"
)

var _ Store = &Storage{}

// Storage owns every archetype and knows which archetype each entity lives
// in. Structural changes take the storage lock exclusively; component reads
// and writes only hold it long enough to find the column and then lock that
// column alone.
type Storage struct {
	mu               sync.RWMutex
	schema           table.Schema
	rows             map[ComponentType]uint32
	nextArchetypeID  archetypeID
	archetypes       map[archetypeID]*archetype
	idsGroupedByMask map[mask.Mask]archetypeID
	entityArchetype  map[Entity]archetypeID
	indexOwner       map[uint32]Entity
	capacity         int
	logger           *zap.Logger
}

func newStorage(schema table.Schema, logger *zap.Logger) *Storage {
	return &Storage{
		schema:           schema,
		rows:             make(map[ComponentType]uint32),
		archetypes:       make(map[archetypeID]*archetype),
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
		entityArchetype:  make(map[Entity]archetypeID, Config.initialCapacity),
		indexOwner:       make(map[uint32]Entity, Config.initialCapacity),
		capacity:         Config.initialCapacity,
		logger:           logger,
	}
}

func (sto *Storage) storage() *Storage {
	return sto
}

// register assigns ct a schema row. Callers hold the write lock. Rows at or
// past mask.MaxBits cannot be marked on an archetype mask and are refused.
func (sto *Storage) register(ct ComponentType) (uint32, error) {
	if row, ok := sto.rows[ct]; ok {
		return row, nil
	}
	elem := ct.Element()
	if !sto.schema.Contains(elem) {
		if sto.schema.Registered() >= mask.MaxBits {
			return 0, ComponentLimitError{Type: ct, Limit: mask.MaxBits}
		}
		sto.schema.Register(elem)
	}
	row := sto.schema.RowIndexFor(elem)
	if row >= mask.MaxBits {
		return 0, ComponentLimitError{Type: ct, Limit: mask.MaxBits}
	}
	sto.rows[ct] = row
	return row, nil
}

// RowIndexFor returns the schema row of ct, or false if this storage has never
// held a ct.
func (sto *Storage) RowIndexFor(ct ComponentType) (uint32, bool) {
	sto.mu.RLock()
	defer sto.mu.RUnlock()
	row, ok := sto.rows[ct]
	return row, ok
}

// Insert attaches d to e, replacing any value of the same type. When the type
// is new to e, e's whole row moves to the archetype matching its new
// composition.
//
// Rows are keyed by entity index. Storage refuses an entity whose index is
// held by another generation; World only issues one live generation per
// index, so this only happens when a Storage is driven directly.
func (sto *Storage) Insert(e Entity, d Data) error {
	if !d.ctype.Valid() {
		panic("depot: insert of zero Data")
	}
	sto.mu.Lock()
	defer sto.mu.Unlock()

	if owner, ok := sto.indexOwner[e.index]; ok && owner != e {
		return IndexInUseError{Entity: e, Owner: owner}
	}

	oldID, tracked := sto.entityArchetype[e]
	var origin *archetype
	if tracked {
		origin = sto.archetypes[oldID]
		if idx := origin.columnIndex(d.ctype); idx >= 0 {
			col := origin.columns[idx]
			col.mu.Lock()
			col.set.insert(e.index, d)
			col.mu.Unlock()
			return nil
		}
	}

	row, err := sto.register(d.ctype)
	if err != nil {
		return err
	}

	var (
		data     []Data
		destMask mask.Mask
	)
	if tracked {
		data = origin.removeRow(e.index)
		destMask = origin.mask
	}
	data = append(data, d)
	destMask.Mark(row)

	dest := sto.archetypeFor(destMask, data)
	dest.insertRow(e.index, data)
	sto.entityArchetype[e] = dest.id
	sto.indexOwner[e.index] = e

	if tracked {
		sto.dropIfEmpty(origin)
	}
	return nil
}

// Remove detaches the component of type ct from e and returns it. e's other
// components move to the archetype matching the reduced composition; an
// entity left with no components is no longer tracked.
func (sto *Storage) Remove(e Entity, ct ComponentType) (Data, bool) {
	sto.mu.Lock()
	defer sto.mu.Unlock()

	id, ok := sto.entityArchetype[e]
	if !ok {
		return Data{}, false
	}
	origin := sto.archetypes[id]
	if !origin.hasType(ct) {
		return Data{}, false
	}

	var (
		removed Data
		found   bool
	)
	rest := make([]Data, 0, len(origin.columns)-1)
	for _, d := range origin.removeRow(e.index) {
		if d.Is(ct) {
			removed, found = d, true
			continue
		}
		rest = append(rest, d)
	}
	delete(sto.entityArchetype, e)
	delete(sto.indexOwner, e.index)

	if len(rest) > 0 {
		destMask := origin.mask
		destMask.Unmark(sto.rows[ct])
		dest := sto.archetypeFor(destMask, rest)
		dest.insertRow(e.index, rest)
		sto.entityArchetype[e] = dest.id
		sto.indexOwner[e.index] = e
	}
	sto.dropIfEmpty(origin)

	return removed, found
}

// RemoveEntity takes every component of e out of storage.
func (sto *Storage) RemoveEntity(e Entity) ([]Data, bool) {
	sto.mu.Lock()
	defer sto.mu.Unlock()

	id, ok := sto.entityArchetype[e]
	if !ok {
		return nil, false
	}
	origin := sto.archetypes[id]
	data := origin.removeRow(e.index)
	delete(sto.entityArchetype, e)
	delete(sto.indexOwner, e.index)
	sto.dropIfEmpty(origin)
	return data, true
}

// Has reports whether e currently carries a component of type ct.
func (sto *Storage) Has(e Entity, ct ComponentType) bool {
	sto.mu.RLock()
	defer sto.mu.RUnlock()

	id, ok := sto.entityArchetype[e]
	if !ok {
		return false
	}
	return sto.archetypes[id].hasType(ct)
}

// Components lists the component types e carries.
func (sto *Storage) Components(e Entity) []ComponentType {
	sto.mu.RLock()
	defer sto.mu.RUnlock()

	id, ok := sto.entityArchetype[e]
	if !ok {
		return nil
	}
	return sto.archetypes[id].Components()
}

// Contains reports whether e is tracked, i.e. has at least one component.
func (sto *Storage) Contains(e Entity) bool {
	sto.mu.RLock()
	defer sto.mu.RUnlock()
	_, ok := sto.entityArchetype[e]
	return ok
}

// Len is the number of tracked entities.
func (sto *Storage) Len() int {
	sto.mu.RLock()
	defer sto.mu.RUnlock()
	return len(sto.entityArchetype)
}

// Entities yields a snapshot of the tracked entities ordered by index.
func (sto *Storage) Entities() iter.Seq[Entity] {
	sto.mu.RLock()
	entities := slices.SortedFunc(maps.Keys(sto.entityArchetype), Entity.Compare)
	sto.mu.RUnlock()
	return slices.Values(entities)
}

// ArchetypeOf returns the id of the archetype holding e.
func (sto *Storage) ArchetypeOf(e Entity) (uint32, bool) {
	sto.mu.RLock()
	defer sto.mu.RUnlock()
	id, ok := sto.entityArchetype[e]
	return uint32(id), ok
}

// Archetypes describes every live archetype, ordered by id.
func (sto *Storage) Archetypes() []ArchetypeInfo {
	sto.mu.RLock()
	defer sto.mu.RUnlock()

	infos := make([]ArchetypeInfo, 0, len(sto.archetypes))
	for _, arch := range sto.archetypes {
		infos = append(infos, arch.info())
	}
	slices.SortFunc(infos, func(a, b ArchetypeInfo) int { return cmp.Compare(a.ID, b.ID) })
	return infos
}

// Clear drops every archetype and entity mapping.
func (sto *Storage) Clear() {
	sto.mu.Lock()
	defer sto.mu.Unlock()

	for _, arch := range sto.archetypes {
		arch.clear()
	}
	clear(sto.archetypes)
	clear(sto.idsGroupedByMask)
	clear(sto.entityArchetype)
	clear(sto.indexOwner)
}

// archetypeFor finds the archetype whose exact type set matches data, creating
// it when none exists. Callers hold the write lock.
func (sto *Storage) archetypeFor(m mask.Mask, data []Data) *archetype {
	types := make([]ComponentType, len(data))
	for i, d := range data {
		types[i] = d.ctype
	}

	if id, ok := sto.idsGroupedByMask[m]; ok {
		arch := sto.archetypes[id]
		if !arch.exclusivelyContains(types) {
			panic(fmt.Sprintf("depot: archetype %d mask does not match types %v", id, types))
		}
		return arch
	}

	id := sto.nextArchetypeID
	sto.nextArchetypeID++
	arch := newArchetype(id, m, sto.capacity, types...)
	sto.archetypes[id] = arch
	sto.idsGroupedByMask[m] = id

	sto.logger.Debug("archetype created",
		zap.Uint32("archetype", uint32(id)),
		zap.Uint64("signature", arch.signature),
		zap.Stringers("components", types),
	)
	return arch
}

func (sto *Storage) dropIfEmpty(arch *archetype) {
	if !arch.isEmpty() {
		return
	}
	delete(sto.archetypes, arch.id)
	delete(sto.idsGroupedByMask, arch.mask)
	sto.logger.Debug("archetype dropped", zap.Uint32("archetype", uint32(arch.id)))
}

// acquire locks the column holding e's ct and returns the value inside it.
// The storage lock is released before the column lock is taken, so the
// column version is checked to detect a row that moved in between.
func (sto *Storage) acquire(e Entity, ct ComponentType, write bool) (*column, *Data, bool) {
	for {
		col, version, ok := sto.resolve(e, ct)
		if !ok {
			return nil, nil, false
		}
		if write {
			col.mu.Lock()
		} else {
			col.mu.RLock()
		}
		moved := col.version.Load() != version
		if !moved {
			if d, ok := col.set.get(e.index); ok {
				return col, d, true
			}
		}
		if write {
			col.mu.Unlock()
		} else {
			col.mu.RUnlock()
		}
		if !moved {
			return nil, nil, false
		}
	}
}

func (sto *Storage) resolve(e Entity, ct ComponentType) (*column, uint64, bool) {
	sto.mu.RLock()
	defer sto.mu.RUnlock()

	id, ok := sto.entityArchetype[e]
	if !ok {
		return nil, 0, false
	}
	arch := sto.archetypes[id]
	idx := arch.columnIndex(ct)
	if idx < 0 {
		return nil, 0, false
	}
	col := arch.columns[idx]
	return col, col.version.Load(), true
}

// matching snapshots the entities carrying ct whose archetype satisfies every
// filter.
func (sto *Storage) matching(ct ComponentType, filters []QueryNode) []Entity {
	sto.mu.RLock()
	defer sto.mu.RUnlock()

	if _, ok := sto.rows[ct]; !ok {
		return nil
	}
	matched := make(map[archetypeID]struct{})
	for id, arch := range sto.archetypes {
		if !arch.hasType(ct) {
			continue
		}
		if !evaluateAll(filters, arch, rowIndexer{sto}) {
			continue
		}
		matched[id] = struct{}{}
	}

	var entities []Entity
	for e, id := range sto.entityArchetype {
		if _, ok := matched[id]; ok {
			entities = append(entities, e)
		}
	}
	slices.SortFunc(entities, Entity.Compare)
	return entities
}

// rowIndexer reads schema rows without locking; it is only handed out while
// the storage lock is held.
type rowIndexer struct {
	sto *Storage
}

func (r rowIndexer) RowIndexFor(ct ComponentType) (uint32, bool) {
	row, ok := r.sto.rows[ct]
	return row, ok
}
