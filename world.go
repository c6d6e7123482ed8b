package depot

import (
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/table"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ Store = &World{}

// World issues entities and routes their component operations to its
// Storage. A *World is meant to be shared; all mutation goes through its
// internal locks.
type World struct {
	id     uuid.UUID
	sto    *Storage
	logger *zap.Logger

	nextIndex atomic.Uint32

	mu          sync.Mutex
	free        []Entity
	dead        map[uint32]struct{}
	generations map[uint32]uint32

	queueMu sync.Mutex
	locks   int
	queue   opQueue
}

func newWorld(schema table.Schema) *World {
	id := uuid.New()
	logger := Config.logger.With(zap.Stringer("world", id))
	return &World{
		id:          id,
		sto:         newStorage(schema, logger),
		logger:      logger,
		dead:        make(map[uint32]struct{}),
		generations: make(map[uint32]uint32),
		queue:       newOpQueue(),
	}
}

func (w *World) storage() *Storage {
	return w.sto
}

func (w *World) ID() uuid.UUID {
	return w.id
}

func (w *World) Storage() *Storage {
	return w.sto
}

// CreateEntity reuses the most recently freed index at the next generation,
// or takes a fresh index at generation 0.
func (w *World) CreateEntity() Entity {
	w.mu.Lock()
	if n := len(w.free); n > 0 {
		freed := w.free[n-1]
		w.free = w.free[:n-1]
		e := NewEntity(freed.index, freed.generation+1)
		w.generations[e.index] = e.generation
		delete(w.dead, e.index)
		w.mu.Unlock()
		return e
	}
	w.mu.Unlock()
	return NewEntity(w.nextIndex.Add(1)-1, 0)
}

// DestroyEntity drops all of e's components and frees its index. The index is
// only handed out again once the components are gone.
func (w *World) DestroyEntity(e Entity) error {
	w.mu.Lock()
	if !w.aliveLocked(e) {
		w.mu.Unlock()
		return EntityNotAliveError{Entity: e}
	}
	w.dead[e.index] = struct{}{}
	w.mu.Unlock()

	data, _ := w.sto.RemoveEntity(e)

	w.mu.Lock()
	w.free = append(w.free, e)
	w.mu.Unlock()

	w.logger.Debug("entity destroyed", zap.Stringer("entity", e), zap.Int("components", len(data)))
	return nil
}

// Alive reports whether e is the current generation of its index and has not
// been destroyed.
func (w *World) Alive(e Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.aliveLocked(e)
}

func (w *World) aliveLocked(e Entity) bool {
	if e.index >= w.nextIndex.Load() {
		return false
	}
	if _, ok := w.dead[e.index]; ok {
		return false
	}
	return w.generations[e.index] == e.generation
}

// Len is the number of live entities.
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int(w.nextIndex.Load()) - len(w.dead)
}

// InsertComponent attaches value to e, overwriting an existing T.
func InsertComponent[T any](w *World, e Entity, value T) error {
	if !w.Alive(e) {
		return EntityNotAliveError{Entity: e}
	}
	return w.sto.Insert(e, NewData(value))
}
