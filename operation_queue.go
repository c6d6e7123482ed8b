package depot

import (
	"errors"

	"go.uber.org/zap"
)

type operationType int

const (
	opCreate operationType = iota
	opDestroy
	opInsertComponent
	opRemoveComponent
	opSkip
)

type operation struct {
	typ      operationType
	amount   int
	onCreate func(Entity)
	entities []Entity
	data     Data
	ctype    ComponentType
}

type opKey struct {
	entity Entity
	ctype  ComponentType
}

// opQueue holds commands issued while a World is locked. Component commands
// on the same entity and type collapse into the latest one.
type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
	pendingMods    map[opKey]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
		pendingMods:    make(map[opKey]int),
	}
}

func (q *opQueue) empty() bool {
	return len(q.createOps) == 0 &&
		len(q.componentOps) == 0 &&
		len(q.destroyOps) == 0
}

func (q *opQueue) enqueueCreate(n int, fn func(Entity)) {
	q.createOps = append(q.createOps, operation{typ: opCreate, amount: n, onCreate: fn})
}

func (q *opQueue) enqueueComponentOp(op operation) {
	e := op.entities[0]
	if _, destroyed := q.pendingDestroy[e]; destroyed {
		return
	}
	key := opKey{entity: e, ctype: op.ctype}
	if idx, ok := q.pendingMods[key]; ok {
		q.componentOps[idx] = op
		return
	}
	q.pendingMods[key] = len(q.componentOps)
	q.componentOps = append(q.componentOps, op)
}

func (q *opQueue) enqueueDestroy(entities []Entity) {
	var fresh []Entity
	for _, e := range entities {
		if _, ok := q.pendingDestroy[e]; ok {
			continue
		}
		q.pendingDestroy[e] = struct{}{}
		fresh = append(fresh, e)

		for key, idx := range q.pendingMods {
			if key.entity == e {
				q.componentOps[idx].typ = opSkip
				delete(q.pendingMods, key)
			}
		}
	}
	if len(fresh) > 0 {
		q.destroyOps = append(q.destroyOps, operation{typ: opDestroy, entities: fresh})
	}
}

// Lock starts deferring Enqueue* commands. Locks nest; the commands run when
// the outermost lock is released. Direct calls such as InsertComponent or
// DestroyEntity are not deferred.
func (w *World) Lock() {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	w.locks++
}

// Unlock releases one Lock. Releasing the last one flushes the queued
// commands: creates first, then component commands, then destroys.
func (w *World) Unlock() error {
	w.queueMu.Lock()
	if w.locks == 0 {
		w.queueMu.Unlock()
		return WorldNotLockedError{}
	}
	w.locks--
	if w.locks > 0 {
		w.queueMu.Unlock()
		return nil
	}
	queue := w.queue
	w.queue = newOpQueue()
	w.queueMu.Unlock()

	return w.flush(&queue)
}

func (w *World) Locked() bool {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	return w.locks > 0
}

// deferred runs fn with the queue lock held and reports true when the world
// is locked. When it is not, fn is not called.
func (w *World) deferred(fn func(q *opQueue)) bool {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if w.locks == 0 {
		return false
	}
	fn(&w.queue)
	return true
}

// EnqueueInsert inserts value on e, or queues the insert while w is locked.
func EnqueueInsert[T any](w *World, e Entity, value T) error {
	if !w.Alive(e) {
		return EntityNotAliveError{Entity: e}
	}
	d := NewData(value)
	queued := w.deferred(func(q *opQueue) {
		q.enqueueComponentOp(operation{
			typ:      opInsertComponent,
			entities: []Entity{e},
			data:     d,
			ctype:    d.Type(),
		})
	})
	if queued {
		return nil
	}
	return InsertComponent(w, e, value)
}

// EnqueueRemove removes e's T, or queues the removal while w is locked.
// Removing a T that e does not carry is a no-op.
func EnqueueRemove[T any](w *World, e Entity) error {
	if !w.Alive(e) {
		return EntityNotAliveError{Entity: e}
	}
	ct := ComponentOf[T]()
	queued := w.deferred(func(q *opQueue) {
		q.enqueueComponentOp(operation{
			typ:      opRemoveComponent,
			entities: []Entity{e},
			ctype:    ct,
		})
	})
	if !queued {
		w.sto.Remove(e, ct)
	}
	return nil
}

// EnqueueDestroy destroys the given entities, or queues them while w is
// locked. Queued component commands for those entities are dropped.
func (w *World) EnqueueDestroy(entities ...Entity) error {
	var errs []error
	live := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if !w.Alive(e) {
			errs = append(errs, EntityNotAliveError{Entity: e})
			continue
		}
		live = append(live, e)
	}

	queued := w.deferred(func(q *opQueue) {
		q.enqueueDestroy(live)
	})
	if !queued {
		for _, e := range live {
			errs = append(errs, w.DestroyEntity(e))
		}
	}
	return errors.Join(errs...)
}

// EnqueueCreate creates n entities, or queues their creation while w is
// locked. fn, if not nil, is called with each new entity once it exists.
func (w *World) EnqueueCreate(n int, fn func(Entity)) {
	if n <= 0 {
		return
	}
	queued := w.deferred(func(q *opQueue) {
		q.enqueueCreate(n, fn)
	})
	if !queued {
		w.create(n, fn)
	}
}

func (w *World) create(n int, fn func(Entity)) {
	for range n {
		e := w.CreateEntity()
		if fn != nil {
			fn(e)
		}
	}
}

func (w *World) flush(q *opQueue) error {
	if q.empty() {
		return nil
	}
	var (
		errs    []error
		created int
		applied int
		skipped int
	)

	for _, op := range q.createOps {
		w.create(op.amount, op.onCreate)
		created += op.amount
	}

	for _, op := range q.componentOps {
		if op.typ == opSkip {
			continue
		}
		e := op.entities[0]
		if !w.Alive(e) {
			skipped++
			w.logger.Warn("queued command skipped",
				zap.Stringer("entity", e),
				zap.Stringer("component", op.ctype),
			)
			continue
		}
		switch op.typ {
		case opInsertComponent:
			if err := w.sto.Insert(e, op.data); err != nil {
				errs = append(errs, err)
				continue
			}
		case opRemoveComponent:
			w.sto.Remove(e, op.ctype)
		}
		applied++
	}

	destroyed := 0
	for _, op := range q.destroyOps {
		for _, e := range op.entities {
			if err := w.DestroyEntity(e); err != nil {
				errs = append(errs, err)
				continue
			}
			destroyed++
		}
	}

	w.logger.Debug("commands flushed",
		zap.Int("created", created),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("destroyed", destroyed),
	)
	return errors.Join(errs...)
}
