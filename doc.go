/*
Package depot is an in-process entity/component store.

Entities are lightweight (index, generation) identifiers issued by a World.
Components are plain Go values attached to entities. Entities sharing the
exact same set of component types live together in one archetype, and every
component type in an archetype is stored in its own sparse set column.
Adding or removing a component type migrates the entity's whole row to the
archetype matching its new composition.

Each column carries its own reader/writer lock. A read handle on one
component type never blocks access to another, and structural changes only
hold the storage lock while rows move.

Core Concepts:

  - Entity: an index plus a generation; recycled indices get a new generation.
  - Data: one type-erased component value.
  - Archetype: all entities with exactly the same component types.
  - Storage: owns the archetypes and migrates entities between them.
  - World: allocates entities and forwards component operations to Storage.
  - Query: a snapshot of the entities holding a component type.

Basic Usage:

	world := depot.Factory.NewWorld()

	e := world.CreateEntity()
	depot.InsertComponent(world, e, Position{X: 1, Y: 2})
	depot.InsertComponent(world, e, Velocity{X: 5, Y: 6})

	query := depot.QueryOf[Position](world)
	for e, pos := range query.IterMut() {
		vel, _ := depot.ReadComponent[Velocity](world, e)
		pos.Get().X += vel.X
	}

Filters narrow a query to archetypes matching a composite predicate:

	filter := depot.Factory.NewFilter()
	moving := filter.And(depot.ComponentOf[Velocity]())
	query := depot.QueryOf[Position](world, moving)

While a World is locked, the Enqueue* functions queue their commands and the
final Unlock applies them in order: creates, component changes, destroys.
Locking only defers Enqueue* calls. CreateEntity, DestroyEntity,
InsertComponent and RemoveComponent still apply immediately on a locked world.

Component types are tracked on a fixed-width mask.Mask, so one Storage holds at
most mask.MaxBits distinct component types (64 with the default build).
Inserting one more returns a ComponentLimitError and leaves the entity as it
was.
*/
package depot
