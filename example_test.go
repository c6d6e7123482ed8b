package depot_test

import (
	"fmt"

	"github.com/TheBitDrifter/depot"
)

// Position is a simple component for 2D coordinates
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement
type Velocity struct {
	X float64
	Y float64
}

// Name is a simple component for entity identification
type Name struct {
	Value string
}

// Example shows basic depot usage with entity creation and queries
func Example_basic() {
	world := depot.Factory.NewWorld()

	// Five stationary entities
	for range 5 {
		depot.InsertComponent(world, world.CreateEntity(), Position{})
	}

	// Three moving entities
	for range 3 {
		e := world.CreateEntity()
		depot.InsertComponent(world, e, Position{})
		depot.InsertComponent(world, e, Velocity{X: 1, Y: 1})
	}

	// One named player
	player := world.CreateEntity()
	depot.InsertComponent(world, player, Position{X: 10, Y: 20})
	depot.InsertComponent(world, player, Velocity{X: 1, Y: 2})
	depot.InsertComponent(world, player, Name{Value: "Player"})

	// Move everything that has a velocity
	filter := depot.Factory.NewFilter()
	filter.And(depot.ComponentOf[Velocity]())
	moving := depot.QueryOf[Position](world, filter)

	for e, pos := range moving.IterMut() {
		vel, _ := depot.ReadComponent[Velocity](world, e)
		pos.Get().X += vel.X
		pos.Get().Y += vel.Y
	}

	fmt.Printf("Entities with position: %d\n", depot.QueryOf[Position](world).Len())
	fmt.Printf("Moving entities: %d\n", moving.Len())

	name, _ := depot.ReadComponent[Name](world, player)
	pos, _ := depot.ReadComponent[Position](world, player)
	fmt.Printf("%s at (%.1f, %.1f)\n", name.Value, pos.X, pos.Y)

	fmt.Printf("Archetypes: %d\n", len(world.Storage().Archetypes()))

	// Output:
	// Entities with position: 9
	// Moving entities: 4
	// Player at (11.0, 22.0)
	// Archetypes: 3
}

// Example_deferred shows queuing structural changes while a world is locked
func Example_deferred() {
	world := depot.Factory.NewWorld()
	for range 3 {
		depot.InsertComponent(world, world.CreateEntity(), Name{Value: "spawned"})
	}

	world.Lock()
	for e := range depot.QueryOf[Name](world).Entities() {
		world.EnqueueDestroy(e)
	}
	world.EnqueueCreate(1, func(e depot.Entity) {
		depot.InsertComponent(world, e, Name{Value: "replacement"})
	})
	fmt.Println("Live while locked:", world.Len())

	world.Unlock()
	fmt.Println("Live after unlock:", world.Len())

	for _, name := range depot.QueryOf[Name](world).Iter() {
		fmt.Println(name.Get().Value)
	}

	// Output:
	// Live while locked: 3
	// Live after unlock: 1
	// replacement
}
