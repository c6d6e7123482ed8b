package depot

import "fmt"

type EntityNotAliveError struct {
	Entity Entity
}

func (e EntityNotAliveError) Error() string {
	return fmt.Sprintf("entity %v is not alive", e.Entity)
}

type WorldNotLockedError struct{}

func (e WorldNotLockedError) Error() string {
	return "world is not locked"
}

// ComponentLimitError is returned when a storage already holds as many
// distinct component types as its archetype mask can mark.
type ComponentLimitError struct {
	Type  ComponentType
	Limit int
}

func (e ComponentLimitError) Error() string {
	return fmt.Sprintf("cannot store component %s: storage is limited to %d component types", e.Type, e.Limit)
}

type IndexInUseError struct {
	Entity Entity
	Owner  Entity
}

func (e IndexInUseError) Error() string {
	return fmt.Sprintf("entity %v: index %d is held by %v", e.Entity, e.Entity.Index(), e.Owner)
}
