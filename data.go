package depot

import (
	"fmt"
	"reflect"
)

// Data is a type-erased component value. The payload is always a *T for the
// T named by Type, so the value can be updated in place and survives being
// moved between archetype columns.
type Data struct {
	ctype   ComponentType
	payload any
}

// NewData boxes value together with its component type.
func NewData[T any](value T) Data {
	return Data{
		ctype:   ComponentOf[T](),
		payload: &value,
	}
}

func (d Data) Type() ComponentType {
	return d.ctype
}

func (d Data) TypeName() string {
	return d.ctype.Name()
}

func (d Data) Key() uint64 {
	return d.ctype.Key()
}

// Is reports whether d holds a value of the given component type.
func (d Data) Is(ct ComponentType) bool {
	return d.ctype.Valid() && d.ctype == ct
}

// Payload returns the boxed pointer.
func (d Data) Payload() any {
	return d.payload
}

func (d Data) String() string {
	return fmt.Sprintf("Data(%s)", d.TypeName())
}

// DataAs downcasts d to T. It returns false when d does not hold a T.
func DataAs[T any](d Data) (*T, bool) {
	if !d.ctype.Valid() || d.ctype.info.typ != reflect.TypeFor[T]() {
		return nil, false
	}
	ptr, ok := d.payload.(*T)
	if !ok {
		panic(fmt.Sprintf("depot: payload %T recorded as component %s", d.payload, d.ctype.Name()))
	}
	return ptr, true
}
