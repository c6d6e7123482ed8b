package depot

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"
	"github.com/cespare/xxhash/v2"
)

// Component is the element type a storage schema assigns row indices to.
type Component interface {
	table.ElementType
}

type componentInfo struct {
	typ  reflect.Type
	name string
	key  uint64
	elem Component
}

// ComponentType describes one Go type used as a component. Every call to
// ComponentOf with the same type parameter returns an equal ComponentType, so
// values can be compared with == and used as map keys.
type ComponentType struct {
	info *componentInfo
}

var componentTypes = struct {
	sync.RWMutex
	byType map[reflect.Type]*componentInfo
}{byType: make(map[reflect.Type]*componentInfo)}

// ComponentOf returns the descriptor for T, registering it on first use.
func ComponentOf[T any]() ComponentType {
	typ := reflect.TypeFor[T]()

	componentTypes.RLock()
	info, ok := componentTypes.byType[typ]
	componentTypes.RUnlock()
	if ok {
		return ComponentType{info: info}
	}

	componentTypes.Lock()
	defer componentTypes.Unlock()
	if info, ok := componentTypes.byType[typ]; ok {
		return ComponentType{info: info}
	}
	name := qualifiedName(typ)
	info = &componentInfo{
		typ:  typ,
		name: typ.String(),
		key:  xxhash.Sum64String(name),
		elem: table.FactoryNewElementType[T](),
	}
	componentTypes.byType[typ] = info
	return ComponentType{info: info}
}

func qualifiedName(typ reflect.Type) string {
	if typ.Name() != "" && typ.PkgPath() != "" {
		return typ.PkgPath() + "." + typ.Name()
	}
	return typ.String()
}

func (ct ComponentType) Valid() bool {
	return ct.info != nil
}

// Type returns the Go type of the component, or nil for the zero ComponentType.
func (ct ComponentType) Type() reflect.Type {
	if ct.info == nil {
		return nil
	}
	return ct.info.typ
}

// Name is the human readable type name. Diagnostic only.
func (ct ComponentType) Name() string {
	if ct.info == nil {
		return "<invalid>"
	}
	return ct.info.name
}

// Key is a stable 64-bit hash of the fully qualified type name.
func (ct ComponentType) Key() uint64 {
	if ct.info == nil {
		return 0
	}
	return ct.info.key
}

// Element returns the schema element type backing the component.
func (ct ComponentType) Element() Component {
	if ct.info == nil {
		return nil
	}
	return ct.info.elem
}

func (ct ComponentType) String() string {
	return ct.Name()
}
