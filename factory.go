package depot

import "github.com/TheBitDrifter/table"

type factory struct{}

var Factory factory

func (f factory) NewWorld() *World {
	return newWorld(table.Factory.NewSchema())
}

func (f factory) NewStorage(schema table.Schema) *Storage {
	return newStorage(schema, Config.logger)
}

func (f factory) NewFilter() Filter {
	return newFilter()
}

func FactoryNewComponent[T any]() ComponentType {
	return ComponentOf[T]()
}
