package ecs

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Commands buffers structural changes that are applied after the events of a
// tick have run. Systems may also mutate the Storage directly; Commands is
// for changes that must not be seen by the remaining units of the tick.
type Commands struct {
	spawns  []spawnCommand
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []func()
	logger  *slog.Logger
}

func newCommands(logger *slog.Logger) *Commands {
	return &Commands{logger: logger}
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues a function to run after the other commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues an entity spawn with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Delete queues an entity removal.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{entity: entity, component: component})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{entity: entity, compType: compType})
}

// Pending returns the number of queued commands.
func (c *Commands) Pending() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies every queued command to storage in the order deletes,
// removals, additions, spawns, deferred functions, then resets the buffer.
// Removals and additions aimed at an entity deleted in the same flush are
// dropped.
func (c *Commands) Flush(storage *Storage) {
	if c.Pending() == 0 {
		return
	}
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}

	deletedEntities := make(map[EntityId]bool, len(c.deletes))

	for _, id := range c.deletes {
		storage.RemoveEntity(id)
		deletedEntities[id] = true
	}

	for _, cmd := range c.removes {
		if deletedEntities[cmd.entity] {
			logger.Debug("dropping component removal for deleted entity",
				"entity", cmd.entity, "component", cmd.compType.String())
			continue
		}
		storage.RemoveComponent(cmd.entity, cmd.compType)
	}

	for _, cmd := range c.adds {
		if deletedEntities[cmd.entity] {
			logger.Debug("dropping component add for deleted entity",
				"entity", cmd.entity, "component", fmt.Sprintf("%T", cmd.component))
			continue
		}
		storage.AddComponent(cmd.entity, cmd.component)
	}

	for _, cmd := range c.spawns {
		storage.Spawn(cmd.components...)
	}

	for _, fn := range c.defers {
		fn()
	}

	logger.Debug("commands flushed",
		"spawns", len(c.spawns),
		"deletes", len(c.deletes),
		"adds", len(c.adds),
		"removes", len(c.removes),
		"defers", len(c.defers))

	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
