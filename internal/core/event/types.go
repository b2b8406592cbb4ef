package event

import (
	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/sound"
)

// EntitySpawned is emitted once an entity's components are attached.
type EntitySpawned struct {
	ID ecs.EntityID
}

// EntityDeleted is emitted when an entity is destroyed. By the time handlers
// run (next tick) the ID no longer resolves.
type EntityDeleted struct {
	ID ecs.EntityID
}

// SoundEmitted asks the sound system to insert a sound into the feed.
type SoundEmitted struct {
	Sound sound.Emit
}

// Forwarder turns ECS world notifications into bus events.
type Forwarder struct {
	bus *Bus
}

func NewForwarder(b *Bus) *Forwarder {
	return &Forwarder{bus: b}
}

func (f *Forwarder) OnEntitySpawned(id ecs.EntityID) {
	Emit(f.bus, EntitySpawned{ID: id})
}

func (f *Forwarder) OnEntityDeleted(id ecs.EntityID) {
	Emit(f.bus, EntityDeleted{ID: id})
}
