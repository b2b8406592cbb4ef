package senses

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/core/event"
)

// Registry tracks the generic objects agents may see under SeenMisc.
// Removal leaves a tombstone so cursors held across a removal stay valid;
// Compact reclaims tombstones and must only run between ticks.
type Registry struct {
	world   World
	entries []ecs.EntityID
	index   map[ecs.EntityID]int
	dead    int
	live    bool
	hooked  bool // bus handlers installed
	log     *zap.Logger
}

// RegistryIter is a cursor into the Registry. The zero value is unstarted.
type RegistryIter struct {
	next int
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		index: make(map[ecs.EntityID]int),
		log:   log,
	}
}

// Init seeds the registry with every eligible object already in w and, if
// bus is non-nil, subscribes to spawn and delete notifications. Init on a
// live registry does nothing; after Term it reseeds but subscribes only once.
func (r *Registry) Init(w World, bus *event.Bus) {
	if r.live {
		r.log.Warn("sensed object registry already initialised")
		return
	}
	r.world = w
	r.live = true
	w.Each(KindObject, r3.Vec{}, -1, func(id ecs.EntityID) bool {
		r.OnEntitySpawned(id)
		return true
	})
	if bus != nil && !r.hooked {
		r.hooked = true
		event.Subscribe(bus, func(e event.EntitySpawned) { r.OnEntitySpawned(e.ID) })
		event.Subscribe(bus, func(e event.EntityDeleted) { r.OnEntityDeleted(e.ID) })
	}
	r.log.Info("sensed object registry ready", zap.Int("objects", r.Len()))
}

// Term drops all entries. Notifications that arrive afterwards are ignored.
func (r *Registry) Term() {
	r.live = false
	r.entries = nil
	clear(r.index)
	r.dead = 0
}

// AddEntity registers id unconditionally, provided it is not a player or NPC.
// It is ignored outside Init..Term.
func (r *Registry) AddEntity(id ecs.EntityID) {
	if !r.live || r.world == nil {
		return
	}
	b, ok := r.world.Body(id)
	if !ok {
		return
	}
	if b.Kind == KindPlayer || b.Kind == KindNPC {
		r.log.Warn("refusing to register character as sensed object",
			zap.Stringer("entity", id),
			zap.Stringer("kind", b.Kind),
		)
		return
	}
	r.add(id)
}

// OnEntitySpawned registers id if it is an eligible object.
func (r *Registry) OnEntitySpawned(id ecs.EntityID) {
	if !r.live {
		return
	}
	b, ok := r.world.Body(id)
	if !ok || b.Kind != KindObject || !b.Has(FlagSensed) {
		return
	}
	r.add(id)
}

// OnEntityDeleted tombstones id if present. The id may already be stale.
func (r *Registry) OnEntityDeleted(id ecs.EntityID) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.entries[i] = ecs.NoEntity
	delete(r.index, id)
	r.dead++
}

func (r *Registry) add(id ecs.EntityID) {
	if _, dup := r.index[id]; dup {
		return
	}
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, id)
}

// First resets it and returns the first live object, or NoEntity.
func (r *Registry) First(it *RegistryIter) ecs.EntityID {
	it.next = 0
	return r.Next(it)
}

// Next returns the next live object after it, or NoEntity when exhausted.
func (r *Registry) Next(it *RegistryIter) ecs.EntityID {
	for it.next < len(r.entries) {
		id := r.entries[it.next]
		it.next++
		if id.IsZero() {
			continue
		}
		if r.world != nil && !r.world.Alive(id) {
			continue
		}
		return id
	}
	return ecs.NoEntity
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ecs.EntityID) bool {
	_, ok := r.index[id]
	return ok
}

// Compact removes tombstones. Outstanding iterators are invalidated.
func (r *Registry) Compact() int {
	if r.dead == 0 {
		return 0
	}
	removed := r.dead
	kept := r.entries[:0]
	for _, id := range r.entries {
		if id.IsZero() {
			continue
		}
		r.index[id] = len(kept)
		kept = append(kept, id)
	}
	clear(r.entries[len(kept):])
	r.entries = kept
	r.dead = 0
	return removed
}

// Len is the number of registered objects, tombstones excluded.
func (r *Registry) Len() int { return len(r.index) }
