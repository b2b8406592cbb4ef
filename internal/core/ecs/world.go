package ecs

// Removable is implemented by all component stores so the World can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Listener receives spawn and delete notifications. OnEntityDeleted runs
// while the ID is still alive, right before its components are dropped.
type Listener interface {
	OnEntitySpawned(id EntityID)
	OnEntityDeleted(id EntityID)
}

// World is the top-level ECS container. It owns the entity pool, the
// component stores, the listeners, and a deferred destruction queue flushed
// by CleanupSystem at the end of each tick.
// Accessed only from the simulation goroutine, so there are no locks.
type World struct {
	pool         *EntityPool
	stores       []Removable
	listeners    []Listener
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		stores:       make([]Removable, 0, 8),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool { return w.pool }

// Register adds a component store so destroyed entities are removed from it.
func (w *World) Register(store Removable) {
	w.stores = append(w.stores, store)
}

// AddListener subscribes l to spawn/delete notifications.
func (w *World) AddListener(l Listener) {
	w.listeners = append(w.listeners, l)
}

// RemoveListener unsubscribes l. Unknown listeners are ignored.
func (w *World) RemoveListener(l Listener) {
	for i, x := range w.listeners {
		if x == l {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return
		}
	}
}

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

// Spawned announces a fully built entity to the listeners. Call it after the
// entity's components are attached.
func (w *World) Spawned(id EntityID) {
	if !w.pool.Alive(id) {
		return
	}
	for _, l := range w.listeners {
		l.OnEntitySpawned(id)
	}
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue notifies listeners, removes components and invalidates
// every queued entity. Entities queued twice are destroyed once.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue
		}
		for _, l := range w.listeners {
			l.OnEntityDeleted(id)
		}
		for _, s := range w.stores {
			s.Remove(id)
		}
		w.pool.Destroy(id)
		n++
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
