package world

import (
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
)

// Body is the world-side record of an entity. Positions are in world units,
// Z up; Yaw is in radians.
type Body struct {
	Name      string
	Kind      senses.Kind
	Class     string
	Origin    r3.Vec
	Yaw       float64
	EyeHeight float64
	Alive     bool
	Flags     senses.BodyFlags

	FieldOfView        float64
	HearingSensitivity float64
	SoundInterests     sound.Type
	Efficiency         senses.Efficiency
}

func (b *Body) eye() r3.Vec    { return r3.Add(b.Origin, r3.Vec{Z: b.EyeHeight}) }
func (b *Body) center() r3.Vec { return r3.Add(b.Origin, r3.Vec{Z: b.EyeHeight / 2}) }

func (b *Body) facing() r3.Vec {
	return r3.Vec{X: math.Cos(b.Yaw), Y: math.Sin(b.Yaw)}
}

const numKinds = 4

// State tracks every body in the simulation, the static geometry and the
// clock. It implements senses.World and senses.Tracer.
// Single-goroutine access only (simulation loop).
type State struct {
	ecs    *ecs.World
	bodies *ecs.PtrComponentStore[Body]
	agents *ecs.PtrComponentStore[senses.Senses]
	log    *zap.Logger

	grid   *AOIGrid
	byKind [numKinds][]ecs.EntityID // spawn order, for full scans
	byName map[string]ecs.EntityID

	occluders []Occluder
	portals   map[string]*senses.Portal

	now time.Duration

	// reusable AOI query buffer
	aoiBuf []ecs.EntityID
}

func NewState(w *ecs.World, cellSize float64, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		ecs:     w,
		bodies:  ecs.NewPtrComponentStore[Body](),
		agents:  ecs.NewPtrComponentStore[senses.Senses](),
		log:     log,
		grid:    NewAOIGrid(cellSize),
		byName:  make(map[string]ecs.EntityID),
		portals: make(map[string]*senses.Portal),
	}
	w.Register(s.bodies)
	w.Register(s.agents)
	w.AddListener(s)
	return s
}

// ECS returns the entity world the state is built on.
func (s *State) ECS() *ecs.World { return s.ecs }

// Spawn creates an entity for b and announces it. A non-empty name must be
// unique; a duplicate name replaces the lookup but not the entity.
func (s *State) Spawn(b Body) ecs.EntityID {
	id := s.ecs.CreateEntity()
	body := b
	s.bodies.Set(id, &body)
	s.grid.Add(id, body.Origin)
	s.byKind[body.Kind] = append(s.byKind[body.Kind], id)
	if body.Name != "" {
		s.byName[body.Name] = id
	}
	s.ecs.Spawned(id)
	s.log.Debug("spawn",
		zap.Stringer("entity", id),
		zap.Stringer("kind", body.Kind),
		zap.String("class", body.Class),
	)
	return id
}

// Despawn queues id for destruction at the end of the tick.
func (s *State) Despawn(id ecs.EntityID) {
	if s.ecs.Alive(id) {
		s.ecs.MarkForDestruction(id)
	}
}

// OnEntitySpawned is part of ecs.Listener; bookkeeping happens in Spawn.
func (s *State) OnEntitySpawned(ecs.EntityID) {}

// OnEntityDeleted drops id from the broad phase and the name table.
func (s *State) OnEntityDeleted(id ecs.EntityID) {
	b, ok := s.bodies.Get(id)
	if !ok {
		return
	}
	s.grid.Remove(id, b.Origin)
	list := s.byKind[b.Kind]
	for i, x := range list {
		if x == id {
			s.byKind[b.Kind] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if b.Name != "" && s.byName[b.Name] == id {
		delete(s.byName, b.Name)
	}
}

// Lookup returns the entity spawned under name.
func (s *State) Lookup(name string) (ecs.EntityID, bool) {
	id, ok := s.byName[name]
	if !ok || !s.ecs.Alive(id) {
		return ecs.NoEntity, false
	}
	return id, true
}

// Get returns the mutable body of id.
func (s *State) Get(id ecs.EntityID) (*Body, bool) {
	if !s.ecs.Alive(id) {
		return nil, false
	}
	return s.bodies.Get(id)
}

// Move relocates id and keeps the broad phase in sync.
func (s *State) Move(id ecs.EntityID, to r3.Vec) {
	b, ok := s.Get(id)
	if !ok {
		return
	}
	s.grid.Move(id, b.Origin, to)
	b.Origin = to
}

// Turn sets the facing yaw of id in radians.
func (s *State) Turn(id ecs.EntityID, yaw float64) {
	if b, ok := s.Get(id); ok {
		b.Yaw = yaw
	}
}

// Kill marks id dead without destroying it.
func (s *State) Kill(id ecs.EntityID) {
	if b, ok := s.Get(id); ok {
		b.Alive = false
	}
}

func (s *State) SetBodyFlags(id ecs.EntityID, f senses.BodyFlags) {
	if b, ok := s.Get(id); ok {
		b.Flags |= f
	}
}

// AttachSenses makes id a sensing agent.
func (s *State) AttachSenses(id ecs.EntityID, sn *senses.Senses) {
	if s.ecs.Alive(id) {
		s.agents.Set(id, sn)
	}
}

// Senses returns the perception state of agent id.
func (s *State) Senses(id ecs.EntityID) (*senses.Senses, bool) {
	if !s.ecs.Alive(id) {
		return nil, false
	}
	return s.agents.Get(id)
}

// EachAgent visits every sensing agent in spawn order.
func (s *State) EachAgent(fn func(ecs.EntityID, *senses.Senses)) {
	for k := range s.byKind {
		for _, id := range s.byKind[k] {
			if sn, ok := s.agents.Get(id); ok {
				fn(id, sn)
			}
		}
	}
}

// AgentCount is the number of sensing agents.
func (s *State) AgentCount() int { return s.agents.Len() }

// Count returns how many entities of kind are in the world.
func (s *State) Count(kind senses.Kind) int {
	if int(kind) >= numKinds {
		return 0
	}
	return len(s.byKind[kind])
}

// Advance moves the simulation clock forward.
func (s *State) Advance(dt time.Duration) { s.now += dt }

func (s *State) SetNow(t time.Duration) { s.now = t }

// --- senses.World ---

func (s *State) Now() time.Duration { return s.now }

func (s *State) Alive(id ecs.EntityID) bool { return s.ecs.Alive(id) }

func (s *State) Body(id ecs.EntityID) (senses.Body, bool) {
	b, ok := s.Get(id)
	if !ok {
		return senses.Body{}, false
	}
	return senses.Body{
		ID:                 id,
		Kind:               b.Kind,
		Class:              b.Class,
		Origin:             b.Origin,
		Eye:                b.eye(),
		Center:             b.center(),
		Facing:             b.facing(),
		Alive:              b.Alive,
		Flags:              b.Flags,
		FieldOfView:        b.FieldOfView,
		HearingSensitivity: b.HearingSensitivity,
		SoundInterests:     b.SoundInterests,
		Efficiency:         b.Efficiency,
	}, true
}

// Each narrows through the AOI grid when radius is non-negative, otherwise
// walks every entity of kind in spawn order. Not reentrant: fn must not call
// Each.
func (s *State) Each(kind senses.Kind, near r3.Vec, radius float64, fn func(ecs.EntityID) bool) {
	if int(kind) >= numKinds {
		return
	}
	if radius < 0 {
		for _, id := range s.byKind[kind] {
			if !fn(id) {
				return
			}
		}
		return
	}
	s.aoiBuf = s.grid.NearbyInto(near, radius, s.aoiBuf)
	for _, id := range s.aoiBuf {
		b, ok := s.bodies.Get(id)
		if !ok || b.Kind != kind {
			continue
		}
		if !fn(id) {
			return
		}
	}
}

func (s *State) ClearBodyFlags(id ecs.EntityID, f senses.BodyFlags) {
	if b, ok := s.Get(id); ok {
		b.Flags &^= f
	}
}
