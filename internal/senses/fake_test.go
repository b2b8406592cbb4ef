package senses

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/sound"
)

// fakeWorld is an in-memory World. Each over-reports on purpose: it ignores
// the radius hint so the exact range test in Senses gets exercised.
type fakeWorld struct {
	now    time.Duration
	pool   *ecs.EntityPool
	bodies map[ecs.EntityID]*Body
	order  []ecs.EntityID
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		pool:   ecs.NewEntityPool(),
		bodies: make(map[ecs.EntityID]*Body),
	}
}

func (w *fakeWorld) Now() time.Duration { return w.now }

func (w *fakeWorld) Alive(id ecs.EntityID) bool { return w.pool.Alive(id) }

func (w *fakeWorld) Body(id ecs.EntityID) (Body, bool) {
	if !w.pool.Alive(id) {
		return Body{}, false
	}
	b, ok := w.bodies[id]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

func (w *fakeWorld) Each(kind Kind, _ r3.Vec, _ float64, fn func(ecs.EntityID) bool) {
	for _, id := range w.order {
		b, ok := w.bodies[id]
		if !ok || b.Kind != kind {
			continue
		}
		if !fn(id) {
			return
		}
	}
}

func (w *fakeWorld) ClearBodyFlags(id ecs.EntityID, f BodyFlags) {
	if b, ok := w.bodies[id]; ok {
		b.Flags &^= f
	}
}

// spawn places an alive entity of kind at x,y standing on z=0, facing +X.
func (w *fakeWorld) spawn(kind Kind, x, y float64) ecs.EntityID {
	id := w.pool.Create()
	b := &Body{
		ID:                 id,
		Kind:               kind,
		Alive:              true,
		Facing:             r3.Vec{X: 1},
		FieldOfView:        0.5,
		HearingSensitivity: 1,
		SoundInterests:     sound.AllSounds | sound.AllScents,
	}
	w.bodies[id] = b
	w.order = append(w.order, id)
	w.place(id, x, y)
	return id
}

func (w *fakeWorld) place(id ecs.EntityID, x, y float64) {
	b := w.bodies[id]
	b.Origin = r3.Vec{X: x, Y: y}
	b.Eye = r3.Vec{X: x, Y: y, Z: 64}
	b.Center = r3.Vec{X: x, Y: y, Z: 36}
}

func (w *fakeWorld) kill(id ecs.EntityID) {
	delete(w.bodies, id)
	w.pool.Destroy(id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *fakeWorld) body(id ecs.EntityID) *Body { return w.bodies[id] }

// fakeTracer blocks the lines listed as (viewer, target) pairs.
type fakeTracer struct {
	blocked map[[2]ecs.EntityID]bool
}

func (t *fakeTracer) Visible(_, _ r3.Vec, ignore, target ecs.EntityID) bool {
	return !t.blocked[[2]ecs.EntityID{ignore, target}]
}

func (t *fakeTracer) block(viewer, target ecs.EntityID) {
	if t.blocked == nil {
		t.blocked = make(map[[2]ecs.EntityID]bool)
	}
	t.blocked[[2]ecs.EntityID{viewer, target}] = true
}

type harness struct {
	world  *fakeWorld
	tracer *fakeTracer
	feed   *sound.Feed
	reg    *Registry
	deps   *Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := &harness{
		world:  newFakeWorld(),
		tracer: &fakeTracer{},
		feed:   sound.NewFeed(16, log),
		reg:    NewRegistry(log),
	}
	h.deps = &Deps{
		World:    h.world,
		Tracer:   h.tracer,
		Sounds:   h.feed,
		Objects:  h.reg,
		Schedule: DefaultSchedule(),
		Log:      log,
	}
	h.reg.Init(h.world, nil)
	return h
}

// agent spawns an NPC at the origin facing +X and returns its senses.
func (h *harness) agent() (ecs.EntityID, *Senses) {
	id := h.world.spawn(KindNPC, 0, 0)
	return id, New(id, h.deps)
}

// object spawns a sensed prop and registers it.
func (h *harness) object(x, y float64) ecs.EntityID {
	id := h.world.spawn(KindObject, x, y)
	h.world.body(id).Flags |= FlagSensed
	h.reg.OnEntitySpawned(id)
	return id
}

func (h *harness) at(d time.Duration) { h.world.now = d }

func seenList(s *Senses, filter SeenType) []ecs.EntityID {
	var out []ecs.EntityID
	var it SightIter
	for id := s.FirstSeenEntity(&it, filter); !id.IsZero(); id = s.NextSeenEntity(&it) {
		out = append(out, id)
	}
	return out
}

func heardList(s *Senses) []sound.ID {
	var out []sound.ID
	var it SoundIter
	for snd := s.FirstHeardSound(&it); snd != nil; snd = s.NextHeardSound(&it) {
		out = append(out, snd.ID())
	}
	return out
}

func sameIDs[T comparable](got, want []T) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
