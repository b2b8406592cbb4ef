// Package senses is the per-agent perception subsystem. Each sensing agent
// owns a Senses value that decides, on a throttled schedule, which entities
// it currently sees and which sounds it currently hears, and exposes the
// results through cursor-style iterators.
//
// Every reference a Senses keeps is weak: entities are held as generational
// ecs.EntityID and sounds as generational sound.ID, so a target that dies or
// a sound that expires simply stops resolving.
package senses

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/sound"
)

// DefaultLookDistance is the sight range a new agent starts with.
const DefaultLookDistance = 2048

// Flags turn whole senses off for one agent.
type Flags uint32

const (
	DontLook Flags = 1 << iota
	DontListen
)

// Senses is one agent's perception state. It is owned by the agent and only
// touched from the simulation goroutine.
type Senses struct {
	owner ecs.EntityID
	deps  *Deps
	log   *zap.Logger

	flags        Flags
	lookDist     float64
	lastLookDist float64
	timeLastLook time.Duration

	seen     [NumCategories][]ecs.EntityID
	lastScan [NumCategories]time.Duration
	audible  []sound.ID

	// scratch reused by every scan
	gather []ecs.EntityID
	noted  map[ecs.EntityID]struct{}
}

// New creates the senses for owner. deps is shared between agents and must
// outlive the returned value.
func New(owner ecs.EntityID, deps *Deps) *Senses {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Senses{
		owner: owner,
		deps:  deps,
		log:   log.With(zap.Stringer("agent", owner)),
		noted: make(map[ecs.EntityID]struct{}),
	}
	s.Reset()
	return s
}

// Reset returns the senses to their just-constructed state.
func (s *Senses) Reset() {
	s.flags = 0
	s.lookDist = DefaultLookDistance
	s.lastLookDist = -1
	s.timeLastLook = Never
	for i := range s.seen {
		s.seen[i] = s.seen[i][:0]
		s.lastScan[i] = Never
	}
	s.audible = s.audible[:0]
}

func (s *Senses) Owner() ecs.EntityID { return s.owner }

func (s *Senses) LookDist() float64 { return s.lookDist }

func (s *Senses) SetLookDist(d float64) {
	if d < 0 {
		d = 0
	}
	s.lookDist = d
}

func (s *Senses) Flags() Flags                 { return s.flags }
func (s *Senses) HasSensingFlags(f Flags) bool { return s.flags&f == f }
func (s *Senses) AddSensingFlags(f Flags)      { s.flags |= f }
func (s *Senses) RemoveSensingFlags(f Flags)   { s.flags &^= f }

// PerformSensing runs one sensing pass: Look unless DontLook is set, then
// Listen unless DontListen is set. A suppressed Look leaves the seen lists
// as they were; a suppressed Listen empties the audible list.
func (s *Senses) PerformSensing() {
	if !s.HasSensingFlags(DontLook) {
		s.Look(s.lookDist)
	}
	if !s.HasSensingFlags(DontListen) {
		s.Listen()
	} else {
		s.audible = s.audible[:0]
	}
}

// Look refreshes whichever sight categories are due, out to dist rather
// than the configured look distance. A second call at the same simulation
// time with the same distance does nothing.
func (s *Senses) Look(dist float64) {
	now := s.deps.World.Now()
	if s.timeLastLook == now && s.lastLookDist == dist {
		return
	}
	agent, ok := s.deps.World.Body(s.owner)
	if !ok {
		return
	}

	total := 0
	for _, c := range Categories {
		total += s.lookFor(c, &agent, dist, now)
	}

	s.timeLastLook = now
	s.lastLookDist = dist

	if ce := s.log.Check(zap.DebugLevel, "look"); ce != nil {
		ce.Write(zap.Float64("dist", dist), zap.Int("seen", total))
	}
}

// lookFor rescans category c if it is due and returns its current size.
func (s *Senses) lookFor(c SeenType, agent *Body, dist float64, now time.Duration) int {
	if !s.deps.Schedule.Due(c, agent.Efficiency, s.lastScan[c], now) {
		return len(s.seen[c])
	}

	s.gather = s.gather[:0]
	clear(s.noted)
	distSq := dist * dist

	visit := func(id ecs.EntityID) bool {
		if id == s.owner {
			return true
		}
		if _, dup := s.noted[id]; dup {
			return true
		}
		target, ok := s.deps.World.Body(id)
		if !ok || r3.Norm2(r3.Sub(target.Origin, agent.Origin)) >= distSq {
			return true
		}
		if s.look(agent, target, dist) {
			s.noted[id] = struct{}{}
			s.gather = append(s.gather, id)
		}
		return true
	}

	if c == SeenMisc {
		if reg := s.deps.Objects; reg != nil {
			var it RegistryIter
			for id := reg.First(&it); !id.IsZero(); id = reg.Next(&it) {
				visit(id)
			}
		}
	} else {
		s.deps.World.Each(kindOf(c), agent.Origin, dist, visit)
	}

	s.seen[c], s.gather = s.gather, s.seen[c][:0]
	if now > s.lastScan[c] {
		s.lastScan[c] = now
	}
	return len(s.seen[c])
}

// look is the per-candidate test shared by every category.
func (s *Senses) look(agent *Body, target Body, dist float64) bool {
	if s.waitingUntilSeen(agent, target) {
		return false
	}
	return s.shouldSee(*agent, target, dist) && s.canSee(*agent, target)
}

// TimeLastUpdate returns when the category that id belongs to was last
// scanned, Never if it has not been yet, or 0 if id does not resolve.
func (s *Senses) TimeLastUpdate(id ecs.EntityID) time.Duration {
	b, ok := s.deps.World.Body(id)
	if !ok {
		return 0
	}
	return s.lastScan[categoryOf(b.Kind)]
}

// LastScan returns when category c was last scanned.
func (s *Senses) LastScan(c SeenType) time.Duration {
	if !c.valid() {
		return Never
	}
	return s.lastScan[c]
}

// Snapshot is the persistable part of a Senses. Audible sounds are not
// included since sound handles do not survive a restart.
type Snapshot struct {
	Flags        Flags
	LookDist     float64
	LastLookDist float64
	TimeLastLook time.Duration
	LastScan     [NumCategories]time.Duration
	Seen         [NumCategories][]ecs.EntityID
}

func (s *Senses) Snapshot() Snapshot {
	snap := Snapshot{
		Flags:        s.flags,
		LookDist:     s.lookDist,
		LastLookDist: s.lastLookDist,
		TimeLastLook: s.timeLastLook,
		LastScan:     s.lastScan,
	}
	for i := range s.seen {
		snap.Seen[i] = append([]ecs.EntityID(nil), s.seen[i]...)
	}
	return snap
}

// Restore overwrites the sight state from snap. Entities that no longer
// resolve are kept; iteration skips them like any other stale reference.
func (s *Senses) Restore(snap Snapshot) {
	s.flags = snap.Flags
	s.lookDist = snap.LookDist
	s.lastLookDist = snap.LastLookDist
	s.timeLastLook = snap.TimeLastLook
	s.lastScan = snap.LastScan
	for i := range s.seen {
		s.seen[i] = append(s.seen[i][:0], snap.Seen[i]...)
	}
	s.audible = s.audible[:0]
}
