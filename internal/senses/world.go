package senses

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/sound"
)

// Kind decides which sight category an entity lands in.
type Kind uint8

const (
	KindObject Kind = iota // generic props, reached through the Registry
	KindPlayer             // high-priority targets
	KindNPC
	KindNextBot
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	case KindNextBot:
		return "nextbot"
	}
	return "unknown"
}

// BodyFlags are per-entity sensing attributes owned by the world.
type BodyFlags uint32

const (
	// FlagNoTarget hides the entity from every agent's sight.
	FlagNoTarget BodyFlags = 1 << iota
	// FlagWaitTillSeen keeps an agent blind and deaf, and invisible to other
	// agents, until a player has it in view.
	FlagWaitTillSeen
	// FlagSensed marks an object as eligible for the Registry.
	FlagSensed
)

// Efficiency throttles how much sensing work an agent gets.
type Efficiency uint8

const (
	EfficiencyNormal Efficiency = iota
	EfficiencyEfficient
	EfficiencyVeryEfficient
	EfficiencySuperEfficient
	EfficiencyDormant
)

// Body is a read-only snapshot of an entity as the senses see it. Positions
// are world space, Z up.
type Body struct {
	ID     ecs.EntityID
	Kind   Kind
	Class  string
	Origin r3.Vec // feet
	Eye    r3.Vec // eye and ear position
	Center r3.Vec // aim point for view cone tests
	Facing r3.Vec // forward direction, need not be unit length
	Alive  bool
	Flags  BodyFlags

	// Only meaningful for sensing agents.
	FieldOfView        float64 // cosine of the half cone angle; -1 sees all around
	HearingSensitivity float64
	SoundInterests     sound.Type
	Efficiency         Efficiency
}

func (b Body) Has(f BodyFlags) bool { return b.Flags&f == f }

// World is the entity side of the simulation that the senses read.
type World interface {
	Now() time.Duration
	Alive(id ecs.EntityID) bool
	Body(id ecs.EntityID) (Body, bool)
	// Each visits entities of kind that may lie within radius of near.
	// It may over-report; callers do the exact distance test. A negative
	// radius visits every entity of the kind. Stops when fn returns false.
	Each(kind Kind, near r3.Vec, radius float64, fn func(ecs.EntityID) bool)
	ClearBodyFlags(id ecs.EntityID, f BodyFlags)
}

// Tracer is the occlusion primitive. Visible reports whether the segment
// from -> to is clear of world geometry, ignoring the entity at ignore and
// treating a hit on target as clear.
type Tracer interface {
	Visible(from, to r3.Vec, ignore, target ecs.EntityID) bool
}

// SoundFeed is the world's chronological list of sounds and scents.
type SoundFeed interface {
	EachActive(fn func(*sound.Sound) bool)
	Get(id sound.ID) (*sound.Sound, bool)
}

// Filter holds the game-specific rules layered over the geometric tests.
type Filter interface {
	QuerySeeEntity(agent, target Body) bool
	QueryHearSound(agent Body, s *sound.Sound) bool
}

// AllowAll is the Filter used when none is configured.
type AllowAll struct{}

func (AllowAll) QuerySeeEntity(Body, Body) bool         { return true }
func (AllowAll) QueryHearSound(Body, *sound.Sound) bool { return true }

// Deps bundles the collaborators every agent's Senses shares.
type Deps struct {
	World    World
	Tracer   Tracer
	Sounds   SoundFeed
	Objects  *Registry
	Filter   Filter
	Schedule *Schedule
	Log      *zap.Logger
}

func (d *Deps) filter() Filter {
	if d.Filter == nil {
		return AllowAll{}
	}
	return d.Filter
}
