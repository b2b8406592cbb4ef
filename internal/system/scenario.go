package system

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/core/event"
	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/data"
	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
	"github.com/l1jgo/aisenses/internal/world"
)

// AgentDefaults fill in what a class template leaves unset.
type AgentDefaults struct {
	LookDistance   float64
	SoundInterests sound.Type
}

// ScenarioSystem builds the initial world from a scenario and replays its
// timeline. Phase 1 (Update); registered ahead of the sound system so that
// scripted changes land before sensing.
type ScenarioSystem struct {
	world    *world.State
	bus      *event.Bus
	classes  *data.ClassTable
	scenario *data.Scenario
	deps     *senses.Deps
	defaults AgentDefaults
	log      *zap.Logger

	next int // index of the first event not yet applied
}

func NewScenarioSystem(ws *world.State, bus *event.Bus, classes *data.ClassTable, sc *data.Scenario, deps *senses.Deps, defaults AgentDefaults, log *zap.Logger) *ScenarioSystem {
	return &ScenarioSystem{
		world:    ws,
		bus:      bus,
		classes:  classes,
		scenario: sc,
		deps:     deps,
		defaults: defaults,
		log:      log,
	}
}

func (s *ScenarioSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Setup spawns the scenario's entities, occluders and portals. Call once,
// before the registry is initialised, so that the registry picks up the
// starting objects in one pass.
func (s *ScenarioSystem) Setup() error {
	for _, e := range s.scenario.Entities {
		if _, err := s.spawn(e); err != nil {
			return fmt.Errorf("spawn %s: %w", e.Name, err)
		}
	}
	for i, o := range s.scenario.Occluders {
		occ := world.Occluder{Box: r3.Box{Min: vec(o.Min), Max: vec(o.Max)}}
		if o.Owner != "" {
			id, ok := s.world.Lookup(o.Owner)
			if !ok {
				return fmt.Errorf("occluder %d: unknown owner %q", i, o.Owner)
			}
			occ.Owner = id
		}
		s.world.AddOccluder(occ)
	}
	for _, p := range s.scenario.Portals {
		_, _, err := s.world.LinkPortals(
			world.PortalEnd{Name: p.A.Name, Origin: vec(p.A.Pos), Yaw: radians(p.A.Yaw)},
			world.PortalEnd{Name: p.B.Name, Origin: vec(p.B.Pos), Yaw: radians(p.B.Yaw)},
		)
		if err != nil {
			return err
		}
	}
	s.log.Info("scenario loaded",
		zap.String("name", s.scenario.Name),
		zap.Int("entities", len(s.scenario.Entities)),
		zap.Int("agents", s.world.AgentCount()),
		zap.Int("occluders", s.world.Occluders()),
		zap.Int("portal_pairs", len(s.scenario.Portals)),
		zap.Int("events", len(s.scenario.Events)),
	)
	return nil
}

func (s *ScenarioSystem) Update(_ time.Duration) {
	now := s.world.Now()
	events := s.scenario.Events
	for s.next < len(events) && events[s.next].At <= now {
		s.apply(&events[s.next])
		s.next++
	}
}

// Done reports whether every timeline event has been applied.
func (s *ScenarioSystem) Done() bool {
	return s.next >= len(s.scenario.Events)
}

func (s *ScenarioSystem) spawn(e data.SpawnEntry) (ecs.EntityID, error) {
	c := s.classes.Get(e.Class)
	if c == nil {
		return ecs.NoEntity, fmt.Errorf("unknown class %q", e.Class)
	}
	flags, err := data.ParseBodyFlags(e.Flags)
	if err != nil {
		return ecs.NoEntity, err
	}
	if c.Sensed {
		flags |= senses.FlagSensed
	}
	if c.WaitTillSeen {
		flags |= senses.FlagWaitTillSeen
	}
	interests := c.Interests()
	if interests == sound.None && c.Agent {
		interests = s.defaults.SoundInterests
	}

	id := s.world.Spawn(world.Body{
		Name:               e.Name,
		Kind:               c.SenseKind(),
		Class:              c.Name,
		Origin:             vec(e.Pos),
		Yaw:                radians(e.Yaw),
		EyeHeight:          c.EyeHeight,
		Alive:              !e.Dead,
		Flags:              flags,
		FieldOfView:        c.FieldOfView(),
		HearingSensitivity: c.HearingSensitivity,
		SoundInterests:     interests,
		Efficiency:         c.EfficiencyLevel(),
	})
	if c.Agent {
		sn := senses.New(id, s.deps)
		dist := c.LookDistance
		if dist == 0 {
			dist = s.defaults.LookDistance
		}
		sn.SetLookDist(dist)
		s.world.AttachSenses(id, sn)
	}
	return id, nil
}

func (s *ScenarioSystem) apply(ev *data.EventEntry) {
	log := s.log.With(zap.String("action", ev.Action), zap.Duration("at", ev.At))

	var target ecs.EntityID
	if ev.Target != "" {
		id, ok := s.world.Lookup(ev.Target)
		if !ok {
			log.Warn("event target not found", zap.String("target", ev.Target))
			return
		}
		target = id
	}

	switch ev.Action {
	case data.ActionMove:
		s.world.Move(target, vec(ev.Pos))
	case data.ActionTurn:
		s.world.Turn(target, radians(ev.Yaw))
	case data.ActionKill:
		s.world.Kill(target)
	case data.ActionDespawn:
		s.world.Despawn(target)
	case data.ActionSpawn:
		if _, err := s.spawn(*ev.Spawn); err != nil {
			log.Warn("spawn failed", zap.Error(err))
			return
		}
	case data.ActionSound:
		mask, _ := data.ParseSoundMask(ev.Sound.Types)
		event.Emit(s.bus, event.SoundEmitted{Sound: sound.Emit{
			Origin:   vec(ev.Pos),
			Volume:   ev.Sound.Volume,
			Type:     mask,
			Priority: sound.Priority(ev.Sound.Priority),
			Owner:    target,
			Channel:  ev.Sound.Channel,
			Duration: ev.Sound.Duration,
		}})
	case data.ActionFlag, data.ActionUnflag:
		f, _ := data.ParseBodyFlags(ev.Flags)
		if ev.Action == data.ActionFlag {
			s.world.SetBodyFlags(target, f)
		} else {
			s.world.ClearBodyFlags(target, f)
		}
	case data.ActionSense, data.ActionUnsense, data.ActionLookDist:
		sn, ok := s.world.Senses(target)
		if !ok {
			log.Warn("event target is not an agent", zap.String("target", ev.Target))
			return
		}
		switch ev.Action {
		case data.ActionLookDist:
			sn.SetLookDist(ev.Value)
		case data.ActionSense:
			f, _ := data.ParseSensingFlags(ev.Flags)
			sn.AddSensingFlags(f)
		default:
			f, _ := data.ParseSensingFlags(ev.Flags)
			sn.RemoveSensingFlags(f)
		}
	}
	log.Debug("scenario event", zap.String("target", ev.Target))
}

func vec(p [3]float64) r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
