package senses

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
)

// Portal is one end of a linked pair of connectors. Looking into a portal
// continues the view from its Linked end, rotated by the yaw difference.
type Portal struct {
	ID     ecs.EntityID
	Origin r3.Vec
	Yaw    float64 // radians; the portal faces along (cos Yaw, sin Yaw, 0)
	Active bool
	Linked *Portal
}

// Normal is the direction the portal faces.
func (p *Portal) Normal() r3.Vec {
	return r3.Vec{X: math.Cos(p.Yaw), Y: math.Sin(p.Yaw)}
}

func (p *Portal) rotation() r3.Rotation {
	return r3.NewRotation(p.Linked.Yaw-p.Yaw+math.Pi, r3.Vec{Z: 1})
}

// TransformPoint maps a world point in front of p to where it appears in
// front of the linked portal.
func (p *Portal) TransformPoint(v r3.Vec) r3.Vec {
	return r3.Add(p.rotation().Rotate(r3.Sub(v, p.Origin)), p.Linked.Origin)
}

// TransformDir maps a direction through the portal pair.
func (p *Portal) TransformDir(v r3.Vec) r3.Vec {
	return p.rotation().Rotate(v)
}

// InViewCone reports whether point lies inside the horizontal view cone
// of viewer. A point straight above or below the eye counts as inside.
func InViewCone(viewer Body, point r3.Vec) bool {
	return inCone(viewer.Eye, viewer.Facing, viewer.FieldOfView, point)
}

func inCone(eye, facing r3.Vec, fov float64, point r3.Vec) bool {
	if fov <= -1 {
		return true
	}
	los := r3.Sub(point, eye)
	los.Z = 0
	if r3.Norm2(los) == 0 {
		return true
	}
	facing.Z = 0
	if r3.Norm2(facing) == 0 {
		return false
	}
	return r3.Dot(r3.Unit(los), r3.Unit(facing)) > fov
}

// ShouldSeeEntity applies the non-geometric sight rules: self, liveness,
// notarget, wait-till-seen, range and the configured Filter. Range is the
// configured look distance.
func (s *Senses) ShouldSeeEntity(id ecs.EntityID) bool {
	agent, ok := s.deps.World.Body(s.owner)
	if !ok {
		return false
	}
	target, ok := s.deps.World.Body(id)
	if !ok {
		return false
	}
	return s.shouldSee(agent, target, s.lookDist)
}

func (s *Senses) shouldSee(agent, target Body, dist float64) bool {
	switch {
	case target.ID == agent.ID:
		return false
	case !target.Alive:
		return false
	case target.Has(FlagNoTarget):
		return false
	case target.Has(FlagWaitTillSeen):
		return false
	}
	if r3.Norm2(r3.Sub(target.Origin, agent.Origin)) > dist*dist {
		return false
	}
	return s.deps.filter().QuerySeeEntity(agent, target)
}

// CanSeeEntity is the geometric test: target in the agent's view cone and an
// unobstructed line from eye to eye.
func (s *Senses) CanSeeEntity(id ecs.EntityID) bool {
	agent, ok := s.deps.World.Body(s.owner)
	if !ok {
		return false
	}
	target, ok := s.deps.World.Body(id)
	if !ok {
		return false
	}
	return s.canSee(agent, target)
}

func (s *Senses) canSee(agent, target Body) bool {
	if !InViewCone(agent, target.Center) {
		return false
	}
	return s.deps.Tracer.Visible(agent.Eye, target.Eye, agent.ID, target.ID)
}

// CanSeeEntityThroughPortal reports whether the agent sees target by looking
// into p and out of its linked end. The portal must be active, in view and
// unobstructed; the target must be in front of the exit and inside the
// agent's cone as carried through the pair.
func (s *Senses) CanSeeEntityThroughPortal(id ecs.EntityID, p *Portal) bool {
	if p == nil || !p.Active || p.Linked == nil || !p.Linked.Active {
		return false
	}
	agent, ok := s.deps.World.Body(s.owner)
	if !ok {
		return false
	}
	target, ok := s.deps.World.Body(id)
	if !ok {
		return false
	}

	// Entering from behind the portal shows nothing.
	if r3.Dot(r3.Sub(agent.Eye, p.Origin), p.Normal()) <= 0 {
		return false
	}
	if !InViewCone(agent, p.Origin) || !s.deps.Tracer.Visible(agent.Eye, p.Origin, agent.ID, p.ID) {
		return false
	}
	if r3.Dot(r3.Sub(target.Center, p.Linked.Origin), p.Linked.Normal()) <= 0 {
		return false
	}

	eye := p.TransformPoint(agent.Eye)
	facing := p.TransformDir(agent.Facing)
	if !inCone(eye, facing, agent.FieldOfView, target.Center) {
		return false
	}
	return s.deps.Tracer.Visible(p.Linked.Origin, target.Eye, p.Linked.ID, target.ID)
}

// waitingUntilSeen reports whether the agent is still hidden from target.
// An agent flagged FlagWaitTillSeen sees nothing until a player has it in
// view; that player's sighting clears the flag for good.
func (s *Senses) waitingUntilSeen(agent *Body, target Body) bool {
	if !agent.Has(FlagWaitTillSeen) {
		return false
	}
	if target.Kind == KindPlayer && target.Alive &&
		InViewCone(target, agent.Center) &&
		s.deps.Tracer.Visible(target.Eye, agent.Eye, target.ID, agent.ID) {
		s.deps.World.ClearBodyFlags(agent.ID, FlagWaitTillSeen)
		agent.Flags &^= FlagWaitTillSeen
		s.log.Debug("spotted by player, no longer waiting", zap.Stringer("player", target.ID))
		return false
	}
	return true
}
