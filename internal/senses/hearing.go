package senses

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/sound"
)

// Listen rebuilds the list of sounds the agent hears. Only sounds matching
// the agent's interest mask are considered, in feed order (newest first). An
// agent waiting to be seen hears nothing.
func (s *Senses) Listen() {
	s.audible = s.audible[:0]
	if s.deps.Sounds == nil {
		return
	}
	agent, ok := s.deps.World.Body(s.owner)
	if !ok || agent.Has(FlagWaitTillSeen) {
		return
	}
	mask := agent.SoundInterests
	if mask == sound.None {
		return
	}
	s.deps.Sounds.EachActive(func(snd *sound.Sound) bool {
		if snd.Type.Is(mask) && s.canHear(agent, snd) {
			s.audible = append(s.audible, snd.ID())
		}
		return true
	})
}

// CanHearSound reports whether the agent hears snd right now: not its own,
// within volume scaled by hearing sensitivity, and allowed by the Filter.
func (s *Senses) CanHearSound(snd *sound.Sound) bool {
	if snd == nil {
		return false
	}
	agent, ok := s.deps.World.Body(s.owner)
	if !ok {
		return false
	}
	return s.canHear(agent, snd)
}

func (s *Senses) canHear(agent Body, snd *sound.Sound) bool {
	if snd.Owner == agent.ID {
		return false
	}
	reach := snd.Volume * agent.HearingSensitivity
	if r3.Norm2(r3.Sub(snd.Origin, agent.Eye)) > reach*reach {
		return false
	}
	return s.deps.filter().QueryHearSound(agent, snd)
}

// SoundIter is a cursor over the agent's audible list.
type SoundIter struct {
	next int
}

// FirstHeardSound resets it and returns the first audible sound still in the
// feed, or nil.
func (s *Senses) FirstHeardSound(it *SoundIter) *sound.Sound {
	it.next = 0
	return s.NextHeardSound(it)
}

// NextHeardSound advances it, skipping sounds that expired since Listen.
func (s *Senses) NextHeardSound(it *SoundIter) *sound.Sound {
	if s.deps.Sounds == nil {
		return nil
	}
	for it.next < len(s.audible) {
		id := s.audible[it.next]
		it.next++
		if snd, ok := s.deps.Sounds.Get(id); ok {
			return snd
		}
	}
	return nil
}

// HeardCount is the length of the audible list, expired entries included.
func (s *Senses) HeardCount() int { return len(s.audible) }

// ClosestSound picks, among audible sounds of the requested kind whose type
// intersects validTypes, the one with the highest priority (when usePriority
// is set) and then the smallest distance to the agent's ear. Ties keep the
// earlier one in the audible list. Returns nil when nothing qualifies.
func (s *Senses) ClosestSound(scent bool, validTypes sound.Type, usePriority bool) *sound.Sound {
	agent, ok := s.deps.World.Body(s.owner)
	if !ok {
		return nil
	}

	var (
		best     *sound.Sound
		bestDist float64
	)
	var it SoundIter
	for snd := s.FirstHeardSound(&it); snd != nil; snd = s.NextHeardSound(&it) {
		if scent != snd.IsScent() || !snd.Type.Is(validTypes) {
			continue
		}
		dist := r3.Norm2(r3.Sub(snd.Origin, agent.Eye))
		switch {
		case best == nil:
		case usePriority && snd.Priority > best.Priority:
		case usePriority && snd.Priority < best.Priority:
			continue
		case dist < bestDist:
		default:
			continue
		}
		best, bestDist = snd, dist
	}
	return best
}
