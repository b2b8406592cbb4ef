package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: swap event buffers, run spawn/delete hooks
	PhaseUpdate                  // 1: world logic (scenario movement, sound emission)
	PhaseSense                   // 2: per-agent perception
	PhasePostUpdate              // 3: stats, summaries
	PhasePersist                 // 4: snapshot save
	PhaseCleanup                 // 5: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhaseSense:
		return "sense"
	case PhasePostUpdate:
		return "post_update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
